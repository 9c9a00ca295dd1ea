package metrics

import (
	"sort"
	"time"

	"github.com/rcrowley/go-metrics"
)

// NewSnapshot instantiates an empty snapshot
func NewSnapshot() Snapshot {
	return Snapshot{
		Time:       time.Now().UnixNano(),
		Gauges:     map[string]GaugeData{},
		Counters:   map[string]CounterData{},
		Histograms: map[string]HistogramData{},
		Meters:     map[string]MeterData{},
		Timers:     map[string]TimerData{},
	}
}

// Snapshot is an immutable view of the reportable metrics, grouped by kind and
// keyed by metric name
type Snapshot struct {
	Time       int64
	Gauges     map[string]GaugeData
	Counters   map[string]CounterData
	Histograms map[string]HistogramData
	Meters     map[string]MeterData
	Timers     map[string]TimerData
}

// Len returns the number of entries in the snapshot
func (s Snapshot) Len() int {
	return len(s.Gauges) + len(s.Counters) + len(s.Histograms) + len(s.Meters) + len(s.Timers)
}

// Each calls fn for every measurement of the snapshot in reporting order,
// stopping at the first error
func (s Snapshot) Each(fn func(name string, m Measurement) error) error {
	for _, k := range sortedKeys(s.Gauges) {
		if err := fn(k, s.Gauges[k]); err != nil {
			return err
		}
	}
	for _, k := range sortedKeys(s.Counters) {
		if err := fn(k, s.Counters[k]); err != nil {
			return err
		}
	}
	for _, k := range sortedKeys(s.Histograms) {
		if err := fn(k, s.Histograms[k]); err != nil {
			return err
		}
	}
	for _, k := range sortedKeys(s.Meters) {
		if err := fn(k, s.Meters[k]); err != nil {
			return err
		}
	}
	for _, k := range sortedKeys(s.Timers) {
		if err := fn(k, s.Timers[k]); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Measurement is one of GaugeData, CounterData, HistogramData, MeterData or
// TimerData. No other type implements it.
type Measurement interface {
	measurement()
}

// GaugeData is a snapshot of a gauge, normalized to float64
type GaugeData struct {
	Value float64
}

// CounterData is a snapshot of a counter
type CounterData struct {
	Count int64
}

// HistogramData is a snapshot of an actual histogram
type HistogramData struct {
	Count        int64
	Distribution DistributionData
}

// MeterData is a snapshot of a meter. Rates are expressed in events per second.
type MeterData struct {
	Count    int64
	RateMean float64
	Rate1    float64
	Rate5    float64
	Rate15   float64
}

// TimerData is a snapshot of an actual timer. The distribution is expressed in
// nanoseconds and the rates in calls per second.
type TimerData struct {
	Meter        MeterData
	Distribution DistributionData
}

// DistributionData is the statistical summary of the values recorded by a
// histogram or a timer
type DistributionData struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
	P75    float64
	P95    float64
	P98    float64
	P99    float64
	P999   float64
}

func (GaugeData) measurement()     {}
func (CounterData) measurement()   {}
func (HistogramData) measurement() {}
func (MeterData) measurement()     {}
func (TimerData) measurement()     {}

var percentiles = []float64{0.5, 0.75, 0.95, 0.98, 0.99, 0.999}

// TakeSnapshot reads every metric accepted by the filter from the registry.
// Entries of kinds the exporter does not know about are ignored.
func TakeSnapshot(r metrics.Registry, f Filter) Snapshot {
	if f == nil {
		f = AllowAll
	}
	tmp := NewSnapshot()

	r.Each(func(k string, v interface{}) {
		if !f(k, v) {
			return
		}
		switch metric := v.(type) {
		case metrics.Counter:
			tmp.Counters[k] = CounterData{Count: metric.Count()}
		case metrics.Gauge:
			tmp.Gauges[k] = GaugeData{Value: float64(metric.Value())}
		case metrics.GaugeFloat64:
			tmp.Gauges[k] = GaugeData{Value: metric.Value()}
		case metrics.Histogram:
			h := metric.Snapshot()
			tmp.Histograms[k] = HistogramData{
				Count: h.Count(),
				Distribution: newDistribution(
					h.Min(), h.Max(), h.Mean(), h.StdDev(), h.Percentiles(percentiles),
				),
			}
		case metrics.Meter:
			tmp.Meters[k] = newMeterData(metric.Snapshot())
		case metrics.Timer:
			t := metric.Snapshot()
			tmp.Timers[k] = TimerData{
				Meter: MeterData{
					Count:    t.Count(),
					RateMean: t.RateMean(),
					Rate1:    t.Rate1(),
					Rate5:    t.Rate5(),
					Rate15:   t.Rate15(),
				},
				Distribution: newDistribution(
					t.Min(), t.Max(), t.Mean(), t.StdDev(), t.Percentiles(percentiles),
				),
			}
		}
	})
	return tmp
}

func newMeterData(m metrics.Meter) MeterData {
	return MeterData{
		Count:    m.Count(),
		RateMean: m.RateMean(),
		Rate1:    m.Rate1(),
		Rate5:    m.Rate5(),
		Rate15:   m.Rate15(),
	}
}

// ps must hold the values for the percentiles var, in the same order
func newDistribution(min, max int64, mean, stddev float64, ps []float64) DistributionData {
	return DistributionData{
		Min:    float64(min),
		Max:    float64(max),
		Mean:   mean,
		StdDev: stddev,
		Median: ps[0],
		P75:    ps[1],
		P95:    ps[2],
		P98:    ps[3],
		P99:    ps[4],
		P999:   ps[5],
	}
}
