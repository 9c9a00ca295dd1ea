package metrics

// Prefix is prepended to the name of every reported point
const Prefix = "Custom/app-metrics/"

// NewReporter creates a reporter flattening snapshots into the sink, converting
// rates and durations to the given units
func NewReporter(u Units, s Sink) *Reporter {
	return &Reporter{units: u, sink: s}
}

// Reporter flattens every measurement of a snapshot into one or more named points.
// It keeps no state between calls to Report.
type Reporter struct {
	units Units
	sink  Sink
}

// Units returns the units the reporter converts to
func (r *Reporter) Units() Units {
	return r.units
}

// Report sends every point derived from the snapshot to the sink. Gauges go first,
// then counters, histograms, meters and timers; each kind sorted by name.
// The first sink error aborts the cycle and it is returned as is.
func (r *Reporter) Report(s Snapshot) error {
	return s.Each(r.emit)
}

func (r *Reporter) emit(name string, m Measurement) error {
	e := emitter{sink: r.sink, name: Prefix + name}

	switch metric := m.(type) {
	case GaugeData:
		e.float("", metric.Value)
	case CounterData:
		e.count("", metric.Count)
	case HistogramData:
		e.count(".count", metric.Count)
		e.distribution(metric.Distribution, identity)
	case MeterData:
		e.count(".count", metric.Count)
		e.rates(metric, r.units.ConvertRate)
	case TimerData:
		e.count(".count", metric.Meter.Count)
		e.distribution(metric.Distribution, r.units.ConvertDuration)
		e.rates(metric.Meter, r.units.ConvertRate)
	}
	return e.err
}

func identity(v float64) float64 { return v }

// emitter sends points under a common name until the sink fails
type emitter struct {
	sink Sink
	name string
	err  error
}

func (e *emitter) record(suffix string, v Value) {
	if e.err != nil {
		return
	}
	e.err = e.sink.RecordMetric(e.name+suffix, v)
}

func (e *emitter) count(suffix string, v int64) {
	e.record(suffix, Int(v))
}

// float narrows v to single precision
func (e *emitter) float(suffix string, v float64) {
	e.record(suffix, Float(float32(v)))
}

func (e *emitter) distribution(d DistributionData, convert func(float64) float64) {
	e.float(".min", convert(d.Min))
	e.float(".max", convert(d.Max))
	e.float(".mean", convert(d.Mean))
	e.float(".stddev", convert(d.StdDev))
	e.float(".median", convert(d.Median))
	e.float(".p75", convert(d.P75))
	e.float(".p95", convert(d.P95))
	e.float(".p98", convert(d.P98))
	e.float(".p99", convert(d.P99))
	e.float(".p999", convert(d.P999))
}

func (e *emitter) rates(m MeterData, convert func(float64) float64) {
	e.float(".mean-rate", convert(m.RateMean))
	e.float(".one-minute-rate", convert(m.Rate1))
	e.float(".five-minute-rate", convert(m.Rate5))
	e.float(".fifteen-minute-rate", convert(m.Rate15))
}
