package metrics_test

import (
	"fmt"
	"time"

	metrics "github.com/krakend/krakend-newrelic/v2"
)

func ExampleReporter() {
	sink := metrics.SinkFunc(func(name string, v metrics.Value) error {
		fmt.Println(name, v)
		return nil
	})
	r := metrics.NewReporter(metrics.Units{Rate: time.Minute, Duration: time.Millisecond}, sink)

	s := metrics.NewSnapshot()
	s.Gauges["q.depth"] = metrics.GaugeData{Value: 7}
	s.Counters["reqs"] = metrics.CounterData{Count: 42}
	s.Meters["hits"] = metrics.MeterData{Count: 100, RateMean: 2.5, Rate1: 2, Rate5: 1.8, Rate15: 1.5}

	if err := r.Report(s); err != nil {
		fmt.Println(err)
	}

	// Output:
	// Custom/app-metrics/q.depth 7
	// Custom/app-metrics/reqs 42
	// Custom/app-metrics/hits.count 100
	// Custom/app-metrics/hits.mean-rate 150
	// Custom/app-metrics/hits.one-minute-rate 120
	// Custom/app-metrics/hits.five-minute-rate 108
	// Custom/app-metrics/hits.fifteen-minute-rate 90
}
