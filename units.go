package metrics

import "time"

// Units holds the time units the reported rates and durations are converted to
type Units struct {
	// Rate is the unit of time the rates are expressed per (events per Rate)
	Rate time.Duration
	// Duration is the unit of time the durations are expressed in
	Duration time.Duration
}

// DefaultUnits converts rates to events per second and durations to milliseconds
var DefaultUnits = Units{Rate: time.Second, Duration: time.Millisecond}

// ConvertRate converts a rate expressed in events per second into events per u.Rate
func (u Units) ConvertRate(rate float64) float64 {
	return rate * u.Rate.Seconds()
}

// ConvertDuration converts a duration expressed in nanoseconds into u.Duration units
func (u Units) ConvertDuration(d float64) float64 {
	return d / float64(u.Duration)
}
