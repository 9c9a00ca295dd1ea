package metrics

import (
	"testing"
	"time"
)

func TestUnits_ConvertRate(t *testing.T) {
	for _, tc := range []struct {
		unit time.Duration
		rate float64
		want float64
	}{
		{unit: time.Second, rate: 2.5, want: 2.5},
		{unit: time.Minute, rate: 2.5, want: 150},
		{unit: time.Hour, rate: 0.5, want: 1800},
		{unit: time.Millisecond, rate: 1000, want: 1},
	} {
		u := Units{Rate: tc.unit, Duration: time.Millisecond}
		if have := u.ConvertRate(tc.rate); have != tc.want {
			t.Errorf("unexpected rate for %s. have: %f, want: %f", tc.unit, have, tc.want)
		}
	}
}

func TestUnits_ConvertDuration(t *testing.T) {
	for _, tc := range []struct {
		unit time.Duration
		d    float64
		want float64
	}{
		{unit: time.Nanosecond, d: 1500, want: 1500},
		{unit: time.Microsecond, d: 1500, want: 1.5},
		{unit: time.Millisecond, d: float64(250 * time.Millisecond), want: 250},
		{unit: time.Second, d: float64(250 * time.Millisecond), want: 0.25},
	} {
		u := Units{Rate: time.Second, Duration: tc.unit}
		if have := u.ConvertDuration(tc.d); have != tc.want {
			t.Errorf("unexpected duration for %s. have: %f, want: %f", tc.unit, have, tc.want)
		}
	}
}
