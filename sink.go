package metrics

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"

	"github.com/luraproject/lura/v2/logging"
)

// Value is a reported number. It is either an exact integer count or a single
// precision float.
type Value struct {
	isInt bool
	i     int64
	f     float32
}

// Int returns a Value holding the integer count v
func Int(v int64) Value { return Value{isInt: true, i: v} }

// Float returns a Value holding the float v
func Float(v float32) Value { return Value{f: v} }

// IsInt reports whether v holds an integer count
func (v Value) IsInt() bool { return v.isInt }

// Int64 returns the count, or the float truncated towards zero
func (v Value) Int64() int64 {
	if v.isInt {
		return v.i
	}
	return int64(v.f)
}

// Float32 returns the float, or the count converted to float32
func (v Value) Float32() float32 {
	if v.isInt {
		return float32(v.i)
	}
	return v.f
}

// Float64 returns v widened to float64. A float32 widens exactly.
func (v Value) Float64() float64 {
	if v.isInt {
		return float64(v.i)
	}
	return float64(v.f)
}

func (v Value) String() string {
	if v.isInt {
		return strconv.FormatInt(v.i, 10)
	}
	return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
}

// MarshalJSON implements the json.Marshaler interface. NaN and infinities are
// encoded as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.isInt && (math.IsNaN(float64(v.f)) || math.IsInf(float64(v.f), 0)) {
		return []byte("null"), nil
	}
	return []byte(v.String()), nil
}

// Point is a single reported (name, value) pair
type Point struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// Sink receives the flattened points, one call per point
type Sink interface {
	RecordMetric(name string, v Value) error
}

// SinkFunc is a function implementing the Sink interface
type SinkFunc func(name string, v Value) error

// RecordMetric implements the Sink interface
func (f SinkFunc) RecordMetric(name string, v Value) error { return f(name, v) }

// Flusher is implemented by the sinks buffering points. Flush is called once
// every report cycle has been completely emitted.
type Flusher interface {
	Flush(ctx context.Context) error
}

// LogSink returns a sink writing every point to the logger with the debug level
func LogSink(l logging.Logger) Sink {
	return SinkFunc(func(name string, v Value) error {
		l.Debug("[NEWRELIC] point:", name, v.String())
		return nil
	})
}

// MultiSink returns a sink sending every point to all the injected sinks, in order.
// It stops at the first failing sink.
func MultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (m multiSink) RecordMetric(name string, v Value) error {
	for _, s := range m {
		if err := s.RecordMetric(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Flush implements the Flusher interface, flushing every wrapped flusher
func (m multiSink) Flush(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		if f, ok := s.(Flusher); ok {
			if err := f.Flush(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Buffer is a sink keeping the points of the last committed cycle
type Buffer struct {
	mu      sync.RWMutex
	pending []Point
	points  []Point
}

// NewBuffer creates an empty buffer
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Begin discards the points recorded since the last commit
func (b *Buffer) Begin() {
	b.mu.Lock()
	b.pending = nil
	b.mu.Unlock()
}

// RecordMetric implements the Sink interface
func (b *Buffer) RecordMetric(name string, v Value) error {
	b.mu.Lock()
	b.pending = append(b.pending, Point{Name: name, Value: v})
	b.mu.Unlock()
	return nil
}

// Commit publishes the points recorded since the last call to Begin
func (b *Buffer) Commit() {
	b.mu.Lock()
	b.points = b.pending
	b.pending = nil
	b.mu.Unlock()
}

// Points returns a copy of the last committed cycle
func (b *Buffer) Points() []Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	res := make([]Point, len(b.points))
	copy(res, b.points)
	return res
}
