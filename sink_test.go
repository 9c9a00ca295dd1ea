package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestValue_MarshalJSON(t *testing.T) {
	for _, tc := range []struct {
		v    Value
		want string
	}{
		{v: Int(42), want: "42"},
		{v: Int(-1), want: "-1"},
		{v: Float(2.5), want: "2.5"},
		{v: Float(0.1), want: "0.1"},
		{v: Float(float32(math.NaN())), want: "null"},
		{v: Float(float32(math.Inf(1))), want: "null"},
	} {
		b, err := json.Marshal(tc.v)
		if err != nil {
			t.Error("unexpected error:", err)
			continue
		}
		if string(b) != tc.want {
			t.Errorf("unexpected encoding. have: %s, want: %s", b, tc.want)
		}
	}
}

func TestValue_accessors(t *testing.T) {
	i := Int(1 << 40)
	if !i.IsInt() || i.Int64() != 1<<40 || i.Float64() != float64(1<<40) {
		t.Errorf("unexpected int value: %v", i)
	}
	f := Float(2.75)
	if f.IsInt() || f.Int64() != 2 || f.Float32() != 2.75 {
		t.Errorf("unexpected float value: %v", f)
	}
}

func TestBuffer(t *testing.T) {
	b := NewBuffer()
	if len(b.Points()) != 0 {
		t.Error("a new buffer should be empty")
	}

	b.Begin()
	b.RecordMetric("a", Int(1))
	b.RecordMetric("b", Float(2))
	if len(b.Points()) != 0 {
		t.Error("the points should not be visible before the commit")
	}
	b.Commit()

	points := b.Points()
	if len(points) != 2 || points[0].Name != "a" || points[1].Name != "b" {
		t.Errorf("unexpected points: %v", points)
	}
	points[0].Name = "changed"
	if b.Points()[0].Name != "a" {
		t.Error("Points should return a copy")
	}

	b.Begin()
	b.RecordMetric("c", Int(3))
	if len(b.Points()) != 2 {
		t.Error("an uncommitted cycle should not replace the last one")
	}
	b.Begin()
	b.Commit()
	if len(b.Points()) != 0 {
		t.Error("an empty cycle should replace the last one")
	}
}

type flushingRecorder struct {
	recorder
	flushed int
	err     error
}

func (f *flushingRecorder) Flush(_ context.Context) error {
	f.flushed++
	return f.err
}

func TestMultiSink(t *testing.T) {
	errBoom := errors.New("boom")
	first := &flushingRecorder{}
	last := &recorder{}
	failing := SinkFunc(func(name string, _ Value) error {
		if name == "fail" {
			return errBoom
		}
		return nil
	})
	s := MultiSink(first, failing, last)

	if err := s.RecordMetric("ok", Int(1)); err != nil {
		t.Error("unexpected error:", err)
	}
	if err := s.RecordMetric("fail", Int(1)); err != errBoom {
		t.Error("unexpected error:", err)
	}
	if len(first.points) != 2 || len(last.points) != 1 {
		t.Errorf("unexpected points: %v %v", first.points, last.points)
	}

	if err := s.(Flusher).Flush(context.Background()); err != nil {
		t.Error("unexpected error:", err)
	}
	first.err = errBoom
	if err := s.(Flusher).Flush(context.Background()); !errors.Is(err, errBoom) {
		t.Error("unexpected error:", err)
	}
	if first.flushed != 2 {
		t.Errorf("unexpected number of flushes: %d", first.flushed)
	}
}
