// Package metrics periodically flattens a go-metrics registry into named numeric points and
// sends them to a sink, like the New Relic one
//
// Check the "github.com/krakend/krakend-newrelic/v2/gin" package for a complete implementation
// including the New Relic sink and the stats endpoint
package metrics

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/luraproject/lura/v2/config"
	"github.com/luraproject/lura/v2/logging"
	"github.com/rcrowley/go-metrics"
)

// defaultListenAddr is the default listen address:port for the stats endpoint service
var defaultListenAddr = ":8091"

const logPrefix = "[SERVICE: NewRelic]"

var errCyclePanic = errors.New("report cycle panicked")

// New creates a new metrics exporter. Every collected point is sent to the injected sinks.
// If the extra config does not contain the Namespace, the returned exporter is disabled
// and backed by a DummyRegistry.
func New(ctx context.Context, e config.ExtraConfig, l logging.Logger, sinks ...Sink) *Metrics {
	var cfg *Config
	if tmp, ok := ConfigGetter(e).(*Config); ok {
		cfg = tmp
	}

	if cfg == nil {
		registry := NewDummyRegistry()
		return &Metrics{
			Registry: &registry,
			Health:   NewHealth(),
			buffer:   NewBuffer(),
			logger:   l,
		}
	}

	registry := metrics.NewPrefixedRegistry("krakend.")

	if cfg.LogPoints {
		sinks = append(sinks, LogSink(l))
	}
	buffer := NewBuffer()
	out := &countingSink{Sink: MultiSink(append([]Sink{buffer}, sinks...)...)}

	m := Metrics{
		Config:   cfg,
		Registry: &registry,
		Reporter: NewReporter(cfg.Units, out),
		Health:   NewHealth(),
		buffer:   buffer,
		out:      out,
		filter:   NewPrefixFilter(cfg.Include, cfg.Exclude),
		logger:   l,
	}

	if !cfg.RuntimeDisabled {
		m.runtime = metrics.NewPrefixedChildRegistry(registry, "service.")
		metrics.RegisterDebugGCStats(m.runtime)
		metrics.RegisterRuntimeMemStats(m.runtime)
	}

	l.Info(logPrefix, "Reporting metrics every", cfg.CollectionTime.String())
	m.processMetrics(ctx, cfg.CollectionTime)

	return &m
}

// Namespace is the key to look for extra configuration details
const Namespace = "github_com/krakend/krakend-newrelic"

// Config holds the exporter configuration
type Config struct {
	CollectionTime   time.Duration
	Units            Units
	Include          []string
	Exclude          []string
	RuntimeDisabled  bool
	LogPoints        bool
	ListenAddr       string
	EndpointDisabled bool
}

// ConfigGetter implements the config.ConfigGetter interface. It parses the extra config for the
// exporter and returns nil if the namespace is not present. Invalid values are replaced by
// the defaults.
func ConfigGetter(e config.ExtraConfig) interface{} {
	v, ok := e[Namespace]
	if !ok {
		return nil
	}

	tmp, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	userCfg := new(Config)
	userCfg.CollectionTime = getDuration(tmp, "collection_time", time.Minute)
	userCfg.Units = Units{
		Rate:     getDuration(tmp, "rate_unit", DefaultUnits.Rate),
		Duration: getDuration(tmp, "duration_unit", DefaultUnits.Duration),
	}
	userCfg.ListenAddr = defaultListenAddr
	if listenAddr, ok := tmp["listen_address"]; ok {
		if a, ok := listenAddr.(string); ok {
			userCfg.ListenAddr = a
		}
	}
	userCfg.Include = getStrings(tmp, "include")
	userCfg.Exclude = getStrings(tmp, "exclude")
	userCfg.RuntimeDisabled = getBool(tmp, "runtime_disabled")
	userCfg.LogPoints = getBool(tmp, "log_points")
	userCfg.EndpointDisabled = getBool(tmp, "endpoint_disabled")

	return userCfg
}

func getBool(data map[string]interface{}, name string) bool {
	if flag, ok := data[name]; ok {
		if v, ok := flag.(bool); ok {
			return v
		}
	}
	return false
}

func getDuration(data map[string]interface{}, name string, fallback time.Duration) time.Duration {
	v, ok := data[name].(string)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getStrings(data map[string]interface{}, name string) []string {
	vs, ok := data[name].([]interface{})
	if !ok {
		return nil
	}
	res := make([]string, 0, len(vs))
	for _, v := range vs {
		if s, ok := v.(string); ok {
			res = append(res, s)
		}
	}
	return res
}

// Metrics is the component that manages the registry and the report cycles
type Metrics struct {
	// Config is the exporter configuration
	Config *Config
	// Registry is the metrics register to report
	Registry *metrics.Registry
	// Reporter flattens the snapshots. It is nil if the exporter is disabled
	Reporter *Reporter
	// Health holds the metrics about the exporter itself
	Health *Health

	buffer  *Buffer
	out     *countingSink
	filter  Filter
	runtime metrics.Registry
	logger  logging.Logger
	cycle   sync.Mutex
}

// LastReport returns the points sent during the last successful cycle
func (m *Metrics) LastReport() []Point {
	return m.buffer.Points()
}

// TakeSnapshot takes a snapshot of the current state of the registry
func (m *Metrics) TakeSnapshot() Snapshot {
	return TakeSnapshot(*m.Registry, m.filter)
}

// ReportOnce runs a complete report cycle: it takes a snapshot, sends it to the sinks
// and flushes them. Concurrent calls are serialized.
func (m *Metrics) ReportOnce(ctx context.Context) error {
	_, err := m.report(ctx)
	return err
}

func (m *Metrics) report(ctx context.Context) (points int, err error) {
	if m.Reporter == nil {
		return 0, nil
	}

	m.cycle.Lock()
	defer m.cycle.Unlock()

	if m.runtime != nil {
		metrics.CaptureDebugGCStatsOnce(m.runtime)
		metrics.CaptureRuntimeMemStatsOnce(m.runtime)
	}

	begin := time.Now()
	m.out.n = 0
	m.buffer.Begin()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errCyclePanic, r)
		}
		points = m.out.n
		m.Health.observe(points, time.Since(begin), err)
		if err == nil {
			m.buffer.Commit()
		}
	}()

	if err := m.Reporter.Report(m.TakeSnapshot()); err != nil {
		return 0, fmt.Errorf("reporting metrics: %w", err)
	}
	if f, ok := m.out.Sink.(Flusher); ok {
		if err := f.Flush(ctx); err != nil {
			return 0, fmt.Errorf("flushing sinks: %w", err)
		}
	}
	return 0, nil
}

func (m *Metrics) processMetrics(ctx context.Context, d time.Duration) {
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n, err := m.report(ctx)
				if err != nil {
					m.logger.Error(logPrefix, "Report cycle failed after", n, "points:", err.Error())
					continue
				}
				m.logger.Debug(logPrefix, "Report cycle completed.", n, "points sent")
			case <-ctx.Done():
				return
			}
		}
	}()
}

// countingSink counts the points accepted by the wrapped sink
type countingSink struct {
	Sink
	n int
}

func (c *countingSink) RecordMetric(name string, v Value) error {
	if err := c.Sink.RecordMetric(name, v); err != nil {
		return err
	}
	c.n++
	return nil
}

// DummyRegistry implements the rcrowley/go-metrics.Registry interface
type DummyRegistry struct{}

func (r DummyRegistry) Each(_ func(string, interface{})) {}
func (r DummyRegistry) Get(_ string) interface{}         { return nil }
func (r DummyRegistry) GetAll() map[string]map[string]interface{} {
	return map[string]map[string]interface{}{}
}
func (r DummyRegistry) Register(_ string, _ interface{}) error { return nil }

// GetOrRegister returns the metric built by i when it is a constructor, so the
// GetOrRegister* helpers of go-metrics get a usable, unregistered metric
func (r DummyRegistry) GetOrRegister(_ string, i interface{}) interface{} {
	if v := reflect.ValueOf(i); v.Kind() == reflect.Func {
		return v.Call(nil)[0].Interface()
	}
	return i
}

func (r DummyRegistry) RunHealthchecks()    {}
func (r DummyRegistry) Unregister(_ string) {}
func (r DummyRegistry) UnregisterAll()      {}

func NewDummyRegistry() metrics.Registry {
	return DummyRegistry{}
}
