// Package newrelic sends the flattened points to New Relic using the telemetry SDK
package newrelic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/luraproject/lura/v2/config"
	"github.com/luraproject/lura/v2/logging"
	"github.com/newrelic/newrelic-telemetry-sdk-go/telemetry"

	metrics "github.com/krakend/krakend-newrelic/v2"
)

const logPrefix = "[SERVICE: NewRelic]"

var errHarvest = errors.New("newrelic harvest failed")

// Sink records every point as a New Relic gauge. Points are buffered by the harvester
// and sent on Flush or, if a harvest period is configured, in the background.
type Sink struct {
	harvester *telemetry.Harvester
	logger    logging.Logger
	now       func() time.Time

	mu      sync.Mutex
	lastErr error
}

// NewSink creates a sink from the config. A zero HarvestPeriod disables the background
// harvesting, so the points are only sent when the sink is flushed.
func NewSink(cfg Config, l logging.Logger, opts ...func(*telemetry.Config)) (*Sink, error) {
	s := &Sink{logger: l, now: time.Now}

	options := []func(*telemetry.Config){
		telemetry.ConfigAPIKey(cfg.APIKey),
		telemetry.ConfigHarvestPeriod(cfg.HarvestPeriod),
		func(c *telemetry.Config) {
			c.Product = "krakend-newrelic"
			c.ErrorLogger = s.logError
			if cfg.MetricsURL != "" {
				c.MetricsURLOverride = cfg.MetricsURL
			}
		},
	}

	h, err := telemetry.NewHarvester(append(options, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating the newrelic harvester: %w", err)
	}
	s.harvester = h
	return s, nil
}

// New creates a sink using the "newrelic" section of the extra config. It returns nil
// and no error if the section is missing.
func New(e config.ExtraConfig, l logging.Logger) (*Sink, error) {
	cfg, ok := ConfigGetter(e).(*Config)
	if !ok {
		return nil, nil
	}
	return NewSink(*cfg, l)
}

// RecordMetric implements the metrics.Sink interface
func (s *Sink) RecordMetric(name string, v metrics.Value) error {
	s.harvester.RecordMetric(telemetry.Gauge{
		Name:      name,
		Value:     v.Float64(),
		Timestamp: s.now(),
	})
	return nil
}

// Flush implements the metrics.Flusher interface. It sends the buffered points and
// returns an error if the harvester reported any problem while doing it.
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()

	s.harvester.HarvestNow(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Sink) logError(fields map[string]interface{}) {
	s.logger.Error(logPrefix, "Harvester error:", fields)

	s.mu.Lock()
	s.lastErr = fmt.Errorf("%w: %v", errHarvest, harvestCause(fields))
	s.mu.Unlock()
}

// harvestCause picks the most descriptive field of a harvester error event. Not every
// event carries an "err": some of them only have a message or a context error.
func harvestCause(fields map[string]interface{}) interface{} {
	for _, k := range []string{"err", "context-error", "message"} {
		if v, ok := fields[k]; ok && v != nil {
			return v
		}
	}
	return fields
}
