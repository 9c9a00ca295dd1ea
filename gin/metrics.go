// Package gin assembles the New Relic exporter and exposes its last report and health
// metrics with a gin engine
package gin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luraproject/lura/v2/config"
	"github.com/luraproject/lura/v2/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rcrowley/go-metrics/exp"

	metrics "github.com/krakend/krakend-newrelic/v2"
	"github.com/krakend/krakend-newrelic/v2/newrelic"
)

// New creates a new metrics exporter sending the points to New Relic, if the extra config
// has a "newrelic" section, and starts the stats endpoint unless it is disabled
func New(ctx context.Context, e config.ExtraConfig, l logging.Logger, sinks ...metrics.Sink) *Metrics {
	nr, err := newrelic.New(e, l)
	if err != nil {
		l.Error("[SERVICE: NewRelic]", "Unable to create the New Relic sink:", err.Error())
	} else if nr != nil {
		sinks = append(sinks, nr)
	}

	metricsCollector := Metrics{metrics.New(ctx, e, l, sinks...)}
	if metricsCollector.Config != nil && !metricsCollector.Config.EndpointDisabled {
		metricsCollector.RunEndpoint(ctx, metricsCollector.NewEngine(), l)
	}
	return &metricsCollector
}

// Metrics is the exporter with a gin based stats endpoint
type Metrics struct {
	*metrics.Metrics
}

// RunEndpoint runs the *gin.Engine (that should have the stats endpoint) with the logger
func (m *Metrics) RunEndpoint(ctx context.Context, e *gin.Engine, l logging.Logger) {
	server := &http.Server{
		Addr:              m.Config.ListenAddr,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Error("[SERVICE: NewRelic]", err.Error())
		}
	}()

	go func() {
		<-ctx.Done()
		l.Info("[SERVICE: NewRelic]", "Shutting down the stats handler")
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		server.Shutdown(ctx)
		cancel()
	}()
}

// NewEngine returns a *gin.Engine with some defaults and the stats endpoints (no logger)
func (m *Metrics) NewEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.RedirectTrailingSlash = true
	engine.RedirectFixedPath = true
	engine.HandleMethodNotAllowed = true

	engine.GET("/__newrelic", m.NewReportHandler())
	engine.GET("/__health", m.NewHealthHandler())
	engine.GET("/__stats", m.NewExpHandler())
	return engine
}

// NewReportHandler returns a handler exposing the points of the last report cycle as JSON
func (m *Metrics) NewReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, m.LastReport())
	}
}

// NewExpHandler creates a handler exposing the registry, before flattening, as a JSON
func (m *Metrics) NewExpHandler() gin.HandlerFunc {
	return gin.WrapH(exp.ExpHandler(*m.Registry))
}

// NewHealthHandler returns a handler exposing the exporter health in the prometheus format
func (m *Metrics) NewHealthHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.Health.Registry(), promhttp.HandlerOpts{}))
}
