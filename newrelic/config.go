package newrelic

import (
	"os"
	"time"

	"github.com/luraproject/lura/v2/config"

	metrics "github.com/krakend/krakend-newrelic/v2"
)

// APIKeyEnv is the environment variable used when the config does not define an api key
const APIKeyEnv = "NEW_RELIC_API_KEY"

// Config holds the New Relic sink configuration
type Config struct {
	APIKey        string
	MetricsURL    string
	HarvestPeriod time.Duration
}

// ConfigGetter parses the "newrelic" section of the exporter extra config. It returns nil
// if the section is missing.
func ConfigGetter(e config.ExtraConfig) interface{} {
	v, ok := e[metrics.Namespace]
	if !ok {
		return nil
	}
	tmp, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	section, ok := tmp["newrelic"].(map[string]interface{})
	if !ok {
		return nil
	}

	cfg := new(Config)
	if key, ok := section["api_key"].(string); ok {
		cfg.APIKey = key
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(APIKeyEnv)
	}
	if u, ok := section["metrics_url"].(string); ok {
		cfg.MetricsURL = u
	}
	if p, ok := section["harvest_period"].(string); ok {
		if d, err := time.ParseDuration(p); err == nil && d > 0 {
			cfg.HarvestPeriod = d
		}
	}
	return cfg
}
