// Package config loads the application configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "EVSERVER_CONFIG"

	defaultPath = "config.yaml"
)

// Config is the root application configuration.
type Config struct {
	Environment string         `yaml:"environment"`
	Database    DatabaseConfig `yaml:"database"`
	Provider    ProviderConfig `yaml:"provider"`
	Billing     BillingConfig  `yaml:"billing"`
	Log         LogConfig      `yaml:"log"`
	Tracing     TracingConfig  `yaml:"tracing"`
}

// DatabaseConfig selects the backing database.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ProviderConfig selects and configures the billing vendor adapter.
type ProviderConfig struct {
	Name     string         `yaml:"name"`
	LiveMode bool           `yaml:"live_mode"`
	Settings map[string]any `yaml:"settings"`
}

// BillingConfig controls the settlement and eligibility services.
type BillingConfig struct {
	Enabled             bool     `yaml:"enabled"`
	BillDrafts          bool     `yaml:"bill_drafts"`
	BatchSize           int      `yaml:"batch_size"`
	Schedule            string   `yaml:"schedule"`
	OrgAccessControl    bool     `yaml:"org_access_control"`
	MinSessionDuration  Duration `yaml:"min_session_duration"`
	MinSessionEnergyKWh float64  `yaml:"min_session_energy_kwh"`
	SkipThresholds      bool     `yaml:"skip_thresholds"`
}

// Duration decodes Go duration strings such as "90s" or "2m" from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(value.Value))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// LogConfig selects the logger preset.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// TracingConfig controls the OTLP trace exporter.
type TracingConfig struct {
	Enabled          bool    `yaml:"enabled"`
	ExporterEndpoint string  `yaml:"exporter_endpoint"`
	ExporterProtocol string  `yaml:"exporter_protocol"`
	SamplingRatio    float64 `yaml:"sampling_ratio"`
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

// Load reads the configuration from EVSERVER_CONFIG or ./config.yaml.
// A missing file yields the defaults so local tooling keeps working.
func Load() (Config, error) {
	path := strings.TrimSpace(os.Getenv(EnvConfigPath))
	if path == "" {
		path = defaultPath
	}

	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg.withDefaults(), nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = "development"
	}
	if strings.TrimSpace(c.Provider.Name) == "" {
		c.Provider.Name = "sandbox"
	}
	if c.Billing.BatchSize <= 0 {
		c.Billing.BatchSize = 100
	}
	if strings.TrimSpace(c.Billing.Schedule) == "" {
		c.Billing.Schedule = "0 3 1 * *"
	}
	if c.Billing.MinSessionDuration <= 0 {
		c.Billing.MinSessionDuration = Duration(time.Minute)
	}
	if c.Billing.MinSessionEnergyKWh <= 0 {
		c.Billing.MinSessionEnergyKWh = 1
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = "info"
	}
	if c.Tracing.SamplingRatio <= 0 {
		c.Tracing.SamplingRatio = 0.1
	}
	return c
}

// IsProduction reports whether the process runs against live data.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}
