// Package config loads the scheduler's configuration via Viper, mirroring
// the am package's layered precedence (defaults, file, environment).
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/cadence/errors"
)

// Config is the scheduler's top-level configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
	Admin     AdminConfig     `mapstructure:"admin"`
}

// DatabaseConfig configures the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"` // default: cadence.db
}

// SchedulerConfig configures the tick loop and evaluation pool.
type SchedulerConfig struct {
	TickIntervalSeconds int    `mapstructure:"tick_interval_seconds"` // default: 1
	MaxConcurrentEvals  int    `mapstructure:"max_concurrent_evals"`  // default: 10
	FlowsDir            string `mapstructure:"flows_dir"`             // default: flows
}

// MetricsConfig configures the OpenTelemetry meter.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	MeterName string `mapstructure:"meter_name"` // default: cadence
}

// LogConfig configures structured logging.
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Theme string `mapstructure:"theme"` // gruvbox, everforest
}

// AdminConfig configures the admin WebSocket execution feed.
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"` // default: 127.0.0.1:8089
}

var globalConfig *Config
var viperInstance *viper.Viper

// Load reads configuration from defaults, config file, and environment,
// caching the result for subsequent calls.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	globalConfig = &cfg
	return globalConfig, nil
}

// Reset clears the cached configuration. Used by tests.
func Reset() {
	globalConfig = nil
	viperInstance = nil
}

// LoadFromFile loads configuration from a specific TOML file, bypassing
// the cache and environment merge — used by the CLI's --config flag.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "unmarshal config from %s", path)
	}

	return &cfg, nil
}

func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()
	v.SetEnvPrefix("CADENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path := findProjectConfig(); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		_ = v.MergeInConfig()
	}

	viperInstance = v
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "cadence.db")
	v.SetDefault("scheduler.tick_interval_seconds", 1)
	v.SetDefault("scheduler.max_concurrent_evals", 10)
	v.SetDefault("scheduler.flows_dir", "flows")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.meter_name", "cadence")
	v.SetDefault("log.json", false)
	v.SetDefault("log.theme", "gruvbox")
	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.addr", "127.0.0.1:8089")
}

// findProjectConfig walks up from the working directory looking for
// cadence.toml, the same "walk to the repo root" pattern the am package
// uses to locate am.toml.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, "cadence.toml")
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
