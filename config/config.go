package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonwraymond/tagcache/cache"
	"github.com/jonwraymond/tagcache/observe"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TAGCACHE"

var supportedFormats = []string{"yaml", "yml", "toml", "json"}

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Cache   CacheConfig    `mapstructure:"cache"`
	Observe observe.Config `mapstructure:"observe"`
	Health  HealthConfig   `mapstructure:"health"`
	Store   StoreConfig    `mapstructure:"store"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CacheConfig configures the tag cache.
type CacheConfig struct {
	Name          string        `mapstructure:"name"`
	DefaultTTL    time.Duration `mapstructure:"default_ttl"`
	MaxTTL        time.Duration `mapstructure:"max_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// HealthConfig configures the health checks.
type HealthConfig struct {
	CheckTimeout  time.Duration `mapstructure:"check_timeout"`
	MaxEntries    int           `mapstructure:"max_entries"`
	MemoryMaxHeap uint64        `mapstructure:"memory_max_heap"`
}

// StoreConfig configures the resilience guard around backing-store calls.
type StoreConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerReset    time.Duration `mapstructure:"breaker_reset"`

	// RateLimit is in calls per second. Zero disables rate limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	policy := cache.DefaultPolicy()
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Name:          cache.DefaultName,
			DefaultTTL:    policy.DefaultTTL,
			MaxTTL:        policy.MaxTTL,
			SweepInterval: policy.SweepInterval,
		},
		Observe: observe.Config{
			ServiceName: "tagcache",
			Tracing:     observe.TracingConfig{Exporter: "none", SamplePct: 1.0},
			Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
		Health: HealthConfig{
			CheckTimeout: 2 * time.Second,
		},
		Store: StoreConfig{
			Timeout:         2 * time.Second,
			MaxAttempts:     3,
			BreakerFailures: 5,
			BreakerReset:    30 * time.Second,
			RateBurst:       10,
		},
	}
}

// Load reads path (optional) and the environment over Default and
// validates the result.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if err := readFile(v, path); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(v *viper.Viper, path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !slices.Contains(supportedFormats, format) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	expanded, err := expandEnv(string(raw), os.LookupEnv)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it during
// Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("cache.name", d.Cache.Name)
	v.SetDefault("cache.default_ttl", d.Cache.DefaultTTL)
	v.SetDefault("cache.max_ttl", d.Cache.MaxTTL)
	v.SetDefault("cache.sweep_interval", d.Cache.SweepInterval)

	v.SetDefault("observe.service_name", d.Observe.ServiceName)
	v.SetDefault("observe.version", d.Observe.Version)
	v.SetDefault("observe.instance_id", d.Observe.InstanceID)
	v.SetDefault("observe.tracing.enabled", d.Observe.Tracing.Enabled)
	v.SetDefault("observe.tracing.exporter", d.Observe.Tracing.Exporter)
	v.SetDefault("observe.tracing.sample_pct", d.Observe.Tracing.SamplePct)
	v.SetDefault("observe.metrics.enabled", d.Observe.Metrics.Enabled)
	v.SetDefault("observe.metrics.exporter", d.Observe.Metrics.Exporter)
	v.SetDefault("observe.logging.enabled", d.Observe.Logging.Enabled)
	v.SetDefault("observe.logging.level", d.Observe.Logging.Level)

	v.SetDefault("health.check_timeout", d.Health.CheckTimeout)
	v.SetDefault("health.max_entries", d.Health.MaxEntries)
	v.SetDefault("health.memory_max_heap", d.Health.MemoryMaxHeap)

	v.SetDefault("store.timeout", d.Store.Timeout)
	v.SetDefault("store.max_attempts", d.Store.MaxAttempts)
	v.SetDefault("store.breaker_failures", d.Store.BreakerFailures)
	v.SetDefault("store.breaker_reset", d.Store.BreakerReset)
	v.SetDefault("store.rate_limit", d.Store.RateLimit)
	v.SetDefault("store.rate_burst", d.Store.RateBurst)
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return ErrMissingAddr
	}
	if err := c.CachePolicy().Validate(); err != nil {
		return fmt.Errorf("config: cache: %w", err)
	}
	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("config: observe: %w", err)
	}
	if c.Server.ShutdownTimeout < 0 || c.Health.CheckTimeout < 0 || c.Health.MaxEntries < 0 {
		return ErrNegative
	}
	st := c.Store
	if st.Timeout < 0 || st.MaxAttempts < 0 || st.BreakerFailures < 0 || st.BreakerReset < 0 ||
		st.RateLimit < 0 || st.RateBurst < 0 {
		return ErrNegative
	}
	return nil
}

// CachePolicy converts the cache section to a cache.Policy.
func (c Config) CachePolicy() cache.Policy {
	return cache.Policy{
		DefaultTTL:    c.Cache.DefaultTTL,
		MaxTTL:        c.Cache.MaxTTL,
		SweepInterval: c.Cache.SweepInterval,
	}
}
