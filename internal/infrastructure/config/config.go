package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. VENUE_STORE_SQLITE_FILE.
const EnvPrefix = "VENUE"

type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Store         StoreConfig         `mapstructure:"store"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Engine        EngineConfig        `mapstructure:"engine"`
	Cache         CacheConfig         `mapstructure:"cache"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
}

type StoreConfig struct {
	SQLiteFile   string        `mapstructure:"sqlite_file"`
	BusyTimeout  time.Duration `mapstructure:"busy_timeout"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"` // "json" or "text"
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	MetricsPort    int    `mapstructure:"metrics_port"`
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
	ZipkinEndpoint string `mapstructure:"zipkin_endpoint"`
}

type EngineConfig struct {
	Timezone                string        `mapstructure:"timezone"`
	AllowPastCheckin        bool          `mapstructure:"allow_past_checkin"`
	OperationTimeout        time.Duration `mapstructure:"operation_timeout"`
	RetryMaxAttempts        int           `mapstructure:"retry_max_attempts"`
	RetryBackoff            time.Duration `mapstructure:"retry_backoff"`
	CircuitBreakerThreshold float64       `mapstructure:"circuit_breaker_threshold"`
	CircuitBreakerTimeout   time.Duration `mapstructure:"circuit_breaker_timeout"`
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name: "venuereserve",
		},
		Store: StoreConfig{
			SQLiteFile:   "data/venuereserve.db",
			BusyTimeout:  5 * time.Second,
			MaxOpenConns: 8,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			MetricsEnabled: true,
			MetricsPort:    9090,
			TracingEnabled: false,
			ZipkinEndpoint: "http://localhost:9411/api/v2/spans",
		},
		Engine: EngineConfig{
			Timezone:                "UTC",
			AllowPastCheckin:        false,
			OperationTimeout:        10 * time.Second,
			RetryMaxAttempts:        3,
			RetryBackoff:            50 * time.Millisecond,
			CircuitBreakerThreshold: 0.5,
			CircuitBreakerTimeout:   10 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
			TTL:     time.Minute,
		},
	}
}

// LoadConfig loads configuration from an optional YAML file and VENUE_* environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves the engine timezone used for "today"
func (c EngineConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("app.name", d.App.Name)

	v.SetDefault("store.sqlite_file", d.Store.SQLiteFile)
	v.SetDefault("store.busy_timeout", d.Store.BusyTimeout)
	v.SetDefault("store.max_open_conns", d.Store.MaxOpenConns)

	v.SetDefault("observability.log_level", d.Observability.LogLevel)
	v.SetDefault("observability.log_format", d.Observability.LogFormat)
	v.SetDefault("observability.metrics_enabled", d.Observability.MetricsEnabled)
	v.SetDefault("observability.metrics_port", d.Observability.MetricsPort)
	v.SetDefault("observability.tracing_enabled", d.Observability.TracingEnabled)
	v.SetDefault("observability.zipkin_endpoint", d.Observability.ZipkinEndpoint)

	v.SetDefault("engine.timezone", d.Engine.Timezone)
	v.SetDefault("engine.allow_past_checkin", d.Engine.AllowPastCheckin)
	v.SetDefault("engine.operation_timeout", d.Engine.OperationTimeout)
	v.SetDefault("engine.retry_max_attempts", d.Engine.RetryMaxAttempts)
	v.SetDefault("engine.retry_backoff", d.Engine.RetryBackoff)
	v.SetDefault("engine.circuit_breaker_threshold", d.Engine.CircuitBreakerThreshold)
	v.SetDefault("engine.circuit_breaker_timeout", d.Engine.CircuitBreakerTimeout)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.addr", d.Cache.Addr)
	v.SetDefault("cache.password", d.Cache.Password)
	v.SetDefault("cache.db", d.Cache.DB)
	v.SetDefault("cache.ttl", d.Cache.TTL)
}
