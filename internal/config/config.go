package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Router    RouterConfig    `mapstructure:"router"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Journal   JournalConfig   `mapstructure:"journal"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type UpstreamConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Referer string `mapstructure:"referer"`
	Title   string `mapstructure:"title"`
}

// CatalogConfig holds the candidate selection criteria and refresh schedule.
type CatalogConfig struct {
	Limit            int           `mapstructure:"limit"`
	Name             string        `mapstructure:"name"`
	MinContextLength int           `mapstructure:"min_context_length"`
	Provider         string        `mapstructure:"provider"`
	SortBy           string        `mapstructure:"sort_by"`
	Reverse          bool          `mapstructure:"reverse"`
	RequireParams    []string      `mapstructure:"require_params"`
	IncludeRouters   bool          `mapstructure:"include_routers"`
	RefreshInterval  time.Duration `mapstructure:"refresh_interval"`
}

type RouterConfig struct {
	ErrorThreshold   int           `mapstructure:"error_threshold"`
	SameModelRetries int           `mapstructure:"same_model_retries"`
	BackoffInitial   time.Duration `mapstructure:"backoff_initial"`
	BackoffMax       time.Duration `mapstructure:"backoff_max"`
	BackoffFactor    float64       `mapstructure:"backoff_factor"`
	BackoffJitter    float64       `mapstructure:"backoff_jitter"`
	AttemptTimeout   time.Duration `mapstructure:"attempt_timeout"`
	RequestDeadline  time.Duration `mapstructure:"request_deadline"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type JournalConfig struct {
	Path    string `mapstructure:"path"`
	Enabled bool   `mapstructure:"enabled"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// flagBindings maps CLI flag names onto config keys.
var flagBindings = map[string]string{
	"port":               "server.port",
	"limit":              "catalog.limit",
	"name":               "catalog.name",
	"min-context-length": "catalog.min_context_length",
	"provider":           "catalog.provider",
	"sort-by":            "catalog.sort_by",
	"reverse":            "catalog.reverse",
	"require-params":     "catalog.require_params",
	"error-threshold":    "router.error_threshold",
}

// LoadConfig reads configuration from file, environment variables, and
// the given flag set (flags win). Pass nil to skip flag binding.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	// Environment Variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for flag, key := range flagBindings {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")

	v.SetDefault("upstream.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("upstream.referer", "https://github.com/rkilchmn/openrouter-free-scanner")
	v.SetDefault("upstream.title", "OpenRouter Free Proxy")

	v.SetDefault("catalog.sort_by", "context_length")
	v.SetDefault("catalog.reverse", true)
	v.SetDefault("catalog.include_routers", false)
	v.SetDefault("catalog.refresh_interval", 10*time.Minute)

	v.SetDefault("router.error_threshold", 3)
	v.SetDefault("router.same_model_retries", 1)
	v.SetDefault("router.backoff_initial", 500*time.Millisecond)
	v.SetDefault("router.backoff_max", 15*time.Second)
	v.SetDefault("router.backoff_factor", 2.0)
	v.SetDefault("router.backoff_jitter", 0.1)
	v.SetDefault("router.attempt_timeout", 60*time.Second)
	v.SetDefault("router.request_deadline", 3*time.Minute)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.path", "health.db")

	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)
}
