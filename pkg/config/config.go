package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"muxlive/pkg/validation"

	"gopkg.in/yaml.v2"
)

const (
	ModePermanent = "permanent"
	ModeAdHoc     = "adhoc"
)

type Config struct {
	Mode string `yaml:"mode"`

	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Mux struct {
		BaseURL        string        `yaml:"base_url"`
		IngestURL      string        `yaml:"ingest_url"`
		LiveStreamID   string        `yaml:"live_stream_id"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		InitTimeout    time.Duration `yaml:"init_timeout"`
		RetryMax       int           `yaml:"retry_max"`
		RetryWaitMin   time.Duration `yaml:"retry_wait_min"`
		RetryWaitMax   time.Duration `yaml:"retry_wait_max"`
	} `yaml:"mux"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"` // global concurrent HTTP requests
		} `yaml:"http"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Mode != ModePermanent && c.Mode != ModeAdHoc {
		return fmt.Errorf("mode must be %q or %q, got %q", ModePermanent, ModeAdHoc, c.Mode)
	}

	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Mux
	if err := validation.ValidateURL(c.Mux.BaseURL, validation.HTTPSchemes...); err != nil {
		return fmt.Errorf("mux.base_url: %w", err)
	}
	if err := validation.ValidateURL(c.Mux.IngestURL, validation.IngestSchemes...); err != nil {
		return fmt.Errorf("mux.ingest_url: %w", err)
	}
	if c.Mux.RequestTimeout <= 0 {
		return fmt.Errorf("mux.request_timeout must be > 0")
	}
	if c.Mux.InitTimeout <= 0 {
		return fmt.Errorf("mux.init_timeout must be > 0")
	}
	if c.Mux.RetryMax < 0 {
		return fmt.Errorf("mux.retry_max must be >= 0")
	}
	if c.Mux.RetryMax > 0 && c.Mux.RetryWaitMin > c.Mux.RetryWaitMax {
		return fmt.Errorf("mux.retry_wait_min must be <= mux.retry_wait_max")
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within [0, 1]")
		}
	}

	// Logging
	if err := validation.ValidateNonEmptyString(c.Logging.Level, "logging.level"); err != nil {
		return err
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
		if c.Redis.Channel == "" {
			return fmt.Errorf("redis.channel must not be empty when redis.enabled=true")
		}
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.http.max_concurrent must be >= 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
// An empty path or a missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	return LoadWithEnv(configPath, os.Getenv)
}

// LoadWithEnv is Load with the environment supplied by the caller.
func LoadWithEnv(configPath string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
		}
	}

	cfg.applyEnvOverrides(getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Mode = ModePermanent

	cfg.Server.Address = ":3000"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 15 * time.Second

	cfg.Mux.BaseURL = "https://api.mux.com"
	cfg.Mux.IngestURL = "rtmps://global-live.mux.com:443/app"
	cfg.Mux.RequestTimeout = 15 * time.Second
	cfg.Mux.InitTimeout = 60 * time.Second
	cfg.Mux.RetryMax = 0
	cfg.Mux.RetryWaitMin = 500 * time.Millisecond
	cfg.Mux.RetryWaitMax = 5 * time.Second

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10
	cfg.Redis.Channel = "muxlive:events"

	cfg.CORS.AllowedOrigins = []string{"*"}

	// Rate limiting defaults (disabled by default)
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 20
	cfg.RateLimiting.HTTP.Burst = 40
	cfg.RateLimiting.HTTP.MaxConcurrent = 0

	return cfg
}

func (c *Config) applyEnvOverrides(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.Server.Address = ":" + strings.TrimPrefix(port, ":")
	}
	if mode := getenv("LIVESTREAM_MODE"); mode != "" {
		c.Mode = strings.ToLower(mode)
	}
	if level := getenv("LIVESTREAM_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if id := getenv(EnvLiveStreamID); id != "" {
		c.Mux.LiveStreamID = strings.TrimSpace(id)
	}
	if url := getenv("MUX_BASE_URL"); url != "" {
		c.Mux.BaseURL = url
	}
	if addr := getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Enabled = true
		c.Redis.Address = addr
	}
}
