package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen      string          `yaml:"listen"`
	DBPath      string          `yaml:"db_path"`
	Environment string          `yaml:"environment"`
	SecretKey   string          `yaml:"secret_key"`
	Identity    IdentityConfig  `yaml:"identity"`
	Visits      VisitsConfig    `yaml:"visits"`
	Retention   RetentionConfig `yaml:"retention"`
	Logging     LoggingConfig   `yaml:"logging"`
	Tracing     TracingConfig   `yaml:"tracing"`
}

type IdentityConfig struct {
	// Mode selects how visitor identity tokens are derived:
	// "ip" hashes the client address, "cookie" mints a persistent cookie id.
	Mode string `yaml:"mode"`
}

type VisitsConfig struct {
	// RateLimitWindowSeconds is the minimum gap before the same client's
	// visit to the same tag counts again.
	RateLimitWindowSeconds int `yaml:"rate_limit_window_seconds"`
	// MaxNewBadgesPerDay caps new-tag registrations per client per rolling day.
	MaxNewBadgesPerDay int `yaml:"max_new_badges_per_day"`
}

type RetentionConfig struct {
	Days                 int `yaml:"days"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	LogSpans    bool    `yaml:"log_spans"`
}

const (
	ModeIPHash = "ip"
	ModeCookie = "cookie"
)

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Listen:      ":8080",
		DBPath:      "visitbadge.db",
		Environment: "production",
		Identity: IdentityConfig{
			Mode: ModeIPHash,
		},
		Visits: VisitsConfig{
			RateLimitWindowSeconds: 172800,
			MaxNewBadgesPerDay:     10,
		},
		Retention: RetentionConfig{
			Days:                 7,
			SweepIntervalSeconds: 3600,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
		Tracing: TracingConfig{
			Endpoint:    "",
			Insecure:    false,
			SampleRatio: 1,
			LogSpans:    false,
		},
	}
}

// Load reads config from file with env var overrides
func Load(path string) (*Config, error) {
	// A local .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	if listen := os.Getenv("VISITBADGE_LISTEN"); listen != "" {
		cfg.Listen = listen
	}
	if dbPath := os.Getenv("VISITBADGE_DB"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if secret := os.Getenv("SECRET_KEY"); secret != "" {
		cfg.SecretKey = secret
	}
	if mode := os.Getenv("VISITBADGE_IDENTITY_MODE"); mode != "" {
		cfg.Identity.Mode = mode
	}
	if window := os.Getenv("RATE_LIMIT_WINDOW_SECONDS"); window != "" {
		if secs, err := strconv.Atoi(window); err == nil && secs > 0 {
			cfg.Visits.RateLimitWindowSeconds = secs
		}
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.Environment = env
	}
	if level := os.Getenv("VISITBADGE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Listen == "" {
		return ErrMissingListen
	}
	if c.DBPath == "" {
		return ErrMissingDBPath
	}
	if c.Identity.Mode != ModeIPHash && c.Identity.Mode != ModeCookie {
		return &Error{"identity mode must be \"ip\" or \"cookie\""}
	}
	if c.Visits.RateLimitWindowSeconds <= 0 {
		return ErrInvalidWindow
	}
	if c.Visits.MaxNewBadgesPerDay < 0 {
		c.Visits.MaxNewBadgesPerDay = 0
	}
	if c.Retention.Days <= 0 {
		c.Retention.Days = 7
	}
	if c.Retention.SweepIntervalSeconds <= 0 {
		c.Retention.SweepIntervalSeconds = 3600
	}
	if c.Tracing.SampleRatio <= 0 || c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = 1
	}
	return nil
}

// RateLimitWindow is the dedup window as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.Visits.RateLimitWindowSeconds) * time.Second
}

// RetentionHorizon is the maximum age of a dedup ledger row before it is purged.
func (c *Config) RetentionHorizon() time.Duration {
	return time.Duration(c.Retention.Days) * 24 * time.Hour
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Retention.SweepIntervalSeconds) * time.Second
}

var (
	ErrMissingListen = &Error{"listen address is required"}
	ErrMissingDBPath = &Error{"database path is required"}
	ErrInvalidWindow = &Error{"rate limit window must be positive"}
)

type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
