package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultAPIBaseURL is the production TTS gateway.
const DefaultAPIBaseURL = "https://0gqxz2ps31.execute-api.ap-northeast-2.amazonaws.com/prod/v1/gendao/tts"

// Config contains all runtime settings for the web front-end.
type Config struct {
	BindAddr         string        `env:"APP_BIND_ADDR" envDefault:":8080"`
	ShutdownTimeout  time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	MetricsNamespace string        `env:"APP_METRICS_NAMESPACE" envDefault:"genesisvoice"`
	LogLevel         string        `env:"APP_LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"APP_LOG_FORMAT" envDefault:"json"`

	// Only same-origin websocket upgrades are accepted unless this is set.
	AllowAnyOrigin  bool   `env:"APP_ALLOW_ANY_ORIGIN" envDefault:"false"`
	DefaultLanguage string `env:"APP_DEFAULT_LANGUAGE" envDefault:"ko"`

	APIBaseURL string `env:"TTS_API_BASE_URL" envDefault:"https://0gqxz2ps31.execute-api.ap-northeast-2.amazonaws.com/prod/v1/gendao/tts"`
	// 0 leaves individual API calls bounded only by the request context.
	APITimeout time.Duration `env:"TTS_API_TIMEOUT" envDefault:"0s"`

	PollInterval        time.Duration `env:"GENERATION_POLL_INTERVAL" envDefault:"2s"`
	MaxPollAttempts     int           `env:"GENERATION_MAX_ATTEMPTS" envDefault:"30"`
	GenerationRetention time.Duration `env:"GENERATION_RETENTION" envDefault:"10m"`

	SessionStoreDriver  string        `env:"SESSION_STORE_DRIVER" envDefault:"file"`
	SessionFilePath     string        `env:"SESSION_FILE_PATH" envDefault:".data/sessions.json"`
	SessionRedisURL     string        `env:"SESSION_REDIS_URL"`
	SessionRedisTTL     time.Duration `env:"SESSION_REDIS_TTL" envDefault:"720h"`
	SessionDatabaseURL  string        `env:"SESSION_DATABASE_URL"`
	SessionCookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"gv_sid"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	SessionCookieMaxAge time.Duration `env:"SESSION_COOKIE_MAX_AGE" envDefault:"720h"`
}

// Load reads environment variables, applies defaults and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.SessionStoreDriver = strings.ToLower(strings.TrimSpace(c.SessionStoreDriver))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.DefaultLanguage = strings.ToLower(strings.TrimSpace(c.DefaultLanguage))
	c.SessionRedisURL = strings.TrimSpace(c.SessionRedisURL)
	c.SessionDatabaseURL = strings.TrimSpace(c.SessionDatabaseURL)
}

// Validate reports the first setting that cannot be used as configured.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("TTS_API_BASE_URL must be an absolute http(s) URL")
	}
	if c.APITimeout < 0 {
		return fmt.Errorf("TTS_API_TIMEOUT must be >= 0")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("GENERATION_POLL_INTERVAL must be positive")
	}
	if c.MaxPollAttempts <= 0 {
		return fmt.Errorf("GENERATION_MAX_ATTEMPTS must be positive")
	}
	if c.GenerationRetention < time.Minute {
		return fmt.Errorf("GENERATION_RETENTION must be at least 1m")
	}
	switch c.SessionStoreDriver {
	case "file":
		if strings.TrimSpace(c.SessionFilePath) == "" {
			return fmt.Errorf("SESSION_FILE_PATH is required for the file session store")
		}
	case "memory":
	case "redis":
		if c.SessionRedisURL == "" {
			return fmt.Errorf("SESSION_REDIS_URL is required for the redis session store")
		}
	case "postgres":
		if c.SessionDatabaseURL == "" {
			return fmt.Errorf("SESSION_DATABASE_URL is required for the postgres session store")
		}
	default:
		return fmt.Errorf("invalid SESSION_STORE_DRIVER: %q (expected file|memory|redis|postgres)", c.SessionStoreDriver)
	}
	if c.SessionCookieMaxAge < time.Second {
		return fmt.Errorf("SESSION_COOKIE_MAX_AGE must be at least 1s")
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid APP_LOG_FORMAT: %q (expected json|text)", c.LogFormat)
	}
	return nil
}
