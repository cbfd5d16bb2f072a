package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

type Config struct {
	Addr     string `env:"PORTAL_ADDR,   default=:3000"`
	Env      string `env:"ENV,           default=development"`
	LogLevel string `env:"LOG_LEVEL,     default=info"`

	// APIBaseURL is the HealthConnect REST backend the portal talks to.
	APIBaseURL string `env:"API_BASE_URL,  default=http://localhost:8000"`

	// SessionSecret signs the browser session cookie.
	SessionSecret string `env:"SESSION_SECRET, default=dev-secret-change-me"`

	// TokenStore selects where the bearer token persists: file or redis.
	TokenStore string `env:"TOKEN_STORE,   default=file"`
	TokenFile  string `env:"TOKEN_FILE,    default=.healthconnect/token"`

	Redis RedisConfig
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.TokenStore != StoreFile && cfg.TokenStore != StoreRedis {
		return nil, fmt.Errorf("config: unknown TOKEN_STORE %q", cfg.TokenStore)
	}
	return &cfg, nil
}

// Development reports whether the portal runs in development mode
// (pretty logs, relaxed cookie policy).
func (c *Config) Development() bool {
	return c.Env == "development"
}
