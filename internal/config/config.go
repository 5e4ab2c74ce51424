package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/shopspring/decimal"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string   `env:"PORT" envDefault:"8080"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	Store       string `env:"STORE" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret     string `env:"JWT_SECRET"`
	JWTIssuer     string `env:"JWT_ISSUER" envDefault:"stocksim-backend"`
	JWTTTLMinutes int    `env:"JWT_TTL_MINUTES" envDefault:"60"`

	StartingCash decimal.Decimal `env:"STARTING_CASH" envDefault:"10000"`

	QuoteProvider       string `env:"QUOTE_PROVIDER" envDefault:"yahoo"`
	QuoteBaseURL        string `env:"QUOTE_BASE_URL"`
	QuoteTimeoutSeconds int    `env:"QUOTE_TIMEOUT_SECONDS" envDefault:"8"`
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	var cfg Config
	err := env.ParseWithFuncs(&cfg, map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(decimal.Decimal{}): func(v string) (any, error) {
			return decimal.NewFromString(v)
		},
	})
	if err != nil {
		return Config{}, err
	}

	if cfg.Store != "postgres" && cfg.Store != "memory" {
		return Config{}, fmt.Errorf("unknown STORE %q", cfg.Store)
	}
	if cfg.Store == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.JWTTTLMinutes <= 0 {
		cfg.JWTTTLMinutes = 60
	}
	if cfg.StartingCash.IsNegative() {
		return Config{}, errors.New("STARTING_CASH must not be negative")
	}
	if cfg.QuoteProvider != "yahoo" && cfg.QuoteProvider != "static" {
		return Config{}, fmt.Errorf("unknown QUOTE_PROVIDER %q", cfg.QuoteProvider)
	}
	if cfg.QuoteTimeoutSeconds <= 0 {
		cfg.QuoteTimeoutSeconds = 8
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// JWTTTL returns the session token lifetime.
func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

// QuoteTimeout bounds every quote provider call.
func (c Config) QuoteTimeout() time.Duration {
	return time.Duration(c.QuoteTimeoutSeconds) * time.Second
}
