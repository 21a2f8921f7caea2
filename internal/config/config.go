package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name            string        `envconfig:"APP_NAME" default:"brokerledger"`
		Port            int           `envconfig:"PORT" default:"8080"`
		ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
		LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
		LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	}

	DB struct {
		Host             string        `envconfig:"DB_HOST" default:"localhost"`
		Port             int           `envconfig:"DB_PORT" default:"5432"`
		User             string        `envconfig:"DB_USER" default:"postgres"`
		Password         string        `envconfig:"DB_PASSWORD" default:""`
		Name             string        `envconfig:"DB_NAME" default:"brokerledger"`
		StatementTimeout time.Duration `envconfig:"DB_STATEMENT_TIMEOUT" default:"10s"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		// AllowedOrigins is a comma separated CORS origin list.
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	}

	// Redis caching is disabled when Addr is empty.
	Redis struct {
		Addr     string        `envconfig:"REDIS_ADDR" default:""`
		Password string        `envconfig:"REDIS_PASSWORD" default:""`
		DB       int           `envconfig:"REDIS_DB" default:"0"`
		CacheTTL time.Duration `envconfig:"BALANCE_CACHE_TTL" default:"5m"`

		// The cache is bypassed for BreakerTimeout after BreakerFailures
		// consecutive errors.
		BreakerFailures uint32        `envconfig:"CACHE_BREAKER_FAILURES" default:"5"`
		BreakerTimeout  time.Duration `envconfig:"CACHE_BREAKER_TIMEOUT" default:"30s"`
	}

	// Bearer auth is disabled when JWTSecret is empty.
	Auth struct {
		JWTSecret string `envconfig:"JWT_SECRET" default:""`
	}

	Ledger struct {
		// ChartPath overrides the embedded chart of accounts.
		ChartPath      string        `envconfig:"CHART_PATH" default:""`
		ReservationTTL time.Duration `envconfig:"RESERVATION_TTL" default:"30s"`
		MatchTolerance time.Duration `envconfig:"MATCH_TOLERANCE" default:"72h"`
	}
}

func (c *Config) ConnectionString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DB.User, c.DB.Password),
		Host:   fmt.Sprintf("%s:%d", c.DB.Host, c.DB.Port),
		Path:   c.DB.Name,
	}

	q := url.Values{}
	q.Set("sslmode", "disable")

	if c.DB.StatementTimeout > 0 {
		q.Set("statement_timeout", fmt.Sprintf("%d", c.DB.StatementTimeout.Milliseconds()))
	}

	u.RawQuery = q.Encode()

	return u.String()
}

func (c *Config) validate() error {
	if c.Ledger.ReservationTTL <= 0 {
		return errors.New("RESERVATION_TTL must be positive")
	}

	if c.Ledger.MatchTolerance < 0 {
		return errors.New("MATCH_TOLERANCE must not be negative")
	}

	return nil
}

// Load reads an optional .env file from the working directory, then the
// environment. Real environment variables win over .env values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
