package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/brokerledger/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Ledger.ReservationTTL)
	assert.Equal(t, 72*time.Hour, cfg.Ledger.MatchTolerance)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("BALANCE_CACHE_TTL", "1m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CHART_PATH", "/etc/brokerledger/chart.yaml")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "/etc/brokerledger/chart.yaml", cfg.Ledger.ChartPath)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "ZeroReservationTTL", key: "RESERVATION_TTL", value: "0s", wantErr: "RESERVATION_TTL must be positive"},
		{name: "NegativeTolerance", key: "MATCH_TOLERANCE", value: "-1h", wantErr: "MATCH_TOLERANCE must not be negative"},
		{name: "Unparseable", key: "PORT", value: "eighty", wantErr: "failed to process config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConnectionString(t *testing.T) {
	var cfg config.Config
	cfg.DB.Host = "db"
	cfg.DB.Port = 5432
	cfg.DB.User = "ledger"
	cfg.DB.Password = "p@ss"
	cfg.DB.Name = "brokerledger"
	cfg.DB.StatementTimeout = 5 * time.Second

	assert.Equal(t,
		"postgres://ledger:p%40ss@db:5432/brokerledger?sslmode=disable&statement_timeout=5000",
		cfg.ConnectionString(),
	)

	cfg.DB.StatementTimeout = 0
	assert.Equal(t, "postgres://ledger:p%40ss@db:5432/brokerledger?sslmode=disable", cfg.ConnectionString())
}
