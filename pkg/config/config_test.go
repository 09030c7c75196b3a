package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "stock-ledger", cfg.App.Name)
	assert.Equal(t, config.StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.Ledger.LockTimeout)
	assert.Equal(t, 10*time.Second, cfg.Ledger.StoreTimeout)
	assert.False(t, cfg.Kafka.Enabled(), "sin KAFKA_BROKERS el puente queda deshabilitado")
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LEDGER_LOCK_TIMEOUT_MS", "250")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Ledger.LockTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
}

func TestLoad_DriverDesconocido(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	_, err := config.Load()
	require.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "stock", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/stock?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
