package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 5, cfg.Ledger.LowStockFloor)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "pos:notifications", cfg.Redis.Queue)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.True(t, cfg.Metrics.Enabled)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("APP_ENV", "production")
	v.Set("JWT_SECRET", "s3cret")
	v.Set("LOW_STOCK_FLOOR", "3")
	v.Set("REDIS_URL", "redis://localhost:6379/0")
	v.Set("NOTIFICATION_WORKERS", "4")
	v.Set("AUTO_MIGRATE", "true")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Ledger.LowStockFloor)
	assert.True(t, cfg.Ledger.AutoMigrate)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 4, cfg.Redis.Workers)
}

func TestFromViper_ProduccionSinSecret(t *testing.T) {
	v := viper.New()
	v.Set("APP_ENV", "production")

	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestFromViper_FloorNegativo(t *testing.T) {
	v := viper.New()
	v.Set("LOW_STOCK_FLOOR", "-1")

	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "pos", Password: "p@ss:word", DBName: "pos", SSLMode: "disable"}
	assert.Equal(t, "postgres://pos:p%40ss%3Aword@db:5432/pos?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
