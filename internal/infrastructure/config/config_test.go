package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "empaques-backoffice", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 800*time.Millisecond, cfg.Resolver.DebounceWindow)
	assert.Equal(t, 8, cfg.Resolver.MinTaxIDLength)
	assert.Equal(t, 10*time.Second, cfg.DataService.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.SnapshotTTL)
	assert.Equal(t, 500, cfg.Editor.ListLimit)
}

func TestValidate_Production(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.App.Env = "production"

	err := cfg.validate()
	require.Error(t, err, "public key is required in production")

	cfg.DataService.PublicKey = "anon-key"
	err = cfg.validate()
	require.Error(t, err, "https is required in production")

	cfg.DataService.BaseURL = "https://data.empaques.pe"
	require.NoError(t, cfg.validate())

	cfg.HTTP.CORSAllowOrigins = []string{"*"}
	assert.Error(t, cfg.validate())
}

func TestRedisConfig(t *testing.T) {
	r := RedisConfig{}
	assert.False(t, r.Enabled())

	r.Host = "localhost"
	r.Port = 6379
	assert.True(t, r.Enabled())
	assert.Equal(t, "localhost:6379", r.Addr())
}
