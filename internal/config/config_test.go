package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://api.korapay.com", cfg.Korapay.BaseURL)
	assert.Equal(t, 30*time.Minute, cfg.Orders.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Orders.SweepInterval)
	assert.Equal(t, 24*time.Hour, cfg.Carts.IdleThreshold)
	assert.Equal(t, 5, cfg.LowStockThreshold)

	policy := cfg.DeliveryPolicy()
	assert.Equal(t, int64(6000), policy.Fee("Lagos Island Annex"))
	assert.Zero(t, policy.Fee("Covenant University Gate 2"))
	assert.Equal(t, int64(4000), policy.Fee(""))
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
korapay:
  secret: file-secret
orders:
  ttl: 15m
`), 0o600))

	t.Setenv("OOHLALAA_DATABASE_URL", "postgres://localhost/oohlalaa")
	t.Setenv("OOHLALAA_KORAPAY_SECRET", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.Orders.TTL)
	assert.Equal(t, "postgres://localhost/oohlalaa", cfg.DatabaseURL)
	assert.Equal(t, "env-secret", cfg.Korapay.Secret, "environment wins over the file")

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "database_url")

	cfg.DatabaseURL = "postgres://localhost/oohlalaa"
	assert.ErrorContains(t, cfg.Validate(), "korapay.secret")

	cfg.Korapay.Secret = "sk"
	assert.NoError(t, cfg.Validate())
}
