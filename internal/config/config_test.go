package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.ScyllaHosts)
	assert.Equal(t, 168*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "nexusmart@fampay", cfg.UPIPayee)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("SCYLLA_HOSTS", "10.0.0.1,10.0.0.2")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.ScyllaHosts)
	assert.True(t, cfg.MinIOUseSSL)
}

func TestLoad_ProductionNeedsSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "super_secret")

	_, err := Load()
	assert.Error(t, err)
}
