package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("UPLOAD_MAX_BYTES", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, int64(10<<20), cfg.UploadMaxBytes)
	assert.Equal(t, 12*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("UPLOAD_MAX_BYTES", "2048")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STORAGE_USE_SSL", "true")

	cfg := Load()
	assert.Equal(t, int64(2048), cfg.UploadMaxBytes)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.StorageUseSSL)
}

func TestValidate(t *testing.T) {
	cfg := &Config{AppEnv: "production", JWTSecret: defaultJWTSecret, StorageDriver: "minio", UploadMaxBytes: 1}
	require.Error(t, cfg.Validate())

	cfg.JWTSecret = "s3cret"
	require.NoError(t, cfg.Validate())

	cfg.StorageDriver = "gcs"
	require.Error(t, cfg.Validate())

	cfg.StorageDriver = "memory"
	cfg.UploadMaxBytes = 0
	require.Error(t, cfg.Validate())
}
