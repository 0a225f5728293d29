package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvConfigFilePath, "MONGO_URI", "MONGO_DB", "REDIS_URI", "PORT", "UPLOAD_DIR",
		"PUBLIC_DIR", "MAX_UPLOAD_MB", "HOST_USERNAME", "HOST_PASSWORD", "JWT_SECRET",
		"TOKEN_TTL", "LOG_LEVEL", "LOG_FILE", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.HTTPPort)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes())
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.False(t, cfg.Auth.Enabled())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mongo_uri: mongodb://db:27017
http_port: "8080"
max_upload_mb: 2
log:
  level: debug
auth:
  password: secret
  jwt_secret: sign-key
  token_ttl: 2h
`), 0o600))

	clearEnv(t)
	t.Setenv(EnvConfigFilePath, path)
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_URI", "redis://:pw@cache:6379/2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mongodb://db:27017", cfg.MongoURI)
	assert.Equal(t, "9090", cfg.HTTPPort, "env overrides file")
	assert.Equal(t, "redis://:pw@cache:6379/2", cfg.RedisURI)
	assert.Equal(t, int64(2<<20), cfg.MaxUploadBytes())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Auth.Enabled())
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mongo_url: typo\n"), 0o600))
	clearEnv(t)
	t.Setenv(EnvConfigFilePath, path)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadAuthNeedsSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOST_PASSWORD", "pw")

	_, err := Load()
	assert.Error(t, err)
}
