package config

import (
	"encoding/hex"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "configured-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8431", cfg.HTTP.Addr)
	assert.Equal(t, 5, cfg.Database.MaxConns)
	assert.Contains(t, cfg.Database.DSN, "postgres://")
	assert.Equal(t, "configured-secret", cfg.JWT.Secret)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/users")
	t.Setenv("DATABASE_MAX_CONNS", "12")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_DEV", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, "postgres://u:p@db:5432/users", cfg.Database.DSN)
	assert.Equal(t, 12, cfg.Database.MaxConns)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Dev)
}

func TestLoadGeneratesAndPersistsSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, cfg.JWT.Secret)

	// 64 random bytes, hex encoded
	raw, err := hex.DecodeString(cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Len(t, raw, 64)

	// persisted so the next start keeps verifying previously issued tokens
	data, err := os.ReadFile(".env")
	require.NoError(t, err)
	assert.Contains(t, string(data), "JWT_SECRET="+cfg.JWT.Secret+"\n")

	var line string
	for _, l := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(l, "JWT_SECRET=") {
			line = strings.TrimPrefix(l, "JWT_SECRET=")
		}
	}
	assert.Equal(t, cfg.JWT.Secret, line)
}
