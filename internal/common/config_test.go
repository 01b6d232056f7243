package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.MaxConnLifetime)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.NotZero(t, cfg.Storage.MaxUploadSize)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "5")
	t.Setenv("DB_DIAL_TIMEOUT", "1s")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg := LoadConfig()

	assert.Equal(t, int32(5), cfg.Database.MaxConns)
	assert.Equal(t, time.Second, cfg.Database.DialTimeout)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	t.Setenv("DB_URL", "postgres://u:p@localhost:5432/db")
	t.Setenv("PERMISSION_TOKEN", "tok")
	t.Setenv("HTTP_ADDR", ":8080")

	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())

	cfg.Auth.PermissionToken = ""
	assert.Error(t, cfg.Validate())
}
