package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, NotifyLocal, cfg.Notify.Backend)
	assert.Equal(t, "racha", cfg.Redis.Prefix)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Empty(t, cfg.Auth.AdminSecret)
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "racha.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
store:
  driver: memory
redis:
  prefix: from-file
auth:
  token_ttl: 2h
`), 0o600))

	t.Setenv("RACHA_REDIS_PREFIX", "from-env")
	t.Setenv("RACHA_AUTH_ADMIN_SECRET", "env-secret")

	cfg, err := Load([]string{"--config", path, "--addr", ":7000"})
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr, "flag beats file")
	assert.Equal(t, DriverMemory, cfg.Store.Driver, "file beats default")
	assert.Equal(t, "from-env", cfg.Redis.Prefix, "env beats file")
	assert.Equal(t, "env-secret", cfg.Auth.AdminSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "unknown store", args: []string{"--store", "postgres"}},
		{name: "unknown notify backend", args: []string{"--notify", "kafka"}},
		{name: "missing config file", args: []string{"--config", "/does/not/exist.yaml"}},
		{name: "unknown flag", args: []string{"--nope"}},
		{name: "non-positive token ttl", env: map[string]string{"RACHA_AUTH_TOKEN_TTL": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestLoad_Help(t *testing.T) {
	_, err := Load([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestValidate_RedisNeedsAddress(t *testing.T) {
	cfg := &Config{
		Store:  StoreConfig{Driver: "memory"},
		Notify: NotifyConfig{Backend: "REDIS"},
		Auth:   AuthConfig{TokenTTL: time.Hour},
	}
	assert.Error(t, cfg.Validate())

	cfg.Redis.Addr = "localhost:6379"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, NotifyRedis, cfg.Notify.Backend, "backends are normalised to lower case")
}
