package storecli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUnit_ResolveConfigDefaults(t *testing.T) {
	cfg, err := resolveConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, defaultAPIBaseURL, cfg.APIBaseURL)
	require.Equal(t, "sqlite", cfg.Backend)
	require.NotEmpty(t, cfg.DBPath)
}

func TestUnit_ResolveConfigFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_base_url: https://shop.example.com
backend: valkey
kv_addr: localhost:6379
chat_poll_interval: 5s
`), 0o600))

	cfg, err := resolveConfig(path)
	require.NoError(t, err)
	require.Equal(t, "https://shop.example.com", cfg.APIBaseURL)
	require.Equal(t, "valkey", cfg.Backend)
	require.Equal(t, "localhost:6379", cfg.KVAddr)
	require.Equal(t, Duration(5*time.Second), cfg.ChatPollInterval)
	// Unset fields keep their defaults.
	require.NotEmpty(t, cfg.DBPath)
}

func TestUnit_ResolveConfigEnvWins(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://env.example.com")
	t.Setenv("BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/storesync")

	cfg, err := resolveConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "https://env.example.com", cfg.APIBaseURL)
	require.Equal(t, "postgres", cfg.Backend)
	require.Equal(t, "postgres://localhost/storesync", cfg.DatabaseURL)
}
