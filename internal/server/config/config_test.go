package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"crewtally"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestLoadConfig_Defaults(t *testing.T) {
	withArgs(t)

	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
	assert.Equal(t, BackendFile, cfg.StoreBackend)
	assert.Equal(t, 8*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 5*time.Minute, cfg.LockoutDuration)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"endpoint_addr_http": ":9090",
		"store_backend": "postgres",
		"session_duration": "4h",
		"lockout_duration": "10m"
	}`), 0o660))

	withArgs(t, "-c", path)

	cfg := LoadConfig()

	assert.Equal(t, ":9090", cfg.EndpointAddrHTTP)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, 4*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 10*time.Minute, cfg.LockoutDuration)
	// untouched fields keep defaults
	assert.Equal(t, "data", cfg.DataDir)
}

func TestLoadConfig_FlagsWinOverJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"endpoint_addr_http": ":9090"}`), 0o660))

	withArgs(t, "-c", path, "-a", ":7070", "-m", "postgres")

	cfg := LoadConfig()

	assert.Equal(t, ":7070", cfg.EndpointAddrHTTP)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
}
