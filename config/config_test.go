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
	t.Setenv("RELAY_CONFIG", "")
	t.Setenv("PORT", "")
	t.Setenv("HOSTNAME", "")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, "/ws", cfg.WSPath)
	assert.Equal(t, ":4000", cfg.Addr())
	assert.Equal(t, "http://localhost:4000", cfg.DisplayURL())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "5123")
	t.Setenv("HOSTNAME", "relay.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5123, cfg.Port)
	assert.Equal(t, "relay.internal", cfg.Host)
}

func TestLoadRejectsBadPort(t *testing.T) {
	clearEnv(t)

	for _, bad := range []string{"abc", "-1", "0", "70000"} {
		t.Setenv("PORT", bad)
		_, err := Load()
		assert.Error(t, err, "PORT=%s must be rejected", bad)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"port: 4500\nhost: example.test\nsend_queue_size: 128\nping_interval: 10s\n"), 0o600))
	t.Setenv("RELAY_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4500, cfg.Port)
	assert.Equal(t, "example.test", cfg.Host)
	assert.Equal(t, 128, cfg.SendQueueSize)
	assert.Equal(t, 10*time.Second, cfg.PingInterval)
}

func TestEnvBeatsFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 4500\n"), 0o600))
	t.Setenv("RELAY_CONFIG", path)
	t.Setenv("PORT", "4600")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4600, cfg.Port)
}

func TestLoadMissingFileFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("RELAY_CONFIG", "/nonexistent/relay.yaml")

	_, err := Load()
	assert.Error(t, err)
}

func TestNormalizeKeepsPongWaitAbovePing(t *testing.T) {
	cfg := Default()
	cfg.PingInterval = 2 * time.Minute
	cfg.PongWait = time.Second
	cfg.normalize()

	assert.Greater(t, cfg.PongWait, cfg.PingInterval)
}
