package scpfwk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeTempConfig(t, "fwk.yaml", `
eventPoolSize: 128
isrQueueSize: 16
logLevel: debug
traceDispatch: true
ticks:
  - schedule: "@every 1s"
    module: thermal
    element: -1
    event: 2
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.EventPoolSize)
	assert.Equal(t, 16, cfg.ISRQueueSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.TraceDispatch)
	// Unset fields keep their defaults.
	assert.Equal(t, DefaultConfig().NotificationSlots, cfg.NotificationSlots)
	require.Len(t, cfg.Ticks, 1)
	assert.Equal(t, "thermal", cfg.Ticks[0].Module)
	assert.Equal(t, 2, cfg.Ticks[0].Event)
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeTempConfig(t, "fwk.toml", `
eventPoolSize = 256
notificationSlots = 8

[[ticks]]
schedule = "@every 500ms"
module = "watchdog"
element = 0
event = 1
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.EventPoolSize)
	assert.Equal(t, 8, cfg.NotificationSlots)
	require.Len(t, cfg.Ticks, 1)
	assert.Equal(t, 0, cfg.Ticks[0].Element)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SCPFWK_EVENT_POOL_SIZE", "99")
	t.Setenv("SCPFWK_TRACE_DISPATCH", "true")
	path := writeTempConfig(t, "fwk.yaml", "eventPoolSize: 10\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.EventPoolSize, "environment wins over the file")
	assert.True(t, cfg.TraceDispatch)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SCPFWK_ISR_QUEUE_SIZE", "7")
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.ISRQueueSize)
	assert.Equal(t, DefaultConfig().EventPoolSize, cfg.EventPoolSize)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("unknown extension", func(t *testing.T) {
		path := writeTempConfig(t, "fwk.ini", "x=1")
		_, err := LoadConfig(path)
		assert.ErrorIs(t, err, ErrConfigFormat)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
	t.Run("invalid sizing", func(t *testing.T) {
		path := writeTempConfig(t, "fwk.yaml", "eventPoolSize: 0\n")
		_, err := LoadConfig(path)
		assert.ErrorIs(t, err, ErrConfigInvalid)
	})
	t.Run("tick without module", func(t *testing.T) {
		path := writeTempConfig(t, "fwk.yaml", "ticks:\n  - schedule: \"@every 1s\"\n")
		_, err := LoadConfig(path)
		assert.ErrorIs(t, err, ErrConfigInvalid)
	})
	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("SCPFWK_EVENT_POOL_SIZE", "lots")
		_, err := ConfigFromEnv()
		assert.Error(t, err)
	})
}
