package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	file := filepath.Join(t.TempDir(), "luxlink.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

func TestLoadConfig(t *testing.T) {
	cfg := NewConfig()
	cfg.Flag.ConfigFile = writeConfigFile(t, `
timing:
  startduration: 800
  bitduration: 200
  endduration: 900
  tolerancefactor: 2.0
  brightnessthreshold: 40
  calibrationsamples: 20
receiver:
  device: 2
transmitter:
  gpio: 23
  backend: memmap
responder:
  enabled: true
  offset: 10
mqtt:
  connection: tcp://broker:1883
  topic: /link/decoded
`)

	require.NoError(t, cfg.LoadConfig())

	timing := cfg.Timing.Timing
	assert.Equal(t, 800*time.Millisecond, timing.StartDuration)
	assert.Equal(t, 200*time.Millisecond, timing.BitDuration)
	assert.Equal(t, 900*time.Millisecond, timing.EndDuration)
	assert.Equal(t, 2.0, timing.ToleranceFactor)
	assert.Equal(t, 40.0, timing.BrightnessChangeThreshold)
	assert.Equal(t, 20, timing.CalibrationSampleCount)

	assert.Equal(t, 2, cfg.Receiver.Device)
	assert.Equal(t, 23, cfg.Transmitter.Gpio)
	assert.Equal(t, "memmap", cfg.Transmitter.Backend)
	assert.True(t, cfg.Responder.Enabled)
	assert.Equal(t, 10, cfg.Responder.Offset)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Connection)
	assert.Equal(t, "/link/decoded", cfg.MQTT.Topic)
}

func TestLoadConfigDefaults(t *testing.T) {
	// a file that sets nothing keeps every default
	cfg := NewConfig()
	cfg.Flag.ConfigFile = writeConfigFile(t, "{}\n")

	require.NoError(t, cfg.LoadConfig())

	timing := cfg.Timing.Timing
	assert.Equal(t, time.Second, timing.StartDuration)
	assert.Equal(t, 300*time.Millisecond, timing.BitDuration)
	assert.Equal(t, time.Second, timing.EndDuration)
	assert.Equal(t, 1.5, timing.ToleranceFactor)
	assert.Equal(t, 50.0, timing.BrightnessChangeThreshold)
	assert.Equal(t, 30, timing.CalibrationSampleCount)

	assert.Equal(t, "chardev", cfg.Transmitter.Backend)
	assert.False(t, cfg.Responder.Enabled)
	assert.True(t, cfg.Webserver.Webservices["health"])
}

func TestLoadConfigFlagOverridesLogLevel(t *testing.T) {
	cfg := NewConfig()
	cfg.Flag.ConfigFile = writeConfigFile(t, "log:\n  flag: standard\n")
	cfg.Flag.LogLevel = "trace"

	require.NoError(t, cfg.LoadConfig())
	assert.Equal(t, "trace", cfg.Log.FlagString)
}

func TestLoadConfigRejectsInvalidTiming(t *testing.T) {
	cfg := NewConfig()
	cfg.Flag.ConfigFile = writeConfigFile(t, "timing:\n  tolerancefactor: 1.0\n")

	assert.Error(t, cfg.LoadConfig())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg := NewConfig()
	cfg.Flag.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")

	assert.Error(t, cfg.LoadConfig())
}
