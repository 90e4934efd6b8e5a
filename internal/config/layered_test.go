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

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// newFlagSet registers the monitor flags the way the CLI does.
func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP(FlagPort, "p", "", "")
	fs.IntP(FlagBaud, "b", 115200, "")
	fs.String(FlagChip, "esp32", "")
	fs.StringP(FlagELF, "e", "", "")
	fs.String(FlagDemangle, "simplified", "")
	fs.Bool(FlagMarkUnresolved, false, "")
	fs.Bool(FlagShortPaths, false, "")
	fs.Bool(FlagNoReset, false, "")
	fs.String(FlagBefore, "", "")
	fs.String(FlagLogLevel, "info", "")
	fs.Bool(FlagForwardInput, false, "")
	fs.Bool(FlagCargo, false, "")
	fs.Bool(FlagRelease, false, "")
	fs.String(FlagExample, "", "")
	fs.String(FlagFramework, "", "")
	fs.String(FlagTarget, "", "")
	return fs
}

func TestLayeredLoader_DefaultsOnly(t *testing.T) {
	loader := NewLayeredLoader()
	loader.DisableLayer(LayerEnv)

	cfg, err := loader.Load(filepath.Join(t.TempDir(), "missing.yaml"), false, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultMonitorConfig(), cfg)
}

func TestLayeredLoader_MissingRequiredFile(t *testing.T) {
	_, err := NewLayeredLoader().Load(filepath.Join(t.TempDir(), "missing.yaml"), true, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLayeredLoader_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "serial: [unclosed")

	_, err := NewLayeredLoader().Load(path, false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLayeredLoader_Precedence(t *testing.T) {
	path := writeConfig(t, `
version: "1"
serial:
  port: /dev/ttyUSB0
  baud: 230400
  chip: dtr-pulse
  read_timeout: 40ms
symbols:
  elf: from-file.elf
  short_paths: true
`)

	t.Setenv("MCUMON_BAUD", "460800")
	t.Setenv("MCUMON_ELF", "from-env.elf")

	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{"--elf", "from-flag.elf", "--no-reset"}))

	cfg, err := NewLayeredLoader().Load(path, true, fs)
	require.NoError(t, err)

	// File over defaults.
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, "dtr-pulse", cfg.Serial.Chip)
	assert.Equal(t, 40*time.Millisecond, cfg.Serial.ReadTimeout)
	assert.True(t, cfg.Symbols.ShortPaths)
	// Untouched keys keep their defaults.
	assert.Equal(t, 500*time.Millisecond, cfg.Serial.ReconnectInterval)
	// Env over file.
	assert.Equal(t, 460800, cfg.Serial.Baud)
	// Flags over env.
	assert.Equal(t, "from-flag.elf", cfg.Symbols.ELF)
	assert.False(t, cfg.Serial.ResetOnConnect)
}

func TestApplyFlags_OnlyChangedFlags(t *testing.T) {
	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{"-p", "COM4", "--mark-unresolved", "--log-level", "warn"}))

	cfg := DefaultMonitorConfig()
	cfg.Serial.Baud = 9600
	require.NoError(t, ApplyFlags(cfg, fs))

	assert.Equal(t, "COM4", cfg.Serial.Port)
	assert.True(t, cfg.Symbols.MarkUnresolved)
	assert.Equal(t, "warn", cfg.Logging.Level)
	// --baud was not given, so its default 115200 must not clobber the lower layer.
	assert.Equal(t, 9600, cfg.Serial.Baud)
	assert.True(t, cfg.Serial.ResetOnConnect)
}

func TestApplyFlags_AllFlags(t *testing.T) {
	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{
		"--port", "/dev/ttyACM1",
		"--baud", "74880",
		"--chip", "none",
		"--elf", "fw.elf",
		"--demangle", "full",
		"--short-paths",
		"--no-reset=false",
		"--before", "make",
		"--forward-input",
		"--cargo",
		"--release",
		"--example", "ble_scan",
		"--framework", "esp-idf",
		"--target", "xtensa-esp32-espidf",
	}))

	cfg := DefaultMonitorConfig()
	require.NoError(t, ApplyFlags(cfg, fs))

	assert.Equal(t, "/dev/ttyACM1", cfg.Serial.Port)
	assert.Equal(t, 74880, cfg.Serial.Baud)
	assert.Equal(t, "none", cfg.Serial.Chip)
	assert.Equal(t, "fw.elf", cfg.Symbols.ELF)
	assert.Equal(t, "full", cfg.Symbols.Demangle)
	assert.True(t, cfg.Symbols.ShortPaths)
	assert.True(t, cfg.Serial.ResetOnConnect)
	assert.Equal(t, "make", cfg.Hook.Before)
	assert.True(t, cfg.Keys.ForwardInput)
	assert.Equal(t, CargoConfig{
		Enabled:   true,
		Release:   true,
		Example:   "ble_scan",
		Framework: "esp-idf",
		Target:    "xtensa-esp32-espidf",
	}, cfg.Cargo)
}

func TestDefaults_InputNotForwarded(t *testing.T) {
	cfg := DefaultMonitorConfig()
	assert.False(t, cfg.Keys.ForwardInput)
	assert.False(t, cfg.Cargo.Enabled)
}

func TestLayeredLoader_DisableFile(t *testing.T) {
	path := writeConfig(t, "serial:\n  baud: 9600\n")

	loader := NewLayeredLoader()
	loader.DisableLayer(LayerFile)
	loader.DisableLayer(LayerEnv)
	cfg, err := loader.Load(path, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 115200, cfg.Serial.Baud)

	loader.EnableLayer(LayerFile)
	cfg, err = loader.Load(path, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 9600, cfg.Serial.Baud)
}
