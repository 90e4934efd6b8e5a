package config

import (
	"time"
)

// SchemaVersion is the configuration schema version.
const SchemaVersion = "1"

// MonitorConfig represents ~/.mcumon/config.yaml.
type MonitorConfig struct {
	Version string        `yaml:"version"`
	Serial  SerialConfig  `yaml:"serial"`
	Symbols SymbolsConfig `yaml:"symbols"`
	Cargo   CargoConfig   `yaml:"cargo"`
	Keys    KeysConfig    `yaml:"keys"`
	Logging LoggingConfig `yaml:"logging"`
	Hook    HookConfig    `yaml:"hook"`
}

// SerialConfig describes the device connection.
type SerialConfig struct {
	// Port is auto-discovered when empty and exactly one USB serial port is present.
	Port string `yaml:"port,omitempty" env:"MCUMON_PORT"`
	Baud int    `yaml:"baud" env:"MCUMON_BAUD"`
	// Chip selects the reset sequence (esp32, esp32-usb-jtag, dtr-pulse, none).
	Chip string `yaml:"chip" env:"MCUMON_CHIP"`

	ReadTimeout        time.Duration `yaml:"read_timeout" env:"MCUMON_READ_TIMEOUT"`
	ReconnectInterval  time.Duration `yaml:"reconnect_interval" env:"MCUMON_RECONNECT_INTERVAL"`
	PartialLineTimeout time.Duration `yaml:"partial_line_timeout"` // 0 keeps partial lines until their newline
	ResetOnConnect     bool          `yaml:"reset_on_connect" env:"MCUMON_RESET_ON_CONNECT"`
	OpenRetries        int           `yaml:"open_retries"`
}

// SymbolsConfig controls address annotation.
type SymbolsConfig struct {
	// ELF is the firmware image; empty disables annotation.
	ELF            string `yaml:"elf,omitempty" env:"MCUMON_ELF"`
	Demangle       string `yaml:"demangle" env:"MCUMON_DEMANGLE"` // none, simplified, templates, full
	MarkUnresolved bool   `yaml:"mark_unresolved" env:"MCUMON_MARK_UNRESOLVED"`
	ShortPaths     bool   `yaml:"short_paths"`
	CacheSize      int    `yaml:"cache_size"`
}

// CargoConfig derives symbols.elf from a Rust project's build output when no image is
// given explicitly.
type CargoConfig struct {
	Enabled bool `yaml:"enabled" env:"MCUMON_CARGO"`
	// Dir is where the Cargo.toml search starts; empty means the working directory.
	Dir     string `yaml:"dir,omitempty" env:"MCUMON_CARGO_DIR"`
	Release bool   `yaml:"release" env:"MCUMON_CARGO_RELEASE"`
	Example string `yaml:"example,omitempty"`
	// Framework is baremetal or esp-idf; empty derives it from the target.
	Framework string `yaml:"framework,omitempty" env:"MCUMON_CARGO_FRAMEWORK"`
	// Target overrides the triple otherwise taken from .cargo/config.toml or serial.chip.
	Target string `yaml:"target,omitempty" env:"MCUMON_CARGO_TARGET"`
}

// KeysConfig holds the key bindings.
type KeysConfig struct {
	Reset string `yaml:"reset"`
	Quit  string `yaml:"quit"`

	// ForwardInput sends keys other than the bindings to the device.
	ForwardInput bool `yaml:"forward_input" env:"MCUMON_FORWARD_INPUT"`
}

// LoggingConfig controls diagnostic output on stderr.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"MCUMON_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"MCUMON_LOG_PRETTY"`
}

// HookConfig holds the pre-session hook.
type HookConfig struct {
	// Before runs through the shell before the port is opened, typically a build or flash.
	Before string `yaml:"before,omitempty" env:"MCUMON_BEFORE"`
}
