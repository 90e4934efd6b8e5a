package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Layer represents a configuration layer source.
type Layer string

const (
	// LayerDefaults represents default configuration values.
	LayerDefaults Layer = "defaults"

	// LayerFile represents configuration from a file.
	LayerFile Layer = "file"

	// LayerEnv represents configuration from environment variables.
	LayerEnv Layer = "env"

	// LayerFlags represents configuration from command-line flags.
	LayerFlags Layer = "flags"
)

// LayeredLoader provides layered configuration loading.
// Configuration is loaded in the following order:
// 1. Defaults - hardcoded default values
// 2. File - configuration file (YAML)
// 3. Environment - MCUMON_* environment variables
// 4. Flags - command-line flags that were explicitly set
//
// Each layer overrides values from previous layers.
type LayeredLoader struct {
	enabledLayers map[Layer]bool
}

// NewLayeredLoader creates a new layered configuration loader with every layer enabled.
func NewLayeredLoader() *LayeredLoader {
	return &LayeredLoader{
		enabledLayers: map[Layer]bool{
			LayerDefaults: true,
			LayerFile:     true,
			LayerEnv:      true,
			LayerFlags:    true,
		},
	}
}

// EnableLayer enables a specific configuration layer.
func (l *LayeredLoader) EnableLayer(layer Layer) {
	l.enabledLayers[layer] = true
}

// DisableLayer disables a specific configuration layer.
func (l *LayeredLoader) DisableLayer(layer Layer) {
	l.enabledLayers[layer] = false
}

// Load builds the monitor configuration.
//
// A missing file at configPath is skipped unless required is set, which is the case
// for a path given explicitly with --config. flags may be nil.
func (l *LayeredLoader) Load(configPath string, required bool, flags *pflag.FlagSet) (*MonitorConfig, error) {
	var cfg *MonitorConfig

	// Layer 1: Defaults
	if l.enabledLayers[LayerDefaults] {
		cfg = DefaultMonitorConfig()
	} else {
		cfg = &MonitorConfig{}
	}

	// Layer 2: File
	if l.enabledLayers[LayerFile] && configPath != "" {
		if err := l.mergeFromFile(cfg, configPath); err != nil {
			if required || !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		}
	}

	// Layer 3: Environment
	if l.enabledLayers[LayerEnv] {
		if err := LoadFromEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from environment: %w", err)
		}
	}

	// Layer 4: Flags
	if l.enabledLayers[LayerFlags] && flags != nil {
		if err := ApplyFlags(cfg, flags); err != nil {
			return nil, fmt.Errorf("failed to apply flags: %w", err)
		}
	}

	return cfg, nil
}

// mergeFromFile loads configuration from a YAML file and merges it into cfg.
func (l *LayeredLoader) mergeFromFile(cfg any, filePath string) error {
	// #nosec G304 -- the path is the user's own config file.
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML in %s: %w", filePath, err)
	}

	return nil
}

// Flag names understood by ApplyFlags.
const (
	FlagPort           = "port"
	FlagBaud           = "baud"
	FlagChip           = "chip"
	FlagELF            = "elf"
	FlagDemangle       = "demangle"
	FlagMarkUnresolved = "mark-unresolved"
	FlagShortPaths     = "short-paths"
	FlagNoReset        = "no-reset"
	FlagBefore         = "before"
	FlagLogLevel       = "log-level"
	FlagForwardInput   = "forward-input"
	FlagCargo          = "cargo"
	FlagRelease        = "release"
	FlagExample        = "example"
	FlagFramework      = "framework"
	FlagTarget         = "target"
)

// ApplyFlags copies every explicitly set flag into cfg. Flags left at their default
// never override the lower layers.
func ApplyFlags(cfg *MonitorConfig, flags *pflag.FlagSet) error {
	var errs []error
	flags.Visit(func(f *pflag.Flag) {
		var err error
		switch f.Name {
		case FlagPort:
			cfg.Serial.Port = f.Value.String()
		case FlagBaud:
			cfg.Serial.Baud, err = flags.GetInt(FlagBaud)
		case FlagChip:
			cfg.Serial.Chip = f.Value.String()
		case FlagELF:
			cfg.Symbols.ELF = f.Value.String()
		case FlagDemangle:
			cfg.Symbols.Demangle = f.Value.String()
		case FlagMarkUnresolved:
			cfg.Symbols.MarkUnresolved, err = flags.GetBool(FlagMarkUnresolved)
		case FlagShortPaths:
			cfg.Symbols.ShortPaths, err = flags.GetBool(FlagShortPaths)
		case FlagNoReset:
			var noReset bool
			noReset, err = flags.GetBool(FlagNoReset)
			cfg.Serial.ResetOnConnect = !noReset
		case FlagBefore:
			cfg.Hook.Before = f.Value.String()
		case FlagLogLevel:
			cfg.Logging.Level = f.Value.String()
		case FlagForwardInput:
			cfg.Keys.ForwardInput, err = flags.GetBool(FlagForwardInput)
		case FlagCargo:
			cfg.Cargo.Enabled, err = flags.GetBool(FlagCargo)
		case FlagRelease:
			cfg.Cargo.Release, err = flags.GetBool(FlagRelease)
		case FlagExample:
			cfg.Cargo.Example = f.Value.String()
		case FlagFramework:
			cfg.Cargo.Framework = f.Value.String()
		case FlagTarget:
			cfg.Cargo.Target = f.Value.String()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("--%s: %w", f.Name, err))
		}
	})
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
