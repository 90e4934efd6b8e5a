// Package config provides layered configuration loading for mcumon: built-in defaults,
// a YAML file, MCUMON_* environment variables and command-line flags, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/mcumon/internal/constants"
	"github.com/coral-mesh/mcumon/internal/privilege"
)

// Loader locates and saves the user configuration file.
type Loader struct {
	homeDir string
}

// NewLoader creates a new config loader.
// The base directory is resolved in this order:
//  1. MCUMON_CONFIG environment variable.
//  2. User home directory (~/), the invoking user's under sudo.
//  3. The system temporary directory, where no config file will exist.
func NewLoader() *Loader {
	if baseDir := os.Getenv(constants.ConfigDirEnv); baseDir != "" {
		return &Loader{homeDir: baseDir}
	}

	if homeDir, err := privilege.HomeDir(); err == nil {
		return &Loader{homeDir: homeDir}
	}

	return &Loader{homeDir: filepath.Join(os.TempDir(), "mcumon-fallback")}
}

// ConfigPath returns the path to the user config file.
func (l *Loader) ConfigPath() string {
	return filepath.Join(l.homeDir, constants.DefaultDir, constants.ConfigFile)
}

// Save writes cfg to ConfigPath, creating the directory if needed.
func (l *Loader) Save(cfg *MonitorConfig) error {
	path := l.ConfigPath()

	//nolint:gosec // G301: Directory needs standard permissions for traversal
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if privilege.IsRoot() {
		if err := privilege.FixFileOwnership(dir); err != nil {
			return fmt.Errorf("failed to fix config directory ownership: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	//nolint:gosec // G306: Config file holds no secrets
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if privilege.IsRoot() {
		if err := privilege.FixFileOwnership(path); err != nil {
			return fmt.Errorf("failed to fix config file ownership: %w", err)
		}
	}

	return nil
}

// Exists reports whether the config file is present.
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.ConfigPath())
	return err == nil
}
