package config

import (
	"github.com/coral-mesh/mcumon/internal/constants"
)

// DefaultMonitorConfig returns a config with sensible defaults.
func DefaultMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		Version: SchemaVersion,
		Serial: SerialConfig{
			Baud:               constants.DefaultBaudRate,
			Chip:               constants.DefaultChip,
			ReadTimeout:        constants.DefaultReadTimeout,
			ReconnectInterval:  constants.DefaultReconnectInterval,
			PartialLineTimeout: constants.DefaultPartialLineTimeout,
			ResetOnConnect:     true,
			OpenRetries:        constants.DefaultOpenRetries,
		},
		Symbols: SymbolsConfig{
			Demangle:  constants.DefaultDemangleStyle,
			CacheSize: constants.DefaultAnnotationCacheSize,
		},
		Keys: KeysConfig{
			Reset: constants.DefaultResetKey,
			Quit:  constants.DefaultQuitKey,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}
