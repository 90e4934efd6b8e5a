// Package constants defines shared configuration constants.
package constants

var (
	ConfigFile = "config.yaml"

	DefaultDir = ".mcumon"

	// ConfigDirEnv overrides the directory that holds ConfigFile.
	ConfigDirEnv = "MCUMON_CONFIG"

	// DefaultBaudRate matches the ROM bootloader and default console rate of ESP32-class chips.
	DefaultBaudRate = 115200

	DefaultChip = "esp32"

	DefaultResetKey = "ctrl-r"

	DefaultQuitKey = "ctrl-c"

	DefaultDemangleStyle = "simplified"

	// DefaultAnnotationCacheSize is the number of formatted annotations kept per session.
	DefaultAnnotationCacheSize = 1024

	DefaultOpenRetries = 3
)
