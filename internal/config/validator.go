package config

import (
	"fmt"
	"strings"

	"github.com/coral-mesh/mcumon/internal/cargo"
	"github.com/coral-mesh/mcumon/internal/logging"
	"github.com/coral-mesh/mcumon/internal/serial"
	"github.com/coral-mesh/mcumon/internal/symbols"
	"github.com/coral-mesh/mcumon/internal/terminal"
)

// Validator is the interface for validating configuration.
type Validator interface {
	Validate() error
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiValidationError represents multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("validation failed with %d errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		builder.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return builder.String()
}

// Has reports whether field failed validation.
func (e *MultiValidationError) Has(field string) bool {
	for _, err := range e.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Validate validates MonitorConfig.
func (c *MonitorConfig) Validate() error {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Version != SchemaVersion {
		add("version", "unsupported schema version %q, expected %q", c.Version, SchemaVersion)
	}

	// Serial
	if err := serial.ValidateBaud(c.Serial.Baud); err != nil {
		add("serial.baud", "%d is not a standard baud rate", c.Serial.Baud)
	}
	if _, err := serial.ParseFamily(c.Serial.Chip); err != nil {
		add("serial.chip", "unknown chip %q, expected one of %s", c.Serial.Chip, strings.Join(serial.FamilyNames(), ", "))
	}
	if c.Serial.ReadTimeout <= 0 {
		add("serial.read_timeout", "must be positive")
	}
	if c.Serial.ReconnectInterval <= 0 {
		add("serial.reconnect_interval", "must be positive")
	}
	if c.Serial.PartialLineTimeout < 0 {
		add("serial.partial_line_timeout", "must not be negative")
	}
	if c.Serial.OpenRetries < 1 {
		add("serial.open_retries", "must be at least 1")
	}

	// Symbols
	if _, err := symbols.ParseDemangleStyle(c.Symbols.Demangle); err != nil {
		add("symbols.demangle", "%v", err)
	}
	if c.Symbols.CacheSize < 0 {
		add("symbols.cache_size", "must not be negative")
	}

	// Cargo
	if c.Cargo.Framework != "" {
		if _, err := cargo.ParseFramework(c.Cargo.Framework); err != nil {
			add("cargo.framework", "%v", err)
		}
	}

	// Keys
	if _, err := terminal.NewBindings(c.Keys.Reset, c.Keys.Quit); err != nil {
		add("keys", "%v", err)
	}

	// Logging
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level", "%v", err)
	}

	if len(errs) > 0 {
		return &MultiValidationError{Errors: errs}
	}
	return nil
}
