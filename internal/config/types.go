// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/loaddeps/loaddeps/pkg/types"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// MaxManifestFileSize caps manifest.max_file_size.
	MaxManifestFileSize int64 = 256 << 20
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidManifestConfig is the sentinel error wrapped by InvalidManifestConfigError.
	ErrInvalidManifestConfig = errors.New("invalid manifest config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidManifestConfigError is returned when ManifestConfig holds an
	// out-of-range value.
	InvalidManifestConfigError struct {
		MaxFileSize int64
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Solution is the default solution file (*.sln or *.slnf).
		Solution string `json:"solution" mapstructure:"solution"`
		// Filter is the default solution filter (*.slnf).
		Filter string `json:"filter" mapstructure:"filter"`
		// PathCase selects how manifest paths are compared.
		PathCase types.PathCase `json:"path_case" mapstructure:"path_case"`
		// PaneDirPath overrides where output panes are stored.
		PaneDirPath string `json:"pane_dir" mapstructure:"pane_dir"`
		// Manifest configures manifest parsing
		Manifest ManifestConfig `json:"manifest" mapstructure:"manifest"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// ManifestConfig configures manifest parsing.
	ManifestConfig struct {
		// MaxFileSize is the largest manifest, in bytes, that will be parsed.
		MaxFileSize int64 `json:"max_file_size" mapstructure:"max_file_size"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// Validate returns an error describing every invalid field.
func (c Config) Validate() error {
	var errs []error
	if err := c.PathCase.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Manifest.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns the sentinel and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate returns an error if MaxFileSize is outside (0, MaxManifestFileSize].
// Zero selects the built-in default and is valid.
func (c ManifestConfig) Validate() error {
	if c.MaxFileSize < 0 || c.MaxFileSize > MaxManifestFileSize {
		return &InvalidManifestConfigError{MaxFileSize: c.MaxFileSize}
	}
	return nil
}

// Error implements the error interface for InvalidManifestConfigError.
func (e *InvalidManifestConfigError) Error() string {
	return fmt.Sprintf("invalid manifest.max_file_size %d (valid: 1 to %d bytes)", e.MaxFileSize, MaxManifestFileSize)
}

// Unwrap returns ErrInvalidManifestConfig for errors.Is() compatibility.
func (e *InvalidManifestConfigError) Unwrap() error { return ErrInvalidManifestConfig }

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// Validate returns an error if the ColorScheme is not one of the defined schemes.
func (cs ColorScheme) Validate() error {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: cs}
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		PathCase: types.PathCaseAuto,
		Manifest: ManifestConfig{
			MaxFileSize: 8 << 20,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
