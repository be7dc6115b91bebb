// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
	formatTOML outputFormat = "toml"
)

// ErrInvalidFormat is the sentinel error wrapped by InvalidFormatError.
var ErrInvalidFormat = errors.New("invalid output format")

type (
	// outputFormat selects how structured command output is written.
	outputFormat string

	// InvalidFormatError is returned when --format names an unknown format.
	InvalidFormatError struct {
		Value string
	}

	// formatFlag implements pflag.Value so cobra rejects unknown formats
	// while parsing flags.
	formatFlag struct {
		value outputFormat
	}
)

// Error implements the error interface.
func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: text, json, yaml, toml)", e.Value)
}

// Unwrap returns ErrInvalidFormat for errors.Is() compatibility.
func (e *InvalidFormatError) Unwrap() error { return ErrInvalidFormat }

// Validate returns an error if the format is not one of the defined formats.
func (f outputFormat) Validate() error {
	switch f {
	case formatText, formatJSON, formatYAML, formatTOML:
		return nil
	default:
		return &InvalidFormatError{Value: string(f)}
	}
}

func newFormatFlag() *formatFlag { return &formatFlag{value: formatText} }

func (f *formatFlag) String() string { return string(f.value) }

func (f *formatFlag) Set(s string) error {
	v := outputFormat(s)
	if err := v.Validate(); err != nil {
		return err
	}
	f.value = v
	return nil
}

func (f *formatFlag) Type() string { return "format" }

// encode writes v to w in a structured format. formatText is handled by the
// caller.
func encode(w io.Writer, format outputFormat, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatTOML:
		return toml.NewEncoder(w).Encode(v)
	default:
		return &InvalidFormatError{Value: string(format)}
	}
}
