// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/loaddeps/loaddeps/internal/issue"
	"github.com/loaddeps/loaddeps/pkg/cueutil"
	"github.com/loaddeps/loaddeps/pkg/platform"
)

const (
	// AppName is the application name.
	AppName = "loaddeps"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "LOADDEPS"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the loaddeps configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// StateDir returns the directory for persistent runtime state such as output
// panes: %LOCALAPPDATA% on Windows, ~/Library/Logs on macOS and
// $XDG_STATE_HOME (defaulting to ~/.local/state) elsewhere.
func StateDir() (string, error) {
	if stateDirOverride != "" {
		return stateDirOverride, nil
	}

	var stateDir string

	switch runtime.GOOS {
	case platform.Windows:
		stateDir = os.Getenv("LOCALAPPDATA")
		if stateDir == "" {
			stateDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		stateDir = filepath.Join(home, "Library", "Logs")
	default:
		stateDir = os.Getenv("XDG_STATE_HOME")
		if stateDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			stateDir = filepath.Join(home, ".local", "state")
		}
	}

	return filepath.Join(stateDir, AppName), nil
}

// PaneDir returns the configured pane directory, or <StateDir>/panes.
func (c *Config) PaneDir() (string, error) {
	if c.PaneDirPath != "" {
		return c.PaneDirPath, nil
	}
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "panes"), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()
	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		path := string(opts.ConfigFilePath)
		if !fileExists(path) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'loaddeps config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", path)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", cueLoadError(path, err)
		}
		resolvedPath = path
	} else {
		cfgDir := string(opts.ConfigDirPath)
		if cfgDir == "" {
			var err error
			if cfgDir, err = ConfigDir(); err != nil {
				return nil, "", err
			}
		}

		fileName := ConfigFileName + "." + ConfigFileExt
		candidates := []string{filepath.Join(cfgDir, fileName), filepath.Join(string(opts.BaseDir), fileName)}
		for _, path := range candidates {
			if !fileExists(path) {
				continue
			}
			if err := loadCUEIntoViper(v, path); err != nil {
				return nil, "", cueLoadError(path, err)
			}
			resolvedPath = path
			break
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides bypass the CUE schema.
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check LOADDEPS_* environment variables for typos").
			WithSuggestion("Run 'loaddeps config dump' to see the effective configuration").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("solution", defaults.Solution)
	v.SetDefault("filter", defaults.Filter)
	v.SetDefault("path_case", defaults.PathCase)
	v.SetDefault("pane_dir", defaults.PaneDirPath)
	v.SetDefault("manifest.max_file_size", defaults.Manifest.MaxFileSize)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func cueLoadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("See 'loaddeps config --help' for configuration options").
		Wrap(err).
		BuildError()
}

// loadCUEIntoViper validates a CUE file against the #Config schema and merges
// its contents into Viper. Fields are optional, so the file is decoded into a
// map without requiring concrete values.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	result, err := cueutil.ParseAndDecodeString[map[string]any](
		configSchema,
		data,
		"#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*result.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file into dir (ConfigDir when
// dir is empty) unless one exists. It returns the file path and whether it
// was created.
func CreateDefaultConfig(dir string) (string, bool, error) {
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", false, err
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(cfgPath) {
		return cfgPath, false, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, true, nil
}

// GenerateCUE renders cfg as a config.cue document. Empty optional strings
// are written as comments.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// loaddeps configuration file\n\n")

	optional := func(key, value string) {
		if value == "" {
			fmt.Fprintf(&sb, "// %s: \"\"\n", key)
			return
		}
		fmt.Fprintf(&sb, "%s: %q\n", key, value)
	}
	optional("solution", cfg.Solution)
	optional("filter", cfg.Filter)
	fmt.Fprintf(&sb, "path_case: %q\n", cfg.PathCase)
	optional("pane_dir", cfg.PaneDirPath)

	sb.WriteString("\nmanifest: {\n")
	fmt.Fprintf(&sb, "\tmax_file_size: %d\n", cfg.Manifest.MaxFileSize)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
