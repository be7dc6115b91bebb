// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/loaddeps/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/loaddeps/config.cue on macOS, %APPDATA%\loaddeps\config.cue
// on Windows), or from config.cue in the working directory. Every key can be overridden
// with a LOADDEPS_ environment variable (e.g. LOADDEPS_PATH_CASE, LOADDEPS_UI_VERBOSE).
//
// Configuration is validated against a CUE schema (config_schema.cue) before it is merged
// into Viper, so type errors are reported with the CUE path of the offending field.
package config
