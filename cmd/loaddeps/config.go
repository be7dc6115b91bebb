// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loaddeps/loaddeps/internal/config"
)

// newConfigCommand creates the `loaddeps config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage loaddeps configuration",
		Long: `Manage loaddeps configuration.

Configuration is read from config.cue in:
  - Linux: ~/.config/loaddeps/config.cue
  - macOS: ~/Library/Application Support/loaddeps/config.cue
  - Windows: %APPDATA%\loaddeps\config.cue
falling back to config.cue in the working directory.

Every key can be overridden with a LOADDEPS_* environment variable,
for example LOADDEPS_PATH_CASE=insensitive or LOADDEPS_UI_VERBOSE=true.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig("")
			if err != nil {
				return app.fail(err)
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(app.stdout, config.GenerateCUE(app.settings()))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(app *App) error {
	cfg := app.settings()
	w := app.stdout

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	unset := SubtitleStyle.Render("(not set)")
	value := func(v string) string {
		if v == "" {
			return unset
		}
		return valueStyle.Render(v)
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if app.cfgSource != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), app.cfgSource)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("solution"), value(cfg.Solution))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("filter"), value(cfg.Filter))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("path_case"), value(string(cfg.PathCase)))
	paneDir, err := cfg.PaneDir()
	if err != nil {
		paneDir = ""
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("pane_dir"), value(paneDir))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("manifest"))
	fmt.Fprintf(w, "  max_file_size: %s\n", valueStyle.Render(fmt.Sprintf("%d", cfg.Manifest.MaxFileSize)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

func showConfigPath(app *App) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return app.fail(err)
	}

	fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(app.stdout, "Config file: %s\n", filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
	if paneDir, err := app.settings().PaneDir(); err == nil {
		fmt.Fprintf(app.stdout, "Pane directory: %s\n", paneDir)
	}
	return nil
}
