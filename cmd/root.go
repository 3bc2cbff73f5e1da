package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/foldwatch/foldwatch/internal/config"
	"github.com/foldwatch/foldwatch/internal/monitor"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg monitor.Config

var rootCmd = &cobra.Command{
	Use:   "foldwatch",
	Short: "Observe a directory for agent-driven file changes and revert them on demand",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" {
			return nil
		}

		// First-run: no global config yet → offer the setup wizard, but
		// only when stdin is an interactive terminal. Non-interactive
		// invocations (tests, CI, pipes) fall straight through to
		// DefaultConfig().
		if globalPath, perr := config.GlobalConfigPath(); perr == nil {
			if _, err := os.Stat(globalPath); os.IsNotExist(err) && term.IsTerminal(os.Stdin.Fd()) {
				runFirstTimeSetup()
			}
		}

		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		project, err := config.LoadProject(cwd)
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)

		level := slog.LevelWarn
		if cfg.Debug {
			level = slog.LevelDebug
		}
		handlerOpts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler
		if cfg.DebugFile != "" {
			f, err := os.OpenFile(cfg.DebugFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("opening debug file: %w", err)
			}
			handler = slog.NewJSONHandler(f, handlerOpts)
		} else {
			handler = slog.NewTextHandler(os.Stderr, handlerOpts)
		}
		slog.SetDefault(slog.New(handler))

		return nil
	},
}

// runFirstTimeSetup greets the operator once, runs the wizard, and
// saves its output, swallowing failures rather than blocking ordinary
// command execution on them.
func runFirstTimeSetup() {
	fmt.Println()
	fmt.Println("  Welcome to foldwatch! Looks like this is your first time.")
	existing, _ := config.LoadGlobal()
	f, err := config.RunSetup(existing)
	if err != nil {
		return
	}
	if path, err := config.SaveGlobal(f); err == nil {
		fmt.Printf("  Saved to %s\n\n", path)
	}
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() monitor.Config {
	return cfg
}
