package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/foldwatch/foldwatch/internal/monitor"
	"github.com/foldwatch/foldwatch/internal/session"
)

// statusCmd prepopulates a throwaway session rooted at path and prints
// its Stats. foldwatch keeps no persisted state, so this is
// necessarily a point-in-time snapshot of whatever a fresh prepopulate
// walk observes, not a query against some other running watch — for a
// live view across a session's lifetime, use `watch`.
var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Prepopulate a directory and report a change-log snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return err
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return fmt.Errorf("%s is not a directory", abs)
		}

		registry := session.NewRegistry(nil)
		sess, err := registry.Create(session.CreateOpts{Root: abs, Config: GetConfig()})
		if err != nil {
			return err
		}
		defer sess.Destroy(nil)

		ready := make(chan struct{})
		if _, err := sess.Start(session.StartOpts{
			Prepopulate: true,
			OnReady:     func(monitor.ReadyStats) { close(ready) },
		}); err != nil {
			return err
		}
		<-ready

		stats := sess.GetStats()
		cmd.Printf("Root:          %s\n", abs)
		cmd.Printf("Active watch:  %v\n", stats.ActiveWatch)
		cmd.Printf("Errors:        %d\n", stats.Errors)
		cmd.Printf("Tools seen:    %v\n", stats.ToolNames)
		for kind, count := range stats.CountByKind {
			cmd.Printf("  %-10s %d\n", kind, count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
