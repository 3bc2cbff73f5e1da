package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/foldwatch/foldwatch/internal/session"
	"github.com/foldwatch/foldwatch/internal/tui"
)

var watchLabel string

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch a directory live: checkpoint, pause/resume, undo, and stop from the keyboard",
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
		sess, err := registry.Create(session.CreateOpts{
			Root:   abs,
			Label:  watchLabel,
			Config: GetConfig(),
		})
		if err != nil {
			return err
		}

		if _, err := sess.Start(session.StartOpts{Prepopulate: true}); err != nil {
			return err
		}

		return tui.Run(sess)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchLabel, "tool", "", "logical tool name attributed to changes observed during this watch")
	rootCmd.AddCommand(watchCmd)
}
