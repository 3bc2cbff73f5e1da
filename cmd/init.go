package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foldwatch/foldwatch/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively configure foldwatch's global defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		existing, err := config.LoadGlobal()
		if err != nil {
			return err
		}
		f, err := config.RunSetup(existing)
		if err != nil {
			return err
		}
		path, err := config.SaveGlobal(f)
		if err != nil {
			return err
		}
		fmt.Printf("  Saved to %s\n\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
