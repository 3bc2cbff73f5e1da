package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/foldwatch/foldwatch/internal/monitor"
	"github.com/foldwatch/foldwatch/internal/session"
)

var (
	tagStartNS  int64
	tagEndNS    int64
	tagTool     string
	tagFilepath string
)

// tagCmd is a thin CLI binding of the session API's range tagging.
// Because foldwatch keeps no persisted state across process
// invocations, it only sees changes the monitor records between this
// command's own Start and its TagChanges call (it does not flush
// pending events first) — a host embedding the session API directly,
// across a single process's lifetime, is how tagging is meant to be
// used in practice.
var tagCmd = &cobra.Command{
	Use:   "tag [path]",
	Short: "Attribute a time range of a fresh session's changes to a named tool",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if tagTool == "" {
			return fmt.Errorf("--tool is required")
		}
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

		endNS := tagEndNS
		if endNS == 0 {
			endNS = 1<<63 - 1
		}
		sess.TagChanges(tagStartNS, endNS, tagTool, monitor.TagArgs{Filepath: tagFilepath})

		for _, c := range sess.GetChanges() {
			if c.Timestamp >= tagStartNS && c.Timestamp <= endNS {
				cmd.Printf("  %s  %s  tools=%v  attribution=%s\n", c.Kind, c.Path, c.Tools, c.Metadata.Attribution)
			}
		}
		return nil
	},
}

func init() {
	tagCmd.Flags().Int64Var(&tagStartNS, "start-ns", 0, "range start, monotonic nanoseconds")
	tagCmd.Flags().Int64Var(&tagEndNS, "end-ns", 0, "range end, monotonic nanoseconds (0 = unbounded)")
	tagCmd.Flags().StringVar(&tagTool, "tool", "", "tool name to attribute")
	tagCmd.Flags().StringVar(&tagFilepath, "path", "", "path the tool claimed to have touched; others in range become ambiguous")
	rootCmd.AddCommand(tagCmd)
}
