package cmd

import (
	"github.com/spf13/cobra"

	"nsctl/detect"
	"nsctl/spawn"
)

// These four subcommands are never listed in --help: they are the re-exec
// entry points the spawn coordinator and capability detector use in
// place of raw fork(), which the Go runtime cannot safely call outside of
// os/exec's own internal fork+exec. Each is invoked only by nsctl
// re-exec'ing itself with cmd.ExtraFiles carrying its synchronisation
// pipe ends.

var spawnIntermediateCmd = &cobra.Command{
	Use:    spawn.IntermediateSubcommand + " <encoded-request>",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return spawn.RunIntermediate(selfPath(), args[0])
	},
}

var spawnGrandchildCmd = &cobra.Command{
	Use:    spawn.GrandchildSubcommand + " <encoded-request>",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return spawn.RunGrandchild(args[0])
	},
}

var probeIntermediateCmd = &cobra.Command{
	Use:    detect.IntermediateSubcommand,
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return detect.RunIntermediate(selfPath())
	},
}

var probeGrandchildCmd = &cobra.Command{
	Use:    detect.GrandchildSubcommand,
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return detect.RunGrandchild()
	},
}

func init() {
	rootCmd.AddCommand(spawnIntermediateCmd, spawnGrandchildCmd, probeIntermediateCmd, probeGrandchildCmd)
}
