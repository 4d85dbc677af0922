package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nsctl/facade"
	"nsctl/mount"
)

var propagationCmd = &cobra.Command{
	Use:   "propagation <preset>",
	Short: "Set the mount propagation of / inside the calling mount namespace",
	Args:  cobra.ExactArgs(1),
	RunE:  runPropagation,
}

func init() {
	rootCmd.AddCommand(propagationCmd)
}

func runPropagation(cmd *cobra.Command, args []string) error {
	if err := facade.Default().SetPropagation(mount.Preset(args[0])); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}
