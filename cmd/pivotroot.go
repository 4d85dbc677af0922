package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nsctl/facade"
)

var pivotRootCmd = &cobra.Command{
	Use:   "pivot-root <new-root> <put-old>",
	Short: "Swap the root filesystem of the calling mount namespace",
	Args:  cobra.ExactArgs(2),
	RunE:  runPivotRoot,
}

func init() {
	rootCmd.AddCommand(pivotRootCmd)
}

func runPivotRoot(cmd *cobra.Command, args []string) error {
	if err := facade.Default().PivotRoot(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}
