package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nsctl/facade"
)

var hostnameCmd = &cobra.Command{
	Use:   "hostname [new-name]",
	Short: "Get or set the UTS hostname",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHostname,
}

func init() {
	rootCmd.AddCommand(hostnameCmd)
}

func runHostname(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return facade.Default().SetHostname(args[0])
	}
	name, err := facade.Default().GetHostname()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), name)
	return nil
}
