package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nsctl/facade"
)

var domainnameCmd = &cobra.Command{
	Use:   "domainname [new-name]",
	Short: "Get or set the UTS NIS domain name",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDomainname,
}

func init() {
	rootCmd.AddCommand(domainnameCmd)
}

func runDomainname(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return facade.Default().SetDomainname(args[0])
	}
	name, err := facade.Default().GetDomainname()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), name)
	return nil
}
