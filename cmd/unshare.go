package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nsctl/catalog"
	"nsctl/facade"
)

var unshareNamespaces []string

var unshareCmd = &cobra.Command{
	Use:   "unshare",
	Short: "Detach the calling process from one or more namespaces",
	RunE:  runUnshare,
}

func init() {
	rootCmd.AddCommand(unshareCmd)
	unshareCmd.Flags().StringSliceVar(&unshareNamespaces, "namespace", nil, "namespace kind(s) to unshare (repeatable, or comma-separated)")
	unshareCmd.MarkFlagRequired("namespace")
}

func runUnshare(cmd *cobra.Command, args []string) error {
	names := make([]catalog.Name, 0, len(unshareNamespaces))
	for _, n := range unshareNamespaces {
		names = append(names, catalog.Name(n))
	}
	if err := facade.Default().Unshare(names); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}
