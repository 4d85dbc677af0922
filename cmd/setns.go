package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nsctl/catalog"
	"nsctl/facade"
)

var (
	setnsFd        int
	setnsPath      string
	setnsPid       int
	setnsNamespace string
)

var setnsCmd = &cobra.Command{
	Use:   "setns",
	Short: "Join an existing namespace",
	Long:  `Join a namespace identified by exactly one of --fd, --path, --pid.`,
	RunE:  runSetns,
}

func init() {
	rootCmd.AddCommand(setnsCmd)
	setnsCmd.Flags().IntVar(&setnsFd, "fd", -1, "file descriptor of the namespace file")
	setnsCmd.Flags().StringVar(&setnsPath, "path", "", "path to a namespace file (e.g. /proc/<pid>/ns/net)")
	setnsCmd.Flags().IntVar(&setnsPid, "pid", 0, "pid whose namespace to join (requires --namespace)")
	setnsCmd.Flags().StringVar(&setnsNamespace, "namespace", "", "namespace kind, to disambiguate or verify")
}

func runSetns(cmd *cobra.Command, args []string) error {
	// Every flag the caller explicitly set is passed through to
	// facade.Setns unconditionally, so its own Selector.chosen()
	// validation (not this command) is what rejects conflicting
	// selectors with ErrMultipleSelectors.
	var selector facade.Selector
	if cmd.Flags().Changed("fd") {
		selector.Fd = &setnsFd
	}
	if cmd.Flags().Changed("path") {
		selector.Path = &setnsPath
	}
	if cmd.Flags().Changed("pid") {
		selector.Pid = &setnsPid
	}

	name := catalog.Name(setnsNamespace)
	if err := facade.Default().Setns(selector, name); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}
