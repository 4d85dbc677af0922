package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nsctl/facade"
)

var funcsCmd = &cobra.Command{
	Use:   "funcs",
	Short: "Show how each syscall-surface operation was resolved",
	Args:  cobra.NoArgs,
	RunE:  runFuncs,
}

func init() {
	rootCmd.AddCommand(funcsCmd)
}

func runFuncs(cmd *cobra.Command, args []string) error {
	resolutions := facade.Default().ShowAvailableCFunctions()
	out := cmd.OutOrStdout()

	if term.IsTerminal(int(os.Stdout.Fd())) {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "OPERATION\tBINDING")
		for _, r := range resolutions {
			fmt.Fprintf(w, "%s\t%s\n", r.Name, r.Binding)
		}
		return w.Flush()
	}

	for _, r := range resolutions {
		fmt.Fprintf(out, "%s=%s\n", r.Name, r.Binding)
	}
	return nil
}
