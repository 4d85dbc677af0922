package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nsctl/facade"
)

var statusCheck bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the availability of each namespace kind",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusCheck, "check", false, "run the capability detector before reporting (otherwise reports the catalog default)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	f := facade.Default()

	snapshot := f.ShowNamespacesStatus()
	if statusCheck {
		checked, err := f.CheckNamespacesAvailableStatus()
		if err != nil {
			return err
		}
		snapshot = checked
	}

	out := cmd.OutOrStdout()
	if term.IsTerminal(int(os.Stdout.Fd())) {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAMESPACE\tAVAILABLE")
		for _, s := range snapshot {
			fmt.Fprintf(w, "%s\t%t\n", s.Name, s.Available)
		}
		return w.Flush()
	}

	for _, s := range snapshot {
		fmt.Fprintf(out, "%s=%t\n", s.Name, s.Available)
	}
	return nil
}
