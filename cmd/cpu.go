package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nsctl/facade"
)

var cpuCmd = &cobra.Command{
	Use:   "cpu",
	Short: "Report the CPU the calling thread last ran on",
	Args:  cobra.NoArgs,
	RunE:  runCpu,
}

func init() {
	rootCmd.AddCommand(cpuCmd)
}

func runCpu(cmd *cobra.Command, args []string) error {
	n, err := facade.Default().SchedGetcpu()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), n)
	return nil
}
