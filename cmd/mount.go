package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nsctl/facade"
	"nsctl/mount"
)

var (
	mountPreset string
	mountFstype string
	mountData   string
)

var mountCmd = &cobra.Command{
	Use:   "mount [source] [target]",
	Short: "Mount source onto target with a propagation preset",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runMount,
}

func init() {
	rootCmd.AddCommand(mountCmd)
	mountCmd.Flags().StringVar(&mountPreset, "preset", "", "propagation preset: private, slave, shared, bind, mount_proc, unchanged")
	mountCmd.Flags().StringVar(&mountFstype, "type", "", "filesystem type")
	mountCmd.Flags().StringVar(&mountData, "data", "", "mount(2) data argument")
}

func runMount(cmd *cobra.Command, args []string) error {
	var source, target string
	if len(args) > 0 {
		source = args[0]
	}
	if len(args) > 1 {
		target = args[1]
	}
	if err := facade.Default().Mount(source, target, mount.Preset(mountPreset), mountFstype, mountData); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}
