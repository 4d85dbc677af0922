package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nsctl/facade"
	"nsctl/mount"
)

var umountBehavior string

var umountCmd = &cobra.Command{
	Use:   "umount <path>",
	Short: "Unmount a filesystem, optionally with umount2(2) behaviour flags",
	Args:  cobra.ExactArgs(1),
	RunE:  runUmount,
}

func init() {
	rootCmd.AddCommand(umountCmd)
	umountCmd.Flags().StringVar(&umountBehavior, "behavior", "", "force, detach, expire, or nofollow (uses umount2 instead of umount)")
}

func runUmount(cmd *cobra.Command, args []string) error {
	path := args[0]
	var err error
	if umountBehavior != "" {
		err = facade.Default().Umount2(path, mount.Behavior(umountBehavior))
	} else {
		err = facade.Default().Umount(path)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}
