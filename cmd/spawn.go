package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nsctl/catalog"
	"nsctl/facade"
	"nsctl/identity"
	"nsctl/mount"
	"nsctl/spawn"
)

var (
	spawnNamespaces  []string
	spawnExclude     []string
	spawnMaproot     bool
	spawnUsersMap    []string
	spawnGroupsMap   []string
	spawnSetgroups   string
	spawnMountproc   bool
	spawnMountpoint  string
	spawnNsBindDir   string
	spawnPropagation string
)

var spawnCmd = &cobra.Command{
	Use:   "spawn [-- command [args...]]",
	Short: "Spawn a process inside a new set of namespaces",
	RunE:  runSpawn,
}

func init() {
	rootCmd.AddCommand(spawnCmd)

	spawnCmd.Flags().StringSliceVar(&spawnNamespaces, "namespace", nil, "namespace kinds to create (default: all available)")
	spawnCmd.Flags().StringSliceVar(&spawnExclude, "exclude", nil, "namespace kinds to subtract")
	spawnCmd.Flags().BoolVar(&spawnMaproot, "maproot", false, "map uid/gid 0 inside the user namespace to the caller's euid/egid")
	spawnCmd.Flags().StringArrayVar(&spawnUsersMap, "map-users", nil, "extra uid_map entries, as nsID:hostID:count (repeatable, max 5)")
	spawnCmd.Flags().StringArrayVar(&spawnGroupsMap, "map-groups", nil, "extra gid_map entries, as nsID:hostID:count (repeatable, max 5)")
	spawnCmd.Flags().StringVar(&spawnSetgroups, "setgroups", "", "\"allow\" or \"deny\"")
	spawnCmd.Flags().BoolVar(&spawnMountproc, "mountproc", false, "mount a fresh proc at --mountpoint")
	spawnCmd.Flags().StringVar(&spawnMountpoint, "mountpoint", "/proc", "mountpoint for --mountproc")
	spawnCmd.Flags().StringVar(&spawnNsBindDir, "ns-bind-dir", "", "directory to pin the child's namespace files")
	spawnCmd.Flags().StringVar(&spawnPropagation, "propagation", "", "mount propagation preset for / (default: private when a mount namespace is created)")
}

func runSpawn(cmd *cobra.Command, args []string) error {
	req := spawn.Request{
		Maproot:     spawnMaproot,
		Mountproc:   spawnMountproc,
		Mountpoint:  spawnMountpoint,
		NsBindDir:   spawnNsBindDir,
		Propagation: mount.Preset(spawnPropagation),
		Nscmd:       args,
	}

	for _, n := range spawnNamespaces {
		req.Namespaces = append(req.Namespaces, catalog.Name(n))
	}
	for _, n := range spawnExclude {
		req.NegativeNamespaces = append(req.NegativeNamespaces, catalog.Name(n))
	}
	if spawnSetgroups != "" {
		req.Setgroups = identity.SetgroupsMode(spawnSetgroups)
	}
	for _, s := range spawnUsersMap {
		entry, err := identity.ParseIDMapSpec(s)
		if err != nil {
			return err
		}
		req.UsersMap = append(req.UsersMap, entry)
	}
	for _, s := range spawnGroupsMap {
		entry, err := identity.ParseIDMapSpec(s)
		if err != nil {
			return err
		}
		req.GroupsMap = append(req.GroupsMap, entry)
	}

	result, err := facade.Default().SpawnNamespaces(req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pid=%d exit=%d\n", result.Pid, result.ExitCode)
	return nil
}
