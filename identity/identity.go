// Package identity is the Identity Mapper: it writes the uid_map, gid_map,
// and setgroups files that establish a user namespace's ID translation,
// following the kernel's write-once, five-line-max, setgroups-before-gid_map
// ordering rules.
package identity

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	nserrors "nsctl/errors"
	"nsctl/logging"
)

// IDMapEntry is one line of a uid_map or gid_map file: count consecutive
// IDs starting at hostID are mapped to IDs starting at nsID inside the
// namespace.
type IDMapEntry struct {
	NsID   uint32
	HostID uint32
	Count  uint32
}

// maxMapEntries is the kernel's hard limit on lines in uid_map/gid_map.
const maxMapEntries = 5

// SetgroupsMode is the value written to /proc/<pid>/setgroups.
type SetgroupsMode string

// The two legal setgroups values.
const (
	SetgroupsAllow SetgroupsMode = "allow"
	SetgroupsDeny  SetgroupsMode = "deny"
)

// formatIDMap renders entries as the kernel expects: one "nsID hostID
// count" line per entry.
func formatIDMap(entries []IDMapEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%d %d %d\n", e.NsID, e.HostID, e.Count)
	}
	return b.String()
}

// writeMapFile opens the target /proc file and writes it in a single
// write(2), as the kernel requires.
func writeMapFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nserrors.WrapWithDetail(err, nserrors.ErrNamespaceSetting, "identity", "open "+path)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return nserrors.WrapWithDetail(err, nserrors.ErrNamespaceSetting, "identity", "write "+path)
	}
	return nil
}

// SetgroupsControl sets /proc/<pid>/setgroups to mode. Kernels without a
// setgroups control file (pre-3.19) report ErrSetgroupsMissing for "deny"
// and are left alone for "allow" (there's nothing to restrict). If the
// file already holds mode, it is left untouched rather than rewritten,
// since the kernel refuses a second write regardless of content.
func SetgroupsControl(pid int, mode SetgroupsMode) error {
	if mode != SetgroupsAllow && mode != SetgroupsDeny {
		return nserrors.Argument("setgroups: mode must be \"allow\" or \"deny\"")
	}
	path := fmt.Sprintf("/proc/%d/setgroups", pid)

	current, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if mode == SetgroupsDeny {
				return nserrors.ErrSetgroupsMissing
			}
			return nil
		}
		return nserrors.WrapWithDetail(err, nserrors.ErrNamespaceSetting, "identity", "read "+path)
	}
	if strings.TrimSpace(string(current)) == string(mode) {
		return nil
	}
	return writeMapFile(path, string(mode)+"\n")
}

// WriteUidMap writes /proc/<pid>/uid_map.
func WriteUidMap(pid int, entries []IDMapEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if len(entries) > maxMapEntries {
		return nserrors.ErrTooManyIDMapEntries
	}
	path := fmt.Sprintf("/proc/%d/uid_map", pid)
	return writeMapFile(path, formatIDMap(entries))
}

// WriteGidMap writes /proc/<pid>/gid_map. Per the kernel, mapping more
// than the process's own group without setgroups having first been set to
// "deny" (when the caller isn't privileged) is rejected by the kernel
// itself; WriteGidMap does not second-guess that, it only enforces the
// entry-count ceiling.
func WriteGidMap(pid int, entries []IDMapEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if len(entries) > maxMapEntries {
		return nserrors.ErrTooManyIDMapEntries
	}
	path := fmt.Sprintf("/proc/%d/gid_map", pid)
	return writeMapFile(path, formatIDMap(entries))
}

// ParseIDMapSpec parses a "nsID:hostID:count" spec as accepted by nsctl's
// CLI flags for --map-users/--map-groups.
func ParseIDMapSpec(spec string) (IDMapEntry, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return IDMapEntry{}, nserrors.Argument("id map entry must be \"nsID:hostID:count\", got " + spec)
	}
	ns, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return IDMapEntry{}, nserrors.Argument("id map entry: invalid nsID in " + spec)
	}
	host, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return IDMapEntry{}, nserrors.Argument("id map entry: invalid hostID in " + spec)
	}
	count, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return IDMapEntry{}, nserrors.Argument("id map entry: invalid count in " + spec)
	}
	return IDMapEntry{NsID: uint32(ns), HostID: uint32(host), Count: uint32(count)}, nil
}

// withMaprootEntries prepends the uid/gid 0 → caller's euid/egid entry
// ahead of any caller-supplied entries when maproot is true. It always
// prepends, regardless of whether users/groups are already non-empty,
// matching procszoo's own _write_to_uid_and_gid_map: the root entry and
// the caller's entries are never mutually exclusive.
func withMaprootEntries(maproot bool, euid, egid uint32, users, groups []IDMapEntry) ([]IDMapEntry, []IDMapEntry) {
	if !maproot {
		return users, groups
	}
	users = append([]IDMapEntry{{NsID: 0, HostID: euid, Count: 1}}, users...)
	groups = append([]IDMapEntry{{NsID: 0, HostID: egid, Count: 1}}, groups...)
	return users, groups
}

// WriteIdentity is the coordinating entry point the spawn coordinator
// calls once the child (or grandchild) pid is known: it applies setgroups
// first, then gid_map, then uid_map, matching the kernel's required
// ordering. When maproot is true, the uid/gid 0 entry mapping to the
// caller's effective uid/gid on the host is always prepended ahead of any
// caller-supplied entries, never gated on whether the caller passed any.
func WriteIdentity(pid int, maproot bool, setgroups SetgroupsMode, users, groups []IDMapEntry) error {
	log := logging.WithPID(logging.Default(), pid)

	users, groups = withMaprootEntries(maproot, uint32(os.Geteuid()), uint32(os.Getegid()), users, groups)
	if setgroups == "" {
		setgroups = SetgroupsDeny
	}
	if maproot && setgroups == SetgroupsAllow {
		return nserrors.ErrMaprootWithAllowedSetgroups
	}
	if err := SetgroupsControl(pid, setgroups); err != nil {
		log.Warn("setgroups control failed", "mode", setgroups, "error", err)
		return err
	}
	if err := WriteGidMap(pid, groups); err != nil {
		log.Warn("gid_map write failed", "error", err)
		return err
	}
	if err := WriteUidMap(pid, users); err != nil {
		log.Warn("uid_map write failed", "error", err)
		return err
	}
	log.Debug("identity mapping applied", "maproot", maproot, "setgroups", setgroups, "users", len(users), "groups", len(groups))
	return nil
}
