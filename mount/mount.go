// Package mount is the Mount Helper: it wraps mount(2)/umount(2)/umount2(2)
// behind the small vocabulary of propagation presets nsctl's callers
// actually need, encoding each preset into the kernel's MS_* flag bits.
package mount

import (
	"os"

	"golang.org/x/sys/unix"

	nserrors "nsctl/errors"
	"nsctl/nsyscall"
)

// Preset names a mount propagation/behaviour preset.
type Preset string

// The propagation presets nsctl understands.
const (
	Private   Preset = "private"
	Slave     Preset = "slave"
	Shared    Preset = "shared"
	Bind      Preset = "bind"
	MountProc Preset = "mount_proc"
	Unchanged Preset = "unchanged"
)

// Kernel mount flag bits, named as in spec.md §4.3.
const (
	flagNosuid  = unix.MS_NOSUID
	flagNodev   = unix.MS_NODEV
	flagNoexec  = unix.MS_NOEXEC
	flagBind    = unix.MS_BIND
	flagRec     = unix.MS_REC
	flagPrivate = unix.MS_PRIVATE
	flagSlave   = unix.MS_SLAVE
	flagShared  = unix.MS_SHARED
)

var presetFlags = map[Preset]uintptr{
	Private:   flagRec | flagPrivate,
	Slave:     flagRec | flagSlave,
	Shared:    flagRec | flagShared,
	Bind:      flagBind,
	MountProc: flagNosuid | flagNodev | flagNoexec,
	Unchanged: 0,
}

// FlagsFor returns the OR of the kernel flag bits for preset. An unknown
// preset resolves to 0, matching "unchanged".
func FlagsFor(preset Preset) uintptr {
	return presetFlags[preset]
}

// Behavior names an umount2 behaviour flag.
type Behavior string

// The umount2 behaviours nsctl understands.
const (
	Force    Behavior = "force"
	Detach   Behavior = "detach"
	Expire   Behavior = "expire"
	NoFollow Behavior = "nofollow"
)

var behaviorFlags = map[Behavior]int{
	Force:    unix.MNT_FORCE,
	Detach:   unix.MNT_DETACH,
	Expire:   unix.MNT_EXPIRE,
	NoFollow: unix.UMOUNT_NOFOLLOW,
}

// Mount performs a mount(2) call, resolving preset to flag bits.
// If source, target, fstype, and preset are all unset, Mount is a no-op
// (matching the source toolkit's "nothing to do" shortcut). An unset
// source is treated as the literal string "none".
func Mount(source, target string, preset Preset, fstype, data string) error {
	if source == "" && target == "" && fstype == "" && preset == "" {
		return nil
	}
	if source == "" {
		source = "none"
	}
	flags := FlagsFor(preset)
	return nsyscall.Mount(source, target, fstype, flags, data)
}

// Umount validates path and performs umount(2).
func Umount(path string) error {
	if path == "" {
		return nserrors.Argument("umount: path must not be empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nserrors.WrapWithDetail(err, nserrors.ErrArgument, "umount", "path does not exist")
	}
	return nsyscall.Umount(path)
}

// Umount2 validates path and performs umount2(2) with the given behaviour.
func Umount2(path string, behavior Behavior) error {
	if path == "" {
		return nserrors.Argument("umount2: path must not be empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nserrors.WrapWithDetail(err, nserrors.ErrArgument, "umount2", "path does not exist")
	}
	flag, ok := behaviorFlags[behavior]
	if !ok {
		return nserrors.Argument("umount2: unknown behavior " + string(behavior))
	}
	return nsyscall.Umount2(path, flag)
}

// SetPropagation applies preset to "/" inside the calling mount namespace.
// Unchanged is a no-op.
func SetPropagation(preset Preset) error {
	if preset == Unchanged || preset == "" {
		return nil
	}
	return Mount("none", "/", preset, "", "")
}

// MountProc mounts a fresh procfs at mp, after first making mp's existing
// mount point private so the new proc mount does not propagate outward.
func MountProc(mp string) error {
	if mp == "" {
		mp = "/proc"
	}
	if err := os.MkdirAll(mp, 0755); err != nil {
		return nserrors.WrapWithDetail(err, nserrors.ErrNamespaceSetting, "mount_proc", "create mountpoint")
	}
	if err := Mount("", mp, Private, "", ""); err != nil {
		return err
	}
	return Mount("proc", mp, MountProc, "proc", "")
}
