// Package catalog holds the static metadata for the seven Linux namespace
// kinds nsctl knows how to create or join, plus the one mutable bit each
// carries: whether the running kernel actually supports it.
package catalog

import (
	"sync/atomic"

	"golang.org/x/sys/unix"

	nserrors "nsctl/errors"
)

// Name identifies a namespace kind by its logical, user-facing name.
// It is used everywhere a namespace kind needs to be named: CLI flags,
// SpawnRequest fields, and setns's kind disambiguator.
type Name string

// The seven namespace kinds nsctl understands.
const (
	User   Name = "user"
	Mount  Name = "mount"
	PID    Name = "pid"
	Net    Name = "net"
	UTS    Name = "uts"
	IPC    Name = "ipc"
	Cgroup Name = "cgroup"
)

// CLONE_NEWCGROUP is not exposed by golang.org/x/sys/unix on every
// architecture; the numeric value is architecture-independent.
const cloneNewCgroup = 0x02000000

// Descriptor is the immutable-metadata-plus-one-mutable-bit record for a
// single namespace kind. Descriptors are process-global and created once
// at package init; only Available is ever mutated after that, and only by
// the capability detector.
type Descriptor struct {
	// Name is the logical name, e.g. "net".
	Name Name
	// CloneFlag is the kernel clone(2)/unshare(2) flag bit for this kind.
	CloneFlag uintptr
	// Entry is the file name under /proc/<pid>/ns/ for this kind.
	Entry string
	// SetgroupsValues is non-nil only for the user namespace descriptor;
	// it lists the legal values of /proc/<pid>/setgroups ("allow", "deny").
	SetgroupsValues []string

	available atomic.Bool
}

// Available reports whether the running kernel supports this namespace
// kind, as last determined by the capability detector. Defaults to true
// until narrowed.
func (d *Descriptor) Available() bool {
	return d.available.Load()
}

// SetAvailable is called by the capability detector to record a kernel
// probe result.
func (d *Descriptor) SetAvailable(v bool) {
	d.available.Store(v)
}

var all = []*Descriptor{
	{Name: User, CloneFlag: unix.CLONE_NEWUSER, Entry: "user", SetgroupsValues: []string{"allow", "deny"}},
	{Name: Mount, CloneFlag: unix.CLONE_NEWNS, Entry: "mnt"},
	{Name: PID, CloneFlag: unix.CLONE_NEWPID, Entry: "pid"},
	{Name: Net, CloneFlag: unix.CLONE_NEWNET, Entry: "net"},
	{Name: UTS, CloneFlag: unix.CLONE_NEWUTS, Entry: "uts"},
	{Name: IPC, CloneFlag: unix.CLONE_NEWIPC, Entry: "ipc"},
	{Name: Cgroup, CloneFlag: cloneNewCgroup, Entry: "cgroup"},
}

var byName = func() map[Name]*Descriptor {
	m := make(map[Name]*Descriptor, len(all))
	for _, d := range all {
		m[d.Name] = d
	}
	return m
}()

func init() {
	for _, d := range all {
		d.available.Store(true)
	}
}

// All returns the catalog in a fixed, stable order (the order above).
func All() []*Descriptor {
	out := make([]*Descriptor, len(all))
	copy(out, all)
	return out
}

// Lookup returns the descriptor for name, or an ErrUnknownNamespace error.
func Lookup(name Name) (*Descriptor, error) {
	d, ok := byName[name]
	if !ok {
		return nil, nserrors.UnknownNamespace(string(name))
	}
	return d, nil
}

// ByEntry finds the descriptor whose /proc/<pid>/ns/<entry> basename
// matches entry.
func ByEntry(entry string) (*Descriptor, bool) {
	for _, d := range all {
		if d.Entry == entry {
			return d, true
		}
	}
	return nil, false
}

// Available returns the subset of the catalog currently marked available,
// in catalog order.
func Available() []*Descriptor {
	var out []*Descriptor
	for _, d := range all {
		if d.Available() {
			out = append(out, d)
		}
	}
	return out
}

// AdjustNamespaces returns available \ exclude, in catalog order, when
// include is empty; otherwise it returns (include ∩ available) \ exclude,
// preserving catalog order. Unknown names in either list are ignored by
// design: callers that need strict validation should Lookup first.
func AdjustNamespaces(include, exclude []Name) []Name {
	excluded := make(map[Name]bool, len(exclude))
	for _, n := range exclude {
		excluded[n] = true
	}

	var base []*Descriptor
	if len(include) == 0 {
		base = Available()
	} else {
		wanted := make(map[Name]bool, len(include))
		for _, n := range include {
			wanted[n] = true
		}
		for _, d := range all {
			if wanted[d.Name] && d.Available() {
				base = append(base, d)
			}
		}
	}

	out := make([]Name, 0, len(base))
	for _, d := range base {
		if !excluded[d.Name] {
			out = append(out, d.Name)
		}
	}
	return out
}

// Status is a snapshot pairing a namespace name with its availability,
// as returned by show_namespaces_status.
type Status struct {
	Name      Name
	Available bool
}

// ShowStatus returns the availability of every catalog entry, in catalog
// order.
func ShowStatus() []Status {
	out := make([]Status, 0, len(all))
	for _, d := range all {
		out = append(out, Status{Name: d.Name, Available: d.Available()})
	}
	return out
}

// FlagsFor ORs together the clone flags for the given namespace names,
// skipping unknown names.
func FlagsFor(names []Name) uintptr {
	var flags uintptr
	for _, n := range names {
		if d, ok := byName[n]; ok {
			flags |= d.CloneFlag
		}
	}
	return flags
}
