// Package facade is the Public Facade: a lazily initialised, process-wide
// singleton aggregating the namespace catalog, capability detector,
// mount helper, identity mapper, namespace binder, and spawn coordinator
// behind the small set of named operations callers actually need.
package facade

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"nsctl/catalog"
	"nsctl/detect"
	nserrors "nsctl/errors"
	"nsctl/identity"
	"nsctl/mount"
	"nsctl/nsbind"
	"nsctl/nsyscall"
	"nsctl/spawn"
)

// Facade is the singleton workbench. Construct one with New, or use
// Default, which returns a lazily constructed process-wide instance.
type Facade struct {
	self string
}

// New builds a Facade that re-execs selfPath (normally os.Args[0]
// resolved via os.Executable) for the spawn coordinator and capability
// detector's internal generations.
func New(selfPath string) *Facade {
	return &Facade{self: selfPath}
}

var (
	defaultOnce sync.Once
	defaultInst *Facade
)

// Default returns the process-wide default Facade, constructing it from
// os.Executable() on first use.
func Default() *Facade {
	defaultOnce.Do(func() {
		self, err := os.Executable()
		if err != nil {
			self = os.Args[0]
		}
		defaultInst = New(self)
	})
	return defaultInst
}

// Unshare detaches the calling process from the namespaces named.
func (f *Facade) Unshare(names []catalog.Name) error {
	var flags uintptr
	for _, n := range names {
		d, err := catalog.Lookup(n)
		if err != nil {
			return err
		}
		flags |= d.CloneFlag
	}
	return nsyscall.Unshare(flags)
}

// Selector picks exactly one way of identifying the namespace setns(2)
// should join, per spec.md §4.7.
type Selector struct {
	Fd   *int
	Path *string
	Pid  *int
	File *os.File
}

func (s Selector) chosen() int {
	n := 0
	if s.Fd != nil {
		n++
	}
	if s.Path != nil {
		n++
	}
	if s.Pid != nil {
		n++
	}
	if s.File != nil {
		n++
	}
	return n
}

// Setns attaches the calling process to the namespace identified by
// selector, optionally disambiguated/verified by name.
func (f *Facade) Setns(selector Selector, name catalog.Name) error {
	switch n := selector.chosen(); {
	case n == 0:
		return nserrors.ErrNoSelector
	case n > 1:
		return nserrors.ErrMultipleSelectors
	}

	var nstype uintptr
	if name != "" {
		d, err := catalog.Lookup(name)
		if err != nil {
			return err
		}
		nstype = d.CloneFlag
	}

	fd, cleanup, err := resolveSelectorFd(selector, name)
	if err != nil {
		return err
	}
	defer cleanup()

	return nsyscall.Setns(fd, nstype)
}

func resolveSelectorFd(selector Selector, name catalog.Name) (int, func(), error) {
	noop := func() {}

	switch {
	case selector.Fd != nil:
		return *selector.Fd, noop, nil
	case selector.File != nil:
		return int(selector.File.Fd()), noop, nil
	case selector.Path != nil:
		if name != "" {
			d, err := catalog.Lookup(name)
			if err != nil {
				return -1, noop, err
			}
			if filepath.Base(*selector.Path) != d.Entry {
				return -1, noop, nserrors.ErrPathNameMismatch
			}
		}
		f, err := os.Open(*selector.Path)
		if err != nil {
			return -1, noop, nserrors.WrapWithDetail(err, nserrors.ErrArgument, "setns", "open path")
		}
		return int(f.Fd()), func() { f.Close() }, nil
	case selector.Pid != nil:
		if name == "" {
			return -1, noop, nserrors.Argument("setns: pid selector requires a namespace name")
		}
		d, err := catalog.Lookup(name)
		if err != nil {
			return -1, noop, err
		}
		path := procNsPath(*selector.Pid, d.Entry)
		f, err := os.Open(path)
		if err != nil {
			return -1, noop, nserrors.WrapWithDetail(err, nserrors.ErrArgument, "setns", "open pid namespace file")
		}
		return int(f.Fd()), func() { f.Close() }, nil
	default:
		return -1, noop, nserrors.ErrNoSelector
	}
}

// SpawnNamespaces runs the spawn coordinator to completion.
func (f *Facade) SpawnNamespaces(req spawn.Request) (*spawn.Result, error) {
	return spawn.Run(f.self, req)
}

// Mount wraps the mount helper.
func (f *Facade) Mount(source, target string, preset mount.Preset, fstype, data string) error {
	return mount.Mount(source, target, preset, fstype, data)
}

// Umount wraps the mount helper.
func (f *Facade) Umount(path string) error { return mount.Umount(path) }

// Umount2 wraps the mount helper.
func (f *Facade) Umount2(path string, behavior mount.Behavior) error {
	return mount.Umount2(path, behavior)
}

// SetPropagation wraps the mount helper.
func (f *Facade) SetPropagation(preset mount.Preset) error { return mount.SetPropagation(preset) }

// PivotRoot wraps the syscall surface directly.
func (f *Facade) PivotRoot(newRoot, putOld string) error { return nsyscall.PivotRoot(newRoot, putOld) }

// GetHostname wraps the syscall surface.
func (f *Facade) GetHostname() (string, error) { return nsyscall.Gethostname() }

// SetHostname wraps the syscall surface.
func (f *Facade) SetHostname(name string) error { return nsyscall.Sethostname(name) }

// GetDomainname wraps the syscall surface.
func (f *Facade) GetDomainname() (string, error) { return nsyscall.Getdomainname() }

// SetDomainname wraps the syscall surface.
func (f *Facade) SetDomainname(name string) error { return nsyscall.Setdomainname(name) }

// SchedGetcpu wraps the syscall surface.
func (f *Facade) SchedGetcpu() (int, error) { return nsyscall.SchedGetcpu() }

// ShowNamespacesStatus reports the catalog's current availability.
func (f *Facade) ShowNamespacesStatus() []catalog.Status { return catalog.ShowStatus() }

// ShowAvailableCFunctions reports the syscall surface's resolution table.
func (f *Facade) ShowAvailableCFunctions() []nsyscall.Resolution { return nsyscall.Resolutions() }

// AdjustNamespaces filters the catalog per catalog.AdjustNamespaces.
func (f *Facade) AdjustNamespaces(include, exclude []catalog.Name) []catalog.Name {
	return catalog.AdjustNamespaces(include, exclude)
}

// CheckNamespacesAvailableStatus runs the capability detector exactly
// once (memoised) and returns the resulting catalog snapshot.
func (f *Facade) CheckNamespacesAvailableStatus() ([]catalog.Status, error) {
	if err := detect.Detect(f.self); err != nil {
		return nil, err
	}
	return catalog.ShowStatus(), nil
}

// BindNsFiles wraps the namespace binder.
func (f *Facade) BindNsFiles(pid int, names []catalog.Name, dir string) ([]string, error) {
	return nsbind.BindNsFiles(pid, names, dir)
}

// UnbindNsFiles wraps the namespace binder.
func (f *Facade) UnbindNsFiles(paths []string) error { return nsbind.UnbindNsFiles(paths) }

// WriteIdentity wraps the identity mapper.
func (f *Facade) WriteIdentity(pid int, maproot bool, setgroups identity.SetgroupsMode, users, groups []identity.IDMapEntry) error {
	return identity.WriteIdentity(pid, maproot, setgroups, users, groups)
}

func procNsPath(pid int, entry string) string {
	return fmt.Sprintf("/proc/%d/ns/%s", pid, entry)
}
