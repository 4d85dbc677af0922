// Package nsbind is the Namespace Binder: it pins a process's namespaces
// to bind-mounted files under a directory, so they outlive the process
// that created them and can be joined later via setns(2) against the bind
// mount instead of the original /proc/<pid>/ns entry.
package nsbind

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"nsctl/catalog"
	nserrors "nsctl/errors"
	"nsctl/logging"
	"nsctl/nsyscall"
)

const (
	bindFlag   = unix.MS_BIND
	detachFlag = unix.MNT_DETACH
)

// BindNsFiles bind-mounts /proc/<pid>/ns/<entry> into dir/<entry> for each
// of the requested namespace kinds, creating dir and the pinning files as
// needed. It returns the set of paths it created, in request order, so
// the caller can clean them up on failure.
func BindNsFiles(pid int, names []catalog.Name, dir string) ([]string, error) {
	if dir == "" {
		return nil, nserrors.Argument("nsbind: dir must not be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nserrors.WrapWithDetail(err, nserrors.ErrNamespaceSetting, "nsbind", "create bind dir")
	}

	bound := make([]string, 0, len(names))
	for _, name := range names {
		// Bind-mounting the mount namespace file of a process sharing the
		// caller's own mount namespace is ill-defined, so it is always
		// skipped regardless of request contents.
		if name == catalog.Mount {
			continue
		}

		d, err := catalog.Lookup(name)
		if err != nil {
			return bound, err
		}
		if !d.Available() {
			continue
		}

		src := fmt.Sprintf("/proc/%d/ns/%s", pid, d.Entry)
		dst := filepath.Join(dir, d.Entry)

		if f, err := os.OpenFile(dst, os.O_CREATE|os.O_RDONLY, 0644); err != nil {
			return bound, nserrors.WrapWithDetail(err, nserrors.ErrNamespaceSetting, "nsbind", "create pin file "+dst)
		} else {
			f.Close()
		}

		if err := nsyscall.Mount(src, dst, "", bindFlag, ""); err != nil {
			return bound, nserrors.WrapWithDetail(err, nserrors.ErrNamespaceSetting, "nsbind", "bind mount "+d.Entry)
		}
		bound = append(bound, dst)
	}
	logging.WithPath(logging.WithPID(logging.Default(), pid), dir).Debug("bound namespace files", "count", len(bound))
	return bound, nil
}

// UnbindNsFiles lazily unmounts and removes every path BindNsFiles created,
// continuing past individual failures and returning the first error seen.
func UnbindNsFiles(paths []string) error {
	var first error
	for _, p := range paths {
		if err := nsyscall.Umount2(p, detachFlag); err != nil && first == nil {
			first = err
		}
		if err := os.Remove(p); err != nil && first == nil {
			first = nserrors.WrapWithDetail(err, nserrors.ErrNamespaceSetting, "nsbind", "remove pin file "+p)
		}
	}
	if first != nil {
		logging.Default().Warn("unbind namespace files failed", "error", first)
	}
	return first
}
