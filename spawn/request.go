// Package spawn is the Spawn Coordinator: the three-generation,
// pipe-synchronised state machine that unshares a requested set of
// namespaces in a child process while the parent performs the
// configuration steps (identity mapping, namespace pinning) the child
// cannot perform on itself.
package spawn

import (
	"os"

	"nsctl/catalog"
	nserrors "nsctl/errors"
	"nsctl/identity"
	"nsctl/mount"
)

// Request is the Spawn Coordinator's input, matching spec.md §3's "Spawn
// request".
type Request struct {
	Namespaces         []catalog.Name
	NegativeNamespaces []catalog.Name
	Maproot            bool
	UsersMap           []identity.IDMapEntry
	GroupsMap          []identity.IDMapEntry
	Setgroups          identity.SetgroupsMode
	Mountproc          bool
	Mountpoint         string
	NsBindDir          string
	Propagation        mount.Preset
	Nscmd              []string
}

// normalized is a Request after validation: namespaces resolved to a
// concrete, order-preserved list, propagation defaulted, and nscmd/helper
// init resolved to concrete executables.
type normalized struct {
	namespaces  []catalog.Name
	flags       uintptr
	hasUser     bool
	hasMount    bool
	hasPid      bool
	maproot     bool
	usersMap    []identity.IDMapEntry
	groupsMap   []identity.IDMapEntry
	setgroups   identity.SetgroupsMode
	mountproc   bool
	mountpoint  string
	nsBindDir   string
	propagation mount.Preset
	nscmdArgv   []string
	helperInit  string
}

func contains(names []catalog.Name, want catalog.Name) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

// validate applies every invariant in spec.md §3 before anything forks,
// returning a fully resolved request ready for the coordinator.
func validate(self string, req Request) (*normalized, error) {
	var resolved []catalog.Name
	if len(req.Namespaces) == 0 {
		resolved = catalog.AdjustNamespaces(nil, nil)
	} else {
		for _, n := range req.Namespaces {
			d, err := catalog.Lookup(n)
			if err != nil {
				return nil, err
			}
			if !d.Available() {
				return nil, nserrors.UnavailableNamespace(string(n))
			}
		}
		resolved = append(resolved, req.Namespaces...)
	}

	negSet := make(map[catalog.Name]bool, len(req.NegativeNamespaces))
	for _, n := range req.NegativeNamespaces {
		if _, err := catalog.Lookup(n); err != nil {
			return nil, err
		}
		negSet[n] = true
	}

	final := make([]catalog.Name, 0, len(resolved))
	for _, n := range resolved {
		if !negSet[n] {
			final = append(final, n)
		}
	}

	hasMount := contains(final, catalog.Mount)
	hasPid := contains(final, catalog.PID)
	hasUser := contains(final, catalog.User)

	if req.Setgroups == identity.SetgroupsAllow && req.Maproot {
		return nil, nserrors.ErrMaprootWithAllowedSetgroups
	}
	if req.NsBindDir != "" && !hasMount {
		return nil, nserrors.ErrBindDirRequiresMountNamespace
	}
	if req.Mountproc && !(hasPid && hasMount) {
		return nil, nserrors.ErrMountprocRequiresPidAndMount
	}
	if req.Maproot && !hasUser {
		return nil, nserrors.ErrMaprootRequiresUserNamespace
	}
	if len(req.UsersMap) > 5 || len(req.GroupsMap) > 5 {
		return nil, nserrors.ErrTooManyIDMapEntries
	}
	if !hasUser && os.Geteuid() != 0 {
		return nil, nserrors.RequiresSuperuser("spawn_namespaces")
	}

	propagation := req.Propagation
	if propagation == "" {
		if hasMount {
			propagation = mount.Private
		} else {
			propagation = mount.Unchanged
		}
	}

	mountpoint := req.Mountpoint
	if mountpoint == "" {
		mountpoint = "/proc"
	}

	nscmdArgv := req.Nscmd
	if len(nscmdArgv) == 0 {
		shell, err := findShell()
		if err != nil {
			return nil, err
		}
		nscmdArgv = []string{shell}
	}

	var helperInit string
	if hasPid {
		var err error
		helperInit, err = findHelperInit(self)
		if err != nil {
			return nil, err
		}
	}

	return &normalized{
		namespaces:  final,
		flags:       catalog.FlagsFor(final),
		hasUser:     hasUser,
		hasMount:    hasMount,
		hasPid:      hasPid,
		maproot:     req.Maproot,
		usersMap:    req.UsersMap,
		groupsMap:   req.GroupsMap,
		setgroups:   req.Setgroups,
		mountproc:   req.Mountproc,
		mountpoint:  mountpoint,
		nsBindDir:   req.NsBindDir,
		propagation: propagation,
		nscmdArgv:   nscmdArgv,
		helperInit:  helperInit,
	}, nil
}
