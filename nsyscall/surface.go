// Package nsyscall is the Syscall Surface: a registry binding the logical
// operations nsctl needs (unshare, setns, mount, pivot_root, hostname,
// domainname, sched_getcpu, atfork) to either a directly resolved wrapper
// from golang.org/x/sys/unix or a syscall-number fallback invoked through
// syscall.Syscall, mirroring the dlsym-or-syscall-number resolution the
// source toolkit performs against libc at process start.
package nsyscall

import (
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	nserrors "nsctl/errors"
)

// Binding describes how a logical operation was resolved.
type Binding int

const (
	// Unresolved means neither a direct wrapper nor a syscall number
	// fallback is available; any call fails with FUNCTION_UNAVAILABLE.
	Unresolved Binding = iota
	// Direct means the operation is bound to a golang.org/x/sys/unix
	// wrapper — the Go-native analogue of a resolved libc symbol.
	Direct
	// SyscallNumber means the operation has no high-level wrapper and is
	// invoked through syscall.Syscall against a fixed syscall number.
	SyscallNumber
)

func (b Binding) String() string {
	switch b {
	case Direct:
		return "direct"
	case SyscallNumber:
		return "syscall-number"
	default:
		return "unavailable"
	}
}

// Resolution records how one logical operation resolved at init time.
type Resolution struct {
	Name    string
	Binding Binding
}

var (
	registryMu sync.Mutex
	registry   = map[string]Resolution{}
)

func record(name string, b Binding) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = Resolution{Name: name, Binding: b}
}

// Resolutions returns a snapshot of every logical operation's resolution,
// for show_available_c_functions.
func Resolutions() []Resolution {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make([]Resolution, 0, len(registry))
	for _, r := range registry {
		out = append(out, r)
	}
	return out
}

func init() {
	// Operations bound directly to golang.org/x/sys/unix wrappers — the
	// Go-native equivalent of a resolved libc symbol.
	for _, name := range []string{"unshare", "mount", "umount", "umount2", "sethostname", "gethostname", "setdomainname", "getdomainname"} {
		record(name, Direct)
	}
	// Operations with no stable high-level wrapper across architectures;
	// invoked via raw syscall number, matching spec.md's explicit callouts
	// ("setns ... fallback via syscall(NR_SETNS,...)", "pivot_root ...
	// always via syscall number").
	for _, name := range []string{"setns", "pivot_root", "sched_getcpu"} {
		record(name, SyscallNumber)
	}
	// atfork has no analogue in a cgo-free Go binary: the runtime's own
	// fork() usage inside os/exec is not interposable from user code.
	record("atfork", Unresolved)
}

// invoke calls the raw Linux syscall numbered nr with up to 3 arguments,
// translating a non-zero errno into an *errors.NsError tagged with name.
func invoke(name string, nr uintptr, a1, a2, a3 uintptr) (uintptr, error) {
	r1, _, errno := syscall.Syscall(nr, a1, a2, a3)
	if errno != 0 {
		return r1, nserrors.OSCallFailed(name, errno)
	}
	return r1, nil
}

// Unshare detaches the calling process from the namespaces identified by
// flags.
func Unshare(flags uintptr) error {
	if err := unix.Unshare(int(flags)); err != nil {
		return nserrors.OSCallFailed("unshare", err)
	}
	return nil
}

// Setns attaches the calling process to the namespace referred to by fd.
// nstype is 0 to accept any namespace kind, or the kind's clone flag to
// require a match.
func Setns(fd int, nstype uintptr) error {
	_, err := invoke("setns", unix.SYS_SETNS, uintptr(fd), nstype, 0)
	return err
}

// Mount wraps mount(2).
func Mount(source, target, fstype string, flags uintptr, data string) error {
	if err := unix.Mount(source, target, fstype, flags, data); err != nil {
		return nserrors.OSCallFailed("mount", err)
	}
	return nil
}

// Umount wraps umount(2).
func Umount(path string) error {
	if err := unix.Unmount(path, 0); err != nil {
		return nserrors.OSCallFailed("umount", err)
	}
	return nil
}

// Umount2 wraps umount2(2) with explicit behaviour flags.
func Umount2(path string, flags int) error {
	if err := unix.Unmount(path, flags); err != nil {
		return nserrors.OSCallFailed("umount2", err)
	}
	return nil
}

// PivotRoot wraps pivot_root(2), always via the raw syscall number per
// spec.md §4.1.
func PivotRoot(newRoot, putOld string) error {
	newPtr, err := syscall.BytePtrFromString(newRoot)
	if err != nil {
		return nserrors.WrapWithDetail(err, nserrors.ErrOSCallFailed, "pivot_root", "encode new root")
	}
	oldPtr, err := syscall.BytePtrFromString(putOld)
	if err != nil {
		return nserrors.WrapWithDetail(err, nserrors.ErrOSCallFailed, "pivot_root", "encode old root")
	}
	_, _, errno := syscall.Syscall(unix.SYS_PIVOT_ROOT,
		uintptr(unsafe.Pointer(newPtr)), uintptr(unsafe.Pointer(oldPtr)), 0)
	if errno != 0 {
		return nserrors.OSCallFailed("pivot_root", errno)
	}
	return nil
}

// Sethostname wraps sethostname(2).
func Sethostname(name string) error {
	if err := unix.Sethostname([]byte(name)); err != nil {
		return nserrors.OSCallFailed("sethostname", err)
	}
	return nil
}

// Gethostname wraps gethostname(2).
func Gethostname() (string, error) {
	name, err := unix.Gethostname()
	if err != nil {
		return "", nserrors.OSCallFailed("gethostname", err)
	}
	return name, nil
}

// Setdomainname wraps setdomainname(2).
func Setdomainname(name string) error {
	if err := unix.Setdomainname([]byte(name)); err != nil {
		return nserrors.OSCallFailed("setdomainname", err)
	}
	return nil
}

// Getdomainname wraps getdomainname(2).
func Getdomainname() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", nserrors.OSCallFailed("getdomainname", err)
	}
	return charsToString(uts.Domainname[:]), nil
}

func charsToString(b []byte) string {
	i := 0
	for ; i < len(b); i++ {
		if b[i] == 0 {
			break
		}
	}
	return string(b[:i])
}

// SchedGetcpu wraps sched_getcpu(2) via its raw syscall number, since
// golang.org/x/sys/unix does not expose a stable wrapper on every
// architecture.
func SchedGetcpu() (int, error) {
	var cpu uint32
	if _, err := invoke("sched_getcpu", unix.SYS_GETCPU, uintptr(unsafe.Pointer(&cpu)), 0, 0); err != nil {
		return -1, err
	}
	return int(cpu), nil
}

// Atfork always fails with FUNCTION_UNAVAILABLE: a cgo-free Go binary has
// no pthread_atfork/__register_atfork to bind, and the Go runtime's own
// fork() usage (inside os/exec) is not interposable from user code. The
// spawn coordinator and capability detector get the equivalent ordering
// for free from the pipe handshakes around their os/exec calls, which
// stand in for fork() in this module.
func Atfork(prepare, parent, child func()) error {
	return nserrors.FunctionUnavailable("atfork")
}
