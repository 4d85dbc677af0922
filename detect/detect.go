// Package detect is the Capability Detector: it determines, exactly once
// and memoized, which namespace kinds the running kernel actually
// supports, by probing unshare(2) for each kind inside a disposable
// descendant process. Probing CLONE_NEWPID has irreversible effects on a
// process's own subsequent fork semantics, so the probe always runs in a
// throwaway grandchild reached via two re-execs of the calling binary
// rather than in the caller itself.
package detect

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"nsctl/catalog"
	nserrors "nsctl/errors"
	"nsctl/logging"
	"nsctl/nsyscall"
)

// resultFD is the file descriptor the intermediate and grandchild
// generations inherit the result pipe's write end on, via cmd.ExtraFiles.
const resultFD = 3

// IntermediateSubcommand and GrandchildSubcommand name the hidden cobra
// subcommands that re-exec into RunIntermediate/RunGrandchild.
const (
	IntermediateSubcommand = "__ns-probe-intermediate"
	GrandchildSubcommand   = "__ns-probe-grandchild"
)

var (
	once    sync.Once
	onceErr error
)

// Detect runs the capability probe exactly once per process lifetime (per
// testable property 1's idempotence requirement) and updates the catalog
// from its report. self is the path to the currently running binary,
// re-exec'd for the intermediate and grandchild generations.
func Detect(self string) error {
	once.Do(func() {
		onceErr = run(self)
	})
	return onceErr
}

func run(self string) error {
	resultR, resultW, err := os.Pipe()
	if err != nil {
		return nserrors.WrapWithDetail(err, nserrors.ErrSpawnSyncFailed, "detect", "create result pipe")
	}

	cmd := exec.Command(self, IntermediateSubcommand)
	cmd.ExtraFiles = []*os.File{resultW}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		resultR.Close()
		resultW.Close()
		return nserrors.SpawnSyncFailed("detect-start", err)
	}
	resultW.Close()

	report, readErr := parseReport(resultR)
	resultR.Close()

	waitErr := cmd.Wait()
	if readErr != nil {
		return nserrors.SpawnSyncFailed("detect-read", readErr)
	}
	if waitErr != nil {
		return nserrors.SpawnSyncFailed("detect-wait", waitErr)
	}

	log := logging.WithOperation(logging.Default(), "detect_namespaces")
	for _, d := range catalog.All() {
		if avail, ok := report[d.Name]; ok {
			d.SetAvailable(avail)
			logging.WithNamespace(log, string(d.Name)).Debug("namespace availability probed", "available", avail)
		}
	}
	return nil
}

func parseReport(r *os.File) (map[catalog.Name]bool, error) {
	out := make(map[catalog.Name]bool, len(catalog.All()))
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		avail, err := strconv.ParseBool(parts[1])
		if err != nil {
			continue
		}
		out[catalog.Name(parts[0])] = avail
	}
	return out, scanner.Err()
}

// RunIntermediate is the body of the hidden __ns-probe-intermediate
// subcommand: the first generation forked off the caller. It does no
// probing itself; its only job is to fork (via a second re-exec) the
// disposable grandchild that does the actual unshare probing, decoupling
// the caller's process from any irreversible effect of probing
// CLONE_NEWPID.
func RunIntermediate(self string) error {
	resultW := os.NewFile(resultFD, "result")
	defer resultW.Close()

	cmd := exec.Command(self, GrandchildSubcommand)
	cmd.ExtraFiles = []*os.File{resultW}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nserrors.SpawnSyncFailed("probe-intermediate-start", err)
	}
	return cmd.Wait()
}

// RunGrandchild is the body of the hidden __ns-probe-grandchild
// subcommand: the disposable process that actually calls unshare(flag)
// once per catalog entry and reports the outcome over the inherited
// result pipe.
func RunGrandchild() error {
	resultW := os.NewFile(resultFD, "result")
	defer resultW.Close()

	for _, d := range catalog.All() {
		avail := probeOne(d.CloneFlag)
		fmt.Fprintf(resultW, "%s=%t\n", d.Name, avail)
	}
	return nil
}

// probeOne calls unshare(flag) in the current (disposable) process and
// classifies the result: success means available; EINVAL means the
// kernel doesn't know the flag; any other errno is treated as available,
// since the kernel recognized the flag and the failure is environmental
// (e.g. permission, already-unshared state).
func probeOne(flag uintptr) bool {
	err := nsyscall.Unshare(flag)
	if err == nil {
		return true
	}
	var nsErr *nserrors.NsError
	if nserrors.As(err, &nsErr) && nsErr.Errno != nil {
		if errno, ok := nsErr.Errno.(syscall.Errno); ok && errno == unix.EINVAL {
			return false
		}
	}
	return true
}
