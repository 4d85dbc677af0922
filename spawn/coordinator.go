package spawn

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	nserrors "nsctl/errors"
	"nsctl/identity"
	"nsctl/logging"
	"nsctl/mount"
	"nsctl/nsbind"
	"nsctl/nsyscall"
	"nsctl/utils"
)

// IntermediateSubcommand and GrandchildSubcommand name the hidden cobra
// subcommands that re-exec into RunIntermediate/RunGrandchild.
const (
	IntermediateSubcommand = "__ns-intermediate"
	GrandchildSubcommand   = "__ns-grandchild"
)

// Result is what Run reports back to the facade once the whole
// handshake — and the grandchild's exec'd payload — has completed.
type Result struct {
	Pid      int
	ExitCode int
}

// Run validates req, then drives the three-generation pipe handshake
// (spec.md §4.6): Parent (this function) re-execs self as the
// Intermediate, which in turn re-execs self as the Grandchild. self is
// the path to the running binary, used for both re-execs.
func Run(self string, req Request) (*Result, error) {
	log := logging.WithOperation(logging.Default(), "spawn_namespaces")

	n, err := validate(self, req)
	if err != nil {
		log.Warn("spawn request rejected", "error", err)
		return nil, err
	}

	encoded, err := encodeWire(n.toWire())
	if err != nil {
		return nil, err
	}

	// r1/w1 carries the grandchild's pid as an ASCII line, not a single
	// sentinel byte, so it stays a plain pipe rather than a SyncPipe.
	r1, w1, err := os.Pipe()
	if err != nil {
		return nil, nserrors.SpawnSyncFailed("parent-pipe-1", err)
	}
	goAhead, err := utils.NewSyncPipe()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(self, IntermediateSubcommand, encoded)
	cmd.ExtraFiles = []*os.File{w1, goAhead.ReaderFile()}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		w1.Close()
		r1.Close()
		goAhead.Close()
		return nil, nserrors.SpawnSyncFailed("intermediate-start", err)
	}
	// Parent doesn't use these ends; closing preserves EOF semantics for
	// the intermediate's own reads/writes on its copies.
	w1.Close()
	goAhead.CloseReader()

	pid, err := readPid(r1)
	r1.Close()
	if err != nil {
		// Abort: close the go-ahead writer without signalling so the
		// grandchild observes EOF and exits instead of blocking forever.
		goAhead.CloseWriter()
		cmd.Wait()
		return nil, err
	}

	log = logging.WithPID(log, pid)

	if cfgErr := configure(n, pid); cfgErr != nil {
		log.Warn("identity/bind configuration failed, aborting grandchild", "error", cfgErr)
		goAhead.CloseWriter()
		cmd.Wait()
		return nil, cfgErr
	}

	if err := goAhead.Signal(); err != nil {
		goAhead.CloseWriter()
		cmd.Wait()
		return nil, err
	}
	goAhead.CloseWriter()

	waitErr := cmd.Wait()
	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, nserrors.SpawnSyncFailed("intermediate-wait", waitErr)
		}
	}
	log.Info("spawn complete", "exit_code", exitCode)
	return &Result{Pid: pid, ExitCode: exitCode}, nil
}

// configure performs the parent-side work that must happen between
// learning the grandchild's pid and releasing it to exec: identity
// mapping and namespace pinning.
func configure(n *normalized, pid int) error {
	if n.hasUser {
		if err := identity.WriteIdentity(pid, n.maproot, n.setgroups, n.usersMap, n.groupsMap); err != nil {
			return err
		}
	}
	if n.nsBindDir != "" && n.hasMount {
		if _, err := nsbind.BindNsFiles(pid, n.namespaces, n.nsBindDir); err != nil {
			return err
		}
	}
	return nil
}

func readPid(r *os.File) (int, error) {
	reader := bufio.NewReader(r)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return 0, nserrors.ErrSpawnEOF
	}
	pid, convErr := strconv.Atoi(strings.TrimSpace(line))
	if convErr != nil {
		return 0, nserrors.SpawnSyncFailed("parent-read-pid", convErr)
	}
	return pid, nil
}

// RunIntermediate is the body of the hidden __ns-intermediate
// subcommand: the first generation forked off the parent. It unshares
// the requested namespace flags, then re-execs itself again as the
// grandchild, which actually carries out the mount/exec work inside the
// new namespaces.
func RunIntermediate(self, encoded string) error {
	w1 := os.NewFile(3, "w1")
	goAheadFromParent := utils.NewReaderOnlySyncPipe(os.NewFile(4, "goahead-r"))
	defer w1.Close()
	defer goAheadFromParent.CloseReader()

	w, err := decodeWire(encoded)
	if err != nil {
		return err
	}

	if w.Flags != 0 {
		if err := nsyscall.Unshare(w.Flags); err != nil {
			return err
		}
	}

	mountDone, err := utils.NewSyncPipe()
	if err != nil {
		return err
	}
	goAheadToGrandchild, err := utils.NewSyncPipe()
	if err != nil {
		return err
	}

	cmd := exec.Command(self, GrandchildSubcommand, encoded)
	cmd.ExtraFiles = []*os.File{mountDone.WriterFile(), goAheadToGrandchild.ReaderFile()}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		mountDone.Close()
		goAheadToGrandchild.Close()
		return nserrors.SpawnSyncFailed("grandchild-start", err)
	}
	mountDone.CloseWriter()
	goAheadToGrandchild.CloseReader()

	// Block until the grandchild reports its mount-phase work is done,
	// enforcing ordering guarantee 1 before forwarding its pid.
	if err := mountDone.Wait(); err != nil {
		goAheadToGrandchild.CloseWriter()
		cmd.Wait()
		return err
	}

	pid := cmd.Process.Pid
	if _, err := fmt.Fprintf(w1, "%d\n", pid); err != nil {
		goAheadToGrandchild.CloseWriter()
		cmd.Wait()
		return nserrors.SpawnSyncFailed("intermediate-w1", err)
	}
	w1.Close()

	// Block until the parent has finished identity mapping/pinning,
	// enforcing ordering guarantee 2 before releasing the grandchild.
	if err := goAheadFromParent.Wait(); err != nil {
		// Parent aborted; forward the abort by closing without signalling.
		goAheadToGrandchild.CloseWriter()
		cmd.Wait()
		return err
	}

	if err := goAheadToGrandchild.Signal(); err != nil {
		goAheadToGrandchild.CloseWriter()
		cmd.Wait()
		return err
	}
	goAheadToGrandchild.CloseWriter()

	return cmd.Wait()
}

// RunGrandchild is the body of the hidden __ns-grandchild subcommand:
// the innermost generation, already living in the new namespaces set up
// by the intermediate's unshare(2) call. It performs the mount-phase
// work, signals completion, waits for the parent's go-ahead, then execs
// the user payload (or the helper init, if a pid namespace is in play).
func RunGrandchild(encoded string) error {
	mountDone := utils.NewWriterOnlySyncPipe(os.NewFile(3, "mountdone-w"))
	goAhead := utils.NewReaderOnlySyncPipe(os.NewFile(4, "goahead-r"))

	w, err := decodeWire(encoded)
	if err != nil {
		mountDone.CloseWriter()
		goAhead.CloseReader()
		return err
	}

	if w.HasMount && w.Propagation != "" {
		if err := mount.SetPropagation(w.Propagation); err != nil {
			mountDone.CloseWriter()
			goAhead.CloseReader()
			return err
		}
	}
	if w.Mountproc {
		if err := mount.MountProc(w.Mountpoint); err != nil {
			mountDone.CloseWriter()
			goAhead.CloseReader()
			return err
		}
	}

	if err := mountDone.Signal(); err != nil {
		mountDone.CloseWriter()
		goAhead.CloseReader()
		return err
	}
	mountDone.CloseWriter()

	if err := goAhead.Wait(); err != nil {
		goAhead.CloseReader()
		return err
	}
	goAhead.CloseReader()

	return execPayload(w)
}

// execPayload replaces the current process image with the helper init
// (when a pid namespace is in play) or the user command directly.
func execPayload(w wireRequest) error {
	env := os.Environ()
	if w.HasPid && w.HelperInit != "" {
		argv := append([]string{w.HelperInit, "--skip-startup-files", "--skip-runit", "--quiet"}, w.NscmdArgv...)
		err := syscall.Exec(w.HelperInit, argv, env)
		return nserrors.WrapWithDetail(err, nserrors.ErrOSCallFailed, "exec", "helper init")
	}
	if len(w.NscmdArgv) == 0 {
		return nserrors.Argument("no command to exec")
	}
	path, err := exec.LookPath(w.NscmdArgv[0])
	if err != nil {
		path = w.NscmdArgv[0]
	}
	execErr := syscall.Exec(path, w.NscmdArgv, env)
	return nserrors.WrapWithDetail(execErr, nserrors.ErrOSCallFailed, "exec", "user command")
}
