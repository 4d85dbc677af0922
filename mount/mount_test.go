package mount

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func TestFlagsFor_KnownPresets(t *testing.T) {
	tests := []struct {
		preset Preset
		want   uintptr
	}{
		{Private, unix.MS_REC | unix.MS_PRIVATE},
		{Slave, unix.MS_REC | unix.MS_SLAVE},
		{Shared, unix.MS_REC | unix.MS_SHARED},
		{Bind, unix.MS_BIND},
		{MountProc, unix.MS_NOSUID | unix.MS_NODEV | unix.MS_NOEXEC},
		{Unchanged, 0},
	}
	for _, tt := range tests {
		if got := FlagsFor(tt.preset); got != tt.want {
			t.Errorf("FlagsFor(%s) = %#x, want %#x", tt.preset, got, tt.want)
		}
	}
}

func TestFlagsFor_UnknownPreset(t *testing.T) {
	if got := FlagsFor(Preset("bogus")); got != 0 {
		t.Errorf("FlagsFor(bogus) = %#x, want 0", got)
	}
}

func TestMount_NoopWhenEverythingUnset(t *testing.T) {
	if err := Mount("", "", "", "", ""); err != nil {
		t.Errorf("Mount with nothing set should be a no-op, got %v", err)
	}
}

func TestUmount_RejectsEmptyPath(t *testing.T) {
	if err := Umount(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestUmount_RejectsMissingPath(t *testing.T) {
	dir := t.TempDir()
	if err := Umount(filepath.Join(dir, "does-not-exist")); err == nil {
		t.Error("expected error for nonexistent path")
	}
}

func TestUmount2_RejectsUnknownBehavior(t *testing.T) {
	dir := t.TempDir()
	if err := Umount2(dir, Behavior("nonsense")); err == nil {
		t.Error("expected error for unknown behavior")
	}
}

func TestUmount2_RejectsMissingPath(t *testing.T) {
	dir := t.TempDir()
	if err := Umount2(filepath.Join(dir, "nope"), Force); err == nil {
		t.Error("expected error for nonexistent path")
	}
}

func TestSetPropagation_UnchangedIsNoop(t *testing.T) {
	if err := SetPropagation(Unchanged); err != nil {
		t.Errorf("SetPropagation(Unchanged) should be a no-op, got %v", err)
	}
	if err := SetPropagation(""); err != nil {
		t.Errorf("SetPropagation(\"\") should be a no-op, got %v", err)
	}
}

func TestMountProc_CreatesMountpointDir(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("requires root to actually mount proc; only checking dir creation here")
	}
	mp := filepath.Join(t.TempDir(), "proc")
	// A freshly created directory is not a mount point, so the private
	// propagation step fails and nothing is mounted; only the directory
	// creation that precedes it is checked here.
	_ = MountProc(mp)
	if info, err := os.Stat(mp); err != nil || !info.IsDir() {
		t.Errorf("MountProc(%q) did not create the mountpoint directory: %v", mp, err)
	}
}
