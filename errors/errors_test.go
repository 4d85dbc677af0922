package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		expected string
	}{
		{ErrUnknownNamespace, "unknown namespace"},
		{ErrUnavailableNamespace, "unavailable namespace"},
		{ErrNamespaceSetting, "namespace setting error"},
		{ErrRequiresSuperuser, "requires superuser"},
		{ErrFunctionUnavailable, "function unavailable"},
		{ErrOSCallFailed, "os call failed"},
		{ErrSpawnSyncFailed, "spawn sync failed"},
		{ErrArgument, "argument error"},
		{ErrorKind(999), "unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("ErrorKind.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNsError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *NsError
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "<nil>",
		},
		{
			name: "full error",
			err: &NsError{
				Op:     "unshare",
				Name:   "net",
				Kind:   ErrUnavailableNamespace,
				Detail: "kernel does not support this namespace",
				Err:    fmt.Errorf("boom"),
			},
			expected: "unshare: net: kernel does not support this namespace: boom",
		},
		{
			name: "without name",
			err: &NsError{
				Op:     "setup",
				Kind:   ErrNamespaceSetting,
				Detail: "pivot_root failed",
			},
			expected: "setup: pivot_root failed",
		},
		{
			name: "kind only",
			err: &NsError{
				Kind: ErrRequiresSuperuser,
			},
			expected: "requires superuser",
		},
		{
			name: "with errno",
			err: &NsError{
				Op:     "mount",
				Name:   "mount",
				Kind:   ErrOSCallFailed,
				Detail: "syscall failed",
				Errno:  fmt.Errorf("operation not permitted"),
			},
			expected: "mount: mount: syscall failed: operation not permitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("NsError.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNsError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner")
	e := &NsError{Err: inner}
	if errors.Unwrap(e) != inner {
		t.Errorf("Unwrap() did not return inner error")
	}

	var nilErr *NsError
	if nilErr.Unwrap() != nil {
		t.Errorf("nil.Unwrap() should return nil")
	}
}

func TestNsError_Is(t *testing.T) {
	e1 := &NsError{Kind: ErrUnknownNamespace}
	e2 := &NsError{Kind: ErrUnknownNamespace, Detail: "different detail"}
	e3 := &NsError{Kind: ErrArgument}

	if !errors.Is(e1, e2) {
		t.Errorf("errors with the same kind should match")
	}
	if errors.Is(e1, e3) {
		t.Errorf("errors with different kinds should not match")
	}

	var nilErr *NsError
	if !nilErr.Is(nil) {
		t.Errorf("nil.Is(nil) should be true")
	}
}

func TestWrapHelpers(t *testing.T) {
	base := fmt.Errorf("underlying")

	wrapped := Wrap(base, ErrOSCallFailed, "mount")
	if wrapped.Op != "mount" || wrapped.Kind != ErrOSCallFailed || wrapped.Err != base {
		t.Errorf("Wrap() did not populate fields correctly: %+v", wrapped)
	}

	detailed := WrapWithDetail(base, ErrNamespaceSetting, "spawn", "setgroups write failed")
	if detailed.Detail != "setgroups write failed" {
		t.Errorf("WrapWithDetail() did not set detail")
	}

	unk := UnknownNamespace("banana")
	if unk.Kind != ErrUnknownNamespace || unk.Name != "banana" {
		t.Errorf("UnknownNamespace() = %+v", unk)
	}

	unavail := UnavailableNamespace("user")
	if unavail.Kind != ErrUnavailableNamespace || unavail.Name != "user" {
		t.Errorf("UnavailableNamespace() = %+v", unavail)
	}

	fn := FunctionUnavailable("atfork")
	if fn.Kind != ErrFunctionUnavailable || fn.Name != "atfork" {
		t.Errorf("FunctionUnavailable() = %+v", fn)
	}

	call := OSCallFailed("mount", fmt.Errorf("EPERM"))
	if call.Kind != ErrOSCallFailed || call.Name != "mount" || call.Errno == nil {
		t.Errorf("OSCallFailed() = %+v", call)
	}

	sync := SpawnSyncFailed("grandchild-mount-done", fmt.Errorf("EOF"))
	if sync.Kind != ErrSpawnSyncFailed || sync.Op != "grandchild-mount-done" {
		t.Errorf("SpawnSyncFailed() = %+v", sync)
	}

	arg := Argument("too many selectors")
	if arg.Kind != ErrArgument {
		t.Errorf("Argument() = %+v", arg)
	}

	su := RequiresSuperuser("spawn_namespaces")
	if su.Kind != ErrRequiresSuperuser || su.Op != "spawn_namespaces" {
		t.Errorf("RequiresSuperuser() = %+v", su)
	}

	ns := NamespaceSetting("spawn_namespaces", "setgroups=allow incompatible with maproot")
	if ns.Kind != ErrNamespaceSetting || ns.Op != "spawn_namespaces" {
		t.Errorf("NamespaceSetting() = %+v", ns)
	}
}

func TestIsKindAndGetKind(t *testing.T) {
	err := UnavailableNamespace("cgroup")

	if !IsKind(err, ErrUnavailableNamespace) {
		t.Errorf("IsKind() should match ErrUnavailableNamespace")
	}
	if IsKind(err, ErrArgument) {
		t.Errorf("IsKind() should not match ErrArgument")
	}

	kind, ok := GetKind(err)
	if !ok || kind != ErrUnavailableNamespace {
		t.Errorf("GetKind() = (%v, %v), want (%v, true)", kind, ok, ErrUnavailableNamespace)
	}

	_, ok = GetKind(fmt.Errorf("plain error"))
	if ok {
		t.Errorf("GetKind() on a plain error should return false")
	}
}
