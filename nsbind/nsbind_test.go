package nsbind

import (
	"path/filepath"
	"testing"

	"nsctl/catalog"
)

func TestBindNsFiles_RejectsEmptyDir(t *testing.T) {
	_, err := BindNsFiles(1, []catalog.Name{catalog.Net}, "")
	if err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestBindNsFiles_RejectsUnknownNamespace(t *testing.T) {
	dir := t.TempDir()
	_, err := BindNsFiles(1, []catalog.Name{catalog.Name("bogus")}, filepath.Join(dir, "pins"))
	if err == nil {
		t.Fatal("expected error for unknown namespace name")
	}
}

func TestBindNsFiles_SkipsMountNamespace(t *testing.T) {
	dir := t.TempDir()
	bound, err := BindNsFiles(1, []catalog.Name{catalog.Mount}, filepath.Join(dir, "pins"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bound) != 0 {
		t.Errorf("expected mount namespace to be skipped, got %v", bound)
	}
}

func TestUnbindNsFiles_EmptyIsNoop(t *testing.T) {
	if err := UnbindNsFiles(nil); err != nil {
		t.Errorf("empty paths should be a no-op, got %v", err)
	}
}
