package identity

import (
	"testing"
)

func TestFormatIDMap(t *testing.T) {
	entries := []IDMapEntry{
		{NsID: 0, HostID: 1000, Count: 1},
		{NsID: 1, HostID: 100000, Count: 65536},
	}
	got := formatIDMap(entries)
	want := "0 1000 1\n1 100000 65536\n"
	if got != want {
		t.Errorf("formatIDMap = %q, want %q", got, want)
	}
}

func TestParseIDMapSpec_Valid(t *testing.T) {
	e, err := ParseIDMapSpec("0:1000:1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.NsID != 0 || e.HostID != 1000 || e.Count != 1 {
		t.Errorf("got %+v", e)
	}
}

func TestParseIDMapSpec_WrongArity(t *testing.T) {
	if _, err := ParseIDMapSpec("0:1000"); err == nil {
		t.Error("expected error for missing count field")
	}
}

func TestParseIDMapSpec_NonNumeric(t *testing.T) {
	cases := []string{"x:1000:1", "0:x:1", "0:1000:x"}
	for _, c := range cases {
		if _, err := ParseIDMapSpec(c); err == nil {
			t.Errorf("expected error for %q", c)
		}
	}
}

func TestSetgroupsControl_RejectsUnknownMode(t *testing.T) {
	if err := SetgroupsControl(1, SetgroupsMode("maybe")); err == nil {
		t.Error("expected error for unknown setgroups mode")
	}
}

func TestWriteUidMap_EmptyIsNoop(t *testing.T) {
	if err := WriteUidMap(1, nil); err != nil {
		t.Errorf("empty entries should be a no-op, got %v", err)
	}
}

func TestWriteUidMap_TooManyEntries(t *testing.T) {
	entries := make([]IDMapEntry, maxMapEntries+1)
	if err := WriteUidMap(1, entries); err == nil {
		t.Error("expected error for too many map entries")
	}
}

func TestWriteGidMap_TooManyEntries(t *testing.T) {
	entries := make([]IDMapEntry, maxMapEntries+1)
	if err := WriteGidMap(1, entries); err == nil {
		t.Error("expected error for too many map entries")
	}
}

func TestWriteIdentity_MaprootWithAllowedSetgroupsRejected(t *testing.T) {
	err := WriteIdentity(1, true, SetgroupsAllow, nil, nil)
	if err == nil {
		t.Fatal("expected error combining maproot with setgroups=allow")
	}
}

func TestWithMaprootEntries_PrependsEvenWithExplicitEntries(t *testing.T) {
	callerUsers := []IDMapEntry{{NsID: 1, HostID: 100000, Count: 65536}}
	callerGroups := []IDMapEntry{{NsID: 1, HostID: 100000, Count: 65536}}

	users, groups := withMaprootEntries(true, 1000, 1000, callerUsers, callerGroups)

	if len(users) != 2 || users[0] != (IDMapEntry{NsID: 0, HostID: 1000, Count: 1}) || users[1] != callerUsers[0] {
		t.Errorf("users = %+v, want root entry prepended to caller entries", users)
	}
	if len(groups) != 2 || groups[0] != (IDMapEntry{NsID: 0, HostID: 1000, Count: 1}) || groups[1] != callerGroups[0] {
		t.Errorf("groups = %+v, want root entry prepended to caller entries", groups)
	}
}

func TestWithMaprootEntries_NoopWithoutMaproot(t *testing.T) {
	callerUsers := []IDMapEntry{{NsID: 1, HostID: 100000, Count: 65536}}
	users, groups := withMaprootEntries(false, 1000, 1000, callerUsers, nil)
	if len(users) != 1 || users[0] != callerUsers[0] {
		t.Errorf("users = %+v, want untouched caller entries", users)
	}
	if groups != nil {
		t.Errorf("groups = %+v, want nil", groups)
	}
}
