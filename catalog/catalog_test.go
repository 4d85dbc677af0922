package catalog

import (
	"testing"
)

func TestAll_SevenKinds(t *testing.T) {
	all := All()
	if len(all) != 7 {
		t.Fatalf("expected 7 namespace kinds, got %d", len(all))
	}
}

func TestLookup_Known(t *testing.T) {
	d, err := Lookup(Net)
	if err != nil {
		t.Fatalf("Lookup(net) error: %v", err)
	}
	if d.Entry != "net" {
		t.Errorf("Entry = %q, want %q", d.Entry, "net")
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup(Name("banana"))
	if err == nil {
		t.Fatal("expected error for unknown namespace")
	}
}

func TestByEntry(t *testing.T) {
	d, ok := ByEntry("mnt")
	if !ok || d.Name != Mount {
		t.Errorf("ByEntry(mnt) = (%v, %v), want (mount descriptor, true)", d, ok)
	}

	_, ok = ByEntry("nope")
	if ok {
		t.Errorf("ByEntry(nope) should not be found")
	}
}

func resetAvailability(t *testing.T) {
	t.Helper()
	for _, d := range All() {
		d.SetAvailable(true)
	}
}

func TestAvailable_DefaultsToAllAvailable(t *testing.T) {
	resetAvailability(t)
	if len(Available()) != 7 {
		t.Errorf("expected all 7 namespaces available by default, got %d", len(Available()))
	}
}

func TestSetAvailable_Narrows(t *testing.T) {
	resetAvailability(t)
	d, _ := Lookup(Cgroup)
	d.SetAvailable(false)
	defer d.SetAvailable(true)

	for _, s := range ShowStatus() {
		if s.Name == Cgroup && s.Available {
			t.Errorf("cgroup should be reported unavailable")
		}
	}
}

func TestAdjustNamespaces_ExcludeOnly(t *testing.T) {
	resetAvailability(t)
	got := AdjustNamespaces(nil, []Name{Cgroup, IPC})
	for _, n := range got {
		if n == Cgroup || n == IPC {
			t.Errorf("excluded namespace %q present in result", n)
		}
	}
	if len(got) != 5 {
		t.Errorf("expected 5 namespaces after excluding 2, got %d: %v", len(got), got)
	}
}

func TestAdjustNamespaces_IncludeFiltersToAvailable(t *testing.T) {
	resetAvailability(t)
	d, _ := Lookup(Net)
	d.SetAvailable(false)
	defer d.SetAvailable(true)

	got := AdjustNamespaces([]Name{Net, UTS}, nil)
	if len(got) != 1 || got[0] != UTS {
		t.Errorf("expected only uts when net is unavailable, got %v", got)
	}
}

func TestFlagsFor_ORsCloneFlags(t *testing.T) {
	flags := FlagsFor([]Name{UTS, IPC})
	utsD, _ := Lookup(UTS)
	ipcD, _ := Lookup(IPC)
	want := utsD.CloneFlag | ipcD.CloneFlag
	if flags != want {
		t.Errorf("FlagsFor = %#x, want %#x", flags, want)
	}
}

func TestFlagsFor_UnknownNamesSkipped(t *testing.T) {
	flags := FlagsFor([]Name{"bogus"})
	if flags != 0 {
		t.Errorf("FlagsFor with unknown name should be 0, got %#x", flags)
	}
}

func TestUserDescriptor_HasSetgroupsValues(t *testing.T) {
	d, _ := Lookup(User)
	if len(d.SetgroupsValues) != 2 {
		t.Errorf("user descriptor should list 2 setgroups values, got %v", d.SetgroupsValues)
	}
}
