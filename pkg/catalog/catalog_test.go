package catalog

import (
	"math"
	"testing"
)

func TestDefaultRegistryOrder(t *testing.T) {
	r := DefaultRegistry()
	defs := r.Definitions()

	if len(defs) != 19 {
		t.Fatalf("expected 19 catalog definitions, got %d", len(defs))
	}
	// The local catalogs come first and drive the annotation numbering.
	for i, want := range []string{"M", "IC", "NGC"} {
		if defs[i].Code != want {
			t.Errorf("defs[%d].Code = %q, want %q", i, defs[i].Code, want)
		}
		if !defs[i].Local {
			t.Errorf("%s should be a local catalog", want)
		}
	}
	if got := r.SortKey("M"); got != "00" {
		t.Errorf("SortKey(M) = %q, want %q", got, "00")
	}
	if got := r.SortKey("NGC"); got != "02" {
		t.Errorf("SortKey(NGC) = %q, want %q", got, "02")
	}
	if got := r.SortKey("nope"); got != "99" {
		t.Errorf("SortKey(unknown) = %q, want %q", got, "99")
	}
}

func TestSnapshotDefaultsAndIsolation(t *testing.T) {
	r := DefaultRegistry()
	s := r.Snapshot(nil)

	for _, code := range []string{"M", "IC", "NGC"} {
		if !s.Enabled(code) {
			t.Errorf("%s should be selected by default", code)
		}
	}
	if s.Enabled("LEDA") {
		t.Error("LEDA should not be selected by default")
	}

	// Mutating the registry after the snapshot must not leak into it.
	sel := true
	r.Override("LEDA", "#000000", &sel)
	if s.Enabled("LEDA") {
		t.Error("snapshot changed after registry mutation")
	}
	if s.Color("LEDA") != "#c29d94" {
		t.Errorf("snapshot color changed after registry mutation: %s", s.Color("LEDA"))
	}

	s2 := r.Snapshot(nil)
	if !s2.Enabled("LEDA") || s2.Color("LEDA") != "#000000" {
		t.Error("new snapshot should see the override")
	}
}

func TestSnapshotExplicitSet(t *testing.T) {
	r := DefaultRegistry()
	s := r.Snapshot(map[string]bool{"LEDA": true, "M": true})
	if !s.Enabled("LEDA") || !s.Enabled("M") {
		t.Error("explicitly enabled codes missing from snapshot")
	}
	if s.Enabled("NGC") {
		t.Error("explicit set should fully replace the defaults")
	}
	if got := s.String(); got != "M,LEDA" {
		t.Errorf("Selection.String() = %q, want registry order %q", got, "M,LEDA")
	}
}

func TestSelectionColorFallback(t *testing.T) {
	s := DefaultRegistry().Snapshot(nil)
	if got := s.Color("NOPE"); got != "#ff0000" {
		t.Errorf("Color(unknown) = %q, want fallback red", got)
	}
}

func TestTypeFromID(t *testing.T) {
	cases := []struct {
		id   string
		want string
	}{
		{"NGC 224", "NGC"},
		{"M31", "M31"}, // no separator: the whole run is the token
		{"M 31", "M"},
		{"2MASX J00424433+4116082", "2MASX"},
		{"LEDA 2557", "LEDA"},
		{"  UGC 454", "UGC"},
		{"[B2006] 12", "Unknown"},
		{"", "Unknown"},
	}
	for _, c := range cases {
		if got := TypeFromID(c.id); got != c.want {
			t.Errorf("TypeFromID(%q) = %q, want %q", c.id, got, c.want)
		}
	}
}

func TestSortRows(t *testing.T) {
	rows := []Row{
		{MainID: "NGC253", SortKey: "02"},
		{MainID: "M31", SortKey: "00"},
		{MainID: "M110", SortKey: "00"},
		{MainID: "IC10", SortKey: "01"},
	}
	SortRows(rows)
	want := []string{"M110", "M31", "IC10", "NGC253"}
	for i, id := range want {
		if rows[i].MainID != id {
			t.Errorf("rows[%d] = %s, want %s", i, rows[i].MainID, id)
		}
	}
}

func TestRowHasSize(t *testing.T) {
	r := Row{AngularMajorAxis: math.NaN()}
	if r.HasSize() {
		t.Error("NaN axis should report no size")
	}
	r.AngularMajorAxis = 2.5
	if !r.HasSize() {
		t.Error("finite axis should report a size")
	}
}
