package replay

import (
	"os"
	"path/filepath"
	"testing"
)

// #region fixture-tests

func runFixture(t *testing.T, name string) {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	table, err := f.ToTable()
	if err != nil {
		t.Fatalf("ToTable: %v", err)
	}
	entries, err := f.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}

	results := Replay(entries, table, nil)
	for _, p := range f.Check(results) {
		t.Error(p)
	}
}

// TestFixture_DefaultRun is the baseline: default thresholds publish.
func TestFixture_DefaultRun(t *testing.T) {
	runFixture(t, "default_run.json")
}

// TestFixture_TightLadders tightens the ladder limits until the same
// corrections are vetoed.
func TestFixture_TightLadders(t *testing.T) {
	runFixture(t, "tight_ladders.json")
}

// TestLoadFixture_NotFound verifies error on missing file.
func TestLoadFixture_NotFound(t *testing.T) {
	_, err := LoadFixture("testdata/nonexistent.json")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

// TestLoadFixture_Malformed verifies error on invalid JSON.
func TestLoadFixture_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not valid json}"), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	_, err := LoadFixture(path)
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestFixture_RejectsUnknownNames(t *testing.T) {
	f := &Fixture{Thresholds: map[string]FixtureThresholds{"TIBHalfBarrel": {}}}
	if _, err := f.ToTable(); err == nil {
		t.Error("expected error for unknown partition")
	}

	f = &Fixture{Records: []FixtureRecord{{Label: 1, Partition: "TPBLadder", Coord: "W"}}}
	if _, err := f.Entries(); err == nil {
		t.Error("expected error for unknown coordinate")
	}
}

func TestFixture_CheckReportsMismatch(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "default_run.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	entries, _ := f.Entries()
	table, _ := f.ToTable()
	results := Replay(entries[:2], table, nil)

	if problems := f.Check(results); len(problems) != 1 {
		t.Fatalf("expected a single length mismatch, got %v", problems)
	}
}

// #endregion fixture-tests
