package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/pclgate/internal/gate"
	"github.com/danielpatrickdp/pclgate/internal/partition"
	"github.com/danielpatrickdp/pclgate/internal/thresholds"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a set of
// corrections, the thresholds to judge them with, and the expected verdicts.
type Fixture struct {
	Description       string                       `json:"description"`
	Thresholds        map[string]FixtureThresholds `json:"thresholds"`
	Records           []FixtureRecord              `json:"records"`
	ExpectedResults   []FixtureExpectedResult      `json:"expected_results"`
	ExpectedPublished bool                         `json:"expected_published"`
}

// FixtureThresholds overrides the default cuts of one partition.
type FixtureThresholds struct {
	Cut      [partition.NumCoords]float64 `json:"cut"`
	SigCut   [partition.NumCoords]float64 `json:"sig_cut"`
	MaxMove  [partition.NumCoords]float64 `json:"max_move"`
	MaxError [partition.NumCoords]float64 `json:"max_error"`
}

// FixtureRecord is one correction in reporting units.
type FixtureRecord struct {
	Label       uint64  `json:"label"`
	Partition   string  `json:"partition"`
	Coord       string  `json:"coord"`
	Movement    float64 `json:"movement"`
	Uncertainty float64 `json:"uncertainty"`
}

// FixtureExpectedResult captures the expected verdict per record.
type FixtureExpectedResult struct {
	Label   uint64 `json:"label"`
	Verdict string `json:"verdict"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToTable starts from the default table and applies the fixture overrides.
func (f *Fixture) ToTable() (thresholds.Table, error) {
	t := thresholds.DefaultTable()
	for name, ft := range f.Thresholds {
		if _, ok := partition.Parse(name); !ok {
			return thresholds.Table{}, fmt.Errorf("fixture: unknown partition %q", name)
		}
		t.Partitions[name] = thresholds.Thresholds{
			Cut:         ft.Cut,
			SigCut:      ft.SigCut,
			MaxMoveCut:  ft.MaxMove,
			MaxErrorCut: ft.MaxError,
		}
	}
	return t, nil
}

// ToEntry converts a FixtureRecord to a replay Entry.
func (fr *FixtureRecord) ToEntry() (Entry, error) {
	p, ok := partition.Parse(fr.Partition)
	if !ok {
		return Entry{}, fmt.Errorf("record %d: unknown partition %q", fr.Label, fr.Partition)
	}
	c, ok := partition.ParseCoord(fr.Coord)
	if !ok {
		return Entry{}, fmt.Errorf("record %d: unknown coordinate %q", fr.Label, fr.Coord)
	}
	return Entry{Label: fr.Label, Partition: p, Coord: c, Move: fr.Movement, Err: fr.Uncertainty}, nil
}

// Entries converts every record of the fixture.
func (f *Fixture) Entries() ([]Entry, error) {
	entries := make([]Entry, 0, len(f.Records))
	for i := range f.Records {
		e, err := f.Records[i].ToEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Check compares replay results with the expectations and returns one
// message per mismatch.
func (f *Fixture) Check(results []ReplayResult) []string {
	var problems []string
	if len(results) != len(f.ExpectedResults) {
		return []string{fmt.Sprintf("expected %d results, got %d", len(f.ExpectedResults), len(results))}
	}
	for i, want := range f.ExpectedResults {
		got := results[i].Outcome
		if got.Label != want.Label {
			problems = append(problems, fmt.Sprintf("record %d: expected label %d, got %d", i, want.Label, got.Label))
		}
		if got.Verdict != gate.Verdict(want.Verdict) {
			problems = append(problems, fmt.Sprintf("record %d (%d): expected %s, got %s (%s)",
				i, want.Label, want.Verdict, got.Verdict, got.Reason))
		}
	}
	if pub := Summarize(results).Published; pub != f.ExpectedPublished {
		problems = append(problems, fmt.Sprintf("expected published=%t, got %t", f.ExpectedPublished, pub))
	}
	return problems
}

// #endregion fixture-loader
