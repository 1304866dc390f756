package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/pclgate/internal/logging"
	"github.com/danielpatrickdp/pclgate/internal/replay"
	"github.com/danielpatrickdp/pclgate/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the pclgate history database")
	runID := flag.String("run", "", "run to export; empty exports the published run")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/pclgate.db --out path/to/fixture.json [--run ID]")
		os.Exit(2)
	}

	if err := run(*dbPath, *runID, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath, runID, outPath string) error {
	store, err := state.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	var rec state.RunRecord
	if runID == "" {
		rec, err = store.GetPublished()
	} else {
		rec, err = store.GetRun(runID)
	}
	if err != nil {
		return err
	}

	rows, err := store.Records(rec.RunID)
	if err != nil {
		return fmt.Errorf("query records: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("run %s has no evaluated records", rec.RunID)
	}

	fixture := buildFixture(rec, rows)

	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}

	fmt.Printf("Exported %d records from run %s to %s\n", len(rows), rec.RunID, outPath)
	return nil
}

// #endregion extract

// #region build

// buildFixture freezes a stored run as a replay fixture: its full threshold
// table, every record and the verdicts it got.
func buildFixture(rec state.RunRecord, rows []logging.ProvenanceEntry) replay.Fixture {
	f := replay.Fixture{
		Description:       fmt.Sprintf("exported from run %s (%s)", rec.RunID, rec.CreatedAt.Format("2006-01-02T15:04:05Z")),
		Thresholds:        make(map[string]replay.FixtureThresholds, len(rec.Thresholds.Partitions)),
		ExpectedPublished: rec.Results.Published,
	}
	for name, th := range rec.Thresholds.Partitions {
		f.Thresholds[name] = replay.FixtureThresholds{
			Cut:      th.Cut,
			SigCut:   th.SigCut,
			MaxMove:  th.MaxMoveCut,
			MaxError: th.MaxErrorCut,
		}
	}
	for _, r := range rows {
		f.Records = append(f.Records, replay.FixtureRecord{
			Label:       r.Label,
			Partition:   r.Partition,
			Coord:       r.Coord,
			Movement:    r.Movement,
			Uncertainty: r.Uncertainty,
		})
		f.ExpectedResults = append(f.ExpectedResults, replay.FixtureExpectedResult{
			Label:   r.Label,
			Verdict: r.Verdict,
		})
	}
	return f
}

// #endregion build
