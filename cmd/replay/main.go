package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/pclgate/internal/gate"
	"github.com/danielpatrickdp/pclgate/internal/replay"
	"github.com/danielpatrickdp/pclgate/internal/state"
	"github.com/danielpatrickdp/pclgate/internal/thresholds"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the pclgate history database (DB mode)")
	runID := flag.String("run", "", "stored run to re-evaluate (DB mode)")
	tablePath := flag.String("thresholds", "", "threshold table YAML; empty uses the run's own table (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	flag.Parse()

	dbMode := *dbPath != "" && *runID != ""
	if dbMode == (*fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/pclgate.db --run ID [--thresholds table.yaml]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	logger := zap.NewNop()
	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(os.Stdout, *fixturePath, logger)
	} else {
		exitCode = runDBMode(os.Stdout, *dbPath, *runID, *tablePath, logger)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

func runDBMode(w io.Writer, dbPath, runID, tablePath string, logger *zap.Logger) int {
	store, err := state.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	rec, err := store.GetRun(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get run: %v\n", err)
		return 2
	}

	table := rec.Thresholds
	if tablePath != "" {
		table, err = thresholds.Load(tablePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load thresholds: %v\n", err)
			return 2
		}
	}

	rows, err := store.Records(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query records: %v\n", err)
		return 2
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "run %s has no evaluated records\n", runID)
		return 2
	}

	entries, err := replay.EntriesFromProvenance(rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode records: %v\n", err)
		return 2
	}

	results := replay.Replay(entries, table, logger)
	return printComparison(w, results)
}

// #endregion db-mode

// #region fixture-mode

func runFixtureMode(w io.Writer, path string, logger *zap.Logger) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	table, err := f.ToTable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture thresholds: %v\n", err)
		return 2
	}
	entries, err := f.Entries()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture records: %v\n", err)
		return 2
	}

	results := replay.Replay(entries, table, logger)
	for i := range results {
		if i < len(f.ExpectedResults) {
			results[i].Previous = gate.Verdict(f.ExpectedResults[i].Verdict)
			results[i].Changed = results[i].Previous != results[i].Outcome.Verdict
		}
	}
	printComparison(w, results)

	problems := f.Check(results)
	for _, p := range problems {
		fmt.Fprintf(w, "MISMATCH %s\n", p)
	}
	if len(problems) > 0 {
		return 1
	}
	return 0
}

// #endregion fixture-mode

// #region output

// printComparison outputs a comparison table and returns the exit code: 1
// when any verdict or the publish decision changed.
func printComparison(w io.Writer, results []replay.ReplayResult) int {
	fmt.Fprintf(w, "%-12s| %-28s| %-8s| %-19s| %-19s| %s\n", "Label", "Partition", "Coord", "Recorded", "Replayed", "Match")
	fmt.Fprintf(w, "%-12s+%-29s+%-9s+%-20s+%-20s+%s\n",
		"------------", "-----------------------------", "---------", "--------------------", "--------------------", "------")

	for _, r := range results {
		match := "OK"
		if r.Changed {
			match = "DIFF"
		}
		prev := string(r.Previous)
		if prev == "" {
			prev = "-"
		}
		o := r.Outcome
		fmt.Fprintf(w, "%-12d| %-28s| %-8s| %-19s| %-19s| %s\n",
			o.Label, o.Partition.Name(), o.Coord, prev, o.Verdict, match)
	}

	s := replay.Summarize(results)
	fmt.Fprintf(w, "\nSummary: %d total, %d changed, %d approvals, %d vetoes, status %s\n",
		s.Total, s.Changed, s.Approvals, s.Vetoes, s.Status)
	fmt.Fprintf(w, "Published: recorded=%t replayed=%t\n", s.PreviouslyPublished, s.Published)

	if s.Changed > 0 || s.Published != s.PreviouslyPublished {
		return 1
	}
	return 0
}

// #endregion output
