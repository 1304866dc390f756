package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/danielpatrickdp/pclgate/internal/logging"
	"github.com/danielpatrickdp/pclgate/internal/metrics"
	"github.com/danielpatrickdp/pclgate/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the pclgate history database")
	last := flag.Int("last", 20, "show N most recent runs")
	run := flag.String("run", "", "show single run detail")
	partitionFilter := flag.String("partition", "", "filter run records to one partition")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/pclgate.db [--last N] [--run id] [--partition name] [--json]")
		os.Exit(2)
	}

	store, err := state.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *run != "" {
		err = runDetailMode(os.Stdout, store, *run, *partitionFilter, *jsonOut)
	} else {
		err = runListMode(os.Stdout, store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID     string `json:"run_id"`
	Outcome   string `json:"outcome"`
	Status    string `json:"status"`
	NRecords  int    `json:"n_records"`
	ExitCode  int    `json:"exit_code"`
	Approvals int    `json:"approvals"`
	Vetoes    int    `json:"vetoes"`
	CreatedAt string `json:"created_at"`
}

func runListMode(w io.Writer, store *state.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	// store returns newest first, print chronologically
	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[len(runs)-1-i] = listRow{
			RunID:     r.RunID,
			Outcome:   metrics.Outcome(r.Results),
			Status:    r.Results.Status.String(),
			NRecords:  r.Results.NRecords,
			ExitCode:  r.Results.ExitCode,
			Approvals: r.Results.Approvals,
			Vetoes:    r.Results.Vetoes,
			CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(w, rows)
	}
	printListTable(w, rows)
	return nil
}

func printListTable(w io.Writer, rows []listRow) {
	fmt.Fprintf(w, "%-10s  %-10s  %9s  %4s  %5s  %5s  %-20s  %s\n",
		"Run", "Outcome", "NREC", "Exit", "Appr", "Veto", "Time", "Status")
	fmt.Fprintf(w, "%-10s+-%-10s+-%9s+-%4s+-%5s+-%5s+-%-20s+-%s\n",
		"----------", "----------", "---------", "----", "-----", "-----", "--------------------", "------")
	for _, r := range rows {
		fmt.Fprintf(w, "%-10s  %-10s  %9d  %4d  %5d  %5d  %-20s  %s\n",
			shortID(r.RunID), r.Outcome, r.NRecords, r.ExitCode, r.Approvals, r.Vetoes, r.CreatedAt, r.Status)
	}
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	Run     state.RunRecord           `json:"run"`
	Outcome string                    `json:"outcome"`
	Records []logging.ProvenanceEntry `json:"records"`
}

func runDetailMode(w io.Writer, store *state.Store, runID, partitionFilter string, jsonOut bool) error {
	rec, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	rows, err := store.Records(runID)
	if err != nil {
		return err
	}

	out := detailOutput{Run: rec, Outcome: metrics.Outcome(rec.Results), Records: []logging.ProvenanceEntry{}}
	for _, row := range rows {
		if partitionFilter != "" && row.Partition != partitionFilter {
			continue
		}
		out.Records = append(out.Records, row)
	}

	if jsonOut {
		return printJSON(w, out)
	}

	res := rec.Results
	fmt.Fprintf(w, "Run:        %s\n", rec.RunID)
	fmt.Fprintf(w, "Created:    %s\n", rec.CreatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Fprintf(w, "Outcome:    %s\n", out.Outcome)
	fmt.Fprintf(w, "Status:     %s\n", res.Status)
	fmt.Fprintf(w, "NREC:       %d (below minimum: %v)\n", res.NRecords, res.RecordsBelowMinimum)
	fmt.Fprintf(w, "Binaries:   %d\n", res.Binaries)
	fmt.Fprintf(w, "Exit:       %d %s\n", res.ExitCode, res.ExitMessage)
	fmt.Fprintf(w, "Result:     %s\n", rec.Files.Result)

	fmt.Fprintf(w, "\nRecords:\n")
	printRecords(w, out.Records)
	return nil
}

// #endregion detail-mode

// #region output

func printRecords(w io.Writer, rows []logging.ProvenanceEntry) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-10d %-28s %-8s %10.3f %10.3f  %s\n",
			r.Label, r.Partition, r.Coord, r.Movement, r.Uncertainty, r.Verdict)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
