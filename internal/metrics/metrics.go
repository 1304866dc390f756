package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danielpatrickdp/pclgate/internal/gate"
	"github.com/danielpatrickdp/pclgate/internal/reader"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomePublished = "published"
	OutcomeVetoed    = "vetoed"
	OutcomeNoUpdate  = "no_update"
)

var statusBitNames = []struct {
	bit  gate.StatusBits
	name string
}{
	{gate.ExceedsThreshold, "exceeds_threshold"},
	{gate.ExceedsCutoff, "exceeds_cutoff"},
	{gate.ExceedsMaxError, "exceeds_max_error"},
	{gate.BelowSignificance, "below_significance"},
}

// Recorder exports decision metrics for evaluated runs.
type Recorder struct {
	runs         *prometheus.CounterVec
	records      *prometheus.CounterVec
	statusBits   *prometheus.CounterVec
	readDuration prometheus.Histogram
	lastNrec     prometheus.Gauge
	lastBinaries prometheus.Gauge
	lastExitCode prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pclgate_runs_total",
			Help: "Evaluated calibration runs by outcome",
		}, []string{"outcome"}),
		records: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pclgate_records_total",
			Help: "Evaluated corrections by partition and verdict",
		}, []string{"partition", "verdict"}),
		statusBits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pclgate_status_bits_total",
			Help: "Runs that ended with a status bit set",
		}, []string{"bit"}),
		readDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pclgate_read_duration_seconds",
			Help:    "Time to parse and evaluate one run",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),
		lastNrec: f.NewGauge(prometheus.GaugeOpts{
			Name: "pclgate_last_records",
			Help: "Record count reported by the last run's log file",
		}),
		lastBinaries: f.NewGauge(prometheus.GaugeOpts{
			Name: "pclgate_last_binaries",
			Help: "Binary files listed in the last run's log file",
		}),
		lastExitCode: f.NewGauge(prometheus.GaugeOpts{
			Name: "pclgate_last_exit_code",
			Help: "Exit code from the last run's end file",
		}),
	}
}

// Outcome classifies a run for the runs counter.
func Outcome(r reader.Results) string {
	switch {
	case r.Published:
		return OutcomePublished
	case r.Vetoed:
		return OutcomeVetoed
	}
	return OutcomeNoUpdate
}

// Observe records one finished run.
func (m *Recorder) Observe(r reader.Results, outcomes []gate.Outcome, took time.Duration) {
	m.Restore(r, outcomes)
	m.readDuration.Observe(took.Seconds())
}

// Restore records a run taken from the history, whose read time is unknown.
func (m *Recorder) Restore(r reader.Results, outcomes []gate.Outcome) {
	m.runs.WithLabelValues(Outcome(r)).Inc()
	for _, o := range outcomes {
		m.records.WithLabelValues(o.Partition.Name(), string(o.Verdict)).Inc()
	}
	for _, sb := range statusBitNames {
		if r.Status.Has(sb.bit) {
			m.statusBits.WithLabelValues(sb.name).Inc()
		}
	}
	m.lastNrec.Set(float64(r.NRecords))
	m.lastBinaries.Set(float64(r.Binaries))
	m.lastExitCode.Set(float64(r.ExitCode))
}
