package state

import (
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/pclgate/internal/reader"
	"github.com/danielpatrickdp/pclgate/internal/thresholds"
)

// #region run-record
// RunRecord is one evaluated calibration run as kept in the history.
type RunRecord struct {
	RunID      string           `json:"run_id"`
	Files      reader.Files     `json:"files"`
	Results    reader.Results   `json:"results"`
	Thresholds thresholds.Table `json:"thresholds"`
	CreatedAt  time.Time        `json:"created_at"`
}

// NewRunRecord stamps a snapshot with a fresh run id.
func NewRunRecord(snap *reader.Snapshot) RunRecord {
	return RunRecord{
		RunID:      uuid.New().String(),
		Files:      snap.Files(),
		Results:    snap.Results(),
		Thresholds: snap.Thresholds(),
		CreatedAt:  time.Now().UTC(),
	}
}
// #endregion run-record
