package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/pclgate/internal/gate"
	"github.com/danielpatrickdp/pclgate/internal/partition"
	"github.com/danielpatrickdp/pclgate/internal/reader"
	"github.com/danielpatrickdp/pclgate/internal/state"
	"github.com/danielpatrickdp/pclgate/internal/thresholds"
)

func seeded(t *testing.T) *state.Store {
	t.Helper()
	s, err := state.NewStore(filepath.Join(t.TempDir(), "pclgate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	runs := []struct {
		id        string
		published bool
	}{
		{"aaaaaaaa-1111", false},
		{"bbbbbbbb-2222", true},
	}
	for i, r := range runs {
		rec := state.RunRecord{
			RunID:      r.id,
			Files:      reader.Files{Result: "/runs/" + r.id + "/millepede.res"},
			Results:    reader.Results{Published: r.published, UpdateDB: true, Vetoed: !r.published, NRecords: 90000},
			Thresholds: thresholds.DefaultTable(),
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}
		outcomes := []gate.Outcome{
			{Label: 101, Partition: partition.TPBHalfBarrelXminus, Coord: partition.X, Move: 12, Err: 1, Verdict: gate.VerdictSignificant},
			{Label: 146, Partition: partition.TPBLadder, Coord: partition.ThetaZ, Move: 3, Err: 1, Verdict: gate.VerdictWithinCutoff},
		}
		require.NoError(t, s.SaveRun(rec, outcomes))
	}
	return s
}

func TestListModeTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runListMode(&buf, seeded(t), 10, false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[2], "aaaaaaaa"), "oldest run first: %q", lines[2])
	assert.Contains(t, lines[2], "vetoed")
	assert.Contains(t, lines[3], "published")
}

func TestListModeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runListMode(&buf, seeded(t), 1, true))

	var rows []listRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "bbbbbbbb-2222", rows[0].RunID)
}

func TestDetailModePartitionFilter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runDetailMode(&buf, seeded(t), "bbbbbbbb-2222", "TPBLadder", true))

	var out detailOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "published", out.Outcome)
	require.Len(t, out.Records, 1)
	assert.Equal(t, uint64(146), out.Records[0].Label)
}

func TestDetailModeUnknownRun(t *testing.T) {
	err := runDetailMode(&bytes.Buffer{}, seeded(t), "missing", "", false)
	assert.ErrorIs(t, err, state.ErrRunNotFound)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abcdefgh", shortID("abcdefghijk"))
	assert.Equal(t, "abc", shortID("abc"))
}
