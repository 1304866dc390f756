package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/pclgate/internal/config"
	"github.com/danielpatrickdp/pclgate/internal/geometry"
	"github.com/danielpatrickdp/pclgate/internal/state"
)

// #region fixtures
const geometryYAML = `elements:
  - label: 100
    id: 1
    type: TPBHalfBarrel
    half_barrel: 1
  - label: 140
    id: 5
    type: TPBLadder
    layer: 1
    half_barrel: 1
    ladder: 3
`

const resultHeader = "Parameter ! first 3 elements per line are significant (if used as input)\n"

// testConfig writes a complete run into a temp dir. result is the body of the
// result file without its header.
func testConfig(t *testing.T, result string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	cfg := config.DefaultConfig()
	cfg.Files.End = write("millepede.end", "0  Ended normally\n")
	cfg.Files.Log = write("millepede.log", "C_binary milleBinary001.dat\n NREC =  120000\n")
	cfg.Files.Result = write("millepede.res", resultHeader+result)
	cfg.Geometry.Static = write("geometry.yaml", geometryYAML)
	cfg.History.Path = filepath.Join(dir, "history.db")
	return cfg
}

// #endregion fixtures

func TestRunReadPublishes(t *testing.T) {
	cfg := testConfig(t, "101  0.0  0.0  0.0012  0.0001\n")
	var buf bytes.Buffer

	out, err := runRead(t.Context(), cfg, readOptions{}, zap.NewNop(), &buf)
	require.NoError(t, err)
	assert.True(t, out.StoreAlignments)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, 120000, out.Results.NRecords)
	assert.Equal(t, 0, out.Results.ExitCode)

	var printed readOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &printed))
	assert.Equal(t, out.RunID, printed.RunID)
	assert.Equal(t, "exceeds_cutoff", printed.Status)

	store, err := state.NewStore(cfg.History.Path)
	require.NoError(t, err)
	defer store.Close()

	published, err := store.GetPublished()
	require.NoError(t, err)
	assert.Equal(t, out.RunID, published.RunID)

	rows, err := store.Records(out.RunID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "significant", rows[0].Verdict)
}

func TestRunReadVetoWritesMetrics(t *testing.T) {
	cfg := testConfig(t, "101  0.0  0.0  0.0012  0.0001\n141  0.0  0.0  0.0500  0.0001\n")
	metricsPath := filepath.Join(t.TempDir(), "pclgate.prom")

	out, err := runRead(t.Context(), cfg, readOptions{MetricsFile: metricsPath}, zap.NewNop(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, out.StoreAlignments)
	assert.True(t, out.Results.Vetoed)
	assert.True(t, out.Results.ExceedsThresholds())

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pclgate_runs_total{outcome="vetoed"} 1`)
	assert.Contains(t, string(data), `pclgate_records_total{partition="TPBLadder",verdict="exceeds_threshold"} 1`)
}

func TestRunReadWithoutHistory(t *testing.T) {
	cfg := testConfig(t, "101  0.0  0.0  0.0012  0.0001\n")
	cfg.History.Path = ""

	out, err := runRead(t.Context(), cfg, readOptions{}, zap.NewNop(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Empty(t, out.RunID)
	assert.True(t, out.StoreAlignments)
}

func TestRunReadRequiresGeometry(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Geometry.Static = ""

	_, err := runRead(t.Context(), cfg, readOptions{}, zap.NewNop(), &bytes.Buffer{})
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRunReadThresholdFile(t *testing.T) {
	cfg := testConfig(t, "101  0.0  0.0  0.0012  0.0001\n")
	cfg.Thresholds = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := runRead(t.Context(), cfg, readOptions{}, zap.NewNop(), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunServe(t *testing.T) {
	cfg := testConfig(t, "101  0.0  0.0  0.0012  0.0001\n")
	_, err := runRead(t.Context(), cfg, readOptions{}, zap.NewNop(), &bytes.Buffer{})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, cfg, ln, zap.NewNop()) }()

	base := "http://" + ln.Addr().String()
	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	body := new(strings.Builder)
	_, err = io.Copy(body, resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, body.String(), `pclgate_runs_total{outcome="published"} 1`)

	resp, err = http.Get(base + "/api/published")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestRunServeRequiresHistory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.History.Path = ""
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	err = runServe(t.Context(), cfg, ln, zap.NewNop())
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRunGeometryServe(t *testing.T) {
	cfg := testConfig(t, "")
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- runGeometryServe(ctx, cfg, ln, zap.NewNop()) }()

	remote, err := geometry.NewRemote(ln.Addr().String(), 5*time.Second)
	require.NoError(t, err)
	defer remote.Close()

	a, ok, err := remote.AlignableFromLabel(t.Context(), 143)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(5), a.ID)
	assert.Equal(t, geometry.TPBLadder, a.Type)

	attrs, err := remote.Resolve(t.Context(), 5)
	require.NoError(t, err)
	assert.Equal(t, 3, attrs.Ladder)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("geometry server did not stop")
	}
}
