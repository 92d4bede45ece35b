package study

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/tidal-verify/internal/cases"
	"github.com/couchcryptid/tidal-verify/internal/grid"
	"github.com/couchcryptid/tidal-verify/internal/observability"
	"github.com/couchcryptid/tidal-verify/internal/runner"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTemplate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	mdu := "[geometry]\nKmax = {{ .sigma }}\n[time]\nDtMax = {{ .dt_max }}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "FlowFM.mdu"), []byte(mdu), 0o644))
	return dir
}

func testBuilder(t *testing.T, model runner.Model) *ProjectBuilder {
	t.Helper()
	return &ProjectBuilder{
		TemplateDir: testTemplate(t),
		Model:       model,
		Logger:      discardLogger(),
		Metrics:     observability.NewMetricsForTesting(),
	}
}

// mapWritingSimulator stands in for the solver: instead of running a binary
// it writes a synthetic map file into each project directory.
type mapWritingSimulator struct{}

func (mapWritingSimulator) Run(_ context.Context, jobs []runner.Job) []runner.JobResult {
	results := make([]runner.JobResult, len(jobs))
	for i, job := range jobs {
		mesh, err := grid.NewRectangle(0, 18, 1, 5, 1, 1)
		if err == nil {
			spec := grid.MapSpec{
				Mesh:   mesh,
				NSigma: 3,
				Ref:    time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
				Times:  []float64{0, 3600},
				Depth:  func(x, y float64) float64 { return 2 },
				Velocity: func(step int, x, y, sigma float64) (float64, float64, float64) {
					return 1 + 0.01*x, 0, 0
				},
			}
			err = grid.WriteMapFile(filepath.Join(job.ProjectDir, "out_map.nc"), spec)
		}
		results[i] = runner.JobResult{Job: job, Err: err}
	}
	return results
}

func TestProjectBuilderPrepareFlexible(t *testing.T) {
	b := testBuilder(t, runner.ModelFlexible)
	dst := filepath.Join(t.TempDir(), "case_0")

	c := defaultCase(t)
	require.NoError(t, b.Prepare(c, dst))

	rendered, err := os.ReadFile(filepath.Join(dst, "FlowFM.mdu"))
	require.NoError(t, err)
	assert.Contains(t, string(rendered), "Kmax = 3")
	assert.Contains(t, string(rendered), "DtMax = 1")

	_, err = os.Stat(filepath.Join(dst, "FlowFM_net.nc"))
	assert.NoError(t, err)
}

func TestProjectBuilderPrepareStructured(t *testing.T) {
	b := testBuilder(t, runner.ModelStructured)
	dst := filepath.Join(t.TempDir(), "case_0")

	require.NoError(t, b.Prepare(defaultCase(t), dst))

	_, err := os.Stat(filepath.Join(dst, "D3D.grd"))
	assert.NoError(t, err)
}

func TestProjectBuilderBadSpacing(t *testing.T) {
	b := testBuilder(t, runner.ModelFlexible)

	c := defaultCase(t)
	c.DX = 7 // does not divide the 18 m extent
	err := b.Prepare(c, filepath.Join(t.TempDir(), "case_0"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not divide")
}

func TestStudyRun(t *testing.T) {
	b := testBuilder(t, runner.ModelFlexible)
	s := New(b, mapWritingSimulator{}, discardLogger(), observability.NewMetricsForTesting())

	cs := cases.Default()
	require.NoError(t, cs.SetField("dt_max", cases.Many(cases.Float(1), cases.Float(0.5))))

	results, err := s.Run(context.Background(), cs, t.TempDir())
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i, cr := range results {
		require.NoError(t, cr.Err, "case %d", i)
		require.NotNil(t, cr.Centre)
		require.NotNil(t, cr.Centreline)

		// u = 1 + 0.01x at the turbine position x=6.
		u, err := cr.Centre.Var("u")
		require.NoError(t, err)
		assert.InDelta(t, 1.06, u[0], 1e-9)

		// Centreline runs from the turbine to the domain edge at 0.5 m steps.
		assert.Len(t, cr.Centreline.X, 25)
		assert.InDelta(t, 6.0, cr.Centreline.X[0], 1e-12)
		assert.InDelta(t, 18.0, cr.Centreline.X[24], 1e-12)
	}
}

func TestStudyRunSolverFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("entry point script is posix only")
	}
	b := testBuilder(t, runner.ModelFlexible)

	bin := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(bin, "bin"), 0o755))
	script := "#!/bin/sh\necho boom >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(bin, "bin", "run_dflowfm.sh"), []byte(script), 0o755))

	r := &runner.Runner{BinPath: bin, Logger: discardLogger()}
	pool := runner.NewPool(r, 1, discardLogger(), observability.NewMetricsForTesting())
	s := New(b, pool, discardLogger(), observability.NewMetricsForTesting())

	results, err := s.Run(context.Background(), cases.Default(), t.TempDir())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Nil(t, results[0].Centreline)
}

func defaultCase(t *testing.T) cases.Case {
	t.Helper()
	c, err := cases.Default().GetCase(0)
	require.NoError(t, err)
	return c
}
