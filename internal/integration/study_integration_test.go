//go:build integration

package integration_test

import (
	"context"
	"fmt"
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
	"github.com/couchcryptid/tidal-verify/internal/result"
	"github.com/couchcryptid/tidal-verify/internal/runner"
	"github.com/couchcryptid/tidal-verify/internal/study"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stageMapFile writes a synthetic map file the fake solver copies into each
// project directory, standing in for real solver output.
func stageMapFile(t *testing.T, c cases.Case) string {
	t.Helper()

	mesh, err := grid.NewRectangle(c.X0, c.X1, c.Y0, c.Y1, c.DX, c.DY)
	require.NoError(t, err)

	spec := grid.MapSpec{
		Mesh:   mesh,
		NSigma: c.Sigma,
		Ref:    time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
		Times:  []float64{0, 3600},
		Depth:  func(x, y float64) float64 { return -c.BedLevel },
		Velocity: func(step int, x, y, sigma float64) (float64, float64, float64) {
			return 0.8, 0, 0
		},
	}

	path := filepath.Join(t.TempDir(), "staged_map.nc")
	require.NoError(t, grid.WriteMapFile(path, spec))
	return path
}

// fakeSolver installs an entry script that copies the staged map file into
// the working project directory instead of running a simulation.
func fakeSolver(t *testing.T, mapPath string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake solver script is posix only")
	}

	bin := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(bin, "bin"), 0o755))
	script := fmt.Sprintf("#!/bin/sh\ncp %q ./out_map.nc\n", mapPath)
	require.NoError(t, os.WriteFile(filepath.Join(bin, "bin", "run_dflowfm.sh"), []byte(script), 0o755))
	return bin
}

// TestStudyEndToEnd drives the full flow: template render, mesh write,
// solver pool, map-file extraction, and validation against a reference
// transect.
func TestStudyEndToEnd(t *testing.T) {
	baseCase, err := cases.Default().GetCase(0)
	require.NoError(t, err)

	templateDir := t.TempDir()
	mdu := "[geometry]\nNetFile = FlowFM_net.nc\nKmax = {{ .sigma }}\n"
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "FlowFM.mdu"), []byte(mdu), 0o644))

	bin := fakeSolver(t, stageMapFile(t, baseCase))
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	r := &runner.Runner{BinPath: bin, Logger: logger}
	pool := runner.NewPool(r, 2, logger, metrics)
	builder := &study.ProjectBuilder{
		TemplateDir: templateDir,
		Model:       runner.ModelFlexible,
		Logger:      logger,
		Metrics:     metrics,
	}
	s := study.New(builder, pool, logger, metrics)

	workDir := t.TempDir()
	results, err := s.Run(context.Background(), cases.Default(), workDir)
	require.NoError(t, err)
	require.Len(t, results, 1)

	cr := results[0]
	require.NoError(t, cr.Err)
	require.NotNil(t, cr.Centreline)

	u, err := cr.Centre.Var("u")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, u[0], 1e-9)

	assert.NoError(t, pool.CheckReadiness(context.Background()))

	// The extracted flow is uniform, so the deficit against a zero-deficit
	// reference transect vanishes.
	ref := result.Transect{
		Name: "centre_u",
		X:    []float64{1, 2, 3},
		Y:    []float64{0, 0, 0},
		Data: []float64{0, 0, 0},
	}
	ref = ref.Translate(result.Offset{
		X: baseCase.TurbPosX,
		Y: baseCase.TurbPosY,
		Z: baseCase.TurbPosZ,
	})

	res, err := result.Open(cr.ProjectDir)
	require.NoError(t, err)
	defer res.Close()

	ps, err := ref.Extract(res.Faces, res.NSteps()-1)
	require.NoError(t, err)
	deficit, err := ps.VarDeficit("u", 0.8)
	require.NoError(t, err)

	rmse, err := study.RMSE(deficit, ref.Data)
	require.NoError(t, err)
	assert.InDelta(t, 0, rmse, 1e-9)
}
