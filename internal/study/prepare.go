package study

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/tidal-verify/internal/cases"
	"github.com/couchcryptid/tidal-verify/internal/grid"
	"github.com/couchcryptid/tidal-verify/internal/observability"
	"github.com/couchcryptid/tidal-verify/internal/runner"
	"github.com/couchcryptid/tidal-verify/internal/template"
)

// Grid file names the solver input templates reference.
const (
	netFileName  = "FlowFM_net.nc"
	gridFileName = "D3D.grd"
)

// ProjectBuilder renders the input template for a case and writes the mesh
// file the engine expects. The mesh is generated per case since dx and dy
// vary across a grid-convergence study.
type ProjectBuilder struct {
	TemplateDir string
	Model       runner.Model
	Logger      *slog.Logger
	Metrics     *observability.Metrics
}

// Prepare renders the template into projectDir and writes the case's mesh
// next to the engine input file.
func (b *ProjectBuilder) Prepare(c cases.Case, projectDir string) error {
	if err := template.Apply(b.TemplateDir, projectDir, c.Fields(), false); err != nil {
		return err
	}

	mesh, err := grid.NewRectangle(c.X0, c.X1, c.Y0, c.Y1, c.DX, c.DY)
	if err != nil {
		return fmt.Errorf("building mesh: %w", err)
	}

	switch b.Model {
	case runner.ModelFlexible:
		dir, err := inputDir(projectDir, ".mdu")
		if err != nil {
			return err
		}
		if err := grid.WriteNetFile(filepath.Join(dir, netFileName), mesh); err != nil {
			return err
		}
		b.Metrics.GridsWritten.WithLabelValues("net").Inc()
	case runner.ModelStructured:
		dir, err := inputDir(projectDir, "config_d_hydro.xml")
		if err != nil {
			return err
		}
		if err := grid.WriteGridFile(filepath.Join(dir, gridFileName), mesh); err != nil {
			return err
		}
		b.Metrics.GridsWritten.WithLabelValues("structured").Inc()
	default:
		return fmt.Errorf("unknown model %v", b.Model)
	}

	b.Logger.Debug("mesh written", "dir", projectDir, "nx", mesh.NX, "ny", mesh.NY)
	return nil
}

// inputDir locates the directory holding the engine input file so the mesh
// lands beside it. Falls back to the project root when the template carries
// no input file yet.
func inputDir(projectDir, suffix string) (string, error) {
	found := projectDir
	err := filepath.WalkDir(projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), suffix) {
			found = filepath.Dir(path)
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("locating engine input: %w", err)
	}
	return found, nil
}
