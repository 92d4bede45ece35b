package study

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/tidal-verify/internal/cases"
	"github.com/couchcryptid/tidal-verify/internal/observability"
	"github.com/couchcryptid/tidal-verify/internal/result"
	"github.com/couchcryptid/tidal-verify/internal/runner"
)

// centrelineStep is the downstream sample spacing for wake centrelines.
const centrelineStep = 0.5

// Preparer materialises one case into a runnable project directory.
type Preparer interface {
	Prepare(c cases.Case, projectDir string) error
}

// Simulator runs prepared projects and reports one result per job.
type Simulator interface {
	Run(ctx context.Context, jobs []runner.Job) []runner.JobResult
}

// CaseResult is the outcome of one case: the solver run plus the wake
// quantities extracted from its map file.
type CaseResult struct {
	Case       cases.Case
	ProjectDir string
	Err        error

	Centre     *result.PointSet
	Centreline *result.PointSet
}

// Study orchestrates the prepare-simulate-extract sequence for all cases
// of a CaseStudy.
type Study struct {
	preparer  Preparer
	simulator Simulator
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Study with the given stages and observability.
func New(p Preparer, s Simulator, logger *slog.Logger, metrics *observability.Metrics) *Study {
	return &Study{preparer: p, simulator: s, logger: logger, metrics: metrics}
}

// Run expands the study, prepares a project per case under workDir, runs the
// solver batch, and extracts wake quantities from each completed run. A case
// that fails carries its error in the returned slice; Run itself only fails
// on problems before the batch starts.
func (s *Study) Run(ctx context.Context, cs cases.CaseStudy, workDir string) ([]CaseResult, error) {
	expanded, err := cs.Cases()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}

	results := make([]CaseResult, len(expanded))
	jobs := make([]runner.Job, len(expanded))
	for i, c := range expanded {
		name := fmt.Sprintf("case_%d", i)
		dir := filepath.Join(workDir, name)
		if err := s.preparer.Prepare(c, dir); err != nil {
			return nil, fmt.Errorf("preparing %s: %w", name, err)
		}
		results[i] = CaseResult{Case: c, ProjectDir: dir}
		jobs[i] = runner.Job{Name: name, ProjectDir: dir}
		s.logger.Info("case prepared", "case", name, "dx", c.DX, "dy", c.DY)
	}

	for i, jr := range s.simulator.Run(ctx, jobs) {
		if jr.Err != nil {
			results[i].Err = jr.Err
			continue
		}
		if err := s.extract(&results[i]); err != nil {
			results[i].Err = err
		}
	}
	return results, nil
}

// extract pulls the turbine-centre value and the wake centreline from the
// last timestep of a completed run.
func (s *Study) extract(cr *CaseResult) error {
	start := time.Now()

	res, err := result.Open(cr.ProjectDir)
	if err != nil {
		return err
	}
	defer res.Close()

	step := res.NSteps() - 1
	centre, err := res.Faces.ExtractTurbineCentre(step, cr.Case, result.Offset{})
	if err != nil {
		return fmt.Errorf("extracting turbine centre: %w", err)
	}
	line, err := res.Faces.ExtractTurbineCentreline(step, cr.Case, centrelineStep, result.Offset{})
	if err != nil {
		return fmt.Errorf("extracting centreline: %w", err)
	}

	cr.Centre = centre
	cr.Centreline = line
	s.metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	return nil
}
