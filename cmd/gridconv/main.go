// Command gridconv runs a grid-convergence study: it expands a case study
// over a sequence of decreasing grid spacings, prepares a solver project per
// case from an input template, runs the batch, extracts the wake centreline
// and turbine-centre velocity from each map file, and writes a report with
// the observed order of accuracy.
//
// While the batch runs, health, readiness, batch status, and Prometheus
// metrics are served on HTTP_ADDR.
//
// Usage:
//
//	go run ./cmd/gridconv \
//	  -template templates/fm \
//	  -work /tmp/gridconv \
//	  -spacings 1,0.5,0.25,0.2 \
//	  -report report.md
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/tidal-verify/internal/adapter/http"
	"github.com/couchcryptid/tidal-verify/internal/cases"
	"github.com/couchcryptid/tidal-verify/internal/config"
	"github.com/couchcryptid/tidal-verify/internal/observability"
	"github.com/couchcryptid/tidal-verify/internal/report"
	"github.com/couchcryptid/tidal-verify/internal/runner"
	"github.com/couchcryptid/tidal-verify/internal/study"
)

func main() {
	templateDir := flag.String("template", "", "solver input template directory")
	workDir := flag.String("work", "", "directory to prepare project directories under")
	casesPath := flag.String("cases", "", "optional YAML file overriding the base case")
	spacings := flag.String("spacings", "1,0.5,0.25,0.2", "comma-separated grid spacings, coarse to fine")
	reportPath := flag.String("report", "report.md", "output path for the study report")
	flag.Parse()

	if *templateDir == "" || *workDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics, *templateDir, *workDir, *casesPath, *spacings, *reportPath); err != nil {
		logger.Error("study failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics,
	templateDir, workDir, casesPath, spacings, reportPath string) error {
	levels, err := parseSpacings(spacings)
	if err != nil {
		return err
	}

	cs, err := baseStudy(casesPath)
	if err != nil {
		return err
	}
	if err := cs.SetField("dx", cases.Floats(levels...)); err != nil {
		return err
	}
	if err := cs.SetField("dy", cases.Floats(levels...)); err != nil {
		return err
	}

	model, err := runner.DetectModel(templateDir)
	if err != nil {
		return fmt.Errorf("inspecting template: %w", err)
	}

	r := &runner.Runner{
		BinPath:    cfg.D3DBin,
		OMPThreads: cfg.OMPThreads,
		ShowStdout: cfg.ShowStdout,
		Logger:     logger,
	}
	pool := runner.NewPool(r, cfg.MaxWorkers, logger, metrics)
	builder := &study.ProjectBuilder{
		TemplateDir: templateDir,
		Model:       model,
		Logger:      logger,
		Metrics:     metrics,
	}
	s := study.New(builder, pool, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, pool, pool, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := s.Run(ctx, cs, workDir)
	if err != nil {
		return err
	}

	rep, err := buildReport(cfg, results)
	if err != nil {
		return err
	}
	if err := os.WriteFile(reportPath, []byte(rep.String()), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	logger.Info("report written", "path", reportPath)
	return nil
}

func baseStudy(casesPath string) (cases.CaseStudy, error) {
	if casesPath == "" {
		return cases.Default(), nil
	}
	return cases.FromYAML(casesPath)
}

func parseSpacings(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	levels := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid spacing %q", p)
		}
		levels = append(levels, v)
	}
	if len(levels) < 3 {
		return nil, fmt.Errorf("need at least 3 spacings for a convergence study, got %d", len(levels))
	}
	return levels, nil
}

// buildReport assembles the convergence table and per-level centreline
// summaries into a report document.
func buildReport(cfg *config.Config, results []study.CaseResult) (*report.Report, error) {
	rep := &report.Report{
		Title: "Grid Convergence Study",
		Width: cfg.ReportWidth,
	}
	rep.SetDate(time.Now())

	spacings := make([]float64, 0, len(results))
	values := make([]float64, 0, len(results))
	var failed int
	for _, cr := range results {
		if cr.Err != nil {
			failed++
			continue
		}
		u, err := cr.Centre.Var("u")
		if err != nil {
			return nil, err
		}
		spacings = append(spacings, cr.Case.DX)
		values = append(values, u[0])
	}
	if failed > 0 {
		rep.Content.AddText(fmt.Sprintf("%d of %d cases failed and are excluded below.", failed, len(results)))
	}

	rep.Content.AddHeading("Turbine Centre Velocity", 1)
	rows, err := study.Convergence(spacings, values)
	if err != nil {
		return nil, fmt.Errorf("convergence table: %w", err)
	}

	table := make([][]string, len(rows))
	for i, row := range rows {
		order := "-"
		if !math.IsNaN(row.Order) {
			order = strconv.FormatFloat(row.Order, 'f', 3, 64)
		}
		table[i] = []string{
			strconv.FormatFloat(row.Spacing, 'g', -1, 64),
			strconv.FormatFloat(row.Value, 'g', 6, 64),
			order,
		}
	}
	rep.Content.AddTable([]string{"dx (m)", "u (m/s)", "order"},
		table, "Observed order of accuracy at the turbine centre.")

	rep.Content.AddHeading("Centreline", 1)
	for i, cr := range results {
		if cr.Err != nil {
			continue
		}
		u, err := cr.Centreline.Var("u")
		if err != nil {
			return nil, err
		}
		lo, hi := u[0], u[0]
		for _, v := range u[1:] {
			lo, hi = min(lo, v), max(hi, v)
		}
		rep.Content.AddText(fmt.Sprintf("Level %d (dx = %g m): %d points, u in [%.4f, %.4f] m/s.",
			i, cr.Case.DX, len(u), lo, hi))
	}

	return rep, nil
}
