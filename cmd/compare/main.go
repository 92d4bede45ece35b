// Command compare validates a single simulation case against experimental
// reference transects: it prepares and runs the case, samples the simulated
// velocity at each reference transect's measurement points, converts both to
// percentage velocity deficits, and reports the RMSE per transect.
//
// Reference transects are YAML or CSV files in the format the result package
// reads; their coordinates are turbine-relative and are translated to the
// simulation frame using the case's turbine position.
//
// Usage:
//
//	go run ./cmd/compare \
//	  -template templates/fm \
//	  -work /tmp/compare \
//	  -data reference/transects \
//	  -u0 0.8 \
//	  -report comparison.md
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/tidal-verify/internal/adapter/http"
	"github.com/couchcryptid/tidal-verify/internal/cases"
	"github.com/couchcryptid/tidal-verify/internal/config"
	"github.com/couchcryptid/tidal-verify/internal/observability"
	"github.com/couchcryptid/tidal-verify/internal/report"
	"github.com/couchcryptid/tidal-verify/internal/result"
	"github.com/couchcryptid/tidal-verify/internal/runner"
	"github.com/couchcryptid/tidal-verify/internal/study"
)

func main() {
	templateDir := flag.String("template", "", "solver input template directory")
	workDir := flag.String("work", "", "directory to prepare the project directory under")
	dataDir := flag.String("data", "", "directory of reference transect files")
	casesPath := flag.String("cases", "", "optional YAML file overriding the base case")
	mycek := flag.Bool("mycek", false, "pin the domain and turbine placement to the Mycek flume setup")
	u0 := flag.Float64("u0", 0.8, "free-stream velocity in m/s used for deficits")
	reportPath := flag.String("report", "comparison.md", "output path for the comparison report")
	flag.Parse()

	if *templateDir == "" || *workDir == "" || *dataDir == "" {
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

	if err := run(cfg, logger, metrics, *templateDir, *workDir, *dataDir, *casesPath, *mycek, *u0, *reportPath); err != nil {
		logger.Error("comparison failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics,
	templateDir, workDir, dataDir, casesPath string, mycek bool, u0 float64, reportPath string) error {
	cs, err := loadStudy(casesPath, mycek)
	if err != nil {
		return err
	}
	if cs.Len() != 1 {
		return fmt.Errorf("comparison needs exactly one case, study expands to %d", cs.Len())
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
	cr := results[0]
	if cr.Err != nil {
		return cr.Err
	}

	rep, err := buildReport(cfg, cr, dataDir, u0)
	if err != nil {
		return err
	}
	if err := os.WriteFile(reportPath, []byte(rep.String()), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	logger.Info("report written", "path", reportPath)
	return nil
}

func loadStudy(casesPath string, mycek bool) (cases.CaseStudy, error) {
	switch {
	case mycek && casesPath == "":
		return cases.MycekStudy(), nil
	case mycek:
		return cases.MycekFromYAML(casesPath)
	case casesPath == "":
		return cases.Default(), nil
	default:
		return cases.FromYAML(casesPath)
	}
}

// buildReport samples the simulation at each reference transect and tables
// the deficit RMSEs.
func buildReport(cfg *config.Config, cr study.CaseResult, dataDir string, u0 float64) (*report.Report, error) {
	val, err := result.LoadValidate(dataDir, &cr.Case)
	if err != nil {
		return nil, err
	}

	res, err := result.Open(cr.ProjectDir)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	step := res.NSteps() - 1

	rep := &report.Report{
		Title: "Simulation vs Experiment Comparison",
		Width: cfg.ReportWidth,
	}
	rep.SetDate(time.Now())
	rep.Content.AddText(fmt.Sprintf("Deficits are relative to a free-stream velocity of %g m/s.", u0))

	rows := make([][]string, 0, val.Len())
	for i := 0; i < val.Len(); i++ {
		t, err := val.Transect(i)
		if err != nil {
			return nil, err
		}

		ps, err := t.Extract(res.Faces, step)
		if err != nil {
			return nil, fmt.Errorf("sampling transect %s: %w", t.Name, err)
		}
		simulated, err := ps.VarDeficit("u", u0)
		if err != nil {
			return nil, err
		}

		rmse, err := study.RMSE(simulated, t.Data)
		if err != nil {
			return nil, fmt.Errorf("transect %s: %w", t.Name, err)
		}
		rows = append(rows, []string{
			t.Name,
			strconv.Itoa(t.Len()),
			strconv.FormatFloat(rmse, 'f', 3, 64),
		})
	}
	rep.Content.AddTable([]string{"transect", "points", "deficit RMSE (%)"},
		rows, "RMSE of the simulated velocity deficit against each reference transect.")

	return rep, nil
}
