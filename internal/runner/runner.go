// Package runner launches the hydrodynamic solver on prepared project
// directories and fans simulation batches out over a bounded worker pool.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Model identifies which solver engine a project directory targets.
type Model int

const (
	// ModelFlexible is the unstructured flexible-mesh engine, selected by
	// an .mdu input file.
	ModelFlexible Model = iota
	// ModelStructured is the structured engine, selected by a
	// config_d_hydro.xml input file.
	ModelStructured
)

func (m Model) String() string {
	switch m {
	case ModelFlexible:
		return "flexible"
	case ModelStructured:
		return "structured"
	}
	return "unknown"
}

// Runner executes the solver for one project directory at a time.
type Runner struct {
	// BinPath is the root of the solver install.
	BinPath string
	// OMPThreads caps the solver's OpenMP thread count when positive.
	OMPThreads int
	// ShowStdout echoes solver output to the process stdout while running.
	ShowStdout bool

	Logger *slog.Logger
}

// DetectModel inspects a project directory and reports which engine its
// input files target. Exactly one engine's input must be present.
func DetectModel(projectDir string) (Model, error) {
	var mdu, xml []string
	err := filepath.WalkDir(projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(d.Name(), ".mdu"):
			mdu = append(mdu, path)
		case d.Name() == "config_d_hydro.xml":
			xml = append(xml, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("inspecting project %s: %w", projectDir, err)
	}
	switch {
	case len(mdu) > 0 && len(xml) > 0:
		return 0, fmt.Errorf("project %s contains input for both engines", projectDir)
	case len(mdu) > 1:
		return 0, fmt.Errorf("project %s contains %d .mdu files", projectDir, len(mdu))
	case len(mdu) == 1:
		return ModelFlexible, nil
	case len(xml) >= 1:
		return ModelStructured, nil
	}
	return 0, fmt.Errorf("project %s contains no solver input", projectDir)
}

// EntryPoint returns the solver launch script for the given engine under
// the configured install root, verifying that it exists.
func (r *Runner) EntryPoint(model Model) (string, error) {
	name := "dflowfm"
	if model == ModelStructured {
		name = "dflow2d3d"
	}

	var script string
	if runtime.GOOS == "windows" {
		script = filepath.Join(r.BinPath, "x64", name, "scripts", "run_"+name+".bat")
	} else {
		script = filepath.Join(r.BinPath, "bin", "run_"+name+".sh")
	}
	if _, err := os.Stat(script); err != nil {
		return "", fmt.Errorf("solver entry point %s: %w", script, err)
	}
	return script, nil
}

// Run executes the solver on the project directory and waits for it to
// finish. Anything the solver writes to stderr is treated as a failure,
// matching how the launch scripts report errors without a useful exit code.
func (r *Runner) Run(ctx context.Context, projectDir string) error {
	return r.run(ctx, projectDir, io.Discard)
}

// Stream is Run with the solver's combined output copied to out as it is
// produced.
func (r *Runner) Stream(ctx context.Context, projectDir string, out io.Writer) error {
	return r.run(ctx, projectDir, out)
}

func (r *Runner) run(ctx context.Context, projectDir string, out io.Writer) error {
	model, err := DetectModel(projectDir)
	if err != nil {
		return err
	}
	script, err := r.EntryPoint(model)
	if err != nil {
		return err
	}

	stdout := out
	if r.ShowStdout {
		stdout = io.MultiWriter(out, os.Stdout)
	}
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, script)
	cmd.Dir = projectDir
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(&stderr, out)
	cmd.Env = os.Environ()
	if r.OMPThreads > 0 {
		cmd.Env = append(cmd.Env, fmt.Sprintf("OMP_NUM_THREADS=%d", r.OMPThreads))
	}

	if r.Logger != nil {
		r.Logger.Info("solver starting",
			"project", projectDir, "model", model.String(), "script", script)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("solver failed for %s: %w%s", projectDir, err, stderrTail(&stderr))
	}
	if stderr.Len() > 0 {
		return fmt.Errorf("solver reported errors for %s:%s", projectDir, stderrTail(&stderr))
	}
	return nil
}

func stderrTail(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 10 {
		lines = lines[len(lines)-10:]
	}
	return "\n" + strings.Join(lines, "\n")
}
