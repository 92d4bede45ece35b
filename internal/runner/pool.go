package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/tidal-verify/internal/observability"
)

// Job is one prepared project directory to simulate.
type Job struct {
	Name       string
	ProjectDir string
}

// JobResult records the outcome of one job.
type JobResult struct {
	Job      Job
	Duration time.Duration
	Err      error
}

// BatchStatus is a snapshot of batch progress.
type BatchStatus struct {
	Running   bool `json:"running"`
	Total     int  `json:"total"`
	Completed int  `json:"completed"`
	Failed    int  `json:"failed"`
}

// Pool runs simulation jobs across a bounded set of workers. Each worker
// runs one solver instance at a time; parallelism inside the solver is
// governed separately through the runner's OpenMP setting.
type Pool struct {
	runner  *Runner
	workers int
	logger  *slog.Logger
	metrics *observability.Metrics

	running   atomic.Bool
	total     atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// NewPool creates a pool over the given runner. Worker counts below one are
// raised to one.
func NewPool(r *Runner, workers int, logger *slog.Logger, metrics *observability.Metrics) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{runner: r, workers: workers, logger: logger, metrics: metrics}
}

// CheckReadiness returns nil once the pool has completed at least one job,
// or an error describing why the service is not yet ready.
func (p *Pool) CheckReadiness(_ context.Context) error {
	if p.completed.Load() == 0 {
		return errors.New("no simulation case has completed yet")
	}
	return nil
}

// BatchStatus reports progress through the current batch.
func (p *Pool) BatchStatus(_ context.Context) BatchStatus {
	return BatchStatus{
		Running:   p.running.Load(),
		Total:     int(p.total.Load()),
		Completed: int(p.completed.Load()),
		Failed:    int(p.failed.Load()),
	}
}

// Run executes every job and returns one result per job in input order.
// Cancelling the context stops workers picking up new jobs; jobs already
// running are killed through their command context.
func (p *Pool) Run(ctx context.Context, jobs []Job) []JobResult {
	p.logger.Info("batch started", "jobs", len(jobs), "workers", p.workers)
	p.total.Store(int64(len(jobs)))
	p.running.Store(true)
	p.metrics.BatchRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.BatchRunning.Set(0)
	}()

	results := make([]JobResult, len(jobs))
	indices := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i] = p.runOne(ctx, jobs[i])
			}
		}()
	}

	for i := range jobs {
		if ctx.Err() != nil {
			results[i] = JobResult{Job: jobs[i], Err: ctx.Err()}
			continue
		}
		select {
		case indices <- i:
		case <-ctx.Done():
			results[i] = JobResult{Job: jobs[i], Err: ctx.Err()}
		}
	}
	close(indices)
	wg.Wait()

	p.logger.Info("batch finished", "jobs", len(jobs))
	return results
}

func (p *Pool) runOne(ctx context.Context, job Job) JobResult {
	start := clock.Now()
	err := p.runner.Run(ctx, job.ProjectDir)
	dur := clock.Since(start)

	p.metrics.SolverRunDuration.Observe(dur.Seconds())
	if err != nil {
		p.metrics.CasesFailed.Inc()
		p.failed.Add(1)
		p.logger.Error("case failed", "case", job.Name, "duration", dur, "error", err)
	} else {
		p.metrics.CasesCompleted.Inc()
		p.completed.Add(1)
		p.logger.Info("case completed", "case", job.Name, "duration", dur)
	}
	return JobResult{Job: job, Duration: dur, Err: err}
}
