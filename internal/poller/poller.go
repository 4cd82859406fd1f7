// Package poller drives asynchronous provider jobs to a terminal state.
//
// Every async backend exposes the same shape of lifecycle: submit work, then
// query status until the backend reports success or failure. The poller owns
// the generic half of that loop. Adapters supply a Check function translating
// one backend status query into the shared vocabulary; the poller owns the
// tick budget, pacing, and cancellation.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/artboardhq/artboard/internal/domain"
)

// maxCheckFailures bounds consecutive failed status queries. A dead status
// endpoint must not burn the whole tick budget and misreport as a timeout.
const maxCheckFailures = 5

// CheckFunc performs one status query against the backend and reports the
// translated status. On completed it returns the raw output payload; on
// failed it returns the upstream error text via err.
type CheckFunc func(ctx context.Context) (domain.JobStatus, string, error)

// Poller runs bounded status loops. A single Poller is safe for concurrent
// use; each Poll call gets its own pacing state.
type Poller struct {
	interval time.Duration
	maxTicks int
	logger   *slog.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger sets the logger used for per-tick progress records.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// New builds a poller that queries every interval, at most maxTicks times.
func New(interval time.Duration, maxTicks int, opts ...Option) *Poller {
	p := &Poller{
		interval: interval,
		maxTicks: maxTicks,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll drives the job to a terminal state and returns it. The returned job is
// always terminal: completed with Output set, failed with Error set, or
// timed_out after the tick budget is exhausted. Context cancellation surfaces
// as ctx.Err; the remote job is not torn down.
//
// A non-terminal status from check never aborts the loop. A failing check
// consumes a tick and the loop continues, except when the backend rejects
// the query outright (a 4xx status) or the failures persist past
// maxCheckFailures; retrying cannot fix either, so the job fails.
func (p *Poller) Poll(ctx context.Context, jobID string, check CheckFunc) (*domain.ProviderJob, error) {
	job := &domain.ProviderJob{ID: jobID, Status: domain.JobSubmitted}

	// One token per interval, starting empty so the first check also waits a
	// full interval after submission.
	lim := rate.NewLimiter(rate.Every(p.interval), 1)
	lim.Allow()

	checkFailures := 0
	for job.Ticks < p.maxTicks {
		if err := lim.Wait(ctx); err != nil {
			return job, err
		}
		job.Ticks++

		status, output, err := check(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return job, ctx.Err()
			}
			var ue *domain.UpstreamError
			if errors.As(err, &ue) && ue.Status >= 400 && ue.Status < 500 {
				job.Status = domain.JobFailed
				job.Error = err.Error()
				return job, fmt.Errorf("job %s: status check rejected: %w", jobID, err)
			}
			checkFailures++
			if checkFailures >= maxCheckFailures {
				job.Status = domain.JobFailed
				job.Error = err.Error()
				return job, fmt.Errorf("job %s: %d consecutive status check failures: %w", jobID, checkFailures, err)
			}
			// Transient query failure. The job may still be running, so the
			// tick is consumed and the loop continues.
			p.logger.Warn("job status query failed",
				slog.String("job_id", jobID),
				slog.Int("tick", job.Ticks),
				slog.String("error", err.Error()))
			continue
		}
		checkFailures = 0

		switch status {
		case domain.JobCompleted:
			job.Status = domain.JobCompleted
			job.Output = output
			return job, nil
		case domain.JobFailed:
			job.Status = domain.JobFailed
			job.Error = output
			if output == "" {
				job.Error = "generation failed"
			}
			return job, fmt.Errorf("job %s: %s", jobID, job.Error)
		case domain.JobRunning, domain.JobSubmitted:
			if job.Status == domain.JobSubmitted && status == domain.JobRunning {
				p.logger.Debug("job started", slog.String("job_id", jobID))
			}
			job.Status = status
		default:
			// Unknown status strings from a backend are treated as still
			// running rather than failing the job.
			p.logger.Warn("unrecognized job status",
				slog.String("job_id", jobID),
				slog.String("status", string(status)))
		}
	}

	job.Status = domain.JobTimedOut
	return job, fmt.Errorf("job %s: %w after %d ticks", jobID, domain.ErrJobTimedOut, job.Ticks)
}
