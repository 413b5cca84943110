// Package queue provides the in-process refresh dispatcher. Jobs are
// split across a priority lane and a default lane; workers drain the
// priority lane first.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/common"
	"github.com/growthops/adpulse/internal/models"
)

// ErrQueueFull is returned when the target lane's buffer is exhausted
var ErrQueueFull = errors.New("refresh queue is full")

// RefreshJob is one queued report refresh
type RefreshJob struct {
	AccountID  string
	Domain     string
	Timeframe  string
	Priority   bool
	EnqueuedAt time.Time
}

// ReportRunner executes the report pipeline for one job
type ReportRunner interface {
	GenerateReport(ctx context.Context, accountID, domain, timeframe string) (*models.ReportRun, error)
}

// Dispatcher owns the worker pool draining the refresh lanes
type Dispatcher struct {
	runner   ReportRunner
	logger   arbor.ILogger
	workers  int
	priority chan RefreshJob
	standard chan RefreshJob

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(runner ReportRunner, config *common.QueueConfig, logger arbor.ILogger) *Dispatcher {
	workers := config.Workers
	if workers <= 0 {
		workers = 2
	}
	buffer := config.BufferSize
	if buffer <= 0 {
		buffer = 64
	}
	return &Dispatcher{
		runner:   runner,
		logger:   logger,
		workers:  workers,
		priority: make(chan RefreshJob, buffer),
		standard: make(chan RefreshJob, buffer),
	}
}

// Enqueue places a job on its lane without blocking. ErrQueueFull
// when the lane buffer is exhausted.
func (d *Dispatcher) Enqueue(job RefreshJob) error {
	job.EnqueuedAt = time.Now().UTC()
	lane := d.standard
	if job.Priority {
		lane = d.priority
	}
	select {
	case lane <- job:
		d.logger.Debug().
			Str("account_id", job.AccountID).
			Bool("priority", job.Priority).
			Msg("Refresh job enqueued")
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the worker pool. Workers run until Stop is called.
func (d *Dispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx, i)
	}
	d.logger.Info().Int("workers", d.workers).Msg("Refresh dispatcher started")
}

// Stop signals the workers and waits for in-flight jobs to finish
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	d.logger.Info().Msg("Refresh dispatcher stopped")
}

func (d *Dispatcher) work(ctx context.Context, id int) {
	defer d.wg.Done()
	for {
		// Drain the priority lane before taking standard work.
		select {
		case job := <-d.priority:
			d.run(ctx, id, job)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return
		case job := <-d.priority:
			d.run(ctx, id, job)
		case job := <-d.standard:
			d.run(ctx, id, job)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, worker int, job RefreshJob) {
	started := time.Now()
	run, err := d.runner.GenerateReport(ctx, job.AccountID, job.Domain, job.Timeframe)
	if err != nil {
		d.logger.Warn().
			Err(err).
			Int("worker", worker).
			Str("account_id", job.AccountID).
			Msg("Queued report refresh failed")
		return
	}
	d.logger.Info().
		Int("worker", worker).
		Str("account_id", job.AccountID).
		Str("report_id", run.ID).
		Str("duration", time.Since(started).String()).
		Msg("Queued report refresh completed")
}
