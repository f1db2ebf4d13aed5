package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
	"github.com/joseph-ayodele/biodata-tracker/internal/metrics"
)

const (
	errCanceled          = "canceled"
	errDispatcherStopped = "dispatcher stopped"
)

type task struct {
	job   *job
	index int
}

// Orchestrator accepts batch submissions and drives every item through a
// fixed pool of workers shared by all jobs. Each job has a feeder goroutine
// that hands its items to the pool in submission order.
type Orchestrator struct {
	proc     *Processor
	registry *Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	workers         int
	maxFiles        int
	maxBytes        int64
	janitorInterval time.Duration

	work        chan task
	quit        chan struct{}
	baseCtx     context.Context
	cancelBase  context.CancelFunc
	stopJanitor context.CancelFunc
	workerWG    sync.WaitGroup
	feederWG    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type Option func(*Orchestrator)

func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithMaxBatchFiles(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxFiles = n
		}
	}
}

func WithMaxFileSizeMB(mb int) Option {
	return func(o *Orchestrator) {
		if mb > 0 {
			o.maxBytes = int64(mb) * 1024 * 1024
		}
	}
}

func WithJanitorInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.janitorInterval = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func withClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator starts the worker pool and the registry janitor.
func NewOrchestrator(proc *Processor, registry *Registry, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		proc:            proc,
		registry:        registry,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
		workers:         4,
		maxFiles:        constants.MaxBatchFiles,
		maxBytes:        constants.DefaultMaxFileSizeMB * 1024 * 1024,
		janitorInterval: time.Hour,
		work:            make(chan task),
		quit:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.baseCtx, o.cancelBase = context.WithCancel(context.Background())

	for i := 0; i < o.workers; i++ {
		o.workerWG.Add(1)
		go o.worker(i + 1)
	}

	janitorCtx, stop := context.WithCancel(context.Background())
	o.stopJanitor = stop
	go registry.RunJanitor(janitorCtx, o.janitorInterval)
	return o
}

// Submit creates a job for files and returns its initial snapshot. Files that
// fail the pre-check are failed immediately; the rest are queued.
func (o *Orchestrator) Submit(ctx context.Context, files []entity.Upload) (entity.JobSnapshot, error) {
	if len(files) == 0 {
		return entity.JobSnapshot{}, common.InvalidInputf("at least one file is required")
	}
	if len(files) > o.maxFiles {
		return entity.JobSnapshot{}, common.InvalidInputf("too many files: %d (max %d)", len(files), o.maxFiles)
	}

	now := o.now()
	items := make([]*item, len(files))
	for i, f := range files {
		items[i] = &item{filename: f.Filename, content: f.Content, status: constants.ItemStatusQueued}
	}
	j := newJob(uuid.NewString(), now, items)
	logger := common.LoggerFrom(common.WithJobID(ctx, j.id), o.logger)

	queued := 0
	for i, f := range files {
		if msg := o.precheck(f); msg != "" {
			j.fail(i, msg, now)
			o.metrics.IncItem("failed")
			logger.Warn("jobs.item.rejected", "item", i, "filename", f.Filename, "error", msg)
			continue
		}
		queued++
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return entity.JobSnapshot{}, common.InvalidStatef("dispatcher is shut down")
	}
	o.registry.put(j)
	if queued > 0 {
		o.feederWG.Add(1)
		go o.feed(j)
	}
	o.mu.Unlock()

	o.metrics.IncJobsSubmitted()
	logger.Info("jobs.submitted", "total", len(files), "queued", queued)
	return j.snapshot(), nil
}

func (o *Orchestrator) precheck(f entity.Upload) string {
	v := common.NewValidator().
		Field("filename", f.Filename, common.AllowedExtension).
		Field("content", f.Content, common.NonEmpty, common.MaxBytes(o.maxBytes))
	if !v.HasErrors() {
		return ""
	}
	return v.Errors()[0].Message
}

// Status returns a snapshot of the job. It never mutates job state.
func (o *Orchestrator) Status(jobID string) (entity.JobSnapshot, error) {
	j, ok := o.registry.get(jobID)
	if !ok {
		return entity.JobSnapshot{}, common.NotFoundf("job %s", jobID)
	}
	return j.snapshot(), nil
}

// Results returns the ids of profiles created so far, in item order.
func (o *Orchestrator) Results(jobID string) ([]string, error) {
	s, err := o.Status(jobID)
	if err != nil {
		return nil, err
	}
	return s.ProfileIDs(), nil
}

// Cancel fails the job's items that have not reached a worker yet. Items
// already in flight run to completion.
func (o *Orchestrator) Cancel(ctx context.Context, jobID string) (entity.JobSnapshot, error) {
	j, ok := o.registry.get(jobID)
	if !ok {
		return entity.JobSnapshot{}, common.NotFoundf("job %s", jobID)
	}
	n, done := j.failQueued(errCanceled, o.now())
	for i := 0; i < n; i++ {
		o.metrics.IncItem(errCanceled)
	}
	s := j.snapshot()
	common.LoggerFrom(common.WithJobID(ctx, jobID), o.logger).Info("jobs.canceled", "items", n)
	if done {
		o.logCompleted(s)
	}
	return s, nil
}

func (o *Orchestrator) feed(j *job) {
	defer o.feederWG.Done()
	for i := 0; i < j.total; i++ {
		if !j.queued(i) {
			continue
		}
		select {
		case o.work <- task{job: j, index: i}:
		case <-o.quit:
			n, done := j.failQueued(errDispatcherStopped, o.now())
			o.logger.Warn("jobs.feeder.stopped", "job_id", j.id, "unsent", n)
			if done {
				o.logCompleted(j.snapshot())
			}
			return
		}
	}
}

func (o *Orchestrator) worker(id int) {
	defer o.workerWG.Done()
	o.logger.Debug("jobs.worker.started", "worker_id", id)
	for {
		select {
		case t := <-o.work:
			o.process(id, t)
		case <-o.quit:
			o.logger.Debug("jobs.worker.stopped", "worker_id", id)
			return
		}
	}
}

func (o *Orchestrator) process(workerID int, t task) {
	filename, content, ok := t.job.claim(t.index)
	if !ok {
		return
	}
	o.metrics.WorkerBusy(1)
	defer o.metrics.WorkerBusy(-1)

	ctx := common.WithJobID(o.baseCtx, t.job.id)
	logger := common.LoggerFrom(ctx, o.logger).With("item", t.index, "filename", filename, "worker_id", workerID)
	start := time.Now()

	profileID, err := o.proc.Process(ctx, filename, content)
	elapsed := time.Since(start).Milliseconds()

	var done bool
	if err != nil {
		done = t.job.fail(t.index, err.Error(), o.now())
		o.metrics.IncItem("failed")
		logger.Warn("jobs.item.failed", "error", err, "elapsed_ms", elapsed)
	} else {
		done = t.job.succeed(t.index, profileID, o.now())
		o.metrics.IncItem("succeeded")
		logger.Info("jobs.item.succeeded", "profile_id", profileID, "elapsed_ms", elapsed)
	}
	if done {
		o.logCompleted(t.job.snapshot())
	}
}

func (o *Orchestrator) logCompleted(s entity.JobSnapshot) {
	o.logger.Info("jobs.completed",
		"job_id", s.JobID, "status", s.Status,
		"successful", s.Successful, "failed", s.Failed,
	)
}

// Registry exposes the job registry, mainly for eviction.
func (o *Orchestrator) Registry() *Registry { return o.registry }

// Shutdown stops accepting work and waits for in-flight items. Items that
// were never dispatched are failed so every job still reaches a terminal
// status. If ctx expires first, in-flight calls are canceled.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	close(o.quit)
	o.mu.Unlock()
	defer o.stopJanitor()

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.feederWG.Wait()
		o.workerWG.Wait()
	}()

	select {
	case <-ctx.Done():
		o.logger.Warn("jobs.shutdown.interrupted")
		o.cancelBase()
		<-done
	case <-done:
		o.cancelBase()
		o.logger.Info("jobs.shutdown.complete")
	}
}
