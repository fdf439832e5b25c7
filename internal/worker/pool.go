package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"sheetstream/internal/driver"
	"sheetstream/internal/security"
	"sheetstream/internal/storage"
	"sheetstream/internal/writer"
)

var (
	ErrQueueFull   = errors.New("job queue is full")
	ErrPoolStopped = errors.New("worker pool is stopped")
)

// Pool runs export jobs concurrently and limits load on the sources.
// Each job owns its writer; the semaphore bounds concurrent source queries.
type Pool struct {
	jobQueue chan *ExportJob
	workers  int
	dbSem    *semaphore.Weighted
	wg       sync.WaitGroup
	quit     chan struct{}
	stopOnce sync.Once

	store      storage.Provider
	metrics    *Metrics
	openDriver func(kind, dsn string) (driver.Driver, error)
}

// NewPool initializes a worker pool. It does not start the workers; call
// Start to begin processing. metrics may be nil.
func NewPool(workers int, maxDBConcurrency int64, store storage.Provider, metrics *Metrics) *Pool {
	if workers < 1 {
		workers = 1
	}
	if maxDBConcurrency < 1 {
		maxDBConcurrency = 1
	}
	return &Pool{
		jobQueue:   make(chan *ExportJob, 100),
		workers:    workers,
		dbSem:      semaphore.NewWeighted(maxDBConcurrency),
		quit:       make(chan struct{}),
		store:      store,
		metrics:    metrics,
		openDriver: driver.Open,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(i)
	}
	slog.Info("Worker pool started", "workers", p.workers)
}

// Submit validates job and queues it without blocking.
func (p *Pool) Submit(job *ExportJob) error {
	if err := validateJob(job); err != nil {
		return err
	}
	select {
	case <-p.quit:
		return ErrPoolStopped
	default:
	}
	select {
	case p.jobQueue <- job:
		slog.Debug("Job queued", "job_id", job.ID, "job", job.Name)
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop initiates graceful shutdown. Jobs still queued are failed.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
		p.wg.Wait()
		for {
			select {
			case job := <-p.jobQueue:
				job.finish(StatusFailed, ErrPoolStopped)
				job.release()
			default:
				slog.Info("Worker pool stopped")
				return
			}
		}
	})
}

func validateJob(job *ExportJob) error {
	if job.Destination == "" {
		return errors.New("job has no destination")
	}
	// Catches unsupported extensions and invalid writer options before queueing.
	if _, err := writer.CreateFromDestination(job.Destination, job.WriterOptions...); err != nil {
		return err
	}
	switch job.Source {
	case "mongo", "mongodb":
		return nil
	}
	if err := security.ValidateQuery(job.Query); err != nil {
		return fmt.Errorf("job %s: %w", job.Name, err)
	}
	return nil
}

func (p *Pool) workerLoop(id int) {
	defer p.wg.Done()
	slog.Debug("Worker started", "worker_id", id)

	for {
		select {
		case <-p.quit:
			return
		default:
		}
		select {
		case job := <-p.jobQueue:
			p.processJob(id, job)
		case <-p.quit:
			return
		}
	}
}

func (p *Pool) processJob(workerID int, job *ExportJob) {
	slog.Info("Processing job", "worker_id", workerID, "job_id", job.ID, "job", job.Name)

	job.Started = time.Now()
	job.Status = StatusProcessing
	p.metrics.jobStarted()
	defer func() {
		p.metrics.RecordJob(job)
		job.release()
	}()

	if err := p.dbSem.Acquire(job.Ctx, 1); err != nil {
		p.failJob(job, fmt.Errorf("failed to acquire source slot: %w", err))
		return
	}
	err := p.executeExport(job)
	p.dbSem.Release(1)

	if err != nil {
		p.failJob(job, err)
		return
	}

	job.finish(StatusCompleted, nil)
	slog.Info("Job completed",
		"job_id", job.ID,
		"job", job.Name,
		"destination", job.Destination,
		"rows", job.Stats.RowsProcessed,
		"wait", job.Started.Sub(job.Submitted),
		"duration", job.Finished.Sub(job.Started),
	)
}

func (p *Pool) executeExport(job *ExportJob) error {
	opts := append([]writer.Option{writer.WithStorage(p.store)}, job.WriterOptions...)
	w, err := writer.CreateFromDestination(job.Destination, opts...)
	if err != nil {
		return err
	}

	src, err := p.openDriver(job.Source, job.DSN)
	if err != nil {
		return err
	}
	defer src.Close()

	rows, err := src.Query(job.Ctx, job.Query)
	if err != nil {
		return fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	if err := w.OpenContext(job.Ctx, job.Destination); err != nil {
		return err
	}
	stats, exportErr := StreamRows(job.Ctx, rows, w, job.IncludeHeader)
	w.Close()

	if exportErr != nil {
		return fmt.Errorf("export failed: %w", exportErr)
	}
	if err := w.Err(); err != nil {
		return err
	}

	stats.Flushes = w.Flushes()
	job.Stats = stats
	return nil
}

func (p *Pool) failJob(job *ExportJob, err error) {
	job.finish(StatusFailed, err)
	slog.Error("Job failed", "job_id", job.ID, "job", job.Name, "error", err)
}
