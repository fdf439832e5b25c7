package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler submits jobs to a pool on cron schedules. A fresh job is built
// for every run so each export gets its own ID and timeout.
type Scheduler struct {
	pool    *Pool
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

func NewScheduler(pool *Pool) *Scheduler {
	return &Scheduler{
		pool:   pool,
		cron:   cron.New(),
		logger: slog.Default().With("component", "worker.scheduler"),
	}
}

// Add registers newJob to run on schedule, a standard five-field cron
// expression or a descriptor such as "@hourly".
func (s *Scheduler) Add(name, schedule string, newJob func() *ExportJob) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q for %s: %w", schedule, name, err)
	}
	_, err := s.cron.AddFunc(schedule, func() {
		job := newJob()
		if err := s.pool.Submit(job); err != nil {
			job.Cancel()
			s.logger.Error("scheduled job rejected", "job", name, "error", err)
			return
		}
		s.logger.Info("scheduled job submitted", "job", name, "job_id", job.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.logger.Info("job scheduled", "job", name, "schedule", schedule)
	return nil
}

// Start runs the schedules until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop stops the scheduler and waits for running submissions to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("scheduler stopped")
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the earliest upcoming run, or nil when nothing is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	var next *time.Time
	for _, e := range s.cron.Entries() {
		if e.Next.IsZero() {
			continue
		}
		if next == nil || e.Next.Before(*next) {
			t := e.Next
			next = &t
		}
	}
	return next
}

// Len returns the number of registered schedules.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}
