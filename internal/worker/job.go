package worker

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"sheetstream/internal/writer"
)

type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// ExportJob represents a single export from a source query to a destination.
type ExportJob struct {
	// ID is the unique UUID v4 for the job.
	ID string
	// Name identifies the job definition in logs and metrics.
	Name string
	// Source is the driver kind (mysql, postgres, sqlite, mongo).
	Source string
	DSN    string
	Query  string
	// Destination is the output path or URL. "{id}" and "{date}" are
	// replaced by the job ID and the submission date.
	Destination string
	// IncludeHeader writes the column names as a bold first row.
	IncludeHeader bool
	// WriterOptions are passed to the writer factory.
	WriterOptions []writer.Option

	Submitted time.Time
	Started   time.Time
	Finished  time.Time
	Status    JobStatus
	Error     error
	Stats     *ExportResult

	Ctx    context.Context
	Cancel context.CancelFunc
	done   chan struct{}
}

// NewExportJob creates a pending job. A timeout of zero means no deadline.
func NewExportJob(name, source, dsn, query, destination string, timeout time.Duration) *ExportJob {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	job := &ExportJob{
		ID:        uuid.New().String(),
		Name:      name,
		Source:    source,
		DSN:       dsn,
		Query:     query,
		Submitted: time.Now(),
		Status:    StatusPending,
		Ctx:       ctx,
		Cancel:    cancel,
		done:      make(chan struct{}),
	}
	if job.Name == "" {
		job.Name = job.ID
	}
	job.Destination = job.expand(destination)
	return job
}

func (j *ExportJob) expand(dest string) string {
	return strings.NewReplacer(
		"{id}", j.ID,
		"{date}", j.Submitted.Format("2006-01-02"),
	).Replace(dest)
}

// Done is closed once the job has completed or failed.
func (j *ExportJob) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes and returns its error.
func (j *ExportJob) Wait() error {
	<-j.done
	return j.Error
}

func (j *ExportJob) finish(status JobStatus, err error) {
	j.Status = status
	j.Error = err
	j.Finished = time.Now()
}

// release wakes up waiters. It must be called once, after finish.
func (j *ExportJob) release() {
	j.Cancel()
	close(j.done)
}
