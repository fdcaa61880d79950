package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/decision-ease/internal/domain"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeExport pushes dashboard data to an external integration.
	JobTypeExport JobType = "export"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// Trigger records what asked for an export.
type Trigger string

const (
	TriggerUser      Trigger = "user"
	TriggerScheduler Trigger = "scheduler"
	TriggerCLI       Trigger = "cli"
)

// ErrJobNotFound is returned by JobStore lookups for unknown IDs.
var ErrJobNotFound = errors.New("job not found")

// ErrNoRetry marks a handler error that retrying cannot fix. Wrap it with %w
// to fail the job on the first attempt.
var ErrNoRetry = errors.New("not retryable")

// ExportTargets lists the integrations that can receive an export.
func ExportTargets() []domain.Integration {
	return []domain.Integration{
		domain.IntegrationCalendar,
		domain.IntegrationDrive,
		domain.IntegrationNotion,
	}
}

// IsExportTarget reports whether i accepts exports.
func IsExportTarget(i domain.Integration) bool {
	for _, t := range ExportTargets() {
		if t == i {
			return true
		}
	}
	return false
}

// ExportJob represents one export of the dashboard state to an integration.
type ExportJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Target is the integration receiving the export.
	Target domain.Integration `json:"target"`

	// Trigger is who requested the export.
	Trigger Trigger `json:"trigger"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the last attempt failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ExportJob) GetID() string {
	return j.JobID
}

func (j *ExportJob) GetType() JobType {
	return JobTypeExport
}

func (j *ExportJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher enqueues jobs.
type Publisher interface {
	// PublishExport enqueues an export job, assigning its ID if empty.
	PublishExport(ctx context.Context, job *ExportJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ExportJob) error

	// GetJob retrieves a job by ID or returns ErrJobNotFound.
	GetJob(ctx context.Context, jobID string) (*ExportJob, error)

	// ListJobs retrieves jobs, newest first, with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ExportJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	Target domain.Integration
	Status JobStatus
	Limit  int
	Offset int
}
