package domain

import (
	"errors"
	"time"
)

// ErrNotYetAvailable reports that an upstream output has not been computed yet.
// Callers may poll and retry.
var ErrNotYetAvailable = errors.New("not yet available")

// ErrJobNotFound is returned when a job id is unknown to the store.
var ErrJobNotFound = errors.New("job not found")

// JobStatus enumerates analysis job milestones.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// AnalysisJob is a single script submitted for analysis.
type AnalysisJob struct {
	ID           string    `json:"id"`
	ScriptText   string    `json:"scriptText"`
	Status       JobStatus `json:"status"`
	CurrentStage int       `json:"currentStage"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// StageCompletion reports whether a job's stage output has been stored.
type StageCompletion struct {
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
