package ports

import (
	"context"
	"time"

	"ComedyAnalyzer/internal/domain"
)

// ScriptParser segments raw script text into jokes and a timeline.
type ScriptParser interface {
	Parse(ctx context.Context, scriptText string) (domain.Stage1Output, error)
}

// JobRepository persists analysis jobs.
type JobRepository interface {
	CreateJob(ctx context.Context, job domain.AnalysisJob) error
	GetJob(ctx context.Context, id string) (domain.AnalysisJob, error)
	UpdateJob(ctx context.Context, job domain.AnalysisJob) error
	ListPending(ctx context.Context, limit int) ([]domain.AnalysisJob, error)
}

// StageOutputStore keeps each job's per-stage outputs and completion timestamps.
// ReadStageOutput returns domain.ErrNotYetAvailable when nothing has been written.
type StageOutputStore interface {
	ReadStageOutput(ctx context.Context, jobID string, stageID int) ([]byte, error)
	WriteStageOutput(ctx context.Context, jobID string, stageID int, value any, completedAt time.Time) error
	StageStatus(ctx context.Context, jobID string, stageID int) (domain.StageCompletion, error)
}

// Store bundles job and stage-output persistence behind one backend.
type Store interface {
	JobRepository
	StageOutputStore
	Close() error
}

// StageRecorder observes stage executions (metrics).
type StageRecorder interface {
	ObserveStage(stageID int, success bool, duration time.Duration)
	ObserveJob(status domain.JobStatus)
}

// Scheduler controls when pending jobs are picked up.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
