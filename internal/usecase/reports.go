package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/ports"
	"ComedyAnalyzer/internal/stages"
)

// Reports is the read side over stored jobs and stage outputs.
type Reports struct {
	jobs    ports.JobRepository
	outputs ports.StageOutputStore
}

// NewReports builds the read-side use case.
func NewReports(jobs ports.JobRepository, outputs ports.StageOutputStore) *Reports {
	return &Reports{jobs: jobs, outputs: outputs}
}

// Job returns a stored job.
func (r *Reports) Job(ctx context.Context, id string) (domain.AnalysisJob, error) {
	return r.jobs.GetJob(ctx, id)
}

// CallbackAnalysis returns the stored stage 9 output of a job.
func (r *Reports) CallbackAnalysis(ctx context.Context, jobID string) (domain.CallbackAnalysis, error) {
	return readOutput[domain.CallbackAnalysis](ctx, r.outputs, jobID, stages.CallbackMapping, "callback analysis")
}

// EngagementAnalysis returns the stored stage 10 output of a job.
func (r *Reports) EngagementAnalysis(ctx context.Context, jobID string) (domain.EngagementAnalysis, error) {
	return readOutput[domain.EngagementAnalysis](ctx, r.outputs, jobID, stages.EngagementSimulation, "engagement analysis")
}

// StageStatus reports whether a stage of a job has completed.
func (r *Reports) StageStatus(ctx context.Context, jobID string, stageID int) (domain.StageCompletion, error) {
	status, err := r.outputs.StageStatus(ctx, jobID, stageID)
	if err != nil {
		return domain.StageCompletion{}, fmt.Errorf("stage %d status: %w", stageID, err)
	}
	return status, nil
}

// readOutput decodes a stored output. Missing outputs yield "<label> not yet available".
func readOutput[T any](ctx context.Context, store ports.StageOutputStore, jobID string, stageID int, label string) (T, error) {
	var out T
	payload, err := store.ReadStageOutput(ctx, jobID, stageID)
	if errors.Is(err, domain.ErrNotYetAvailable) {
		return out, fmt.Errorf("%s %w", label, domain.ErrNotYetAvailable)
	}
	if err != nil {
		return out, fmt.Errorf("read %s: %w", label, err)
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", label, err)
	}
	return out, nil
}
