package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/ports"
)

type storedOutput struct {
	payload     []byte
	completedAt time.Time
}

// MemoryStore keeps jobs and stage outputs in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	jobs    map[string]domain.AnalysisJob
	outputs map[string]map[int]storedOutput
}

var _ ports.Store = (*MemoryStore)(nil)

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:    map[string]domain.AnalysisJob{},
		outputs: map[string]map[int]storedOutput{},
	}
}

// CreateJob stores a new job.
func (s *MemoryStore) CreateJob(_ context.Context, job domain.AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

// GetJob loads a job by id.
func (s *MemoryStore) GetJob(_ context.Context, id string) (domain.AnalysisJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.AnalysisJob{}, fmt.Errorf("job %s: %w", id, domain.ErrJobNotFound)
	}
	return job, nil
}

// UpdateJob replaces a stored job.
func (s *MemoryStore) UpdateJob(_ context.Context, job domain.AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; !ok {
		return fmt.Errorf("job %s: %w", job.ID, domain.ErrJobNotFound)
	}
	s.jobs[job.ID] = job
	return nil
}

// ListPending returns pending jobs, oldest first.
func (s *MemoryStore) ListPending(_ context.Context, limit int) ([]domain.AnalysisJob, error) {
	s.mu.RLock()
	var pending []domain.AnalysisJob
	for _, job := range s.jobs {
		if job.Status == domain.JobPending {
			pending = append(pending, job)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(pending, func(a, b domain.AnalysisJob) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// ReadStageOutput returns the JSON output of a stage.
func (s *MemoryStore) ReadStageOutput(_ context.Context, jobID string, stageID int) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out, ok := s.outputs[jobID][stageID]
	if !ok {
		return nil, fmt.Errorf("stage %d output for job %s: %w", stageID, jobID, domain.ErrNotYetAvailable)
	}
	return slices.Clone(out.payload), nil
}

// WriteStageOutput stores value as JSON together with its completion time.
func (s *MemoryStore) WriteStageOutput(_ context.Context, jobID string, stageID int, value any, completedAt time.Time) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal stage %d output: %w", stageID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outputs[jobID] == nil {
		s.outputs[jobID] = map[int]storedOutput{}
	}
	s.outputs[jobID][stageID] = storedOutput{payload: payload, completedAt: completedAt.UTC()}
	return nil
}

// StageStatus reports whether a stage output exists.
func (s *MemoryStore) StageStatus(_ context.Context, jobID string, stageID int) (domain.StageCompletion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out, ok := s.outputs[jobID][stageID]
	if !ok {
		return domain.StageCompletion{}, nil
	}
	completedAt := out.completedAt
	return domain.StageCompletion{Completed: true, CompletedAt: &completedAt}, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
