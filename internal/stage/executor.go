package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ComedyAnalyzer/internal/domain"
)

// Status is a step of a single stage invocation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusValidating Status = "validating"
	StatusRunning    Status = "running"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Result records one stage invocation. It is not modified after creation.
type Result struct {
	StageID   int                `json:"stageId"`
	Status    Status             `json:"status"`
	Success   bool               `json:"success"`
	Data      domain.StageOutput `json:"data,omitempty"`
	Error     string             `json:"error,omitempty"`
	Duration  time.Duration      `json:"duration"`
	Timestamp time.Time          `json:"timestamp"`
	Err       error              `json:"-"`
}

// ProgressFunc observes each stage result of a sequence before the next stage starts.
type ProgressFunc func(stageID int, result Result)

// Execute validates inputs and runs one stage against a copy of inputs.
// Every failure is reported in the Result; Execute never panics on stage errors.
func (r *Registry) Execute(ctx context.Context, stageID int, inputs State) Result {
	def, ok := r.Get(stageID)
	if !ok {
		return r.failed(stageID, 0, fmt.Errorf("stage %d %w", stageID, ErrStageNotFound))
	}

	r.debug("stage transition", "stage_id", stageID, "status", StatusValidating)
	var missing []string
	for _, key := range def.RequiredInputs {
		if !inputs.Has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return r.failed(stageID, 0, &ValidationError{StageID: stageID, Missing: missing})
	}

	r.debug("stage transition", "stage_id", stageID, "status", StatusRunning)
	start := time.Now()
	data, err := run(ctx, def.Stage, inputs.Clone())
	duration := time.Since(start)

	if err != nil {
		return r.failed(stageID, duration, &ExecutionError{StageID: stageID, Err: err})
	}

	r.debug("stage transition", "stage_id", stageID, "status", StatusSucceeded, "duration", duration)
	return Result{
		StageID:   stageID,
		Status:    StatusSucceeded,
		Success:   true,
		Data:      data,
		Duration:  duration,
		Timestamp: r.now().UTC(),
	}
}

// ExecuteSequence runs stageIDs strictly in the given order, threading each output into
// the state seen by later stages. The first failure aborts the sequence with a
// *SequenceError; no further stage is attempted. The context is only consulted between
// stages: an in-flight stage always runs to completion.
func (r *Registry) ExecuteSequence(ctx context.Context, stageIDs []int, initial State, onProgress ProgressFunc) (State, error) {
	results := initial.Clone()

	for _, id := range stageIDs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sequence stopped before stage %d: %w", id, err)
		}

		result := r.Execute(ctx, id, results)
		if onProgress != nil {
			onProgress(id, result)
		}

		if !result.Success {
			return nil, &SequenceError{StageID: id, Result: result}
		}

		def, ok := r.Get(id)
		if ok && result.Data != nil {
			results[def.OutputKey] = result.Data
		}
	}

	return results, nil
}

func run(ctx context.Context, s Stage, in State) (out domain.StageOutput, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("stage panicked: %v", rec)
		}
	}()
	return s.Run(ctx, in)
}

func (r *Registry) failed(stageID int, duration time.Duration, err error) Result {
	message := err.Error()
	if message == "" {
		message = unknownError
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		r.warn("stage validation failed", "stage_id", stageID, "missing", validation.Missing)
	} else {
		r.warn("stage failed", "stage_id", stageID, "error", message, "duration", duration)
	}

	return Result{
		StageID:   stageID,
		Status:    StatusFailed,
		Success:   false,
		Error:     message,
		Duration:  duration,
		Timestamp: r.now().UTC(),
		Err:       err,
	}
}
