package stage

import (
	"errors"
	"fmt"
	"strings"
)

const unknownError = "Unknown error"

var (
	// ErrDuplicateStage is wrapped by ConfigurationError when an id is registered twice.
	ErrDuplicateStage = errors.New("stage already registered")
	// ErrInvalidDefinition is wrapped by ConfigurationError for malformed definitions.
	ErrInvalidDefinition = errors.New("invalid stage definition")
	// ErrStageNotFound reports an id missing from the registry.
	ErrStageNotFound = errors.New("not found")
)

// ConfigurationError is a fatal registration problem. It is never retried.
type ConfigurationError struct {
	StageID int
	Err     error
}

func (e *ConfigurationError) Error() string {
	if errors.Is(e.Err, ErrDuplicateStage) {
		return fmt.Sprintf("Stage %d is already registered", e.StageID)
	}
	return fmt.Sprintf("stage %d: %v", e.StageID, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ValidationError lists every required input absent from the run state.
type ValidationError struct {
	StageID int
	Missing []string
}

func (e *ValidationError) Error() string {
	return "Missing required inputs: " + strings.Join(e.Missing, ", ")
}

// ExecutionError wraps a failure raised by a stage while running.
type ExecutionError struct {
	StageID int
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Err == nil || e.Err.Error() == "" {
		return unknownError
	}
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// SequenceError aborts a sequence at the first failed stage.
type SequenceError struct {
	StageID int
	Result  Result
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("stage %d failed: %s", e.StageID, e.Result.Error)
}

func (e *SequenceError) Unwrap() error { return e.Result.Err }
