package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/ports"
	"ComedyAnalyzer/internal/stage"
)

// Persisted writes the output of inner to store whenever the run state carries a job id.
// A failed write fails the stage.
func Persisted(id int, store ports.StageOutputStore, inner stage.Stage, now func() time.Time, logger *slog.Logger) stage.Stage {
	return stage.Func(func(ctx context.Context, in stage.State) (domain.StageOutput, error) {
		out, err := inner.Run(ctx, in)
		if err != nil {
			return nil, err
		}

		jobID := stage.LookupOr(in, stage.KeyJobID, "")
		if jobID == "" || out == nil {
			return out, nil
		}

		if err := store.WriteStageOutput(ctx, jobID, id, out, now()); err != nil {
			return nil, fmt.Errorf("persist stage %d output: %w", id, err)
		}
		if logger != nil {
			logger.Debug("stage output stored", "job_id", jobID, "stage_id", id)
		}
		return out, nil
	})
}

// Decode restores a stored stage output into its typed shape.
func Decode(id int, payload []byte) (domain.StageOutput, error) {
	var target domain.StageOutput
	switch id {
	case ParseAndDetect:
		target = &domain.Stage1Output{}
	case CoreMetrics:
		target = &domain.Stage2Output{}
	case PacingAnalysis:
		target = &domain.Stage3Output{}
	case LaughDistribution:
		target = &domain.Stage4Output{}
	case GapDiagnosis:
		target = &domain.Stage5Output{}
	case GapPunchups:
		target = &domain.Stage6Output{}
	case JokeQuality:
		target = &domain.Stage7Output{}
	case CharacterAnalytics:
		target = &domain.Stage8Output{}
	case CallbackMapping:
		target = &domain.CallbackAnalysis{}
	case EngagementSimulation:
		target = &domain.EngagementAnalysis{}
	case CollaborativeEditing, WritersChat, BrainstormBoard, CollaborativeCommenting:
		target = &domain.SessionOutput{Stage: id}
	default:
		return nil, fmt.Errorf("stage %d: %w", id, stage.ErrStageNotFound)
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return nil, fmt.Errorf("decode stage %d output: %w", id, err)
	}
	return deref(target), nil
}

// deref returns the value behind a decoded pointer so state lookups see the same
// types the executors produce.
func deref(out domain.StageOutput) domain.StageOutput {
	switch v := out.(type) {
	case *domain.Stage1Output:
		return *v
	case *domain.Stage2Output:
		return *v
	case *domain.Stage3Output:
		return *v
	case *domain.Stage4Output:
		return *v
	case *domain.Stage5Output:
		return *v
	case *domain.Stage6Output:
		return *v
	case *domain.Stage7Output:
		return *v
	case *domain.Stage8Output:
		return *v
	case *domain.CallbackAnalysis:
		return *v
	case *domain.EngagementAnalysis:
		return *v
	case *domain.SessionOutput:
		return *v
	default:
		return out
	}
}
