package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/ports"
	"ComedyAnalyzer/internal/stage"
	"ComedyAnalyzer/internal/stages"
)

// ErrStageNotPermitted is returned when a requested stage is above the caller's tier.
var ErrStageNotPermitted = errors.New("stage not permitted for tier")

// DefaultStages is the sequence run when a caller names none.
var DefaultStages = []int{
	stages.ParseAndDetect,
	stages.CoreMetrics,
	stages.PacingAnalysis,
	stages.LaughDistribution,
	stages.GapDiagnosis,
	stages.GapPunchups,
	stages.JokeQuality,
	stages.CharacterAnalytics,
	stages.CallbackMapping,
	stages.EngagementSimulation,
}

// PipelineDeps wires the registry and driven adapters into the analysis pipeline.
type PipelineDeps struct {
	Registry *stage.Registry
	Jobs     ports.JobRepository
	Outputs  ports.StageOutputStore
	Recorder ports.StageRecorder
	Logger   *slog.Logger

	Stages      []int
	Tier        domain.Tier
	Concurrency int

	Now   func() time.Time
	NewID func() string
}

// Analysis is a finished job together with every output of its run.
type Analysis struct {
	Job     domain.AnalysisJob
	Outputs stage.State
}

// Pipeline implements the script analysis workflow on top of the stage registry.
type Pipeline struct {
	registry    *stage.Registry
	jobs        ports.JobRepository
	outputs     ports.StageOutputStore
	recorder    ports.StageRecorder
	logger      *slog.Logger
	stages      []int
	tier        domain.Tier
	concurrency int
	now         func() time.Time
	newID       func() string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		registry:    deps.Registry,
		jobs:        deps.Jobs,
		outputs:     deps.Outputs,
		recorder:    deps.Recorder,
		logger:      deps.Logger,
		stages:      slices.Clone(deps.Stages),
		tier:        deps.Tier,
		concurrency: deps.Concurrency,
		now:         deps.Now,
		newID:       deps.NewID,
	}
	if len(p.stages) == 0 {
		p.stages = slices.Clone(DefaultStages)
	}
	if p.tier == "" {
		p.tier = domain.TierPro
	}
	if p.concurrency <= 0 {
		p.concurrency = 1
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	return p
}

// Submit stores a new pending job for scriptText.
func (p *Pipeline) Submit(ctx context.Context, scriptText string) (domain.AnalysisJob, error) {
	if p.jobs == nil {
		return domain.AnalysisJob{}, fmt.Errorf("job repository is not configured")
	}

	now := p.now().UTC()
	job := domain.AnalysisJob{
		ID:         p.newID(),
		ScriptText: scriptText,
		Status:     domain.JobPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.jobs.CreateJob(ctx, job); err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("create job: %w", err)
	}
	p.observeJob(job.Status)
	p.debug("job submitted", "job_id", job.ID, "bytes", len(scriptText))
	return job, nil
}

// Run executes stageIDs for a stored job. Empty stageIDs and tier fall back to the
// pipeline defaults. Outputs already stored for stages outside stageIDs are loaded
// first so later stages can run on their own.
func (p *Pipeline) Run(ctx context.Context, jobID string, stageIDs []int, tier domain.Tier) (stage.State, error) {
	if p.registry == nil || p.jobs == nil {
		return nil, fmt.Errorf("pipeline is not configured")
	}
	if len(stageIDs) == 0 {
		stageIDs = p.stages
	}
	if tier == "" {
		tier = p.tier
	}
	if err := p.permitted(stageIDs, tier); err != nil {
		return nil, err
	}

	job, err := p.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}

	initial, err := p.preload(ctx, jobID, stageIDs)
	if err != nil {
		return nil, err
	}
	initial[stage.KeyJobID] = job.ID
	initial[stage.KeyScriptText] = job.ScriptText

	job.Status = domain.JobProcessing
	job.Error = ""
	if err := p.saveJob(ctx, &job); err != nil {
		return nil, err
	}
	p.observeJob(job.Status)
	p.debug("job processing", "job_id", job.ID, "stages", stageIDs, "tier", tier)

	state, runErr := p.registry.ExecuteSequence(ctx, stageIDs, initial, func(stageID int, result stage.Result) {
		if p.recorder != nil {
			p.recorder.ObserveStage(stageID, result.Success, result.Duration)
		}
		if !result.Success {
			return
		}
		job.CurrentStage = stageID
		if err := p.saveJob(ctx, &job); err != nil {
			p.warn("record progress failed", "job_id", job.ID, "stage_id", stageID, "error", err)
		}
	})

	if runErr != nil {
		job.Status = domain.JobFailed
		job.Error = runErr.Error()
		if err := p.saveJob(context.WithoutCancel(ctx), &job); err != nil {
			p.warn("record failure failed", "job_id", job.ID, "error", err)
		}
		p.observeJob(job.Status)
		p.warn("job failed", "job_id", job.ID, "error", runErr)
		return nil, fmt.Errorf("run job %s: %w", job.ID, runErr)
	}

	job.Status = domain.JobCompleted
	if err := p.saveJob(ctx, &job); err != nil {
		return nil, err
	}
	p.observeJob(job.Status)
	p.debug("job completed", "job_id", job.ID, "stages", len(stageIDs))
	return state, nil
}

// Analyze submits scriptText and runs it straight away.
func (p *Pipeline) Analyze(ctx context.Context, scriptText string, stageIDs []int, tier domain.Tier) (Analysis, error) {
	job, err := p.Submit(ctx, scriptText)
	if err != nil {
		return Analysis{}, err
	}

	state, err := p.Run(ctx, job.ID, stageIDs, tier)
	if err != nil {
		return Analysis{}, err
	}

	job, err = p.jobs.GetJob(ctx, job.ID)
	if err != nil {
		return Analysis{}, fmt.Errorf("reload job: %w", err)
	}
	return Analysis{Job: job, Outputs: state}, nil
}

// AnalyzeBatch analyzes independent scripts concurrently. Results keep the order of
// scripts; the first failure cancels the remaining runs.
func (p *Pipeline) AnalyzeBatch(ctx context.Context, scripts []string, stageIDs []int, tier domain.Tier) ([]Analysis, error) {
	results := make([]Analysis, len(scripts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, script := range scripts {
		i, script := i, script
		g.Go(func() error {
			analysis, err := p.Analyze(gctx, script, stageIDs, tier)
			if err != nil {
				return fmt.Errorf("script %d: %w", i+1, err)
			}
			results[i] = analysis
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ProcessPending runs the default stages for every pending job. A failing job is
// recorded on the job and does not stop the others. It returns the number of jobs
// that completed.
func (p *Pipeline) ProcessPending(ctx context.Context) (int, error) {
	if p.jobs == nil {
		return 0, nil
	}

	pending, err := p.jobs.ListPending(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", err)
	}

	done := make([]bool, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, job := range pending {
		i, job := i, job
		g.Go(func() error {
			if _, err := p.Run(gctx, job.ID, nil, ""); err != nil {
				p.warn("pending job failed", "job_id", job.ID, "error", err)
				return nil
			}
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	completed := 0
	for _, ok := range done {
		if ok {
			completed++
		}
	}
	return completed, nil
}

func (p *Pipeline) permitted(stageIDs []int, tier domain.Tier) error {
	for _, id := range stageIDs {
		def, ok := p.registry.Get(id)
		if ok && !def.VisibleTo(tier) {
			return fmt.Errorf("stage %d (%s) on tier %s: %w", id, def.Tier, tier, ErrStageNotPermitted)
		}
	}
	return nil
}

// preload seeds the run state with stored outputs of stages that are not re-run.
func (p *Pipeline) preload(ctx context.Context, jobID string, stageIDs []int) (stage.State, error) {
	state := stage.State{}
	if p.outputs == nil {
		return state, nil
	}

	for _, def := range p.registry.All() {
		if slices.Contains(stageIDs, def.ID) {
			continue
		}
		payload, err := p.outputs.ReadStageOutput(ctx, jobID, def.ID)
		if errors.Is(err, domain.ErrNotYetAvailable) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load stage %d output: %w", def.ID, err)
		}
		out, err := stages.Decode(def.ID, payload)
		if err != nil {
			return nil, err
		}
		state[def.OutputKey] = out
	}
	return state, nil
}

func (p *Pipeline) saveJob(ctx context.Context, job *domain.AnalysisJob) error {
	job.UpdatedAt = p.now().UTC()
	if err := p.jobs.UpdateJob(ctx, *job); err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	return nil
}

func (p *Pipeline) observeJob(status domain.JobStatus) {
	if p.recorder != nil {
		p.recorder.ObserveJob(status)
	}
}

func (p *Pipeline) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
