package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/infrastructure/parser"
	"ComedyAnalyzer/internal/infrastructure/storage"
	"ComedyAnalyzer/internal/stage"
	"ComedyAnalyzer/internal/stages"
)

const script = `ALICE: I bought a duck yesterday.
BOB: Does it quack in French? [laughter]
ALICE: Only on weekends when the chicken crosses the road. [laughs]
BOB: Figures.
CAROL: Remember the duck? (laughter)`

type fakeRecorder struct {
	mu     sync.Mutex
	stages map[int]int
	jobs   map[domain.JobStatus]int
}

func (f *fakeRecorder) ObserveStage(stageID int, success bool, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stages == nil {
		f.stages = map[int]int{}
	}
	if success {
		f.stages[stageID]++
	}
}

func (f *fakeRecorder) ObserveJob(status domain.JobStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.jobs == nil {
		f.jobs = map[domain.JobStatus]int{}
	}
	f.jobs[status]++
}

type fixture struct {
	store    *storage.MemoryStore
	recorder *fakeRecorder
	pipeline *Pipeline
	reports  *Reports
}

func newFixture(t *testing.T, concurrency int) fixture {
	t.Helper()

	store := storage.NewMemoryStore()
	reg := stage.NewRegistry(nil)
	require.NoError(t, stages.Register(reg, stages.Deps{
		Parser: parser.NewScriptParser(0, nil),
		Store:  store,
	}))

	var seq atomic.Int64
	recorder := &fakeRecorder{}
	pipeline := NewPipeline(PipelineDeps{
		Registry:    reg,
		Jobs:        store,
		Outputs:     store,
		Recorder:    recorder,
		Concurrency: concurrency,
		NewID:       func() string { return fmt.Sprintf("job-%d", seq.Add(1)) },
	})
	return fixture{store: store, recorder: recorder, pipeline: pipeline, reports: NewReports(store, store)}
}

func TestAnalyzeRunsDefaultStages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, 1)

	analysis, err := f.pipeline.Analyze(ctx, script, nil, "")
	require.NoError(t, err)

	assert.Equal(t, "job-1", analysis.Job.ID)
	assert.Equal(t, domain.JobCompleted, analysis.Job.Status)
	assert.Equal(t, stages.EngagementSimulation, analysis.Job.CurrentStage)
	assert.Empty(t, analysis.Job.Error)
	assert.Contains(t, analysis.Outputs, stages.KeyCallbackAnalysis)
	assert.Contains(t, analysis.Outputs, stages.KeyAudienceEngagement)

	for _, id := range DefaultStages {
		assert.Equal(t, 1, f.recorder.stages[id], "stage %d", id)
	}
	assert.Equal(t, 1, f.recorder.jobs[domain.JobCompleted])

	callbacks, err := f.reports.CallbackAnalysis(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 3, callbacks.Metrics.TotalJokes)

	engagement, err := f.reports.EngagementAnalysis(ctx, "job-1")
	require.NoError(t, err)
	assert.Len(t, engagement.Curve, 5)

	status, err := f.reports.StageStatus(ctx, "job-1", stages.CallbackMapping)
	require.NoError(t, err)
	assert.True(t, status.Completed)
}

func TestRunRejectsStagesAboveTier(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, 1)
	job, err := f.pipeline.Submit(ctx, script)
	require.NoError(t, err)

	_, err = f.pipeline.Run(ctx, job.ID, []int{stages.ParseAndDetect, stages.CallbackMapping}, domain.TierFree)
	assert.ErrorIs(t, err, ErrStageNotPermitted)

	stored, err := f.store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, stored.Status)
}

func TestRunRecordsFailureOnJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, 1)
	job, err := f.pipeline.Submit(ctx, script)
	require.NoError(t, err)

	_, err = f.pipeline.Run(ctx, job.ID, []int{stages.CoreMetrics}, domain.TierFree)
	require.Error(t, err)
	var seqErr *stage.SequenceError
	require.ErrorAs(t, err, &seqErr)
	assert.Equal(t, stages.CoreMetrics, seqErr.StageID)

	stored, err := f.store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, stored.Status)
	assert.Equal(t, "stage 2 failed: Missing required inputs: jokes", stored.Error)
	assert.Equal(t, 1, f.recorder.jobs[domain.JobFailed])
}

func TestRunLoadsStoredOutputsOfEarlierStages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, 1)
	job, err := f.pipeline.Submit(ctx, script)
	require.NoError(t, err)

	_, err = f.pipeline.Run(ctx, job.ID, []int{stages.ParseAndDetect}, domain.TierFree)
	require.NoError(t, err)

	_, err = f.reports.CallbackAnalysis(ctx, job.ID)
	assert.ErrorIs(t, err, domain.ErrNotYetAvailable)
	assert.EqualError(t, err, "callback analysis not yet available")

	state, err := f.pipeline.Run(ctx, job.ID, []int{stages.CallbackMapping}, domain.TierPro)
	require.NoError(t, err)
	assert.Contains(t, state, stages.KeyJokes)

	callbacks, err := f.reports.CallbackAnalysis(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, callbacks.Metrics.TotalJokes)
}

func TestRunUnknownJob(t *testing.T) {
	t.Parallel()

	_, err := newFixture(t, 1).pipeline.Run(context.Background(), "nope", nil, "")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestProcessPending(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, 2)
	for i := 0; i < 3; i++ {
		_, err := f.pipeline.Submit(ctx, script)
		require.NoError(t, err)
	}

	completed, err := f.pipeline.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, completed)

	pending, err := f.store.ListPending(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	for i := 1; i <= 3; i++ {
		job, err := f.store.GetJob(ctx, fmt.Sprintf("job-%d", i))
		require.NoError(t, err)
		assert.Equal(t, domain.JobCompleted, job.Status)
	}
}

func TestAnalyzeBatchKeepsOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3)
	scripts := []string{script, "JOKE: a lonely line", "nothing funny here"}

	results, err := f.pipeline.AnalyzeBatch(context.Background(), scripts, []int{stages.ParseAndDetect, stages.CoreMetrics}, domain.TierFree)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, want := range []int{3, 1, 0} {
		assert.Equal(t, scripts[i], results[i].Job.ScriptText)
		metrics, err := stage.Lookup[domain.Stage2Output](results[i].Outputs, stages.KeyMetrics)
		require.NoError(t, err)
		assert.Equal(t, want, metrics.TotalJokes)
	}
}

func TestReportsStageStatusPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	status, err := f.reports.StageStatus(context.Background(), "job-x", stages.GapDiagnosis)
	require.NoError(t, err)
	assert.False(t, status.Completed)

	_, err = f.reports.EngagementAnalysis(context.Background(), "job-x")
	assert.EqualError(t, err, "engagement analysis not yet available")
}
