package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/infrastructure/parser"
	"ComedyAnalyzer/internal/infrastructure/storage"
	"ComedyAnalyzer/internal/metrics"
	"ComedyAnalyzer/internal/stage"
	"ComedyAnalyzer/internal/stages"
	"ComedyAnalyzer/internal/usecase"
)

const script = `ALICE: I bought a duck yesterday.
BOB: Does it quack in French? [laughter]
CAROL: Remember the duck? (laughter)`

type server struct {
	http     http.Handler
	pipeline *usecase.Pipeline
}

func newServer(t *testing.T) server {
	t.Helper()

	store := storage.NewMemoryStore()
	reg := stage.NewRegistry(nil)
	require.NoError(t, stages.Register(reg, stages.Deps{Parser: parser.NewScriptParser(0, nil), Store: store}))

	promReg := prometheus.NewRegistry()
	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Registry: reg,
		Jobs:     store,
		Outputs:  store,
		Recorder: metrics.NewRecorder(promReg),
	})
	h := NewHandler(pipeline, usecase.NewReports(store, store), reg)
	return server{http: NewRouter(h, promReg, nil), pipeline: pipeline}
}

func (s server) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.http.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestListStages(t *testing.T) {
	t.Parallel()

	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/stages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]stageView](t, rec), 14)

	rec = s.do(t, http.MethodGet, "/stages?tier=free", "")
	require.Equal(t, http.StatusOK, rec.Code)
	free := decode[[]stageView](t, rec)
	require.Len(t, free, 4)
	assert.Equal(t, "parse_and_detect", free[0].Name)
	assert.Equal(t, 2.0, free[0].EstimatedDuration)

	rec = s.do(t, http.MethodGet, "/stages?tier=gold", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJobAndReadReports(t *testing.T) {
	t.Parallel()

	s := newServer(t)

	body, err := json.Marshal(createJobRequest{ScriptText: script})
	require.NoError(t, err)
	rec := s.do(t, http.MethodPost, "/jobs", string(body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	job := decode[domain.AnalysisJob](t, rec)
	assert.Equal(t, domain.JobCompleted, job.Status)

	rec = s.do(t, http.MethodGet, "/jobs/"+job.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, job.ID, decode[domain.AnalysisJob](t, rec).ID)

	rec = s.do(t, http.MethodGet, "/jobs/"+job.ID+"/callbacks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	callbacks := decode[domain.CallbackAnalysis](t, rec)
	assert.Equal(t, 2, callbacks.Metrics.TotalJokes)

	rec = s.do(t, http.MethodGet, "/jobs/"+job.ID+"/engagement", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[domain.EngagementAnalysis](t, rec).Curve, 3)

	rec = s.do(t, http.MethodGet, "/jobs/"+job.ID+"/stages/9/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[stageStatusView](t, rec)
	assert.True(t, status.Completed)
	assert.NotNil(t, status.CompletedAt)

	rec = s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `comedyanalyzer_stage_runs_total{stage="9",status="success"} 1`)
}

func TestReportsNotYetAvailable(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	job, err := s.pipeline.Submit(context.Background(), script)
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/jobs/"+job.ID+"/callbacks", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "callback analysis not yet available", decode[map[string]string](t, rec)["message"])

	rec = s.do(t, http.MethodGet, "/jobs/"+job.ID+"/engagement", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "engagement analysis not yet available", decode[map[string]string](t, rec)["message"])

	rec = s.do(t, http.MethodGet, "/jobs/"+job.ID+"/stages/10/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[stageStatusView](t, rec).Completed)
}

func TestCreateJobErrors(t *testing.T) {
	t.Parallel()

	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/jobs", `{"scriptText":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/jobs", `{"scriptText":"x","tier":"gold"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/jobs", `{"scriptText":"x","stages":[11],"tier":"pro"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/jobs", `{"scriptText":"x","stages":[2]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "stage 2 failed: Missing required inputs: jokes", decode[map[string]string](t, rec)["message"])

	rec = s.do(t, http.MethodPost, "/jobs", `{"scriptText":"x","async":true}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, domain.JobPending, decode[domain.AnalysisJob](t, rec).Status)
}

func TestUnknownResources(t *testing.T) {
	t.Parallel()

	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "job not found", decode[map[string]string](t, rec)["message"])

	rec = s.do(t, http.MethodGet, "/jobs/missing/stages/99/status", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "stage 99 not found", decode[map[string]string](t, rec)["message"])

	rec = s.do(t, http.MethodGet, "/jobs/missing/stages/abc/status", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
