// Package rest exposes the analysis pipeline over HTTP.
package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/stage"
	"ComedyAnalyzer/internal/usecase"
)

// JobRunner submits and runs analysis jobs.
type JobRunner interface {
	Submit(ctx context.Context, scriptText string) (domain.AnalysisJob, error)
	Run(ctx context.Context, jobID string, stageIDs []int, tier domain.Tier) (stage.State, error)
}

// ReportReader reads stored jobs and stage outputs.
type ReportReader interface {
	Job(ctx context.Context, id string) (domain.AnalysisJob, error)
	CallbackAnalysis(ctx context.Context, jobID string) (domain.CallbackAnalysis, error)
	EngagementAnalysis(ctx context.Context, jobID string) (domain.EngagementAnalysis, error)
	StageStatus(ctx context.Context, jobID string, stageID int) (domain.StageCompletion, error)
}

// StageCatalog lists registered stages.
type StageCatalog interface {
	Get(id int) (stage.Definition, bool)
	All() []stage.Definition
	ByTier(tier domain.Tier) []stage.Definition
}

// Handler serves the job and report endpoints.
type Handler struct {
	runner  JobRunner
	reports ReportReader
	catalog StageCatalog
}

// NewHandler wires the use cases into HTTP handlers.
func NewHandler(runner JobRunner, reports ReportReader, catalog StageCatalog) *Handler {
	return &Handler{runner: runner, reports: reports, catalog: catalog}
}

type stageView struct {
	ID                int         `json:"id"`
	Name              string      `json:"name"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	RequiredInputs    []string    `json:"requiredInputs"`
	OutputKey         string      `json:"outputKey"`
	Tier              domain.Tier `json:"tier"`
	EstimatedDuration float64     `json:"estimatedDuration"`
}

type createJobRequest struct {
	ScriptText string `json:"scriptText"`
	Stages     []int  `json:"stages"`
	Tier       string `json:"tier"`
	Async      bool   `json:"async"`
}

type stageStatusView struct {
	JobID       string     `json:"jobId"`
	StageID     int        `json:"stageId"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ListStages handles GET /stages?tier=. Without a tier every stage is listed.
func (h *Handler) ListStages(c echo.Context) error {
	defs := h.catalog.All()
	if raw := c.QueryParam("tier"); raw != "" {
		tier, ok := domain.ParseTier(raw)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown tier "+strconv.Quote(raw))
		}
		defs = h.catalog.ByTier(tier)
	}

	views := make([]stageView, 0, len(defs))
	for _, def := range defs {
		views = append(views, stageView{
			ID:                def.ID,
			Name:              def.Name,
			Title:             def.Title,
			Description:       def.Description,
			RequiredInputs:    def.RequiredInputs,
			OutputKey:         def.OutputKey,
			Tier:              def.Tier,
			EstimatedDuration: def.EstimatedDuration.Seconds(),
		})
	}
	return c.JSON(http.StatusOK, views)
}

// CreateJob handles POST /jobs. Async jobs are left pending for the background sweep.
func (h *Handler) CreateJob(c echo.Context) error {
	var req createJobRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if req.ScriptText == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "scriptText is required")
	}

	var tier domain.Tier
	if req.Tier != "" {
		parsed, ok := domain.ParseTier(req.Tier)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown tier "+strconv.Quote(req.Tier))
		}
		tier = parsed
	}

	ctx := c.Request().Context()
	job, err := h.runner.Submit(ctx, req.ScriptText)
	if err != nil {
		return mapError(err)
	}
	if req.Async {
		return c.JSON(http.StatusAccepted, job)
	}

	if _, err := h.runner.Run(ctx, job.ID, req.Stages, tier); err != nil {
		return mapError(err)
	}
	job, err = h.reports.Job(ctx, job.ID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, job)
}

// GetJob handles GET /jobs/:id.
func (h *Handler) GetJob(c echo.Context) error {
	job, err := h.reports.Job(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, job)
}

// GetCallbacks handles GET /jobs/:id/callbacks.
func (h *Handler) GetCallbacks(c echo.Context) error {
	analysis, err := h.reports.CallbackAnalysis(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, analysis)
}

// GetEngagement handles GET /jobs/:id/engagement.
func (h *Handler) GetEngagement(c echo.Context) error {
	analysis, err := h.reports.EngagementAnalysis(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, analysis)
}

// GetStageStatus handles GET /jobs/:id/stages/:stage/status.
func (h *Handler) GetStageStatus(c echo.Context) error {
	stageID, err := strconv.Atoi(c.Param("stage"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "stage must be a number")
	}
	if _, ok := h.catalog.Get(stageID); !ok {
		return echo.NewHTTPError(http.StatusNotFound, "stage "+strconv.Itoa(stageID)+" not found")
	}

	jobID := c.Param("id")
	status, err := h.reports.StageStatus(c.Request().Context(), jobID, stageID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, stageStatusView{
		JobID:       jobID,
		StageID:     stageID,
		Completed:   status.Completed,
		CompletedAt: status.CompletedAt,
	})
}

// mapError converts use case errors into echo.HTTPError values.
func mapError(err error) *echo.HTTPError {
	var seqErr *stage.SequenceError
	switch {
	case errors.Is(err, domain.ErrNotYetAvailable):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrJobNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "job not found")
	case errors.Is(err, usecase.ErrStageNotPermitted):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.As(err, &seqErr):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, seqErr.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
