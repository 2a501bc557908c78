package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/ports"
)

const (
	jobsTable    = "analysis_jobs"
	outputsTable = "analysis_stage_outputs"

	uniqueViolation = "23505"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS analysis_jobs (
		id            TEXT PRIMARY KEY,
		script_text   TEXT NOT NULL,
		status        TEXT NOT NULL,
		current_stage INTEGER NOT NULL DEFAULT 0,
		error         TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS analysis_stage_outputs (
		job_id       TEXT NOT NULL REFERENCES analysis_jobs(id) ON DELETE CASCADE,
		stage_id     INTEGER NOT NULL,
		output       JSONB NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (job_id, stage_id)
	)`,
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists jobs and stage outputs into Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.Store = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// OpenPostgres connects with the lib/pq driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresRepository(db), nil
}

// Migrate creates the tables when missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// CreateJob inserts a new job.
func (r *PostgresRepository) CreateJob(ctx context.Context, job domain.AnalysisJob) error {
	query, args, err := insertJobQuery(job).ToSql()
	if err != nil {
		return fmt.Errorf("build insert job: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("job %s already exists", job.ID)
		}
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetJob loads a job by id.
func (r *PostgresRepository) GetJob(ctx context.Context, id string) (domain.AnalysisJob, error) {
	query, args, err := selectJobsQuery().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("build select job: %w", err)
	}

	job, err := scanJob(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AnalysisJob{}, fmt.Errorf("job %s: %w", id, domain.ErrJobNotFound)
	}
	if err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("select job: %w", err)
	}
	return job, nil
}

// UpdateJob saves the mutable job fields.
func (r *PostgresRepository) UpdateJob(ctx context.Context, job domain.AnalysisJob) error {
	query, args, err := updateJobQuery(job).ToSql()
	if err != nil {
		return fmt.Errorf("build update job: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s: %w", job.ID, domain.ErrJobNotFound)
	}
	return nil
}

// ListPending returns pending jobs, oldest first.
func (r *PostgresRepository) ListPending(ctx context.Context, limit int) ([]domain.AnalysisJob, error) {
	builder := selectJobsQuery().Where(sq.Eq{"status": string(domain.JobPending)}).OrderBy("created_at ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list pending: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}

	var jobs []domain.AnalysisJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return jobs, nil
}

// ReadStageOutput returns the stored JSON output of a stage.
func (r *PostgresRepository) ReadStageOutput(ctx context.Context, jobID string, stageID int) ([]byte, error) {
	query, args, err := selectOutputQuery(jobID, stageID, "output").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select output: %w", err)
	}

	var payload []byte
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stage %d output for job %s: %w", stageID, jobID, domain.ErrNotYetAvailable)
	}
	if err != nil {
		return nil, fmt.Errorf("select output: %w", err)
	}
	return payload, nil
}

// WriteStageOutput upserts a stage output and its completion time.
func (r *PostgresRepository) WriteStageOutput(ctx context.Context, jobID string, stageID int, value any, completedAt time.Time) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal stage %d output: %w", stageID, err)
	}

	query, args, err := upsertOutputQuery(jobID, stageID, payload, completedAt).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert output: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert output: %w", err)
	}
	return nil
}

// StageStatus reports when a stage output was stored.
func (r *PostgresRepository) StageStatus(ctx context.Context, jobID string, stageID int) (domain.StageCompletion, error) {
	query, args, err := selectOutputQuery(jobID, stageID, "completed_at").ToSql()
	if err != nil {
		return domain.StageCompletion{}, fmt.Errorf("build select status: %w", err)
	}

	var completedAt time.Time
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StageCompletion{}, nil
	}
	if err != nil {
		return domain.StageCompletion{}, fmt.Errorf("select status: %w", err)
	}
	completedAt = completedAt.UTC()
	return domain.StageCompletion{Completed: true, CompletedAt: &completedAt}, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func insertJobQuery(job domain.AnalysisJob) sq.InsertBuilder {
	return psql.Insert(jobsTable).
		Columns("id", "script_text", "status", "current_stage", "error", "created_at", "updated_at").
		Values(job.ID, job.ScriptText, string(job.Status), job.CurrentStage, job.Error, job.CreatedAt, job.UpdatedAt)
}

func updateJobQuery(job domain.AnalysisJob) sq.UpdateBuilder {
	return psql.Update(jobsTable).
		Set("status", string(job.Status)).
		Set("current_stage", job.CurrentStage).
		Set("error", job.Error).
		Set("updated_at", job.UpdatedAt).
		Where(sq.Eq{"id": job.ID})
}

func selectJobsQuery() sq.SelectBuilder {
	return psql.Select("id", "script_text", "status", "current_stage", "error", "created_at", "updated_at").
		From(jobsTable)
}

func selectOutputQuery(jobID string, stageID int, column string) sq.SelectBuilder {
	return psql.Select(column).
		From(outputsTable).
		Where(sq.Eq{"job_id": jobID, "stage_id": stageID})
}

func upsertOutputQuery(jobID string, stageID int, payload []byte, completedAt time.Time) sq.InsertBuilder {
	return psql.Insert(outputsTable).
		Columns("job_id", "stage_id", "output", "completed_at").
		Values(jobID, stageID, payload, completedAt.UTC()).
		Suffix("ON CONFLICT (job_id, stage_id) DO UPDATE SET output = EXCLUDED.output, completed_at = EXCLUDED.completed_at")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (domain.AnalysisJob, error) {
	var (
		job    domain.AnalysisJob
		status string
	)
	if err := row.Scan(&job.ID, &job.ScriptText, &status, &job.CurrentStage, &job.Error, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return domain.AnalysisJob{}, err
	}
	job.Status = domain.JobStatus(status)
	return job, nil
}
