package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/ports"
)

const (
	redisKeyPrefix  = "comedy"
	redisPendingKey = redisKeyPrefix + ":jobs:pending"
)

// RedisStore keeps jobs as JSON strings and stage outputs in per-job hashes.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. A zero ttl keeps keys forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// OpenRedis connects using a redis:// URL.
func OpenRedis(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, ttl), nil
}

func jobKey(id string) string {
	return redisKeyPrefix + ":job:" + id
}

func outputsKey(jobID string) string {
	return jobKey(jobID) + ":outputs"
}

func completedKey(jobID string) string {
	return jobKey(jobID) + ":completed"
}

// CreateJob stores a job unless one with the same id exists.
func (s *RedisStore) CreateJob(ctx context.Context, job domain.AnalysisJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	ok, err := s.client.SetNX(ctx, jobKey(job.ID), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("set job: %w", err)
	}
	if !ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}

	if job.Status == domain.JobPending {
		if err := s.client.ZAdd(ctx, redisPendingKey, redis.Z{
			Score:  float64(job.CreatedAt.UnixNano()),
			Member: job.ID,
		}).Err(); err != nil {
			return fmt.Errorf("index pending job: %w", err)
		}
	}
	return nil
}

// GetJob loads a job by id.
func (s *RedisStore) GetJob(ctx context.Context, id string) (domain.AnalysisJob, error) {
	payload, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.AnalysisJob{}, fmt.Errorf("job %s: %w", id, domain.ErrJobNotFound)
	}
	if err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("get job: %w", err)
	}

	var job domain.AnalysisJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("decode job %s: %w", id, err)
	}
	return job, nil
}

// UpdateJob replaces an existing job and keeps the pending index in sync.
func (s *RedisStore) UpdateJob(ctx context.Context, job domain.AnalysisJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	ok, err := s.client.SetXX(ctx, jobKey(job.ID), payload, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("set job: %w", err)
	}
	if !ok {
		return fmt.Errorf("job %s: %w", job.ID, domain.ErrJobNotFound)
	}

	if job.Status == domain.JobPending {
		err = s.client.ZAdd(ctx, redisPendingKey, redis.Z{
			Score:  float64(job.CreatedAt.UnixNano()),
			Member: job.ID,
		}).Err()
	} else {
		err = s.client.ZRem(ctx, redisPendingKey, job.ID).Err()
	}
	if err != nil {
		return fmt.Errorf("update pending index: %w", err)
	}
	return nil
}

// ListPending returns pending jobs, oldest first. Expired ids are pruned from the index.
func (s *RedisStore) ListPending(ctx context.Context, limit int) ([]domain.AnalysisJob, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := s.client.ZRange(ctx, redisPendingKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("range pending: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = jobKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load pending: %w", err)
	}

	jobs := make([]domain.AnalysisJob, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			_ = s.client.ZRem(ctx, redisPendingKey, ids[i]).Err()
			continue
		}
		var job domain.AnalysisJob
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			return nil, fmt.Errorf("decode job %s: %w", ids[i], err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// ReadStageOutput returns the stored JSON output of a stage.
func (s *RedisStore) ReadStageOutput(ctx context.Context, jobID string, stageID int) ([]byte, error) {
	payload, err := s.client.HGet(ctx, outputsKey(jobID), strconv.Itoa(stageID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("stage %d output for job %s: %w", stageID, jobID, domain.ErrNotYetAvailable)
	}
	if err != nil {
		return nil, fmt.Errorf("read stage output: %w", err)
	}
	return payload, nil
}

// WriteStageOutput stores the output and completion time in one transaction.
func (s *RedisStore) WriteStageOutput(ctx context.Context, jobID string, stageID int, value any, completedAt time.Time) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal stage %d output: %w", stageID, err)
	}

	field := strconv.Itoa(stageID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, outputsKey(jobID), field, payload)
	pipe.HSet(ctx, completedKey(jobID), field, completedAt.UTC().Format(time.RFC3339Nano))
	if s.ttl > 0 {
		pipe.Expire(ctx, outputsKey(jobID), s.ttl)
		pipe.Expire(ctx, completedKey(jobID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write stage output: %w", err)
	}
	return nil
}

// StageStatus reports when a stage output was stored.
func (s *RedisStore) StageStatus(ctx context.Context, jobID string, stageID int) (domain.StageCompletion, error) {
	raw, err := s.client.HGet(ctx, completedKey(jobID), strconv.Itoa(stageID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.StageCompletion{}, nil
	}
	if err != nil {
		return domain.StageCompletion{}, fmt.Errorf("read stage status: %w", err)
	}

	completedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return domain.StageCompletion{}, fmt.Errorf("parse completion time: %w", err)
	}
	return domain.StageCompletion{Completed: true, CompletedAt: &completedAt}, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
