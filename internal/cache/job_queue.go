package cache

import (
	"context"
	"encoding/json"
	"errors"
	"examforge/internal/logger"
	"examforge/internal/model"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// JobQueue is the deferred job substrate: jobs are scheduled for a fire time,
// claimed once when due, and can be disabled before they fire.
type JobQueue interface {
	Schedule(ctx context.Context, job model.Job) error
	// Disable stops a pending job from firing. found is false when no active
	// job exists for the pair.
	Disable(ctx context.Context, sessionID, userID string) (found bool, err error)
	// ClaimDue removes up to limit due jobs from the queue and returns them.
	// Each job is handed to exactly one claimer. On error the jobs claimed
	// so far are still returned and must be handled.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]model.Job, error)
	// Requeue puts a claimed job back to fire at the given time.
	Requeue(ctx context.Context, job model.Job, at time.Time) error
	// Complete drops the record of a job that ran.
	Complete(ctx context.Context, job model.Job) error
	Get(ctx context.Context, sessionID, userID string) (*model.Job, error)
}

// ErrJobNotFound is returned by Get when no record exists.
var ErrJobNotFound = errors.New("job not found")

const (
	dueKey     = "jobs:due"     // ZSET member=job key, score=fireAt unix ms
	recordsKey = "jobs:records" // HASH job key -> JSON record
)

type jobQueue struct {
	client *redis.Client
}

// NewJobQueue creates a Redis-backed job queue
func NewJobQueue(client *redis.Client) JobQueue {
	return &jobQueue{
		client: client,
	}
}

func (q *jobQueue) Schedule(ctx context.Context, job model.Job) error {
	job.Disabled = false
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, recordsKey, job.Key(), data)
	pipe.ZAdd(ctx, dueKey, redis.Z{Score: float64(job.FireAt.UnixMilli()), Member: job.Key()})
	_, err = pipe.Exec(ctx)
	return err
}

func (q *jobQueue) Disable(ctx context.Context, sessionID, userID string) (bool, error) {
	key := model.JobKey(sessionID, userID)
	removed, err := q.client.ZRem(ctx, dueKey, key).Result()
	if err != nil {
		return false, err
	}
	job, err := q.Get(ctx, sessionID, userID)
	if errors.Is(err, ErrJobNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	wasActive := removed == 1 && !job.Disabled
	job.Disabled = true
	data, err := json.Marshal(job)
	if err != nil {
		return false, err
	}
	if err := q.client.HSet(ctx, recordsKey, key, data).Err(); err != nil {
		return false, err
	}
	return wasActive, nil
}

func (q *jobQueue) ClaimDue(ctx context.Context, now time.Time, limit int) ([]model.Job, error) {
	keys, err := q.client.ZRangeByScore(ctx, dueKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, err
	}

	jobs := make([]model.Job, 0, len(keys))
	for _, key := range keys {
		// ZREM is the claim: only one poller sees 1 for a given key.
		removed, err := q.client.ZRem(ctx, dueKey, key).Result()
		if err != nil {
			return jobs, err
		}
		if removed == 0 {
			continue
		}
		data, err := q.client.HGet(ctx, recordsKey, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			// put the claim back so the next poll retries it
			logger.Error("jobs: failed to read record %s: %v", key, err)
			if zerr := q.client.ZAdd(ctx, dueKey, redis.Z{Score: float64(now.UnixMilli()), Member: key}).Err(); zerr != nil {
				logger.Error("jobs: failed to release claim on %s: %v", key, zerr)
			}
			continue
		}
		var job model.Job
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			logger.Error("jobs: dropping unreadable record %s: %v", key, err)
			q.client.HDel(ctx, recordsKey, key)
			continue
		}
		if job.Disabled {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (q *jobQueue) Requeue(ctx context.Context, job model.Job, at time.Time) error {
	return q.client.ZAdd(ctx, dueKey, redis.Z{Score: float64(at.UnixMilli()), Member: job.Key()}).Err()
}

func (q *jobQueue) Complete(ctx context.Context, job model.Job) error {
	return q.client.HDel(ctx, recordsKey, job.Key()).Err()
}

func (q *jobQueue) Get(ctx context.Context, sessionID, userID string) (*model.Job, error) {
	data, err := q.client.HGet(ctx, recordsKey, model.JobKey(sessionID, userID)).Result()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	var job model.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, err
	}
	return &job, nil
}
