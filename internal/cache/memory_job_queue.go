package cache

import (
	"context"
	"examforge/internal/model"
	"sort"
	"sync"
	"time"
)

// MemoryJobQueue is a process-local JobQueue with the same claim semantics
// as the Redis queue.
type MemoryJobQueue struct {
	mu      sync.Mutex
	records map[string]model.Job
	due     map[string]time.Time
}

func NewMemoryJobQueue() *MemoryJobQueue {
	return &MemoryJobQueue{
		records: make(map[string]model.Job),
		due:     make(map[string]time.Time),
	}
}

func (q *MemoryJobQueue) Schedule(_ context.Context, job model.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.Disabled = false
	q.records[job.Key()] = job
	q.due[job.Key()] = job.FireAt
	return nil
}

func (q *MemoryJobQueue) Disable(_ context.Context, sessionID, userID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	key := model.JobKey(sessionID, userID)
	_, pending := q.due[key]
	delete(q.due, key)
	job, ok := q.records[key]
	if !ok {
		return false, nil
	}
	wasActive := pending && !job.Disabled
	job.Disabled = true
	q.records[key] = job
	return wasActive, nil
}

func (q *MemoryJobQueue) ClaimDue(_ context.Context, now time.Time, limit int) ([]model.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	keys := make([]string, 0, len(q.due))
	for key, at := range q.due {
		if !at.After(now) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return q.due[keys[i]].Before(q.due[keys[j]]) })
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	jobs := make([]model.Job, 0, len(keys))
	for _, key := range keys {
		delete(q.due, key)
		if job, ok := q.records[key]; ok && !job.Disabled {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func (q *MemoryJobQueue) Requeue(_ context.Context, job model.Job, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.due[job.Key()] = at
	return nil
}

func (q *MemoryJobQueue) Complete(_ context.Context, job model.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.records, job.Key())
	return nil
}

func (q *MemoryJobQueue) Get(_ context.Context, sessionID, userID string) (*model.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.records[model.JobKey(sessionID, userID)]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &job, nil
}
