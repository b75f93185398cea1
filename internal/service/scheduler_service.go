package service

import (
	"context"
	"examforge/internal/cache"
	"examforge/internal/logger"
	"examforge/internal/model"
	"sync"
	"time"
)

// JobHandler runs one claimed job. It must be idempotent: a failed job is
// requeued and may run again.
type JobHandler func(ctx context.Context, job model.Job) error

// SchedulerService polls the job queue and dispatches due jobs by type
type SchedulerService struct {
	jobs     cache.JobQueue
	handlers map[model.JobType]JobHandler
	poll     time.Duration
	batch    int
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSchedulerService creates a scheduler polling every poll interval
func NewSchedulerService(jobs cache.JobQueue, poll time.Duration, batch int) *SchedulerService {
	if poll <= 0 {
		poll = time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	return &SchedulerService{
		jobs:     jobs,
		handlers: make(map[model.JobType]JobHandler),
		poll:     poll,
		batch:    batch,
		now:      time.Now,
	}
}

// Register binds a handler to a job type. Call before Start.
func (s *SchedulerService) Register(t model.JobType, h JobHandler) {
	s.handlers[t] = h
}

// SetClock replaces the wall clock
func (s *SchedulerService) SetClock(now func() time.Time) {
	s.now = now
}

// Start launches the polling loop. Calling Start twice is a no-op.
func (s *SchedulerService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()
		logger.Info("scheduler started (poll %s, batch %d)", s.poll, s.batch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
					logger.Error("scheduler poll failed: %v", err)
				}
			}
		}
	}(s.done)
}

// Stop ends the loop and waits for an in-flight poll to finish.
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	logger.Info("scheduler stopped")
}

// RunOnce claims due jobs and runs them, returning how many succeeded.
func (s *SchedulerService) RunOnce(ctx context.Context) (int, error) {
	now := s.now()
	jobs, claimErr := s.jobs.ClaimDue(ctx, now, s.batch)
	if claimErr != nil {
		logger.Error("scheduler: claim failed after %d jobs: %v", len(jobs), claimErr)
	}

	ran := 0
	for _, job := range jobs {
		handler, ok := s.handlers[job.Type]
		if !ok {
			logger.Warn("no handler for job %s of type %s, dropping", job.Key(), job.Type)
			_ = s.jobs.Complete(ctx, job)
			continue
		}
		if err := handler(ctx, job); err != nil {
			logger.Error("job %s (%s) failed, requeueing: %v", job.Key(), job.Type, err)
			if rerr := s.jobs.Requeue(ctx, job, now.Add(s.poll)); rerr != nil {
				logger.Error("job %s: requeue failed: %v", job.Key(), rerr)
			}
			continue
		}
		if err := s.jobs.Complete(ctx, job); err != nil {
			logger.Warn("job %s: failed to clear record: %v", job.Key(), err)
		}
		ran++
	}
	return ran, claimErr
}
