package cache

import (
	"context"
	"examforge/internal/model"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisQueue(t *testing.T) JobQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewJobQueue(client)
}

func queues(t *testing.T) map[string]JobQueue {
	return map[string]JobQueue{
		"redis":  newRedisQueue(t),
		"memory": NewMemoryJobQueue(),
	}
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func job(session string, fireAt time.Time) model.Job {
	return model.Job{SessionID: session, UserID: "u1", FireAt: fireAt, Type: model.JobEndQuizSession}
}

func TestJobQueueClaimsOnlyDueJobs(t *testing.T) {
	for name, q := range queues(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, q.Schedule(ctx, job("early", base.Add(time.Second))))
			require.NoError(t, q.Schedule(ctx, job("late", base.Add(time.Hour))))

			jobs, err := q.ClaimDue(ctx, base, 10)
			require.NoError(t, err)
			assert.Empty(t, jobs)

			jobs, err = q.ClaimDue(ctx, base.Add(time.Minute), 10)
			require.NoError(t, err)
			require.Len(t, jobs, 1)
			assert.Equal(t, "early", jobs[0].SessionID)
			assert.Equal(t, model.JobEndQuizSession, jobs[0].Type)
			assert.True(t, jobs[0].FireAt.Equal(base.Add(time.Second)))

			// claimed once
			jobs, err = q.ClaimDue(ctx, base.Add(time.Minute), 10)
			require.NoError(t, err)
			assert.Empty(t, jobs)
		})
	}
}

func TestJobQueueRespectsLimit(t *testing.T) {
	for name, q := range queues(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i, id := range []string{"a", "b", "c"} {
				require.NoError(t, q.Schedule(ctx, job(id, base.Add(time.Duration(i)*time.Second))))
			}
			jobs, err := q.ClaimDue(ctx, base.Add(time.Minute), 2)
			require.NoError(t, err)
			require.Len(t, jobs, 2)
			assert.Equal(t, "a", jobs[0].SessionID)
			assert.Equal(t, "b", jobs[1].SessionID)
		})
	}
}

func TestJobQueueDisable(t *testing.T) {
	for name, q := range queues(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, q.Schedule(ctx, job("s1", base)))

			found, err := q.Disable(ctx, "s1", "u1")
			require.NoError(t, err)
			assert.True(t, found)

			rec, err := q.Get(ctx, "s1", "u1")
			require.NoError(t, err)
			assert.True(t, rec.Disabled)

			jobs, err := q.ClaimDue(ctx, base.Add(time.Hour), 10)
			require.NoError(t, err)
			assert.Empty(t, jobs)

			found, err = q.Disable(ctx, "s1", "u1")
			require.NoError(t, err)
			assert.False(t, found)

			found, err = q.Disable(ctx, "unknown", "u1")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestJobQueueRequeueAndComplete(t *testing.T) {
	for name, q := range queues(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			j := job("s1", base)
			require.NoError(t, q.Schedule(ctx, j))

			jobs, err := q.ClaimDue(ctx, base, 10)
			require.NoError(t, err)
			require.Len(t, jobs, 1)

			require.NoError(t, q.Requeue(ctx, jobs[0], base.Add(5*time.Second)))
			jobs, err = q.ClaimDue(ctx, base.Add(time.Second), 10)
			require.NoError(t, err)
			assert.Empty(t, jobs)
			jobs, err = q.ClaimDue(ctx, base.Add(5*time.Second), 10)
			require.NoError(t, err)
			require.Len(t, jobs, 1)

			require.NoError(t, q.Complete(ctx, jobs[0]))
			_, err = q.Get(ctx, "s1", "u1")
			assert.ErrorIs(t, err, ErrJobNotFound)
		})
	}
}

func TestJobQueueConcurrentClaimers(t *testing.T) {
	for name, q := range queues(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
				require.NoError(t, q.Schedule(ctx, job(id, base)))
			}

			var mu sync.Mutex
			seen := map[string]int{}
			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					jobs, err := q.ClaimDue(ctx, base, 10)
					assert.NoError(t, err)
					mu.Lock()
					for _, j := range jobs {
						seen[j.SessionID]++
					}
					mu.Unlock()
				}()
			}
			wg.Wait()

			assert.Len(t, seen, 6)
			for id, n := range seen {
				assert.Equal(t, 1, n, id)
			}
		})
	}
}

func TestRedisClaimSkipsUnreadableRecords(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	q := NewJobQueue(client)
	ctx := context.Background()

	require.NoError(t, q.Schedule(ctx, job("a", base.Add(time.Second))))
	require.NoError(t, q.Schedule(ctx, job("b", base.Add(2*time.Second))))
	mr.HSet(recordsKey, model.JobKey("b", "u1"), "not json")

	jobs, err := q.ClaimDue(ctx, base.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "a", jobs[0].SessionID)

	assert.Empty(t, mr.HGet(recordsKey, model.JobKey("b", "u1")), "corrupt record is dropped")

	jobs, err = q.ClaimDue(ctx, base.Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
