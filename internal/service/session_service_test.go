package service

import (
	"context"
	"encoding/json"
	"examforge/internal/cache"
	"examforge/internal/model"
	"examforge/internal/repository"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	svc       *SessionService
	sessions  *repository.MemorySessionRepo
	templates *repository.MemoryTemplateRepo
	jobs      *cache.MemoryJobQueue
	clock     *fakeClock
	notifier  *fakeNotifier
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		sessions:  repository.NewMemorySessionRepo(),
		templates: repository.NewMemoryTemplateRepo(),
		jobs:      cache.NewMemoryJobQueue(),
		clock:     newFakeClock(),
		notifier:  &fakeNotifier{},
	}
	questions := NewQuestionService(f.templates, "test-salt")
	f.svc = NewSessionService(f.sessions, f.templates, questions, f.jobs)
	f.svc.SetClock(f.clock.Now)
	f.svc.SetNotifier(f.notifier)

	ctx := context.Background()
	require.NoError(t, f.templates.Create(ctx, &model.QuestionTemplate{
		ID:          "capital",
		Type:        model.QuestionSingleChoice,
		Code:        `country = "France"`,
		Description: "Capital of {{country}}?",
		Options:     []string{"Rome", "Paris", "Berlin"},
		AnswerKeys:  []int{1},
	}))
	require.NoError(t, f.templates.Create(ctx, &model.QuestionTemplate{
		ID:           "five",
		Type:         model.QuestionNumeric,
		Code:         "x = 10 / 2",
		Description:  "Half of ten?",
		AnswerField:  "{{x}}",
		MaximumError: 0.1,
	}))
	return f
}

func (f *sessionFixture) start(t *testing.T, kind model.SessionKind) *model.Session {
	t.Helper()
	s, err := f.svc.Start(context.Background(), "u1", StartRequest{
		Kind:        kind,
		TemplateIDs: []string{"capital", "five"},
		DurationSec: 600,
	})
	require.NoError(t, err)
	return s
}

func indexOf(t *testing.T, s *model.Session, templateID string) int {
	t.Helper()
	for i, q := range s.Questions {
		if q.TemplateID == templateID {
			return i
		}
	}
	t.Fatalf("template %s not in session", templateID)
	return -1
}

func answer(t *testing.T, v interface{}) AnswerRequest {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return AnswerRequest{Answer: raw}
}

func TestStartSession(t *testing.T) {
	f := newSessionFixture(t)
	s := f.start(t, model.SessionExam)

	assert.Equal(t, model.SessionOngoing, s.Status)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, f.clock.Now().Add(10*time.Minute), s.EndsAt)
	assert.Nil(t, s.EndedAt)
	assert.Nil(t, s.StandardizedScore)
	require.Len(t, s.Questions, 2)
	for _, q := range s.Questions {
		assert.Nil(t, q.AnswerKeys)
		assert.Nil(t, q.NumericAnswer)
	}

	job, err := f.jobs.Get(context.Background(), s.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.JobEndExamSession, job.Type)
	assert.Equal(t, s.EndsAt, job.FireAt)
	assert.False(t, job.Disabled)
}

func TestStartSessionRejectsBadInput(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "u1", StartRequest{Kind: "HOMEWORK", TemplateIDs: []string{"five"}, DurationSec: 60})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = f.svc.Start(ctx, "u1", StartRequest{Kind: model.SessionQuiz, TemplateIDs: []string{"five"}})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = f.svc.Start(ctx, "u1", StartRequest{Kind: model.SessionQuiz, TemplateIDs: []string{"five"}, DurationSec: 60, QuestionCount: 2})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = f.svc.Start(ctx, "u1", StartRequest{Kind: model.SessionQuiz, TemplateIDs: []string{"nope"}, DurationSec: 60})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestStartSessionWithBrokenTemplateIsMisconfigured(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	require.NoError(t, f.templates.Create(ctx, &model.QuestionTemplate{
		ID:          "broken",
		Type:        model.QuestionNumeric,
		Code:        "x = sqrt(-4)",
		Description: "?",
		AnswerField: "{{x}}",
	}))

	_, err := f.svc.Start(ctx, "u1", StartRequest{Kind: model.SessionQuiz, TemplateIDs: []string{"five", "broken"}, DurationSec: 60})
	assert.ErrorIs(t, err, ErrPoolMisconfigured)
	assert.Equal(t, "this question pool is misconfigured", err.Error())
}

func TestSubmitScoresSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	s := f.start(t, model.SessionQuiz)

	_, err := f.svc.SaveAnswer(ctx, s.ID, "u1", indexOf(t, s, "capital"), answer(t, []int{1}))
	require.NoError(t, err)
	_, err = f.svc.SaveAnswer(ctx, s.ID, "u1", indexOf(t, s, "five"), answer(t, 5.05))
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	res, err := f.svc.Finalize(ctx, s.ID, "u1")
	require.NoError(t, err)
	assert.False(t, res.AlreadyEnded)
	assert.Equal(t, model.SessionEnded, res.Session.Status)
	require.NotNil(t, res.Session.StandardizedScore)
	assert.Equal(t, 10.0, *res.Session.StandardizedScore)
	require.NotNil(t, res.Session.EndedAt)
	assert.Equal(t, f.clock.Now(), *res.Session.EndedAt)
	for _, q := range res.Session.Questions {
		require.NotNil(t, q.IsCorrect)
		assert.True(t, *q.IsCorrect)
	}

	assert.Equal(t, []endedEvent{{UserID: "u1", SessionID: s.ID, Score: 10}}, f.notifier.Events())

	job, err := f.jobs.Get(ctx, s.ID, "u1")
	require.NoError(t, err)
	assert.True(t, job.Disabled)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	s := f.start(t, model.SessionQuiz)

	_, err := f.svc.SaveAnswer(ctx, s.ID, "u1", indexOf(t, s, "five"), answer(t, 5.2))
	require.NoError(t, err)

	first, err := f.svc.Finalize(ctx, s.ID, "u1")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.svc.Finalize(ctx, s.ID, "u1")
	require.NoError(t, err)

	assert.False(t, first.AlreadyEnded)
	assert.True(t, second.AlreadyEnded)
	assert.Equal(t, 0.0, *first.Session.StandardizedScore)
	assert.Equal(t, *first.Session.StandardizedScore, *second.Session.StandardizedScore)
	assert.Equal(t, *first.Session.EndedAt, *second.Session.EndedAt)
	assert.Len(t, f.notifier.Events(), 1)
}

func TestFinalizeConcurrentCallsEndOnce(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	s := f.start(t, model.SessionQuiz)

	var fresh atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.Finalize(ctx, s.ID, "u1")
			if !assert.NoError(t, err) {
				return
			}
			if !res.AlreadyEnded {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fresh.Load())
	assert.Len(t, f.notifier.Events(), 1)
}

func TestFinalizeUnknownOrForeignSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	s := f.start(t, model.SessionQuiz)

	_, err := f.svc.Finalize(ctx, s.ID, "intruder")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.Finalize(ctx, "missing", "u1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.Get(ctx, s.ID, "intruder")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSaveAnswerValidation(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	s := f.start(t, model.SessionQuiz)
	choice := indexOf(t, s, "capital")
	numeric := indexOf(t, s, "five")

	_, err := f.svc.SaveAnswer(ctx, s.ID, "u1", choice, answer(t, []int{0, 1}))
	assert.ErrorIs(t, err, ErrInvalidAnswer)
	_, err = f.svc.SaveAnswer(ctx, s.ID, "u1", choice, answer(t, []int{7}))
	assert.ErrorIs(t, err, ErrInvalidAnswer)
	_, err = f.svc.SaveAnswer(ctx, s.ID, "u1", numeric, answer(t, "five"))
	assert.ErrorIs(t, err, ErrInvalidAnswer)
	_, err = f.svc.SaveAnswer(ctx, s.ID, "u1", 9, answer(t, 1))
	assert.ErrorIs(t, err, ErrQuestionOutOfRange)

	q, err := f.svc.SaveAnswer(ctx, s.ID, "u1", numeric, AnswerRequest{Flagged: true, Note: "revisit"})
	require.NoError(t, err)
	assert.Nil(t, q.Answer)
	assert.True(t, q.Flagged)
	assert.Nil(t, q.NumericAnswer)

	got, err := f.svc.Get(ctx, s.ID, "u1")
	require.NoError(t, err)
	assert.True(t, got.Questions[numeric].Flagged)
	assert.Equal(t, "revisit", got.Questions[numeric].Note)
}

func TestSaveAnswerAfterEndOrDeadline(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	ended := f.start(t, model.SessionQuiz)
	_, err := f.svc.Finalize(ctx, ended.ID, "u1")
	require.NoError(t, err)
	_, err = f.svc.SaveAnswer(ctx, ended.ID, "u1", 0, answer(t, nil))
	assert.ErrorIs(t, err, ErrSessionEnded)

	late := f.start(t, model.SessionQuiz)
	f.clock.Advance(10 * time.Minute)
	_, err = f.svc.SaveAnswer(ctx, late.ID, "u1", indexOf(t, late, "five"), answer(t, 5))
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestGetFinalizesOverdueSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	s := f.start(t, model.SessionQuiz)

	got, err := f.svc.Get(ctx, s.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionOngoing, got.Status)

	f.clock.Advance(11 * time.Minute)
	got, err = f.svc.Get(ctx, s.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionEnded, got.Status)
	assert.NotNil(t, got.StandardizedScore)
	assert.NotNil(t, got.Questions[indexOf(t, got, "capital")].AnswerKeys)
	assert.Len(t, f.notifier.Events(), 1)
}
