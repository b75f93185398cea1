package service

import (
	"context"
	"encoding/json"
	"errors"
	"examforge/internal/cache"
	"examforge/internal/logger"
	"examforge/internal/model"
	"examforge/internal/repository"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const maxSessionDuration = 24 * time.Hour

// StartRequest describes a new quiz or exam attempt
type StartRequest struct {
	Kind          model.SessionKind `json:"kind"`
	TemplateIDs   []string          `json:"templateIds"`
	QuestionCount int               `json:"questionCount"`
	DurationSec   int               `json:"durationSec"`
}

// AnswerRequest saves the taker's state for one question slot. A null or
// missing answer clears it.
type AnswerRequest struct {
	Answer  json.RawMessage `json:"answer"`
	Flagged bool            `json:"flagged"`
	Note    string          `json:"note"`
}

// FinalizeResult is the outcome of Finalize. AlreadyEnded is set when some
// earlier call (submit or deadline) ended the session.
type FinalizeResult struct {
	Session      *model.Session `json:"session"`
	AlreadyEnded bool           `json:"alreadyEnded"`
}

// SessionService owns the session lifecycle: start, answer, finalize
type SessionService struct {
	sessions  repository.SessionRepo
	templates repository.TemplateRepo
	questions *QuestionService
	jobs      cache.JobQueue
	notifier  Notifier
	now       func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(
	sessions repository.SessionRepo,
	templates repository.TemplateRepo,
	questions *QuestionService,
	jobs cache.JobQueue,
) *SessionService {
	return &SessionService{
		sessions:  sessions,
		templates: templates,
		questions: questions,
		jobs:      jobs,
		notifier:  nopNotifier{},
		now:       time.Now,
	}
}

// SetNotifier sets the notifier for session events
func (s *SessionService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetClock replaces the wall clock
func (s *SessionService) SetClock(now func() time.Time) {
	s.now = now
}

// Start materializes the drawn questions, persists an ONGOING session and
// schedules its deadline job.
func (s *SessionService) Start(ctx context.Context, userID string, req StartRequest) (*model.Session, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind must be QUIZ or EXAM", ErrInvalidRequest)
	}
	if len(req.TemplateIDs) == 0 {
		return nil, fmt.Errorf("%w: templateIds is required", ErrInvalidRequest)
	}
	duration := time.Duration(req.DurationSec) * time.Second
	if duration <= 0 || duration > maxSessionDuration {
		return nil, fmt.Errorf("%w: durationSec must be between 1 and %d", ErrInvalidRequest, int(maxSessionDuration.Seconds()))
	}
	if req.QuestionCount < 0 || req.QuestionCount > len(req.TemplateIDs) {
		return nil, fmt.Errorf("%w: questionCount must be between 0 and %d", ErrInvalidRequest, len(req.TemplateIDs))
	}

	templates, err := s.templates.GetByIDs(ctx, req.TemplateIDs)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	seed := uuid.NewString()
	picked := s.questions.Draw(templates, req.QuestionCount, seed)
	questions, err := s.questions.MaterializePool(ctx, picked, seed)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &model.Session{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		UserID:      userID,
		Status:      model.SessionOngoing,
		StartedAt:   now,
		DurationSec: req.DurationSec,
		EndsAt:      now.Add(duration),
		Questions:   questions,
		Seed:        seed,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	job := model.Job{
		SessionID: session.ID,
		UserID:    userID,
		FireAt:    session.EndsAt,
		Type:      req.Kind.JobType(),
	}
	if err := s.jobs.Schedule(ctx, job); err != nil {
		// Get still ends overdue sessions, so the attempt stays bounded.
		logger.Error("session %s: failed to schedule %s: %v", session.ID, job.Type, err)
	}

	logger.Info("session %s started by %s: %d questions, ends %s", session.ID, userID, len(questions), session.EndsAt.Format(time.RFC3339))
	return session.View(), nil
}

// Get returns the owner's view of a session. An ONGOING session past its
// deadline is finalized first.
func (s *SessionService) Get(ctx context.Context, id, userID string) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionOngoing && !s.now().Before(session.EndsAt) {
		res, err := s.Finalize(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		session = res.Session
	}
	return session.View(), nil
}

// SaveAnswer stores the answer, flag and note for one question. Last write wins.
func (s *SessionService) SaveAnswer(ctx context.Context, id, userID string, index int, req AnswerRequest) (*model.ConcreteQuestion, error) {
	session, err := s.sessions.GetByID(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionOngoing {
		return nil, ErrSessionEnded
	}
	if !s.now().Before(session.EndsAt) {
		return nil, ErrSessionExpired
	}
	if index < 0 || index >= len(session.Questions) {
		return nil, ErrQuestionOutOfRange
	}

	q := session.Questions[index]
	answer, err := parseAnswer(&q, req.Answer)
	if err != nil {
		return nil, err
	}

	state := repository.QuestionState{Answer: answer, Flagged: req.Flagged, Note: req.Note}
	err = s.sessions.SetQuestionState(ctx, id, userID, index, state)
	if errors.Is(err, repository.ErrStatusMismatch) {
		return nil, ErrSessionEnded
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}

	q.Answer, q.Flagged, q.Note = answer, req.Flagged, req.Note
	redacted := q.Redacted()
	return &redacted, nil
}

func parseAnswer(q *model.ConcreteQuestion, raw json.RawMessage) (*model.UserAnswer, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch q.Type {
	case model.QuestionSingleChoice, model.QuestionMultipleChoice:
		var keys []int
		if err := json.Unmarshal(raw, &keys); err != nil {
			return nil, fmt.Errorf("%w: expected a list of option keys", ErrInvalidAnswer)
		}
		if q.Type == model.QuestionSingleChoice && len(keys) != 1 {
			return nil, fmt.Errorf("%w: single choice takes exactly one key", ErrInvalidAnswer)
		}
		valid := make(map[int]bool, len(q.Options))
		for _, o := range q.Options {
			valid[o.Key] = true
		}
		for _, k := range keys {
			if !valid[k] {
				return nil, fmt.Errorf("%w: unknown option key %d", ErrInvalidAnswer, k)
			}
		}
		return &model.UserAnswer{Keys: keys}, nil
	case model.QuestionNumeric:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: expected a number", ErrInvalidAnswer)
		}
		return &model.UserAnswer{Number: &v}, nil
	case model.QuestionText:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: expected a string", ErrInvalidAnswer)
		}
		return &model.UserAnswer{Text: &v}, nil
	}
	return nil, ErrInvalidAnswer
}

// Finalize ends the session once. Scoring runs inside the conditional write,
// so the status flip and the score land together; a second call, from either
// the owner or the deadline job, sees ENDED and reports AlreadyEnded.
func (s *SessionService) Finalize(ctx context.Context, id, userID string) (*FinalizeResult, error) {
	var score float64
	session, err := s.sessions.SaveIfStatus(ctx, id, userID, model.SessionOngoing, func(sess *model.Session) error {
		endedAt := s.now()
		score = ScoreQuestions(sess.Questions)
		sess.Status = model.SessionEnded
		sess.EndedAt = &endedAt
		sess.StandardizedScore = &score
		return nil
	})
	switch {
	case errors.Is(err, repository.ErrStatusMismatch):
		logger.Debug("session %s already ended", id)
		return &FinalizeResult{Session: session.View(), AlreadyEnded: true}, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrSessionNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to finalize session %s: %w", id, err)
	}

	found, err := s.jobs.Disable(ctx, id, userID)
	if err != nil {
		logger.Warn("session %s: failed to disable deadline job: %v", id, err)
	} else if !found {
		logger.Info("session %s: no pending deadline job to disable", id)
	}

	s.notifier.NotifyEnded(userID, id, score)
	logger.Info("session %s ended: score %.2f", id, score)
	return &FinalizeResult{Session: session.View()}, nil
}

// HandleDeadline is the job handler for END_QUIZ_SESSION and END_EXAM_SESSION.
func (s *SessionService) HandleDeadline(ctx context.Context, job model.Job) error {
	_, err := s.Finalize(ctx, job.SessionID, job.UserID)
	if errors.Is(err, ErrSessionNotFound) {
		logger.Warn("deadline job %s: session no longer exists", job.Key())
		return nil
	}
	return err
}
