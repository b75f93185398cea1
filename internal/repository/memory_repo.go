package repository

import (
	"context"
	"examforge/internal/model"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemorySessionRepo is a process-local SessionRepo. One mutex guards every
// session, which makes SaveIfStatus trivially atomic.
type MemorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{sessions: make(map[string]*model.Session)}
}

func (r *MemorySessionRepo) Create(_ context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	r.sessions[session.ID] = session.Clone()
	return nil
}

func (r *MemorySessionRepo) lookup(id, userID string) (*model.Session, error) {
	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *MemorySessionRepo) GetByID(_ context.Context, id, userID string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.lookup(id, userID)
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

func (r *MemorySessionRepo) SaveIfStatus(_ context.Context, id, userID string, expected model.SessionStatus, mutate MutateFunc) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, err := r.lookup(id, userID)
	if err != nil {
		return nil, err
	}
	if current.Status != expected {
		return current.Clone(), ErrStatusMismatch
	}
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.Revision = current.Revision + 1
	r.sessions[id] = next
	return next.Clone(), nil
}

func (r *MemorySessionRepo) SetQuestionState(_ context.Context, id, userID string, index int, state QuestionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.lookup(id, userID)
	if err != nil {
		return err
	}
	if s.Status != model.SessionOngoing {
		return ErrStatusMismatch
	}
	if index < 0 || index >= len(s.Questions) {
		return fmt.Errorf("question %d: %w", index, ErrNotFound)
	}
	next := s.Clone()
	q := &next.Questions[index]
	q.Answer = state.Answer
	q.Flagged = state.Flagged
	q.Note = state.Note
	next.Revision++
	r.sessions[id] = next
	return nil
}

// MemoryTemplateRepo is a process-local TemplateRepo.
type MemoryTemplateRepo struct {
	mu        sync.RWMutex
	templates map[string]model.QuestionTemplate
}

func NewMemoryTemplateRepo() *MemoryTemplateRepo {
	return &MemoryTemplateRepo{templates: make(map[string]model.QuestionTemplate)}
}

func (r *MemoryTemplateRepo) Create(_ context.Context, tmpl *model.QuestionTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = uuid.NewString()
	}
	if tmpl.CreatedAt.IsZero() {
		tmpl.CreatedAt = time.Now()
	}
	if tmpl.Version == 0 {
		tmpl.Version = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.templates[tmpl.ID]; exists {
		return fmt.Errorf("template %s already exists", tmpl.ID)
	}
	r.templates[tmpl.ID] = copyTemplate(*tmpl)
	return nil
}

func (r *MemoryTemplateRepo) GetByID(_ context.Context, id string) (*model.QuestionTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyTemplate(t)
	return &out, nil
}

func (r *MemoryTemplateRepo) GetByIDs(_ context.Context, ids []string) ([]*model.QuestionTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found := make([]*model.QuestionTemplate, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.templates[id]; ok {
			out := copyTemplate(t)
			found = append(found, &out)
		}
	}
	return orderByIDs(found, ids)
}

func (r *MemoryTemplateRepo) ListByAuthor(_ context.Context, authorID string) ([]*model.QuestionTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*model.QuestionTemplate{}
	for _, t := range r.templates {
		if t.AuthorID == authorID {
			c := copyTemplate(t)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func copyTemplate(t model.QuestionTemplate) model.QuestionTemplate {
	t.Options = append([]string(nil), t.Options...)
	t.AnswerKeys = append([]int(nil), t.AnswerKeys...)
	return t
}
