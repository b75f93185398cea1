package service

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"examforge/internal/dsl"
	"examforge/internal/logger"
	"examforge/internal/model"
	"examforge/internal/repository"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidTemplate wraps structural template problems found before or
// after running the template code.
var ErrInvalidTemplate = errors.New("invalid question template")

// QuestionService turns templates into concrete questions and stores templates
type QuestionService struct {
	templates repository.TemplateRepo
	salt      string
}

// NewQuestionService creates a new question service
func NewQuestionService(templates repository.TemplateRepo, salt string) *QuestionService {
	return &QuestionService{
		templates: templates,
		salt:      salt,
	}
}

// DeriveSeed maps (seed, templateID, version, salt) to a stable int64.
func DeriveSeed(seed, templateID string, version int, salt string) int64 {
	h := sha256.Sum256([]byte(seed + "|" + templateID + "|" + strconv.Itoa(version) + "|" + salt))
	return int64(binary.LittleEndian.Uint64(h[:8]) &^ (1 << 63))
}

func (s *QuestionService) rngFor(seed string, t *model.QuestionTemplate) *rand.Rand {
	return rand.New(rand.NewSource(DeriveSeed(seed, t.ID, t.Version, s.salt)))
}

// ValidateTemplate checks the template shape without running its code.
func ValidateTemplate(t *model.QuestionTemplate) error {
	if !t.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTemplate, t.Type)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidTemplate)
	}

	if t.Type.IsChoice() {
		if len(t.Options) < 2 {
			return fmt.Errorf("%w: choice questions need at least 2 options", ErrInvalidTemplate)
		}
		if len(t.AnswerKeys) == 0 {
			return fmt.Errorf("%w: choice questions need at least one answer key", ErrInvalidTemplate)
		}
		if t.Type == model.QuestionSingleChoice && len(t.AnswerKeys) != 1 {
			return fmt.Errorf("%w: single choice questions need exactly one answer key", ErrInvalidTemplate)
		}
		seen := make(map[int]bool, len(t.AnswerKeys))
		for _, k := range t.AnswerKeys {
			if k < 0 || k >= len(t.Options) {
				return fmt.Errorf("%w: answer key %d is out of range", ErrInvalidTemplate, k)
			}
			if seen[k] {
				return fmt.Errorf("%w: answer key %d is repeated", ErrInvalidTemplate, k)
			}
			seen[k] = true
		}
		return nil
	}

	if strings.TrimSpace(t.AnswerField) == "" {
		return fmt.Errorf("%w: %s questions need an answer field", ErrInvalidTemplate, t.Type)
	}
	if t.Type == model.QuestionNumeric && t.MaximumError < 0 {
		return fmt.Errorf("%w: maximum error cannot be negative", ErrInvalidTemplate)
	}
	return nil
}

// Materialize runs the template code with rng and renders the concrete question.
func Materialize(t *model.QuestionTemplate, rng *rand.Rand) (*model.ConcreteQuestion, error) {
	if err := ValidateTemplate(t); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	symbols, err := dsl.Execute(t.Code, rng)
	if err != nil {
		return nil, err
	}

	q := &model.ConcreteQuestion{
		TemplateID:      t.ID,
		TemplateVersion: t.Version,
		Type:            t.Type,
		Description:     dsl.Render(t.Description, symbols),
		Explanation:     dsl.Render(t.Explanation, symbols),
		MatchCase:       t.MatchCase,
	}

	switch t.Type {
	case model.QuestionSingleChoice, model.QuestionMultipleChoice:
		q.Options = make([]model.Option, len(t.Options))
		for i, text := range t.Options {
			q.Options[i] = model.Option{Key: i, Text: dsl.Render(text, symbols)}
		}
		if t.ShuffleOptions {
			rng.Shuffle(len(q.Options), func(i, j int) { q.Options[i], q.Options[j] = q.Options[j], q.Options[i] })
		}
		q.AnswerKeys = append([]int(nil), t.AnswerKeys...)
	case model.QuestionNumeric:
		rendered := strings.TrimSpace(dsl.Render(t.AnswerField, symbols))
		v, err := strconv.ParseFloat(rendered, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: answer field rendered to %q, which is not a number", ErrInvalidTemplate, rendered)
		}
		q.NumericAnswer = &v
		q.MaximumError = t.MaximumError
	case model.QuestionText:
		rendered := dsl.Render(t.AnswerField, symbols)
		q.TextAnswer = &rendered
	}
	return q, nil
}

// Preview materializes a template without persisting anything. An empty seed
// picks a fresh one, which is returned so the author can reproduce the result.
func (s *QuestionService) Preview(t *model.QuestionTemplate, seed string) (*model.ConcreteQuestion, string, error) {
	if seed == "" {
		seed = uuid.NewString()
	}
	q, err := Materialize(t, s.rngFor(seed, t))
	return q, seed, err
}

// CreateTemplate validates a template through the preview pipeline and stores it.
func (s *QuestionService) CreateTemplate(ctx context.Context, t *model.QuestionTemplate) error {
	t.ID = ""
	if t.Version <= 0 {
		t.Version = 1
	}
	if _, _, err := s.Preview(t, ""); err != nil {
		return err
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return fmt.Errorf("failed to store template: %w", err)
	}
	logger.Info("template %s (%s) created by %s", t.ID, t.Type, t.AuthorID)
	return nil
}

func (s *QuestionService) GetTemplate(ctx context.Context, id string) (*model.QuestionTemplate, error) {
	t, err := s.templates.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTemplateNotFound
	}
	return t, err
}

func (s *QuestionService) ListTemplates(ctx context.Context, authorID string) ([]*model.QuestionTemplate, error) {
	return s.templates.ListByAuthor(ctx, authorID)
}

// MaterializePool materializes every template concurrently. Each question has
// its own RNG derived from the seed, so the result does not depend on
// scheduling. Any failure fails the whole pool.
func (s *QuestionService) MaterializePool(ctx context.Context, templates []*model.QuestionTemplate, seed string) ([]model.ConcreteQuestion, error) {
	out := make([]model.ConcreteQuestion, len(templates))
	g, ctx := errgroup.WithContext(ctx)
	for i, t := range templates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			q, err := Materialize(t, s.rngFor(seed, t))
			if err != nil {
				return fmt.Errorf("template %s: %w", t.ID, err)
			}
			out[i] = *q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("question pool materialization failed: %v", err)
		return nil, ErrPoolMisconfigured
	}
	return out, nil
}

// Draw picks n templates in an order fixed by seed. n <= 0 or n >= len picks all.
func (s *QuestionService) Draw(templates []*model.QuestionTemplate, n int, seed string) []*model.QuestionTemplate {
	rng := rand.New(rand.NewSource(DeriveSeed(seed, "draw", 0, s.salt)))
	if n <= 0 || n > len(templates) {
		n = len(templates)
	}
	picked := make([]*model.QuestionTemplate, n)
	for i, idx := range rng.Perm(len(templates))[:n] {
		picked[i] = templates[idx]
	}
	return picked
}
