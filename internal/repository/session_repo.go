package repository

import (
	"context"
	"errors"
	"examforge/internal/logger"
	"examforge/internal/model"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MutateFunc edits a private copy of the session inside a conditional write.
// Returning an error aborts the write.
type MutateFunc func(s *model.Session) error

// QuestionState is the taker-editable part of one question slot.
type QuestionState struct {
	Answer  *model.UserAnswer
	Flagged bool
	Note    string
}

// SessionRepo persists session aggregates. Every read and write is scoped to
// the owning user; a session owned by someone else looks missing.
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id, userID string) (*model.Session, error)

	// SaveIfStatus applies mutate and persists the result only if the session is
	// still in the expected status, as one atomic conditional write. On
	// ErrStatusMismatch the current session is returned alongside the error.
	SaveIfStatus(ctx context.Context, id, userID string, expected model.SessionStatus, mutate MutateFunc) (*model.Session, error)

	// SetQuestionState overwrites one question slot while the session is ONGOING.
	SetQuestionState(ctx context.Context, id, userID string, index int, state QuestionState) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a session repository with indexes
func NewSessionRepo(db *mongo.Database) SessionRepo {
	repo := &sessionRepo{
		collection: db.Collection("sessions"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *sessionRepo) ensureIndexes(ctx context.Context) {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "startedAt", Value: -1}},
		Options: options.Index().SetUnique(false),
	})
	if err != nil {
		logger.Warn("failed to create index on %s: %v", r.collection.Name(), err)
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.collection.InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id, userID string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SaveIfStatus reads the session, mutates a copy and replaces the document
// under a filter on status and revision. A concurrent writer bumps the
// revision, so the replace matches nothing and the loop re-reads.
func (r *sessionRepo) SaveIfStatus(ctx context.Context, id, userID string, expected model.SessionStatus, mutate MutateFunc) (*model.Session, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		current, err := r.GetByID(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		if current.Status != expected {
			return current, ErrStatusMismatch
		}

		next := current.Clone()
		if err := mutate(next); err != nil {
			return nil, err
		}
		next.Revision = current.Revision + 1

		filter := bson.M{
			"_id":      id,
			"userId":   userID,
			"status":   expected,
			"revision": current.Revision,
		}
		res, err := r.collection.ReplaceOne(ctx, filter, next)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return next, nil
		}
		logger.Debug("session %s: revision %d superseded, retrying", id, current.Revision)
	}
	return nil, fmt.Errorf("save session %s: %w", id, ErrConflict)
}

func (r *sessionRepo) SetQuestionState(ctx context.Context, id, userID string, index int, state QuestionState) error {
	prefix := "questions." + strconv.Itoa(index) + "."
	filter := bson.M{
		"_id":    id,
		"userId": userID,
		"status": model.SessionOngoing,
	}
	update := bson.M{
		"$set": bson.M{
			prefix + "answer":  state.Answer,
			prefix + "flagged": state.Flagged,
			prefix + "note":    state.Note,
		},
		"$inc": bson.M{"revision": 1},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// distinguish a missing session from one that ended meanwhile
		if _, err := r.GetByID(ctx, id, userID); err != nil {
			return err
		}
		return ErrStatusMismatch
	}
	return nil
}
