package repository

import (
	"context"
	"errors"
	"examforge/internal/model"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TemplateRepo handles storage of question templates
type TemplateRepo interface {
	Create(ctx context.Context, tmpl *model.QuestionTemplate) error
	GetByID(ctx context.Context, id string) (*model.QuestionTemplate, error)
	// GetByIDs returns templates in the order requested; any missing id is ErrNotFound.
	GetByIDs(ctx context.Context, ids []string) ([]*model.QuestionTemplate, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*model.QuestionTemplate, error)
}

type templateRepo struct {
	collection *mongo.Collection
}

// NewTemplateRepo creates a new template repository
func NewTemplateRepo(db *mongo.Database) TemplateRepo {
	return &templateRepo{
		collection: db.Collection("question_templates"),
	}
}

func (r *templateRepo) Create(ctx context.Context, tmpl *model.QuestionTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = primitive.NewObjectID().Hex()
	}
	if tmpl.CreatedAt.IsZero() {
		tmpl.CreatedAt = time.Now()
	}
	if tmpl.Version == 0 {
		tmpl.Version = 1
	}
	_, err := r.collection.InsertOne(ctx, tmpl)
	return err
}

func (r *templateRepo) GetByID(ctx context.Context, id string) (*model.QuestionTemplate, error) {
	var tmpl model.QuestionTemplate
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tmpl)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (r *templateRepo) GetByIDs(ctx context.Context, ids []string) ([]*model.QuestionTemplate, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var found []*model.QuestionTemplate
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	return orderByIDs(found, ids)
}

func (r *templateRepo) ListByAuthor(ctx context.Context, authorID string) ([]*model.QuestionTemplate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"authorId": authorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	templates := []*model.QuestionTemplate{}
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func orderByIDs(found []*model.QuestionTemplate, ids []string) ([]*model.QuestionTemplate, error) {
	byID := make(map[string]*model.QuestionTemplate, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	out := make([]*model.QuestionTemplate, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
		}
		out = append(out, t)
	}
	return out, nil
}
