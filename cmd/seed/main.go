package main

import (
	"context"
	"examforge/internal/config"
	"examforge/internal/logger"
	"examforge/internal/model"
	"examforge/internal/repository"
	"examforge/internal/service"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func demoTemplates() []*model.QuestionTemplate {
	return []*model.QuestionTemplate{
		{
			Type:        model.QuestionNumeric,
			Code:        "a = rand(2, 9)\nb = rand(2, 9)\nproduct = a * b",
			Description: "What is {{a}} × {{b}}?",
			Explanation: "{{a}} × {{b}} = {{product}}",
			AnswerField: "{{product}}",
		},
		{
			Type:         model.QuestionNumeric,
			Code:         "r = rrand(1, 5)\nr2 = round(r, 1)\narea = round(3.14159 * r2 * r2, 2)",
			Description:  "A circle has radius {{r2}} cm. What is its area in cm², to two decimals?",
			AnswerField:  "{{area}}",
			MaximumError: 0.05,
		},
		{
			Type:           model.QuestionSingleChoice,
			Code:           "deg = choice(30, 60)\nv = round(sin(deg * 3.14159265358979 / 180), 3)\nw = round(cos(deg * 3.14159265358979 / 180), 3)",
			Description:    "sin({{deg}}°) rounded to three decimals is",
			Options:        []string{"{{v}}", "{{w}}", "0", "1"},
			AnswerKeys:     []int{0},
			ShuffleOptions: true,
		},
		{
			Type:        model.QuestionMultipleChoice,
			Code:        "n = rand(10, 30)",
			Description: "Which statements about {{n}} are true?",
			Options:     []string{"It is greater than 9", "It is less than 31", "It is negative"},
			AnswerKeys:  []int{0, 1},
		},
		{
			Type:        model.QuestionText,
			Code:        `capital = choice("Paris", "Rome", "Madrid")` + "\n" + `country = if capital == "Paris" then "France" else if capital == "Rome" then "Italy" else "Spain"`,
			Description: "What is the capital of {{country}}?",
			AnswerField: "{{capital}}",
		},
	}
}

func main() {
	cfg := config.Load()
	logCloser := logger.Init(cfg.LogLevel, cfg.LogFile)
	defer logCloser.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	templates := repository.NewTemplateRepo(client.Database(cfg.MongoDB))
	questions := service.NewQuestionService(templates, cfg.GenerationSalt)

	authorID := "author_" + cfg.AuthorUsername
	var ids []string
	for _, t := range demoTemplates() {
		t.AuthorID = authorID
		if err := questions.CreateTemplate(ctx, t); err != nil {
			logger.Fatalf("Failed to insert template %q: %v", t.Description, err)
		}
		ids = append(ids, t.ID)
	}

	fmt.Printf("Created %d templates for %s:\n", len(ids), authorID)
	for _, id := range ids {
		fmt.Println("  " + id)
	}
}
