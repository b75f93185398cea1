package service

import (
	"context"
	"examforge/internal/dsl"
	"examforge/internal/model"
	"examforge/internal/repository"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func additionTemplate(id string) *model.QuestionTemplate {
	return &model.QuestionTemplate{
		ID:           id,
		Type:         model.QuestionNumeric,
		Code:         "a = rand(1, 9)\nb = rand(1, 9)\nsum = a + b",
		Description:  "What is {{a}} + {{b}}?",
		Explanation:  "{{a}} + {{b}} = {{sum}}",
		AnswerField:  "{{sum}}",
		MaximumError: 0,
		Version:      1,
	}
}

func colorTemplate(id string) *model.QuestionTemplate {
	return &model.QuestionTemplate{
		ID:             id,
		Type:           model.QuestionMultipleChoice,
		Code:           `c = choice("red", "blue")`,
		Description:    "Which options are {{c}}-ish?",
		Options:        []string{"{{c}} one", "green", "{{c}} two", "yellow"},
		AnswerKeys:     []int{0, 2},
		ShuffleOptions: true,
		Version:        1,
	}
}

func TestValidateTemplate(t *testing.T) {
	valid := additionTemplate("t")
	require.NoError(t, ValidateTemplate(valid))

	cases := map[string]func(t *model.QuestionTemplate){
		"unknown type":        func(t *model.QuestionTemplate) { t.Type = "ESSAY" },
		"no description":      func(t *model.QuestionTemplate) { t.Description = " " },
		"no answer field":     func(t *model.QuestionTemplate) { t.AnswerField = "" },
		"negative tolerance":  func(t *model.QuestionTemplate) { t.MaximumError = -1 },
		"one option":          func(t *model.QuestionTemplate) { t.Type = model.QuestionSingleChoice; t.Options = []string{"a"}; t.AnswerKeys = []int{0} },
		"key out of range":    func(t *model.QuestionTemplate) { t.Type = model.QuestionSingleChoice; t.Options = []string{"a", "b"}; t.AnswerKeys = []int{2} },
		"two keys for single": func(t *model.QuestionTemplate) { t.Type = model.QuestionSingleChoice; t.Options = []string{"a", "b"}; t.AnswerKeys = []int{0, 1} },
		"repeated key":        func(t *model.QuestionTemplate) { t.Type = model.QuestionMultipleChoice; t.Options = []string{"a", "b"}; t.AnswerKeys = []int{1, 1} },
		"no keys":             func(t *model.QuestionTemplate) { t.Type = model.QuestionMultipleChoice; t.Options = []string{"a", "b"}; t.AnswerKeys = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			tmpl := additionTemplate("t")
			mutate(tmpl)
			assert.ErrorIs(t, ValidateTemplate(tmpl), ErrInvalidTemplate)
		})
	}
}

func TestMaterializeNumeric(t *testing.T) {
	q, err := Materialize(additionTemplate("t1"), rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	assert.Equal(t, model.QuestionNumeric, q.Type)
	assert.Equal(t, "t1", q.TemplateID)
	assert.NotContains(t, q.Description, "{{")
	require.NotNil(t, q.NumericAnswer)
	assert.GreaterOrEqual(t, *q.NumericAnswer, 2.0)
	assert.LessOrEqual(t, *q.NumericAnswer, 18.0)
	assert.True(t, strings.HasSuffix(q.Explanation, "= "+dsl.FormatNumber(*q.NumericAnswer)))
}

func TestMaterializeShuffleKeepsKeys(t *testing.T) {
	tmpl := colorTemplate("t2")
	q, err := Materialize(tmpl, rand.New(rand.NewSource(11)))
	require.NoError(t, err)

	require.Len(t, q.Options, 4)
	keys := make([]int, 0, 4)
	for _, o := range q.Options {
		keys = append(keys, o.Key)
		assert.NotContains(t, o.Text, "{{")
		if o.Key == 1 {
			assert.Equal(t, "green", o.Text)
		}
		if o.Key == 3 {
			assert.Equal(t, "yellow", o.Text)
		}
	}
	sort.Ints(keys)
	assert.Equal(t, []int{0, 1, 2, 3}, keys)
	assert.Equal(t, []int{0, 2}, q.AnswerKeys)
}

func TestMaterializeText(t *testing.T) {
	tmpl := &model.QuestionTemplate{
		ID:          "t3",
		Type:        model.QuestionText,
		Code:        `city = "Paris"` + "\ncountry = \"France\"",
		Description: "Capital of {{country}}?",
		AnswerField: "{{city}}",
		MatchCase:   true,
	}
	q, err := Materialize(tmpl, nil)
	require.NoError(t, err)
	assert.Equal(t, "Capital of France?", q.Description)
	require.NotNil(t, q.TextAnswer)
	assert.Equal(t, "Paris", *q.TextAnswer)
	assert.True(t, q.MatchCase)
}

func TestMaterializeErrors(t *testing.T) {
	tmpl := additionTemplate("t4")
	tmpl.Code = "x = 1/0"
	_, err := Materialize(tmpl, rand.New(rand.NewSource(1)))
	assert.True(t, dsl.IsKind(err, dsl.DivisionByZero))

	tmpl = additionTemplate("t5")
	tmpl.AnswerField = "{{missing}}"
	_, err = Materialize(tmpl, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrInvalidTemplate)
}

func TestMaterializeRejectsNonFiniteAnswers(t *testing.T) {
	for _, field := range []string{"NaN", "Inf", "+Inf", "-inf"} {
		tmpl := additionTemplate("nf")
		tmpl.AnswerField = field
		_, err := Materialize(tmpl, rand.New(rand.NewSource(1)))
		assert.ErrorIs(t, err, ErrInvalidTemplate, field)
	}

	big := "1" + strings.Repeat("0", 300)
	tmpl := additionTemplate("overflow")
	tmpl.Code = "x = " + big + " * " + big
	tmpl.AnswerField = "{{x}}"
	_, err := Materialize(tmpl, rand.New(rand.NewSource(1)))
	assert.True(t, dsl.IsKind(err, dsl.DomainError), "got %v", err)
}

func TestPreviewIsReproducible(t *testing.T) {
	svc := NewQuestionService(repository.NewMemoryTemplateRepo(), "salt")
	tmpl := colorTemplate("t6")

	first, seed, err := svc.Preview(tmpl, "fixed-seed")
	require.NoError(t, err)
	assert.Equal(t, "fixed-seed", seed)
	second, _, err := svc.Preview(tmpl, "fixed-seed")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, generated, err := svc.Preview(tmpl, "")
	require.NoError(t, err)
	assert.NotEmpty(t, generated)
}

func TestDeriveSeedDependsOnEveryPart(t *testing.T) {
	base := DeriveSeed("s", "t", 1, "salt")
	assert.Equal(t, base, DeriveSeed("s", "t", 1, "salt"))
	assert.NotEqual(t, base, DeriveSeed("s2", "t", 1, "salt"))
	assert.NotEqual(t, base, DeriveSeed("s", "t2", 1, "salt"))
	assert.NotEqual(t, base, DeriveSeed("s", "t", 2, "salt"))
	assert.NotEqual(t, base, DeriveSeed("s", "t", 1, "pepper"))
	assert.GreaterOrEqual(t, base, int64(0))
}

func TestMaterializePool(t *testing.T) {
	svc := NewQuestionService(repository.NewMemoryTemplateRepo(), "salt")
	templates := []*model.QuestionTemplate{additionTemplate("a"), colorTemplate("b"), additionTemplate("c")}

	first, err := svc.MaterializePool(context.Background(), templates, "seed")
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, "a", first[0].TemplateID)
	assert.Equal(t, "b", first[1].TemplateID)
	assert.Equal(t, "c", first[2].TemplateID)

	again, err := svc.MaterializePool(context.Background(), templates, "seed")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	broken := additionTemplate("bad")
	broken.Code = "x = (1"
	_, err = svc.MaterializePool(context.Background(), append(templates, broken), "seed")
	assert.ErrorIs(t, err, ErrPoolMisconfigured)
	assert.NotContains(t, err.Error(), "ParseError")
}

func TestDraw(t *testing.T) {
	svc := NewQuestionService(repository.NewMemoryTemplateRepo(), "salt")
	templates := []*model.QuestionTemplate{additionTemplate("a"), additionTemplate("b"), additionTemplate("c"), additionTemplate("d")}

	picked := svc.Draw(templates, 2, "seed")
	require.Len(t, picked, 2)
	assert.NotEqual(t, picked[0].ID, picked[1].ID)
	assert.Equal(t, picked, svc.Draw(templates, 2, "seed"))

	assert.Len(t, svc.Draw(templates, 0, "seed"), 4)
}

func TestCreateTemplateValidatesThroughPreview(t *testing.T) {
	repo := repository.NewMemoryTemplateRepo()
	svc := NewQuestionService(repo, "salt")
	ctx := context.Background()

	bad := additionTemplate("")
	bad.Code = "a = 1\na = 2"
	err := svc.CreateTemplate(ctx, bad)
	assert.True(t, dsl.IsKind(err, dsl.DuplicateAssignment))

	good := additionTemplate("")
	good.AuthorID = "author_x"
	require.NoError(t, svc.CreateTemplate(ctx, good))
	assert.NotEmpty(t, good.ID)

	stored, err := svc.GetTemplate(ctx, good.ID)
	require.NoError(t, err)
	assert.Equal(t, good.Code, stored.Code)

	_, err = svc.GetTemplate(ctx, "nope")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	list, err := svc.ListTemplates(ctx, "author_x")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
