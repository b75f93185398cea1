package model

import "time"

// QuestionType defines how a question is answered and graded
type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "SINGLE_CHOICE"   // exactly one correct key
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE" // one or more correct keys, set comparison
	QuestionNumeric        QuestionType = "NUMERIC"         // |user - answer| <= maximumError
	QuestionText           QuestionType = "TEXT"            // exact or case-insensitive match
)

// IsChoice reports whether answers are option keys.
func (t QuestionType) IsChoice() bool {
	return t == QuestionSingleChoice || t == QuestionMultipleChoice
}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultipleChoice, QuestionNumeric, QuestionText:
		return true
	}
	return false
}

// QuestionTemplate is authored once and materialized into a ConcreteQuestion
// for every session that draws it. Text fields may contain {{name}}
// placeholders bound by Code.
type QuestionTemplate struct {
	ID             string       `json:"id" bson:"_id,omitempty"`
	Type           QuestionType `json:"type" bson:"type"`
	Code           string       `json:"code" bson:"code"`
	Description    string       `json:"description" bson:"description"`
	Explanation    string       `json:"explanation,omitempty" bson:"explanation,omitempty"`
	Options        []string     `json:"options,omitempty" bson:"options,omitempty"`       // choice only
	AnswerKeys     []int        `json:"answerKeys,omitempty" bson:"answerKeys,omitempty"` // indices into Options
	ShuffleOptions bool         `json:"shuffleOptions" bson:"shuffleOptions"`
	AnswerField    string       `json:"answerField,omitempty" bson:"answerField,omitempty"` // numeric/text, rendered
	MaximumError   float64      `json:"maximumError,omitempty" bson:"maximumError,omitempty"`
	MatchCase      bool         `json:"matchCase" bson:"matchCase"`
	Version        int          `json:"version" bson:"version"`
	AuthorID       string       `json:"authorId" bson:"authorId"`
	CreatedAt      time.Time    `json:"createdAt" bson:"createdAt"`
}
