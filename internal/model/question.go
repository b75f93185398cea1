package model

// Option is a rendered choice. Key is the option's index in the template, so
// it stays stable when options are shuffled.
type Option struct {
	Key  int    `json:"key" bson:"key"`
	Text string `json:"text" bson:"text"`
}

// UserAnswer holds whichever payload matches the question type.
type UserAnswer struct {
	Keys   []int    `json:"keys,omitempty" bson:"keys,omitempty"`
	Number *float64 `json:"number,omitempty" bson:"number,omitempty"`
	Text   *string  `json:"text,omitempty" bson:"text,omitempty"`
}

// ConcreteQuestion is a materialized template owned by one session.
type ConcreteQuestion struct {
	TemplateID      string       `json:"templateId" bson:"templateId"`
	TemplateVersion int          `json:"templateVersion" bson:"templateVersion"`
	Type            QuestionType `json:"type" bson:"type"`
	Description     string       `json:"description" bson:"description"`
	Explanation     string       `json:"explanation,omitempty" bson:"explanation,omitempty"`
	Options         []Option     `json:"options,omitempty" bson:"options,omitempty"`

	// Grading data, hidden from the taker while the session is ongoing.
	AnswerKeys    []int    `json:"answerKeys,omitempty" bson:"answerKeys,omitempty"`
	NumericAnswer *float64 `json:"numericAnswer,omitempty" bson:"numericAnswer,omitempty"`
	TextAnswer    *string  `json:"textAnswer,omitempty" bson:"textAnswer,omitempty"`
	MaximumError  float64  `json:"maximumError,omitempty" bson:"maximumError,omitempty"`
	MatchCase     bool     `json:"matchCase" bson:"matchCase"`

	// Taker state
	Answer    *UserAnswer `json:"answer,omitempty" bson:"answer,omitempty"`
	IsCorrect *bool       `json:"isCorrect,omitempty" bson:"isCorrect,omitempty"`
	Flagged   bool        `json:"flagged" bson:"flagged"`
	Note      string      `json:"note,omitempty" bson:"note,omitempty"`
}

// Redacted returns a copy without grading data.
func (q ConcreteQuestion) Redacted() ConcreteQuestion {
	q.Explanation = ""
	q.AnswerKeys = nil
	q.NumericAnswer = nil
	q.TextAnswer = nil
	q.MaximumError = 0
	q.IsCorrect = nil
	return q
}

func (q ConcreteQuestion) clone() ConcreteQuestion {
	q.Options = append([]Option(nil), q.Options...)
	q.AnswerKeys = append([]int(nil), q.AnswerKeys...)
	if q.NumericAnswer != nil {
		v := *q.NumericAnswer
		q.NumericAnswer = &v
	}
	if q.TextAnswer != nil {
		v := *q.TextAnswer
		q.TextAnswer = &v
	}
	if q.IsCorrect != nil {
		v := *q.IsCorrect
		q.IsCorrect = &v
	}
	if q.Answer != nil {
		a := *q.Answer
		a.Keys = append([]int(nil), a.Keys...)
		if a.Number != nil {
			v := *a.Number
			a.Number = &v
		}
		if a.Text != nil {
			v := *a.Text
			a.Text = &v
		}
		q.Answer = &a
	}
	return q
}
