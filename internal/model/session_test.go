package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionViewRedactsWhileOngoing(t *testing.T) {
	answer := 4.0
	s := &Session{
		ID:     "s1",
		Status: SessionOngoing,
		Questions: []ConcreteQuestion{
			{Type: QuestionNumeric, Description: "2+2", Explanation: "sum", NumericAnswer: &answer, MaximumError: 0.1},
			{Type: QuestionSingleChoice, Options: []Option{{Key: 0, Text: "a"}, {Key: 1, Text: "b"}}, AnswerKeys: []int{1}},
		},
	}

	view := s.View()
	assert.Nil(t, view.Questions[0].NumericAnswer)
	assert.Empty(t, view.Questions[0].Explanation)
	assert.Nil(t, view.Questions[1].AnswerKeys)
	assert.Len(t, view.Questions[1].Options, 2)

	// the original keeps its grading data
	require.NotNil(t, s.Questions[0].NumericAnswer)
	assert.Equal(t, []int{1}, s.Questions[1].AnswerKeys)
}

func TestSessionViewKeepsGradingOnceEnded(t *testing.T) {
	now := time.Now()
	score := 10.0
	s := &Session{
		Status:            SessionEnded,
		EndedAt:           &now,
		StandardizedScore: &score,
		Questions:         []ConcreteQuestion{{Type: QuestionSingleChoice, AnswerKeys: []int{0}}},
	}
	assert.Equal(t, []int{0}, s.View().Questions[0].AnswerKeys)
}

func TestSessionCloneIsDeep(t *testing.T) {
	text := "x"
	s := &Session{Questions: []ConcreteQuestion{{Answer: &UserAnswer{Keys: []int{1}, Text: &text}}}}

	c := s.Clone()
	c.Questions[0].Answer.Keys[0] = 9
	*c.Questions[0].Answer.Text = "y"
	c.Questions[0].Flagged = true

	assert.Equal(t, 1, s.Questions[0].Answer.Keys[0])
	assert.Equal(t, "x", *s.Questions[0].Answer.Text)
	assert.False(t, s.Questions[0].Flagged)
}

func TestSessionKindJobType(t *testing.T) {
	assert.Equal(t, JobEndQuizSession, SessionQuiz.JobType())
	assert.Equal(t, JobEndExamSession, SessionExam.JobType())
	assert.False(t, SessionKind("OTHER").Valid())
	assert.Equal(t, "s:u", Job{SessionID: "s", UserID: "u"}.Key())
}
