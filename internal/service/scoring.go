package service

import (
	"examforge/internal/dsl"
	"examforge/internal/model"
	"math"
	"strings"
)

// Grade reports whether the captured answer is correct. Unanswered questions
// are incorrect.
func Grade(q *model.ConcreteQuestion) bool {
	a := q.Answer
	if a == nil {
		return false
	}
	switch q.Type {
	case model.QuestionSingleChoice, model.QuestionMultipleChoice:
		return len(a.Keys) > 0 && sameKeySet(a.Keys, q.AnswerKeys)
	case model.QuestionNumeric:
		if a.Number == nil || q.NumericAnswer == nil {
			return false
		}
		return math.Abs(*a.Number-*q.NumericAnswer) <= q.MaximumError+dsl.Epsilon
	case model.QuestionText:
		if a.Text == nil || q.TextAnswer == nil {
			return false
		}
		user, want := strings.TrimSpace(*a.Text), strings.TrimSpace(*q.TextAnswer)
		if q.MatchCase {
			return user == want
		}
		return strings.EqualFold(user, want)
	}
	return false
}

func sameKeySet(a, b []int) bool {
	set := make(map[int]bool, len(b))
	for _, k := range b {
		set[k] = true
	}
	seen := make(map[int]bool, len(a))
	for _, k := range a {
		if !set[k] {
			return false
		}
		seen[k] = true
	}
	return len(seen) == len(set)
}

// ScoreQuestions marks every question and returns 10 * correct / total,
// or 0 for an empty session.
func ScoreQuestions(questions []model.ConcreteQuestion) float64 {
	if len(questions) == 0 {
		return 0
	}
	correct := 0
	for i := range questions {
		ok := Grade(&questions[i])
		questions[i].IsCorrect = &ok
		if ok {
			correct++
		}
	}
	return 10 * float64(correct) / float64(len(questions))
}
