package model

import "time"

type SessionStatus string

const (
	SessionOngoing SessionStatus = "ONGOING"
	SessionEnded   SessionStatus = "ENDED"
)

type SessionKind string

const (
	SessionQuiz SessionKind = "QUIZ"
	SessionExam SessionKind = "EXAM"
)

// Session is a quiz or exam attempt. Status moves ONGOING -> ENDED once;
// EndedAt and StandardizedScore are set exactly when it is ENDED.
type Session struct {
	ID                string             `json:"id" bson:"_id"`
	Kind              SessionKind        `json:"kind" bson:"kind"`
	UserID            string             `json:"userId" bson:"userId"`
	Status            SessionStatus      `json:"status" bson:"status"`
	StartedAt         time.Time          `json:"startedAt" bson:"startedAt"`
	DurationSec       int                `json:"durationSec" bson:"durationSec"`
	EndsAt            time.Time          `json:"endsAt" bson:"endsAt"`
	EndedAt           *time.Time         `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
	StandardizedScore *float64           `json:"standardizedScore,omitempty" bson:"standardizedScore,omitempty"`
	Questions         []ConcreteQuestion `json:"questions" bson:"questions"`
	Seed              string             `json:"-" bson:"seed"`
	Revision          int64              `json:"-" bson:"revision"`
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (s *Session) Clone() *Session {
	c := *s
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	if s.StandardizedScore != nil {
		v := *s.StandardizedScore
		c.StandardizedScore = &v
	}
	c.Questions = make([]ConcreteQuestion, len(s.Questions))
	for i, q := range s.Questions {
		c.Questions[i] = q.clone()
	}
	return &c
}

// View returns the representation sent to the owner: grading data is
// stripped while the session is still ongoing.
func (s *Session) View() *Session {
	v := s.Clone()
	if v.Status == SessionOngoing {
		for i := range v.Questions {
			v.Questions[i] = v.Questions[i].Redacted()
		}
	}
	return v
}

// JobType returns the deferred job that ends this kind of session.
func (k SessionKind) JobType() JobType {
	if k == SessionExam {
		return JobEndExamSession
	}
	return JobEndQuizSession
}

func (k SessionKind) Valid() bool { return k == SessionQuiz || k == SessionExam }
