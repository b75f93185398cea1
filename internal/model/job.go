package model

import "time"

type JobType string

const (
	JobEndQuizSession JobType = "END_QUIZ_SESSION"
	JobEndExamSession JobType = "END_EXAM_SESSION"
)

// Job is a deferred action, persisted until it fires or is disabled.
type Job struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	FireAt    time.Time `json:"fireAt"`
	Type      JobType   `json:"jobType"`
	Disabled  bool      `json:"disabled"`
}

// Key identifies the job for a (session, user) pair.
func (j Job) Key() string { return JobKey(j.SessionID, j.UserID) }

func JobKey(sessionID, userID string) string { return sessionID + ":" + userID }
