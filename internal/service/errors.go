package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")

	ErrSessionNotFound    = errors.New("session not found")
	ErrTemplateNotFound   = errors.New("question template not found")
	ErrPoolMisconfigured  = errors.New("this question pool is misconfigured")
	ErrSessionExpired     = errors.New("session time is over")
	ErrSessionEnded       = errors.New("session has already ended")
	ErrInvalidAnswer      = errors.New("answer does not match the question type")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrQuestionOutOfRange = errors.New("question index out of range")
)
