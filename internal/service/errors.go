package service

import "errors"

// Sentinel errors the handler layer maps onto response codes.
var (
	ErrContestNotFound     = errors.New("contest not found")
	ErrRoundNotFound       = errors.New("round not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrLevelNotActive      = errors.New("level is not active")
	ErrNotShortlisted      = errors.New("participant is not shortlisted")
	ErrAlreadySolved       = errors.New("question already solved")
	ErrDuplicateTitle      = errors.New("question title already exists in round")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrSessionActive       = errors.New("another session is active")
	ErrDisqualified        = errors.New("participant is disqualified")
	ErrUsernameTaken       = errors.New("username already taken")
)
