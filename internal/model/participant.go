package model

import (
	"time"
)

// Participant is a contestant account. Identity resolution (username →
// internal key) happens at the auth boundary; the core engines only see the
// integer ID.
type Participant struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ParticipantLoginRequest is the login payload for participants.
type ParticipantLoginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// CreateParticipantRequest is the staff payload for registering a participant.
type CreateParticipantRequest struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
	FullName string `json:"full_name" binding:"required,min=2,max=255"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}
