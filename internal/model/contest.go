package model

import (
	"time"
)

// ContestStatus enumerates the possible states of a contest.
type ContestStatus string

const (
	ContestStatusDraft  ContestStatus = "draft"
	ContestStatusLive   ContestStatus = "live"
	ContestStatusPaused ContestStatus = "paused"
	ContestStatusEnded  ContestStatus = "ended"
)

// Contest represents a contest entity.
type Contest struct {
	ID            int64         `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	Status        ContestStatus `json:"status"`
	StartAt       *time.Time    `json:"start_at,omitempty"`
	EndAt         *time.Time    `json:"end_at,omitempty"`
	MaxViolations int           `json:"max_violations"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CreateContestRequest is the payload for creating a new contest.
type CreateContestRequest struct {
	Title         string     `json:"title" binding:"required,min=3,max=255"`
	Description   string     `json:"description" binding:"omitempty,max=2000"`
	StartAt       *time.Time `json:"start_at" binding:"omitempty"`
	EndAt         *time.Time `json:"end_at" binding:"omitempty,gtfield=StartAt"`
	MaxViolations int        `json:"max_violations" binding:"omitempty,min=1,max=100"`
}

// UpdateContestRequest is the payload for updating an existing contest.
type UpdateContestRequest struct {
	Title       string        `json:"title" binding:"omitempty,min=3,max=255"`
	Description *string       `json:"description" binding:"omitempty,max=2000"`
	Status      ContestStatus `json:"status" binding:"omitempty,oneof=draft live paused ended"`
}

// ContestStats is the per-contest dashboard summary.
type ContestStats struct {
	TotalParticipants  int64  `json:"total_participants"`
	ActiveParticipants int64  `json:"active_participants"`
	ViolationsDetected int64  `json:"violations_detected"`
	QuestionsSolved    int64  `json:"questions_solved"`
	CountdownState     string `json:"countdown_state"`
}

// CountdownState is the contest-wide countdown persisted in Redis.
type CountdownState struct {
	Active          bool       `json:"active"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes int        `json:"duration,omitempty"`
}
