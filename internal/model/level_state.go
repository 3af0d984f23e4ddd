package model

import (
	"time"
)

// LevelStatus enumerates a participant's progress within a single level.
type LevelStatus string

const (
	LevelStatusNotStarted LevelStatus = "NOT_STARTED"
	LevelStatusInProgress LevelStatus = "IN_PROGRESS"
	LevelStatusPaused     LevelStatus = "PAUSED"
	LevelStatusCompleted  LevelStatus = "COMPLETED"
)

// ParticipantLevelState tracks one participant's attempt at one level.
// Created lazily on first level entry; start_time is write-once so a
// participant cannot reset their own clock by re-issuing the start call.
type ParticipantLevelState struct {
	ParticipantID   int         `json:"participant_id"`
	ContestID       int64       `json:"contest_id"`
	Level           int         `json:"level"`
	Status          LevelStatus `json:"status"`
	StartTime       *time.Time  `json:"start_time,omitempty"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	QuestionsSolved int         `json:"questions_solved"`
	LevelScore      float64     `json:"level_score"`
	ViolationCount  int         `json:"violation_count"`
}

// EnterLevelResult tells the client whether it may start working and under
// what clock. Denials are part of the normal flow, not errors: the client
// renders a waiting screen off the reason code.
type EnterLevelResult struct {
	Allowed         bool        `json:"allowed"`
	Reason          string      `json:"reason,omitempty"`
	Level           int         `json:"level"`
	Status          LevelStatus `json:"status"`
	StartTime       *time.Time  `json:"start_time,omitempty"`
	DurationMinutes int         `json:"duration"`
}

// Denial reason codes for EnterLevelResult.
const (
	ReasonLevelNotActive = "level_not_active"
	ReasonNotShortlisted = "not_shortlisted"
)

// ProgressState is a participant's clamped view of where they stand: their
// own furthest level never exceeds the contest's currently active level.
type ProgressState struct {
	CurrentLevel    int         `json:"current_level"`
	ActiveLevel     int         `json:"active_level"`
	Status          LevelStatus `json:"status"`
	StartTime       *time.Time  `json:"start_time,omitempty"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	QuestionsSolved int         `json:"questions_solved"`
	LevelScore      float64     `json:"level_score"`
	DurationMinutes int         `json:"duration"`
	SolvedQuestions []int64     `json:"solved_questions"`
	IsEliminated    bool        `json:"is_eliminated"`
}

// ShortlistEntry gates a participant's entry into a level. Absence of any
// entries for a (contest, level) pair means the level is open to all.
type ShortlistEntry struct {
	ContestID     int64 `json:"contest_id"`
	Level         int   `json:"level"`
	ParticipantID int   `json:"participant_id"`
	IsAllowed     bool  `json:"is_allowed"`
}
