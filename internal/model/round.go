package model

import (
	"time"
)

// RoundStatus enumerates the lifecycle states of a contest round (level).
type RoundStatus string

const (
	RoundStatusPending   RoundStatus = "pending"
	RoundStatusActive    RoundStatus = "active"
	RoundStatusPaused    RoundStatus = "paused"
	RoundStatusCompleted RoundStatus = "completed"
)

// Round represents one timed level of a contest. At most one round per
// contest is active at a time; the lifecycle controller demotes the
// previous active round before activating another.
type Round struct {
	ID               int64       `json:"id"`
	ContestID        int64       `json:"contest_id"`
	Number           int         `json:"number"`
	Status           RoundStatus `json:"status"`
	TimeLimitMinutes int         `json:"time_limit_minutes"` // 0 means unset, fall back to defaults
	AllowedLanguage  string      `json:"allowed_language,omitempty"`
	StartTime        *time.Time  `json:"start_time,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

// DefaultTimeLimitMinutes returns the fallback time limit for a level when
// the round has no explicit limit configured.
func DefaultTimeLimitMinutes(level int) int {
	switch {
	case level <= 3:
		return 20
	case level == 4:
		return 30
	default:
		return 45
	}
}

// EffectiveTimeLimit resolves the round's time limit, falling back to the
// level-indexed default table when unset.
func (r *Round) EffectiveTimeLimit() int {
	if r != nil && r.TimeLimitMinutes > 0 {
		return r.TimeLimitMinutes
	}
	level := 1
	if r != nil {
		level = r.Number
	}
	return DefaultTimeLimitMinutes(level)
}

// UpdateRoundRequest is the staff payload for tuning a round.
type UpdateRoundRequest struct {
	TimeLimitMinutes *int   `json:"time_limit" binding:"omitempty,min=1,max=480"`
	AllowedLanguage  string `json:"allowed_language" binding:"omitempty,max=32"`
}
