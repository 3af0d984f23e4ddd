package model

import (
	"time"
)

// ParticipantStatus is one row of the staff proctoring dashboard: identity,
// progress, and the proctoring aggregate flattened together.
type ParticipantStatus struct {
	ParticipantID   int        `json:"participant_id"`
	Username        string     `json:"username"`
	FullName        string     `json:"full_name"`
	CurrentLevel    int        `json:"current_level"`
	LevelStatus     LevelStatus `json:"level_status"`
	QuestionsSolved int        `json:"questions_solved"`
	LevelScore      float64    `json:"level_score"`
	TotalViolations int        `json:"total_violations"`
	ViolationScore  int        `json:"violation_score"`
	RiskLevel       RiskLevel  `json:"risk_level"`
	IsDisqualified  bool       `json:"is_disqualified"`
	LastViolationAt *time.Time `json:"last_violation_at,omitempty"`
}

// ProctoringStats is the contest-wide proctoring summary.
type ProctoringStats struct {
	TotalParticipants int64 `json:"total_participants"`
	TotalViolations   int64 `json:"total_violations"`
	Disqualified      int64 `json:"disqualified"`
	HighRisk          int64 `json:"high_risk"`
	TabSwitches       int64 `json:"tab_switches"`
	CopyAttempts      int64 `json:"copy_attempts"`
	ScreenshotAttempts int64 `json:"screenshot_attempts"`
	FocusLosses       int64 `json:"focus_losses"`
}
