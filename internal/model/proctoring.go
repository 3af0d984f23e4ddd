package model

import (
	"time"
)

// RiskLevel is the coarse classification shown to staff, derived from the
// cumulative violation total across all levels.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskForTotal computes the risk level from the global violation total.
func RiskForTotal(total int) RiskLevel {
	switch {
	case total > 10:
		return RiskCritical
	case total > 5:
		return RiskHigh
	case total > 2:
		return RiskMedium
	default:
		return RiskLow
	}
}

// riskPriority orders risk levels for dashboard sorting.
var riskPriority = map[RiskLevel]int{
	RiskCritical: 5,
	RiskHigh:     4,
	RiskMedium:   3,
	RiskLow:      1,
}

// Priority returns the sort weight of a risk level (higher is riskier).
func (r RiskLevel) Priority() int {
	return riskPriority[r]
}

// ProctoringAggregate is the per-(participant, contest) counter row. The
// violation engine owns the counters and risk level; the disqualification
// controller owns the disqualification fields.
type ProctoringAggregate struct {
	ParticipantID          int        `json:"participant_id"`
	ContestID              int64      `json:"contest_id"`
	TotalViolations        int        `json:"total_violations"`
	ViolationScore         int        `json:"violation_score"`
	TabSwitches            int        `json:"tab_switches"`
	CopyAttempts           int        `json:"copy_attempts"`
	ScreenshotAttempts     int        `json:"screenshot_attempts"`
	FocusLosses            int        `json:"focus_losses"`
	ExtraViolations        int        `json:"extra_violations"`
	RiskLevel              RiskLevel  `json:"risk_level"`
	IsDisqualified         bool       `json:"is_disqualified"`
	DisqualificationReason *string    `json:"disqualification_reason,omitempty"`
	DisqualifiedAt         *time.Time `json:"disqualified_at,omitempty"`
	LastViolationAt        *time.Time `json:"last_violation_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// ProctoringConfig holds per-contest enforcement parameters. Defaults apply
// when no row exists for a contest.
type ProctoringConfig struct {
	ContestID         int64 `json:"contest_id"`
	Enabled           bool  `json:"enabled"`
	MaxViolations     int   `json:"max_violations"`
	AutoDisqualify    bool  `json:"auto_disqualify"`
	WarningThreshold  int   `json:"warning_threshold"`
	GraceViolations   int   `json:"grace_violations"`
	TabSwitchPenalty  int   `json:"tab_switch_penalty"`
	CopyPastePenalty  int   `json:"copy_paste_penalty"`
	ScreenshotPenalty int   `json:"screenshot_penalty"`
	FocusLossPenalty  int   `json:"focus_loss_penalty"`
}

// DefaultProctoringConfig returns the enforcement defaults used when a
// contest has no stored config.
func DefaultProctoringConfig(contestID int64) *ProctoringConfig {
	return &ProctoringConfig{
		ContestID:         contestID,
		Enabled:           true,
		MaxViolations:     10,
		AutoDisqualify:    true,
		WarningThreshold:  5,
		GraceViolations:   2,
		TabSwitchPenalty:  1,
		CopyPastePenalty:  2,
		ScreenshotPenalty: 3,
		FocusLossPenalty:  1,
	}
}

// PenaltyFor resolves the penalty weight for a violation category.
// Unknown categories carry the minimum weight of 1.
func (c *ProctoringConfig) PenaltyFor(category ViolationCategory) int {
	switch category {
	case CategoryTabSwitch:
		return c.TabSwitchPenalty
	case CategoryCopy:
		return c.CopyPastePenalty
	case CategoryScreenshot:
		return c.ScreenshotPenalty
	case CategoryFocusLoss:
		return c.FocusLossPenalty
	default:
		return 1
	}
}

// UpdateProctoringConfigRequest is the staff payload for tuning enforcement.
type UpdateProctoringConfigRequest struct {
	Enabled           *bool `json:"enabled" binding:"omitempty"`
	MaxViolations     *int  `json:"max_violations" binding:"omitempty,min=1,max=100"`
	AutoDisqualify    *bool `json:"auto_disqualify" binding:"omitempty"`
	WarningThreshold  *int  `json:"warning_threshold" binding:"omitempty,min=1,max=100"`
	GraceViolations   *int  `json:"grace_violations" binding:"omitempty,min=0,max=100"`
	TabSwitchPenalty  *int  `json:"tab_switch_penalty" binding:"omitempty,min=1,max=10"`
	CopyPastePenalty  *int  `json:"copy_paste_penalty" binding:"omitempty,min=1,max=10"`
	ScreenshotPenalty *int  `json:"screenshot_penalty" binding:"omitempty,min=1,max=10"`
	FocusLossPenalty  *int  `json:"focus_loss_penalty" binding:"omitempty,min=1,max=10"`
}

// Apply overlays non-nil request fields onto the config.
func (r *UpdateProctoringConfigRequest) Apply(cfg *ProctoringConfig) {
	if r.Enabled != nil {
		cfg.Enabled = *r.Enabled
	}
	if r.MaxViolations != nil {
		cfg.MaxViolations = *r.MaxViolations
	}
	if r.AutoDisqualify != nil {
		cfg.AutoDisqualify = *r.AutoDisqualify
	}
	if r.WarningThreshold != nil {
		cfg.WarningThreshold = *r.WarningThreshold
	}
	if r.GraceViolations != nil {
		cfg.GraceViolations = *r.GraceViolations
	}
	if r.TabSwitchPenalty != nil {
		cfg.TabSwitchPenalty = *r.TabSwitchPenalty
	}
	if r.CopyPastePenalty != nil {
		cfg.CopyPastePenalty = *r.CopyPastePenalty
	}
	if r.ScreenshotPenalty != nil {
		cfg.ScreenshotPenalty = *r.ScreenshotPenalty
	}
	if r.FocusLossPenalty != nil {
		cfg.FocusLossPenalty = *r.FocusLossPenalty
	}
}
