package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ViolationCategory is the closed set of proctoring violation kinds. The
// client-side detector reports free-text types; NormalizeCategory maps them
// onto this enum once at the transport boundary, so the core never does
// string matching.
type ViolationCategory string

const (
	CategoryTabSwitch  ViolationCategory = "TAB_SWITCH"
	CategoryCopy       ViolationCategory = "COPY_ATTEMPT"
	CategoryScreenshot ViolationCategory = "SCREENSHOT_ATTEMPT"
	CategoryFocusLoss  ViolationCategory = "FOCUS_LOST"
	CategoryOther      ViolationCategory = "OTHER"
)

// NormalizeCategory resolves a raw detector type string to a canonical
// category by case-insensitive substring match. Unknown types downgrade to
// OTHER rather than being rejected: losing a disqualification-relevant
// signal is worse than misclassifying it.
func NormalizeCategory(raw string) ViolationCategory {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(upper, "TAB"):
		return CategoryTabSwitch
	case strings.Contains(upper, "COPY"),
		strings.Contains(upper, "PASTE"),
		strings.Contains(upper, "CUT"):
		return CategoryCopy
	case strings.Contains(upper, "SCREEN"):
		return CategoryScreenshot
	case strings.Contains(upper, "FOCUS"):
		return CategoryFocusLoss
	default:
		return CategoryOther
	}
}

// Severity classifies a single violation record by its penalty weight.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityCritical Severity = "critical"
)

// SeverityForPenalty derives record severity from the resolved penalty weight.
func SeverityForPenalty(penalty int) Severity {
	switch {
	case penalty >= 3:
		return SeverityCritical
	case penalty >= 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// ViolationRecord is one immutable entry in the append-only violation log.
// The log is the audit source of truth; aggregates can be recomputed from it.
type ViolationRecord struct {
	ID            uuid.UUID         `json:"id"`
	ParticipantID int               `json:"participant_id"`
	ContestID     int64             `json:"contest_id"`
	Level         int               `json:"level"`
	Category      ViolationCategory `json:"category"`
	Penalty       int               `json:"penalty"`
	Severity      Severity          `json:"severity"`
	Description   string            `json:"description,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// ViolationOutcome is the acknowledgement returned to the reporting client:
// the running totals plus the flags it must react to immediately.
type ViolationOutcome struct {
	TotalViolations int       `json:"total_violations"`
	ViolationScore  int       `json:"violation_score"`
	RiskLevel       RiskLevel `json:"risk_level"`
	WarningIssued   bool      `json:"warning_issued"`
	IsDisqualified  bool      `json:"is_disqualified"`
}

// ReportViolationRequest is the HTTP payload from the client-side detector.
// The transport layer resolves ViolationType into Category before handing
// the request to the engine; the engine only ever sees the enum.
type ReportViolationRequest struct {
	ContestID     int64             `json:"contest_id" binding:"omitempty"` // Filled from the URL when reported over HTTP
	Level         int               `json:"level" binding:"omitempty,min=1,max=10"`
	ViolationType string            `json:"violation_type" binding:"required,max=64"`
	Description   string            `json:"description" binding:"omitempty,max=500"`
	Category      ViolationCategory `json:"-"`
}
