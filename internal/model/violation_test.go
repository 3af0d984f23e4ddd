package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]ViolationCategory{
		"TAB_SWITCH":         CategoryTabSwitch,
		"tab switch":         CategoryTabSwitch,
		"COPY_ATTEMPT":       CategoryCopy,
		"paste":              CategoryCopy,
		"CUT_ATTEMPT":        CategoryCopy,
		"SCREENSHOT_ATTEMPT": CategoryScreenshot,
		"screen capture":     CategoryScreenshot,
		"FOCUS_LOST":         CategoryFocusLoss,
		"window focus loss":  CategoryFocusLoss,
		"devtools_open":      CategoryOther,
		"":                   CategoryOther,
	}

	for raw, want := range cases {
		assert.Equal(t, want, NormalizeCategory(raw), "raw=%q", raw)
	}
}

func TestSeverityForPenalty(t *testing.T) {
	assert.Equal(t, SeverityLow, SeverityForPenalty(0))
	assert.Equal(t, SeverityLow, SeverityForPenalty(1))
	assert.Equal(t, SeverityMedium, SeverityForPenalty(2))
	assert.Equal(t, SeverityCritical, SeverityForPenalty(3))
	assert.Equal(t, SeverityCritical, SeverityForPenalty(7))
}

func TestRiskForTotal(t *testing.T) {
	assert.Equal(t, RiskLow, RiskForTotal(0))
	assert.Equal(t, RiskLow, RiskForTotal(2))
	assert.Equal(t, RiskMedium, RiskForTotal(3))
	assert.Equal(t, RiskMedium, RiskForTotal(5))
	assert.Equal(t, RiskHigh, RiskForTotal(6))
	assert.Equal(t, RiskHigh, RiskForTotal(10))
	assert.Equal(t, RiskCritical, RiskForTotal(11))
}

func TestPenaltyForUsesConfigWeights(t *testing.T) {
	cfg := DefaultProctoringConfig(1)
	assert.Equal(t, 1, cfg.PenaltyFor(CategoryTabSwitch))
	assert.Equal(t, 2, cfg.PenaltyFor(CategoryCopy))
	assert.Equal(t, 3, cfg.PenaltyFor(CategoryScreenshot))
	assert.Equal(t, 1, cfg.PenaltyFor(CategoryFocusLoss))
	assert.Equal(t, 1, cfg.PenaltyFor(CategoryOther))
}

func TestEffectiveTimeLimitFallsBackPerLevel(t *testing.T) {
	assert.Equal(t, 20, (&Round{Number: 1}).EffectiveTimeLimit())
	assert.Equal(t, 20, (&Round{Number: 3}).EffectiveTimeLimit())
	assert.Equal(t, 30, (&Round{Number: 4}).EffectiveTimeLimit())
	assert.Equal(t, 45, (&Round{Number: 5}).EffectiveTimeLimit())
	assert.Equal(t, 25, (&Round{Number: 2, TimeLimitMinutes: 25}).EffectiveTimeLimit())
}
