package service

import (
	"context"
	"sync"
	"testing"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/codearena/codearena-backend/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViolationHarness() (*ViolationService, *fakeProctoringStore, *fakeViolationLog, *fakeLevelStateStore, *recordingNotifier) {
	proctoring := newFakeProctoringStore()
	violations := &fakeViolationLog{}
	states := newFakeLevelStateStore()
	events := &recordingNotifier{}
	overrides := NewOverrideService(proctoring, states, &fakeSubmissionPurger{}, events)
	svc := NewViolationService(proctoring, violations, states, overrides, nil, events)
	return svc, proctoring, violations, states, events
}

// report builds a request the way the transport layer does: the raw type is
// resolved to its category before the engine sees it.
func report(contestID int64, level int, violationType string) *model.ReportViolationRequest {
	return &model.ReportViolationRequest{
		ContestID:     contestID,
		Level:         level,
		ViolationType: violationType,
		Category:      model.NormalizeCategory(violationType),
	}
}

func TestRecordViolationAccumulates(t *testing.T) {
	svc, _, violations, _, _ := newViolationHarness()
	ctx := context.Background()

	out, err := svc.RecordViolation(ctx, 1, report(7, 1, "tab_hidden"))
	require.NoError(t, err)
	assert.Equal(t, 1, out.TotalViolations)
	assert.Equal(t, 1, out.ViolationScore)
	assert.Equal(t, model.RiskLow, out.RiskLevel)
	assert.False(t, out.IsDisqualified)

	out, err = svc.RecordViolation(ctx, 1, report(7, 1, "screenshot_key"))
	require.NoError(t, err)
	assert.Equal(t, 2, out.TotalViolations)
	assert.Equal(t, 4, out.ViolationScore)

	out, err = svc.RecordViolation(ctx, 1, report(7, 1, "copy_blocked"))
	require.NoError(t, err)
	assert.Equal(t, 3, out.TotalViolations)
	assert.Equal(t, model.RiskMedium, out.RiskLevel)

	assert.Equal(t, 3, violations.size())
}

func TestRecordViolationCategoryCounters(t *testing.T) {
	svc, proctoring, _, _, _ := newViolationHarness()
	ctx := context.Background()

	for _, raw := range []string{"Tab_Hidden", "PASTE_DETECTED", "screen capture", "focus lost", "devtools_open"} {
		_, err := svc.RecordViolation(ctx, 1, report(7, 1, raw))
		require.NoError(t, err)
	}

	agg, err := proctoring.GetAggregate(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.TabSwitches)
	assert.Equal(t, 1, agg.CopyAttempts)
	assert.Equal(t, 1, agg.ScreenshotAttempts)
	assert.Equal(t, 1, agg.FocusLosses)
	assert.Equal(t, 5, agg.TotalViolations)
}

func TestRecordViolationTrustsResolvedCategory(t *testing.T) {
	svc, proctoring, violations, _, _ := newViolationHarness()
	ctx := context.Background()

	// The engine counts by the category the boundary resolved, never by
	// re-reading the raw type string.
	_, err := svc.RecordViolation(ctx, 1, &model.ReportViolationRequest{
		ContestID:     7,
		Level:         1,
		ViolationType: "tab_switch",
		Category:      model.CategoryScreenshot,
	})
	require.NoError(t, err)

	agg, err := proctoring.GetAggregate(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, agg.TabSwitches)
	assert.Equal(t, 1, agg.ScreenshotAttempts)

	// An unset category lands in the catch-all bucket.
	_, err = svc.RecordViolation(ctx, 1, &model.ReportViolationRequest{
		ContestID:     7,
		Level:         1,
		ViolationType: "tab_switch",
	})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryOther, violations.last().Category)
}

func TestRecordViolationLevelQuota(t *testing.T) {
	svc, proctoring, _, _, events := newViolationHarness()
	ctx := context.Background()
	require.NoError(t, proctoring.UpsertConfig(ctx, &model.ProctoringConfig{
		ContestID:        7,
		Enabled:          true,
		MaxViolations:    3,
		AutoDisqualify:   true,
		WarningThreshold: 5,
		TabSwitchPenalty: 1,
	}))

	for i := 0; i < 3; i++ {
		out, err := svc.RecordViolation(ctx, 1, report(7, 1, "tab"))
		require.NoError(t, err)
		assert.False(t, out.IsDisqualified)
	}

	out, err := svc.RecordViolation(ctx, 1, report(7, 1, "tab"))
	require.NoError(t, err)
	assert.True(t, out.IsDisqualified)
	assert.Equal(t, model.RiskCritical, out.RiskLevel)

	agg, err := proctoring.GetAggregate(ctx, 1, 7)
	require.NoError(t, err)
	require.NotNil(t, agg.DisqualificationReason)
	assert.Contains(t, *agg.DisqualificationReason, "level 1")
	assert.Equal(t, 1, events.countOf(notifier.EventDisqualified))
}

func TestRecordViolationQuotaIsLevelScoped(t *testing.T) {
	svc, proctoring, _, _, _ := newViolationHarness()
	ctx := context.Background()
	require.NoError(t, proctoring.UpsertConfig(ctx, &model.ProctoringConfig{
		ContestID:        7,
		Enabled:          true,
		MaxViolations:    3,
		AutoDisqualify:   true,
		WarningThreshold: 5,
		TabSwitchPenalty: 1,
	}))

	// Three violations at each of two levels: six total, but no single
	// level exceeds the quota.
	for level := 1; level <= 2; level++ {
		for i := 0; i < 3; i++ {
			out, err := svc.RecordViolation(ctx, 1, report(7, level, "tab"))
			require.NoError(t, err)
			assert.False(t, out.IsDisqualified)
		}
	}

	agg, err := proctoring.GetAggregate(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 6, agg.TotalViolations)
	assert.False(t, agg.IsDisqualified)
	assert.Equal(t, model.RiskHigh, agg.RiskLevel)
}

func TestRecordViolationAfterDisqualificationNoRepeat(t *testing.T) {
	svc, proctoring, _, _, events := newViolationHarness()
	ctx := context.Background()
	require.NoError(t, proctoring.UpsertConfig(ctx, &model.ProctoringConfig{
		ContestID:        7,
		Enabled:          true,
		MaxViolations:    2,
		AutoDisqualify:   true,
		WarningThreshold: 5,
		TabSwitchPenalty: 1,
	}))

	for i := 0; i < 5; i++ {
		_, err := svc.RecordViolation(ctx, 1, report(7, 1, "tab"))
		require.NoError(t, err)
	}

	assert.Equal(t, 1, events.countOf(notifier.EventDisqualified))
	agg, err := proctoring.GetAggregate(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 5, agg.TotalViolations)
	assert.True(t, agg.IsDisqualified)
}

func TestRecordViolationDisabledConfig(t *testing.T) {
	svc, _, violations, _, events := newViolationHarness()
	ctx := context.Background()
	require.NoError(t, svc.proctoring.UpsertConfig(ctx, &model.ProctoringConfig{
		ContestID: 7,
		Enabled:   false,
	}))

	out, err := svc.RecordViolation(ctx, 1, report(7, 1, "tab"))
	require.NoError(t, err)
	assert.Equal(t, 0, out.TotalViolations)
	assert.False(t, out.IsDisqualified)
	assert.Equal(t, 0, violations.size())
	assert.Equal(t, 0, events.countOf(notifier.EventViolation))
}

func TestRecordViolationWarningThreshold(t *testing.T) {
	svc, _, _, _, _ := newViolationHarness()
	ctx := context.Background()

	var out *model.ViolationOutcome
	var err error
	for i := 0; i < 4; i++ {
		out, err = svc.RecordViolation(ctx, 1, report(7, 1, "tab"))
		require.NoError(t, err)
		assert.False(t, out.WarningIssued)
	}
	out, err = svc.RecordViolation(ctx, 1, report(7, 1, "tab"))
	require.NoError(t, err)
	assert.True(t, out.WarningIssued)
}

func TestRecordViolationConcurrent(t *testing.T) {
	svc, proctoring, violations, _, _ := newViolationHarness()
	ctx := context.Background()
	require.NoError(t, proctoring.UpsertConfig(ctx, &model.ProctoringConfig{
		ContestID:        7,
		Enabled:          true,
		MaxViolations:    100,
		AutoDisqualify:   true,
		WarningThreshold: 200,
		TabSwitchPenalty: 1,
	}))

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordViolation(ctx, 1, report(7, 1, "tab"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	agg, err := proctoring.GetAggregate(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, workers, agg.TotalViolations)
	assert.Equal(t, workers, violations.size())
	assert.False(t, agg.IsDisqualified)
}

func TestUpdateConfigPartial(t *testing.T) {
	svc, _, _, _, _ := newViolationHarness()
	ctx := context.Background()

	max := 5
	cfg, err := svc.UpdateConfig(ctx, 7, &model.UpdateProctoringConfigRequest{MaxViolations: &max})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxViolations)
	// Untouched fields keep defaults.
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 2, cfg.CopyPastePenalty)

	stored, err := svc.GetConfig(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.MaxViolations)
}

func TestGetStatusUnknownParticipant(t *testing.T) {
	svc, _, _, _, _ := newViolationHarness()

	agg, records, err := svc.GetStatus(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, model.RiskLow, agg.RiskLevel)
	assert.Equal(t, 0, agg.TotalViolations)
	assert.Empty(t, records)
}
