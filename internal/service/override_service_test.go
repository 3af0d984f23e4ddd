package service

import (
	"context"
	"testing"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/codearena/codearena-backend/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOverrideHarness() (*OverrideService, *fakeProctoringStore, *fakeLevelStateStore, *recordingNotifier) {
	proctoring := newFakeProctoringStore()
	states := newFakeLevelStateStore()
	events := &recordingNotifier{}
	svc := NewOverrideService(proctoring, states, &fakeSubmissionPurger{}, events)
	return svc, proctoring, states, events
}

func TestAutoDisqualifyAppliesOnce(t *testing.T) {
	svc, proctoring, _, events := newOverrideHarness()
	ctx := context.Background()
	require.NoError(t, proctoring.EnsureAggregate(ctx, 1, 7))

	applied, err := svc.AutoDisqualify(ctx, 1, 7, "first reason")
	require.NoError(t, err)
	assert.True(t, applied)

	agg, err := proctoring.GetAggregate(ctx, 1, 7)
	require.NoError(t, err)
	firstTimestamp := agg.DisqualifiedAt
	require.NotNil(t, firstTimestamp)

	applied, err = svc.AutoDisqualify(ctx, 1, 7, "second reason")
	require.NoError(t, err)
	assert.False(t, applied)

	agg, err = proctoring.GetAggregate(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "first reason", *agg.DisqualificationReason)
	assert.Equal(t, firstTimestamp, agg.DisqualifiedAt)
	assert.Equal(t, 1, events.countOf(notifier.EventDisqualified))
}

func TestManualDisqualifyOverwrites(t *testing.T) {
	svc, proctoring, _, events := newOverrideHarness()
	ctx := context.Background()
	require.NoError(t, proctoring.EnsureAggregate(ctx, 1, 7))

	_, err := svc.AutoDisqualify(ctx, 1, 7, "automatic")
	require.NoError(t, err)

	require.NoError(t, svc.ManualDisqualify(ctx, 1, 7, "staff decision"))

	agg, err := proctoring.GetAggregate(ctx, 1, 7)
	require.NoError(t, err)
	assert.True(t, agg.IsDisqualified)
	assert.Equal(t, "staff decision", *agg.DisqualificationReason)
	assert.Equal(t, 2, events.countOf(notifier.EventDisqualified))
}

func TestAllowExtraReinstates(t *testing.T) {
	svc, proctoring, _, _ := newOverrideHarness()
	ctx := context.Background()
	require.NoError(t, proctoring.EnsureAggregate(ctx, 1, 7))
	for i := 0; i < 12; i++ {
		_, err := proctoring.ApplyViolation(ctx, 1, 7, model.CategoryTabSwitch, 1)
		require.NoError(t, err)
	}
	_, err := svc.AutoDisqualify(ctx, 1, 7, "over quota")
	require.NoError(t, err)

	agg, err := svc.AllowExtra(ctx, 1, 7, 5)
	require.NoError(t, err)
	assert.False(t, agg.IsDisqualified)
	assert.Nil(t, agg.DisqualificationReason)
	assert.Equal(t, 5, agg.ExtraViolations)
	// Counters survive: the grace is forgiveness, not amnesia.
	assert.Equal(t, 12, agg.TotalViolations)
	assert.Equal(t, model.RiskHigh, agg.RiskLevel)
}

func TestAllowExtraUnknownParticipant(t *testing.T) {
	svc, _, _, _ := newOverrideHarness()

	_, err := svc.AllowExtra(context.Background(), 99, 7, 1)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestResetViolationsClearsCounters(t *testing.T) {
	svc, proctoring, _, _ := newOverrideHarness()
	ctx := context.Background()
	require.NoError(t, proctoring.EnsureAggregate(ctx, 1, 7))
	for i := 0; i < 4; i++ {
		_, err := proctoring.ApplyViolation(ctx, 1, 7, model.CategoryCopy, 2)
		require.NoError(t, err)
	}
	_, err := svc.AutoDisqualify(ctx, 1, 7, "over quota")
	require.NoError(t, err)

	require.NoError(t, svc.ResetViolations(ctx, 1, 7))

	agg, err := proctoring.GetAggregate(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, agg.TotalViolations)
	assert.Equal(t, 0, agg.ViolationScore)
	assert.False(t, agg.IsDisqualified)
	assert.Equal(t, model.RiskLow, agg.RiskLevel)
}

func TestResetProgressWipesLevels(t *testing.T) {
	proctoring := newFakeProctoringStore()
	states := newFakeLevelStateStore()
	submissions := &fakeSubmissionPurger{}
	svc := NewOverrideService(proctoring, states, submissions, &recordingNotifier{})
	ctx := context.Background()
	require.NoError(t, proctoring.EnsureAggregate(ctx, 1, 7))
	require.NoError(t, states.EnsureRow(ctx, 1, 7, 1))
	require.NoError(t, states.EnsureRow(ctx, 1, 7, 2))

	require.NoError(t, svc.ResetProgress(ctx, 1, 7))

	_, err := states.GetLatest(ctx, 1, 7)
	assert.Error(t, err)
	agg, err := proctoring.GetAggregate(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, agg.TotalViolations)
	assert.Len(t, submissions.deleted, 1)
}
