package service

import (
	"context"
	"testing"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/codearena/codearena-backend/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoundHarness() (*RoundService, *fakeRoundStore, *recordingNotifier) {
	rounds := newFakeRoundStore()
	events := &recordingNotifier{}
	svc := NewRoundService(newFakeContestStore(7), rounds, newFakeLevelStateStore(), newFakeCountdown(), events)
	return svc, rounds, events
}

func TestActivateDemotesPrevious(t *testing.T) {
	svc, rounds, events := newRoundHarness()
	ctx := context.Background()

	first, err := svc.Activate(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoundStatusActive, first.Status)
	require.NotNil(t, first.StartTime)

	second, err := svc.Activate(ctx, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, model.RoundStatusActive, second.Status)

	// Demotion is a rollback, not a completion: the previous round must be
	// re-activatable.
	previous, err := rounds.GetByNumber(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoundStatusPending, previous.Status)

	active, err := svc.GetActive(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, active.Number)
	assert.Equal(t, 2, events.countOf(notifier.EventLevelActivated))

	reactivated, err := svc.Activate(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoundStatusActive, reactivated.Status)
}

func TestActivateIsIdempotent(t *testing.T) {
	svc, _, events := newRoundHarness()
	ctx := context.Background()

	first, err := svc.Activate(ctx, 7, 1)
	require.NoError(t, err)
	again, err := svc.Activate(ctx, 7, 1)
	require.NoError(t, err)

	assert.Equal(t, model.RoundStatusActive, again.Status)
	assert.Equal(t, first.StartTime.UnixNano(), again.StartTime.UnixNano())
	// The event re-fires so clients that missed the first one resync.
	assert.Equal(t, 2, events.countOf(notifier.EventLevelActivated))
}

func TestActivateUnknownContest(t *testing.T) {
	svc, _, _ := newRoundHarness()

	_, err := svc.Activate(context.Background(), 999, 1)
	assert.ErrorIs(t, err, ErrContestNotFound)
}

func TestPauseMissingRoundIsNoop(t *testing.T) {
	svc, _, events := newRoundHarness()

	round, err := svc.Pause(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Nil(t, round)
	assert.Equal(t, 0, events.countOf(notifier.EventLevelPaused))
}

func TestPauseAndComplete(t *testing.T) {
	svc, rounds, events := newRoundHarness()
	ctx := context.Background()

	_, err := svc.Activate(ctx, 7, 1)
	require.NoError(t, err)

	paused, err := svc.Pause(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoundStatusPaused, paused.Status)

	completed, err := svc.Complete(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoundStatusCompleted, completed.Status)

	stored, err := rounds.GetByNumber(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoundStatusCompleted, stored.Status)
	assert.Equal(t, 1, events.countOf(notifier.EventLevelPaused))
	assert.Equal(t, 1, events.countOf(notifier.EventLevelCompleted))
}

func TestPauseSuspendsParticipants(t *testing.T) {
	rounds := newFakeRoundStore()
	states := newFakeLevelStateStore()
	svc := NewRoundService(newFakeContestStore(7), rounds, states, newFakeCountdown(), &recordingNotifier{})
	ctx := context.Background()

	_, err := svc.Activate(ctx, 7, 1)
	require.NoError(t, err)
	require.NoError(t, states.EnsureRow(ctx, 1, 7, 1))
	_, err = states.Start(ctx, 1, 7, 1)
	require.NoError(t, err)

	_, err = svc.Pause(ctx, 7, 1)
	require.NoError(t, err)

	state, err := states.Get(ctx, 1, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, model.LevelStatusPaused, state.Status)
	// The clock survives the pause; re-entry resumes it.
	assert.NotNil(t, state.StartTime)
}

func TestFinalizeActive(t *testing.T) {
	svc, _, _ := newRoundHarness()
	ctx := context.Background()

	// Nothing active: a quiet no-op.
	round, err := svc.FinalizeActive(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, round)

	_, err = svc.Activate(ctx, 7, 2)
	require.NoError(t, err)

	round, err = svc.FinalizeActive(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, round)
	assert.Equal(t, model.RoundStatusCompleted, round.Status)
}

func TestCountdownLifecycle(t *testing.T) {
	svc, _, events := newRoundHarness()
	ctx := context.Background()

	state, err := svc.StartCountdown(ctx, 7, 30)
	require.NoError(t, err)
	assert.True(t, state.Active)
	assert.Equal(t, 30, state.DurationMinutes)

	current, err := svc.GetCountdown(ctx, 7)
	require.NoError(t, err)
	assert.True(t, current.Active)

	require.NoError(t, svc.StopCountdown(ctx, 7))
	current, err = svc.GetCountdown(ctx, 7)
	require.NoError(t, err)
	assert.False(t, current.Active)
	assert.Equal(t, 2, events.countOf(notifier.EventContestCountdown))
}
