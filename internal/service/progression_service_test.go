package service

import (
	"context"
	"testing"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProgressionHarness() (*ProgressionService, *fakeRoundStore, *fakeLevelStateStore, *fakeShortlistStore, *fakeScoreStore) {
	rounds := newFakeRoundStore()
	states := newFakeLevelStateStore()
	shortlist := newFakeShortlistStore()
	scores := &fakeScoreStore{}
	proctoring := newFakeProctoringStore()
	svc := NewProgressionService(rounds, states, shortlist, scores, proctoring, &recordingNotifier{})
	return svc, rounds, states, shortlist, scores
}

func TestEnterLevelRequiresActiveRound(t *testing.T) {
	svc, rounds, _, _, _ := newProgressionHarness()
	ctx := context.Background()
	rounds.seed(7, 1, model.RoundStatusPending)

	result, err := svc.EnterLevel(ctx, 1, 7, 1)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, model.ReasonLevelNotActive, result.Reason)

	// A nonexistent round denies the same way.
	result, err = svc.EnterLevel(ctx, 1, 7, 3)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, model.ReasonLevelNotActive, result.Reason)
}

func TestEnterLevelStartTimeIsWriteOnce(t *testing.T) {
	svc, rounds, _, _, _ := newProgressionHarness()
	ctx := context.Background()
	rounds.seed(7, 1, model.RoundStatusActive)

	first, err := svc.EnterLevel(ctx, 1, 7, 1)
	require.NoError(t, err)
	require.True(t, first.Allowed)
	require.NotNil(t, first.StartTime)
	assert.Equal(t, model.LevelStatusInProgress, first.Status)

	second, err := svc.EnterLevel(ctx, 1, 7, 1)
	require.NoError(t, err)
	require.True(t, second.Allowed)
	assert.Equal(t, first.StartTime.UnixNano(), second.StartTime.UnixNano())
}

func TestEnterLevelShortlistGating(t *testing.T) {
	svc, rounds, _, _, _ := newProgressionHarness()
	ctx := context.Background()
	rounds.seed(7, 2, model.RoundStatusActive)

	// No shortlist entries at all: the level is open.
	result, err := svc.EnterLevel(ctx, 1, 7, 2)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	// Once anyone is shortlisted, everyone else is locked out.
	require.NoError(t, svc.Qualify(ctx, 7, 2, []int{2, 3}))

	result, err = svc.EnterLevel(ctx, 1, 7, 2)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, model.ReasonNotShortlisted, result.Reason)

	result, err = svc.EnterLevel(ctx, 2, 7, 2)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestQualifyReplacesPreviousList(t *testing.T) {
	svc, rounds, _, _, _ := newProgressionHarness()
	ctx := context.Background()
	rounds.seed(7, 2, model.RoundStatusActive)

	require.NoError(t, svc.Qualify(ctx, 7, 2, []int{1}))
	require.NoError(t, svc.Qualify(ctx, 7, 2, []int{2}))

	allowed, err := svc.IsAllowed(ctx, 1, 7, 2)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = svc.IsAllowed(ctx, 2, 7, 2)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestEnterLevelDurationDefaults(t *testing.T) {
	svc, rounds, _, _, _ := newProgressionHarness()
	ctx := context.Background()
	rounds.seed(7, 1, model.RoundStatusActive)

	result, err := svc.EnterLevel(ctx, 1, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, 20, result.DurationMinutes)

	rounds.seed(8, 4, model.RoundStatusActive)
	result, err = svc.EnterLevel(ctx, 1, 8, 4)
	require.NoError(t, err)
	assert.Equal(t, 30, result.DurationMinutes)

	rounds.seed(9, 5, model.RoundStatusActive)
	result, err = svc.EnterLevel(ctx, 1, 9, 5)
	require.NoError(t, err)
	assert.Equal(t, 45, result.DurationMinutes)

	// Explicit limits win over the defaults table.
	r := rounds.seed(10, 1, model.RoundStatusActive)
	limit := 90
	_, err = rounds.Update(ctx, r.ContestID, r.Number, &model.UpdateRoundRequest{TimeLimitMinutes: &limit})
	require.NoError(t, err)
	result, err = svc.EnterLevel(ctx, 1, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, 90, result.DurationMinutes)
}

func TestCompleteLevelProvisionsNext(t *testing.T) {
	svc, rounds, states, _, scores := newProgressionHarness()
	ctx := context.Background()
	rounds.seed(7, 1, model.RoundStatusActive)

	_, err := svc.EnterLevel(ctx, 1, 7, 1)
	require.NoError(t, err)

	state, err := svc.CompleteLevel(ctx, 1, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, model.LevelStatusCompleted, state.Status)
	require.NotNil(t, state.CompletedAt)

	next, err := states.Get(ctx, 1, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, model.LevelStatusNotStarted, next.Status)

	require.Len(t, scores.calls, 1)
	assert.Equal(t, stateKey{1, 7, 1}, scores.calls[0])
}

func TestCompleteLevelWithoutEntry(t *testing.T) {
	svc, rounds, _, _, _ := newProgressionHarness()
	rounds.seed(7, 1, model.RoundStatusActive)

	_, err := svc.CompleteLevel(context.Background(), 1, 7, 1)
	assert.ErrorIs(t, err, ErrLevelNotActive)
}

func TestGetStateClampsToActiveRound(t *testing.T) {
	svc, rounds, _, _, _ := newProgressionHarness()
	ctx := context.Background()

	// Participant worked through levels 1 and 2 while they were active.
	rounds.seed(7, 1, model.RoundStatusActive)
	_, err := svc.EnterLevel(ctx, 1, 7, 1)
	require.NoError(t, err)
	_, err = svc.CompleteLevel(ctx, 1, 7, 1)
	require.NoError(t, err)

	_, err = svc.rounds.Activate(ctx, 7, 2)
	require.NoError(t, err)
	_, err = svc.EnterLevel(ctx, 1, 7, 2)
	require.NoError(t, err)

	// Staff rolls the contest back to level 1.
	_, err = svc.rounds.Activate(ctx, 7, 1)
	require.NoError(t, err)

	// The stored level-2 row is ahead of the active round: the response is
	// capped to level 1 and reported as not started, nothing is persisted.
	state, err := svc.GetState(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, state.ActiveLevel)
	assert.Equal(t, 1, state.CurrentLevel)
	assert.Equal(t, model.LevelStatusNotStarted, state.Status)
	assert.Nil(t, state.StartTime)
}

func TestGetStatePausedRoundKeepsLevel(t *testing.T) {
	svc, rounds, _, _, _ := newProgressionHarness()
	ctx := context.Background()

	_, err := svc.rounds.Activate(ctx, 7, 2)
	require.NoError(t, err)
	_, err = svc.EnterLevel(ctx, 1, 7, 2)
	require.NoError(t, err)

	// A paused round still anchors everyone's position; it only blocks entry.
	_, err = rounds.SetStatus(ctx, 7, 2, model.RoundStatusPaused)
	require.NoError(t, err)

	state, err := svc.GetState(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, state.ActiveLevel)
	assert.Equal(t, 2, state.CurrentLevel)
	assert.Equal(t, model.LevelStatusInProgress, state.Status)
}

func TestGetStateFreshParticipant(t *testing.T) {
	svc, rounds, _, _, _ := newProgressionHarness()
	rounds.seed(7, 2, model.RoundStatusActive)

	state, err := svc.GetState(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, state.ActiveLevel)
	assert.Equal(t, 2, state.CurrentLevel)
	assert.Equal(t, model.LevelStatusNotStarted, state.Status)
	assert.Equal(t, 20, state.DurationMinutes)
	assert.False(t, state.IsEliminated)
	assert.Empty(t, state.SolvedQuestions)
}
