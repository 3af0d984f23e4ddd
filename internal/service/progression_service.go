package service

import (
	"context"
	"errors"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/codearena/codearena-backend/internal/notifier"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ScoreStore recomputes persisted level scores from submissions and exposes
// the questions a participant has already solved.
type ScoreStore interface {
	RecalcLevelStats(ctx context.Context, participantID int, contestID int64, level int) error
	SolvedQuestionIDs(ctx context.Context, participantID int, contestID int64) ([]int64, error)
}

// ProgressionService moves participants through levels: shortlist gating,
// write-once level clocks, completion, and the staff qualification flow.
type ProgressionService struct {
	rounds    RoundStore
	states    LevelStateStore
	shortlist ShortlistStore
	scores    ScoreStore
	proctor   ProctoringStore
	events    notifier.Notifier
	log       zerolog.Logger
}

// NewProgressionService creates a new ProgressionService.
func NewProgressionService(rounds RoundStore, states LevelStateStore, shortlist ShortlistStore, scores ScoreStore, proctor ProctoringStore, events notifier.Notifier) *ProgressionService {
	return &ProgressionService{
		rounds:    rounds,
		states:    states,
		shortlist: shortlist,
		scores:    scores,
		proctor:   proctor,
		events:    events,
		log:       log.With().Str("component", "progression_service").Logger(),
	}
}

// IsAllowed reports whether the participant may enter the level. A level
// with no shortlist entries at all is open to everyone.
func (s *ProgressionService) IsAllowed(ctx context.Context, participantID int, contestID int64, level int) (bool, error) {
	count, err := s.shortlist.CountForLevel(ctx, contestID, level)
	if err != nil {
		return false, err
	}
	if count == 0 {
		return true, nil
	}
	return s.shortlist.IsAllowed(ctx, participantID, contestID, level)
}

// EnterLevel admits a participant into a level. Denials come back as a
// result with Allowed=false rather than an error: a participant poking at
// a closed level is normal operation. On admission the level clock starts
// exactly once; re-entry resumes the original clock.
func (s *ProgressionService) EnterLevel(ctx context.Context, participantID int, contestID int64, level int) (*model.EnterLevelResult, error) {
	round, err := s.rounds.GetByNumber(ctx, contestID, level)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if round == nil || round.Status != model.RoundStatusActive {
		duration := model.DefaultTimeLimitMinutes(level)
		if round != nil {
			duration = round.EffectiveTimeLimit()
		}
		return &model.EnterLevelResult{
			Allowed:         false,
			Reason:          model.ReasonLevelNotActive,
			Level:           level,
			Status:          model.LevelStatusNotStarted,
			DurationMinutes: duration,
		}, nil
	}

	allowed, err := s.IsAllowed(ctx, participantID, contestID, level)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return &model.EnterLevelResult{
			Allowed:         false,
			Reason:          model.ReasonNotShortlisted,
			Level:           level,
			Status:          model.LevelStatusNotStarted,
			DurationMinutes: round.EffectiveTimeLimit(),
		}, nil
	}

	if err := s.states.EnsureRow(ctx, participantID, contestID, level); err != nil {
		return nil, err
	}
	state, err := s.states.Start(ctx, participantID, contestID, level)
	if err != nil {
		return nil, err
	}
	if err := s.proctor.EnsureAggregate(ctx, participantID, contestID); err != nil {
		s.log.Warn().Err(err).Int("participant_id", participantID).Msg("Aggregate provisioning failed")
	}

	s.events.Publish(ctx, contestID, notifier.EventStartedLevel, map[string]any{
		"participant_id": participantID,
		"level":          level,
	})

	return &model.EnterLevelResult{
		Allowed:         true,
		Level:           level,
		Status:          state.Status,
		StartTime:       state.StartTime,
		DurationMinutes: round.EffectiveTimeLimit(),
	}, nil
}

// CompleteLevel closes out the participant's level, recomputes its stats
// from submissions, and provisions the next level row so the dashboard
// shows them queued for it.
func (s *ProgressionService) CompleteLevel(ctx context.Context, participantID int, contestID int64, level int) (*model.ParticipantLevelState, error) {
	state, err := s.states.Complete(ctx, participantID, contestID, level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLevelNotActive
		}
		return nil, err
	}
	if err := s.scores.RecalcLevelStats(ctx, participantID, contestID, level); err != nil {
		s.log.Warn().Err(err).Int("participant_id", participantID).Int("level", level).Msg("Level stats recalc failed")
	}
	if err := s.states.EnsureRow(ctx, participantID, contestID, level+1); err != nil {
		s.log.Warn().Err(err).Int("participant_id", participantID).Msg("Next level provisioning failed")
	}

	s.events.Publish(ctx, contestID, notifier.EventLevelComplete, map[string]any{
		"participant_id": participantID,
		"level":          level,
	})
	s.log.Info().
		Int("participant_id", participantID).
		Int64("contest_id", contestID).
		Int("level", level).
		Msg("Level completed")
	return state, nil
}

// GetState returns the participant's clamped view of their progression. A
// participant whose stored level runs ahead of the contest's active round
// is shown at the active round, so a staff rollback takes effect on the
// next poll without touching participant rows.
func (s *ProgressionService) GetState(ctx context.Context, participantID int, contestID int64) (*model.ProgressState, error) {
	// The global level is anchored by the highest active-or-paused round:
	// pausing the current round must not drop everyone's reported position.
	activeLevel := 1
	var activeRound *model.Round
	round, err := s.rounds.GetCurrent(ctx, contestID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if round != nil {
		activeLevel = round.Number
		activeRound = round
	}

	state, err := s.states.GetLatest(ctx, participantID, contestID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	clamped := state != nil && state.Level > activeLevel

	duration := model.DefaultTimeLimitMinutes(activeLevel)
	if activeRound != nil {
		duration = activeRound.EffectiveTimeLimit()
	}
	solved, err := s.scores.SolvedQuestionIDs(ctx, participantID, contestID)
	if err != nil {
		return nil, err
	}
	eliminated := false
	agg, err := s.proctor.GetAggregate(ctx, participantID, contestID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if agg != nil {
		eliminated = agg.IsDisqualified
	}

	result := &model.ProgressState{
		CurrentLevel:    activeLevel,
		ActiveLevel:     activeLevel,
		Status:          model.LevelStatusNotStarted,
		DurationMinutes: duration,
		SolvedQuestions: solved,
		IsEliminated:    eliminated,
	}
	// A row ahead of the active round is reported at the active level as
	// NOT_STARTED; the stored row is left untouched so a later re-activation
	// restores their real progress.
	if state != nil && !clamped {
		result.CurrentLevel = state.Level
		result.Status = state.Status
		result.StartTime = state.StartTime
		result.CompletedAt = state.CompletedAt
		result.QuestionsSolved = state.QuestionsSolved
		result.LevelScore = state.LevelScore
		if state.Level != activeLevel {
			result.DurationMinutes = model.DefaultTimeLimitMinutes(state.Level)
			levelRound, err := s.rounds.GetByNumber(ctx, contestID, state.Level)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, err
			}
			if levelRound != nil {
				result.DurationMinutes = levelRound.EffectiveTimeLimit()
			}
		}
	}
	return result, nil
}

// ListStates returns every level row the participant holds in a contest.
func (s *ProgressionService) ListStates(ctx context.Context, participantID int, contestID int64) ([]model.ParticipantLevelState, error) {
	return s.states.ListForParticipant(ctx, participantID, contestID)
}

// Qualify replaces the shortlist for a level with the given participants.
// Everyone previously listed but absent from the new list loses access.
func (s *ProgressionService) Qualify(ctx context.Context, contestID int64, level int, participantIDs []int) error {
	if err := s.shortlist.Replace(ctx, contestID, level, participantIDs); err != nil {
		return err
	}
	s.log.Info().
		Int64("contest_id", contestID).
		Int("level", level).
		Int("qualified", len(participantIDs)).
		Msg("Shortlist replaced")
	s.events.Publish(ctx, contestID, notifier.EventContestUpdated, map[string]any{
		"level":     level,
		"qualified": len(participantIDs),
	})
	return nil
}

// Shortlist returns the participant IDs currently allowed into a level.
func (s *ProgressionService) Shortlist(ctx context.Context, contestID int64, level int) ([]int, error) {
	return s.shortlist.ListAllowed(ctx, contestID, level)
}
