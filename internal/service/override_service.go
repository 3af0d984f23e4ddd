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

// SubmissionPurger deletes a participant's submissions in a contest.
type SubmissionPurger interface {
	DeleteForParticipant(ctx context.Context, participantID int, contestID int64) error
}

// OverrideService owns disqualification and its reversals. Automatic
// disqualification is conditional and fires side effects exactly once;
// staff decisions are unconditional.
type OverrideService struct {
	proctoring  ProctoringStore
	states      LevelStateStore
	submissions SubmissionPurger
	events      notifier.Notifier
	log         zerolog.Logger
}

// NewOverrideService creates a new OverrideService.
func NewOverrideService(proctoring ProctoringStore, states LevelStateStore, submissions SubmissionPurger, events notifier.Notifier) *OverrideService {
	return &OverrideService{
		proctoring:  proctoring,
		states:      states,
		submissions: submissions,
		events:      events,
		log:         log.With().Str("component", "override_service").Logger(),
	}
}

// AutoDisqualify applies a quota-triggered disqualification. Returns false
// when the participant was already disqualified, in which case nothing is
// broadcast and the stored reason and timestamp keep their original values.
func (s *OverrideService) AutoDisqualify(ctx context.Context, participantID int, contestID int64, reason string) (bool, error) {
	applied, err := s.proctoring.Disqualify(ctx, participantID, contestID, reason)
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}

	s.log.Warn().
		Int("participant_id", participantID).
		Int64("contest_id", contestID).
		Str("reason", reason).
		Msg("Participant auto-disqualified")
	s.events.Publish(ctx, contestID, notifier.EventDisqualified, map[string]any{
		"participant_id": participantID,
		"reason":         reason,
		"automatic":      true,
	})
	return true, nil
}

// ManualDisqualify applies a staff disqualification, overwriting any
// existing reason. A human decision always wins over the automatic one.
func (s *OverrideService) ManualDisqualify(ctx context.Context, participantID int, contestID int64, reason string) error {
	if err := s.proctoring.EnsureAggregate(ctx, participantID, contestID); err != nil {
		return err
	}
	if err := s.proctoring.ForceDisqualify(ctx, participantID, contestID, reason); err != nil {
		return err
	}

	s.log.Warn().
		Int("participant_id", participantID).
		Int64("contest_id", contestID).
		Str("reason", reason).
		Msg("Participant disqualified by staff")
	s.events.Publish(ctx, contestID, notifier.EventDisqualified, map[string]any{
		"participant_id": participantID,
		"reason":         reason,
		"automatic":      false,
	})
	return nil
}

// AllowExtra reinstates a disqualified participant by raising their
// violation allowance. The violation log is untouched and the risk level
// stays high: the grace is forgiveness, not amnesia.
func (s *OverrideService) AllowExtra(ctx context.Context, participantID int, contestID int64, amount int) (*model.ProctoringAggregate, error) {
	if amount < 1 {
		amount = 1
	}
	agg, err := s.proctoring.GrantExtra(ctx, participantID, contestID, amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}

	s.log.Info().
		Int("participant_id", participantID).
		Int64("contest_id", contestID).
		Int("extra", amount).
		Msg("Extra violations granted")
	return agg, nil
}

// ResetViolations zeroes the participant's counters and clears any
// disqualification. The audit log keeps the historical records.
func (s *OverrideService) ResetViolations(ctx context.Context, participantID int, contestID int64) error {
	if err := s.proctoring.ResetAggregate(ctx, participantID, contestID); err != nil {
		return err
	}
	s.log.Info().
		Int("participant_id", participantID).
		Int64("contest_id", contestID).
		Msg("Violation counters reset")
	return nil
}

// ResetProgress wipes the participant's level rows and submissions in a
// contest so they can restart from level one. Violation counters are reset
// alongside.
func (s *OverrideService) ResetProgress(ctx context.Context, participantID int, contestID int64) error {
	if err := s.states.DeleteForParticipant(ctx, participantID, contestID); err != nil {
		return err
	}
	if err := s.submissions.DeleteForParticipant(ctx, participantID, contestID); err != nil {
		return err
	}
	if err := s.proctoring.ResetAggregate(ctx, participantID, contestID); err != nil {
		return err
	}
	s.log.Info().
		Int("participant_id", participantID).
		Int64("contest_id", contestID).
		Msg("Progress reset")
	return nil
}
