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

// RoundService controls the contest-wide round state machine. At most one
// round per contest is active at any time; activating one demotes the rest.
type RoundService struct {
	contests  ContestStore
	rounds    RoundStore
	states    LevelStateStore
	countdown CountdownKeeper
	events    notifier.Notifier
	log       zerolog.Logger
}

// NewRoundService creates a new RoundService.
func NewRoundService(contests ContestStore, rounds RoundStore, states LevelStateStore, countdown CountdownKeeper, events notifier.Notifier) *RoundService {
	return &RoundService{
		contests:  contests,
		rounds:    rounds,
		states:    states,
		countdown: countdown,
		events:    events,
		log:       log.With().Str("component", "round_service").Logger(),
	}
}

// Activate makes the given level the contest's single active round,
// creating it with defaults if it never existed. Re-activating the already
// active round is a no-op that still emits the activation event, so clients
// that missed the first broadcast can resynchronize.
func (s *RoundService) Activate(ctx context.Context, contestID int64, level int) (*model.Round, error) {
	if _, err := s.contests.GetByID(ctx, contestID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}

	round, err := s.rounds.Activate(ctx, contestID, level)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("contest_id", contestID).Int("level", level).Msg("Round activated")
	s.events.Publish(ctx, contestID, notifier.EventLevelActivated, map[string]any{
		"level":      level,
		"duration":   round.EffectiveTimeLimit(),
		"start_time": round.StartTime,
	})
	return round, nil
}

// Pause suspends a round without losing participant clocks. Everyone
// currently working inside it is moved to PAUSED; re-entering after the
// round resumes picks their original clock back up. Pausing a round that
// does not exist succeeds without effect.
func (s *RoundService) Pause(ctx context.Context, contestID int64, level int) (*model.Round, error) {
	round, err := s.rounds.SetStatus(ctx, contestID, level, model.RoundStatusPaused)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := s.states.SetStatus(ctx, contestID, level, model.LevelStatusInProgress, model.LevelStatusPaused); err != nil {
		s.log.Warn().Err(err).Int64("contest_id", contestID).Int("level", level).Msg("Suspending participants failed")
	}

	s.log.Info().Int64("contest_id", contestID).Int("level", level).Msg("Round paused")
	s.events.Publish(ctx, contestID, notifier.EventLevelPaused, map[string]any{"level": level})
	return round, nil
}

// Complete finalizes a round. Completing an unknown round succeeds without
// effect.
func (s *RoundService) Complete(ctx context.Context, contestID int64, level int) (*model.Round, error) {
	round, err := s.rounds.SetStatus(ctx, contestID, level, model.RoundStatusCompleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	s.log.Info().Int64("contest_id", contestID).Int("level", level).Msg("Round completed")
	s.events.Publish(ctx, contestID, notifier.EventLevelCompleted, map[string]any{"level": level})
	return round, nil
}

// FinalizeActive completes whichever round is active, if any. Used when the
// whole contest ends.
func (s *RoundService) FinalizeActive(ctx context.Context, contestID int64) (*model.Round, error) {
	round, err := s.rounds.CompleteActive(ctx, contestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.events.Publish(ctx, contestID, notifier.EventLevelCompleted, map[string]any{"level": round.Number})
	return round, nil
}

// GetActive returns the active round, or nil when nothing is live.
func (s *RoundService) GetActive(ctx context.Context, contestID int64) (*model.Round, error) {
	round, err := s.rounds.GetActive(ctx, contestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return round, nil
}

// List returns a contest's rounds ordered by level.
func (s *RoundService) List(ctx context.Context, contestID int64) ([]model.Round, error) {
	return s.rounds.ListByContest(ctx, contestID)
}

// Update applies staff edits to a round's settings.
func (s *RoundService) Update(ctx context.Context, contestID int64, level int, req *model.UpdateRoundRequest) (*model.Round, error) {
	round, err := s.rounds.Update(ctx, contestID, level, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return round, nil
}

// StartCountdown arms the shared contest countdown and broadcasts it.
func (s *RoundService) StartCountdown(ctx context.Context, contestID int64, durationMinutes int) (*model.CountdownState, error) {
	state, err := s.countdown.Start(ctx, contestID, durationMinutes)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, contestID, notifier.EventContestCountdown, state)
	return state, nil
}

// StopCountdown clears the countdown and broadcasts the stop.
func (s *RoundService) StopCountdown(ctx context.Context, contestID int64) error {
	if err := s.countdown.Stop(ctx, contestID); err != nil {
		return err
	}
	s.events.Publish(ctx, contestID, notifier.EventContestCountdown, &model.CountdownState{Active: false})
	return nil
}

// GetCountdown reads the current countdown state.
func (s *RoundService) GetCountdown(ctx context.Context, contestID int64) (*model.CountdownState, error) {
	return s.countdown.Get(ctx, contestID)
}
