package service

import (
	"context"
	"errors"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/codearena/codearena-backend/internal/notifier"
	"github.com/codearena/codearena-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ContestService handles contest CRUD and lifecycle control.
type ContestService struct {
	contests  *repository.ContestRepository
	monitor   *repository.MonitorRepository
	rounds    *RoundService
	countdown CountdownKeeper
	events    notifier.Notifier
	log       zerolog.Logger
}

// NewContestService creates a new ContestService.
func NewContestService(contests *repository.ContestRepository, monitor *repository.MonitorRepository, rounds *RoundService, countdown CountdownKeeper, events notifier.Notifier) *ContestService {
	return &ContestService{
		contests:  contests,
		monitor:   monitor,
		rounds:    rounds,
		countdown: countdown,
		events:    events,
		log:       log.With().Str("component", "contest_service").Logger(),
	}
}

// Create registers a new draft contest.
func (s *ContestService) Create(ctx context.Context, req *model.CreateContestRequest) (*model.Contest, error) {
	contest, err := s.contests.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("contest_id", contest.ID).Str("title", contest.Title).Msg("Contest created")
	return contest, nil
}

// Get retrieves a contest.
func (s *ContestService) Get(ctx context.Context, id int64) (*model.Contest, error) {
	contest, err := s.contests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}
	return contest, nil
}

// List returns all contests.
func (s *ContestService) List(ctx context.Context) ([]model.Contest, error) {
	return s.contests.List(ctx)
}

// Update applies staff edits. A status change in the payload routes through
// the lifecycle transitions so the matching events fire.
func (s *ContestService) Update(ctx context.Context, id int64, req *model.UpdateContestRequest) (*model.Contest, error) {
	contest, err := s.contests.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}
	if req.Status != "" && req.Status != contest.Status {
		return s.Transition(ctx, id, req.Status)
	}
	s.events.Publish(ctx, id, notifier.EventContestUpdated, contest)
	return contest, nil
}

// Delete removes a contest and all dependent rows.
func (s *ContestService) Delete(ctx context.Context, id int64) error {
	if err := s.contests.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrContestNotFound
		}
		return err
	}
	s.log.Info().Int64("contest_id", id).Msg("Contest deleted")
	return nil
}

// Transition moves the contest to the given lifecycle state and broadcasts
// the change. Ending a contest also finalizes whatever round is active and
// stops the countdown.
func (s *ContestService) Transition(ctx context.Context, id int64, status model.ContestStatus) (*model.Contest, error) {
	contest, err := s.contests.SetStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}

	event := notifier.EventContestUpdated
	switch status {
	case model.ContestStatusLive:
		event = notifier.EventContestStarted
	case model.ContestStatusPaused:
		event = notifier.EventContestPaused
	case model.ContestStatusEnded:
		event = notifier.EventContestEnded
		if _, err := s.rounds.FinalizeActive(ctx, id); err != nil {
			s.log.Warn().Err(err).Int64("contest_id", id).Msg("Active round finalize failed")
		}
		if err := s.countdown.Stop(ctx, id); err != nil {
			s.log.Warn().Err(err).Int64("contest_id", id).Msg("Countdown stop failed")
		}
	}

	s.log.Info().Int64("contest_id", id).Str("status", string(status)).Msg("Contest transitioned")
	s.events.Publish(ctx, id, event, map[string]any{"status": status})
	return contest, nil
}

// Stats assembles the staff contest summary including the live countdown.
func (s *ContestService) Stats(ctx context.Context, id int64) (*model.ContestStats, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	stats, err := s.monitor.ContestStats(ctx, id)
	if err != nil {
		return nil, err
	}
	countdown, err := s.countdown.Get(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Int64("contest_id", id).Msg("Countdown read failed")
	} else if countdown.Active {
		stats.CountdownState = "running"
	} else {
		stats.CountdownState = "stopped"
	}
	return stats, nil
}
