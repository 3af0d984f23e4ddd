package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/codearena/codearena-backend/internal/notifier"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ConfigCache is a short-lived read cache in front of the proctoring config
// store. Violation ingestion hits the config on every event, so it is the
// one read worth caching.
type ConfigCache interface {
	GetConfig(ctx context.Context, contestID int64) (*model.ProctoringConfig, bool)
	SetConfig(ctx context.Context, cfg *model.ProctoringConfig)
	Invalidate(ctx context.Context, contestID int64)
}

// ViolationService ingests proctoring violations: it classifies each event,
// appends it to the audit log, updates the aggregate counters, and hands
// quota crossings to the disqualification controller.
type ViolationService struct {
	proctoring ProctoringStore
	violations ViolationLog
	states     LevelStateStore
	overrides  *OverrideService
	cache      ConfigCache
	events     notifier.Notifier
	log        zerolog.Logger
}

// NewViolationService creates a new ViolationService. cache may be nil.
func NewViolationService(proctoring ProctoringStore, violations ViolationLog, states LevelStateStore, overrides *OverrideService, cache ConfigCache, events notifier.Notifier) *ViolationService {
	return &ViolationService{
		proctoring: proctoring,
		violations: violations,
		states:     states,
		overrides:  overrides,
		cache:      cache,
		events:     events,
		log:        log.With().Str("component", "violation_service").Logger(),
	}
}

// GetConfig returns the contest's enforcement config, falling back to the
// defaults when none is stored.
func (s *ViolationService) GetConfig(ctx context.Context, contestID int64) (*model.ProctoringConfig, error) {
	if s.cache != nil {
		if cfg, ok := s.cache.GetConfig(ctx, contestID); ok {
			return cfg, nil
		}
	}
	cfg, err := s.proctoring.GetConfig(ctx, contestID)
	if errors.Is(err, pgx.ErrNoRows) {
		cfg = model.DefaultProctoringConfig(contestID)
	} else if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetConfig(ctx, cfg)
	}
	return cfg, nil
}

// UpdateConfig overlays the request onto the effective config and stores the
// result, so partial updates keep untouched fields at their current values.
func (s *ViolationService) UpdateConfig(ctx context.Context, contestID int64, req *model.UpdateProctoringConfigRequest) (*model.ProctoringConfig, error) {
	cfg, err := s.GetConfig(ctx, contestID)
	if err != nil {
		return nil, err
	}
	req.Apply(cfg)
	cfg.ContestID = contestID
	if err := s.proctoring.UpsertConfig(ctx, cfg); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, contestID)
	}
	s.log.Info().Int64("contest_id", contestID).Msg("Proctoring config updated")
	return cfg, nil
}

// RecordViolation processes one detector event end to end. When proctoring
// is disabled for the contest the event is acknowledged but nothing is
// recorded. The quota that triggers auto-disqualification counts only this
// level's violations; the risk level tracks the global total.
func (s *ViolationService) RecordViolation(ctx context.Context, participantID int, req *model.ReportViolationRequest) (*model.ViolationOutcome, error) {
	level := req.Level
	if level < 1 {
		level = 1
	}

	if err := s.proctoring.EnsureAggregate(ctx, participantID, req.ContestID); err != nil {
		return nil, err
	}

	cfg, err := s.GetConfig(ctx, req.ContestID)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		agg, err := s.proctoring.GetAggregate(ctx, participantID, req.ContestID)
		if err != nil {
			return nil, err
		}
		return &model.ViolationOutcome{
			TotalViolations: agg.TotalViolations,
			ViolationScore:  agg.ViolationScore,
			RiskLevel:       agg.RiskLevel,
			IsDisqualified:  agg.IsDisqualified,
		}, nil
	}

	// Category resolution happened at the transport boundary; an unset one
	// means a caller skipped it, which lands in the catch-all bucket.
	category := req.Category
	if category == "" {
		category = model.CategoryOther
	}
	penalty := cfg.PenaltyFor(category)

	agg, err := s.proctoring.ApplyViolation(ctx, participantID, req.ContestID, category, penalty)
	if err != nil {
		return nil, err
	}

	record := &model.ViolationRecord{
		ID:            uuid.New(),
		ParticipantID: participantID,
		ContestID:     req.ContestID,
		Level:         level,
		Category:      category,
		Penalty:       penalty,
		Severity:      model.SeverityForPenalty(penalty),
		Description:   req.Description,
	}
	if err := s.violations.Append(ctx, record); err != nil {
		return nil, err
	}
	if err := s.states.IncrementViolationCount(ctx, participantID, req.ContestID, level); err != nil {
		s.log.Warn().Err(err).Int("participant_id", participantID).Msg("Level violation counter update failed")
	}

	outcome := &model.ViolationOutcome{
		TotalViolations: agg.TotalViolations,
		ViolationScore:  agg.ViolationScore,
		RiskLevel:       agg.RiskLevel,
		WarningIssued:   agg.TotalViolations >= cfg.WarningThreshold,
		IsDisqualified:  agg.IsDisqualified,
	}

	if cfg.AutoDisqualify && !agg.IsDisqualified {
		levelCount, err := s.violations.CountForLevel(ctx, participantID, req.ContestID, level)
		if err != nil {
			return nil, err
		}
		allowed := cfg.MaxViolations + agg.ExtraViolations
		if levelCount > allowed {
			reason := fmt.Sprintf("Exceeded violation limit at level %d (%d/%d)", level, levelCount, allowed)
			disqualified, err := s.overrides.AutoDisqualify(ctx, participantID, req.ContestID, reason)
			if err != nil {
				return nil, err
			}
			if disqualified {
				outcome.IsDisqualified = true
				outcome.RiskLevel = model.RiskCritical
			}
		}
	}

	s.events.Publish(ctx, req.ContestID, notifier.EventViolation, map[string]any{
		"participant_id":   participantID,
		"level":            level,
		"category":         category,
		"severity":         record.Severity,
		"total_violations": outcome.TotalViolations,
		"risk_level":       outcome.RiskLevel,
		"is_disqualified":  outcome.IsDisqualified,
	})

	s.log.Debug().
		Int("participant_id", participantID).
		Int64("contest_id", req.ContestID).
		Int("level", level).
		Str("category", string(category)).
		Int("total", outcome.TotalViolations).
		Msg("Violation recorded")

	return outcome, nil
}

// GetStatus returns the participant's aggregate plus their recent
// violations, for both the participant's own status view and staff drill-in.
func (s *ViolationService) GetStatus(ctx context.Context, participantID int, contestID int64) (*model.ProctoringAggregate, []model.ViolationRecord, error) {
	agg, err := s.proctoring.GetAggregate(ctx, participantID, contestID)
	if errors.Is(err, pgx.ErrNoRows) {
		empty := &model.ProctoringAggregate{
			ParticipantID: participantID,
			ContestID:     contestID,
			RiskLevel:     model.RiskLow,
		}
		return empty, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	records, err := s.violations.ListForParticipant(ctx, participantID, contestID, 50)
	if err != nil {
		return nil, nil, err
	}
	return agg, records, nil
}
