package service

import (
	"context"

	"github.com/codearena/codearena-backend/internal/model"
)

// The core engines take their stores as interfaces so the progression and
// enforcement rules can be tested against in-memory fakes. The pgx-backed
// repositories satisfy these.

// ProctoringStore persists aggregates and per-contest enforcement configs.
type ProctoringStore interface {
	EnsureAggregate(ctx context.Context, participantID int, contestID int64) error
	GetAggregate(ctx context.Context, participantID int, contestID int64) (*model.ProctoringAggregate, error)
	ApplyViolation(ctx context.Context, participantID int, contestID int64, category model.ViolationCategory, penalty int) (*model.ProctoringAggregate, error)
	Disqualify(ctx context.Context, participantID int, contestID int64, reason string) (bool, error)
	ForceDisqualify(ctx context.Context, participantID int, contestID int64, reason string) error
	GrantExtra(ctx context.Context, participantID int, contestID int64, amount int) (*model.ProctoringAggregate, error)
	ResetAggregate(ctx context.Context, participantID int, contestID int64) error
	GetConfig(ctx context.Context, contestID int64) (*model.ProctoringConfig, error)
	UpsertConfig(ctx context.Context, c *model.ProctoringConfig) error
}

// ViolationLog is the append-only violation event store.
type ViolationLog interface {
	Append(ctx context.Context, v *model.ViolationRecord) error
	CountForLevel(ctx context.Context, participantID int, contestID int64, level int) (int, error)
	ListForParticipant(ctx context.Context, participantID int, contestID int64, limit int) ([]model.ViolationRecord, error)
}

// LevelStateStore persists per-participant level progression rows.
type LevelStateStore interface {
	Get(ctx context.Context, participantID int, contestID int64, level int) (*model.ParticipantLevelState, error)
	GetLatest(ctx context.Context, participantID int, contestID int64) (*model.ParticipantLevelState, error)
	ListForParticipant(ctx context.Context, participantID int, contestID int64) ([]model.ParticipantLevelState, error)
	EnsureRow(ctx context.Context, participantID int, contestID int64, level int) error
	Start(ctx context.Context, participantID int, contestID int64, level int) (*model.ParticipantLevelState, error)
	Complete(ctx context.Context, participantID int, contestID int64, level int) (*model.ParticipantLevelState, error)
	SetStatus(ctx context.Context, contestID int64, level int, from, to model.LevelStatus) error
	IncrementViolationCount(ctx context.Context, participantID int, contestID int64, level int) error
	DeleteForParticipant(ctx context.Context, participantID int, contestID int64) error
}

// ShortlistStore persists per-level qualification lists.
type ShortlistStore interface {
	CountForLevel(ctx context.Context, contestID int64, level int) (int, error)
	IsAllowed(ctx context.Context, participantID int, contestID int64, level int) (bool, error)
	Replace(ctx context.Context, contestID int64, level int, participantIDs []int) error
	ListAllowed(ctx context.Context, contestID int64, level int) ([]int, error)
}

// RoundStore persists contest rounds.
type RoundStore interface {
	GetByNumber(ctx context.Context, contestID int64, number int) (*model.Round, error)
	GetActive(ctx context.Context, contestID int64) (*model.Round, error)
	GetCurrent(ctx context.Context, contestID int64) (*model.Round, error)
	ListByContest(ctx context.Context, contestID int64) ([]model.Round, error)
	Activate(ctx context.Context, contestID int64, number int) (*model.Round, error)
	SetStatus(ctx context.Context, contestID int64, number int, status model.RoundStatus) (*model.Round, error)
	CompleteActive(ctx context.Context, contestID int64) (*model.Round, error)
	Update(ctx context.Context, contestID int64, number int, req *model.UpdateRoundRequest) (*model.Round, error)
}

// ContestStore is the subset of contest persistence the engines need.
type ContestStore interface {
	GetByID(ctx context.Context, id int64) (*model.Contest, error)
}

// CountdownKeeper holds the shared contest countdown.
type CountdownKeeper interface {
	Start(ctx context.Context, contestID int64, durationMinutes int) (*model.CountdownState, error)
	Get(ctx context.Context, contestID int64) (*model.CountdownState, error)
	Stop(ctx context.Context, contestID int64) error
}
