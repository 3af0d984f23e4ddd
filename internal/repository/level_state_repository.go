package repository

import (
	"context"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LevelStateRepository handles per-participant level progression rows.
type LevelStateRepository struct {
	pool *pgxpool.Pool
}

// NewLevelStateRepository creates a new LevelStateRepository.
func NewLevelStateRepository(pool *pgxpool.Pool) *LevelStateRepository {
	return &LevelStateRepository{pool: pool}
}

const levelStateColumns = `participant_id, contest_id, level, status, start_time,
	completed_at, questions_solved, level_score, violation_count`

func scanLevelState(row pgx.Row) (*model.ParticipantLevelState, error) {
	s := &model.ParticipantLevelState{}
	err := row.Scan(
		&s.ParticipantID, &s.ContestID, &s.Level, &s.Status, &s.StartTime,
		&s.CompletedAt, &s.QuestionsSolved, &s.LevelScore, &s.ViolationCount,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Get retrieves a single level row. Returns pgx.ErrNoRows when the
// participant never touched the level.
func (r *LevelStateRepository) Get(ctx context.Context, participantID int, contestID int64, level int) (*model.ParticipantLevelState, error) {
	return scanLevelState(r.pool.QueryRow(ctx,
		`SELECT `+levelStateColumns+`
		 FROM participant_level_states
		 WHERE participant_id = $1 AND contest_id = $2 AND level = $3`,
		participantID, contestID, level))
}

// GetLatest retrieves the highest level the participant has a row for.
func (r *LevelStateRepository) GetLatest(ctx context.Context, participantID int, contestID int64) (*model.ParticipantLevelState, error) {
	return scanLevelState(r.pool.QueryRow(ctx,
		`SELECT `+levelStateColumns+`
		 FROM participant_level_states
		 WHERE participant_id = $1 AND contest_id = $2
		 ORDER BY level DESC
		 LIMIT 1`,
		participantID, contestID))
}

// ListForParticipant returns all level rows for a participant in a contest,
// lowest level first.
func (r *LevelStateRepository) ListForParticipant(ctx context.Context, participantID int, contestID int64) ([]model.ParticipantLevelState, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+levelStateColumns+`
		 FROM participant_level_states
		 WHERE participant_id = $1 AND contest_id = $2
		 ORDER BY level ASC`,
		participantID, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []model.ParticipantLevelState
	for rows.Next() {
		s, err := scanLevelState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, *s)
	}
	return states, rows.Err()
}

// EnsureRow creates a fresh NOT_STARTED row if none exists. Safe to call
// repeatedly and from concurrent requests.
func (r *LevelStateRepository) EnsureRow(ctx context.Context, participantID int, contestID int64, level int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO participant_level_states (participant_id, contest_id, level)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (participant_id, contest_id, level) DO NOTHING`,
		participantID, contestID, level)
	return err
}

// Start marks the level IN_PROGRESS and stamps start_time exactly once.
// COALESCE keeps the original timestamp on re-entry, so a reconnecting
// participant resumes a running clock instead of getting a fresh one.
func (r *LevelStateRepository) Start(ctx context.Context, participantID int, contestID int64, level int) (*model.ParticipantLevelState, error) {
	return scanLevelState(r.pool.QueryRow(ctx,
		`UPDATE participant_level_states SET
			status = CASE WHEN status IN ('NOT_STARTED', 'PAUSED') THEN 'IN_PROGRESS' ELSE status END,
			start_time = COALESCE(start_time, now())
		 WHERE participant_id = $1 AND contest_id = $2 AND level = $3
		 RETURNING `+levelStateColumns,
		participantID, contestID, level))
}

// Complete marks the level COMPLETED. completed_at is write-once so a
// repeated completion call does not move the recorded finish time.
func (r *LevelStateRepository) Complete(ctx context.Context, participantID int, contestID int64, level int) (*model.ParticipantLevelState, error) {
	return scanLevelState(r.pool.QueryRow(ctx,
		`UPDATE participant_level_states SET
			status = 'COMPLETED',
			completed_at = COALESCE(completed_at, now())
		 WHERE participant_id = $1 AND contest_id = $2 AND level = $3
		 RETURNING `+levelStateColumns,
		participantID, contestID, level))
}

// SetStatus overwrites the status without touching timestamps. Used when a
// round pause suspends everyone currently inside it.
func (r *LevelStateRepository) SetStatus(ctx context.Context, contestID int64, level int, from, to model.LevelStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE participant_level_states SET status = $4
		 WHERE contest_id = $1 AND level = $2 AND status = $3`,
		contestID, level, from, to)
	return err
}

// IncrementViolationCount bumps the level-local violation counter kept on
// the row for dashboard display.
func (r *LevelStateRepository) IncrementViolationCount(ctx context.Context, participantID int, contestID int64, level int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE participant_level_states SET violation_count = violation_count + 1
		 WHERE participant_id = $1 AND contest_id = $2 AND level = $3`,
		participantID, contestID, level)
	return err
}

// DeleteForParticipant removes every level row for a participant in a
// contest. Part of a staff progress reset.
func (r *LevelStateRepository) DeleteForParticipant(ctx context.Context, participantID int, contestID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM participant_level_states
		 WHERE participant_id = $1 AND contest_id = $2`,
		participantID, contestID)
	return err
}
