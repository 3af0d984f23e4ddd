package repository

import (
	"context"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RoundRepository handles contest round data access.
type RoundRepository struct {
	pool *pgxpool.Pool
}

// NewRoundRepository creates a new RoundRepository.
func NewRoundRepository(pool *pgxpool.Pool) *RoundRepository {
	return &RoundRepository{pool: pool}
}

const roundColumns = `id, contest_id, number, status, time_limit_minutes,
	allowed_language, start_time, created_at`

func scanRound(row pgx.Row) (*model.Round, error) {
	rd := &model.Round{}
	err := row.Scan(&rd.ID, &rd.ContestID, &rd.Number, &rd.Status,
		&rd.TimeLimitMinutes, &rd.AllowedLanguage, &rd.StartTime, &rd.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rd, nil
}

// GetByNumber retrieves a round by contest and level number.
func (r *RoundRepository) GetByNumber(ctx context.Context, contestID int64, number int) (*model.Round, error) {
	return scanRound(r.pool.QueryRow(ctx,
		`SELECT `+roundColumns+`
		 FROM rounds
		 WHERE contest_id = $1 AND number = $2`,
		contestID, number))
}

// GetActive retrieves the single active round of a contest, or pgx.ErrNoRows.
func (r *RoundRepository) GetActive(ctx context.Context, contestID int64) (*model.Round, error) {
	return scanRound(r.pool.QueryRow(ctx,
		`SELECT `+roundColumns+`
		 FROM rounds
		 WHERE contest_id = $1 AND status = 'active'
		 ORDER BY number ASC
		 LIMIT 1`,
		contestID))
}

// GetCurrent retrieves the round that defines the contest's global level:
// the highest round that is active or paused. A paused round still anchors
// everyone's position, it just blocks entry.
func (r *RoundRepository) GetCurrent(ctx context.Context, contestID int64) (*model.Round, error) {
	return scanRound(r.pool.QueryRow(ctx,
		`SELECT `+roundColumns+`
		 FROM rounds
		 WHERE contest_id = $1 AND status IN ('active', 'paused')
		 ORDER BY number DESC
		 LIMIT 1`,
		contestID))
}

// ListByContest returns all rounds of a contest ordered by level number.
func (r *RoundRepository) ListByContest(ctx context.Context, contestID int64) ([]model.Round, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+roundColumns+`
		 FROM rounds
		 WHERE contest_id = $1
		 ORDER BY number ASC`,
		contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []model.Round
	for rows.Next() {
		rd, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, *rd)
	}
	return rounds, rows.Err()
}

// Activate demotes every other active round back to pending and activates
// the requested one inside a single transaction, so at most one round per
// contest is ever active. Demotion is not completion: a staff rollback must
// leave the demoted round re-activatable. The target round is created with
// defaults when it does not exist yet.
func (r *RoundRepository) Activate(ctx context.Context, contestID int64, number int) (*model.Round, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE rounds SET status = 'pending'
		 WHERE contest_id = $1 AND status = 'active' AND number <> $2`,
		contestID, number)
	if err != nil {
		return nil, err
	}

	round, err := scanRound(tx.QueryRow(ctx,
		`INSERT INTO rounds (contest_id, number, status, start_time)
		 VALUES ($1, $2, 'active', now())
		 ON CONFLICT (contest_id, number) DO UPDATE SET
			status = 'active',
			start_time = CASE WHEN rounds.status = 'active'
				THEN rounds.start_time ELSE now() END
		 RETURNING `+roundColumns,
		contestID, number))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return round, nil
}

// SetStatus moves a round to the given status. Returns pgx.ErrNoRows when
// the round does not exist.
func (r *RoundRepository) SetStatus(ctx context.Context, contestID int64, number int, status model.RoundStatus) (*model.Round, error) {
	return scanRound(r.pool.QueryRow(ctx,
		`UPDATE rounds SET status = $3
		 WHERE contest_id = $1 AND number = $2
		 RETURNING `+roundColumns,
		contestID, number, status))
}

// CompleteActive finalizes whichever round is currently active. Returns the
// completed round, or pgx.ErrNoRows when nothing was active.
func (r *RoundRepository) CompleteActive(ctx context.Context, contestID int64) (*model.Round, error) {
	return scanRound(r.pool.QueryRow(ctx,
		`UPDATE rounds SET status = 'completed'
		 WHERE contest_id = $1 AND status = 'active'
		 RETURNING `+roundColumns,
		contestID))
}

// Update applies partial round settings.
func (r *RoundRepository) Update(ctx context.Context, contestID int64, number int, req *model.UpdateRoundRequest) (*model.Round, error) {
	return scanRound(r.pool.QueryRow(ctx,
		`UPDATE rounds SET
			time_limit_minutes = COALESCE($3, time_limit_minutes),
			allowed_language = COALESCE(NULLIF($4, ''), allowed_language)
		 WHERE contest_id = $1 AND number = $2
		 RETURNING `+roundColumns,
		contestID, number, req.TimeLimitMinutes, req.AllowedLanguage))
}

// EnsureRound creates a pending round row when questions are added for a
// level that has no round yet.
func (r *RoundRepository) EnsureRound(ctx context.Context, contestID int64, number int) (*model.Round, error) {
	round, err := scanRound(r.pool.QueryRow(ctx,
		`INSERT INTO rounds (contest_id, number)
		 VALUES ($1, $2)
		 ON CONFLICT (contest_id, number) DO NOTHING
		 RETURNING `+roundColumns,
		contestID, number))
	if err == pgx.ErrNoRows {
		return r.GetByNumber(ctx, contestID, number)
	}
	return round, err
}

// SetTimeLimit stores an explicit per-level time limit.
func (r *RoundRepository) SetTimeLimit(ctx context.Context, roundID int64, minutes int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE rounds SET time_limit_minutes = $2 WHERE id = $1`,
		roundID, minutes)
	return err
}
