package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ShortlistRepository handles per-level qualification lists. A level with
// zero entries is an open round, so callers always check the count before
// an individual lookup.
type ShortlistRepository struct {
	pool *pgxpool.Pool
}

// NewShortlistRepository creates a new ShortlistRepository.
func NewShortlistRepository(pool *pgxpool.Pool) *ShortlistRepository {
	return &ShortlistRepository{pool: pool}
}

// CountForLevel returns how many shortlist entries exist for a level.
func (r *ShortlistRepository) CountForLevel(ctx context.Context, contestID int64, level int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM shortlist_entries
		 WHERE contest_id = $1 AND level = $2`,
		contestID, level).Scan(&count)
	return count, err
}

// IsAllowed reports whether the participant has an allowed entry for the
// level. A missing row counts as not allowed; open-round semantics live in
// the service layer.
func (r *ShortlistRepository) IsAllowed(ctx context.Context, participantID int, contestID int64, level int) (bool, error) {
	var allowed bool
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(
			(SELECT is_allowed FROM shortlist_entries
			 WHERE contest_id = $1 AND level = $2 AND participant_id = $3),
			FALSE)`,
		contestID, level, participantID).Scan(&allowed)
	return allowed, err
}

// Replace swaps the shortlist for a level in one transaction: every existing
// entry is demoted to not-allowed, then the listed participants are upserted
// as allowed. Demotion instead of deletion keeps the audit trail of who was
// ever considered.
func (r *ShortlistRepository) Replace(ctx context.Context, contestID int64, level int, participantIDs []int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE shortlist_entries SET is_allowed = FALSE
		 WHERE contest_id = $1 AND level = $2`,
		contestID, level)
	if err != nil {
		return err
	}

	for _, pid := range participantIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO shortlist_entries (contest_id, level, participant_id, is_allowed)
			 VALUES ($1, $2, $3, TRUE)
			 ON CONFLICT (contest_id, level, participant_id)
			 DO UPDATE SET is_allowed = TRUE`,
			contestID, level, pid)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListAllowed returns the participant IDs currently allowed into a level.
func (r *ShortlistRepository) ListAllowed(ctx context.Context, contestID int64, level int) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT participant_id FROM shortlist_entries
		 WHERE contest_id = $1 AND level = $2 AND is_allowed
		 ORDER BY participant_id ASC`,
		contestID, level)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
