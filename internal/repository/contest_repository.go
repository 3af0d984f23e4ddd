package repository

import (
	"context"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContestRepository handles contest data access.
type ContestRepository struct {
	pool *pgxpool.Pool
}

// NewContestRepository creates a new ContestRepository.
func NewContestRepository(pool *pgxpool.Pool) *ContestRepository {
	return &ContestRepository{pool: pool}
}

const contestColumns = `id, title, description, status, start_at, end_at,
	max_violations, created_at, updated_at`

func scanContest(row pgx.Row) (*model.Contest, error) {
	c := &model.Contest{}
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Status,
		&c.StartAt, &c.EndAt, &c.MaxViolations, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID retrieves a contest.
func (r *ContestRepository) GetByID(ctx context.Context, id int64) (*model.Contest, error) {
	return scanContest(r.pool.QueryRow(ctx,
		`SELECT `+contestColumns+` FROM contests WHERE id = $1`, id))
}

// List returns all contests, newest first.
func (r *ContestRepository) List(ctx context.Context) ([]model.Contest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+contestColumns+` FROM contests ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contests []model.Contest
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, err
		}
		contests = append(contests, *c)
	}
	return contests, rows.Err()
}

// Create inserts a new draft contest. A zero max_violations falls back to
// the table default.
func (r *ContestRepository) Create(ctx context.Context, req *model.CreateContestRequest) (*model.Contest, error) {
	return scanContest(r.pool.QueryRow(ctx,
		`INSERT INTO contests (title, description, start_at, end_at, max_violations)
		 VALUES ($1, $2, $3, $4, COALESCE(NULLIF($5, 0), 10))
		 RETURNING `+contestColumns,
		req.Title, req.Description, req.StartAt, req.EndAt, req.MaxViolations))
}

// Update applies partial contest edits. Empty strings and nils leave the
// stored value untouched.
func (r *ContestRepository) Update(ctx context.Context, id int64, req *model.UpdateContestRequest) (*model.Contest, error) {
	return scanContest(r.pool.QueryRow(ctx,
		`UPDATE contests SET
			title = COALESCE(NULLIF($2, ''), title),
			description = COALESCE($3, description),
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+contestColumns,
		id, req.Title, req.Description))
}

// SetStatus transitions contest lifecycle state and stamps the matching
// timestamp: start_at on the first move to live, end_at when ended.
func (r *ContestRepository) SetStatus(ctx context.Context, id int64, status model.ContestStatus) (*model.Contest, error) {
	return scanContest(r.pool.QueryRow(ctx,
		`UPDATE contests SET
			status = $2,
			start_at = CASE WHEN $2 = 'live' THEN COALESCE(start_at, now()) ELSE start_at END,
			end_at = CASE WHEN $2 = 'ended' THEN now() ELSE end_at END,
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+contestColumns,
		id, string(status)))
}

// Delete removes a contest and everything hanging off it via FK cascades.
func (r *ContestRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
