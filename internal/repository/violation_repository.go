package repository

import (
	"context"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ViolationRepository handles the immutable violation event log.
type ViolationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository creates a new ViolationRepository.
func NewViolationRepository(pool *pgxpool.Pool) *ViolationRepository {
	return &ViolationRepository{pool: pool}
}

const violationColumns = `id, participant_id, contest_id, level, category,
	penalty, severity, description, created_at`

func scanViolation(row pgx.Row) (*model.ViolationRecord, error) {
	v := &model.ViolationRecord{}
	err := row.Scan(&v.ID, &v.ParticipantID, &v.ContestID, &v.Level,
		&v.Category, &v.Penalty, &v.Severity, &v.Description, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Append writes one violation record and fills in the generated id and
// timestamp. Records are never updated or deleted afterwards.
func (r *ViolationRepository) Append(ctx context.Context, v *model.ViolationRecord) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO violations
			(id, participant_id, contest_id, level, category, penalty, severity, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		v.ID, v.ParticipantID, v.ContestID, v.Level, v.Category,
		v.Penalty, v.Severity, v.Description,
	).Scan(&v.CreatedAt)
}

// CountForLevel returns how many violations a participant has accrued at a
// single level. Disqualification quotas are judged per level, not globally.
func (r *ViolationRepository) CountForLevel(ctx context.Context, participantID int, contestID int64, level int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM violations
		 WHERE participant_id = $1 AND contest_id = $2 AND level = $3`,
		participantID, contestID, level).Scan(&count)
	return count, err
}

// ListForParticipant returns a participant's violations in a contest, newest
// first, capped at limit.
func (r *ViolationRepository) ListForParticipant(ctx context.Context, participantID int, contestID int64, limit int) ([]model.ViolationRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+violationColumns+`
		 FROM violations
		 WHERE participant_id = $1 AND contest_id = $2
		 ORDER BY created_at DESC
		 LIMIT $3`,
		participantID, contestID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.ViolationRecord
	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *v)
	}
	return records, rows.Err()
}

// CountByContest returns the total number of violations across a contest.
func (r *ViolationRepository) CountByContest(ctx context.Context, contestID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM violations WHERE contest_id = $1`,
		contestID).Scan(&count)
	return count, err
}
