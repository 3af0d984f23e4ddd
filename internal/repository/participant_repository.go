package repository

import (
	"context"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ParticipantRepository handles participant account data access.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository.
func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

const participantColumns = `id, username, full_name, password_hash, created_at`

func scanParticipant(row pgx.Row) (*model.Participant, error) {
	p := &model.Participant{}
	err := row.Scan(&p.ID, &p.Username, &p.FullName, &p.PasswordHash, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByUsername retrieves a participant for credential checks.
func (r *ParticipantRepository) GetByUsername(ctx context.Context, username string) (*model.Participant, error) {
	return scanParticipant(r.pool.QueryRow(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE username = $1`,
		username))
}

// GetByID retrieves a participant.
func (r *ParticipantRepository) GetByID(ctx context.Context, id int) (*model.Participant, error) {
	return scanParticipant(r.pool.QueryRow(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE id = $1`, id))
}

// List returns all participants ordered by username.
func (r *ParticipantRepository) List(ctx context.Context) ([]model.Participant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+participantColumns+` FROM participants ORDER BY username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

// Create inserts a participant account.
func (r *ParticipantRepository) Create(ctx context.Context, username, fullName, passwordHash string) (*model.Participant, error) {
	return scanParticipant(r.pool.QueryRow(ctx,
		`INSERT INTO participants (username, full_name, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING `+participantColumns,
		username, fullName, passwordHash))
}

// Delete removes a participant account.
func (r *ParticipantRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Count returns the number of registered participants.
func (r *ParticipantRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM participants`).Scan(&count)
	return count, err
}
