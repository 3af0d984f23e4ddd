package repository

import (
	"context"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, round_id, number, title, description, expected_output,
	buggy_code, difficulty, points, test_cases, created_at`

func scanQuestion(row pgx.Row) (*model.Question, error) {
	q := &model.Question{}
	err := row.Scan(&q.ID, &q.RoundID, &q.Number, &q.Title, &q.Description,
		&q.ExpectedOutput, &q.BuggyCode, &q.Difficulty, &q.Points,
		&q.TestCases, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetByID retrieves a question.
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
}

// GetRoundRef resolves a question to its contest and level. Used to judge
// whether the question belongs to the currently active round.
func (r *QuestionRepository) GetRoundRef(ctx context.Context, questionID int64) (contestID int64, roundID int64, level int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT rd.contest_id, rd.id, rd.number
		 FROM questions q
		 JOIN rounds rd ON rd.id = q.round_id
		 WHERE q.id = $1`, questionID,
	).Scan(&contestID, &roundID, &level)
	return contestID, roundID, level, err
}

// ListForRound returns the questions of a contest level ordered by number.
func (r *QuestionRepository) ListForRound(ctx context.Context, contestID int64, level int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.round_id, q.number, q.title, q.description, q.expected_output,
		        q.buggy_code, q.difficulty, q.points, q.test_cases, q.created_at
		 FROM questions q
		 JOIN rounds rd ON rd.id = q.round_id
		 WHERE rd.contest_id = $1 AND rd.number = $2
		 ORDER BY q.number ASC`,
		contestID, level)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// TitleExists reports whether the round already holds a question with this
// title.
func (r *QuestionRepository) TitleExists(ctx context.Context, roundID int64, title string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM questions WHERE round_id = $1 AND title = $2)`,
		roundID, title).Scan(&exists)
	return exists, err
}

// Create inserts a question at the next free number within the round.
func (r *QuestionRepository) Create(ctx context.Context, roundID int64, req *model.CreateQuestionRequest) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`INSERT INTO questions
			(round_id, number, title, description, expected_output, buggy_code,
			 difficulty, points, test_cases)
		 SELECT $1, COALESCE(MAX(number), 0) + 1, $2, $3, $4, $5, $6, $7, $8
		 FROM questions WHERE round_id = $1
		 RETURNING `+questionColumns,
		roundID, req.Title, req.Description, req.ExpectedOutput, req.BuggyCode,
		req.Difficulty, req.Points, req.TestCases))
}

// Update applies partial question edits.
func (r *QuestionRepository) Update(ctx context.Context, id int64, req *model.UpdateQuestionRequest) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`UPDATE questions SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			expected_output = COALESCE($4, expected_output),
			buggy_code = COALESCE($5, buggy_code),
			difficulty = COALESCE($6, difficulty),
			test_cases = COALESCE($7, test_cases)
		 WHERE id = $1
		 RETURNING `+questionColumns,
		id, req.Title, req.Description, req.ExpectedOutput, req.BuggyCode,
		req.Difficulty, req.TestCases))
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
