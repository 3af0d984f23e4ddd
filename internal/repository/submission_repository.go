package repository

import (
	"context"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubmissionRepository handles judged submission data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Create stores one judged verdict.
func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO submissions
			(participant_id, contest_id, round_id, question_id, level,
			 is_correct, score_awarded, test_results)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, submitted_at`,
		s.ParticipantID, s.ContestID, s.RoundID, s.QuestionID, s.Level,
		s.IsCorrect, s.ScoreAwarded, s.TestResults,
	).Scan(&s.ID, &s.SubmittedAt)
}

// HasCorrect reports whether the participant already solved the question.
// Used to reject duplicate scoring for the same question.
func (r *SubmissionRepository) HasCorrect(ctx context.Context, participantID int, questionID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM submissions
			WHERE participant_id = $1 AND question_id = $2 AND is_correct
		 )`, participantID, questionID).Scan(&exists)
	return exists, err
}

// SolvedQuestionIDs returns the IDs of questions the participant has solved
// in a contest.
func (r *SubmissionRepository) SolvedQuestionIDs(ctx context.Context, participantID int, contestID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT question_id FROM submissions
		 WHERE participant_id = $1 AND contest_id = $2 AND is_correct
		 ORDER BY question_id ASC`,
		participantID, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecalcLevelStats recomputes the solved count and score on the level row
// from that level's submissions. A single statement with subqueries keeps
// the recount correct under concurrent submissions.
func (r *SubmissionRepository) RecalcLevelStats(ctx context.Context, participantID int, contestID int64, level int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE participant_level_states pls SET
			questions_solved = (
				SELECT COUNT(DISTINCT s.question_id) FROM submissions s
				WHERE s.participant_id = pls.participant_id
				  AND s.contest_id = pls.contest_id
				  AND s.level = pls.level
				  AND s.is_correct
			),
			level_score = (
				SELECT COALESCE(SUM(s.score_awarded), 0) FROM submissions s
				WHERE s.participant_id = pls.participant_id
				  AND s.contest_id = pls.contest_id
				  AND s.level = pls.level
				  AND s.is_correct
			)
		 WHERE pls.participant_id = $1 AND pls.contest_id = $2 AND pls.level = $3`,
		participantID, contestID, level)
	return err
}

// DeleteForParticipant removes the participant's submissions in a contest.
// Only the progress-reset override calls this.
func (r *SubmissionRepository) DeleteForParticipant(ctx context.Context, participantID int, contestID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM submissions WHERE participant_id = $1 AND contest_id = $2`,
		participantID, contestID)
	return err
}

// CountCorrectByContest returns how many correct submissions a contest has
// accumulated.
func (r *SubmissionRepository) CountCorrectByContest(ctx context.Context, contestID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions WHERE contest_id = $1 AND is_correct`,
		contestID).Scan(&count)
	return count, err
}
