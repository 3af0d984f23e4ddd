package repository

import (
	"context"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MonitorRepository serves the read-heavy staff dashboard queries.
type MonitorRepository struct {
	pool *pgxpool.Pool
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(pool *pgxpool.Pool) *MonitorRepository {
	return &MonitorRepository{pool: pool}
}

// ParticipantStatuses returns one dashboard row per tracked participant,
// riskiest first, ties broken by violation total.
func (r *MonitorRepository) ParticipantStatuses(ctx context.Context, contestID int64) ([]model.ParticipantStatus, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT pa.participant_id, p.username, p.full_name,
		        COALESCE(pls.level, 1), COALESCE(pls.status, 'NOT_STARTED'),
		        COALESCE(pls.questions_solved, 0), COALESCE(pls.level_score, 0),
		        pa.total_violations, pa.violation_score, pa.risk_level,
		        pa.is_disqualified, pa.last_violation_at
		 FROM proctoring_aggregates pa
		 JOIN participants p ON p.id = pa.participant_id
		 LEFT JOIN LATERAL (
			SELECT level, status, questions_solved, level_score
			FROM participant_level_states
			WHERE participant_id = pa.participant_id AND contest_id = pa.contest_id
			ORDER BY level DESC
			LIMIT 1
		 ) pls ON TRUE
		 WHERE pa.contest_id = $1
		 ORDER BY CASE pa.risk_level
				WHEN 'critical' THEN 5
				WHEN 'high' THEN 4
				WHEN 'medium' THEN 3
				ELSE 1 END DESC,
			pa.total_violations DESC,
			p.username ASC`,
		contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []model.ParticipantStatus
	for rows.Next() {
		var s model.ParticipantStatus
		err := rows.Scan(&s.ParticipantID, &s.Username, &s.FullName,
			&s.CurrentLevel, &s.LevelStatus, &s.QuestionsSolved, &s.LevelScore,
			&s.TotalViolations, &s.ViolationScore, &s.RiskLevel,
			&s.IsDisqualified, &s.LastViolationAt)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// ProctoringStats aggregates contest-wide proctoring counters.
func (r *MonitorRepository) ProctoringStats(ctx context.Context, contestID int64) (*model.ProctoringStats, error) {
	s := &model.ProctoringStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(total_violations), 0),
		        COUNT(*) FILTER (WHERE is_disqualified),
		        COUNT(*) FILTER (WHERE risk_level IN ('high', 'critical')),
		        COALESCE(SUM(tab_switches), 0),
		        COALESCE(SUM(copy_attempts), 0),
		        COALESCE(SUM(screenshot_attempts), 0),
		        COALESCE(SUM(focus_losses), 0)
		 FROM proctoring_aggregates
		 WHERE contest_id = $1`, contestID,
	).Scan(&s.TotalParticipants, &s.TotalViolations, &s.Disqualified,
		&s.HighRisk, &s.TabSwitches, &s.CopyAttempts,
		&s.ScreenshotAttempts, &s.FocusLosses)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ContestStats fills the staff contest summary. Active participants are
// those currently inside a level.
func (r *MonitorRepository) ContestStats(ctx context.Context, contestID int64) (*model.ContestStats, error) {
	s := &model.ContestStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(DISTINCT participant_id)
		         FROM participant_level_states WHERE contest_id = $1),
		        (SELECT COUNT(DISTINCT participant_id)
		         FROM participant_level_states
		         WHERE contest_id = $1 AND status = 'IN_PROGRESS'),
		        (SELECT COUNT(*) FROM violations WHERE contest_id = $1),
		        (SELECT COUNT(*) FROM submissions WHERE contest_id = $1 AND is_correct)`,
		contestID,
	).Scan(&s.TotalParticipants, &s.ActiveParticipants,
		&s.ViolationsDetected, &s.QuestionsSolved)
	if err != nil {
		return nil, err
	}
	return s, nil
}
