package repository

import (
	"context"
	"errors"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProctoringRepository handles proctoring aggregate and config data access.
// Counter mutations are single conditional UPDATE statements so concurrent
// violation reports never lose updates, even across server processes.
type ProctoringRepository struct {
	pool *pgxpool.Pool
}

// NewProctoringRepository creates a new ProctoringRepository.
func NewProctoringRepository(pool *pgxpool.Pool) *ProctoringRepository {
	return &ProctoringRepository{pool: pool}
}

const aggregateColumns = `participant_id, contest_id, total_violations, violation_score,
	tab_switches, copy_attempts, screenshot_attempts, focus_losses, extra_violations,
	risk_level, is_disqualified, disqualification_reason, disqualified_at,
	last_violation_at, created_at, updated_at`

func scanAggregate(row pgx.Row) (*model.ProctoringAggregate, error) {
	a := &model.ProctoringAggregate{}
	err := row.Scan(
		&a.ParticipantID, &a.ContestID, &a.TotalViolations, &a.ViolationScore,
		&a.TabSwitches, &a.CopyAttempts, &a.ScreenshotAttempts, &a.FocusLosses,
		&a.ExtraViolations, &a.RiskLevel, &a.IsDisqualified, &a.DisqualificationReason,
		&a.DisqualifiedAt, &a.LastViolationAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// EnsureAggregate creates the aggregate row if it does not exist yet. Called
// on first violation and on first level entry so the participant shows up on
// dashboards before any violation occurs.
func (r *ProctoringRepository) EnsureAggregate(ctx context.Context, participantID int, contestID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO proctoring_aggregates (participant_id, contest_id)
		 VALUES ($1, $2)
		 ON CONFLICT (participant_id, contest_id) DO NOTHING`,
		participantID, contestID)
	return err
}

// GetAggregate retrieves the aggregate row for a participant in a contest.
func (r *ProctoringRepository) GetAggregate(ctx context.Context, participantID int, contestID int64) (*model.ProctoringAggregate, error) {
	return scanAggregate(r.pool.QueryRow(ctx,
		`SELECT `+aggregateColumns+`
		 FROM proctoring_aggregates
		 WHERE participant_id = $1 AND contest_id = $2`,
		participantID, contestID))
}

// ApplyViolation atomically bumps total, score, the matching category
// counter, and the risk level derived from the new total. One statement, so
// two concurrent reports are both counted.
func (r *ProctoringRepository) ApplyViolation(ctx context.Context, participantID int, contestID int64, category model.ViolationCategory, penalty int) (*model.ProctoringAggregate, error) {
	return scanAggregate(r.pool.QueryRow(ctx,
		`UPDATE proctoring_aggregates SET
			total_violations = total_violations + 1,
			violation_score = violation_score + $4,
			tab_switches = tab_switches + CASE WHEN $3 = 'TAB_SWITCH' THEN 1 ELSE 0 END,
			copy_attempts = copy_attempts + CASE WHEN $3 = 'COPY_ATTEMPT' THEN 1 ELSE 0 END,
			screenshot_attempts = screenshot_attempts + CASE WHEN $3 = 'SCREENSHOT_ATTEMPT' THEN 1 ELSE 0 END,
			focus_losses = focus_losses + CASE WHEN $3 = 'FOCUS_LOST' THEN 1 ELSE 0 END,
			risk_level = CASE WHEN is_disqualified THEN 'critical' ELSE
				CASE WHEN total_violations + 1 > 10 THEN 'critical'
				     WHEN total_violations + 1 > 5 THEN 'high'
				     WHEN total_violations + 1 > 2 THEN 'medium'
				     ELSE 'low' END
			END,
			last_violation_at = now(),
			updated_at = now()
		 WHERE participant_id = $1 AND contest_id = $2
		 RETURNING `+aggregateColumns,
		participantID, contestID, string(category), penalty))
}

// Disqualify conditionally sets the disqualification fields. Returns false
// without touching the row when the participant is already disqualified, so
// concurrent quota crossings trigger side effects exactly once.
func (r *ProctoringRepository) Disqualify(ctx context.Context, participantID int, contestID int64, reason string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE proctoring_aggregates SET
			is_disqualified = TRUE,
			disqualification_reason = $3,
			disqualified_at = now(),
			risk_level = 'critical',
			updated_at = now()
		 WHERE participant_id = $1 AND contest_id = $2 AND NOT is_disqualified`,
		participantID, contestID, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ForceDisqualify applies a staff disqualification unconditionally,
// overwriting any existing reason. An explicit human decision always wins.
func (r *ProctoringRepository) ForceDisqualify(ctx context.Context, participantID int, contestID int64, reason string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE proctoring_aggregates SET
			is_disqualified = TRUE,
			disqualification_reason = $3,
			disqualified_at = now(),
			risk_level = 'critical',
			updated_at = now()
		 WHERE participant_id = $1 AND contest_id = $2`,
		participantID, contestID, reason)
	return err
}

// GrantExtra raises the violation allowance and clears the disqualification
// fields. Risk stays high, not low: the participant remains flagged for
// continued observation. The violation log is untouched.
func (r *ProctoringRepository) GrantExtra(ctx context.Context, participantID int, contestID int64, amount int) (*model.ProctoringAggregate, error) {
	return scanAggregate(r.pool.QueryRow(ctx,
		`UPDATE proctoring_aggregates SET
			extra_violations = extra_violations + $3,
			is_disqualified = FALSE,
			disqualification_reason = NULL,
			disqualified_at = NULL,
			risk_level = 'high',
			updated_at = now()
		 WHERE participant_id = $1 AND contest_id = $2
		 RETURNING `+aggregateColumns,
		participantID, contestID, amount))
}

// ResetAggregate zeroes every counter and clears the disqualification
// fields, returning the participant to a clean slate.
func (r *ProctoringRepository) ResetAggregate(ctx context.Context, participantID int, contestID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE proctoring_aggregates SET
			total_violations = 0,
			violation_score = 0,
			tab_switches = 0,
			copy_attempts = 0,
			screenshot_attempts = 0,
			focus_losses = 0,
			extra_violations = 0,
			risk_level = 'low',
			is_disqualified = FALSE,
			disqualification_reason = NULL,
			disqualified_at = NULL,
			last_violation_at = NULL,
			updated_at = now()
		 WHERE participant_id = $1 AND contest_id = $2`,
		participantID, contestID)
	return err
}

// GetConfig retrieves the stored proctoring config for a contest.
// Returns pgx.ErrNoRows when the contest has no row; callers fall back to
// model.DefaultProctoringConfig.
func (r *ProctoringRepository) GetConfig(ctx context.Context, contestID int64) (*model.ProctoringConfig, error) {
	c := &model.ProctoringConfig{}
	err := r.pool.QueryRow(ctx,
		`SELECT contest_id, enabled, max_violations, auto_disqualify, warning_threshold,
		        grace_violations, tab_switch_penalty, copy_paste_penalty,
		        screenshot_penalty, focus_loss_penalty
		 FROM proctoring_configs
		 WHERE contest_id = $1`, contestID,
	).Scan(&c.ContestID, &c.Enabled, &c.MaxViolations, &c.AutoDisqualify,
		&c.WarningThreshold, &c.GraceViolations, &c.TabSwitchPenalty,
		&c.CopyPastePenalty, &c.ScreenshotPenalty, &c.FocusLossPenalty)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpsertConfig stores the full config row for a contest.
func (r *ProctoringRepository) UpsertConfig(ctx context.Context, c *model.ProctoringConfig) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO proctoring_configs
			(contest_id, enabled, max_violations, auto_disqualify, warning_threshold,
			 grace_violations, tab_switch_penalty, copy_paste_penalty,
			 screenshot_penalty, focus_loss_penalty)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (contest_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			max_violations = EXCLUDED.max_violations,
			auto_disqualify = EXCLUDED.auto_disqualify,
			warning_threshold = EXCLUDED.warning_threshold,
			grace_violations = EXCLUDED.grace_violations,
			tab_switch_penalty = EXCLUDED.tab_switch_penalty,
			copy_paste_penalty = EXCLUDED.copy_paste_penalty,
			screenshot_penalty = EXCLUDED.screenshot_penalty,
			focus_loss_penalty = EXCLUDED.focus_loss_penalty`,
		c.ContestID, c.Enabled, c.MaxViolations, c.AutoDisqualify, c.WarningThreshold,
		c.GraceViolations, c.TabSwitchPenalty, c.CopyPastePenalty,
		c.ScreenshotPenalty, c.FocusLossPenalty)
	return err
}

// IsDisqualified is a cheap lookup used at login time.
func (r *ProctoringRepository) IsDisqualified(ctx context.Context, participantID int) (bool, error) {
	var disqualified bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM proctoring_aggregates
			WHERE participant_id = $1 AND is_disqualified
		 )`, participantID,
	).Scan(&disqualified)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}
	return disqualified, nil
}
