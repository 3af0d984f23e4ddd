package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codearena/codearena-backend/internal/config"
	"github.com/codearena/codearena-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	ScoreBatchSize    = 50
	ScoreBatchTimeout = 2 * time.Second
	ScorePollTimeout  = 1 * time.Second
)

// ScoringWorker drains the level-score recalculation queue. Recalcs are
// idempotent full recounts, so duplicate jobs for the same key collapse
// into one database statement.
type ScoringWorker struct {
	submissions *repository.SubmissionRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewScoringWorker creates a new ScoringWorker.
func NewScoringWorker(submissions *repository.SubmissionRepository, rdb *redis.Client, log zerolog.Logger) *ScoringWorker {
	return &ScoringWorker{
		submissions: submissions,
		rdb:         rdb,
		log:         log.With().Str("component", "scoring_worker").Logger(),
	}
}

// ScoreJob asks for one participant's level stats to be recounted.
type ScoreJob struct {
	ParticipantID int   `json:"participant_id"`
	ContestID     int64 `json:"contest_id"`
	Level         int   `json:"level"`
}

// EnqueueScore pushes a recalculation job onto the queue.
func EnqueueScore(ctx context.Context, rdb *redis.Client, job *ScoreJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.RPush(ctx, config.WorkerKey.LevelScoreQueue, data).Err()
}

func (w *ScoringWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ScoringWorker started")

	batch := make([]*ScoreJob, 0, ScoreBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ScoreBatchSize || time.Since(lastFlush) >= ScoreBatchTimeout) {

			w.flush(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flush(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ScorePollTimeout, config.WorkerKey.LevelScoreQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var job ScoreJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &job)
		}
	}
}

// flush deduplicates the batch by key and runs one recount per key.
func (w *ScoringWorker) flush(ctx context.Context, batch []*ScoreJob) {
	if len(batch) == 0 {
		return
	}

	type key struct {
		pid   int
		cid   int64
		level int
	}
	seen := make(map[key]bool, len(batch))
	for _, job := range batch {
		k := key{job.ParticipantID, job.ContestID, job.Level}
		if seen[k] {
			continue
		}
		seen[k] = true

		if err := w.submissions.RecalcLevelStats(ctx, job.ParticipantID, job.ContestID, job.Level); err != nil {
			w.log.Error().Err(err).
				Int("participant_id", job.ParticipantID).
				Int("level", job.Level).
				Msg("Level stats recalc failed")
		}
	}
	w.log.Debug().Int("jobs", len(batch)).Int("unique", len(seen)).Msg("Score batch flushed")
}
