package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codearena/codearena-backend/internal/config"
	"github.com/codearena/codearena-backend/internal/model"
	"github.com/codearena/codearena-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ViolationWorker drains the violation ingestion queue. WebSocket and HTTP
// reporters only enqueue; this worker runs the full enforcement pipeline so
// a burst of violations never blocks the sockets.
type ViolationWorker struct {
	violations *service.ViolationService
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewViolationWorker creates a new ViolationWorker.
func NewViolationWorker(violations *service.ViolationService, rdb *redis.Client, log zerolog.Logger) *ViolationWorker {
	return &ViolationWorker{
		violations: violations,
		rdb:        rdb,
		log:        log.With().Str("component", "violation_worker").Logger(),
	}
}

// ViolationJob is the queue payload for one detector event.
type ViolationJob struct {
	ParticipantID int    `json:"participant_id"`
	ContestID     int64  `json:"contest_id"`
	Level         int    `json:"level"`
	ViolationType string `json:"violation_type"`
	Description   string `json:"description,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

// Enqueue pushes one job onto the ingestion queue.
func Enqueue(ctx context.Context, rdb *redis.Client, job *ViolationJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.RPush(ctx, config.WorkerKey.ViolationQueue, data).Err()
}

func (w *ViolationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ViolationWorker started")

	buffer := make([]*ViolationJob, 0, BatchSize)
	lastFlush := time.Now()

	for {
		// 1. Check flush conditions (time or size)
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlush) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlush = time.Now()
			}
		}

		// 2. Check context (graceful shutdown)
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. Fetch from Redis. BLPop blocks for 1 second, returns
		// immediately if data exists.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.ViolationQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // Queue empty, loop back to check flush timer
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var job ViolationJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &job)
	}
}

// flushSafe runs each job through the enforcement pipeline in arrival order.
// Ordering matters: the quota check reads the counts the previous events
// wrote. Jobs that fail on persistence are requeued.
func (w *ViolationWorker) flushSafe(ctx context.Context, batch []*ViolationJob) {
	requeueList := make([]*ViolationJob, 0)

	for _, job := range batch {
		req := &model.ReportViolationRequest{
			ContestID:     job.ContestID,
			Level:         job.Level,
			ViolationType: job.ViolationType,
			Description:   job.Description,
			Category:      model.NormalizeCategory(job.ViolationType),
		}
		if _, err := w.violations.RecordViolation(ctx, job.ParticipantID, req); err != nil {
			w.log.Error().Err(err).Int("participant_id", job.ParticipantID).Msg("Violation processing failed, requeueing")
			requeueList = append(requeueList, job)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ViolationWorker) requeue(ctx context.Context, items []*ViolationJob) {
	pipe := w.rdb.Pipeline()
	for _, job := range items {
		data, _ := json.Marshal(job)
		pipe.RPush(ctx, config.WorkerKey.ViolationQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
	} else {
		w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
		// Sleep a bit to avoid thrashing if the DB is down hard
		time.Sleep(2 * time.Second)
	}
}

func (w *ViolationWorker) shutdown(buffer []*ViolationJob) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
