// Package notifier is the single side-channel through which state-changing
// operations announce domain events. Delivery is fire-and-forget: the core
// never blocks on, or fails because of, a slow dashboard.
package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codearena/codearena-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Event names published by the core.
const (
	EventLevelActivated   = "level:activated"
	EventLevelPaused      = "level:paused"
	EventLevelCompleted   = "level:completed"
	EventContestStarted   = "contest:started"
	EventContestPaused    = "contest:paused"
	EventContestEnded     = "contest:ended"
	EventContestUpdated   = "contest:updated"
	EventContestCountdown = "contest:countdown"
	EventStartedLevel     = "participant:started_level"
	EventLevelComplete    = "participant:level_complete"
	EventViolation        = "proctoring:violation"
	EventDisqualified     = "proctoring:disqualified"
)

// Notifier fans domain events out to live dashboards. Implementations must
// be best-effort and non-blocking from the caller's perspective.
type Notifier interface {
	Publish(ctx context.Context, contestID int64, event string, payload any)
}

// envelope is the JSON wire format pushed to subscribers.
type envelope struct {
	Event string    `json:"event"`
	Data  any       `json:"data"`
	At    time.Time `json:"at"`
}

// RedisNotifier publishes events to the contest's Redis PubSub channel,
// where the SSE monitor and dashboard subscribers pick them up.
type RedisNotifier struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisNotifier creates a Redis-backed Notifier.
func NewRedisNotifier(rdb *redis.Client, log zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{
		rdb: rdb,
		log: log.With().Str("component", "notifier").Logger(),
	}
}

// Publish serializes the event and pushes it to the contest channel.
// Failures are logged and swallowed: no delivery guarantee is promised.
func (n *RedisNotifier) Publish(ctx context.Context, contestID int64, event string, payload any) {
	body, err := json.Marshal(envelope{Event: event, Data: payload, At: time.Now().UTC()})
	if err != nil {
		n.log.Error().Err(err).Str("event", event).Msg("Event marshal failed")
		return
	}

	channel := config.CacheKey.ContestEventsChannel(contestID)
	if err := n.rdb.Publish(ctx, channel, body).Err(); err != nil {
		n.log.Warn().Err(err).Str("event", event).Int64("contest_id", contestID).Msg("Event publish failed")
	}
}

// Nop is a Notifier that discards everything. Used in tests and tooling.
type Nop struct{}

func (Nop) Publish(context.Context, int64, string, any) {}
