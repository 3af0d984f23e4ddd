package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/codearena/codearena-backend/internal/config"
	"github.com/codearena/codearena-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// CountdownStore keeps the contest-wide countdown in Redis so every server
// process and dashboard reads the same clock.
type CountdownStore struct {
	rdb *redis.Client
}

// NewCountdownStore creates a new CountdownStore.
func NewCountdownStore(rdb *redis.Client) *CountdownStore {
	return &CountdownStore{rdb: rdb}
}

// Start sets a countdown ending durationMinutes from now. The key expires a
// minute after the deadline so stale countdowns clean themselves up.
func (s *CountdownStore) Start(ctx context.Context, contestID int64, durationMinutes int) (*model.CountdownState, error) {
	end := time.Now().Add(time.Duration(durationMinutes) * time.Minute)
	state := &model.CountdownState{
		Active:          true,
		EndTime:         &end,
		DurationMinutes: durationMinutes,
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	ttl := time.Until(end) + time.Minute
	err = s.rdb.Set(ctx, config.CacheKey.ContestCountdownKey(contestID), payload, ttl).Err()
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Get returns the current countdown, or an inactive state when none is set
// or the deadline has passed.
func (s *CountdownStore) Get(ctx context.Context, contestID int64) (*model.CountdownState, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.ContestCountdownKey(contestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &model.CountdownState{Active: false}, nil
	}
	if err != nil {
		return nil, err
	}
	state := &model.CountdownState{}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, err
	}
	if state.EndTime != nil && time.Now().After(*state.EndTime) {
		state.Active = false
	}
	return state, nil
}

// Stop clears the countdown.
func (s *CountdownStore) Stop(ctx context.Context, contestID int64) error {
	return s.rdb.Del(ctx, config.CacheKey.ContestCountdownKey(contestID)).Err()
}
