package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codearena/codearena-backend/internal/config"
	"github.com/codearena/codearena-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// proctoringConfigTTL bounds how stale an enforcement config read may be.
const proctoringConfigTTL = 30 * time.Second

// ProctoringConfigCache is a short-TTL Redis cache for proctoring configs.
// Misses and Redis errors both fall through to the database.
type ProctoringConfigCache struct {
	rdb *redis.Client
}

// NewProctoringConfigCache creates a new ProctoringConfigCache.
func NewProctoringConfigCache(rdb *redis.Client) *ProctoringConfigCache {
	return &ProctoringConfigCache{rdb: rdb}
}

// GetConfig returns the cached config and whether it was present.
func (c *ProctoringConfigCache) GetConfig(ctx context.Context, contestID int64) (*model.ProctoringConfig, bool) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.ProctoringConfigKey(contestID)).Bytes()
	if err != nil {
		return nil, false
	}
	cfg := &model.ProctoringConfig{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, false
	}
	return cfg, true
}

// SetConfig caches the config for the TTL window.
func (c *ProctoringConfigCache) SetConfig(ctx context.Context, cfg *model.ProctoringConfig) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, config.CacheKey.ProctoringConfigKey(cfg.ContestID), raw, proctoringConfigTTL)
}

// Invalidate drops the cached config after a staff update.
func (c *ProctoringConfigCache) Invalidate(ctx context.Context, contestID int64) {
	c.rdb.Del(ctx, config.CacheKey.ProctoringConfigKey(contestID))
}
