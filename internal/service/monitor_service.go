package service

import (
	"context"
	"sync"

	"github.com/codearena/codearena-backend/internal/config"
	"github.com/codearena/codearena-backend/internal/model"
	"github.com/codearena/codearena-backend/internal/repository"
	"github.com/redis/go-redis/v9"
)

// MonitorService serves the live proctoring dashboard.
type MonitorService struct {
	monitorRepo *repository.MonitorRepository
	rdb         *redis.Client
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(monitorRepo *repository.MonitorRepository, rdb *redis.Client) *MonitorService {
	return &MonitorService{monitorRepo: monitorRepo, rdb: rdb}
}

// DashboardSnapshot bundles the contest-wide summary with the per-participant
// rows, riskiest participants first.
type DashboardSnapshot struct {
	Stats        *model.ProctoringStats    `json:"stats"`
	Participants []model.ParticipantStatus `json:"participants"`
}

// GetDashboard fetches the summary and the participant rows concurrently.
// The rows are critical; a failed summary degrades to zeroes.
func (s *MonitorService) GetDashboard(ctx context.Context, contestID int64) (*DashboardSnapshot, error) {
	var (
		stats        *model.ProctoringStats
		participants []model.ParticipantStatus
		statsErr     error
		rowsErr      error
		wg           sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		stats, statsErr = s.monitorRepo.ProctoringStats(ctx, contestID)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		participants, rowsErr = s.monitorRepo.ParticipantStatuses(ctx, contestID)
	}()

	wg.Wait()

	if rowsErr != nil {
		return nil, rowsErr
	}
	snapshot := &DashboardSnapshot{Participants: participants}
	if statsErr == nil {
		snapshot.Stats = stats
	} else {
		snapshot.Stats = &model.ProctoringStats{}
	}
	return snapshot, nil
}

// Subscribe opens a Redis subscription on the contest's event channel. The
// returned channel delivers raw event payloads; close the subscription via
// the returned func when the client disconnects.
func (s *MonitorService) Subscribe(ctx context.Context, contestID int64) (<-chan *redis.Message, func() error) {
	sub := s.rdb.Subscribe(ctx, config.CacheKey.ContestEventsChannel(contestID))
	return sub.Channel(), sub.Close
}
