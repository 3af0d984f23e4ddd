package service

import (
	"context"
	"sync"
	"time"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/jackc/pgx/v5"
)

// In-memory fakes mirroring the repository semantics, safe for concurrent
// use so the ingestion tests can hammer them from many goroutines.

type aggKey struct {
	pid int
	cid int64
}

type fakeProctoringStore struct {
	mu         sync.Mutex
	aggregates map[aggKey]*model.ProctoringAggregate
	configs    map[int64]*model.ProctoringConfig
}

func newFakeProctoringStore() *fakeProctoringStore {
	return &fakeProctoringStore{
		aggregates: make(map[aggKey]*model.ProctoringAggregate),
		configs:    make(map[int64]*model.ProctoringConfig),
	}
}

func (f *fakeProctoringStore) EnsureAggregate(_ context.Context, pid int, cid int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aggKey{pid, cid}
	if _, ok := f.aggregates[key]; !ok {
		f.aggregates[key] = &model.ProctoringAggregate{
			ParticipantID: pid,
			ContestID:     cid,
			RiskLevel:     model.RiskLow,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}
	}
	return nil
}

func (f *fakeProctoringStore) GetAggregate(_ context.Context, pid int, cid int64) (*model.ProctoringAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	agg, ok := f.aggregates[aggKey{pid, cid}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *agg
	return &copied, nil
}

func (f *fakeProctoringStore) ApplyViolation(_ context.Context, pid int, cid int64, category model.ViolationCategory, penalty int) (*model.ProctoringAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	agg, ok := f.aggregates[aggKey{pid, cid}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	agg.TotalViolations++
	agg.ViolationScore += penalty
	switch category {
	case model.CategoryTabSwitch:
		agg.TabSwitches++
	case model.CategoryCopy:
		agg.CopyAttempts++
	case model.CategoryScreenshot:
		agg.ScreenshotAttempts++
	case model.CategoryFocusLoss:
		agg.FocusLosses++
	}
	if agg.IsDisqualified {
		agg.RiskLevel = model.RiskCritical
	} else {
		agg.RiskLevel = model.RiskForTotal(agg.TotalViolations)
	}
	now := time.Now()
	agg.LastViolationAt = &now
	agg.UpdatedAt = now
	copied := *agg
	return &copied, nil
}

func (f *fakeProctoringStore) Disqualify(_ context.Context, pid int, cid int64, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	agg, ok := f.aggregates[aggKey{pid, cid}]
	if !ok || agg.IsDisqualified {
		return false, nil
	}
	now := time.Now()
	agg.IsDisqualified = true
	agg.DisqualificationReason = &reason
	agg.DisqualifiedAt = &now
	agg.RiskLevel = model.RiskCritical
	return true, nil
}

func (f *fakeProctoringStore) ForceDisqualify(_ context.Context, pid int, cid int64, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	agg, ok := f.aggregates[aggKey{pid, cid}]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	agg.IsDisqualified = true
	agg.DisqualificationReason = &reason
	agg.DisqualifiedAt = &now
	agg.RiskLevel = model.RiskCritical
	return nil
}

func (f *fakeProctoringStore) GrantExtra(_ context.Context, pid int, cid int64, amount int) (*model.ProctoringAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	agg, ok := f.aggregates[aggKey{pid, cid}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	agg.ExtraViolations += amount
	agg.IsDisqualified = false
	agg.DisqualificationReason = nil
	agg.DisqualifiedAt = nil
	agg.RiskLevel = model.RiskHigh
	copied := *agg
	return &copied, nil
}

func (f *fakeProctoringStore) ResetAggregate(_ context.Context, pid int, cid int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	agg, ok := f.aggregates[aggKey{pid, cid}]
	if !ok {
		return nil
	}
	*agg = model.ProctoringAggregate{
		ParticipantID: pid,
		ContestID:     cid,
		RiskLevel:     model.RiskLow,
		CreatedAt:     agg.CreatedAt,
		UpdatedAt:     time.Now(),
	}
	return nil
}

func (f *fakeProctoringStore) GetConfig(_ context.Context, cid int64) (*model.ProctoringConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.configs[cid]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *cfg
	return &copied, nil
}

func (f *fakeProctoringStore) UpsertConfig(_ context.Context, c *model.ProctoringConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *c
	f.configs[c.ContestID] = &copied
	return nil
}

type fakeViolationLog struct {
	mu      sync.Mutex
	records []model.ViolationRecord
}

func (f *fakeViolationLog) Append(_ context.Context, v *model.ViolationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.CreatedAt = time.Now()
	f.records = append(f.records, *v)
	return nil
}

func (f *fakeViolationLog) CountForLevel(_ context.Context, pid int, cid int64, level int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.records {
		if r.ParticipantID == pid && r.ContestID == cid && r.Level == level {
			count++
		}
	}
	return count, nil
}

func (f *fakeViolationLog) ListForParticipant(_ context.Context, pid int, cid int64, limit int) ([]model.ViolationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ViolationRecord
	for i := len(f.records) - 1; i >= 0 && len(out) < limit; i-- {
		r := f.records[i]
		if r.ParticipantID == pid && r.ContestID == cid {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeViolationLog) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *fakeViolationLog) last() model.ViolationRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[len(f.records)-1]
}

type stateKey struct {
	pid   int
	cid   int64
	level int
}

type fakeLevelStateStore struct {
	mu     sync.Mutex
	states map[stateKey]*model.ParticipantLevelState
}

func newFakeLevelStateStore() *fakeLevelStateStore {
	return &fakeLevelStateStore{states: make(map[stateKey]*model.ParticipantLevelState)}
}

func (f *fakeLevelStateStore) Get(_ context.Context, pid int, cid int64, level int) (*model.ParticipantLevelState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[stateKey{pid, cid, level}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (f *fakeLevelStateStore) GetLatest(_ context.Context, pid int, cid int64) (*model.ParticipantLevelState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.ParticipantLevelState
	for key, s := range f.states {
		if key.pid != pid || key.cid != cid {
			continue
		}
		if latest == nil || s.Level > latest.Level {
			latest = s
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeLevelStateStore) ListForParticipant(_ context.Context, pid int, cid int64) ([]model.ParticipantLevelState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ParticipantLevelState
	for key, s := range f.states {
		if key.pid == pid && key.cid == cid {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeLevelStateStore) EnsureRow(_ context.Context, pid int, cid int64, level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := stateKey{pid, cid, level}
	if _, ok := f.states[key]; !ok {
		f.states[key] = &model.ParticipantLevelState{
			ParticipantID: pid,
			ContestID:     cid,
			Level:         level,
			Status:        model.LevelStatusNotStarted,
		}
	}
	return nil
}

func (f *fakeLevelStateStore) Start(_ context.Context, pid int, cid int64, level int) (*model.ParticipantLevelState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[stateKey{pid, cid, level}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if s.Status == model.LevelStatusNotStarted || s.Status == model.LevelStatusPaused {
		s.Status = model.LevelStatusInProgress
	}
	if s.StartTime == nil {
		now := time.Now()
		s.StartTime = &now
	}
	copied := *s
	return &copied, nil
}

func (f *fakeLevelStateStore) Complete(_ context.Context, pid int, cid int64, level int) (*model.ParticipantLevelState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[stateKey{pid, cid, level}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	s.Status = model.LevelStatusCompleted
	if s.CompletedAt == nil {
		now := time.Now()
		s.CompletedAt = &now
	}
	copied := *s
	return &copied, nil
}

func (f *fakeLevelStateStore) SetStatus(_ context.Context, cid int64, level int, from, to model.LevelStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, s := range f.states {
		if key.cid == cid && key.level == level && s.Status == from {
			s.Status = to
		}
	}
	return nil
}

func (f *fakeLevelStateStore) IncrementViolationCount(_ context.Context, pid int, cid int64, level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.states[stateKey{pid, cid, level}]; ok {
		s.ViolationCount++
	}
	return nil
}

func (f *fakeLevelStateStore) DeleteForParticipant(_ context.Context, pid int, cid int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.states {
		if key.pid == pid && key.cid == cid {
			delete(f.states, key)
		}
	}
	return nil
}

type shortlistKey struct {
	cid   int64
	level int
}

type fakeShortlistStore struct {
	mu      sync.Mutex
	entries map[shortlistKey]map[int]bool
}

func newFakeShortlistStore() *fakeShortlistStore {
	return &fakeShortlistStore{entries: make(map[shortlistKey]map[int]bool)}
}

func (f *fakeShortlistStore) CountForLevel(_ context.Context, cid int64, level int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries[shortlistKey{cid, level}]), nil
}

func (f *fakeShortlistStore) IsAllowed(_ context.Context, pid int, cid int64, level int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[shortlistKey{cid, level}][pid], nil
}

func (f *fakeShortlistStore) Replace(_ context.Context, cid int64, level int, pids []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := shortlistKey{cid, level}
	existing := f.entries[key]
	if existing == nil {
		existing = make(map[int]bool)
		f.entries[key] = existing
	}
	for pid := range existing {
		existing[pid] = false
	}
	for _, pid := range pids {
		existing[pid] = true
	}
	return nil
}

func (f *fakeShortlistStore) ListAllowed(_ context.Context, cid int64, level int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for pid, allowed := range f.entries[shortlistKey{cid, level}] {
		if allowed {
			out = append(out, pid)
		}
	}
	return out, nil
}

type roundKey struct {
	cid    int64
	number int
}

type fakeRoundStore struct {
	mu     sync.Mutex
	nextID int64
	rounds map[roundKey]*model.Round
}

func newFakeRoundStore() *fakeRoundStore {
	return &fakeRoundStore{rounds: make(map[roundKey]*model.Round)}
}

func (f *fakeRoundStore) seed(cid int64, number int, status model.RoundStatus) *model.Round {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r := &model.Round{
		ID:        f.nextID,
		ContestID: cid,
		Number:    number,
		Status:    status,
		CreatedAt: time.Now(),
	}
	f.rounds[roundKey{cid, number}] = r
	return r
}

func (f *fakeRoundStore) GetByNumber(_ context.Context, cid int64, number int) (*model.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rounds[roundKey{cid, number}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRoundStore) GetActive(_ context.Context, cid int64) (*model.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rounds {
		if r.ContestID == cid && r.Status == model.RoundStatusActive {
			copied := *r
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRoundStore) GetCurrent(_ context.Context, cid int64) (*model.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var current *model.Round
	for _, r := range f.rounds {
		if r.ContestID != cid {
			continue
		}
		if r.Status != model.RoundStatusActive && r.Status != model.RoundStatusPaused {
			continue
		}
		if current == nil || r.Number > current.Number {
			current = r
		}
	}
	if current == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *current
	return &copied, nil
}

func (f *fakeRoundStore) ListByContest(_ context.Context, cid int64) ([]model.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Round
	for _, r := range f.rounds {
		if r.ContestID == cid {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRoundStore) Activate(_ context.Context, cid int64, number int) (*model.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, r := range f.rounds {
		if key.cid == cid && r.Status == model.RoundStatusActive && key.number != number {
			r.Status = model.RoundStatusPending
		}
	}
	key := roundKey{cid, number}
	r, ok := f.rounds[key]
	if !ok {
		f.nextID++
		r = &model.Round{ID: f.nextID, ContestID: cid, Number: number, CreatedAt: time.Now()}
		f.rounds[key] = r
	}
	if r.Status != model.RoundStatusActive || r.StartTime == nil {
		now := time.Now()
		r.StartTime = &now
	}
	r.Status = model.RoundStatusActive
	copied := *r
	return &copied, nil
}

func (f *fakeRoundStore) SetStatus(_ context.Context, cid int64, number int, status model.RoundStatus) (*model.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rounds[roundKey{cid, number}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	r.Status = status
	copied := *r
	return &copied, nil
}

func (f *fakeRoundStore) CompleteActive(_ context.Context, cid int64) (*model.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rounds {
		if r.ContestID == cid && r.Status == model.RoundStatusActive {
			r.Status = model.RoundStatusCompleted
			copied := *r
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRoundStore) Update(_ context.Context, cid int64, number int, req *model.UpdateRoundRequest) (*model.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rounds[roundKey{cid, number}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if req.TimeLimitMinutes != nil {
		r.TimeLimitMinutes = *req.TimeLimitMinutes
	}
	if req.AllowedLanguage != "" {
		r.AllowedLanguage = req.AllowedLanguage
	}
	copied := *r
	return &copied, nil
}

type fakeContestStore struct {
	mu       sync.Mutex
	contests map[int64]*model.Contest
}

func newFakeContestStore(ids ...int64) *fakeContestStore {
	f := &fakeContestStore{contests: make(map[int64]*model.Contest)}
	for _, id := range ids {
		f.contests[id] = &model.Contest{ID: id, Status: model.ContestStatusLive}
	}
	return f
}

func (f *fakeContestStore) GetByID(_ context.Context, id int64) (*model.Contest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

type fakeCountdown struct {
	mu     sync.Mutex
	states map[int64]*model.CountdownState
}

func newFakeCountdown() *fakeCountdown {
	return &fakeCountdown{states: make(map[int64]*model.CountdownState)}
}

func (f *fakeCountdown) Start(_ context.Context, cid int64, minutes int) (*model.CountdownState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	end := time.Now().Add(time.Duration(minutes) * time.Minute)
	state := &model.CountdownState{Active: true, EndTime: &end, DurationMinutes: minutes}
	f.states[cid] = state
	return state, nil
}

func (f *fakeCountdown) Get(_ context.Context, cid int64) (*model.CountdownState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.states[cid]; ok {
		return s, nil
	}
	return &model.CountdownState{Active: false}, nil
}

func (f *fakeCountdown) Stop(_ context.Context, cid int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, cid)
	return nil
}

type fakeScoreStore struct {
	mu     sync.Mutex
	calls  []stateKey
	solved []int64
}

func (f *fakeScoreStore) RecalcLevelStats(_ context.Context, pid int, cid int64, level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, stateKey{pid, cid, level})
	return nil
}

func (f *fakeScoreStore) SolvedQuestionIDs(_ context.Context, _ int, _ int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.solved, nil
}

type fakeSubmissionPurger struct {
	mu      sync.Mutex
	deleted []aggKey
}

func (f *fakeSubmissionPurger) DeleteForParticipant(_ context.Context, pid int, cid int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aggKey{pid, cid})
	return nil
}

type publishedEvent struct {
	contestID int64
	event     string
	payload   any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (n *recordingNotifier) Publish(_ context.Context, contestID int64, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, publishedEvent{contestID, event, payload})
}

func (n *recordingNotifier) countOf(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, e := range n.events {
		if e.event == event {
			count++
		}
	}
	return count
}
