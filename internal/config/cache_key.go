package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ParticipantSessionKey returns the cache key for a participant's login session.
func (r *CacheKeyStruct) ParticipantSessionKey(participantID int) string {
	return fmt.Sprintf("login:%d", participantID)
}

// ProctoringConfigKey returns the cache key for a contest's proctoring config.
func (r *CacheKeyStruct) ProctoringConfigKey(contestID int64) string {
	return fmt.Sprintf("contest:%d:proctoring_config", contestID)
}

// ContestCountdownKey returns the cache key for a contest's countdown state.
func (r *CacheKeyStruct) ContestCountdownKey(contestID int64) string {
	return fmt.Sprintf("contest:%d:countdown", contestID)
}

// ContestEventsChannel returns the Redis PubSub channel for a contest's live events.
func (r *CacheKeyStruct) ContestEventsChannel(contestID int64) string {
	return fmt.Sprintf("contest:%d:events", contestID)
}

// ParticipantHeartbeatKey returns the cache key marking a participant as online.
func (r *CacheKeyStruct) ParticipantHeartbeatKey(contestID int64, participantID int) string {
	return fmt.Sprintf("contest:%d:participant:%d:heartbeat", contestID, participantID)
}

var CacheKey = NewCacheKeyStruct()
