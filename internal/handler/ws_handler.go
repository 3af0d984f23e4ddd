package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/codearena/codearena-backend/internal/config"
	"github.com/codearena/codearena-backend/internal/middleware"
	"github.com/codearena/codearena-backend/internal/service"
	ws "github.com/codearena/codearena-backend/internal/websocket"
	"github.com/codearena/codearena-backend/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// heartbeatTTL is how long a participant counts as online after their last
// heartbeat.
const heartbeatTTL = 90 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the participant contest stream: violation reports,
// heartbeats, and level completion over a single WebSocket.
type WSHandler struct {
	rdb         *redis.Client
	progression *service.ProgressionService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, progression *service.ProgressionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:         rdb,
		progression: progression,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// ContestStream godoc
// WS /ws/v1/contests/:contest_id/stream
// Upgrades to WebSocket for the proctored contest session.
func (h *WSHandler) ContestStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	participantID := claims.UserID

	wsLog := h.log.With().
		Int("participant_id", participantID).
		Int64("contest_id", contestID).
		Logger()

	wsLog.Info().Msg("Participant connected")

	// Presence marker so the dashboard can tell connected from dropped.
	h.touchHeartbeat(contestID, participantID)
	defer h.clearHeartbeat(contestID, participantID)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			ws.WriteError(conn, "malformed message")
			continue
		}

		switch envelope.Action {
		case ws.ActionViolation:
			h.handleViolation(conn, wsLog, raw, participantID, contestID)
		case ws.ActionHeartbeat:
			h.touchHeartbeat(contestID, participantID)
			ws.WriteTyped(conn, ws.AckResponse{Event: ws.EventAck, Status: "alive"})
		case ws.ActionCompleteLevel:
			h.handleCompleteLevel(conn, wsLog, raw, participantID, contestID)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(envelope.Action))
		}
	}
}

// handleViolation pushes the report onto the ingestion queue; the violation
// worker applies it in arrival order.
func (h *WSHandler) handleViolation(conn *websocket.Conn, wsLog zerolog.Logger, raw []byte, participantID int, contestID int64) {
	var req ws.ViolationRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.ViolationType == "" {
		ws.WriteError(conn, "violation_type is required")
		return
	}

	job := &worker.ViolationJob{
		ParticipantID: participantID,
		ContestID:     contestID,
		Level:         req.Level,
		ViolationType: req.ViolationType,
		Description:   req.Description,
		Timestamp:     time.Now().Unix(),
	}
	if err := worker.Enqueue(context.Background(), h.rdb, job); err != nil {
		wsLog.Error().Err(err).Msg("Failed to enqueue violation")
		ws.WriteError(conn, "report failed")
		return
	}

	ws.WriteTyped(conn, ws.AckResponse{Event: ws.EventAck, Status: "queued"})
}

// handleCompleteLevel closes out the participant's level and provisions the
// next one.
func (h *WSHandler) handleCompleteLevel(conn *websocket.Conn, wsLog zerolog.Logger, raw []byte, participantID int, contestID int64) {
	var req ws.CompleteLevelRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.Level < 1 {
		ws.WriteError(conn, "level is required")
		return
	}

	state, err := h.progression.CompleteLevel(context.Background(), participantID, contestID, req.Level)
	if err != nil {
		if err == service.ErrLevelNotActive {
			ws.WriteError(conn, "level not in progress")
			return
		}
		wsLog.Error().Err(err).Int("level", req.Level).Msg("Complete level failed")
		ws.WriteError(conn, "complete failed")
		return
	}

	wsLog.Info().Int("level", req.Level).Msg("Level completed over WS")
	ws.WriteTyped(conn, ws.AckResponse{Event: ws.EventAck, Status: string(state.Status)})
}

func (h *WSHandler) touchHeartbeat(contestID int64, participantID int) {
	key := config.CacheKey.ParticipantHeartbeatKey(contestID, participantID)
	if err := h.rdb.Set(context.Background(), key, time.Now().Unix(), heartbeatTTL).Err(); err != nil {
		h.log.Warn().Err(err).Msg("Heartbeat write failed")
	}
}

func (h *WSHandler) clearHeartbeat(contestID int64, participantID int) {
	key := config.CacheKey.ParticipantHeartbeatKey(contestID, participantID)
	h.rdb.Del(context.Background(), key)
}
