package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/codearena/codearena-backend/internal/response"
	"github.com/codearena/codearena-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second
)

// MonitorHandler serves the staff proctoring dashboard, both the one-shot
// snapshot and the live SSE stream.
type MonitorHandler struct {
	monitor  *service.MonitorService
	contests *service.ContestService
	log      zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(monitor *service.MonitorService, contests *service.ContestService, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		monitor:  monitor,
		contests: contests,
		log:      log.With().Str("component", "monitor_handler").Logger(),
	}
}

// Dashboard godoc
// GET /api/v1/admin/contests/:contest_id/monitor
func (h *MonitorHandler) Dashboard(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	snapshot, err := h.monitor.GetDashboard(c.Request.Context(), contestID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, snapshot)
}

// Stream godoc
// GET /api/v1/admin/contests/:contest_id/monitor/stream
// Streams the dashboard over SSE: an initial snapshot, live contest events
// forwarded from Redis, and periodic full refreshes.
func (h *MonitorHandler) Stream(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	if _, err := h.contests.Get(c.Request.Context(), contestID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

	h.sendSnapshot(c, reqCtx, contestID, "snapshot")

	events, closeSub := h.monitor.Subscribe(reqCtx, contestID)
	defer closeSub()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()

	h.log.Info().Int64("contest_id", contestID).Msg("Staff attached to live monitor SSE")

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Int64("contest_id", contestID).Msg("Staff disconnected from live monitor SSE")
			return

		case msg := <-events:
			// Forward raw JSON directly, no deserialization needed
			c.Writer.Write([]byte("data: "))
			c.Writer.Write([]byte(msg.Payload))
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()

		case <-refreshTicker.C:
			h.sendSnapshot(c, reqCtx, contestID, "refresh")

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

// sendSnapshot fetches the dashboard with a scoped timeout so a slow query
// cannot stall the SSE loop.
func (h *MonitorHandler) sendSnapshot(c *gin.Context, parentCtx context.Context, contestID int64, kind string) {
	ctx, cancel := context.WithTimeout(parentCtx, refreshTimeout)
	defer cancel()

	snapshot, err := h.monitor.GetDashboard(ctx, contestID)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to fetch dashboard for SSE refresh")
		return
	}

	c.SSEvent("message", map[string]interface{}{
		"type": kind,
		"data": snapshot,
	})
	c.Writer.Flush()
}
