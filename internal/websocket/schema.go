package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionViolation     Action = "violation"
	ActionHeartbeat     Action = "heartbeat"
	ActionCompleteLevel Action = "complete_level"
	ActionPing          Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ViolationRequest is sent by the client-side detector when it observes a
// proctoring violation.
type ViolationRequest struct {
	Action        Action `json:"action"`
	Level         int    `json:"level"`
	ViolationType string `json:"violation_type"`
	Description   string `json:"description,omitempty"`
}

// HeartbeatRequest keeps the participant's presence marker fresh.
type HeartbeatRequest struct {
	Action Action `json:"action"`
	Level  int    `json:"level"`
}

// CompleteLevelRequest is sent by the client when the participant finishes
// their current level.
type CompleteLevelRequest struct {
	Action Action `json:"action"`
	Level  int    `json:"level"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError Event = "error"
	EventAck   Event = "ack"
	EventPong  Event = "pong"
)

type AckResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
