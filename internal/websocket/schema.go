package websocket

import (
	"encoding/json"

	"github.com/codearena/mcq-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionAutosave Action = "autosave"
	ActionBehavior Action = "behavior"
	ActionPing     Action = "ping"
)

// Request is the client frame. Fields beyond Action are read per-action.
type Request struct {
	Action Action `json:"action"`

	// answer
	QuestionID int64        `json:"question_id,omitempty"`
	Answer     model.Answer `json:"answer,omitempty"`

	// autosave
	Answers map[int64]model.Answer `json:"answers,omitempty"`

	// behavior
	Type    string          `json:"type,omitempty"`
	Payload json.RawMessage `json:"data,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventSaved   Event = "saved"
	EventWarning Event = "warning"
	EventTimeout Event = "timeout"
	EventPong    Event = "pong"
)

type SavedResponse struct {
	Event Event `json:"event"`
	Saved int   `json:"saved"`
}

type WarningResponse struct {
	Event        Event  `json:"event"`
	Warning      string `json:"warning,omitempty"`
	TabSwitches  int    `json:"tab_switches"`
	CopyAttempts int    `json:"copy_attempts"`
}

type TimeoutResponse struct {
	Event  Event               `json:"event"`
	Status model.SessionStatus `json:"status"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
