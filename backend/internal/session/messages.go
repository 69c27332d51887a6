package session

import (
	"github.com/CrossDebate/app/backend/internal/hotapi"
	"github.com/CrossDebate/app/backend/internal/scene"
	"github.com/CrossDebate/app/backend/internal/selection"
)

// Message kinds pushed to clients. The latest message of each kind is what
// a newly connected client needs to reconstruct the view.
const (
	MsgScene     = "scene"
	MsgPositions = "positions"
	MsgSelection = "selection"
	MsgParams    = "params"
	MsgNotice    = "notice"
	MsgMetrics   = "metrics"
	MsgInsights  = "insights"
)

// Message is the envelope for every push to the client.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Emitter delivers messages to whoever is watching the session. The session
// calls it from its own goroutine and expects it to never block.
type Emitter interface {
	Emit(msg Message)
}

// PositionsPayload carries one animation frame.
type PositionsPayload struct {
	Alpha float64              `json:"alpha"`
	Nodes []scene.NodePosition `json:"nodes"`
}

// SelectionPayload mirrors the selection state and the control panel
// derived from it. Highlighted lists the link keys belonging to the
// selected hyperedge.
type SelectionPayload struct {
	Mode        string             `json:"mode"`
	ID          string             `json:"id,omitempty"`
	Highlighted []string           `json:"highlighted"`
	Controls    selection.Controls `json:"controls"`
	Busy        bool               `json:"busy"`
}

// NoticePayload is a transient user-facing notification.
type NoticePayload struct {
	ID    string `json:"id"`
	Level string `json:"level"`
	Text  string `json:"text"`
}

// MetricsPayload updates the metrics panel. When OK is false the panel
// shows the placeholder text instead of numbers.
type MetricsPayload struct {
	OK      bool            `json:"ok"`
	Metrics *hotapi.Metrics `json:"metrics,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// InsightsPayload updates the insights panel.
type InsightsPayload struct {
	OK       bool     `json:"ok"`
	Insights []string `json:"insights,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// ParamsPayload reflects the live layout parameters back to the controls.
type ParamsPayload struct {
	ChargeStrength float64 `json:"charge_strength"`
	LinkDistance   float64 `json:"link_distance"`
}
