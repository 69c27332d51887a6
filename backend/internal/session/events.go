package session

import (
	"encoding/json"
	"fmt"

	"github.com/CrossDebate/app/backend/internal/hypergraph"
	"github.com/CrossDebate/app/backend/internal/poller"
	"github.com/CrossDebate/app/backend/internal/selection"
	"github.com/CrossDebate/app/backend/internal/tuning"
)

// Event is a discrete input to the session: a UI gesture, an external
// trigger, or the completion of a background call. All events are handled
// one at a time by the session goroutine.
type Event interface {
	isEvent()
}

// NodeClicked selects a node
type NodeClicked struct {
	ID string
}

// LinkClicked selects the hyperedge owning the clicked pairwise link
type LinkClicked struct {
	Key string
}

// BackgroundClicked clears the selection
type BackgroundClicked struct{}

// DragStarted pins a node at the pointer position
type DragStarted struct {
	ID   string
	X, Y float64
}

// DragMoved moves an active pin
type DragMoved struct {
	ID   string
	X, Y float64
}

// DragEnded releases a pinned node
type DragEnded struct {
	ID string
}

// ChargeChanged applies a new global repulsion strength
type ChargeChanged struct {
	Strength float64
}

// AdjustSubmitted submits the control value for the active selection
type AdjustSubmitted struct {
	Value float64
}

// RefreshRequested re-fetches the hypergraph from the backend
type RefreshRequested struct{}

// SnapshotPushed delivers a fresh snapshot directly, bypassing the fetch.
// The chat subsystem calls the refresh entry point with the payload it
// already has after a model turn.
type SnapshotPushed struct {
	Raw *hypergraph.RawSnapshot
}

// TuningChanged applies new layout parameters from the tuning file
type TuningChanged struct {
	Params tuning.Params
}

// snapshotFetched completes a CurrentHypergraph call
type snapshotFetched struct {
	seq uint64
	raw *hypergraph.RawSnapshot
	err error
}

// adjustFinished completes a SubmitAdjustment call. The selection captured
// when the submission started rides along for the outcome handling.
type adjustFinished struct {
	state selection.State
	ack   *adjustAck
	err   error
}

type adjustAck struct {
	message  string
	newValue float64
}

// panelsFetched completes a metrics/insights poll
type panelsFetched struct {
	result poller.Result
}

func (NodeClicked) isEvent()       {}
func (LinkClicked) isEvent()       {}
func (BackgroundClicked) isEvent() {}
func (DragStarted) isEvent()       {}
func (DragMoved) isEvent()         {}
func (DragEnded) isEvent()         {}
func (ChargeChanged) isEvent()     {}
func (AdjustSubmitted) isEvent()   {}
func (RefreshRequested) isEvent()  {}
func (SnapshotPushed) isEvent()    {}
func (TuningChanged) isEvent()     {}
func (snapshotFetched) isEvent()   {}
func (adjustFinished) isEvent()    {}
func (panelsFetched) isEvent()     {}

// ParseEvent decodes one client message into an event. Element clicks and
// background clicks arrive as distinct types, so a click can never be both.
func ParseEvent(msgType string, data json.RawMessage) (Event, error) {
	switch msgType {
	case "node_click":
		var p struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return NodeClicked{ID: p.ID}, nil
	case "link_click":
		var p struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return LinkClicked{Key: p.Key}, nil
	case "background_click":
		return BackgroundClicked{}, nil
	case "drag_start":
		var p struct {
			ID string  `json:"id"`
			X  float64 `json:"x"`
			Y  float64 `json:"y"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return DragStarted{ID: p.ID, X: p.X, Y: p.Y}, nil
	case "drag_move":
		var p struct {
			ID string  `json:"id"`
			X  float64 `json:"x"`
			Y  float64 `json:"y"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return DragMoved{ID: p.ID, X: p.X, Y: p.Y}, nil
	case "drag_end":
		var p struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return DragEnded{ID: p.ID}, nil
	case "charge":
		var p struct {
			Strength float64 `json:"strength"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return ChargeChanged{Strength: p.Strength}, nil
	case "adjust":
		var p struct {
			Value float64 `json:"value"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return AdjustSubmitted{Value: p.Value}, nil
	case "refresh":
		return RefreshRequested{}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", msgType)
	}
}
