// Package hub fans session messages out to websocket clients and feeds
// client gestures back into the session loop.
package hub

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/CrossDebate/app/backend/internal/session"
	"github.com/CrossDebate/app/backend/pkg/logger"
	"github.com/CrossDebate/app/backend/pkg/metrics"
)

// EventSink receives decoded client events. The session implements it.
type EventSink interface {
	Enqueue(ev session.Event)
}

// replayOrder lists the message kinds a newly connected client receives to
// reconstruct the current view, in the order they must arrive. Notices are
// transient and never replayed.
var replayOrder = []string{
	session.MsgScene,
	session.MsgPositions,
	session.MsgParams,
	session.MsgSelection,
	session.MsgMetrics,
	session.MsgInsights,
}

type outbound struct {
	msgType string
	data    []byte
}

// Hub owns the client set. Register, unregister and broadcast all pass
// through its run loop, so the set is never touched concurrently.
type Hub struct {
	sink       EventSink
	collector  *metrics.Collector
	logger     *zap.Logger
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	latest     map[string][]byte
}

// New creates a hub. The collector may be nil.
func New(sink EventSink, collector *metrics.Collector) *Hub {
	return &Hub{
		sink:       sink,
		collector:  collector,
		logger:     logger.Named("hub"),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 256),
		latest:     make(map[string][]byte),
	}
}

// Emit implements session.Emitter. It never blocks the session loop; when
// the hub falls behind, the message is dropped and the next frame or state
// change catches clients up.
func (h *Hub) Emit(msg session.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- outbound{msgType: msg.Type, data: data}:
	default:
		h.logger.Warn("Dropping message, broadcast queue full", zap.String("type", msg.Type))
	}
}

// Run processes hub traffic until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.logger.Info("Hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			if h.collector != nil {
				h.collector.WSClients.Inc()
			}
			h.replayTo(client)
			h.logger.Info("Client connected", zap.String("client_id", client.id), zap.Int("clients", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				if h.collector != nil {
					h.collector.WSClients.Dec()
				}
				h.logger.Info("Client disconnected", zap.String("client_id", client.id), zap.Int("clients", len(h.clients)))
			}

		case msg := <-h.broadcast:
			h.latest[msg.msgType] = msg.data
			for client := range h.clients {
				select {
				case client.send <- msg.data:
				default:
					// A client that cannot keep up is dropped rather
					// than allowed to stall everyone else.
					delete(h.clients, client)
					close(client.send)
					if h.collector != nil {
						h.collector.WSClients.Dec()
					}
					h.logger.Warn("Dropping slow client", zap.String("client_id", client.id))
				}
			}
		}
	}
}

// replayTo sends the cached view state to a fresh client
func (h *Hub) replayTo(client *Client) {
	for _, msgType := range replayOrder {
		data, ok := h.latest[msgType]
		if !ok {
			continue
		}
		select {
		case client.send <- data:
		default:
			h.logger.Warn("Replay buffer full", zap.String("client_id", client.id))
			return
		}
	}
}
