// Package session runs the interaction loop of the viewer. One goroutine
// owns the hypergraph snapshot, the layout engine, the scene and the
// selection; every input arrives as an event and every output leaves
// through the emitter, so no rendering state is ever touched concurrently.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CrossDebate/app/backend/internal/hotapi"
	"github.com/CrossDebate/app/backend/internal/hypergraph"
	"github.com/CrossDebate/app/backend/internal/layout"
	"github.com/CrossDebate/app/backend/internal/poller"
	"github.com/CrossDebate/app/backend/internal/scene"
	"github.com/CrossDebate/app/backend/internal/selection"
	"github.com/CrossDebate/app/backend/internal/tuning"
	apperrors "github.com/CrossDebate/app/backend/pkg/errors"
	"github.com/CrossDebate/app/backend/pkg/logger"
	"github.com/CrossDebate/app/backend/pkg/metrics"
)

// Notice severity levels
const (
	noticeInfo    = "info"
	noticeSuccess = "success"
	noticeWarning = "warning"
	noticeError   = "error"
)

// Backend is the slice of the HOT API the session depends on.
type Backend interface {
	CurrentHypergraph(ctx context.Context) (*hypergraph.RawSnapshot, error)
	Metrics(ctx context.Context) (*hotapi.Metrics, error)
	Insights(ctx context.Context) ([]string, error)
	SubmitAdjustment(ctx context.Context, adj hotapi.Adjustment) (*hotapi.AdjustResult, error)
}

// Config carries the session's tunables.
type Config struct {
	FrameInterval    time.Duration
	DefaultRelevance float64
	DefaultWeight    float64
	Layout           layout.Config
}

// Session drives the view. All fields below mu are owned by the loop
// goroutine; mu only guards the published copies read by HTTP handlers.
type Session struct {
	backend   Backend
	emitter   Emitter
	collector *metrics.Collector
	logger    *zap.Logger
	events    chan Event
	ctx       context.Context

	norm   *hypergraph.Normalizer
	engine *layout.Engine
	scene  *scene.Scene
	sel    *selection.Controller
	poll   *poller.Poller

	snap          *hypergraph.Snapshot
	links         []hypergraph.Link
	adjustBusy    bool
	refreshSeq    uint64
	frameInterval time.Duration

	mu         sync.RWMutex
	lastFrame  scene.Frame
	lastParams ParamsPayload
}

// New creates a session. The collector may be nil.
func New(cfg Config, backend Backend, emitter Emitter, collector *metrics.Collector) *Session {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 33 * time.Millisecond
	}
	if cfg.Layout == (layout.Config{}) {
		cfg.Layout = layout.DefaultConfig()
	}
	return &Session{
		backend:       backend,
		emitter:       emitter,
		collector:     collector,
		logger:        logger.Named("session"),
		events:        make(chan Event, 256),
		ctx:           context.Background(),
		norm:          hypergraph.NewNormalizer(cfg.DefaultRelevance, cfg.DefaultWeight),
		engine:        layout.New(cfg.Layout),
		scene:         scene.New(),
		sel:           selection.NewController(),
		poll:          poller.New(backend),
		frameInterval: cfg.FrameInterval,
	}
}

// Enqueue hands an event to the loop. It blocks when the queue is full,
// which applies backpressure to a flooding client.
func (s *Session) Enqueue(ev Event) {
	s.events <- ev
}

// Run processes events and animation frames until ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	s.ctx = ctx
	s.logger.Info("Session loop started", zap.Duration("frame_interval", s.frameInterval))

	ticker := time.NewTicker(s.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Session loop stopped")
			return
		case ev := <-s.events:
			s.dispatch(ev)
		case <-ticker.C:
			s.stepFrame()
		}
	}
}

// CurrentFrame returns the latest published scene and layout parameters.
// Safe to call from any goroutine.
func (s *Session) CurrentFrame() (scene.Frame, ParamsPayload) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFrame, s.lastParams
}

func (s *Session) dispatch(ev Event) {
	defer s.recoverBoundary()

	switch ev := ev.(type) {
	case RefreshRequested:
		s.startRefresh()
	case SnapshotPushed:
		// A pushed snapshot supersedes any fetch still in flight.
		s.refreshSeq++
		s.applySnapshot(ev.Raw)
	case snapshotFetched:
		s.finishRefresh(ev)
	case NodeClicked:
		s.selectNode(ev.ID)
	case LinkClicked:
		s.selectLink(ev.Key)
	case BackgroundClicked:
		s.clearSelection()
	case DragStarted:
		s.engine.Pin(ev.ID, ev.X, ev.Y)
	case DragMoved:
		s.engine.Drag(ev.ID, ev.X, ev.Y)
	case DragEnded:
		s.engine.Release(ev.ID)
	case ChargeChanged:
		s.setCharge(ev.Strength)
	case TuningChanged:
		s.applyTuning(ev.Params)
	case AdjustSubmitted:
		s.startAdjust(ev.Value)
	case adjustFinished:
		s.finishAdjust(ev)
	case panelsFetched:
		s.publishPanels(ev.result)
	}
}

// recoverBoundary converts a panic in event handling or frame stepping into
// a notice. The loop itself keeps running with the last good state.
func (s *Session) recoverBoundary() {
	if r := recover(); r != nil {
		err := apperrors.NewRenderFailed("session", fmt.Errorf("%v", r))
		s.logger.Error("Recovered from panic in session loop",
			zap.Any("panic", r),
			zap.Stack("stack"),
			zap.Error(err),
		)
		s.notify(noticeError, "Internal rendering error; the view may be stale")
	}
}

func (s *Session) stepFrame() {
	defer s.recoverBoundary()

	if !s.engine.Running() {
		return
	}
	s.engine.Step()
	if s.collector != nil {
		s.collector.FramesStepped.Inc()
	}
	s.scene.SyncPositions(s.engine)
	s.storeFrame()
	s.emit(MsgPositions, PositionsPayload{Alpha: s.engine.Alpha(), Nodes: s.scene.Positions()})
}

func (s *Session) startRefresh() {
	s.refreshSeq++
	seq := s.refreshSeq
	ctx := s.ctx
	go func() {
		raw, err := s.backend.CurrentHypergraph(ctx)
		s.events <- snapshotFetched{seq: seq, raw: raw, err: err}
	}()
}

func (s *Session) finishRefresh(ev snapshotFetched) {
	if ev.seq != s.refreshSeq {
		s.logger.Debug("Discarding stale snapshot",
			zap.Uint64("seq", ev.seq),
			zap.Uint64("current", s.refreshSeq),
		)
		return
	}
	if ev.err != nil {
		s.logger.Warn("Hypergraph fetch failed", zap.Error(ev.err))
		s.notify(noticeError, "Failed to fetch the hypergraph: "+apperrors.UserMessage(ev.err))
		return
	}
	s.applySnapshot(ev.raw)
}

// applySnapshot replaces the rendered hypergraph. A rejected snapshot keeps
// the previous view on screen.
func (s *Session) applySnapshot(raw *hypergraph.RawSnapshot) {
	snap, err := s.norm.Normalize(raw)
	if err != nil {
		s.logger.Warn("Rejecting snapshot", zap.Error(err))
		s.notify(noticeWarning, "Received an unusable hypergraph snapshot; keeping the previous view")
		return
	}

	s.snap = snap
	s.links = hypergraph.Project(snap)

	ids := make([]string, len(snap.Nodes))
	for i, n := range snap.Nodes {
		ids[i] = n.ID
	}
	s.engine.SetGraph(ids, s.links)
	s.scene.Bind(snap, s.links, s.engine)

	if s.collector != nil {
		s.collector.SnapshotsApplied.Inc()
		s.collector.HyperedgesDropped.Add(float64(len(snap.Dropped)))
	}
	if len(snap.Dropped) > 0 {
		s.notify(noticeWarning, fmt.Sprintf("Dropped %d invalid connection(s) from the update", len(snap.Dropped)))
	}

	s.revalidateSelection()
	s.storeFrame()
	s.emit(MsgScene, s.scene.Frame())
	s.emitSelection()
	s.startPanels()

	s.logger.Info("Snapshot applied",
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("hyperedges", len(snap.Hyperedges)),
		zap.Int("dropped", len(snap.Dropped)),
	)
}

// revalidateSelection re-seeds the control from the fresh snapshot, or
// clears the selection when its element disappeared.
func (s *Session) revalidateSelection() {
	state := s.sel.State()
	switch state.Mode {
	case selection.ModeNode:
		node, ok := s.snap.Node(state.ID)
		if !ok {
			s.sel.Clear()
			s.scene.Highlight("")
			s.notify(noticeInfo, "The selected node is no longer present")
			return
		}
		s.sel.SelectNode(node.ID, node.Relevance)
	case selection.ModeEdge:
		edge, ok := s.snap.Hyperedge(state.ID)
		if !ok {
			s.sel.Clear()
			s.scene.Highlight("")
			s.notify(noticeInfo, "The selected connection is no longer present")
			return
		}
		s.sel.SelectEdge(edge.ID, edge.Weight)
		s.scene.Highlight(edge.ID)
	}
}

func (s *Session) startPanels() {
	ctx := s.ctx
	go func() {
		result := s.poll.Fetch(ctx)
		s.events <- panelsFetched{result: result}
	}()
}

func (s *Session) publishPanels(r poller.Result) {
	if r.MetricsErr != nil {
		s.emit(MsgMetrics, MetricsPayload{OK: false, Error: "Metrics are currently unavailable"})
	} else {
		s.emit(MsgMetrics, MetricsPayload{OK: true, Metrics: r.Metrics})
	}
	if r.InsightsErr != nil {
		s.emit(MsgInsights, InsightsPayload{OK: false, Error: "Insights are currently unavailable"})
	} else {
		s.emit(MsgInsights, InsightsPayload{OK: true, Insights: r.Insights})
	}
}

func (s *Session) selectNode(id string) {
	if s.snap == nil {
		return
	}
	node, ok := s.snap.Node(id)
	if !ok {
		s.logger.Debug("Click on unknown node", zap.String("node_id", id))
		return
	}
	s.sel.SelectNode(node.ID, node.Relevance)
	s.scene.Highlight("")
	s.emitSelection()
}

func (s *Session) selectLink(key string) {
	if s.snap == nil {
		return
	}
	elem, ok := s.scene.Link(key)
	if !ok {
		s.logger.Debug("Click on unknown link", zap.String("key", key))
		return
	}
	edge, ok := s.snap.Hyperedge(elem.HyperedgeID)
	if !ok {
		return
	}
	s.sel.SelectEdge(edge.ID, edge.Weight)
	s.scene.Highlight(edge.ID)
	s.emitSelection()
}

func (s *Session) clearSelection() {
	if !s.sel.Active() {
		return
	}
	s.sel.Clear()
	s.scene.Highlight("")
	s.emitSelection()
}

func (s *Session) setCharge(strength float64) {
	s.engine.SetChargeStrength(strength)
	s.engine.Reheat()
	s.emitParams()
}

func (s *Session) applyTuning(p tuning.Params) {
	if p.ChargeStrength != nil {
		s.engine.SetChargeStrength(*p.ChargeStrength)
	}
	if p.LinkDistance != nil {
		s.engine.SetLinkDistance(*p.LinkDistance)
	}
	if p.LinkStrength != nil {
		s.engine.SetLinkStrength(*p.LinkStrength)
	}
	if p.CenterStrength != nil {
		s.engine.SetCenterStrength(*p.CenterStrength)
	}
	if p.VelocityDecay != nil {
		s.engine.SetVelocityDecay(*p.VelocityDecay)
	}
	s.engine.Reheat()
	s.logger.Info("Applied layout tuning")
	s.emitParams()
}

// startAdjust submits the control value for the current selection. The
// selection is read here, before anything yields, so the submission always
// targets what the user saw when they pressed apply.
func (s *Session) startAdjust(value float64) {
	if s.adjustBusy {
		s.notify(noticeWarning, "An adjustment is already in progress")
		return
	}
	state := s.sel.State()
	if state.Mode == selection.ModeIdle {
		s.notify(noticeWarning, "Select a node or connection before adjusting")
		return
	}

	adj := hotapi.Adjustment{ElementID: state.ID}
	switch state.Mode {
	case selection.ModeNode:
		adj.ElementType = "node"
		adj.NewRelevance = &value
	case selection.ModeEdge:
		adj.ElementType = "edge"
		adj.NewWeight = &value
	}

	s.adjustBusy = true
	s.emitSelection()

	ctx := s.ctx
	go func() {
		ack, err := s.backend.SubmitAdjustment(ctx, adj)
		done := adjustFinished{state: state, err: err}
		if ack != nil {
			done.ack = &adjustAck{message: ack.Message, newValue: ack.NewValue}
		}
		s.events <- done
	}()
}

// finishAdjust applies the outcome. The rendered value never changes here:
// it only changes when a later refresh brings the authoritative state.
func (s *Session) finishAdjust(ev adjustFinished) {
	s.adjustBusy = false

	if ev.err != nil {
		if s.collector != nil {
			s.collector.Adjustments.WithLabelValues("error").Inc()
		}
		s.logger.Warn("Adjustment rejected",
			zap.String("element_id", ev.state.ID),
			zap.Error(ev.err),
		)
		s.notify(noticeError, "Adjustment failed: "+apperrors.UserMessage(ev.err))
		s.emitSelection()
		return
	}

	if s.collector != nil {
		s.collector.Adjustments.WithLabelValues("ok").Inc()
	}
	text := "Adjustment applied"
	if ev.ack != nil && ev.ack.message != "" {
		text = ev.ack.message
	}
	s.notify(noticeSuccess, text)

	// Clear only if the user has not moved on to another element while the
	// request was in flight.
	current := s.sel.State()
	if current.Mode == ev.state.Mode && current.ID == ev.state.ID {
		s.sel.Clear()
		s.scene.Highlight("")
	}
	s.emitSelection()
}

func (s *Session) emit(msgType string, data any) {
	s.emitter.Emit(Message{Type: msgType, Data: data})
}

func (s *Session) emitSelection() {
	state := s.sel.State()
	s.emit(MsgSelection, SelectionPayload{
		Mode:        string(state.Mode),
		ID:          state.ID,
		Highlighted: s.scene.HighlightedLinks(),
		Controls:    s.sel.Controls(),
		Busy:        s.adjustBusy,
	})
}

func (s *Session) emitParams() {
	s.emit(MsgParams, ParamsPayload{
		ChargeStrength: s.engine.ChargeStrength(),
		LinkDistance:   s.engine.LinkDistance(),
	})
}

func (s *Session) notify(level, text string) {
	s.emit(MsgNotice, NoticePayload{ID: uuid.New().String(), Level: level, Text: text})
}

func (s *Session) storeFrame() {
	frame := s.scene.Frame()
	params := ParamsPayload{
		ChargeStrength: s.engine.ChargeStrength(),
		LinkDistance:   s.engine.LinkDistance(),
	}
	s.mu.Lock()
	s.lastFrame = frame
	s.lastParams = params
	s.mu.Unlock()
}
