package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CrossDebate/app/backend/internal/hotapi"
	"github.com/CrossDebate/app/backend/internal/hub"
	"github.com/CrossDebate/app/backend/internal/layout"
	"github.com/CrossDebate/app/backend/internal/session"
	"github.com/CrossDebate/app/backend/internal/tuning"
	"github.com/CrossDebate/app/backend/pkg/config"
	"github.com/CrossDebate/app/backend/pkg/logger"
	"github.com/CrossDebate/app/backend/pkg/metrics"
)

// eventSink forwards hub events into the session once both exist. The hub
// only reads it after websocket clients connect, well after wiring.
type eventSink struct {
	sess *session.Session
}

func (s *eventSink) Enqueue(ev session.Event) {
	s.sess.Enqueue(ev)
}

func main() {
	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting hypergraph viewer...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	collector := metrics.New()
	backend := hotapi.NewClient(cfg.BackendURL, time.Duration(cfg.APITimeoutMS)*time.Millisecond, collector)

	layoutCfg := layout.DefaultConfig()
	layoutCfg.ChargeStrength = cfg.ChargeStrength
	layoutCfg.LinkDistance = cfg.LinkDistance

	sink := &eventSink{}
	h := hub.New(sink, collector)
	sess := session.New(session.Config{
		FrameInterval:    time.Duration(cfg.FrameIntervalMS) * time.Millisecond,
		DefaultRelevance: cfg.DefaultNodeRelevance,
		DefaultWeight:    cfg.DefaultEdgeWeight,
		Layout:           layoutCfg,
	}, backend, h, collector)
	sink.sess = sess

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	go sess.Run(ctx)

	// Watch the optional layout tuning file
	if cfg.TuningPath != "" {
		watcher, err := tuning.Watch(cfg.TuningPath, func(p tuning.Params) {
			sess.Enqueue(session.TuningChanged{Params: p})
		}, log)
		if err != nil {
			log.Warn("Failed to watch tuning file",
				zap.String("path", cfg.TuningPath),
				zap.Error(err),
			)
		} else {
			defer watcher.Close()
		}
	}

	// Fetch the initial hypergraph
	sess.Enqueue(session.RefreshRequested{})

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(sess, h, collector, log)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.ViewerPort,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Viewer started",
		zap.String("port", cfg.ViewerPort),
		zap.String("backend", cfg.BackendURL),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down viewer...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Viewer exited")
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
