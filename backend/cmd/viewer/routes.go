package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CrossDebate/app/backend/internal/export"
	"github.com/CrossDebate/app/backend/internal/hub"
	"github.com/CrossDebate/app/backend/internal/hypergraph"
	"github.com/CrossDebate/app/backend/internal/session"
	"github.com/CrossDebate/app/backend/internal/web"
	"github.com/CrossDebate/app/backend/pkg/metrics"
)

// newRouter wires the viewer's HTTP surface: the embedded page, the
// websocket endpoint, the refresh entry point, the static export, and the
// Prometheus metrics.
func newRouter(sess *session.Session, h *hub.Hub, collector *metrics.Collector, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	router.GET("/", gin.WrapF(web.Handler()))

	router.GET("/ws", func(c *gin.Context) {
		h.ServeWS(c.Writer, c.Request)
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(collector.Handler()))

	api := router.Group("/api")
	{
		// External refresh trigger. An empty body re-fetches from the
		// backend; a JSON body is applied directly as the new snapshot,
		// which lets the chat flow hand over the state it already holds.
		api.POST("/refresh", func(c *gin.Context) {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
				return
			}

			if len(bytes.TrimSpace(body)) == 0 {
				sess.Enqueue(session.RefreshRequested{})
				c.JSON(http.StatusAccepted, gin.H{"status": "refresh scheduled"})
				return
			}

			var raw hypergraph.RawSnapshot
			if err := json.Unmarshal(body, &raw); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot payload"})
				return
			}
			sess.Enqueue(session.SnapshotPushed{Raw: &raw})
			c.JSON(http.StatusAccepted, gin.H{"status": "snapshot queued"})
		})

		// Static HTML export of the current frame
		api.GET("/export", func(c *gin.Context) {
			frame, _ := sess.CurrentFrame()

			c.Header("Content-Type", "text/html; charset=utf-8")
			c.Status(http.StatusOK)
			if err := export.RenderHTML(c.Writer, frame); err != nil {
				log.Error("Failed to render export", zap.Error(err))
			}
		})
	}

	return router
}
