package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CrossDebate/app/backend/internal/hot"
	apperrors "github.com/CrossDebate/app/backend/pkg/errors"
)

// chatSystemPrompt frames every model turn; the current hypergraph digest is
// appended when the graph is non-empty.
const chatSystemPrompt = "You are a debate assistant. Reason carefully about the user's " +
	"argument and answer concisely. Prior thoughts from the conversation are " +
	"listed below when available."

// generator is the slice of the LLM adapter the chat route needs.
type generator interface {
	Generate(ctx context.Context, systemPrompt, userMsg string) (string, error)
	GetModel() string
}

// newRouter wires the HTTP API over the hypergraph service.
func newRouter(svc *hot.Service, gen generator, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		hotGroup := api.Group("/hot")
		{
			// Full hypergraph state
			hotGroup.GET("/current", func(c *gin.Context) {
				c.JSON(http.StatusOK, svc.Current())
			})

			// Structural metrics
			hotGroup.GET("/metrics", func(c *gin.Context) {
				c.JSON(http.StatusOK, svc.Metrics())
			})

			// Natural language observations
			hotGroup.GET("/insights", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"insights": svc.Insights()})
			})

			// Adjust the relevance of a node or the weight of a hyperedge
			hotGroup.POST("/adjust", func(c *gin.Context) {
				var req struct {
					ElementID    string   `json:"element_id" binding:"required"`
					ElementType  string   `json:"element_type" binding:"required"`
					NewRelevance *float64 `json:"new_relevance"`
					NewWeight    *float64 `json:"new_weight"`
				}

				if err := c.ShouldBindJSON(&req); err != nil {
					c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
					return
				}

				value, err := svc.AdjustElement(c.Request.Context(), req.ElementID, req.ElementType, req.NewRelevance, req.NewWeight)
				if err != nil {
					status := adjustErrorStatus(err)
					if status == http.StatusInternalServerError {
						log.Error("Failed to apply adjustment",
							zap.String("element_id", req.ElementID),
							zap.Error(err),
						)
						c.JSON(status, gin.H{"error": "Failed to apply the adjustment"})
						return
					}
					c.JSON(status, gin.H{"error": err.Error()})
					return
				}

				c.JSON(http.StatusOK, gin.H{
					"status":       "success",
					"message":      adjustMessage(req.ElementType, req.ElementID, value),
					"element_id":   req.ElementID,
					"element_type": req.ElementType,
					"new_value":    value,
				})
			})

			// Reset the hypergraph
			hotGroup.POST("/clear", func(c *gin.Context) {
				if err := svc.Clear(c.Request.Context()); err != nil {
					log.Error("Failed to clear hypergraph", zap.Error(err))
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear the hypergraph"})
					return
				}
				c.JSON(http.StatusOK, gin.H{
					"status":  "success",
					"message": "Hypergraph cleared",
				})
			})
		}

		// Chat with the model, feeding the exchange back into the graph
		api.POST("/chat", func(c *gin.Context) {
			var req struct {
				Message string `json:"message" binding:"required"`
			}

			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			ctx := c.Request.Context()
			system := chatSystemPrompt
			if digest := svc.PromptContext(0, 0); digest != "" {
				system += "\n\n" + digest
			}

			reply, err := gen.Generate(ctx, system, req.Message)
			if err != nil {
				log.Error("Failed to generate model response", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate a model response"})
				return
			}

			interaction, err := svc.UpdateFromInteraction(ctx, req.Message, reply, gen.GetModel())
			if err != nil {
				log.Error("Failed to record interaction", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record the interaction"})
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"response":      reply,
				"model":         gen.GetModel(),
				"user_node_id":  interaction.UserNode.ID,
				"model_node_id": interaction.ModelNode.ID,
				"edge_id":       interaction.Edge.ID,
			})
		})
	}

	return router
}

// adjustErrorStatus maps service errors onto the API status contract:
// 422 for a missing or mistyped value, 404 for unknown elements, 400 for
// out-of-range values, 500 otherwise.
func adjustErrorStatus(err error) int {
	if errors.Is(err, hot.ErrMissingValue) || errors.Is(err, hot.ErrUnknownElementType) {
		return http.StatusUnprocessableEntity
	}
	var notFound *apperrors.ErrElementNotFound
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}
	var outOfRange *apperrors.ErrValueOutOfRange
	if errors.As(err, &outOfRange) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func adjustMessage(elementType, elementID string, value float64) string {
	field := "relevance"
	if elementType == "edge" {
		field = "weight"
	}
	return fmt.Sprintf("Set %s of %s %s to %.2f", field, elementType, elementID, value)
}
