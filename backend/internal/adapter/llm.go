// Package adapter wraps the OpenAI-compatible chat completion endpoint used
// to produce model replies for the debate flow.
package adapter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	apperrors "github.com/CrossDebate/app/backend/pkg/errors"
	"github.com/CrossDebate/app/backend/pkg/logger"
)

const maxAttempts = 3

// LLMAdapter handles communication with an OpenAI-compatible endpoint.
type LLMAdapter struct {
	client *openai.Client
	model  string
	mu     sync.RWMutex // Protects model field for concurrent access
	logger *zap.Logger
}

// NewLLMAdapter creates a new LLM adapter. An empty baseURL keeps the
// upstream OpenAI endpoint; a gateway URL gets /v1 appended.
func NewLLMAdapter(baseURL, apiKey, modelID string) *LLMAdapter {
	// Gateways such as LiteLLM accept any key when none is configured.
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
	}

	return &LLMAdapter{
		client: openai.NewClientWithConfig(config),
		model:  modelID,
		logger: logger.Get().Named("adapter"),
	}
}

// SetModel updates the model used by this adapter
func (a *LLMAdapter) SetModel(model string) {
	if model != "" {
		a.mu.Lock()
		a.model = model
		a.mu.Unlock()
		a.logger.Debug("LLM adapter model updated", zap.String("model", model))
	}
}

// GetModel returns the current model
func (a *LLMAdapter) GetModel() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.model
}

// Generate sends one system+user exchange to the model and returns the
// reply text. Transient failures are retried with a linear backoff.
func (a *LLMAdapter) Generate(ctx context.Context, systemPrompt, userMsg string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: userMsg,
		},
	}

	a.mu.RLock()
	currentModel := a.model
	a.mu.RUnlock()

	req := openai.ChatCompletionRequest{
		Model:       currentModel,
		Messages:    messages,
		Temperature: 0.7,
	}

	var resp openai.ChatCompletionResponse
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			a.logger.Warn("Retrying LLM request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			time.Sleep(backoff)
		}

		resp, err = a.client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}

		a.logger.Error("LLM request failed",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.String("model", currentModel),
		)

		if ctx.Err() != nil {
			break
		}
	}

	if err != nil {
		return "", apperrors.NewAgentLLMFailed(currentModel, maxAttempts, err)
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.NewAgentLLMFailed(currentModel, 1, errors.New("no choices in response"))
	}

	content := resp.Choices[0].Message.Content

	a.logger.Debug("LLM response generated",
		zap.String("model", currentModel),
		zap.Int("length", len(content)),
	)

	return content, nil
}
