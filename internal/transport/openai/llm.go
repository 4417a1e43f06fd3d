package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/docubrain/ragdex/internal/domain"
	"github.com/docubrain/ragdex/internal/metrics"
)

// LLM is a text generation provider using the OpenAI-compatible chat API.
type LLM struct {
	client      *openai.Client
	model       string
	temperature float32
	provider    string
	logger      *zap.Logger
}

// LLMConfig holds the chat-completion provider settings.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Provider    string
	Logger      *zap.Logger
}

// NewLLM creates an OpenAI-compatible chat-completion provider.
func NewLLM(cfg *LLMConfig) *LLM {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &LLM{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
}

// Generate implements domain.LLM. Failures and safety blocks come back
// as synthesis errors carrying the reason.
func (l *LLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:       l.model,
		Messages:    messages,
		Temperature: l.temperature,
	}

	start := time.Now()

	resp, err := l.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(l.provider, l.model, "error").Inc()
		return "", parseLLMError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(l.provider, l.model, "error").Inc()
		return "", domain.NewSynthesisError("empty completion response", nil)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		metrics.LLMRequestsTotal.WithLabelValues(l.provider, l.model, "blocked").Inc()
		return "", domain.NewSynthesisError("safety_blocked", nil)
	}

	metrics.LLMRequestsTotal.WithLabelValues(l.provider, l.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(l.provider, l.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(l.provider, l.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(l.provider, l.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	return choice.Message.Content, nil
}

// parseLLMError maps API failures to synthesis errors with a reason.
func parseLLMError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		reason := fmt.Sprintf("completion API error %d", reqErr.HTTPStatusCode)
		if detail := extractDetail(reqErr.Body); detail != "" {
			reason += ": " + detail
		}
		return domain.NewSynthesisError(reason, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewSynthesisError(
			fmt.Sprintf("completion API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message), err)
	}

	return domain.NewSynthesisError("completion request failed", err)
}
