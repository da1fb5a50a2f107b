package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chat-server/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	// ErrGenerationFailed wraps every backend failure.
	ErrGenerationFailed = errors.New("ai generation failed")
	// ErrEmptyResponse means the backend answered without any text candidates.
	ErrEmptyResponse = errors.New("empty response from ai backend")
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ai_requests_total",
			Help: "Total number of requests to the generation backend.",
		},
		[]string{"backend", "model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_ai_request_duration_seconds",
			Help:    "Histogram of generation backend request durations.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s .. ~128s
		},
		[]string{"backend", "model"},
	)
	aiTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ai_tokens_total",
			Help: "Total number of tokens reported (or estimated) by the backend.",
		},
		[]string{"backend", "model", "kind"},
	)
)

// Generator produces text for a prompt. It is the only capability the chat
// service needs from an AI backend.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationParams are optional sampling settings shared by all backends.
// A nil Temperature and zero MaxTokens leave the backend defaults in place.
type GenerationParams struct {
	Temperature *float64
	MaxTokens   int
}

// usage is the token accounting of one call.
type usage struct {
	PromptTokens     int
	CompletionTokens int
}

// callRecorder keeps the metrics and logging of one backend identical across
// implementations.
type callRecorder struct {
	backend string
	model   string
	logger  *zap.Logger
}

func (r callRecorder) success(started time.Time, promptLen, responseLen int, u usage) {
	duration := time.Since(started)
	aiRequestsTotal.WithLabelValues(r.backend, r.model, "success").Inc()
	aiRequestDuration.WithLabelValues(r.backend, r.model).Observe(duration.Seconds())
	if u.PromptTokens > 0 {
		aiTokensTotal.WithLabelValues(r.backend, r.model, "prompt").Add(float64(u.PromptTokens))
	}
	if u.CompletionTokens > 0 {
		aiTokensTotal.WithLabelValues(r.backend, r.model, "completion").Add(float64(u.CompletionTokens))
	}
	r.logger.Debug("Generation completed",
		zap.Duration("duration", duration),
		zap.Int("prompt_len", promptLen),
		zap.Int("response_len", responseLen),
		zap.Int("prompt_tokens", u.PromptTokens),
		zap.Int("completion_tokens", u.CompletionTokens),
	)
}

// failure records err and returns it wrapped in ErrGenerationFailed.
func (r callRecorder) failure(started time.Time, promptLen int, err error) error {
	status := "error"
	switch {
	case errors.Is(err, ErrEmptyResponse):
		status = "error_empty_response"
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	case errors.Is(err, context.Canceled):
		status = "canceled"
	}
	duration := time.Since(started)
	aiRequestsTotal.WithLabelValues(r.backend, r.model, status).Inc()
	aiRequestDuration.WithLabelValues(r.backend, r.model).Observe(duration.Seconds())
	r.logger.Warn("Generation failed",
		zap.String("status", status),
		zap.Duration("duration", duration),
		zap.Int("prompt_len", promptLen),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
}

// NewGenerator builds the backend selected by cfg.AIClientType.
func NewGenerator(cfg *config.Config, logger *zap.Logger) (Generator, error) {
	httpClient := &http.Client{Timeout: cfg.AITimeout}
	params := GenerationParams{
		Temperature: cfg.AITemperature,
		MaxTokens:   cfg.AIMaxTokens,
	}

	switch cfg.AIClientType {
	case config.AIClientOpenAI:
		return NewOpenAIGenerator(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel, params, httpClient, logger), nil
	case config.AIClientOllama:
		return NewOllamaGenerator(cfg.AIBaseURL, cfg.AIModel, params, httpClient, logger)
	case config.AIClientAnthropic:
		return NewAnthropicGenerator(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel, params, httpClient, logger), nil
	default:
		return nil, fmt.Errorf("unknown AI client type: '%s'", cfg.AIClientType)
	}
}
