package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const backendAnthropic = "anthropic"

// anthropicGenerator uses the Messages API.
type anthropicGenerator struct {
	client anthropic.Client
	model  anthropic.Model
	params GenerationParams
	rec    callRecorder
}

// NewAnthropicGenerator creates a Generator on top of the Anthropic SDK.
// SDK level retries are switched off: a failed call is reported as is.
func NewAnthropicGenerator(apiKey, baseURL, model string, params GenerationParams, httpClient *http.Client, logger *zap.Logger) Generator {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if params.MaxTokens <= 0 {
		params.MaxTokens = 1024
	}

	logger = logger.Named("AnthropicGenerator").With(zap.String("model", model))
	logger.Info("Anthropic client created", zap.String("base_url", baseURL))

	return &anthropicGenerator{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(model),
		params: params,
		rec:    callRecorder{backend: backendAnthropic, model: model, logger: logger},
	}
}

// Generate sends prompt as a single user message and joins the text blocks
// of the reply.
func (g *anthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	req := anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: int64(g.params.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if g.params.Temperature != nil {
		req.Temperature = anthropic.Float(*g.params.Temperature)
	}

	started := time.Now()
	msg, err := g.client.Messages.New(ctx, req)
	if err != nil {
		return "", g.rec.failure(started, len(prompt), err)
	}

	var (
		text    strings.Builder
		hasText bool
	)
	for _, block := range msg.Content {
		if block.Type == "text" {
			hasText = true
			text.WriteString(block.Text)
		}
	}
	if !hasText {
		return "", g.rec.failure(started, len(prompt), ErrEmptyResponse)
	}

	result := text.String()
	g.rec.success(started, len(prompt), len(result), usage{
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
	})
	return result, nil
}
