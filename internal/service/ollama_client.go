package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

const backendOllama = "ollama"

// ollamaGenerator uses the native Ollama /api/generate endpoint.
type ollamaGenerator struct {
	client *api.Client
	model  string
	params GenerationParams
	rec    callRecorder
}

// NewOllamaGenerator creates a Generator for a local or remote Ollama server.
func NewOllamaGenerator(baseURL, model string, params GenerationParams, httpClient *http.Client, logger *zap.Logger) (Generator, error) {
	// api.NewClient wants the bare host, without the OpenAI style /v1 suffix
	ollamaBaseURL := strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")
	parsedURL, err := url.Parse(ollamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL '%s': %w", ollamaBaseURL, err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid Ollama base URL '%s': scheme and host are required", ollamaBaseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger = logger.Named("OllamaGenerator").With(zap.String("model", model))
	logger.Info("Ollama client created", zap.String("base_url", ollamaBaseURL))

	return &ollamaGenerator{
		client: api.NewClient(parsedURL, httpClient),
		model:  model,
		params: params,
		rec:    callRecorder{backend: backendOllama, model: model, logger: logger},
	}, nil
}

// Generate runs a single non-streaming generation.
func (g *ollamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   g.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: map[string]interface{}{},
	}
	if g.params.Temperature != nil {
		req.Options["temperature"] = *g.params.Temperature
	}
	if g.params.MaxTokens > 0 {
		req.Options["num_predict"] = g.params.MaxTokens
	}

	started := time.Now()
	var (
		text      strings.Builder
		final     api.GenerateResponse
		gotChunks bool
	)
	err := g.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		gotChunks = true
		text.WriteString(resp.Response)
		if resp.Done {
			final = resp
		}
		return nil
	})
	if err != nil {
		return "", g.rec.failure(started, len(prompt), err)
	}
	if !gotChunks {
		return "", g.rec.failure(started, len(prompt), ErrEmptyResponse)
	}

	result := text.String()
	g.rec.success(started, len(prompt), len(result), usage{
		PromptTokens:     final.PromptEvalCount,
		CompletionTokens: final.EvalCount,
	})
	return result, nil
}
