package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const backendOpenAI = "openai"

// openAIGenerator talks to any OpenAI compatible chat completions API
// (OpenAI, OpenRouter, vLLM, ...).
type openAIGenerator struct {
	client *openaigo.Client
	model  string
	params GenerationParams
	rec    callRecorder
}

// NewOpenAIGenerator creates a Generator on top of go-openai. An empty baseURL
// keeps the library default.
func NewOpenAIGenerator(apiKey, baseURL, model string, params GenerationParams, httpClient *http.Client, logger *zap.Logger) Generator {
	openaiConfig := openaigo.DefaultConfig(apiKey)
	if baseURL != "" {
		openaiConfig.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if httpClient != nil {
		openaiConfig.HTTPClient = httpClient
	}
	logger = logger.Named("OpenAIGenerator").With(zap.String("model", model))
	logger.Info("OpenAI client created", zap.String("base_url", openaiConfig.BaseURL))
	if params.Temperature != nil && *params.Temperature == 0 {
		// go-openai drops a zero temperature from the request (omitempty)
		logger.Warn("Temperature 0 is not sent to OpenAI compatible backends, the server default applies")
	}

	return &openAIGenerator{
		client: openaigo.NewClientWithConfig(openaiConfig),
		model:  model,
		params: params,
		rec:    callRecorder{backend: backendOpenAI, model: model, logger: logger},
	}
}

// Generate sends prompt as the only user message of a chat completion.
func (g *openAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	req := openaigo.ChatCompletionRequest{
		Model: g.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: g.params.MaxTokens,
	}
	if g.params.Temperature != nil {
		req.Temperature = float32(*g.params.Temperature)
	}

	started := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", g.rec.failure(started, len(prompt), err)
	}
	if len(resp.Choices) == 0 {
		return "", g.rec.failure(started, len(prompt), ErrEmptyResponse)
	}

	text := resp.Choices[0].Message.Content
	u := usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	if resp.Usage.TotalTokens == 0 {
		// some compatible servers omit the usage block
		u = g.estimateUsage(prompt, text)
	}
	g.rec.success(started, len(prompt), len(text), u)
	return text, nil
}

// estimateUsage counts tokens locally. Unknown models yield zero usage.
func (g *openAIGenerator) estimateUsage(prompt, completion string) usage {
	tke, err := tiktoken.EncodingForModel(g.model)
	if err != nil {
		g.rec.logger.Debug("No tokenizer for model, skipping token estimation", zap.Error(err))
		return usage{}
	}
	return usage{
		PromptTokens:     len(tke.Encode(prompt, nil, nil)),
		CompletionTokens: len(tke.Encode(completion, nil, nil)),
	}
}
