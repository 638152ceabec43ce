package hint

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the chat completion backend.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

const (
	defaultModel       = openai.GPT3Dot5Turbo
	defaultMaxTokens   = 150
	defaultTemperature = 0.7
	defaultTimeout     = 10 * time.Second
)

var (
	errEmptyCompletion = errors.New("completion returned no choices")
	errNotConfigured   = errors.New("hint generator is not configured")
)

// OpenAIGenerator is a Generator backed by an OpenAI-compatible chat API.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIGenerator returns nil when no API key is configured so callers fall back to canned hints.
func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (g *OpenAIGenerator) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if g == nil {
		return "", errNotConfigured
	}
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
