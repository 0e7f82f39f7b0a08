package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when a backend answers with no text.
var ErrEmptyResponse = errors.New("model returned empty response")

// GenerateOptions are the per-call generation settings.
type GenerateOptions struct {
	Temperature     float64
	MaxOutputTokens int
}

// ChatModel generates a completion for a single prompt.
type ChatModel interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// NewChatModel builds the live backend selected by cfg.Provider.
func NewChatModel(ctx context.Context, cfg Config) (ChatModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("ai api key not configured")
	}

	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return &geminiModel{client: client, model: cfg.Model}, nil
	case ProviderOpenAI:
		chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai chat model: %w", err)
		}
		return &einoModel{chat: chat}, nil
	case ProviderClaude:
		var baseURL *string
		if cfg.BaseURL != "" {
			baseURL = &cfg.BaseURL
		}
		maxTokens := cfg.MaxOutputTokens
		if maxTokens <= 0 {
			maxTokens = DefaultMaxOutputTokens
		}
		chat, err := claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   baseURL,
			MaxTokens: maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create claude chat model: %w", err)
		}
		return &einoModel{chat: chat}, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
}

type geminiModel struct {
	client *genai.Client
	model  string
}

func (g *geminiModel) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(opts.Temperature)),
		MaxOutputTokens: int32(opts.MaxOutputTokens),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

type einoModel struct {
	chat model.BaseChatModel
}

func (e *einoModel) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	msg, err := e.chat.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)},
		model.WithTemperature(float32(opts.Temperature)),
		model.WithMaxTokens(opts.MaxOutputTokens),
	)
	if err != nil {
		return "", fmt.Errorf("chat generate: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", ErrEmptyResponse
	}
	return msg.Content, nil
}
