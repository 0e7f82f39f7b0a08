package llm

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const jsonOnlyInstruction = "\n\nRespond with ONLY valid JSON, no markdown formatting."

// Source says where a Result came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceCache    Source = "cache"
	SourceMock     Source = "mock"
	SourceFallback Source = "fallback"
)

// Request is one gateway call. A nil Temperature means Config.Temperature;
// PlainText disables JSON mode and wraps the raw reply as {"response": text}.
type Request struct {
	Prompt            string
	SystemInstruction string
	Temperature       *float64
	PlainText         bool
}

// Temperature returns a pointer for Request.Temperature.
func Temperature(v float64) *float64 {
	return &v
}

// Result is always well-shaped. Reason is set when Source is SourceFallback.
type Result struct {
	Data   map[string]any
	Source Source
	Reason string
}

// Degraded reports whether the live path failed and Data is the mock fallback.
func (r Result) Degraded() bool {
	return r.Source == SourceFallback
}

type gatewayMetrics interface {
	RecordGatewayCall(source string)
}

// Option customises a Gateway.
type Option func(*Gateway)

// WithSharedCache adds a second cache tier, typically Redis.
func WithSharedCache(shared SharedCache) Option {
	return func(g *Gateway) { g.shared = shared }
}

// WithMetrics records every call's source.
func WithMetrics(m gatewayMetrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithLogger sets the gateway logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// Gateway sends prompts to the configured model.
type Gateway struct {
	cfg     Config
	model   ChatModel
	cache   *responseCache
	shared  SharedCache
	metrics gatewayMetrics
	logger  *zap.Logger
}

// NewGateway builds a gateway. model may be nil in mock mode; in live mode a
// nil model makes every call fall back to the mock response.
func NewGateway(cfg Config, model ChatModel, opts ...Option) *Gateway {
	g := &Gateway{
		cfg:    cfg.withDefaults(),
		model:  model,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.cache = newResponseCache(g.cfg.CacheSize, g.cfg.CacheTTL, g.shared, g.cfg.SharedCacheTTL)
	return g
}

// Mode returns the configured mode.
func (g *Gateway) Mode() string {
	return g.cfg.Mode
}

// Call never fails; live errors degrade to the mock response for the same prompt.
func (g *Gateway) Call(ctx context.Context, req Request) Result {
	result := g.call(ctx, req)
	if g.metrics != nil {
		g.metrics.RecordGatewayCall(string(result.Source))
	}
	return result
}

func (g *Gateway) call(ctx context.Context, req Request) Result {
	if g.cfg.Mode == ModeMock {
		return Result{Data: MockResponse(req.Prompt), Source: SourceMock}
	}

	temperature := g.cfg.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	key := CacheKey(req.Prompt, temperature)
	if cached, ok := g.cache.get(ctx, key); ok {
		return Result{Data: cached, Source: SourceCache}
	}

	data, err := g.live(ctx, req, temperature)
	if err != nil {
		g.logger.Warn("ai call failed, using mock fallback", zap.Error(err))
		return Result{Data: MockResponse(req.Prompt), Source: SourceFallback, Reason: err.Error()}
	}

	g.cache.put(ctx, key, data)
	return Result{Data: data, Source: SourceLive}
}

func (g *Gateway) live(ctx context.Context, req Request, temperature float64) (data map[string]any, err error) {
	if g.model == nil {
		return nil, errors.New("ai model not configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ai backend panicked: %v", r)
		}
	}()

	prompt := req.Prompt
	if req.SystemInstruction != "" {
		prompt = req.SystemInstruction + "\n\n" + req.Prompt
	}
	if !req.PlainText {
		prompt += jsonOnlyInstruction
	}

	text, err := g.model.Generate(ctx, prompt, GenerateOptions{
		Temperature:     temperature,
		MaxOutputTokens: g.cfg.MaxOutputTokens,
	})
	if err != nil {
		return nil, err
	}
	if req.PlainText {
		return map[string]any{"response": text}, nil
	}
	return ParseJSONObject(text)
}
