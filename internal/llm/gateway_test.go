package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	prompts []string
	opts    []GenerateOptions
}

func (s *stubModel) Generate(_ context.Context, prompt string, opts GenerateOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, prompt)
	s.opts = append(s.opts, opts)
	return s.reply, s.err
}

type stubMetrics struct {
	sources []string
}

func (s *stubMetrics) RecordGatewayCall(source string) {
	s.sources = append(s.sources, source)
}

type memShared struct {
	values map[string]map[string]any
	sets   int
}

func (m *memShared) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	v, ok := m.values[key]
	if !ok {
		return false, nil
	}
	*(dest.(*map[string]any)) = v
	return true, nil
}

func (m *memShared) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.values[key] = value.(map[string]any)
	m.sets++
	return nil
}

func TestMockModeKeywordShapes(t *testing.T) {
	gw := NewGateway(Config{Mode: ModeMock}, nil)
	ctx := context.Background()

	doc := gw.Call(ctx, Request{Prompt: "Analyze this document"})
	assert.Equal(t, SourceMock, doc.Source)
	assert.Equal(t, 0.95, doc.Data["confidence"])
	assert.Equal(t, "VERIFIED", doc.Data["verification_status"])
	assert.Equal(t, true, doc.Data["success"])

	hr := gw.Call(ctx, Request{Prompt: "How many Employees are stuck?"})
	assert.Equal(t, 0.9, hr.Data["confidence"])
	assert.Contains(t, hr.Data, "answer")

	chat := gw.Call(ctx, Request{Prompt: "what task is next"})
	assert.Contains(t, chat.Data, "reply")
	assert.Contains(t, chat.Data, "next_steps")

	analysis := gw.Call(ctx, Request{Prompt: "give me the status"})
	assert.Equal(t, 35, analysis.Data["overall_completion"])
	assert.Equal(t, "IN_PROGRESS", analysis.Data["status"])

	generic := gw.Call(ctx, Request{Prompt: "hello"})
	assert.Contains(t, generic.Data, "response")
	assert.Contains(t, generic.Data, "note")
}

func TestMockKeywordPrecedence(t *testing.T) {
	data := MockResponse("Analyze the onboarding status for this employee document")
	assert.Equal(t, 0.95, data["confidence"], "document keywords win over later shapes")
}

func TestMockModeNeverCallsModel(t *testing.T) {
	model := &stubModel{reply: `{"confidence": 1}`}
	gw := NewGateway(Config{Mode: ModeMock}, model)

	gw.Call(context.Background(), Request{Prompt: "document"})
	gw.Call(context.Background(), Request{Prompt: "document"})

	assert.Zero(t, model.calls)
	assert.Zero(t, gw.cache.len())
}

func TestLiveBuildsPromptAndCaps(t *testing.T) {
	model := &stubModel{reply: `{"confidence": 0.7}`}
	gw := NewGateway(Config{Mode: ModeLive, MaxOutputTokens: 0}, model)

	res := gw.Call(context.Background(), Request{Prompt: "Analyze", SystemInstruction: "Be strict."})

	require.Equal(t, SourceLive, res.Source)
	assert.Equal(t, 0.7, res.Data["confidence"])
	require.Len(t, model.prompts, 1)
	assert.Equal(t, "Be strict.\n\nAnalyze\n\nRespond with ONLY valid JSON, no markdown formatting.", model.prompts[0])
	assert.Equal(t, GenerateOptions{Temperature: 0.1, MaxOutputTokens: 512}, model.opts[0])
}

func TestLiveCacheHitAvoidsSecondCall(t *testing.T) {
	model := &stubModel{reply: `{"intent": "general_stats"}`}
	gw := NewGateway(Config{Mode: ModeLive}, model)
	ctx := context.Background()

	first := gw.Call(ctx, Request{Prompt: "classify"})
	first.Data["raw_data"] = "mutated by caller"
	second := gw.Call(ctx, Request{Prompt: "classify"})
	third := gw.Call(ctx, Request{Prompt: "classify", Temperature: Temperature(0.7)})

	assert.Equal(t, SourceLive, first.Source)
	assert.Equal(t, SourceCache, second.Source)
	assert.NotContains(t, second.Data, "raw_data")
	assert.Equal(t, SourceLive, third.Source)
	assert.Equal(t, 2, model.calls)
}

func TestLiveFailureFallsBackToMock(t *testing.T) {
	model := &stubModel{err: errors.New("quota exceeded")}
	metrics := &stubMetrics{}
	gw := NewGateway(Config{Mode: ModeLive}, model, WithMetrics(metrics))

	res := gw.Call(context.Background(), Request{Prompt: "Analyze this document"})

	assert.Equal(t, SourceFallback, res.Source)
	assert.True(t, res.Degraded())
	assert.Contains(t, res.Reason, "quota exceeded")
	assert.Equal(t, 0.95, res.Data["confidence"])
	assert.Equal(t, []string{"fallback"}, metrics.sources)
	assert.Zero(t, gw.cache.len(), "fallbacks are not cached")
}

func TestLiveMalformedJSONFallsBack(t *testing.T) {
	model := &stubModel{reply: "Sure! Here is the data: name=Asha"}
	gw := NewGateway(Config{Mode: ModeLive}, model)

	res := gw.Call(context.Background(), Request{Prompt: "hello"})

	assert.Equal(t, SourceFallback, res.Source)
	assert.Contains(t, res.Data, "note")
}

func TestLiveWithoutModelFallsBack(t *testing.T) {
	res := NewGateway(Config{Mode: ModeLive}, nil).Call(context.Background(), Request{Prompt: "chat"})

	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, "ai model not configured", res.Reason)
}

func TestPlainTextMode(t *testing.T) {
	model := &stubModel{reply: "just words"}
	gw := NewGateway(Config{Mode: ModeLive}, model)

	res := gw.Call(context.Background(), Request{Prompt: "say hi", PlainText: true})

	assert.Equal(t, map[string]any{"response": "just words"}, res.Data)
	assert.Equal(t, "say hi", model.prompts[0])
}

func TestSharedCacheTier(t *testing.T) {
	shared := &memShared{values: map[string]map[string]any{}}
	model := &stubModel{reply: `{"answer": "42"}`}
	ctx := context.Background()

	NewGateway(Config{Mode: ModeLive}, model, WithSharedCache(shared)).Call(ctx, Request{Prompt: "q"})
	require.Equal(t, 1, shared.sets)

	other := NewGateway(Config{Mode: ModeLive}, model, WithSharedCache(shared))
	res := other.Call(ctx, Request{Prompt: "q"})

	assert.Equal(t, SourceCache, res.Source)
	assert.Equal(t, "42", res.Data["answer"])
	assert.Equal(t, 1, model.calls)
}

func TestCacheKey(t *testing.T) {
	key := CacheKey("prompt", 0.1)

	assert.Len(t, key, 64)
	assert.Equal(t, key, CacheKey("prompt", 0.1))
	assert.NotEqual(t, key, CacheKey("prompt", 0.2))
	assert.NotEqual(t, key, CacheKey("prompt2", 0.1))
}

func TestCacheSharedAcrossResponseModes(t *testing.T) {
	model := &stubModel{reply: "just words"}
	gw := NewGateway(Config{Mode: ModeLive}, model)
	ctx := context.Background()

	gw.Call(ctx, Request{Prompt: "same prompt", PlainText: true})
	res := gw.Call(ctx, Request{Prompt: "same prompt"})

	assert.Equal(t, SourceCache, res.Source)
	assert.Equal(t, map[string]any{"response": "just words"}, res.Data)
	assert.Equal(t, 1, model.calls)
}

func TestConcurrentCallsSameKey(t *testing.T) {
	model := &stubModel{reply: `{"confidence": 0.5}`}
	gw := NewGateway(Config{Mode: ModeLive}, model)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := gw.Call(context.Background(), Request{Prompt: "same"})
			assert.Equal(t, 0.5, res.Data["confidence"])
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, gw.cache.len())
}
