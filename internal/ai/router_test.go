package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is a scriptable Client for router tests
type fakeClient struct {
	provider     Provider
	content      string
	imageURL     string
	err          error
	imageErr     error
	calls        int
	imageCalls   int
	capabilities []Capability
}

func (f *fakeClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Response{
		ID:       req.ID,
		Provider: f.provider,
		Content:  f.content,
		Usage:    &Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}, nil
}

func (f *fakeClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	f.imageCalls++
	if f.imageErr != nil {
		return "", f.imageErr
	}
	return f.imageURL, nil
}

func (f *fakeClient) GetCapabilities() []Capability { return f.capabilities }
func (f *fakeClient) GetProvider() Provider         { return f.provider }
func (f *fakeClient) Health(ctx context.Context) error {
	return nil
}
func (f *fakeClient) GetUsage() *ProviderUsage {
	return &ProviderUsage{Provider: f.provider, RequestCount: int64(f.calls)}
}

func newTestRouter(clients ...*fakeClient) *Router {
	r := &Router{
		clients:     make(map[Provider]Client),
		rateLimits:  make(map[Provider]*rateLimiter),
		healthCheck: make(map[Provider]bool),
	}
	for _, c := range clients {
		r.clients[c.provider] = c
		r.healthCheck[c.provider] = true
	}
	return r
}

func TestRouterPrefersOpenAI(t *testing.T) {
	openai := &fakeClient{provider: ProviderOpenAI, content: "from openai"}
	gemini := &fakeClient{provider: ProviderGemini, content: "from gemini"}
	r := newTestRouter(openai, gemini)

	resp, err := r.Generate(context.Background(), &Request{Capability: CapabilityChat, Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, resp.Provider)
	assert.Equal(t, 1, openai.calls)
	assert.Equal(t, 0, gemini.calls)
}

func TestRouterFallsBackOnError(t *testing.T) {
	openai := &fakeClient{provider: ProviderOpenAI, err: errors.New("openai API error (status 500)")}
	gemini := &fakeClient{provider: ProviderGemini, content: "from gemini"}
	r := newTestRouter(openai, gemini)

	resp, err := r.Generate(context.Background(), &Request{Capability: CapabilityJSON, Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "from gemini", resp.Content)
	assert.Equal(t, 1, openai.calls)
	assert.Equal(t, 1, gemini.calls)

	// Failed provider gets marked unhealthy
	assert.False(t, r.GetHealthStatus()[ProviderOpenAI])
	assert.True(t, r.GetHealthStatus()[ProviderGemini])
}

func TestRouterAllProvidersFail(t *testing.T) {
	openai := &fakeClient{provider: ProviderOpenAI, err: errors.New("boom")}
	gemini := &fakeClient{provider: ProviderGemini, err: errors.New("also boom")}
	r := newTestRouter(openai, gemini)

	_, err := r.Generate(context.Background(), &Request{Capability: CapabilityChat, Prompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, 1, openai.calls)
	assert.Equal(t, 1, gemini.calls)
}

func TestRouterExplicitProvider(t *testing.T) {
	openai := &fakeClient{provider: ProviderOpenAI, content: "from openai"}
	gemini := &fakeClient{provider: ProviderGemini, content: "from gemini"}
	r := newTestRouter(openai, gemini)

	resp, err := r.Generate(context.Background(), &Request{
		Provider:   ProviderGemini,
		Capability: CapabilityChat,
		Prompt:     "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, resp.Provider)
	assert.Equal(t, 0, openai.calls)
}

func TestRouterNoProviderForCapability(t *testing.T) {
	r := newTestRouter()
	_, err := r.Generate(context.Background(), &Request{Capability: CapabilityChat, Prompt: "hi"})
	assert.Error(t, err)
}

func TestRouterRateLimitSkipsProvider(t *testing.T) {
	openai := &fakeClient{provider: ProviderOpenAI, content: "from openai"}
	gemini := &fakeClient{provider: ProviderGemini, content: "from gemini"}
	r := newTestRouter(openai, gemini)
	r.rateLimits[ProviderOpenAI] = &rateLimiter{tokens: 0, maxTokens: 60, lastRefill: time.Now()}

	resp, err := r.Generate(context.Background(), &Request{Capability: CapabilityChat, Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, resp.Provider)
	assert.Equal(t, 0, openai.calls)
}

func TestRouterUnhealthyProviderDemoted(t *testing.T) {
	openai := &fakeClient{provider: ProviderOpenAI, content: "from openai"}
	gemini := &fakeClient{provider: ProviderGemini, content: "from gemini"}
	r := newTestRouter(openai, gemini)
	r.healthCheck[ProviderOpenAI] = false

	resp, err := r.Generate(context.Background(), &Request{Capability: CapabilityChat, Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, resp.Provider)

	// Unhealthy provider is still the last resort
	gemini.err = errors.New("down")
	resp, err = r.Generate(context.Background(), &Request{Capability: CapabilityChat, Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, resp.Provider)
}

func TestRouterGenerateJSON(t *testing.T) {
	openai := &fakeClient{provider: ProviderOpenAI, content: "```json\n{\"alpha\": 1}\n```"}
	r := newTestRouter(openai)

	obj, err := r.GenerateJSON(context.Background(), "make json")
	require.NoError(t, err)
	assert.Equal(t, float64(1), obj["alpha"])
}

func TestRouterGenerateImage(t *testing.T) {
	openai := &fakeClient{provider: ProviderOpenAI, imageURL: "https://img.example/x.png"}
	r := newTestRouter(openai)

	url, err := r.GenerateImage(context.Background(), "a logo")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/x.png", url)
	assert.Equal(t, 1, openai.imageCalls)
}

func TestRouterGenerateImageNoProvider(t *testing.T) {
	// Gemini cannot serve image requests
	gemini := &fakeClient{provider: ProviderGemini, content: "text"}
	r := newTestRouter(gemini)

	_, err := r.GenerateImage(context.Background(), "a logo")
	assert.Error(t, err)
}

func TestRateLimiterRefill(t *testing.T) {
	r := newTestRouter(&fakeClient{provider: ProviderOpenAI, content: "x"})
	r.rateLimits[ProviderOpenAI] = &rateLimiter{tokens: 1, maxTokens: 1}

	assert.True(t, r.checkRateLimit(ProviderOpenAI))
	assert.False(t, r.checkRateLimit(ProviderOpenAI))
}
