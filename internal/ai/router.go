package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"genome-ai/internal/logging"
	"genome-ai/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Router routes AI requests to the optimal provider with rate limiting
// and fallback
type Router struct {
	clients     map[Provider]Client
	rateLimits  map[Provider]*rateLimiter
	mu          sync.RWMutex
	healthCheck map[Provider]bool
}

// rateLimiter tracks request budget for each provider
type rateLimiter struct {
	tokens     int
	maxTokens  int
	lastRefill time.Time
	mu         sync.Mutex
}

// Per-provider requests per minute
var defaultRateLimits = map[Provider]int{
	ProviderOpenAI: 60,
	ProviderGemini: 60,
}

// Preferred provider order per capability. OpenAI first for JSON since
// json_object mode removes a whole class of parse failures; image only
// on OpenAI.
var capabilityOrder = map[Capability][]Provider{
	CapabilityChat:  {ProviderOpenAI, ProviderGemini},
	CapabilityJSON:  {ProviderOpenAI, ProviderGemini},
	CapabilityImage: {ProviderOpenAI},
}

// NewRouter creates a new AI router with the configured providers
func NewRouter(openAIKey, geminiKey string) *Router {
	clients := make(map[Provider]Client)

	if openAIKey != "" {
		clients[ProviderOpenAI] = NewOpenAIClient(openAIKey)
	}
	if geminiKey != "" {
		clients[ProviderGemini] = NewGeminiClient(geminiKey)
	}

	rateLimits := make(map[Provider]*rateLimiter)
	for provider, limit := range defaultRateLimits {
		rateLimits[provider] = &rateLimiter{
			tokens:     limit,
			maxTokens:  limit,
			lastRefill: time.Now(),
		}
	}

	router := &Router{
		clients:     clients,
		rateLimits:  rateLimits,
		healthCheck: make(map[Provider]bool),
	}

	for provider := range clients {
		router.healthCheck[provider] = true
	}

	go router.monitorHealth()

	return router
}

// Generate routes an AI request to the best available provider
func (r *Router) Generate(ctx context.Context, req *Request) (*Response, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Temperature == 0 {
		req.Temperature = 0.7
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}

	providers := r.candidateProviders(req)
	if len(providers) == 0 {
		return nil, fmt.Errorf("no provider available for capability %s", req.Capability)
	}

	var lastErr error
	for i, provider := range providers {
		client, exists := r.client(provider)
		if !exists {
			continue
		}
		if !r.checkRateLimit(provider) {
			lastErr = fmt.Errorf("provider %s rate limited", provider)
			continue
		}

		if i > 0 {
			metrics.Get().AIFallbacksTotal.WithLabelValues(string(providers[0]), string(provider)).Inc()
			logging.L().Info("AI request rerouted to fallback provider",
				zap.String("from", string(providers[0])),
				zap.String("to", string(provider)))
		}

		start := time.Now()
		resp, err := client.Generate(ctx, req)
		r.recordResult(provider, req.Capability, resp, err, time.Since(start))
		if err != nil {
			lastErr = err
			r.setHealth(provider, false)
			continue
		}
		return resp, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("all providers exhausted for capability %s", req.Capability)
	}
	return nil, lastErr
}

// GenerateText runs a free-text chat completion
func (r *Router) GenerateText(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	resp, err := r.Generate(ctx, &Request{
		Capability:   CapabilityChat,
		SystemPrompt: systemPrompt,
		Messages:     messages,
		MaxTokens:    2000,
		Temperature:  0.7,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// GenerateJSON runs a JSON-mode completion and parses the object
func (r *Router) GenerateJSON(ctx context.Context, prompt string) (map[string]interface{}, error) {
	resp, err := r.Generate(ctx, &Request{
		Capability:  CapabilityJSON,
		Prompt:      prompt,
		MaxTokens:   4000,
		Temperature: 0.6,
	})
	if err != nil {
		return nil, err
	}
	return ExtractJSON(resp.Content)
}

// GenerateImage generates an image and returns its URL
func (r *Router) GenerateImage(ctx context.Context, prompt string) (string, error) {
	for _, provider := range capabilityOrder[CapabilityImage] {
		client, exists := r.client(provider)
		if !exists {
			continue
		}
		if !r.checkRateLimit(provider) {
			continue
		}

		url, err := client.GenerateImage(ctx, prompt)
		if err != nil {
			metrics.Get().AIRequestsTotal.WithLabelValues(string(provider), string(CapabilityImage), "error").Inc()
			return "", err
		}
		metrics.Get().AIRequestsTotal.WithLabelValues(string(provider), string(CapabilityImage), "success").Inc()
		return url, nil
	}
	return "", fmt.Errorf("no image provider available")
}

// candidateProviders returns providers to try, in order
func (r *Router) candidateProviders(req *Request) []Provider {
	if req.Provider != "" {
		return []Provider{req.Provider}
	}

	order, ok := capabilityOrder[req.Capability]
	if !ok {
		order = capabilityOrder[CapabilityChat]
	}

	// Healthy providers first, unhealthy ones still tried as a last resort
	r.mu.RLock()
	defer r.mu.RUnlock()

	var healthy, unhealthy []Provider
	for _, p := range order {
		if _, exists := r.clients[p]; !exists {
			continue
		}
		if r.healthCheck[p] {
			healthy = append(healthy, p)
		} else {
			unhealthy = append(unhealthy, p)
		}
	}
	return append(healthy, unhealthy...)
}

func (r *Router) client(provider Provider) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[provider]
	return c, ok
}

// checkRateLimit refills and consumes a provider's token bucket
func (r *Router) checkRateLimit(provider Provider) bool {
	limiter, exists := r.rateLimits[provider]
	if !exists {
		return true
	}

	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	// Refill tokens once per minute
	if time.Since(limiter.lastRefill) >= time.Minute {
		limiter.tokens = limiter.maxTokens
		limiter.lastRefill = time.Now()
	}

	if limiter.tokens <= 0 {
		return false
	}
	limiter.tokens--
	return true
}

// recordResult updates metrics and health for one provider call
func (r *Router) recordResult(provider Provider, capability Capability, resp *Response, err error, duration time.Duration) {
	status := "success"
	inputTokens, outputTokens := 0, 0
	cost := 0.0

	if err != nil {
		status = "error"
	} else if resp != nil && resp.Usage != nil {
		inputTokens = resp.Usage.PromptTokens
		outputTokens = resp.Usage.CompletionTokens
		cost = resp.Usage.Cost
	}

	metrics.Get().RecordAIRequest(string(provider), string(capability), status, duration, inputTokens, outputTokens, cost)

	if err == nil {
		r.setHealth(provider, true)
	}
}

func (r *Router) setHealth(provider Provider, healthy bool) {
	r.mu.Lock()
	r.healthCheck[provider] = healthy
	r.mu.Unlock()

	v := 0.0
	if healthy {
		v = 1.0
	}
	metrics.Get().AIProviderHealth.WithLabelValues(string(provider)).Set(v)
}

// GetHealthStatus returns the current health map
func (r *Router) GetHealthStatus() map[Provider]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := make(map[Provider]bool, len(r.healthCheck))
	for p, h := range r.healthCheck {
		status[p] = h
	}
	return status
}

// GetUsage returns usage statistics for all providers
func (r *Router) GetUsage() map[Provider]*ProviderUsage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	usage := make(map[Provider]*ProviderUsage, len(r.clients))
	for p, c := range r.clients {
		usage[p] = c.GetUsage()
	}
	return usage
}

// monitorHealth periodically probes each provider
func (r *Router) monitorHealth() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		r.mu.RLock()
		clients := make(map[Provider]Client, len(r.clients))
		for p, c := range r.clients {
			clients[p] = c
		}
		r.mu.RUnlock()

		for provider, client := range clients {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := client.Health(ctx)
			cancel()

			r.setHealth(provider, err == nil)
			if err != nil {
				logging.S().Warnf("Provider %s health check failed: %v", provider, err)
			}
		}
	}
}
