package ai

import (
	"context"
	"strings"
	"time"
)

// Provider represents the available AI providers
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// Capability represents different AI use cases
type Capability string

const (
	CapabilityChat  Capability = "chat"  // free-text strategist conversation
	CapabilityJSON  Capability = "json"  // structured report generation
	CapabilityImage Capability = "image" // ad creative generation
)

// Message is one role-tagged turn of a conversation
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// Request represents a request to an AI provider
type Request struct {
	ID           string        `json:"id"`
	Provider     Provider      `json:"provider,omitempty"` // explicit override
	Capability   Capability    `json:"capability"`
	Prompt       string        `json:"prompt"`
	SystemPrompt string        `json:"system_prompt,omitempty"`
	Messages     []Message     `json:"messages,omitempty"` // chat history, excludes system
	MaxTokens    int           `json:"max_tokens,omitempty"`
	Temperature  float32       `json:"temperature,omitempty"`
	UserID       uint          `json:"user_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	MaxWait      time.Duration `json:"max_wait,omitempty"`
}

// Response represents a response from an AI provider
type Response struct {
	ID        string        `json:"id"`
	Provider  Provider      `json:"provider"`
	Content   string        `json:"content"`
	ImageURL  string        `json:"image_url,omitempty"`
	Usage     *Usage        `json:"usage,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Usage represents token/cost usage for an AI request
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost"`
}

// Client interface that all AI providers must implement
type Client interface {
	// Generate generates text content based on the request
	Generate(ctx context.Context, req *Request) (*Response, error)

	// GenerateImage generates an image from a text prompt and returns its URL.
	// Providers without an image model return ErrImageUnsupported.
	GenerateImage(ctx context.Context, prompt string) (string, error)

	// GetCapabilities returns the capabilities this provider supports
	GetCapabilities() []Capability

	// GetProvider returns the provider identifier
	GetProvider() Provider

	// Health checks if the provider is healthy
	Health(ctx context.Context) error

	// GetUsage returns usage statistics
	GetUsage() *ProviderUsage
}

// ProviderUsage tracks usage statistics for a provider
type ProviderUsage struct {
	Provider     Provider  `json:"provider"`
	RequestCount int64     `json:"request_count"`
	TotalTokens  int64     `json:"total_tokens"`
	TotalCost    float64   `json:"total_cost"`
	AvgLatency   float64   `json:"avg_latency"`
	ErrorCount   int64     `json:"error_count"`
	LastUsed     time.Time `json:"last_used"`
}

// Generator is the surface handlers depend on. *Router implements it;
// tests substitute fakes.
type Generator interface {
	GenerateText(ctx context.Context, systemPrompt string, messages []Message) (string, error)
	GenerateJSON(ctx context.Context, prompt string) (map[string]interface{}, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Request size limits
const (
	MaxPromptLength = 100_000
)

// IsRateLimited reports whether a provider error looks like a quota or
// rate-limit rejection. Providers do not expose a typed error for this,
// so detection is by substring as the upstream payloads are stable.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "rate_limit")
}
