package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// ErrImageUnsupported is returned by providers without an image model
var ErrImageUnsupported = errors.New("provider does not support image generation")

// GeminiClient implements the Google Gemini API client
type GeminiClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	usage      *ProviderUsage
	usageMu    sync.Mutex
}

// Gemini API request/response structures
type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
			Role string `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
		Index        int    `json:"index"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewGeminiClient creates a new Gemini API client
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent",
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		usage: &ProviderUsage{
			Provider: ProviderGemini,
			LastUsed: time.Now(),
		},
	}
}

// Generate implements the Client interface for Gemini
func (g *GeminiClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	geminiReq := g.buildRequest(req)

	resp, err := g.makeRequest(ctx, geminiReq)
	if err != nil {
		g.recordError()
		return &Response{
			ID:        req.ID,
			Provider:  ProviderGemini,
			Error:     err.Error(),
			Duration:  time.Since(startTime),
			CreatedAt: time.Now(),
		}, err
	}

	content := ""
	if len(resp.Candidates) > 0 {
		for _, part := range resp.Candidates[0].Content.Parts {
			content += part.Text
		}
	}

	cost := g.calculateCost(resp.UsageMetadata.PromptTokenCount, resp.UsageMetadata.CandidatesTokenCount)
	g.updateUsage(resp.UsageMetadata.TotalTokenCount, cost, time.Since(startTime))

	return &Response{
		ID:       req.ID,
		Provider: ProviderGemini,
		Content:  content,
		Usage: &Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
			Cost:             cost,
		},
		Duration:  time.Since(startTime),
		CreatedAt: time.Now(),
	}, nil
}

// GenerateImage is not available on the Gemini text API
func (g *GeminiClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return "", ErrImageUnsupported
}

// buildRequest converts a generic Request into the Gemini wire format.
// Gemini has no system role on this endpoint, so the system prompt is
// folded into the first user turn. JSON capability appends an explicit
// output instruction; the router brace-extracts the object afterwards.
func (g *GeminiClient) buildRequest(req *Request) *geminiRequest {
	var contents []geminiContent

	prefix := ""
	if req.SystemPrompt != "" {
		prefix = req.SystemPrompt + "\n\n"
	}

	for i, m := range req.Messages {
		role := m.Role
		if role == "assistant" {
			role = "model"
		}
		text := m.Content
		if i == 0 && role == "user" && prefix != "" {
			text = prefix + text
			prefix = ""
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: text}},
		})
	}

	if req.Prompt != "" {
		text := prefix + req.Prompt
		if req.Capability == CapabilityJSON {
			text += "\n\nReturn ONLY valid JSON (no markdown)."
		}
		contents = append(contents, geminiContent{
			Role:  "user",
			Parts: []geminiPart{{Text: text}},
		})
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4000
	}

	return &geminiRequest{
		Contents: contents,
		GenerationConfig: &geminiGenConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: maxTokens,
		},
	}
}

// makeRequest sends an HTTP request to the Gemini API
func (g *GeminiClient) makeRequest(ctx context.Context, req *geminiRequest) (*geminiResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", g.baseURL, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if geminiResp.Error != nil {
		return nil, fmt.Errorf("Gemini API error: %s", geminiResp.Error.Message)
	}

	return &geminiResp, nil
}

// GetCapabilities returns capabilities Gemini supports
func (g *GeminiClient) GetCapabilities() []Capability {
	return []Capability{
		CapabilityChat,
		CapabilityJSON,
	}
}

// GetProvider returns the provider identifier
func (g *GeminiClient) GetProvider() Provider {
	return ProviderGemini
}

// Health checks if the Gemini API is accessible
func (g *GeminiClient) Health(ctx context.Context) error {
	testReq := &geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: "Hello"}}},
		},
		GenerationConfig: &geminiGenConfig{MaxOutputTokens: 5},
	}

	_, err := g.makeRequest(ctx, testReq)
	return err
}

// GetUsage returns current usage statistics
func (g *GeminiClient) GetUsage() *ProviderUsage {
	g.usageMu.Lock()
	defer g.usageMu.Unlock()
	usage := *g.usage
	return &usage
}

// calculateCost estimates cost for gemini-2.0-flash token usage
func (g *GeminiClient) calculateCost(inputTokens, outputTokens int) float64 {
	// gemini-2.0-flash pricing: $0.10 per 1M input, $0.40 per 1M output
	return float64(inputTokens)*0.10/1_000_000 + float64(outputTokens)*0.40/1_000_000
}

func (g *GeminiClient) updateUsage(totalTokens int, cost float64, duration time.Duration) {
	g.usageMu.Lock()
	defer g.usageMu.Unlock()

	g.usage.RequestCount++
	g.usage.TotalTokens += int64(totalTokens)
	g.usage.TotalCost += cost
	g.usage.LastUsed = time.Now()

	latencyMs := float64(duration.Milliseconds())
	if g.usage.AvgLatency == 0 {
		g.usage.AvgLatency = latencyMs
	} else {
		g.usage.AvgLatency = (g.usage.AvgLatency*float64(g.usage.RequestCount-1) + latencyMs) / float64(g.usage.RequestCount)
	}
}

func (g *GeminiClient) recordError() {
	g.usageMu.Lock()
	defer g.usageMu.Unlock()
	g.usage.ErrorCount++
}
