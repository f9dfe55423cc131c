package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// OpenAIClient implements the OpenAI API client for chat, JSON-mode
// completions, and DALL-E image generation
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	usage      *ProviderUsage
	usageMu    sync.Mutex
}

// OpenAI API request/response structures
type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Temperature    float32               `json:"temperature,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
	Stream         bool                  `json:"stream"`
}

type openAIResponseFormat struct {
	Type string `json:"type"` // json_object
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

type openAIImageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size"`
	Quality string `json:"quality,omitempty"`
}

type openAIImageResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewOpenAIClient creates a new OpenAI API client
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: "https://api.openai.com/v1",
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		usage: &ProviderUsage{
			Provider: ProviderOpenAI,
			LastUsed: time.Now(),
		},
	}
}

// Generate implements the Client interface for OpenAI
func (o *OpenAIClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	openAIReq := &openAIRequest{
		Model:       "gpt-4o",
		Messages:    o.buildMessages(req),
		MaxTokens:   o.getMaxTokens(req),
		Temperature: req.Temperature,
		Stream:      false,
	}

	// JSON mode guarantees a parseable object without brace-hunting
	if req.Capability == CapabilityJSON {
		openAIReq.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	resp, err := o.makeRequest(ctx, openAIReq)
	if err != nil {
		o.recordError()
		return &Response{
			ID:        req.ID,
			Provider:  ProviderOpenAI,
			Error:     err.Error(),
			Duration:  time.Since(startTime),
			CreatedAt: time.Now(),
		}, err
	}

	cost := o.calculateCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	o.updateUsage(resp.Usage.TotalTokens, cost, time.Since(startTime))

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &Response{
		ID:       req.ID,
		Provider: ProviderOpenAI,
		Content:  content,
		Usage: &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
			Cost:             cost,
		},
		Duration:  time.Since(startTime),
		CreatedAt: time.Now(),
	}, nil
}

// GenerateImage generates an image with DALL-E 3 and returns its URL
func (o *OpenAIClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	imageReq := &openAIImageRequest{
		Model:   "dall-e-3",
		Prompt:  prompt,
		N:       1,
		Size:    "1024x1024",
		Quality: "standard",
	}

	jsonData, err := json.Marshal(imageReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal image request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/images/generations", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", o.apiKey))

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		o.recordError()
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		o.recordError()
		return "", fmt.Errorf("image API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var imageResp openAIImageResponse
	if err := json.Unmarshal(body, &imageResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal image response: %w", err)
	}

	if imageResp.Error != nil {
		o.recordError()
		return "", fmt.Errorf("OpenAI image error: %s", imageResp.Error.Message)
	}

	if len(imageResp.Data) == 0 || imageResp.Data[0].URL == "" {
		return "", fmt.Errorf("image API returned no image")
	}

	return imageResp.Data[0].URL, nil
}

// buildMessages creates the message array for the OpenAI API
func (o *OpenAIClient) buildMessages(req *Request) []openAIMessage {
	messages := []openAIMessage{}

	systemPrompt := req.SystemPrompt
	if systemPrompt == "" && req.Capability == CapabilityJSON {
		systemPrompt = "You are a helpful assistant that always responds with valid JSON. Return only the JSON object, no markdown or explanation."
	}
	if systemPrompt != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: systemPrompt})
	}

	for _, m := range req.Messages {
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		messages = append(messages, openAIMessage{Role: m.Role, Content: m.Content})
	}

	if req.Prompt != "" {
		messages = append(messages, openAIMessage{Role: "user", Content: req.Prompt})
	}

	return messages
}

// makeRequest sends an HTTP request to the OpenAI chat completions API
func (o *OpenAIClient) makeRequest(ctx context.Context, req *openAIRequest) (*openAIResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", o.apiKey))

	resp, err := o.httpClient.Do(httpReq)
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

	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if openAIResp.Error != nil {
		return nil, fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
	}

	return &openAIResp, nil
}

// GetCapabilities returns capabilities OpenAI supports
func (o *OpenAIClient) GetCapabilities() []Capability {
	return []Capability{
		CapabilityChat,
		CapabilityJSON,
		CapabilityImage,
	}
}

// GetProvider returns the provider identifier
func (o *OpenAIClient) GetProvider() Provider {
	return ProviderOpenAI
}

// Health checks if the OpenAI API is accessible
func (o *OpenAIClient) Health(ctx context.Context) error {
	testReq := &openAIRequest{
		Model: "gpt-4o",
		Messages: []openAIMessage{
			{Role: "user", Content: "Hello"},
		},
		MaxTokens: 5,
	}

	_, err := o.makeRequest(ctx, testReq)
	return err
}

// GetUsage returns current usage statistics
func (o *OpenAIClient) GetUsage() *ProviderUsage {
	o.usageMu.Lock()
	defer o.usageMu.Unlock()
	usage := *o.usage
	return &usage
}

// getMaxTokens determines the token budget for a request
func (o *OpenAIClient) getMaxTokens(req *Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	switch req.Capability {
	case CapabilityJSON:
		return 4000
	case CapabilityChat:
		return 2000
	default:
		return 2000
	}
}

// calculateCost estimates the dollar cost for gpt-4o token usage
func (o *OpenAIClient) calculateCost(inputTokens, outputTokens int) float64 {
	// gpt-4o pricing: $2.50 per 1M input, $10.00 per 1M output
	return float64(inputTokens)*2.50/1_000_000 + float64(outputTokens)*10.00/1_000_000
}

// updateUsage updates usage statistics after a successful request
func (o *OpenAIClient) updateUsage(totalTokens int, cost float64, duration time.Duration) {
	o.usageMu.Lock()
	defer o.usageMu.Unlock()

	o.usage.RequestCount++
	o.usage.TotalTokens += int64(totalTokens)
	o.usage.TotalCost += cost
	o.usage.LastUsed = time.Now()

	// Running average latency in milliseconds
	latencyMs := float64(duration.Milliseconds())
	if o.usage.AvgLatency == 0 {
		o.usage.AvgLatency = latencyMs
	} else {
		o.usage.AvgLatency = (o.usage.AvgLatency*float64(o.usage.RequestCount-1) + latencyMs) / float64(o.usage.RequestCount)
	}
}

func (o *OpenAIClient) recordError() {
	o.usageMu.Lock()
	defer o.usageMu.Unlock()
	o.usage.ErrorCount++
}
