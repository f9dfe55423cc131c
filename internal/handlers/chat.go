package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"genome-ai/internal/ai"
	"genome-ai/internal/logging"
	"genome-ai/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// imageKeywords trigger image generation alongside the chat reply
var imageKeywords = []string{
	"create image", "generate image", "make image",
	"create photo", "generate photo", "make photo",
	"design post", "create visual", "generate visual",
	"make a picture", "create picture", "image of",
	"photo of", "picture of", "graphic of",
}

func detectImageRequest(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range imageKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// detectPlatform classifies a brand handle by its URL
func detectPlatform(brandHandle string) string {
	lower := strings.ToLower(brandHandle)
	if strings.Contains(lower, "twitter.com") || strings.Contains(lower, "x.com") {
		return "Twitter/X"
	}
	return "Instagram"
}

func buildChatSystemPrompt(brandHandle string) string {
	platform := detectPlatform(brandHandle)

	return fmt.Sprintf(`You are Genome AI - a personal marketing strategist and brand assistant for %s.

CRITICAL: This is a **%s** account. When providing:
- Competitor information: Use %s handles ONLY
- Links: Provide %s URLs ONLY
- Examples: All examples must be %s-specific
- Strategy: Tailor all advice for %s best practices

YOUR ROLE:
You are an expert marketing strategist with deep knowledge of this brand's DNA, audience, competitors, and content performance. You provide actionable, data-driven insights and create ready-to-use marketing content.

YOUR CAPABILITIES:
1. Brand Strategy - Analyze brand positioning, voice, and growth opportunities
2. Content Creation - Generate %s posts, captions, campaigns
3. Image Generation - Create professional visual content (say "I'll generate an image" when requested)
4. Audience Insights - Explain audience segments, preferences, and behaviors
5. Competitor Analysis - Provide competitor lists with REAL, WORKING links to major brands
6. Predictive Analytics - Forecast engagement, ROI, and campaign performance
7. Report Generation - Create custom strategy reports on demand

COMPETITOR ANALYSIS RULES:
When users ask about competitors:
1. ONLY suggest MAJOR, WELL-KNOWN brands you're 99%% confident exist
2. Provide DIRECT, CLICKABLE links
3. Format with REAL links (Instagram: https://www.instagram.com/HANDLE)
4. Include: follower count estimate, verification status, weakness, and opportunity

RESPONSE STYLE:
- Keep answers concise but comprehensive
- Always provide specific, actionable recommendations
- Use bullet points and markdown for clarity
- Include metrics and data when relevant
- Suggest next steps proactively

When users ask to generate images/visuals, respond with detailed description of what you'll create, and the system will generate it.`,
		brandHandle, platform, platform, platform, platform, platform, platform)
}

// InitChat starts a brand strategist session. The session row is the
// canonical transcript; clients only render what the server returns.
func (h *Handler) InitChat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		BrandHandle string `json:"brandHandle"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.BrandHandle) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Brand handle is required"})
		return
	}

	platform := detectPlatform(req.BrandHandle)
	welcomeMessage := fmt.Sprintf(`Hi! I'm your personal AI strategist for **%s**.

I can help you with:
- Content creation (%s posts, captions, campaigns)
- Audience insights and personas
- Competitor analysis with links
- Growth strategies
- Engagement predictions
- Weekly content planning

What would you like to work on today?`, req.BrandHandle, platform)

	session := &models.ChatSession{
		ID:          uuid.New().String(),
		UserID:      userID,
		BrandHandle: req.BrandHandle,
		Platform:    platform,
		Messages: []models.ChatMessage{
			{
				ID:        uuid.New().String(),
				Role:      "assistant",
				Content:   welcomeMessage,
				Timestamp: time.Now(),
			},
		},
	}
	if err := h.DB.Create(session).Error; err != nil {
		logging.L().Error("Failed to persist chat session", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId":      session.ID,
		"brandHandle":    req.BrandHandle,
		"welcomeMessage": welcomeMessage,
		"platform":       platform,
	})
}

// ChatMessage handles one turn of the strategist conversation. History
// comes from the stored session, not the client.
func (h *Handler) ChatMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		SessionID   string `json:"sessionId"`
		BrandHandle string `json:"brandHandle"`
		Message     string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" || strings.TrimSpace(req.BrandHandle) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message and brand handle are required"})
		return
	}
	if len(req.Message) > ai.MaxPromptLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is too long"})
		return
	}

	var session models.ChatSession
	haveSession := false
	if req.SessionID != "" {
		if err := h.DB.Where("id = ? AND user_id = ?", req.SessionID, userID).First(&session).Error; err == nil {
			haveSession = true
		}
	}

	systemPrompt := buildChatSystemPrompt(req.BrandHandle)

	// stored transcript plus the new message, user/assistant turns only
	var messages []ai.Message
	if haveSession {
		for _, m := range session.Messages {
			if m.Role == "user" || m.Role == "assistant" {
				messages = append(messages, ai.Message{Role: m.Role, Content: m.Content})
			}
		}
	}
	messages = append(messages, ai.Message{Role: "user", Content: req.Message})

	isImageRequest := detectImageRequest(req.Message)

	response, err := h.AI.GenerateText(c.Request.Context(), systemPrompt, messages)
	if err != nil {
		h.respondGenerationError(c, err, "Failed to process message")
		return
	}

	var imageURL interface{}
	if isImageRequest {
		imagePrompt := fmt.Sprintf("Professional social media ad design for %s: %s. High quality, modern design, professional marketing content.",
			req.BrandHandle, req.Message)
		if url, imgErr := h.AI.GenerateImage(c.Request.Context(), imagePrompt); imgErr != nil {
			logging.L().Warn("Chat image generation failed", zap.Error(imgErr))
		} else {
			imageURL = url
		}
	}

	if haveSession {
		now := time.Now()
		session.Messages = append(session.Messages,
			models.ChatMessage{ID: uuid.New().String(), Role: "user", Content: req.Message, Timestamp: now},
		)
		assistantMsg := models.ChatMessage{ID: uuid.New().String(), Role: "assistant", Content: response, Timestamp: now}
		if s, ok := imageURL.(string); ok {
			assistantMsg.ImageURL = s
		}
		session.Messages = append(session.Messages, assistantMsg)

		if err := h.DB.Save(&session).Error; err != nil {
			logging.L().Error("Failed to persist chat transcript",
				zap.String("session_id", session.ID), zap.Error(err))
		}
	}

	actionType := "general_chat"
	if isImageRequest {
		actionType = "generate_image"
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId":  req.SessionID,
		"response":   response,
		"imageUrl":   imageURL,
		"actionType": actionType,
	})
}

// GetChatSessions lists the user's sessions, newest first
func (h *Handler) GetChatSessions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var sessions []models.ChatSession
	if err := h.DB.Where("user_id = ?", userID).Order("updated_at DESC").Limit(50).Find(&sessions).Error; err != nil {
		logging.L().Error("Failed to list chat sessions", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"sessions": []models.ChatSession{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetChatSession returns one session with its full transcript
func (h *Handler) GetChatSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var session models.ChatSession
	if err := h.DB.Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&session).Error; err != nil {
		c.JSON(http.StatusNotFound, StandardResponse{
			Success: false,
			Error:   "Session not found",
			Code:    "SESSION_NOT_FOUND",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}
