package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"genome-ai/internal/ai"
	"genome-ai/internal/logging"
	"genome-ai/internal/metrics"
	"genome-ai/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// The four analysis stages run sequentially: each prompt feeds on the
// output of the previous one.

const brandDNAPromptTemplate = `Analyze this brand and extract its DNA: "%s"

Provide a comprehensive brand DNA analysis covering:
1. BRAND PERSONALITY - Tone & Voice, Core Values, Brand Archetype
2. POSITIONING - Market Position, Unique Value Proposition, Differentiation Strategy
3. TARGET AUDIENCE - Primary Demographics, Psychographics, Pain Points Addressed
4. VISUAL IDENTITY - Color Psychology, Design Language, Brand Aesthetics
5. MESSAGING STRATEGY - Key Messages, Communication Style, Emotional Appeal

Return as JSON with these exact keys:
{
  "personality": {"tone": "", "values": [], "archetype": ""},
  "positioning": {"market_position": "", "uvp": "", "differentiation": ""},
  "audience": {"demographics": "", "psychographics": "", "pain_points": []},
  "visual": {"colors": [], "design_language": "", "aesthetics": ""},
  "messaging": {"key_messages": [], "style": "", "emotional_appeal": ""}
}`

const competitorPromptTemplate = `Based on this brand analysis, identify REAL competitors and their weaknesses:

Brand: %s
Positioning: %s

IMPORTANT: You MUST provide REAL, ACTUAL company/brand names that exist in the market. Do NOT use placeholder names like "BrandX", "BrandY", "CompetitorA" etc.

For example:
- If analyzing a sportswear brand, competitors might be: Nike, Adidas, Puma, Under Armour
- If analyzing a tech company, competitors might be: Apple, Google, Microsoft, Samsung
- If analyzing a coffee brand, competitors might be: Starbucks, Dunkin, Peet's Coffee

Provide:
1. Top 4 REAL direct competitors with their ACTUAL brand names and specific weaknesses
2. Market gaps/opportunities in this industry
3. Competitive advantages to leverage

Return as JSON:
{
  "competitors": [{"name": "Real Brand Name", "weakness": "Specific weakness", "market_share": "estimated %%"}],
  "market_gaps": ["Specific gap 1", "Specific gap 2"],
  "opportunities": ["Opportunity 1", "Opportunity 2", "Opportunity 3"],
  "competitive_advantages": ["Advantage 1", "Advantage 2"]
}`

const roadmapPromptTemplate = `Create a 90-day growth roadmap for this brand:

Brand DNA:
%s

Market Opportunities:
%s

Return JSON with this EXACT structure:
{
  "month_1": {
    "title": "Quick Wins",
    "priorities": ["Priority 1", "Priority 2", "Priority 3"]
  },
  "month_2": {
    "title": "Momentum Building",
    "priorities": ["Priority 1", "Priority 2", "Priority 3"]
  },
  "month_3": {
    "title": "Scaling",
    "priorities": ["Priority 1", "Priority 2", "Priority 3"]
  },
  "key_metrics": ["Metric 1", "Metric 2"],
  "resources": ["Resource 1", "Resource 2"]
}`

const contentStrategyPromptTemplate = `Create a content strategy framework for this brand:

Brand DNA:
Tone: %s
Values: %s
Target Audience: %s

Return JSON with this EXACT structure:
{
  "content_pillars": [
    {"name": "Pillar Name 1", "description": "Description of this content pillar"},
    {"name": "Pillar Name 2", "description": "Description of this content pillar"},
    {"name": "Pillar Name 3", "description": "Description of this content pillar"}
  ],
  "content_formats": ["Blog posts", "Videos", "Social media"],
  "posting_frequency": {
    "instagram": "3-4 times per week",
    "twitter": "Daily",
    "blog": "2 times per week"
  },
  "platform_strategies": [
    {"platform": "Instagram", "strategy": "Strategy description"},
    {"platform": "Twitter", "strategy": "Strategy description"}
  ]
}`

// AnalyzeBrand runs the full four-stage brand genome analysis
func (h *Handler) AnalyzeBrand(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		BrandInput string `json:"brandInput"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.BrandInput) == "" {
		c.JSON(http.StatusBadRequest, StandardResponse{
			Success: false,
			Error:   "Brand input is required",
			Code:    "MISSING_BRAND_INPUT",
		})
		return
	}
	if len(req.BrandInput) > ai.MaxPromptLength {
		c.JSON(http.StatusBadRequest, StandardResponse{
			Success: false,
			Error:   "Brand input is too long",
			Code:    "PROMPT_TOO_LONG",
		})
		return
	}

	jobID := h.Jobs.Start(userID, "genome_analysis")
	ctx := c.Request.Context()

	h.Jobs.Progress(jobID, 5, "brand_dna")
	brandDNA, err := h.AI.GenerateJSON(ctx, fmt.Sprintf(brandDNAPromptTemplate, req.BrandInput))
	if err != nil {
		h.Jobs.Fail(jobID, err)
		h.respondGenerationError(c, err, "Failed to analyze brand")
		return
	}

	h.Jobs.Progress(jobID, 30, "competitors")
	competitors, err := h.AI.GenerateJSON(ctx, fmt.Sprintf(competitorPromptTemplate,
		req.BrandInput, nestedString(brandDNA, "positioning", "market_position")))
	if err != nil {
		h.Jobs.Fail(jobID, err)
		h.respondGenerationError(c, err, "Failed to analyze brand")
		return
	}

	h.Jobs.Progress(jobID, 55, "roadmap")
	roadmap, err := h.AI.GenerateJSON(ctx, fmt.Sprintf(roadmapPromptTemplate,
		prettyJSON(brandDNA), prettyJSON(competitors["opportunities"])))
	if err != nil {
		h.Jobs.Fail(jobID, err)
		h.respondGenerationError(c, err, "Failed to analyze brand")
		return
	}

	h.Jobs.Progress(jobID, 80, "content_strategy")
	contentStrategy, err := h.AI.GenerateJSON(ctx, fmt.Sprintf(contentStrategyPromptTemplate,
		nestedStringDefault(brandDNA, "Professional", "personality", "tone"),
		strings.Join(nestedStrings(brandDNA, "personality", "values"), ", "),
		nestedStringDefault(brandDNA, "N/A", "audience", "demographics")))
	if err != nil {
		h.Jobs.Fail(jobID, err)
		h.respondGenerationError(c, err, "Failed to analyze brand")
		return
	}

	report := &models.GenomeReport{
		UserID:          userID,
		BrandInput:      req.BrandInput,
		BrandDNA:        brandDNA,
		Competitors:     competitors,
		GrowthRoadmap:   roadmap,
		ContentStrategy: contentStrategy,
		Status:          "completed",
	}
	h.Persist.Save("genome_report", report)
	metrics.Get().ReportsGeneratedTotal.WithLabelValues("genome").Inc()

	result := gin.H{
		"brandDna":        brandDNA,
		"competitors":     competitors,
		"growthRoadmap":   roadmap,
		"contentStrategy": contentStrategy,
		"pdfUrl":          nil,
	}
	h.Jobs.Complete(jobID, result)

	result["jobId"] = jobID
	c.JSON(http.StatusOK, result)
}

// GetGenomeReports lists the user's past analyses, newest first
func (h *Handler) GetGenomeReports(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var reports []models.GenomeReport
	if err := h.DB.Where("user_id = ?", userID).Order("created_at DESC").Limit(20).Find(&reports).Error; err != nil {
		logging.L().Error("Failed to list genome reports", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"reports": []models.GenomeReport{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// respondGenerationError maps provider failures to the right status:
// 429 for rate limits, 500 otherwise.
func (h *Handler) respondGenerationError(c *gin.Context, err error, fallbackMsg string) {
	logging.L().Error("AI generation failed", zap.Error(err))

	if ai.IsRateLimited(err) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": "API rate limit exceeded. Please wait a moment and try again.",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMsg})
}

func prettyJSON(v interface{}) string {
	if v == nil {
		return "[]"
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// nestedString walks a JSON object by keys and returns the string leaf
func nestedString(m map[string]interface{}, keys ...string) string {
	return nestedStringDefault(m, "N/A", keys...)
}

func nestedStringDefault(m map[string]interface{}, def string, keys ...string) string {
	current := m
	for i, key := range keys {
		v, ok := current[key]
		if !ok {
			return def
		}
		if i == len(keys)-1 {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
			return def
		}
		next, ok := v.(map[string]interface{})
		if !ok {
			return def
		}
		current = next
	}
	return def
}

func nestedStrings(m map[string]interface{}, keys ...string) []string {
	current := m
	for i, key := range keys {
		v, ok := current[key]
		if !ok {
			return nil
		}
		if i == len(keys)-1 {
			list, ok := v.([]interface{})
			if !ok {
				return nil
			}
			out := make([]string, 0, len(list))
			for _, item := range list {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		}
		next, ok := v.(map[string]interface{})
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}
