package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"genome-ai/internal/ai"
	"genome-ai/internal/logging"
	"genome-ai/internal/metrics"
	"genome-ai/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const adIntelSystemPrompt = `You are an elite enterprise-level AI marketing strategist, Instagram ad intelligence analyst, and performance marketing consultant.

Generate a complete professional marketing intelligence report in rich Markdown format.

RULES:
- Output MUST be clean, structured, professional report text in Markdown.
- Do NOT output JSON.
- Do NOT explain your reasoning.
- Do NOT include commentary outside the report.
- Use clear section headings with proper Markdown hierarchy.
- Keep tone executive-level and strategic.
- No emojis.
- Use REAL brand names for competitors - never use placeholders like "BrandX" or "CompetitorA".
- Be specific with data, percentages, and actionable recommendations.
- Use bullet points, bold text, and tables where appropriate.`

// creativeConcept is one of the three fixed reference-image briefs
type creativeConcept struct {
	Title       string
	Description string
	Prompt      string
	Style       string
	Platform    string
}

func creativeConcepts(companyName, productDescription string) []creativeConcept {
	return []creativeConcept{
		{
			Title:       "Premium Product Shot",
			Description: fmt.Sprintf("Studio-quality product photography for %s. Clean minimalist composition with professional lighting, perfect for Instagram feed ads.", companyName),
			Prompt:      fmt.Sprintf("Ultra high-end commercial product photography for %s. Shot on white seamless background with dramatic studio lighting. Clean minimalist composition, soft shadows, professional color grading. Shot with a Canon EOS R5, 85mm lens, f/2.8. No text, no logos, no words, no letters, no watermarks. Pure product photography only. Photorealistic, magazine quality, 8K detail.", productDescription),
			Style:       "Premium Minimalist",
			Platform:    "Instagram Feed",
		},
		{
			Title:       "Lifestyle Context",
			Description: fmt.Sprintf("Aspirational lifestyle photography showing %s's product in a real-world setting with warm, authentic visual storytelling.", companyName),
			Prompt:      fmt.Sprintf("Professional lifestyle photography for %s in an aspirational real-world setting. Golden hour natural lighting, shallow depth of field, warm color tones. Product naturally integrated into a beautiful scene with an attractive model or elegant environment. Shot by a professional photographer for a luxury magazine editorial. No text, no logos, no words, no letters, no watermarks, no overlays. Pure photography only. Photorealistic, cinematic quality.", productDescription),
			Style:       "Lifestyle Editorial",
			Platform:    "Instagram Story",
		},
		{
			Title:       "Flat Lay Composition",
			Description: fmt.Sprintf("Curated flat lay photography for %s featuring the product alongside complementary accessories in an aesthetically pleasing arrangement.", companyName),
			Prompt:      fmt.Sprintf("Professional flat lay photography for %s. Overhead shot of product beautifully arranged with complementary props and accessories on a clean marble or linen surface. Soft natural lighting from a window, pastel and neutral tones, Instagram-worthy aesthetic composition. Shot for a high-end e-commerce brand lookbook. No text, no logos, no words, no letters, no watermarks. Pure photography only. Photorealistic, editorial quality.", productDescription),
			Style:       "Curated Flat Lay",
			Platform:    "Instagram Feed",
		},
	}
}

// CreativeReference is one generated reference image for the report
type CreativeReference struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageBase64 *string `json:"imageBase64"`
	Style       string  `json:"style"`
	Platform    string  `json:"platform"`
}

// GenerateAdIntelligence produces the markdown intelligence report plus
// three creative reference images.
func (h *Handler) GenerateAdIntelligence(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		CompanyName        string `json:"companyName"`
		ProductDescription string `json:"productDescription"`
		TargetAudience     string `json:"targetAudience"`
		CompetitorCount    int    `json:"competitorCount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.CompanyName) == "" || strings.TrimSpace(req.ProductDescription) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Company name and product description are required"})
		return
	}

	numCompetitors := req.CompetitorCount
	if numCompetitors == 0 {
		numCompetitors = 3
	}
	if numCompetitors < 1 {
		numCompetitors = 1
	}
	if numCompetitors > 5 {
		numCompetitors = 5
	}

	jobID := h.Jobs.Start(userID, "ad_intelligence")
	ctx := c.Request.Context()

	h.Jobs.Progress(jobID, 10, "report")
	userMessage := buildAdIntelUserMessage(req.CompanyName, req.ProductDescription, req.TargetAudience, numCompetitors)

	reportMarkdown, err := h.AI.GenerateText(ctx, adIntelSystemPrompt, []ai.Message{
		{Role: "user", Content: userMessage},
	})
	if err != nil {
		h.Jobs.Fail(jobID, err)
		logging.L().Error("Ad intelligence generation failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "AI service is temporarily unavailable. Please check your API key configuration and try again.",
		})
		return
	}
	if strings.TrimSpace(reportMarkdown) == "" {
		h.Jobs.Fail(jobID, fmt.Errorf("empty report"))
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "AI returned an empty response. Please try again.",
		})
		return
	}

	h.Jobs.Progress(jobID, 60, "creative_references")
	creativeReferences := h.generateCreativeReferences(ctx, req.CompanyName, req.ProductDescription)

	report := &models.AdIntelligenceReport{
		UserID:             userID,
		CompanyName:        req.CompanyName,
		ProductDescription: req.ProductDescription,
		TargetAudience:     req.TargetAudience,
		CompetitorCount:    numCompetitors,
		ReportMarkdown:     reportMarkdown,
	}
	h.Persist.Save("ad_intelligence_report", report)
	metrics.Get().ReportsGeneratedTotal.WithLabelValues("ad_intelligence").Inc()

	result := gin.H{
		"report":             reportMarkdown,
		"creativeReferences": creativeReferences,
	}
	h.Jobs.Complete(jobID, result)

	result["jobId"] = jobID
	c.JSON(http.StatusOK, result)
}

// generateCreativeReferences fans out the three image concepts
// concurrently. A failed slot keeps its metadata with a nil image so
// the report renders with whatever succeeded.
func (h *Handler) generateCreativeReferences(ctx context.Context, companyName, productDescription string) []CreativeReference {
	concepts := creativeConcepts(companyName, productDescription)
	references := make([]CreativeReference, len(concepts))

	var wg sync.WaitGroup
	for i, concept := range concepts {
		references[i] = CreativeReference{
			Title:       concept.Title,
			Description: concept.Description,
			Style:       concept.Style,
			Platform:    concept.Platform,
		}

		wg.Add(1)
		go func(i int, prompt string) {
			defer wg.Done()

			imageURL, err := h.AI.GenerateImage(ctx, prompt)
			if err != nil {
				logging.L().Warn("Creative reference image failed", zap.Error(err))
				metrics.Get().ImageFanoutFailures.Inc()
				return
			}

			dataURI, err := h.AdLibrary.FetchImageDataURI(ctx, imageURL)
			if err != nil {
				logging.L().Warn("Creative reference download failed", zap.Error(err))
				metrics.Get().ImageFanoutFailures.Inc()
				return
			}
			references[i].ImageBase64 = &dataURI
		}(i, concept.Prompt)
	}
	wg.Wait()

	return references
}

func buildAdIntelUserMessage(companyName, productDescription, targetAudience string, numCompetitors int) string {
	today := time.Now().Format("January 2, 2006")
	audience := "**Target Audience**: General market audience"
	if targetAudience != "" {
		audience = fmt.Sprintf("**Target Audience**: %s", targetAudience)
	}

	return fmt.Sprintf(`Generate a comprehensive Ad Intelligence Report for:

**Company**: %s
**Product/Service**: %s
%s
**Number of Competitors to Analyze**: %d
**Report Date**: %s

Generate the report with this EXACT structure:

# Genome Ad Intelligence Report
**Brand:** %s
**Date:** %s

---

## 1. Executive Overview
Provide a concise executive summary of the Instagram ad landscape within this category, overall strategic positioning, and predicted competitive intensity. 3-4 paragraphs.

---

## 2. Competitor Ad Analysis
For each of the %d competitors, create a detailed subsection:

### Ad #[N]: [Real Competitor Brand Name]
- **Ad Strategy Summary**: Their messaging approach
- **Alignment with Campaign Objective**: How it serves their goals
- **Strengths**: What works well
- **Weaknesses**: Where their advertising falls short
- **Emotional Triggers Detected**: What emotions they target
- **Persuasion Techniques Used**: Specific techniques identified
- **Funnel Stage Classification**: TOFU / MOFU / BOFU
- **Conversion Probability Assessment**: Low / Moderate / High with reasoning
- **Estimated Success Outlook**: Low / Moderate / High

---

## 3. Instagram Creative & Design Intelligence
Analyze category-wide Instagram design patterns:
- **Visual Trends**: Current design patterns in this niche
- **Color Psychology Usage**: Colors that perform well and why
- **Typography Patterns**: Font styles and text overlay trends
- **Offer Presentation Style**: How offers and CTAs are framed
- **CTA Placement Effectiveness**: Where CTAs work best
- **Engagement Drivers**: What drives likes, comments, shares
- **Hashtag Strategy**: 15-20 relevant hashtags grouped by reach tier
- **Best Posting Times**: Based on audience behavior

---

## 4. Strategic Positioning & Opportunity Gap
- **Competitor Positioning Overview**: Where each competitor sits
- **Gap Against %s Positioning**: Specific gaps to exploit
- **Underserved Angles**: Messaging angles nobody is using
- **Market Opportunity Areas**: Untapped segments or channels
- **Strategic Recommendations**: 5 specific recommendations for higher conversion

---

## 5. Creative Ad Concepts for %s
Generate 3 detailed creative ad image concepts that %s should use:

### Concept [N]: [Creative Title]
- **Visual Composition**: Exact image layout, elements, and arrangement
- **Color Palette**: Specific hex codes and color strategy
- **Typography**: Font style, hierarchy, and text content
- **Hero Element**: Main visual focus (product shot, lifestyle, etc.)
- **CTA Design**: Button style, text, and placement
- **Emotional Tone**: The feeling the ad should evoke
- **Platform Format**: Instagram Feed / Story / Reel recommendation
- **Headline**: The primary ad headline
- **Body Copy**: 2-3 sentence supporting text
- **Why It Works**: Strategic reasoning for this creative direction

---

## 6. Performance Predictions & KPIs
- **Expected CTR Range**: Based on industry benchmarks
- **Estimated Engagement Rate**: Likes, comments, shares projection
- **Recommended A/B Test Variables**: What to test first
- **Budget Allocation Suggestion**: How to split spend across creatives
- **Optimization Timeline**: Week-by-week optimization plan

---

*Generated by Genome AI - AI-Powered Marketing Intelligence*

Generate the full report now with specific, actionable, data-driven insights.`,
		companyName, productDescription, audience, numCompetitors, today,
		companyName, today, numCompetitors, companyName, companyName, companyName)
}
