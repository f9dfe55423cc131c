package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"genome-ai/internal/logging"
	"genome-ai/internal/metrics"
	"genome-ai/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const discoveredAdsPromptTemplate = `Generate 3 realistic competitor ad examples for the keyword "%s".

For each ad, provide:
- Brand name (realistic competitor in this niche)
- Days running (7-90)
- Relevance score (6-10)
- Ad copy analysis

Return JSON:
{
  "ads": [
    {
      "brandName": "Competitor Name",
      "daysRunning": 45,
      "relevanceScore": 8,
      "adAnalysis": "Description of ad style and messaging"
    }
  ]
}`

const adVariationsPromptTemplate = `Create 3 ad variations for %s based on competitor analysis.

Competitor: %s
Keyword: %s
Business: %s

For each variation, provide different creative angles:
1. Emotional/Story-based
2. Benefit-focused/Direct
3. Social proof/Authority

Return JSON:
{
  "variations": [
    {
      "variationName": "Version 1 - Emotional",
      "creativeDirection": "Why this approach works",
      "adCopy": {
        "headline": "5-10 word headline",
        "primaryText": "125 char body copy",
        "description": "30 word description",
        "ctaButton": "Learn More"
      },
      "imagePrompt": "Detailed prompt for generating ad image"
    }
  ]
}`

type discoveredAd struct {
	BrandName      string
	DaysRunning    int
	RelevanceScore int
	AdAnalysis     string
}

// GenerateAds discovers competitor ads for a keyword and produces
// company-specific variations, with one generated image per ad.
func (h *Handler) GenerateAds(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Keyword             string `json:"keyword"`
		CompanyName         string `json:"companyName"`
		BusinessDescription string `json:"businessDescription"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Keyword) == "" || strings.TrimSpace(req.CompanyName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Keyword and company name are required"})
		return
	}

	jobID := h.Jobs.Start(userID, "ad_generation")
	ctx := c.Request.Context()

	h.Jobs.Progress(jobID, 10, "discovery")
	discovered, err := h.discoverAds(ctx, req.Keyword)
	if err != nil {
		h.Jobs.Fail(jobID, err)
		h.respondGenerationError(c, err, "Failed to generate ads")
		return
	}
	if len(discovered) > 3 {
		discovered = discovered[:3]
	}

	business := req.BusinessDescription
	if business == "" {
		business = req.CompanyName
	}

	// The ads fan out concurrently; each result lands at its index so
	// the response order matches discovery order.
	h.Jobs.Progress(jobID, 25, "variations")
	ads := make([]gin.H, len(discovered))
	adErrs := make([]error, len(discovered))

	var wg sync.WaitGroup
	for i, ad := range discovered {
		wg.Add(1)
		go func(i int, ad discoveredAd) {
			defer wg.Done()

			variations, err := h.AI.GenerateJSON(ctx, fmt.Sprintf(adVariationsPromptTemplate,
				req.CompanyName, ad.BrandName, req.Keyword, business))
			if err != nil {
				adErrs[i] = err
				return
			}

			rawVariations, _ := variations["variations"].([]interface{})
			if len(rawVariations) > 3 {
				rawVariations = rawVariations[:3]
			}

			withImages := make([]map[string]interface{}, 0, len(rawVariations))
			for vIndex, raw := range rawVariations {
				variation, ok := raw.(map[string]interface{})
				if !ok {
					continue
				}

				// Only the first variation gets an image; the rest reuse
				// its creative direction without spending image calls.
				var imageURL interface{}
				if vIndex == 0 {
					prompt, _ := variation["imagePrompt"].(string)
					if prompt == "" {
						headline := nestedString(variation, "adCopy", "headline")
						prompt = fmt.Sprintf("Professional Facebook/Instagram ad design for %s. %s business. Clean modern design with text: %q. Professional marketing ad, high quality.",
							req.CompanyName, req.Keyword, headline)
					}
					url, imgErr := h.AI.GenerateImage(ctx, prompt)
					if imgErr != nil {
						logging.L().Warn("Ad image generation failed", zap.Error(imgErr))
						metrics.Get().ImageFanoutFailures.Inc()
					} else {
						imageURL = url
					}
				}
				variation["imageUrl"] = imageURL
				withImages = append(withImages, variation)
			}

			ads[i] = gin.H{
				"id":             fmt.Sprintf("ad-%d", i),
				"brandName":      ad.BrandName,
				"daysRunning":    ad.DaysRunning,
				"relevanceScore": ad.RelevanceScore,
				"imageUrl":       nil,
				"variations":     withImages,
			}
			h.Jobs.Progress(jobID, 25+(i+1)*25, fmt.Sprintf("variations_%d", i+1))
		}(i, ad)
	}
	wg.Wait()

	for _, err := range adErrs {
		if err != nil {
			h.Jobs.Fail(jobID, err)
			h.respondGenerationError(c, err, "Failed to generate ads")
			return
		}
	}

	generation := &models.AdGeneration{
		UserID:              userID,
		Keyword:             req.Keyword,
		CompanyName:         req.CompanyName,
		BusinessDescription: req.BusinessDescription,
		Status:              "completed",
		Results:             map[string]interface{}{"ads": ads},
	}
	h.Persist.Save("ad_generation", generation)
	metrics.Get().ReportsGeneratedTotal.WithLabelValues("ads").Inc()

	result := gin.H{
		"keyword":       req.Keyword,
		"totalAdsFound": 50,
		"relevantAds":   len(ads),
		"ads":           ads,
		"pdfUrl":        nil,
	}
	h.Jobs.Complete(jobID, result)

	result["jobId"] = jobID
	c.JSON(http.StatusOK, result)
}

// discoverAds pulls real competitor ads from the ad archives when
// configured, and falls back to synthesized examples otherwise.
func (h *Handler) discoverAds(ctx context.Context, keyword string) ([]discoveredAd, error) {
	if h.AdLibrary != nil {
		real, err := h.AdLibrary.Search(ctx, keyword, 3)
		if err == nil && len(real) > 0 {
			ads := make([]discoveredAd, 0, len(real))
			for _, r := range real {
				ads = append(ads, discoveredAd{
					BrandName:      r.Advertiser,
					DaysRunning:    30,
					RelevanceScore: 8,
					AdAnalysis:     r.BodyText,
				})
			}
			return ads, nil
		}
		if err != nil {
			logging.L().Warn("Ad archive lookup failed, synthesizing examples",
				zap.String("keyword", keyword), zap.Error(err))
		}
	}

	obj, err := h.AI.GenerateJSON(ctx, fmt.Sprintf(discoveredAdsPromptTemplate, keyword))
	if err != nil {
		return nil, err
	}

	rawAds, _ := obj["ads"].([]interface{})
	ads := make([]discoveredAd, 0, len(rawAds))
	for _, raw := range rawAds {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		ad := discoveredAd{
			BrandName:      nestedString(item, "brandName"),
			DaysRunning:    intField(item, "daysRunning"),
			RelevanceScore: intField(item, "relevanceScore"),
			AdAnalysis:     nestedStringDefault(item, "", "adAnalysis"),
		}
		ads = append(ads, ad)
	}
	return ads, nil
}

func intField(m map[string]interface{}, key string) int {
	if f, ok := m[key].(float64); ok {
		return int(f)
	}
	return 0
}
