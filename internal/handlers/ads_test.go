package handlers

import (
	"errors"
	"net/http"
	"testing"

	"genome-ai/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAdsRequiresKeywordAndCompany(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/ads/generate", gin.H{"keyword": "coffee"}, "1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPost, "/api/v1/ads/generate", gin.H{"companyName": "Acme"}, "1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, env.ai.jsonCalls)
}

func TestGenerateAdsFull(t *testing.T) {
	env := newTestEnv(t)

	// each fan-out goroutine mutates its response in place, so every
	// jsonResponses entry needs its own maps
	variations := func() map[string]interface{} {
		return map[string]interface{}{
			"variations": []interface{}{
				map[string]interface{}{
					"variationName": "Version 1 - Emotional",
					"imagePrompt":   "a warm scene",
					"adCopy":        map[string]interface{}{"headline": "Start your day right"},
				},
				map[string]interface{}{"variationName": "Version 2 - Direct"},
				map[string]interface{}{"variationName": "Version 3 - Social proof"},
			},
		}
	}
	env.ai.jsonResponses = []map[string]interface{}{
		{"ads": []interface{}{
			map[string]interface{}{"brandName": "Bean Box", "daysRunning": float64(45), "relevanceScore": float64(8), "adAnalysis": "warm tones"},
			map[string]interface{}{"brandName": "Atlas Coffee", "daysRunning": float64(30), "relevanceScore": float64(7)},
		}},
		variations(),
		variations(),
	}

	w := env.request(t, http.MethodPost, "/api/v1/ads/generate",
		gin.H{"keyword": "coffee", "companyName": "Acme Roasters"}, "1")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(50), body["totalAdsFound"])
	assert.Equal(t, float64(2), body["relevantAds"])

	ads := body["ads"].([]interface{})
	require.Len(t, ads, 2)

	first := ads[0].(map[string]interface{})
	assert.Equal(t, "ad-0", first["id"])
	assert.Equal(t, "Bean Box", first["brandName"])
	assert.Nil(t, first["imageUrl"], "discovered ad itself carries no image")

	vars := first["variations"].([]interface{})
	require.Len(t, vars, 3)
	// image generation is disabled in tests, so even the first
	// variation's slot stays null instead of failing the request
	for _, v := range vars {
		assert.Nil(t, v.(map[string]interface{})["imageUrl"])
	}

	env.drain()
	var gen models.AdGeneration
	require.NoError(t, env.db.Where("user_id = ?", 1).First(&gen).Error)
	assert.Equal(t, "coffee", gen.Keyword)
	assert.Equal(t, "completed", gen.Status)
}

func TestGenerateAdsRateLimit(t *testing.T) {
	env := newTestEnv(t)
	env.ai.jsonErr = errors.New("rate limit exceeded")

	w := env.request(t, http.MethodPost, "/api/v1/ads/generate",
		gin.H{"keyword": "coffee", "companyName": "Acme"}, "1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "rate limit")
}

func TestGenerateAdsCapsAtThree(t *testing.T) {
	env := newTestEnv(t)

	discovered := make([]interface{}, 5)
	for i := range discovered {
		discovered[i] = map[string]interface{}{"brandName": "Brand", "daysRunning": float64(10), "relevanceScore": float64(6)}
	}
	env.ai.jsonResponses = []map[string]interface{}{{"ads": discovered}}

	w := env.request(t, http.MethodPost, "/api/v1/ads/generate",
		gin.H{"keyword": "x", "companyName": "Acme"}, "1")
	require.Equal(t, http.StatusOK, w.Code)

	ads := decodeBody(t, w)["ads"].([]interface{})
	assert.Len(t, ads, 3)
}
