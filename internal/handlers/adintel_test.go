package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"genome-ai/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdIntelligenceRequiredFields(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/ad-intelligence/generate",
		gin.H{"companyName": "Acme"}, "1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPost, "/api/v1/ad-intelligence/generate",
		gin.H{"productDescription": "widgets"}, "1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdIntelligenceReport(t *testing.T) {
	env := newTestEnv(t)
	env.ai.textResponse = "# Genome Ad Intelligence Report\n\n## 1. Executive Overview\n..."

	w := env.request(t, http.MethodPost, "/api/v1/ad-intelligence/generate",
		gin.H{"companyName": "Acme", "productDescription": "artisan widgets", "competitorCount": 4}, "1")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Contains(t, body["report"], "Genome Ad Intelligence Report")

	// all three concepts come back even when every image fails
	refs := body["creativeReferences"].([]interface{})
	require.Len(t, refs, 3)
	titles := []string{}
	for _, r := range refs {
		ref := r.(map[string]interface{})
		titles = append(titles, ref["title"].(string))
		assert.Nil(t, ref["imageBase64"], "failed slots are null, not dropped")
	}
	assert.Equal(t, []string{"Premium Product Shot", "Lifestyle Context", "Flat Lay Composition"}, titles)

	env.drain()
	var report models.AdIntelligenceReport
	require.NoError(t, env.db.Where("user_id = ?", 1).First(&report).Error)
	assert.Equal(t, 4, report.CompetitorCount)
}

func TestCreativeReferencePartialFailure(t *testing.T) {
	env := newTestEnv(t)
	env.ai.textResponse = "# Genome Ad Intelligence Report\n..."

	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG\r\n\x1a\nfake-png-bytes"))
	}))
	defer imageServer.Close()

	// only the lifestyle concept's image call fails
	env.ai.imageFn = func(prompt string) (string, error) {
		if strings.Contains(prompt, "lifestyle photography") {
			return "", errors.New("image model overloaded")
		}
		return imageServer.URL, nil
	}

	w := env.request(t, http.MethodPost, "/api/v1/ad-intelligence/generate",
		gin.H{"companyName": "Acme", "productDescription": "artisan widgets"}, "1")
	require.Equal(t, http.StatusOK, w.Code)

	refs := decodeBody(t, w)["creativeReferences"].([]interface{})
	require.Len(t, refs, 3)

	// the two surviving images land at their own indices, the failed
	// middle slot stays null with its metadata intact
	first := refs[0].(map[string]interface{})
	assert.True(t, strings.HasPrefix(first["imageBase64"].(string), "data:image/png;base64,"))

	second := refs[1].(map[string]interface{})
	assert.Nil(t, second["imageBase64"])
	assert.Equal(t, "Lifestyle Context", second["title"])

	third := refs[2].(map[string]interface{})
	assert.True(t, strings.HasPrefix(third["imageBase64"].(string), "data:image/png;base64,"))
	assert.Equal(t, "Flat Lay Composition", third["title"])
}

func TestAdIntelligenceCompetitorCountClamped(t *testing.T) {
	cases := map[int]int{0: 3, -2: 1, 1: 1, 3: 3, 5: 5, 99: 5}
	for in, want := range cases {
		env := newTestEnv(t)
		env.ai.textResponse = "report body"

		w := env.request(t, http.MethodPost, "/api/v1/ad-intelligence/generate",
			gin.H{"companyName": "Acme", "productDescription": "widgets", "competitorCount": in}, "1")
		require.Equal(t, http.StatusOK, w.Code)

		env.drain()
		var report models.AdIntelligenceReport
		require.NoError(t, env.db.First(&report).Error)
		assert.Equal(t, want, report.CompetitorCount, "competitorCount=%d", in)
	}
}

func TestAdIntelligenceProviderDown503(t *testing.T) {
	env := newTestEnv(t)
	env.ai.textErr = errors.New("connection refused")

	w := env.request(t, http.MethodPost, "/api/v1/ad-intelligence/generate",
		gin.H{"companyName": "Acme", "productDescription": "widgets"}, "1")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdIntelligenceEmptyReport502(t *testing.T) {
	env := newTestEnv(t)
	env.ai.textResponse = "   "

	w := env.request(t, http.MethodPost, "/api/v1/ad-intelligence/generate",
		gin.H{"companyName": "Acme", "productDescription": "widgets"}, "1")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	env.drain()
	var count int64
	env.db.Model(&models.AdIntelligenceReport{}).Count(&count)
	assert.Equal(t, int64(0), count)
}
