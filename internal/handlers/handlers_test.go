package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"genome-ai/internal/adlibrary"
	"genome-ai/internal/ai"
	"genome-ai/internal/audit"
	"genome-ai/internal/auth"
	"genome-ai/internal/cache"
	"genome-ai/internal/jobs"
	"genome-ai/internal/onboarding"
	"genome-ai/internal/persist"
	"genome-ai/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeGenerator scripts AI behavior for handler tests. Handlers fan
// generation out across goroutines, so all state is mutex-guarded.
type fakeGenerator struct {
	mu sync.Mutex

	jsonResponses []map[string]interface{}
	jsonErr       error
	jsonCalls     int

	textResponse string
	textErr      error

	imageURL string
	imageErr error
	// imageFn, when set, scripts the outcome per prompt and wins over
	// imageURL/imageErr
	imageFn func(prompt string) (string, error)
}

func (f *fakeGenerator) GenerateText(ctx context.Context, systemPrompt string, messages []ai.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.textResponse, nil
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, prompt string) (map[string]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.jsonErr != nil {
		return nil, f.jsonErr
	}
	idx := f.jsonCalls
	f.jsonCalls++
	if idx < len(f.jsonResponses) {
		return f.jsonResponses[idx], nil
	}
	return map[string]interface{}{}, nil
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	imageFn, imageErr, imageURL := f.imageFn, f.imageErr, f.imageURL
	f.mu.Unlock()

	if imageFn != nil {
		return imageFn(prompt)
	}
	if imageErr != nil {
		return "", imageErr
	}
	return imageURL, nil
}

type testEnv struct {
	handler *Handler
	router  *gin.Engine
	db      *gorm.DB
	writer  *persist.Writer
	ai      *fakeGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(
		&models.User{}, &models.ChatSession{}, &models.GenomeReport{},
		&models.AdGeneration{}, &models.AdIntelligenceReport{},
		&models.CompanyProfile{}, &models.ExecutedStrategy{},
		&models.StrategyTask{}, &models.AuditLog{},
	))

	fake := &fakeGenerator{imageErr: errors.New("images disabled in tests")}
	writer := persist.NewWriter(database, persist.WithBackoffBase(time.Millisecond))

	h := NewHandler(
		database, fake, auth.NewAuthService("test-secret"), writer,
		jobs.NewTracker(time.Hour), audit.NewService(writer),
		cache.New(context.Background(), ""), adlibrary.NewClient(adlibrary.Config{}),
		onboarding.NewRegistry(time.Hour),
	)

	router := gin.New()
	// test stand-in for the JWT middleware: X-Test-User sets the user
	router.Use(func(c *gin.Context) {
		if v := c.GetHeader("X-Test-User"); v != "" {
			id, _ := strconv.Atoi(v)
			c.Set("user_id", uint(id))
		}
		c.Next()
	})

	v1 := router.Group("/api/v1")
	v1.POST("/auth/register", h.Register)
	v1.POST("/auth/login", h.Login)
	v1.POST("/auth/refresh", h.RefreshToken)
	v1.GET("/me", h.GetCurrentUser)
	v1.POST("/genome/analyze", h.AnalyzeBrand)
	v1.GET("/genome/reports", h.GetGenomeReports)
	v1.POST("/ads/generate", h.GenerateAds)
	v1.POST("/ad-intelligence/generate", h.GenerateAdIntelligence)
	v1.POST("/chat/init", h.InitChat)
	v1.POST("/chat/message", h.ChatMessage)
	v1.GET("/chat/sessions", h.GetChatSessions)
	v1.GET("/chat/sessions/:id", h.GetChatSession)
	v1.GET("/enterprise/profile", h.GetCompanyProfile)
	v1.POST("/enterprise/profile", h.SaveCompanyProfile)
	v1.POST("/enterprise/command", h.EnterpriseCommand)
	v1.POST("/enterprise/execute", h.ExecuteStrategy)
	v1.GET("/enterprise/execute", h.GetExecutedStrategies)
	v1.GET("/enterprise/tasks", h.GetStrategyTasks)
	v1.PATCH("/enterprise/tasks/:id", h.UpdateStrategyTask)
	v1.GET("/onboarding", h.GetOnboardingState)
	v1.POST("/onboarding/answer", h.SubmitOnboardingAnswer)
	v1.POST("/onboarding/reset", h.ResetOnboarding)
	v1.GET("/stats", h.GetStats)
	v1.GET("/jobs/:id", h.GetJob)

	return &testEnv{handler: h, router: router, db: database, writer: writer, ai: fake}
}

// drain flushes the persistence side-channel so assertions can read rows
func (e *testEnv) drain() {
	e.writer.Close()
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/genome/analyze"},
		{http.MethodPost, "/api/v1/ads/generate"},
		{http.MethodPost, "/api/v1/ad-intelligence/generate"},
		{http.MethodPost, "/api/v1/chat/init"},
		{http.MethodPost, "/api/v1/enterprise/command"},
		{http.MethodGet, "/api/v1/stats"},
	}
	for _, p := range paths {
		w := env.request(t, p.method, p.path, gin.H{"brandInput": "x"}, "")
		require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", p.method, p.path)
	}

	// no AI call happens before the auth check
	require.Equal(t, 0, env.ai.jsonCalls)
}
