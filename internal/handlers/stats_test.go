package handlers

import (
	"net/http"
	"testing"
	"time"

	"genome-ai/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsEmptyAccount(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/v1/stats", nil, "1")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(0), body["chatsThisMonth"])
	assert.Equal(t, float64(0), body["reportsGenerated"])
	assert.Equal(t, float64(0), body["strategiesExecuted"])
	assert.Equal(t, float64(0), body["tasksCompleted"])
}

func TestStatsCounts(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.db.Create(&models.ChatSession{ID: "s1", UserID: 1, BrandHandle: "@a"}).Error)
	// last month's chat doesn't count
	old := models.ChatSession{ID: "s2", UserID: 1, BrandHandle: "@b"}
	require.NoError(t, env.db.Create(&old).Error)
	env.db.Model(&old).Update("created_at", time.Now().AddDate(0, -2, 0))

	require.NoError(t, env.db.Create(&models.GenomeReport{UserID: 1, BrandInput: "x"}).Error)
	require.NoError(t, env.db.Create(&models.GenomeReport{UserID: 1, BrandInput: "y"}).Error)
	require.NoError(t, env.db.Create(&models.ExecutedStrategy{UserID: 1, Prompt: "p"}).Error)
	require.NoError(t, env.db.Create(&models.StrategyTask{UserID: 1, StrategyID: 1, Activity: "a", Status: models.TaskStatusCompleted}).Error)
	require.NoError(t, env.db.Create(&models.StrategyTask{UserID: 1, StrategyID: 1, Activity: "b", Status: models.TaskStatusPending}).Error)

	// other users' rows never leak in
	require.NoError(t, env.db.Create(&models.GenomeReport{UserID: 2, BrandInput: "z"}).Error)

	w := env.request(t, http.MethodGet, "/api/v1/stats", nil, "1")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["chatsThisMonth"])
	assert.Equal(t, float64(2), body["reportsGenerated"])
	assert.Equal(t, float64(1), body["strategiesExecuted"])
	assert.Equal(t, float64(1), body["tasksCompleted"])
}

func TestStatsCached(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/v1/stats", nil, "1")
	require.Equal(t, http.StatusOK, w.Code)

	// new rows don't show until the cache entry expires
	require.NoError(t, env.db.Create(&models.GenomeReport{UserID: 1, BrandInput: "x"}).Error)

	w = env.request(t, http.MethodGet, "/api/v1/stats", nil, "1")
	body := decodeBody(t, w)
	assert.Equal(t, float64(0), body["reportsGenerated"])
}
