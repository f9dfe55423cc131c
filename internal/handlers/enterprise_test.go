package handlers

import (
	"net/http"
	"strconv"
	"testing"

	"genome-ai/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyProfileLifecycle(t *testing.T) {
	env := newTestEnv(t)

	// empty at first
	w := env.request(t, http.MethodGet, "/api/v1/enterprise/profile", nil, "1")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Nil(t, body["profile"])
	assert.Equal(t, false, body["hasProfile"])

	// save
	profile := gin.H{"companyName": "Orbit Labs", "riskTolerance": "high", "products": []string{"CI"}}
	w = env.request(t, http.MethodPost, "/api/v1/enterprise/profile", gin.H{"profile": profile}, "1")
	require.Equal(t, http.StatusOK, w.Code)

	// read back
	w = env.request(t, http.MethodGet, "/api/v1/enterprise/profile", nil, "1")
	body = decodeBody(t, w)
	assert.Equal(t, true, body["hasProfile"])
	assert.Equal(t, "Orbit Labs", body["profile"].(map[string]interface{})["companyName"])

	// second save updates the same row
	w = env.request(t, http.MethodPost, "/api/v1/enterprise/profile",
		gin.H{"profile": gin.H{"companyName": "Orbit Labs v2"}}, "1")
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	env.db.Model(&models.CompanyProfile{}).Where("user_id = ?", 1).Count(&count)
	assert.Equal(t, int64(1), count, "upsert, not insert")
}

func TestSaveProfileRequiresBody(t *testing.T) {
	env := newTestEnv(t)
	w := env.request(t, http.MethodPost, "/api/v1/enterprise/profile", gin.H{}, "1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnterpriseCommandFiltersAgents(t *testing.T) {
	env := newTestEnv(t)
	env.ai.jsonResponses = []map[string]interface{}{{
		"selectedStrategy": "balanced",
		"agents": []interface{}{
			map[string]interface{}{"agent": "sales", "plan": "sell more"},
			map[string]interface{}{"agent": "hr", "plan": "hire more"},
			map[string]interface{}{"agent": "finance", "plan": "budget more"},
		},
	}}

	w := env.request(t, http.MethodPost, "/api/v1/enterprise/command",
		gin.H{"prompt": "Increase revenue 10%", "agents": []string{"sales", "finance"}}, "1")
	require.Equal(t, http.StatusOK, w.Code)

	agents := decodeBody(t, w)["agents"].([]interface{})
	require.Len(t, agents, 2, "inactive agent plans dropped")
	assert.Equal(t, "sales", agents[0].(map[string]interface{})["agent"])
	assert.Equal(t, "finance", agents[1].(map[string]interface{})["agent"])
}

func TestEnterpriseCommandRequiresPrompt(t *testing.T) {
	env := newTestEnv(t)
	w := env.request(t, http.MethodPost, "/api/v1/enterprise/command", gin.H{}, "1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, env.ai.jsonCalls)
}

func executePayload() gin.H {
	return gin.H{
		"prompt":            "Expand into EU",
		"selectedStrategy":  "balanced",
		"strategyDetails":   gin.H{"name": "Balanced Approach"},
		"totalBudgetImpact": "$4.5M",
		"headcountImpact":   "+6 FTEs",
		"approvalItems":     []gin.H{{"id": "budget", "title": "Budget Approval"}},
		"agents":            []gin.H{{"agent": "sales", "plan": "hire EU reps"}},
		"executionPhases": []gin.H{
			{"phase": 1, "name": "Foundation", "activities": []string{"Market research", "Legal setup"}},
			{"phase": 2, "name": "Execution", "activities": []string{"Hire team"}},
		},
	}
}

func TestExecuteStrategyCreatesTasksAndAudit(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/enterprise/execute", executePayload(), "1")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["savedToDatabase"])
	assert.Equal(t, float64(3), body["tasksCreated"], "one task per phase activity")

	var strategy models.ExecutedStrategy
	require.NoError(t, env.db.Where("user_id = ?", 1).First(&strategy).Error)
	assert.Equal(t, "active", strategy.Status)
	assert.Equal(t, "$4.5M", strategy.TotalBudgetImpact)

	var tasks []models.StrategyTask
	require.NoError(t, env.db.Where("strategy_id = ?", strategy.ID).Order("id").Find(&tasks).Error)
	require.Len(t, tasks, 3)
	assert.Equal(t, "Market research", tasks[0].Activity)
	assert.Equal(t, 1, tasks[0].PhaseNumber)
	assert.Equal(t, models.TaskStatusPending, tasks[0].Status)
	assert.Equal(t, "Hire team", tasks[2].Activity)
	assert.Equal(t, 2, tasks[2].PhaseNumber)

	env.drain()
	var entry models.AuditLog
	require.NoError(t, env.db.Where("user_id = ? AND action = ?", 1, "strategy_executed").First(&entry).Error)
	assert.Equal(t, "strategy", entry.ResourceType)
	assert.Equal(t, "Expand into EU", entry.Details["prompt"])
}

func TestTaskStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	env.request(t, http.MethodPost, "/api/v1/enterprise/execute", executePayload(), "1")

	var task models.StrategyTask
	require.NoError(t, env.db.First(&task).Error)

	// pending -> in_progress -> completed
	for _, status := range []string{models.TaskStatusInProgress, models.TaskStatusCompleted} {
		w := env.request(t, http.MethodPatch, "/api/v1/enterprise/tasks/"+itoa(task.ID),
			gin.H{"status": status}, "1")
		require.Equal(t, http.StatusOK, w.Code)
	}

	require.NoError(t, env.db.First(&task, task.ID).Error)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
}

func TestTaskStatusRejectsUnknown(t *testing.T) {
	env := newTestEnv(t)
	env.request(t, http.MethodPost, "/api/v1/enterprise/execute", executePayload(), "1")

	var task models.StrategyTask
	require.NoError(t, env.db.First(&task).Error)

	w := env.request(t, http.MethodPatch, "/api/v1/enterprise/tasks/"+itoa(task.ID),
		gin.H{"status": "done"}, "1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// other users can't touch the task
	w = env.request(t, http.MethodPatch, "/api/v1/enterprise/tasks/"+itoa(task.ID),
		gin.H{"status": models.TaskStatusCompleted}, "2")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStrategyTasksFilter(t *testing.T) {
	env := newTestEnv(t)
	env.request(t, http.MethodPost, "/api/v1/enterprise/execute", executePayload(), "1")
	env.request(t, http.MethodPost, "/api/v1/enterprise/execute", executePayload(), "1")

	w := env.request(t, http.MethodGet, "/api/v1/enterprise/tasks", nil, "1")
	require.Equal(t, http.StatusOK, w.Code)
	all := decodeBody(t, w)["tasks"].([]interface{})
	assert.Len(t, all, 6)

	var strategy models.ExecutedStrategy
	require.NoError(t, env.db.First(&strategy).Error)
	w = env.request(t, http.MethodGet, "/api/v1/enterprise/tasks?strategyId="+itoa(strategy.ID), nil, "1")
	filtered := decodeBody(t, w)["tasks"].([]interface{})
	assert.Len(t, filtered, 3)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestGetExecutedStrategies(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/v1/enterprise/execute", nil, "1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody(t, w)["strategies"])

	env.request(t, http.MethodPost, "/api/v1/enterprise/execute", executePayload(), "1")
	env.request(t, http.MethodPost, "/api/v1/enterprise/execute", executePayload(), "2")

	w = env.request(t, http.MethodGet, "/api/v1/enterprise/execute", nil, "1")
	require.Equal(t, http.StatusOK, w.Code)

	strategies := decodeBody(t, w)["strategies"].([]interface{})
	require.Len(t, strategies, 1)
	first := strategies[0].(map[string]interface{})
	assert.Equal(t, "balanced", first["selected_strategy"])
}
