package handlers

import (
	"fmt"
	"net/http"
	"time"

	"genome-ai/internal/logging"
	"genome-ai/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const statsCacheTTL = 30 * time.Second

// DashboardStats is the four-counter summary on the dashboard home
type DashboardStats struct {
	ChatsThisMonth     int64 `json:"chatsThisMonth"`
	ReportsGenerated   int64 `json:"reportsGenerated"`
	StrategiesExecuted int64 `json:"strategiesExecuted"`
	TasksCompleted     int64 `json:"tasksCompleted"`
}

// GetStats returns the dashboard counters. Each count is independent
// and best-effort: a failed query contributes zero, never an error.
func (h *Handler) GetStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("stats:%d", userID)
	var stats DashboardStats
	if h.Cache.Get(c.Request.Context(), cacheKey, &stats) {
		c.JSON(http.StatusOK, stats)
		return
	}

	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	if err := h.DB.Model(&models.ChatSession{}).
		Where("user_id = ? AND created_at >= ?", userID, startOfMonth).
		Count(&stats.ChatsThisMonth).Error; err != nil {
		logging.L().Warn("Chat count failed", zap.Error(err))
	}

	if err := h.DB.Model(&models.GenomeReport{}).
		Where("user_id = ?", userID).
		Count(&stats.ReportsGenerated).Error; err != nil {
		logging.L().Warn("Report count failed", zap.Error(err))
	}

	if err := h.DB.Model(&models.ExecutedStrategy{}).
		Where("user_id = ?", userID).
		Count(&stats.StrategiesExecuted).Error; err != nil {
		logging.L().Warn("Strategy count failed", zap.Error(err))
	}

	if err := h.DB.Model(&models.StrategyTask{}).
		Where("user_id = ? AND status = ?", userID, models.TaskStatusCompleted).
		Count(&stats.TasksCompleted).Error; err != nil {
		logging.L().Warn("Task count failed", zap.Error(err))
	}

	h.Cache.Set(c.Request.Context(), cacheKey, stats, statsCacheTTL)

	c.JSON(http.StatusOK, stats)
}
