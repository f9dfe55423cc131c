package handlers

import (
	"net/http"

	"genome-ai/internal/jobs"

	"github.com/gin-gonic/gin"
)

// GetJob returns live progress for one generation job
func (h *Handler) GetJob(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	job, err := h.Jobs.Get(c.Param("id"), userID)
	if err == jobs.ErrNotFound {
		c.JSON(http.StatusNotFound, StandardResponse{
			Success: false,
			Error:   "Job not found",
			Code:    "JOB_NOT_FOUND",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": job})
}
