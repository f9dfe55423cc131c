package handlers

import (
	"net/http"

	"genome-ai/internal/logging"
	"genome-ai/internal/onboarding"
	"genome-ai/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type onboardingQuestion struct {
	Key    string `json:"key"`
	Prompt string `json:"prompt"`
	Multi  bool   `json:"multi"`
}

func questionView(q *onboarding.Question) *onboardingQuestion {
	if q == nil {
		return nil
	}
	return &onboardingQuestion{Key: q.Key, Prompt: q.Prompt, Multi: q.Multi}
}

// GetOnboardingState returns the question the interview is waiting on
func (h *Handler) GetOnboardingState(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	seq := h.Onboarding.Get(userID)
	c.JSON(http.StatusOK, gin.H{
		"question": questionView(seq.Current()),
		"complete": seq.Complete(),
		"total":    len(onboarding.CompanyProfileQuestions),
	})
}

// SubmitOnboardingAnswer records one answer. When the interview
// finishes, the assembled profile is upserted and the session cleared.
func (h *Handler) SubmitOnboardingAnswer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Answer string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Answer is required"})
		return
	}

	seq := h.Onboarding.Get(userID)
	result, err := seq.SubmitAnswer(req.Answer)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{
		"followUp": result.FollowUp,
		"index":    result.Index,
		"total":    result.Total,
		"complete": result.Complete,
		"question": questionView(result.NextQuestion),
	}

	if result.Complete {
		profile := seq.Finalize()
		if err := h.upsertProfile(userID, profile); err != nil {
			logging.L().Error("Failed to save onboarding profile", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile"})
			return
		}
		h.Onboarding.Reset(userID)
		response["profile"] = profile
	}

	c.JSON(http.StatusOK, response)
}

// ResetOnboarding discards the user's in-flight interview
func (h *Handler) ResetOnboarding(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	h.Onboarding.Reset(userID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) upsertProfile(userID uint, profile map[string]interface{}) error {
	var record models.CompanyProfile
	if err := h.DB.Where("user_id = ?", userID).First(&record).Error; err != nil {
		record = models.CompanyProfile{UserID: userID, Profile: profile}
		return h.DB.Create(&record).Error
	}
	record.Profile = profile
	return h.DB.Save(&record).Error
}
