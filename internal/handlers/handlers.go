// Genome AI API Handlers
// REST handlers for the marketing intelligence dashboard

package handlers

import (
	"net/http"

	"genome-ai/internal/adlibrary"
	"genome-ai/internal/ai"
	"genome-ai/internal/audit"
	"genome-ai/internal/auth"
	"genome-ai/internal/cache"
	"genome-ai/internal/jobs"
	"genome-ai/internal/middleware"
	"genome-ai/internal/onboarding"
	"genome-ai/internal/persist"
	"genome-ai/pkg/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler contains all the dependencies for API handlers
type Handler struct {
	DB          *gorm.DB
	AI          ai.Generator
	AuthService *auth.AuthService
	Persist     *persist.Writer
	Jobs        *jobs.Tracker
	Audit       *audit.Service
	Cache       *cache.Cache
	AdLibrary   *adlibrary.Client
	Onboarding  *onboarding.Registry
}

// NewHandler creates a new handler instance
func NewHandler(db *gorm.DB, generator ai.Generator, authService *auth.AuthService, writer *persist.Writer, tracker *jobs.Tracker, auditSvc *audit.Service, c *cache.Cache, adLib *adlibrary.Client, reg *onboarding.Registry) *Handler {
	return &Handler{
		DB:          db,
		AI:          generator,
		AuthService: authService,
		Persist:     writer,
		Jobs:        tracker,
		Audit:       auditSvc,
		Cache:       c,
		AdLibrary:   adLib,
		Onboarding:  reg,
	}
}

// StandardResponse represents a standard API response
type StandardResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Authentication Handlers

// Register handles user registration
func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{
			Success: false,
			Error:   "Invalid request format",
			Code:    "INVALID_REQUEST",
		})
		return
	}

	var existing models.User
	if err := h.DB.Where("email = ? OR username = ?", req.Email, req.Username).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, StandardResponse{
			Success: false,
			Error:   "User with this email or username already exists",
			Code:    "USER_EXISTS",
		})
		return
	}

	user, err := h.AuthService.CreateUser(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{
			Success: false,
			Error:   err.Error(),
			Code:    "USER_CREATION_FAILED",
		})
		return
	}

	if err := h.DB.Create(user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, StandardResponse{
			Success: false,
			Error:   "Failed to create user",
			Code:    "DATABASE_ERROR",
		})
		return
	}

	tokens, err := h.AuthService.GenerateTokens(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, StandardResponse{
			Success: false,
			Error:   "Failed to generate authentication tokens",
			Code:    "TOKEN_GENERATION_FAILED",
		})
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data: gin.H{
			"user":   user,
			"tokens": tokens,
		},
		Message: "User registered successfully",
	})
}

// Login handles user authentication
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{
			Success: false,
			Error:   "Invalid request format",
			Code:    "INVALID_REQUEST",
		})
		return
	}

	var user models.User
	if err := h.DB.Where("username = ? OR email = ?", req.Username, req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, StandardResponse{
			Success: false,
			Error:   "Invalid credentials",
			Code:    "INVALID_CREDENTIALS",
		})
		return
	}

	if err := h.AuthService.CheckPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, StandardResponse{
			Success: false,
			Error:   "Invalid credentials",
			Code:    "INVALID_CREDENTIALS",
		})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusForbidden, StandardResponse{
			Success: false,
			Error:   "Account is deactivated",
			Code:    "ACCOUNT_DEACTIVATED",
		})
		return
	}

	tokens, err := h.AuthService.GenerateTokens(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, StandardResponse{
			Success: false,
			Error:   "Failed to generate authentication tokens",
			Code:    "TOKEN_GENERATION_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: gin.H{
			"user":   user,
			"tokens": tokens,
		},
		Message: "Login successful",
	})
}

// RefreshToken issues a fresh token pair from a valid refresh token
func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{
			Success: false,
			Error:   "Refresh token is required",
			Code:    "INVALID_REQUEST",
		})
		return
	}

	claims, err := h.AuthService.ValidateToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, StandardResponse{
			Success: false,
			Error:   "Invalid refresh token",
			Code:    "INVALID_TOKEN",
		})
		return
	}

	var user models.User
	if err := h.DB.First(&user, claims.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, StandardResponse{
			Success: false,
			Error:   "User not found",
			Code:    "USER_NOT_FOUND",
		})
		return
	}

	tokens, err := h.AuthService.RefreshTokens(req.RefreshToken, &user)
	if err != nil {
		c.JSON(http.StatusUnauthorized, StandardResponse{
			Success: false,
			Error:   "Failed to refresh tokens",
			Code:    "TOKEN_REFRESH_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"tokens": tokens},
	})
}

// GetCurrentUser returns the authenticated user's record
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, StandardResponse{
			Success: false,
			Error:   "Authentication required",
			Code:    "UNAUTHORIZED",
		})
		return
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, StandardResponse{
			Success: false,
			Error:   "User not found",
			Code:    "USER_NOT_FOUND",
		})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"user": user},
	})
}

// currentUserID pulls the authenticated user out of the gin context.
// Auth middleware runs before every handler that calls this; a miss
// means the route was wired without it.
func currentUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, StandardResponse{
			Success: false,
			Error:   "Unauthorized",
			Code:    "UNAUTHORIZED",
		})
		return 0, false
	}
	return userID, true
}
