package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyfairy-server/internal/auth"
	"storyfairy-server/internal/model"
	"storyfairy-server/internal/service"
)

// StoryHandler serves the story and credit API.
type StoryHandler struct {
	service service.StoryService
	logger  *zap.Logger
}

// NewStoryHandler creates the HTTP handler set.
func NewStoryHandler(svc service.StoryService, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		service: svc,
		logger:  logger.Named("StoryHandler"),
	}
}

// RegisterRoutes mounts the authenticated API under /api.
func (h *StoryHandler) RegisterRoutes(router gin.IRouter, authMiddleware gin.HandlerFunc) {
	api := router.Group("/api", authMiddleware)
	{
		api.POST("/stories/generate", h.GenerateStory)
		api.GET("/stories", h.ListStories)
		api.GET("/stories/:id", h.GetStory)
		api.DELETE("/stories/:id", h.DeleteStory)

		api.GET("/credits", h.GetCredits)
		api.GET("/credits/history", h.CreditHistory)
		api.POST("/credits/add", h.AddCredits)
	}
}

func (h *StoryHandler) GenerateStory(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req model.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	record, err := h.service.GenerateStory(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *StoryHandler) ListStories(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	cursor := c.Query("cursor")

	page, err := h.service.ListStories(c.Request.Context(), userID, limit, cursor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *StoryHandler) GetStory(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	storyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid story id"})
		return
	}

	record, err := h.service.GetStory(c.Request.Context(), userID, storyID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *StoryHandler) DeleteStory(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	storyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid story id"})
		return
	}

	if err := h.service.DeleteStory(c.Request.Context(), userID, storyID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StoryHandler) GetCredits(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *StoryHandler) CreditHistory(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	history, err := h.service.CreditHistory(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": history})
}

type addCreditsRequest struct {
	Amount int `json:"amount" binding:"required,gt=0"`
}

func (h *StoryHandler) AddCredits(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req addCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive integer"})
		return
	}

	balance, err := h.service.AddCredits(c.Request.Context(), userID, req.Amount)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}
