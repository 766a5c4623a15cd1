package reflect

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/insight-deck/core/internal/config"
	"github.com/insight-deck/core/internal/pkg/response"
	"go.uber.org/zap"
)

// Cost is the budget price of one reflection request.
const Cost = 5

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(cfg config.AIConfig, log *zap.Logger) *Handler {
	return &Handler{svc: NewService(cfg), log: log.Named("ReflectHandler")}
}

// RegisterRoutes mounts the reflection endpoint behind the budget middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, budgetMW gin.HandlerFunc) {
	rg.POST("/reflect", budgetMW, h.reflect)
}

type reflectDTO struct {
	CardTitle string `json:"cardTitle"`
	Question  string `json:"question"`
	Answer    string `json:"answer" binding:"required,max=4000"`
}

func (h *Handler) reflect(c *gin.Context) {
	var dto reflectDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "answer is required and must be at most 4000 characters")
		return
	}

	text, err := h.svc.Generate(c.Request.Context(), dto.CardTitle, dto.Question, dto.Answer)
	if err != nil {
		if errors.Is(err, errNotConfigured) {
			response.BadRequest(c, "reflection generation is not available")
			return
		}
		h.log.Error("reflection generation failed", zap.Error(err))
		response.InternalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reflection": text})
}
