package admission

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/insight-deck/core/internal/pkg/response"
	"go.uber.org/zap"
)

// ReportsRemainingHeader reports the daily download quota left for the
// session after the current request.
const ReportsRemainingHeader = "X-Reports-Remaining"

// Handler exposes the engine over HTTP: a budget middleware for costed
// routes, a quota middleware for report downloads, and the verify endpoint.
type Handler struct {
	engine *Engine
	log    *zap.Logger
}

func NewHandler(engine *Engine, log *zap.Logger) *Handler {
	return &Handler{engine: engine, log: log.Named("AdmissionHandler")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/pow")
	g.POST("/verify", h.verifyChallenge)
}

// Budget returns a middleware that admits the request or answers 429 with a
// fresh challenge descriptor.
func (h *Handler) Budget(cost int) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := h.engine.Check(c.GetHeader("Authorization"), cost)
		if err != nil {
			h.log.Error("budget check failed", zap.Error(err))
			response.InternalError(c)
			return
		}
		if decision.Admitted {
			c.Next()
			return
		}
		response.TooManyRequests(c, "challenge_required", "budget exhausted, solve the attached challenge", gin.H{
			"challenge": decision.Challenge,
		})
	}
}

// ReportQuota returns a middleware enforcing the daily download limit. It
// runs before the budget check so an exhausted client always sees
// daily_limit_exceeded, never a challenge.
func (h *Handler) ReportQuota() gin.HandlerFunc {
	return func(c *gin.Context) {
		quota, err := h.engine.CheckReportQuota(c.GetHeader("Authorization"))
		if err != nil {
			h.log.Error("quota check failed", zap.Error(err))
			response.InternalError(c)
			return
		}
		c.Header(ReportsRemainingHeader, strconv.Itoa(quota.Remaining))
		if !quota.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(quota.RetryAfter.Seconds()))))
			response.TooManyRequests(c, "daily_limit_exceeded", "daily report download limit reached", nil)
			return
		}
		c.Next()
	}
}

// ConsumeReportQuota records a completed download and refreshes the remaining
// header. Handlers call it after the gated operation fully succeeded, never
// speculatively.
func (h *Handler) ConsumeReportQuota(c *gin.Context) {
	remaining, err := h.engine.RecordReportDownload(c.GetHeader("Authorization"))
	if err != nil {
		// The download already succeeded; losing the event only
		// under-counts the quota.
		h.log.Warn("record report download failed", zap.Error(err))
		return
	}
	c.Header(ReportsRemainingHeader, strconv.Itoa(remaining))
}

type verifyChallengeDTO struct {
	ChallengeID string `json:"challengeId" binding:"required"`
	Payload     string `json:"payload"     binding:"required"`
}

func (h *Handler) verifyChallenge(c *gin.Context) {
	var dto verifyChallengeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "challengeId and payload are required")
		return
	}

	token, err := h.engine.VerifyChallenge(dto.ChallengeID, dto.Payload, c.GetHeader("Authorization"))
	if err != nil {
		switch {
		case errors.Is(err, ErrChallengeInvalid):
			response.BadRequestCode(c, "challenge_invalid", "challenge unknown, expired or not solved")
		case errors.Is(err, ErrChallengeReplayed):
			response.Conflict(c, "challenge_replayed", "challenge already consumed")
		default:
			h.log.Error("challenge verification failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
