package report

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/insight-deck/core/internal/modules/admission"
	"github.com/insight-deck/core/internal/pkg/response"
	"go.uber.org/zap"
)

// Cost is the budget price of one report download.
const Cost = 10

type Handler struct {
	admissionH *admission.Handler
	engine     *admission.Engine
	log        *zap.Logger
}

func NewHandler(engine *admission.Engine, admissionH *admission.Handler, log *zap.Logger) *Handler {
	return &Handler{admissionH: admissionH, engine: engine, log: log.Named("ReportHandler")}
}

// RegisterRoutes mounts the report download endpoint. Quota runs before the
// budget check, so a client over the daily limit sees daily_limit_exceeded
// even with zero budget left.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, budgetMW gin.HandlerFunc) {
	rg.POST("/report", h.admissionH.ReportQuota(), budgetMW, h.download)
}

func (h *Handler) download(c *gin.Context) {
	var doc Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		// Validation failures do not consume the daily quota.
		response.BadRequest(c, "selections are required (1-12 entries with a cardTitle each)")
		return
	}

	html, err := Render(&doc, h.engine.Now())
	if err != nil {
		h.log.Error("report render failed", zap.Error(err))
		response.InternalError(c)
		return
	}

	// The render succeeded; record the download before writing the body so
	// the refreshed remaining count rides the same response.
	h.admissionH.ConsumeReportQuota(c)

	c.Header("Content-Disposition", `attachment; filename="reflection-report.html"`)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
