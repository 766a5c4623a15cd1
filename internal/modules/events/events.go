package events

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/insight-deck/core/internal/config"
	"github.com/insight-deck/core/internal/pkg/response"
	"go.uber.org/zap"
)

const forwardTimeout = 10 * time.Second

// Handler forwards client analytics events to a configured upstream,
// fire-and-forget. Without an upstream the events are accepted and dropped,
// so clients never need to branch on deployment config.
type Handler struct {
	upstream string
	client   *http.Client
	log      *zap.Logger
}

func NewHandler(cfg config.EventsConfig, log *zap.Logger) *Handler {
	return &Handler{
		upstream: strings.TrimSpace(cfg.UpstreamURL),
		client:   &http.Client{Timeout: forwardTimeout},
		log:      log.Named("EventsHandler"),
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/events", h.collect)
}

type eventDTO struct {
	Name    string                 `json:"name" binding:"required,max=120"`
	Payload map[string]interface{} `json:"payload"`
}

func (h *Handler) collect(c *gin.Context) {
	var dto eventDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "name is required")
		return
	}

	if h.upstream != "" {
		go h.forward(dto)
	}
	response.NoContent(c)
}

func (h *Handler) forward(dto eventDTO) {
	body, err := json.Marshal(dto)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), forwardTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.upstream, bytes.NewReader(body))
	if err != nil {
		h.log.Warn("build event forward request failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Warn("event forward failed", zap.Error(err))
		return
	}
	resp.Body.Close()
}
