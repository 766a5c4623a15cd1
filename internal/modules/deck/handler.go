package deck

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/insight-deck/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{svc: NewService(db), log: log.Named("DeckHandler")}
}

// RegisterRoutes mounts the read-only deck endpoints. They are free (cost 0)
// and bypass the admission ledger entirely.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/deck")
	g.GET("/cards", h.listCards)
	g.GET("/cards/:id", h.getCard)
	g.GET("/questions", h.listQuestions)
	g.GET("/statements", h.listStatements)
}

func (h *Handler) listCards(c *gin.Context) {
	items, pag, err := h.svc.ListCards(ListQuery{
		Page:     intQuery(c, "page"),
		Size:     intQuery(c, "size"),
		Category: strings.TrimSpace(c.Query("category")),
	})
	if err != nil {
		h.log.Error("list cards failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.Paged(c, items, pag)
}

// intQuery parses an integer query param; 0 means absent or invalid, which
// ListQuery normalizes to its defaults.
func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

func (h *Handler) getCard(c *gin.Context) {
	card, err := h.svc.GetCard(strings.TrimSpace(c.Param("id")))
	if err != nil {
		h.log.Error("get card failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	if card == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, card)
}

func (h *Handler) listQuestions(c *gin.Context) {
	items, err := h.svc.ListQuestions(strings.TrimSpace(c.Query("stage")))
	if err != nil {
		h.log.Error("list questions failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, items)
}

func (h *Handler) listStatements(c *gin.Context) {
	items, err := h.svc.ListStatements()
	if err != nil {
		h.log.Error("list statements failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, items)
}
