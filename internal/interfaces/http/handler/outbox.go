package handler

import (
	"github.com/gin-gonic/gin"

	eventapp "github.com/early-express/inventory-service/internal/application/event"
	"github.com/early-express/inventory-service/internal/domain/shared"
	"github.com/early-express/inventory-service/internal/interfaces/http/dto"
)

// OutboxHandler exposes operator endpoints for the event outbox:
// delivery stats, dead-letter inspection and requeueing.
type OutboxHandler struct {
	BaseHandler
	service *eventapp.OutboxService
}

// NewOutboxHandler creates the handler
func NewOutboxHandler(service *eventapp.OutboxService) *OutboxHandler {
	return &OutboxHandler{service: service}
}

// RegisterRoutes registers the outbox admin routes
func (h *OutboxHandler) RegisterRoutes(rg *gin.RouterGroup) {
	outbox := rg.Group("/admin/outbox")
	{
		outbox.GET("/stats", h.Stats)
		outbox.GET("/dead-letters", h.ListDeadLetters)
		outbox.GET("/entries/:id", h.GetEntry)
		outbox.POST("/entries/:id/discard", h.DiscardEntry)
		outbox.POST("/dead-letters/:id/retry", h.RetryDeadLetter)
		outbox.POST("/dead-letters/retry-all", h.RetryAllDeadLetters)
	}
}

// Stats returns outbox entry counts by status
func (h *OutboxHandler) Stats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// ListDeadLetters returns dead letter entries, paginated
func (h *OutboxHandler) ListDeadLetters(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.service.GetDeadLetters(c.Request.Context(), shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetEntry returns one outbox entry by ID
func (h *OutboxHandler) GetEntry(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid entry id")
		return
	}

	entry, err := h.service.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// DiscardEntry dead-letters one undelivered entry so later entries of
// the same aggregate can flow past it
func (h *OutboxHandler) DiscardEntry(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid entry id")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	entry, err := h.service.DiscardEntry(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryDeadLetter requeues one dead letter for delivery
func (h *OutboxHandler) RetryDeadLetter(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid entry id")
		return
	}

	entry, err := h.service.RetryDeadEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryAllDeadLetters requeues every dead letter
func (h *OutboxHandler) RetryAllDeadLetters(c *gin.Context) {
	count, err := h.service.RetryAllDeadEntries(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"retried": count})
}
