package stock

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/early-express/inventory-service/internal/domain/shared"
)

// Inbound product lifecycle event types
const (
	EventTypeProductCreated = "product-created"
	EventTypeProductDeleted = "product-deleted"
)

// ProductCreatedEvent announces a new product listed at a hub
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID string `json:"productId"`
	SellerID  string `json:"sellerId"`
	Name      string `json:"name"`
	HubID     string `json:"hubId"`
}

// ProductDeletedEvent announces a product removed from the catalogue
type ProductDeletedEvent struct {
	shared.BaseDomainEvent
	ProductID string `json:"productId"`
}

// ProductCreatedHandler creates the stock cells for a new product
type ProductCreatedHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewProductCreatedHandler creates the handler
func NewProductCreatedHandler(service *Service, logger *zap.Logger) *ProductCreatedHandler {
	return &ProductCreatedHandler{service: service, logger: logger}
}

// Handle processes a product-created event
func (h *ProductCreatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	created, ok := event.(*ProductCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if created.ProductID == "" || created.HubID == "" {
		h.logger.Warn("product-created event missing product or hub, skipping",
			zap.String("eventId", created.EventID().String()))
		return nil
	}

	if err := h.service.CreateCellsForProduct(ctx, created.ProductID, created.HubID); err != nil {
		return err
	}

	h.logger.Info("inventory initialized for product",
		zap.String("productId", created.ProductID),
		zap.String("hubId", created.HubID))
	return nil
}

// EventTypes returns the event types this handler consumes
func (h *ProductCreatedHandler) EventTypes() []string {
	return []string{EventTypeProductCreated}
}

// ProductDeletedHandler soft-deletes all cells of a removed product
type ProductDeletedHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewProductDeletedHandler creates the handler
func NewProductDeletedHandler(service *Service, logger *zap.Logger) *ProductDeletedHandler {
	return &ProductDeletedHandler{service: service, logger: logger}
}

// Handle processes a product-deleted event
func (h *ProductDeletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	deleted, ok := event.(*ProductDeletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if deleted.ProductID == "" {
		h.logger.Warn("product-deleted event missing product, skipping",
			zap.String("eventId", deleted.EventID().String()))
		return nil
	}

	count, err := h.service.DeleteByProduct(ctx, deleted.ProductID, "system")
	if err != nil {
		return err
	}

	h.logger.Info("inventory removed for product",
		zap.String("productId", deleted.ProductID),
		zap.Int("cells", count))
	return nil
}

// EventTypes returns the event types this handler consumes
func (h *ProductDeletedHandler) EventTypes() []string {
	return []string{EventTypeProductDeleted}
}

var (
	_ shared.EventHandler = (*ProductCreatedHandler)(nil)
	_ shared.EventHandler = (*ProductDeletedHandler)(nil)
)
