package event

import (
	stockapp "github.com/early-express/inventory-service/internal/application/stock"
	"github.com/early-express/inventory-service/internal/domain/stock"
)

// RegisterAllEvents registers every event type with the serializer: the
// outbound cell events and the inbound product lifecycle events the
// consumer dispatches.
func RegisterAllEvents(serializer *EventSerializer) {
	serializer.Register(stock.EventTypeInventoryCreated, &stock.InventoryCreatedEvent{})
	serializer.Register(stock.EventTypeInventoryRestocked, &stock.InventoryRestockedEvent{})
	serializer.Register(stock.EventTypeInventoryLowStock, &stock.InventoryLowStockEvent{})
	serializer.Register(stock.EventTypeInventoryReserved, &stock.InventoryReservedEvent{})
	serializer.Register(stock.EventTypeStockDecreased, &stock.StockDecreasedEvent{})
	serializer.Register(stock.EventTypeStockRestored, &stock.StockRestoredEvent{})

	serializer.Register(stockapp.EventTypeProductCreated, &stockapp.ProductCreatedEvent{})
	serializer.Register(stockapp.EventTypeProductDeleted, &stockapp.ProductDeletedEvent{})
}
