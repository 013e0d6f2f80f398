package stock

import (
	"time"

	"github.com/early-express/inventory-service/internal/domain/shared"
)

// EventSource identifies this service in outbound payloads
const EventSource = "inventory-service"

// Outbound event types. Each maps one-to-one onto a broker topic.
const (
	EventTypeInventoryCreated   = "inventory-created"
	EventTypeInventoryRestocked = "inventory-restocked"
	EventTypeInventoryLowStock  = "inventory-low-stock"
	EventTypeInventoryReserved  = "inventory-reserved"
	EventTypeStockDecreased     = "stock-decreased"
	EventTypeStockRestored      = "stock-restored"
)

// InventoryCreatedEvent is emitted when a cell comes into existence
type InventoryCreatedEvent struct {
	shared.BaseDomainEvent
	Source      string `json:"source"`
	CellVersion int    `json:"cellVersionAtCommit"`
	InventoryID string `json:"inventoryId"`
	ProductID   string `json:"productId"`
	HubID       string `json:"hubId"`
	Location    string `json:"location"`
	SafetyFloor int32  `json:"safetyFloor"`
}

// NewInventoryCreatedEvent creates an InventoryCreatedEvent from the cell
func NewInventoryCreatedEvent(cell *StockCell) *InventoryCreatedEvent {
	return &InventoryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryCreated, AggregateType, cell.ID),
		Source:          EventSource,
		CellVersion:     cell.Version,
		InventoryID:     cell.ID.String(),
		ProductID:       cell.ProductID,
		HubID:           cell.HubID,
		Location:        cell.Location,
		SafetyFloor:     cell.SafetyFloor,
	}
}

// PartitionKey groups created events by product for downstream ordering
func (e *InventoryCreatedEvent) PartitionKey() string {
	return e.ProductID
}

// InventoryRestockedEvent is emitted when stock is added to a cell
type InventoryRestockedEvent struct {
	shared.BaseDomainEvent
	Source          string    `json:"source"`
	CellVersion     int       `json:"cellVersionAtCommit"`
	InventoryID     string    `json:"inventoryId"`
	ProductID       string    `json:"productId"`
	HubID           string    `json:"hubId"`
	RestockedQty    int32     `json:"restockedQuantity"`
	CurrentQuantity int32     `json:"currentQuantity"`
	AvailableQty    int32     `json:"availableQuantity"`
	RestockedAt     time.Time `json:"restockedAt"`
}

// NewInventoryRestockedEvent creates an InventoryRestockedEvent from the
// cell's post-restock state
func NewInventoryRestockedEvent(cell *StockCell, quantity int32) *InventoryRestockedEvent {
	restockedAt := time.Now()
	if cell.LastRestockAt != nil {
		restockedAt = *cell.LastRestockAt
	}
	return &InventoryRestockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryRestocked, AggregateType, cell.ID),
		Source:          EventSource,
		CellVersion:     cell.Version,
		InventoryID:     cell.ID.String(),
		ProductID:       cell.ProductID,
		HubID:           cell.HubID,
		RestockedQty:    quantity,
		CurrentQuantity: cell.OnHand,
		AvailableQty:    cell.Available(),
		RestockedAt:     restockedAt,
	}
}

// PartitionKey groups restock events by product for downstream ordering
func (e *InventoryRestockedEvent) PartitionKey() string {
	return e.ProductID
}

// InventoryLowStockEvent is emitted when on-hand stock reaches the
// safety floor after a quantity-changing command
type InventoryLowStockEvent struct {
	shared.BaseDomainEvent
	Source          string `json:"source"`
	CellVersion     int    `json:"cellVersionAtCommit"`
	InventoryID     string `json:"inventoryId"`
	ProductID       string `json:"productId"`
	HubID           string `json:"hubId"`
	CurrentQuantity int32  `json:"currentQuantity"`
	SafetyFloor     int32  `json:"safetyFloor"`
	ReorderPoint    int32  `json:"reorderPoint"`
}

// NewInventoryLowStockEvent creates an InventoryLowStockEvent from the cell
func NewInventoryLowStockEvent(cell *StockCell) *InventoryLowStockEvent {
	return &InventoryLowStockEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryLowStock, AggregateType, cell.ID),
		Source:          EventSource,
		CellVersion:     cell.Version,
		InventoryID:     cell.ID.String(),
		ProductID:       cell.ProductID,
		HubID:           cell.HubID,
		CurrentQuantity: cell.OnHand,
		SafetyFloor:     cell.SafetyFloor,
		ReorderPoint:    cell.ReorderPoint,
	}
}

// PartitionKey groups low-stock events by product for downstream ordering
func (e *InventoryLowStockEvent) PartitionKey() string {
	return e.ProductID
}

// InventoryReservedEvent is emitted when stock is committed to an order
type InventoryReservedEvent struct {
	shared.BaseDomainEvent
	Source       string    `json:"source"`
	CellVersion  int       `json:"cellVersionAtCommit"`
	InventoryID  string    `json:"inventoryId"`
	ProductID    string    `json:"productId"`
	HubID        string    `json:"hubId"`
	OrderID      string    `json:"orderId"`
	ReservedQty  int32     `json:"reservedQuantity"`
	AvailableQty int32     `json:"availableQuantity"`
	ReservedAt   time.Time `json:"reservedAt"`
}

// NewInventoryReservedEvent creates an InventoryReservedEvent from the
// cell's post-reservation state
func NewInventoryReservedEvent(cell *StockCell, orderID string, quantity int32) *InventoryReservedEvent {
	return &InventoryReservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryReserved, AggregateType, cell.ID),
		Source:          EventSource,
		CellVersion:     cell.Version,
		InventoryID:     cell.ID.String(),
		ProductID:       cell.ProductID,
		HubID:           cell.HubID,
		OrderID:         orderID,
		ReservedQty:     quantity,
		AvailableQty:    cell.Available(),
		ReservedAt:      time.Now(),
	}
}

// PartitionKey groups reservation events by order for downstream ordering
func (e *InventoryReservedEvent) PartitionKey() string {
	return e.OrderID
}

// StockDecreasedEvent is emitted when a confirmed shipment consumes
// reserved stock
type StockDecreasedEvent struct {
	shared.BaseDomainEvent
	Source          string `json:"source"`
	CellVersion     int    `json:"cellVersionAtCommit"`
	InventoryID     string `json:"inventoryId"`
	ProductID       string `json:"productId"`
	HubID           string `json:"hubId"`
	OrderID         string `json:"orderId"`
	DecreasedQty    int32  `json:"decreasedQuantity"`
	CurrentQuantity int32  `json:"currentQuantity"`
	AvailableQty    int32  `json:"availableQuantity"`
}

// NewStockDecreasedEvent creates a StockDecreasedEvent from the cell's
// post-shipment state
func NewStockDecreasedEvent(cell *StockCell, orderID string, quantity int32) *StockDecreasedEvent {
	return &StockDecreasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDecreased, AggregateType, cell.ID),
		Source:          EventSource,
		CellVersion:     cell.Version,
		InventoryID:     cell.ID.String(),
		ProductID:       cell.ProductID,
		HubID:           cell.HubID,
		OrderID:         orderID,
		DecreasedQty:    quantity,
		CurrentQuantity: cell.OnHand,
		AvailableQty:    cell.Available(),
	}
}

// PartitionKey groups shipment events by order for downstream ordering
func (e *StockDecreasedEvent) PartitionKey() string {
	return e.OrderID
}

// StockRestoredEvent is emitted when a reservation is released back to
// the available pool
type StockRestoredEvent struct {
	shared.BaseDomainEvent
	Source       string `json:"source"`
	CellVersion  int    `json:"cellVersionAtCommit"`
	InventoryID  string `json:"inventoryId"`
	ProductID    string `json:"productId"`
	HubID        string `json:"hubId"`
	OrderID      string `json:"orderId"`
	ReleasedQty  int32  `json:"releasedQuantity"`
	AvailableQty int32  `json:"availableQuantity"`
}

// NewStockRestoredEvent creates a StockRestoredEvent from the cell's
// post-release state
func NewStockRestoredEvent(cell *StockCell, orderID string, quantity int32) *StockRestoredEvent {
	return &StockRestoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRestored, AggregateType, cell.ID),
		Source:          EventSource,
		CellVersion:     cell.Version,
		InventoryID:     cell.ID.String(),
		ProductID:       cell.ProductID,
		HubID:           cell.HubID,
		OrderID:         orderID,
		ReleasedQty:     quantity,
		AvailableQty:    cell.Available(),
	}
}

// PartitionKey groups release events by order for downstream ordering
func (e *StockRestoredEvent) PartitionKey() string {
	return e.OrderID
}
