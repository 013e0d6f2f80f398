package stock

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/early-express/inventory-service/internal/domain/shared"
)

// AggregateType identifies stock cells in events and outbox rows
const AggregateType = "StockCell"

// locationPattern constrains hub storage locations, e.g. "A-1-1"
var locationPattern = regexp.MustCompile(`^[A-Z]-\d+-\d+$`)

// StockCell tracks the reservable stock of one (product, hub) pair.
// Counters are 32-bit and never negative; Available is derived and
// never stored. Every mutation bumps the version so concurrent commits
// on the same cell resolve through the optimistic lock.
type StockCell struct {
	shared.BaseAggregateRoot
	ProductID     string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_cell_pair_live,where:is_deleted = false"`
	HubID         string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_cell_pair_live,where:is_deleted = false;index:idx_cell_hub"`
	OnHand        int32      `gorm:"not null;default:0"`
	Reserved      int32      `gorm:"not null;default:0"`
	SafetyFloor   int32      `gorm:"not null;default:0"`
	ReorderPoint  int32      `gorm:"not null;default:0"`
	Location      string     `gorm:"type:varchar(32);not null"`
	LastRestockAt *time.Time `gorm:""`
	IsDeleted     bool       `gorm:"not null;default:false"`
	DeletedAt     *time.Time `gorm:""`
	CreatedBy     string     `gorm:"type:varchar(64)"`
	UpdatedBy     string     `gorm:"type:varchar(64)"`
	DeletedBy     string     `gorm:"type:varchar(64)"`
}

// TableName returns the table name for GORM
func (StockCell) TableName() string {
	return "inventory_cells"
}

// NewStockCell creates a live cell with zero stock. The reorder point
// starts at the safety floor and can be raised independently later.
func NewStockCell(productID, hubID, location string, safetyFloor int32, createdBy string) (*StockCell, error) {
	if productID == "" {
		return nil, shared.NewDomainError("VALIDATION", "productId is required")
	}
	if hubID == "" {
		return nil, shared.NewDomainError("VALIDATION", "hubId is required")
	}
	if err := ValidateLocation(location); err != nil {
		return nil, err
	}
	if safetyFloor < 0 {
		return nil, shared.NewDomainError("VALIDATION", "safetyFloor must not be negative")
	}

	cell := &StockCell{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		HubID:             hubID,
		OnHand:            0,
		Reserved:          0,
		SafetyFloor:       safetyFloor,
		ReorderPoint:      safetyFloor,
		Location:          location,
		CreatedBy:         createdBy,
		UpdatedBy:         createdBy,
	}
	cell.AddDomainEvent(NewInventoryCreatedEvent(cell))
	return cell, nil
}

// ValidateLocation checks the storage location format
func ValidateLocation(location string) error {
	if !locationPattern.MatchString(location) {
		return shared.NewDomainError("VALIDATION",
			fmt.Sprintf("location %q does not match the required format (e.g. A-1-1)", location))
	}
	return nil
}

// Available returns the quantity eligible for new reservations
func (c *StockCell) Available() int32 {
	return c.OnHand - c.Reserved
}

// IsBelowSafety reports whether on-hand stock has reached the safety floor
func (c *StockCell) IsBelowSafety() bool {
	return c.OnHand <= c.SafetyFloor
}

// NeedsReorder reports whether on-hand stock has reached the reorder point
func (c *StockCell) NeedsReorder() bool {
	return c.OnHand <= c.ReorderPoint
}

// IsOutOfStock reports whether no stock is available for reservation
func (c *StockCell) IsOutOfStock() bool {
	return c.Available() == 0
}

func (c *StockCell) ensureLive() error {
	if c.IsDeleted {
		return shared.ErrNotFound
	}
	return nil
}

func (c *StockCell) markUpdated(actor string) {
	if actor != "" {
		c.UpdatedBy = actor
	}
	c.Touch()
	c.IncrementVersion()
}

// Restock adds stock to the cell and refreshes the restock timestamp
func (c *StockCell) Restock(quantity int32, actor string) error {
	if err := c.ensureLive(); err != nil {
		return err
	}
	if quantity <= 0 {
		return shared.NewDomainError("VALIDATION", "restock quantity must be positive")
	}
	if c.OnHand > math.MaxInt32-quantity {
		return shared.ErrLimitExceeded
	}

	c.OnHand += quantity
	now := time.Now()
	c.LastRestockAt = &now
	c.markUpdated(actor)

	c.AddDomainEvent(NewInventoryRestockedEvent(c, quantity))
	return nil
}

// Reserve commits available stock to an order. Reservation leaves
// on-hand untouched, so the low-stock check can only trip here when the
// cell was already at or under its floor.
func (c *StockCell) Reserve(quantity int32, orderID string) error {
	if err := c.ensureLive(); err != nil {
		return err
	}
	if quantity <= 0 {
		return shared.NewDomainError("VALIDATION", "reserve quantity must be positive")
	}
	if orderID == "" {
		return shared.NewDomainError("VALIDATION", "orderId is required")
	}
	if c.Available() < quantity {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("available stock %d is less than requested %d", c.Available(), quantity))
	}

	c.Reserved += quantity
	c.markUpdated("")

	c.AddDomainEvent(NewInventoryReservedEvent(c, orderID, quantity))
	if c.IsBelowSafety() {
		c.AddDomainEvent(NewInventoryLowStockEvent(c))
	}
	return nil
}

// Release returns reserved stock to the available pool
func (c *StockCell) Release(quantity int32, orderID string) error {
	if err := c.ensureLive(); err != nil {
		return err
	}
	if quantity <= 0 {
		return shared.NewDomainError("VALIDATION", "release quantity must be positive")
	}
	if c.Reserved < quantity {
		return shared.NewDomainError("OVER_RELEASE",
			fmt.Sprintf("reserved stock %d is less than requested %d", c.Reserved, quantity))
	}

	c.Reserved -= quantity
	c.markUpdated("")

	c.AddDomainEvent(NewStockRestoredEvent(c, orderID, quantity))
	return nil
}

// ConfirmShipment consumes reserved stock once the order has shipped
func (c *StockCell) ConfirmShipment(quantity int32, orderID string) error {
	if err := c.ensureLive(); err != nil {
		return err
	}
	if quantity <= 0 {
		return shared.NewDomainError("VALIDATION", "shipment quantity must be positive")
	}
	if c.Reserved < quantity {
		return shared.NewDomainError("OVER_RELEASE",
			fmt.Sprintf("reserved stock %d is less than requested %d", c.Reserved, quantity))
	}

	c.Reserved -= quantity
	c.OnHand -= quantity
	c.markUpdated("")

	c.AddDomainEvent(NewStockDecreasedEvent(c, orderID, quantity))
	if c.IsBelowSafety() {
		c.AddDomainEvent(NewInventoryLowStockEvent(c))
	}
	return nil
}

// Adjust applies a signed correction to on-hand stock. Adjustments are
// silent: no event is emitted.
func (c *StockCell) Adjust(delta int32, reason, actor string) error {
	if err := c.ensureLive(); err != nil {
		return err
	}
	if delta == 0 {
		return shared.NewDomainError("VALIDATION", "adjustment delta must not be zero")
	}
	if reason == "" {
		return shared.NewDomainError("VALIDATION", "adjustment reason is required")
	}
	if delta > 0 && c.OnHand > math.MaxInt32-delta {
		return shared.ErrLimitExceeded
	}
	newOnHand := c.OnHand + delta
	if newOnHand < 0 {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("adjustment of %d would drive on-hand stock below zero", delta))
	}
	if newOnHand < c.Reserved {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("adjustment of %d would drive on-hand stock below reserved %d", delta, c.Reserved))
	}

	c.OnHand = newOnHand
	c.markUpdated(actor)
	return nil
}

// SetSafetyFloor changes the low-stock threshold. The reorder point is
// raised along with it when it would otherwise fall below the floor.
func (c *StockCell) SetSafetyFloor(floor int32, actor string) error {
	if err := c.ensureLive(); err != nil {
		return err
	}
	if floor < 0 {
		return shared.NewDomainError("VALIDATION", "safetyFloor must not be negative")
	}

	c.SafetyFloor = floor
	if c.ReorderPoint < floor {
		c.ReorderPoint = floor
	}
	c.markUpdated(actor)
	return nil
}

// SetReorderPoint changes the reorder threshold
func (c *StockCell) SetReorderPoint(point int32, actor string) error {
	if err := c.ensureLive(); err != nil {
		return err
	}
	if point < c.SafetyFloor {
		return shared.NewDomainError("VALIDATION", "reorderPoint must not be below safetyFloor")
	}

	c.ReorderPoint = point
	c.markUpdated(actor)
	return nil
}

// Relocate moves the cell to a new storage location
func (c *StockCell) Relocate(location, actor string) error {
	if err := c.ensureLive(); err != nil {
		return err
	}
	if err := ValidateLocation(location); err != nil {
		return err
	}

	c.Location = location
	c.markUpdated(actor)
	return nil
}

// MarkDeleted soft-deletes the cell. Deleting an already-deleted cell
// is a no-op so product-deleted redeliveries converge.
func (c *StockCell) MarkDeleted(actor string) {
	if c.IsDeleted {
		return
	}
	now := time.Now()
	c.IsDeleted = true
	c.DeletedAt = &now
	c.DeletedBy = actor
	c.markUpdated(actor)
}

// Restore brings a soft-deleted cell back to life
func (c *StockCell) Restore(actor string) error {
	if !c.IsDeleted {
		return shared.NewDomainError("VALIDATION", "cell is not deleted")
	}
	c.IsDeleted = false
	c.DeletedAt = nil
	c.DeletedBy = ""
	c.markUpdated(actor)
	return nil
}
