package stock

import (
	"context"

	"github.com/google/uuid"

	"github.com/early-express/inventory-service/internal/domain/shared"
)

// Repository is the persistence port for stock cells. Reads filter out
// soft-deleted rows unless stated otherwise. Create and SaveWithLock
// also write outbox rows for the cell's pending domain events inside
// the same transaction.
type Repository interface {
	// FindByID loads a live cell by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockCell, error)
	// FindByProductAndHub loads a live cell by its (product, hub) pair
	FindByProductAndHub(ctx context.Context, productID, hubID string) (*StockCell, error)
	// FindDeletedByID loads a soft-deleted cell, for the restore path
	FindDeletedByID(ctx context.Context, id uuid.UUID) (*StockCell, error)
	// FindByProduct returns all live cells holding the product
	FindByProduct(ctx context.Context, productID string) ([]*StockCell, error)
	// FindByHub returns live cells at a hub, paginated
	FindByHub(ctx context.Context, hubID string, filter shared.Filter) (shared.Paginated[StockCell], error)
	// FindAll returns all live cells, paginated
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[StockCell], error)
	// FindLowStock returns live cells at or under their safety floor.
	// hubID narrows the scan when non-empty.
	FindLowStock(ctx context.Context, hubID string) ([]*StockCell, error)
	// FindOutOfStock returns live cells with no available stock.
	// hubID narrows the scan when non-empty.
	FindOutOfStock(ctx context.Context, hubID string) ([]*StockCell, error)
	// ExistsLive reports whether a live cell exists for the pair
	ExistsLive(ctx context.Context, productID, hubID string) (bool, error)

	// Create inserts the cell and its pending events atomically.
	// A live cell for the same pair yields ALREADY_EXISTS.
	Create(ctx context.Context, cell *StockCell) error
	// SaveWithLock commits the mutated cell and its pending events
	// atomically, guarded by the version the cell was loaded with.
	// A version mismatch yields CONFLICT.
	SaveWithLock(ctx context.Context, cell *StockCell) error
}
