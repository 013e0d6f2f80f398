package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/early-express/inventory-service/internal/domain/shared"
	"github.com/early-express/inventory-service/internal/domain/stock"
)

const retryBaseBackoff = 25 * time.Millisecond

// Config holds the engine's tunables
type Config struct {
	// RetryMaxAttempts bounds optimistic-lock retries per command
	RetryMaxAttempts int
	// DefaultSafetyFloor is applied when a create request omits one
	DefaultSafetyFloor int32
	// DefaultLocation is applied when a create request omits one
	DefaultLocation string
	// AvailableHubs lists the hubs eligible for fanout creation
	AvailableHubs []string
	// FanoutCreate creates a cell in every available hub on
	// product-created instead of only the event's hub
	FanoutCreate bool
}

// Service orchestrates all stock cell commands and queries. Commands
// load the cell, apply the domain mutation and commit through the
// optimistic lock, re-reading and re-evaluating on version conflicts.
type Service struct {
	repo   stock.Repository
	cfg    Config
	logger *zap.Logger
}

// NewService creates a stock service
func NewService(repo stock.Repository, cfg Config, logger *zap.Logger) *Service {
	if cfg.RetryMaxAttempts < 1 {
		cfg.RetryMaxAttempts = 3
	}
	if cfg.DefaultLocation == "" {
		cfg.DefaultLocation = "A-1-1"
	}
	return &Service{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}
}

// mutate runs the load-apply-commit cycle under the optimistic lock.
// A CONFLICT from the commit triggers a re-read and re-evaluation, up
// to the configured attempt bound. The first retry is immediate, later
// ones back off exponentially. A deadline expiring during the commit
// leaves the outcome indeterminate, surfaced as UNKNOWN.
func (s *Service) mutate(ctx context.Context, load func(context.Context) (*stock.StockCell, error), apply func(*stock.StockCell) error) (*stock.StockCell, error) {
	for attempt := 1; attempt <= s.cfg.RetryMaxAttempts; attempt++ {
		cell, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := apply(cell); err != nil {
			return nil, err
		}

		err = s.repo.SaveWithLock(ctx, cell)
		if err == nil {
			return cell, nil
		}
		if ctx.Err() != nil {
			return nil, shared.ErrUnknown
		}
		if !shared.IsCode(err, shared.ErrConcurrencyConflict.Code) {
			return nil, err
		}

		s.logger.Debug("optimistic lock conflict, retrying",
			zap.String("cellId", cell.ID.String()),
			zap.Int("attempt", attempt))
		if attempt > 1 {
			backoff := retryBaseBackoff * time.Duration(1<<uint(attempt-2))
			select {
			case <-ctx.Done():
				return nil, shared.ErrUnknown
			case <-time.After(backoff):
			}
		}
	}
	return nil, shared.ErrConcurrencyConflict
}

func (s *Service) loadByPair(productID, hubID string) func(context.Context) (*stock.StockCell, error) {
	return func(ctx context.Context) (*stock.StockCell, error) {
		return s.repo.FindByProductAndHub(ctx, productID, hubID)
	}
}

func (s *Service) loadByID(id uuid.UUID) func(context.Context) (*stock.StockCell, error) {
	return func(ctx context.Context) (*stock.StockCell, error) {
		return s.repo.FindByID(ctx, id)
	}
}

// CreateCell creates a live cell for a (product, hub) pair. A live
// cell on the same pair yields ALREADY_EXISTS; a soft-deleted one does
// not block creation.
func (s *Service) CreateCell(ctx context.Context, req CreateCellRequest) (*stock.StockCell, error) {
	location := req.Location
	if location == "" {
		location = s.cfg.DefaultLocation
	}
	safetyFloor := s.cfg.DefaultSafetyFloor
	if req.SafetyFloor != nil {
		safetyFloor = *req.SafetyFloor
	}

	cell, err := stock.NewStockCell(req.ProductID, req.HubID, location, safetyFloor, req.Actor)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, cell); err != nil {
		return nil, err
	}

	s.logger.Info("stock cell created",
		zap.String("cellId", cell.ID.String()),
		zap.String("productId", cell.ProductID),
		zap.String("hubId", cell.HubID))
	return cell, nil
}

// CreateCellsForProduct creates the cells for a newly announced
// product. The event's hub is used unless fanout mode is on, in which
// case every configured hub gets one. ALREADY_EXISTS is swallowed so
// redelivered events converge.
func (s *Service) CreateCellsForProduct(ctx context.Context, productID, hubID string) error {
	hubs := []string{hubID}
	if s.cfg.FanoutCreate {
		hubs = s.cfg.AvailableHubs
	}

	for _, hub := range hubs {
		_, err := s.CreateCell(ctx, CreateCellRequest{
			ProductID: productID,
			HubID:     hub,
			Actor:     "system",
		})
		if err != nil {
			if shared.IsCode(err, shared.ErrAlreadyExists.Code) {
				s.logger.Debug("cell already exists, skipping",
					zap.String("productId", productID),
					zap.String("hubId", hub))
				continue
			}
			return fmt.Errorf("failed to create cell for product %s at hub %s: %w", productID, hub, err)
		}
	}
	return nil
}

// Restock adds stock to a cell
func (s *Service) Restock(ctx context.Context, productID, hubID string, quantity int32, actor string) (*stock.StockCell, error) {
	return s.mutate(ctx, s.loadByPair(productID, hubID), func(cell *stock.StockCell) error {
		return cell.Restock(quantity, actor)
	})
}

// Reserve commits available stock to an order
func (s *Service) Reserve(ctx context.Context, productID, hubID string, quantity int32, orderID string) (*stock.StockCell, error) {
	return s.mutate(ctx, s.loadByPair(productID, hubID), func(cell *stock.StockCell) error {
		return cell.Reserve(quantity, orderID)
	})
}

// Release returns reserved stock to the available pool
func (s *Service) Release(ctx context.Context, orderID, productID, hubID string, quantity int32) (*stock.StockCell, error) {
	return s.mutate(ctx, s.loadByPair(productID, hubID), func(cell *stock.StockCell) error {
		return cell.Release(quantity, orderID)
	})
}

// ConfirmShipment consumes reserved stock once the order has shipped
func (s *Service) ConfirmShipment(ctx context.Context, orderID, productID, hubID string, quantity int32) (*stock.StockCell, error) {
	return s.mutate(ctx, s.loadByPair(productID, hubID), func(cell *stock.StockCell) error {
		return cell.ConfirmShipment(quantity, orderID)
	})
}

// ReserveBatch attempts every item of a reservation independently.
// A failed item never rolls back its succeeded siblings; the order ID
// is carried into every emitted reservation event so downstream can
// correlate partial outcomes.
func (s *Service) ReserveBatch(ctx context.Context, orderID string, items []ReserveItem) ReserveBatchResult {
	result := ReserveBatchResult{
		OrderID:    orderID,
		AllSuccess: true,
		Results:    make([]ReserveItemResult, 0, len(items)),
	}

	for _, item := range items {
		itemResult := ReserveItemResult{
			ProductID: item.ProductID,
			HubID:     item.HubID,
			Quantity:  item.Quantity,
			Success:   true,
		}
		if _, err := s.Reserve(ctx, item.ProductID, item.HubID, item.Quantity, orderID); err != nil {
			itemResult.Success = false
			itemResult.ErrorKind = shared.ErrorCode(err)
			itemResult.Message = err.Error()
			result.AllSuccess = false
			s.logger.Warn("batch reservation item failed",
				zap.String("orderId", orderID),
				zap.String("productId", item.ProductID),
				zap.String("hubId", item.HubID),
				zap.Error(err))
		}
		result.Results = append(result.Results, itemResult)
	}
	return result
}

// Adjust applies a signed on-hand correction
func (s *Service) Adjust(ctx context.Context, cellID uuid.UUID, delta int32, reason, actor string) (*stock.StockCell, error) {
	return s.mutate(ctx, s.loadByID(cellID), func(cell *stock.StockCell) error {
		return cell.Adjust(delta, reason, actor)
	})
}

// SetSafetyFloor changes a cell's low-stock threshold
func (s *Service) SetSafetyFloor(ctx context.Context, cellID uuid.UUID, floor int32, actor string) (*stock.StockCell, error) {
	return s.mutate(ctx, s.loadByID(cellID), func(cell *stock.StockCell) error {
		return cell.SetSafetyFloor(floor, actor)
	})
}

// SetReorderPoint changes a cell's reorder threshold
func (s *Service) SetReorderPoint(ctx context.Context, cellID uuid.UUID, point int32, actor string) (*stock.StockCell, error) {
	return s.mutate(ctx, s.loadByID(cellID), func(cell *stock.StockCell) error {
		return cell.SetReorderPoint(point, actor)
	})
}

// Relocate moves a cell to a new storage location
func (s *Service) Relocate(ctx context.Context, cellID uuid.UUID, location, actor string) (*stock.StockCell, error) {
	return s.mutate(ctx, s.loadByID(cellID), func(cell *stock.StockCell) error {
		return cell.Relocate(location, actor)
	})
}

// Restore brings a soft-deleted cell back to life
func (s *Service) Restore(ctx context.Context, cellID uuid.UUID, actor string) (*stock.StockCell, error) {
	return s.mutate(ctx, func(ctx context.Context) (*stock.StockCell, error) {
		return s.repo.FindDeletedByID(ctx, cellID)
	}, func(cell *stock.StockCell) error {
		return cell.Restore(actor)
	})
}

// DeleteByProduct soft-deletes every live cell holding the product.
// Absent and already-deleted cells are no-ops, so the walk converges
// under event redelivery. Returns the number of cells deleted.
func (s *Service) DeleteByProduct(ctx context.Context, productID, actor string) (int, error) {
	cells, err := s.repo.FindByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, c := range cells {
		cellID := c.ID
		_, err := s.mutate(ctx, s.loadByID(cellID), func(cell *stock.StockCell) error {
			cell.MarkDeleted(actor)
			return nil
		})
		if err != nil {
			// a concurrent delete already removed it
			if shared.IsCode(err, shared.ErrNotFound.Code) {
				continue
			}
			return deleted, fmt.Errorf("failed to delete cell %s: %w", cellID, err)
		}
		deleted++
	}

	s.logger.Info("cells deleted for product",
		zap.String("productId", productID),
		zap.Int("count", deleted))
	return deleted, nil
}

// GetAvailability reports the reservable state of one cell. An absent
// or deleted cell reports zeros with the error kind set instead of a
// lookup failure.
func (s *Service) GetAvailability(ctx context.Context, productID, hubID string) (Availability, error) {
	cell, err := s.repo.FindByProductAndHub(ctx, productID, hubID)
	if err != nil {
		if shared.IsCode(err, shared.ErrNotFound.Code) {
			return Availability{
				ProductID:   productID,
				HubID:       hubID,
				IsAvailable: false,
				ErrorKind:   shared.ErrNotFound.Code,
			}, nil
		}
		return Availability{}, err
	}

	return Availability{
		ProductID:   productID,
		HubID:       hubID,
		Available:   cell.Available(),
		Reserved:    cell.Reserved,
		Total:       cell.OnHand,
		IsAvailable: cell.Available() > 0,
	}, nil
}

// CheckBulkAvailability checks several products at one hub. An item is
// available when the cell exists and holds at least the requested
// quantity.
func (s *Service) CheckBulkAvailability(ctx context.Context, hubID string, items []AvailabilityQuery) (BulkAvailability, error) {
	result := BulkAvailability{
		AllAvailable: true,
		Results:      make([]Availability, 0, len(items)),
	}

	for _, item := range items {
		avail, err := s.GetAvailability(ctx, item.ProductID, hubID)
		if err != nil {
			return BulkAvailability{}, err
		}
		avail.IsAvailable = avail.ErrorKind == "" && avail.Available >= item.Quantity
		if !avail.IsAvailable {
			result.AllAvailable = false
		}
		result.Results = append(result.Results, avail)
	}
	return result, nil
}

// Exists reports whether a live cell exists for the pair
func (s *Service) Exists(ctx context.Context, productID, hubID string) (bool, error) {
	return s.repo.ExistsLive(ctx, productID, hubID)
}

// GetCell loads a live cell by ID
func (s *Service) GetCell(ctx context.Context, cellID uuid.UUID) (*stock.StockCell, error) {
	return s.repo.FindByID(ctx, cellID)
}

// GetByProductAndHub loads a live cell by its pair
func (s *Service) GetByProductAndHub(ctx context.Context, productID, hubID string) (*stock.StockCell, error) {
	return s.repo.FindByProductAndHub(ctx, productID, hubID)
}

// ListByProduct returns all live cells holding the product
func (s *Service) ListByProduct(ctx context.Context, productID string) ([]*stock.StockCell, error) {
	return s.repo.FindByProduct(ctx, productID)
}

// ListByHub returns live cells at a hub, paginated
func (s *Service) ListByHub(ctx context.Context, hubID string, filter shared.Filter) (shared.Paginated[stock.StockCell], error) {
	return s.repo.FindByHub(ctx, hubID, filter.Normalize())
}

// ListAll returns all live cells, paginated
func (s *Service) ListAll(ctx context.Context, filter shared.Filter) (shared.Paginated[stock.StockCell], error) {
	return s.repo.FindAll(ctx, filter.Normalize())
}

// ListLowStock returns live cells at or under their safety floor.
// hubID narrows the scan when non-empty.
func (s *Service) ListLowStock(ctx context.Context, hubID string) ([]*stock.StockCell, error) {
	return s.repo.FindLowStock(ctx, hubID)
}

// ListOutOfStock returns live cells with nothing left to reserve.
// hubID narrows the scan when non-empty.
func (s *Service) ListOutOfStock(ctx context.Context, hubID string) ([]*stock.StockCell, error) {
	return s.repo.FindOutOfStock(ctx, hubID)
}
