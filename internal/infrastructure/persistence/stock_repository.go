package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/early-express/inventory-service/internal/domain/shared"
	"github.com/early-express/inventory-service/internal/domain/stock"
)

// orderableColumns whitelists columns accepted in list ordering
var orderableColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"product_id": true,
	"hub_id":     true,
	"on_hand":    true,
}

// GormStockCellRepository implements stock.Repository using GORM.
// Create and SaveWithLock run a single transaction covering both the
// cell row and the outbox rows of the cell's pending events, so a
// mutation and its events are durable together or not at all.
type GormStockCellRepository struct {
	db    *gorm.DB
	saver shared.OutboxEventSaver
}

// NewGormStockCellRepository creates a new GormStockCellRepository
func NewGormStockCellRepository(db *gorm.DB, saver shared.OutboxEventSaver) *GormStockCellRepository {
	return &GormStockCellRepository{db: db, saver: saver}
}

// FindByID loads a live cell by its ID
func (r *GormStockCellRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockCell, error) {
	var cell stock.StockCell
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&cell).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cell, nil
}

// FindByProductAndHub loads a live cell by its (product, hub) pair
func (r *GormStockCellRepository) FindByProductAndHub(ctx context.Context, productID, hubID string) (*stock.StockCell, error) {
	var cell stock.StockCell
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND hub_id = ? AND is_deleted = ?", productID, hubID, false).
		First(&cell).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cell, nil
}

// FindDeletedByID loads a soft-deleted cell for the restore path
func (r *GormStockCellRepository) FindDeletedByID(ctx context.Context, id uuid.UUID) (*stock.StockCell, error) {
	var cell stock.StockCell
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, true).
		First(&cell).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cell, nil
}

// FindByProduct returns all live cells holding the product
func (r *GormStockCellRepository) FindByProduct(ctx context.Context, productID string) ([]*stock.StockCell, error) {
	var cells []*stock.StockCell
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_deleted = ?", productID, false).
		Order("created_at asc").
		Find(&cells).Error; err != nil {
		return nil, err
	}
	return cells, nil
}

// FindByHub returns live cells at a hub, paginated
func (r *GormStockCellRepository) FindByHub(ctx context.Context, hubID string, filter shared.Filter) (shared.Paginated[stock.StockCell], error) {
	return r.findPage(ctx, filter, "hub_id = ? AND is_deleted = ?", hubID, false)
}

// FindAll returns all live cells, paginated
func (r *GormStockCellRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[stock.StockCell], error) {
	return r.findPage(ctx, filter, "is_deleted = ?", false)
}

func (r *GormStockCellRepository) findPage(ctx context.Context, filter shared.Filter, cond string, args ...interface{}) (shared.Paginated[stock.StockCell], error) {
	filter = filter.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&stock.StockCell{}).
		Where(cond, args...).
		Count(&total).Error; err != nil {
		return shared.Paginated[stock.StockCell]{}, err
	}

	orderBy := filter.OrderBy
	if !orderableColumns[orderBy] {
		orderBy = "created_at"
	}

	var cells []stock.StockCell
	if err := r.db.WithContext(ctx).
		Where(cond, args...).
		Order(fmt.Sprintf("%s %s", orderBy, filter.OrderDir)).
		Limit(filter.PageSize).
		Offset(filter.Offset()).
		Find(&cells).Error; err != nil {
		return shared.Paginated[stock.StockCell]{}, err
	}

	return shared.NewPaginated(cells, total, filter.Page, filter.PageSize), nil
}

// FindLowStock returns live cells at or under their safety floor
func (r *GormStockCellRepository) FindLowStock(ctx context.Context, hubID string) ([]*stock.StockCell, error) {
	query := r.db.WithContext(ctx).
		Where("is_deleted = ? AND on_hand <= safety_floor", false)
	if hubID != "" {
		query = query.Where("hub_id = ?", hubID)
	}

	var cells []*stock.StockCell
	if err := query.Order("on_hand asc").Find(&cells).Error; err != nil {
		return nil, err
	}
	return cells, nil
}

// FindOutOfStock returns live cells with no available stock
func (r *GormStockCellRepository) FindOutOfStock(ctx context.Context, hubID string) ([]*stock.StockCell, error) {
	query := r.db.WithContext(ctx).
		Where("is_deleted = ? AND on_hand <= reserved", false)
	if hubID != "" {
		query = query.Where("hub_id = ?", hubID)
	}

	var cells []*stock.StockCell
	if err := query.Order("updated_at desc").Find(&cells).Error; err != nil {
		return nil, err
	}
	return cells, nil
}

// ExistsLive reports whether a live cell exists for the pair
func (r *GormStockCellRepository) ExistsLive(ctx context.Context, productID, hubID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&stock.StockCell{}).
		Where("product_id = ? AND hub_id = ? AND is_deleted = ?", productID, hubID, false).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the cell and its pending events atomically. The unique
// live-pair index turns a concurrent duplicate insert into ALREADY_EXISTS.
func (r *GormStockCellRepository) Create(ctx context.Context, cell *stock.StockCell) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(cell).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return err
		}
		return r.saveEvents(ctx, tx, cell)
	})
	if err != nil {
		return err
	}
	cell.ClearDomainEvents()
	return nil
}

// SaveWithLock commits the mutated cell and its pending events in one
// transaction, guarded by the version the cell was loaded with. Domain
// mutations have already bumped the in-memory version, so the stored
// row must still carry version-1 for the update to apply.
func (r *GormStockCellRepository) SaveWithLock(ctx context.Context, cell *stock.StockCell) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&stock.StockCell{}).
			Where("id = ? AND version = ?", cell.ID, cell.Version-1).
			Updates(map[string]interface{}{
				"on_hand":         cell.OnHand,
				"reserved":        cell.Reserved,
				"safety_floor":    cell.SafetyFloor,
				"reorder_point":   cell.ReorderPoint,
				"location":        cell.Location,
				"last_restock_at": cell.LastRestockAt,
				"is_deleted":      cell.IsDeleted,
				"deleted_at":      cell.DeletedAt,
				"deleted_by":      cell.DeletedBy,
				"updated_by":      cell.UpdatedBy,
				"updated_at":      cell.UpdatedAt,
				"version":         cell.Version,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return r.saveEvents(ctx, tx, cell)
	})
	if err != nil {
		return err
	}
	cell.ClearDomainEvents()
	return nil
}

func (r *GormStockCellRepository) saveEvents(ctx context.Context, tx *gorm.DB, cell *stock.StockCell) error {
	events := cell.GetDomainEvents()
	if len(events) == 0 {
		return nil
	}
	return r.saver.SaveEvents(ctx, tx, cell.Version, events...)
}
