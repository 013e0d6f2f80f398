package stock

import (
	"time"

	"github.com/early-express/inventory-service/internal/domain/stock"
	"github.com/google/uuid"
)

// CreateCellRequest initializes a cell for a (product, hub) pair.
// Location and SafetyFloor fall back to configured defaults when empty.
type CreateCellRequest struct {
	ProductID   string
	HubID       string
	Location    string
	SafetyFloor *int32
	Actor       string
}

// Availability reports the reservable state of one cell. An absent cell
// reports zeros with ErrorKind set instead of a lookup failure.
type Availability struct {
	ProductID   string `json:"productId"`
	HubID       string `json:"hubId"`
	Available   int32  `json:"available"`
	Reserved    int32  `json:"reserved"`
	Total       int32  `json:"total"`
	IsAvailable bool   `json:"isAvailable"`
	ErrorKind   string `json:"error,omitempty"`
}

// AvailabilityQuery is one product line in a bulk availability check
type AvailabilityQuery struct {
	ProductID string
	Quantity  int32
}

// BulkAvailability reports per-item availability outcomes at one hub
type BulkAvailability struct {
	AllAvailable bool           `json:"allAvailable"`
	Results      []Availability `json:"results"`
}

// ReserveItem is one (product, hub, quantity) line of a reservation
type ReserveItem struct {
	ProductID string
	HubID     string
	Quantity  int32
}

// ReserveItemResult is the per-item outcome of a batch reservation
type ReserveItemResult struct {
	ProductID string `json:"productId"`
	HubID     string `json:"hubId"`
	Quantity  int32  `json:"quantity"`
	Success   bool   `json:"success"`
	ErrorKind string `json:"errorKind,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ReserveBatchResult is the fold over all items of a reservation.
// Items fail independently; a failed sibling never rolls back a
// succeeded one.
type ReserveBatchResult struct {
	OrderID    string              `json:"orderId"`
	AllSuccess bool                `json:"allSuccess"`
	Results    []ReserveItemResult `json:"results"`
}

// CellView is the application-level representation of a stock cell
type CellView struct {
	ID            uuid.UUID  `json:"id"`
	ProductID     string     `json:"productId"`
	HubID         string     `json:"hubId"`
	OnHand        int32      `json:"onHand"`
	Reserved      int32      `json:"reserved"`
	Available     int32      `json:"available"`
	SafetyFloor   int32      `json:"safetyFloor"`
	ReorderPoint  int32      `json:"reorderPoint"`
	Location      string     `json:"location"`
	LastRestockAt *time.Time `json:"lastRestockAt,omitempty"`
	BelowSafety   bool       `json:"belowSafety"`
	OutOfStock    bool       `json:"outOfStock"`
	Version       int        `json:"version"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ToCellView converts a domain cell to its application view
func ToCellView(cell *stock.StockCell) CellView {
	return CellView{
		ID:            cell.ID,
		ProductID:     cell.ProductID,
		HubID:         cell.HubID,
		OnHand:        cell.OnHand,
		Reserved:      cell.Reserved,
		Available:     cell.Available(),
		SafetyFloor:   cell.SafetyFloor,
		ReorderPoint:  cell.ReorderPoint,
		Location:      cell.Location,
		LastRestockAt: cell.LastRestockAt,
		BelowSafety:   cell.IsBelowSafety(),
		OutOfStock:    cell.IsOutOfStock(),
		Version:       cell.Version,
		CreatedAt:     cell.CreatedAt,
		UpdatedAt:     cell.UpdatedAt,
	}
}

// ToCellViews converts a slice of domain cells
func ToCellViews(cells []*stock.StockCell) []CellView {
	views := make([]CellView, len(cells))
	for i, c := range cells {
		views[i] = ToCellView(c)
	}
	return views
}
