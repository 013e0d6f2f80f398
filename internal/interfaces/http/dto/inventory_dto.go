package dto

// CreateInventoryRequest creates a cell for a (product, hub) pair.
// Location and safety floor fall back to configured defaults.
type CreateInventoryRequest struct {
	ProductID   string `json:"productId" binding:"required"`
	HubID       string `json:"hubId" binding:"required"`
	Location    string `json:"location" binding:"omitempty,hub_location"`
	SafetyFloor *int32 `json:"safetyFloor" binding:"omitempty,min=0"`
}

// CheckAvailabilityRequest checks several products at one hub
type CheckAvailabilityRequest struct {
	HubID string             `json:"hubId" binding:"required"`
	Items []AvailabilityItem `json:"items" binding:"required,min=1,dive"`
}

// AvailabilityItem is one product line in a bulk availability check
type AvailabilityItem struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int32  `json:"quantity" binding:"required,gt=0"`
}

// ReserveRequest reserves stock for an order across one or more cells
type ReserveRequest struct {
	OrderID string        `json:"orderId" binding:"required"`
	Items   []ReserveItem `json:"items" binding:"required,min=1,dive"`
}

// ReserveItem is one (product, hub, quantity) line of a reservation
type ReserveItem struct {
	ProductID string `json:"productId" binding:"required"`
	HubID     string `json:"hubId" binding:"required"`
	Quantity  int32  `json:"quantity" binding:"required,gt=0"`
}

// ReleaseResponse acknowledges a released reservation
type ReleaseResponse struct {
	Released bool `json:"released"`
}

// ConfirmResponse acknowledges a confirmed shipment
type ConfirmResponse struct {
	Confirmed bool `json:"confirmed"`
}

// ExistsResponse reports whether a live cell exists
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// RestockRequest adds stock to a cell
type RestockRequest struct {
	Quantity int32 `json:"quantity" binding:"required,gt=0"`
}

// AdjustRequest applies a signed on-hand correction with a reason
type AdjustRequest struct {
	Delta  int32  `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// SafetyFloorRequest changes a cell's safety floor
type SafetyFloorRequest struct {
	SafetyFloor int32 `json:"safetyFloor" binding:"min=0"`
}

// ReorderPointRequest changes a cell's reorder point
type ReorderPointRequest struct {
	ReorderPoint int32 `json:"reorderPoint" binding:"min=0"`
}

// RelocateRequest moves a cell to a new storage location
type RelocateRequest struct {
	Location string `json:"location" binding:"required,hub_location"`
}
