package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	stockapp "github.com/early-express/inventory-service/internal/application/stock"
	"github.com/early-express/inventory-service/internal/domain/shared"
	"github.com/early-express/inventory-service/internal/interfaces/http/dto"
)

// InventoryInternalHandler serves the service-to-service API consumed
// by the order-placement service: availability queries, reservations
// and their release/confirm lifecycle, and explicit cell creation.
type InventoryInternalHandler struct {
	BaseHandler
	service *stockapp.Service
}

// NewInventoryInternalHandler creates the handler
func NewInventoryInternalHandler(service *stockapp.Service) *InventoryInternalHandler {
	return &InventoryInternalHandler{service: service}
}

// RegisterRoutes registers the internal API routes
func (h *InventoryInternalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	internal := rg.Group("/internal")
	{
		internal.GET("/products/:pid/hubs/:hid/availability", h.GetAvailability)
		internal.POST("/products/check-availability", h.CheckAvailability)
		internal.POST("/reservations", h.Reserve)
		internal.DELETE("/reservations/:orderId", h.Release)
		internal.POST("/reservations/:orderId/confirm", h.Confirm)
		internal.POST("/inventories", h.Create)
		internal.GET("/inventories/:id/exists", h.Exists)
	}
}

// GetAvailability reports the reservable stock of one (product, hub)
// pair. An absent cell answers zeros with an error field, never a 404,
// so callers can treat "no cell" and "no stock" uniformly.
func (h *InventoryInternalHandler) GetAvailability(c *gin.Context) {
	productID := c.Param("pid")
	hubID := c.Param("hid")

	avail, err := h.service.GetAvailability(c.Request.Context(), productID, hubID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, avail)
}

// CheckAvailability checks several products at one hub in a single call
func (h *InventoryInternalHandler) CheckAvailability(c *gin.Context) {
	var req dto.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items := make([]stockapp.AvailabilityQuery, len(req.Items))
	for i, item := range req.Items {
		items[i] = stockapp.AvailabilityQuery{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	result, err := h.service.CheckBulkAvailability(c.Request.Context(), req.HubID, items)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Reserve reserves stock for an order. Items are attempted
// independently; any failed item turns the response into a 206 with
// per-item outcomes, without rolling back succeeded siblings.
func (h *InventoryInternalHandler) Reserve(c *gin.Context) {
	var req dto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items := make([]stockapp.ReserveItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = stockapp.ReserveItem{ProductID: item.ProductID, HubID: item.HubID, Quantity: item.Quantity}
	}

	result := h.service.ReserveBatch(c.Request.Context(), req.OrderID, items)
	if result.AllSuccess {
		h.Success(c, result)
		return
	}
	h.PartialContent(c, result)
}

func reservationQuery(c *gin.Context) (productID, hubID string, quantity int32, ok bool) {
	productID = c.Query("productId")
	hubID = c.Query("hubId")
	qty, err := strconv.ParseInt(c.Query("quantity"), 10, 32)
	if productID == "" || hubID == "" || err != nil || qty <= 0 {
		return "", "", 0, false
	}
	return productID, hubID, int32(qty), true
}

// Release returns reserved stock of an order back to the pool
func (h *InventoryInternalHandler) Release(c *gin.Context) {
	orderID := c.Param("orderId")
	productID, hubID, quantity, ok := reservationQuery(c)
	if !ok {
		h.BadRequest(c, "productId, hubId and a positive quantity are required")
		return
	}

	if _, err := h.service.Release(c.Request.Context(), orderID, productID, hubID, quantity); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ReleaseResponse{Released: true})
}

// Confirm consumes reserved stock once the order has shipped
func (h *InventoryInternalHandler) Confirm(c *gin.Context) {
	orderID := c.Param("orderId")
	productID, hubID, quantity, ok := reservationQuery(c)
	if !ok {
		h.BadRequest(c, "productId, hubId and a positive quantity are required")
		return
	}

	if _, err := h.service.ConfirmShipment(c.Request.Context(), orderID, productID, hubID, quantity); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ConfirmResponse{Confirmed: true})
}

// Create initializes a cell for a (product, hub) pair
func (h *InventoryInternalHandler) Create(c *gin.Context) {
	var req dto.CreateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cell, err := h.service.CreateCell(c.Request.Context(), stockapp.CreateCellRequest{
		ProductID:   req.ProductID,
		HubID:       req.HubID,
		Location:    req.Location,
		SafetyFloor: req.SafetyFloor,
		Actor:       getUserID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, stockapp.ToCellView(cell))
}

// Exists probes whether a live cell exists
func (h *InventoryInternalHandler) Exists(c *gin.Context) {
	cellID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid cell id")
		return
	}

	_, err = h.service.GetCell(c.Request.Context(), cellID)
	if err != nil {
		if shared.IsCode(err, shared.ErrNotFound.Code) {
			h.Success(c, dto.ExistsResponse{Exists: false})
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ExistsResponse{Exists: true})
}
