package handler

import (
	"github.com/gin-gonic/gin"

	stockapp "github.com/early-express/inventory-service/internal/application/stock"
	"github.com/early-express/inventory-service/internal/domain/shared"
	"github.com/early-express/inventory-service/internal/interfaces/http/dto"
)

// InventoryWebHandler serves the producer/admin API: restocking,
// corrections, threshold and location management, listings, and the
// soft-delete lifecycle. All writes record the acting user from the
// X-User-ID header.
type InventoryWebHandler struct {
	BaseHandler
	service *stockapp.Service
}

// NewInventoryWebHandler creates the handler
func NewInventoryWebHandler(service *stockapp.Service) *InventoryWebHandler {
	return &InventoryWebHandler{service: service}
}

// RegisterRoutes registers the web API routes
func (h *InventoryWebHandler) RegisterRoutes(rg *gin.RouterGroup) {
	web := rg.Group("/web")
	{
		web.GET("/inventories", h.List)
		web.GET("/inventories/:id", h.Get)
		web.GET("/hubs/:hid/inventories", h.ListByHub)
		web.GET("/products/:pid/inventories", h.ListByProduct)
		web.GET("/inventories/low-stock", h.ListLowStock)
		web.GET("/inventories/out-of-stock", h.ListOutOfStock)

		web.POST("/products/:pid/hubs/:hid/restock", h.Restock)
		web.PATCH("/inventories/:id/adjust", h.Adjust)
		web.PATCH("/inventories/:id/safety-floor", h.SetSafetyFloor)
		web.PATCH("/inventories/:id/reorder-point", h.SetReorderPoint)
		web.PATCH("/inventories/:id/location", h.Relocate)
		web.POST("/inventories/:id/restore", h.Restore)
	}
}

func listFilter(req dto.ListRequest) shared.Filter {
	return shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	}
}

// List returns all live cells, paginated
func (h *InventoryWebHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.service.ListAll(c.Request.Context(), listFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	views := make([]stockapp.CellView, len(page.Items))
	for i := range page.Items {
		views[i] = stockapp.ToCellView(&page.Items[i])
	}
	h.SuccessWithMeta(c, views, page.Total, page.Page, page.PageSize)
}

// Get returns one live cell by ID
func (h *InventoryWebHandler) Get(c *gin.Context) {
	cellID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid cell id")
		return
	}

	cell, err := h.service.GetCell(c.Request.Context(), cellID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stockapp.ToCellView(cell))
}

// ListByHub returns the live cells at one hub, paginated
func (h *InventoryWebHandler) ListByHub(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.service.ListByHub(c.Request.Context(), c.Param("hid"), listFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	views := make([]stockapp.CellView, len(page.Items))
	for i := range page.Items {
		views[i] = stockapp.ToCellView(&page.Items[i])
	}
	h.SuccessWithMeta(c, views, page.Total, page.Page, page.PageSize)
}

// ListByProduct returns every live cell holding one product
func (h *InventoryWebHandler) ListByProduct(c *gin.Context) {
	cells, err := h.service.ListByProduct(c.Request.Context(), c.Param("pid"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stockapp.ToCellViews(cells))
}

// ListLowStock returns live cells at or under their safety floor.
// The optional hubId query narrows the scan.
func (h *InventoryWebHandler) ListLowStock(c *gin.Context) {
	cells, err := h.service.ListLowStock(c.Request.Context(), c.Query("hubId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stockapp.ToCellViews(cells))
}

// ListOutOfStock returns live cells with nothing left to reserve
func (h *InventoryWebHandler) ListOutOfStock(c *gin.Context) {
	cells, err := h.service.ListOutOfStock(c.Request.Context(), c.Query("hubId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stockapp.ToCellViews(cells))
}

// Restock adds stock to a (product, hub) cell
func (h *InventoryWebHandler) Restock(c *gin.Context) {
	var req dto.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cell, err := h.service.Restock(c.Request.Context(), c.Param("pid"), c.Param("hid"), req.Quantity, getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stockapp.ToCellView(cell))
}

// Adjust applies a signed on-hand correction with a reason
func (h *InventoryWebHandler) Adjust(c *gin.Context) {
	cellID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid cell id")
		return
	}
	var req dto.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cell, err := h.service.Adjust(c.Request.Context(), cellID, req.Delta, req.Reason, getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stockapp.ToCellView(cell))
}

// SetSafetyFloor changes the low-stock threshold of a cell
func (h *InventoryWebHandler) SetSafetyFloor(c *gin.Context) {
	cellID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid cell id")
		return
	}
	var req dto.SafetyFloorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cell, err := h.service.SetSafetyFloor(c.Request.Context(), cellID, req.SafetyFloor, getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stockapp.ToCellView(cell))
}

// SetReorderPoint changes the reorder threshold of a cell
func (h *InventoryWebHandler) SetReorderPoint(c *gin.Context) {
	cellID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid cell id")
		return
	}
	var req dto.ReorderPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cell, err := h.service.SetReorderPoint(c.Request.Context(), cellID, req.ReorderPoint, getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stockapp.ToCellView(cell))
}

// Relocate moves a cell to a new storage location
func (h *InventoryWebHandler) Relocate(c *gin.Context) {
	cellID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid cell id")
		return
	}
	var req dto.RelocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cell, err := h.service.Relocate(c.Request.Context(), cellID, req.Location, getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stockapp.ToCellView(cell))
}

// Restore brings a soft-deleted cell back to life
func (h *InventoryWebHandler) Restore(c *gin.Context) {
	cellID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid cell id")
		return
	}

	cell, err := h.service.Restore(c.Request.Context(), cellID, getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stockapp.ToCellView(cell))
}
