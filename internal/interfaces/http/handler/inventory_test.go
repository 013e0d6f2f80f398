package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	stockapp "github.com/early-express/inventory-service/internal/application/stock"
	"github.com/early-express/inventory-service/internal/domain/shared"
	"github.com/early-express/inventory-service/internal/domain/stock"
)

// memoryRepo is a minimal in-memory stock.Repository for handler tests
type memoryRepo struct {
	mu    sync.Mutex
	cells map[uuid.UUID]*stock.StockCell
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{cells: make(map[uuid.UUID]*stock.StockCell)}
}

func (m *memoryRepo) snapshot(c *stock.StockCell) *stock.StockCell {
	cp := *c
	cp.ClearDomainEvents()
	return &cp
}

func (m *memoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockCell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cells[id]; ok && !c.IsDeleted {
		return m.snapshot(c), nil
	}
	return nil, shared.ErrNotFound
}

func (m *memoryRepo) FindByProductAndHub(ctx context.Context, productID, hubID string) (*stock.StockCell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cells {
		if c.ProductID == productID && c.HubID == hubID && !c.IsDeleted {
			return m.snapshot(c), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryRepo) FindDeletedByID(ctx context.Context, id uuid.UUID) (*stock.StockCell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cells[id]; ok && c.IsDeleted {
		return m.snapshot(c), nil
	}
	return nil, shared.ErrNotFound
}

func (m *memoryRepo) FindByProduct(ctx context.Context, productID string) ([]*stock.StockCell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*stock.StockCell
	for _, c := range m.cells {
		if c.ProductID == productID && !c.IsDeleted {
			result = append(result, m.snapshot(c))
		}
	}
	return result, nil
}

func (m *memoryRepo) FindByHub(ctx context.Context, hubID string, filter shared.Filter) (shared.Paginated[stock.StockCell], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []stock.StockCell
	for _, c := range m.cells {
		if c.HubID == hubID && !c.IsDeleted {
			items = append(items, *m.snapshot(c))
		}
	}
	return shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize), nil
}

func (m *memoryRepo) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[stock.StockCell], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []stock.StockCell
	for _, c := range m.cells {
		if !c.IsDeleted {
			items = append(items, *m.snapshot(c))
		}
	}
	return shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize), nil
}

func (m *memoryRepo) FindLowStock(ctx context.Context, hubID string) ([]*stock.StockCell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*stock.StockCell
	for _, c := range m.cells {
		if !c.IsDeleted && c.IsBelowSafety() && (hubID == "" || c.HubID == hubID) {
			result = append(result, m.snapshot(c))
		}
	}
	return result, nil
}

func (m *memoryRepo) FindOutOfStock(ctx context.Context, hubID string) ([]*stock.StockCell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*stock.StockCell
	for _, c := range m.cells {
		if !c.IsDeleted && c.IsOutOfStock() && (hubID == "" || c.HubID == hubID) {
			result = append(result, m.snapshot(c))
		}
	}
	return result, nil
}

func (m *memoryRepo) ExistsLive(ctx context.Context, productID, hubID string) (bool, error) {
	if _, err := m.FindByProductAndHub(ctx, productID, hubID); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *memoryRepo) Create(ctx context.Context, cell *stock.StockCell) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cells {
		if c.ProductID == cell.ProductID && c.HubID == cell.HubID && !c.IsDeleted {
			return shared.ErrAlreadyExists
		}
	}
	m.cells[cell.ID] = m.snapshot(cell)
	cell.ClearDomainEvents()
	return nil
}

func (m *memoryRepo) SaveWithLock(ctx context.Context, cell *stock.StockCell) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.cells[cell.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != cell.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	m.cells[cell.ID] = m.snapshot(cell)
	cell.ClearDomainEvents()
	return nil
}

type testEnv struct {
	engine  *gin.Engine
	service *stockapp.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidations()

	service := stockapp.NewService(newMemoryRepo(), stockapp.Config{
		RetryMaxAttempts:   3,
		DefaultSafetyFloor: 10,
		DefaultLocation:    "A-1-1",
	}, zap.NewNop())

	engine := gin.New()
	api := engine.Group("/v1/inventory")
	NewInventoryInternalHandler(service).RegisterRoutes(api)
	NewInventoryWebHandler(service).RegisterRoutes(api)

	return &testEnv{engine: engine, service: service}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "tester")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seed(t *testing.T, productID, hubID string, onHand int32) *stock.StockCell {
	t.Helper()
	ctx := context.Background()
	cell, err := e.service.CreateCell(ctx, stockapp.CreateCellRequest{ProductID: productID, HubID: hubID, Actor: "seed"})
	require.NoError(t, err)
	if onHand > 0 {
		cell, err = e.service.Restock(ctx, productID, hubID, onHand, "seed")
		require.NoError(t, err)
	}
	return cell
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestInternalAPI_Availability(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "P1", "H1", 50)

	t.Run("live cell", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/v1/inventory/internal/products/P1/hubs/H1/availability", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeData(t, w)
		assert.Equal(t, float64(50), data["available"])
		assert.Equal(t, true, data["isAvailable"])
	})

	t.Run("absent cell answers 200 with zeros", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/v1/inventory/internal/products/P9/hubs/H1/availability", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeData(t, w)
		assert.Equal(t, false, data["isAvailable"])
		assert.Equal(t, float64(0), data["available"])
		assert.Equal(t, "NOT_FOUND", data["error"])
	})
}

func TestInternalAPI_CheckAvailability(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "P1", "H1", 50)

	w := env.request(t, http.MethodPost, "/v1/inventory/internal/products/check-availability", gin.H{
		"hubId": "H1",
		"items": []gin.H{
			{"productId": "P1", "quantity": 20},
			{"productId": "P2", "quantity": 5},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, false, data["allAvailable"])
	results := data["results"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, true, results[0].(map[string]any)["isAvailable"])
	assert.Equal(t, false, results[1].(map[string]any)["isAvailable"])
}

func TestInternalAPI_Reserve(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "P1", "H1", 100)

	t.Run("full success answers 200", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/v1/inventory/internal/reservations", gin.H{
			"orderId": "O1",
			"items":   []gin.H{{"productId": "P1", "hubId": "H1", "quantity": 30}},
		})
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeData(t, w)
		assert.Equal(t, true, data["allSuccess"])
	})

	t.Run("partial failure answers 206 without rollback", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/v1/inventory/internal/reservations", gin.H{
			"orderId": "O7",
			"items": []gin.H{
				{"productId": "P1", "hubId": "H1", "quantity": 30},
				{"productId": "P2", "hubId": "H1", "quantity": 20},
			},
		})
		require.Equal(t, http.StatusPartialContent, w.Code)

		data := decodeData(t, w)
		assert.Equal(t, false, data["allSuccess"])
		results := data["results"].([]any)
		require.Len(t, results, 2)
		assert.Equal(t, true, results[0].(map[string]any)["success"])
		failed := results[1].(map[string]any)
		assert.Equal(t, false, failed["success"])
		assert.Equal(t, "NOT_FOUND", failed["errorKind"])

		cell, err := env.service.GetByProductAndHub(context.Background(), "P1", "H1")
		require.NoError(t, err)
		assert.Equal(t, int32(60), cell.Reserved)
	})

	t.Run("missing order id is rejected", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/v1/inventory/internal/reservations", gin.H{
			"items": []gin.H{{"productId": "P1", "hubId": "H1", "quantity": 1}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInternalAPI_ReleaseAndConfirm(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "P1", "H1", 100)

	w := env.request(t, http.MethodPost, "/v1/inventory/internal/reservations", gin.H{
		"orderId": "O1",
		"items":   []gin.H{{"productId": "P1", "hubId": "H1", "quantity": 40}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("release", func(t *testing.T) {
		w := env.request(t, http.MethodDelete, "/v1/inventory/internal/reservations/O1?productId=P1&hubId=H1&quantity=10", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decodeData(t, w)["released"])
	})

	t.Run("over-release answers 400", func(t *testing.T) {
		w := env.request(t, http.MethodDelete, "/v1/inventory/internal/reservations/O1?productId=P1&hubId=H1&quantity=500", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("confirm", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/v1/inventory/internal/reservations/O1/confirm?productId=P1&hubId=H1&quantity=30", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decodeData(t, w)["confirmed"])

		cell, err := env.service.GetByProductAndHub(context.Background(), "P1", "H1")
		require.NoError(t, err)
		assert.Equal(t, int32(70), cell.OnHand)
		assert.Equal(t, int32(0), cell.Reserved)
	})

	t.Run("missing quantity is rejected", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/v1/inventory/internal/reservations/O1/confirm?productId=P1&hubId=H1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInternalAPI_Create(t *testing.T) {
	env := newTestEnv(t)

	t.Run("creates a cell", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/v1/inventory/internal/inventories", gin.H{
			"productId": "P1",
			"hubId":     "H1",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		data := decodeData(t, w)
		assert.Equal(t, "A-1-1", data["location"])
		assert.Equal(t, float64(10), data["safetyFloor"])
	})

	t.Run("duplicate pair answers 409", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/v1/inventory/internal/inventories", gin.H{
			"productId": "P1",
			"hubId":     "H1",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("malformed location answers 400", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/v1/inventory/internal/inventories", gin.H{
			"productId": "P2",
			"hubId":     "H1",
			"location":  "warehouse-7",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInternalAPI_Exists(t *testing.T) {
	env := newTestEnv(t)
	cell := env.seed(t, "P1", "H1", 0)

	w := env.request(t, http.MethodGet, fmt.Sprintf("/v1/inventory/internal/inventories/%s/exists", cell.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeData(t, w)["exists"])

	w = env.request(t, http.MethodGet, fmt.Sprintf("/v1/inventory/internal/inventories/%s/exists", uuid.New()), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeData(t, w)["exists"])
}

func TestWebAPI_Restock(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "P1", "H1", 0)

	w := env.request(t, http.MethodPost, "/v1/inventory/web/products/P1/hubs/H1/restock", gin.H{"quantity": 50})
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, float64(50), data["onHand"])
	assert.NotNil(t, data["lastRestockAt"])

	t.Run("non-positive quantity answers 400", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/v1/inventory/web/products/P1/hubs/H1/restock", gin.H{"quantity": 0})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWebAPI_Adjust(t *testing.T) {
	env := newTestEnv(t)
	cell := env.seed(t, "P1", "H1", 100)

	w := env.request(t, http.MethodPatch, fmt.Sprintf("/v1/inventory/web/inventories/%s/adjust", cell.ID), gin.H{
		"delta":  -20,
		"reason": "cycle count",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(80), decodeData(t, w)["onHand"])

	t.Run("missing reason answers 400", func(t *testing.T) {
		w := env.request(t, http.MethodPatch, fmt.Sprintf("/v1/inventory/web/inventories/%s/adjust", cell.ID), gin.H{
			"delta": 5,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWebAPI_Thresholds(t *testing.T) {
	env := newTestEnv(t)
	cell := env.seed(t, "P1", "H1", 100)

	w := env.request(t, http.MethodPatch, fmt.Sprintf("/v1/inventory/web/inventories/%s/safety-floor", cell.ID), gin.H{
		"safetyFloor": 30,
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(30), data["safetyFloor"])
	assert.Equal(t, float64(30), data["reorderPoint"])

	w = env.request(t, http.MethodPatch, fmt.Sprintf("/v1/inventory/web/inventories/%s/reorder-point", cell.ID), gin.H{
		"reorderPoint": 20,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "reorder point below the floor")
}

func TestWebAPI_Relocate(t *testing.T) {
	env := newTestEnv(t)
	cell := env.seed(t, "P1", "H1", 0)

	w := env.request(t, http.MethodPatch, fmt.Sprintf("/v1/inventory/web/inventories/%s/location", cell.ID), gin.H{
		"location": "C-4-9",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "C-4-9", decodeData(t, w)["location"])

	w = env.request(t, http.MethodPatch, fmt.Sprintf("/v1/inventory/web/inventories/%s/location", cell.ID), gin.H{
		"location": "dock",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebAPI_Listings(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "P1", "H1", 5)
	env.seed(t, "P2", "H1", 100)
	env.seed(t, "P3", "H2", 0)

	t.Run("low stock", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/v1/inventory/web/inventories/low-stock?hubId=H1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var envelope struct {
			Data []map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		require.Len(t, envelope.Data, 1)
		assert.Equal(t, "P1", envelope.Data[0]["productId"])
	})

	t.Run("out of stock", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/v1/inventory/web/inventories/out-of-stock", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var envelope struct {
			Data []map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		require.Len(t, envelope.Data, 1)
		assert.Equal(t, "P3", envelope.Data[0]["productId"])
	})

	t.Run("paginated hub listing", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/v1/inventory/web/hubs/H1/inventories?page=1&page_size=10", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var envelope struct {
			Data []map[string]any `json:"data"`
			Meta map[string]any   `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		assert.Len(t, envelope.Data, 2)
		assert.Equal(t, float64(2), envelope.Meta["total"])
	})
}

func TestWebAPI_Restore(t *testing.T) {
	env := newTestEnv(t)
	cell := env.seed(t, "P1", "H1", 10)

	_, err := env.service.DeleteByProduct(context.Background(), "P1", "ops")
	require.NoError(t, err)

	w := env.request(t, http.MethodPost, fmt.Sprintf("/v1/inventory/web/inventories/%s/restore", cell.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(10), decodeData(t, w)["onHand"])

	t.Run("restoring a live cell answers 400", func(t *testing.T) {
		w := env.request(t, http.MethodPost, fmt.Sprintf("/v1/inventory/web/inventories/%s/restore", cell.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
