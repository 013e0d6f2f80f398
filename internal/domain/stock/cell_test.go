package stock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/early-express/inventory-service/internal/domain/shared"
)

func newTestCell(t *testing.T) *StockCell {
	t.Helper()
	cell, err := NewStockCell("prod-1", "hub-1", "A-1-1", 10, "tester")
	require.NoError(t, err)
	cell.ClearDomainEvents()
	return cell
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	return derr.Code
}

func TestNewStockCell(t *testing.T) {
	t.Run("creates live cell with reorder point at safety floor", func(t *testing.T) {
		cell, err := NewStockCell("prod-1", "hub-1", "B-2-3", 15, "tester")
		require.NoError(t, err)

		assert.Equal(t, int32(0), cell.OnHand)
		assert.Equal(t, int32(0), cell.Reserved)
		assert.Equal(t, int32(15), cell.SafetyFloor)
		assert.Equal(t, int32(15), cell.ReorderPoint)
		assert.Equal(t, "B-2-3", cell.Location)
		assert.Equal(t, 1, cell.Version)
		assert.False(t, cell.IsDeleted)

		events := cell.GetDomainEvents()
		require.Len(t, events, 1)
		created, ok := events[0].(*InventoryCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, EventTypeInventoryCreated, created.EventType())
		assert.Equal(t, "prod-1", created.PartitionKey())
	})

	t.Run("rejects malformed location", func(t *testing.T) {
		for _, loc := range []string{"", "a-1-1", "A-1", "A-1-1-1", "AA-1-1", "A-x-1"} {
			_, err := NewStockCell("prod-1", "hub-1", loc, 10, "tester")
			require.Error(t, err, "location %q", loc)
			assert.Equal(t, "VALIDATION", domainCode(t, err))
		}
	})

	t.Run("rejects missing identifiers", func(t *testing.T) {
		_, err := NewStockCell("", "hub-1", "A-1-1", 10, "tester")
		assert.Equal(t, "VALIDATION", domainCode(t, err))

		_, err = NewStockCell("prod-1", "", "A-1-1", 10, "tester")
		assert.Equal(t, "VALIDATION", domainCode(t, err))
	})

	t.Run("rejects negative safety floor", func(t *testing.T) {
		_, err := NewStockCell("prod-1", "hub-1", "A-1-1", -1, "tester")
		assert.Equal(t, "VALIDATION", domainCode(t, err))
	})
}

func TestStockCell_Restock(t *testing.T) {
	t.Run("adds stock and records restock time", func(t *testing.T) {
		cell := newTestCell(t)

		err := cell.Restock(50, "tester")
		require.NoError(t, err)

		assert.Equal(t, int32(50), cell.OnHand)
		assert.Equal(t, int32(50), cell.Available())
		require.NotNil(t, cell.LastRestockAt)
		assert.Equal(t, 2, cell.Version)

		events := cell.GetDomainEvents()
		require.Len(t, events, 1)
		restocked, ok := events[0].(*InventoryRestockedEvent)
		require.True(t, ok)
		assert.Equal(t, int32(50), restocked.RestockedQty)
		assert.Equal(t, int32(50), restocked.CurrentQuantity)
		assert.Equal(t, "prod-1", restocked.PartitionKey())
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		cell := newTestCell(t)

		err := cell.Restock(0, "tester")
		assert.Equal(t, "VALIDATION", domainCode(t, err))

		err = cell.Restock(-5, "tester")
		assert.Equal(t, "VALIDATION", domainCode(t, err))
		assert.Empty(t, cell.GetDomainEvents())
	})

	t.Run("rejects overflow before the add", func(t *testing.T) {
		cell := newTestCell(t)
		cell.OnHand = math.MaxInt32 - 1

		err := cell.Restock(2, "tester")
		assert.Equal(t, "LIMIT_EXCEEDED", domainCode(t, err))
		assert.Equal(t, int32(math.MaxInt32-1), cell.OnHand)
	})

	t.Run("rejects deleted cell", func(t *testing.T) {
		cell := newTestCell(t)
		cell.MarkDeleted("tester")
		cell.ClearDomainEvents()

		err := cell.Restock(10, "tester")
		assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	})
}

func TestStockCell_Reserve(t *testing.T) {
	t.Run("reserves available stock", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.Restock(100, "tester"))
		cell.ClearDomainEvents()

		err := cell.Reserve(30, "order-1")
		require.NoError(t, err)

		assert.Equal(t, int32(100), cell.OnHand)
		assert.Equal(t, int32(30), cell.Reserved)
		assert.Equal(t, int32(70), cell.Available())

		events := cell.GetDomainEvents()
		require.Len(t, events, 1)
		reserved, ok := events[0].(*InventoryReservedEvent)
		require.True(t, ok)
		assert.Equal(t, "order-1", reserved.OrderID)
		assert.Equal(t, "order-1", reserved.PartitionKey())
		assert.Equal(t, int32(70), reserved.AvailableQty)
	})

	t.Run("reserving all available leaves zero then rejects one more", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.Restock(20, "tester"))

		require.NoError(t, cell.Reserve(20, "order-1"))
		assert.Equal(t, int32(0), cell.Available())

		err := cell.Reserve(1, "order-2")
		assert.Equal(t, "INSUFFICIENT_STOCK", domainCode(t, err))
		assert.Equal(t, int32(20), cell.Reserved)
	})

	t.Run("does not emit low stock while on-hand stays above the floor", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.Restock(100, "tester"))
		cell.ClearDomainEvents()

		require.NoError(t, cell.Reserve(91, "order-1"))

		events := cell.GetDomainEvents()
		require.Len(t, events, 1)
		assert.IsType(t, &InventoryReservedEvent{}, events[0])
	})

	t.Run("emits low stock when on-hand is already at the floor", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.Restock(10, "tester"))
		cell.ClearDomainEvents()

		require.NoError(t, cell.Reserve(5, "order-1"))

		events := cell.GetDomainEvents()
		require.Len(t, events, 2)
		assert.IsType(t, &InventoryReservedEvent{}, events[0])
		assert.IsType(t, &InventoryLowStockEvent{}, events[1])
	})

	t.Run("rejects non-positive quantity and missing order", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.Restock(10, "tester"))

		err := cell.Reserve(0, "order-1")
		assert.Equal(t, "VALIDATION", domainCode(t, err))

		err = cell.Reserve(5, "")
		assert.Equal(t, "VALIDATION", domainCode(t, err))
	})
}

func TestStockCell_Release(t *testing.T) {
	t.Run("reserve then release round-trips", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.Restock(100, "tester"))

		require.NoError(t, cell.Reserve(40, "order-1"))
		cell.ClearDomainEvents()
		require.NoError(t, cell.Release(40, "order-1"))

		assert.Equal(t, int32(100), cell.OnHand)
		assert.Equal(t, int32(0), cell.Reserved)

		events := cell.GetDomainEvents()
		require.Len(t, events, 1)
		restored, ok := events[0].(*StockRestoredEvent)
		require.True(t, ok)
		assert.Equal(t, "order-1", restored.PartitionKey())
		assert.Equal(t, int32(40), restored.ReleasedQty)
	})

	t.Run("over-release rejected without state change", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.Restock(100, "tester"))
		require.NoError(t, cell.Reserve(30, "order-1"))
		cell.ClearDomainEvents()

		err := cell.Release(50, "order-1")
		assert.Equal(t, "OVER_RELEASE", domainCode(t, err))
		assert.Equal(t, int32(30), cell.Reserved)
		assert.Empty(t, cell.GetDomainEvents())
	})
}

func TestStockCell_ConfirmShipment(t *testing.T) {
	t.Run("consumes reserved and on-hand together", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.Restock(100, "tester"))
		require.NoError(t, cell.Reserve(30, "order-1"))
		cell.ClearDomainEvents()

		require.NoError(t, cell.ConfirmShipment(30, "order-1"))

		assert.Equal(t, int32(70), cell.OnHand)
		assert.Equal(t, int32(0), cell.Reserved)
		assert.Equal(t, int32(70), cell.Available())

		events := cell.GetDomainEvents()
		require.Len(t, events, 1)
		decreased, ok := events[0].(*StockDecreasedEvent)
		require.True(t, ok)
		assert.Equal(t, "order-1", decreased.PartitionKey())
		assert.Equal(t, int32(70), decreased.CurrentQuantity)
	})

	t.Run("emits low stock when on-hand falls to the floor", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.Restock(100, "tester"))
		require.NoError(t, cell.Reserve(91, "order-1"))
		cell.ClearDomainEvents()

		require.NoError(t, cell.ConfirmShipment(91, "order-1"))

		events := cell.GetDomainEvents()
		require.Len(t, events, 2)
		assert.IsType(t, &StockDecreasedEvent{}, events[0])
		low, ok := events[1].(*InventoryLowStockEvent)
		require.True(t, ok)
		assert.Equal(t, int32(9), low.CurrentQuantity)
	})

	t.Run("rejects confirming more than reserved", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.Restock(100, "tester"))
		require.NoError(t, cell.Reserve(10, "order-1"))

		err := cell.ConfirmShipment(20, "order-1")
		assert.Equal(t, "OVER_RELEASE", domainCode(t, err))
	})
}

func TestStockCell_Adjust(t *testing.T) {
	t.Run("applies signed delta silently", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.Restock(50, "tester"))
		cell.ClearDomainEvents()

		require.NoError(t, cell.Adjust(-7, "damaged goods", "tester"))
		assert.Equal(t, int32(43), cell.OnHand)
		assert.Empty(t, cell.GetDomainEvents())

		require.NoError(t, cell.Adjust(3, "recount", "tester"))
		assert.Equal(t, int32(46), cell.OnHand)
		assert.Empty(t, cell.GetDomainEvents())
	})

	t.Run("rejects zero delta and missing reason", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.Restock(50, "tester"))

		err := cell.Adjust(0, "recount", "tester")
		assert.Equal(t, "VALIDATION", domainCode(t, err))

		err = cell.Adjust(1, "", "tester")
		assert.Equal(t, "VALIDATION", domainCode(t, err))
	})

	t.Run("rejects driving on-hand below reserved", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.Restock(50, "tester"))
		require.NoError(t, cell.Reserve(40, "order-1"))

		err := cell.Adjust(-20, "shrinkage", "tester")
		assert.Equal(t, "INSUFFICIENT_STOCK", domainCode(t, err))
		assert.Equal(t, int32(50), cell.OnHand)
	})

	t.Run("rejects overflow", func(t *testing.T) {
		cell := newTestCell(t)
		cell.OnHand = math.MaxInt32

		err := cell.Adjust(1, "recount", "tester")
		assert.Equal(t, "LIMIT_EXCEEDED", domainCode(t, err))
	})
}

func TestStockCell_Thresholds(t *testing.T) {
	t.Run("raising safety floor drags reorder point up", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.SetSafetyFloor(25, "tester"))

		assert.Equal(t, int32(25), cell.SafetyFloor)
		assert.Equal(t, int32(25), cell.ReorderPoint)
	})

	t.Run("lowering safety floor keeps reorder point", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.SetReorderPoint(30, "tester"))
		require.NoError(t, cell.SetSafetyFloor(5, "tester"))

		assert.Equal(t, int32(5), cell.SafetyFloor)
		assert.Equal(t, int32(30), cell.ReorderPoint)
	})

	t.Run("reorder point below safety floor rejected", func(t *testing.T) {
		cell := newTestCell(t)

		err := cell.SetReorderPoint(cell.SafetyFloor-1, "tester")
		assert.Equal(t, "VALIDATION", domainCode(t, err))
	})
}

func TestStockCell_Relocate(t *testing.T) {
	cell := newTestCell(t)

	require.NoError(t, cell.Relocate("C-12-4", "tester"))
	assert.Equal(t, "C-12-4", cell.Location)

	err := cell.Relocate("bad", "tester")
	assert.Equal(t, "VALIDATION", domainCode(t, err))
	assert.Equal(t, "C-12-4", cell.Location)
}

func TestStockCell_Lifecycle(t *testing.T) {
	t.Run("delete then restore", func(t *testing.T) {
		cell := newTestCell(t)

		cell.MarkDeleted("tester")
		assert.True(t, cell.IsDeleted)
		require.NotNil(t, cell.DeletedAt)
		assert.Equal(t, "tester", cell.DeletedBy)

		require.NoError(t, cell.Restore("tester"))
		assert.False(t, cell.IsDeleted)
		assert.Nil(t, cell.DeletedAt)
	})

	t.Run("double delete is a no-op", func(t *testing.T) {
		cell := newTestCell(t)

		cell.MarkDeleted("tester")
		versionAfterFirst := cell.Version
		cell.MarkDeleted("tester")

		assert.Equal(t, versionAfterFirst, cell.Version)
	})

	t.Run("restore of live cell rejected", func(t *testing.T) {
		cell := newTestCell(t)

		err := cell.Restore("tester")
		assert.Equal(t, "VALIDATION", domainCode(t, err))
	})

	t.Run("deleted cell rejects mutations", func(t *testing.T) {
		cell := newTestCell(t)
		require.NoError(t, cell.Restock(10, "tester"))
		cell.MarkDeleted("tester")

		assert.Equal(t, "NOT_FOUND", domainCode(t, cell.Reserve(1, "order-1")))
		assert.Equal(t, "NOT_FOUND", domainCode(t, cell.Release(1, "order-1")))
		assert.Equal(t, "NOT_FOUND", domainCode(t, cell.ConfirmShipment(1, "order-1")))
		assert.Equal(t, "NOT_FOUND", domainCode(t, cell.Adjust(1, "recount", "tester")))
		assert.Equal(t, "NOT_FOUND", domainCode(t, cell.Relocate("A-1-2", "tester")))
	})
}

func TestStockCell_VersionProgression(t *testing.T) {
	cell := newTestCell(t)
	assert.Equal(t, 1, cell.Version)

	require.NoError(t, cell.Restock(100, "tester"))
	assert.Equal(t, 2, cell.Version)

	require.NoError(t, cell.Reserve(10, "order-1"))
	assert.Equal(t, 3, cell.Version)

	require.NoError(t, cell.Release(5, "order-1"))
	assert.Equal(t, 4, cell.Version)

	require.NoError(t, cell.ConfirmShipment(5, "order-1"))
	assert.Equal(t, 5, cell.Version)
}

func TestStockCell_EventIDsUnique(t *testing.T) {
	cell := newTestCell(t)
	require.NoError(t, cell.Restock(100, "tester"))
	require.NoError(t, cell.Reserve(10, "order-1"))
	require.NoError(t, cell.Release(10, "order-1"))

	seen := map[string]bool{}
	for _, ev := range cell.GetDomainEvents() {
		id := ev.EventID().String()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
