package selection

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketly-client/internal/models"
)

func tiers() []models.Tier {
	return []models.Tier{
		{ID: "general", Name: "General", Price: 25000, Available: 150},
		{ID: "vip", Name: "VIP", Price: 45000, Available: 25},
	}
}

func TestSetQuantityClampsToAvailability(t *testing.T) {
	m := New("42", tiers(), rand.New(rand.NewSource(1)))

	got := m.SetQuantity("vip", 30)
	assert.Equal(t, 25, got)
	assert.Equal(t, 25, m.Quantity("vip"))
}

func TestSetQuantityInsertOverwriteRemove(t *testing.T) {
	m := New("42", tiers(), nil)

	m.SetQuantity("vip", 1)
	m.SetQuantity("general", 2)
	m.SetQuantity("vip", 3)
	assert.Equal(t, []Line{
		{TierID: "vip", Quantity: 3, Price: 45000},
		{TierID: "general", Quantity: 2, Price: 25000},
	}, m.Lines())

	assert.Equal(t, 0, m.SetQuantity("vip", 0))
	assert.Equal(t, 0, m.SetQuantity("general", -4))
	assert.True(t, m.IsEmpty())
}

func TestSetQuantityIgnoresUnknownTier(t *testing.T) {
	m := New("42", tiers(), nil)

	assert.Equal(t, 0, m.SetQuantity("palco", 2))
	assert.True(t, m.IsEmpty())
}

func TestIncrementDecrementToggle(t *testing.T) {
	m := New("42", []models.Tier{{ID: "vip", Price: 45000, Available: 2}}, nil)

	assert.Equal(t, 1, m.Increment("vip"))
	assert.Equal(t, 2, m.Increment("vip"))
	assert.Equal(t, 2, m.Increment("vip"))
	assert.Equal(t, 1, m.Decrement("vip"))
	assert.Equal(t, 0, m.Decrement("vip"))
	assert.Equal(t, 0, m.Decrement("vip"))

	assert.Equal(t, 1, m.Toggle("vip"))
	assert.Equal(t, 0, m.Toggle("vip"))
}

func TestTotals(t *testing.T) {
	m := New("42", tiers(), nil)
	m.SetQuantity("general", 2)
	assert.Equal(t, 50000.0, m.TotalPrice())

	m.SetQuantity("vip", 1)
	assert.Equal(t, 3, m.TotalQuantity())
	assert.Equal(t, 95000.0, m.TotalPrice())
}

func TestTotalPriceUsesCapturedPrice(t *testing.T) {
	m := New("42", tiers(), nil)
	m.SetQuantity("general", 2)

	m.UpdateOffering([]models.Tier{
		{ID: "general", Price: 30000, Available: 150},
		{ID: "vip", Price: 50000, Available: 25},
	})
	assert.Equal(t, 50000.0, m.TotalPrice())

	m.SetQuantity("general", 3)
	assert.Equal(t, 75000.0, m.TotalPrice())

	m.SetQuantity("vip", 1)
	assert.Equal(t, 125000.0, m.TotalPrice())
}

func TestUpdateOfferingClampsAndDrops(t *testing.T) {
	m := New("42", []models.Tier{
		{ID: "general", Price: 25000, Available: 150},
		{ID: "vip", Price: 45000, Available: 25},
		{ID: "estudiante", Price: 15000, Available: 75},
	}, nil)
	m.SetQuantity("general", 10)
	m.SetQuantity("vip", 5)
	m.SetQuantity("estudiante", 2)

	m.UpdateOffering([]models.Tier{
		{ID: "general", Price: 25000, Available: 4},
		{ID: "vip", Price: 45000, Available: 0},
	})

	assert.Equal(t, []Line{{TierID: "general", Quantity: 4, Price: 25000}}, m.Lines())
}

func TestRandomizeOnlyPicksAvailableTiers(t *testing.T) {
	offering := []models.Tier{
		{ID: "a", Price: 10, Available: 0},
		{ID: "b", Price: 20, Available: 5},
	}
	for seed := int64(0); seed < 200; seed++ {
		m := New("42", offering, rand.New(rand.NewSource(seed)))
		lines := m.Randomize()
		require.Len(t, lines, 1)
		assert.Equal(t, models.ID("b"), lines[0].TierID)
		assert.GreaterOrEqual(t, lines[0].Quantity, 1)
		assert.LessOrEqual(t, lines[0].Quantity, 5)
	}
}

func TestRandomizeBounds(t *testing.T) {
	offering := []models.Tier{
		{ID: "a", Price: 10, Available: 3},
		{ID: "b", Price: 20, Available: 1},
		{ID: "c", Price: 30, Available: 0},
		{ID: "d", Price: 40, Available: 7},
		{ID: "e", Price: 50, Available: 2},
	}
	avail := map[models.ID]int{"a": 3, "b": 1, "c": 0, "d": 7, "e": 2}

	for seed := int64(0); seed < 200; seed++ {
		m := New("42", offering, rand.New(rand.NewSource(seed)))
		m.SetQuantity("a", 1)
		lines := m.Randomize()

		require.NotEmpty(t, lines)
		assert.LessOrEqual(t, len(lines), 3)
		seen := map[models.ID]bool{}
		for _, l := range lines {
			assert.False(t, seen[l.TierID], "duplicate tier %s", l.TierID)
			seen[l.TierID] = true
			assert.Greater(t, avail[l.TierID], 0)
			assert.GreaterOrEqual(t, l.Quantity, 1)
			assert.LessOrEqual(t, l.Quantity, avail[l.TierID])
		}
		assert.Equal(t, lines, m.Lines())
	}
}

func TestRandomizeIsDeterministicForSeed(t *testing.T) {
	first := New("42", tiers(), rand.New(rand.NewSource(7))).Randomize()
	second := New("42", tiers(), rand.New(rand.NewSource(7))).Randomize()
	assert.Equal(t, first, second)
}

func TestRandomizeWithNothingAvailableClears(t *testing.T) {
	m := New("42", []models.Tier{{ID: "a", Available: 0}}, nil)
	m.lines = []Line{{TierID: "a", Quantity: 1}}

	assert.Empty(t, m.Randomize())
	assert.True(t, m.IsEmpty())
}

func TestSnapshotIsIndependent(t *testing.T) {
	m := New("42", tiers(), nil)
	m.SetQuantity("general", 2)
	snap := m.Snapshot()

	m.SetQuantity("general", 5)
	m.SetQuantity("vip", 1)
	m.UpdateOffering(nil)

	assert.Equal(t, models.ID("42"), snap.EventID)
	assert.Equal(t, []models.PurchaseLine{{TierID: "general", Quantity: 2}}, snap.PurchaseLines())
	assert.Equal(t, 50000.0, snap.TotalPrice())
	assert.True(t, m.IsEmpty())
}

func TestClear(t *testing.T) {
	m := New("42", tiers(), nil)
	m.SetQuantity("general", 2)
	m.Clear()
	assert.Zero(t, m.TotalQuantity())
	assert.True(t, m.Snapshot().IsEmpty())
}
