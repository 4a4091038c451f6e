package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/labeltagctl/internal/domain"
)

func upp(n int) *int { return &n }

func footprint(t *testing.T, sku string, units int, unitsPerPallet *int) domain.ShipmentSkuFootprint {
	t.Helper()
	f, err := domain.NewShipmentSkuFootprint(sku, units, domain.ShipmentSkuFootprint{UnitsPerPallet: unitsPerPallet})
	require.NoError(t, err)
	return *f
}

func TestPlanFullAndPartialPallets(t *testing.T) {
	// SKU X, units=250, upp=100 -> 2 full pallets, 1 partial.
	f := footprint(t, "X", 250, upp(100))
	result := Plan([]domain.ShipmentSkuFootprint{f})

	assert.Equal(t, 250, result.TotalUnits)
	assert.Equal(t, 2, result.FullPallets)
	assert.Equal(t, 1, result.PartialPallets)
	assert.Equal(t, 3, result.EstimatedPallets)
	assert.Empty(t, result.SkusMissingFootprint)

	math := result.SkuMath["X"]
	assert.Equal(t, math.FullPallets*math.UnitsPerPallet+math.PartialUnits, math.Units)
	assert.True(t, math.PartialUnits >= 0 && math.PartialUnits < math.UnitsPerPallet)
}

func TestPlanMissingFootprintCountsAsOnePartialPallet(t *testing.T) {
	// SKU Y, units=40, upp absent.
	f := footprint(t, "Y", 40, nil)
	result := Plan([]domain.ShipmentSkuFootprint{f})

	assert.Equal(t, 1, result.PartialPallets)
	assert.Equal(t, []string{"Y"}, result.SkusMissingFootprint)
}

func TestPlanSkipsZeroUnitRows(t *testing.T) {
	f := footprint(t, "Z", 0, upp(10))
	result := Plan([]domain.ShipmentSkuFootprint{f})

	assert.Equal(t, 0, result.FullPallets)
	assert.Equal(t, 0, result.PartialPallets)
}

func TestPlanExactDivisionHasNoPartial(t *testing.T) {
	f := footprint(t, "W", 300, upp(100))
	result := Plan([]domain.ShipmentSkuFootprint{f})

	assert.Equal(t, 3, result.FullPallets)
	assert.Equal(t, 0, result.PartialPallets)
}

func TestSynthesizeVirtualPalletsConservesUnits(t *testing.T) {
	// 250 units / 100 upp -> three pallets {100, 100, 50}.
	f := footprint(t, "X", 250, upp(100))
	seq := NewSequence()

	pallets, err := SynthesizeVirtualPallets([]domain.ShipmentSkuFootprint{f}, seq)
	require.NoError(t, err)
	require.Len(t, pallets, 3)

	total := 0
	for _, p := range pallets {
		total += p.UnitCount
		assert.LessOrEqual(t, p.UnitCount, 100)
		assert.True(t, p.IsVirtual())
	}
	assert.Equal(t, 250, total)
	assert.Equal(t, []int{100, 100, 50}, []int{pallets[0].UnitCount, pallets[1].UnitCount, pallets[2].UnitCount})
}

func TestSynthesizeVirtualPalletsWithoutFootprintEmitsOnePallet(t *testing.T) {
	f := footprint(t, "Y", 40, nil)
	seq := NewSequence()

	pallets, err := SynthesizeVirtualPallets([]domain.ShipmentSkuFootprint{f}, seq)
	require.NoError(t, err)
	require.Len(t, pallets, 1)
	assert.Equal(t, 40, pallets[0].UnitCount)
}

func TestSynthesizeVirtualPalletsSkipsZeroUnitsAndBlankSku(t *testing.T) {
	a := footprint(t, "A", 0, upp(10))
	blank := domain.ShipmentSkuFootprint{SKU: "", TotalUnits: 5, UnitsPerPallet: upp(10)}
	seq := NewSequence()

	pallets, err := SynthesizeVirtualPallets([]domain.ShipmentSkuFootprint{a, blank}, seq)
	require.NoError(t, err)
	assert.Empty(t, pallets)
}

func TestSynthesizeVirtualPalletsAssignsDistinctSSCCs(t *testing.T) {
	f := footprint(t, "X", 250, upp(100))
	seq := NewSequence()

	pallets, err := SynthesizeVirtualPallets([]domain.ShipmentSkuFootprint{f}, seq)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, p := range pallets {
		assert.Len(t, p.SSCC, 18)
		assert.False(t, seen[p.SSCC])
		seen[p.SSCC] = true
	}
}
