// Package planning computes pallet counts per SKU from footprint rows
// and synthesizes virtual pallets when the shipment graph has none yet.
package planning

import (
	"fmt"
	"sort"

	"github.com/wms-platform/labeltagctl/internal/domain"
)

// SkuMath is the per-SKU planning breakdown Job Preparation carries
// alongside the aggregate Result.
type SkuMath struct {
	SKU              string
	Units            int
	UnitsPerPallet   int
	FullPallets      int
	PartialUnits     int
	EstimatedPallets int
}

// Result is the aggregate planning outcome for a shipment.
type Result struct {
	TotalUnits           int
	FullPallets          int
	PartialPallets       int
	EstimatedPallets     int
	SkusMissingFootprint []string
	SkuMath              map[string]SkuMath
}

// Plan computes Result from a shipment's footprint rows.
func Plan(footprints []domain.ShipmentSkuFootprint) Result {
	result := Result{SkuMath: make(map[string]SkuMath)}

	for _, f := range footprints {
		result.TotalUnits += f.TotalUnits
		if f.TotalUnits <= 0 {
			continue
		}

		if f.HasUnitsPerPallet() {
			upp := *f.UnitsPerPallet
			full := f.TotalUnits / upp
			remainder := f.TotalUnits % upp
			result.FullPallets += full
			partialPallets := 0
			if remainder > 0 {
				result.PartialPallets++
				partialPallets = 1
			}
			result.SkuMath[f.SKU] = SkuMath{
				SKU: f.SKU, Units: f.TotalUnits, UnitsPerPallet: upp,
				FullPallets: full, PartialUnits: remainder,
				EstimatedPallets: full + partialPallets,
			}
			continue
		}

		result.PartialPallets++
		result.SkusMissingFootprint = append(result.SkusMissingFootprint, f.SKU)
		result.SkuMath[f.SKU] = SkuMath{
			SKU: f.SKU, Units: f.TotalUnits, PartialUnits: f.TotalUnits, EstimatedPallets: 1,
		}
	}

	result.EstimatedPallets = result.FullPallets + result.PartialPallets
	sort.Strings(result.SkusMissingFootprint)
	return result
}

// Sequence numbers synthetic SSCC barcodes and virtual pallet ids
// within one job. Each job gets a fresh Sequence so
// numbering never leaks across jobs.
type Sequence struct {
	next int
}

// NewSequence returns a fresh virtual-pallet sequence starting at 1.
func NewSequence() *Sequence {
	return &Sequence{next: 1}
}

func (s *Sequence) nextID() int {
	id := s.next
	s.next++
	return id
}

// SynthesizeVirtualPallets builds virtual pallets for footprints with
// units > 0 and a non-empty SKU: when units-per-pallet
// is absent or zero, one pallet carries all units; otherwise pallets
// are filled at units-per-pallet each, with the remainder (or a full
// units-per-pallet, if units divides evenly) on the last pallet.
func SynthesizeVirtualPallets(footprints []domain.ShipmentSkuFootprint, seq *Sequence) ([]domain.Pallet, error) {
	var pallets []domain.Pallet

	for _, f := range footprints {
		if f.TotalUnits <= 0 || f.SKU == "" {
			continue
		}

		if !f.HasUnitsPerPallet() {
			p, err := newVirtualPallet(seq, f.SKU, f.TotalUnits)
			if err != nil {
				return nil, err
			}
			pallets = append(pallets, *p)
			continue
		}

		upp := *f.UnitsPerPallet
		count := ceilDiv(f.TotalUnits, upp)
		for i := 0; i < count; i++ {
			units := upp
			if i == count-1 {
				remainder := f.TotalUnits % upp
				if remainder != 0 {
					units = remainder
				}
			}
			p, err := newVirtualPallet(seq, f.SKU, units)
			if err != nil {
				return nil, err
			}
			pallets = append(pallets, *p)
		}
	}

	return pallets, nil
}

func newVirtualPallet(seq *Sequence, sku string, units int) (*domain.Pallet, error) {
	id := seq.nextID()
	palletID := fmt.Sprintf("%s%d", domain.VirtualPalletPrefix, id)
	sscc := fmt.Sprintf("%018d", id)

	pallet, err := domain.NewPallet(palletID, sscc, domain.Pallet{
		UnitCount: units,
		LineItems: []domain.LineItem{{SKU: sku, Quantity: units}},
	})
	if err != nil {
		return nil, err
	}
	return pallet, nil
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
