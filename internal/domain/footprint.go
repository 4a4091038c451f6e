package domain

import "github.com/wms-platform/labeltagctl/internal/apperr"

// ShipmentSkuFootprint is the per-SKU packaging metadata used by
// Planning.
type ShipmentSkuFootprint struct {
	SKU            string
	Description    string
	TotalUnits     int
	UnitsPerCase   *int
	UnitsPerPallet *int
	PalletLength   *float64
	PalletWidth    *float64
	PalletHeight   *float64
}

// NewShipmentSkuFootprint constructs and validates a footprint row:
// SKU non-empty, units >= 0.
func NewShipmentSkuFootprint(sku string, totalUnits int, fields ShipmentSkuFootprint) (*ShipmentSkuFootprint, error) {
	if sku == "" {
		return nil, apperr.ValidationError("footprint row SKU is required")
	}
	if totalUnits < 0 {
		return nil, apperr.ValidationError("footprint row units must be >= 0")
	}
	f := fields
	f.SKU = sku
	f.TotalUnits = totalUnits
	return &f, nil
}

// HasUnitsPerPallet reports whether a positive units-per-pallet value
// is present.
func (f *ShipmentSkuFootprint) HasUnitsPerPallet() bool {
	return f.UnitsPerPallet != nil && *f.UnitsPerPallet > 0
}

// WalmartSkuMapping is one row of the SKU matrix.
type WalmartSkuMapping struct {
	ShortTBGSKU    string
	WalmartItemNum string
	Description    string
}

// NewWalmartSkuMapping constructs and validates a mapping row: all
// three fields are required.
func NewWalmartSkuMapping(shortSKU, walmartItem, description string) (*WalmartSkuMapping, error) {
	if shortSKU == "" || walmartItem == "" || description == "" {
		return nil, apperr.ValidationError("SKU matrix row requires TBG SKU, Walmart item number, and description")
	}
	return &WalmartSkuMapping{ShortTBGSKU: shortSKU, WalmartItemNum: walmartItem, Description: description}, nil
}
