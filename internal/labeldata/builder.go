// Package labeldata implements the Label Data Builder: it maps a
// shipment, a pallet, the pallet's position, and the shipment's
// staging location into the unmodifiable flat FieldMap the Template
// Engine renders.
package labeldata

import (
	"strconv"
	"time"

	"github.com/wms-platform/labeltagctl/internal/apperr"
	"github.com/wms-platform/labeltagctl/internal/domain"
	"github.com/wms-platform/labeltagctl/internal/norm"
	"github.com/wms-platform/labeltagctl/internal/refdata"
)

// optionalSentinel is substituted for every optional field whose
// underlying value is absent, so the Template Engine never rejects it
// for being blank.
const optionalSentinel = " "

const dateLayout = "01.02.2006" // MM.dd.yyyy

// ShipFrom carries the site-configured ship-from address lines.
type ShipFrom struct {
	Name         string
	Address      string
	CityStateZip string
}

// Builder assembles FieldMaps for one shipment's pallets. It is
// immutable after construction and safely reused across pallets in
// the same job.
type Builder struct {
	skuMatrix      *refdata.SkuMatrix
	locationMatrix *refdata.LocationMatrix
	shipFrom       ShipFrom
}

// NewBuilder wires the Label Data Builder to its reference-data
// dependencies. locationMatrix may be nil: locationNumber then passes
// through unmapped.
func NewBuilder(skuMatrix *refdata.SkuMatrix, locationMatrix *refdata.LocationMatrix, shipFrom ShipFrom) *Builder {
	return &Builder{skuMatrix: skuMatrix, locationMatrix: locationMatrix, shipFrom: shipFrom}
}

// Build produces the field map for one pallet label: shipment +
// pallet + pallet position (1-based) + palletTotal + stagingLocation,
// consulting footprintsBySku for the chosen line item's physical
// packaging metadata.
func (b *Builder) Build(shipment *domain.Shipment, pallet *domain.Pallet, palletSeq, palletTotal int, stagingLocation string, footprintsBySku map[string]domain.ShipmentSkuFootprint) (*FieldMap, error) {
	fm := newFieldMap()

	optionalInto(fm, "shipFromName", b.shipFrom.Name)
	optionalInto(fm, "shipFromAddress", b.shipFrom.Address)
	optionalInto(fm, "shipFromCityStateZip", b.shipFrom.CityStateZip)

	if err := requireInto(fm, "shipToName", shipment.ShipTo.Name); err != nil {
		return nil, err
	}
	if err := requireInto(fm, "shipToAddress1", shipment.ShipTo.Address1); err != nil {
		return nil, err
	}
	if err := requireInto(fm, "shipToCity", shipment.ShipTo.City); err != nil {
		return nil, err
	}
	if err := requireInto(fm, "shipToState", shipment.ShipTo.State); err != nil {
		return nil, err
	}
	if err := requireInto(fm, "shipToZip", shipment.ShipTo.Postal); err != nil {
		return nil, err
	}
	optionalInto(fm, "shipToAddress2", shipment.ShipTo.Address2)
	optionalInto(fm, "shipToAddress3", shipment.ShipTo.Address3)
	optionalInto(fm, "shipToCountry", shipment.ShipTo.Country)
	optionalInto(fm, "shipToPhone", shipment.ShipTo.Phone)

	if err := requireInto(fm, "carrierCode", shipment.CarrierSCAC); err != nil {
		return nil, err
	}
	optionalInto(fm, "carrierMoveId", shipment.CarrierMoveID)
	optionalInto(fm, "serviceLevel", shipment.ServiceLevel)
	optionalInto(fm, "documentNumber", shipment.DocumentNumber)
	optionalInto(fm, "trackingNumber", shipment.TrackingNumber)

	optionalInto(fm, "customerPo", shipment.CustomerPO)
	optionalInto(fm, "locationNumber", b.resolveLocationNumber(shipment.LocationNumber))
	optionalInto(fm, "departmentNumber", shipment.DepartmentNumber)
	optionalInto(fm, "proNumber", shipment.CarrierPRO)
	optionalInto(fm, "bolNumber", shipment.DocumentNumber)
	optionalIntInto(fm, "stopSequence", shipment.StopSequence)

	optionalDateInto(fm, "shipDate", shipment.ShipDate)
	optionalDateInto(fm, "deliveryDate", shipment.DeliveryDate)

	if err := requireInto(fm, "lpnId", pallet.ID); err != nil {
		return nil, err
	}
	if err := requireInto(fm, "ssccBarcode", pallet.SSCC); err != nil {
		return nil, err
	}

	fm.set("palletSeq", strconv.Itoa(palletSeq))
	total := len(shipment.Pallets)
	if palletTotal > total {
		total = palletTotal
	}
	fm.set("palletTotal", strconv.Itoa(total))

	fm.set("weight", strconv.FormatFloat(pallet.Weight, 'f', -1, 64))

	optionalInto(fm, "warehouseLot", pallet.LotTracking.WarehouseLot)
	optionalInto(fm, "customerLot", pallet.LotTracking.SupplierLot)
	optionalDateInto(fm, "manufactureDate", pallet.LotTracking.ManufactureDate)
	optionalDateInto(fm, "bestByDate", pallet.LotTracking.BestByDate)

	if item := representativeLineItem(pallet, b.skuMatrix); item != nil {
		if err := requireInto(fm, "tbgSku", item.SKU); err != nil {
			return nil, err
		}
		fm.set("quantity", strconv.Itoa(item.Quantity))
		unitOfMeasure := item.UnitOfMeasure
		if norm.IsBlank(unitOfMeasure) {
			unitOfMeasure = "EA"
		}
		fm.set("unitOfMeasure", unitOfMeasure)

		if mapping, ok := b.skuMatrix.FindByPrtnum(item.SKU); ok {
			fm.set("walmartItemNumber", mapping.WalmartItemNum)
			fm.set("itemDescription", mapping.Description)
		} else {
			fm.set("walmartItemNumber", optionalSentinel)
			fm.set("itemDescription", optionalSentinel)
		}

		optionalInto(fm, "gtinBarcode", item.GTIN)
		optionalInto(fm, "upcCode", item.UPC)
		optionalIntInto(fm, "unitsPerCase", nonZeroIntPtr(item.UnitsPerCase))

		if footprint, ok := footprintsBySku[item.SKU]; ok {
			optionalIntInto(fm, "unitsPerPallet", footprint.UnitsPerPallet)
			optionalFloatInto(fm, "palletLength", footprint.PalletLength)
			optionalFloatInto(fm, "palletWidth", footprint.PalletWidth)
			optionalFloatInto(fm, "palletHeight", footprint.PalletHeight)
		} else {
			fm.set("unitsPerPallet", optionalSentinel)
			fm.set("palletLength", optionalSentinel)
			fm.set("palletWidth", optionalSentinel)
			fm.set("palletHeight", optionalSentinel)
		}
	}

	stagingLoc := norm.Trim(stagingLocation)
	optionalInto(fm, "stagingLocation", stagingLoc)

	return fm, nil
}

// resolveLocationNumber pre-maps locationNumber through the Location
// Matrix when one is configured, else returns it unchanged.
func (b *Builder) resolveLocationNumber(locationNumber string) string {
	if b.locationMatrix == nil {
		return locationNumber
	}
	return b.locationMatrix.ResolveDcLocation(locationNumber)
}

// representativeLineItem picks the first line item whose SKU resolves
// via SKU-matrix lookup, else the first line item.
func representativeLineItem(pallet *domain.Pallet, matrix *refdata.SkuMatrix) *domain.LineItem {
	if len(pallet.LineItems) == 0 {
		return nil
	}
	if matrix != nil {
		for i := range pallet.LineItems {
			if _, ok := matrix.FindByPrtnum(pallet.LineItems[i].SKU); ok {
				return &pallet.LineItems[i]
			}
		}
	}
	return &pallet.LineItems[0]
}

func requireInto(fm *FieldMap, field, value string) error {
	trimmed, err := norm.RequireNonEmpty(field, value)
	if err != nil {
		return apperr.ValidationError("label field " + field + " is required and was blank").Wrap(err)
	}
	fm.set(field, trimmed)
	return nil
}

func optionalInto(fm *FieldMap, field, value string) {
	trimmed := norm.Trim(value)
	if trimmed == "" {
		fm.set(field, optionalSentinel)
		return
	}
	fm.set(field, trimmed)
}

func optionalIntInto(fm *FieldMap, field string, value *int) {
	if value == nil {
		fm.set(field, optionalSentinel)
		return
	}
	fm.set(field, strconv.Itoa(*value))
}

func optionalDateInto(fm *FieldMap, field string, value *time.Time) {
	if value == nil || value.IsZero() {
		fm.set(field, optionalSentinel)
		return
	}
	fm.set(field, value.Format(dateLayout))
}

func optionalFloatInto(fm *FieldMap, field string, value *float64) {
	if value == nil {
		fm.set(field, optionalSentinel)
		return
	}
	fm.set(field, strconv.FormatFloat(*value, 'f', -1, 64))
}

func nonZeroIntPtr(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
