// Package domain holds the core entities of the labeling pipeline:
// shipments, pallets, line items, reference rows, and the
// job/task/checkpoint records. Entities are constructed once, validated
// against their invariants at construction, and never mutated
// afterward; components receive read-only views.
package domain

import (
	"time"

	"github.com/wms-platform/labeltagctl/internal/apperr"
)

// Address is a ship-to or ship-from postal address.
type Address struct {
	Name     string
	Address1 string
	Address2 string
	Address3 string
	City     string
	State    string
	Postal   string
	Country  string
	Phone    string
}

// Shipment is the shipment header entity.
type Shipment struct {
	ID               string
	OrderID          string
	WarehouseID      string
	StatusCode       string
	DestLocationCode string
	ShipTo           Address
	CarrierSCAC      string
	ServiceLevel     string
	DocumentNumber   string
	TrackingNumber   string
	StopID           string
	StopSequence     *int
	CarrierMoveID    string
	CarrierPRO       string
	CustomerPO       string
	LocationNumber   string
	DepartmentNumber string
	ShipDate         *time.Time
	DeliveryDate     *time.Time
	CreatedAt        time.Time
	Pallets          []Pallet

	events []DomainEvent
}

// NewShipment constructs and validates a Shipment: identifier and at
// least one of {ship-to name, address line 1, city, state, postal,
// carrier code} must be non-empty.
func NewShipment(id string, shipTo Address, carrierSCAC string, fields Shipment) (*Shipment, error) {
	if id == "" {
		return nil, apperr.ValidationError("shipment id is required")
	}
	if shipTo.Name == "" && shipTo.Address1 == "" && shipTo.City == "" &&
		shipTo.State == "" && shipTo.Postal == "" && carrierSCAC == "" {
		return nil, apperr.ValidationError("shipment " + id + " has no usable ship-to or carrier data")
	}

	s := fields
	s.ID = id
	s.ShipTo = shipTo
	s.CarrierSCAC = carrierSCAC
	s.events = nil
	return &s, nil
}

// AddDomainEvent appends an in-process lifecycle event (logged, not
// published — this module has no message bus).
func (s *Shipment) AddDomainEvent(event DomainEvent) {
	s.events = append(s.events, event)
}

// DomainEvents returns the events recorded so far.
func (s *Shipment) DomainEvents() []DomainEvent {
	return s.events
}

// HasPallets reports whether the shipment graph already carries
// physical pallet rows.
func (s *Shipment) HasPallets() bool {
	return len(s.Pallets) > 0
}

// Pallet is a physical or virtual LPN.
type Pallet struct {
	ID              string
	SSCC            string
	CaseCount       int
	UnitCount       int
	Weight          float64
	StagingLocation string
	LotTracking     LotTracking
	LineItems       []LineItem
}

// LotTracking groups a pallet's lot-traceability fields.
type LotTracking struct {
	WarehouseLot    string
	SupplierLot     string
	ManufactureDate *time.Time
	BestByDate      *time.Time
}

// VirtualPalletPrefix marks a synthesized (non-physical) pallet id.
const VirtualPalletPrefix = "NO_LPN_"

// NewPallet constructs and validates a Pallet: identifier and SSCC
// must be non-empty.
func NewPallet(id, sscc string, fields Pallet) (*Pallet, error) {
	if id == "" {
		return nil, apperr.ValidationError("pallet id is required")
	}
	if sscc == "" {
		return nil, apperr.ValidationError("pallet " + id + " has no SSCC")
	}
	p := fields
	p.ID = id
	p.SSCC = sscc
	return &p, nil
}

// IsVirtual reports whether this pallet was synthesized by Planning
// rather than read from a physical pallet row.
func (p *Pallet) IsVirtual() bool {
	return len(p.ID) >= len(VirtualPalletPrefix) && p.ID[:len(VirtualPalletPrefix)] == VirtualPalletPrefix
}

// LineItem is one order line on a pallet.
type LineItem struct {
	LineID          string
	SubLineID       string
	SKU             string
	Description     string
	CustomerPartNum string
	OrderNumber     string
	ConsolBatch     string
	SalesOrder      string
	Quantity        int
	UnitsPerCase    int
	UnitOfMeasure   string
	Weight          float64
	GTIN            string
	UPC             string
	ShortCode       string
	WalmartItemNum  string
}

// NewLineItem constructs and validates a LineItem: SKU is non-empty
// and quantity is non-negative.
func NewLineItem(sku string, fields LineItem) (*LineItem, error) {
	if sku == "" {
		return nil, apperr.ValidationError("line item SKU is required")
	}
	if fields.Quantity < 0 {
		return nil, apperr.ValidationError("line item quantity must be >= 0")
	}
	li := fields
	li.SKU = sku
	return &li, nil
}
