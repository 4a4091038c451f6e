package domain

import (
	"time"

	"github.com/wms-platform/labeltagctl/internal/apperr"
)

// PrinterConfig is one entry of the printer inventory.
type PrinterConfig struct {
	ID           string
	Name         string
	Host         string
	Port         int
	Tags         map[string]string
	Enabled      bool
	LocationHint string
}

// NewPrinterConfig constructs and validates a PrinterConfig: id, host
// non-empty, port in 1..65535.
func NewPrinterConfig(id, host string, port int, fields PrinterConfig) (*PrinterConfig, error) {
	if id == "" {
		return nil, apperr.ConfigError("printer entry is missing an id")
	}
	if host == "" {
		return nil, apperr.ConfigError("printer " + id + " is missing a host")
	}
	if port < 1 || port > 65535 {
		return nil, apperr.ConfigError("printer " + id + " has an invalid port")
	}
	p := fields
	p.ID = id
	p.Host = host
	p.Port = port
	return &p, nil
}

// RoutingOperator is a comparison operator for RoutingRule matching.
type RoutingOperator string

const (
	OpEquals     RoutingOperator = "EQUALS"
	OpStartsWith RoutingOperator = "STARTS_WITH"
	OpContains   RoutingOperator = "CONTAINS"
)

// RoutingRule is one printer-selection rule.
type RoutingRule struct {
	ID              string
	Enabled         bool
	Field           string
	Operator        RoutingOperator
	Value           string
	TargetPrinterID string
}

// CarrierMoveStopRef is one row of the carrier-move→stop→shipment
// index.
type CarrierMoveStopRef struct {
	CarrierMoveID     string
	StopID            string
	PrimarySequence   *int
	SecondarySequence *int
	ShipmentID        string
	ShipmentStatus    string
	ShipmentCreatedAt time.Time
}
