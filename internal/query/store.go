// Package query is the Query Layer: it retrieves a
// shipment graph, SKU footprint rows, and the carrier-move→stop→
// shipment index from the relational store, wrapping every I/O failure
// into a typed connectivity error.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wms-platform/labeltagctl/internal/apperr"
	"github.com/wms-platform/labeltagctl/internal/domain"
	"github.com/wms-platform/labeltagctl/internal/norm"
)

// DSNConfig holds the fields needed to build an Oracle DSN. An
// explicit ORACLE_DSN/ORACLE_JDBC_URL always wins.
type DSNConfig struct {
	Host     string
	Port     int
	Service  string
	Username string
	Password string
	Explicit string
}

// BuildDSN returns cfg.Explicit if set, else a go-ora-flavored DSN
// constructed from the site host. The go-ora/v2 driver itself is
// registered only at the CLI entry point (blank import); this helper
// stays a pure string builder so the Query Layer's own code never
// imports the driver package directly.
func BuildDSN(cfg DSNConfig) string {
	if cfg.Explicit != "" {
		return cfg.Explicit
	}
	return fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Service)
}

// Querier is the subset of *sql.DB the Store depends on, so tests can
// substitute a fake or a sqlmock-style stand-in.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PingContext(ctx context.Context) error
}

// Store is the Query Layer's concrete implementation, backed by a
// *sql.DB (or any Querier).
type Store struct {
	db Querier
}

// NewStore wraps db.
func NewStore(db Querier) *Store {
	return &Store{db: db}
}

// Ping probes connectivity for the db-test CLI subcommand.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperr.DbConnectivityError("database ping failed").Wrap(err)
	}
	return nil
}

const shipmentExistsQuery = `
SELECT COUNT(*)
FROM order_line ol
JOIN shipment sh ON sh.shipment_id = ol.shipment_id
WHERE sh.shipment_id = :1`

// ShipmentExists reports whether shipmentID has at least one order
// line.
func (s *Store) ShipmentExists(ctx context.Context, shipmentID string) (bool, error) {
	shipmentID, err := norm.RequireNonEmpty("shipmentId", shipmentID)
	if err != nil {
		return false, err
	}

	var count int
	row := s.db.QueryRowContext(ctx, shipmentExistsQuery, shipmentID)
	if err := row.Scan(&count); err != nil {
		return false, apperr.DbConnectivityError("failed to check shipment existence for " + shipmentID).Wrap(err)
	}
	return count > 0, nil
}

// shipmentGraphQuery is the single join over shipment header, address
// master, order header (customer PO + location number), order line,
// product master (optional), stop, carrier-move, pick-work-detail,
// inventory-detail, inventory-sub, and inventory-load. It is
// intentionally a wide flat projection: grouping
// into the Shipment/Pallet/LineItem tree happens in Go, in-memory.
const shipmentGraphQuery = `
SELECT
  sh.shipment_id, sh.order_id, sh.warehouse_id, sh.status_code, sh.dest_location_code,
  am.ship_to_name, am.address1, am.address2, am.address3, am.city, am.state, am.postal, am.country, am.phone,
  sh.carrier_scac, sh.service_level, sh.document_number, sh.tracking_number,
  sh.stop_id, st.stop_sequence, sh.car_move_id, sh.carrier_pro,
  oh.customer_po, oh.location_number, sh.department_number,
  sh.ship_date, sh.delivery_date, sh.created_at,
  pwd.pallet_id, inv_load.sscc, inv_load.case_count, inv_load.unit_count, inv_load.weight, inv_load.staging_location,
  inv_sub.warehouse_lot, inv_sub.supplier_lot, inv_sub.manufacture_date, inv_sub.best_by_date,
  ol.line_id, ol.sub_line_id, ol.sku, pm.description, ol.customer_part_num, ol.order_number,
  ol.consol_batch, ol.sales_order, ol.quantity, ol.units_per_case, ol.unit_of_measure, ol.weight,
  pm.gtin, pm.upc, pm.short_code, pm.walmart_item_num
FROM shipment sh
JOIN address_master am ON am.shipment_id = sh.shipment_id
JOIN orders oh ON oh.order_id = sh.order_id
JOIN order_line ol ON ol.shipment_id = sh.shipment_id
LEFT JOIN product_master pm ON pm.sku = ol.sku
LEFT JOIN stop st ON st.stop_id = sh.stop_id
LEFT JOIN carrier_move cm ON cm.car_move_id = sh.car_move_id
LEFT JOIN pick_work_detail pwd ON pwd.shipment_id = sh.shipment_id AND pwd.line_id = ol.line_id
LEFT JOIN inventory_detail inv_detl ON inv_detl.pallet_id = pwd.pallet_id
LEFT JOIN inventory_sub inv_sub ON inv_sub.pallet_id = pwd.pallet_id
LEFT JOIN inventory_load inv_load ON inv_load.pallet_id = pwd.pallet_id
WHERE sh.shipment_id = :1
ORDER BY pwd.pallet_id, ol.line_id, ol.sub_line_id`

type graphRow struct {
	shipmentID, orderID, warehouseID, statusCode, destLocationCode sql.NullString
	shipToName, address1, address2, address3                      sql.NullString
	city, state, postal, country, phone                            sql.NullString
	carrierSCAC, serviceLevel, documentNumber, trackingNumber       sql.NullString
	stopID       sql.NullString
	stopSequence sql.NullInt64
	carMoveID    sql.NullString
	carrierPRO   sql.NullString
	customerPO, locationNumber, departmentNumber                   sql.NullString
	shipDate, deliveryDate, createdAt                               sql.NullTime

	palletID, sscc                                                  sql.NullString
	caseCount, unitCount                                            sql.NullInt64
	weight                                                          sql.NullFloat64
	stagingLocation                                                 sql.NullString
	warehouseLot, supplierLot                                       sql.NullString
	manufactureDate, bestByDate                                     sql.NullTime

	lineID, subLineID, sku, description, customerPartNum, orderNumber sql.NullString
	consolBatch, salesOrder                                           sql.NullString
	quantity, unitsPerCase                                            sql.NullInt64
	unitOfMeasure                                                     sql.NullString
	lineWeight                                                        sql.NullFloat64
	gtin, upc, shortCode, walmartItemNum                              sql.NullString
}

func (r *graphRow) scanArgs() []any {
	return []any{
		&r.shipmentID, &r.orderID, &r.warehouseID, &r.statusCode, &r.destLocationCode,
		&r.shipToName, &r.address1, &r.address2, &r.address3, &r.city, &r.state, &r.postal, &r.country, &r.phone,
		&r.carrierSCAC, &r.serviceLevel, &r.documentNumber, &r.trackingNumber,
		&r.stopID, &r.stopSequence, &r.carMoveID, &r.carrierPRO,
		&r.customerPO, &r.locationNumber, &r.departmentNumber,
		&r.shipDate, &r.deliveryDate, &r.createdAt,
		&r.palletID, &r.sscc, &r.caseCount, &r.unitCount, &r.weight, &r.stagingLocation,
		&r.warehouseLot, &r.supplierLot, &r.manufactureDate, &r.bestByDate,
		&r.lineID, &r.subLineID, &r.sku, &r.description, &r.customerPartNum, &r.orderNumber,
		&r.consolBatch, &r.salesOrder, &r.quantity, &r.unitsPerCase, &r.unitOfMeasure, &r.lineWeight,
		&r.gtin, &r.upc, &r.shortCode, &r.walmartItemNum,
	}
}

// FindShipmentWithLpnsAndLineItems executes shipmentGraphQuery and
// reconstructs the Shipment tree, grouping rows in memory by pallet
// identifier. When the shipment has no pallet rows,
// Pallets is empty: Planning is responsible for synthesizing virtual
// pallets in that case.
func (s *Store) FindShipmentWithLpnsAndLineItems(ctx context.Context, shipmentID string) (*domain.Shipment, error) {
	shipmentID, err := norm.RequireNonEmpty("shipmentId", shipmentID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, shipmentGraphQuery, shipmentID)
	if err != nil {
		return nil, apperr.DbConnectivityError("failed to query shipment graph for " + shipmentID).Wrap(err)
	}
	defer rows.Close()

	var header *graphRow
	palletOrder := make([]string, 0)
	palletsByID := make(map[string]*domain.Pallet)
	lineItemKeys := make(map[string]map[string]struct{})

	for rows.Next() {
		var row graphRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, apperr.DbConnectivityError("failed to scan shipment graph row for " + shipmentID).Wrap(err)
		}
		if header == nil {
			header = &row
		}

		if !row.palletID.Valid || row.palletID.String == "" {
			continue
		}
		palletID := row.palletID.String
		pallet, ok := palletsByID[palletID]
		if !ok {
			pallet = &domain.Pallet{
				ID:              palletID,
				SSCC:            row.sscc.String,
				CaseCount:       int(row.caseCount.Int64),
				UnitCount:       int(row.unitCount.Int64),
				Weight:          row.weight.Float64,
				StagingLocation: row.stagingLocation.String,
				LotTracking: domain.LotTracking{
					WarehouseLot:    row.warehouseLot.String,
					SupplierLot:     row.supplierLot.String,
					ManufactureDate: nullTimePtr(row.manufactureDate),
					BestByDate:      nullTimePtr(row.bestByDate),
				},
			}
			palletsByID[palletID] = pallet
			palletOrder = append(palletOrder, palletID)
			lineItemKeys[palletID] = make(map[string]struct{})
		}

		if !row.lineID.Valid || row.lineID.String == "" {
			continue
		}
		lineKey := row.lineID.String + "/" + row.subLineID.String
		if _, seen := lineItemKeys[palletID][lineKey]; seen {
			continue
		}
		lineItemKeys[palletID][lineKey] = struct{}{}

		pallet.LineItems = append(pallet.LineItems, domain.LineItem{
			LineID:          row.lineID.String,
			SubLineID:       row.subLineID.String,
			SKU:             row.sku.String,
			Description:     row.description.String,
			CustomerPartNum: row.customerPartNum.String,
			OrderNumber:     row.orderNumber.String,
			ConsolBatch:     row.consolBatch.String,
			SalesOrder:      row.salesOrder.String,
			Quantity:        int(row.quantity.Int64),
			UnitsPerCase:    int(row.unitsPerCase.Int64),
			UnitOfMeasure:   row.unitOfMeasure.String,
			Weight:          row.lineWeight.Float64,
			GTIN:            row.gtin.String,
			UPC:             row.upc.String,
			ShortCode:       row.shortCode.String,
			WalmartItemNum:  row.walmartItemNum.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.DbConnectivityError("failed reading shipment graph rows for " + shipmentID).Wrap(err)
	}
	if header == nil {
		return nil, apperr.ValidationError("shipment " + shipmentID + " has no rows")
	}

	pallets := make([]domain.Pallet, 0, len(palletOrder))
	for _, id := range palletOrder {
		pallets = append(pallets, *palletsByID[id])
	}

	shipTo := domain.Address{
		Name: header.shipToName.String, Address1: header.address1.String,
		Address2: header.address2.String, Address3: header.address3.String,
		City: header.city.String, State: header.state.String,
		Postal: header.postal.String, Country: header.country.String, Phone: header.phone.String,
	}

	return domain.NewShipment(shipmentID, shipTo, header.carrierSCAC.String, domain.Shipment{
		OrderID:          header.orderID.String,
		WarehouseID:      header.warehouseID.String,
		StatusCode:       header.statusCode.String,
		DestLocationCode: header.destLocationCode.String,
		ServiceLevel:     header.serviceLevel.String,
		DocumentNumber:   header.documentNumber.String,
		TrackingNumber:   header.trackingNumber.String,
		StopID:           header.stopID.String,
		StopSequence:     nullIntPtr(header.stopSequence),
		CarrierMoveID:    header.carMoveID.String,
		CarrierPRO:       header.carrierPRO.String,
		CustomerPO:       header.customerPO.String,
		LocationNumber:   header.locationNumber.String,
		DepartmentNumber: header.departmentNumber.String,
		ShipDate:         nullTimePtr(header.shipDate),
		DeliveryDate:     nullTimePtr(header.deliveryDate),
		CreatedAt:        header.createdAt.Time,
		Pallets:          pallets,
	})
}

const skuFootprintQuery = `
SELECT ol.sku, MAX(pm.description), SUM(ol.quantity), MAX(ol.units_per_case),
       MAX(ssf.units_per_pallet), MAX(ssf.pallet_length), MAX(ssf.pallet_width), MAX(ssf.pallet_height)
FROM order_line ol
LEFT JOIN product_master pm ON pm.sku = ol.sku
LEFT JOIN sku_footprint ssf ON ssf.sku = ol.sku
WHERE ol.shipment_id = :1
GROUP BY ol.sku`

// FindShipmentSkuFootprints returns the aggregated per-SKU units with
// optional footprint metadata.
func (s *Store) FindShipmentSkuFootprints(ctx context.Context, shipmentID string) ([]domain.ShipmentSkuFootprint, error) {
	shipmentID, err := norm.RequireNonEmpty("shipmentId", shipmentID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, skuFootprintQuery, shipmentID)
	if err != nil {
		return nil, apperr.DbConnectivityError("failed to query sku footprints for " + shipmentID).Wrap(err)
	}
	defer rows.Close()

	var out []domain.ShipmentSkuFootprint
	for rows.Next() {
		var sku, description sql.NullString
		var totalUnits sql.NullInt64
		var unitsPerCase, unitsPerPallet sql.NullInt64
		var length, width, height sql.NullFloat64

		if err := rows.Scan(&sku, &description, &totalUnits, &unitsPerCase, &unitsPerPallet, &length, &width, &height); err != nil {
			return nil, apperr.DbConnectivityError("failed to scan sku footprint row for " + shipmentID).Wrap(err)
		}

		footprint, err := domain.NewShipmentSkuFootprint(sku.String, int(totalUnits.Int64), domain.ShipmentSkuFootprint{
			Description:    description.String,
			UnitsPerCase:   nullIntPtr(unitsPerCase),
			UnitsPerPallet: nullIntPtr(unitsPerPallet),
			PalletLength:   nullFloatPtr(length),
			PalletWidth:    nullFloatPtr(width),
			PalletHeight:   nullFloatPtr(height),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, *footprint)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.DbConnectivityError("failed reading sku footprint rows for " + shipmentID).Wrap(err)
	}
	return out, nil
}

const stagingLocationQuery = `SELECT dest_location_code FROM shipment WHERE shipment_id = :1`

// GetStagingLocation returns the uppercased destination-location field
// of the shipment, or "" if unset.
func (s *Store) GetStagingLocation(ctx context.Context, shipmentID string) (string, error) {
	shipmentID, err := norm.RequireNonEmpty("shipmentId", shipmentID)
	if err != nil {
		return "", err
	}

	var loc sql.NullString
	row := s.db.QueryRowContext(ctx, stagingLocationQuery, shipmentID)
	if err := row.Scan(&loc); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", apperr.DbConnectivityError("failed to read staging location for " + shipmentID).Wrap(err)
	}
	return norm.UpperTrim(loc.String), nil
}

// carrierMoveStopsQuery joins stop and shipment on car_move_id. The
// primary stop sequence is the authoritative ordering field; the
// secondary (TMS-provided) sequence is carried along but never used to
// order.
const carrierMoveStopsQuery = `
SELECT st.stop_id, st.stop_sequence, st.tms_stop_sequence, sh.shipment_id, sh.status_code, sh.created_at
FROM stop st
JOIN shipment sh ON sh.stop_id = st.stop_id
WHERE st.car_move_id = :1
ORDER BY st.stop_sequence ASC, sh.shipment_id ASC`

// FindCarrierMoveStops returns one row per shipment on carrierMoveID,
// ordered by primary stop sequence ascending then shipment id
// ascending.
func (s *Store) FindCarrierMoveStops(ctx context.Context, carrierMoveID string) ([]domain.CarrierMoveStopRef, error) {
	carrierMoveID, err := norm.RequireNonEmpty("carrierMoveId", carrierMoveID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, carrierMoveStopsQuery, carrierMoveID)
	if err != nil {
		return nil, apperr.DbConnectivityError("failed to query carrier move stops for " + carrierMoveID).Wrap(err)
	}
	defer rows.Close()

	var out []domain.CarrierMoveStopRef
	for rows.Next() {
		var stopID, shipmentID, status sql.NullString
		var primarySeq, secondarySeq sql.NullInt64
		var createdAt sql.NullTime

		if err := rows.Scan(&stopID, &primarySeq, &secondarySeq, &shipmentID, &status, &createdAt); err != nil {
			return nil, apperr.DbConnectivityError("failed to scan carrier move stop row for " + carrierMoveID).Wrap(err)
		}

		out = append(out, domain.CarrierMoveStopRef{
			CarrierMoveID:     carrierMoveID,
			StopID:            stopID.String,
			PrimarySequence:   nullIntPtr(primarySeq),
			SecondarySequence: nullIntPtr(secondarySeq),
			ShipmentID:        shipmentID.String,
			ShipmentStatus:    status.String,
			ShipmentCreatedAt: createdAt.Time,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.DbConnectivityError("failed reading carrier move stop rows for " + carrierMoveID).Wrap(err)
	}
	return out, nil
}

func nullIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullFloatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
