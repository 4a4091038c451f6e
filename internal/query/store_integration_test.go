//go:build integration

package query

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/sijms/go-ora/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Runs the Store against a real Oracle instance in a container.
// Requires Docker; excluded from the default test run by the
// integration build tag:
//
//	go test -tags integration ./internal/query/
func TestStoreAgainstOracle(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "gvenzl/oracle-free:23-slim-faststart",
		ExposedPorts: []string{"1521/tcp"},
		Env: map[string]string{
			"ORACLE_PASSWORD":   "wmstest",
			"APP_USER":          "wms",
			"APP_USER_PASSWORD": "wmstest",
		},
		WaitingFor: wait.ForLog("DATABASE IS READY TO USE!").WithStartupTimeout(5 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate oracle container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "1521/tcp")
	require.NoError(t, err)

	dsn := BuildDSN(DSNConfig{
		Host: host, Port: port.Int(), Service: "FREEPDB1",
		Username: "wms", Password: "wmstest",
	})
	db, err := sql.Open("oracle", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	seedSchema(t, ctx, db)
	store := NewStore(db)

	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, store.Ping(ctx))
	})

	t.Run("ShipmentExists", func(t *testing.T) {
		exists, err := store.ShipmentExists(ctx, "8000141715")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = store.ShipmentExists(ctx, "no-such-shipment")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("FindShipmentWithLpnsAndLineItems", func(t *testing.T) {
		shipment, err := store.FindShipmentWithLpnsAndLineItems(ctx, "8000141715")
		require.NoError(t, err)

		assert.Equal(t, "CJR WHOLESALE GROCERS LTD", shipment.ShipTo.Name)
		assert.Equal(t, "MDLE", shipment.CarrierSCAC)
		assert.Equal(t, "30021144717", shipment.DocumentNumber)
		require.Len(t, shipment.Pallets, 1)
		assert.Equal(t, "LPN001", shipment.Pallets[0].ID)
		assert.Equal(t, "123456789012345678", shipment.Pallets[0].SSCC)
		require.Len(t, shipment.Pallets[0].LineItems, 1)
		assert.Equal(t, "10048500205641000", shipment.Pallets[0].LineItems[0].SKU)
	})

	t.Run("FindShipmentSkuFootprints", func(t *testing.T) {
		footprints, err := store.FindShipmentSkuFootprints(ctx, "8000141715")
		require.NoError(t, err)
		require.Len(t, footprints, 1)
		assert.Equal(t, "10048500205641000", footprints[0].SKU)
		assert.Equal(t, 250, footprints[0].TotalUnits)
		require.NotNil(t, footprints[0].UnitsPerPallet)
		assert.Equal(t, 100, *footprints[0].UnitsPerPallet)
	})

	t.Run("GetStagingLocation", func(t *testing.T) {
		loc, err := store.GetStagingLocation(ctx, "8000141715")
		require.NoError(t, err)
		assert.Equal(t, "ROSSI", loc)
	})

	t.Run("FindCarrierMoveStops", func(t *testing.T) {
		refs, err := store.FindCarrierMoveStops(ctx, "205109")
		require.NoError(t, err)
		require.Len(t, refs, 2)
		assert.Equal(t, "8000473513", refs[0].ShipmentID)
		assert.Equal(t, "8000473512", refs[1].ShipmentID)
	})
}

// seedSchema creates the tables the Store's queries join over and
// loads the scenario rows: shipment 8000141715 with one physical
// pallet, plus carrier move 205109 with two single-shipment stops.
func seedSchema(t *testing.T, ctx context.Context, db *sql.DB) {
	t.Helper()

	ddl := []string{
		`CREATE TABLE shipment (
			shipment_id VARCHAR2(64) PRIMARY KEY, order_id VARCHAR2(64), warehouse_id VARCHAR2(32),
			status_code VARCHAR2(8), dest_location_code VARCHAR2(64),
			carrier_scac VARCHAR2(8), service_level VARCHAR2(32), document_number VARCHAR2(64),
			tracking_number VARCHAR2(64), stop_id VARCHAR2(64), car_move_id VARCHAR2(64),
			carrier_pro VARCHAR2(64), department_number VARCHAR2(32),
			ship_date TIMESTAMP, delivery_date TIMESTAMP, created_at TIMESTAMP)`,
		`CREATE TABLE address_master (
			shipment_id VARCHAR2(64), ship_to_name VARCHAR2(128), address1 VARCHAR2(128),
			address2 VARCHAR2(128), address3 VARCHAR2(128), city VARCHAR2(64), state VARCHAR2(16),
			postal VARCHAR2(16), country VARCHAR2(8), phone VARCHAR2(32))`,
		`CREATE TABLE orders (order_id VARCHAR2(64) PRIMARY KEY, customer_po VARCHAR2(64), location_number VARCHAR2(32))`,
		`CREATE TABLE order_line (
			shipment_id VARCHAR2(64), line_id VARCHAR2(32), sub_line_id VARCHAR2(32), sku VARCHAR2(64),
			customer_part_num VARCHAR2(64), order_number VARCHAR2(64), consol_batch VARCHAR2(64),
			sales_order VARCHAR2(64), quantity NUMBER, units_per_case NUMBER,
			unit_of_measure VARCHAR2(8), weight NUMBER)`,
		`CREATE TABLE product_master (
			sku VARCHAR2(64) PRIMARY KEY, description VARCHAR2(128), gtin VARCHAR2(32),
			upc VARCHAR2(32), short_code VARCHAR2(16), walmart_item_num VARCHAR2(32))`,
		`CREATE TABLE sku_footprint (
			sku VARCHAR2(64) PRIMARY KEY, units_per_pallet NUMBER,
			pallet_length NUMBER, pallet_width NUMBER, pallet_height NUMBER)`,
		`CREATE TABLE stop (stop_id VARCHAR2(64) PRIMARY KEY, car_move_id VARCHAR2(64), stop_sequence NUMBER, tms_stop_sequence NUMBER)`,
		`CREATE TABLE carrier_move (car_move_id VARCHAR2(64) PRIMARY KEY)`,
		`CREATE TABLE pick_work_detail (shipment_id VARCHAR2(64), line_id VARCHAR2(32), pallet_id VARCHAR2(64))`,
		`CREATE TABLE inventory_detail (pallet_id VARCHAR2(64))`,
		`CREATE TABLE inventory_sub (
			pallet_id VARCHAR2(64), warehouse_lot VARCHAR2(64), supplier_lot VARCHAR2(64),
			manufacture_date TIMESTAMP, best_by_date TIMESTAMP)`,
		`CREATE TABLE inventory_load (
			pallet_id VARCHAR2(64), sscc VARCHAR2(18), case_count NUMBER, unit_count NUMBER,
			weight NUMBER, staging_location VARCHAR2(64))`,
	}
	for _, stmt := range ddl {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err, "ddl: %s", stmt)
	}

	seed := []string{
		`INSERT INTO shipment VALUES ('8000141715', 'ORD-1', 'WMD1', 'S', 'rossi',
			'MDLE', 'LTL', '30021144717', '8000141715', NULL, NULL, NULL, '92',
			NULL, NULL, SYSTIMESTAMP)`,
		`INSERT INTO address_master VALUES ('8000141715', 'CJR WHOLESALE GROCERS LTD', '5876 COOPERS AVE',
			NULL, NULL, 'MISSISSAUGA', 'ON', 'L4Z 2B9', 'CAN', NULL)`,
		`INSERT INTO orders VALUES ('ORD-1', 'PO-77', '3090')`,
		`INSERT INTO order_line VALUES ('8000141715', 'L1', 'S1', '10048500205641000',
			NULL, 'ORD-1', NULL, NULL, 250, 6, 'EA', 12.5)`,
		`INSERT INTO product_master VALUES ('10048500205641000', '1.36L PL 1/6 NJ STRW BAN',
			'10048500205641', '048500205648', '205641', '30081705')`,
		`INSERT INTO sku_footprint VALUES ('10048500205641000', 100, 48, 40, 52)`,
		`INSERT INTO pick_work_detail VALUES ('8000141715', 'L1', 'LPN001')`,
		`INSERT INTO inventory_detail VALUES ('LPN001')`,
		`INSERT INTO inventory_sub VALUES ('LPN001', 'WL-9', 'SL-4', NULL, NULL)`,
		`INSERT INTO inventory_load VALUES ('LPN001', '123456789012345678', 42, 250, 880.5, 'ROSSI')`,

		`INSERT INTO carrier_move VALUES ('205109')`,
		`INSERT INTO stop VALUES ('STOP-A', '205109', 1, 9)`,
		`INSERT INTO stop VALUES ('STOP-B', '205109', 2, 1)`,
		`INSERT INTO shipment (shipment_id, order_id, status_code, stop_id, car_move_id, carrier_scac, created_at)
			VALUES ('8000473513', 'ORD-2', 'S', 'STOP-A', '205109', 'MDLE', SYSTIMESTAMP)`,
		`INSERT INTO shipment (shipment_id, order_id, status_code, stop_id, car_move_id, carrier_scac, created_at)
			VALUES ('8000473512', 'ORD-3', 'S', 'STOP-B', '205109', 'MDLE', SYSTIMESTAMP)`,
	}
	for _, stmt := range seed {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err, "seed: %s", stmt)
	}
}
