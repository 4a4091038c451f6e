// Package job implements Job Preparation, the Task Builder, and the
// Executor + Checkpoint Store: turning a
// shipment or carrier-move id into a fully-planned, fully-rendered
// queue of print tasks, then replaying that queue with durable,
// resumable progress.
package job

import (
	"context"
	"sort"

	"github.com/wms-platform/labeltagctl/internal/apperr"
	"github.com/wms-platform/labeltagctl/internal/domain"
	"github.com/wms-platform/labeltagctl/internal/obslog"
	"github.com/wms-platform/labeltagctl/internal/planning"
	"github.com/wms-platform/labeltagctl/internal/query"
)

// PreparedJob is the fully-planned state for one shipment:
// the shipment graph, its per-SKU footprints and planning result, the
// pallets it will print (physical or synthesized), and the staging
// location the label builder needs.
type PreparedJob struct {
	ShipmentID      string
	Shipment        *domain.Shipment
	FootprintsBySku map[string]domain.ShipmentSkuFootprint
	Planning        planning.Result
	Pallets         []domain.Pallet
	UsedVirtual     bool
	StagingLocation string

	// StopPosition and StopTotal are set only when this job is part of a
	// carrier-move. The Task Builder does not read them: the stopSequence
	// override and the stop position in payload ids come from the job's
	// PreparedStopGroup.
	StopPosition int
	StopTotal    int
}

// PreparedStopGroup is one stop within a carrier move, holding every
// shipment destined for that stop in shipment-id ascending order.
type PreparedStopGroup struct {
	StopID          string
	PrimarySequence *int
	StopPosition    int
	Jobs            []*PreparedJob
}

// PreparedCarrierMoveJob is the fully-planned state for one carrier
// move: its stop groups ordered by primary sequence ascending (stops
// with no sequence sort last), ties broken by first-encountered order
// in the stop index.
type PreparedCarrierMoveJob struct {
	CarrierMoveID string
	Groups        []PreparedStopGroup
}

// Preparer wires the Query Layer and Planning together to prepare
// jobs. Label rendering happens downstream in the Task Builder.
type Preparer struct {
	store  *query.Store
	logger *obslog.Logger
}

// NewPreparer constructs a Preparer. logger may be nil, in which case
// lifecycle events are not recorded.
func NewPreparer(store *query.Store, logger *obslog.Logger) *Preparer {
	return &Preparer{store: store, logger: logger}
}

// emit logs a domain event through obslog, if a logger is wired. These
// are in-process events surfaced at the point of occurrence, never
// published to a bus.
func (p *Preparer) emit(ctx context.Context, ev domain.DomainEvent, data map[string]any) {
	if p.logger == nil {
		return
	}
	p.logger.Event(ctx, ev.EventType(), data)
}

// PrepareShipment loads one shipment's graph, footprints, and staging
// location, runs Planning, and synthesizes virtual pallets when the
// graph carried none.
func (p *Preparer) PrepareShipment(ctx context.Context, shipmentID string) (*PreparedJob, error) {
	exists, err := p.store.ShipmentExists(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.ValidationError("shipment " + shipmentID + " was not found")
	}

	shipment, err := p.store.FindShipmentWithLpnsAndLineItems(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	p.emit(ctx, domain.NewShipmentResolvedEvent(shipmentID, len(shipment.Pallets)), map[string]any{
		"shipmentId":  shipmentID,
		"palletCount": len(shipment.Pallets),
	})

	footprintRows, err := p.store.FindShipmentSkuFootprints(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	footprintsBySku := make(map[string]domain.ShipmentSkuFootprint, len(footprintRows))
	for _, f := range footprintRows {
		footprintsBySku[f.SKU] = f
	}

	planResult := planning.Plan(footprintRows)

	pallets := shipment.Pallets
	usedVirtual := false
	if len(pallets) == 0 {
		seq := planning.NewSequence()
		pallets, err = planning.SynthesizeVirtualPallets(footprintRows, seq)
		if err != nil {
			return nil, err
		}
		usedVirtual = true
		p.emit(ctx, domain.NewVirtualPalletsSynthesizedEvent(shipmentID, len(pallets)), map[string]any{
			"shipmentId": shipmentID,
			"count":      len(pallets),
		})
	}

	stagingLocation, err := p.store.GetStagingLocation(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if stagingLocation == "" {
		stagingLocation = shipment.DestLocationCode
	}

	return &PreparedJob{
		ShipmentID:      shipmentID,
		Shipment:        shipment,
		FootprintsBySku: footprintsBySku,
		Planning:        planResult,
		Pallets:         pallets,
		UsedVirtual:     usedVirtual,
		StagingLocation: stagingLocation,
	}, nil
}

// PrepareCarrierMove loads the carrier-move's stop index, groups
// shipments by stop, orders the groups, and prepares each member
// shipment as its own PreparedJob sharing the same Query Layer handle.
func (p *Preparer) PrepareCarrierMove(ctx context.Context, carrierMoveID string) (*PreparedCarrierMoveJob, error) {
	stops, err := p.store.FindCarrierMoveStops(ctx, carrierMoveID)
	if err != nil {
		return nil, err
	}
	if len(stops) == 0 {
		return nil, apperr.ValidationError("carrier move " + carrierMoveID + " has no stops")
	}

	plans := orderStopGroups(stops)

	groups := make([]PreparedStopGroup, 0, len(plans))
	for i, plan := range plans {
		group := PreparedStopGroup{
			StopID:          plan.StopID,
			PrimarySequence: plan.PrimarySequence,
			StopPosition:    i + 1,
		}
		for _, shipmentID := range plan.ShipmentIDs {
			prepared, err := p.PrepareShipment(ctx, shipmentID)
			if err != nil {
				return nil, err
			}
			prepared.StopPosition = group.StopPosition
			group.Jobs = append(group.Jobs, prepared)
		}
		groups = append(groups, group)
	}
	for i := range groups {
		for j := range groups[i].Jobs {
			groups[i].Jobs[j].StopTotal = len(groups)
		}
	}

	return &PreparedCarrierMoveJob{CarrierMoveID: carrierMoveID, Groups: groups}, nil
}

// stopGroupPlan is the ordered, de-duplicated outline of one stop
// group before its member shipments are prepared.
type stopGroupPlan struct {
	StopID          string
	PrimarySequence *int
	ShipmentIDs     []string
}

// orderStopGroups groups the stop index rows by stop id, de-duplicates
// shipment ids within each stop, sorts the shipment ids ascending, and
// orders the groups by primary stop sequence ascending with absent
// sequences last, ties broken by first-encountered order.
func orderStopGroups(stops []domain.CarrierMoveStopRef) []stopGroupPlan {
	order := make([]string, 0)
	byStop := make(map[string]*stopGroupPlan)
	seen := make(map[string]map[string]bool)

	for _, row := range stops {
		plan, ok := byStop[row.StopID]
		if !ok {
			plan = &stopGroupPlan{StopID: row.StopID, PrimarySequence: row.PrimarySequence}
			byStop[row.StopID] = plan
			order = append(order, row.StopID)
			seen[row.StopID] = make(map[string]bool)
		}
		if seen[row.StopID][row.ShipmentID] {
			continue
		}
		seen[row.StopID][row.ShipmentID] = true
		plan.ShipmentIDs = append(plan.ShipmentIDs, row.ShipmentID)
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := byStop[order[i]], byStop[order[j]]
		if b.PrimarySequence == nil {
			return a.PrimarySequence != nil
		}
		if a.PrimarySequence == nil {
			return false
		}
		return *a.PrimarySequence < *b.PrimarySequence
	})

	out := make([]stopGroupPlan, 0, len(order))
	for _, stopID := range order {
		plan := byStop[stopID]
		sort.Strings(plan.ShipmentIDs)
		out = append(out, *plan)
	}
	return out
}

// QueueItemKind distinguishes the two shapes PrepareQueue can hold.
type QueueItemKind string

const (
	QueueItemShipment    QueueItemKind = "SHIPMENT"
	QueueItemCarrierMove QueueItemKind = "CARRIER_MOVE"
)

// QueueItem is one entry of a PreparedQueue.
type QueueItem struct {
	Kind        QueueItemKind
	SourceID    string
	Job         *PreparedJob
	CarrierMove *PreparedCarrierMoveJob
}

// PrepareQueue prepares every requested shipment or carrier move,
// preserving caller order. An empty request list is rejected as
// invalid input rather than silently producing an empty queue.
func (p *Preparer) PrepareQueue(ctx context.Context, shipmentIDs, carrierMoveIDs []string) ([]QueueItem, error) {
	if len(shipmentIDs) == 0 && len(carrierMoveIDs) == 0 {
		return nil, apperr.ValidationError("job queue requires at least one shipment id or carrier move id")
	}

	var items []QueueItem
	for _, id := range shipmentIDs {
		prepared, err := p.PrepareShipment(ctx, id)
		if err != nil {
			return nil, err
		}
		items = append(items, QueueItem{Kind: QueueItemShipment, SourceID: id, Job: prepared})
	}
	for _, id := range carrierMoveIDs {
		prepared, err := p.PrepareCarrierMove(ctx, id)
		if err != nil {
			return nil, err
		}
		items = append(items, QueueItem{Kind: QueueItemCarrierMove, SourceID: id, CarrierMove: prepared})
	}
	return items, nil
}

// PrinterSelectionFields builds the field map SelectPrinter consults:
// routing rules match against shipment/carrier attributes
// and the resolved staging location, not the rendered label fields.
func PrinterSelectionFields(job *PreparedJob) map[string]string {
	return map[string]string{
		"carrierCode":      job.Shipment.CarrierSCAC,
		"destLocationCode": job.Shipment.DestLocationCode,
		"serviceLevel":     job.Shipment.ServiceLevel,
		"warehouseId":      job.Shipment.WarehouseID,
		"stagingLocation":  job.StagingLocation,
	}
}
