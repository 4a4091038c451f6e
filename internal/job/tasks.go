package job

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/wms-platform/labeltagctl/internal/domain"
	"github.com/wms-platform/labeltagctl/internal/labeldata"
	"github.com/wms-platform/labeltagctl/internal/norm"
	"github.com/wms-platform/labeltagctl/internal/template"
)

// TaskBuilder renders a PreparedJob's pallets and stop/final summaries
// into the ordered, pre-rendered PrintTask list the Executor replays.
// Payloads never re-render during execution.
type TaskBuilder struct {
	builder  *labeldata.Builder
	template *domain.LabelTemplate
}

// NewTaskBuilder wires the Task Builder to the Label Data Builder and
// the parsed label template.
func NewTaskBuilder(builder *labeldata.Builder, tmpl *domain.LabelTemplate) *TaskBuilder {
	return &TaskBuilder{builder: builder, template: tmpl}
}

// BuildShipmentTasks renders a standalone shipment job's tasks: one
// pallet task per pallet, followed by a single STOP_INFO_TAG task
// summarizing the shipment.
func (b *TaskBuilder) BuildShipmentTasks(job *PreparedJob) ([]domain.PrintTask, error) {
	palletTasks, err := b.buildPalletTasks(job, nil)
	if err != nil {
		return nil, err
	}

	infoPayload := b.renderStopInfoPayload([]*PreparedJob{job}, job.StagingLocation)
	infoTask := domain.PrintTask{
		Kind:      domain.TaskStopInfoTag,
		FileName:  fmt.Sprintf("info-shipment-%s.zpl", slug(job.ShipmentID)),
		Payload:   []byte(infoPayload),
		PayloadID: job.ShipmentID + " (stop summary)",
	}

	return append(palletTasks, infoTask), nil
}

// BuildCarrierMoveTasks renders every stop group's pallet tasks plus
// its STOP_INFO_TAG task, followed by one FINAL_INFO_TAG task
// summarizing every stop and shipment in the move.
func (b *TaskBuilder) BuildCarrierMoveTasks(cm *PreparedCarrierMoveJob) ([]domain.PrintTask, error) {
	var tasks []domain.PrintTask
	var allJobs []*PreparedJob

	groupTotal := len(cm.Groups)
	for _, group := range cm.Groups {
		stop := &stopContext{
			primarySequence: group.PrimarySequence,
			stopPosition:    group.StopPosition,
		}
		for _, memberJob := range group.Jobs {
			palletTasks, err := b.buildPalletTasks(memberJob, stop)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, palletTasks...)
			allJobs = append(allJobs, memberJob)
		}

		infoPayload := b.renderStopInfoPayload(group.Jobs, "")
		tasks = append(tasks, domain.PrintTask{
			Kind:      domain.TaskStopInfoTag,
			FileName:  fmt.Sprintf("info-stop-%02d-of-%02d.zpl", group.StopPosition, groupTotal),
			Payload:   []byte(infoPayload),
			PayloadID: fmt.Sprintf("%s/stop-%d-of-%d", cm.CarrierMoveID, group.StopPosition, groupTotal),
		})
	}

	tasks = append(tasks, domain.PrintTask{
		Kind:      domain.TaskFinalInfoTag,
		FileName:  fmt.Sprintf("info-final-cmid-%s.zpl", slug(cm.CarrierMoveID)),
		Payload:   []byte(b.renderFinalInfoPayload(cm, allJobs)),
		PayloadID: cm.CarrierMoveID + " (final summary)",
	})

	return tasks, nil
}

// stopContext carries the carrier-move stop attributes folded into a
// member job's pallet tasks. The authoritative primary stop sequence
// drives the rendered stopSequence field; the 1-based stop position is
// for the log-payload id only.
type stopContext struct {
	primarySequence *int
	stopPosition    int
}

// sequence returns the primary stop sequence, falling back to the stop
// position when the sequence is absent.
func (s *stopContext) sequence() int {
	if s.primarySequence != nil {
		return *s.primarySequence
	}
	return s.stopPosition
}

// buildPalletTasks renders one pallet task per pallet in job, in
// pallet order. When stop is non-nil (the job is part of a carrier
// move), the stop's primary sequence replaces the rendered
// stopSequence field and the stop position is folded into the payload
// id.
func (b *TaskBuilder) buildPalletTasks(job *PreparedJob, stop *stopContext) ([]domain.PrintTask, error) {
	total := len(job.Pallets)
	if len(job.Shipment.Pallets) > total {
		total = len(job.Shipment.Pallets)
	}

	tasks := make([]domain.PrintTask, 0, len(job.Pallets))
	for i := range job.Pallets {
		pallet := job.Pallets[i]
		seq := i + 1

		fm, err := b.builder.Build(job.Shipment, &pallet, seq, total, job.StagingLocation, job.FootprintsBySku)
		if err != nil {
			return nil, err
		}
		fields := fm.AsMap()
		if stop != nil {
			fields["stopSequence"] = strconv.Itoa(stop.sequence())
		}

		payload, err := template.Render(b.template, fields)
		if err != nil {
			return nil, err
		}

		payloadID := fmt.Sprintf("%s/%s (%d/%d)", job.ShipmentID, pallet.ID, seq, total)
		if stop != nil {
			payloadID = fmt.Sprintf("%s stop %d (%d/%d)", payloadID, stop.stopPosition, seq, total)
		}

		tasks = append(tasks, domain.PrintTask{
			Kind:      domain.TaskPalletLabel,
			FileName:  fmt.Sprintf("%s_%s_%d_of_%d.zpl", job.ShipmentID, pallet.ID, seq, total),
			Payload:   []byte(payload),
			PayloadID: payloadID,
		})
	}
	return tasks, nil
}

// renderStopInfoPayload builds the plain-text STOP_INFO_TAG body: the
// stop's destination and every shipment id routed there.
func (b *TaskBuilder) renderStopInfoPayload(jobs []*PreparedJob, fallbackStaging string) string {
	var sb strings.Builder
	sb.WriteString(template.Escape(jobs[0].Shipment.ShipTo.Name))
	sb.WriteString("\n")
	sb.WriteString(template.Escape(addressLine(jobs[0].Shipment)))
	sb.WriteString("\nSHIPMENTS:")
	for _, j := range shipmentIDsOf(jobs) {
		sb.WriteString(" ")
		sb.WriteString(j)
	}
	if fallbackStaging != "" {
		sb.WriteString("\nSTAGING: ")
		sb.WriteString(fallbackStaging)
	}
	return sb.String()
}

// renderFinalInfoPayload builds the FINAL_INFO_TAG body summarizing
// every stop and every shipment id in the carrier move.
func (b *TaskBuilder) renderFinalInfoPayload(cm *PreparedCarrierMoveJob, allJobs []*PreparedJob) string {
	var sb strings.Builder
	sb.WriteString("CARRIER MOVE ")
	sb.WriteString(cm.CarrierMoveID)
	sb.WriteString("\nSTOPS: ")
	sb.WriteString(strconv.Itoa(len(cm.Groups)))
	sb.WriteString("\nSHIPMENTS:")
	for _, id := range shipmentIDsOf(allJobs) {
		sb.WriteString(" ")
		sb.WriteString(id)
	}
	return sb.String()
}

func shipmentIDsOf(jobs []*PreparedJob) []string {
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ShipmentID)
	}
	sort.Strings(ids)
	return ids
}

func addressLine(shipment *domain.Shipment) string {
	parts := []string{shipment.ShipTo.Address1, shipment.ShipTo.City, shipment.ShipTo.State, shipment.ShipTo.Postal}
	var nonEmpty []string
	for _, p := range parts {
		if !norm.IsBlank(p) {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// slug lowers and replaces anything but letters, digits, and dashes
// with a dash, so ids are always safe filename components.
func slug(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	return sb.String()
}
