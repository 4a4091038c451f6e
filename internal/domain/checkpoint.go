package domain

import (
	"time"

	"github.com/wms-platform/labeltagctl/internal/apperr"
)

// InputMode identifies whether a job was launched from a shipment id
// or a carrier-move id.
type InputMode string

const (
	InputShipment    InputMode = "SHIPMENT"
	InputCarrierMove InputMode = "CARRIER_MOVE"
)

// FilePrinterSentinel is the TargetPrinterID value used in dry-run /
// file-only mode.
const FilePrinterSentinel = "FILE"

// JobCheckpoint is the durable progress record for one job instance.
// Its invariants are enforced by MarkTaskComplete/MarkFailed rather
// than by direct field mutation.
type JobCheckpoint struct {
	ID              string
	InputMode       InputMode
	SourceID        string
	OutputDir       string
	TargetPrinterID string
	TargetEndpoint  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Completed       bool
	NextTaskIndex   int
	Tasks           []PrintTask
	LastError       *string
}

// NewJobCheckpoint constructs the initial checkpoint for a job, before
// the first task runs: NextTaskIndex = 0, Completed = false.
func NewJobCheckpoint(id string, mode InputMode, sourceID, outputDir, targetPrinterID, targetEndpoint string, tasks []PrintTask) (*JobCheckpoint, error) {
	if id == "" {
		return nil, apperr.ValidationError("checkpoint id is required")
	}
	if sourceID == "" {
		return nil, apperr.ValidationError("checkpoint source id is required")
	}
	now := time.Now().UTC()
	return &JobCheckpoint{
		ID:              id,
		InputMode:       mode,
		SourceID:        sourceID,
		OutputDir:       outputDir,
		TargetPrinterID: targetPrinterID,
		TargetEndpoint:  targetEndpoint,
		CreatedAt:       now,
		UpdatedAt:       now,
		Completed:       false,
		NextTaskIndex:   0,
		Tasks:           tasks,
		LastError:       nil,
	}, nil
}

// MarkTaskComplete advances NextTaskIndex to i+1, clears LastError, and
// — if every task is now done — sets Completed. It is the only legal
// way to move NextTaskIndex forward, so it only ever increases over
// the lifetime of one job.
func (c *JobCheckpoint) MarkTaskComplete(i int) {
	c.NextTaskIndex = i + 1
	c.LastError = nil
	c.UpdatedAt = time.Now().UTC()
	c.Completed = c.NextTaskIndex == len(c.Tasks)
}

// MarkFailed records a task failure: Completed is forced false and
// LastError is set. NextTaskIndex is left untouched so a resume can
// recompute its restart point.
func (c *JobCheckpoint) MarkFailed(errMsg string) {
	c.Completed = false
	c.LastError = &errMsg
	c.UpdatedAt = time.Now().UTC()
}

// ResumeIndex returns the 0-based task index a safe-mode resume should
// restart from: max(nextTaskIndex-1, 0).
func (c *JobCheckpoint) ResumeIndex() int {
	if c.NextTaskIndex <= 0 {
		return 0
	}
	return c.NextTaskIndex - 1
}

// CanResume reports whether this checkpoint is eligible for resume: a
// completed checkpoint cannot be resumed.
func (c *JobCheckpoint) CanResume() bool {
	return !c.Completed
}
