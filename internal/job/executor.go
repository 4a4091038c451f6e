package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wms-platform/labeltagctl/internal/apperr"
	"github.com/wms-platform/labeltagctl/internal/domain"
	"github.com/wms-platform/labeltagctl/internal/obslog"
	"github.com/wms-platform/labeltagctl/internal/printing"
)

// RunParams groups the inputs for one job execution: the
// pre-rendered task list and the destination — a printer, or file-only
// mode for --dry-run.
type RunParams struct {
	ID        string
	Mode      domain.InputMode
	SourceID  string
	OutputDir string
	Tasks     []domain.PrintTask
	Printer   *domain.PrinterConfig // nil when FileOnly
	FileOnly  bool
}

// Executor replays a PreparedJob's tasks sequentially, writing each
// label to disk and — unless running file-only — transmitting it over
// the Wire Transport, persisting the checkpoint after every task.
type Executor struct {
	checkpoints *CheckpointStore
	transport   *printing.Transport
	logger      *obslog.Logger
}

// NewExecutor wires the Executor to its Checkpoint Store, Wire
// Transport, and logger.
func NewExecutor(checkpoints *CheckpointStore, transport *printing.Transport, logger *obslog.Logger) *Executor {
	return &Executor{checkpoints: checkpoints, transport: transport, logger: logger}
}

// Start creates the initial checkpoint (nextTaskIndex=0) and output
// directory, then runs every task from index 0.
func (e *Executor) Start(ctx context.Context, p RunParams) (*domain.JobCheckpoint, error) {
	targetPrinterID := domain.FilePrinterSentinel
	targetEndpoint := ""
	if !p.FileOnly && p.Printer != nil {
		targetPrinterID = p.Printer.ID
		targetEndpoint = fmt.Sprintf("%s:%d", p.Printer.Host, p.Printer.Port)
	}

	cp, err := domain.NewJobCheckpoint(p.ID, p.Mode, p.SourceID, p.OutputDir, targetPrinterID, targetEndpoint, p.Tasks)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return nil, apperr.InternalError("failed to create output directory " + p.OutputDir).Wrap(err)
	}
	if err := e.checkpoints.Save(cp); err != nil {
		return nil, apperr.InternalError("failed to persist initial checkpoint for " + p.ID).Wrap(err)
	}

	if e.logger != nil {
		e.logger.WithJob(p.ID, p.SourceID).Event(ctx, "job.started", map[string]any{"taskCount": len(p.Tasks)})
	}

	runErr := e.run(ctx, cp, 0, p.Printer, p.FileOnly)
	return cp, runErr
}

// Resume loads an existing, incomplete checkpoint and replays from
// max(nextTaskIndex-1, 0), tolerating one duplicate label delivery.
// A completed checkpoint cannot be resumed.
func (e *Executor) Resume(ctx context.Context, checkpointID string, printer *domain.PrinterConfig, fileOnly bool) (*domain.JobCheckpoint, error) {
	cp, err := e.checkpoints.Load(checkpointID)
	if err != nil {
		return nil, err
	}
	if !cp.CanResume() {
		return nil, apperr.ValidationError("checkpoint " + checkpointID + " is already complete and cannot be resumed")
	}

	startIndex := cp.ResumeIndex()
	if e.logger != nil {
		e.logger.WithJob(cp.ID, cp.SourceID).Event(ctx, "job.resumed", map[string]any{"resumeIndex": startIndex})
	}

	runErr := e.run(ctx, cp, startIndex, printer, fileOnly)
	return cp, runErr
}

func (e *Executor) run(ctx context.Context, cp *domain.JobCheckpoint, startIndex int, printer *domain.PrinterConfig, fileOnly bool) error {
	for i := startIndex; i < len(cp.Tasks); i++ {
		task := cp.Tasks[i]
		start := time.Now()

		if err := e.runTask(ctx, cp.OutputDir, task, printer, fileOnly); err != nil {
			cp.MarkFailed(err.Error())
			if e.logger != nil {
				e.logger.TaskOutcome(ctx, string(task.Kind), task.PayloadID, time.Since(start), false)
			}
			if saveErr := e.checkpoints.Save(cp); saveErr != nil {
				return apperr.InternalError("checkpoint write failed after task failure for " + cp.ID).Wrap(saveErr)
			}
			return err
		}

		cp.MarkTaskComplete(i)
		if e.logger != nil {
			e.logger.TaskOutcome(ctx, string(task.Kind), task.PayloadID, time.Since(start), true)
		}
		if err := e.checkpoints.Save(cp); err != nil {
			return apperr.InternalError("checkpoint write failed after task success for " + cp.ID).Wrap(err)
		}
	}

	if e.logger != nil {
		e.logger.WithJob(cp.ID, cp.SourceID).Event(ctx, "job.completed", map[string]any{"taskCount": len(cp.Tasks)})
	}
	return nil
}

func (e *Executor) runTask(ctx context.Context, outputDir string, task domain.PrintTask, printer *domain.PrinterConfig, fileOnly bool) error {
	path := filepath.Join(outputDir, task.FileName)
	if err := os.WriteFile(path, task.Payload, 0o644); err != nil {
		return apperr.PrintError("failed to write label file " + path).Wrap(err)
	}
	if fileOnly {
		return nil
	}
	if printer == nil {
		return apperr.ConfigError("no printer resolved for a non-file-only execution")
	}
	return e.transport.Send(ctx, printer, task.Payload)
}
