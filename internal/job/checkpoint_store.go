package job

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wms-platform/labeltagctl/internal/apperr"
	"github.com/wms-platform/labeltagctl/internal/domain"
	"github.com/wms-platform/labeltagctl/internal/obslog"
)

// checkpointRecord is the on-disk JSON shape of a JobCheckpoint. It
// mirrors domain.JobCheckpoint field-for-field; kept as a separate
// type so the codec's JSON tags don't leak into the domain package.
type checkpointRecord struct {
	ID              string             `json:"id"`
	InputMode       domain.InputMode   `json:"inputMode"`
	SourceID        string             `json:"sourceId"`
	OutputDir       string             `json:"outputDir"`
	TargetPrinterID string             `json:"targetPrinterId"`
	TargetEndpoint  string             `json:"targetEndpoint"`
	CreatedAt       string             `json:"createdAt"`
	UpdatedAt       string             `json:"updatedAt"`
	Completed       bool               `json:"completed"`
	NextTaskIndex   int                `json:"nextTaskIndex"`
	Tasks           []domain.PrintTask `json:"tasks"`
	LastError       *string            `json:"lastError,omitempty"`
}

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

func toRecord(cp *domain.JobCheckpoint) checkpointRecord {
	return checkpointRecord{
		ID:              cp.ID,
		InputMode:       cp.InputMode,
		SourceID:        cp.SourceID,
		OutputDir:       cp.OutputDir,
		TargetPrinterID: cp.TargetPrinterID,
		TargetEndpoint:  cp.TargetEndpoint,
		CreatedAt:       cp.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:       cp.UpdatedAt.UTC().Format(timeLayout),
		Completed:       cp.Completed,
		NextTaskIndex:   cp.NextTaskIndex,
		Tasks:           cp.Tasks,
		LastError:       cp.LastError,
	}
}

func fromRecord(r checkpointRecord) (*domain.JobCheckpoint, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, apperr.InternalError("malformed checkpoint createdAt").Wrap(err)
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return nil, apperr.InternalError("malformed checkpoint updatedAt").Wrap(err)
	}
	return &domain.JobCheckpoint{
		ID:              r.ID,
		InputMode:       r.InputMode,
		SourceID:        r.SourceID,
		OutputDir:       r.OutputDir,
		TargetPrinterID: r.TargetPrinterID,
		TargetEndpoint:  r.TargetEndpoint,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
		Completed:       r.Completed,
		NextTaskIndex:   r.NextTaskIndex,
		Tasks:           r.Tasks,
		LastError:       r.LastError,
	}, nil
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// CheckpointStore persists JobCheckpoints as JSON files under one
// directory, one file per job id, written atomically.
type CheckpointStore struct {
	dir    string
	logger *obslog.Logger
}

// NewCheckpointStore builds a CheckpointStore rooted at dir.
func NewCheckpointStore(dir string, logger *obslog.Logger) *CheckpointStore {
	return &CheckpointStore{dir: dir, logger: logger}
}

func (s *CheckpointStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes cp to disk via a temp-file-then-rename, so readers never
// observe a partially-written checkpoint.
func (s *CheckpointStore) Save(cp *domain.JobCheckpoint) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return apperr.InternalError("failed to create checkpoint directory " + s.dir).Wrap(err)
	}

	data, err := json.MarshalIndent(toRecord(cp), "", "  ")
	if err != nil {
		return apperr.InternalError("failed to encode checkpoint " + cp.ID).Wrap(err)
	}

	final := s.path(cp.ID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.InternalError("failed to write checkpoint temp file for " + cp.ID).Wrap(err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return apperr.InternalError("failed to atomically replace checkpoint for " + cp.ID).Wrap(err)
	}
	return nil
}

// Load reads the checkpoint for id.
func (s *CheckpointStore) Load(id string) (*domain.JobCheckpoint, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, apperr.ValidationError("no checkpoint found for job " + id).Wrap(err)
	}
	var rec checkpointRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, apperr.InternalError("malformed checkpoint file for " + id).Wrap(err)
	}
	return fromRecord(rec)
}

// ListIncomplete enumerates the checkpoint directory, skipping any
// file that fails to deserialize with a warning, and returns the
// checkpoints with completed == false sorted by updatedAt descending.
func (s *CheckpointStore) ListIncomplete() ([]*domain.JobCheckpoint, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperr.InternalError("failed to list checkpoint directory " + s.dir).Wrap(err)
	}

	var out []*domain.JobCheckpoint
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		cp, err := s.Load(id)
		if err != nil {
			if s.logger != nil {
				s.logger.Logger.Warn("skipping malformed checkpoint", "id", id, "error", err)
			}
			continue
		}
		if !cp.Completed {
			out = append(out, cp)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}
