package domain

// TaskKind identifies the three shapes of PrintTask.
type TaskKind string

const (
	TaskPalletLabel  TaskKind = "PALLET_LABEL"
	TaskStopInfoTag  TaskKind = "STOP_INFO_TAG"
	TaskFinalInfoTag TaskKind = "FINAL_INFO_TAG"
)

// PrintTask is one pre-rendered unit of work for the Executor. Payloads are rendered once at build time; execution never
// re-renders.
type PrintTask struct {
	Kind      TaskKind
	FileName  string
	Payload   []byte
	PayloadID string
}
