package pipeline

import (
	"time"
)

// Stage describes a high-level pipeline phase of one module.
type Stage string

const (
	// StageBuild runs the module's builder function.
	StageBuild Stage = "build"
	// StageMaterialize validates the module and drives the backend.
	StageMaterialize Stage = "materialize"
	// StageWrite stores the artifact in the output directory.
	StageWrite Stage = "write"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the module is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusWorking indicates the stage is running.
	StatusWorking Status = "working"
	// StatusCached indicates the artifact came from the cache.
	StatusCached Status = "cached"
	StatusDone   Status = "done"
	StatusError  Status = "error"
)

// Event reports progress for a module, or for the whole run when Module is
// empty. Detail carries the materializer stage while materializing.
type Event struct {
	RunID   string
	Module  string
	Stage   Stage
	Status  Status
	Detail  string
	Done    int
	Total   int
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent may be called from
// several goroutines at once.
type ProgressSink interface {
	OnEvent(Event)
}

// Backend selects the materialization backend.
type Backend string

const (
	// BackendLLVM emits textual LLVM IR.
	BackendLLVM Backend = "llvm"
	// BackendCalls records the backend call sequence.
	BackendCalls Backend = "calls"
)

// Ext returns the output file extension for artifacts of b.
func (b Backend) Ext() string {
	switch b {
	case BackendCalls:
		return ".calls"
	default:
		return ".ll"
	}
}
