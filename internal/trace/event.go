package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindBegin     Kind = iota + 1 // span opened
	KindEnd                       // span closed
	KindProgress                  // a stage advanced over its work list
	KindHeartbeat                 // periodic liveness signal
)

var kindNames = [...]string{
	KindBegin:     "begin",
	KindEnd:       "end",
	KindProgress:  "progress",
	KindHeartbeat: "heartbeat",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event. Coarser scopes have lower values.
type Scope uint8

const (
	// ScopeRun is one pipeline run over a set of modules.
	ScopeRun Scope = iota + 1
	// ScopeModule is the lowering of a single module.
	ScopeModule
	// ScopeStage is one materializer stage inside a module.
	ScopeStage
	// ScopeEntity is a single function or global inside a stage.
	ScopeEntity
)

var scopeNames = [...]string{
	ScopeRun:    "run",
	ScopeModule: "module",
	ScopeStage:  "stage",
	ScopeEntity: "entity",
}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Attrs is the typed payload carried by an event. Zero fields are omitted
// from every output format.
type Attrs struct {
	Module string // module being lowered
	Stage  string // materializer stage, e.g. "bodies"
	Entity string // "@name" of a function or global
	Items  int    // jobs in a run, blocks in a function, open spans in a heartbeat
	Done   int    // progress numerator
	Total  int    // progress denominator
	Err    string // failure text, set on the end of a failed span
}

func (a Attrs) empty() bool { return a == Attrs{} }

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned by the sink, monotonic per process
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	// Track groups the events of one module job so concurrent jobs render
	// on separate lanes.
	Track  uint64
	Name   string
	Detail string
	Attrs  Attrs
}
