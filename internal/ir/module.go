// Package ir holds the in-memory model of an IR module and the only API
// allowed to mutate it.
//
// A Module owns its type table, values, instructions, blocks, functions and
// globals. Every entity is addressed by an id minted in the module's scope;
// ids from another module are rejected. Mutations run cheap local checks and
// fail fast with a *BuildError, leaving the module unchanged. Whole-structure
// rules (dominance, reachability, forward references) are checked by Validate.
package ir

import (
	"fmt"

	"irkit/internal/ids"
	"irkit/internal/layout"
	"irkit/internal/types"
)

type (
	// ValueID addresses a Value in its module's value table.
	ValueID uint64
	// InstrID addresses an instruction.
	InstrID uint64
	// BlockID addresses a basic block.
	BlockID uint64
	// FuncID addresses a function.
	FuncID uint64
	// GlobalID addresses a global variable.
	GlobalID uint64
)

const (
	NoValueID  ValueID  = 0
	NoInstrID  InstrID  = 0
	NoBlockID  BlockID  = 0
	NoFuncID   FuncID   = 0
	NoGlobalID GlobalID = 0
)

type symbolKind uint8

const (
	symForward symbolKind = iota
	symGlobal
	symFunc
)

// symbol is a module-level name. Forward symbols become globals or functions
// when the matching declaration arrives; their reference value is reused so
// earlier uses resolve without rewriting.
type symbol struct {
	kind      symbolKind
	name      string
	valueType types.TypeID // pointee type of ref
	global    GlobalID
	fn        FuncID
	ref       ValueID
}

// Module is a single compilation unit under construction.
type Module struct {
	name       string
	scope      ids.Scope
	types      *types.Interner
	values     *ids.Arena[Value]
	instrs     *ids.Arena[Instr]
	blocks     *ids.Arena[Block]
	funcs      *ids.Arena[Func]
	globals    *ids.Arena[Global]
	symbols    map[string]*symbol
	forwards   []*symbol
	consts     map[string]ValueID
	triple     string
	dataLayout string
	frozen     bool
}

// NewModule returns an empty, mutable module.
func NewModule(name string) *Module {
	s := ids.NewScope()
	return &Module{
		name:    name,
		scope:   s,
		types:   types.NewInternerIn(s),
		values:  ids.NewArena[Value](s),
		instrs:  ids.NewArena[Instr](s),
		blocks:  ids.NewArena[Block](s),
		funcs:   ids.NewArena[Func](s),
		globals: ids.NewArena[Global](s),
		symbols: make(map[string]*symbol),
		consts:  make(map[string]ValueID),
	}
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// Scope returns the scope every id of m is minted in.
func (m *Module) Scope() ids.Scope { return m.scope }

// Types returns a read-only view of the module's type table.
func (m *Module) Types() types.View { return m.types.View() }

// Target returns the target triple and data layout, empty when unset.
func (m *Module) Target() (triple, dataLayout string) {
	return m.triple, m.dataLayout
}

// SetTarget records the target triple and data layout string. A non-empty
// data layout must parse; the module keeps its previous target otherwise.
func (m *Module) SetTarget(triple, dataLayout string) error {
	if err := m.mutable("SetTarget"); err != nil {
		return err
	}
	if _, err := layout.ParseDataLayout(dataLayout); err != nil {
		return &BuildError{Kind: ErrKindInvalidTarget, Op: "SetTarget", Entity: triple, Err: err}
	}
	m.triple = triple
	m.dataLayout = dataLayout
	return nil
}

// Freeze makes the module read-only. Freezing twice is harmless.
func (m *Module) Freeze() { m.frozen = true }

// Frozen reports whether the module rejects mutation.
func (m *Module) Frozen() bool { return m.frozen }

func (m *Module) mutable(op string) error {
	if m.frozen {
		return buildErr(ErrKindModuleFrozen, op, m.name, "")
	}
	return nil
}

// Globals returns global ids in declaration order.
func (m *Module) Globals() []GlobalID {
	out := make([]GlobalID, m.globals.Len())
	for i := range out {
		id, _ := m.globals.At(i)
		out[i] = GlobalID(id)
	}
	return out
}

// Funcs returns function ids in declaration order.
func (m *Module) Funcs() []FuncID {
	out := make([]FuncID, m.funcs.Len())
	for i := range out {
		id, _ := m.funcs.At(i)
		out[i] = FuncID(id)
	}
	return out
}

// Global returns a copy of the global's data.
func (m *Module) Global(id GlobalID) (Global, bool) {
	g, ok := m.globals.Get(uint64(id))
	if !ok {
		return Global{}, false
	}
	return *g, true
}

// Func returns a copy of the function's data.
func (m *Module) Func(id FuncID) (Func, bool) {
	f, ok := m.funcs.Get(uint64(id))
	if !ok {
		return Func{}, false
	}
	return f.clone(), true
}

// Block returns a copy of the block's data.
func (m *Module) Block(id BlockID) (Block, bool) {
	b, ok := m.blocks.Get(uint64(id))
	if !ok {
		return Block{}, false
	}
	return b.clone(), true
}

// Instr returns a copy of the instruction.
func (m *Module) Instr(id InstrID) (Instr, bool) {
	in, ok := m.instrs.Get(uint64(id))
	if !ok {
		return Instr{}, false
	}
	return in.clone(), true
}

// Value returns a copy of the value's data.
func (m *Module) Value(id ValueID) (Value, bool) {
	v, ok := m.values.Get(uint64(id))
	if !ok {
		return Value{}, false
	}
	return v.clone(), true
}

// LookupFunc finds a function by name.
func (m *Module) LookupFunc(name string) (FuncID, bool) {
	sym := m.symbols[canonicalOrRaw(name)]
	if sym == nil || sym.kind != symFunc {
		return NoFuncID, false
	}
	return sym.fn, true
}

// LookupGlobal finds a global variable by name.
func (m *Module) LookupGlobal(name string) (GlobalID, bool) {
	sym := m.symbols[canonicalOrRaw(name)]
	if sym == nil || sym.kind != symGlobal {
		return NoGlobalID, false
	}
	return sym.global, true
}

// ReferencedTypes returns every type the module's content mentions,
// transitively, in declaration order.
func (m *Module) ReferencedTypes() []types.TypeID {
	roots := make([]types.TypeID, 0, m.values.Len()+m.instrs.Len())
	for i := 0; i < m.globals.Len(); i++ {
		_, g := m.globals.At(i)
		roots = append(roots, g.Type)
	}
	for i := 0; i < m.funcs.Len(); i++ {
		_, f := m.funcs.At(i)
		roots = append(roots, f.Sig)
	}
	for i := 0; i < m.values.Len(); i++ {
		_, v := m.values.At(i)
		roots = append(roots, v.Type)
	}
	for i := 0; i < m.instrs.Len(); i++ {
		_, in := m.instrs.At(i)
		if in.Type != types.NoTypeID {
			roots = append(roots, in.Type)
		}
	}
	return m.types.Closure(roots)
}

func (m *Module) String() string {
	return fmt.Sprintf("module %q (%d globals, %d functions)", m.name, m.globals.Len(), m.funcs.Len())
}
