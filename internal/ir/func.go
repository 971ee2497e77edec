package ir

import (
	"fmt"

	"irkit/internal/types"
)

// Func is a function definition, or a declaration when it has no blocks.
type Func struct {
	ID       FuncID
	Name     string
	Sig      types.TypeID
	Params   []ValueID // one slot per signature parameter, NoValueID until bound
	Blocks   []BlockID // entry first
	Linkage  Linkage
	CallConv CallConv

	bound      int
	blockNames map[string]BlockID
}

func (f *Func) clone() Func {
	out := *f
	out.Params = append([]ValueID(nil), f.Params...)
	out.Blocks = append([]BlockID(nil), f.Blocks...)
	return out
}

// IsDeclaration reports whether f has no body.
func (f Func) IsDeclaration() bool { return len(f.Blocks) == 0 }

// Entry returns the entry block, NoBlockID for declarations.
func (f Func) Entry() BlockID {
	if len(f.Blocks) == 0 {
		return NoBlockID
	}
	return f.Blocks[0]
}

// NewFunction declares a function with signature sig. It resolves a pending
// ForwardGlobal of the same name whose value type is sig.
func (m *Module) NewFunction(name string, sig types.TypeID) (FuncID, error) {
	const op = "NewFunction"
	if err := m.mutable(op); err != nil {
		return NoFuncID, err
	}
	canon, err := canonicalName(op, name)
	if err != nil {
		return NoFuncID, err
	}
	info, ok := m.types.FuncInfo(sig)
	if !ok {
		return NoFuncID, mismatch(op, quote(canon), "function type", m.typeLabel(sig))
	}
	sym, err := m.claimSymbol(op, canon, sig)
	if err != nil {
		return NoFuncID, err
	}
	raw, err := m.funcs.Push(Func{
		Name:       canon,
		Sig:        sig,
		Params:     make([]ValueID, len(info.Params)),
		blockNames: make(map[string]BlockID),
	})
	if err != nil {
		return NoFuncID, fmt.Errorf("function table overflow: %w", err)
	}
	id := FuncID(raw)
	f, _ := m.funcs.Get(raw)
	f.ID = id
	m.bindSymbol(sym, symFunc, NoGlobalID, id)
	return id, nil
}

// AddParam binds the next positional parameter of fn and returns its value.
func (m *Module) AddParam(fn FuncID, name string) (ValueID, error) {
	const op = "AddParam"
	if err := m.mutable(op); err != nil {
		return NoValueID, err
	}
	f, ok := m.funcs.Get(uint64(fn))
	if !ok {
		return NoValueID, buildErr(ErrKindUnknownFunction, op, fmt.Sprintf("function %#x", uint64(fn)), "")
	}
	info, _ := m.types.FuncInfo(f.Sig)
	if f.bound >= len(info.Params) {
		return NoValueID, buildErr(ErrKindSignatureExhausted, op, "@"+f.Name,
			fmt.Sprintf("signature has %d parameters", len(info.Params)))
	}
	canon, err := canonicalLocal(op, name)
	if err != nil {
		return NoValueID, err
	}
	idx := f.bound
	v, err := m.pushValue(Value{
		Kind:  ValueParam,
		Type:  info.Params[idx],
		Name:  canon,
		Owner: fn,
		Index: idx,
	})
	if err != nil {
		return NoValueID, err
	}
	f.Params[idx] = v
	f.bound++
	return v, nil
}

// SetLinkage changes the linkage of fn.
func (m *Module) SetLinkage(fn FuncID, l Linkage) error {
	const op = "SetLinkage"
	f, err := m.mutableFunc(op, fn)
	if err != nil {
		return err
	}
	if !l.Valid() {
		return buildErr(ErrKindOperandMismatch, op, "@"+f.Name, "unknown linkage "+l.String())
	}
	f.Linkage = l
	return nil
}

// SetCallingConv changes the calling convention of fn.
func (m *Module) SetCallingConv(fn FuncID, cc CallConv) error {
	f, err := m.mutableFunc("SetCallingConv", fn)
	if err != nil {
		return err
	}
	f.CallConv = cc
	return nil
}

func (m *Module) mutableFunc(op string, fn FuncID) (*Func, error) {
	if err := m.mutable(op); err != nil {
		return nil, err
	}
	f, ok := m.funcs.Get(uint64(fn))
	if !ok {
		return nil, buildErr(ErrKindUnknownFunction, op, fmt.Sprintf("function %#x", uint64(fn)), "")
	}
	return f, nil
}

func (m *Module) funcLabel(id FuncID) string {
	f, ok := m.funcs.Get(uint64(id))
	if !ok {
		return fmt.Sprintf("function %#x", uint64(id))
	}
	return "@" + f.Name
}
