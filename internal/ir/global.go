package ir

import (
	"fmt"

	"irkit/internal/types"
)

// Global is a module-level variable. Init is NoValueID for external
// declarations.
type Global struct {
	ID       GlobalID
	Name     string
	Type     types.TypeID // value type; references have type Type*
	Init     ValueID
	Constant bool
	Linkage  Linkage
	Align    uint32 // 0 means the target default
}

// NewGlobal adds a global variable holding values of type ty, initialised
// with the constant init (or NoValueID for an external declaration). It
// resolves a pending ForwardGlobal of the same name and type.
func (m *Module) NewGlobal(name string, ty types.TypeID, init ValueID) (GlobalID, error) {
	const op = "NewGlobal"
	if err := m.mutable(op); err != nil {
		return NoGlobalID, err
	}
	canon, err := canonicalName(op, name)
	if err != nil {
		return NoGlobalID, err
	}
	if err := m.checkConstType(op, ty); err != nil {
		return NoGlobalID, err
	}
	if init != NoValueID {
		v, ok := m.values.Get(uint64(init))
		if !ok {
			return NoGlobalID, buildErr(ErrKindUnknownValue, op, m.valueLabel(init), "initializer")
		}
		if v.Kind != ValueConst && v.Kind != ValueGlobalRef {
			return NoGlobalID, mismatch(op, quote(canon), "constant initializer", v.Kind.String())
		}
		if v.Type != ty {
			return NoGlobalID, mismatch(op, quote(canon), m.typeLabel(ty), m.typeLabel(v.Type))
		}
	}
	sym, err := m.claimSymbol(op, canon, ty)
	if err != nil {
		return NoGlobalID, err
	}
	raw, err := m.globals.Push(Global{Name: canon, Type: ty, Init: init})
	if err != nil {
		return NoGlobalID, fmt.Errorf("global table overflow: %w", err)
	}
	id := GlobalID(raw)
	g, _ := m.globals.Get(raw)
	g.ID = id
	m.bindSymbol(sym, symGlobal, id, NoFuncID)
	return id, nil
}

// SetGlobalConstant marks the global as immutable.
func (m *Module) SetGlobalConstant(id GlobalID, constant bool) error {
	g, err := m.mutableGlobal("SetGlobalConstant", id)
	if err != nil {
		return err
	}
	g.Constant = constant
	return nil
}

// SetGlobalLinkage changes the linkage of a global.
func (m *Module) SetGlobalLinkage(id GlobalID, l Linkage) error {
	const op = "SetGlobalLinkage"
	g, err := m.mutableGlobal(op, id)
	if err != nil {
		return err
	}
	if !l.Valid() {
		return buildErr(ErrKindOperandMismatch, op, "@"+g.Name, "unknown linkage "+l.String())
	}
	g.Linkage = l
	return nil
}

// SetGlobalAlign sets an explicit alignment; it must be a power of two.
func (m *Module) SetGlobalAlign(id GlobalID, align uint32) error {
	const op = "SetGlobalAlign"
	g, err := m.mutableGlobal(op, id)
	if err != nil {
		return err
	}
	if align&(align-1) != 0 {
		return mismatch(op, "@"+g.Name, "power of two alignment", fmt.Sprintf("%d", align))
	}
	g.Align = align
	return nil
}

func (m *Module) mutableGlobal(op string, id GlobalID) (*Global, error) {
	if err := m.mutable(op); err != nil {
		return nil, err
	}
	g, ok := m.globals.Get(uint64(id))
	if !ok {
		return nil, buildErr(ErrKindUnknownGlobal, op, fmt.Sprintf("global %#x", uint64(id)), "")
	}
	return g, nil
}
