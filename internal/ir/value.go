package ir

import (
	"fmt"

	"irkit/internal/ids"
	"irkit/internal/types"
)

// ValueKind tags the variant of a Value.
type ValueKind uint8

const (
	ValueInvalid ValueKind = iota
	ValueConst
	ValueGlobalRef
	ValueParam
	ValueInstr
)

func (k ValueKind) String() string {
	switch k {
	case ValueConst:
		return "const"
	case ValueGlobalRef:
		return "global"
	case ValueParam:
		return "param"
	case ValueInstr:
		return "instr"
	default:
		return "invalid"
	}
}

// Value is an SSA value. Which fields are meaningful depends on Kind.
type Value struct {
	Kind ValueKind
	Type types.TypeID
	Name string

	// ValueConst
	Const *Constant

	// ValueGlobalRef: the referenced symbol. Both ids are zero while the
	// reference is an unresolved forward declaration.
	Global GlobalID
	Func   FuncID

	// ValueParam and ValueInstr: the owning function.
	Owner FuncID
	// ValueParam: position in the signature.
	Index int
	// ValueInstr: the defining instruction.
	Instr InstrID
}

func (v *Value) clone() Value {
	out := *v
	if v.Const != nil {
		c := v.Const.clone()
		out.Const = &c
	}
	return out
}

// IsConst reports whether the value is a constant.
func (v Value) IsConst() bool { return v.Kind == ValueConst }

// ValueType returns the type of a value in O(1).
func (m *Module) ValueType(id ValueID) (types.TypeID, error) {
	v, ok := m.values.Get(uint64(id))
	if !ok {
		return types.NoTypeID, buildErr(ErrKindUnknownValue, "ValueType", m.valueLabel(id), "")
	}
	return v.Type, nil
}

func (m *Module) pushValue(v Value) (ValueID, error) {
	raw, err := m.values.Push(v)
	if err != nil {
		return NoValueID, fmt.Errorf("value table overflow: %w", err)
	}
	return ValueID(raw), nil
}

// GlobalRef returns the value referring to the global or function called
// name. Its type is a pointer to the global's value type, or to the
// function's signature.
func (m *Module) GlobalRef(name string) (ValueID, error) {
	canon, err := canonicalName("GlobalRef", name)
	if err != nil {
		return NoValueID, err
	}
	sym := m.symbols[canon]
	if sym == nil {
		return NoValueID, buildErr(ErrKindUnknownGlobal, "GlobalRef", quote(canon), "")
	}
	if sym.ref != NoValueID {
		return sym.ref, nil
	}
	if err := m.mutable("GlobalRef"); err != nil {
		return NoValueID, err
	}
	return m.symbolRef("GlobalRef", sym, 0)
}

// ForwardGlobal declares name ahead of its definition and returns a reference
// to it. A later NewGlobal or NewFunction under the same name resolves the
// reference; its value type (signature for functions) must equal valueType.
// Forward-declaring an already declared name returns its reference when the
// types agree.
func (m *Module) ForwardGlobal(name string, valueType types.TypeID) (ValueID, error) {
	const op = "ForwardGlobal"
	if err := m.mutable(op); err != nil {
		return NoValueID, err
	}
	canon, err := canonicalName(op, name)
	if err != nil {
		return NoValueID, err
	}
	if !m.types.Owns(valueType) || m.types.IsVoid(valueType) || m.types.KindOf(valueType) == types.KindLabel {
		return NoValueID, shapeErr(op, fmt.Errorf("%w: value type %#x", types.ErrInvalidTypeShape, uint64(valueType)))
	}
	if sym := m.symbols[canon]; sym != nil {
		if sym.valueType != valueType {
			return NoValueID, mismatch(op, quote(canon), m.types.Format(sym.valueType), m.types.Format(valueType))
		}
		if sym.ref != NoValueID {
			return sym.ref, nil
		}
		return m.symbolRef(op, sym, 0)
	}
	sym := &symbol{kind: symForward, name: canon, valueType: valueType}
	ref, err := m.symbolRef(op, sym, 0)
	if err != nil {
		return NoValueID, err
	}
	m.symbols[canon] = sym
	m.forwards = append(m.forwards, sym)
	return ref, nil
}

// symbolRef creates the reference value for sym.
func (m *Module) symbolRef(op string, sym *symbol, addrSpace uint32) (ValueID, error) {
	ptr, err := m.pointerTo(op, sym.valueType, addrSpace)
	if err != nil {
		return NoValueID, err
	}
	ref, err := m.pushValue(Value{
		Kind:   ValueGlobalRef,
		Type:   ptr,
		Name:   sym.name,
		Global: sym.global,
		Func:   sym.fn,
	})
	if err != nil {
		return NoValueID, err
	}
	sym.ref = ref
	return ref, nil
}

// claimSymbol registers name for a new global or function. A forward symbol
// with a matching type is taken over; anything else is a duplicate.
func (m *Module) claimSymbol(op, name string, valueType types.TypeID) (*symbol, error) {
	sym := m.symbols[name]
	if sym == nil {
		sym = &symbol{name: name, valueType: valueType}
		return sym, nil
	}
	if sym.kind != symForward {
		return nil, buildErr(ErrKindDuplicateName, op, quote(name), "")
	}
	if sym.valueType != valueType {
		return nil, mismatch(op, quote(name), m.types.Format(sym.valueType), m.types.Format(valueType))
	}
	return sym, nil
}

// bindSymbol finishes claimSymbol once the entity exists.
func (m *Module) bindSymbol(sym *symbol, kind symbolKind, g GlobalID, fn FuncID) {
	sym.kind = kind
	sym.global = g
	sym.fn = fn
	m.symbols[sym.name] = sym
	if sym.ref != NoValueID {
		if v, ok := m.values.Get(uint64(sym.ref)); ok {
			v.Global = g
			v.Func = fn
		}
	}
}

// Unresolved returns the names of forward declarations that no global or
// function has claimed yet.
func (m *Module) Unresolved() []string {
	var out []string
	for _, sym := range m.forwards {
		if sym.kind == symForward {
			out = append(out, sym.name)
		}
	}
	return out
}

// valueLabel renders a value id for error messages.
func (m *Module) valueLabel(id ValueID) string {
	v, ok := m.values.Get(uint64(id))
	if !ok {
		return fmt.Sprintf("value %#x", uint64(id))
	}
	switch v.Kind {
	case ValueGlobalRef:
		return "@" + v.Name
	case ValueConst:
		return m.types.Format(v.Type) + " " + m.constString(v.Type, v.Const)
	default:
		if v.Name != "" {
			return "%" + v.Name
		}
		_, idx := ids.Split(uint64(id))
		return fmt.Sprintf("%%v%d", idx)
	}
}
