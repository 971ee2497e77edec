package types

import (
	"errors"
	"fmt"
)

// TypeID uniquely identifies a type inside the interner that minted it.
type TypeID uint64

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// ErrInvalidTypeShape is wrapped by every shape rejection.
var ErrInvalidTypeShape = errors.New("invalid type shape")

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindInt
	KindFloat
	KindPointer
	KindArray
	KindStruct
	KindFunc
	KindLabel
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindFunc:
		return "func"
	case KindLabel:
		return "label"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// MaxIntWidth is the widest integer type the model accepts.
const MaxIntWidth = 1 << 23

// Float widths.
const (
	FloatHalf   uint32 = 16
	FloatSingle uint32 = 32
	FloatDouble uint32 = 64
)

// Type is a structural descriptor. Composite types refer to their children
// by TypeID; descriptors returned by the interner must not be mutated.
type Type struct {
	Kind      Kind
	Width     uint32   // integer or float bits
	Elem      TypeID   // pointee, array element or function result
	Count     uint64   // array length
	AddrSpace uint32   // for pointers
	Fields    []TypeID // struct fields or function params
	Name      string   // named structs only
	Packed    bool     // structs
	Variadic  bool     // functions
	Opaque    bool     // named struct without a body yet
}

// Descriptor helpers ---------------------------------------------------------

// MakeVoid describes the void type.
func MakeVoid() Type {
	return Type{Kind: KindVoid}
}

// MakeLabel describes the type of basic-block labels.
func MakeLabel() Type {
	return Type{Kind: KindLabel}
}

// MakeInt describes an integer of the given bit width.
func MakeInt(width uint32) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeFloat describes an IEEE-754 float of width 16, 32 or 64.
func MakeFloat(width uint32) Type {
	return Type{Kind: KindFloat, Width: width}
}

// MakePointer describes a pointer in the default address space.
func MakePointer(elem TypeID) Type {
	return Type{Kind: KindPointer, Elem: elem}
}

// MakePointerIn describes a pointer in the given address space.
func MakePointerIn(elem TypeID, addrSpace uint32) Type {
	return Type{Kind: KindPointer, Elem: elem, AddrSpace: addrSpace}
}

// MakeArray describes a fixed-length array.
func MakeArray(elem TypeID, count uint64) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

// MakeStruct describes an anonymous (literal) struct.
func MakeStruct(fields []TypeID, packed bool) Type {
	return Type{Kind: KindStruct, Fields: cloneIDs(fields), Packed: packed}
}

// MakeFunc describes a function signature.
func MakeFunc(result TypeID, params []TypeID, variadic bool) Type {
	return Type{Kind: KindFunc, Elem: result, Fields: cloneIDs(params), Variadic: variadic}
}

// Named reports whether t is a nominal struct.
func (t Type) Named() bool {
	return t.Kind == KindStruct && t.Name != ""
}

// Children returns the TypeIDs t refers to, in declaration order.
func (t Type) Children() []TypeID {
	switch t.Kind {
	case KindPointer, KindArray:
		return []TypeID{t.Elem}
	case KindStruct:
		return cloneIDs(t.Fields)
	case KindFunc:
		out := make([]TypeID, 0, len(t.Fields)+1)
		out = append(out, t.Elem)
		return append(out, t.Fields...)
	default:
		return nil
	}
}

func cloneIDs(in []TypeID) []TypeID {
	if len(in) == 0 {
		return nil
	}
	out := make([]TypeID, len(in))
	copy(out, in)
	return out
}
