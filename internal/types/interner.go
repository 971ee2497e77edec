package types

import (
	"fmt"
	"strconv"

	"irkit/internal/ids"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Void  TypeID
	Label TypeID
	I1    TypeID
	I8    TypeID
	I32   TypeID
	I64   TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Named structs are nominal and live in a separate name index.
type Interner struct {
	arena    *ids.Arena[Type]
	index    map[string]TypeID
	named    map[string]TypeID
	builtins Builtins
	keyBuf   []byte
}

// NewInterner constructs an interner with a fresh scope, seeded with
// built-in primitives.
func NewInterner() *Interner {
	return NewInternerIn(ids.NewScope())
}

// NewInternerIn constructs an interner minting TypeIDs in scope s.
func NewInternerIn(s ids.Scope) *Interner {
	in := &Interner{
		arena: ids.NewArena[Type](s),
		index: make(map[string]TypeID, 64),
		named: make(map[string]TypeID),
	}
	in.builtins.Void = in.mustIntern(MakeVoid())
	in.builtins.Label = in.mustIntern(MakeLabel())
	in.builtins.I1 = in.mustIntern(MakeInt(1))
	in.builtins.I8 = in.mustIntern(MakeInt(8))
	in.builtins.I32 = in.mustIntern(MakeInt(32))
	in.builtins.I64 = in.mustIntern(MakeInt(64))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Scope returns the scope TypeIDs are minted in.
func (in *Interner) Scope() ids.Scope {
	return in.arena.Scope()
}

// Intern ensures the provided descriptor has a stable TypeID. Named structs
// must go through DeclareStruct.
func (in *Interner) Intern(t Type) (TypeID, error) {
	if err := in.checkShape(t); err != nil {
		return NoTypeID, err
	}
	key := in.key(t)
	if id, ok := in.index[key]; ok {
		return id, nil
	}
	stored := t
	stored.Fields = cloneIDs(t.Fields)
	raw, err := in.arena.Push(stored)
	if err != nil {
		return NoTypeID, fmt.Errorf("type table overflow: %w", err)
	}
	id := TypeID(raw)
	in.index[key] = id
	return id, nil
}

func (in *Interner) mustIntern(t Type) TypeID {
	id, err := in.Intern(t)
	if err != nil {
		panic(fmt.Errorf("types: builtin %s: %w", t.Kind, err))
	}
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if in == nil {
		return Type{}, false
	}
	p, ok := in.arena.Get(uint64(id))
	if !ok {
		return Type{}, false
	}
	tt := *p
	tt.Fields = cloneIDs(p.Fields)
	return tt, true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Owns reports whether id was minted by this interner.
func (in *Interner) Owns(id TypeID) bool {
	return in != nil && in.arena.Owns(uint64(id))
}

// KindOf returns the kind of id, KindInvalid when unknown.
func (in *Interner) KindOf(id TypeID) Kind {
	p, ok := in.arena.Get(uint64(id))
	if !ok {
		return KindInvalid
	}
	return p.Kind
}

// Len returns the number of interned types.
func (in *Interner) Len() int {
	return in.arena.Len()
}

// All returns every TypeID in creation order.
func (in *Interner) All() []TypeID {
	out := make([]TypeID, 0, in.arena.Len())
	for i := 0; i < in.arena.Len(); i++ {
		raw, _ := in.arena.At(i)
		out = append(out, TypeID(raw))
	}
	return out
}

// Shape constructors ---------------------------------------------------------

// Int interns an integer type.
func (in *Interner) Int(width uint32) (TypeID, error) {
	return in.Intern(MakeInt(width))
}

// Float interns a float type.
func (in *Interner) Float(width uint32) (TypeID, error) {
	return in.Intern(MakeFloat(width))
}

// Pointer interns a pointer to elem in the default address space.
func (in *Interner) Pointer(elem TypeID) (TypeID, error) {
	return in.Intern(MakePointer(elem))
}

// PointerIn interns a pointer to elem in the given address space.
func (in *Interner) PointerIn(elem TypeID, addrSpace uint32) (TypeID, error) {
	return in.Intern(MakePointerIn(elem, addrSpace))
}

// Array interns a fixed-length array type.
func (in *Interner) Array(elem TypeID, count uint64) (TypeID, error) {
	return in.Intern(MakeArray(elem, count))
}

// Struct interns an anonymous struct type.
func (in *Interner) Struct(fields []TypeID, packed bool) (TypeID, error) {
	return in.Intern(MakeStruct(fields, packed))
}

// Func interns a function signature.
func (in *Interner) Func(result TypeID, params []TypeID, variadic bool) (TypeID, error) {
	return in.Intern(MakeFunc(result, params, variadic))
}

// Shape validation -----------------------------------------------------------

func shapeErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTypeShape, fmt.Sprintf(format, args...))
}

func (in *Interner) child(id TypeID, role string) (Kind, error) {
	p, ok := in.arena.Get(uint64(id))
	if !ok {
		return KindInvalid, shapeErr("%s refers to unknown or foreign type %#x", role, uint64(id))
	}
	return p.Kind, nil
}

// firstClass rejects kinds that cannot be stored in a field, element or
// parameter slot.
func firstClass(k Kind, role string) error {
	switch k {
	case KindVoid, KindLabel, KindFunc:
		return shapeErr("%s cannot have kind %s", role, k)
	}
	return nil
}

func (in *Interner) checkShape(t Type) error {
	switch t.Kind {
	case KindVoid, KindLabel:
		return nil
	case KindInt:
		if t.Width == 0 || t.Width > MaxIntWidth {
			return shapeErr("integer width %d outside 1..%d", t.Width, MaxIntWidth)
		}
	case KindFloat:
		switch t.Width {
		case FloatHalf, FloatSingle, FloatDouble:
		default:
			return shapeErr("float width %d (expected 16, 32 or 64)", t.Width)
		}
	case KindPointer:
		k, err := in.child(t.Elem, "pointee")
		if err != nil {
			return err
		}
		if k == KindVoid || k == KindLabel {
			return shapeErr("pointee cannot have kind %s", k)
		}
	case KindArray:
		k, err := in.child(t.Elem, "array element")
		if err != nil {
			return err
		}
		if err := firstClass(k, "array element"); err != nil {
			return err
		}
	case KindStruct:
		if t.Name != "" {
			return shapeErr("named struct %q must be declared with DeclareStruct", t.Name)
		}
		return in.checkFields(t.Fields)
	case KindFunc:
		k, err := in.child(t.Elem, "function result")
		if err != nil {
			return err
		}
		if k == KindLabel || k == KindFunc {
			return shapeErr("function result cannot have kind %s", k)
		}
		for i, p := range t.Fields {
			role := "parameter " + strconv.Itoa(i)
			pk, err := in.child(p, role)
			if err != nil {
				return err
			}
			if err := firstClass(pk, role); err != nil {
				return err
			}
		}
	default:
		return shapeErr("unknown kind %s", t.Kind)
	}
	return nil
}

func (in *Interner) checkFields(fields []TypeID) error {
	for i, f := range fields {
		role := "field " + strconv.Itoa(i)
		k, err := in.child(f, role)
		if err != nil {
			return err
		}
		if err := firstClass(k, role); err != nil {
			return err
		}
	}
	return nil
}

// key builds the structural hash key. Children are already canonical, so
// comparing their ids is enough.
func (in *Interner) key(t Type) string {
	b := in.keyBuf[:0]
	switch t.Kind {
	case KindVoid:
		b = append(b, 'v')
	case KindLabel:
		b = append(b, 'l')
	case KindInt:
		b = append(b, 'i')
		b = strconv.AppendUint(b, uint64(t.Width), 10)
	case KindFloat:
		b = append(b, 'f')
		b = strconv.AppendUint(b, uint64(t.Width), 10)
	case KindPointer:
		b = append(b, 'p')
		b = strconv.AppendUint(b, uint64(t.Elem), 16)
		b = append(b, '@')
		b = strconv.AppendUint(b, uint64(t.AddrSpace), 10)
	case KindArray:
		b = append(b, 'a')
		b = strconv.AppendUint(b, t.Count, 10)
		b = append(b, 'x')
		b = strconv.AppendUint(b, uint64(t.Elem), 16)
	case KindStruct:
		if t.Packed {
			b = append(b, "sp("...)
		} else {
			b = append(b, "s("...)
		}
		b = appendIDs(b, t.Fields)
		b = append(b, ')')
	case KindFunc:
		b = append(b, "fn"...)
		b = strconv.AppendUint(b, uint64(t.Elem), 16)
		b = append(b, '(')
		b = appendIDs(b, t.Fields)
		if t.Variadic {
			b = append(b, "..."...)
		}
		b = append(b, ')')
	}
	in.keyBuf = b
	return string(b)
}

func appendIDs(b []byte, list []TypeID) []byte {
	for i, id := range list {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendUint(b, uint64(id), 16)
	}
	return b
}
