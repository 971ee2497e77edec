package types

import "fmt"

// DeclareStruct returns the named struct called name, creating it as an
// opaque struct on first use. Named structs are nominal: two declarations
// with the same name are the same type regardless of body.
func (in *Interner) DeclareStruct(name string) (TypeID, error) {
	if name == "" {
		return NoTypeID, shapeErr("named struct requires a name")
	}
	if id, ok := in.named[name]; ok {
		return id, nil
	}
	raw, err := in.arena.Push(Type{Kind: KindStruct, Name: name, Opaque: true})
	if err != nil {
		return NoTypeID, fmt.Errorf("type table overflow: %w", err)
	}
	id := TypeID(raw)
	in.named[name] = id
	return id, nil
}

// NamedStruct looks up a previously declared named struct.
func (in *Interner) NamedStruct(name string) (TypeID, bool) {
	id, ok := in.named[name]
	return id, ok
}

// SetStructBody gives an opaque named struct its fields. A body can be set
// once; a struct may not contain itself by value.
func (in *Interner) SetStructBody(id TypeID, fields []TypeID, packed bool) error {
	p, ok := in.arena.Get(uint64(id))
	if !ok {
		return shapeErr("unknown or foreign struct %#x", uint64(id))
	}
	if !p.Named() {
		return shapeErr("type %s is not a named struct", in.Format(id))
	}
	if !p.Opaque {
		return shapeErr("struct %%%s already has a body", p.Name)
	}
	if err := in.checkFields(fields); err != nil {
		return err
	}
	for _, f := range fields {
		if in.containsByValue(f, id, make(map[TypeID]bool)) {
			return shapeErr("struct %%%s contains itself by value", p.Name)
		}
	}
	p.Fields = cloneIDs(fields)
	p.Packed = packed
	p.Opaque = false
	return nil
}

// containsByValue reports whether a value of type t embeds target without an
// intervening pointer.
func (in *Interner) containsByValue(t, target TypeID, seen map[TypeID]bool) bool {
	if t == target {
		return true
	}
	if seen[t] {
		return false
	}
	seen[t] = true
	p, ok := in.arena.Get(uint64(t))
	if !ok {
		return false
	}
	switch p.Kind {
	case KindArray:
		return in.containsByValue(p.Elem, target, seen)
	case KindStruct:
		for _, f := range p.Fields {
			if in.containsByValue(f, target, seen) {
				return true
			}
		}
	}
	return false
}
