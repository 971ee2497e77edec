package types

// IntWidth returns the bit width of an integer type.
func (in *Interner) IntWidth(id TypeID) (uint32, bool) {
	p, ok := in.arena.Get(uint64(id))
	if !ok || p.Kind != KindInt {
		return 0, false
	}
	return p.Width, true
}

// Pointee returns the element type of a pointer type.
func (in *Interner) Pointee(id TypeID) (TypeID, bool) {
	p, ok := in.arena.Get(uint64(id))
	if !ok || p.Kind != KindPointer {
		return NoTypeID, false
	}
	return p.Elem, true
}

// IsFirstClass reports whether values of id can be produced by instructions
// and passed as parameters.
func (in *Interner) IsFirstClass(id TypeID) bool {
	switch in.KindOf(id) {
	case KindInt, KindFloat, KindPointer, KindArray, KindStruct:
		return true
	default:
		return false
	}
}

// Closure returns roots and every type they refer to, transitively, in
// creation order. Creation order is a valid declaration order: anonymous
// composites are always interned after their children, and named structs are
// referenced by name so their bodies can be defined after everything else.
func (in *Interner) Closure(roots []TypeID) []TypeID {
	seen := make(map[TypeID]bool, len(roots))
	var visit func(id TypeID)
	visit = func(id TypeID) {
		if id == NoTypeID || seen[id] {
			return
		}
		p, ok := in.arena.Get(uint64(id))
		if !ok {
			return
		}
		seen[id] = true
		for _, c := range p.Children() {
			visit(c)
		}
	}
	for _, r := range roots {
		visit(r)
	}
	out := make([]TypeID, 0, len(seen))
	for _, id := range in.All() {
		if seen[id] {
			out = append(out, id)
		}
	}
	return out
}

// IsInt reports whether id is an integer type.
func (in *Interner) IsInt(id TypeID) bool {
	return in.KindOf(id) == KindInt
}

// Order returns every interned type in dependency order: children before
// parents, with named structs breaking cycles.
func (in *Interner) Order() []TypeID {
	return in.All()
}
