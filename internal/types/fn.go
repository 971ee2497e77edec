package types

// FuncInfo describes a function signature.
type FuncInfo struct {
	Result   TypeID
	Params   []TypeID
	Variadic bool
}

// FuncInfo retrieves function type metadata by TypeID.
func (in *Interner) FuncInfo(id TypeID) (FuncInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFunc {
		return FuncInfo{}, false
	}
	return FuncInfo{Result: tt.Elem, Params: tt.Fields, Variadic: tt.Variadic}, true
}

// IsVoid reports whether id is the void type.
func (in *Interner) IsVoid(id TypeID) bool {
	return in.KindOf(id) == KindVoid
}
