package types

// View is a read-only window onto an Interner. Modules hand out views so
// that callers cannot intern types behind the module's back.
type View struct {
	in *Interner
}

// View returns a read-only view of in.
func (in *Interner) View() View {
	return View{in: in}
}

func (v View) Lookup(id TypeID) (Type, bool) { return v.in.Lookup(id) }
func (v View) MustLookup(id TypeID) Type { return v.in.MustLookup(id) }
func (v View) KindOf(id TypeID) Kind { return v.in.KindOf(id) }
func (v View) Owns(id TypeID) bool { return v.in.Owns(id) }
func (v View) Builtins() Builtins { return v.in.Builtins() }
func (v View) IntWidth(id TypeID) (uint32, bool) { return v.in.IntWidth(id) }
func (v View) Pointee(id TypeID) (TypeID, bool) { return v.in.Pointee(id) }
func (v View) IsFirstClass(id TypeID) bool { return v.in.IsFirstClass(id) }
func (v View) IsInt(id TypeID) bool { return v.in.IsInt(id) }
func (v View) IsVoid(id TypeID) bool { return v.in.IsVoid(id) }
func (v View) FuncInfo(id TypeID) (FuncInfo, bool) { return v.in.FuncInfo(id) }
func (v View) NamedStruct(name string) (TypeID, bool) { return v.in.NamedStruct(name) }
func (v View) Closure(roots []TypeID) []TypeID { return v.in.Closure(roots) }
func (v View) Order() []TypeID { return v.in.Order() }
func (v View) Format(id TypeID) string { return v.in.Format(id) }
func (v View) FormatBody(id TypeID) string { return v.in.FormatBody(id) }
func (v View) Len() int { return v.in.Len() }
