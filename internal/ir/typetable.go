package ir

import "irkit/internal/types"

// Type construction goes through the module so that a frozen module cannot
// grow its type table.

// InternType interns an arbitrary shape.
func (m *Module) InternType(t types.Type) (types.TypeID, error) {
	if err := m.mutable("InternType"); err != nil {
		return types.NoTypeID, err
	}
	id, err := m.types.Intern(t)
	if err != nil {
		return types.NoTypeID, shapeErr("InternType", err)
	}
	return id, nil
}

// VoidType returns the void type.
func (m *Module) VoidType() types.TypeID { return m.types.Builtins().Void }

// LabelType returns the label type.
func (m *Module) LabelType() types.TypeID { return m.types.Builtins().Label }

// IntType interns an integer type of the given width.
func (m *Module) IntType(width uint32) (types.TypeID, error) {
	return m.InternType(types.MakeInt(width))
}

// FloatType interns half (16), float (32) or double (64).
func (m *Module) FloatType(width uint32) (types.TypeID, error) {
	return m.InternType(types.MakeFloat(width))
}

// PointerType interns a pointer to elem in address space 0.
func (m *Module) PointerType(elem types.TypeID) (types.TypeID, error) {
	return m.InternType(types.MakePointer(elem))
}

// PointerTypeIn interns a pointer to elem in addrSpace.
func (m *Module) PointerTypeIn(elem types.TypeID, addrSpace uint32) (types.TypeID, error) {
	return m.InternType(types.MakePointerIn(elem, addrSpace))
}

// ArrayType interns [count x elem].
func (m *Module) ArrayType(elem types.TypeID, count uint64) (types.TypeID, error) {
	return m.InternType(types.MakeArray(elem, count))
}

// StructType interns an anonymous struct.
func (m *Module) StructType(fields []types.TypeID, packed bool) (types.TypeID, error) {
	return m.InternType(types.MakeStruct(fields, packed))
}

// FuncType interns a function signature.
func (m *Module) FuncType(result types.TypeID, params []types.TypeID, variadic bool) (types.TypeID, error) {
	return m.InternType(types.MakeFunc(result, params, variadic))
}

// DeclareStruct returns the named struct called name, opaque until
// SetStructBody is called.
func (m *Module) DeclareStruct(name string) (types.TypeID, error) {
	if err := m.mutable("DeclareStruct"); err != nil {
		return types.NoTypeID, err
	}
	canon, err := canonicalName("DeclareStruct", name)
	if err != nil {
		return types.NoTypeID, err
	}
	id, err := m.types.DeclareStruct(canon)
	if err != nil {
		return types.NoTypeID, shapeErr("DeclareStruct", err)
	}
	return id, nil
}

// SetStructBody defines the fields of an opaque named struct.
func (m *Module) SetStructBody(id types.TypeID, fields []types.TypeID, packed bool) error {
	if err := m.mutable("SetStructBody"); err != nil {
		return err
	}
	if err := m.types.SetStructBody(id, fields, packed); err != nil {
		return shapeErr("SetStructBody", err)
	}
	return nil
}

// TypeString spells id in LLVM syntax.
func (m *Module) TypeString(id types.TypeID) string {
	return m.types.Format(id)
}

func (m *Module) pointerTo(op string, elem types.TypeID, addrSpace uint32) (types.TypeID, error) {
	id, err := m.types.Intern(types.MakePointerIn(elem, addrSpace))
	if err != nil {
		return types.NoTypeID, shapeErr(op, err)
	}
	return id, nil
}
