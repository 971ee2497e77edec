package types

import (
	"errors"
	"testing"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Void == NoTypeID || b.I32 == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	i32, _ := in.Lookup(b.I32)
	if i32.Kind != KindInt || i32.Width != 32 {
		t.Fatalf("expected i32, got %+v", i32)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().I8
	arr1, err := in.Array(elem, 16)
	if err != nil {
		t.Fatal(err)
	}
	arr2, err := in.Intern(MakeArray(elem, 16))
	if err != nil {
		t.Fatal(err)
	}
	if arr1 != arr2 {
		t.Fatalf("array types should be deduplicated")
	}
	arr3, _ := in.Array(elem, 17)
	if arr3 == arr1 {
		t.Fatalf("arrays of different length must differ")
	}
}

func TestInternIdempotentAcrossShapes(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	ptr, _ := in.Pointer(b.I8)
	st, _ := in.Struct([]TypeID{b.I32, ptr}, false)
	fn, _ := in.Func(b.I32, []TypeID{ptr, st}, true)

	shapes := []Type{
		MakeInt(17),
		MakeFloat(FloatDouble),
		MakePointer(b.I32),
		MakePointerIn(b.I32, 3),
		MakeArray(st, 2),
		MakeStruct([]TypeID{b.I1, b.I64}, true),
		MakeStruct(nil, false),
		MakeFunc(b.Void, nil, false),
		MakeFunc(fn, nil, false), // rejected below, kept for coverage of the error path
	}
	for i, shape := range shapes[:len(shapes)-1] {
		first, err := in.Intern(shape)
		if err != nil {
			t.Fatalf("shape %d: %v", i, err)
		}
		second, err := in.Intern(shape)
		if err != nil {
			t.Fatalf("shape %d: %v", i, err)
		}
		if first != second {
			t.Fatalf("shape %d: intern not idempotent", i)
		}
		got := in.MustLookup(first)
		if got.Kind != shape.Kind || got.Width != shape.Width || got.Elem != shape.Elem ||
			got.Count != shape.Count || got.Packed != shape.Packed || len(got.Fields) != len(shape.Fields) {
			t.Fatalf("shape %d: resolve(intern(T)) != T: %+v vs %+v", i, got, shape)
		}
	}
	if _, err := in.Intern(shapes[len(shapes)-1]); !errors.Is(err, ErrInvalidTypeShape) {
		t.Fatalf("function returning function must be rejected, got %v", err)
	}
}

func TestPointerAddressSpaceAffectsIdentity(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().I32
	p0, _ := in.Pointer(elem)
	p1, _ := in.PointerIn(elem, 1)
	if p0 == p1 {
		t.Fatalf("pointers in different address spaces must differ")
	}
}

func TestInvalidShapes(t *testing.T) {
	in := NewInterner()
	other := NewInterner()
	b := in.Builtins()
	foreign := other.Builtins().I32

	cases := map[string]Type{
		"zero width":     MakeInt(0),
		"huge width":     MakeInt(MaxIntWidth + 1),
		"odd float":      MakeFloat(80),
		"void pointee":   MakePointer(b.Void),
		"foreign elem":   MakeArray(foreign, 4),
		"void field":     MakeStruct([]TypeID{b.Void}, false),
		"label param":    MakeFunc(b.Void, []TypeID{b.Label}, false),
		"unknown child":  MakePointer(TypeID(12345)),
		"named via bulk": {Kind: KindStruct, Name: "x"},
	}
	for name, shape := range cases {
		if _, err := in.Intern(shape); !errors.Is(err, ErrInvalidTypeShape) {
			t.Errorf("%s: expected ErrInvalidTypeShape, got %v", name, err)
		}
	}
}

func TestNamedStructRecursion(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	node, err := in.DeclareStruct("node")
	if err != nil {
		t.Fatal(err)
	}
	again, _ := in.DeclareStruct("node")
	if again != node {
		t.Fatalf("named struct should be nominal")
	}
	next, err := in.Pointer(node)
	if err != nil {
		t.Fatal(err)
	}
	if err := in.SetStructBody(node, []TypeID{b.I32, next}, false); err != nil {
		t.Fatal(err)
	}
	if got := in.Format(node); got != "%node" {
		t.Fatalf("format = %q", got)
	}
	if got := in.FormatBody(node); got != "{ i32, %node* }" {
		t.Fatalf("body = %q", got)
	}
	if err := in.SetStructBody(node, nil, false); !errors.Is(err, ErrInvalidTypeShape) {
		t.Fatalf("second body must be rejected, got %v", err)
	}
}

func TestNamedStructByValueCycleRejected(t *testing.T) {
	in := NewInterner()
	s, _ := in.DeclareStruct("s")
	wrap, _ := in.Array(s, 2)
	if err := in.SetStructBody(s, []TypeID{wrap}, false); !errors.Is(err, ErrInvalidTypeShape) {
		t.Fatalf("expected by-value cycle rejection, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	str, _ := in.Pointer(b.I8)
	arr, _ := in.Array(b.I8, 4)
	packed, _ := in.Struct([]TypeID{b.I8, b.I32}, true)
	fn, _ := in.Func(b.I32, []TypeID{str}, true)
	fnPtr, _ := in.Pointer(fn)
	half, _ := in.Float(FloatHalf)
	as, _ := in.PointerIn(b.I32, 2)

	tests := map[TypeID]string{
		b.Void: "void",
		str:    "i8*",
		arr:    "[4 x i8]",
		packed: "<{ i8, i32 }>",
		fn:     "i32 (i8*, ...)",
		fnPtr:  "i32 (i8*, ...)*",
		half:   "half",
		as:     "i32 addrspace(2)*",
	}
	for id, want := range tests {
		if got := in.Format(id); got != want {
			t.Errorf("Format = %q, want %q", got, want)
		}
	}
}

func TestClosureFollowsCreationOrder(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	node, _ := in.DeclareStruct("node")
	next, _ := in.Pointer(node)
	_ = in.SetStructBody(node, []TypeID{b.I64, next}, false)
	unused, _ := in.Array(b.I8, 3)

	got := in.Closure([]TypeID{next})
	want := []TypeID{b.I64, node, next}
	if len(got) != len(want) {
		t.Fatalf("closure = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("closure[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	for _, id := range got {
		if id == unused {
			t.Fatalf("unused type leaked into closure")
		}
	}
}
