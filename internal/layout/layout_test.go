package layout_test

import (
	"errors"
	"testing"

	"irkit/internal/layout"
	"irkit/internal/types"
)

// mustFor returns a checker that unwraps an interner result or fails t.
func mustFor(t *testing.T) func(types.TypeID, error) types.TypeID {
	return func(id types.TypeID, err error) types.TypeID {
		t.Helper()
		if err != nil {
			t.Fatalf("intern: %v", err)
		}
		return id
	}
}

func TestLayoutScalars(t *testing.T) {
	must := mustFor(t)
	in := types.NewInterner()
	eng := layout.New(layout.X86_64LinuxGNU(), in.View())

	cases := []struct {
		width       uint32
		size, align int
	}{
		{1, 1, 1},
		{8, 1, 1},
		{17, 4, 4},
		{64, 8, 8},
		{128, 16, 8},
	}
	for _, tc := range cases {
		id := must(in.Int(tc.width))
		l, err := eng.LayoutOf(id)
		if err != nil {
			t.Fatalf("i%d: %v", tc.width, err)
		}
		if l.Size != tc.size || l.Align != tc.align {
			t.Fatalf("i%d: got size=%d align=%d, want %d/%d", tc.width, l.Size, l.Align, tc.size, tc.align)
		}
	}

	f32 := must(in.Float(types.FloatSingle))
	if size, _ := eng.SizeOf(f32); size != 4 {
		t.Fatalf("float size = %d", size)
	}
	ptr := must(in.Pointer(f32))
	if align, _ := eng.AlignOf(ptr); align != 8 {
		t.Fatalf("pointer align = %d", align)
	}
}

func TestLayoutStructPadding(t *testing.T) {
	must := mustFor(t)
	in := types.NewInterner()
	eng := layout.New(layout.X86_64LinuxGNU(), in.View())
	i8 := must(in.Int(8))
	i32 := must(in.Int(32))
	i64 := must(in.Int(64))

	st := must(in.Struct([]types.TypeID{i8, i64, i32}, false))
	l, err := eng.LayoutOf(st)
	if err != nil {
		t.Fatal(err)
	}
	if l.Size != 24 || l.Align != 8 {
		t.Fatalf("got size=%d align=%d", l.Size, l.Align)
	}
	if off, _ := eng.FieldOffset(st, 2); off != 16 {
		t.Fatalf("field 2 offset = %d", off)
	}

	packed := must(in.Struct([]types.TypeID{i8, i64, i32}, true))
	l, err = eng.LayoutOf(packed)
	if err != nil {
		t.Fatal(err)
	}
	if l.Size != 13 || l.Align != 1 || l.FieldOffsets[1] != 1 {
		t.Fatalf("packed: got %+v", l)
	}

	arr := must(in.Array(st, 3))
	if size, _ := eng.SizeOf(arr); size != 72 {
		t.Fatalf("array size = %d", size)
	}
}

func TestLayoutNamedStruct(t *testing.T) {
	must := mustFor(t)
	in := types.NewInterner()
	eng := layout.New(layout.X86_64LinuxGNU(), in.View())
	i32 := must(in.Int(32))
	node := must(in.DeclareStruct("node"))

	_, err := eng.LayoutOf(node)
	var lerr *layout.LayoutError
	if !errors.As(err, &lerr) || lerr.Kind != layout.LayoutErrUnsized {
		t.Fatalf("expected unsized error for opaque struct, got %v", err)
	}

	next := must(in.Pointer(node))
	if err := in.SetStructBody(node, []types.TypeID{i32, next}, false); err != nil {
		t.Fatal(err)
	}
	l, err := eng.LayoutOf(node)
	if err != nil {
		t.Fatalf("after body: %v", err)
	}
	if l.Size != 16 || l.FieldOffsets[1] != 8 {
		t.Fatalf("got %+v", l)
	}
}

func TestLayoutUnsizedKinds(t *testing.T) {
	must := mustFor(t)
	in := types.NewInterner()
	eng := layout.New(layout.X86_64LinuxGNU(), in.View())
	b := in.Builtins()
	fn := must(in.Func(b.Void, nil, false))
	for _, id := range []types.TypeID{b.Void, fn} {
		if _, err := eng.LayoutOf(id); err == nil {
			t.Fatalf("expected error for %s", in.Format(id))
		}
	}
}

func TestTargetFromTriple(t *testing.T) {
	tgt := layout.TargetFromTriple("i686-pc-linux-gnu")
	if tgt.PtrSize != 4 {
		t.Fatalf("ptr size = %d", tgt.PtrSize)
	}
	if got := tgt.DataLayout(); got != "e-p:32:32-i64:32-n8:16:32-S128" {
		t.Fatalf("data layout = %q", got)
	}
	if got := layout.TargetFromTriple("").DataLayout(); got != "e-p:64:64-i64:64-n8:16:32:64-S128" {
		t.Fatalf("default data layout = %q", got)
	}
}

func TestParseDataLayout(t *testing.T) {
	dl, err := layout.ParseDataLayout("E-m:e-p:32:32:64-p270:32:32-i64:32:64-f80:128-n8:16:32-S128")
	if err != nil {
		t.Fatal(err)
	}
	if !dl.BigEndian || dl.Mangling != 'e' || dl.StackAlign != 128 {
		t.Fatalf("got endian=%v mangling=%q stack=%d", dl.BigEndian, dl.Mangling, dl.StackAlign)
	}
	if p := dl.Pointer(0); p.Size != 32 || p.Align.ABI != 32 || p.Align.Preferred() != 64 {
		t.Fatalf("pointer 0 = %+v", p)
	}
	if p := dl.Pointer(270); p.Size != 32 || p.Align.Preferred() != 32 {
		t.Fatalf("pointer 270 = %+v", p)
	}
	if a := dl.IntAlign(64); a.ABI != 32 || a.Pref != 64 {
		t.Fatalf("i64 = %+v", a)
	}
	// Widths between entries round up to the next specified width.
	if a := dl.IntAlign(24); a.ABI != 32 {
		t.Fatalf("i24 = %+v", a)
	}
	if a := dl.IntAlign(128); a.ABI != 32 {
		t.Fatalf("i128 = %+v", a)
	}
	if a, ok := dl.FloatAlign(80); !ok || a.ABI != 128 {
		t.Fatalf("f80 = %+v %v", a, ok)
	}
	if len(dl.NativeInts) != 3 {
		t.Fatalf("native ints = %v", dl.NativeInts)
	}

	empty, err := layout.ParseDataLayout("")
	if err != nil {
		t.Fatal(err)
	}
	if p := empty.Pointer(0); p.Size != 64 || p.Align.ABI != 64 {
		t.Fatalf("default pointer = %+v", p)
	}
}

func TestParseDataLayoutRejects(t *testing.T) {
	cases := []struct {
		in, component string
	}{
		{"not a data layout", "not a data layout"},
		{"e--p:64:64", ""},
		{"e-p:64", "p:64"},
		{"p:0:64", "p:0:64"},
		{"p:64:64-p:32:32", "p:32:32"},
		{"i64:64:32", "i64:64:32"},
		{"i64:12", "i64:12"},
		{"m:q", "m:q"},
		{"ex", "ex"},
		{"z7", "z7"},
		{"S1x", "S1x"},
	}
	for _, tc := range cases {
		_, err := layout.ParseDataLayout(tc.in)
		var lerr *layout.LayoutError
		if !errors.As(err, &lerr) || lerr.Kind != layout.LayoutErrDataLayout {
			t.Fatalf("%q: expected data layout error, got %v", tc.in, err)
		}
		if lerr.Component != tc.component || lerr.Text != tc.in {
			t.Fatalf("%q: got component %q text %q", tc.in, lerr.Component, lerr.Text)
		}
	}
}

func TestTargetForDataLayout(t *testing.T) {
	tgt, err := layout.TargetFor("x86_64-unknown-linux-gnu", "e-p:32:32-i64:32")
	if err != nil {
		t.Fatal(err)
	}
	if tgt.PtrSize != 4 || tgt.PtrAlign != 4 || tgt.MaxIntAlign != 4 {
		t.Fatalf("got %+v", tgt)
	}
	if got := tgt.DataLayout(); got != "e-p:32:32-i64:32" {
		t.Fatalf("data layout = %q", got)
	}

	must := mustFor(t)
	in := types.NewInterner()
	eng := layout.New(tgt, in.View())
	i64 := must(in.Int(64))
	ptr := must(in.Pointer(i64))
	st := must(in.Struct([]types.TypeID{must(in.Int(8)), i64, ptr}, false))
	l, err := eng.LayoutOf(st)
	if err != nil {
		t.Fatal(err)
	}
	if l.Size != 16 || l.Align != 4 || l.FieldOffsets[1] != 4 || l.FieldOffsets[2] != 12 {
		t.Fatalf("got %+v", l)
	}

	if _, err := layout.TargetFor("x86_64-unknown-linux-gnu", "not a data layout"); err == nil {
		t.Fatal("expected error for malformed layout")
	}
	def, err := layout.TargetFor("i686-pc-linux-gnu", "")
	if err != nil || def.PtrSize != 4 || def.Layout != nil {
		t.Fatalf("got %+v, %v", def, err)
	}
}
