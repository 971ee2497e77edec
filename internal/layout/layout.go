// Package layout computes target-dependent sizes and alignments of IR types.
package layout

import (
	"fortio.org/safecast"

	"irkit/internal/types"
)

// TypeLayout is the ABI layout of a type for a specific Target.
type TypeLayout struct {
	Size  int
	Align int

	// Struct-only:
	FieldOffsets []int
	FieldAligns  []int
}

// LayoutEngine computes memory layout for types. The engine caches
// successful results, so callers must not reshape a named struct once its
// layout has been queried.
type LayoutEngine struct {
	Target Target
	Types  types.View

	cache *cache
}

// New creates a new LayoutEngine for the specified target.
func New(target Target, typesIn types.View) *LayoutEngine {
	return &LayoutEngine{
		Target: target,
		Types:  typesIn,
		cache:  newCache(),
	}
}

type layoutState struct {
	stack []types.TypeID
	index map[types.TypeID]int
}

func newLayoutState() *layoutState {
	return &layoutState{
		stack: nil,
		index: make(map[types.TypeID]int, 32),
	}
}

// LayoutOf computes and caches the layout of a type.
func (e *LayoutEngine) LayoutOf(t types.TypeID) (TypeLayout, error) {
	if e == nil {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	if e.cache == nil {
		e.cache = newCache()
	}
	layout, err := e.layoutOf(t, newLayoutState())
	if err != nil {
		return layout, err
	}
	return layout, nil
}

func (e *LayoutEngine) layoutOf(t types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	if cached, ok := e.cache.get(t); ok {
		return cached, nil
	}

	if idx, ok := state.index[t]; ok {
		cycle := append([]types.TypeID(nil), state.stack[idx:]...)
		cycle = append(cycle, t)
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{
			Kind:  LayoutErrRecursiveUnsized,
			Type:  t,
			Text:  e.Types.Format(t),
			Cycle: cycle,
		}
	}

	state.index[t] = len(state.stack)
	state.stack = append(state.stack, t)
	layout, err := e.computeLayout(t, state)
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.index, t)

	// Opaque structs may gain a body later, so only successes are cached.
	if err == nil {
		e.cache.put(t, layout)
	}
	return layout, err
}

func (e *LayoutEngine) computeLayout(id types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	tt, ok := e.Types.Lookup(id)
	if !ok {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnknownType, Type: id}
	}
	switch tt.Kind {
	case types.KindInt:
		return e.intLayout(tt.Width), nil
	case types.KindFloat:
		return e.floatLayout(tt.Width), nil
	case types.KindPointer:
		return e.ptrLayout(), nil
	case types.KindArray:
		return e.arrayLayout(id, tt, state)
	case types.KindStruct:
		if tt.Opaque {
			return TypeLayout{Size: 0, Align: 1}, e.unsized(id)
		}
		return e.structLayout(tt, state)
	default:
		return TypeLayout{Size: 0, Align: 1}, e.unsized(id)
	}
}

func (e *LayoutEngine) unsized(id types.TypeID) *LayoutError {
	return &LayoutError{Kind: LayoutErrUnsized, Type: id, Text: e.Types.Format(id)}
}

// SizeOf returns the size of a type in bytes.
func (e *LayoutEngine) SizeOf(t types.TypeID) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Size, err
}

// AlignOf returns the alignment requirement of a type in bytes.
func (e *LayoutEngine) AlignOf(t types.TypeID) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Align, err
}

// FieldOffset returns the byte offset of a struct field.
func (e *LayoutEngine) FieldOffset(structT types.TypeID, fieldIdx int) (int, error) {
	l, err := e.LayoutOf(structT)
	if err != nil {
		return 0, err
	}
	if fieldIdx < 0 || fieldIdx >= len(l.FieldOffsets) {
		return 0, nil
	}
	return l.FieldOffsets[fieldIdx], nil
}

func (e *LayoutEngine) ptrLayout() TypeLayout {
	ptrSize := e.Target.PtrSize
	ptrAlign := e.Target.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

// intLayout stores iN in the smallest power-of-two byte count that holds it.
func (e *LayoutEngine) intLayout(width uint32) TypeLayout {
	size := 1
	for size*8 < int(width) {
		size <<= 1
	}
	if dl := e.Target.Layout; dl != nil {
		return TypeLayout{Size: size, Align: max(1, int(dl.IntAlign(width).ABI/8))}
	}
	maxAlign := e.Target.MaxIntAlign
	if maxAlign <= 0 {
		maxAlign = 8
	}
	return TypeLayout{Size: size, Align: min(size, maxAlign)}
}

func (e *LayoutEngine) floatLayout(width uint32) TypeLayout {
	l := scalarLayoutBytes(int(width) / 8)
	if dl := e.Target.Layout; dl != nil {
		if a, ok := dl.FloatAlign(width); ok && a.ABI > 0 {
			l.Align = int(a.ABI / 8)
		}
	}
	return l
}

func scalarLayoutBytes(size int) TypeLayout {
	if size <= 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	return TypeLayout{Size: size, Align: size}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

func (e *LayoutEngine) arrayLayout(id types.TypeID, tt types.Type, state *layoutState) (TypeLayout, *LayoutError) {
	elemLayout, err := e.layoutOf(tt.Elem, state)
	if err != nil {
		return TypeLayout{Size: 0, Align: 1}, err
	}
	elemAlign := max(elemLayout.Align, 1)
	stride := roundUp(elemLayout.Size, elemAlign)
	n, convErr := safecast.Conv[int](tt.Count)
	if convErr != nil {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrLengthConversion, Type: id, Text: e.Types.Format(id), Err: convErr}
	}
	if stride > 0 && n > int(^uint(0)>>1)/stride {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrLengthConversion, Type: id, Text: e.Types.Format(id)}
	}
	return TypeLayout{
		Size:  stride * n,
		Align: elemAlign,
	}, nil
}

func (e *LayoutEngine) structLayout(tt types.Type, state *layoutState) (TypeLayout, *LayoutError) {
	fields := tt.Fields
	offsets := make([]int, len(fields))
	aligns := make([]int, len(fields))

	if tt.Packed {
		size := 0
		for i := range fields {
			fl, err := e.layoutOf(fields[i], state)
			if err != nil {
				return TypeLayout{Size: 0, Align: 1}, err
			}
			offsets[i] = size
			aligns[i] = 1
			size += fl.Size
		}
		return TypeLayout{
			Size:         size,
			Align:        1,
			FieldOffsets: offsets,
			FieldAligns:  aligns,
		}, nil
	}

	size := 0
	align := 1
	for i := range fields {
		fl, err := e.layoutOf(fields[i], state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		fAlign := max(fl.Align, 1)
		size = roundUp(size, fAlign)
		offsets[i] = size
		aligns[i] = fAlign
		size += fl.Size
		align = max(align, fAlign)
	}
	size = roundUp(size, align)
	return TypeLayout{
		Size:         size,
		Align:        align,
		FieldOffsets: offsets,
		FieldAligns:  aligns,
	}, nil
}
