package ir

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"irkit/internal/types"
)

// ConstKind tags the variant of a Constant.
type ConstKind uint8

const (
	ConstInvalid ConstKind = iota
	ConstInt
	ConstFloat
	ConstNull
	ConstZero
	ConstUndef
	ConstAggregate
	ConstBytes
)

func (k ConstKind) String() string {
	switch k {
	case ConstInt:
		return "int"
	case ConstFloat:
		return "float"
	case ConstNull:
		return "null"
	case ConstZero:
		return "zeroinitializer"
	case ConstUndef:
		return "undef"
	case ConstAggregate:
		return "aggregate"
	case ConstBytes:
		return "bytes"
	default:
		return "invalid"
	}
}

// Constant is the literal payload of a ValueConst.
type Constant struct {
	Kind  ConstKind
	Bits  *big.Int  // ConstInt: two's complement bits, 0 <= Bits < 2^width
	Float float64   // ConstFloat
	Elems []ValueID // ConstAggregate: constants or global references
	Bytes []byte    // ConstBytes: an [N x i8] array
}

func (c *Constant) clone() Constant {
	out := *c
	if c.Bits != nil {
		out.Bits = new(big.Int).Set(c.Bits)
	}
	if c.Elems != nil {
		out.Elems = append([]ValueID(nil), c.Elems...)
	}
	if c.Bytes != nil {
		out.Bytes = append([]byte(nil), c.Bytes...)
	}
	return out
}

// Signed interprets the bits of a ConstInt of the given width as a signed
// integer.
func (c *Constant) Signed(width uint32) *big.Int {
	v := new(big.Int).Set(c.Bits)
	if width > 0 && v.Bit(int(width)-1) == 1 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(width)))
	}
	return v
}

// ConstInt returns the integer constant v of type ty, truncated to the
// type's width.
func (m *Module) ConstInt(ty types.TypeID, v int64) (ValueID, error) {
	return m.constIntBig("ConstInt", ty, big.NewInt(v))
}

// ConstIntBig is ConstInt for literals wider than 64 bits.
func (m *Module) ConstIntBig(ty types.TypeID, v *big.Int) (ValueID, error) {
	if v == nil {
		v = new(big.Int)
	}
	return m.constIntBig("ConstIntBig", ty, v)
}

// ConstBool returns the i1 constant for b.
func (m *Module) ConstBool(b bool) (ValueID, error) {
	v := int64(0)
	if b {
		v = 1
	}
	return m.constIntBig("ConstBool", m.types.Builtins().I1, big.NewInt(v))
}

func (m *Module) constIntBig(op string, ty types.TypeID, v *big.Int) (ValueID, error) {
	width, ok := m.types.IntWidth(ty)
	if !ok {
		return NoValueID, mismatch(op, "", "integer type", m.typeLabel(ty))
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	bits := new(big.Int).Mod(v, mod)
	key := m.constKey('i', ty, bits.Text(16))
	return m.internConst(op, key, ty, Constant{Kind: ConstInt, Bits: bits})
}

// ConstFloat returns the floating point constant v of type ty. Single
// precision literals are rounded to float32.
func (m *Module) ConstFloat(ty types.TypeID, v float64) (ValueID, error) {
	const op = "ConstFloat"
	t, ok := m.types.Lookup(ty)
	if !ok || t.Kind != types.KindFloat {
		return NoValueID, mismatch(op, "", "float type", m.typeLabel(ty))
	}
	if t.Width == types.FloatSingle {
		v = float64(float32(v))
	}
	key := m.constKey('f', ty, strconv.FormatUint(math.Float64bits(v), 16))
	return m.internConst(op, key, ty, Constant{Kind: ConstFloat, Float: v})
}

// ConstNull returns the null pointer of pointer type ty.
func (m *Module) ConstNull(ty types.TypeID) (ValueID, error) {
	const op = "ConstNull"
	if m.types.KindOf(ty) != types.KindPointer {
		return NoValueID, mismatch(op, "", "pointer type", m.typeLabel(ty))
	}
	return m.internConst(op, m.constKey('n', ty, ""), ty, Constant{Kind: ConstNull})
}

// ConstZero returns the all-zero value of ty (zeroinitializer).
func (m *Module) ConstZero(ty types.TypeID) (ValueID, error) {
	const op = "ConstZero"
	if err := m.checkConstType(op, ty); err != nil {
		return NoValueID, err
	}
	return m.internConst(op, m.constKey('z', ty, ""), ty, Constant{Kind: ConstZero})
}

// ConstUndef returns the undefined value of ty.
func (m *Module) ConstUndef(ty types.TypeID) (ValueID, error) {
	const op = "ConstUndef"
	if err := m.checkConstType(op, ty); err != nil {
		return NoValueID, err
	}
	return m.internConst(op, m.constKey('u', ty, ""), ty, Constant{Kind: ConstUndef})
}

// ConstAggregate builds an array or struct constant. Elements must be
// constants or global references whose types match the aggregate's.
func (m *Module) ConstAggregate(ty types.TypeID, elems []ValueID) (ValueID, error) {
	const op = "ConstAggregate"
	t, ok := m.types.Lookup(ty)
	if !ok {
		return NoValueID, shapeErr(op, fmt.Errorf("%w: unknown type %#x", types.ErrInvalidTypeShape, uint64(ty)))
	}
	var want []types.TypeID
	switch {
	case t.Kind == types.KindArray:
		if uint64(len(elems)) != t.Count {
			return NoValueID, mismatch(op, m.typeLabel(ty), fmt.Sprintf("%d elements", t.Count), fmt.Sprintf("%d", len(elems)))
		}
		want = make([]types.TypeID, len(elems))
		for i := range want {
			want[i] = t.Elem
		}
	case t.Kind == types.KindStruct && !t.Opaque:
		if len(elems) != len(t.Fields) {
			return NoValueID, mismatch(op, m.typeLabel(ty), fmt.Sprintf("%d fields", len(t.Fields)), fmt.Sprintf("%d", len(elems)))
		}
		want = t.Fields
	default:
		return NoValueID, mismatch(op, "", "array or struct type with a body", m.typeLabel(ty))
	}
	var sb strings.Builder
	for i, e := range elems {
		v, ok := m.values.Get(uint64(e))
		if !ok {
			return NoValueID, buildErr(ErrKindUnknownValue, op, m.valueLabel(e), fmt.Sprintf("element %d", i))
		}
		if v.Kind != ValueConst && v.Kind != ValueGlobalRef {
			return NoValueID, mismatch(op, fmt.Sprintf("element %d", i), "constant", v.Kind.String())
		}
		if v.Type != want[i] {
			return NoValueID, mismatch(op, fmt.Sprintf("element %d", i), m.typeLabel(want[i]), m.typeLabel(v.Type))
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(e), 16))
	}
	key := m.constKey('a', ty, sb.String())
	return m.internConst(op, key, ty, Constant{Kind: ConstAggregate, Elems: append([]ValueID(nil), elems...)})
}

// ConstString returns text as an [N x i8] constant, with a trailing NUL when
// nulTerminated is set.
func (m *Module) ConstString(text string, nulTerminated bool) (ValueID, error) {
	const op = "ConstString"
	data := []byte(text)
	if nulTerminated {
		data = append(data, 0)
	}
	key := m.constKey('s', types.NoTypeID, string(data))
	if id, ok := m.consts[key]; ok {
		return id, nil
	}
	if err := m.mutable(op); err != nil {
		return NoValueID, err
	}
	ty, err := m.types.Array(m.types.Builtins().I8, uint64(len(data)))
	if err != nil {
		return NoValueID, shapeErr(op, err)
	}
	return m.internConst(op, key, ty, Constant{Kind: ConstBytes, Bytes: data})
}

func (m *Module) checkConstType(op string, ty types.TypeID) error {
	t, ok := m.types.Lookup(ty)
	if !ok {
		return shapeErr(op, fmt.Errorf("%w: unknown type %#x", types.ErrInvalidTypeShape, uint64(ty)))
	}
	if !m.types.IsFirstClass(ty) || t.Opaque {
		return mismatch(op, "", "first-class sized type", m.typeLabel(ty))
	}
	return nil
}

// Frozen modules serve constant lookups concurrently, so constKey keeps its
// buffer local.
func (m *Module) constKey(tag byte, ty types.TypeID, payload string) string {
	var buf [64]byte
	b := append(buf[:0], tag)
	b = strconv.AppendUint(b, uint64(ty), 16)
	b = append(b, ':')
	b = append(b, payload...)
	return string(b)
}

// internConst returns the existing constant for key, or stores a new one.
// Lookups succeed on frozen modules.
func (m *Module) internConst(op, key string, ty types.TypeID, c Constant) (ValueID, error) {
	if id, ok := m.consts[key]; ok {
		return id, nil
	}
	if err := m.mutable(op); err != nil {
		return NoValueID, err
	}
	id, err := m.pushValue(Value{Kind: ValueConst, Type: ty, Const: &c})
	if err != nil {
		return NoValueID, err
	}
	m.consts[key] = id
	return id, nil
}

func (m *Module) typeLabel(ty types.TypeID) string {
	if !m.types.Owns(ty) {
		return fmt.Sprintf("type %#x", uint64(ty))
	}
	return m.types.Format(ty)
}

// constString renders a constant payload in LLVM-like syntax.
func (m *Module) constString(ty types.TypeID, c *Constant) string {
	if c == nil {
		return "<nil>"
	}
	switch c.Kind {
	case ConstInt:
		w, _ := m.types.IntWidth(ty)
		if w == 1 {
			return strconv.FormatBool(c.Bits.Sign() != 0)
		}
		return c.Signed(w).String()
	case ConstFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case ConstNull:
		return "null"
	case ConstZero:
		return "zeroinitializer"
	case ConstUndef:
		return "undef"
	case ConstBytes:
		return "c" + strconv.Quote(string(c.Bytes))
	case ConstAggregate:
		parts := make([]string, len(c.Elems))
		for i, e := range c.Elems {
			parts[i] = m.valueLabel(e)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	default:
		return "?"
	}
}
