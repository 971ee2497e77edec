package llvm

import (
	"fmt"
	"math"
	"strings"

	"irkit/internal/ir"
	"irkit/internal/materialize"
	"irkit/internal/types"
)

func (e *Emitter) constant(op materialize.Operand) string {
	c := op.Const
	ent, _ := e.typeEntry(op.Type)
	switch c.Kind {
	case ir.ConstInt:
		width := uint32(64)
		if ent != nil {
			width = ent.shape.Width
		}
		if width == 1 {
			if c.Bits.Sign() != 0 {
				return "true"
			}
			return "false"
		}
		return c.Signed(width).String()
	case ir.ConstFloat:
		width := types.FloatDouble
		if ent != nil {
			width = ent.shape.Width
		}
		return formatFloat(c.Float, width)
	case ir.ConstBytes:
		return formatLLVMBytes(c.Bytes)
	case ir.ConstAggregate:
		return e.aggregate(op.Type, c.Elems)
	default:
		return c.Kind.String()
	}
}

func (e *Emitter) aggregate(h materialize.TypeHandle, elems []materialize.Operand) string {
	parts := make([]string, len(elems))
	for i, el := range elems {
		parts[i] = e.typed(el)
	}
	ent, _ := e.typeEntry(h)
	if ent != nil && ent.shape.Kind == types.KindArray {
		return "[" + strings.Join(parts, ", ") + "]"
	}
	packed := ent != nil && ent.shape.Packed
	if ent != nil && ent.body != nil {
		packed = ent.body.Packed
	}
	body := "{}"
	if len(parts) > 0 {
		body = "{ " + strings.Join(parts, ", ") + " }"
	}
	if packed {
		return "<" + body + ">"
	}
	return body
}

// formatFloat uses LLVM's hexadecimal spelling so every value round-trips:
// 64-bit double bits for float and double, 0xH bits for half.
func formatFloat(v float64, width uint32) string {
	if width == types.FloatHalf {
		return fmt.Sprintf("0xH%04X", halfBits(float32(v)))
	}
	if width == types.FloatSingle {
		v = float64(float32(v))
	}
	return fmt.Sprintf("0x%016X", math.Float64bits(v))
}

// halfBits converts f to IEEE binary16, rounding to nearest.
func halfBits(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	rawExp := int((bits >> 23) & 0xff)
	mant := bits & 0x7fffff

	if rawExp == 0xff {
		if mant != 0 {
			return sign | 0x7e00
		}
		return sign | 0x7c00
	}
	exp := rawExp - 127 + 15
	switch {
	case exp >= 0x1f:
		return sign | 0x7c00
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint(14 - exp)
		h := uint16(mant >> shift)
		if mant>>(shift-1)&1 != 0 {
			h++
		}
		return sign | h
	default:
		h := sign | uint16(exp)<<10 | uint16(mant>>13)
		if mant&0x1000 != 0 {
			h++
		}
		return h
	}
}

// formatLLVMBytes spells data as a c"..." string, escaping everything that
// is not printable ASCII.
func formatLLVMBytes(data []byte) string {
	var sb strings.Builder
	sb.WriteString("c\"")
	for _, b := range data {
		writeStringByte(&sb, b)
	}
	sb.WriteString("\"")
	return sb.String()
}
