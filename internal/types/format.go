package types

import (
	"strconv"
	"strings"
)

// Format renders id in LLVM assembly syntax, e.g. "i32", "[4 x i8]",
// "%node*" or "i32 (i8*, ...)".
func (in *Interner) Format(id TypeID) string {
	var sb strings.Builder
	in.format(&sb, id)
	return sb.String()
}

func (in *Interner) format(sb *strings.Builder, id TypeID) {
	if in == nil {
		sb.WriteString("<nil interner>")
		return
	}
	p, ok := in.arena.Get(uint64(id))
	if !ok {
		sb.WriteString("<bad type>")
		return
	}
	switch p.Kind {
	case KindVoid:
		sb.WriteString("void")
	case KindLabel:
		sb.WriteString("label")
	case KindInt:
		sb.WriteByte('i')
		sb.WriteString(strconv.FormatUint(uint64(p.Width), 10))
	case KindFloat:
		switch p.Width {
		case FloatHalf:
			sb.WriteString("half")
		case FloatSingle:
			sb.WriteString("float")
		default:
			sb.WriteString("double")
		}
	case KindPointer:
		in.format(sb, p.Elem)
		if p.AddrSpace != 0 {
			sb.WriteString(" addrspace(")
			sb.WriteString(strconv.FormatUint(uint64(p.AddrSpace), 10))
			sb.WriteByte(')')
		}
		sb.WriteByte('*')
	case KindArray:
		sb.WriteByte('[')
		sb.WriteString(strconv.FormatUint(p.Count, 10))
		sb.WriteString(" x ")
		in.format(sb, p.Elem)
		sb.WriteByte(']')
	case KindStruct:
		if p.Name != "" {
			sb.WriteByte('%')
			sb.WriteString(p.Name)
			return
		}
		in.formatBody(sb, p.Fields, p.Packed)
	case KindFunc:
		in.format(sb, p.Elem)
		sb.WriteString(" (")
		for i, param := range p.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			in.format(sb, param)
		}
		if p.Variadic {
			if len(p.Fields) > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("...")
		}
		sb.WriteByte(')')
	default:
		sb.WriteString(p.Kind.String())
	}
}

// FormatBody renders the field list of a struct, which for named structs
// differs from Format (that only prints the name).
func (in *Interner) FormatBody(id TypeID) string {
	p, ok := in.arena.Get(uint64(id))
	if !ok || p.Kind != KindStruct {
		return in.Format(id)
	}
	if p.Opaque {
		return "opaque"
	}
	var sb strings.Builder
	in.formatBody(&sb, p.Fields, p.Packed)
	return sb.String()
}

func (in *Interner) formatBody(sb *strings.Builder, fields []TypeID, packed bool) {
	if packed {
		sb.WriteByte('<')
	}
	if len(fields) == 0 {
		sb.WriteString("{}")
	} else {
		sb.WriteString("{ ")
		for i, f := range fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			in.format(sb, f)
		}
		sb.WriteString(" }")
	}
	if packed {
		sb.WriteByte('>')
	}
}
