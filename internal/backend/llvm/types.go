package llvm

import (
	"fmt"
	"strconv"
	"strings"

	"irkit/internal/materialize"
	"irkit/internal/types"
)

// DeclareType records a type. Its spelling is rebuilt from the handles it
// refers to, so a shape naming an undeclared handle is rejected.
func (e *Emitter) DeclareType(shape materialize.TypeShape) (materialize.TypeHandle, error) {
	if e.finished {
		return 0, ErrFinished
	}
	text, err := e.shapeText(shape)
	if err != nil {
		return 0, err
	}
	e.types = append(e.types, typeEntry{shape: shape, text: text})
	h := materialize.TypeHandle(len(e.types))
	if shape.Kind == types.KindStruct && shape.Name != "" {
		e.named = append(e.named, h)
	}
	return h, nil
}

// DefineStruct sets the body of a named struct declared earlier.
func (e *Emitter) DefineStruct(h materialize.TypeHandle, body materialize.StructBody) error {
	if e.finished {
		return ErrFinished
	}
	ent, ok := e.typeEntry(h)
	if !ok {
		return handleErr("type", uint64(h))
	}
	if ent.shape.Name == "" {
		return fmt.Errorf("type %s is not a named struct", ent.text)
	}
	if ent.body != nil {
		return fmt.Errorf("struct %s already defined", ent.text)
	}
	for _, f := range body.Fields {
		if _, ok := e.typeEntry(f); !ok {
			return handleErr("type", uint64(f))
		}
	}
	b := body
	ent.body = &b
	return nil
}

func (e *Emitter) typeEntry(h materialize.TypeHandle) (*typeEntry, bool) {
	if h == 0 || int(h) > len(e.types) {
		return nil, false
	}
	return &e.types[h-1], true
}

func (e *Emitter) typeText(h materialize.TypeHandle) string {
	if ent, ok := e.typeEntry(h); ok {
		return ent.text
	}
	return "void"
}

func (e *Emitter) typeKind(h materialize.TypeHandle) types.Kind {
	if ent, ok := e.typeEntry(h); ok {
		return ent.shape.Kind
	}
	return types.KindInvalid
}

func (e *Emitter) shapeText(s materialize.TypeShape) (string, error) {
	ref := func(h materialize.TypeHandle) (string, error) {
		ent, ok := e.typeEntry(h)
		if !ok {
			return "", handleErr("type", uint64(h))
		}
		return ent.text, nil
	}
	switch s.Kind {
	case types.KindVoid:
		return "void", nil
	case types.KindLabel:
		return "label", nil
	case types.KindInt:
		return "i" + strconv.FormatUint(uint64(s.Width), 10), nil
	case types.KindFloat:
		return floatTypeName(s.Width)
	case types.KindPointer:
		elem, err := ref(s.Elem)
		if err != nil {
			return "", err
		}
		if s.AddrSpace != 0 {
			return fmt.Sprintf("%s addrspace(%d)*", elem, s.AddrSpace), nil
		}
		return elem + "*", nil
	case types.KindArray:
		elem, err := ref(s.Elem)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[%d x %s]", s.Count, elem), nil
	case types.KindStruct:
		if s.Name != "" {
			return ident('%', s.Name), nil
		}
		for _, f := range s.Fields {
			if _, err := ref(f); err != nil {
				return "", err
			}
		}
		return e.structText(s.Fields, s.Packed), nil
	case types.KindFunc:
		result, err := ref(s.Elem)
		if err != nil {
			return "", err
		}
		params := make([]string, 0, len(s.Fields)+1)
		for _, p := range s.Fields {
			t, err := ref(p)
			if err != nil {
				return "", err
			}
			params = append(params, t)
		}
		if s.Variadic {
			params = append(params, "...")
		}
		return result + " (" + strings.Join(params, ", ") + ")", nil
	default:
		return "", fmt.Errorf("unsupported type kind %s", s.Kind)
	}
}

func (e *Emitter) structText(fields []materialize.TypeHandle, packed bool) string {
	var body string
	if len(fields) == 0 {
		body = "{}"
	} else {
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = e.typeText(f)
		}
		body = "{ " + strings.Join(parts, ", ") + " }"
	}
	if packed {
		return "<" + body + ">"
	}
	return body
}

func floatTypeName(width uint32) (string, error) {
	switch width {
	case types.FloatHalf:
		return "half", nil
	case types.FloatSingle:
		return "float", nil
	case types.FloatDouble:
		return "double", nil
	default:
		return "", fmt.Errorf("unsupported float width %d", width)
	}
}
