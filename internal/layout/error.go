package layout

import (
	"fmt"
	"strings"

	"irkit/internal/types"
)

// LayoutErrorKind enumerates types of layout calculation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrRecursiveUnsized indicates a recursive type with no fixed size.
	LayoutErrRecursiveUnsized LayoutErrorKind = iota + 1
	// LayoutErrLengthConversion indicates an array whose size overflows int.
	LayoutErrLengthConversion
	// LayoutErrUnsized indicates a type without a storage size
	// (void, label, function or an opaque struct).
	LayoutErrUnsized
	// LayoutErrUnknownType indicates an id the interner never minted.
	LayoutErrUnknownType
	// LayoutErrDataLayout indicates a malformed data layout string.
	LayoutErrDataLayout
)

// LayoutError represents an error during memory layout calculation.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  types.TypeID
	Text  string         // rendered type, when known
	Cycle []types.TypeID // for LayoutErrRecursiveUnsized
	Err   error          // for LayoutErrLengthConversion and LayoutErrDataLayout

	// Component is the rejected part of a data layout string; Text then
	// holds the whole string.
	Component string
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Kind == LayoutErrDataLayout {
		return fmt.Sprintf("invalid data layout %q: component %q: %v", e.Text, e.Component, e.Err)
	}
	name := e.Text
	if name == "" {
		name = fmt.Sprintf("type#%d", e.Type)
	}
	switch e.Kind {
	case LayoutErrRecursiveUnsized:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("recursive value type has infinite size (%s)", name)
		}
		parts := make([]string, 0, len(e.Cycle))
		for _, id := range e.Cycle {
			parts = append(parts, fmt.Sprintf("type#%d", id))
		}
		return fmt.Sprintf("recursive value type has infinite size (cycle: %s)", strings.Join(parts, " -> "))
	case LayoutErrLengthConversion:
		if e.Err != nil {
			return fmt.Sprintf("array size overflows (%s): %v", name, e.Err)
		}
		return fmt.Sprintf("array size overflows (%s)", name)
	case LayoutErrUnsized:
		return fmt.Sprintf("type %s has no storage size", name)
	case LayoutErrUnknownType:
		return fmt.Sprintf("unknown %s", name)
	default:
		return fmt.Sprintf("layout error kind=%d %s", e.Kind, name)
	}
}

func (e *LayoutError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
