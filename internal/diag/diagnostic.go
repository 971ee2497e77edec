package diag

import (
	"strconv"
	"strings"
)

// Location points into a module. Empty fields are omitted; Instr is -1
// when no instruction is involved.
type Location struct {
	Module string
	Func   string
	Block  string
	Instr  int
}

// ModuleLocation returns a location with no function part.
func ModuleLocation(module string) Location {
	return Location{Module: module, Instr: -1}
}

func (l Location) String() string {
	var sb strings.Builder
	sb.WriteString(l.Module)
	if l.Func != "" {
		if sb.Len() > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString("@" + l.Func)
		if l.Block != "" {
			sb.WriteString(" %" + l.Block)
		}
		if l.Instr >= 0 {
			sb.WriteString(" #" + strconv.Itoa(l.Instr))
		}
	}
	return sb.String()
}

func (l Location) less(o Location) bool {
	if l.Module != o.Module {
		return l.Module < o.Module
	}
	if l.Func != o.Func {
		return l.Func < o.Func
	}
	if l.Block != o.Block {
		return l.Block < o.Block
	}
	return l.Instr < o.Instr
}

type Note struct {
	Loc Location
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}
