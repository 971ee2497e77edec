package diag

import (
	"context"
	"errors"
	"strings"

	"irkit/internal/ir"
	"irkit/internal/layout"
	"irkit/internal/materialize"
)

// FromError converts err into diagnostics located in module. A validation
// list yields one diagnostic per entry; nil yields none.
func FromError(module string, err error) []Diagnostic {
	if err == nil {
		return nil
	}
	var list ir.ValidationErrorList
	if errors.As(err, &list) {
		out := make([]Diagnostic, 0, len(list))
		for _, ve := range list {
			out = append(out, fromValidation(module, ve))
		}
		return out
	}
	var me *materialize.Error
	if errors.As(err, &me) {
		return []Diagnostic{fromMaterialize(module, me)}
	}
	var be *ir.BuildError
	if errors.As(err, &be) {
		return []Diagnostic{fromBuild(module, be)}
	}
	var le *layout.LayoutError
	if errors.As(err, &le) {
		return []Diagnostic{fromLayout(module, le)}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return []Diagnostic{{Severity: SevError, Code: BckCanceled, Message: err.Error(), Primary: ModuleLocation(module)}}
	}
	return []Diagnostic{{Severity: SevError, Code: UnknownCode, Message: err.Error(), Primary: ModuleLocation(module)}}
}

func fromValidation(module string, ve *ir.ValidationError) Diagnostic {
	code, ok := validationCodes[ve.Code]
	if !ok {
		code = ValInfo
	}
	return Diagnostic{
		Severity: SevError,
		Code:     code,
		Message:  ve.Message,
		Primary:  Location{Module: module, Func: ve.Func, Block: ve.Block, Instr: ve.Instr},
	}
}

func fromBuild(module string, be *ir.BuildError) Diagnostic {
	code, ok := buildCodes[be.Kind]
	if !ok {
		code = BldInfo
	}
	d := Diagnostic{
		Severity: SevError,
		Code:     code,
		Message:  be.Error(),
		Primary:  ModuleLocation(module),
	}
	if be.Expected != "" || be.Got != "" {
		d.Notes = append(d.Notes,
			Note{Loc: d.Primary, Msg: "expected " + be.Expected},
			Note{Loc: d.Primary, Msg: "got " + be.Got},
		)
	}
	var le *layout.LayoutError
	if errors.As(be.Err, &le) {
		d.Notes = append(d.Notes, Note{Loc: d.Primary, Msg: layoutCode(le.Kind).ID() + ": " + le.Error()})
	}
	return d
}

func fromMaterialize(module string, me *materialize.Error) Diagnostic {
	if me.Stage == materialize.StageValidate {
		// Validation failures are reported through the list branch; this
		// only triggers for an empty or foreign cause.
		return Diagnostic{Severity: SevError, Code: ValInfo, Message: me.Error(), Primary: ModuleLocation(module)}
	}
	code, ok := stageCodes[me.Stage]
	if !ok {
		code = BckInfo
	}
	d := Diagnostic{
		Severity: SevError,
		Code:     code,
		Message:  me.Error(),
		Primary:  entityLocation(module, me.Entity),
	}
	var le *layout.LayoutError
	if errors.As(me.Cause, &le) {
		d.Notes = append(d.Notes, Note{Loc: d.Primary, Msg: layoutCode(le.Kind).ID() + ": " + le.Error()})
	}
	return d
}

func fromLayout(module string, le *layout.LayoutError) Diagnostic {
	return Diagnostic{
		Severity: SevError,
		Code:     layoutCode(le.Kind),
		Message:  le.Error(),
		Primary:  ModuleLocation(module),
	}
}

func layoutCode(k layout.LayoutErrorKind) Code {
	switch k {
	case layout.LayoutErrRecursiveUnsized:
		return LayRecursive
	case layout.LayoutErrLengthConversion:
		return LayOverflow
	case layout.LayoutErrUnsized:
		return LayUnsized
	case layout.LayoutErrUnknownType:
		return LayUnknownType
	case layout.LayoutErrDataLayout:
		return LayDataLayout
	}
	return LayInfo
}

// entityLocation parses the "@func %block" form used by materialize errors.
func entityLocation(module, entity string) Location {
	loc := ModuleLocation(module)
	if !strings.HasPrefix(entity, "@") {
		return loc
	}
	fn, block, _ := strings.Cut(entity[1:], " %")
	loc.Func = fn
	loc.Block = block
	return loc
}
