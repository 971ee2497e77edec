package materialize

import "fmt"

// Stage names the step of the walk an error happened in.
type Stage uint8

const (
	StageValidate Stage = iota + 1
	StageTypes
	StageGlobals
	StageDeclarations
	StageInitializers
	StageBodies
	StageFinish
)

func (s Stage) String() string {
	switch s {
	case StageValidate:
		return "validate"
	case StageTypes:
		return "types"
	case StageGlobals:
		return "globals"
	case StageDeclarations:
		return "declarations"
	case StageInitializers:
		return "initializers"
	case StageBodies:
		return "bodies"
	case StageFinish:
		return "finish"
	default:
		return fmt.Sprintf("Stage(%d)", s)
	}
}

// Error reports a failed materialization. Cause is the validator's
// ValidationErrorList or the backend's error.
type Error struct {
	Stage  Stage
	Entity string
	Cause  error
}

func (e *Error) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("materialize %s: %v", e.Stage, e.Cause)
	}
	return fmt.Sprintf("materialize %s %s: %v", e.Stage, e.Entity, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }
