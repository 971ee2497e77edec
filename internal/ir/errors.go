package ir

import (
	"errors"
	"fmt"
	"strings"

	"irkit/internal/types"
)

// ErrorKind classifies builder usage errors.
type ErrorKind uint8

const (
	ErrKindDuplicateName ErrorKind = iota + 1
	ErrKindUnknownGlobal
	ErrKindSignatureExhausted
	ErrKindBlockAlreadyTerminated
	ErrKindOperandMismatch
	ErrKindModuleFrozen
	ErrKindInvalidTypeShape
	ErrKindUnknownValue
	ErrKindUnknownBlock
	ErrKindUnknownFunction
	ErrKindInvalidName
	ErrKindInvalidTarget
)

// Sentinels matched with errors.Is against a *BuildError.
var (
	ErrDuplicateName          = errors.New("duplicate name")
	ErrUnknownGlobal          = errors.New("unknown global")
	ErrSignatureExhausted     = errors.New("signature exhausted")
	ErrBlockAlreadyTerminated = errors.New("block already terminated")
	ErrOperandMismatch        = errors.New("operand mismatch")
	ErrModuleFrozen           = errors.New("module frozen")
	ErrInvalidTypeShape       = types.ErrInvalidTypeShape
	ErrUnknownValue           = errors.New("unknown value")
	ErrUnknownBlock           = errors.New("unknown block")
	ErrUnknownFunction        = errors.New("unknown function")
	ErrInvalidName            = errors.New("invalid name")
	ErrInvalidTarget          = errors.New("invalid target")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case ErrKindDuplicateName:
		return ErrDuplicateName
	case ErrKindUnknownGlobal:
		return ErrUnknownGlobal
	case ErrKindSignatureExhausted:
		return ErrSignatureExhausted
	case ErrKindBlockAlreadyTerminated:
		return ErrBlockAlreadyTerminated
	case ErrKindOperandMismatch:
		return ErrOperandMismatch
	case ErrKindModuleFrozen:
		return ErrModuleFrozen
	case ErrKindInvalidTypeShape:
		return ErrInvalidTypeShape
	case ErrKindUnknownValue:
		return ErrUnknownValue
	case ErrKindUnknownBlock:
		return ErrUnknownBlock
	case ErrKindUnknownFunction:
		return ErrUnknownFunction
	case ErrKindInvalidName:
		return ErrInvalidName
	case ErrKindInvalidTarget:
		return ErrInvalidTarget
	default:
		return nil
	}
}

func (k ErrorKind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// BuildError reports a rejected Builder API call. The module is unchanged
// whenever a BuildError is returned.
type BuildError struct {
	Kind   ErrorKind
	Op     string // builder operation, e.g. "NewGlobal"
	Entity string // names or ids involved

	// OperandMismatch only.
	Expected string
	Got      string

	Detail string
	Err    error // underlying cause, e.g. a types.ErrInvalidTypeShape
}

func (e *BuildError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.String())
	if e.Entity != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Entity)
		sb.WriteString(")")
	}
	if e.Expected != "" || e.Got != "" {
		fmt.Fprintf(&sb, ": expected %s, got %s", e.Expected, e.Got)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *BuildError) Unwrap() []error {
	out := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func buildErr(kind ErrorKind, op, entity, detail string) *BuildError {
	return &BuildError{Kind: kind, Op: op, Entity: entity, Detail: detail}
}

func mismatch(op, entity, expected, got string) *BuildError {
	return &BuildError{Kind: ErrKindOperandMismatch, Op: op, Entity: entity, Expected: expected, Got: got}
}

func shapeErr(op string, err error) *BuildError {
	return &BuildError{Kind: ErrKindInvalidTypeShape, Op: op, Err: err}
}
