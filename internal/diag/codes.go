package diag

import (
	"fmt"

	"irkit/internal/ir"
	"irkit/internal/materialize"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Builder API misuse, one per ir.ErrorKind.
	BldInfo                   Code = 1000
	BldDuplicateName          Code = 1001
	BldUnknownGlobal          Code = 1002
	BldSignatureExhausted     Code = 1003
	BldBlockAlreadyTerminated Code = 1004
	BldOperandMismatch        Code = 1005
	BldModuleFrozen           Code = 1006
	BldInvalidTypeShape       Code = 1007
	BldUnknownValue           Code = 1008
	BldUnknownBlock           Code = 1009
	BldUnknownFunction        Code = 1010
	BldInvalidName            Code = 1011
	BldInvalidTarget          Code = 1012

	// Structural validation, one per ir.ValidationCode.
	ValInfo                 Code = 2000
	ValMissingTerminator    Code = 2001
	ValUnresolvedTarget     Code = 2002
	ValUnreachableBlock     Code = 2003
	ValEntryHasPredecessors Code = 2004
	ValNotDominated         Code = 2005
	ValPhiIncoming          Code = 2006
	ValUnresolvedGlobal     Code = 2007
	ValReturnType           Code = 2008
	ValDuplicateName        Code = 2009

	// Backend failures, one per materializer stage.
	BckInfo         Code = 3000
	BckTypes        Code = 3001
	BckGlobals      Code = 3002
	BckDeclarations Code = 3003
	BckBodies       Code = 3004
	BckFinish       Code = 3005
	BckCanceled     Code = 3006
	BckInitializers Code = 3007

	// Target layout.
	LayInfo        Code = 4000
	LayRecursive   Code = 4001
	LayOverflow    Code = 4002
	LayUnsized     Code = 4003
	LayUnknownType Code = 4004
	LayDataLayout  Code = 4005

	// Project and cache I/O.
	IOInfo        Code = 5000
	IOProjectFile Code = 5001
	IOCacheEntry  Code = 5002
)

var (
	codeDescription = map[Code]string{
		UnknownCode: "Unknown error",

		BldInfo:                   "Builder information",
		BldDuplicateName:          "Name is already taken",
		BldUnknownGlobal:          "Unknown global or function",
		BldSignatureExhausted:     "Every parameter of the signature is bound",
		BldBlockAlreadyTerminated: "Block already ends in a terminator",
		BldOperandMismatch:        "Operand does not fit the instruction",
		BldModuleFrozen:           "Module is frozen",
		BldInvalidTypeShape:       "Invalid type shape",
		BldUnknownValue:           "Unknown value",
		BldUnknownBlock:           "Unknown block",
		BldUnknownFunction:        "Unknown function",
		BldInvalidName:            "Invalid name",
		BldInvalidTarget:          "Invalid target data layout",

		ValInfo:                 "Validation information",
		ValMissingTerminator:    "Block has no terminator",
		ValUnresolvedTarget:     "Branch target does not resolve",
		ValUnreachableBlock:     "Block is unreachable from the entry",
		ValEntryHasPredecessors: "Entry block has predecessors",
		ValNotDominated:         "Use is not dominated by its definition",
		ValPhiIncoming:          "Phi incoming edges do not match predecessors",
		ValUnresolvedGlobal:     "Forward reference was never defined",
		ValReturnType:           "Return does not match the function result",
		ValDuplicateName:        "Duplicate symbol name",

		BckInfo:         "Backend information",
		BckTypes:        "Backend rejected a type",
		BckGlobals:      "Backend rejected a global",
		BckDeclarations: "Backend rejected a function declaration",
		BckBodies:       "Backend rejected a function body",
		BckFinish:       "Backend failed to finish the module",
		BckCanceled:     "Materialization was canceled",
		BckInitializers: "Backend rejected a global initializer",

		LayInfo:        "Layout information",
		LayRecursive:   "Recursive type has no finite size",
		LayOverflow:    "Type size overflows",
		LayUnsized:     "Type has no storage size",
		LayUnknownType: "Unknown type",
		LayDataLayout:  "Malformed data layout string",

		IOInfo:        "I/O information",
		IOProjectFile: "Project file could not be read",
		IOCacheEntry:  "Cache entry could not be used",
	}

	buildCodes = map[ir.ErrorKind]Code{
		ir.ErrKindDuplicateName:          BldDuplicateName,
		ir.ErrKindUnknownGlobal:          BldUnknownGlobal,
		ir.ErrKindSignatureExhausted:     BldSignatureExhausted,
		ir.ErrKindBlockAlreadyTerminated: BldBlockAlreadyTerminated,
		ir.ErrKindOperandMismatch:        BldOperandMismatch,
		ir.ErrKindModuleFrozen:           BldModuleFrozen,
		ir.ErrKindInvalidTypeShape:       BldInvalidTypeShape,
		ir.ErrKindUnknownValue:           BldUnknownValue,
		ir.ErrKindUnknownBlock:           BldUnknownBlock,
		ir.ErrKindUnknownFunction:        BldUnknownFunction,
		ir.ErrKindInvalidName:            BldInvalidName,
		ir.ErrKindInvalidTarget:          BldInvalidTarget,
	}

	validationCodes = map[ir.ValidationCode]Code{
		ir.CodeMissingTerminator:    ValMissingTerminator,
		ir.CodeUnresolvedTarget:     ValUnresolvedTarget,
		ir.CodeUnreachableBlock:     ValUnreachableBlock,
		ir.CodeEntryHasPredecessors: ValEntryHasPredecessors,
		ir.CodeNotDominated:         ValNotDominated,
		ir.CodePhiIncoming:          ValPhiIncoming,
		ir.CodeUnresolvedGlobal:     ValUnresolvedGlobal,
		ir.CodeReturnType:           ValReturnType,
		ir.CodeDuplicateName:        ValDuplicateName,
	}

	stageCodes = map[materialize.Stage]Code{
		materialize.StageTypes:        BckTypes,
		materialize.StageGlobals:      BckGlobals,
		materialize.StageDeclarations: BckDeclarations,
		materialize.StageInitializers: BckInitializers,
		materialize.StageBodies:       BckBodies,
		materialize.StageFinish:       BckFinish,
	}
)

// ID returns the stable identifier, e.g. "VAL2001".
func (c Code) ID() string {
	ic := int(c)
	switch {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("BLD%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("VAL%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("BCK%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("LAY%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	if s, ok := codeDescription[c]; ok {
		return s
	}
	return codeDescription[UnknownCode]
}

func (c Code) String() string {
	return c.ID()
}
