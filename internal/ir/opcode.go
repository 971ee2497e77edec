package ir

import "fmt"

// Opcode enumerates instruction operations.
type Opcode uint8

const (
	OpInvalid Opcode = iota

	// OpAdd represents integer addition.
	OpAdd
	// OpSub represents integer subtraction.
	OpSub
	// OpMul represents integer multiplication.
	OpMul
	// OpSDiv represents signed integer division.
	OpSDiv
	// OpUDiv represents unsigned integer division.
	OpUDiv
	// OpSRem represents signed remainder.
	OpSRem
	// OpURem represents unsigned remainder.
	OpURem
	// OpAnd represents bitwise and.
	OpAnd
	// OpOr represents bitwise or.
	OpOr
	// OpXor represents bitwise xor.
	OpXor
	// OpShl represents shift left.
	OpShl
	// OpLShr represents logical shift right.
	OpLShr
	// OpAShr represents arithmetic shift right.
	OpAShr

	// OpFAdd represents floating point addition.
	OpFAdd
	// OpFSub represents floating point subtraction.
	OpFSub
	// OpFMul represents floating point multiplication.
	OpFMul
	// OpFDiv represents floating point division.
	OpFDiv

	// OpICmp represents an integer or pointer comparison.
	OpICmp
	// OpFCmp represents a floating point comparison.
	OpFCmp

	// OpTrunc represents integer truncation.
	OpTrunc
	// OpZExt represents zero extension.
	OpZExt
	// OpSExt represents sign extension.
	OpSExt
	// OpPtrToInt represents a pointer to integer cast.
	OpPtrToInt
	// OpIntToPtr represents an integer to pointer cast.
	OpIntToPtr
	// OpBitcast represents a bit-preserving cast.
	OpBitcast

	// OpAlloca represents a stack allocation.
	OpAlloca
	// OpLoad represents a memory load.
	OpLoad
	// OpStore represents a memory store.
	OpStore
	// OpGEP represents an element address computation.
	OpGEP

	// OpCall represents a function call.
	OpCall
	// OpSelect represents a value select.
	OpSelect
	// OpPhi represents an SSA phi node.
	OpPhi

	// OpBr represents an unconditional branch.
	OpBr
	// OpCondBr represents a conditional branch.
	OpCondBr
	// OpSwitch represents a multi-way branch.
	OpSwitch
	// OpRet represents a function return.
	OpRet
	// OpUnreachable marks code that cannot execute.
	OpUnreachable

	opCount
)

var opNames = [...]string{
	OpInvalid:     "invalid",
	OpAdd:         "add",
	OpSub:         "sub",
	OpMul:         "mul",
	OpSDiv:        "sdiv",
	OpUDiv:        "udiv",
	OpSRem:        "srem",
	OpURem:        "urem",
	OpAnd:         "and",
	OpOr:          "or",
	OpXor:         "xor",
	OpShl:         "shl",
	OpLShr:        "lshr",
	OpAShr:        "ashr",
	OpFAdd:        "fadd",
	OpFSub:        "fsub",
	OpFMul:        "fmul",
	OpFDiv:        "fdiv",
	OpICmp:        "icmp",
	OpFCmp:        "fcmp",
	OpTrunc:       "trunc",
	OpZExt:        "zext",
	OpSExt:        "sext",
	OpPtrToInt:    "ptrtoint",
	OpIntToPtr:    "inttoptr",
	OpBitcast:     "bitcast",
	OpAlloca:      "alloca",
	OpLoad:        "load",
	OpStore:       "store",
	OpGEP:         "getelementptr",
	OpCall:        "call",
	OpSelect:      "select",
	OpPhi:         "phi",
	OpBr:          "br",
	OpCondBr:      "br",
	OpSwitch:      "switch",
	OpRet:         "ret",
	OpUnreachable: "unreachable",
}

func (op Opcode) String() string {
	if op < opCount {
		return opNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", op)
}

// IsTerminator reports whether op ends a basic block.
func (op Opcode) IsTerminator() bool {
	switch op {
	case OpBr, OpCondBr, OpSwitch, OpRet, OpUnreachable:
		return true
	default:
		return false
	}
}

// IsIntBinary reports whether op is an integer binary operation.
func (op Opcode) IsIntBinary() bool { return op >= OpAdd && op <= OpAShr }

// IsFloatBinary reports whether op is a floating point binary operation.
func (op Opcode) IsFloatBinary() bool { return op >= OpFAdd && op <= OpFDiv }

// IsCast reports whether op converts a value to Instr.Type.
func (op Opcode) IsCast() bool { return op >= OpTrunc && op <= OpBitcast }

// Predicate is the comparison condition of ICmp and FCmp.
type Predicate uint8

const (
	PredNone Predicate = iota

	IntEQ
	IntNE
	IntUGT
	IntUGE
	IntULT
	IntULE
	IntSGT
	IntSGE
	IntSLT
	IntSLE

	FloatFalse
	FloatOEQ
	FloatOGT
	FloatOGE
	FloatOLT
	FloatOLE
	FloatONE
	FloatORD
	FloatUNO
	FloatUEQ
	FloatUGT
	FloatUGE
	FloatULT
	FloatULE
	FloatUNE
	FloatTrue

	predCount
)

var predNames = [...]string{
	PredNone:   "none",
	IntEQ:      "eq",
	IntNE:      "ne",
	IntUGT:     "ugt",
	IntUGE:     "uge",
	IntULT:     "ult",
	IntULE:     "ule",
	IntSGT:     "sgt",
	IntSGE:     "sge",
	IntSLT:     "slt",
	IntSLE:     "sle",
	FloatFalse: "false",
	FloatOEQ:   "oeq",
	FloatOGT:   "ogt",
	FloatOGE:   "oge",
	FloatOLT:   "olt",
	FloatOLE:   "ole",
	FloatONE:   "one",
	FloatORD:   "ord",
	FloatUNO:   "uno",
	FloatUEQ:   "ueq",
	FloatUGT:   "ugt",
	FloatUGE:   "uge",
	FloatULT:   "ult",
	FloatULE:   "ule",
	FloatUNE:   "une",
	FloatTrue:  "true",
}

func (p Predicate) String() string {
	if p < predCount {
		return predNames[p]
	}
	return fmt.Sprintf("Predicate(%d)", p)
}

// IsInt reports whether p is an ICmp predicate.
func (p Predicate) IsInt() bool { return p >= IntEQ && p <= IntSLE }

// IsFloat reports whether p is an FCmp predicate.
func (p Predicate) IsFloat() bool { return p >= FloatFalse && p <= FloatTrue }
