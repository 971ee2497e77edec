package ir

import (
	"strconv"

	"irkit/internal/types"
)

// BlockRef names a branch target either by id or, for blocks not created
// yet, by name. Named references are resolved by Validate.
type BlockRef struct {
	ID   BlockID
	Name string
}

// Target refers to an existing block.
func Target(id BlockID) BlockRef { return BlockRef{ID: id} }

// Label refers to a block by name within the same function.
func Label(name string) BlockRef { return BlockRef{Name: name} }

// IsZero reports whether r names nothing.
func (r BlockRef) IsZero() bool { return r.ID == NoBlockID && r.Name == "" }

func (r BlockRef) String() string {
	if r.Name != "" {
		return "%" + r.Name
	}
	return "block#" + strconv.FormatUint(uint64(r.ID), 16)
}

// Instr is one instruction. Callers fill Op, Operands, Targets, Type, Pred
// and Name when appending; Result, Block and Index are assigned by the
// module.
//
// Operand and target layout by opcode:
//
//	binary, icmp, fcmp  Operands = [lhs, rhs]
//	casts               Operands = [v], Type = destination
//	alloca              Operands = [] or [count], Type = allocated type
//	load                Operands = [ptr]
//	store               Operands = [value, ptr]
//	getelementptr       Operands = [base, index...]
//	call                Operands = [callee, arg...]
//	select              Operands = [cond, then, else]
//	phi                 Operands = incoming values, Targets = incoming blocks, Type = result
//	br                  Targets = [dest]
//	condbr              Operands = [cond], Targets = [then, else]
//	switch              Operands = [v, case...], Targets = [default, dest...]
//	ret                 Operands = [] or [v]
type Instr struct {
	Op       Opcode
	Operands []ValueID
	Targets  []BlockRef
	Type     types.TypeID
	Pred     Predicate
	Name     string

	Result ValueID
	Block  BlockID
	Index  int
}

func (in *Instr) clone() Instr {
	out := *in
	out.Operands = append([]ValueID(nil), in.Operands...)
	out.Targets = append([]BlockRef(nil), in.Targets...)
	return out
}

// Incoming pairs a phi value with the block it arrives from.
type Incoming struct {
	Value ValueID
	From  BlockRef
}

// Case pairs a switch case constant with its destination.
type Case struct {
	Value ValueID
	Dest  BlockRef
}
