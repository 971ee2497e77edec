package ir

import "irkit/internal/types"

// Builder is a cursor over a Module that appends instructions at the end of
// the current block. It adds nothing to Append beyond convenience; every
// helper reports the same errors.
type Builder struct {
	m     *Module
	block BlockID
	name  string
}

// NewBuilder returns a builder for m with no insertion point.
func NewBuilder(m *Module) *Builder {
	return &Builder{m: m}
}

// Module returns the module being built.
func (b *Builder) Module() *Module { return b.m }

// SetInsertPoint moves the cursor to the end of block.
func (b *Builder) SetInsertPoint(block BlockID) { b.block = block }

// Block returns the current insertion block.
func (b *Builder) Block() BlockID { return b.block }

// Named sets the name of the next result produced through b.
func (b *Builder) Named(name string) *Builder {
	b.name = name
	return b
}

func (b *Builder) emit(in Instr) (ValueID, error) {
	if b.block == NoBlockID {
		return NoValueID, buildErr(ErrKindUnknownBlock, "Append "+in.Op.String(), "", "builder has no insertion point")
	}
	in.Name = b.name
	b.name = ""
	return b.m.Append(b.block, in)
}

func (b *Builder) emitVoid(in Instr) error {
	_, err := b.emit(in)
	return err
}

// Binary appends an integer or floating point binary operation.
func (b *Builder) Binary(op Opcode, x, y ValueID) (ValueID, error) {
	return b.emit(Instr{Op: op, Operands: []ValueID{x, y}})
}

func (b *Builder) Add(x, y ValueID) (ValueID, error) { return b.Binary(OpAdd, x, y) }
func (b *Builder) Sub(x, y ValueID) (ValueID, error) { return b.Binary(OpSub, x, y) }
func (b *Builder) Mul(x, y ValueID) (ValueID, error) { return b.Binary(OpMul, x, y) }
func (b *Builder) SDiv(x, y ValueID) (ValueID, error) { return b.Binary(OpSDiv, x, y) }
func (b *Builder) UDiv(x, y ValueID) (ValueID, error) { return b.Binary(OpUDiv, x, y) }
func (b *Builder) SRem(x, y ValueID) (ValueID, error) { return b.Binary(OpSRem, x, y) }
func (b *Builder) URem(x, y ValueID) (ValueID, error) { return b.Binary(OpURem, x, y) }
func (b *Builder) And(x, y ValueID) (ValueID, error) { return b.Binary(OpAnd, x, y) }
func (b *Builder) Or(x, y ValueID) (ValueID, error) { return b.Binary(OpOr, x, y) }
func (b *Builder) Xor(x, y ValueID) (ValueID, error) { return b.Binary(OpXor, x, y) }
func (b *Builder) Shl(x, y ValueID) (ValueID, error) { return b.Binary(OpShl, x, y) }
func (b *Builder) LShr(x, y ValueID) (ValueID, error) { return b.Binary(OpLShr, x, y) }
func (b *Builder) AShr(x, y ValueID) (ValueID, error) { return b.Binary(OpAShr, x, y) }
func (b *Builder) FAdd(x, y ValueID) (ValueID, error) { return b.Binary(OpFAdd, x, y) }
func (b *Builder) FSub(x, y ValueID) (ValueID, error) { return b.Binary(OpFSub, x, y) }
func (b *Builder) FMul(x, y ValueID) (ValueID, error) { return b.Binary(OpFMul, x, y) }
func (b *Builder) FDiv(x, y ValueID) (ValueID, error) { return b.Binary(OpFDiv, x, y) }

// ICmp compares integers or pointers; the result is i1.
func (b *Builder) ICmp(pred Predicate, x, y ValueID) (ValueID, error) {
	return b.emit(Instr{Op: OpICmp, Pred: pred, Operands: []ValueID{x, y}})
}

// FCmp compares floating point values; the result is i1.
func (b *Builder) FCmp(pred Predicate, x, y ValueID) (ValueID, error) {
	return b.emit(Instr{Op: OpFCmp, Pred: pred, Operands: []ValueID{x, y}})
}

// Cast converts v to type to with one of the cast opcodes.
func (b *Builder) Cast(op Opcode, v ValueID, to types.TypeID) (ValueID, error) {
	if !op.IsCast() {
		return NoValueID, mismatch("Append "+op.String(), "", "cast opcode", op.String())
	}
	return b.emit(Instr{Op: op, Operands: []ValueID{v}, Type: to})
}

// Alloca reserves stack space for one value of type ty.
func (b *Builder) Alloca(ty types.TypeID) (ValueID, error) {
	return b.emit(Instr{Op: OpAlloca, Type: ty})
}

// Load reads the value ptr points to.
func (b *Builder) Load(ptr ValueID) (ValueID, error) {
	return b.emit(Instr{Op: OpLoad, Operands: []ValueID{ptr}})
}

// Store writes v through ptr.
func (b *Builder) Store(v, ptr ValueID) error {
	return b.emitVoid(Instr{Op: OpStore, Operands: []ValueID{v, ptr}})
}

// GEP computes the address of an element of base.
func (b *Builder) GEP(base ValueID, indices ...ValueID) (ValueID, error) {
	return b.emit(Instr{Op: OpGEP, Operands: append([]ValueID{base}, indices...)})
}

// Call calls callee, a pointer to a function. The result is NoValueID for
// void functions.
func (b *Builder) Call(callee ValueID, args ...ValueID) (ValueID, error) {
	return b.emit(Instr{Op: OpCall, Operands: append([]ValueID{callee}, args...)})
}

// Select picks a or c depending on the i1 cond.
func (b *Builder) Select(cond, a, c ValueID) (ValueID, error) {
	return b.emit(Instr{Op: OpSelect, Operands: []ValueID{cond, a, c}})
}

// Phi appends a phi of type ty. More edges can be added with AddIncoming.
func (b *Builder) Phi(ty types.TypeID, incoming ...Incoming) (ValueID, error) {
	in := Instr{Op: OpPhi, Type: ty}
	for _, inc := range incoming {
		in.Operands = append(in.Operands, inc.Value)
		in.Targets = append(in.Targets, inc.From)
	}
	return b.emit(in)
}

// AddIncoming adds an edge to phi.
func (b *Builder) AddIncoming(phi, v ValueID, from BlockRef) error {
	return b.m.AddIncoming(phi, Incoming{Value: v, From: from})
}

// Br branches to dest.
func (b *Builder) Br(dest BlockRef) error {
	return b.emitVoid(Instr{Op: OpBr, Targets: []BlockRef{dest}})
}

// CondBr branches on an i1.
func (b *Builder) CondBr(cond ValueID, then, els BlockRef) error {
	return b.emitVoid(Instr{Op: OpCondBr, Operands: []ValueID{cond}, Targets: []BlockRef{then, els}})
}

// Switch branches on v to the matching case, or def.
func (b *Builder) Switch(v ValueID, def BlockRef, cases ...Case) error {
	in := Instr{Op: OpSwitch, Operands: []ValueID{v}, Targets: []BlockRef{def}}
	for _, c := range cases {
		in.Operands = append(in.Operands, c.Value)
		in.Targets = append(in.Targets, c.Dest)
	}
	return b.emitVoid(in)
}

// Ret returns v.
func (b *Builder) Ret(v ValueID) error {
	return b.emitVoid(Instr{Op: OpRet, Operands: []ValueID{v}})
}

// RetVoid returns from a void function.
func (b *Builder) RetVoid() error {
	return b.emitVoid(Instr{Op: OpRet})
}

// Unreachable marks the end of the block as unreachable.
func (b *Builder) Unreachable() error {
	return b.emitVoid(Instr{Op: OpUnreachable})
}
