package ir

import (
	"fmt"
	"strconv"

	"irkit/internal/types"
)

// Append adds an instruction at the end of block and returns its result
// value, or NoValueID when the instruction produces none. Operands must be
// values of this module; parameters and instruction results must belong to
// the block's function. Targets may name blocks that do not exist yet.
func (m *Module) Append(block BlockID, in Instr) (ValueID, error) {
	op := "Append " + in.Op.String()
	if err := m.mutable(op); err != nil {
		return NoValueID, err
	}
	b, ok := m.blocks.Get(uint64(block))
	if !ok {
		return NoValueID, buildErr(ErrKindUnknownBlock, op, fmt.Sprintf("block %#x", uint64(block)), "")
	}
	if b.terminated {
		return NoValueID, buildErr(ErrKindBlockAlreadyTerminated, op, m.funcLabel(b.Func)+" %"+b.Name, "")
	}
	if in.Op == OpInvalid || in.Op >= opCount {
		return NoValueID, mismatch(op, "", "opcode", in.Op.String())
	}
	if in.Op == OpPhi {
		for _, prev := range b.Instrs {
			if p, _ := m.instrs.Get(uint64(prev)); p.Op != OpPhi {
				return NoValueID, mismatch(op, "%"+b.Name, "phi at block head", "phi after "+p.Op.String())
			}
		}
	}
	f, _ := m.funcs.Get(uint64(b.Func))
	if err := m.checkOperands(op, f, in.Operands); err != nil {
		return NoValueID, err
	}
	targets, err := m.checkTargets(op, in.Targets)
	if err != nil {
		return NoValueID, err
	}
	name, err := canonicalLocal(op, in.Name)
	if err != nil {
		return NoValueID, err
	}
	result, err := m.resultType(op, f, &in)
	if err != nil {
		return NoValueID, err
	}

	stored := in.clone()
	stored.Targets = targets
	stored.Name = name
	stored.Block = block
	stored.Index = len(b.Instrs)
	stored.Result = NoValueID
	raw, err := m.instrs.Push(stored)
	if err != nil {
		return NoValueID, fmt.Errorf("instruction table overflow: %w", err)
	}
	id := InstrID(raw)
	res := NoValueID
	if result != types.NoTypeID && !m.types.IsVoid(result) {
		res, err = m.pushValue(Value{Kind: ValueInstr, Type: result, Name: name, Owner: b.Func, Instr: id})
		if err != nil {
			return NoValueID, err
		}
		p, _ := m.instrs.Get(raw)
		p.Result = res
	}
	b.Instrs = append(b.Instrs, id)
	if in.Op.IsTerminator() {
		b.terminated = true
	}
	return res, nil
}

// AddIncoming appends an edge to an existing phi.
func (m *Module) AddIncoming(phi ValueID, inc Incoming) error {
	const op = "AddIncoming"
	if err := m.mutable(op); err != nil {
		return err
	}
	pv, ok := m.values.Get(uint64(phi))
	if !ok {
		return buildErr(ErrKindUnknownValue, op, m.valueLabel(phi), "")
	}
	var in *Instr
	if pv.Kind == ValueInstr {
		in, _ = m.instrs.Get(uint64(pv.Instr))
	}
	if in == nil || in.Op != OpPhi {
		return mismatch(op, m.valueLabel(phi), "phi", pv.Kind.String())
	}
	f, _ := m.funcs.Get(uint64(pv.Owner))
	if err := m.checkOperands(op, f, []ValueID{inc.Value}); err != nil {
		return err
	}
	if t, _ := m.ValueType(inc.Value); t != pv.Type {
		return mismatch(op, m.valueLabel(inc.Value), m.typeLabel(pv.Type), m.typeLabel(t))
	}
	targets, err := m.checkTargets(op, []BlockRef{inc.From})
	if err != nil {
		return err
	}
	in.Operands = append(in.Operands, inc.Value)
	in.Targets = append(in.Targets, targets[0])
	return nil
}

func (m *Module) checkOperands(op string, f *Func, operands []ValueID) error {
	for i, id := range operands {
		v, ok := m.values.Get(uint64(id))
		if !ok {
			return buildErr(ErrKindUnknownValue, op, m.valueLabel(id), "operand "+strconv.Itoa(i))
		}
		if (v.Kind == ValueParam || v.Kind == ValueInstr) && v.Owner != f.ID {
			return mismatch(op, "operand "+strconv.Itoa(i),
				"value of "+m.funcLabel(f.ID), "value of "+m.funcLabel(v.Owner))
		}
	}
	return nil
}

// checkTargets rejects empty and unknown references and canonicalises names.
// Whether a target belongs to the right function is left to Validate.
func (m *Module) checkTargets(op string, refs []BlockRef) ([]BlockRef, error) {
	out := make([]BlockRef, len(refs))
	for i, r := range refs {
		switch {
		case r.ID != NoBlockID:
			if !m.blocks.Owns(uint64(r.ID)) {
				return nil, buildErr(ErrKindUnknownBlock, op, r.String(), "target "+strconv.Itoa(i))
			}
			out[i] = BlockRef{ID: r.ID}
		case r.Name != "":
			canon, err := canonicalName(op, r.Name)
			if err != nil {
				return nil, err
			}
			out[i] = BlockRef{Name: canon}
		default:
			return nil, mismatch(op, "target "+strconv.Itoa(i), "block reference", "empty reference")
		}
	}
	return out, nil
}

// resultType applies the per-opcode typing rules and returns the result
// type, NoTypeID for instructions without a result.
func (m *Module) resultType(op string, f *Func, in *Instr) (types.TypeID, error) {
	tv := m.types
	ops := make([]types.TypeID, len(in.Operands))
	for i, id := range in.Operands {
		v, _ := m.values.Get(uint64(id))
		ops[i] = v.Type
	}
	arity := func(nOps, nTargets int) error {
		if len(ops) != nOps {
			return mismatch(op, "operands", strconv.Itoa(nOps), strconv.Itoa(len(ops)))
		}
		if len(in.Targets) != nTargets {
			return mismatch(op, "targets", strconv.Itoa(nTargets), strconv.Itoa(len(in.Targets)))
		}
		return nil
	}
	same := func(i int, want types.TypeID) error {
		if ops[i] != want {
			return mismatch(op, "operand "+strconv.Itoa(i), m.typeLabel(want), m.typeLabel(ops[i]))
		}
		return nil
	}
	kind := func(i int, want string, ok bool) error {
		if !ok {
			return mismatch(op, "operand "+strconv.Itoa(i), want, m.typeLabel(ops[i]))
		}
		return nil
	}
	i1 := tv.Builtins().I1

	switch {
	case in.Op.IsIntBinary():
		if err := arity(2, 0); err != nil {
			return types.NoTypeID, err
		}
		if err := kind(0, "integer", tv.IsInt(ops[0])); err != nil {
			return types.NoTypeID, err
		}
		return ops[0], same(1, ops[0])

	case in.Op.IsFloatBinary():
		if err := arity(2, 0); err != nil {
			return types.NoTypeID, err
		}
		if err := kind(0, "float", tv.KindOf(ops[0]) == types.KindFloat); err != nil {
			return types.NoTypeID, err
		}
		return ops[0], same(1, ops[0])

	case in.Op == OpICmp:
		if err := arity(2, 0); err != nil {
			return types.NoTypeID, err
		}
		if !in.Pred.IsInt() {
			return types.NoTypeID, mismatch(op, "predicate", "integer predicate", in.Pred.String())
		}
		k := tv.KindOf(ops[0])
		if err := kind(0, "integer or pointer", k == types.KindInt || k == types.KindPointer); err != nil {
			return types.NoTypeID, err
		}
		return i1, same(1, ops[0])

	case in.Op == OpFCmp:
		if err := arity(2, 0); err != nil {
			return types.NoTypeID, err
		}
		if !in.Pred.IsFloat() {
			return types.NoTypeID, mismatch(op, "predicate", "float predicate", in.Pred.String())
		}
		if err := kind(0, "float", tv.KindOf(ops[0]) == types.KindFloat); err != nil {
			return types.NoTypeID, err
		}
		return i1, same(1, ops[0])

	case in.Op.IsCast():
		if err := arity(1, 0); err != nil {
			return types.NoTypeID, err
		}
		if err := m.checkCast(op, in.Op, ops[0], in.Type); err != nil {
			return types.NoTypeID, err
		}
		return in.Type, nil

	case in.Op == OpAlloca:
		if len(ops) > 1 || len(in.Targets) != 0 {
			return types.NoTypeID, mismatch(op, "operands", "optional element count", strconv.Itoa(len(ops)))
		}
		if !m.isSized(in.Type) {
			return types.NoTypeID, mismatch(op, "allocated type", "sized first-class type", m.typeLabel(in.Type))
		}
		if len(ops) == 1 {
			if err := kind(0, "integer", tv.IsInt(ops[0])); err != nil {
				return types.NoTypeID, err
			}
		}
		return m.pointerTo(op, in.Type, 0)

	case in.Op == OpLoad:
		if err := arity(1, 0); err != nil {
			return types.NoTypeID, err
		}
		elem, ok := tv.Pointee(ops[0])
		if err := kind(0, "pointer", ok); err != nil {
			return types.NoTypeID, err
		}
		if !m.isSized(elem) {
			return types.NoTypeID, mismatch(op, "pointee", "sized first-class type", m.typeLabel(elem))
		}
		return elem, nil

	case in.Op == OpStore:
		if err := arity(2, 0); err != nil {
			return types.NoTypeID, err
		}
		elem, ok := tv.Pointee(ops[1])
		if err := kind(1, "pointer", ok); err != nil {
			return types.NoTypeID, err
		}
		return types.NoTypeID, same(0, elem)

	case in.Op == OpGEP:
		if len(ops) < 2 || len(in.Targets) != 0 {
			return types.NoTypeID, mismatch(op, "operands", "base and at least one index", strconv.Itoa(len(ops)))
		}
		return m.gepType(op, in.Operands, ops)

	case in.Op == OpCall:
		if len(ops) < 1 || len(in.Targets) != 0 {
			return types.NoTypeID, mismatch(op, "operands", "callee", "none")
		}
		return m.callType(op, ops)

	case in.Op == OpSelect:
		if err := arity(3, 0); err != nil {
			return types.NoTypeID, err
		}
		if err := same(0, i1); err != nil {
			return types.NoTypeID, err
		}
		if err := kind(1, "first-class type", tv.IsFirstClass(ops[1])); err != nil {
			return types.NoTypeID, err
		}
		return ops[1], same(2, ops[1])

	case in.Op == OpPhi:
		if len(ops) != len(in.Targets) {
			return types.NoTypeID, mismatch(op, "incoming", strconv.Itoa(len(ops))+" blocks", strconv.Itoa(len(in.Targets)))
		}
		if !tv.IsFirstClass(in.Type) {
			return types.NoTypeID, mismatch(op, "type", "first-class type", m.typeLabel(in.Type))
		}
		for i := range ops {
			if err := same(i, in.Type); err != nil {
				return types.NoTypeID, err
			}
		}
		return in.Type, nil

	case in.Op == OpBr:
		return types.NoTypeID, arity(0, 1)

	case in.Op == OpCondBr:
		if err := arity(1, 2); err != nil {
			return types.NoTypeID, err
		}
		return types.NoTypeID, same(0, i1)

	case in.Op == OpSwitch:
		return types.NoTypeID, m.checkSwitch(op, in, ops)

	case in.Op == OpRet:
		info, _ := tv.FuncInfo(f.Sig)
		if tv.IsVoid(info.Result) {
			return types.NoTypeID, arity(0, 0)
		}
		if err := arity(1, 0); err != nil {
			return types.NoTypeID, mismatch(op, "@"+f.Name, "ret "+m.typeLabel(info.Result), "ret with "+strconv.Itoa(len(ops))+" operands")
		}
		return types.NoTypeID, same(0, info.Result)

	case in.Op == OpUnreachable:
		return types.NoTypeID, arity(0, 0)
	}
	return types.NoTypeID, mismatch(op, "", "known opcode", in.Op.String())
}

func (m *Module) isSized(id types.TypeID) bool {
	t, ok := m.types.Lookup(id)
	return ok && m.types.IsFirstClass(id) && !t.Opaque
}

func (m *Module) checkCast(op string, code Opcode, from, to types.TypeID) error {
	src, ok1 := m.types.Lookup(from)
	dst, ok2 := m.types.Lookup(to)
	if !ok1 || !ok2 {
		return mismatch(op, "destination", "known type", m.typeLabel(to))
	}
	bad := func(want string) error {
		return mismatch(op, m.typeLabel(from)+" to "+m.typeLabel(to), want, "incompatible cast")
	}
	switch code {
	case OpTrunc:
		if src.Kind != types.KindInt || dst.Kind != types.KindInt || dst.Width >= src.Width {
			return bad("narrower integer")
		}
	case OpZExt, OpSExt:
		if src.Kind != types.KindInt || dst.Kind != types.KindInt || dst.Width <= src.Width {
			return bad("wider integer")
		}
	case OpPtrToInt:
		if src.Kind != types.KindPointer || dst.Kind != types.KindInt {
			return bad("pointer to integer")
		}
	case OpIntToPtr:
		if src.Kind != types.KindInt || dst.Kind != types.KindPointer {
			return bad("integer to pointer")
		}
	case OpBitcast:
		switch {
		case src.Kind == types.KindPointer && dst.Kind == types.KindPointer:
			if src.AddrSpace != dst.AddrSpace {
				return bad("pointer in the same address space")
			}
		case scalarBits(src) != 0 && scalarBits(src) == scalarBits(dst):
		default:
			return bad("same-sized scalar or pointer")
		}
	}
	return nil
}

func scalarBits(t types.Type) uint32 {
	if t.Kind == types.KindInt || t.Kind == types.KindFloat {
		return t.Width
	}
	return 0
}

// gepType walks the indices of a getelementptr. The first index steps over
// the base pointer; later indices select array elements or struct fields,
// where struct field indices must be integer constants.
func (m *Module) gepType(op string, operands []ValueID, ops []types.TypeID) (types.TypeID, error) {
	base, ok := m.types.Lookup(ops[0])
	if !ok || base.Kind != types.KindPointer {
		return types.NoTypeID, mismatch(op, "operand 0", "pointer", m.typeLabel(ops[0]))
	}
	cur := base.Elem
	for i := 1; i < len(ops); i++ {
		if !m.types.IsInt(ops[i]) {
			return types.NoTypeID, mismatch(op, "index "+strconv.Itoa(i-1), "integer", m.typeLabel(ops[i]))
		}
		if i == 1 {
			continue
		}
		t, _ := m.types.Lookup(cur)
		switch {
		case t.Kind == types.KindArray:
			cur = t.Elem
		case t.Kind == types.KindStruct && !t.Opaque:
			v, _ := m.values.Get(uint64(operands[i]))
			if v.Kind != ValueConst || v.Const.Kind != ConstInt {
				return types.NoTypeID, mismatch(op, "index "+strconv.Itoa(i-1), "constant struct field index", v.Kind.String())
			}
			if !v.Const.Bits.IsInt64() || v.Const.Bits.Int64() >= int64(len(t.Fields)) {
				return types.NoTypeID, mismatch(op, "index "+strconv.Itoa(i-1),
					fmt.Sprintf("field index below %d", len(t.Fields)), v.Const.Bits.String())
			}
			cur = t.Fields[v.Const.Bits.Int64()]
		default:
			return types.NoTypeID, mismatch(op, "index "+strconv.Itoa(i-1), "array or struct to index into", m.typeLabel(cur))
		}
	}
	return m.pointerTo(op, cur, base.AddrSpace)
}

func (m *Module) callType(op string, ops []types.TypeID) (types.TypeID, error) {
	sig, ok := m.types.Pointee(ops[0])
	if !ok {
		return types.NoTypeID, mismatch(op, "callee", "pointer to function", m.typeLabel(ops[0]))
	}
	info, ok := m.types.FuncInfo(sig)
	if !ok {
		return types.NoTypeID, mismatch(op, "callee", "pointer to function", m.typeLabel(ops[0]))
	}
	args := ops[1:]
	if len(args) < len(info.Params) || (!info.Variadic && len(args) != len(info.Params)) {
		return types.NoTypeID, mismatch(op, "arguments", strconv.Itoa(len(info.Params)), strconv.Itoa(len(args)))
	}
	for i, a := range args {
		if i < len(info.Params) {
			if a != info.Params[i] {
				return types.NoTypeID, mismatch(op, "argument "+strconv.Itoa(i), m.typeLabel(info.Params[i]), m.typeLabel(a))
			}
			continue
		}
		if !m.types.IsFirstClass(a) {
			return types.NoTypeID, mismatch(op, "argument "+strconv.Itoa(i), "first-class type", m.typeLabel(a))
		}
	}
	return info.Result, nil
}

func (m *Module) checkSwitch(op string, in *Instr, ops []types.TypeID) error {
	if len(ops) < 1 {
		return mismatch(op, "operands", "condition", "none")
	}
	if len(in.Targets) != len(ops) {
		return mismatch(op, "targets", strconv.Itoa(len(ops))+" (default plus one per case)", strconv.Itoa(len(in.Targets)))
	}
	if !m.types.IsInt(ops[0]) {
		return mismatch(op, "operand 0", "integer", m.typeLabel(ops[0]))
	}
	seen := make(map[string]bool, len(ops)-1)
	for i := 1; i < len(ops); i++ {
		v, _ := m.values.Get(uint64(in.Operands[i]))
		if v.Kind != ValueConst || v.Const.Kind != ConstInt || v.Type != ops[0] {
			return mismatch(op, "case "+strconv.Itoa(i-1), m.typeLabel(ops[0])+" constant", m.valueLabel(in.Operands[i]))
		}
		key := v.Const.Bits.Text(16)
		if seen[key] {
			return mismatch(op, "case "+strconv.Itoa(i-1), "distinct case value", "duplicate "+m.valueLabel(in.Operands[i]))
		}
		seen[key] = true
	}
	return nil
}
