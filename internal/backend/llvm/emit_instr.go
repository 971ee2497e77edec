package llvm

import (
	"fmt"
	"strings"

	"irkit/internal/ir"
	"irkit/internal/materialize"
)

func (e *Emitter) emitInst(in *materialize.Inst) {
	sb := &e.buf
	if in.Result != "" {
		sb.WriteString(ident('%', in.Result))
		sb.WriteString(" = ")
	}
	ops := in.Operands
	switch {
	case in.Op.IsIntBinary(), in.Op.IsFloatBinary():
		fmt.Fprintf(sb, "%s %s, %s", in.Op, e.typed(ops[0]), e.value(ops[1]))
	case in.Op == ir.OpICmp, in.Op == ir.OpFCmp:
		fmt.Fprintf(sb, "%s %s %s, %s", in.Op, in.Pred, e.typed(ops[0]), e.value(ops[1]))
	case in.Op.IsCast():
		fmt.Fprintf(sb, "%s %s to %s", in.Op, e.typed(ops[0]), e.typeText(in.Extra))
	case in.Op == ir.OpAlloca:
		fmt.Fprintf(sb, "alloca %s", e.typeText(in.Extra))
		if len(ops) == 1 {
			fmt.Fprintf(sb, ", %s", e.typed(ops[0]))
		}
		e.writeAlign(in.Extra)
	case in.Op == ir.OpLoad:
		fmt.Fprintf(sb, "load %s, %s", e.typeText(in.Extra), e.typed(ops[0]))
		e.writeAlign(in.Extra)
	case in.Op == ir.OpStore:
		fmt.Fprintf(sb, "store %s, %s", e.typed(ops[0]), e.typed(ops[1]))
		e.writeAlign(in.Extra)
	case in.Op == ir.OpGEP:
		fmt.Fprintf(sb, "getelementptr %s, %s", e.typeText(in.Extra), e.typedList(ops))
	case in.Op == ir.OpCall:
		e.writeCall(in)
	case in.Op == ir.OpSelect:
		fmt.Fprintf(sb, "select %s", e.typedList(ops))
	case in.Op == ir.OpPhi:
		parts := make([]string, len(ops))
		for i := range ops {
			parts[i] = fmt.Sprintf("[ %s, %s ]", e.value(ops[i]), ident('%', in.Targets[i].Name))
		}
		fmt.Fprintf(sb, "phi %s %s", e.typeText(in.Extra), strings.Join(parts, ", "))
	case in.Op == ir.OpBr:
		fmt.Fprintf(sb, "br %s", target(in.Targets[0]))
	case in.Op == ir.OpCondBr:
		fmt.Fprintf(sb, "br %s, %s, %s", e.typed(ops[0]), target(in.Targets[0]), target(in.Targets[1]))
	case in.Op == ir.OpSwitch:
		fmt.Fprintf(sb, "switch %s, %s [", e.typed(ops[0]), target(in.Targets[0]))
		for i := 1; i < len(ops); i++ {
			fmt.Fprintf(sb, "\n    %s, %s", e.typed(ops[i]), target(in.Targets[i]))
		}
		sb.WriteString("\n  ]")
	case in.Op == ir.OpRet:
		if len(ops) == 0 {
			sb.WriteString("ret void")
		} else {
			fmt.Fprintf(sb, "ret %s", e.typed(ops[0]))
		}
	case in.Op == ir.OpUnreachable:
		sb.WriteString("unreachable")
	default:
		fmt.Fprintf(sb, "%s %s", in.Op, e.typedList(ops))
	}
}

// writeCall spells the callee's full signature for variadic callees, as
// LLVM requires.
func (e *Emitter) writeCall(in *materialize.Inst) {
	sb := &e.buf
	callee := in.Operands[0]
	sb.WriteString("call ")
	if callee.Kind == materialize.OperandFunc {
		if f, ok := e.funcEntry(callee.Func); ok {
			sb.WriteString(callConvPrefix(f.decl.CallConv))
		}
	}
	sig, ok := e.typeEntry(in.Extra)
	switch {
	case ok && sig.shape.Variadic:
		sb.WriteString(sig.text)
	case ok:
		sb.WriteString(e.typeText(sig.shape.Elem))
	default:
		sb.WriteString("void")
	}
	fmt.Fprintf(sb, " %s(%s)", e.value(callee), e.typedList(in.Operands[1:]))
}

func (e *Emitter) writeAlign(h materialize.TypeHandle) {
	if a, ok := e.alignOf(h); ok {
		fmt.Fprintf(&e.buf, ", align %d", a)
	}
}

func target(l materialize.Label) string {
	return "label " + ident('%', l.Name)
}

func (e *Emitter) typed(op materialize.Operand) string {
	return e.typeText(op.Type) + " " + e.value(op)
}

func (e *Emitter) typedList(ops []materialize.Operand) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = e.typed(op)
	}
	return strings.Join(parts, ", ")
}

func (e *Emitter) value(op materialize.Operand) string {
	switch op.Kind {
	case materialize.OperandConst:
		return e.constant(op)
	case materialize.OperandGlobal, materialize.OperandFunc:
		return ident('@', op.Name)
	default:
		return ident('%', op.Name)
	}
}

// checkOperand rejects operands naming handles this emitter never returned.
func (e *Emitter) checkOperand(op materialize.Operand) error {
	if _, ok := e.typeEntry(op.Type); !ok {
		return handleErr("type", uint64(op.Type))
	}
	switch op.Kind {
	case materialize.OperandGlobal:
		if op.Global == 0 || int(op.Global) > len(e.globals) {
			return handleErr("global", uint64(op.Global))
		}
	case materialize.OperandFunc:
		if _, ok := e.funcEntry(op.Func); !ok {
			return handleErr("function", uint64(op.Func))
		}
	case materialize.OperandConst:
		if op.Const == nil {
			return fmt.Errorf("constant operand without payload")
		}
		for _, el := range op.Const.Elems {
			if err := e.checkOperand(el); err != nil {
				return err
			}
		}
	}
	return nil
}
