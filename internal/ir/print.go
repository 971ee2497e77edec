package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Fprint writes a human-readable dump of m in LLVM-like syntax. The dump is
// for people: it is not meant to be parsed back.
func Fprint(w io.Writer, m *Module) error {
	if w == nil || m == nil {
		return nil
	}
	p := &printer{m: m}
	p.module()
	_, err := io.WriteString(w, p.sb.String())
	return err
}

// String renders m with Fprint.
func String(m *Module) string {
	var sb strings.Builder
	_ = Fprint(&sb, m)
	return sb.String()
}

type printer struct {
	m     *Module
	sb    strings.Builder
	names map[ValueID]string
	next  int
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(&p.sb, format, args...)
}

func (p *printer) module() {
	m := p.m
	p.printf("; module %s\n", strconv.Quote(m.name))
	if m.triple != "" {
		p.printf("target triple = %s\n", strconv.Quote(m.triple))
	}
	if m.dataLayout != "" {
		p.printf("target datalayout = %s\n", strconv.Quote(m.dataLayout))
	}
	for _, id := range m.ReferencedTypes() {
		t := m.types.MustLookup(id)
		if t.Named() {
			p.printf("%%%s = type %s\n", t.Name, m.types.FormatBody(id))
		}
	}
	for _, id := range m.Globals() {
		g, _ := m.globals.Get(uint64(id))
		kw := "global"
		if g.Constant {
			kw = "constant"
		}
		p.printf("@%s = %s%s %s", g.Name, linkagePrefix(g.Linkage), kw, m.types.Format(g.Type))
		if g.Init != NoValueID {
			p.printf(" %s", p.value(g.Init))
		}
		if g.Align != 0 {
			p.printf(", align %d", g.Align)
		}
		p.sb.WriteByte('\n')
	}
	for _, id := range m.Funcs() {
		p.function(id)
	}
}

func linkagePrefix(l Linkage) string {
	if l == LinkageExternal {
		return ""
	}
	return l.String() + " "
}

func (p *printer) function(id FuncID) {
	m := p.m
	f, _ := m.funcs.Get(uint64(id))
	info, _ := m.types.FuncInfo(f.Sig)
	p.names = make(map[ValueID]string)
	p.next = 0

	params := make([]string, 0, len(info.Params)+1)
	for i, pt := range info.Params {
		s := m.types.Format(pt)
		if v := f.Params[i]; v != NoValueID {
			s += " " + p.local(v)
		}
		params = append(params, s)
	}
	if info.Variadic {
		params = append(params, "...")
	}
	cc := ""
	if f.CallConv != CallC {
		cc = f.CallConv.String() + " "
	}
	head := fmt.Sprintf("%s%s%s @%s(%s)", linkagePrefix(f.Linkage), cc, m.types.Format(info.Result), f.Name, strings.Join(params, ", "))
	if len(f.Blocks) == 0 {
		p.printf("\ndeclare %s\n", head)
		return
	}
	p.printf("\ndefine %s {\n", head)
	for i, bid := range f.Blocks {
		b, _ := m.blocks.Get(uint64(bid))
		if i > 0 {
			p.sb.WriteByte('\n')
		}
		p.printf("%s:\n", b.Name)
		for _, iid := range b.Instrs {
			in, _ := m.instrs.Get(uint64(iid))
			p.sb.WriteString("  ")
			p.instr(f, in)
			p.sb.WriteByte('\n')
		}
	}
	p.sb.WriteString("}\n")
}

// local names a parameter or instruction result, numbering unnamed ones.
func (p *printer) local(id ValueID) string {
	if s, ok := p.names[id]; ok {
		return s
	}
	v, _ := p.m.values.Get(uint64(id))
	s := "%" + v.Name
	if v.Name == "" {
		s = "%" + strconv.Itoa(p.next)
		p.next++
	}
	p.names[id] = s
	return s
}

func (p *printer) value(id ValueID) string {
	v, ok := p.m.values.Get(uint64(id))
	if !ok {
		return "<bad>"
	}
	switch v.Kind {
	case ValueConst:
		return p.m.constString(v.Type, v.Const)
	case ValueGlobalRef:
		return "@" + v.Name
	default:
		return p.local(id)
	}
}

func (p *printer) typed(id ValueID) string {
	t, _ := p.m.ValueType(id)
	return p.m.types.Format(t) + " " + p.value(id)
}

func (p *printer) target(f *Func, ref BlockRef) string {
	if id, ok := p.m.resolveIn(f, ref); ok {
		return "label " + p.m.blockLabel(id)
	}
	return "label " + ref.String()
}

func (p *printer) instr(f *Func, in *Instr) {
	m := p.m
	if in.Result != NoValueID {
		p.printf("%s = ", p.local(in.Result))
	}
	typed := func(ids []ValueID) string {
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = p.typed(id)
		}
		return strings.Join(parts, ", ")
	}
	switch {
	case in.Op.IsIntBinary(), in.Op.IsFloatBinary():
		p.printf("%s %s, %s", in.Op, p.typed(in.Operands[0]), p.value(in.Operands[1]))
	case in.Op == OpICmp, in.Op == OpFCmp:
		p.printf("%s %s %s, %s", in.Op, in.Pred, p.typed(in.Operands[0]), p.value(in.Operands[1]))
	case in.Op.IsCast():
		p.printf("%s %s to %s", in.Op, p.typed(in.Operands[0]), m.types.Format(in.Type))
	case in.Op == OpAlloca:
		p.printf("alloca %s", m.types.Format(in.Type))
		if len(in.Operands) == 1 {
			p.printf(", %s", p.typed(in.Operands[0]))
		}
	case in.Op == OpLoad:
		t, _ := m.ValueType(in.Result)
		p.printf("load %s, %s", m.types.Format(t), p.typed(in.Operands[0]))
	case in.Op == OpGEP:
		base, _ := m.ValueType(in.Operands[0])
		elem, _ := m.types.Pointee(base)
		p.printf("getelementptr %s, %s", m.types.Format(elem), typed(in.Operands))
	case in.Op == OpCall:
		callee, _ := m.ValueType(in.Operands[0])
		sig, _ := m.types.Pointee(callee)
		info, _ := m.types.FuncInfo(sig)
		p.printf("call %s %s(%s)", m.types.Format(info.Result), p.value(in.Operands[0]), typed(in.Operands[1:]))
	case in.Op == OpPhi:
		parts := make([]string, len(in.Operands))
		for i, v := range in.Operands {
			lbl := in.Targets[i].String()
			if id, ok := m.resolveIn(f, in.Targets[i]); ok {
				lbl = m.blockLabel(id)
			}
			parts[i] = fmt.Sprintf("[ %s, %s ]", p.value(v), lbl)
		}
		p.printf("phi %s %s", m.types.Format(in.Type), strings.Join(parts, ", "))
	case in.Op == OpBr:
		p.printf("br %s", p.target(f, in.Targets[0]))
	case in.Op == OpCondBr:
		p.printf("br %s, %s, %s", p.typed(in.Operands[0]), p.target(f, in.Targets[0]), p.target(f, in.Targets[1]))
	case in.Op == OpSwitch:
		p.printf("switch %s, %s [", p.typed(in.Operands[0]), p.target(f, in.Targets[0]))
		for i := 1; i < len(in.Operands); i++ {
			p.printf(" %s, %s", p.typed(in.Operands[i]), p.target(f, in.Targets[i]))
		}
		p.sb.WriteString(" ]")
	case in.Op == OpRet:
		if len(in.Operands) == 0 {
			p.sb.WriteString("ret void")
		} else {
			p.printf("ret %s", p.typed(in.Operands[0]))
		}
	case len(in.Operands) == 0:
		p.sb.WriteString(in.Op.String())
	default:
		p.printf("%s %s", in.Op, typed(in.Operands))
	}
}
