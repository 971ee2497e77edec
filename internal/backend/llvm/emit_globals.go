package llvm

import (
	"fmt"

	"irkit/internal/ir"
	"irkit/internal/materialize"
)

// DeclareGlobal records a global variable.
func (e *Emitter) DeclareGlobal(g materialize.GlobalDecl) (materialize.GlobalHandle, error) {
	if e.finished {
		return 0, ErrFinished
	}
	if _, ok := e.typeEntry(g.Type); !ok {
		return 0, handleErr("type", uint64(g.Type))
	}
	if g.Init != nil {
		if err := e.checkOperand(*g.Init); err != nil {
			return 0, fmt.Errorf("initializer: %w", err)
		}
	}
	e.globals = append(e.globals, globalEntry{decl: g})
	return materialize.GlobalHandle(len(e.globals)), nil
}

// DefineGlobal supplies the initializer of a global declared as Deferred.
func (e *Emitter) DefineGlobal(h materialize.GlobalHandle, init materialize.Operand) error {
	if e.finished {
		return ErrFinished
	}
	if h == 0 || int(h) > len(e.globals) {
		return handleErr("global", uint64(h))
	}
	ent := &e.globals[h-1]
	if !ent.decl.Deferred || ent.decl.Init != nil {
		return fmt.Errorf("global %s was not declared with a deferred initializer", ident('@', ent.decl.Name))
	}
	if err := e.checkOperand(init); err != nil {
		return fmt.Errorf("initializer: %w", err)
	}
	ent.decl.Init = &init
	return nil
}

func (e *Emitter) emitGlobals() error {
	if len(e.globals) == 0 {
		return nil
	}
	e.buf.WriteString("\n")
	for _, ent := range e.globals {
		if ent.decl.Deferred && ent.decl.Init == nil {
			return fmt.Errorf("%s: initializer never defined", ident('@', ent.decl.Name))
		}
		e.emitGlobal(ent.decl)
	}
	return nil
}

// emitGlobal writes one line such as
//
//	@msg = private constant [3 x i8] c"hi\00", align 1
func (e *Emitter) emitGlobal(g materialize.GlobalDecl) {
	kw := "global"
	if g.Constant {
		kw = "constant"
	}
	linkage := linkagePrefix(g.Linkage)
	if g.Init == nil && g.Linkage == ir.LinkageExternal {
		linkage = "external "
	}
	fmt.Fprintf(&e.buf, "%s = %s%s %s", ident('@', g.Name), linkage, kw, e.typeText(g.Type))
	if g.Init != nil {
		e.buf.WriteString(" ")
		e.buf.WriteString(e.value(*g.Init))
	}
	align := int(g.Align)
	if align == 0 {
		align, _ = e.alignOf(g.Type)
	}
	if align > 0 {
		fmt.Fprintf(&e.buf, ", align %d", align)
	}
	e.buf.WriteString("\n")
}

func linkagePrefix(l ir.Linkage) string {
	if l == ir.LinkageExternal {
		return ""
	}
	return l.String() + " "
}

func callConvPrefix(cc ir.CallConv) string {
	if cc == ir.CallC {
		return ""
	}
	return cc.String() + " "
}
