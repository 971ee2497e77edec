package llvm

import (
	"fmt"
	"strings"

	"irkit/internal/materialize"
)

// DeclareFunction records a function. Bodies arrive through EmitBlock.
func (e *Emitter) DeclareFunction(f materialize.FuncDecl) (materialize.FuncHandle, error) {
	if e.finished {
		return 0, ErrFinished
	}
	if _, ok := e.typeEntry(f.Sig); !ok {
		return 0, handleErr("type", uint64(f.Sig))
	}
	for _, p := range f.Params {
		if _, ok := e.typeEntry(p.Type); !ok {
			return 0, handleErr("type", uint64(p.Type))
		}
	}
	e.funcs = append(e.funcs, &funcEntry{decl: f})
	return materialize.FuncHandle(len(e.funcs)), nil
}

// EmitBlock appends a block to a function body. Blocks must arrive in
// function order.
func (e *Emitter) EmitBlock(fh materialize.FuncHandle, body materialize.BlockBody) (materialize.BlockHandle, error) {
	if e.finished {
		return 0, ErrFinished
	}
	f, ok := e.funcEntry(fh)
	if !ok {
		return 0, handleErr("function", uint64(fh))
	}
	if f.decl.Declaration {
		return 0, fmt.Errorf("@%s is a declaration and takes no blocks", f.decl.Name)
	}
	if body.Label.Index != len(f.blocks) {
		return 0, fmt.Errorf("block %%%s arrived at position %d, want %d", body.Label.Name, len(f.blocks), body.Label.Index)
	}
	for i := range body.Insts {
		for _, op := range body.Insts[i].Operands {
			if err := e.checkOperand(op); err != nil {
				return 0, fmt.Errorf("%%%s: %s: %w", body.Label.Name, body.Insts[i].Op, err)
			}
		}
	}
	f.blocks = append(f.blocks, body)
	return materialize.BlockHandle(len(f.blocks)), nil
}

func (e *Emitter) funcEntry(h materialize.FuncHandle) (*funcEntry, bool) {
	if h == 0 || int(h) > len(e.funcs) {
		return nil, false
	}
	return e.funcs[h-1], true
}

func (e *Emitter) emitFunction(f *funcEntry) error {
	d := f.decl
	params := make([]string, 0, len(d.Params)+1)
	for _, p := range d.Params {
		s := e.typeText(p.Type)
		if !d.Declaration && p.Name != "" {
			s += " " + ident('%', p.Name)
		}
		params = append(params, s)
	}
	if d.Variadic {
		params = append(params, "...")
	}
	head := fmt.Sprintf("%s%s%s %s(%s)",
		linkagePrefix(d.Linkage), callConvPrefix(d.CallConv),
		e.typeText(d.Result), ident('@', d.Name), strings.Join(params, ", "))

	e.buf.WriteString("\n")
	if d.Declaration {
		fmt.Fprintf(&e.buf, "declare %s\n", head)
		return nil
	}
	if len(f.blocks) == 0 {
		return fmt.Errorf("definition without blocks")
	}
	fmt.Fprintf(&e.buf, "define %s {\n", head)
	for i, b := range f.blocks {
		if i > 0 {
			e.buf.WriteString("\n")
		}
		fmt.Fprintf(&e.buf, "%s:\n", labelText(b.Label))
		for k := range b.Insts {
			e.buf.WriteString("  ")
			e.emitInst(&b.Insts[k])
			e.buf.WriteString("\n")
		}
	}
	e.buf.WriteString("}\n")
	return nil
}

// labelText spells a block label in its definition, without the sigil.
func labelText(l materialize.Label) string {
	return ident('%', l.Name)[1:]
}
