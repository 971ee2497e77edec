// Package record provides a Backend that remembers every call it receives.
// It backs the calls command and the materializer tests.
package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"irkit/internal/ir"
	"irkit/internal/materialize"
)

// ErrInjected is returned by calls selected with FailOn.
var ErrInjected = errors.New("injected failure")

// Backend records calls as lines like "declare_type(i32)",
// "declare_global(g, i32, 0)" or "emit_block(f, [ret i32 0])".
type Backend struct {
	// FailOn makes the first call whose line starts with this prefix fail
	// with ErrInjected.
	FailOn string

	calls   []string
	types   []materialize.TypeShape
	globals []string
	funcs   []string
	blocks  int
}

// New returns an empty recorder.
func New() *Backend { return &Backend{} }

// Calls returns the recorded lines in call order.
func (b *Backend) Calls() []string {
	return append([]string(nil), b.calls...)
}

func (b *Backend) record(line string) error {
	if b.FailOn != "" && strings.HasPrefix(line, b.FailOn) {
		b.FailOn = ""
		return fmt.Errorf("%s: %w", line, ErrInjected)
	}
	b.calls = append(b.calls, line)
	return nil
}

func (b *Backend) DeclareType(shape materialize.TypeShape) (materialize.TypeHandle, error) {
	if err := b.record("declare_type(" + shape.Text + ")"); err != nil {
		return 0, err
	}
	b.types = append(b.types, shape)
	return materialize.TypeHandle(len(b.types)), nil
}

func (b *Backend) DefineStruct(h materialize.TypeHandle, body materialize.StructBody) error {
	shape, ok := b.shape(h)
	if !ok {
		return fmt.Errorf("define_struct: unknown type handle %d", h)
	}
	fields := make([]string, len(body.Fields))
	for i, f := range body.Fields {
		fields[i] = b.typeText(f)
	}
	text := "{ " + strings.Join(fields, ", ") + " }"
	switch {
	case body.Opaque:
		text = "opaque"
	case len(fields) == 0:
		text = "{}"
	}
	if body.Packed && !body.Opaque {
		text = "<" + text + ">"
	}
	return b.record("define_struct(" + shape.Text + " = " + text + ")")
}

func (b *Backend) DeclareGlobal(g materialize.GlobalDecl) (materialize.GlobalHandle, error) {
	line := "declare_global(" + g.Name + ", " + b.typeText(g.Type)
	switch {
	case g.Init != nil:
		line += ", " + b.operand(*g.Init)
	case g.Deferred:
		line += ", deferred"
	}
	if err := b.record(line + ")"); err != nil {
		return 0, err
	}
	b.globals = append(b.globals, g.Name)
	return materialize.GlobalHandle(len(b.globals)), nil
}

func (b *Backend) DefineGlobal(h materialize.GlobalHandle, init materialize.Operand) error {
	if h == 0 || int(h) > len(b.globals) {
		return fmt.Errorf("define_global: unknown global handle %d", h)
	}
	return b.record("define_global(" + b.globals[h-1] + ", " + b.operand(init) + ")")
}

func (b *Backend) DeclareFunction(f materialize.FuncDecl) (materialize.FuncHandle, error) {
	if err := b.record("declare_function(" + f.Name + ", " + b.typeText(f.Sig) + ")"); err != nil {
		return 0, err
	}
	b.funcs = append(b.funcs, f.Name)
	return materialize.FuncHandle(len(b.funcs)), nil
}

func (b *Backend) EmitBlock(fn materialize.FuncHandle, body materialize.BlockBody) (materialize.BlockHandle, error) {
	if fn == 0 || int(fn) > len(b.funcs) {
		return 0, fmt.Errorf("emit_block: unknown function handle %d", fn)
	}
	insts := make([]string, len(body.Insts))
	for i, in := range body.Insts {
		insts[i] = b.inst(in)
	}
	line := fmt.Sprintf("emit_block(%s, [%s])", b.funcs[fn-1], strings.Join(insts, "; "))
	if err := b.record(line); err != nil {
		return 0, err
	}
	b.blocks++
	return materialize.BlockHandle(b.blocks), nil
}

func (b *Backend) Finish() (materialize.Artifact, error) {
	if err := b.record("finish()"); err != nil {
		return nil, err
	}
	return Artifact{Lines: b.Calls()}, nil
}

func (b *Backend) shape(h materialize.TypeHandle) (materialize.TypeShape, bool) {
	if h == 0 || int(h) > len(b.types) {
		return materialize.TypeShape{}, false
	}
	return b.types[h-1], true
}

func (b *Backend) typeText(h materialize.TypeHandle) string {
	if s, ok := b.shape(h); ok {
		return s.Text
	}
	return "?"
}

func (b *Backend) inst(in materialize.Inst) string {
	var sb strings.Builder
	if in.Result != "" {
		sb.WriteString("%" + in.Result + " = ")
	}
	sb.WriteString(in.Op.String())
	if in.Pred != 0 {
		sb.WriteString(" " + in.Pred.String())
	}
	for i, op := range in.Operands {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(" " + b.typeText(op.Type) + " " + b.operand(op))
	}
	for _, t := range in.Targets {
		sb.WriteString(" %" + t.Name)
	}
	return sb.String()
}

func (b *Backend) operand(op materialize.Operand) string {
	switch op.Kind {
	case materialize.OperandConst:
		return b.constant(op)
	case materialize.OperandGlobal, materialize.OperandFunc:
		return "@" + op.Name
	default:
		return "%" + op.Name
	}
}

func (b *Backend) constant(op materialize.Operand) string {
	c := op.Const
	switch c.Kind {
	case ir.ConstInt:
		s, _ := b.shape(op.Type)
		return c.Signed(s.Width).String()
	case ir.ConstFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case ir.ConstBytes:
		return "c" + strconv.Quote(string(c.Bytes))
	case ir.ConstAggregate:
		parts := make([]string, len(c.Elems))
		for i, e := range c.Elems {
			parts[i] = b.typeText(e.Type) + " " + b.operand(e)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	default:
		return c.Kind.String()
	}
}

// Artifact is the recorded call list.
type Artifact struct {
	Lines []string
}

func (a Artifact) Kind() string { return "calls" }

func (a Artifact) Bytes() []byte {
	return []byte(strings.Join(a.Lines, "\n") + "\n")
}
