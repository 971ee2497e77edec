// Package llvm renders a materialized module as textual LLVM IR.
//
// The Emitter implements materialize.Backend. It keeps the declarations it
// receives and renders the whole module in Finish, so functions come out
// with their blocks in emission order.
package llvm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"irkit/internal/ir"
	"irkit/internal/layout"
	"irkit/internal/materialize"
	"irkit/internal/types"
)

// ErrFinished is returned by calls made after Finish.
var ErrFinished = errors.New("llvm: module already finished")

// Config selects the module header.
type Config struct {
	ModuleName string
	Target     layout.Target
	// DataLayout overrides the layout string derived from Target.
	DataLayout string
}

type typeEntry struct {
	shape materialize.TypeShape
	text  string
	body  *materialize.StructBody
}

type globalEntry struct {
	decl materialize.GlobalDecl
}

type funcEntry struct {
	decl   materialize.FuncDecl
	blocks []materialize.BlockBody
}

// Emitter collects backend calls and renders them as LLVM IR.
type Emitter struct {
	cfg    Config
	layout *layout.LayoutEngine

	types   []typeEntry
	named   []materialize.TypeHandle
	globals []globalEntry
	funcs   []*funcEntry

	buf      strings.Builder
	finished bool
}

var _ materialize.Backend = (*Emitter)(nil)

// New creates an Emitter. tv must be the type view of the module that will
// be materialized into it; alignment is computed from it.
func New(tv types.View, cfg Config) *Emitter {
	if cfg.Target.PtrSize == 0 {
		cfg.Target = layout.X86_64LinuxGNU()
	}
	return &Emitter{
		cfg:    cfg,
		layout: layout.New(cfg.Target, tv),
	}
}

// ForModule configures an Emitter from m's name and target.
func ForModule(m *ir.Module) *Emitter {
	triple, dl := m.Target()
	// SetTarget already rejected malformed layouts.
	target, _ := layout.TargetFor(triple, dl)
	return New(m.Types(), Config{
		ModuleName: m.Name(),
		Target:     target,
		DataLayout: dl,
	})
}

// Finish renders the module.
func (e *Emitter) Finish() (materialize.Artifact, error) {
	if e.finished {
		return nil, ErrFinished
	}
	e.finished = true
	e.buf.Reset()
	e.emitPreamble()
	e.emitStructs()
	if err := e.emitGlobals(); err != nil {
		return nil, err
	}
	for _, f := range e.funcs {
		if err := e.emitFunction(f); err != nil {
			return nil, fmt.Errorf("@%s: %w", f.decl.Name, err)
		}
	}
	return Artifact{text: e.buf.String()}, nil
}

func (e *Emitter) emitPreamble() {
	if e.cfg.ModuleName != "" {
		fmt.Fprintf(&e.buf, "; ModuleID = '%s'\n", e.cfg.ModuleName)
		fmt.Fprintf(&e.buf, "source_filename = %s\n", quoteString(e.cfg.ModuleName))
	}
	dl := e.cfg.DataLayout
	if dl == "" {
		dl = e.cfg.Target.DataLayout()
	}
	fmt.Fprintf(&e.buf, "target datalayout = %s\n", quoteString(dl))
	fmt.Fprintf(&e.buf, "target triple = %s\n", quoteString(e.cfg.Target.Triple))
}

func (e *Emitter) emitStructs() {
	if len(e.named) == 0 {
		return
	}
	e.buf.WriteString("\n")
	for _, h := range e.named {
		ent := &e.types[h-1]
		body := "opaque"
		if ent.body != nil && !ent.body.Opaque {
			body = e.structText(ent.body.Fields, ent.body.Packed)
		}
		fmt.Fprintf(&e.buf, "%s = type %s\n", ent.text, body)
	}
}

func (e *Emitter) alignOf(h materialize.TypeHandle) (int, bool) {
	ent, ok := e.typeEntry(h)
	if !ok {
		return 0, false
	}
	a, err := e.layout.AlignOf(ent.shape.ID)
	if err != nil || a <= 0 {
		return 0, false
	}
	return a, true
}

// quoteString renders s as an LLVM string literal.
func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		writeStringByte(&sb, s[i])
	}
	sb.WriteByte('"')
	return sb.String()
}

func writeStringByte(sb *strings.Builder, b byte) {
	if b < 0x20 || b >= 0x7f || b == '"' || b == '\\' {
		fmt.Fprintf(sb, "\\%02X", b)
		return
	}
	sb.WriteByte(b)
}

// ident renders name with sigil, quoting it when it is not a bare LLVM
// identifier.
func ident(sigil byte, name string) string {
	if isBareIdent(name) {
		return string(sigil) + name
	}
	return string(sigil) + quoteString(name)
}

func isBareIdent(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '-', c == '$', c == '.', c == '_':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Artifact is a rendered module.
type Artifact struct {
	text string
}

func (a Artifact) Kind() string { return "llvm-ir" }
func (a Artifact) Bytes() []byte { return []byte(a.text) }
func (a Artifact) String() string { return a.text }

func handleErr(kind string, h uint64) error {
	return fmt.Errorf("unknown %s handle %s", kind, strconv.FormatUint(h, 10))
}
