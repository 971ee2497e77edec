package materialize

import (
	"strconv"

	"irkit/internal/ir"
)

// locals assigns every block, parameter and instruction result of one
// function a unique name. Blocks and values share one namespace, as in
// LLVM; user names win, clashes get a numeric suffix and unnamed values are
// called tN.
type locals struct {
	used   map[string]bool
	names  map[ir.ValueID]string
	params []string
	blocks []string
	next   int
}

func newLocals(m *ir.Module, f ir.Func) *locals {
	l := &locals{
		used:   make(map[string]bool),
		names:  make(map[ir.ValueID]string),
		params: make([]string, len(f.Params)),
		blocks: make([]string, len(f.Blocks)),
	}
	for i, bid := range f.Blocks {
		b, _ := m.Block(bid)
		l.blocks[i] = l.claim(b.Name)
	}
	for i, p := range f.Params {
		want := ""
		if p != ir.NoValueID {
			v, _ := m.Value(p)
			want = v.Name
		}
		l.params[i] = l.claim(want)
		if p != ir.NoValueID {
			l.names[p] = l.params[i]
		}
	}
	for _, bid := range f.Blocks {
		b, _ := m.Block(bid)
		for _, iid := range b.Instrs {
			in, _ := m.Instr(iid)
			if in.Result != ir.NoValueID {
				l.names[in.Result] = l.claim(in.Name)
			}
		}
	}
	return l
}

func (l *locals) claim(want string) string {
	if want != "" && !l.used[want] {
		l.used[want] = true
		return want
	}
	base := "t"
	if want != "" {
		base = want + "."
	}
	for {
		name := base + strconv.Itoa(l.next)
		l.next++
		if !l.used[name] {
			l.used[name] = true
			return name
		}
	}
}

func (l *locals) param(i int) string { return l.params[i] }

func (l *locals) of(id ir.ValueID) string {
	if l == nil {
		return ""
	}
	return l.names[id]
}
