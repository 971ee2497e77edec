// Package samples builds small, valid modules used by the CLI, the
// pipeline and backend tests.
package samples

import (
	"fmt"
	"sort"

	"irkit/internal/ir"
	"irkit/internal/types"
)

// DefaultTriple is the target every sample is built for.
const DefaultTriple = "x86_64-unknown-linux-gnu"

// Sample is a named module recipe.
type Sample struct {
	Name    string
	Summary string
	Build   func() (*ir.Module, error)
}

var registry = map[string]Sample{
	"hello":    {Name: "hello", Summary: "printf through a variadic declaration and a private string", Build: Hello},
	"fib":      {Name: "fib", Summary: "iterative fibonacci with loop phis", Build: Fib},
	"parity":   {Name: "parity", Summary: "mutually recursive functions joined by a forward reference", Build: Parity},
	"list":     {Name: "list", Summary: "linked list sum over a named recursive struct", Build: List},
	"classify": {Name: "classify", Summary: "switch, select and float arithmetic", Build: Classify},
}

// Names lists the registered samples in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// All returns every sample sorted by name.
func All() []Sample {
	names := Names()
	out := make([]Sample, len(names))
	for i, n := range names {
		out[i] = registry[n]
	}
	return out
}

// Lookup finds a sample by name.
func Lookup(name string) (Sample, bool) {
	s, ok := registry[name]
	return s, ok
}

// Build builds the named sample.
func Build(name string) (*ir.Module, error) {
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown sample %q", name)
	}
	m, err := s.Build()
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", name, err)
	}
	return m, nil
}

// Hello declares printf and calls it with a private constant string.
func Hello() (*ir.Module, error) {
	k := newKit("hello")
	m := k.m
	bt := m.Types().Builtins()

	msg := k.val(m.ConstString("hello, world\n", true))
	msgTy := k.ty(m.ValueType(msg))
	g, err := m.NewGlobal("msg", msgTy, msg)
	k.check(err)
	k.check(m.SetGlobalConstant(g, true))
	k.check(m.SetGlobalLinkage(g, ir.LinkagePrivate))

	i8p := k.ty(m.PointerType(bt.I8))
	k.fn("printf", k.ty(m.FuncType(bt.I32, []types.TypeID{i8p}, true)))

	main, _ := k.fn("main", k.ty(m.FuncType(bt.I32, nil, false)))
	entry := k.blocks(main, "entry")
	if k.err != nil {
		return nil, k.err
	}
	b := k.at(entry[0])
	zero := k.val(m.ConstInt(bt.I64, 0))
	str := k.val(b.Named("str").GEP(k.val(m.GlobalRef("msg")), zero, zero))
	k.val(b.Call(k.val(m.GlobalRef("printf")), str))
	k.check(b.Ret(k.i32(0)))
	return k.done()
}

// Fib computes the n-th fibonacci number with a counting loop.
func Fib() (*ir.Module, error) {
	k := newKit("fib")
	m := k.m
	i32 := m.Types().Builtins().I32

	f, params := k.fn("fib", k.ty(m.FuncType(i32, []types.TypeID{i32}, false)), "n")
	bl := k.blocks(f, "entry", "loop", "body", "exit")
	if k.err != nil {
		return nil, k.err
	}
	entry, loop, body, exit := bl[0], bl[1], bl[2], bl[3]
	n := params[0]

	b := k.at(entry)
	k.check(b.Br(ir.Target(loop)))

	b = k.at(loop)
	i := k.val(b.Named("i").Phi(i32, ir.Incoming{Value: k.i32(0), From: ir.Target(entry)}))
	a := k.val(b.Named("a").Phi(i32, ir.Incoming{Value: k.i32(0), From: ir.Target(entry)}))
	bv := k.val(b.Named("b").Phi(i32, ir.Incoming{Value: k.i32(1), From: ir.Target(entry)}))
	stop := k.val(b.Named("done").ICmp(ir.IntSGE, i, n))
	k.check(b.CondBr(stop, ir.Target(exit), ir.Target(body)))

	b = k.at(body)
	sum := k.val(b.Named("sum").Add(a, bv))
	next := k.val(b.Named("i.next").Add(i, k.i32(1)))
	k.check(b.Br(ir.Target(loop)))
	k.check(b.AddIncoming(i, next, ir.Target(body)))
	k.check(b.AddIncoming(a, bv, ir.Target(body)))
	k.check(b.AddIncoming(bv, sum, ir.Target(body)))

	b = k.at(exit)
	k.check(b.Ret(a))
	return k.done()
}

// Parity defines is_even and is_odd in terms of each other. is_odd is
// referenced before it exists.
func Parity() (*ir.Module, error) {
	k := newKit("parity")
	m := k.m
	bt := m.Types().Builtins()
	sig := k.ty(m.FuncType(bt.I1, []types.TypeID{bt.I32}, false))

	odd := k.val(m.ForwardGlobal("is_odd", sig))
	k.parityFunc("is_even", sig, "yes", true, odd)
	k.parityFunc("is_odd", sig, "no", false, k.val(m.GlobalRef("is_even")))
	return k.done()
}

func (k *kit) parityFunc(name string, sig types.TypeID, base string, atZero bool, other ir.ValueID) {
	m := k.m
	f, params := k.fn(name, sig, "n")
	bl := k.blocks(f, "entry", base, "recurse")
	if k.err != nil {
		return
	}
	n := params[0]

	b := k.at(bl[0])
	isZero := k.val(b.Named("zero").ICmp(ir.IntEQ, n, k.i32(0)))
	k.check(b.CondBr(isZero, ir.Target(bl[1]), ir.Target(bl[2])))

	b = k.at(bl[1])
	k.check(b.Ret(k.val(m.ConstBool(atZero))))

	b = k.at(bl[2])
	prev := k.val(b.Named("m").Sub(n, k.i32(1)))
	r := k.val(b.Named("r").Call(other, prev))
	k.check(b.Ret(r))
}

// List sums a linked list of %node = type { i32, %node* } held in two
// internal globals.
func List() (*ir.Module, error) {
	k := newKit("list")
	m := k.m
	i32 := m.Types().Builtins().I32

	node := k.ty(m.DeclareStruct("node"))
	nodePtr := k.ty(m.PointerType(node))
	k.check(m.SetStructBody(node, []types.TypeID{i32, nodePtr}, false))

	tailInit := k.val(m.ConstAggregate(node, []ir.ValueID{k.i32(2), k.val(m.ConstNull(nodePtr))}))
	tail, err := m.NewGlobal("tail", node, tailInit)
	k.check(err)
	k.check(m.SetGlobalLinkage(tail, ir.LinkageInternal))
	headInit := k.val(m.ConstAggregate(node, []ir.ValueID{k.i32(1), k.val(m.GlobalRef("tail"))}))
	head, err := m.NewGlobal("head", node, headInit)
	k.check(err)
	k.check(m.SetGlobalLinkage(head, ir.LinkageInternal))

	sum, params := k.fn("sum", k.ty(m.FuncType(i32, []types.TypeID{nodePtr}, false)), "head")
	bl := k.blocks(sum, "entry", "loop", "body", "exit")
	if k.err != nil {
		return nil, k.err
	}
	entry, loop, body, exit := bl[0], bl[1], bl[2], bl[3]

	b := k.at(entry)
	acc := k.val(b.Named("acc").Alloca(i32))
	k.check(b.Store(k.i32(0), acc))
	curAddr := k.val(b.Named("cur.addr").Alloca(nodePtr))
	k.check(b.Store(params[0], curAddr))
	k.check(b.Br(ir.Target(loop)))

	b = k.at(loop)
	cur := k.val(b.Named("cur").Load(curAddr))
	end := k.val(b.Named("end").ICmp(ir.IntEQ, cur, k.val(m.ConstNull(nodePtr))))
	k.check(b.CondBr(end, ir.Target(exit), ir.Target(body)))

	b = k.at(body)
	valAddr := k.val(b.Named("val.addr").GEP(cur, k.i32(0), k.i32(0)))
	val := k.val(b.Named("val").Load(valAddr))
	old := k.val(b.Named("old").Load(acc))
	sumV := k.val(b.Named("new").Add(old, val))
	k.check(b.Store(sumV, acc))
	nextAddr := k.val(b.Named("next.addr").GEP(cur, k.i32(0), k.i32(1)))
	next := k.val(b.Named("next").Load(nextAddr))
	k.check(b.Store(next, curAddr))
	k.check(b.Br(ir.Target(loop)))

	b = k.at(exit)
	k.check(b.Ret(k.val(b.Named("total").Load(acc))))

	main, _ := k.fn("main", k.ty(m.FuncType(i32, nil, false)))
	mainEntry := k.blocks(main, "entry")
	if k.err != nil {
		return nil, k.err
	}
	b = k.at(mainEntry[0])
	r := k.val(b.Call(k.val(m.GlobalRef("sum")), k.val(m.GlobalRef("head"))))
	k.check(b.Ret(r))
	return k.done()
}

// Classify maps an integer to a code with a switch and halves a double.
func Classify() (*ir.Module, error) {
	k := newKit("classify")
	m := k.m
	i32 := m.Types().Builtins().I32
	f64 := k.ty(m.FloatType(types.FloatDouble))

	f, params := k.fn("classify", k.ty(m.FuncType(i32, []types.TypeID{i32}, false)), "c")
	bl := k.blocks(f, "entry", "zero", "one", "other", "done")
	if k.err != nil {
		return nil, k.err
	}
	entry, zero, one, other, done := bl[0], bl[1], bl[2], bl[3], bl[4]
	c := params[0]

	b := k.at(entry)
	k.check(b.Switch(c, ir.Target(other),
		ir.Case{Value: k.i32(0), Dest: ir.Target(zero)},
		ir.Case{Value: k.i32(1), Dest: ir.Target(one)}))

	k.check(k.at(zero).Br(ir.Target(done)))
	k.check(k.at(one).Br(ir.Target(done)))

	b = k.at(other)
	neg := k.val(b.Named("neg").ICmp(ir.IntSLT, c, k.i32(0)))
	sign := k.val(b.Named("sign").Select(neg, k.i32(-1), k.i32(2)))
	k.check(b.Br(ir.Target(done)))

	b = k.at(done)
	r := k.val(b.Named("r").Phi(i32,
		ir.Incoming{Value: k.i32(10), From: ir.Target(zero)},
		ir.Incoming{Value: k.i32(11), From: ir.Target(one)},
		ir.Incoming{Value: sign, From: ir.Target(other)}))
	k.check(b.Ret(r))

	half, hp := k.fn("half", k.ty(m.FuncType(f64, []types.TypeID{f64}, false)), "x")
	hb := k.blocks(half, "entry")
	if k.err != nil {
		return nil, k.err
	}
	b = k.at(hb[0])
	h := k.val(b.Named("h").FMul(hp[0], k.val(m.ConstFloat(f64, 0.5))))
	k.check(b.Ret(h))
	return k.done()
}
