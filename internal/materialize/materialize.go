// Package materialize walks a finished ir.Module once and hands it to a
// Backend. The walk is the only place the model meets a code generator.
package materialize

import (
	"context"

	"go.uber.org/zap"

	"irkit/internal/ir"
	"irkit/internal/trace"
	"irkit/internal/types"
)

// Progress reports how far a stage has got.
type Progress struct {
	Module string
	Stage  Stage
	Done   int
	Total  int
}

type options struct {
	log      *zap.SugaredLogger
	progress func(Progress)
}

// Option configures Materialize.
type Option func(*options)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithProgress installs a callback invoked synchronously as the walk
// advances.
func WithProgress(fn func(Progress)) Option {
	return func(o *options) { o.progress = fn }
}

// Materialize validates m and, when it is sound, drives b through types,
// globals, function declarations and function bodies, returning b's
// artifact. The context is consulted only before the walk starts. On
// success m is frozen; a frozen module can be materialized again.
func Materialize(ctx context.Context, m *ir.Module, b Backend, opts ...Option) (Artifact, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := options{log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(&o)
	}

	tr := trace.FromContext(ctx)
	root := trace.Start(tr, trace.ScopeModule, "materialize", trace.CurrentSpan(ctx).WithModule(m.Name()))
	w := &walker{
		m:       m,
		b:       b,
		tv:      m.Types(),
		o:       o,
		tr:      tr,
		parent:  root.Context(),
		typeH:   make(map[types.TypeID]TypeHandle),
		globalH: make(map[ir.GlobalID]GlobalHandle),
		funcH:   make(map[ir.FuncID]FuncHandle),
	}
	art, err := w.run()
	if err != nil {
		root.Fail(err).End()
		o.log.Debugw("materialize failed", "module", m.Name(), "error", err)
		return nil, err
	}
	m.Freeze()
	root.End()
	o.log.Infow("materialized module",
		"module", m.Name(),
		"types", len(w.typeH),
		"globals", len(w.globalH),
		"functions", len(w.funcH),
		"artifact", art.Kind(),
	)
	return art, nil
}

type walker struct {
	m      *ir.Module
	b      Backend
	tv     types.View
	o      options
	tr     trace.Tracer
	parent trace.SpanContext
	// the stage span currently open
	stage  trace.SpanContext

	typeH    map[types.TypeID]TypeHandle
	globalH  map[ir.GlobalID]GlobalHandle
	funcH    map[ir.FuncID]FuncHandle
	// globals whose initializer waits for DefineGlobal
	deferred []ir.GlobalID
}

func (w *walker) run() (Artifact, error) {
	steps := []struct {
		stage Stage
		fn    func() error
	}{
		{StageValidate, w.validate},
		{StageTypes, w.declareTypes},
		{StageGlobals, w.declareGlobals},
		{StageDeclarations, w.declareFuncs},
		{StageInitializers, w.defineGlobals},
		{StageBodies, w.emitBodies},
	}
	for _, step := range steps {
		span := trace.Start(w.tr, trace.ScopeStage, step.stage.String(), w.parent)
		w.stage = span.Context()
		err := step.fn()
		span.Fail(err).End()
		if err != nil {
			return nil, err
		}
	}
	span := trace.Start(w.tr, trace.ScopeStage, StageFinish.String(), w.parent)
	w.stage = span.Context()
	defer span.End()
	art, err := w.b.Finish()
	if err != nil {
		err = &Error{Stage: StageFinish, Entity: w.m.Name(), Cause: err}
		span.Fail(err)
		return nil, err
	}
	w.report(StageFinish, 1, 1)
	return art, nil
}

func (w *walker) report(stage Stage, done, total int) {
	if w.o.progress != nil {
		w.o.progress(Progress{Module: w.m.Name(), Stage: stage, Done: done, Total: total})
	}
	trace.Progress(w.tr, w.stage, stage.String(), done, total)
}

func (w *walker) validate() error {
	if err := ir.Validate(w.m); err != nil {
		return &Error{Stage: StageValidate, Entity: w.m.Name(), Cause: err}
	}
	w.report(StageValidate, 1, 1)
	return nil
}

func (w *walker) declareTypes() error {
	order := w.m.ReferencedTypes()
	var named []types.TypeID
	for i, id := range order {
		t := w.tv.MustLookup(id)
		shape := TypeShape{
			ID:        id,
			Kind:      t.Kind,
			Text:      w.tv.Format(id),
			Width:     t.Width,
			Count:     t.Count,
			AddrSpace: t.AddrSpace,
			Name:      t.Name,
			Packed:    t.Packed,
			Variadic:  t.Variadic,
		}
		if t.Elem != types.NoTypeID {
			shape.Elem = w.typeH[t.Elem]
		}
		if t.Named() {
			named = append(named, id)
		} else {
			shape.Fields = w.typeHandles(t.Fields)
		}
		h, err := w.b.DeclareType(shape)
		if err != nil {
			return &Error{Stage: StageTypes, Entity: shape.Text, Cause: err}
		}
		w.typeH[id] = h
		w.o.log.Debugw("declared type", "type", shape.Text)
		w.report(StageTypes, i+1, len(order))
	}
	for _, id := range named {
		t := w.tv.MustLookup(id)
		body := StructBody{Fields: w.typeHandles(t.Fields), Packed: t.Packed, Opaque: t.Opaque}
		if err := w.b.DefineStruct(w.typeH[id], body); err != nil {
			return &Error{Stage: StageTypes, Entity: "%" + t.Name, Cause: err}
		}
	}
	return nil
}

func (w *walker) typeHandles(ids []types.TypeID) []TypeHandle {
	if len(ids) == 0 {
		return nil
	}
	out := make([]TypeHandle, len(ids))
	for i, id := range ids {
		out[i] = w.typeH[id]
	}
	return out
}

func (w *walker) declareGlobals() error {
	list := w.m.Globals()
	for i, id := range list {
		g, _ := w.m.Global(id)
		decl := GlobalDecl{
			ID:       id,
			Name:     g.Name,
			Type:     w.typeH[g.Type],
			Constant: g.Constant,
			Linkage:  g.Linkage,
			Align:    g.Align,
		}
		switch {
		case g.Init == ir.NoValueID:
		case w.declared(g.Init):
			op := w.operand(g.Init, nil)
			decl.Init = &op
		default:
			decl.Deferred = true
			w.deferred = append(w.deferred, id)
		}
		h, err := w.b.DeclareGlobal(decl)
		if err != nil {
			return &Error{Stage: StageGlobals, Entity: "@" + g.Name, Cause: err}
		}
		w.globalH[id] = h
		w.report(StageGlobals, i+1, len(list))
	}
	return nil
}

// declared reports whether every global and function id refers to already
// has a backend handle.
func (w *walker) declared(id ir.ValueID) bool {
	v, _ := w.m.Value(id)
	switch v.Kind {
	case ir.ValueGlobalRef:
		if v.Global != ir.NoGlobalID {
			_, ok := w.globalH[v.Global]
			return ok
		}
		_, ok := w.funcH[v.Func]
		return ok
	case ir.ValueConst:
		for _, e := range v.Const.Elems {
			if !w.declared(e) {
				return false
			}
		}
	}
	return true
}

func (w *walker) defineGlobals() error {
	for i, id := range w.deferred {
		g, _ := w.m.Global(id)
		if err := w.b.DefineGlobal(w.globalH[id], w.operand(g.Init, nil)); err != nil {
			return &Error{Stage: StageInitializers, Entity: "@" + g.Name, Cause: err}
		}
		w.report(StageInitializers, i+1, len(w.deferred))
	}
	return nil
}

func (w *walker) declareFuncs() error {
	list := w.m.Funcs()
	for i, id := range list {
		f, _ := w.m.Func(id)
		info, _ := w.tv.FuncInfo(f.Sig)
		names := newLocals(w.m, f)
		decl := FuncDecl{
			ID:          id,
			Name:        f.Name,
			Sig:         w.typeH[f.Sig],
			Result:      w.typeH[info.Result],
			Variadic:    info.Variadic,
			Linkage:     f.Linkage,
			CallConv:    f.CallConv,
			Declaration: f.IsDeclaration(),
			Params:      make([]Param, len(info.Params)),
		}
		for j, pt := range info.Params {
			decl.Params[j] = Param{Name: names.param(j), Type: w.typeH[pt]}
		}
		h, err := w.b.DeclareFunction(decl)
		if err != nil {
			return &Error{Stage: StageDeclarations, Entity: "@" + f.Name, Cause: err}
		}
		w.funcH[id] = h
		w.report(StageDeclarations, i+1, len(list))
	}
	return nil
}

func (w *walker) emitBodies() error {
	list := w.m.Funcs()
	for i, id := range list {
		f, _ := w.m.Func(id)
		if f.IsDeclaration() {
			w.report(StageBodies, i+1, len(list))
			continue
		}
		span := trace.Start(w.tr, trace.ScopeEntity, "@"+f.Name, w.stage).
			Entity("@" + f.Name).
			Items(len(f.Blocks))
		err := w.emitFunc(f)
		span.Fail(err).End()
		if err != nil {
			return err
		}
		w.report(StageBodies, i+1, len(list))
	}
	return nil
}

func (w *walker) emitFunc(f ir.Func) error {
	names := newLocals(w.m, f)
	index := make(map[ir.BlockID]int, len(f.Blocks))
	for i, bid := range f.Blocks {
		index[bid] = i
	}
	label := func(ref ir.BlockRef) Label {
		id, _ := w.m.ResolveBlock(f.ID, ref)
		return Label{Index: index[id], Name: names.blocks[index[id]]}
	}
	for bi, bid := range f.Blocks {
		blk, _ := w.m.Block(bid)
		body := BlockBody{Label: Label{Index: bi, Name: names.blocks[bi]}, Insts: make([]Inst, 0, len(blk.Instrs))}
		for _, iid := range blk.Instrs {
			in, _ := w.m.Instr(iid)
			inst := Inst{Op: in.Op, Pred: in.Pred}
			if in.Result != ir.NoValueID {
				rt, _ := w.m.ValueType(in.Result)
				inst.Result = names.of(in.Result)
				inst.Type = w.typeH[rt]
			}
			inst.Extra = w.extraType(in)
			inst.Operands = make([]Operand, len(in.Operands))
			for k, v := range in.Operands {
				inst.Operands[k] = w.operand(v, names)
			}
			if len(in.Targets) > 0 {
				inst.Targets = make([]Label, len(in.Targets))
				for k, t := range in.Targets {
					inst.Targets[k] = label(t)
				}
			}
			body.Insts = append(body.Insts, inst)
		}
		if _, err := w.b.EmitBlock(w.funcH[f.ID], body); err != nil {
			return &Error{Stage: StageBodies, Entity: "@" + f.Name + " %" + blk.Name, Cause: err}
		}
	}
	return nil
}

// extraType picks the secondary type an instruction needs spelled out.
func (w *walker) extraType(in ir.Instr) TypeHandle {
	pointee := func(v ir.ValueID) TypeHandle {
		t, _ := w.m.ValueType(v)
		elem, _ := w.tv.Pointee(t)
		return w.typeH[elem]
	}
	switch {
	case in.Op == ir.OpAlloca, in.Op == ir.OpPhi, in.Op.IsCast():
		return w.typeH[in.Type]
	case in.Op == ir.OpLoad, in.Op == ir.OpGEP, in.Op == ir.OpCall:
		return pointee(in.Operands[0])
	case in.Op == ir.OpStore:
		return pointee(in.Operands[1])
	}
	return 0
}

// operand translates a value. names is nil outside function bodies.
func (w *walker) operand(id ir.ValueID, names *locals) Operand {
	v, _ := w.m.Value(id)
	op := Operand{Type: w.typeH[v.Type]}
	switch v.Kind {
	case ir.ValueConst:
		op.Kind = OperandConst
		op.Const = w.constant(v.Const, names)
	case ir.ValueGlobalRef:
		op.Name = v.Name
		if v.Global != ir.NoGlobalID {
			op.Kind = OperandGlobal
			op.Global = w.globalH[v.Global]
		} else {
			op.Kind = OperandFunc
			op.Func = w.funcH[v.Func]
		}
	case ir.ValueParam:
		op.Kind = OperandParam
		op.Index = v.Index
		op.Name = names.of(id)
	case ir.ValueInstr:
		op.Kind = OperandLocal
		op.Name = names.of(id)
	}
	return op
}

func (w *walker) constant(c *ir.Constant, names *locals) *Const {
	out := &Const{Kind: c.Kind, Bits: c.Bits, Float: c.Float, Bytes: c.Bytes}
	if len(c.Elems) > 0 {
		out.Elems = make([]Operand, len(c.Elems))
		for i, e := range c.Elems {
			out.Elems[i] = w.operand(e, names)
		}
	}
	return out
}
