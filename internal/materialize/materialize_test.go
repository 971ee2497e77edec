package materialize_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irkit/internal/backend/record"
	"irkit/internal/ir"
	"irkit/internal/materialize"
	"irkit/internal/trace"
	"irkit/internal/types"
)

// simpleModule builds @g = global i32 0 and define i32 @f() { ret i32 0 }.
func simpleModule(t *testing.T) *ir.Module {
	t.Helper()
	m := ir.NewModule("simple")
	i32 := m.Types().Builtins().I32
	zero, err := m.ConstInt(i32, 0)
	require.NoError(t, err)
	_, err = m.NewGlobal("g", i32, zero)
	require.NoError(t, err)
	sig, err := m.FuncType(i32, nil, false)
	require.NoError(t, err)
	f, err := m.NewFunction("f", sig)
	require.NoError(t, err)
	entry, err := m.NewBlock(f, "entry")
	require.NoError(t, err)
	b := ir.NewBuilder(m)
	b.SetInsertPoint(entry)
	require.NoError(t, b.Ret(zero))
	return m
}

func TestEndToEndCallOrder(t *testing.T) {
	m := simpleModule(t)
	rec := record.New()
	art, err := materialize.Materialize(context.Background(), m, rec)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"declare_type(i32)",
		"declare_type(i32 ())",
		"declare_global(g, i32, 0)",
		"declare_function(f, i32 ())",
		"emit_block(f, [ret i32 0])",
		"finish()",
	}, rec.Calls())
	assert.Equal(t, "calls", art.Kind())
	assert.True(t, m.Frozen())

	_, err = m.NewGlobal("h", m.Types().Builtins().I32, ir.NoValueID)
	assert.ErrorIs(t, err, ir.ErrModuleFrozen)
}

func TestFrozenModuleCanBeMaterializedAgain(t *testing.T) {
	m := simpleModule(t)
	first := record.New()
	_, err := materialize.Materialize(context.Background(), m, first)
	require.NoError(t, err)
	second := record.New()
	_, err = materialize.Materialize(context.Background(), m, second)
	require.NoError(t, err)
	assert.Equal(t, first.Calls(), second.Calls())
}

func TestInvalidModuleNeverReachesBackend(t *testing.T) {
	m := ir.NewModule("broken")
	sig, err := m.FuncType(m.VoidType(), nil, false)
	require.NoError(t, err)
	f, err := m.NewFunction("f", sig)
	require.NoError(t, err)
	_, err = m.NewBlock(f, "entry")
	require.NoError(t, err)

	rec := record.New()
	_, err = materialize.Materialize(context.Background(), m, rec)
	var merr *materialize.Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, materialize.StageValidate, merr.Stage)
	var list ir.ValidationErrorList
	require.ErrorAs(t, err, &list)
	assert.Equal(t, ir.CodeMissingTerminator, list[0].Code)
	assert.Empty(t, rec.Calls())
	assert.False(t, m.Frozen())
}

func TestBackendFailureAborts(t *testing.T) {
	m := simpleModule(t)
	rec := &record.Backend{FailOn: "declare_function"}
	_, err := materialize.Materialize(context.Background(), m, rec)
	var merr *materialize.Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, materialize.StageDeclarations, merr.Stage)
	assert.Equal(t, "@f", merr.Entity)
	assert.True(t, errors.Is(err, record.ErrInjected))
	assert.Equal(t, []string{"declare_type(i32)", "declare_type(i32 ())", "declare_global(g, i32, 0)"}, rec.Calls())
	assert.False(t, m.Frozen())
}

func TestCanceledContextStopsBeforeWalk(t *testing.T) {
	m := simpleModule(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := record.New()
	_, err := materialize.Materialize(ctx, m, rec)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.Calls())
}

func TestNamedStructsDefinedAfterDeclarations(t *testing.T) {
	m := ir.NewModule("list")
	i32 := m.Types().Builtins().I32
	node, err := m.DeclareStruct("node")
	require.NoError(t, err)
	ptr, err := m.PointerType(node)
	require.NoError(t, err)
	require.NoError(t, m.SetStructBody(node, []types.TypeID{i32, ptr}, false))
	sig, err := m.FuncType(ptr, []types.TypeID{ptr}, false)
	require.NoError(t, err)
	f, err := m.NewFunction("next", sig)
	require.NoError(t, err)
	n, err := m.AddParam(f, "n")
	require.NoError(t, err)
	entry, err := m.NewBlock(f, "entry")
	require.NoError(t, err)
	b := ir.NewBuilder(m)
	b.SetInsertPoint(entry)
	zero, err := m.ConstInt(i32, 0)
	require.NoError(t, err)
	one, err := m.ConstInt(i32, 1)
	require.NoError(t, err)
	addr, err := b.GEP(n, zero, one)
	require.NoError(t, err)
	next, err := b.Named("next").Load(addr)
	require.NoError(t, err)
	require.NoError(t, b.Ret(next))

	rec := record.New()
	_, err = materialize.Materialize(context.Background(), m, rec)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"declare_type(i32)",
		"declare_type(%node)",
		"declare_type(%node*)",
		"declare_type(%node* (%node*))",
		"declare_type(%node**)",
		"define_struct(%node = { i32, %node* })",
		"declare_function(next, %node* (%node*))",
		"emit_block(next, [%t0 = getelementptr %node* %n, i32 0, i32 1; %next = load %node** %t0; ret %node* %next])",
		"finish()",
	}, rec.Calls())
}

func TestProgressReported(t *testing.T) {
	m := simpleModule(t)
	var stages []materialize.Stage
	_, err := materialize.Materialize(context.Background(), m, record.New(),
		materialize.WithProgress(func(p materialize.Progress) {
			if p.Done == p.Total {
				stages = append(stages, p.Stage)
			}
		}))
	require.NoError(t, err)
	assert.Equal(t, []materialize.Stage{
		materialize.StageValidate,
		materialize.StageTypes,
		materialize.StageGlobals,
		materialize.StageDeclarations,
		materialize.StageBodies,
		materialize.StageFinish,
	}, stages)
}

// forwardModule builds @a = global i32* @b before @b itself exists, plus
// @fp = global i32 ()* @get referring to a function.
func forwardModule(t *testing.T) *ir.Module {
	t.Helper()
	m := ir.NewModule("forward")
	i32 := m.Types().Builtins().I32
	ref, err := m.ForwardGlobal("b", i32)
	require.NoError(t, err)
	ptr, err := m.PointerType(i32)
	require.NoError(t, err)
	_, err = m.NewGlobal("a", ptr, ref)
	require.NoError(t, err)
	zero, err := m.ConstInt(i32, 0)
	require.NoError(t, err)
	_, err = m.NewGlobal("b", i32, zero)
	require.NoError(t, err)

	sig, err := m.FuncType(i32, nil, false)
	require.NoError(t, err)
	getRef, err := m.ForwardGlobal("get", sig)
	require.NoError(t, err)
	sigPtr, err := m.PointerType(sig)
	require.NoError(t, err)
	_, err = m.NewGlobal("fp", sigPtr, getRef)
	require.NoError(t, err)
	f, err := m.NewFunction("get", sig)
	require.NoError(t, err)
	entry, err := m.NewBlock(f, "entry")
	require.NoError(t, err)
	b := ir.NewBuilder(m)
	b.SetInsertPoint(entry)
	require.NoError(t, b.Ret(zero))
	require.NoError(t, ir.Validate(m))
	return m
}

func TestLaterSymbolInitializersAreDeferred(t *testing.T) {
	m := forwardModule(t)
	rec := record.New()
	_, err := materialize.Materialize(context.Background(), m, rec)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"declare_type(i32)",
		"declare_type(i32*)",
		"declare_type(i32 ())",
		"declare_type(i32 ()*)",
		"declare_global(a, i32*, deferred)",
		"declare_global(b, i32, 0)",
		"declare_global(fp, i32 ()*, deferred)",
		"declare_function(get, i32 ())",
		"define_global(a, @b)",
		"define_global(fp, @get)",
		"emit_block(get, [ret i32 0])",
		"finish()",
	}, rec.Calls())
}

func TestDeferredInitializerFailure(t *testing.T) {
	m := forwardModule(t)
	rec := &record.Backend{FailOn: "define_global(fp"}
	_, err := materialize.Materialize(context.Background(), m, rec)
	var merr *materialize.Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, materialize.StageInitializers, merr.Stage)
	assert.Equal(t, "@fp", merr.Entity)
	assert.ErrorIs(t, err, record.ErrInjected)
}

func TestStagesTraced(t *testing.T) {
	ring := trace.NewRingTracer(256, trace.LevelDetail)
	ctx := trace.WithTracer(context.Background(), ring)
	_, err := materialize.Materialize(ctx, forwardModule(t), &record.Backend{FailOn: "emit_block(get"})
	require.Error(t, err)

	var stages []string
	var body trace.Event
	for _, ev := range ring.Snapshot() {
		if ev.Kind != trace.KindEnd {
			continue
		}
		assert.Equal(t, "forward", ev.Attrs.Module)
		switch ev.Scope {
		case trace.ScopeStage:
			stages = append(stages, ev.Attrs.Stage)
		case trace.ScopeEntity:
			body = ev
		}
	}
	assert.Equal(t, []string{"validate", "types", "globals", "declarations", "initializers", "bodies"}, stages)
	assert.Equal(t, "@get", body.Attrs.Entity)
	assert.Equal(t, "bodies", body.Attrs.Stage)
	assert.Equal(t, 1, body.Attrs.Items)
	assert.Contains(t, body.Attrs.Err, "injected")
}
