package diag_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irkit/internal/backend/record"
	"irkit/internal/diag"
	"irkit/internal/ir"
	"irkit/internal/layout"
	"irkit/internal/materialize"
	"irkit/internal/samples"
)

func voidFunc(t *testing.T, m *ir.Module, name string) ir.FuncID {
	t.Helper()
	sig, err := m.FuncType(m.VoidType(), nil, false)
	require.NoError(t, err)
	f, err := m.NewFunction(name, sig)
	require.NoError(t, err)
	return f
}

func TestFromValidationList(t *testing.T) {
	m := ir.NewModule("broken")
	f := voidFunc(t, m, "f")
	_, err := m.NewBlock(f, "entry")
	require.NoError(t, err)

	ds := diag.FromError("broken", ir.Validate(m))
	require.Len(t, ds, 1)
	assert.Equal(t, diag.ValMissingTerminator, ds[0].Code)
	assert.Equal(t, diag.SevError, ds[0].Severity)
	assert.Equal(t, "f", ds[0].Primary.Func)
	assert.Equal(t, "entry", ds[0].Primary.Block)
	assert.Equal(t, "VAL2001", ds[0].Code.ID())
}

func TestFromBuildError(t *testing.T) {
	m := ir.NewModule("dup")
	voidFunc(t, m, "f")
	sig, err := m.FuncType(m.VoidType(), nil, false)
	require.NoError(t, err)
	_, err = m.NewFunction("f", sig)
	require.Error(t, err)

	ds := diag.FromError("dup", fmt.Errorf("wrapped: %w", err))
	require.Len(t, ds, 1)
	assert.Equal(t, diag.BldDuplicateName, ds[0].Code)
	assert.Equal(t, "BLD1001", ds[0].Code.String())
	assert.Equal(t, "dup", ds[0].Primary.String())
}

func TestFromInvalidTarget(t *testing.T) {
	m := ir.NewModule("target")
	err := m.SetTarget("x86_64-unknown-linux-gnu", "e-p:64")
	require.Error(t, err)

	ds := diag.FromError("target", err)
	require.Len(t, ds, 1)
	assert.Equal(t, diag.BldInvalidTarget, ds[0].Code)
	require.Len(t, ds[0].Notes, 1)
	assert.Contains(t, ds[0].Notes[0].Msg, "LAY4005: invalid data layout")
	assert.Contains(t, ds[0].Notes[0].Msg, `component "p:64"`)

	ds = diag.FromError("target", &layout.LayoutError{Kind: layout.LayoutErrDataLayout, Text: "x", Component: "x"})
	assert.Equal(t, diag.LayDataLayout, ds[0].Code)
}

func TestFromMaterializeError(t *testing.T) {
	m, err := samples.Build("fib")
	require.NoError(t, err)
	_, err = materialize.Materialize(context.Background(), m, &record.Backend{FailOn: "emit_block(fib"})
	require.Error(t, err)

	ds := diag.FromError("fib", err)
	require.Len(t, ds, 1)
	assert.Equal(t, diag.BckBodies, ds[0].Code)
	assert.Equal(t, "fib", ds[0].Primary.Func)
	assert.Equal(t, "entry", ds[0].Primary.Block)
	assert.Equal(t, "fib:@fib %entry", ds[0].Primary.String())
}

func TestFromOtherErrors(t *testing.T) {
	assert.Nil(t, diag.FromError("m", nil))

	ds := diag.FromError("m", &layout.LayoutError{Kind: layout.LayoutErrUnsized, Text: "void"})
	require.Len(t, ds, 1)
	assert.Equal(t, diag.LayUnsized, ds[0].Code)

	ds = diag.FromError("m", context.Canceled)
	assert.Equal(t, diag.BckCanceled, ds[0].Code)

	ds = diag.FromError("m", errors.New("boom"))
	assert.Equal(t, diag.UnknownCode, ds[0].Code)
	assert.Equal(t, "E0000", ds[0].Code.ID())
	assert.Equal(t, "Unknown error", diag.Code(9999).Title())
}

func TestBagSortDedupAndLimit(t *testing.T) {
	at := func(fn, block string, instr int) diag.Location {
		return diag.Location{Module: "m", Func: fn, Block: block, Instr: instr}
	}
	bag := diag.NewBag(4)
	added := bag.AddAll([]diag.Diagnostic{
		{Severity: diag.SevWarning, Code: diag.ValUnreachableBlock, Message: "b", Primary: at("g", "x", -1)},
		{Severity: diag.SevError, Code: diag.ValNotDominated, Message: "a", Primary: at("f", "entry", 2)},
		{Severity: diag.SevError, Code: diag.ValNotDominated, Message: "a", Primary: at("f", "entry", 2)},
		{Severity: diag.SevError, Code: diag.ValMissingTerminator, Message: "c", Primary: at("f", "entry", -1)},
		{Severity: diag.SevError, Code: diag.ValReturnType, Message: "dropped", Primary: at("a", "", -1)},
	})
	assert.Equal(t, 4, added)
	assert.True(t, bag.HasErrors())

	bag.Sort()
	bag.Dedup()
	require.Equal(t, 3, bag.Len())
	items := bag.Items()
	assert.Equal(t, diag.ValMissingTerminator, items[0].Code)
	assert.Equal(t, diag.ValNotDominated, items[1].Code)
	assert.Equal(t, diag.ValUnreachableBlock, items[2].Code)
}

func TestDedupReporterAndBuilder(t *testing.T) {
	bag := diag.NewBag(8)
	other := diag.NewBag(8)
	r := diag.NewDedupReporter(diag.MultiReporter{diag.BagReporter{Bag: bag}, diag.BagReporter{Bag: other}, nil})
	loc := diag.ModuleLocation("m")

	b := diag.ReportWarning(r, diag.IOCacheEntry, loc, "stale entry").WithNote(loc, "rebuilt")
	b.Emit()
	b.Emit()
	diag.ReportWarning(r, diag.IOCacheEntry, loc, "stale entry").Emit()

	require.Equal(t, 1, bag.Len())
	assert.Equal(t, 1, other.Len())
	assert.False(t, bag.HasErrors())
	assert.True(t, bag.HasWarnings())
	assert.Len(t, bag.Items()[0].Notes, 1)

	bag.Merge(other)
	assert.Equal(t, 2, bag.Len())
}
