package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMax builds
//
//	define i32 @max(i32 %a, i32 %b) {
//	entry: %c = icmp sgt %a, %b ; br %c, %then, %else
//	then:  br %join
//	else:  br %join
//	join:  %r = phi [%a, %then], [%b, %else] ; ret %r
//	}
//
// with every branch written before its target block exists.
func buildMax(t *testing.T, fx *fixture) FuncID {
	t.Helper()
	f := fx.fn(t, "max", fx.i32, fx.i32, fx.i32)
	a := fx.param(t, f, "a")
	bv := fx.param(t, f, "b")

	b := fx.at(fx.block(t, f, "entry"))
	c, err := b.ICmp(IntSGT, a, bv)
	require.NoError(t, err)
	require.NoError(t, b.CondBr(c, Label("then"), Label("else")))

	fx.at(fx.block(t, f, "then"))
	require.NoError(t, fx.b.Br(Label("join")))
	fx.at(fx.block(t, f, "else"))
	require.NoError(t, fx.b.Br(Label("join")))

	fx.at(fx.block(t, f, "join"))
	r, err := fx.b.Named("r").Phi(fx.i32,
		Incoming{Value: a, From: Label("then")},
		Incoming{Value: bv, From: Label("else")})
	require.NoError(t, err)
	require.NoError(t, fx.b.Ret(r))
	return f
}

func TestValidateForwardBlockReferences(t *testing.T) {
	fx := newFixture(t)
	buildMax(t, fx)
	require.NoError(t, Validate(fx.m))
}

func TestValidateUnresolvedLabel(t *testing.T) {
	fx := newFixture(t)
	f := fx.fn(t, "f", fx.m.VoidType())
	require.NoError(t, fx.at(fx.block(t, f, "entry")).Br(Label("nowhere")))

	err := Validate(fx.m)
	assert.Equal(t, []ValidationCode{CodeUnresolvedTarget}, validationCodes(t, err))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "f", ve.Func)
	assert.Equal(t, "entry", ve.Block)
	assert.Equal(t, 0, ve.Instr)
}

func TestValidateMissingTerminatorAndUnreachable(t *testing.T) {
	fx := newFixture(t)
	f := fx.fn(t, "f", fx.m.VoidType())
	fx.block(t, f, "entry")
	orphan := fx.block(t, f, "orphan")
	require.NoError(t, fx.at(orphan).RetVoid())

	codes := validationCodes(t, Validate(fx.m))
	assert.ElementsMatch(t, []ValidationCode{CodeMissingTerminator, CodeUnreachableBlock}, codes)
}

func TestValidateEntryWithPredecessors(t *testing.T) {
	fx := newFixture(t)
	f := fx.fn(t, "loop", fx.m.VoidType())
	entry := fx.block(t, f, "entry")
	require.NoError(t, fx.at(entry).Br(Target(entry)))
	assert.Equal(t, []ValidationCode{CodeEntryHasPredecessors}, validationCodes(t, Validate(fx.m)))
}

func TestValidateDominance(t *testing.T) {
	fx := newFixture(t)
	f := fx.fn(t, "f", fx.i32, fx.i1, fx.i32)
	cond := fx.param(t, f, "cond")
	x := fx.param(t, f, "x")

	require.NoError(t, fx.at(fx.block(t, f, "entry")).CondBr(cond, Label("left"), Label("right")))

	fx.at(fx.block(t, f, "left"))
	sum, err := fx.b.Add(x, x)
	require.NoError(t, err)
	require.NoError(t, fx.b.Br(Label("join")))

	fx.at(fx.block(t, f, "right"))
	require.NoError(t, fx.b.Br(Label("join")))

	// %sum is defined on one arm only.
	fx.at(fx.block(t, f, "join"))
	require.NoError(t, fx.b.Ret(sum))

	err = Validate(fx.m)
	assert.Equal(t, []ValidationCode{CodeNotDominated}, validationCodes(t, err))
	assert.Contains(t, err.Error(), "@f %join #0")
}

func TestValidateUseBeforeDefInSameBlock(t *testing.T) {
	fx := newFixture(t)
	f := fx.fn(t, "f", fx.i32, fx.i32)
	x := fx.param(t, f, "x")
	entry := fx.block(t, f, "entry")
	loop := fx.block(t, f, "loop")
	exit := fx.block(t, f, "exit")
	require.NoError(t, fx.at(entry).Br(Target(loop)))

	// phi can refer to a value defined later in its own block through the
	// back edge.
	fx.at(loop)
	i, err := fx.b.Phi(fx.i32, Incoming{Value: x, From: Target(entry)})
	require.NoError(t, err)
	next, err := fx.b.Sub(i, fx.c32(t, 1))
	require.NoError(t, err)
	require.NoError(t, fx.m.AddIncoming(i, Incoming{Value: next, From: Target(loop)}))
	done, err := fx.b.ICmp(IntEQ, next, fx.c32(t, 0))
	require.NoError(t, err)
	require.NoError(t, fx.b.CondBr(done, Target(exit), Target(loop)))

	require.NoError(t, fx.at(exit).Ret(next))
	require.NoError(t, Validate(fx.m))
}

func TestValidatePhiIncomingMustMatchPredecessors(t *testing.T) {
	fx := newFixture(t)
	g := fx.fn(t, "g", fx.i32, fx.i1)
	c := fx.param(t, g, "c")
	require.NoError(t, fx.at(fx.block(t, g, "entry")).CondBr(c, Label("a"), Label("b")))
	fx.at(fx.block(t, g, "a"))
	require.NoError(t, fx.b.Br(Label("join")))
	fx.at(fx.block(t, g, "b"))
	require.NoError(t, fx.b.Br(Label("join")))
	fx.at(fx.block(t, g, "join"))
	phi, err := fx.b.Phi(fx.i32,
		Incoming{Value: fx.c32(t, 1), From: Label("a")},
		Incoming{Value: fx.c32(t, 2), From: Label("entry")})
	require.NoError(t, err)
	require.NoError(t, fx.b.Ret(phi))

	err = Validate(fx.m)
	assert.Equal(t, []ValidationCode{CodePhiIncoming, CodePhiIncoming}, validationCodes(t, err))
	assert.Contains(t, err.Error(), "incoming block %entry is not a predecessor")
	assert.Contains(t, err.Error(), "no incoming value for predecessor %b")
}

func TestValidateUnresolvedForwardGlobal(t *testing.T) {
	fx := newFixture(t)
	sig := fx.sig(t, fx.i32)
	ref, err := fx.m.ForwardGlobal("missing", sig)
	require.NoError(t, err)
	f := fx.fn(t, "main", fx.i32)
	b := fx.at(fx.block(t, f, "entry"))
	r, err := b.Call(ref)
	require.NoError(t, err)
	require.NoError(t, b.Ret(r))

	assert.Equal(t, []ValidationCode{CodeUnresolvedGlobal}, validationCodes(t, Validate(fx.m)))

	_, err = fx.m.NewFunction("missing", sig)
	require.NoError(t, err)
	require.NoError(t, Validate(fx.m))
}

func TestValidateReportsInFunctionOrder(t *testing.T) {
	fx := newFixture(t)
	for _, name := range []string{"c", "a", "b"} {
		f := fx.fn(t, name, fx.m.VoidType())
		fx.block(t, f, "entry")
	}
	err := Validate(fx.m)
	var list ValidationErrorList
	require.ErrorAs(t, err, &list)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].Func)
	assert.Equal(t, "a", list[1].Func)
	assert.Equal(t, "b", list[2].Func)
}

func TestValidateDeclarationsOnly(t *testing.T) {
	fx := newFixture(t)
	fx.fn(t, "puts", fx.i32, fx.i32)
	require.NoError(t, Validate(fx.m))
	require.NoError(t, Validate(nil))
}
