package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irkit/internal/types"
)

func TestFprintDump(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.m.SetTarget("x86_64-unknown-linux-gnu", ""))
	msg, err := fx.m.ConstString("hi", true)
	require.NoError(t, err)
	msgTy, _ := fx.m.ValueType(msg)
	g, err := fx.m.NewGlobal("msg", msgTy, msg)
	require.NoError(t, err)
	require.NoError(t, fx.m.SetGlobalConstant(g, true))
	require.NoError(t, fx.m.SetGlobalLinkage(g, LinkagePrivate))
	buildMax(t, fx)

	out := String(fx.m)
	want := []string{
		`; module "test"`,
		`target triple = "x86_64-unknown-linux-gnu"`,
		`@msg = private constant [3 x i8] c"hi\x00"`,
		`define i32 @max(i32 %a, i32 %b) {`,
		`  %0 = icmp sgt i32 %a, %b`,
		`  br i1 %0, label %then, label %else`,
		`  %r = phi i32 [ %a, %then ], [ %b, %else ]`,
		`  ret i32 %r`,
	}
	for _, line := range want {
		assert.Contains(t, out, line)
	}
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestFprintDeclaration(t *testing.T) {
	fx := newFixture(t)
	i8p, err := fx.m.PointerType(fx.m.Types().Builtins().I8)
	require.NoError(t, err)
	sig, err := fx.m.FuncType(fx.i32, []types.TypeID{i8p}, true)
	require.NoError(t, err)
	_, err = fx.m.NewFunction("printf", sig)
	require.NoError(t, err)
	assert.Contains(t, String(fx.m), "declare i32 @printf(i8*, ...)")
}
