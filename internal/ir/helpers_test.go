package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"irkit/internal/types"
)

type fixture struct {
	m   *Module
	b   *Builder
	i1  types.TypeID
	i32 types.TypeID
	i64 types.TypeID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := NewModule("test")
	i64, err := m.IntType(64)
	require.NoError(t, err)
	return &fixture{
		m:   m,
		b:   NewBuilder(m),
		i1:  m.Types().Builtins().I1,
		i32: m.Types().Builtins().I32,
		i64: i64,
	}
}

func (fx *fixture) sig(t *testing.T, result types.TypeID, params ...types.TypeID) types.TypeID {
	t.Helper()
	id, err := fx.m.FuncType(result, params, false)
	require.NoError(t, err)
	return id
}

func (fx *fixture) fn(t *testing.T, name string, result types.TypeID, params ...types.TypeID) FuncID {
	t.Helper()
	id, err := fx.m.NewFunction(name, fx.sig(t, result, params...))
	require.NoError(t, err)
	return id
}

func (fx *fixture) block(t *testing.T, fn FuncID, name string) BlockID {
	t.Helper()
	id, err := fx.m.NewBlock(fn, name)
	require.NoError(t, err)
	return id
}

func (fx *fixture) param(t *testing.T, fn FuncID, name string) ValueID {
	t.Helper()
	id, err := fx.m.AddParam(fn, name)
	require.NoError(t, err)
	return id
}

func (fx *fixture) c32(t *testing.T, v int64) ValueID {
	t.Helper()
	id, err := fx.m.ConstInt(fx.i32, v)
	require.NoError(t, err)
	return id
}

func (fx *fixture) at(block BlockID) *Builder {
	fx.b.SetInsertPoint(block)
	return fx.b
}

func requireKind(t *testing.T, err error, want error) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, want)
	var be *BuildError
	require.ErrorAs(t, err, &be)
}

// validationCodes returns the codes of every violation in err.
func validationCodes(t *testing.T, err error) []ValidationCode {
	t.Helper()
	if err == nil {
		return nil
	}
	var list ValidationErrorList
	require.ErrorAs(t, err, &list)
	out := make([]ValidationCode, len(list))
	for i, e := range list {
		out[i] = e.Code
	}
	return out
}
