package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaRoundTrip(t *testing.T) {
	a := NewArena[string](NewScope())
	first, err := a.Push("a")
	require.NoError(t, err)
	second, err := a.Push("b")
	require.NoError(t, err)

	require.NotZero(t, first)
	require.NotEqual(t, first, second)

	v, ok := a.Get(second)
	require.True(t, ok)
	assert.Equal(t, "b", *v)
	assert.Equal(t, 2, a.Len())
}

func TestArenaRejectsForeignIdentity(t *testing.T) {
	a := NewArena[int](NewScope())
	b := NewArena[int](NewScope())
	id, err := b.Push(7)
	require.NoError(t, err)

	_, ok := a.Get(id)
	assert.False(t, ok)
	assert.False(t, a.Owns(0))
}

func TestSplitZero(t *testing.T) {
	s, idx := Split(0)
	assert.Equal(t, Scope(0), s)
	assert.Equal(t, -1, idx)
}
