package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"irkit/internal/observ"
	"irkit/internal/samples"
)

func TestKeyIsStableAndSensitive(t *testing.T) {
	a, err := samples.Build("fib")
	require.NoError(t, err)
	b, err := samples.Build("fib")
	require.NoError(t, err)
	other, err := samples.Build("hello")
	require.NoError(t, err)

	ka, err := KeyFor(a, "llvm-ir", "1.0.0")
	require.NoError(t, err)
	kb, err := KeyFor(b, "llvm-ir", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, ka, kb)
	assert.False(t, ka.IsZero())
	assert.Len(t, ka.String(), 64)

	kc, err := KeyFor(a, "calls", "1.0.0")
	require.NoError(t, err)
	assert.NotEqual(t, ka, kc)
	kv, err := KeyFor(a, "llvm-ir", "1.0.1")
	require.NoError(t, err)
	assert.NotEqual(t, ka, kv)
	ko, err := KeyFor(other, "llvm-ir", "1.0.0")
	require.NoError(t, err)
	assert.NotEqual(t, ka, ko)
}

func TestPutGetRoundTrip(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	var key Key
	key[0] = 1

	ok, err := c.Get(key, &Entry{})
	require.NoError(t, err)
	assert.False(t, ok)

	in := &Entry{
		RunID:   "run",
		Module:  "fib",
		Kind:    "llvm-ir",
		Data:    []byte("define i32 @fib"),
		Timings: observ.Report{TotalMS: 1.5, Phases: []observ.PhaseReport{{Name: "emit", DurationMS: 1.5}}},
	}
	require.NoError(t, c.Put(key, in))
	_, err = uuid.Parse(in.ID)
	require.NoError(t, err)

	var out Entry
	ok, err = c.Get(key, &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, "fib", out.Module)
	assert.Equal(t, in.Timings, out.Timings)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))

	art := out.Artifact()
	assert.Equal(t, "llvm-ir", art.Kind())
	assert.Equal(t, "define i32 @fib", string(art.Bytes()))

	require.NoError(t, c.DropAll())
	ok, err = c.Get(key, &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSchemaMismatchIsAMiss(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	var key Key
	key[31] = 7

	p := c.pathFor(key)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	data, err := msgpack.Marshal(&Entry{Schema: schemaVersion + 1, Module: "old"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, data, 0o644))

	ok, err := c.Get(key, &Entry{})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(p, []byte{0xc1}, 0o644))
	_, err = c.Get(key, &Entry{})
	assert.Error(t, err)
}

func TestNilCache(t *testing.T) {
	var c *DiskCache
	require.NoError(t, c.Put(Key{}, &Entry{}))
	ok, err := c.Get(Key{}, &Entry{})
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, c.DropAll())
}
