package samples

import (
	"irkit/internal/ir"
	"irkit/internal/types"
)

// kit wraps a module and a builder and keeps the first error, so sample
// construction reads top to bottom. Every method is a no-op once an error
// has been recorded.
type kit struct {
	m   *ir.Module
	b   *ir.Builder
	err error
}

func newKit(name string) *kit {
	m := ir.NewModule(name)
	k := &kit{m: m, b: ir.NewBuilder(m)}
	k.check(m.SetTarget(DefaultTriple, ""))
	return k
}

func (k *kit) check(err error) {
	if k.err == nil && err != nil {
		k.err = err
	}
}

func (k *kit) ty(id types.TypeID, err error) types.TypeID {
	k.check(err)
	return id
}

func (k *kit) val(id ir.ValueID, err error) ir.ValueID {
	k.check(err)
	return id
}

func (k *kit) i32(v int64) ir.ValueID {
	return k.val(k.m.ConstInt(k.m.Types().Builtins().I32, v))
}

func (k *kit) fn(name string, sig types.TypeID, params ...string) (ir.FuncID, []ir.ValueID) {
	if k.err != nil {
		return ir.NoFuncID, nil
	}
	f, err := k.m.NewFunction(name, sig)
	k.check(err)
	vals := make([]ir.ValueID, len(params))
	for i, p := range params {
		vals[i] = k.val(k.m.AddParam(f, p))
	}
	return f, vals
}

func (k *kit) blocks(f ir.FuncID, names ...string) []ir.BlockID {
	out := make([]ir.BlockID, len(names))
	for i, n := range names {
		if k.err != nil {
			break
		}
		id, err := k.m.NewBlock(f, n)
		k.check(err)
		out[i] = id
	}
	return out
}

func (k *kit) at(b ir.BlockID) *ir.Builder {
	k.b.SetInsertPoint(b)
	return k.b
}

func (k *kit) done() (*ir.Module, error) {
	if k.err != nil {
		return nil, k.err
	}
	return k.m, nil
}
