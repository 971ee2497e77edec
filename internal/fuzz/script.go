package fuzztests

import (
	"fmt"

	"irkit/internal/ir"
	"irkit/internal/types"
)

const (
	maxFuzzInput = 4 << 10
	maxBlocks    = 6
)

// script replays fuzz bytes as builder calls against a single function
// i32 f(i32 x). Builder errors are expected and ignored.
type script struct {
	in  []byte
	pos int
}

func (s *script) next() byte {
	if s.pos >= len(s.in) {
		return 0
	}
	b := s.in[s.pos]
	s.pos++
	return b
}

func (s *script) done() bool { return s.pos >= len(s.in) }

func buildScript(input []byte) *ir.Module {
	s := &script{in: input}
	m := ir.NewModule("fuzz")
	i32 := m.Types().Builtins().I32
	sig, err := m.FuncType(i32, []types.TypeID{i32}, false)
	if err != nil {
		return m
	}
	f, err := m.NewFunction("f", sig)
	if err != nil {
		return m
	}
	x, err := m.AddParam(f, "x")
	if err != nil {
		return m
	}

	n := 1 + int(s.next())%maxBlocks
	blocks := make([]ir.BlockID, 0, n)
	for i := 0; i < n; i++ {
		id, err := m.NewBlock(f, fmt.Sprintf("b%d", i))
		if err != nil {
			return m
		}
		blocks = append(blocks, id)
	}

	vals := []ir.ValueID{x}
	pick := func() ir.ValueID { return vals[int(s.next())%len(vals)] }
	dest := func() ir.BlockRef {
		i := int(s.next())
		if i%16 == 15 {
			return ir.Label("missing")
		}
		return ir.Target(blocks[i%len(blocks)])
	}
	keep := func(v ir.ValueID, err error) {
		if err == nil {
			vals = append(vals, v)
		}
	}

	b := ir.NewBuilder(m)
	for _, blk := range blocks {
		b.SetInsertPoint(blk)
		for steps := 0; steps < 8 && !s.done(); steps++ {
			switch s.next() % 10 {
			case 0:
				keep(m.ConstInt(i32, int64(int8(s.next()))))
			case 1:
				keep(b.Add(pick(), pick()))
			case 2:
				keep(b.Mul(pick(), pick()))
			case 3:
				keep(b.Xor(pick(), pick()))
			case 4:
				keep(b.Phi(i32, ir.Incoming{Value: pick(), From: dest()}))
			case 5:
				cond, err := b.ICmp(ir.IntSLT, pick(), pick())
				if err == nil {
					_ = b.CondBr(cond, dest(), dest())
				}
			case 6:
				_ = b.Br(dest())
			case 7:
				_ = b.Ret(pick())
			case 8:
				_ = b.Switch(pick(), dest())
			default:
				// leave the block open
			}
		}
	}
	return m
}
