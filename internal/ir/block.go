package ir

import (
	"fmt"
	"strconv"
)

// Block is a basic block: a straight-line instruction sequence ending in a
// terminator.
type Block struct {
	ID     BlockID
	Name   string
	Func   FuncID
	Instrs []InstrID

	terminated bool
}

func (b *Block) clone() Block {
	out := *b
	out.Instrs = append([]InstrID(nil), b.Instrs...)
	return out
}

// Terminated reports whether the block already ends in a terminator.
func (b Block) Terminated() bool { return b.terminated }

// NewBlock appends a block to fn. The first block of a function is its
// entry. An empty name is replaced with bbN.
func (m *Module) NewBlock(fn FuncID, name string) (BlockID, error) {
	const op = "NewBlock"
	if err := m.mutable(op); err != nil {
		return NoBlockID, err
	}
	f, ok := m.funcs.Get(uint64(fn))
	if !ok {
		return NoBlockID, buildErr(ErrKindUnknownFunction, op, fmt.Sprintf("function %#x", uint64(fn)), "")
	}
	canon, err := canonicalLocal(op, name)
	if err != nil {
		return NoBlockID, err
	}
	if canon == "" {
		for n := len(f.Blocks); ; n++ {
			canon = "bb" + strconv.Itoa(n)
			if _, taken := f.blockNames[canon]; !taken {
				break
			}
		}
	} else if _, taken := f.blockNames[canon]; taken {
		return NoBlockID, buildErr(ErrKindDuplicateName, op, "@"+f.Name+" %"+canon, "block name already used in function")
	}
	raw, err := m.blocks.Push(Block{Name: canon, Func: fn})
	if err != nil {
		return NoBlockID, fmt.Errorf("block table overflow: %w", err)
	}
	id := BlockID(raw)
	b, _ := m.blocks.Get(raw)
	b.ID = id
	f.Blocks = append(f.Blocks, id)
	f.blockNames[canon] = id
	return id, nil
}

// ResolveBlock resolves a branch target within fn.
func (m *Module) ResolveBlock(fn FuncID, ref BlockRef) (BlockID, bool) {
	f, ok := m.funcs.Get(uint64(fn))
	if !ok {
		return NoBlockID, false
	}
	return m.resolveIn(f, ref)
}

func (m *Module) resolveIn(f *Func, ref BlockRef) (BlockID, bool) {
	if ref.ID != NoBlockID {
		b, ok := m.blocks.Get(uint64(ref.ID))
		if !ok || b.Func != f.ID {
			return NoBlockID, false
		}
		return ref.ID, true
	}
	if ref.Name == "" {
		return NoBlockID, false
	}
	id, ok := f.blockNames[canonicalOrRaw(ref.Name)]
	return id, ok
}

// blockLabel renders a block for error messages.
func (m *Module) blockLabel(id BlockID) string {
	b, ok := m.blocks.Get(uint64(id))
	if !ok {
		return fmt.Sprintf("block %#x", uint64(id))
	}
	return "%" + b.Name
}
