// Package ids hands out module-scoped identities.
//
// Every identity packs the scope of its owning module into the high 32 bits
// and a 1-based arena slot into the low 32 bits, so zero is never a valid
// identity and an id minted by one module is recognisably foreign to another.
package ids

import (
	"fmt"
	"sync/atomic"

	"fortio.org/safecast"
)

// Scope identifies the module that minted an identity.
type Scope uint32

var lastScope atomic.Uint32

// NewScope returns a process-unique scope.
func NewScope() Scope {
	return Scope(lastScope.Add(1))
}

// Make packs scope and a 0-based arena index into an identity.
func Make(s Scope, index int) (uint64, error) {
	slot, err := safecast.Conv[uint32](index + 1)
	if err != nil {
		return 0, fmt.Errorf("arena index %d overflow: %w", index, err)
	}
	return uint64(s)<<32 | uint64(slot), nil
}

// Split returns the scope and 0-based index of id. The index is -1 for the
// zero identity.
func Split(id uint64) (Scope, int) {
	return Scope(id >> 32), int(uint32(id)) - 1
}

// Arena stores values addressed by identities of a single scope.
type Arena[T any] struct {
	scope Scope
	items []T
}

// NewArena returns an empty arena minting identities in scope s.
func NewArena[T any](s Scope) *Arena[T] {
	return &Arena[T]{scope: s}
}

// Scope returns the scope the arena mints identities in.
func (a *Arena[T]) Scope() Scope {
	return a.scope
}

// Push appends v and returns its identity.
func (a *Arena[T]) Push(v T) (uint64, error) {
	id, err := Make(a.scope, len(a.items))
	if err != nil {
		return 0, err
	}
	a.items = append(a.items, v)
	return id, nil
}

// Get returns a pointer to the value stored under id. It reports false for
// the zero identity, foreign identities and out-of-range slots.
func (a *Arena[T]) Get(id uint64) (*T, bool) {
	s, idx := Split(id)
	if s != a.scope || idx < 0 || idx >= len(a.items) {
		return nil, false
	}
	return &a.items[idx], true
}

// Owns reports whether id was minted by this arena.
func (a *Arena[T]) Owns(id uint64) bool {
	_, ok := a.Get(id)
	return ok
}

// Len returns the number of stored values.
func (a *Arena[T]) Len() int {
	return len(a.items)
}

// At returns the identity and value at a 0-based index.
func (a *Arena[T]) At(index int) (uint64, *T) {
	id, err := Make(a.scope, index)
	if err != nil {
		return 0, nil
	}
	return id, &a.items[index]
}
