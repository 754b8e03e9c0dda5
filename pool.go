package boxtree

import "math"

// PoolKey is a stable, dense small-integer handle into a Pool. The zero
// value is a valid key (the root node always lives at key 0); callers must
// not assume an unused key is invalid without calling KeyIsValid.
type PoolKey uint32

type poolSlot[T any] struct {
	reserved bool
	item     T
}

// Pool is an append-mostly, free-list-backed object store. It hands out
// dense u32 keys that stay stable until explicitly freed, at which point a
// later allocation may reuse the slot. Grounded on the reference
// ObjectPool<T> (object_pool.rs) and on gaissmai/bart's pool.go live/total
// accounting idiom.
type Pool[T any] struct {
	slots          []poolSlot[T]
	firstAvailable int

	totalAllocated int64
	live           int64
}

func NewPool[T any](capacity int) *Pool[T] {
	return &Pool[T]{
		slots: make([]poolSlot[T], 0, capacity),
	}
}

func (p *Pool[T]) isNextAvailable() bool {
	return p.firstAvailable+1 < len(p.slots) && !p.slots[p.firstAvailable+1].reserved
}

func (p *Pool[T]) checkFirstAvailable() bool {
	if p.firstAvailable < len(p.slots) && !p.slots[p.firstAvailable].reserved {
		return true
	}
	if p.isNextAvailable() {
		p.firstAvailable++
		return true
	}
	p.firstAvailable = len(p.slots)
	return false
}

// growthIncrement mirrors the reference pool's capacity growth curve:
// ~100*log10(n)^2/n for the current length n, with n floored at 10 and the
// increment never below 1.
func growthIncrement(n int) int {
	x := math.Max(float64(n), 10)
	inc := int((100. * math.Pow(math.Log10(x), 2)) / x)
	if inc < 1 {
		inc = 1
	}
	return inc
}

// Allocate reserves a slot holding the zero value of T and returns its key.
func (p *Pool[T]) Allocate() PoolKey {
	var key int
	if p.checkFirstAvailable() {
		key = p.firstAvailable
		p.slots[key].reserved = true
	} else {
		extra := growthIncrement(len(p.slots))
		if cap(p.slots)-len(p.slots) < extra {
			grown := make([]poolSlot[T], len(p.slots), len(p.slots)+extra)
			copy(grown, p.slots)
			p.slots = grown
		}
		var zero T
		p.slots = append(p.slots, poolSlot[T]{reserved: true, item: zero})
		key = len(p.slots) - 1
		p.totalAllocated++
	}
	if p.isNextAvailable() {
		p.firstAvailable++
	}
	p.live++
	return PoolKey(key)
}

// Push allocates a slot and initializes it with v, returning its key.
func (p *Pool[T]) Push(v T) PoolKey {
	key := p.Allocate()
	*p.GetMut(key) = v
	return key
}

// Free marks key's slot reusable. It is a no-op on an already-free or
// out-of-range key.
func (p *Pool[T]) Free(key PoolKey) {
	k := int(key)
	if k < 0 || k >= len(p.slots) || !p.slots[k].reserved {
		return
	}
	p.slots[k].reserved = false
	var zero T
	p.slots[k].item = zero
	if k < p.firstAvailable {
		p.firstAvailable = k
	}
	p.live--
}

// KeyIsValid reports whether key addresses a currently reserved slot.
func (p *Pool[T]) KeyIsValid(key PoolKey) bool {
	k := int(key)
	return k >= 0 && k < len(p.slots) && p.slots[k].reserved
}

// Get returns a pointer to the value at key. It panics if the key is not
// currently reserved, matching the reference's debug-assertion semantics for
// an invariant violation.
func (p *Pool[T]) Get(key PoolKey) *T {
	if !p.KeyIsValid(key) {
		panic("boxtree: Pool.Get on unreserved key")
	}
	return &p.slots[key].item
}

// GetMut is an alias of Get kept for symmetry with the reference API; Go has
// no separate mutable-reference type.
func (p *Pool[T]) GetMut(key PoolKey) *T {
	return p.Get(key)
}

// Stats reports the number of currently live (reserved) slots and the total
// number of slots ever allocated, for diagnostics.
func (p *Pool[T]) Stats() (live, total int64) {
	return p.live, p.totalAllocated
}

func (p *Pool[T]) Len() int { return len(p.slots) }

// Snapshot returns a copy of the pool's slot reservation flags and values, in
// key order, for serialization.
func (p *Pool[T]) Snapshot() (reserved []bool, items []T) {
	reserved = make([]bool, len(p.slots))
	items = make([]T, len(p.slots))
	for i, s := range p.slots {
		reserved[i] = s.reserved
		items[i] = s.item
	}
	return reserved, items
}

// Restore rebuilds the pool from a prior Snapshot, preserving key stability
// (slot i keeps key i).
func (p *Pool[T]) Restore(reserved []bool, items []T) {
	p.slots = make([]poolSlot[T], len(items))
	p.firstAvailable = 0
	p.live = 0
	p.totalAllocated = int64(len(items))
	for i := range items {
		p.slots[i] = poolSlot[T]{reserved: reserved[i], item: items[i]}
		if reserved[i] {
			p.live++
		}
	}
	for p.firstAvailable < len(p.slots) && p.slots[p.firstAvailable].reserved {
		p.firstAvailable++
	}
}
