package boxtree

import "testing"

func TestPoolPushGet(t *testing.T) {
	p := NewPool[int](4)
	k := p.Push(42)
	if got := *p.Get(k); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if !p.KeyIsValid(k) {
		t.Errorf("expected key %d to be valid", k)
	}
}

func TestPoolFreeReusesSlot(t *testing.T) {
	p := NewPool[int](4)
	a := p.Push(1)
	b := p.Push(2)
	p.Free(a)
	if p.KeyIsValid(a) {
		t.Errorf("expected key %d to be invalid after Free", a)
	}
	c := p.Push(3)
	if c != a {
		t.Errorf("expected freed slot %d to be reused, got new key %d", a, c)
	}
	if got := *p.Get(b); got != 2 {
		t.Errorf("expected key %d to still hold 2, got %d", b, got)
	}
}

func TestPoolGetPanicsOnFreeKey(t *testing.T) {
	p := NewPool[int](4)
	k := p.Push(1)
	p.Free(k)
	defer func() {
		if recover() == nil {
			t.Errorf("expected Get on a freed key to panic")
		}
	}()
	p.Get(k)
}

func TestPoolStats(t *testing.T) {
	p := NewPool[int](4)
	a := p.Push(1)
	p.Push(2)
	p.Free(a)
	live, total := p.Stats()
	if live != 1 {
		t.Errorf("expected 1 live slot, got %d", live)
	}
	if total != 2 {
		t.Errorf("expected 2 total allocations, got %d", total)
	}
}

func TestPoolSnapshotRestore(t *testing.T) {
	p := NewPool[int](4)
	a := p.Push(10)
	b := p.Push(20)
	p.Free(a)

	reserved, items := p.Snapshot()

	restored := NewPool[int](0)
	restored.Restore(reserved, items)

	if restored.KeyIsValid(a) {
		t.Errorf("expected freed key %d to stay invalid after restore", a)
	}
	if got := *restored.Get(b); got != 20 {
		t.Errorf("expected restored key %d to hold 20, got %d", b, got)
	}
	c := restored.Push(30)
	if c != a {
		t.Errorf("expected restored pool to reuse freed slot %d, got %d", a, c)
	}
}

func TestGrowthIncrementFloor(t *testing.T) {
	if inc := growthIncrement(0); inc < 1 {
		t.Errorf("growth increment must never be below 1, got %d", inc)
	}
}
