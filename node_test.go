package boxtree

import "testing"

func TestBrickSolidCollapsesEmptyToEmpty(t *testing.T) {
	b := NewSolidBrick(EmptyPix)
	if b.Kind != BrickEmpty {
		t.Errorf("expected Solid(EmptyPix) to collapse to Empty, got kind %v", b.Kind)
	}
}

func TestBrickSetAtPromotesToParted(t *testing.T) {
	const dim = 4
	b := NewSolidBrick(PaletteIndex{Color: 1})
	idx := FlatIndex(V3c[uint32]{X: 1, Y: 0, Z: 0}, dim)
	b = b.SetAt(idx, PaletteIndex{Color: 2}, dim)
	if b.Kind != BrickParted {
		t.Fatalf("expected write of a differing value to promote to Parted, got %v", b.Kind)
	}
	if b.At(idx) != (PaletteIndex{Color: 2}) {
		t.Errorf("expected written voxel to read back as written")
	}
	if b.At(0) != (PaletteIndex{Color: 1}) {
		t.Errorf("expected untouched voxel to keep the prior uniform value")
	}
}

func TestBrickSimplifyCollapsesUniformParted(t *testing.T) {
	const dim = 2
	parted := newPartedBrick(dim)
	for i := range parted.Parted {
		parted.Parted[i] = PaletteIndex{Color: 9}
	}
	simplified := parted.Simplify()
	if simplified.Kind != BrickSolid || simplified.Solid != (PaletteIndex{Color: 9}) {
		t.Errorf("expected uniform Parted brick to collapse to Solid(9), got %+v", simplified)
	}
}

func TestBrickSimplifyLeavesHeterogeneousPartedAlone(t *testing.T) {
	const dim = 2
	parted := newPartedBrick(dim)
	parted.Parted[0] = PaletteIndex{Color: 1}
	parted.Parted[1] = PaletteIndex{Color: 2}
	simplified := parted.Simplify()
	if simplified.Kind != BrickParted {
		t.Errorf("expected heterogeneous Parted brick to stay Parted, got %v", simplified.Kind)
	}
}

func TestBrickOccupancyEmptyIsZero(t *testing.T) {
	b := EmptyBrick()
	isEmpty := func(p PaletteIndex) bool { return p == EmptyPix }
	if occ := b.Occupancy(4, isEmpty); occ != 0 {
		t.Errorf("expected empty brick occupancy to be 0, got %x", occ)
	}
}

func TestBrickOccupancySolidIsFull(t *testing.T) {
	b := NewSolidBrick(PaletteIndex{Color: 1})
	isEmpty := func(p PaletteIndex) bool { return p == EmptyPix }
	if occ := b.Occupancy(4, isEmpty); occ != ^uint64(0) {
		t.Errorf("expected solid non-empty brick occupancy to be all-ones, got %x", occ)
	}
}

func TestBrickEqualIgnoresRepresentation(t *testing.T) {
	const dim = 2
	solid := NewSolidBrick(PaletteIndex{Color: 3})
	parted := newPartedBrick(dim)
	for i := range parted.Parted {
		parted.Parted[i] = PaletteIndex{Color: 3}
	}
	if !solid.Equal(parted) {
		t.Errorf("expected a uniform Parted brick to compare equal to an equivalent Solid brick")
	}
}

func TestNewChildrenAllInvalid(t *testing.T) {
	nodes := newChildrenAllInvalid()
	for i, k := range nodes {
		if k != invalidPoolKey {
			t.Errorf("expected slot %d to be the invalid sentinel, got %d", i, k)
		}
	}
}
