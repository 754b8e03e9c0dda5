package boxtree

import "testing"

func TestChildSectantForAndBoundsRoundTrip(t *testing.T) {
	bounds := RootBounds(64)
	position := V3c[uint32]{X: 40, Y: 10, Z: 60}
	sectant := ChildSectantFor(bounds, position)
	childBounds := ChildBoundsFor(bounds, sectant)
	if !childBounds.Contains(position) {
		t.Errorf("expected child bounds %+v (sectant %d) to contain %+v", childBounds, sectant, position)
	}
}

func TestChildBoundsForCoversWholeParent(t *testing.T) {
	bounds := RootBounds(16)
	seen := make(map[uint32]bool)
	for s := uint8(0); s < BoxNodeChildren; s++ {
		cb := ChildBoundsFor(bounds, s)
		if cb.Size != bounds.Size/BoxNodeDim {
			t.Fatalf("sectant %d: expected child size %d, got %d", s, bounds.Size/BoxNodeDim, cb.Size)
		}
		key := cb.Min.X + cb.Min.Y*1000 + cb.Min.Z*1000000
		if seen[key] {
			t.Fatalf("sectant %d: duplicate child origin %+v", s, cb.Min)
		}
		seen[key] = true
	}
}

func TestMatrixIndexForClampsToBrickDim(t *testing.T) {
	bounds := Cube{Min: V3c[uint32]{}, Size: 8}
	idx := MatrixIndexFor(bounds, V3c[uint32]{X: 7, Y: 7, Z: 7}, 4)
	if idx.X != 3 || idx.Y != 3 || idx.Z != 3 {
		t.Errorf("expected last cell index (3,3,3), got %+v", idx)
	}
}

func TestSetOccupancyInBitmap64RoundTrip(t *testing.T) {
	var occ uint64
	SetOccupancyInBitmap64(V3c[uint32]{X: 2, Y: 2, Z: 2}, 1, 4, true, &occ)
	bit := BitPositionInBitmap64(2, 2, 2, 4)
	if occ&(uint64(1)<<bit) == 0 {
		t.Errorf("expected bit %d to be set after marking (2,2,2) occupied", bit)
	}
}

func TestHashDirectionBuckets(t *testing.T) {
	cases := []struct {
		dir  V3c[float32]
		want uint8
	}{
		{V3c[float32]{X: 1, Y: 1, Z: 1}, 7},
		{V3c[float32]{X: -1, Y: -1, Z: -1}, 0},
		{V3c[float32]{X: 1, Y: -1, Z: 1}, 5},
	}
	for _, c := range cases {
		if got := HashDirection(c.dir); got != c.want {
			t.Errorf("HashDirection(%+v) = %d, want %d", c.dir, got, c.want)
		}
	}
}

func TestRayCubeIntersectHitAndMiss(t *testing.T) {
	cube := Cube{Min: V3c[uint32]{X: 10, Y: 10, Z: 10}, Size: 10}
	origin := V3c[float32]{X: 0, Y: 15, Z: 15}
	dir := V3c[float32]{X: 1, Y: 0, Z: 0}
	tEntry, hit := rayCubeIntersect(origin, dir, cube)
	if !hit || tEntry < 9.9 || tEntry > 10.1 {
		t.Errorf("expected a hit around t=10, got hit=%v t=%v", hit, tEntry)
	}

	_, miss := rayCubeIntersect(origin, V3c[float32]{X: 0, Y: 0, Z: -1}, cube)
	if miss {
		t.Errorf("expected a ray moving away from the cube to miss")
	}
}
