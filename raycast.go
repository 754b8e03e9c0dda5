package boxtree

import "math"

// Ray is a directed ray; Direction need not be pre-normalized by the caller
// (GetByRay sanitizes zero components per spec.md §4.H).
type Ray struct {
	Origin    V3c[float32]
	Direction V3c[float32]
}

// rayToNodeMask/rayToLeafMask are the direction-bucketed reachability LUTs
// of spec.md §4.H: rayToNodeMask[s][d] has bit c set iff a child/voxel at
// 4x4x4 digit position c can still be hit after entering a node/brick at
// digit position s while marching in direction bucket d (spec.md 8 buckets,
// HashDirection). Node sectants and brick occupancy cells share the same
// 4x4x4 digit layout, so one generator produces both tables.
var rayToNodeMask [BoxNodeChildren][8]uint64
var rayToLeafMask [BoxNodeChildren][8]uint64

func init() {
	table := buildReachabilityMask()
	rayToNodeMask = table
	rayToLeafMask = table
}

func buildReachabilityMask() [BoxNodeChildren][8]uint64 {
	var table [BoxNodeChildren][8]uint64
	for entry := 0; entry < BoxNodeChildren; entry++ {
		ex, ey, ez := sectantDigits(uint8(entry))
		for dir := 0; dir < 8; dir++ {
			sx := axisSign(dir, 0)
			sy := axisSign(dir, 1)
			sz := axisSign(dir, 2)
			var mask uint64
			for c := 0; c < BoxNodeChildren; c++ {
				cx, cy, cz := sectantDigits(uint8(c))
				if reachableDigit(ex, cx, sx) && reachableDigit(ey, cy, sy) && reachableDigit(ez, cz, sz) {
					mask |= uint64(1) << uint(c)
				}
			}
			table[entry][dir] = mask
		}
	}
	return table
}

func sectantDigits(s uint8) (uint8, uint8, uint8) {
	return s % BoxNodeDim, (s / BoxNodeDim) % BoxNodeDim, s / (BoxNodeDim * BoxNodeDim)
}

// axisSign returns the sign of dir bucket `dir`'s component along `axis`
// (0=x,1=y,2=z), matching HashDirection's bit layout.
func axisSign(dir, axis int) int {
	if dir&(1<<uint(axis)) != 0 {
		return 1
	}
	return -1
}

// reachableDigit reports whether digit c remains reachable after entering at
// digit e while marching with sign s along this axis: only digits at or
// ahead of e, in the direction of travel, are still in front of the ray.
func reachableDigit(e, c uint8, s int) bool {
	if s >= 0 {
		return c >= e
	}
	return c <= e
}

// GetByRay returns the first voxel hit along ray, or ok=false if the ray
// never enters occupied space (spec.md §4.H).
func (t *Tree[T]) GetByRay(ray Ray) (entry Entry[T], point V3c[float32], normal V3c[float32], ok bool) {
	dir := sanitizeDirection(ray.Direction)
	dirIdx := HashDirection(dir)
	bounds := t.rootBounds()

	t0, hit := rayCubeIntersect(ray.Origin, dir, bounds)
	if !hit {
		return EntryEmpty[T](), V3c[float32]{}, V3c[float32]{}, false
	}

	const epsilon = 1e-4
	maxSteps := int(t.size)*8 + 256

	for step := 0; step < maxSteps; step++ {
		p := ray.Origin.Add(dir.MulScalar(t0 + epsilon))
		if !bounds.ContainsF(p) {
			return EntryEmpty[T](), V3c[float32]{}, V3c[float32]{}, false
		}
		pos := V3cF32ToU32(p)
		pix, cell := t.probe(rootNodeKey, bounds, pos, dirIdx)
		if !t.isEmptyPix(pix) {
			return t.palette.PixEntry(pix), p, cubeImpactNormal(p, cell, dir), true
		}
		exitT := cubeExitDistance(ray.Origin, dir, cell)
		if exitT <= t0 {
			exitT = t0 + epsilon
		}
		t0 = exitT
	}
	return EntryEmpty[T](), V3c[float32]{}, V3c[float32]{}, false
}

// probe walks from key/bounds to the terminal content covering pos, exploiting
// occupancy bitmaps to report back the bounds of however large an empty
// region was found (a whole unoccupied node when none of its reachable
// sectants hold data, a single sectant otherwise, or a single brick cell).
func (t *Tree[T]) probe(key PoolKey, bounds Cube, pos V3c[uint32], dirIdx uint8) (PaletteIndex, Cube) {
	content := t.content(key)
	switch content.Kind {
	case NodeNothing:
		return EmptyPix, bounds

	case NodeInternal:
		sectant := ChildSectantFor(bounds, pos)
		sectantBounds := ChildBoundsFor(bounds, sectant)
		if content.Occ&(uint64(1)<<uint(sectant)) == 0 {
			if content.Occ&rayToNodeMask[sectant][dirIdx] == 0 {
				return EmptyPix, bounds
			}
			return EmptyPix, sectantBounds
		}
		childKey, ok := t.childAt(key, sectant)
		if !ok {
			return EmptyPix, sectantBounds
		}
		return t.probe(childKey, sectantBounds, pos, dirIdx)

	case NodeUniformLeaf:
		idx := MatrixIndexFor(bounds, pos, t.brickDim)
		flat := FlatIndex(idx, t.brickDim)
		pix := content.Uniform.At(flat)
		cell := brickCellBounds(bounds, idx, t.brickDim)
		if t.isEmptyPix(pix) {
			occ := content.Uniform.Occupancy(t.brickDim, t.isEmptyPix)
			bit := BitPositionInBitmap64(idx.X, idx.Y, idx.Z, t.brickDim)
			if occ&rayToLeafMask[bit][dirIdx] == 0 {
				return EmptyPix, bounds
			}
		}
		return pix, cell

	case NodeLeaf:
		sectant := ChildSectantFor(bounds, pos)
		sectantBounds := ChildBoundsFor(bounds, sectant)
		brick := content.Leaves[sectant]
		idx := MatrixIndexFor(sectantBounds, pos, t.brickDim)
		flat := FlatIndex(idx, t.brickDim)
		pix := brick.At(flat)
		cell := brickCellBounds(sectantBounds, idx, t.brickDim)
		if t.isEmptyPix(pix) {
			occ := brick.Occupancy(t.brickDim, t.isEmptyPix)
			bit := BitPositionInBitmap64(idx.X, idx.Y, idx.Z, t.brickDim)
			if occ&rayToLeafMask[bit][dirIdx] == 0 {
				return EmptyPix, sectantBounds
			}
		}
		return pix, cell
	}
	return EmptyPix, bounds
}

func brickCellBounds(bounds Cube, idx V3c[uint32], brickDim uint32) Cube {
	cellSize := bounds.Size / brickDim
	if cellSize == 0 {
		cellSize = 1
	}
	return Cube{
		Min: V3c[uint32]{
			X: bounds.Min.X + idx.X*cellSize,
			Y: bounds.Min.Y + idx.Y*cellSize,
			Z: bounds.Min.Z + idx.Z*cellSize,
		},
		Size: cellSize,
	}
}

func sanitizeDirection(dir V3c[float32]) V3c[float32] {
	const eps = 1e-6
	fix := func(v float32) float32 {
		if v == 0 {
			return eps
		}
		return v
	}
	return V3c[float32]{X: fix(dir.X), Y: fix(dir.Y), Z: fix(dir.Z)}
}

// cubeExitDistance returns the ray parameter t at which it leaves c, assuming
// the ray currently is inside (or entering) c.
func cubeExitDistance(origin, dir V3c[float32], c Cube) float32 {
	min := V3cU32ToF32(c.Min)
	size := float32(c.Size)
	max := V3c[float32]{X: min.X + size, Y: min.Y + size, Z: min.Z + size}

	tMax := float32(math.Inf(1))
	axis := func(o, d, lo, hi float32) float32 {
		if d == 0 {
			return float32(math.Inf(1))
		}
		t0 := (lo - o) / d
		t1 := (hi - o) / d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		return t1
	}
	if t := axis(origin.X, dir.X, min.X, max.X); t < tMax {
		tMax = t
	}
	if t := axis(origin.Y, dir.Y, min.Y, max.Y); t < tMax {
		tMax = t
	}
	if t := axis(origin.Z, dir.Z, min.Z, max.Z); t < tMax {
		tMax = t
	}
	if tMax < 0 {
		tMax = 0
	}
	return tMax
}

// cubeImpactNormal returns the unit axis normal of the face of cell nearest
// point (ties favor the face most opposed to dir), per spec.md §4.H/§8.
func cubeImpactNormal(point V3c[float32], cell Cube, dir V3c[float32]) V3c[float32] {
	min := V3cU32ToF32(cell.Min)
	size := float32(cell.Size)
	max := V3c[float32]{X: min.X + size, Y: min.Y + size, Z: min.Z + size}

	type face struct {
		dist   float32
		normal V3c[float32]
	}
	faces := [6]face{
		{abs32(point.X - min.X), V3c[float32]{X: -1}},
		{abs32(max.X - point.X), V3c[float32]{X: 1}},
		{abs32(point.Y - min.Y), V3c[float32]{Y: -1}},
		{abs32(max.Y - point.Y), V3c[float32]{Y: 1}},
		{abs32(point.Z - min.Z), V3c[float32]{Z: -1}},
		{abs32(max.Z - point.Z), V3c[float32]{Z: 1}},
	}
	dot := func(n V3c[float32]) float32 { return n.X*dir.X + n.Y*dir.Y + n.Z*dir.Z }
	best := faces[0]
	for _, f := range faces[1:] {
		if f.dist < best.dist || (f.dist == best.dist && dot(f.normal) < dot(best.normal)) {
			best = f
		}
	}
	return best.normal
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
