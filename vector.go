package boxtree

import "math"

// Number is the set of scalar types V3c can be instantiated over.
type Number interface {
	~int32 | ~uint32 | ~float32
}

// V3c is a three component vector, generic over the component scalar type.
// The tree addresses voxels with V3c[uint32] and does ray/geometry math with
// V3c[float32].
type V3c[T Number] struct {
	X, Y, Z T
}

func NewV3c[T Number](x, y, z T) V3c[T] {
	return V3c[T]{X: x, Y: y, Z: z}
}

func (v V3c[T]) Add(o V3c[T]) V3c[T] {
	return V3c[T]{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v V3c[T]) Sub(o V3c[T]) V3c[T] {
	return V3c[T]{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v V3c[T]) MulScalar(s T) V3c[T] {
	return V3c[T]{v.X * s, v.Y * s, v.Z * s}
}

// V3cU32ToF32 widens an integer position vector to float space.
func V3cU32ToF32(v V3c[uint32]) V3c[float32] {
	return V3c[float32]{float32(v.X), float32(v.Y), float32(v.Z)}
}

// V3cF32ToU32 truncates a float position vector down to integer space.
// Negative components clamp to zero.
func V3cF32ToU32(v V3c[float32]) V3c[uint32] {
	clamp := func(f float32) uint32 {
		if f < 0 {
			return 0
		}
		return uint32(f)
	}
	return V3c[uint32]{clamp(v.X), clamp(v.Y), clamp(v.Z)}
}

// Cube is an axis-aligned cube described by its minimum corner and side length.
type Cube struct {
	Min  V3c[uint32]
	Size uint32
}

func RootBounds(size uint32) Cube {
	return Cube{Min: V3c[uint32]{}, Size: size}
}

// Contains reports whether position lies within the cube, min-inclusive,
// max-exclusive on every axis.
func (c Cube) Contains(position V3c[uint32]) bool {
	return position.X >= c.Min.X && position.X < c.Min.X+c.Size &&
		position.Y >= c.Min.Y && position.Y < c.Min.Y+c.Size &&
		position.Z >= c.Min.Z && position.Z < c.Min.Z+c.Size
}

func (c Cube) ContainsF(position V3c[float32]) bool {
	min := V3cU32ToF32(c.Min)
	max := min.Add(V3c[float32]{float32(c.Size), float32(c.Size), float32(c.Size)})
	const eps = 1e-5
	return position.X >= min.X-eps && position.X < max.X+eps &&
		position.Y >= min.Y-eps && position.Y < max.Y+eps &&
		position.Z >= min.Z-eps && position.Z < max.Z+eps
}

// ChildBoundsFor returns the bounds of child `sectant` (a 3-digit base-4
// index into the 4x4x4 grid partitioning the parent cube, digit order
// x + y*4 + z*16) within parent.
func ChildBoundsFor(parent Cube, sectant uint8) Cube {
	childSize := parent.Size / BoxNodeDim
	dx := uint32(sectant % BoxNodeDim)
	dy := uint32((sectant / BoxNodeDim) % BoxNodeDim)
	dz := uint32(sectant / (BoxNodeDim * BoxNodeDim))
	return Cube{
		Min: V3c[uint32]{
			parent.Min.X + dx*childSize,
			parent.Min.Y + dy*childSize,
			parent.Min.Z + dz*childSize,
		},
		Size: childSize,
	}
}

// HashRegion maps a point offset in [0,size)^3 to the sectant of the 4x4x4
// grid it falls into.
func HashRegion(offset V3c[float32], size float32) uint8 {
	quarter := size / BoxNodeDim
	digit := func(v float32) uint8 {
		d := int(v / quarter)
		if d < 0 {
			d = 0
		}
		if d > BoxNodeDim-1 {
			d = BoxNodeDim - 1
		}
		return uint8(d)
	}
	dx := digit(offset.X)
	dy := digit(offset.Y)
	dz := digit(offset.Z)
	return dx + dy*BoxNodeDim + dz*BoxNodeDim*BoxNodeDim
}

// ChildSectantFor is HashRegion specialized for locating which child of
// `bounds` contains `position`.
func ChildSectantFor(bounds Cube, position V3c[uint32]) uint8 {
	offset := V3cU32ToF32(position.Sub(bounds.Min))
	return HashRegion(offset, float32(bounds.Size))
}

// HashDirection buckets a (near-)unit ray direction into one of the 8
// sign-octants, used to index the raycaster's reachability LUTs.
func HashDirection(dir V3c[float32]) uint8 {
	var idx uint8
	if dir.X >= 0 {
		idx |= 1
	}
	if dir.Y >= 0 {
		idx |= 2
	}
	if dir.Z >= 0 {
		idx |= 4
	}
	return idx
}

// MatrixIndexFor maps a world position inside bounds to the voxel index of a
// brick of side brickDim spanning bounds.
func MatrixIndexFor(bounds Cube, position V3c[uint32], brickDim uint32) V3c[uint32] {
	local := position.Sub(bounds.Min)
	cell := bounds.Size / brickDim
	idx := V3c[uint32]{local.X / cell, local.Y / cell, local.Z / cell}
	clampIdx := func(v uint32) uint32 {
		if v >= brickDim {
			return brickDim - 1
		}
		return v
	}
	return V3c[uint32]{clampIdx(idx.X), clampIdx(idx.Y), clampIdx(idx.Z)}
}

// FlatIndex projects a 3D index inside a cube of side `dim` to a flat index.
func FlatIndex(idx V3c[uint32], dim uint32) int {
	return int(idx.X) + int(idx.Y)*int(dim) + int(idx.Z)*int(dim)*int(dim)
}

// SetOccupancyInBitmap64 writes the BITMAP_DIM-resolution occupancy bits
// covering the sub-cube [pos, pos+size) inside a cube of side span.
func SetOccupancyInBitmap64(pos V3c[uint32], size uint32, span uint32, value bool, occ *uint64) {
	quarter := span / BitmapDim
	if quarter == 0 {
		quarter = 1
	}
	start := V3c[uint32]{pos.X / quarter, pos.Y / quarter, pos.Z / quarter}
	end := V3c[uint32]{
		(pos.X + size - 1) / quarter,
		(pos.Y + size - 1) / quarter,
		(pos.Z + size - 1) / quarter,
	}
	clampDigit := func(v uint32) uint32 {
		if v > BitmapDim-1 {
			return BitmapDim - 1
		}
		return v
	}
	for x := start.X; x <= clampDigit(end.X); x++ {
		for y := start.Y; y <= clampDigit(end.Y); y++ {
			for z := start.Z; z <= clampDigit(end.Z); z++ {
				bit := uint64(1) << (x + y*BitmapDim + z*BitmapDim*BitmapDim)
				if value {
					*occ |= bit
				} else {
					*occ &^= bit
				}
			}
		}
	}
}

// BitPositionInBitmap64 returns the occupancy-bitmap bit index for a voxel at
// (x,y,z) inside a brick/cube of side `size` sampled at BITMAP_DIM resolution.
func BitPositionInBitmap64(x, y, z, size uint32) uint8 {
	scale := func(v uint32) uint32 {
		d := v * BitmapDim / size
		if d > BitmapDim-1 {
			d = BitmapDim - 1
		}
		return d
	}
	return uint8(scale(x) + scale(y)*BitmapDim + scale(z)*BitmapDim*BitmapDim)
}

// rayCubeIntersect does a slab test, returning the entry distance along the
// ray and whether the ray intersects the cube at all (including starting
// inside it, in which case tEntry is 0 or negative clamped to 0).
func rayCubeIntersect(origin, dir V3c[float32], c Cube) (float32, bool) {
	min := V3cU32ToF32(c.Min)
	max := min.Add(V3c[float32]{float32(c.Size), float32(c.Size), float32(c.Size)})

	tMin := float32(math.Inf(-1))
	tMax := float32(math.Inf(1))

	axis := func(o, d, lo, hi float32) (float32, float32, bool) {
		if d == 0 {
			if o < lo || o > hi {
				return 0, 0, false
			}
			return float32(math.Inf(-1)), float32(math.Inf(1)), true
		}
		t0 := (lo - o) / d
		t1 := (hi - o) / d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		return t0, t1, true
	}

	for i := 0; i < 3; i++ {
		var o, d, lo, hi float32
		switch i {
		case 0:
			o, d, lo, hi = origin.X, dir.X, min.X, max.X
		case 1:
			o, d, lo, hi = origin.Y, dir.Y, min.Y, max.Y
		case 2:
			o, d, lo, hi = origin.Z, dir.Z, min.Z, max.Z
		}
		t0, t1, ok := axis(o, d, lo, hi)
		if !ok {
			return 0, false
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
	}
	if tMin > tMax || tMax < 0 {
		return 0, false
	}
	if tMin < 0 {
		return 0, true
	}
	return tMin, true
}
