package boxtree

// BrickKind tags the BrickData sum type of spec.md §3.4.
type BrickKind uint8

const (
	BrickEmpty BrickKind = iota
	BrickSolid
	BrickParted
)

// Brick is the spec's BrickData: Empty (all voxels empty), Solid (every
// voxel equal to one packed value) or Parted (a dense brick_dim^3 array of
// packed values). A Brick never carries its own brick_dim; callers pass it
// alongside whenever they need to index into a Parted brick.
type Brick struct {
	Kind   BrickKind
	Solid  PaletteIndex
	Parted []PaletteIndex
}

func EmptyBrick() Brick { return Brick{Kind: BrickEmpty} }

// NewSolidBrick constructs a Solid brick, collapsing to Empty if pix carries
// no data (spec.md §3.4 invariant: Solid(v) with v empty has zero occupancy,
// same as Empty).
func NewSolidBrick(pix PaletteIndex) Brick {
	if pix == EmptyPix {
		return EmptyBrick()
	}
	return Brick{Kind: BrickSolid, Solid: pix}
}

func newPartedBrick(brickDim uint32) Brick {
	return Brick{Kind: BrickParted, Parted: make([]PaletteIndex, brickDim*brickDim*brickDim)}
}

// PartedBrickFrom wraps an already-populated brick_dim^3 voxel array.
func PartedBrickFrom(voxels []PaletteIndex) Brick {
	return Brick{Kind: BrickParted, Parted: voxels}
}

// At returns the packed value at flat voxel index idx.
func (b Brick) At(idx int) PaletteIndex {
	switch b.Kind {
	case BrickSolid:
		return b.Solid
	case BrickParted:
		return b.Parted[idx]
	default:
		return EmptyPix
	}
}

// toParted expands an Empty or Solid brick into an explicit array of the
// given size; a Parted brick is returned unchanged.
func (b Brick) toParted(brickDim uint32) Brick {
	if b.Kind == BrickParted {
		return b
	}
	out := newPartedBrick(brickDim)
	fill := EmptyPix
	if b.Kind == BrickSolid {
		fill = b.Solid
	}
	for i := range out.Parted {
		out.Parted[i] = fill
	}
	return out
}

// SetAt writes pix at flat index idx, promoting Empty/Solid to Parted first
// if the write would conflict with the brick's current uniform value.
func (b Brick) SetAt(idx int, pix PaletteIndex, brickDim uint32) Brick {
	switch b.Kind {
	case BrickEmpty:
		if pix == EmptyPix {
			return b
		}
		b = b.toParted(brickDim)
	case BrickSolid:
		if pix == b.Solid {
			return b
		}
		b = b.toParted(brickDim)
	}
	b.Parted[idx] = pix
	return b
}

// Simplify collapses a uniform Parted brick down to Solid/Empty, and a
// Solid-with-no-data brick down to Empty. Returns the brick unchanged if it
// is not uniform.
func (b Brick) Simplify() Brick {
	switch b.Kind {
	case BrickSolid:
		if b.Solid == EmptyPix {
			return EmptyBrick()
		}
		return b
	case BrickParted:
		if len(b.Parted) == 0 {
			return EmptyBrick()
		}
		first := b.Parted[0]
		for _, v := range b.Parted[1:] {
			if v != first {
				return b
			}
		}
		return NewSolidBrick(first)
	default:
		return b
	}
}

func (b Brick) IsEmpty() bool { return b.Kind == BrickEmpty }

// Equal reports deep equality, used by Leaf collapsing (spec.md §4.F.4.5:
// "if all 64 bricks ... compare equal, collapse to UniformLeaf").
func (b Brick) Equal(o Brick) bool {
	bs, os := b.Simplify(), o.Simplify()
	if bs.Kind != os.Kind {
		return false
	}
	switch bs.Kind {
	case BrickEmpty:
		return true
	case BrickSolid:
		return bs.Solid == os.Solid
	case BrickParted:
		if len(bs.Parted) != len(os.Parted) {
			return false
		}
		for i := range bs.Parted {
			if bs.Parted[i] != os.Parted[i] {
				return false
			}
		}
		return true
	}
	return false
}

// Occupancy computes the brick's BITMAP_DIM-resolution occupancy bitmap,
// given a predicate for "this packed value carries no data" (palette-aware,
// since a color index may resolve to the zero/transparent albedo).
func (b Brick) Occupancy(brickDim uint32, isEmptyPix func(PaletteIndex) bool) uint64 {
	switch b.Kind {
	case BrickEmpty:
		return 0
	case BrickSolid:
		if isEmptyPix(b.Solid) {
			return 0
		}
		return ^uint64(0)
	case BrickParted:
		var occ uint64
		for z := uint32(0); z < brickDim; z++ {
			for y := uint32(0); y < brickDim; y++ {
				for x := uint32(0); x < brickDim; x++ {
					idx := FlatIndex(V3c[uint32]{X: x, Y: y, Z: z}, brickDim)
					if !isEmptyPix(b.Parted[idx]) {
						SetOccupancyInBitmap64(V3c[uint32]{X: x, Y: y, Z: z}, 1, brickDim, true, &occ)
					}
				}
			}
		}
		return occ
	}
	return 0
}

// subBrick produces a brick_dim^3 brick by nearest-neighbor reading the
// quarter-per-axis region of this brick that covers `sectant`, used when a
// UniformLeaf(Parted) is split into a heterogeneous Leaf (spec.md §4.F.2,
// UniformLeaf(Parted) case: "each sub-brick is derived by nearest-neighbor
// down-read of the parent brick").
func (b Brick) subBrick(sectant uint8, brickDim uint32) Brick {
	if b.Kind != BrickParted {
		return b
	}
	out := newPartedBrick(brickDim)
	ox := uint32(sectant%BoxNodeDim) * brickDim / BoxNodeDim
	oy := uint32((sectant/BoxNodeDim)%BoxNodeDim) * brickDim / BoxNodeDim
	oz := uint32(sectant/(BoxNodeDim*BoxNodeDim)) * brickDim / BoxNodeDim
	for z := uint32(0); z < brickDim; z++ {
		for y := uint32(0); y < brickDim; y++ {
			for x := uint32(0); x < brickDim; x++ {
				sx, sy, sz := ox+x/BoxNodeDim, oy+y/BoxNodeDim, oz+z/BoxNodeDim
				if sx >= brickDim {
					sx = brickDim - 1
				}
				if sy >= brickDim {
					sy = brickDim - 1
				}
				if sz >= brickDim {
					sz = brickDim - 1
				}
				out.Parted[FlatIndex(V3c[uint32]{X: x, Y: y, Z: z}, brickDim)] =
					b.Parted[FlatIndex(V3c[uint32]{X: sx, Y: sy, Z: sz}, brickDim)]
			}
		}
	}
	return out
}

// NodeKind tags the NodeContent sum type of spec.md §3.4.
type NodeKind uint8

const (
	NodeNothing NodeKind = iota
	NodeInternal
	NodeUniformLeaf
	NodeLeaf
)

// NodeContent is a tagged union over the node's four possible shapes:
//   - Nothing: no data under this node,
//   - Internal(occ): interior node, occ is the 64-bit child occupancy bitmap,
//   - UniformLeaf(brick): one brick covers the whole node cube,
//   - Leaf(bricks[64]): a heterogeneous brick per sectant.
type NodeContent struct {
	Kind    NodeKind
	Occ     uint64
	Uniform Brick
	Leaves  [BoxNodeChildren]Brick
}

func NothingContent() NodeContent { return NodeContent{Kind: NodeNothing} }

func InternalContent(occ uint64) NodeContent {
	return NodeContent{Kind: NodeInternal, Occ: occ}
}

func UniformLeafContent(brick Brick) NodeContent {
	return NodeContent{Kind: NodeUniformLeaf, Uniform: brick}
}

func LeafContent(bricks [BoxNodeChildren]Brick) NodeContent {
	return NodeContent{Kind: NodeLeaf, Leaves: bricks}
}

// ChildrenKind tags the NodeChildren side table of spec.md §3.5.
type ChildrenKind uint8

const (
	NoChildren ChildrenKind = iota
	HasChildren
	OccupancyBitmapChildren
)

// NodeChildren is the per-node side table recording either pool indices of
// 64 child nodes (Internal nodes) or a brick-occupancy bitmap (Leaf /
// UniformLeaf nodes, at BITMAP_DIM resolution).
type NodeChildren struct {
	Kind      ChildrenKind
	Nodes     [BoxNodeChildren]PoolKey
	Occupancy uint64
}

func noChildren() NodeChildren { return NodeChildren{Kind: NoChildren} }

func childrenOf(nodes [BoxNodeChildren]PoolKey) NodeChildren {
	return NodeChildren{Kind: HasChildren, Nodes: nodes}
}

func occupancyChildren(occ uint64) NodeChildren {
	return NodeChildren{Kind: OccupancyBitmapChildren, Occupancy: occ}
}

// newChildrenAllInvalid returns a children array with every slot set to the
// invalid sentinel, ready to be populated lazily as children are allocated.
func newChildrenAllInvalid() [BoxNodeChildren]PoolKey {
	var nodes [BoxNodeChildren]PoolKey
	for i := range nodes {
		nodes[i] = invalidPoolKey
	}
	return nodes
}
