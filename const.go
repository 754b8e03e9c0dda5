package boxtree

// Configuration constants, spec.md §3.1.
const (
	// BoxNodeDim is the linear subdivision factor of an internal node: each
	// node partitions its cube into a BoxNodeDim x BoxNodeDim x BoxNodeDim
	// grid of children ("sectants", not octants).
	BoxNodeDim = 4
	// BoxNodeChildren is BoxNodeDim^3, the number of child slots per node.
	BoxNodeChildren = 64
	// BitmapDim is the linear resolution of per-node occupancy bitmaps;
	// always backed by a 64-bit word (BitmapDim^3 == 64).
	BitmapDim = 4

	// emptyMarkerU16 marks an absent palette half.
	emptyMarkerU16 = 0xFFFF
	// rootNodeKey is the pool index the root node always occupies.
	rootNodeKey = 0
)

// invalidPoolKey marks an unset child slot. It deliberately cannot collide
// with a real node key (pool keys are dense from 0, and the root always
// holds key 0 itself, so a zero-valued slot would otherwise be
// misinterpreted as "points at the root").
const invalidPoolKey PoolKey = 0xFFFFFFFF
