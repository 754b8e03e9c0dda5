package boxtree

// Update engine, spec.md §4.F. Insert/clear share the same descent shape:
// walk down from the root, either taking the LOD fast path (replace a whole
// child subtree in one shot), recursing into/past a child, or — once the
// target bounds have shrunk to brick granularity — mutating the node's own
// brick content directly via leafUpdate. Each stack frame finishes with a
// post-pass occupancy fixup and an attempted simplify, mirroring the
// reference's "walk back up the stack" description.

// Insert sets a single voxel, replacing both halves of any existing value.
func (t *Tree[T]) Insert(position V3c[uint32], entry Entry[T]) error {
	return t.insertInternal(true, position, 1, entry)
}

// Update sets a single voxel, preserving whichever half entry doesn't carry.
func (t *Tree[T]) Update(position V3c[uint32], entry Entry[T]) error {
	return t.insertInternal(false, position, 1, entry)
}

// InsertAtLOD sets a whole `size`-sided sub-cube at `position` (rounded down
// to the nearest feasible LOD, spec.md §4.F.1) to entry's palette value.
func (t *Tree[T]) InsertAtLOD(position V3c[uint32], size uint32, entry Entry[T]) error {
	return t.insertInternal(true, position, size, entry)
}

func (t *Tree[T]) insertInternal(overwrite bool, position V3c[uint32], size uint32, entry Entry[T]) error {
	bounds := t.rootBounds()
	if !bounds.Contains(position) {
		return &InvalidPositionError{X: position.X, Y: position.Y, Z: position.Z}
	}
	if entry.IsNone() {
		return nil
	}
	pix := t.palette.Add(entry)
	t.insertDescend(rootNodeKey, bounds, overwrite, position, size, pix)
	t.refreshMipAt(position)
	if t.autoSimplify {
		t.simplify(rootNodeKey, bounds)
	}
	return nil
}

func (t *Tree[T]) insertDescend(key PoolKey, bounds Cube, overwrite bool, position V3c[uint32], size uint32, pix PaletteIndex) {
	if size >= bounds.Size && coversChildOrigin(position, bounds) {
		t.replaceNodeWithUniform(key, pix)
		t.fixupAndSimplify(key, bounds)
		return
	}

	targetSectant := ChildSectantFor(bounds, position)
	targetBounds := ChildBoundsFor(bounds, targetSectant)

	if size > 1 && targetBounds.Size <= size && coversChildOrigin(position, targetBounds) {
		t.ensureChild(key, bounds, targetSectant)
		t.replaceChildWithUniform(key, targetSectant, pix)
		t.fixupAndSimplify(key, bounds)
		return
	}

	threshold := maxU32(size, t.brickDim)
	if targetBounds.Size > threshold {
		childKey := t.ensureChild(key, bounds, targetSectant)
		t.insertDescend(childKey, targetBounds, overwrite, position, size, pix)
		t.fixupAndSimplify(key, bounds)
		return
	}

	t.leafUpdate(key, bounds, overwrite, position, size, pix)
	t.fixupAndSimplify(key, bounds)
}

// coversChildOrigin is the LOD fast-path guard of spec.md §4.F.1 step 2.
func coversChildOrigin(position V3c[uint32], childBounds Cube) bool {
	return position.X <= childBounds.Min.X && position.Y <= childBounds.Min.Y && position.Z <= childBounds.Min.Z
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// ensureChild guarantees `key` is Internal with a children table, subdividing
// it first if it is currently a leaf (spec.md §4.F.3), and lazily allocates
// a fresh Nothing child at `sectant` if one isn't already there (§4.F.1 step
// 3). Returns the (possibly new) child key.
func (t *Tree[T]) ensureChild(key PoolKey, bounds Cube, sectant uint8) PoolKey {
	content := t.content(key)
	if content.Kind == NodeUniformLeaf || content.Kind == NodeLeaf {
		t.subdivideNodeIntoChildren(key, bounds)
		content = t.content(key)
	}
	if content.Kind == NodeNothing {
		t.setContent(key, InternalContent(0))
		t.children[key] = NodeChildren{Kind: HasChildren, Nodes: newChildrenAllInvalid()}
	}
	children := t.children[key]
	if children.Kind != HasChildren {
		children = NodeChildren{Kind: HasChildren, Nodes: newChildrenAllInvalid()}
	}
	childKey := children.Nodes[sectant]
	if childKey == invalidPoolKey || !t.pool.KeyIsValid(childKey) {
		childKey = t.allocNode(NothingContent())
		children.Nodes[sectant] = childKey
	}
	t.children[key] = children
	return childKey
}

// subdivideNodeIntoChildren converts a leaf node (Uniform or heterogeneous)
// into an Internal node with 64 freshly-allocated UniformLeaf children, each
// holding the part of the parent's brick data that covers its sectant
// (spec.md §4.F.3). Both leaf kinds reach here through ensureChild, e.g. when
// an LOD write replaces a single sectant of an existing leaf.
func (t *Tree[T]) subdivideNodeIntoChildren(key PoolKey, bounds Cube) {
	content := t.content(key)
	var childBricks [BoxNodeChildren]Brick
	switch content.Kind {
	case NodeUniformLeaf:
		v := content.Uniform.Simplify()
		for s := range childBricks {
			childBricks[s] = v.subBrick(uint8(s), t.brickDim)
		}
	case NodeLeaf:
		for s := range childBricks {
			childBricks[s] = content.Leaves[s].Simplify()
		}
	}

	var newChildren [BoxNodeChildren]PoolKey
	var occ uint64
	for s := 0; s < BoxNodeChildren; s++ {
		brick := childBricks[s]
		childKey := t.allocNode(UniformLeafContent(brick))
		t.children[childKey] = occupancyChildren(brick.Occupancy(t.brickDim, t.isEmptyPix))
		newChildren[s] = childKey
		if brick.Occupancy(t.brickDim, t.isEmptyPix) != 0 {
			occ |= 1 << uint(s)
		}
	}
	t.setContent(key, InternalContent(occ))
	t.children[key] = childrenOf(newChildren)
}

// replaceChildWithUniform frees sectant's existing child subtree (if any)
// and replaces it with a fresh UniformLeaf(Solid(pix)) node, the LOD
// fast-path action of spec.md §4.F.1 step 2.
func (t *Tree[T]) replaceChildWithUniform(key PoolKey, sectant uint8, pix PaletteIndex) {
	children := t.children[key]
	old := children.Nodes[sectant]
	if old != invalidPoolKey && t.pool.KeyIsValid(old) {
		t.freeChildSubtree(old)
		t.freeNode(old)
	}
	brick := NewSolidBrick(pix)
	newKey := t.allocNode(UniformLeafContent(brick))
	t.children[newKey] = occupancyChildren(brick.Occupancy(t.brickDim, t.isEmptyPix))
	children.Nodes[sectant] = newKey
	t.children[key] = children
}

// replaceNodeWithUniform frees key's existing child subtree (if any) and
// replaces its own content with a fresh UniformLeaf(Solid(pix)) spanning its
// whole bounds, insertDescend's "LOD request covers this entire node" fast
// path (spec.md §4.F.1 step 2, whole-node case). clearDescend has its own
// inline whole-node path that frees the subtree and sets the node to Nothing.
func (t *Tree[T]) replaceNodeWithUniform(key PoolKey, pix PaletteIndex) {
	if t.content(key).Kind == NodeInternal {
		t.freeChildSubtree(key)
	}
	t.setContent(key, UniformLeafContent(NewSolidBrick(pix)))
	t.children[key] = noChildren()
}

// leafUpdate mutates a node's own brick-level content for the region
// [position, position+size) (spec.md §4.F.2). Both descents call it once
// targetBounds has shrunk to at most max(size, brick_dim); for a write of
// size <= brick_dim that means node's own bounds are exactly
// brick_dim*BOX_NODE_DIM.
func (t *Tree[T]) leafUpdate(key PoolKey, bounds Cube, overwrite bool, position V3c[uint32], size uint32, pix PaletteIndex) {
	content := t.content(key)
	switch content.Kind {
	case NodeNothing, NodeInternal:
		var bricks [BoxNodeChildren]Brick
		for s := uint8(0); s < BoxNodeChildren; s++ {
			bricks[s] = t.tryBrickFromNode(key, s)
		}
		if content.Kind == NodeInternal {
			t.freeChildSubtree(key)
		}
		t.setContent(key, LeafContent(bricks))
		t.children[key] = noChildren()
		t.leafUpdate(key, bounds, overwrite, position, size, pix)

	case NodeUniformLeaf:
		brick := content.Uniform
		switch brick.Kind {
		case BrickEmpty:
			if t.isEmptyPix(pix) {
				return
			}
		case BrickSolid:
			if brick.Solid == pix {
				return
			}
			if t.isEmptyPix(pix) && t.isEmptyPix(brick.Solid) {
				return
			}
			if t.isEmptyPix(pix) && size >= bounds.Size {
				t.setContent(key, NothingContent())
				t.children[key] = noChildren()
				return
			}
		case BrickParted:
			if size == 1 {
				idx := MatrixIndexFor(bounds, position, t.brickDim)
				if brick.At(FlatIndex(idx, t.brickDim)) == pix {
					return
				}
			}
		}
		var bricks [BoxNodeChildren]Brick
		parted := brick.toParted(t.brickDim)
		for s := uint8(0); s < BoxNodeChildren; s++ {
			bricks[s] = parted.subBrick(s, t.brickDim)
		}
		t.setContent(key, LeafContent(bricks))
		t.children[key] = noChildren()
		t.leafUpdate(key, bounds, overwrite, position, size, pix)

	case NodeLeaf:
		// A write of `size` can span more than one sectant once it's
		// bigger than a sectant's own share of bounds (e.g. a brick_dim=1
		// node, where every sectant covers exactly one cell), so every
		// sectant overlapping [position, position+size) needs its own
		// clipped brickWriteRange, not just the one containing position.
		for s := uint8(0); s < BoxNodeChildren; s++ {
			sectantBounds := ChildBoundsFor(bounds, s)
			start, count := brickWriteRange(sectantBounds, position, size, t.brickDim)
			if count.X == 0 || count.Y == 0 || count.Z == 0 {
				continue
			}
			brick := content.Leaves[s]
			for dz := uint32(0); dz < count.Z; dz++ {
				for dy := uint32(0); dy < count.Y; dy++ {
					for dx := uint32(0); dx < count.X; dx++ {
						idx := V3c[uint32]{X: start.X + dx, Y: start.Y + dy, Z: start.Z + dz}
						flat := FlatIndex(idx, t.brickDim)
						write := pix
						if !overwrite {
							write = mergeHalves(brick.At(flat), pix)
						}
						brick = brick.SetAt(flat, write, t.brickDim)
					}
				}
			}
			content.Leaves[s] = brick
		}
		t.setContent(key, content)
	}
}

// tryBrickFromNode reads back a brick_dim^3 view of a terminal-level node's
// sectant child, used when Internal/Nothing content at that level must be
// materialized into a heterogeneous Leaf. A terminal-level node is Internal
// when an LOD write gave it brick_dim-sided UniformLeaf children, whose
// brick is returned as is; a Leaf child contributes only its first sectant's
// brick.
func (t *Tree[T]) tryBrickFromNode(parentKey PoolKey, sectant uint8) Brick {
	childKey, ok := t.childAt(parentKey, sectant)
	if !ok {
		return EmptyBrick()
	}
	content := t.content(childKey)
	switch content.Kind {
	case NodeUniformLeaf:
		return content.Uniform
	case NodeLeaf:
		return content.Leaves[0]
	default:
		return EmptyBrick()
	}
}

// brickWriteRange converts the overlap of a world-space write of side `size`
// at `position` with `bounds` into a clamped [start, start+count) range of
// brick-cell indices inside `bounds`'s brick_dim^3 grid (spec.md §4.F.2,
// "Brick write"). Unlike a plain local-coordinate divide, this clips against
// bounds first, so it's safe to call for a sectant `bounds` doesn't contain
// `position` at all: count is (0,0,0) on any axis with no overlap, letting
// callers skip that sectant entirely.
func brickWriteRange(bounds Cube, position V3c[uint32], size, brickDim uint32) (V3c[uint32], V3c[uint32]) {
	cell := bounds.Size / brickDim
	if cell == 0 {
		cell = 1
	}
	axisRange := func(boundsMin, pos, sz, boundsSize uint32) (uint32, uint32) {
		boundsMax := boundsMin + boundsSize
		lo := pos
		if lo < boundsMin {
			lo = boundsMin
		}
		hi := pos + sz
		if hi > boundsMax {
			hi = boundsMax
		}
		if hi <= lo {
			return 0, 0
		}
		start := (lo - boundsMin) / cell
		end := (hi - boundsMin - 1) / cell
		if end >= brickDim {
			end = brickDim - 1
		}
		return start, end - start + 1
	}
	sx, cx := axisRange(bounds.Min.X, position.X, size, bounds.Size)
	sy, cy := axisRange(bounds.Min.Y, position.Y, size, bounds.Size)
	sz, cz := axisRange(bounds.Min.Z, position.Z, size, bounds.Size)
	if cx == 0 || cy == 0 || cz == 0 {
		return V3c[uint32]{}, V3c[uint32]{}
	}
	return V3c[uint32]{X: sx, Y: sy, Z: sz}, V3c[uint32]{X: cx, Y: cy, Z: cz}
}

func (t *Tree[T]) freeChildSubtree(key PoolKey) {
	children := t.children[key]
	if children.Kind != HasChildren {
		return
	}
	for _, childKey := range children.Nodes {
		if childKey != invalidPoolKey && t.pool.KeyIsValid(childKey) {
			t.freeChildSubtree(childKey)
			t.freeNode(childKey)
		}
	}
}

// nodeOccupancy recomputes key's 64-bit occupancy bitmap from scratch,
// per spec.md §8's invariant that stored occupancy always matches the union
// of children's/brick's occupancy.
func (t *Tree[T]) nodeOccupancy(key PoolKey) uint64 {
	content := t.content(key)
	switch content.Kind {
	case NodeInternal:
		children := t.children[key]
		var occ uint64
		if children.Kind == HasChildren {
			for s := 0; s < BoxNodeChildren; s++ {
				childKey := children.Nodes[s]
				if childKey == invalidPoolKey || !t.pool.KeyIsValid(childKey) {
					continue
				}
				if t.nodeOccupancy(childKey) != 0 {
					occ |= 1 << uint(s)
				}
			}
		}
		return occ
	case NodeUniformLeaf:
		return content.Uniform.Occupancy(t.brickDim, t.isEmptyPix)
	case NodeLeaf:
		var occ uint64
		for s := 0; s < BoxNodeChildren; s++ {
			if content.Leaves[s].Occupancy(t.brickDim, t.isEmptyPix) != 0 {
				occ |= 1 << uint(s)
			}
		}
		return occ
	default:
		return 0
	}
}

func (t *Tree[T]) fixupAndSimplify(key PoolKey, bounds Cube) {
	content := t.content(key)
	if content.Kind == NodeInternal {
		content.Occ = t.nodeOccupancy(key)
		t.setContent(key, content)
	}
	if t.autoSimplify {
		t.simplify(key, bounds)
	}
}

// Simplify runs the collapse pass of spec.md §4.F.4 from the root down.
// Bulk importers that disable auto-simplify call this once at the end.
func (t *Tree[T]) Simplify() {
	t.simplify(rootNodeKey, t.rootBounds())
}

// simplify implements the per-node case analysis of spec.md §4.F.4,
// returning whether key now holds a (recursively) simplified, canonical
// form. Propagation is allowed to stop at the first node that does not
// simplify further; this is a deliberate optimization, not guaranteed to
// reach a minimal tree in one pass (spec.md §9 design notes).
func (t *Tree[T]) simplify(key PoolKey, bounds Cube) bool {
	content := t.content(key)
	switch content.Kind {
	case NodeNothing:
		return true

	case NodeUniformLeaf:
		simplified := content.Uniform.Simplify()
		if simplified.IsEmpty() {
			t.setContent(key, NothingContent())
			t.children[key] = noChildren()
			return true
		}
		if simplified.Kind != content.Uniform.Kind {
			t.setContent(key, UniformLeafContent(simplified))
		}
		return simplified.Kind != BrickParted

	case NodeLeaf:
		allEqual := true
		for s := 0; s < BoxNodeChildren; s++ {
			content.Leaves[s] = content.Leaves[s].Simplify()
		}
		first := content.Leaves[0]
		for s := 1; s < BoxNodeChildren; s++ {
			if !content.Leaves[s].Equal(first) {
				allEqual = false
				break
			}
		}
		t.setContent(key, content)
		if !allEqual {
			return false
		}
		if first.IsEmpty() {
			t.setContent(key, NothingContent())
			t.children[key] = noChildren()
		} else {
			t.setContent(key, UniformLeafContent(first))
		}
		return true

	case NodeInternal:
		if content.Occ == 0 {
			t.freeChildSubtree(key)
			t.setContent(key, NothingContent())
			t.children[key] = noChildren()
			return true
		}
		children := t.children[key]
		if children.Kind != HasChildren {
			return false
		}
		allUniform := true
		var representative Brick
		haveRepresentative := false
		for s := 0; s < BoxNodeChildren; s++ {
			childKey := children.Nodes[s]
			if childKey == invalidPoolKey || !t.pool.KeyIsValid(childKey) {
				allUniform = false
				continue
			}
			childBounds := ChildBoundsFor(bounds, uint8(s))
			t.simplify(childKey, childBounds)
			childContent := t.content(childKey)
			if childContent.Kind != NodeUniformLeaf {
				allUniform = false
				continue
			}
			if !haveRepresentative {
				representative = childContent.Uniform
				haveRepresentative = true
			} else if !childContent.Uniform.Equal(representative) {
				allUniform = false
			}
		}
		if allUniform && haveRepresentative {
			t.freeChildSubtree(key)
			t.setContent(key, UniformLeafContent(representative))
			t.children[key] = noChildren()
			return true
		}
		return false
	}
	return true
}

// Clear empties a single voxel.
func (t *Tree[T]) Clear(position V3c[uint32]) error {
	return t.clearAtLOD(position, 1)
}

// ClearAtLOD empties the `size`-sided sub-cube at position (spec.md §4.F.5).
// A size that is not a power of two rounds down to the next smaller one
// (spec.md §9 open question, preserved as documented).
func (t *Tree[T]) ClearAtLOD(position V3c[uint32], size uint32) error {
	return t.clearAtLOD(position, size)
}

func (t *Tree[T]) clearAtLOD(position V3c[uint32], size uint32) error {
	bounds := t.rootBounds()
	if !bounds.Contains(position) {
		return &InvalidPositionError{X: position.X, Y: position.Y, Z: position.Z}
	}
	size = roundDownToPowerOfTwo(size)
	before := t.nodeOccupancy(rootNodeKey)
	t.clearDescend(rootNodeKey, bounds, position, size)
	if t.nodeOccupancy(rootNodeKey) != before {
		t.refreshMipAt(position)
	}
	return nil
}

func roundDownToPowerOfTwo(size uint32) uint32 {
	if size <= 1 {
		return 1
	}
	p := uint32(1)
	for p*2 <= size {
		p *= 2
	}
	return p
}

func (t *Tree[T]) clearDescend(key PoolKey, bounds Cube, position V3c[uint32], size uint32) {
	content := t.content(key)
	if content.Kind == NodeNothing {
		return
	}

	if size >= bounds.Size && coversChildOrigin(position, bounds) {
		t.freeChildSubtree(key)
		t.setContent(key, NothingContent())
		t.children[key] = noChildren()
		return
	}

	// The single-child-free shortcut below only applies when key already
	// has a real, separately-allocated child node at targetSectant: only
	// then is "drop that one child" equivalent to clearing the region. A
	// leaf here (Uniform or heterogeneous) holds its whole sub-cube as
	// brick data rather than real children, so it must be subdivided instead
	// of having its entire node erased: through ensureChild while its target
	// sectant is still larger than max(size, brick_dim), mirroring
	// insertDescend, and through leafUpdate once it is not.
	if content.Kind == NodeUniformLeaf || content.Kind == NodeLeaf {
		targetSectant := ChildSectantFor(bounds, position)
		if ChildBoundsFor(bounds, targetSectant).Size > maxU32(size, t.brickDim) {
			t.ensureChild(key, bounds, targetSectant)
			t.clearDescend(key, bounds, position, size)
			return
		}
	}

	if content.Kind == NodeInternal {
		targetSectant := ChildSectantFor(bounds, position)
		targetBounds := ChildBoundsFor(bounds, targetSectant)

		childKey, hasChild := t.childAt(key, targetSectant)
		if hasChild && size > 1 && targetBounds.Size <= size && coversChildOrigin(position, targetBounds) {
			t.freeChildSubtree(childKey)
			t.freeNode(childKey)
			children := t.children[key]
			children.Nodes[targetSectant] = invalidPoolKey
			t.children[key] = children
			t.fixupAndSimplify(key, bounds)
			return
		}

		threshold := maxU32(size, t.brickDim)
		if hasChild && targetBounds.Size > threshold {
			t.clearDescend(childKey, targetBounds, position, size)
			t.fixupAndSimplify(key, bounds)
			return
		}

		if !hasChild {
			return
		}
	}

	t.leafUpdate(key, bounds, true, position, size, EmptyPix)
	t.fixupAndSimplify(key, bounds)
}
