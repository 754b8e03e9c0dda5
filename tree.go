package boxtree

// Tree is the root container of spec.md §4.E: a node pool, its per-node
// side tables (children link table, MIP bricks), the palette, and the
// configured MIP strategy. The root node always lives at pool key 0 and is
// never evicted.
type Tree[T UserData] struct {
	size     uint32
	brickDim uint32

	pool     *Pool[NodeContent]
	children []NodeChildren
	mips     []Brick

	palette *Palette[T]
	strategy MipStrategy

	logger       Logger
	autoSimplify bool
}

// New validates (tree_size, brick_dim) per spec.md §3.1 and constructs an
// empty tree with a single root Nothing node.
func New[T UserData](size, brickDim uint32, opts ...TreeOption) (*Tree[T], error) {
	if err := validateTreeShape(size, brickDim); err != nil {
		return nil, err
	}
	cfg := defaultTreeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Tree[T]{
		size:         size,
		brickDim:     brickDim,
		pool:         NewPool[NodeContent](cfg.initialCapacity),
		palette:      NewPalette[T](cfg.logger),
		strategy:     defaultMipStrategy(),
		logger:       cfg.logger,
		autoSimplify: cfg.autoSimplify,
	}
	root := t.pool.Push(NothingContent())
	if root != rootNodeKey {
		panic("boxtree: root node did not allocate at pool key 0")
	}
	t.growSideTables()
	return t, nil
}

func isPowerOfTwo(n uint32) bool { return n != 0 && n&(n-1) == 0 }

func validateTreeShape(size, brickDim uint32) error {
	if brickDim == 0 || !isPowerOfTwo(brickDim) {
		return &InvalidBrickDimensionError{BrickDim: brickDim}
	}
	if size == 0 || size%brickDim != 0 {
		return &InvalidSizeError{Size: size}
	}
	k := size / brickDim
	if size < brickDim*BoxNodeDim {
		return &InvalidStructureError{Reason: "tree_size must be at least brick_dim*BOX_NODE_DIM"}
	}
	pow := uint32(BoxNodeDim)
	for pow < k {
		pow *= BoxNodeDim
	}
	if pow != k {
		return &InvalidSizeError{Size: size}
	}
	return nil
}

// growSideTables keeps children/mips index-aligned with the node pool after
// an allocation. These are logically the tree's per-node side vectors
// (spec.md §3.5); Go models them as plain slices kept parallel to the pool
// rather than folding them into the pooled value itself, since they are
// owned and resized by the tree, not by the pool's free-list policy.
func (t *Tree[T]) growSideTables() {
	for len(t.children) < t.pool.Len() {
		t.children = append(t.children, noChildren())
	}
	for len(t.mips) < t.pool.Len() {
		t.mips = append(t.mips, EmptyBrick())
	}
}

func (t *Tree[T]) allocNode(content NodeContent) PoolKey {
	key := t.pool.Push(content)
	t.growSideTables()
	return key
}

func (t *Tree[T]) freeNode(key PoolKey) {
	t.pool.Free(key)
	t.children[key] = noChildren()
	t.mips[key] = EmptyBrick()
}

func (t *Tree[T]) content(key PoolKey) NodeContent { return *t.pool.Get(key) }

func (t *Tree[T]) setContent(key PoolKey, c NodeContent) { *t.pool.Get(key) = c }

func (t *Tree[T]) rootBounds() Cube { return RootBounds(t.size) }

// Size returns the tree's cube side length.
func (t *Tree[T]) Size() uint32 { return t.size }

// BrickDim returns the tree's leaf brick side length.
func (t *Tree[T]) BrickDim() uint32 { return t.brickDim }

// Get returns the referenced data at a single voxel (spec.md §4.E).
func (t *Tree[T]) Get(position V3c[uint32]) (Entry[T], error) {
	bounds := t.rootBounds()
	if !bounds.Contains(position) {
		return EntryEmpty[T](), &InvalidPositionError{X: position.X, Y: position.Y, Z: position.Z}
	}
	pix := t.getPix(rootNodeKey, bounds, position)
	return t.palette.PixEntry(pix), nil
}

func (t *Tree[T]) getPix(key PoolKey, bounds Cube, position V3c[uint32]) PaletteIndex {
	content := t.content(key)
	switch content.Kind {
	case NodeNothing:
		return EmptyPix
	case NodeInternal:
		sectant := ChildSectantFor(bounds, position)
		childKey, ok := t.childAt(key, sectant)
		if !ok {
			return EmptyPix
		}
		return t.getPix(childKey, ChildBoundsFor(bounds, sectant), position)
	case NodeUniformLeaf:
		idx := MatrixIndexFor(bounds, position, t.brickDim)
		return content.Uniform.At(FlatIndex(idx, t.brickDim))
	case NodeLeaf:
		sectant := ChildSectantFor(bounds, position)
		sectantBounds := ChildBoundsFor(bounds, sectant)
		idx := MatrixIndexFor(sectantBounds, position, t.brickDim)
		return content.Leaves[sectant].At(FlatIndex(idx, t.brickDim))
	}
	return EmptyPix
}

// childAt returns the live pool key of node's sectant-th child, if any.
func (t *Tree[T]) childAt(key PoolKey, sectant uint8) (PoolKey, bool) {
	children := t.children[key]
	if children.Kind != HasChildren {
		return 0, false
	}
	childKey := children.Nodes[sectant]
	if childKey == invalidPoolKey || !t.pool.KeyIsValid(childKey) {
		return 0, false
	}
	return childKey, true
}

// isEmptyPix reports whether a packed value resolves to "no voxel",
// consulting the palette so a color index pointing at the zero/transparent
// albedo still counts as empty.
func (t *Tree[T]) isEmptyPix(pix PaletteIndex) bool {
	if pix == EmptyPix {
		return true
	}
	return t.palette.PixPointsToEmpty(pix)
}

// Stats reports live/total node-pool allocation counts, for diagnostics.
// Supplemented feature, grounded on gaissmai/bart's pool accounting idiom.
func (t *Tree[T]) Stats() (liveNodes, totalAllocated int64) {
	return t.pool.Stats()
}
