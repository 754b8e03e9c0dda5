package boxtree

// Snapshot is an exported, gob-friendly view of a tree's full state, for the
// serialize package's reference codec (SPEC_FULL.md §6). It deliberately
// exposes node-pool internals that the rest of the package keeps private.
type Snapshot[T UserData] struct {
	Size     uint32
	BrickDim uint32

	NodeReserved []bool
	Nodes        []NodeContent
	Children     []NodeChildren
	Mips         []Brick

	PaletteColors []Albedo
	PaletteData   []T
}

// Snapshot captures the tree's complete state.
func (t *Tree[T]) Snapshot() Snapshot[T] {
	reserved, nodes := t.pool.Snapshot()
	colors, data := t.palette.Snapshot()
	return Snapshot[T]{
		Size:          t.size,
		BrickDim:      t.brickDim,
		NodeReserved:  reserved,
		Nodes:         nodes,
		Children:      append([]NodeChildren(nil), t.children...),
		Mips:          append([]Brick(nil), t.mips...),
		PaletteColors: colors,
		PaletteData:   data,
	}
}

// RestoreSnapshot rebuilds a tree from a prior Snapshot. Pool keys (and so
// every stored PoolKey reference) are preserved exactly.
func RestoreSnapshot[T UserData](snap Snapshot[T], opts ...TreeOption) (*Tree[T], error) {
	if err := validateTreeShape(snap.Size, snap.BrickDim); err != nil {
		return nil, err
	}
	cfg := defaultTreeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Tree[T]{
		size:         snap.Size,
		brickDim:     snap.BrickDim,
		pool:         NewPool[NodeContent](len(snap.Nodes)),
		palette:      NewPalette[T](cfg.logger),
		strategy:     defaultMipStrategy(),
		logger:       cfg.logger,
		autoSimplify: cfg.autoSimplify,
	}
	t.pool.Restore(snap.NodeReserved, snap.Nodes)
	t.children = append([]NodeChildren(nil), snap.Children...)
	t.mips = append([]Brick(nil), snap.Mips...)
	t.palette.Restore(snap.PaletteColors, snap.PaletteData)
	t.growSideTables()
	return t, nil
}
