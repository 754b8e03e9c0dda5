package boxtree

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ResamplingKind tags the five sampling strategies of spec.md §4.G.1.
type ResamplingKind uint8

const (
	MipBoxFilter ResamplingKind = iota
	MipPointFilter
	MipPointFilterBottomDominant
	MipPosterize
	MipPosterizeBottomDominant
)

// ResamplingMethod is a sampling strategy plus its threshold, for the
// Posterize variants (ignored by BoxFilter/PointFilter).
type ResamplingMethod struct {
	Kind      ResamplingKind
	Threshold float32
}

func BoxFilter() ResamplingMethod { return ResamplingMethod{Kind: MipBoxFilter} }
func PointFilter() ResamplingMethod { return ResamplingMethod{Kind: MipPointFilter} }
func PointFilterBottomDominant() ResamplingMethod {
	return ResamplingMethod{Kind: MipPointFilterBottomDominant}
}
func Posterize(threshold float32) ResamplingMethod {
	return ResamplingMethod{Kind: MipPosterize, Threshold: clampUnit(threshold)}
}
func PosterizeBottomDominant(threshold float32) ResamplingMethod {
	return ResamplingMethod{Kind: MipPosterizeBottomDominant, Threshold: clampUnit(threshold)}
}

func clampUnit(v float32) float32 { return mgl32.Clamp(v, 0, 1) }

// MipStrategy is the per-tree MIP configuration of spec.md §3.7.
type MipStrategy struct {
	enabled         bool
	methods         map[int]ResamplingMethod
	colorThresholds map[int]float32
	defaultMethod   ResamplingMethod
}

func defaultMipStrategy() MipStrategy {
	return MipStrategy{
		methods:         make(map[int]ResamplingMethod),
		colorThresholds: make(map[int]float32),
		defaultMethod:   BoxFilter(),
	}
}

func (s MipStrategy) methodAt(level int) ResamplingMethod {
	if m, ok := s.methods[level]; ok {
		return m
	}
	return s.defaultMethod
}

func (s MipStrategy) thresholdAt(level int) float32 {
	if t, ok := s.colorThresholds[level]; ok {
		return t
	}
	return 0
}

// StrategyUpdater is the chainable configuration handle returned by
// Tree.AlbedoMipMapResamplingStrategy, per spec.md §6.
type StrategyUpdater[T UserData] struct {
	tree *Tree[T]
}

func (t *Tree[T]) AlbedoMipMapResamplingStrategy() *StrategyUpdater[T] {
	return &StrategyUpdater[T]{tree: t}
}

// SetEnabled toggles the MIP subsystem. Enabling a previously-disabled tree
// triggers a full recalculation (spec.md §4.G.3).
func (u *StrategyUpdater[T]) SetEnabled(enabled bool) *StrategyUpdater[T] {
	wasEnabled := u.tree.strategy.enabled
	u.tree.strategy.enabled = enabled
	if enabled && !wasEnabled {
		u.tree.RecalculateMips()
	}
	return u
}

func (u *StrategyUpdater[T]) SetMethodAt(level int, method ResamplingMethod) *StrategyUpdater[T] {
	u.tree.strategy.methods[level] = method
	return u
}

func (u *StrategyUpdater[T]) SetMethod(methods map[int]ResamplingMethod) *StrategyUpdater[T] {
	for level, m := range methods {
		u.tree.strategy.methods[level] = m
	}
	return u
}

func (u *StrategyUpdater[T]) SetColorSimilarityThrAt(level int, thr float32) *StrategyUpdater[T] {
	u.tree.strategy.colorThresholds[level] = clampUnit(thr)
	return u
}

func (u *StrategyUpdater[T]) SetColorSimilarityThr(thresholds map[int]float32) *StrategyUpdater[T] {
	for level, thr := range thresholds {
		u.tree.strategy.colorThresholds[level] = clampUnit(thr)
	}
	return u
}

func (u *StrategyUpdater[T]) RecalculateMips() *StrategyUpdater[T] {
	u.tree.RecalculateMips()
	return u
}

// refreshMipAt is the per-write MIP refresh hook of spec.md §4.G.2, called
// by the update engine after every insert, and after a clear that changed the
// root's occupancy bitmap.
func (t *Tree[T]) refreshMipAt(position V3c[uint32]) {
	if !t.strategy.enabled {
		return
	}
	t.updateMipPath(rootNodeKey, t.rootBounds(), position, 0)
}

func (t *Tree[T]) updateMipPath(key PoolKey, bounds Cube, position V3c[uint32], level int) {
	content := t.content(key)
	switch content.Kind {
	case NodeNothing, NodeUniformLeaf:
		// MIP is either absent or redundant with the brick itself.
		t.mips[key] = EmptyBrick()
	case NodeLeaf:
		t.writeMipSample(key, bounds, position, level)
	case NodeInternal:
		sectant := ChildSectantFor(bounds, position)
		if childKey, ok := t.childAt(key, sectant); ok {
			t.updateMipPath(childKey, ChildBoundsFor(bounds, sectant), position, level+1)
		}
		t.writeMipSample(key, bounds, position, level)
	}
}

// RecalculateMips rebuilds the entire MIP pyramid bottom-up (spec.md §4.G.3).
func (t *Tree[T]) RecalculateMips() {
	if !t.strategy.enabled {
		return
	}
	t.recalcNode(rootNodeKey, t.rootBounds(), 0)
}

func (t *Tree[T]) recalcNode(key PoolKey, bounds Cube, level int) {
	content := t.content(key)
	switch content.Kind {
	case NodeNothing, NodeUniformLeaf:
		t.mips[key] = EmptyBrick()
	case NodeLeaf:
		t.resampleWholeCube(key, bounds, level)
	case NodeInternal:
		children := t.children[key]
		if children.Kind == HasChildren {
			for s := 0; s < BoxNodeChildren; s++ {
				childKey := children.Nodes[s]
				if childKey == invalidPoolKey || !t.pool.KeyIsValid(childKey) {
					continue
				}
				t.recalcNode(childKey, ChildBoundsFor(bounds, uint8(s)), level+1)
			}
		}
		t.resampleWholeCube(key, bounds, level)
	}
}

func (t *Tree[T]) resampleWholeCube(key PoolKey, bounds Cube, level int) {
	cell := bounds.Size / t.brickDim
	if cell == 0 {
		cell = 1
	}
	for z := uint32(0); z < t.brickDim; z++ {
		for y := uint32(0); y < t.brickDim; y++ {
			for x := uint32(0); x < t.brickDim; x++ {
				pos := V3c[uint32]{X: bounds.Min.X + x*cell, Y: bounds.Min.Y + y*cell, Z: bounds.Min.Z + z*cell}
				t.writeMipSample(key, bounds, pos, level)
			}
		}
	}
}

// writeMipSample resamples the cell of node key's cube that position falls
// into (one mip-brick voxel's worth) with the level-appropriate method and
// writes the result at position's mip-brick slot.
func (t *Tree[T]) writeMipSample(key PoolKey, bounds Cube, position V3c[uint32], level int) {
	method := t.strategy.methodAt(level)
	idx := MatrixIndexFor(bounds, position, t.brickDim)
	albedo, ok := t.sampleWindowColor(brickCellBounds(bounds, idx, t.brickDim), method)
	flat := FlatIndex(idx, t.brickDim)
	brick := t.mips[key]
	if !ok {
		t.mips[key] = brick.SetAt(flat, EmptyPix, t.brickDim)
		return
	}
	pix := t.mipPaletteIndex(albedo, t.strategy.thresholdAt(level))
	t.mips[key] = brick.SetAt(flat, pix, t.brickDim)
}

// sampleWindowColor samples bounds's brick_dim^3 grid of voxel colors
// through the tree's own Get (honoring whatever brick data is stored below)
// and reduces them with method.
func (t *Tree[T]) sampleWindowColor(bounds Cube, method ResamplingMethod) (Albedo, bool) {
	cell := bounds.Size / t.brickDim
	if cell == 0 {
		cell = 1
	}
	root := t.rootBounds()
	samples := make([]Albedo, 0, t.brickDim*t.brickDim*t.brickDim)
	for z := uint32(0); z < t.brickDim; z++ {
		for y := uint32(0); y < t.brickDim; y++ {
			for x := uint32(0); x < t.brickDim; x++ {
				pos := V3c[uint32]{X: bounds.Min.X + x*cell, Y: bounds.Min.Y + y*cell, Z: bounds.Min.Z + z*cell}
				if !root.Contains(pos) {
					continue
				}
				pix := t.getPix(rootNodeKey, root, pos)
				if t.isEmptyPix(pix) {
					continue
				}
				if albedo, ok := t.palette.PixColor(pix); ok {
					samples = append(samples, albedo)
				}
			}
		}
	}
	return resample(samples, method)
}

// resample dispatches on the Point-vs-Posterize-vs-Box axis only. The
// BottomDominant variants are not distinguished here and sample exactly like
// their non-BD counterparts: see "BottomDominant resampling: acknowledged open
// deviation" in DESIGN.md.
func resample(samples []Albedo, method ResamplingMethod) (Albedo, bool) {
	if len(samples) == 0 {
		return Albedo{}, false
	}
	switch method.Kind {
	case MipPointFilter, MipPointFilterBottomDominant:
		return pointFilter(samples), true
	case MipPosterize, MipPosterizeBottomDominant:
		return posterize(samples, method.Threshold), true
	default:
		return boxFilter(samples), true
	}
}

// boxFilter averages samples in gamma space: accumulate squared components,
// divide by count, take the square root (spec.md §4.G.1).
func boxFilter(samples []Albedo) Albedo {
	var r2, g2, b2, a2 float64
	for _, s := range samples {
		r2 += float64(s.R) * float64(s.R)
		g2 += float64(s.G) * float64(s.G)
		b2 += float64(s.B) * float64(s.B)
		a2 += float64(s.A) * float64(s.A)
	}
	n := float64(len(samples))
	clamp := func(sumSq float64) uint8 {
		v := math.Sqrt(sumSq / n)
		return uint8(mgl32.Clamp(float32(v), 0, 255))
	}
	return Albedo{R: clamp(r2), G: clamp(g2), B: clamp(b2), A: clamp(a2)}
}

// pointFilter returns the most frequent sample, ties broken by first-seen.
func pointFilter(samples []Albedo) Albedo {
	counts := make(map[Albedo]int, len(samples))
	best := samples[0]
	bestCount := 0
	for _, s := range samples {
		counts[s]++
		if counts[s] > bestCount {
			bestCount = counts[s]
			best = s
		}
	}
	return best
}

type posterizeBucket struct {
	sumSqR, sumSqG, sumSqB, sumSqA float64
	count                          int
}

func (b posterizeBucket) mean() (float64, float64, float64) {
	n := float64(b.count)
	return math.Sqrt(b.sumSqR / n), math.Sqrt(b.sumSqG / n), math.Sqrt(b.sumSqB / n)
}

// posterize buckets samples by Euclidean distance in 0..255 space, merging
// a sample into the first bucket within thr*255 of its running mean, and
// returns the color of the largest bucket (spec.md §4.G.1).
func posterize(samples []Albedo, thr float32) Albedo {
	limit := float64(clampUnit(thr)) * 255
	var buckets []posterizeBucket
	for _, s := range samples {
		placed := false
		for i := range buckets {
			mr, mg, mb := buckets[i].mean()
			if colorDistance(mr, mg, mb, float64(s.R), float64(s.G), float64(s.B)) <= limit {
				buckets[i].sumSqR += float64(s.R) * float64(s.R)
				buckets[i].sumSqG += float64(s.G) * float64(s.G)
				buckets[i].sumSqB += float64(s.B) * float64(s.B)
				buckets[i].sumSqA += float64(s.A) * float64(s.A)
				buckets[i].count++
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, posterizeBucket{
				sumSqR: float64(s.R) * float64(s.R),
				sumSqG: float64(s.G) * float64(s.G),
				sumSqB: float64(s.B) * float64(s.B),
				sumSqA: float64(s.A) * float64(s.A),
				count:  1,
			})
		}
	}
	best := 0
	for i := range buckets {
		if buckets[i].count > buckets[best].count {
			best = i
		}
	}
	b := buckets[best]
	n := float64(b.count)
	clamp := func(sumSq float64) uint8 {
		v := math.Sqrt(sumSq / n)
		return uint8(mgl32.Clamp(float32(v), 0, 255))
	}
	return Albedo{R: clamp(b.sumSqR), G: clamp(b.sumSqG), B: clamp(b.sumSqB), A: clamp(b.sumSqA)}
}

func colorDistance(r1, g1, b1, r2, g2, b2 float64) float64 {
	dr, dg, db := r1-r2, g1-g2, b1-b2
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// mipPaletteIndex matches albedo against the existing palette within
// thr*255, reusing the first hit; otherwise it inserts a new color.
func (t *Tree[T]) mipPaletteIndex(albedo Albedo, thr float32) PaletteIndex {
	limit := float64(clampUnit(thr)) * 255
	for idx := 0; idx < t.palette.ColorLen(); idx++ {
		existing := t.palette.colors[idx]
		if colorDistance(float64(existing.R), float64(existing.G), float64(existing.B),
			float64(albedo.R), float64(albedo.G), float64(albedo.B)) <= limit {
			return PaletteIndex{Color: uint16(idx), Data: emptyMarkerU16}
		}
	}
	return t.palette.Add(EntryVisual[T](albedo))
}
