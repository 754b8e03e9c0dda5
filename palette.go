package boxtree

// Albedo is a packed 8-bit-per-channel color, spec.md §3.3.
type Albedo struct {
	R, G, B, A uint8
}

// IsTransparent reports the zero-albedo special case: a fully-zero albedo
// (including alpha) is treated as "no color" everywhere in this package.
func (a Albedo) IsTransparent() bool {
	return a == Albedo{}
}

// UserData is the opaque, user-supplied payload type a tree can be
// instantiated over. Implementations decide what "no data" means for T.
type UserData interface {
	comparable
	IsEmpty() bool
}

// PaletteIndex is the packed "palette index value" pix of spec.md §3.3/§9: a
// pair of half-indices into the color and data tables, with 0xFFFF marking
// an absent half.
type PaletteIndex struct {
	Color uint16
	Data  uint16
}

// EmptyPix is the packed index value for "no voxel here".
var EmptyPix = PaletteIndex{Color: emptyMarkerU16, Data: emptyMarkerU16}

func (p PaletteIndex) ColorIsSome() bool { return p.Color != emptyMarkerU16 }
func (p PaletteIndex) DataIsSome() bool  { return p.Data != emptyMarkerU16 }

// Entry is the caller-facing sum type for "what to write at a voxel":
// Empty, Visual (color only), Informative (data only) or Complex (both).
// Mirrors BoxTreeEntry in the reference implementation.
type Entry[T UserData] struct {
	kind   entryKind
	albedo Albedo
	data   T
}

type entryKind uint8

const (
	entryEmpty entryKind = iota
	entryVisual
	entryInformative
	entryComplex
)

func EntryEmpty[T UserData]() Entry[T] {
	return Entry[T]{kind: entryEmpty}
}

func EntryVisual[T UserData](albedo Albedo) Entry[T] {
	return Entry[T]{kind: entryVisual, albedo: albedo}
}

func EntryInformative[T UserData](data T) Entry[T] {
	return Entry[T]{kind: entryInformative, data: data}
}

func EntryComplex[T UserData](albedo Albedo, data T) Entry[T] {
	return Entry[T]{kind: entryComplex, albedo: albedo, data: data}
}

func (e Entry[T]) Albedo() (Albedo, bool) {
	switch e.kind {
	case entryVisual, entryComplex:
		return e.albedo, true
	default:
		return Albedo{}, false
	}
}

func (e Entry[T]) Data() (T, bool) {
	switch e.kind {
	case entryInformative, entryComplex:
		return e.data, true
	default:
		var zero T
		return zero, false
	}
}

// IsNone mirrors BoxTreeEntry::is_none: an entry with a transparent albedo
// and empty data carries nothing, regardless of its nominal kind.
func (e Entry[T]) IsNone() bool {
	switch e.kind {
	case entryEmpty:
		return true
	case entryVisual:
		return e.albedo.IsTransparent()
	case entryInformative:
		return e.data.IsEmpty()
	case entryComplex:
		return e.albedo.IsTransparent() && e.data.IsEmpty()
	}
	return true
}

func (e Entry[T]) IsSome() bool { return !e.IsNone() }

// Palette is the deduplicated color/user-data table pair described in
// spec.md §3.3/§4.C. It grows monotonically; there is no delete/compaction.
type Palette[T UserData] struct {
	colors []Albedo
	data   []T

	colorIndex map[Albedo]uint16
	dataIndex  map[T]uint16

	logger Logger
}

func NewPalette[T UserData](logger Logger) *Palette[T] {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Palette[T]{
		colorIndex: make(map[Albedo]uint16),
		dataIndex:  make(map[T]uint16),
		logger:     logger,
	}
}

const paletteOverflowLimit = 0xFFFF // entries [0, 0xFFFE] are addressable; 0xFFFF is the empty sentinel
const paletteWarnThreshold = (paletteOverflowLimit * 9) / 10

// Add normalizes and inserts entry, returning its packed palette index.
// Normalization rules (spec.md §4.C): a zero albedo collapses Complex down to
// Informative; empty data collapses Complex down to Visual; both-empty
// collapses to the Empty sentinel.
func (p *Palette[T]) Add(entry Entry[T]) PaletteIndex {
	switch entry.kind {
	case entryEmpty:
		return EmptyPix
	case entryVisual:
		if entry.albedo.IsTransparent() {
			return EmptyPix
		}
		return PaletteIndex{Color: p.addColor(entry.albedo), Data: emptyMarkerU16}
	case entryInformative:
		if entry.data.IsEmpty() {
			return EmptyPix
		}
		return PaletteIndex{Color: emptyMarkerU16, Data: p.addData(entry.data)}
	case entryComplex:
		if entry.albedo.IsTransparent() {
			return p.Add(EntryInformative[T](entry.data))
		}
		if entry.data.IsEmpty() {
			return p.Add(EntryVisual[T](entry.albedo))
		}
		return PaletteIndex{Color: p.addColor(entry.albedo), Data: p.addData(entry.data)}
	}
	return EmptyPix
}

func (p *Palette[T]) addColor(albedo Albedo) uint16 {
	if idx, ok := p.colorIndex[albedo]; ok {
		return idx
	}
	if len(p.colors) >= paletteOverflowLimit {
		paletteOverflowPanic("color")
	}
	idx := uint16(len(p.colors))
	p.colors = append(p.colors, albedo)
	p.colorIndex[albedo] = idx
	if len(p.colors) == paletteWarnThreshold {
		p.logger.Warnf("color palette at %d/%d entries", len(p.colors), paletteOverflowLimit)
	}
	return idx
}

func (p *Palette[T]) addData(data T) uint16 {
	if idx, ok := p.dataIndex[data]; ok {
		return idx
	}
	if len(p.data) >= paletteOverflowLimit {
		paletteOverflowPanic("data")
	}
	idx := uint16(len(p.data))
	p.data = append(p.data, data)
	p.dataIndex[data] = idx
	if len(p.data) == paletteWarnThreshold {
		p.logger.Warnf("data palette at %d/%d entries", len(p.data), paletteOverflowLimit)
	}
	return idx
}

func (p *Palette[T]) PixColor(pix PaletteIndex) (Albedo, bool) {
	if !pix.ColorIsSome() || int(pix.Color) >= len(p.colors) {
		return Albedo{}, false
	}
	return p.colors[pix.Color], true
}

func (p *Palette[T]) PixData(pix PaletteIndex) (T, bool) {
	if !pix.DataIsSome() || int(pix.Data) >= len(p.data) {
		var zero T
		return zero, false
	}
	return p.data[pix.Data], true
}

// PixPointsToEmpty reports whether pix resolves to "no voxel" once its
// halves are looked up: an absent half never carries data, and a present
// color half that happens to be the zero (transparent) albedo still counts
// as empty (spec.md §3.3).
func (p *Palette[T]) PixPointsToEmpty(pix PaletteIndex) bool {
	colorEmpty := true
	if pix.ColorIsSome() {
		if c, ok := p.PixColor(pix); ok {
			colorEmpty = c.IsTransparent()
		}
	}
	dataEmpty := true
	if pix.DataIsSome() {
		if d, ok := p.PixData(pix); ok {
			dataEmpty = d.IsEmpty()
		} else {
			dataEmpty = true
		}
	}
	return colorEmpty && dataEmpty
}

// PixEntry reconstructs an Entry view over a palette index, for Tree.Get.
func (p *Palette[T]) PixEntry(pix PaletteIndex) Entry[T] {
	albedo, hasColor := p.PixColor(pix)
	data, hasData := p.PixData(pix)
	switch {
	case hasColor && hasData:
		return EntryComplex[T](albedo, data)
	case hasColor:
		return EntryVisual[T](albedo)
	case hasData:
		return EntryInformative[T](data)
	default:
		return EntryEmpty[T]()
	}
}

// mergeHalves implements the `overwrite=false` half-update rule of spec.md
// §4.F.1: only the component(s) update actually carries replace existing's
// corresponding half, leaving the other half untouched.
func mergeHalves(existing, update PaletteIndex) PaletteIndex {
	out := existing
	if update.ColorIsSome() {
		out.Color = update.Color
	}
	if update.DataIsSome() {
		out.Data = update.Data
	}
	return out
}

func (p *Palette[T]) ColorLen() int { return len(p.colors) }
func (p *Palette[T]) DataLen() int  { return len(p.data) }

// Snapshot returns copies of the palette's dedup tables, for serialization.
func (p *Palette[T]) Snapshot() (colors []Albedo, data []T) {
	colors = make([]Albedo, len(p.colors))
	copy(colors, p.colors)
	data = make([]T, len(p.data))
	copy(data, p.data)
	return colors, data
}

// Restore replaces the palette's tables with a prior Snapshot's contents,
// rebuilding the dedup indexes.
func (p *Palette[T]) Restore(colors []Albedo, data []T) {
	p.colors = append([]Albedo(nil), colors...)
	p.data = append([]T(nil), data...)
	p.colorIndex = make(map[Albedo]uint16, len(p.colors))
	for i, c := range p.colors {
		p.colorIndex[c] = uint16(i)
	}
	p.dataIndex = make(map[T]uint16, len(p.data))
	for i, d := range p.data {
		p.dataIndex[d] = uint16(i)
	}
}
