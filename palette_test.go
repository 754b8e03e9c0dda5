package boxtree

import "testing"

func TestPaletteAddDedup(t *testing.T) {
	p := NewPalette[stubData](nil)
	a := p.Add(EntryVisual[stubData](red()))
	b := p.Add(EntryVisual[stubData](red()))
	if a != b {
		t.Errorf("expected identical colors to dedup to the same index, got %v and %v", a, b)
	}
	if p.ColorLen() != 1 {
		t.Errorf("expected 1 color entry, got %d", p.ColorLen())
	}
}

func TestPaletteEntryNormalization(t *testing.T) {
	p := NewPalette[stubData](nil)

	if pix := p.Add(EntryVisual[stubData](Albedo{})); pix != EmptyPix {
		t.Errorf("transparent Visual entry should normalize to EmptyPix, got %v", pix)
	}
	if pix := p.Add(EntryInformative[stubData](stubData{})); pix != EmptyPix {
		t.Errorf("empty-data Informative entry should normalize to EmptyPix, got %v", pix)
	}

	complexBoth := p.Add(EntryComplex[stubData](red(), stubData{Tag: 1}))
	if !complexBoth.ColorIsSome() || !complexBoth.DataIsSome() {
		t.Errorf("expected a full Complex entry to carry both halves, got %v", complexBoth)
	}

	visualOnly := p.Add(EntryComplex[stubData](red(), stubData{}))
	if !visualOnly.ColorIsSome() || visualOnly.DataIsSome() {
		t.Errorf("expected Complex with empty data to collapse to Visual, got %v", visualOnly)
	}

	informativeOnly := p.Add(EntryComplex[stubData](Albedo{}, stubData{Tag: 2}))
	if informativeOnly.ColorIsSome() || !informativeOnly.DataIsSome() {
		t.Errorf("expected Complex with transparent albedo to collapse to Informative, got %v", informativeOnly)
	}
}

func TestPalettePixEntryRoundTrip(t *testing.T) {
	p := NewPalette[stubData](nil)
	pix := p.Add(EntryComplex[stubData](blue(), stubData{Tag: 7}))

	entry := p.PixEntry(pix)
	albedo, hasColor := entry.Albedo()
	data, hasData := entry.Data()
	if !hasColor || albedo != blue() {
		t.Errorf("expected round-tripped color blue, got %v (hasColor=%v)", albedo, hasColor)
	}
	if !hasData || data.Tag != 7 {
		t.Errorf("expected round-tripped data tag 7, got %v (hasData=%v)", data, hasData)
	}
}

func TestPalettePixPointsToEmpty(t *testing.T) {
	p := NewPalette[stubData](nil)
	if !p.PixPointsToEmpty(EmptyPix) {
		t.Errorf("EmptyPix must always point to empty")
	}
	pix := p.Add(EntryVisual[stubData](red()))
	if p.PixPointsToEmpty(pix) {
		t.Errorf("a pix carrying a real color must not point to empty")
	}
}

func TestMergeHalvesPreservesUntouchedHalf(t *testing.T) {
	p := NewPalette[stubData](nil)
	existing := p.Add(EntryComplex[stubData](red(), stubData{Tag: 1}))
	colorOnlyUpdate := p.Add(EntryVisual[stubData](blue()))

	merged := mergeHalves(existing, colorOnlyUpdate)
	if merged.Color != colorOnlyUpdate.Color {
		t.Errorf("expected color half to be overwritten")
	}
	if merged.Data != existing.Data {
		t.Errorf("expected data half to be preserved when update carries no data")
	}
}

func TestPaletteSnapshotRestore(t *testing.T) {
	p := NewPalette[stubData](nil)
	p.Add(EntryVisual[stubData](red()))
	p.Add(EntryInformative[stubData](stubData{Tag: 3}))

	colors, data := p.Snapshot()
	restored := NewPalette[stubData](nil)
	restored.Restore(colors, data)

	if restored.ColorLen() != p.ColorLen() || restored.DataLen() != p.DataLen() {
		t.Errorf("expected restored palette sizes to match original")
	}
	// dedup index must still work post-restore
	again := restored.Add(EntryVisual[stubData](red()))
	if again.Color != 0 {
		t.Errorf("expected restored dedup index to recognize the existing color, got %v", again)
	}
}

func TestPaletteOverflowPanics(t *testing.T) {
	p := NewPalette[stubData](nil)
	defer func() {
		if recover() == nil {
			t.Errorf("expected palette overflow to panic")
		}
	}()
	for i := 0; i <= paletteOverflowLimit; i++ {
		p.addColor(Albedo{R: uint8(i), G: uint8(i >> 8), B: 1, A: 1})
	}
}
