package boxtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoxFilterAveragesInGammaSpace(t *testing.T) {
	samples := []Albedo{
		{R: 0, G: 0, B: 0, A: 255},
		{R: 255, G: 255, B: 255, A: 255},
	}
	got := boxFilter(samples)
	// sqrt((0^2+255^2)/2) ~= 180
	require.InDelta(t, 180, int(got.R), 2)
	require.Equal(t, uint8(255), got.A)
}

func TestPointFilterPicksMostFrequent(t *testing.T) {
	samples := []Albedo{red(), red(), blue()}
	require.Equal(t, red(), pointFilter(samples))
}

func TestPosterizeMergesCloseColorsIntoOneBucket(t *testing.T) {
	samples := []Albedo{
		{R: 200, G: 0, B: 0, A: 255},
		{R: 202, G: 0, B: 0, A: 255},
		{R: 0, G: 0, B: 200, A: 255},
	}
	got := posterize(samples, 0.05)
	require.InDelta(t, 200, int(got.R), 3)
}

func TestResampleOnEmptySamplesReportsNoColor(t *testing.T) {
	_, ok := resample(nil, BoxFilter())
	require.False(t, ok)
}

func TestRecalculateMipsIsANoOpWhenDisabled(t *testing.T) {
	tree, err := New[stubData](16, 4)
	require.NoError(t, err)
	require.NoError(t, tree.Insert(V3c[uint32]{X: 1, Y: 1, Z: 1}, EntryVisual[stubData](red())))

	// disabled by default; RecalculateMips should not populate any mip brick
	tree.RecalculateMips()
	for _, b := range tree.mips {
		require.True(t, b.IsEmpty())
	}
}

func TestEnablingMipStrategyTriggersRecalculation(t *testing.T) {
	tree, err := New[stubData](16, 4)
	require.NoError(t, err)
	require.NoError(t, tree.Insert(V3c[uint32]{X: 1, Y: 1, Z: 1}, EntryVisual[stubData](red())))

	tree.AlbedoMipMapResamplingStrategy().SetEnabled(true)

	found := false
	for _, b := range tree.mips {
		if !b.IsEmpty() {
			found = true
			break
		}
	}
	require.True(t, found, "expected at least one mip brick to be populated after enabling the strategy")
}

func TestMipMethodAtFallsBackToDefault(t *testing.T) {
	strategy := defaultMipStrategy()
	strategy.methods[2] = PointFilter()
	require.Equal(t, MipPointFilter, strategy.methodAt(2).Kind)
	require.Equal(t, MipBoxFilter, strategy.methodAt(0).Kind)
}
