package boxtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsNonPowerOfTwoBrickDim(t *testing.T) {
	_, err := New[stubData](64, 3)
	require.Error(t, err)
	require.IsType(t, &InvalidBrickDimensionError{}, err)
}

func TestNewRejectsSizeNotMultipleOfBoxNodeDimPower(t *testing.T) {
	_, err := New[stubData](10, 2)
	require.Error(t, err)
}

func TestNewRejectsSizeBelowOneLevel(t *testing.T) {
	_, err := New[stubData](2, 2)
	require.Error(t, err)
	require.IsType(t, &InvalidStructureError{}, err)
}

func TestNewAcceptsValidShape(t *testing.T) {
	tree, err := New[stubData](64, 4)
	require.NoError(t, err)
	require.Equal(t, uint32(64), tree.Size())
	require.Equal(t, uint32(4), tree.BrickDim())
}

func TestGetOnFreshTreeIsEmpty(t *testing.T) {
	tree, err := New[stubData](16, 4)
	require.NoError(t, err)
	entry, err := tree.Get(V3c[uint32]{X: 5, Y: 5, Z: 5})
	require.NoError(t, err)
	require.True(t, entry.IsNone())
}

func TestGetOutOfBoundsReturnsInvalidPositionError(t *testing.T) {
	tree, err := New[stubData](16, 4)
	require.NoError(t, err)
	_, err = tree.Get(V3c[uint32]{X: 16, Y: 0, Z: 0})
	require.Error(t, err)
	require.IsType(t, &InvalidPositionError{}, err)
}

func TestInsertThenGetRoundTrips(t *testing.T) {
	tree, err := New[stubData](16, 4)
	require.NoError(t, err)

	pos := V3c[uint32]{X: 3, Y: 3, Z: 3}
	require.NoError(t, tree.Insert(pos, EntryVisual[stubData](red())))

	entry, err := tree.Get(pos)
	require.NoError(t, err)
	albedo, ok := entry.Albedo()
	require.True(t, ok)
	require.Equal(t, red(), albedo)
}

func TestStatsReflectLiveNodeGrowth(t *testing.T) {
	tree, err := New[stubData](64, 4)
	require.NoError(t, err)
	liveBefore, _ := tree.Stats()

	require.NoError(t, tree.Insert(V3c[uint32]{X: 1, Y: 1, Z: 1}, EntryVisual[stubData](red())))

	liveAfter, totalAfter := tree.Stats()
	require.GreaterOrEqual(t, liveAfter, liveBefore)
	require.Greater(t, totalAfter, int64(0))
}
