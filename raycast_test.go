package boxtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetByRayMissesEmptyTree(t *testing.T) {
	tree, err := New[stubData](64, 4)
	require.NoError(t, err)

	_, _, _, ok := tree.GetByRay(Ray{
		Origin:    V3c[float32]{X: -10, Y: 32, Z: 32},
		Direction: V3c[float32]{X: 1, Y: 0, Z: 0},
	})
	require.False(t, ok, "a ray through an empty tree must not report a hit")
}

func TestGetByRayHitsInsertedVoxel(t *testing.T) {
	tree, err := New[stubData](64, 4)
	require.NoError(t, err)
	pos := V3c[uint32]{X: 32, Y: 32, Z: 32}
	require.NoError(t, tree.Insert(pos, EntryVisual[stubData](red())))

	entry, point, normal, ok := tree.GetByRay(Ray{
		Origin:    V3c[float32]{X: -10, Y: 32.5, Z: 32.5},
		Direction: V3c[float32]{X: 1, Y: 0, Z: 0},
	})
	require.True(t, ok)
	albedo, hasColor := entry.Albedo()
	require.True(t, hasColor)
	require.Equal(t, red(), albedo)
	require.InDelta(t, 32, point.X, 1)
	require.Equal(t, V3c[float32]{X: -1, Y: 0, Z: 0}, normal)
}

func TestGetByRaySkipsEmptyRegionsEfficiently(t *testing.T) {
	tree, err := New[stubData](64, 4)
	require.NoError(t, err)
	// a single far voxel with a large empty region in front of it
	require.NoError(t, tree.Insert(V3c[uint32]{X: 60, Y: 32, Z: 32}, EntryVisual[stubData](blue())))

	entry, _, _, ok := tree.GetByRay(Ray{
		Origin:    V3c[float32]{X: 0, Y: 32.5, Z: 32.5},
		Direction: V3c[float32]{X: 1, Y: 0, Z: 0},
	})
	require.True(t, ok)
	albedo, _ := entry.Albedo()
	require.Equal(t, blue(), albedo)
}

func TestGetByRayMissesWhenAimedAwayFromTree(t *testing.T) {
	tree, err := New[stubData](64, 4)
	require.NoError(t, err)
	require.NoError(t, tree.Insert(V3c[uint32]{X: 32, Y: 32, Z: 32}, EntryVisual[stubData](red())))

	_, _, _, ok := tree.GetByRay(Ray{
		Origin:    V3c[float32]{X: -10, Y: 32, Z: 32},
		Direction: V3c[float32]{X: -1, Y: 0, Z: 0},
	})
	require.False(t, ok)
}

func TestHashDirectionCoversAllEightBuckets(t *testing.T) {
	seen := make(map[uint8]bool)
	for _, x := range []float32{-1, 1} {
		for _, y := range []float32{-1, 1} {
			for _, z := range []float32{-1, 1} {
				seen[HashDirection(V3c[float32]{X: x, Y: y, Z: z})] = true
			}
		}
	}
	require.Len(t, seen, 8)
}

func TestBuildReachabilityMaskEntryAlwaysReachesItself(t *testing.T) {
	table := buildReachabilityMask()
	for entry := 0; entry < BoxNodeChildren; entry++ {
		for dir := 0; dir < 8; dir++ {
			require.NotZero(t, table[entry][dir]&(uint64(1)<<uint(entry)),
				"entry sectant %d must always be reachable from itself in direction bucket %d", entry, dir)
		}
	}
}
