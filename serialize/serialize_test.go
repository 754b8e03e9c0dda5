package serialize

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/voxcore/boxtree"
)

type voxData struct{ Tag uint32 }

func (d voxData) IsEmpty() bool { return d.Tag == 0 }

func buildTree(t *testing.T) *boxtree.Tree[voxData] {
	t.Helper()
	tree, err := boxtree.New[voxData](64, 4)
	require.NoError(t, err)
	require.NoError(t, tree.Insert(boxtree.V3c[uint32]{X: 1, Y: 2, Z: 3},
		boxtree.EntryComplex[voxData](boxtree.Albedo{R: 255, A: 255}, voxData{Tag: 7})))
	require.NoError(t, tree.InsertAtLOD(boxtree.V3c[uint32]{X: 16, Y: 16, Z: 16}, 16,
		boxtree.EntryVisual[voxData](boxtree.Albedo{G: 255, A: 255})))
	return tree
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	tree := buildTree(t)

	data, err := Marshal(tree)
	require.NoError(t, err)

	restored, err := Unmarshal[voxData](data)
	require.NoError(t, err)
	require.Equal(t, tree.Size(), restored.Size())
	require.Equal(t, tree.BrickDim(), restored.BrickDim())

	entry, err := restored.Get(boxtree.V3c[uint32]{X: 1, Y: 2, Z: 3})
	require.NoError(t, err)
	albedo, hasColor := entry.Albedo()
	data2, hasData := entry.Data()
	require.True(t, hasColor)
	require.Equal(t, boxtree.Albedo{R: 255, A: 255}, albedo)
	require.True(t, hasData)
	require.Equal(t, uint32(7), data2.Tag)

	lodVoxel, err := restored.Get(boxtree.V3c[uint32]{X: 20, Y: 20, Z: 20})
	require.NoError(t, err)
	lodAlbedo, ok := lodVoxel.Albedo()
	require.True(t, ok)
	require.Equal(t, boxtree.Albedo{G: 255, A: 255}, lodAlbedo)
}

func TestEncodeDoesNotMutateSourceTree(t *testing.T) {
	tree := buildTree(t)
	liveBefore, totalBefore := tree.Stats()

	_, err := Marshal(tree)
	require.NoError(t, err)

	liveAfter, totalAfter := tree.Stats()
	require.Equal(t, liveBefore, liveAfter)
	require.Equal(t, totalBefore, totalAfter)
}

func TestGobCodecRoundTripsThroughCodecInterface(t *testing.T) {
	var codec Codec[voxData] = NewGobCodec[voxData]()
	tree := buildTree(t)

	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, tree))

	restored, err := codec.Decode(&buf)
	require.NoError(t, err)
	entry, err := restored.Get(boxtree.V3c[uint32]{X: 1, Y: 2, Z: 3})
	require.NoError(t, err)
	require.True(t, entry.IsSome())
}
