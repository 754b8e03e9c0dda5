// Package magicavoxel imports MagicaVoxel .vox files into a boxtree.Tree,
// adapted from the teacher's root vox.go chunk parser (MAIN/SIZE/XYZI/RGBA),
// rewired to call only boxtree's public New/Tree.Insert/Tree.Simplify
// surface instead of reaching into tree internals.
package magicavoxel

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/voxcore/boxtree"
)

const voxMagic = "VOX "

var errNotVoxFile = errors.New("magicavoxel: not a valid VOX file")

type model struct {
	sizeX, sizeY, sizeZ uint32
	voxels              []voxel
}

type voxel struct {
	x, y, z    uint32
	colorIndex byte
}

// Import reads a MagicaVoxel file from r and writes its first model's voxels
// into a freshly constructed Tree of side brickDim*BOX_NODE_DIM^k (rounded up
// to the smallest shape that fits the model). Auto-simplify is disabled for
// the duration of the import and a final Tree.Simplify() runs once at the end,
// matching SPEC_FULL.md §6's Importer contract.
func Import[T boxtree.UserData](r io.Reader, brickDim uint32, opts ...boxtree.TreeOption) (*boxtree.Tree[T], error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != voxMagic {
		return nil, errNotVoxFile
	}

	var version int32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, err
	}

	palette := defaultPalette()
	var models []model
	currentModel := -1

	for {
		var chunkID [4]byte
		if _, err := io.ReadFull(r, chunkID[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		var chunkSize, childrenSize int32
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &childrenSize); err != nil {
			return nil, err
		}

		data := make([]byte, chunkSize)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}

		switch string(chunkID[:]) {
		case "MAIN":
			continue
		case "SIZE":
			currentModel++
			if currentModel >= len(models) {
				models = append(models, model{})
			}
			if len(data) < 12 {
				return nil, errors.New("magicavoxel: SIZE chunk too small")
			}
			models[currentModel].sizeX = binary.LittleEndian.Uint32(data[0:4])
			models[currentModel].sizeY = binary.LittleEndian.Uint32(data[4:8])
			models[currentModel].sizeZ = binary.LittleEndian.Uint32(data[8:12])
		case "XYZI":
			if currentModel < 0 || currentModel >= len(models) {
				return nil, errors.New("magicavoxel: XYZI chunk without preceding SIZE")
			}
			if len(data) < 4 {
				return nil, errors.New("magicavoxel: XYZI chunk too small")
			}
			count := binary.LittleEndian.Uint32(data[:4])
			voxels := make([]voxel, 0, count)
			for i := 0; i < int(count); i++ {
				off := 4 + i*4
				if off+3 >= len(data) {
					return nil, errors.New("magicavoxel: XYZI chunk data overflow")
				}
				voxels = append(voxels, voxel{
					x:          uint32(data[off]),
					y:          uint32(data[off+1]),
					z:          uint32(data[off+2]),
					colorIndex: data[off+3],
				})
			}
			models[currentModel].voxels = voxels
		case "RGBA":
			for i := 0; i < 255; i++ {
				off := i * 4
				if off+3 >= len(data) {
					break
				}
				palette[i+1] = boxtree.Albedo{R: data[off], G: data[off+1], B: data[off+2], A: data[off+3]}
			}
		default:
			// PACK / MATL / nTRN / nGRP / nSHP scene-graph chunks are outside
			// this importer's scope (single flattened model, no materials).
		}
	}

	if len(models) == 0 {
		return nil, errors.New("magicavoxel: file contains no models")
	}
	m := models[0]

	size := nextValidSize(maxU32(m.sizeX, m.sizeY, m.sizeZ), brickDim)
	treeOpts := append(append([]boxtree.TreeOption{}, opts...), boxtree.WithAutoSimplify(false))

	tree, err := boxtree.New[T](size, brickDim, treeOpts...)
	if err != nil {
		return nil, err
	}

	for _, v := range m.voxels {
		albedo := palette[v.colorIndex]
		if albedo.IsTransparent() {
			continue
		}
		pos := boxtree.V3c[uint32]{X: v.x, Y: v.y, Z: v.z}
		if err := tree.Insert(pos, boxtree.EntryVisual[T](albedo)); err != nil {
			return nil, err
		}
	}

	tree.Simplify()
	return tree, nil
}

func maxU32(a, b, c uint32) uint32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// nextValidSize returns the smallest tree size >= required that is
// brick_dim*BOX_NODE_DIM^k for some k>=1, satisfying boxtree.New's shape
// validation.
func nextValidSize(required, brickDim uint32) uint32 {
	const boxNodeDim = 4
	size := brickDim * boxNodeDim
	for size < required {
		size *= boxNodeDim
	}
	return size
}

func defaultPalette() [256]boxtree.Albedo {
	var p [256]boxtree.Albedo
	for i := range p {
		p[i] = boxtree.Albedo{R: 255, G: 255, B: 255, A: 255}
	}
	p[0] = boxtree.Albedo{}
	return p
}
