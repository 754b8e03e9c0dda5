// Package shapes provides bulk-fill primitive helpers atop boxtree.Tree,
// adapted from the teacher's voxelrt/rt/volume/primitives.go onto the
// pool-indexed tree's Insert API.
package shapes

import (
	"math"

	"github.com/voxcore/boxtree"
)

// Point sets a single voxel to albedo.
func Point[T boxtree.UserData](tree *boxtree.Tree[T], position boxtree.V3c[uint32], albedo boxtree.Albedo) error {
	return tree.Insert(position, boxtree.EntryVisual[T](albedo))
}

// Sphere fills every voxel whose center lies within radius of center.
func Sphere[T boxtree.UserData](tree *boxtree.Tree[T], center boxtree.V3c[float32], radius float32, albedo boxtree.Albedo) error {
	r2 := radius * radius
	minB, maxB := boundingBox(center, radius, tree.Size())
	entry := boxtree.EntryVisual[T](albedo)

	for z := minB.Z; z <= maxB.Z; z++ {
		for y := minB.Y; y <= maxB.Y; y++ {
			for x := minB.X; x <= maxB.X; x++ {
				dx := float32(x) - center.X + 0.5
				dy := float32(y) - center.Y + 0.5
				dz := float32(z) - center.Z + 0.5
				if dx*dx+dy*dy+dz*dz > r2 {
					continue
				}
				if err := tree.Insert(boxtree.V3c[uint32]{X: x, Y: y, Z: z}, entry); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Cube fills every voxel inside the axis-aligned box [min, max].
func Cube[T boxtree.UserData](tree *boxtree.Tree[T], min, max boxtree.V3c[float32], albedo boxtree.Albedo) error {
	minI := floorClamp(min, tree.Size())
	maxI := floorClamp(max, tree.Size())
	entry := boxtree.EntryVisual[T](albedo)

	for z := minI.Z; z <= maxI.Z; z++ {
		for y := minI.Y; y <= maxI.Y; y++ {
			for x := minI.X; x <= maxI.X; x++ {
				if err := tree.Insert(boxtree.V3c[uint32]{X: x, Y: y, Z: z}, entry); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func boundingBox(center boxtree.V3c[float32], radius float32, treeSize uint32) (boxtree.V3c[uint32], boxtree.V3c[uint32]) {
	min := boxtree.V3c[float32]{X: center.X - radius, Y: center.Y - radius, Z: center.Z - radius}
	max := boxtree.V3c[float32]{X: center.X + radius, Y: center.Y + radius, Z: center.Z + radius}
	return floorClamp(min, treeSize), floorClamp(max, treeSize)
}

func floorClamp(v boxtree.V3c[float32], treeSize uint32) boxtree.V3c[uint32] {
	clampAxis := func(f float32) uint32 {
		if f < 0 {
			return 0
		}
		d := uint32(math.Floor(float64(f)))
		if d >= treeSize {
			return treeSize - 1
		}
		return d
	}
	return boxtree.V3c[uint32]{X: clampAxis(v.X), Y: clampAxis(v.Y), Z: clampAxis(v.Z)}
}
