package boxtree

import "fmt"

// Error taxonomy, spec.md §7. Configuration errors are raised only at
// construction; InvalidPosition is raised by the bounds checks in
// Get/Insert*/Update/Clear*. GetByRay returns no error: a ray that misses the
// tree reports ok=false.

type InvalidBrickDimensionError struct{ BrickDim uint32 }

func (e *InvalidBrickDimensionError) Error() string {
	return fmt.Sprintf("boxtree: invalid brick dimension %d (must be a power of two)", e.BrickDim)
}

type InvalidSizeError struct{ Size uint32 }

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("boxtree: invalid tree size %d (must equal brick_dim * 4^k)", e.Size)
}

type InvalidStructureError struct{ Reason string }

func (e *InvalidStructureError) Error() string {
	return fmt.Sprintf("boxtree: invalid structure: %s", e.Reason)
}

type InvalidPositionError struct{ X, Y, Z uint32 }

func (e *InvalidPositionError) Error() string {
	return fmt.Sprintf("boxtree: position (%d,%d,%d) is out of tree bounds", e.X, e.Y, e.Z)
}

// paletteOverflowPanic signals a hard fault: the packed palette-index representation
// cannot address more than 65535 entries in either table. Per spec.md §7 this
// is a programmer error, not a retried/recoverable condition, so it panics
// rather than returning an error.
func paletteOverflowPanic(which string) {
	panic(fmt.Sprintf("boxtree: %s palette overflowed 65535 entries", which))
}
