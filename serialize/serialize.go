// Package serialize provides the external serializer collaborator of
// SPEC_FULL.md §6: a Codec interface plus a minimal gob-based reference
// implementation that round-trips a boxtree.Tree through its exported
// Snapshot, without touching tree internals or mutating the tree it reads.
package serialize

import (
	"bytes"
	"encoding/gob"
	"io"

	"github.com/voxcore/boxtree"
)

// Codec encodes and decodes a tree snapshot to/from a byte stream.
type Codec[T boxtree.UserData] interface {
	Encode(w io.Writer, tree *boxtree.Tree[T]) error
	Decode(r io.Reader, opts ...boxtree.TreeOption) (*boxtree.Tree[T], error)
}

// GobCodec is the reference Codec implementation, encoding a tree's
// boxtree.Snapshot with encoding/gob.
type GobCodec[T boxtree.UserData] struct{}

func NewGobCodec[T boxtree.UserData]() GobCodec[T] { return GobCodec[T]{} }

func (GobCodec[T]) Encode(w io.Writer, tree *boxtree.Tree[T]) error {
	return gob.NewEncoder(w).Encode(tree.Snapshot())
}

func (GobCodec[T]) Decode(r io.Reader, opts ...boxtree.TreeOption) (*boxtree.Tree[T], error) {
	var snap boxtree.Snapshot[T]
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return nil, err
	}
	return boxtree.RestoreSnapshot(snap, opts...)
}

// Marshal encodes tree to a byte slice via the gob reference codec.
func Marshal[T boxtree.UserData](tree *boxtree.Tree[T]) ([]byte, error) {
	var buf bytes.Buffer
	if err := (GobCodec[T]{}).Encode(&buf, tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a byte slice produced by Marshal back into a tree.
func Unmarshal[T boxtree.UserData](data []byte, opts ...boxtree.TreeOption) (*boxtree.Tree[T], error) {
	return (GobCodec[T]{}).Decode(bytes.NewReader(data), opts...)
}
