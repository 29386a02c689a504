package merkle

import (
	"fmt"
	"math/bits"
)

// Tree is a binary merkle tree over an ordered batch of leaves. See doc.go for
// the layout and the unpaired node rule.
type Tree struct {
	hasher Hasher
	levels [][]Digest
}

// NewTree builds the tree for leaves. The leaves are copied, so the caller may
// reuse the slice.
func NewTree(hasher Hasher, leaves []Digest) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyBatch
	}

	level := make([]Digest, len(leaves))
	copy(level, leaves)

	t := &Tree{
		hasher: hasher,
		levels: make([][]Digest, 0, TreeHeight(uint64(len(leaves)))+1),
	}
	t.levels = append(t.levels, level)

	// A single leaf is its own root, there is nothing to combine.
	if len(level) == 1 {
		return t, nil
	}

	for len(level) > 1 {
		next := make([]Digest, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			next = append(next, hasher.HashChildren(level[i], level[i+1]))
		}
		// the unpaired last node is promoted as is
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t, nil
}

// ComputeRoot builds the tree for leaves and returns just its root.
func ComputeRoot(hasher Hasher, leaves []Digest) (Digest, error) {
	t, err := NewTree(hasher, leaves)
	if err != nil {
		return Digest{}, err
	}
	return t.Root(), nil
}

// TreeHeight returns the number of levels above the leaves for a tree of
// leafCount leaves: ceil(log2(leafCount)). It is also the length of every
// proof for that tree.
func TreeHeight(leafCount uint64) int {
	if leafCount <= 1 {
		return 0
	}
	return bits.Len64(leafCount - 1)
}

func (t *Tree) Root() Digest {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

func (t *Tree) Hasher() Hasher {
	return t.hasher
}

func (t *Tree) LeafCount() uint64 {
	return uint64(len(t.levels[0]))
}

// Height is the number of levels above the leaves.
func (t *Tree) Height() int {
	return len(t.levels) - 1
}

func (t *Tree) Leaf(i uint64) (Digest, error) {
	if i >= t.LeafCount() {
		return Digest{}, fmt.Errorf("%w: index %d, leaf count %d", ErrIndexOutOfBounds, i, t.LeafCount())
	}
	return t.levels[0][i], nil
}

// Leaves returns a copy of the ordered leaves.
func (t *Tree) Leaves() []Digest {
	return t.Level(0)
}

// Level returns a copy of the nodes at height h. Level(0) is the leaves and
// Level(Height()) holds only the root. Out of range heights return nil.
func (t *Tree) Level(h int) []Digest {
	if h < 0 || h >= len(t.levels) {
		return nil
	}
	level := make([]Digest, len(t.levels[h]))
	copy(level, t.levels[h])
	return level
}
