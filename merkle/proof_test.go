package merkle

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestVerifyAllLeaves checks every leaf of every tree size up to 70 proves
// against the root of its tree.
func TestVerifyAllLeaves(t *testing.T) {
	hasher := DefaultHasher()
	for n := 1; n <= 70; n++ {
		leaves := numberedLeaves(n)
		tree, err := NewTree(hasher, leaves)
		require.NoError(t, err)

		for i := uint64(0); i < uint64(n); i++ {
			proof, err := tree.Proof(i)
			require.NoError(t, err)
			assert.Len(t, proof.Steps, TreeHeight(uint64(n)))

			ok, err := VerifyInclusion(hasher, leaves[i], proof, tree.Root())
			require.NoError(t, err)
			assert.True(t, ok, "leaf %d of %d", i, n)
		}
	}
}

func TestProofThreeLeaves(t *testing.T) {
	leaves := numberedLeaves(3)
	tree, err := NewTree(DefaultHasher(), leaves)
	require.NoError(t, err)

	proof, err := tree.Proof(2)
	require.NoError(t, err)
	require.Len(t, proof.Steps, 2)
	assert.Equal(t, ProofStep{Direction: Promoted}, proof.Steps[0])
	assert.Equal(t, ProofStep{Direction: SiblingLeft, Sibling: hashPair(leaves[0], leaves[1])}, proof.Steps[1])

	proof, err = tree.Proof(0)
	require.NoError(t, err)
	assert.Equal(t, []ProofStep{
		{Direction: SiblingRight, Sibling: leaves[1]},
		{Direction: SiblingRight, Sibling: leaves[2]},
	}, proof.Steps)
}

func TestProofSingleLeaf(t *testing.T) {
	leaf := DefaultHasher().HashLeaf([]byte("only"))
	tree, err := NewTree(DefaultHasher(), []Digest{leaf})
	require.NoError(t, err)

	proof, err := tree.Proof(0)
	require.NoError(t, err)
	assert.Empty(t, proof.Steps)

	ok, err := VerifyInclusion(DefaultHasher(), leaf, proof, leaf)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProofIndexOutOfBounds(t *testing.T) {
	tree, err := NewTree(DefaultHasher(), numberedLeaves(5))
	require.NoError(t, err)

	_, err = tree.Proof(5)
	assert.ErrorIs(t, err, ErrIndexOutOfBounds)
}

// TestVerifySiblingBitFlip flips every bit of every sibling in every proof and
// requires verification to fail.
func TestVerifySiblingBitFlip(t *testing.T) {
	hasher := DefaultHasher()
	for _, n := range []int{2, 3, 5, 7, 8, 13} {
		leaves := numberedLeaves(n)
		tree, err := NewTree(hasher, leaves)
		require.NoError(t, err)

		for i := uint64(0); i < uint64(n); i++ {
			proof, err := tree.Proof(i)
			require.NoError(t, err)

			for s := range proof.Steps {
				for bit := 0; bit < DigestSize*8; bit++ {
					tampered := Proof{
						LeafIndex: proof.LeafIndex,
						LeafCount: proof.LeafCount,
						Steps:     append([]ProofStep(nil), proof.Steps...),
					}
					tampered.Steps[s].Sibling[bit/8] ^= 1 << (bit % 8)

					ok, err := VerifyInclusion(hasher, leaves[i], tampered, tree.Root())
					assert.False(t, ok, "n=%d i=%d step=%d bit=%d", n, i, s, bit)
					if proof.Steps[s].Direction == Promoted {
						// a promoted step has no sibling to tamper with
						assert.ErrorIs(t, err, ErrInvalidProofFormat)
					} else {
						assert.NoError(t, err)
					}
				}
			}
		}
	}
}

func TestVerifyWrongLeafOrRoot(t *testing.T) {
	hasher := DefaultHasher()
	leaves := numberedLeaves(6)
	tree, err := NewTree(hasher, leaves)
	require.NoError(t, err)
	proof, err := tree.Proof(3)
	require.NoError(t, err)

	ok, err := VerifyInclusion(hasher, leaves[2], proof, tree.Root())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = VerifyInclusion(hasher, leaves[3], proof, hashNum(1000))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProofValidate(t *testing.T) {
	tree, err := NewTree(DefaultHasher(), numberedLeaves(5))
	require.NoError(t, err)
	good, err := tree.Proof(4)
	require.NoError(t, err)

	clone := func(mutate func(p *Proof)) Proof {
		p := Proof{LeafIndex: good.LeafIndex, LeafCount: good.LeafCount}
		p.Steps = append([]ProofStep(nil), good.Steps...)
		mutate(&p)
		return p
	}

	tests := []struct {
		name  string
		proof Proof
	}{
		{"zero leaf count", clone(func(p *Proof) { p.LeafCount = 0 })},
		{"index past count", clone(func(p *Proof) { p.LeafIndex = 5 })},
		{"missing step", clone(func(p *Proof) { p.Steps = p.Steps[:len(p.Steps)-1] })},
		{"extra step", clone(func(p *Proof) { p.Steps = append(p.Steps, ProofStep{Direction: Promoted}) })},
		{"unknown direction", clone(func(p *Proof) { p.Steps[0].Direction = DirectionUnknown })},
		{"promoted step recorded as a sibling", clone(func(p *Proof) {
			p.Steps[0] = ProofStep{Direction: SiblingRight, Sibling: hashNum(1)}
		})},
		{"direction inconsistent with index", clone(func(p *Proof) { p.LeafIndex = 3 })},
	}
	require.NoError(t, good.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.proof.Validate(), ErrInvalidProofFormat)

			ok, err := VerifyInclusion(DefaultHasher(), hashNum(4), tt.proof, tree.Root())
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrInvalidProofFormat)
		})
	}
}

func TestPathDirections(t *testing.T) {
	tests := []struct {
		index, count uint64
		want         []Direction
	}{
		{0, 1, []Direction{}},
		{0, 2, []Direction{SiblingRight}},
		{1, 2, []Direction{SiblingLeft}},
		{2, 3, []Direction{Promoted, SiblingLeft}},
		{4, 5, []Direction{Promoted, Promoted, SiblingLeft}},
		{5, 6, []Direction{SiblingLeft, Promoted, SiblingLeft}},
		{6, 7, []Direction{Promoted, SiblingLeft, SiblingLeft}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d", tt.index, tt.count), func(t *testing.T) {
			assert.Equal(t, tt.want, PathDirections(tt.index, tt.count))
		})
	}
}

func TestPathDirectionsMaxLeafCount(t *testing.T) {
	count := uint64(math.MaxUint64)
	require.Equal(t, 64, TreeHeight(count))

	first := PathDirections(0, count)
	require.Len(t, first, 64)
	for i, d := range first {
		assert.Equal(t, SiblingRight, d, "level %d", i)
	}

	last := PathDirections(count-1, count)
	require.Len(t, last, 64)
	assert.Equal(t, Promoted, last[0])
	for i, d := range last[1:] {
		assert.Equal(t, SiblingLeft, d, "level %d", i+1)
	}

	// A single step can not prove a leaf of the largest tree.
	short := Proof{LeafIndex: 0, LeafCount: count, Steps: []ProofStep{{Direction: SiblingRight, Sibling: hashNum(1)}}}
	assert.ErrorIs(t, short.Validate(), ErrInvalidProofFormat)
	ok, err := VerifyInclusion(DefaultHasher(), hashNum(0), short, hashPair(hashNum(0), hashNum(1)))
	assert.ErrorIs(t, err, ErrInvalidProofFormat)
	assert.False(t, ok)
}

func TestProofJSON(t *testing.T) {
	tree, err := NewTree(DefaultHasher(), numberedLeaves(3))
	require.NoError(t, err)
	proof, err := tree.Proof(2)
	require.NoError(t, err)

	data, err := json.Marshal(proof)
	require.NoError(t, err)
	assert.JSONEq(t, fmt.Sprintf(
		`{"leaf_index":2,"leaf_count":3,"steps":[{"direction":"promoted"},{"direction":"left","sibling":"%s"}]}`,
		proof.Steps[1].Sibling.Hex()), string(data))

	var back Proof
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, proof, back)

	bad := []string{
		`{"leaf_index":0,"leaf_count":2,"steps":[{"direction":"right"}]}`,
		`{"leaf_index":0,"leaf_count":2,"steps":[{"direction":"sideways","sibling":"` + hashNum(0).Hex() + `"}]}`,
		`{"leaf_index":2,"leaf_count":3,"steps":[{"direction":"promoted","sibling":"` + hashNum(0).Hex() + `"}]}`,
	}
	for _, s := range bad {
		var p Proof
		assert.ErrorIs(t, json.Unmarshal([]byte(s), &p), ErrInvalidProofFormat, s)
	}
}
