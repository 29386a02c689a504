package merkle

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashLeafEmptyInput(t *testing.T) {
	want := sha256.Sum256(nil)
	got := DefaultHasher().HashLeaf([]byte{})
	assert.Equal(t, Digest(want), got)
	assert.False(t, got.IsZero())
}

func TestZeroValueHasherIsSHA256(t *testing.T) {
	var h Hasher
	assert.Equal(t, SHA256, h.Algorithm())
	assert.Equal(t, DefaultHasher().HashLeaf([]byte("doc1")), h.HashLeaf([]byte("doc1")))
}

func TestNewHasher(t *testing.T) {
	tests := []struct {
		name    string
		alg     HashAlgorithm
		want    HashAlgorithm
		wantErr error
	}{
		{"empty selects sha256", "", SHA256, nil},
		{"sha256", SHA256, SHA256, nil},
		{"blake3", BLAKE3, BLAKE3, nil},
		{"unknown", "md5", "", ErrUnknownHashAlgorithm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHasher(tt.alg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Algorithm())
		})
	}
}

func TestBLAKE3ProducesDifferentRoots(t *testing.T) {
	b3, err := NewHasher(BLAKE3)
	require.NoError(t, err)

	leaves := [][]byte{[]byte("doc1"), []byte("doc2"), []byte("doc3")}
	var shaLeaves, b3Leaves []Digest
	for _, l := range leaves {
		shaLeaves = append(shaLeaves, DefaultHasher().HashLeaf(l))
		b3Leaves = append(b3Leaves, b3.HashLeaf(l))
	}

	shaRoot, err := ComputeRoot(DefaultHasher(), shaLeaves)
	require.NoError(t, err)
	b3Root, err := ComputeRoot(b3, b3Leaves)
	require.NoError(t, err)
	assert.NotEqual(t, shaRoot, b3Root)

	// and the blake3 tree still proves its own leaves
	tree, err := NewTree(b3, b3Leaves)
	require.NoError(t, err)
	proof, err := tree.Proof(2)
	require.NoError(t, err)
	ok, err := VerifyInclusion(b3, b3Leaves[2], proof, b3Root)
	require.NoError(t, err)
	assert.True(t, ok)
}
