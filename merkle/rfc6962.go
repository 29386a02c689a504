package merkle

import (
	"fmt"

	tdmerkle "github.com/transparency-dev/merkle"
	"github.com/transparency-dev/merkle/compact"
	"github.com/transparency-dev/merkle/proof"
)

type logHasher struct {
	h Hasher
}

// LogHasher returns h in the form expected by github.com/transparency-dev/merkle.
// No domain separation prefixes are added, so the hashes match the ones this
// package computes.
func (h Hasher) LogHasher() tdmerkle.LogHasher {
	return logHasher{h: h}
}

func (l logHasher) EmptyRoot() []byte {
	d := l.h.HashLeaf(nil)
	return d[:]
}

func (l logHasher) HashLeaf(leaf []byte) []byte {
	d := l.h.HashLeaf(leaf)
	return d[:]
}

func (l logHasher) HashChildren(left, right []byte) []byte {
	hasher := l.h.hasher()
	hasher.Write(left)
	hasher.Write(right)
	return hasher.Sum(nil)
}

func (l logHasher) Size() int {
	return DigestSize
}

// VerifyAuditPath checks an RFC 6962 style audit path, the sibling digests
// without promoted steps as returned by Proof.AuditPath, for the leaf at index
// in a tree of size leaves.
func VerifyAuditPath(hasher Hasher, index, size uint64, leaf Digest, path [][]byte, root Digest) error {
	err := proof.VerifyInclusion(hasher.LogHasher(), index, size, leaf[:], path, root[:])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuditPathMismatch, err)
	}
	return nil
}

// CompactRoot computes the root of leaves using a compact range rather than
// materialising the tree. It always agrees with ComputeRoot.
func CompactRoot(hasher Hasher, leaves []Digest) (Digest, error) {
	if len(leaves) == 0 {
		return Digest{}, ErrEmptyBatch
	}
	rf := compact.RangeFactory{Hash: hasher.LogHasher().HashChildren}
	r := rf.NewEmptyRange(0)
	for i := range leaves {
		if err := r.Append(leaves[i][:], nil); err != nil {
			return Digest{}, err
		}
	}
	root, err := r.GetRootHash(nil)
	if err != nil {
		return Digest{}, err
	}
	return DigestFromBytes(root)
}
