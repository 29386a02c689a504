package merkle

// IncludedRoot replays proof from leaf and returns the root it commits to.
// Both the tree and the caller's hasher must use the same algorithm.
func IncludedRoot(hasher Hasher, leaf Digest, proof Proof) (Digest, error) {
	if err := proof.Validate(); err != nil {
		return Digest{}, err
	}

	node := leaf
	for _, s := range proof.Steps {
		switch s.Direction {
		case SiblingLeft:
			node = hasher.HashChildren(s.Sibling, node)
		case SiblingRight:
			node = hasher.HashChildren(node, s.Sibling)
		case Promoted:
			// carried up unchanged
		}
	}
	return node, nil
}

// VerifyInclusion returns true if leaf and proof reproduce root.
//
// A well formed proof that does not reproduce root returns false and no error.
// A malformed proof returns false and an error wrapping ErrInvalidProofFormat.
func VerifyInclusion(hasher Hasher, leaf Digest, proof Proof, root Digest) (bool, error) {
	got, err := IncludedRoot(hasher, leaf, proof)
	if err != nil {
		return false, err
	}
	return got == root, nil
}
