package merkle

import (
	"crypto/sha256"
	"encoding/binary"
)

// hashNum returns the sha256 digest of num in big endian layout. Tests use it
// to make distinct, reproducible leaves.
func hashNum(num uint64) Digest {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, num)
	return sha256.Sum256(b)
}

func numberedLeaves(n int) []Digest {
	leaves := make([]Digest, n)
	for i := range leaves {
		leaves[i] = hashNum(uint64(i))
	}
	return leaves
}

// hashPair is the reference parent computation, written out independently of
// Hasher.
func hashPair(left, right Digest) Digest {
	h := sha256.New()
	h.Write(left[:])
	h.Write(right[:])
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
