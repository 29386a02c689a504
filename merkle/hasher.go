package merkle

import (
	"crypto/sha256"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
)

type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
	BLAKE3 HashAlgorithm = "blake3"
)

// Hasher derives leaf values from raw bytes and interior nodes from pairs of
// children. The zero value hashes with SHA256.
type Hasher struct {
	alg     HashAlgorithm
	newHash func() hash.Hash
}

// NewHasher returns the Hasher for the named algorithm. An empty name selects
// SHA256.
func NewHasher(alg HashAlgorithm) (Hasher, error) {
	var newHash func() hash.Hash
	switch alg {
	case "", SHA256:
		alg = SHA256
		newHash = sha256.New
	case BLAKE3:
		newHash = func() hash.Hash { return blake3.New() }
	default:
		return Hasher{}, fmt.Errorf("%w: %q", ErrUnknownHashAlgorithm, alg)
	}
	if size := newHash().Size(); size != DigestSize {
		return Hasher{}, fmt.Errorf("%w: %s produces %d bytes", ErrHashSizeMismatch, alg, size)
	}
	return Hasher{alg: alg, newHash: newHash}, nil
}

// DefaultHasher is the SHA256 hasher.
func DefaultHasher() Hasher {
	return Hasher{alg: SHA256, newHash: sha256.New}
}

func (h Hasher) Algorithm() HashAlgorithm {
	if h.alg == "" {
		return SHA256
	}
	return h.alg
}

func (h Hasher) hasher() hash.Hash {
	if h.newHash == nil {
		return sha256.New()
	}
	return h.newHash()
}

// HashLeaf returns the digest of data. Empty data is valid and hashes to the
// digest of zero bytes.
func (h Hasher) HashLeaf(data []byte) Digest {
	hasher := h.hasher()
	hasher.Write(data)
	return sumDigest(hasher)
}

// HashChildren returns H(left || right). The order of the arguments is
// significant.
func (h Hasher) HashChildren(left, right Digest) Digest {
	hasher := h.hasher()
	hasher.Write(left[:])
	hasher.Write(right[:])
	return sumDigest(hasher)
}

func sumDigest(hasher hash.Hash) Digest {
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d
}
