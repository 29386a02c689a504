package merkle

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// DigestSize is the size in bytes of every leaf, interior node and root.
const DigestSize = 32

// Digest is a leaf hash, an interior node or a root.
type Digest [DigestSize]byte

// DigestFromBytes copies b into a Digest. b must be exactly DigestSize bytes.
func DigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != DigestSize {
		return d, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidDigest, DigestSize, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// ParseDigest decodes a hex digest. An optional 0x prefix is accepted and
// upper case digits are tolerated.
func ParseDigest(s string) (Digest, error) {
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		s = rest
	} else {
		s = strings.TrimPrefix(s, "0X")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	return DigestFromBytes(b)
}

// Hex returns the lower case hex encoding, without prefix.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// PrefixedHex returns the lower case hex encoding with a 0x prefix, the form
// used when a digest is passed to a ledger.
func (d Digest) PrefixedHex() string {
	return "0x" + d.Hex()
}

func (d Digest) String() string {
	return d.Hex()
}

// Bytes returns a copy of the digest as a slice.
func (d Digest) Bytes() []byte {
	b := make([]byte, DigestSize)
	copy(b, d[:])
	return b
}

func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.Hex()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
