package merkle

import "errors"

var (
	ErrEmptyBatch           = errors.New("a merkle tree requires at least one leaf")
	ErrIndexOutOfBounds     = errors.New("the leaf index is not in the tree")
	ErrInvalidProofFormat   = errors.New("the inclusion proof is malformed")
	ErrInvalidDigest        = errors.New("the value is not a valid digest")
	ErrUnknownHashAlgorithm = errors.New("the hash algorithm is not supported")
	ErrHashSizeMismatch     = errors.New("the hash function output size is not the digest size")
	ErrAuditPathMismatch    = errors.New("the audit path does not reproduce the root")
)
