package ledger

import "errors"

var (
	ErrNotFound               = errors.New("no batch is registered under the remote batch id")
	ErrUnavailable            = errors.New("the ledger registry could not be reached")
	ErrVerifierRequired       = errors.New("a cose verifier was required but not provided")
	ErrReadOnly               = errors.New("the registry was opened without a signer and can not register")
	ErrSealVerifyFailed       = errors.New("the anchor signature verification failed")
	ErrAnchorIDMismatch       = errors.New("the signed anchor is for a different remote batch id")
	ErrObjectNotFound         = errors.New("object not found")
	ErrObjectExists           = errors.New("object already exists")
	ErrInvalidObjectKey       = errors.New("the object key is not a valid relative path")
	ErrMissingRegistryAddress = errors.New("MERKLE_BATCH_REGISTRY_ADDRESS environment variable not set")
)
