package batches

import "errors"

var (
	ErrMissingFile           = errors.New("a file recorded in the batch is missing from the file store")
	ErrLocalIntegrityFailure = errors.New("the files no longer match the locally stored root")
	ErrAnchorMismatch        = errors.New("the stored root does not match the root anchored on the ledger")
	ErrRemoteUnavailable     = errors.New("the ledger could not be read")
	ErrNotAnchored           = errors.New("the batch has no remote batch id to verify against")
)

var (
	ErrBatchNotFound     = errors.New("batch not found")
	ErrBatchExists       = errors.New("a batch with that id already exists")
	ErrAlreadyAnchored   = errors.New("the batch already has a remote batch id")
	ErrDuplicateFile     = errors.New("the file name appears more than once in the batch")
	ErrInvalidFileName   = errors.New("the file name is not valid")
	ErrFileNotInBatch    = errors.New("the file is not part of the batch")
	ErrRegistryRequired  = errors.New("a ledger registry was required but not provided")
	ErrMetadataIncorrect = errors.New("the batch metadata is inconsistent")
)
