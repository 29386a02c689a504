package batches

import "context"

// FileStore holds the file content of each batch. Implementations must give
// readers a consistent view of a batch while it is being verified.
type FileStore interface {
	// ListFiles returns the names of the files held for the batch.
	ListFiles(ctx context.Context, batchID uint64) ([]string, error)
	// ReadFile fails with ErrMissingFile if the file is absent.
	ReadFile(ctx context.Context, batchID uint64, name string) ([]byte, error)
	WriteFile(ctx context.Context, batchID uint64, name string, data []byte) error
}

// MetadataStore persists batch records.
type MetadataStore interface {
	// NextBatchID reserves and returns the next local batch id. Ids start at 1
	// and are never reused. A commit that fails after reserving an id leaves
	// the id unused: GetBatch reports ErrBatchNotFound for it, and any files
	// already written under it are not part of a batch.
	NextBatchID(ctx context.Context) (uint64, error)
	// PutBatch stores a new batch. It fails with ErrBatchExists if the id is
	// taken.
	PutBatch(ctx context.Context, batch Batch) error
	// GetBatch fails with ErrBatchNotFound for unknown ids.
	GetBatch(ctx context.Context, batchID uint64) (Batch, error)
	// SetRemoteBatchID records the ledger id of the batch. It fails with
	// ErrAlreadyAnchored if an id is already recorded.
	SetRemoteBatchID(ctx context.Context, batchID uint64, remoteBatchID uint64) error
}
