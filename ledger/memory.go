package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/forestrie/go-merklebatch/merkle"
)

// MemoryRegistry is an in process, append only Registry. Ids are assigned from
// 1 in registration order. It is safe for concurrent use.
type MemoryRegistry struct {
	mu      sync.Mutex
	opts    RegistryOptions
	records []Record
}

func NewMemoryRegistry(opts ...RegistryOption) *MemoryRegistry {
	return &MemoryRegistry{
		opts: newRegistryOptions(opts...),
	}
}

func (r *MemoryRegistry) Register(ctx context.Context, root merkle.Digest, metadataURI string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, Record{
		Root:        root,
		Owner:       r.opts.Owner,
		MetadataURI: metadataURI,
		Timestamp:   r.opts.Clock().UTC(),
	})
	return uint64(len(r.records)), nil
}

func (r *MemoryRegistry) Get(ctx context.Context, remoteBatchID uint64) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if remoteBatchID == 0 || remoteBatchID > uint64(len(r.records)) {
		return Record{}, fmt.Errorf("%w: %d", ErrNotFound, remoteBatchID)
	}
	return r.records[remoteBatchID-1], nil
}

// Len returns the number of registered batches.
func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
