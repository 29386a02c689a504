package batchtesting

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/forestrie/go-merklebatch/ledger"
	"github.com/forestrie/go-merklebatch/merkle"
)

// CountingRegistry wraps a ledger.Registry, counting the calls made to it and
// letting tests substitute the result of Get.
type CountingRegistry struct {
	inner     ledger.Registry
	registers atomic.Int64
	gets      atomic.Int64

	mu sync.Mutex
	// getErr, when set, is returned by Get instead of reading the ledger.
	getErr error
	// rootOverride replaces the root of every record returned by Get.
	rootOverride *merkle.Digest
	// block, when set, holds Get until it is closed or the call's context is
	// done.
	block chan struct{}
}

func NewCountingRegistry(inner ledger.Registry) *CountingRegistry {
	return &CountingRegistry{inner: inner}
}

func (r *CountingRegistry) Register(ctx context.Context, root merkle.Digest, metadataURI string) (uint64, error) {
	r.registers.Add(1)
	return r.inner.Register(ctx, root, metadataURI)
}

func (r *CountingRegistry) Get(ctx context.Context, remoteBatchID uint64) (ledger.Record, error) {
	r.gets.Add(1)

	r.mu.Lock()
	getErr, rootOverride, block := r.getErr, r.rootOverride, r.block
	r.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ledger.Record{}, ctx.Err()
		}
	}
	if getErr != nil {
		return ledger.Record{}, getErr
	}
	rec, err := r.inner.Get(ctx, remoteBatchID)
	if err != nil {
		return ledger.Record{}, err
	}
	if rootOverride != nil {
		rec.Root = *rootOverride
	}
	return rec, nil
}

func (r *CountingRegistry) Gets() int64      { return r.gets.Load() }
func (r *CountingRegistry) Registers() int64 { return r.registers.Load() }

func (r *CountingRegistry) FailGet(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getErr = err
}

func (r *CountingRegistry) OverrideRoot(root merkle.Digest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rootOverride = &root
}

// Block makes Get wait until the returned function is called.
func (r *CountingRegistry) Block() (release func()) {
	ch := make(chan struct{})
	r.mu.Lock()
	r.block = ch
	r.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}
