package batchtesting

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/forestrie/go-merklebatch/batches"
)

// MemFileStore is a batches.FileStore held in memory. Tamper, Remove and
// Add change the stored files behind the committer's back.
type MemFileStore struct {
	mu    sync.RWMutex
	files map[uint64]map[string][]byte
	// writeErr, when set, fails every WriteFile.
	writeErr error
}

func NewMemFileStore() *MemFileStore {
	return &MemFileStore{files: map[uint64]map[string][]byte{}}
}

func (s *MemFileStore) ListFiles(ctx context.Context, batchID uint64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for name := range s.files[batchID] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemFileStore) ReadFile(ctx context.Context, batchID uint64, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[batchID][name]
	if !ok {
		return nil, fmt.Errorf("%w: batch %d %s", batches.ErrMissingFile, batchID, name)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemFileStore) WriteFile(ctx context.Context, batchID uint64, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	if s.files[batchID] == nil {
		s.files[batchID] = map[string][]byte{}
	}
	s.files[batchID][name] = append([]byte(nil), data...)
	return nil
}

// FailWrites makes WriteFile fail with err until it is called again with nil.
func (s *MemFileStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

func (s *MemFileStore) Tamper(batchID uint64, name string, data []byte) {
	_ = s.WriteFile(context.Background(), batchID, name, data)
}

func (s *MemFileStore) Add(batchID uint64, name string, data []byte) {
	_ = s.WriteFile(context.Background(), batchID, name, data)
}

func (s *MemFileStore) Remove(batchID uint64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files[batchID], name)
}

// MemMetadataStore is a batches.MetadataStore held in memory.
type MemMetadataStore struct {
	mu      sync.Mutex
	lastID  uint64
	batches map[uint64]batches.Batch
}

func NewMemMetadataStore() *MemMetadataStore {
	return &MemMetadataStore{batches: map[uint64]batches.Batch{}}
}

func (s *MemMetadataStore) NextBatchID(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	return s.lastID, nil
}

func (s *MemMetadataStore) PutBatch(ctx context.Context, batch batches.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[batch.BatchID]; ok {
		return fmt.Errorf("%w: %d", batches.ErrBatchExists, batch.BatchID)
	}
	s.batches[batch.BatchID] = batch
	return nil
}

func (s *MemMetadataStore) GetBatch(ctx context.Context, batchID uint64) (batches.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[batchID]
	if !ok {
		return batches.Batch{}, fmt.Errorf("%w: %d", batches.ErrBatchNotFound, batchID)
	}
	return batch, nil
}

func (s *MemMetadataStore) SetRemoteBatchID(ctx context.Context, batchID uint64, remoteBatchID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[batchID]
	if !ok {
		return fmt.Errorf("%w: %d", batches.ErrBatchNotFound, batchID)
	}
	if batch.Anchored() {
		return fmt.Errorf("%w: %d", batches.ErrAlreadyAnchored, batchID)
	}
	batch.RemoteBatchID = &remoteBatchID
	s.batches[batchID] = batch
	return nil
}

// Update replaces a stored batch. It lets tests corrupt the recorded metadata.
func (s *MemMetadataStore) Update(batch batches.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batch.BatchID] = batch
}
