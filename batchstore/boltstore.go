package batchstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/forestrie/go-merklebatch/batches"
)

var batchesBucket = []byte("batches")

// BoltMetadataStore keeps batch records in a bolt database. Batch ids come from
// the bucket sequence, so they start at 1 and survive restarts.
type BoltMetadataStore struct {
	db *bolt.DB
}

func OpenBoltMetadataStore(path string) (*BoltMetadataStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(batchesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltMetadataStore{db: db}, nil
}

func (s *BoltMetadataStore) Close() error {
	return s.db.Close()
}

func batchKey(batchID uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, batchID)
	return key
}

func (s *BoltMetadataStore) NextBatchID(ctx context.Context) (uint64, error) {
	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		var err error
		id, err = tx.Bucket(batchesBucket).NextSequence()
		return err
	})
	return id, err
}

func (s *BoltMetadataStore) PutBatch(ctx context.Context, batch batches.Batch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(batchesBucket)
		key := batchKey(batch.BatchID)
		if b.Get(key) != nil {
			return fmt.Errorf("%w: %d", batches.ErrBatchExists, batch.BatchID)
		}
		return b.Put(key, data)
	})
}

func getBatch(b *bolt.Bucket, batchID uint64) (batches.Batch, error) {
	data := b.Get(batchKey(batchID))
	if data == nil {
		return batches.Batch{}, fmt.Errorf("%w: %d", batches.ErrBatchNotFound, batchID)
	}
	var batch batches.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return batches.Batch{}, fmt.Errorf("%w: batch %d: %v", ErrCorruptMetadata, batchID, err)
	}
	return batch, nil
}

func (s *BoltMetadataStore) GetBatch(ctx context.Context, batchID uint64) (batches.Batch, error) {
	var batch batches.Batch
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		batch, err = getBatch(tx.Bucket(batchesBucket), batchID)
		return err
	})
	return batch, err
}

func (s *BoltMetadataStore) SetRemoteBatchID(ctx context.Context, batchID uint64, remoteBatchID uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(batchesBucket)
		batch, err := getBatch(b, batchID)
		if err != nil {
			return err
		}
		if batch.Anchored() {
			return fmt.Errorf("%w: %d", batches.ErrAlreadyAnchored, batchID)
		}
		batch.RemoteBatchID = &remoteBatchID
		data, err := json.Marshal(batch)
		if err != nil {
			return err
		}
		return b.Put(batchKey(batchID), data)
	})
}
