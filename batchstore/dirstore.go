package batchstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklebatch/batches"
)

const metadataTempPrefix = ".metadata-"

// DirStore keeps each batch in its own directory below root:
//
//	<root>/<batch id>/<file name>
//	<root>/<batch id>/metadata.json
//
// It is both the file store and the metadata store for the batches it holds.
// Batch ids are reserved by creating the batch directory, so processes sharing
// a root never hand out the same id.
type DirStore struct {
	log  logger.Logger
	root string
	// mu orders metadata rewrites within the process.
	mu sync.Mutex
}

func NewDirStore(log logger.Logger, root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &DirStore{log: log, root: root}, nil
}

func (s *DirStore) BatchDir(batchID uint64) string {
	return filepath.Join(s.root, strconv.FormatUint(batchID, 10))
}

func (s *DirStore) metadataPath(batchID uint64) string {
	return filepath.Join(s.BatchDir(batchID), batches.MetadataFileName)
}

// batchIDs returns the ids of the batch directories present, ascending.
func (s *DirStore) batchIDs() ([]uint64, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var ids []uint64
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, err := strconv.ParseUint(e.Name(), 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *DirStore) NextBatchID(ctx context.Context) (uint64, error) {
	ids, err := s.batchIDs()
	if err != nil {
		return 0, err
	}
	next := uint64(1)
	if len(ids) > 0 {
		next = ids[len(ids)-1] + 1
	}
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		err = os.Mkdir(s.BatchDir(next), 0o755)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return 0, err
		}
		next++
	}
}

func (s *DirStore) WriteFile(ctx context.Context, batchID uint64, name string, data []byte) error {
	if err := batches.ValidateFileName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.BatchDir(batchID), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.BatchDir(batchID), name), data, 0o644)
}

func (s *DirStore) ReadFile(ctx context.Context, batchID uint64, name string) ([]byte, error) {
	if err := batches.ValidateFileName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.BatchDir(batchID), name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: batch %d %s", batches.ErrMissingFile, batchID, name)
		}
		return nil, err
	}
	return data, nil
}

// ListFiles lists the regular files of the batch, excluding its metadata.
func (s *DirStore) ListFiles(ctx context.Context, batchID uint64) ([]string, error) {
	entries, err := os.ReadDir(s.BatchDir(batchID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || e.Name() == batches.MetadataFileName || strings.HasPrefix(e.Name(), metadataTempPrefix) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (s *DirStore) PutBatch(ctx context.Context, batch batches.Batch) error {
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return err
	}
	if err = os.MkdirAll(s.BatchDir(batch.BatchID), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.metadataPath(batch.BatchID), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %d", batches.ErrBatchExists, batch.BatchID)
		}
		return err
	}
	if _, err = f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	s.log.Debugf("stored metadata for batch %d in %s", batch.BatchID, s.BatchDir(batch.BatchID))
	return nil
}

func (s *DirStore) GetBatch(ctx context.Context, batchID uint64) (batches.Batch, error) {
	data, err := os.ReadFile(s.metadataPath(batchID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return batches.Batch{}, fmt.Errorf("%w: %d", batches.ErrBatchNotFound, batchID)
		}
		return batches.Batch{}, err
	}
	var batch batches.Batch
	if err = json.Unmarshal(data, &batch); err != nil {
		return batches.Batch{}, fmt.Errorf("%w: batch %d: %v", ErrCorruptMetadata, batchID, err)
	}
	return batch, nil
}

func (s *DirStore) SetRemoteBatchID(ctx context.Context, batchID uint64, remoteBatchID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, err := s.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if batch.Anchored() {
		return fmt.Errorf("%w: %d", batches.ErrAlreadyAnchored, batchID)
	}
	batch.RemoteBatchID = &remoteBatchID

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return err
	}
	// Replace the metadata atomically so a reader never sees a partial file.
	tmp, err := os.CreateTemp(s.BatchDir(batchID), metadataTempPrefix+"*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.metadataPath(batchID))
}
