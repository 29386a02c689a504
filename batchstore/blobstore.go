package batchstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklebatch/batches"
	"github.com/forestrie/go-merklebatch/ledger"
)

const (
	DefaultBlobPrefix = "v1/merklebatch/"
	batchesSegment    = "batches"
)

// blobReadWriter is the subset of the azblob storer the blob store uses.
type blobReadWriter interface {
	Reader(ctx context.Context, identity string, opts ...azblob.Option) (*azblob.ReaderResponse, error)
	Put(ctx context.Context, identity string, source io.ReadSeekCloser, opts ...azblob.Option) (*azblob.WriteResponse, error)
	List(ctx context.Context, opts ...azblob.Option) (*azblob.ListerResponse, error)
}

// BlobStore keeps batch files in azure blob storage under
// <prefix>batches/<batch id>/<file name>. The same container can also hold the
// signed registry's anchors, see ObjectStore.
type BlobStore struct {
	log    logger.Logger
	store  blobReadWriter
	prefix string
}

// NewBlobStore creates a blob store. An empty prefix selects
// DefaultBlobPrefix.
func NewBlobStore(log logger.Logger, store blobReadWriter, prefix string) *BlobStore {
	if prefix == "" {
		prefix = DefaultBlobPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &BlobStore{log: log, store: store, prefix: prefix}
}

func (s *BlobStore) batchPrefix(batchID uint64) string {
	return fmt.Sprintf("%s%s/%d/", s.prefix, batchesSegment, batchID)
}

func (s *BlobStore) FilePath(batchID uint64, name string) string {
	return s.batchPrefix(batchID) + name
}

func (s *BlobStore) ReadFile(ctx context.Context, batchID uint64, name string) ([]byte, error) {
	data, err := s.read(ctx, s.FilePath(batchID, name))
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return nil, fmt.Errorf("%w: batch %d %s: %w", batches.ErrMissingFile, batchID, name, err)
		}
		return nil, err
	}
	return data, nil
}

func (s *BlobStore) WriteFile(ctx context.Context, batchID uint64, name string, data []byte) error {
	if err := batches.ValidateFileName(name); err != nil {
		return err
	}
	// Batch files are written once. Refusing to overwrite keeps a committed
	// batch from being replaced by a second commit racing for the same id.
	return s.put(ctx, s.FilePath(batchID, name), data, true)
}

func (s *BlobStore) ListFiles(ctx context.Context, batchID uint64) ([]string, error) {
	prefix := s.batchPrefix(batchID)
	paths, err := s.list(ctx, prefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		name := strings.TrimPrefix(p, prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (s *BlobStore) read(ctx context.Context, blobPath string) ([]byte, error) {
	rr, err := s.store.Reader(ctx, blobPath)
	if err != nil {
		return nil, WrapBlobNotFound(err)
	}
	defer rr.Reader.Close()
	data, err := io.ReadAll(rr.Reader)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("read %s: %d bytes", blobPath, len(data))
	return data, nil
}

func (s *BlobStore) put(ctx context.Context, blobPath string, data []byte, failIfExists bool) error {
	var opts []azblob.Option
	if failIfExists {
		// The way to spell 'fail without modifying if the blob exists' is to
		// require that no blob matches any etag.
		opts = append(opts, azblob.WithEtagNoneMatch("*"))
	}
	_, err := s.store.Put(ctx, blobPath, azblob.NewBytesReaderCloser(data), opts...)
	if err != nil {
		return WrapBlobExists(err)
	}
	return nil
}

// list returns every blob path under prefix, following the list markers to the
// end, sorted.
func (s *BlobStore) list(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	var marker azblob.ListMarker
	for {
		r, err := s.store.List(ctx, azblob.WithListPrefix(prefix), azblob.WithListMarker(marker))
		if err != nil {
			return nil, err
		}
		for i := range r.Items {
			name := r.Items[i].Name
			if name != nil && strings.HasPrefix(*name, prefix) {
				paths = append(paths, *name)
			}
		}
		if len(r.Items) == 0 || r.Marker == nil {
			break
		}
		marker = r.Marker
	}
	sort.Strings(paths)
	return paths, nil
}

// ObjectStore exposes the container as a ledger.ObjectStore rooted at the
// store's prefix, so a ledger.SignedRegistry can keep its anchors next to the
// batches they anchor.
func (s *BlobStore) ObjectStore() ledger.ObjectStore {
	return blobObjectStore{s: s}
}

type blobObjectStore struct {
	s *BlobStore
}

func (o blobObjectStore) Put(ctx context.Context, key string, data []byte, failIfExists bool) error {
	err := o.s.put(ctx, o.s.prefix+key, data, failIfExists)
	if errors.Is(err, ErrBlobExists) {
		return fmt.Errorf("%w: %w", ledger.ErrObjectExists, err)
	}
	return err
}

func (o blobObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := o.s.read(ctx, o.s.prefix+key)
	if errors.Is(err, ErrBlobNotFound) {
		return nil, fmt.Errorf("%w: %w", ledger.ErrObjectNotFound, err)
	}
	return data, err
}

func (o blobObjectStore) List(ctx context.Context, dir string) ([]string, error) {
	dirPrefix := o.s.prefix + path.Clean(dir) + "/"
	paths, err := o.s.list(ctx, dirPrefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		key := strings.TrimPrefix(p, o.s.prefix)
		if strings.Contains(strings.TrimPrefix(p, dirPrefix), "/") {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}
