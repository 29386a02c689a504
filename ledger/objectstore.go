package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ObjectStore is the narrow key/value surface the signed registry persists its
// anchors through. Keys are slash separated relative paths.
type ObjectStore interface {
	// Put writes data under key. When failIfExists is set an existing object
	// fails the put with ErrObjectExists.
	Put(ctx context.Context, key string, data []byte, failIfExists bool) error
	// Get returns ErrObjectNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns the keys directly under dir, sorted.
	List(ctx context.Context, dir string) ([]string, error)
}

// DirObjectStore keeps objects as files below a root directory.
type DirObjectStore struct {
	root string
}

func NewDirObjectStore(root string) (*DirObjectStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &DirObjectStore{root: root}, nil
}

func (s *DirObjectStore) filePath(key string) (string, error) {
	clean := path.Clean(key)
	if key == "" || path.IsAbs(key) || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidObjectKey, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *DirObjectStore) Put(ctx context.Context, key string, data []byte, failIfExists bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fileName, err := s.filePath(key)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if failIfExists {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(fileName, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrObjectExists, key)
		}
		return err
	}
	if _, err = f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *DirObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fileName, err := s.filePath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, err
	}
	return data, nil
}

func (s *DirObjectStore) List(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirName, err := s.filePath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dirName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		keys = append(keys, path.Join(path.Clean(dir), e.Name()))
	}
	sort.Strings(keys)
	return keys, nil
}
