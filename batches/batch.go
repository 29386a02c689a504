// Package batches commits sets of files to a single merkle root and verifies
// them later against the stored root and the root anchored on the ledger.
package batches

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/forestrie/go-merklebatch/merkle"
)

// Ordering names the rule that fixes leaf order within a batch. It is recorded
// with every batch so verification replays the same order.
type Ordering string

const (
	// OrderingFilename sorts leaves by the byte order of the file names.
	OrderingFilename Ordering = "filename"
)

// FileRecord is a file as handed to Commit. It is not persisted as is.
type FileRecord struct {
	Name string
	Data []byte
}

// Leaf is the recorded (name, leaf hash) pair for one file of a batch.
type Leaf struct {
	Name string        `json:"filename"`
	Hash merkle.Digest `json:"leaf_hash"`
}

// Batch is the persisted commitment for a set of files. Everything except
// RemoteBatchID is fixed when the batch is created, and RemoteBatchID is set
// at most once.
type Batch struct {
	BatchID         uint64               `json:"batch_id"`
	Files           []Leaf               `json:"files"`
	Root            merkle.Digest        `json:"root"`
	FileCount       int                  `json:"file_count"`
	HashAlg         merkle.HashAlgorithm `json:"hash_alg"`
	Ordering        Ordering             `json:"ordering"`
	MetadataURI     string               `json:"metadata_uri"`
	RegistryAddress string               `json:"registry_address"`
	RemoteBatchID   *uint64              `json:"remote_batch_id,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// Anchored reports whether the batch has been registered on the ledger.
func (b *Batch) Anchored() bool {
	return b.RemoteBatchID != nil && *b.RemoteBatchID != 0
}

// LeafHashes returns the recorded leaf hashes in leaf order.
func (b *Batch) LeafHashes() []merkle.Digest {
	hashes := make([]merkle.Digest, len(b.Files))
	for i, f := range b.Files {
		hashes[i] = f.Hash
	}
	return hashes
}

// FileNames returns the recorded file names in leaf order.
func (b *Batch) FileNames() []string {
	names := make([]string, len(b.Files))
	for i, f := range b.Files {
		names[i] = f.Name
	}
	return names
}

// Hasher returns the hasher the batch was committed with.
func (b *Batch) Hasher() (merkle.Hasher, error) {
	return merkle.NewHasher(b.HashAlg)
}

// Tree rebuilds the tree from the recorded leaf hashes. It does not read any
// file content.
func (b *Batch) Tree() (*merkle.Tree, error) {
	hasher, err := b.Hasher()
	if err != nil {
		return nil, err
	}
	return merkle.NewTree(hasher, b.LeafHashes())
}

// ValidateFileName rejects names that can not be stored as a single flat file.
func ValidateFileName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	case name == MetadataFileName:
		return fmt.Errorf("%w: %q is reserved", ErrInvalidFileName, name)
	}
	return nil
}

// MetadataFileName is reserved for the batch record in stores that keep it
// alongside the files.
const MetadataFileName = "metadata.json"

// sortFiles validates the names and returns the records in canonical order.
// The input is not modified.
func sortFiles(files []FileRecord) ([]FileRecord, error) {
	sorted := make([]FileRecord, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for i, f := range sorted {
		if err := ValidateFileName(f.Name); err != nil {
			return nil, err
		}
		if i > 0 && sorted[i-1].Name == f.Name {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFile, f.Name)
		}
	}
	return sorted, nil
}
