package batches

import (
	"context"
	"errors"
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklebatch/ledger"
	"github.com/forestrie/go-merklebatch/merkle"
)

// Committer creates batches from uploaded files and anchors their roots.
type Committer struct {
	Log      logger.Logger
	Files    FileStore
	Meta     MetadataStore
	Registry ledger.Registry
	Opts     CommitterOptions
	hasher   merkle.Hasher
}

// NewCommitter creates a committer. The registry may be nil when batches are
// only committed locally; Anchor then fails with ErrRegistryRequired.
func NewCommitter(
	log logger.Logger, files FileStore, meta MetadataStore, registry ledger.Registry, opts ...Option,
) (*Committer, error) {
	o := newCommitterOptions(opts...)
	hasher, err := merkle.NewHasher(o.HashAlg)
	if err != nil {
		return nil, err
	}
	return &Committer{
		Log:      log,
		Files:    files,
		Meta:     meta,
		Registry: registry,
		Opts:     o,
		hasher:   hasher,
	}, nil
}

// Commit stores the files as a new batch and returns its record. Files are
// put in canonical order first, so the root does not depend on the order they
// were supplied in.
func (c *Committer) Commit(ctx context.Context, files []FileRecord) (Batch, error) {
	batch, err := c.commit(ctx, files)
	if err != nil {
		c.Opts.Metrics.commit("commit_failed")
		return Batch{}, err
	}
	c.Opts.Metrics.commit("committed")
	return batch, nil
}

func (c *Committer) commit(ctx context.Context, files []FileRecord) (Batch, error) {
	if len(files) == 0 {
		return Batch{}, merkle.ErrEmptyBatch
	}
	sorted, err := sortFiles(files)
	if err != nil {
		return Batch{}, err
	}

	leaves, err := hashRecords(ctx, c.hasher, sorted, c.Opts.Concurrency)
	if err != nil {
		return Batch{}, err
	}
	tree, err := merkle.NewTree(c.hasher, leaves)
	if err != nil {
		return Batch{}, err
	}

	batchID, err := c.Meta.NextBatchID(ctx)
	if err != nil {
		return Batch{}, err
	}

	// From here on a failure burns batchID. No metadata is written for it, so
	// it never verifies.
	for _, f := range sorted {
		if err = c.Files.WriteFile(ctx, batchID, f.Name, f.Data); err != nil {
			return Batch{}, fmt.Errorf("batch %d: writing %s: %w", batchID, f.Name, err)
		}
	}

	batch := Batch{
		BatchID:     batchID,
		Files:       make([]Leaf, len(sorted)),
		Root:        tree.Root(),
		FileCount:   len(sorted),
		HashAlg:     c.hasher.Algorithm(),
		Ordering:    OrderingFilename,
		MetadataURI: fmt.Sprintf(c.Opts.MetadataURIFmt, batchID),
		CreatedAt:   c.Opts.Clock().UTC(),
	}
	if c.Opts.Network != nil {
		batch.RegistryAddress = c.Opts.Network.RegistryAddress
	}
	for i, f := range sorted {
		batch.Files[i] = Leaf{Name: f.Name, Hash: leaves[i]}
	}

	if err = c.Meta.PutBatch(ctx, batch); err != nil {
		return Batch{}, err
	}

	c.Log.Infof("committed batch %d: %d files, root %s", batchID, batch.FileCount, batch.Root.Hex())
	return batch, nil
}

// Anchor registers the stored root of the batch with the ledger and records
// the id the ledger assigned. A batch is anchored at most once.
func (c *Committer) Anchor(ctx context.Context, batchID uint64) (Batch, error) {
	batch, err := c.anchor(ctx, batchID)
	if err != nil {
		c.Opts.Metrics.commit("anchor_failed")
		return Batch{}, err
	}
	c.Opts.Metrics.commit("anchored")
	return batch, nil
}

func (c *Committer) anchor(ctx context.Context, batchID uint64) (Batch, error) {
	if c.Registry == nil {
		return Batch{}, ErrRegistryRequired
	}
	batch, err := c.Meta.GetBatch(ctx, batchID)
	if err != nil {
		return Batch{}, err
	}
	if batch.Anchored() {
		return Batch{}, fmt.Errorf("%w: batch %d is remote batch %d", ErrAlreadyAnchored, batchID, *batch.RemoteBatchID)
	}

	remoteID, err := c.Registry.Register(ctx, batch.Root, batch.MetadataURI)
	if err != nil {
		if errors.Is(err, ledger.ErrUnavailable) {
			return Batch{}, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
		}
		return Batch{}, err
	}
	if err = c.Meta.SetRemoteBatchID(ctx, batchID, remoteID); err != nil {
		return Batch{}, err
	}
	batch.RemoteBatchID = &remoteID

	c.Log.Infof("anchored batch %d as remote batch %d", batchID, remoteID)
	return batch, nil
}
