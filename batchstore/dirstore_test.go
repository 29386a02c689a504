package batchstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklebatch/batches"
	"github.com/forestrie/go-merklebatch/ledger"
	"github.com/forestrie/go-merklebatch/merkle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirStore(t *testing.T, root string) *DirStore {
	logger.New("NOOP")
	s, err := NewDirStore(logger.Sugar.WithServiceName("TestDirStore"), root)
	require.NoError(t, err)
	return s
}

func threeDocs() []batches.FileRecord {
	return []batches.FileRecord{
		{Name: "doc3", Data: []byte("bytes3")},
		{Name: "doc1", Data: []byte("bytes1")},
		{Name: "doc2", Data: []byte("bytes2")},
	}
}

func TestDirStoreCommitVerify(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := newTestDirStore(t, root)
	registry := ledger.NewMemoryRegistry()

	committer, err := batches.NewCommitter(store.log, store, store, registry)
	require.NoError(t, err)
	batch, err := committer.Commit(ctx, threeDocs())
	require.NoError(t, err)
	_, err = committer.Anchor(ctx, batch.BatchID)
	require.NoError(t, err)

	verifier := batches.NewVerifier(store.log, store, store, registry)
	report, err := verifier.Verify(ctx, batch.BatchID)
	require.NoError(t, err)
	assert.Equal(t, batches.BasisLocal|batches.BasisAnchor, report.Basis)

	// Rewrite a file on disk.
	require.NoError(t, os.WriteFile(filepath.Join(root, "1", "doc2"), []byte("tampered"), 0o644))
	report, err = verifier.Verify(ctx, batch.BatchID)
	assert.ErrorIs(t, err, batches.ErrLocalIntegrityFailure)
	assert.Equal(t, []string{"doc2"}, report.ModifiedFiles)
	require.NoError(t, os.WriteFile(filepath.Join(root, "1", "doc2"), []byte("bytes2"), 0o644))

	// Delete one.
	require.NoError(t, os.Remove(filepath.Join(root, "1", "doc3")))
	report, err = verifier.Verify(ctx, batch.BatchID)
	assert.ErrorIs(t, err, batches.ErrMissingFile)
	assert.Equal(t, batches.OutcomeMissingFile, report.Outcome)
}

func TestDirStoreMetadataLayout(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := newTestDirStore(t, root)

	committer, err := batches.NewCommitter(store.log, store, store, nil)
	require.NoError(t, err)
	batch, err := committer.Commit(ctx, threeDocs())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "1", batches.MetadataFileName))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 1.0, doc["batch_id"])
	assert.Equal(t, 3.0, doc["file_count"])
	assert.Equal(t, batch.Root.Hex(), doc["root"])
	assert.Equal(t, "sha256", doc["hash_alg"])
	assert.Equal(t, "filename", doc["ordering"])
	assert.Equal(t, "ipfs://placeholder-1", doc["metadata_uri"])
	assert.NotContains(t, doc, "remote_batch_id")

	files := doc["files"].([]any)
	require.Len(t, files, 3)
	first := files[0].(map[string]any)
	assert.Equal(t, "doc1", first["filename"])
	assert.Equal(t, merkle.DefaultHasher().HashLeaf([]byte("bytes1")).Hex(), first["leaf_hash"])
}

func TestDirStoreBatchIDs(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := newTestDirStore(t, root)

	for want := uint64(1); want <= 3; want++ {
		id, err := store.NextBatchID(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}

	// A directory created by someone else is skipped, and a reopened store
	// carries on after the highest id.
	require.NoError(t, os.Mkdir(filepath.Join(root, "4"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "not-a-batch"), 0o755))
	reopened := newTestDirStore(t, root)
	id, err := reopened.NextBatchID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), id)
}

func TestDirStoreMetadata(t *testing.T) {
	ctx := context.Background()
	store := newTestDirStore(t, t.TempDir())

	_, err := store.GetBatch(ctx, 1)
	assert.ErrorIs(t, err, batches.ErrBatchNotFound)

	batch := batches.Batch{BatchID: 1, FileCount: 1, Files: []batches.Leaf{{Name: "a"}}}
	require.NoError(t, store.PutBatch(ctx, batch))
	assert.ErrorIs(t, store.PutBatch(ctx, batch), batches.ErrBatchExists)

	require.NoError(t, store.SetRemoteBatchID(ctx, 1, 9))
	assert.ErrorIs(t, store.SetRemoteBatchID(ctx, 1, 10), batches.ErrAlreadyAnchored)
	assert.ErrorIs(t, store.SetRemoteBatchID(ctx, 2, 10), batches.ErrBatchNotFound)

	got, err := store.GetBatch(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got.RemoteBatchID)
	assert.Equal(t, uint64(9), *got.RemoteBatchID)

	names, err := store.ListFiles(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, names, "metadata is not a batch file")
}

func TestDirStoreRejectsBadNames(t *testing.T) {
	ctx := context.Background()
	store := newTestDirStore(t, t.TempDir())
	for _, name := range []string{"../escape", "a/b", batches.MetadataFileName} {
		assert.ErrorIs(t, store.WriteFile(ctx, 1, name, nil), batches.ErrInvalidFileName, name)
	}
}
