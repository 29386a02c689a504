package batches_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/forestrie/go-merklebatch/batches"
	"github.com/forestrie/go-merklebatch/batchtesting"
	"github.com/forestrie/go-merklebatch/merkle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProveFile(t *testing.T) {
	tc := batchtesting.NewTestContext(t, batchtesting.TestConfig{TestLabelPrefix: "TestProveFile"})
	ctx := context.Background()

	files := map[string][]byte{}
	for i := 0; i < 11; i++ {
		files[fmt.Sprintf("file-%02d", i)] = []byte(fmt.Sprintf("content %d", i))
	}
	batch := tc.CommitAndAnchor(files)
	rec, err := tc.Ledger.Get(ctx, *batch.RemoteBatchID)
	require.NoError(t, err)

	hasher := merkle.DefaultHasher()
	for name, data := range files {
		proof, leaf, err := batches.ProveFile(batch, name)
		require.NoError(t, err)
		assert.Equal(t, hasher.HashLeaf(data), leaf)

		ok, err := merkle.VerifyInclusion(hasher, leaf, proof, rec.Root)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}

	_, _, err = batches.ProveFile(batch, "absent")
	assert.ErrorIs(t, err, batches.ErrFileNotInBatch)
}

func TestProveFileRejectsInconsistentBatch(t *testing.T) {
	tc := batchtesting.NewTestContext(t, batchtesting.TestConfig{TestLabelPrefix: "TestProveFileRejectsInconsistentBatch"})
	batch, err := tc.NewCommitter().Commit(context.Background(), batchtesting.FileRecords(batchtesting.ThreeDocs()))
	require.NoError(t, err)

	batch.Files[1].Hash = merkle.Digest{}
	_, _, err = batches.ProveFile(batch, "doc1")
	assert.ErrorIs(t, err, batches.ErrMetadataIncorrect)
}
