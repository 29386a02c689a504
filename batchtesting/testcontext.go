// Package batchtesting provides in memory stores and ledger doubles for
// exercising commit and verification in tests.
package batchtesting

import (
	"context"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklebatch/batches"
	"github.com/forestrie/go-merklebatch/ledger"
	"github.com/stretchr/testify/require"
)

type TestContext struct {
	T        *testing.T
	Log      logger.Logger
	Files    *MemFileStore
	Meta     *MemMetadataStore
	Ledger   *ledger.MemoryRegistry
	Registry *CountingRegistry
}

type TestConfig struct {
	TestLabelPrefix string
	Owner           string
}

func NewTestContext(t *testing.T, cfg TestConfig) *TestContext {
	logger.New("NOOP")
	mem := ledger.NewMemoryRegistry(ledger.WithOwner(cfg.Owner))
	return &TestContext{
		T:        t,
		Log:      logger.Sugar.WithServiceName(cfg.TestLabelPrefix),
		Files:    NewMemFileStore(),
		Meta:     NewMemMetadataStore(),
		Ledger:   mem,
		Registry: NewCountingRegistry(mem),
	}
}

func (c *TestContext) GetLog() logger.Logger { return c.Log }

func (c *TestContext) NewCommitter(opts ...batches.Option) *batches.Committer {
	committer, err := batches.NewCommitter(c.Log, c.Files, c.Meta, c.Registry, opts...)
	require.NoError(c.T, err)
	return committer
}

func (c *TestContext) NewVerifier(opts ...batches.Option) *batches.Verifier {
	return batches.NewVerifier(c.Log, c.Files, c.Meta, c.Registry, opts...)
}

// CommitAndAnchor commits the named files and anchors the resulting batch.
func (c *TestContext) CommitAndAnchor(files map[string][]byte, opts ...batches.Option) batches.Batch {
	ctx := context.Background()
	committer := c.NewCommitter(opts...)
	batch, err := committer.Commit(ctx, FileRecords(files))
	require.NoError(c.T, err)
	batch, err = committer.Anchor(ctx, batch.BatchID)
	require.NoError(c.T, err)
	return batch
}

// FileRecords converts a name to content map into file records. Map order is
// random, which Commit must not depend on.
func FileRecords(files map[string][]byte) []batches.FileRecord {
	records := make([]batches.FileRecord, 0, len(files))
	for name, data := range files {
		records = append(records, batches.FileRecord{Name: name, Data: data})
	}
	return records
}

// ThreeDocs is the doc1, doc2, doc3 batch used across the tests.
func ThreeDocs() map[string][]byte {
	return map[string][]byte{
		"doc1": []byte("bytes1"),
		"doc2": []byte("bytes2"),
		"doc3": []byte("bytes3"),
	}
}
