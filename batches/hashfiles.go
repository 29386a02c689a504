package batches

import (
	"context"

	"github.com/forestrie/go-merklebatch/merkle"
	"golang.org/x/sync/errgroup"
)

// hashedFile is the fresh leaf hash of one file, and its size.
type hashedFile struct {
	name string
	size int
	leaf merkle.Digest
}

// readAndHash reads each named file of the batch and hashes it. Work is spread
// over at most limit goroutines but the results keep the order of names.
func readAndHash(
	ctx context.Context, files FileStore, hasher merkle.Hasher,
	batchID uint64, names []string, limit int,
) ([]hashedFile, error) {
	hashed := make([]hashedFile, len(names))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			data, err := files.ReadFile(gctx, batchID, name)
			if err != nil {
				return err
			}
			hashed[i] = hashedFile{name: name, size: len(data), leaf: hasher.HashLeaf(data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hashed, nil
}

// hashRecords hashes in memory file content, keeping the record order.
func hashRecords(ctx context.Context, hasher merkle.Hasher, records []FileRecord, limit int) ([]merkle.Digest, error) {
	leaves := make([]merkle.Digest, len(records))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range records {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			leaves[i] = hasher.HashLeaf(records[i].Data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return leaves, nil
}
