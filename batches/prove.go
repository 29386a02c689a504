package batches

import (
	"fmt"

	"github.com/forestrie/go-merklebatch/merkle"
)

// ProveFile returns the inclusion proof for the named file of the batch,
// together with its recorded leaf hash. The proof checks against the batch
// root, and so against the anchored root, with merkle.VerifyInclusion.
func ProveFile(batch Batch, name string) (merkle.Proof, merkle.Digest, error) {
	index := -1
	for i, f := range batch.Files {
		if f.Name == name {
			index = i
			break
		}
	}
	if index < 0 {
		return merkle.Proof{}, merkle.Digest{}, fmt.Errorf("%w: %q in batch %d", ErrFileNotInBatch, name, batch.BatchID)
	}

	tree, err := batch.Tree()
	if err != nil {
		return merkle.Proof{}, merkle.Digest{}, err
	}
	if tree.Root() != batch.Root {
		return merkle.Proof{}, merkle.Digest{}, fmt.Errorf(
			"%w: batch %d leaves hash to %s not %s",
			ErrMetadataIncorrect, batch.BatchID, tree.Root().Hex(), batch.Root.Hex())
	}
	proof, err := tree.Proof(uint64(index))
	if err != nil {
		return merkle.Proof{}, merkle.Digest{}, err
	}
	return proof, batch.Files[index].Hash, nil
}
