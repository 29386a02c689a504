package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/forestrie/go-merklebatch/merkle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMemoryRegistry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := NewMemoryRegistry(WithOwner("0xabc"), WithClock(fixedClock(now)))

	h := merkle.DefaultHasher()
	rootA := h.HashLeaf([]byte("a"))
	rootB := h.HashLeaf([]byte("b"))

	idA, err := r.Register(ctx, rootA, "ipfs://a")
	require.NoError(t, err)
	idB, err := r.Register(ctx, rootB, "ipfs://b")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), idA)
	assert.Equal(t, uint64(2), idB)
	assert.Equal(t, 2, r.Len())

	rec, err := r.Get(ctx, idB)
	require.NoError(t, err)
	assert.Equal(t, Record{Root: rootB, Owner: "0xabc", MetadataURI: "ipfs://b", Timestamp: now}, rec)

	for _, id := range []uint64{0, 3, 1000} {
		_, err = r.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, "id %d", id)
	}
}

func TestMemoryRegistryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewMemoryRegistry()
	_, err := r.Register(ctx, merkle.Digest{}, "")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = r.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}
