// Package ledger provides the external anchor for batch roots: a registry that
// records (root, owner, metadata uri, timestamp) under a registry assigned id
// and hands the record back on request.
package ledger

import (
	"context"
	"time"

	"github.com/forestrie/go-merklebatch/merkle"
)

// Registry is the minimal read/write contract an anchoring ledger must meet. A
// blockchain contract, a signed log or an append only store all qualify.
type Registry interface {
	// Register records root and returns the id the registry assigned to it.
	Register(ctx context.Context, root merkle.Digest, metadataURI string) (uint64, error)
	// Get returns the record for remoteBatchID. It fails with ErrNotFound if
	// the id was never assigned, and with ErrUnavailable if the registry could
	// not be read.
	Get(ctx context.Context, remoteBatchID uint64) (Record, error)
}

// Record is the registry's view of an anchored batch.
type Record struct {
	Root        merkle.Digest `json:"root"`
	Owner       string        `json:"owner"`
	MetadataURI string        `json:"metadata_uri"`
	Timestamp   time.Time     `json:"timestamp"`
}

type RegistryOptions struct {
	Owner string
	Clock func() time.Time
}

type RegistryOption func(*RegistryOptions)

// WithOwner sets the owner recorded against every registration.
func WithOwner(owner string) RegistryOption {
	return func(o *RegistryOptions) {
		o.Owner = owner
	}
}

// WithClock replaces time.Now as the source of registration timestamps.
func WithClock(clock func() time.Time) RegistryOption {
	return func(o *RegistryOptions) {
		o.Clock = clock
	}
}

func newRegistryOptions(opts ...RegistryOption) RegistryOptions {
	options := RegistryOptions{
		Clock: time.Now,
	}
	for _, o := range opts {
		o(&options)
	}
	return options
}
