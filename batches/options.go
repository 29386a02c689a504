package batches

import (
	"time"

	"github.com/forestrie/go-merklebatch/ledger"
	"github.com/forestrie/go-merklebatch/merkle"
)

const (
	DefaultRemoteTimeout  = 30 * time.Second
	DefaultConcurrency    = 8
	DefaultMetadataURIFmt = "ipfs://placeholder-%d"
)

type VerifierOptions struct {
	RemoteTimeout time.Duration
	Concurrency   int
	Metrics       *Metrics
	Network       *ledger.NetworkConfig
	LocalOnly     bool
	// RemoteBatchID, when non zero, replaces the id recorded with the batch.
	RemoteBatchID uint64
}

type CommitterOptions struct {
	HashAlg        merkle.HashAlgorithm
	MetadataURIFmt string
	Concurrency    int
	Metrics        *Metrics
	Network        *ledger.NetworkConfig
	Clock          func() time.Time
}

// Option configures a Verifier, a Committer or a single verification run.
// Each target type asserts for its own options record and ignores options that
// do not apply to it.
type Option func(any)

func WithRemoteTimeout(timeout time.Duration) Option {
	return func(opts any) {
		if o, ok := opts.(*VerifierOptions); ok {
			o.RemoteTimeout = timeout
		}
	}
}

// WithConcurrency bounds the number of files read and hashed at once.
func WithConcurrency(n int) Option {
	return func(opts any) {
		switch o := opts.(type) {
		case *VerifierOptions:
			o.Concurrency = n
		case *CommitterOptions:
			o.Concurrency = n
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(opts any) {
		switch o := opts.(type) {
		case *VerifierOptions:
			o.Metrics = m
		case *CommitterOptions:
			o.Metrics = m
		}
	}
}

// WithNetwork sets the network the batches are anchored on. The committer
// records its registry address and the verifier reports its explorer links.
func WithNetwork(cfg ledger.NetworkConfig) Option {
	return func(opts any) {
		switch o := opts.(type) {
		case *VerifierOptions:
			o.Network = &cfg
		case *CommitterOptions:
			o.Network = &cfg
		}
	}
}

// WithLocalOnly stops verification after the local root comparison.
func WithLocalOnly() Option {
	return func(opts any) {
		if o, ok := opts.(*VerifierOptions); ok {
			o.LocalOnly = true
		}
	}
}

// WithRemoteBatchID verifies against the given ledger id instead of the one
// recorded with the batch.
func WithRemoteBatchID(id uint64) Option {
	return func(opts any) {
		if o, ok := opts.(*VerifierOptions); ok {
			o.RemoteBatchID = id
		}
	}
}

func WithHashAlgorithm(alg merkle.HashAlgorithm) Option {
	return func(opts any) {
		if o, ok := opts.(*CommitterOptions); ok {
			o.HashAlg = alg
		}
	}
}

// WithMetadataURIFormat sets the format used to derive the suggested metadata
// uri from the batch id. It must contain a single %d verb.
func WithMetadataURIFormat(format string) Option {
	return func(opts any) {
		if o, ok := opts.(*CommitterOptions); ok {
			o.MetadataURIFmt = format
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(opts any) {
		if o, ok := opts.(*CommitterOptions); ok {
			o.Clock = clock
		}
	}
}

func newVerifierOptions(opts ...Option) VerifierOptions {
	o := VerifierOptions{
		RemoteTimeout: DefaultRemoteTimeout,
		Concurrency:   DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newCommitterOptions(opts ...Option) CommitterOptions {
	o := CommitterOptions{
		HashAlg:        merkle.SHA256,
		MetadataURIFmt: DefaultMetadataURIFmt,
		Concurrency:    DefaultConcurrency,
		Clock:          time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
