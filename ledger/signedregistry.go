package ledger

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklebatch/merkle"
	"github.com/veraison/go-cose"
)

const (
	AnchorDir       = "anchors"
	anchorExtension = ".cose"
)

// AnchorKey returns the object key for the anchor with the given id. The id is
// zero padded so the lexical and numeric orders agree.
func AnchorKey(remoteBatchID uint64) string {
	return fmt.Sprintf("%s/%016d%s", AnchorDir, remoteBatchID, anchorExtension)
}

func parseAnchorKey(key string) (uint64, bool) {
	base := path.Base(key)
	if !strings.HasSuffix(base, anchorExtension) {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimSuffix(base, anchorExtension), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// SignedRegistry is a Registry whose records are COSE Sign1 messages kept in an
// ObjectStore. Every Get re-verifies the signature, so a record altered in the
// store reads as unavailable rather than as a different root.
type SignedRegistry struct {
	log      logger.Logger
	store    ObjectStore
	signer   cose.Signer
	verifier cose.Verifier
	keyID    string
	anchor   AnchorSigner
	codec    AnchorCodec
	opts     RegistryOptions

	mu     sync.Mutex
	nextID uint64
}

// NewSignedRegistry creates a registry over store. A nil signer opens the
// registry read only. The verifier is always required.
func NewSignedRegistry(
	log logger.Logger, store ObjectStore, signer cose.Signer, verifier cose.Verifier, keyID string,
	opts ...RegistryOption,
) (*SignedRegistry, error) {
	if verifier == nil {
		return nil, ErrVerifierRequired
	}
	codec, err := NewAnchorCodec()
	if err != nil {
		return nil, err
	}
	return &SignedRegistry{
		log:      log,
		store:    store,
		signer:   signer,
		verifier: verifier,
		keyID:    keyID,
		anchor:   NewAnchorSigner(codec),
		codec:    codec,
		opts:     newRegistryOptions(opts...),
	}, nil
}

// primeNextID finds the first unused id from the anchors already present.
// Callers hold r.mu.
func (r *SignedRegistry) primeNextID(ctx context.Context) error {
	if r.nextID != 0 {
		return nil
	}
	keys, err := r.store.List(ctx, AnchorDir)
	if err != nil {
		return err
	}
	var last uint64
	for _, key := range keys {
		if id, ok := parseAnchorKey(key); ok && id > last {
			last = id
		}
	}
	r.nextID = last + 1
	return nil
}

func (r *SignedRegistry) Register(ctx context.Context, root merkle.Digest, metadataURI string) (uint64, error) {
	if r.signer == nil {
		return 0, ErrReadOnly
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.primeNextID(ctx); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	state := AnchorState{
		Root:        root.Bytes(),
		Owner:       r.opts.Owner,
		MetadataURI: metadataURI,
		Timestamp:   r.opts.Clock().UnixMilli(),
	}

	// Another writer sharing the store may have taken the id, in which case
	// the put fails and we move on to the next one.
	for {
		state.RemoteBatchID = r.nextID
		signed, err := r.anchor.Sign1(r.signer, r.keyID, state, nil)
		if err != nil {
			return 0, err
		}
		err = r.store.Put(ctx, AnchorKey(state.RemoteBatchID), signed, true)
		if errors.Is(err, ErrObjectExists) {
			r.nextID++
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		break
	}
	r.nextID++

	r.log.Debugf("anchored root %s as remote batch %d", root.Hex(), state.RemoteBatchID)
	return state.RemoteBatchID, nil
}

func (r *SignedRegistry) Get(ctx context.Context, remoteBatchID uint64) (Record, error) {
	if remoteBatchID == 0 {
		return Record{}, fmt.Errorf("%w: %d", ErrNotFound, remoteBatchID)
	}
	data, err := r.store.Get(ctx, AnchorKey(remoteBatchID))
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return Record{}, fmt.Errorf("%w: %d", ErrNotFound, remoteBatchID)
		}
		return Record{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	msg, state, err := DecodeSignedAnchor(r.codec, data)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err = VerifySignedAnchor(r.verifier, msg, nil); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if state.RemoteBatchID != remoteBatchID {
		return Record{}, fmt.Errorf("%w: %w: got %d, want %d",
			ErrUnavailable, ErrAnchorIDMismatch, state.RemoteBatchID, remoteBatchID)
	}
	rec, err := state.Record()
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return rec, nil
}
