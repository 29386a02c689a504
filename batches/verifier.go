package batches

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklebatch/ledger"
	"github.com/forestrie/go-merklebatch/merkle"
	"github.com/google/uuid"
)

// Verifier checks a stored batch against its files and against the ledger.
//
// A run passes through these stages, stopping at the first failure:
//
//  1. load the batch record and read every recorded file
//  2. hash the file content afresh and rebuild the tree
//  3. compare the computed root with the stored root
//  4. read the anchored record from the ledger, once, with a timeout
//  5. compare the stored root with the anchored root
//
// A local mismatch at stage 3 ends the run without contacting the ledger.
type Verifier struct {
	Log      logger.Logger
	Files    FileStore
	Meta     MetadataStore
	Registry ledger.Registry
	Opts     VerifierOptions
}

func NewVerifier(
	log logger.Logger, files FileStore, meta MetadataStore, registry ledger.Registry, opts ...Option,
) *Verifier {
	return &Verifier{
		Log:      log,
		Files:    files,
		Meta:     meta,
		Registry: registry,
		Opts:     newVerifierOptions(opts...),
	}
}

// Verify runs the verification of a single batch. Options given here apply to
// this run only, on top of the verifier's own.
//
// The returned error is nil only for a verified batch. Otherwise it wraps the
// sentinel for the failure, and the report's Outcome and Stage say where the
// run stopped.
func (v *Verifier) Verify(ctx context.Context, batchID uint64, opts ...Option) (Report, error) {
	o := v.Opts
	for _, opt := range opts {
		opt(&o)
	}

	r := Report{
		RunID:     uuid.NewString(),
		BatchID:   batchID,
		Stage:     StageStart,
		StartedAt: time.Now().UTC(),
	}
	if o.Network != nil {
		r.ContractURL = o.Network.ContractURL()
	}

	err := v.verify(ctx, o, &r)
	r.Elapsed = time.Since(r.StartedAt)
	if err != nil {
		if r.Outcome == OutcomeUnknown {
			r.Outcome = OutcomeError
		}
		v.Log.Infof("verify batch %d run %s: %s at %s: %v", batchID, r.RunID, r.Outcome, r.Stage, err)
	} else {
		if r.Stage == StageRootsCompared {
			r.Stage = StageVerified
		}
		r.Outcome = OutcomeVerified
		v.Log.Infof("verify batch %d run %s: verified on %s", batchID, r.RunID, r.Basis)
	}
	o.Metrics.verification(r.Outcome)
	return r, err
}

func (v *Verifier) verify(ctx context.Context, o VerifierOptions, r *Report) error {
	batch, err := v.Meta.GetBatch(ctx, r.BatchID)
	if err != nil {
		if errors.Is(err, ErrBatchNotFound) {
			r.Outcome = OutcomeBatchNotFound
		}
		return err
	}
	r.StoredRoot = batch.Root
	r.HashAlg = string(batch.HashAlg)
	if len(batch.Files) == 0 || batch.FileCount != len(batch.Files) {
		return fmt.Errorf("%w: batch %d records %d files but lists %d",
			ErrMetadataIncorrect, batch.BatchID, batch.FileCount, len(batch.Files))
	}
	hasher, err := batch.Hasher()
	if err != nil {
		return err
	}

	// Load and recompute.
	hashed, err := readAndHash(ctx, v.Files, hasher, batch.BatchID, batch.FileNames(), o.Concurrency)
	if err != nil {
		if errors.Is(err, ErrMissingFile) {
			r.Outcome = OutcomeMissingFile
		} else if ctxErr := ctx.Err(); ctxErr != nil {
			r.Outcome = OutcomeCancelled
		}
		return err
	}
	r.Stage = StageLocalFilesLoaded

	present, err := v.Files.ListFiles(ctx, batch.BatchID)
	if err != nil {
		return err
	}
	r.UnexpectedFiles = unexpectedFiles(batch.FileNames(), present)

	leaves := make([]merkle.Digest, len(hashed))
	r.Files = make([]FileReport, len(hashed))
	for i, h := range hashed {
		leaves[i] = h.leaf
		recorded := batch.Files[i].Hash
		r.Files[i] = FileReport{
			Name:         h.name,
			Size:         h.size,
			LeafHash:     h.leaf,
			RecordedHash: recorded,
			Modified:     h.leaf != recorded,
		}
		if h.leaf != recorded {
			r.ModifiedFiles = append(r.ModifiedFiles, h.name)
		}
	}

	tree, err := merkle.NewTree(hasher, leaves)
	if err != nil {
		return err
	}
	r.ComputedRoot = tree.Root()
	r.Stage = StageLocalRootComputed

	// Local compare. No ledger call is made for a batch that fails here.
	if r.ComputedRoot != batch.Root || len(r.ModifiedFiles) > 0 || len(r.UnexpectedFiles) > 0 {
		r.Outcome = OutcomeLocalIntegrityFailure
		return fmt.Errorf("%w: batch %d computed %s stored %s, %d modified, %d unexpected",
			ErrLocalIntegrityFailure, batch.BatchID, r.ComputedRoot.Hex(), batch.Root.Hex(),
			len(r.ModifiedFiles), len(r.UnexpectedFiles))
	}
	r.Stage = StageLocalRootMatchesStored
	r.Basis |= BasisLocal

	if o.LocalOnly {
		return nil
	}

	remoteID := o.RemoteBatchID
	if remoteID == 0 && batch.Anchored() {
		remoteID = *batch.RemoteBatchID
	}
	if remoteID == 0 {
		r.Outcome = OutcomeNotAnchored
		return fmt.Errorf("%w: batch %d", ErrNotAnchored, batch.BatchID)
	}
	r.RemoteBatchID = remoteID

	if v.Registry == nil {
		return ErrRegistryRequired
	}

	// Remote fetch.
	rec, err := v.fetchRemote(ctx, o, remoteID)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			r.Outcome = OutcomeCancelled
			return err
		case errors.Is(err, ledger.ErrNotFound):
			r.Outcome = OutcomeNotFound
			return err
		default:
			r.Outcome = OutcomeRemoteUnavailable
			return fmt.Errorf("%w: remote batch %d: %w", ErrRemoteUnavailable, remoteID, err)
		}
	}
	r.Remote = &rec
	r.RemoteRoot = rec.Root
	r.Stage = StageRemoteRootFetched

	// Remote compare.
	if rec.Root != batch.Root {
		r.Outcome = OutcomeAnchorMismatch
		return fmt.Errorf("%w: batch %d stored %s, remote batch %d anchored %s",
			ErrAnchorMismatch, batch.BatchID, batch.Root.Hex(), remoteID, rec.Root.Hex())
	}
	r.Basis |= BasisAnchor
	r.Stage = StageRootsCompared
	return nil
}

type fetchResult struct {
	rec ledger.Record
	err error
}

// fetchRemote makes the single ledger read of a run. The read is detached from
// ctx so cancelling the caller does not interrupt it, but its result is
// discarded if ctx is done first. The read is always bounded by the remote
// timeout.
func (v *Verifier) fetchRemote(ctx context.Context, o VerifierOptions, remoteID uint64) (ledger.Record, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Record{}, err
	}

	timeout := o.RemoteTimeout
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}

	results := make(chan fetchResult, 1)
	go func() {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		start := time.Now()
		rec, err := v.Registry.Get(fetchCtx, remoteID)
		o.Metrics.remoteFetch(time.Since(start))
		results <- fetchResult{rec: rec, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		v.Log.Debugf("discarding ledger read of remote batch %d: %v", remoteID, ctx.Err())
		return ledger.Record{}, ctx.Err()
	case <-timer.C:
		return ledger.Record{}, fmt.Errorf("ledger read timed out after %s: %w", timeout, context.DeadlineExceeded)
	case res := <-results:
		return res.rec, res.err
	}
}

// unexpectedFiles returns the names in present that are not recorded, sorted.
func unexpectedFiles(recorded, present []string) []string {
	known := make(map[string]struct{}, len(recorded))
	for _, name := range recorded {
		known[name] = struct{}{}
	}
	var extra []string
	for _, name := range present {
		if name == MetadataFileName {
			continue
		}
		if _, ok := known[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return extra
}
