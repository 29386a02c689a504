package batches

import (
	"strings"
	"time"

	"github.com/forestrie/go-merklebatch/ledger"
	"github.com/forestrie/go-merklebatch/merkle"
)

// Stage is the furthest point a verification run reached. The stages are
// passed in order and a run stops at the first failure.
type Stage int

const (
	StageStart Stage = iota
	StageLocalFilesLoaded
	StageLocalRootComputed
	StageLocalRootMatchesStored
	StageRemoteRootFetched
	StageRootsCompared
	StageVerified
)

var stageNames = [...]string{
	StageStart:                  "start",
	StageLocalFilesLoaded:       "local_files_loaded",
	StageLocalRootComputed:      "local_root_computed",
	StageLocalRootMatchesStored: "local_root_matches_stored",
	StageRemoteRootFetched:      "remote_root_fetched",
	StageRootsCompared:          "roots_compared",
	StageVerified:               "verified",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the single result of a verification run.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeVerified
	OutcomeBatchNotFound
	OutcomeMissingFile
	OutcomeLocalIntegrityFailure
	OutcomeNotAnchored
	OutcomeNotFound
	OutcomeRemoteUnavailable
	OutcomeAnchorMismatch
	OutcomeCancelled
	OutcomeError
)

var outcomeNames = [...]string{
	OutcomeUnknown:               "unknown",
	OutcomeVerified:              "verified",
	OutcomeBatchNotFound:         "batch_not_found",
	OutcomeMissingFile:           "missing_file",
	OutcomeLocalIntegrityFailure: "local_integrity_failure",
	OutcomeNotAnchored:           "not_anchored",
	OutcomeNotFound:              "not_found",
	OutcomeRemoteUnavailable:     "remote_unavailable",
	OutcomeAnchorMismatch:        "anchor_mismatch",
	OutcomeCancelled:             "cancelled",
	OutcomeError:                 "error",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Basis records which comparisons a verification result rests on.
type Basis uint8

const (
	// BasisLocal is set once the recomputed root matched the stored root.
	BasisLocal Basis = 1 << iota
	// BasisAnchor is set once the stored root matched the ledger's root.
	BasisAnchor
)

func (b Basis) Has(flag Basis) bool { return b&flag == flag }

func (b Basis) String() string {
	var parts []string
	if b.Has(BasisLocal) {
		parts = append(parts, "local")
	}
	if b.Has(BasisAnchor) {
		parts = append(parts, "anchor")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

func (b Basis) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// FileReport is the per file detail of a verification run.
type FileReport struct {
	Name         string        `json:"filename"`
	Size         int           `json:"size"`
	LeafHash     merkle.Digest `json:"leaf_hash"`
	RecordedHash merkle.Digest `json:"recorded_hash"`
	Modified     bool          `json:"modified"`
}

// Report describes a verification run. Two runs over unchanged inputs produce
// reports that differ only in RunID, StartedAt and Elapsed.
type Report struct {
	RunID         string         `json:"run_id"`
	BatchID       uint64         `json:"batch_id"`
	RemoteBatchID uint64         `json:"remote_batch_id,omitempty"`
	Stage         Stage          `json:"stage"`
	Outcome       Outcome        `json:"outcome"`
	Basis         Basis          `json:"basis"`
	HashAlg       string         `json:"hash_alg,omitempty"`
	ComputedRoot  merkle.Digest  `json:"computed_root"`
	StoredRoot    merkle.Digest  `json:"stored_root"`
	RemoteRoot    merkle.Digest  `json:"remote_root"`
	Remote        *ledger.Record `json:"remote,omitempty"`
	Files         []FileReport   `json:"files,omitempty"`
	// ModifiedFiles are recorded files whose content no longer hashes to the
	// recorded leaf.
	ModifiedFiles []string `json:"modified_files,omitempty"`
	// UnexpectedFiles are present in the file store but not part of the batch.
	UnexpectedFiles []string      `json:"unexpected_files,omitempty"`
	ContractURL     string        `json:"contract_url,omitempty"`
	StartedAt       time.Time     `json:"started_at"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Verified is true only for a run that completed every required comparison.
func (r Report) Verified() bool {
	return r.Outcome == OutcomeVerified
}
