// Package compaction implements the journal compaction core: scoring
// candidate files, planning a contiguous run to rewrite, filtering records
// per the reload strategy, and streaming survivors into new files.
//
// The package treats the journal file store, the ledger snapshot, and the
// journal controller as external collaborators reached only through the
// interfaces declared here (FileStore, Controller); internal/cdb,
// internal/ledger, and internal/journalctl provide concrete adapters.
package compaction

import (
	"github.com/getong/leveled/internal/journalkey"
)

// Tuning constants exposed for configuration.
const (
	// SampleSize bounds how many record positions the scorer samples.
	SampleSize = 200
	// BatchSize bounds how many positions are fetched per store round trip.
	BatchSize = 32
	// BatchesToCheck is kept for parity with upstream tuning. The scorer
	// does not read it: it walks every batch SampleSize implies.
	BatchesToCheck = 8
	// SFCT is the base target liveness percentage for a singleton run.
	SFCT = 60.0
	// MRCT is the target liveness percentage at the run-length cap.
	MRCT = 80.0
	// CRCSize is the trailing checksum overhead subtracted from record
	// size before it counts toward a file's live/replaced payload total.
	CRCSize = 4
	// FileExtension is the on-disk extension for journal files.
	FileExtension = "cdb"
)

// FileHandle is an opaque reference to a journal file, owned and
// interpreted only by the FileStore that issued it. The core never walks a
// graph through it and never stores back-pointers.
type FileHandle any

// WriterHandle is an opaque reference to an open destination file.
type WriterHandle any

// Position identifies one record within a journal file, opaque to callers
// beyond round-tripping it through FileStore.
type Position any

// FetchMode selects how much of a record DirectFetch returns.
type FetchMode int

const (
	// FetchKeySize returns only the journal key and total on-disk record
	// size (key + value + CRC trailer), sufficient for scoring.
	FetchKeySize FetchMode = iota
	// FetchKeyValueCheck returns the journal key, the raw value bytes,
	// and whether the trailing CRC validated, sufficient for rewriting.
	FetchKeyValueCheck
)

// FetchResult is one record returned by DirectFetch.
type FetchResult struct {
	Key   journalkey.JournalKey
	Size  int
	Value []byte
	CRCOK bool
}

// Candidate describes one journal file eligible for compaction.
type Candidate struct {
	// LowSQN is the smallest SQN present in the file.
	LowSQN journalkey.SQN
	// Filename is the stable path of the file.
	Filename string
	// Journal is the opaque handle permitting reads, position
	// enumeration, and a delete-pending signal.
	Journal FileHandle
	// CompactionPerc is the liveness percentage in [0.0, 100.0]; 100.0
	// means everything sampled is still live (worst candidate to
	// compact).
	CompactionPerc float64
}

// Run is a contiguous sublist of Candidates chosen for one compaction job.
type Run []Candidate

// ManifestEntry is one line of the journal manifest: the smallest SQN a
// file holds, its path, and a handle permitting reads.
type ManifestEntry struct {
	LowSQN   journalkey.SQN
	Filename string
	Handle   FileHandle
}

// ConsumedFile names one source file a job wants the controller to
// eventually delete, once no reader references it.
type ConsumedFile struct {
	LowSQN   journalkey.SQN
	Filename string
	Handle   FileHandle
}

// JobStats is the observable per-job metrics snapshot returned alongside a
// manifest delta. It does not influence any decision the core makes; it is
// purely for callers wiring the clerk into their own monitoring.
type JobStats struct {
	CandidatesScored int
	RunLength        int
	RecordsKept      int
	RecordsCompacted int
	RecordsDropped   int
	RecordsCorrupt   int
	BytesIn          int64
	BytesOut         int64
}

// FilterFunc tests whether the ledger still records exactly (key, sqn) as
// the live entry — the "key_valid" predicate both the scorer and the
// Filter invoke. Implementations are expected to be cheap, pure map
// lookups against an immutable snapshot.
type FilterFunc func(key journalkey.LedgerKey, sqn journalkey.SQN) bool

// FileStore is the journal file store API this core treats as external.
// internal/cdb provides the production implementation.
type FileStore interface {
	// Filename returns the stable path backing h.
	Filename(h FileHandle) string
	// GetPositions enumerates record positions in h. n <= 0 requests
	// full enumeration; n > 0 requests a uniform sample of that size.
	GetPositions(h FileHandle, n int) ([]Position, error)
	// DirectFetch batches random-access reads for positions from h.
	DirectFetch(h FileHandle, positions []Position, mode FetchMode) ([]FetchResult, error)
	// OpenWriter creates a new destination file at path.
	OpenWriter(path string) (WriterHandle, error)
	// MPut appends key/value pairs to w. rolled reports that w reached
	// its configured size limit and must be sealed before further
	// writes.
	MPut(w WriterHandle, kvs []KV) (rolled bool, err error)
	// Complete flushes and seals w and returns the sealed file's path.
	// The cdb store does no index work here; it builds a sealed file's
	// hash index when OpenReader opens it.
	Complete(w WriterHandle) (sealedPath string, err error)
	// OpenReader opens a sealed file for reading.
	OpenReader(path string) (FileHandle, error)
	// FirstKey returns the journal key of the first record in h.
	FirstKey(h FileHandle) (journalkey.JournalKey, error)
	// DeletePending schedules h for deletion once no reader references
	// it as of manifestSQN, notifying ctl when it is safe to remove.
	DeletePending(h FileHandle, manifestSQN uint64, ctl Controller) error
}

// KV is one record to append to a destination file.
type KV struct {
	Key   journalkey.JournalKey
	Value []byte
}

// Controller is the journal owner API this core treats as external.
// internal/journalctl provides the in-memory implementation used by tests
// and simple deployments.
type Controller interface {
	// GetManifest returns the current manifest: the active write-tip
	// entry first, then the remaining entries in ascending SQN order.
	// The first (active write-tip) entry must be excluded from
	// compaction by the caller.
	GetManifest() ([]ManifestEntry, error)
	// UpdateManifest atomically swaps in slice and retires consumed,
	// returning the new manifest SQN.
	UpdateManifest(slice []ManifestEntry, consumed []ConsumedFile) (manifestSQN uint64, err error)
	// CompactionComplete notifies the controller a job finished,
	// whether or not it produced a manifest delta.
	CompactionComplete(stats JobStats)
}

// Target returns the length-aware liveness target for a run of length L
// under the given run-length cap.
func Target(length, maxRunLength int) float64 {
	if length <= 1 || maxRunLength <= 1 {
		return SFCT
	}
	return SFCT + (MRCT-SFCT)*float64(length-1)/float64(maxRunLength-1)
}

// ScoreRun scores a candidate run: the length-aware target minus the run's
// mean liveness percentage. Higher is more worth compacting. An empty run
// scores exactly 0.0.
func ScoreRun(run Run, maxRunLength int) float64 {
	if len(run) == 0 {
		return 0.0
	}
	var sum float64
	for _, c := range run {
		sum += c.CompactionPerc
	}
	mean := sum / float64(len(run))
	return Target(len(run), maxRunLength) - mean
}
