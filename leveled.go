package leveled

// leveled.go re-exports the public surface of the compaction clerk and its
// collaborators so embedding applications import one package. The
// implementations live under internal/.

import (
	"github.com/getong/leveled/internal/cdb"
	"github.com/getong/leveled/internal/clerk"
	"github.com/getong/leveled/internal/compaction"
	"github.com/getong/leveled/internal/journalctl"
	"github.com/getong/leveled/internal/journalkey"
	"github.com/getong/leveled/internal/ledger"
	"github.com/getong/leveled/internal/logging"
)

// Clerk is the compaction job coordinator: a single-job-at-a-time actor
// bound to one journal controller.
type Clerk = clerk.Clerk

// ClerkOptions configures a Clerk.
type ClerkOptions = clerk.Options

// ErrStopped is returned by Compact after Stop has been processed.
var ErrStopped = clerk.ErrStopped

// NewClerk constructs a Clerk and starts its worker goroutine.
func NewClerk(opts ClerkOptions) *Clerk {
	return clerk.New(opts)
}

// Ledger is the oracle the filter consults: is (key, sqn) still the live
// entry for that key.
type Ledger = clerk.Ledger

// InitiateFunc snapshots the ledger and the SQN horizon for one job.
type InitiateFunc = clerk.InitiateFunc

// Journal key and value model.
type (
	SQN        = journalkey.SQN
	Tag        = journalkey.Tag
	LedgerKey  = journalkey.LedgerKey
	JournalKey = journalkey.JournalKey
	Kind       = journalkey.Kind
	Value      = journalkey.Value
)

const (
	Standard  = journalkey.Standard
	Tombstone = journalkey.Tombstone
	KeyDeltas = journalkey.KeyDeltas
)

// Reload strategies: what happens to a superseded record at compaction.
type (
	Strategy    = journalkey.Strategy
	StrategyMap = journalkey.StrategyMap
)

const (
	Retain = journalkey.Retain
	Recalc = journalkey.Recalc
	Recovr = journalkey.Recovr
)

// Compaction core types, for callers implementing their own controller or
// file store.
type (
	Candidate        = compaction.Candidate
	Run              = compaction.Run
	ManifestEntry    = compaction.ManifestEntry
	ConsumedFile     = compaction.ConsumedFile
	JobStats         = compaction.JobStats
	FileStore        = compaction.FileStore
	Controller       = compaction.Controller
	DestinationNamer = compaction.DestinationNamer
	KV               = compaction.KV
	FetchResult      = compaction.FetchResult
	FetchMode        = compaction.FetchMode
	Position         = compaction.Position
)

const (
	FetchKeySize       = compaction.FetchKeySize
	FetchKeyValueCheck = compaction.FetchKeyValueCheck
)

// EncodeValue serializes a journal value for its record kind.
func EncodeValue(kind Kind, v Value) []byte {
	return journalkey.EncodeValue(kind, v)
}

// DecodeValue parses a journal value according to its record kind.
func DecodeValue(kind Kind, data []byte) (Value, error) {
	return journalkey.DecodeValue(kind, data)
}

// DefaultDestinationNamer names destination files by their first SQN plus
// a compaction marker, inside dir.
func DefaultDestinationNamer(dir string) DestinationNamer {
	return compaction.DefaultDestinationNamer(dir)
}

// Logger is the leveled logging interface; Discard silences a component
// and a nil Logger falls back to a WARN-level default.
type Logger = logging.Logger

// Discard is a Logger that drops every message.
var Discard = logging.Discard

// Store is the cdb journal file store.
type Store = cdb.Store

// StoreOptions configures a Store.
type StoreOptions = cdb.Options

// DefaultStoreOptions returns store defaults rooted at dir.
func DefaultStoreOptions(dir string) StoreOptions {
	return cdb.DefaultOptions(dir)
}

// OpenStore opens a journal store rooted at opts.Dir, holding the
// directory lock until Close.
func OpenStore(opts StoreOptions, log Logger) (*Store, error) {
	return cdb.Open(opts, log)
}

// NewSnapshot builds an immutable ledger snapshot from entries; its Check
// method satisfies Ledger.
func NewSnapshot(entries map[LedgerKey]SQN) *ledger.Snapshot {
	return ledger.NewSnapshot(entries)
}

// NewController constructs the in-memory journal controller with the
// given initial manifest, entries[0] being the active write-tip file.
func NewController(entries []ManifestEntry, log Logger) *journalctl.Controller {
	return journalctl.New(entries, log)
}
