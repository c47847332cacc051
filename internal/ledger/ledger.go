// Package ledger implements the minimal oracle the Filter and Scorer call
// through: an immutable point-in-time view over "is this record still
// live," captured once per job and never mutated for the job's duration.
package ledger

import "github.com/getong/leveled/internal/journalkey"

// Snapshot is an immutable mapping from ledger key to the SQN of its
// current (live) journal record, captured at initiate() time. It never
// changes after construction, the same way a point-in-time read surface
// over a mutable index stays stable for whoever holds a reference to it.
type Snapshot struct {
	entries map[journalkey.LedgerKey]journalkey.SQN
}

// NewSnapshot builds a Snapshot from entries. The caller's map is copied;
// mutating it afterward has no effect on the returned Snapshot.
func NewSnapshot(entries map[journalkey.LedgerKey]journalkey.SQN) *Snapshot {
	copied := make(map[journalkey.LedgerKey]journalkey.SQN, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return &Snapshot{entries: copied}
}

// Check reports whether the ledger still records exactly (key, sqn) as the
// live entry — the "key_valid" predicate of the filter decision table.
func (s *Snapshot) Check(key journalkey.LedgerKey, sqn journalkey.SQN) bool {
	if s == nil {
		return false
	}
	current, ok := s.entries[key]
	return ok && current == sqn
}

// Len returns the number of entries in the snapshot, for diagnostics.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}
