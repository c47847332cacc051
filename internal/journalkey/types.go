// Package journalkey defines the journal's key and value model: the
// (sqn, kind, ledger_key) triple every journal record is framed around, and
// the closed set of reload strategies a ledger key's tag selects.
package journalkey

import "fmt"

// SQN is a sequence number: a globally unique, strictly increasing write
// identifier assigned by the journal owner at append time.
type SQN uint64

// Tag classifies a ledger key for reload-strategy dispatch. Tags are
// supplied by the codec layer above this core; this package only matches on
// them, never interprets their meaning.
type Tag string

// LedgerKey is the user-facing key carried inside a journal key, plus the
// tag selecting its reload strategy. UserKey is a string rather than
// []byte so LedgerKey stays comparable and usable as a map key, matching
// how the ledger snapshot and strategy map index by it.
type LedgerKey struct {
	UserKey string
	Tag     Tag
}

// Kind distinguishes the three record shapes a journal value can take.
type Kind int

const (
	// Standard records carry both an object and its key deltas.
	Standard Kind = iota
	// Tombstone records are deletion markers with no payload; never
	// reaped by compaction regardless of strategy or ledger state.
	Tombstone
	// KeyDeltas records carry only index-side deltas, the survivor of a
	// retain-strategy compaction that dropped the object.
	KeyDeltas
)

// String returns the canonical name of a Kind.
func (k Kind) String() string {
	switch k {
	case Standard:
		return "standard"
	case Tombstone:
		return "tombstone"
	case KeyDeltas:
		return "key_deltas"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// JournalKey is the (sqn, kind, ledger_key) triple every on-disk record is
// framed around.
type JournalKey struct {
	SQN       SQN
	Kind      Kind
	LedgerKey LedgerKey
}

// Strategy is the reload policy a tag selects: what happens to a record
// once the ledger no longer considers it live. Modeled as a closed,
// int-backed enum matched in a switch, never a map[string]string, so a new
// strategy cannot be introduced by a typo.
type Strategy int

const (
	// Retain drops the object but keeps the key deltas, emitting a
	// KeyDeltas record at the original SQN.
	Retain Strategy = iota
	// Recalc drops the entire record; deltas are regenerable from the
	// object on reload.
	Recalc
	// Recovr drops the entire record; loss of deltas is accepted and
	// recovered by external anti-entropy.
	Recovr
)

// String returns the canonical name of a Strategy.
func (s Strategy) String() string {
	switch s {
	case Retain:
		return "retain"
	case Recalc:
		return "recalc"
	case Recovr:
		return "recovr"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// StrategyMap maps a ledger key's tag to its reload strategy. Threaded
// through construction (clerk.New(Options)) rather than held as a package
// global, so tests stay hermetic.
type StrategyMap map[Tag]Strategy

// Lookup returns the strategy registered for tag, or Recovr if the tag has
// no entry — the safest default, since it never retains stale deltas.
func (m StrategyMap) Lookup(tag Tag) Strategy {
	if s, ok := m[tag]; ok {
		return s
	}
	return Recovr
}
