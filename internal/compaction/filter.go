package compaction

import "github.com/getong/leveled/internal/journalkey"

// Decision is the per-record outcome of the filter's decision table.
type Decision int

const (
	// KeepOriginal writes the record through unchanged.
	KeepOriginal Decision = iota
	// KeepCompacted writes a key-deltas-only record at the original SQN,
	// the retain strategy's survivor.
	KeepCompacted
	// Drop omits the record from the output entirely.
	Drop
	// Corrupt means the record's CRC did not validate; it is omitted
	// and clears the job-wide prompt_delete flag.
	Corrupt
)

// String returns the canonical name of a Decision.
func (d Decision) String() string {
	switch d {
	case KeepOriginal:
		return "keep_original"
	case KeepCompacted:
		return "keep_compacted"
	case Drop:
		return "drop"
	case Corrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Classify applies the filter's decision table to one record:
//
//	crc_ok  key_valid  sqn>max_sqn  strategy         action
//	false   --         --           --               corrupt
//	true    true       --           --               keep_original
//	true    false      true         --               keep_original
//	true    false      false        retain           keep_compacted
//	true    false      false        recalc|recovr    drop
//
// key_valid is filter(ledgerKey, sqn): true iff the ledger still records
// exactly this (ledgerKey, sqn) pair as live. Tombstones skip that check:
// Classify returns keep_original for them without consulting filter, so
// this core never reaps them, whatever the strategy.
func Classify(key journalkey.JournalKey, crcOK bool, filter FilterFunc, maxSQN journalkey.SQN, strategy journalkey.StrategyMap) Decision {
	if !crcOK {
		return Corrupt
	}

	// Tombstones are never reaped by compaction, regardless of what the
	// ledger oracle reports for them.
	if key.Kind == journalkey.Tombstone {
		return KeepOriginal
	}

	keyValid := filter(key.LedgerKey, key.SQN)
	if keyValid {
		return KeepOriginal
	}
	if key.SQN > maxSQN {
		return KeepOriginal
	}

	switch strategy.Lookup(key.LedgerKey.Tag) {
	case journalkey.Retain:
		return KeepCompacted
	default: // Recalc, Recovr
		return Drop
	}
}
