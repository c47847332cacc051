package compaction

import (
	"testing"

	"github.com/getong/leveled/internal/journalkey"
	"github.com/getong/leveled/internal/ledger"
)

func ledgerKey(userKey string) journalkey.LedgerKey {
	return journalkey.LedgerKey{UserKey: userKey, Tag: "o"}
}

// buildSupersededStore builds a file holding SQNs 1..8 with ledger keys
// Key1 (1,4,5,6,7,8), Key2 (2), Key3 (3), all records the same on-disk
// size, so Key1 has five superseded versions.
func buildSupersededStore(size int) (*fakeStore, FileHandle) {
	handle := "journal-file"
	keys := []journalkey.LedgerKey{
		ledgerKey("Key1"), ledgerKey("Key2"), ledgerKey("Key3"),
		ledgerKey("Key1"), ledgerKey("Key1"), ledgerKey("Key1"),
		ledgerKey("Key1"), ledgerKey("Key1"),
	}
	recs := make([]journalkey.JournalKey, len(keys))
	for i, k := range keys {
		recs[i] = journalkey.JournalKey{SQN: journalkey.SQN(i + 1), Kind: journalkey.Standard, LedgerKey: k}
	}
	store := &fakeStore{records: map[FileHandle][]journalkey.JournalKey{handle: recs}, size: size}
	return store, handle
}

func TestScore_LiveFraction(t *testing.T) {
	store, handle := buildSupersededStore(8)
	snap := ledger.NewSnapshot(map[journalkey.LedgerKey]journalkey.SQN{
		ledgerKey("Key1"): 8,
		ledgerKey("Key2"): 2,
		ledgerKey("Key3"): 3,
	})
	filter := snap.Check

	got, err := Score(store, handle, filter, 9, 8, 32)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if !floatsClose(got, 37.5) {
		t.Errorf("Score(maxSQN=9) = %v, want 37.5", got)
	}
}

func TestScore_RecordsAboveHorizonCountAsLive(t *testing.T) {
	store, handle := buildSupersededStore(8)
	snap := ledger.NewSnapshot(map[journalkey.LedgerKey]journalkey.SQN{
		ledgerKey("Key1"): 8,
		ledgerKey("Key2"): 2,
		ledgerKey("Key3"): 3,
	})
	filter := snap.Check

	got, err := Score(store, handle, filter, 4, 8, 32)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if !floatsClose(got, 75.0) {
		t.Errorf("Score(maxSQN=4) = %v, want 75.0", got)
	}
}

func TestScore_EmptySample(t *testing.T) {
	store := &fakeStore{records: map[FileHandle][]journalkey.JournalKey{"empty": {}}}
	got, err := Score(store, "empty", func(journalkey.LedgerKey, journalkey.SQN) bool { return true }, 100, 200, 32)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if got != 100.0 {
		t.Errorf("Score of empty sample = %v, want 100.0 exactly (worst candidate)", got)
	}
}

func TestScore_TransientReadError(t *testing.T) {
	store, handle := buildSupersededStore(8)
	store.failAfter = 1
	got, err := Score(store, handle, func(journalkey.LedgerKey, journalkey.SQN) bool { return true }, 9, 8, 32)
	if err != nil {
		t.Fatalf("Score should swallow transient read errors, got: %v", err)
	}
	if got != 100.0 {
		t.Errorf("Score on transient error = %v, want 100.0 (treated as worst candidate)", got)
	}
}
