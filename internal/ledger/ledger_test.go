package ledger

import (
	"testing"

	"github.com/getong/leveled/internal/journalkey"
)

func key(userKey string) journalkey.LedgerKey {
	return journalkey.LedgerKey{UserKey: userKey, Tag: "o"}
}

func TestSnapshot_Check(t *testing.T) {
	snap := NewSnapshot(map[journalkey.LedgerKey]journalkey.SQN{
		key("Key1"): 8,
		key("Key2"): 2,
	})

	if !snap.Check(key("Key1"), 8) {
		t.Error("Check(Key1, 8) should be true")
	}
	if snap.Check(key("Key1"), 1) {
		t.Error("Check(Key1, 1) should be false, superseded")
	}
	if snap.Check(key("Key3"), 3) {
		t.Error("Check(Key3, 3) should be false, absent from snapshot")
	}
}

func TestSnapshot_MutationIsolation(t *testing.T) {
	src := map[journalkey.LedgerKey]journalkey.SQN{key("Key1"): 1}
	snap := NewSnapshot(src)
	src[key("Key1")] = 2

	if !snap.Check(key("Key1"), 1) {
		t.Error("snapshot should keep its own copy, unaffected by later mutation of the source map")
	}
}

func TestSnapshot_NilIsSafe(t *testing.T) {
	var snap *Snapshot
	if snap.Check(key("Key1"), 1) {
		t.Error("nil snapshot should report no keys live")
	}
	if snap.Len() != 0 {
		t.Error("nil snapshot Len should be 0")
	}
}
