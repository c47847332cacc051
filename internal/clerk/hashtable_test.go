package clerk

import (
	"testing"

	"github.com/getong/leveled/internal/journalkey"
)

func TestRunHashtableCalc_CoversEveryPosition(t *testing.T) {
	tree := []journalkey.JournalKey{
		{SQN: 1, LedgerKey: lk("a")},
		{SQN: 2, LedgerKey: lk("b")},
		{SQN: 3, LedgerKey: lk("a")},
	}

	result := make(chan HashtableIndex, 1)
	RunHashtableCalc(tree, 0, func(idx HashtableIndex) { result <- idx })
	idx := <-result

	total := 0
	for _, positions := range idx.Buckets {
		total += len(positions)
	}
	if total != len(tree) {
		t.Fatalf("indexed %d positions, want %d", total, len(tree))
	}
}

func TestRunHashtableCalc_SameKeySameBucket(t *testing.T) {
	tree := []journalkey.JournalKey{
		{SQN: 1, LedgerKey: lk("a")},
		{SQN: 2, LedgerKey: lk("b")},
		{SQN: 3, LedgerKey: lk("a")},
	}
	result := make(chan HashtableIndex, 1)
	RunHashtableCalc(tree, 0, func(idx HashtableIndex) { result <- idx })
	idx := <-result

	var bucketOf0, bucketOf2 uint64
	for h, positions := range idx.Buckets {
		for _, p := range positions {
			if p == 0 {
				bucketOf0 = h
			}
			if p == 2 {
				bucketOf2 = h
			}
		}
	}
	if bucketOf0 != bucketOf2 {
		t.Fatal("positions 0 and 2 share ledger key \"a\" but landed in different buckets")
	}
}

func TestRunHashtableCalc_StartPos(t *testing.T) {
	tree := []journalkey.JournalKey{
		{SQN: 1, LedgerKey: lk("a")},
		{SQN: 2, LedgerKey: lk("b")},
	}
	result := make(chan HashtableIndex, 1)
	RunHashtableCalc(tree, 1, func(idx HashtableIndex) { result <- idx })
	idx := <-result

	total := 0
	for _, positions := range idx.Buckets {
		total += len(positions)
	}
	if total != 1 {
		t.Fatalf("startPos=1 should index only 1 entry, got %d", total)
	}
}
