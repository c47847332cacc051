// hashtable.go implements the hashtable compute helper: an unrelated
// single-task job this process also hosts, sharing no state with
// compaction. It walks a hash tree from a start position, computes an xxh3
// bucket hash per key, and hands the built index back to the caller.
//
// Unlike a compaction Clerk, a hashtable computation is not an actor with a
// mailbox: it is one goroutine that runs once and terminates. It is never
// registered on any Clerk's mailbox loop.
package clerk

import (
	"github.com/getong/leveled/internal/checksum"
	"github.com/getong/leveled/internal/journalkey"
)

// HashtableIndex is the built index table: bucket hash -> every position in
// hashTree landing in that bucket, in the order encountered.
type HashtableIndex struct {
	Buckets map[uint64][]int
}

// hashtableKeyBytes derives the bytes BucketHash is computed over for one
// ledger key: tag and user key, not SQN, so every version of a key lands in
// the same bucket.
func hashtableKeyBytes(lk journalkey.LedgerKey) []byte {
	b := make([]byte, 0, len(lk.Tag)+len(lk.UserKey)+1)
	b = append(b, lk.Tag...)
	b = append(b, 0)
	b = append(b, lk.UserKey...)
	return b
}

// RunHashtableCalc computes a bucket index over hashTree[startPos:] and
// calls deliver with the result from its own goroutine, then terminates
// without further interaction.
func RunHashtableCalc(hashTree []journalkey.JournalKey, startPos int, deliver func(HashtableIndex)) {
	go func() {
		idx := HashtableIndex{Buckets: make(map[uint64][]int)}
		for i := startPos; i < len(hashTree); i++ {
			h := checksum.BucketHash(hashtableKeyBytes(hashTree[i].LedgerKey))
			idx.Buckets[h] = append(idx.Buckets[h], i)
		}
		deliver(idx)
	}()
}
