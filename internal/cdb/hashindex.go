// hashindex.go builds the in-memory hash-table index consulted for
// key-based lookups against a sealed cdb file. The journal format has no
// sort order to binary-search, so an xxh3 bucket per key is the natural
// index structure.
package cdb

import (
	"github.com/getong/leveled/internal/checksum"
	"github.com/getong/leveled/internal/journalkey"
)

// hashIndex maps a bucket hash to every record position landing in that
// bucket. Collisions are resolved by the caller re-checking the full key,
// the same open-addressing-with-chaining tradeoff CDB-style stores make.
type hashIndex struct {
	buckets map[uint64][]int
}

// bucketKey derives the bytes BucketHash is computed over: tag and user
// key, but not SQN, so every version of a key lands in the same bucket and
// a lookup can walk all of them to find the one matching a given SQN.
func bucketKey(lk journalkey.LedgerKey) []byte {
	b := make([]byte, 0, len(lk.Tag)+len(lk.UserKey)+1)
	b = append(b, lk.Tag...)
	b = append(b, 0)
	b = append(b, lk.UserKey...)
	return b
}

func buildHashIndex(keys []journalkey.JournalKey) *hashIndex {
	idx := &hashIndex{buckets: make(map[uint64][]int, len(keys))}
	for pos, k := range keys {
		h := checksum.BucketHash(bucketKey(k.LedgerKey))
		idx.buckets[h] = append(idx.buckets[h], pos)
	}
	return idx
}

// lookup returns every position whose ledger key hashes to lk's bucket.
// Callers must still compare the full key (and, for a specific version,
// SQN) against the candidates since distinct keys may collide.
func (idx *hashIndex) lookup(lk journalkey.LedgerKey) []int {
	if idx == nil {
		return nil
	}
	h := checksum.BucketHash(bucketKey(lk))
	return idx.buckets[h]
}
