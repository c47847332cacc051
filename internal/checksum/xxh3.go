// xxh3.go wraps xxh3 for hash-table bucket placement: the journal file
// store's hash index (see internal/cdb) places ledger keys into buckets by
// a fast non-cryptographic 64-bit hash.
package checksum

import "github.com/zeebo/xxh3"

// BucketHash returns a 64-bit hash of key suitable for hash-table bucket
// placement. It is not used for on-disk integrity checks; CRC32C (Value,
// MaskedValue) remains the sole integrity checksum for journal values.
func BucketHash(key []byte) uint64 {
	return xxh3.Hash(key)
}
