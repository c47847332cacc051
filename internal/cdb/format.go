package cdb

import (
	"encoding/binary"
	"fmt"

	"github.com/getong/leveled/internal/checksum"
	"github.com/getong/leveled/internal/journalcodec"
	"github.com/getong/leveled/internal/journalkey"
)

// On-disk record layout (big-endian, all lengths byte counts):
//
//	[4]  total length of (body || crc)
//	body:
//	  [8]  sqn
//	  [1]  kind
//	  [2]  tag length,  tag bytes
//	  [4]  user key length, user key bytes
//	  [1]  compression type
//	  [4]  value length, (possibly compressed) value bytes
//	[4]  masked CRC32C of body
//
// The length prefix lets a reader seek to the next record without decoding
// the current one; the body/crc split lets direct_fetch(..., key_size) read
// only the header and skip value decompression entirely.

const (
	lenPrefixSize = 4
	crcTrailerLen = 4
)

func beUint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

func encodeRecord(key journalkey.JournalKey, rawValue []byte, compType journalcodec.Type) ([]byte, error) {
	tag := []byte(key.LedgerKey.Tag)
	userKey := []byte(key.LedgerKey.UserKey)
	if len(tag) > 0xFFFF {
		return nil, fmt.Errorf("cdb: tag too long (%d bytes)", len(tag))
	}

	value := rawValue
	if compType != journalcodec.NoCompression {
		compressed, err := journalcodec.Compress(compType, rawValue)
		if err != nil {
			return nil, fmt.Errorf("cdb: compress value: %w", err)
		}
		// An incompressible value (empty result, or no size win) is
		// stored raw so the fetch path never has to guess.
		if len(compressed) == 0 || len(compressed) >= len(rawValue) {
			compType = journalcodec.NoCompression
		} else {
			value = compressed
		}
	}

	bodyLen := 8 + 1 + 2 + len(tag) + 4 + len(userKey) + 1 + 4 + len(value)
	body := make([]byte, bodyLen)
	off := 0
	binary.BigEndian.PutUint64(body[off:], uint64(key.SQN))
	off += 8
	body[off] = byte(key.Kind)
	off++
	binary.BigEndian.PutUint16(body[off:], uint16(len(tag)))
	off += 2
	off += copy(body[off:], tag)
	binary.BigEndian.PutUint32(body[off:], uint32(len(userKey)))
	off += 4
	off += copy(body[off:], userKey)
	body[off] = byte(compType)
	off++
	binary.BigEndian.PutUint32(body[off:], uint32(len(value)))
	off += 4
	copy(body[off:], value)

	crc := checksum.MaskedValue(body)

	out := make([]byte, lenPrefixSize+bodyLen+crcTrailerLen)
	binary.BigEndian.PutUint32(out, uint32(bodyLen+crcTrailerLen))
	copy(out[lenPrefixSize:], body)
	binary.BigEndian.PutUint32(out[lenPrefixSize+bodyLen:], crc)
	return out, nil
}

// decodedRecord is the parsed form of one on-disk record.
type decodedRecord struct {
	key       journalkey.JournalKey
	compType  journalcodec.Type
	value     []byte // still compressed
	totalSize int    // body + crc; compaction.FetchResult.Size adds lenPrefixSize to it
	crcOK     bool
}

// decodeHeader parses just the key (and the record's total size) out of
// raw, which must start at the record's length prefix and contain at least
// through the end of the user key. It does not validate the CRC (the
// trailer may not even be present in raw yet) — callers wanting crc_ok must
// use decodeFull.
func decodeHeader(raw []byte) (journalkey.JournalKey, int, error) {
	if len(raw) < lenPrefixSize+8+1+2 {
		return journalkey.JournalKey{}, 0, fmt.Errorf("cdb: truncated record header")
	}
	totalSize := int(binary.BigEndian.Uint32(raw))
	off := lenPrefixSize
	sqn := binary.BigEndian.Uint64(raw[off:])
	off += 8
	kind := journalkey.Kind(raw[off])
	off++
	tagLen := int(binary.BigEndian.Uint16(raw[off:]))
	off += 2
	if len(raw) < off+tagLen+4 {
		return journalkey.JournalKey{}, 0, fmt.Errorf("cdb: truncated record tag/userkey")
	}
	tag := string(raw[off : off+tagLen])
	off += tagLen
	userKeyLen := int(binary.BigEndian.Uint32(raw[off:]))
	off += 4
	if len(raw) < off+userKeyLen {
		return journalkey.JournalKey{}, 0, fmt.Errorf("cdb: truncated record userkey")
	}
	userKey := string(raw[off : off+userKeyLen])

	key := journalkey.JournalKey{
		SQN:  journalkey.SQN(sqn),
		Kind: kind,
		LedgerKey: journalkey.LedgerKey{
			UserKey: userKey,
			Tag:     journalkey.Tag(tag),
		},
	}
	return key, totalSize, nil
}

// decodeFull parses an entire record (raw must contain exactly
// lenPrefixSize + totalSize bytes, as returned by decodeHeader) and
// validates its CRC.
func decodeFull(raw []byte) (decodedRecord, error) {
	key, totalSize, err := decodeHeader(raw)
	if err != nil {
		return decodedRecord{}, err
	}
	if len(raw) < lenPrefixSize+totalSize {
		return decodedRecord{}, fmt.Errorf("cdb: truncated record body")
	}
	body := raw[lenPrefixSize : lenPrefixSize+totalSize-crcTrailerLen]
	trailer := raw[lenPrefixSize+totalSize-crcTrailerLen : lenPrefixSize+totalSize]
	wantCRC := binary.BigEndian.Uint32(trailer)
	gotCRC := checksum.MaskedValue(body)

	// Re-derive the value/compType offsets (decodeHeader doesn't return
	// them since FetchKeySize callers don't need them).
	off := 8 + 1
	tagLen := int(binary.BigEndian.Uint16(body[off:]))
	off += 2 + tagLen
	userKeyLen := int(binary.BigEndian.Uint32(body[off:]))
	off += 4 + userKeyLen
	compType := journalcodec.Type(body[off])
	off++
	valueLen := int(binary.BigEndian.Uint32(body[off:]))
	off += 4
	value := body[off : off+valueLen]

	return decodedRecord{
		key:       key,
		compType:  compType,
		value:     value,
		totalSize: totalSize,
		crcOK:     wantCRC == gotCRC,
	}, nil
}
