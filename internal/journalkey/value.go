package journalkey

import (
	"encoding/binary"
	"fmt"
)

// Value is the decoded payload of a journal record, shaped by its Kind:
// Standard carries both Object and KeyDeltas, Tombstone carries neither,
// KeyDeltas carries only KeyDeltas.
type Value struct {
	Object    []byte
	KeyDeltas []byte
}

// EncodeValue serializes v for kind into the on-disk wire format: a varint
// length prefix ahead of each present field. This framing lives entirely
// inside the value bytes the file store hands back; the trailing CRC is
// computed and checked outside it.
func EncodeValue(kind Kind, v Value) []byte {
	switch kind {
	case Tombstone:
		return nil
	case KeyDeltas:
		return appendLenPrefixed(nil, v.KeyDeltas)
	default: // Standard
		buf := appendLenPrefixed(nil, v.Object)
		return appendLenPrefixed(buf, v.KeyDeltas)
	}
}

// DecodeValue parses data according to kind.
func DecodeValue(kind Kind, data []byte) (Value, error) {
	switch kind {
	case Tombstone:
		return Value{}, nil
	case KeyDeltas:
		deltas, _, err := readLenPrefixed(data)
		if err != nil {
			return Value{}, err
		}
		return Value{KeyDeltas: deltas}, nil
	default: // Standard
		object, rest, err := readLenPrefixed(data)
		if err != nil {
			return Value{}, err
		}
		deltas, _, err := readLenPrefixed(rest)
		if err != nil {
			return Value{}, err
		}
		return Value{Object: object, KeyDeltas: deltas}, nil
	}
}

func appendLenPrefixed(buf, data []byte) []byte {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(data)))
	buf = append(buf, lenBuf[:n]...)
	return append(buf, data...)
}

func readLenPrefixed(data []byte) (field, rest []byte, err error) {
	length, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, nil, fmt.Errorf("journalkey: malformed length prefix")
	}
	data = data[n:]
	if uint64(len(data)) < length {
		return nil, nil, fmt.Errorf("journalkey: truncated value field")
	}
	return data[:length], data[length:], nil
}
