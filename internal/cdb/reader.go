package cdb

import (
	"fmt"

	"github.com/getong/leveled/internal/journalkey"
	"github.com/getong/leveled/internal/vfs"
)

// recordSlot is one indexed record: its offset from the start of the file
// and its on-disk body + crc size (the length prefix is not included).
type recordSlot struct {
	offset    int64
	totalSize int
}

// fileHandle is a fully-indexed, open cdb file. Building the index (a full
// sequential scan on open) trades open-time cost for O(1) random access
// later.
type fileHandle struct {
	path  string
	f     vfs.RandomAccessFile
	recs  []recordSlot
	keys  []journalkey.JournalKey // parallel to recs, decoded once at open
	index *hashIndex
}

func openAndIndex(fs vfs.FS, path string) (*fileHandle, error) {
	f, err := fs.OpenRandomAccess(path)
	if err != nil {
		return nil, fmt.Errorf("cdb: open %s: %w", path, err)
	}
	size := f.Size()

	h := &fileHandle{path: path, f: f}
	var off int64
	for off < size {
		prefix := make([]byte, lenPrefixSize)
		if _, err := f.ReadAt(prefix, off); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cdb: read length prefix at %d in %s: %w", off, path, err)
		}
		totalSize := int(beUint32(prefix))
		rec := make([]byte, lenPrefixSize+totalSize)
		if _, err := f.ReadAt(rec, off); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cdb: read record at %d in %s: %w", off, path, err)
		}
		parsedKey, parsedSize, err := decodeHeader(rec)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cdb: decode header at %d in %s: %w", off, path, err)
		}
		h.recs = append(h.recs, recordSlot{offset: off, totalSize: parsedSize})
		h.keys = append(h.keys, parsedKey)
		off += int64(lenPrefixSize + parsedSize)
	}
	h.index = buildHashIndex(h.keys)
	return h, nil
}

func (h *fileHandle) close() error {
	return h.f.Close()
}

// readFull reads and decodes the complete record at slot index i.
func (h *fileHandle) readFull(i int) (decodedRecord, error) {
	slot := h.recs[i]
	buf := make([]byte, lenPrefixSize+slot.totalSize)
	if _, err := h.f.ReadAt(buf, slot.offset); err != nil {
		return decodedRecord{}, fmt.Errorf("cdb: read record at %d in %s: %w", slot.offset, h.path, err)
	}
	return decodeFull(buf)
}
