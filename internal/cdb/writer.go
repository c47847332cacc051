package cdb

import (
	"fmt"

	"github.com/getong/leveled/internal/compaction"
	"github.com/getong/leveled/internal/vfs"
)

// writerHandle is an open destination file being appended to. mput is
// all-or-nothing: a batch that would push the file past MaxFileSize is
// rejected wholesale (roll=true, nothing written) rather than partially
// flushed, so the caller can retry the identical batch against a fresh
// file.
type writerHandle struct {
	path   string
	f      vfs.WritableFile
	offset int64
}

func (s *Store) openWriter(path string) (*writerHandle, error) {
	f, err := s.opts.FS.Create(path)
	if err != nil {
		return nil, fmt.Errorf("cdb: create %s: %w", path, err)
	}
	return &writerHandle{path: path, f: f}, nil
}

func (s *Store) mput(w *writerHandle, kvs []compaction.KV) (bool, error) {
	var encoded [][]byte
	var batchSize int64
	for _, kv := range kvs {
		rec, err := encodeRecord(kv.Key, kv.Value, s.opts.Compression)
		if err != nil {
			return false, fmt.Errorf("cdb: encode record: %w", err)
		}
		encoded = append(encoded, rec)
		batchSize += int64(len(rec))
	}

	if s.opts.MaxFileSize > 0 && w.offset > 0 && w.offset+batchSize > s.opts.MaxFileSize {
		return true, nil
	}

	for _, rec := range encoded {
		if _, err := w.f.Write(rec); err != nil {
			return false, fmt.Errorf("cdb: write to %s: %w", w.path, err)
		}
		w.offset += int64(len(rec))
	}
	return false, nil
}

func (s *Store) complete(w *writerHandle) (string, error) {
	if err := w.f.Sync(); err != nil {
		return "", fmt.Errorf("cdb: sync %s: %w", w.path, err)
	}
	if err := w.f.Close(); err != nil {
		return "", fmt.Errorf("cdb: close %s: %w", w.path, err)
	}
	if err := s.opts.FS.SyncDir(s.opts.Dir); err != nil {
		return "", fmt.Errorf("cdb: sync dir %s: %w", s.opts.Dir, err)
	}
	return w.path, nil
}
