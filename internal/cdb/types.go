// Package cdb implements the journal file store: the append-only,
// hash-indexed "cdb" files the compaction clerk reads from and writes to.
// It satisfies compaction.FileStore.
package cdb

import (
	"github.com/getong/leveled/internal/journalcodec"
	"github.com/getong/leveled/internal/vfs"
)

// Options configures a Store.
type Options struct {
	// Dir is the directory new destination files are created in.
	Dir string

	// MaxFileSize is the on-disk byte budget per file before mput signals
	// roll. Zero means unlimited (a single file never rolls).
	MaxFileSize int64

	// Compression is applied to each record's value before the CRC32C
	// trailer is appended. Defaults to NoCompression.
	Compression journalcodec.Type

	// FS backs all file operations; defaults to the real OS filesystem,
	// which is the only vfs.FS implementation in this module.
	FS vfs.FS
}

// DefaultOptions returns sensible defaults for a journal store rooted at dir.
func DefaultOptions(dir string) Options {
	return Options{
		Dir:         dir,
		MaxFileSize: 64 << 20,
		Compression: journalcodec.NoCompression,
		FS:          vfs.Default(),
	}
}
