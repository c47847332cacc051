// store.go implements the journal file store surface the compaction core
// consumes: Filename, GetPositions, DirectFetch, OpenWriter, MPut,
// Complete, OpenReader, FirstKey, DeletePending. Store satisfies
// compaction.FileStore.
package cdb

import (
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"sync"

	"github.com/getong/leveled/internal/compaction"
	"github.com/getong/leveled/internal/journalcodec"
	"github.com/getong/leveled/internal/journalkey"
	"github.com/getong/leveled/internal/logging"
)

// lockFileName is the directory-lock sentinel guarding a journal store
// against a second clerk opening the same directory concurrently.
const lockFileName = "LOCK"

// Store is the journal file store: it opens and indexes sealed cdb files
// on demand and creates new ones for the rewriter. One Store instance is
// shared by every clerk bound to the same journal directory.
type Store struct {
	opts Options
	log  logging.Logger
	lock io.Closer

	mu      sync.Mutex
	readers map[compaction.FileHandle]*fileHandle
	nextID  int
}

// New creates a Store rooted at opts.Dir without acquiring the directory
// lock. It does not scan the directory; callers open existing files
// explicitly via OpenReader as the manifest names them. Tests use New
// directly since a TempDir is never shared across Store instances; a real
// deployment should use Open instead.
func New(opts Options, log logging.Logger) *Store {
	return &Store{
		opts:    opts,
		log:     logging.OrDefault(log),
		readers: make(map[compaction.FileHandle]*fileHandle),
	}
}

// Open creates a Store rooted at opts.Dir and acquires an exclusive lock on
// the directory's LOCK file, refusing to proceed if another process (or
// another Store in this one) already holds it. Callers must Close the Store
// to release the lock.
func Open(opts Options, log logging.Logger) (*Store, error) {
	lock, err := opts.FS.Lock(filepath.Join(opts.Dir, lockFileName))
	if err != nil {
		return nil, fmt.Errorf("cdb: lock %s: %w", opts.Dir, err)
	}
	s := New(opts, log)
	s.lock = lock
	return s, nil
}

// Close releases the directory lock acquired by Open. It is a no-op for a
// Store created with New.
func (s *Store) Close() error {
	if s.lock == nil {
		return nil
	}
	return s.lock.Close()
}

// Filename returns the stable path backing h.
func (s *Store) Filename(h compaction.FileHandle) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fh, ok := s.readers[h]; ok {
		return fh.path
	}
	return fmt.Sprintf("%v", h)
}

// GetPositions enumerates record positions in h. n <= 0 requests full
// enumeration in ascending (append) order; n > 0 requests a uniform sample
// of that size, which is how the scorer bounds its cost.
func (s *Store) GetPositions(h compaction.FileHandle, n int) ([]compaction.Position, error) {
	s.mu.Lock()
	fh, ok := s.readers[h]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("cdb: unknown file handle %v", h)
	}

	count := len(fh.recs)
	if n <= 0 || n >= count {
		positions := make([]compaction.Position, count)
		for i := range positions {
			positions[i] = i
		}
		return positions, nil
	}
	return uniformSample(count, n), nil
}

// uniformSample returns n indices spread evenly across [0, count), always
// ascending so direct_fetch sees SQN-ordered batches.
func uniformSample(count, n int) []compaction.Position {
	chosen := make(map[int]struct{}, n)
	stride := float64(count) / float64(n)
	for i := 0; i < n; i++ {
		base := int(float64(i) * stride)
		jitter := 0
		if stride > 1 {
			jitter = rand.Intn(int(stride))
		}
		idx := base + jitter
		if idx >= count {
			idx = count - 1
		}
		chosen[idx] = struct{}{}
	}
	positions := make([]compaction.Position, 0, len(chosen))
	for idx := range chosen {
		positions = append(positions, idx)
	}
	sortInts(positions)
	return positions
}

func sortInts(positions []compaction.Position) {
	for i := 1; i < len(positions); i++ {
		for j := i; j > 0 && positions[j].(int) < positions[j-1].(int); j-- {
			positions[j], positions[j-1] = positions[j-1], positions[j]
		}
	}
}

// DirectFetch batches random-access reads for positions from h.
func (s *Store) DirectFetch(h compaction.FileHandle, positions []compaction.Position, mode compaction.FetchMode) ([]compaction.FetchResult, error) {
	s.mu.Lock()
	fh, ok := s.readers[h]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("cdb: unknown file handle %v", h)
	}

	out := make([]compaction.FetchResult, 0, len(positions))
	for _, p := range positions {
		idx, ok := p.(int)
		if !ok || idx < 0 || idx >= len(fh.recs) {
			return nil, fmt.Errorf("cdb: position %v out of range for %s", p, fh.path)
		}

		switch mode {
		case compaction.FetchKeySize:
			out = append(out, compaction.FetchResult{
				Key:  fh.keys[idx],
				Size: lenPrefixSize + fh.recs[idx].totalSize,
			})
		case compaction.FetchKeyValueCheck:
			rec, err := fh.readFull(idx)
			if err != nil {
				return nil, err
			}
			value := rec.value
			if rec.crcOK {
				decompressed, derr := journalcodec.Decompress(rec.compType, value)
				if derr != nil {
					// A value that fails to decompress is as good as a
					// CRC failure from the filter's point of view.
					rec.crcOK = false
				} else {
					value = decompressed
				}
			}
			out = append(out, compaction.FetchResult{
				Key:   rec.key,
				Size:  lenPrefixSize + rec.totalSize,
				Value: value,
				CRCOK: rec.crcOK,
			})
		default:
			return nil, fmt.Errorf("cdb: unsupported fetch mode %v", mode)
		}
	}
	return out, nil
}

// OpenWriter creates a new destination file at path.
func (s *Store) OpenWriter(path string) (compaction.WriterHandle, error) {
	return s.openWriter(path)
}

// MPut appends kvs to w, reporting roll if w would exceed MaxFileSize.
func (s *Store) MPut(w compaction.WriterHandle, kvs []compaction.KV) (bool, error) {
	wh, ok := w.(*writerHandle)
	if !ok {
		return false, fmt.Errorf("cdb: not a writer handle: %T", w)
	}
	return s.mput(wh, kvs)
}

// Complete flushes and seals w, returning the sealed file's path.
func (s *Store) Complete(w compaction.WriterHandle) (string, error) {
	wh, ok := w.(*writerHandle)
	if !ok {
		return "", fmt.Errorf("cdb: not a writer handle: %T", w)
	}
	return s.complete(wh)
}

// OpenReader opens a sealed file for reading, indexing its records
// (position -> key/size) in one sequential pass, paying the scan cost once
// at open so every later fetch is a single positioned read.
func (s *Store) OpenReader(path string) (compaction.FileHandle, error) {
	fh, err := openAndIndex(s.opts.FS, path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.nextID++
	handle := s.nextID
	s.readers[handle] = fh
	s.mu.Unlock()
	return handle, nil
}

// FirstKey returns the journal key of the first record in h.
func (s *Store) FirstKey(h compaction.FileHandle) (journalkey.JournalKey, error) {
	s.mu.Lock()
	fh, ok := s.readers[h]
	s.mu.Unlock()
	if !ok {
		return journalkey.JournalKey{}, fmt.Errorf("cdb: unknown file handle %v", h)
	}
	if len(fh.keys) == 0 {
		return journalkey.JournalKey{}, fmt.Errorf("cdb: %s has no records", fh.path)
	}
	return fh.keys[0], nil
}

// DeletePending schedules h for deletion once no reader references it as of
// manifestSQN. The store has no readers of its own beyond the index it
// built at open, so it closes and removes the file immediately; a real
// deployment with concurrent external readers would instead register h
// with a reference-counted reaper keyed by manifestSQN.
func (s *Store) DeletePending(h compaction.FileHandle, manifestSQN uint64, ctl compaction.Controller) error {
	s.mu.Lock()
	fh, ok := s.readers[h]
	if ok {
		delete(s.readers, h)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("cdb: unknown file handle %v", h)
	}

	path := fh.path
	if err := fh.close(); err != nil {
		return fmt.Errorf("cdb: close %s before delete: %w", path, err)
	}
	if err := s.opts.FS.Remove(path); err != nil {
		return fmt.Errorf("cdb: remove %s: %w", path, err)
	}
	s.log.Infof(logging.NSCDB+"deleted %s at manifest_sqn=%d", path, manifestSQN)
	return nil
}

// Lookup finds the record position in h holding exactly (ledgerKey, sqn),
// using the file's xxh3 bucket index to avoid a linear scan. It is not on
// the path any compaction operation exercises (the scorer and rewriter
// only ever need positional access) but is the point-lookup capability the
// journal file store format exists to provide to the rest of the system.
func (s *Store) Lookup(h compaction.FileHandle, ledgerKey journalkey.LedgerKey, sqn journalkey.SQN) (int, bool) {
	s.mu.Lock()
	fh, ok := s.readers[h]
	s.mu.Unlock()
	if !ok {
		return 0, false
	}
	for _, pos := range fh.index.lookup(ledgerKey) {
		k := fh.keys[pos]
		if k.LedgerKey == ledgerKey && k.SQN == sqn {
			return pos, true
		}
	}
	return 0, false
}
