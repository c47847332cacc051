package compaction

import (
	"errors"
	"fmt"

	"github.com/getong/leveled/internal/journalkey"
)

// fakeStore is a minimal in-memory FileStore sufficient to exercise the
// scorer, filter, and rewriter without a real cdb file on disk.
type fakeStore struct {
	records map[FileHandle][]journalkey.JournalKey
	values  map[FileHandle][][]byte // parallel to records; nil entries read as empty
	crcBad  map[FileHandle]map[int]bool
	size    int // fixed on-disk record size used when values is unset

	failAfter int // if > 0, DirectFetch fails once total calls reach this
	calls     int

	writers     map[int]*fakeWriter
	nextWriter  int
	maxPerFile  int // 0 means unlimited; MPut signals roll once exceeded
	sealedFiles map[string]*fakeWriter
	nextReader  int
}

type fakeWriter struct {
	id   int
	path string
	kvs  []KV
}

type fakePosition struct {
	handle FileHandle
	index  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:     map[FileHandle][]journalkey.JournalKey{},
		values:      map[FileHandle][][]byte{},
		writers:     map[int]*fakeWriter{},
		sealedFiles: map[string]*fakeWriter{},
	}
}

func (s *fakeStore) Filename(h FileHandle) string {
	if name, ok := h.(string); ok {
		return name
	}
	return fmt.Sprintf("%v", h)
}

func (s *fakeStore) GetPositions(h FileHandle, n int) ([]Position, error) {
	recs := s.records[h]
	count := len(recs)
	if n > 0 && n < count {
		count = n
	}
	positions := make([]Position, count)
	for i := 0; i < count; i++ {
		positions[i] = fakePosition{handle: h, index: i}
	}
	return positions, nil
}

func (s *fakeStore) DirectFetch(h FileHandle, positions []Position, mode FetchMode) ([]FetchResult, error) {
	s.calls++
	if s.failAfter > 0 && s.calls >= s.failAfter {
		return nil, errors.New("transient read error")
	}
	out := make([]FetchResult, len(positions))
	for i, p := range positions {
		fp := p.(fakePosition)
		key := s.records[fp.handle][fp.index]
		size := s.size
		var value []byte
		if vs := s.values[fp.handle]; vs != nil {
			value = vs[fp.index]
			size = len(value) + CRCSize
		}
		crcOK := true
		if bad := s.crcBad[fp.handle]; bad != nil {
			crcOK = !bad[fp.index]
		}
		out[i] = FetchResult{Key: key, Size: size, Value: value, CRCOK: crcOK}
	}
	return out, nil
}

func (s *fakeStore) OpenWriter(path string) (WriterHandle, error) {
	s.nextWriter++
	w := &fakeWriter{id: s.nextWriter, path: path}
	s.writers[w.id] = w
	return w, nil
}

func (s *fakeStore) MPut(wh WriterHandle, kvs []KV) (bool, error) {
	w := wh.(*fakeWriter)
	if s.maxPerFile > 0 && len(w.kvs) > 0 && len(w.kvs)+len(kvs) > s.maxPerFile {
		return true, nil
	}
	w.kvs = append(w.kvs, kvs...)
	return false, nil
}

func (s *fakeStore) Complete(wh WriterHandle) (string, error) {
	w := wh.(*fakeWriter)
	s.sealedFiles[w.path] = w
	return w.path, nil
}

func (s *fakeStore) OpenReader(path string) (FileHandle, error) {
	w, ok := s.sealedFiles[path]
	if !ok {
		return nil, fmt.Errorf("fakeStore: no sealed file at %s", path)
	}
	s.nextReader++
	handle := fmt.Sprintf("reader-%d:%s", s.nextReader, path)
	keys := make([]journalkey.JournalKey, len(w.kvs))
	values := make([][]byte, len(w.kvs))
	for i, kv := range w.kvs {
		keys[i] = kv.Key
		values[i] = kv.Value
	}
	s.records[handle] = keys
	s.values[handle] = values
	return handle, nil
}

func (s *fakeStore) FirstKey(h FileHandle) (journalkey.JournalKey, error) {
	recs := s.records[h]
	if len(recs) == 0 {
		return journalkey.JournalKey{}, fmt.Errorf("fakeStore: empty file")
	}
	return recs[0], nil
}

func (s *fakeStore) DeletePending(h FileHandle, manifestSQN uint64, ctl Controller) error {
	return nil
}

// valueAtSQN reads back the stored value and kind for sqn from a sealed
// reader handle, for test assertions.
func (s *fakeStore) valueAtSQN(h FileHandle, sqn journalkey.SQN) ([]byte, journalkey.Kind, bool) {
	for i, k := range s.records[h] {
		if k.SQN == sqn {
			return s.values[h][i], k.Kind, true
		}
	}
	return nil, 0, false
}
