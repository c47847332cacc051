package compaction

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/getong/leveled/internal/journalkey"
	"github.com/getong/leveled/internal/testutil"
)

// DestinationNamer names a new destination file given the SQN of its first
// surviving record, encoding that SQN plus a compaction marker.
type DestinationNamer func(firstSQN journalkey.SQN) string

// DefaultDestinationNamer names destination files "<sqn>_compact.cdb"
// inside dir.
func DefaultDestinationNamer(dir string) DestinationNamer {
	return func(firstSQN journalkey.SQN) string {
		return filepath.Join(dir, fmt.Sprintf("%020d_compact.%s", uint64(firstSQN), FileExtension))
	}
}

// Rewrite streams records out of every source file in run through Classify,
// applying strategy, and writes survivors into one or more newly created
// destination files via store, rolling over when a destination signals it
// has reached its size limit. run must already be sorted ascending by
// LowSQN; the clerk's job sorts it before calling, and this function does
// not re-check the order.
//
// Context cancellation is honored only between source batches; a batch
// already in flight always completes.
func Rewrite(ctx context.Context, store FileStore, run Run, namer DestinationNamer, filter FilterFunc, maxSQN journalkey.SQN, strategy journalkey.StrategyMap) ([]ManifestEntry, bool, JobStats, error) {
	var (
		slice        []ManifestEntry
		stats        JobStats
		promptDelete = true
		activeWriter WriterHandle
		haveActive   bool
	)

	sealActive := func() error {
		if !haveActive {
			return nil
		}
		if err := testutil.SP(testutil.SPRewriteSeal); err != nil {
			return fmt.Errorf("compaction: seal destination: %w", err)
		}
		path, err := store.Complete(activeWriter)
		if err != nil {
			return fmt.Errorf("compaction: seal destination: %w", err)
		}
		reader, err := store.OpenReader(path)
		if err != nil {
			return fmt.Errorf("compaction: reopen sealed destination: %w", err)
		}
		firstKey, err := store.FirstKey(reader)
		if err != nil {
			return fmt.Errorf("compaction: read first key of sealed destination: %w", err)
		}
		slice = append(slice, ManifestEntry{LowSQN: firstKey.SQN, Filename: path, Handle: reader})
		haveActive = false
		activeWriter = nil
		return nil
	}

	for _, candidate := range run {
		if err := ctx.Err(); err != nil {
			return nil, false, stats, fmt.Errorf("compaction: rewrite cancelled: %w", err)
		}

		positions, err := store.GetPositions(candidate.Journal, 0)
		if err != nil {
			return nil, false, stats, fmt.Errorf("compaction: enumerate positions of %s: %w", candidate.Filename, err)
		}

		for start := 0; start < len(positions); start += BatchSize {
			if err := ctx.Err(); err != nil {
				return nil, false, stats, fmt.Errorf("compaction: rewrite cancelled: %w", err)
			}

			end := min(start+BatchSize, len(positions))
			batch := positions[start:end]

			if err := testutil.SP(testutil.SPRewriteBatchFetch); err != nil {
				return nil, false, stats, fmt.Errorf("compaction: batch fetch sync point: %w", err)
			}
			fetched, err := store.DirectFetch(candidate.Journal, batch, FetchKeyValueCheck)
			if err != nil {
				return nil, false, stats, fmt.Errorf("compaction: fetch batch from %s: %w", candidate.Filename, err)
			}

			var survivors []KV
			for _, rec := range fetched {
				stats.BytesIn += int64(rec.Size)
				decision := Classify(rec.Key, rec.CRCOK, filter, maxSQN, strategy)
				switch decision {
				case Corrupt:
					stats.RecordsCorrupt++
					promptDelete = false
				case Drop:
					stats.RecordsDropped++
				case KeepOriginal:
					survivors = append(survivors, KV{Key: rec.Key, Value: rec.Value})
					stats.RecordsKept++
				case KeepCompacted:
					decoded, derr := journalkey.DecodeValue(rec.Key.Kind, rec.Value)
					if derr != nil {
						// Can't recover deltas from a value we can't
						// parse; treat like corruption rather than
						// losing the record silently.
						stats.RecordsCorrupt++
						promptDelete = false
						continue
					}
					newKey := rec.Key
					newKey.Kind = journalkey.KeyDeltas
					survivors = append(survivors, KV{Key: newKey, Value: journalkey.EncodeValue(journalkey.KeyDeltas, journalkey.Value{KeyDeltas: decoded.KeyDeltas})})
					stats.RecordsCompacted++
				}
			}

			if len(survivors) == 0 {
				continue
			}

			if !haveActive {
				w, err := store.OpenWriter(namer(survivors[0].Key.SQN))
				if err != nil {
					return nil, false, stats, fmt.Errorf("compaction: open destination: %w", err)
				}
				activeWriter = w
				haveActive = true
			}

			for {
				rolled, err := store.MPut(activeWriter, survivors)
				if err != nil {
					return nil, false, stats, fmt.Errorf("compaction: write destination: %w", err)
				}
				if !rolled {
					for _, kv := range survivors {
						stats.BytesOut += int64(len(kv.Value))
					}
					break
				}
				// Roll: nothing from this call was written. Seal the
				// current destination, append its manifest entry, and
				// retry the same survivors against a fresh destination.
				if err := testutil.SP(testutil.SPRewriteRoll); err != nil {
					return nil, false, stats, fmt.Errorf("compaction: roll sync point: %w", err)
				}
				if err := sealActive(); err != nil {
					return nil, false, stats, err
				}
				w, err := store.OpenWriter(namer(survivors[0].Key.SQN))
				if err != nil {
					return nil, false, stats, fmt.Errorf("compaction: open destination after roll: %w", err)
				}
				activeWriter = w
				haveActive = true
			}
		}
	}

	if err := sealActive(); err != nil {
		return nil, false, stats, err
	}

	stats.RunLength = len(run)
	return slice, promptDelete, stats, nil
}
