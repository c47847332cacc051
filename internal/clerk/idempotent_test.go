package clerk

import (
	"testing"

	"github.com/getong/leveled/internal/compaction"
	"github.com/getong/leveled/internal/journalkey"
)

// VerifyIdempotent asserts that running compaction a second time over a
// just-produced manifest with the same ledger snapshot finds nothing worth
// doing (a run of non-positive score): it re-scores
// candidates and re-plans, failing t if the result would still compact.
//
// This is a reusable assertion, not a bespoke test per call site — any test
// that runs a job to completion can call it against the resulting manifest
// instead of hand-rolling the same scan-and-assert.
func VerifyIdempotent(t *testing.T, store compaction.FileStore, manifest []compaction.ManifestEntry, filter compaction.FilterFunc, maxSQN journalkey.SQN, maxRunLength int) {
	t.Helper()
	if len(manifest) <= 1 {
		return
	}
	eligible := manifest[1:]

	candidates := make(compaction.Run, 0, len(eligible))
	for _, entry := range eligible {
		perc, err := compaction.Score(store, entry.Handle, filter, maxSQN, compaction.SampleSize, compaction.BatchSize)
		if err != nil {
			t.Fatalf("Score(%s): %v", entry.Filename, err)
		}
		candidates = append(candidates, compaction.Candidate{
			LowSQN: entry.LowSQN, Filename: entry.Filename, Journal: entry.Handle, CompactionPerc: perc,
		})
	}

	run := compaction.Plan(candidates, maxRunLength)
	if score := compaction.ScoreRun(run, maxRunLength); score > 0 {
		t.Fatalf("second pass over a just-compacted manifest still scores %.2f > 0 (run=%v); compaction is not idempotent", score, run)
	}
}
