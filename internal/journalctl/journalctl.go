// Package journalctl implements a minimal in-memory journal controller:
// the owner of the manifest of record, serializing GetManifest and
// UpdateManifest calls under a single mutex. It satisfies
// compaction.Controller.
package journalctl

import (
	"fmt"
	"sync"

	"github.com/getong/leveled/internal/compaction"
	"github.com/getong/leveled/internal/logging"
)

// Controller owns the manifest: the ordered list of live journal files and
// the SQN identifying the manifest's current generation. Every mutation
// goes through UpdateManifest under mu, one swap at a time.
type Controller struct {
	mu  sync.Mutex
	log logging.Logger

	manifest    []compaction.ManifestEntry
	manifestSQN uint64

	lastStats  compaction.JobStats
	haveStats  bool
	onComplete func(compaction.JobStats)
}

// New creates a Controller whose initial manifest is entries: entries[0]
// is the active write-tip file, the rest are in ascending SQN order.
func New(entries []compaction.ManifestEntry, log logging.Logger) *Controller {
	return &Controller{
		manifest: append([]compaction.ManifestEntry(nil), entries...),
		log:      logging.OrDefault(log),
	}
}

// OnCompactionComplete registers a callback invoked by CompactionComplete.
// Not part of compaction.Controller; a convenience for tests and callers
// that want to observe job completion without polling.
func (c *Controller) OnCompactionComplete(fn func(compaction.JobStats)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onComplete = fn
}

// GetManifest returns the current manifest: the write-tip entry first,
// then the rest in ascending SQN order. The caller (the clerk) is
// responsible for excluding the first (active write-tip) entry from
// compaction — this method returns the full
// manifest, unfiltered.
func (c *Controller) GetManifest() ([]compaction.ManifestEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]compaction.ManifestEntry, len(c.manifest))
	copy(out, c.manifest)
	return out, nil
}

// UpdateManifest atomically replaces every consumed entry with slice: the
// manifest is rebuilt by dropping consumed filenames and splicing slice in
// at the position of the first consumed entry, preserving ascending SQN
// order (the rewriter emits slice entries in ascending start-SQN order
// already). The manifest SQN is incremented and returned — the clerk's
// observers either see the full compaction or none of it, since this swap
// happens in one critical section.
func (c *Controller) UpdateManifest(slice []compaction.ManifestEntry, consumed []compaction.ConsumedFile) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	consumedNames := make(map[string]bool, len(consumed))
	for _, f := range consumed {
		consumedNames[f.Filename] = true
	}

	var rebuilt []compaction.ManifestEntry
	spliced := false
	for _, entry := range c.manifest {
		if consumedNames[entry.Filename] {
			if !spliced {
				rebuilt = append(rebuilt, slice...)
				spliced = true
			}
			continue
		}
		rebuilt = append(rebuilt, entry)
	}
	if !spliced {
		rebuilt = append(rebuilt, slice...)
	}

	c.manifest = rebuilt
	c.manifestSQN++
	c.log.Infof(logging.NSClerk+"update_manifest: consumed=%d new_entries=%d manifest_sqn=%d",
		len(consumed), len(slice), c.manifestSQN)
	return c.manifestSQN, nil
}

// CompactionComplete records stats for diagnostics and invokes any
// registered OnCompactionComplete callback.
func (c *Controller) CompactionComplete(stats compaction.JobStats) {
	c.mu.Lock()
	c.lastStats = stats
	c.haveStats = true
	fn := c.onComplete
	c.mu.Unlock()

	c.log.Infof(logging.NSClerk+"compaction_complete: run_length=%d kept=%d compacted=%d dropped=%d corrupt=%d",
		stats.RunLength, stats.RecordsKept, stats.RecordsCompacted, stats.RecordsDropped, stats.RecordsCorrupt)
	if fn != nil {
		fn(stats)
	}
}

// LastStats returns the most recent stats passed to CompactionComplete, for
// tests asserting on job outcomes.
func (c *Controller) LastStats() (compaction.JobStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastStats, c.haveStats
}

// ManifestSQN returns the controller's current manifest generation number.
func (c *Controller) ManifestSQN() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manifestSQN
}

// ErrNotFound is returned by FindEntry when no manifest entry matches.
var ErrNotFound = fmt.Errorf("journalctl: entry not found")

// FindEntry returns the manifest entry named filename.
func (c *Controller) FindEntry(filename string) (compaction.ManifestEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.manifest {
		if entry.Filename == filename {
			return entry, nil
		}
	}
	return compaction.ManifestEntry{}, ErrNotFound
}
