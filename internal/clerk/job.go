package clerk

import (
	"github.com/getong/leveled/internal/compaction"
	"github.com/getong/leveled/internal/logging"
)

// runJob drives one compaction job end to end: fetch manifest -> score ->
// plan -> rewrite -> report manifest delta -> request deletion of consumed
// files. Every early return still calls ctl.CompactionComplete so the
// controller always learns the job finished, whether or not it produced a
// manifest delta; no error climbs above the job boundary.
func (c *Clerk) runJob(j job) {
	log := c.opts.Logger
	ctx, cancel := jobContext(j.timeout)
	defer cancel()

	manifest, err := j.ctl.GetManifest()
	if err != nil {
		log.Errorf(logging.NSClerk+"get_manifest: %v", err)
		j.ctl.CompactionComplete(compaction.JobStats{})
		return
	}
	if len(manifest) <= 1 {
		// Nothing but the active write-tip file, which is never a
		// compaction candidate.
		j.ctl.CompactionComplete(compaction.JobStats{})
		return
	}
	eligible := manifest[1:]

	ledger, maxSQN, err := j.initiate(j.checker)
	if err != nil {
		log.Errorf(logging.NSClerk+"initiate: %v", err)
		j.ctl.CompactionComplete(compaction.JobStats{})
		return
	}
	filter := compaction.FilterFunc(ledger.Check)

	candidates := make(compaction.Run, 0, len(eligible))
	for _, entry := range eligible {
		perc, _ := compaction.Score(c.opts.Store, entry.Handle, filter, maxSQN, c.opts.SampleSize, c.opts.BatchSize)
		candidates = append(candidates, compaction.Candidate{
			LowSQN:         entry.LowSQN,
			Filename:       entry.Filename,
			Journal:        entry.Handle,
			CompactionPerc: perc,
		})
	}

	run := compaction.Plan(candidates, c.opts.MaxRunLength)
	if compaction.ScoreRun(run, c.opts.MaxRunLength) <= 0 {
		log.Infof(logging.NSClerk+"no run worth compacting out of %d candidates", len(candidates))
		j.ctl.CompactionComplete(compaction.JobStats{CandidatesScored: len(candidates)})
		return
	}
	sortRun(run)

	slice, promptDelete, stats, err := compaction.Rewrite(ctx, c.opts.Store, run, c.opts.Namer, filter, maxSQN, c.opts.ReloadStrategy)
	stats.CandidatesScored = len(candidates)
	if err != nil {
		// Fatal: no manifest delta is submitted; any destinations already
		// written are orphaned for external cleanup.
		log.Errorf(logging.NSClerk+"rewrite failed, no manifest delta published: %v", err)
		j.ctl.CompactionComplete(stats)
		return
	}

	consumed := make([]compaction.ConsumedFile, len(run))
	for i, cand := range run {
		consumed[i] = compaction.ConsumedFile{LowSQN: cand.LowSQN, Filename: cand.Filename, Handle: cand.Journal}
	}

	manifestSQN, err := j.ctl.UpdateManifest(slice, consumed)
	if err != nil {
		log.Errorf(logging.NSClerk+"update_manifest: %v", err)
		j.ctl.CompactionComplete(stats)
		return
	}

	j.ctl.CompactionComplete(stats)

	if !promptDelete {
		log.Warnf(logging.NSClerk+"prompt_delete cleared (corrupt record in run), leaving %d source files undeleted", len(consumed))
		return
	}
	for _, cf := range consumed {
		if err := c.opts.Store.DeletePending(cf.Handle, manifestSQN, j.ctl); err != nil {
			log.Warnf(logging.NSClerk+"delete_pending(%s): %v", cf.Filename, err)
		}
	}
}
