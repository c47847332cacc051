/*
Package leveled provides the journal compaction clerk of a log-structured
key/value store: the component that reclaims journal space by rewriting
runs of journal files with only the records still needed.

The store persists every update to an append-only journal while a derived
ledger records, per user key, the sequence number (SQN) of the latest
write. Over time journal files fill with superseded records; a compaction
job samples and scores the files, selects the best contiguous run under a
length cap, streams the run's records through a per-record retention
filter, and hands the journal controller a manifest delta it can apply
atomically.

# Usage

Construct a Clerk bound to a journal controller and a file store, then
fire compaction jobs at it:

	c := leveled.NewClerk(leveled.ClerkOptions{
		Inker: controller,
		Store: store,
		ReloadStrategy: leveled.StrategyMap{"o": leveled.Retain},
		Namer: leveled.DefaultDestinationNamer(dir),
	})
	defer c.Stop()
	c.Compact(nil, initiate, controller, 0)

Results are published to the controller via its CompactionComplete and
UpdateManifest callbacks, never returned synchronously.

# Concurrency

A Clerk processes one compaction job at a time; requests queue in a
bounded mailbox and are handled serially by a single worker goroutine.
Stop is orderly: in-flight work completes, later requests are rejected
with ErrStopped.
*/
package leveled
