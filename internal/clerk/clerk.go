// Package clerk hosts the compaction job coordinator: the long-lived actor
// that drives Score -> Plan -> Rewrite -> UpdateManifest end to end for one
// journal directory, plus the unrelated hashtable-compute helper task the
// same process hosts.
//
// The coordinator is a worker goroutine with a bounded inbox accepting
// compact and stop messages, processed one at a time by a single goroutine
// owning all mutable state.
package clerk

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getong/leveled/internal/compaction"
	"github.com/getong/leveled/internal/journalkey"
	"github.com/getong/leveled/internal/logging"
)

// ErrStopped is returned by Compact when the clerk has already processed a
// Stop request.
var ErrStopped = errors.New("clerk: stopped")

// Ledger is the ledger oracle surface the coordinator needs: "is (key, sqn)
// still the live entry." *internal/ledger.Snapshot satisfies this; the
// coordinator derives its record filter from the bound Check method of the
// snapshot initiate hands back.
type Ledger interface {
	Check(key journalkey.LedgerKey, sqn journalkey.SQN) bool
}

// InitiateFunc snapshots the ledger and the SQN horizon for one job. It is
// supplied by the caller at Compact time, typically wrapping a call into
// the surrounding system's ledger component.
type InitiateFunc func(checker any) (Ledger, journalkey.SQN, error)

// Options configures a Clerk. ReloadStrategy is threaded through here
// rather than held as a package-level default, so tests stay hermetic.
type Options struct {
	// Inker is the journal controller this clerk is bound to. Exactly one
	// clerk instance processes jobs for one controller at a time.
	Inker compaction.Controller
	// Store is the journal file store backing every Score/Rewrite call.
	Store compaction.FileStore
	// MaxRunLength bounds how long a chosen compaction run may be.
	// Defaults to 4.
	MaxRunLength int
	// ReloadStrategy maps a ledger key's tag to its reload strategy.
	ReloadStrategy journalkey.StrategyMap
	// Namer names new destination files during a rewrite.
	Namer compaction.DestinationNamer
	// Logger receives lifecycle and error events under the [clerk]
	// namespace.
	Logger logging.Logger
	// SampleSize and BatchSize override the scorer's tuning constants;
	// zero means use compaction.SampleSize / compaction.BatchSize.
	SampleSize int
	BatchSize  int
}

func (o Options) withDefaults() Options {
	if o.MaxRunLength <= 0 {
		o.MaxRunLength = 4
	}
	if o.SampleSize <= 0 {
		o.SampleSize = compaction.SampleSize
	}
	if o.BatchSize <= 0 {
		o.BatchSize = compaction.BatchSize
	}
	if o.ReloadStrategy == nil {
		o.ReloadStrategy = journalkey.StrategyMap{}
	}
	o.Logger = logging.OrDefault(o.Logger)
	return o
}

// job is one compact request queued in the mailbox.
type job struct {
	checker  any
	initiate InitiateFunc
	ctl      compaction.Controller
	timeout  time.Duration
}

// Clerk is a single-job-at-a-time compaction actor. Construction starts its
// worker goroutine; Stop orders it to exit once any in-flight job finishes.
type Clerk struct {
	opts Options

	mailbox chan job
	stopCh  chan struct{}
	stopped atomic.Bool
	wg      sync.WaitGroup
}

// New constructs a Clerk and starts its worker goroutine.
func New(opts Options) *Clerk {
	c := &Clerk{
		opts:    opts.withDefaults(),
		mailbox: make(chan job, 1), // one job in flight, at most one queued
		stopCh:  make(chan struct{}),
	}
	c.wg.Add(1)
	go c.loop()
	return c
}

func (c *Clerk) loop() {
	defer c.wg.Done()
	for {
		select {
		case j := <-c.mailbox:
			c.runJob(j)
		case <-c.stopCh:
			return
		}
	}
}

// Compact fire-and-forgets a compaction request onto the mailbox; the
// result is published to ctl via CompactionComplete/UpdateManifest, never
// returned synchronously here. checker is an opaque value forwarded to
// initiate unexamined. timeout, if positive, bounds the job's context;
// cancellation is honored only between the rewriter's suspension points,
// never mid-batch.
func (c *Clerk) Compact(checker any, initiate InitiateFunc, ctl compaction.Controller, timeout time.Duration) error {
	if c.stopped.Load() {
		return ErrStopped
	}
	select {
	case c.mailbox <- job{checker: checker, initiate: initiate, ctl: ctl, timeout: timeout}:
		return nil
	case <-c.stopCh:
		return ErrStopped
	}
}

// Stop orders orderly shutdown: in-flight compaction is not interrupted,
// but no further compact request is accepted. Stop blocks until the worker
// goroutine has exited.
func (c *Clerk) Stop() {
	if c.stopped.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	c.wg.Wait()
}

// sortRun sorts run ascending by LowSQN. Candidates normally already
// arrive in this order from the manifest, but the rewriter's ordering
// guarantee must not rely on it.
func sortRun(run compaction.Run) {
	for i := 1; i < len(run); i++ {
		for j := i; j > 0 && run[j].LowSQN < run[j-1].LowSQN; j-- {
			run[j], run[j-1] = run[j-1], run[j]
		}
	}
}

func jobContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.Background(), func() {}
	}
	return context.WithTimeout(context.Background(), timeout)
}
