//go:build synctest

// Package testutil provides sync points: named locations in the rewriter
// where tests can inject delays, inject errors, or force specific batch
// interleavings deterministically.
//
// Reference: RocksDB's test_util/sync_point.{h,cc}, adapted here to the
// journal compaction clerk's own suspension points instead of a full
// storage engine's write/flush/compaction paths.
//
// Usage:
//
//	mgr := testutil.EnableSyncPoints()
//	defer testutil.DisableSyncPoints()
//	mgr.SetCallback(testutil.SPRewriteBatchFetch, func(string) error { ... })
package testutil

import (
	"sync"
	"sync/atomic"
	"time"
)

// SyncPointManager manages sync points for a test.
type SyncPointManager struct {
	mu sync.RWMutex

	enabled atomic.Bool

	callbacks       map[string][]SyncPointCallback
	hitCounts       map[string]int64
	blockedPoints   map[string]chan struct{}
	clearedPoints   map[string]bool
	errorInjections map[string]error
	delays          map[string]time.Duration
}

// SyncPointCallback is called when a sync point is reached. It receives the
// sync point name and can return an error to propagate.
type SyncPointCallback func(name string) error

var globalSyncPointManager atomic.Pointer[SyncPointManager]

// NewSyncPointManager creates a new SyncPointManager.
func NewSyncPointManager() *SyncPointManager {
	return &SyncPointManager{
		callbacks:       make(map[string][]SyncPointCallback),
		hitCounts:       make(map[string]int64),
		blockedPoints:   make(map[string]chan struct{}),
		clearedPoints:   make(map[string]bool),
		errorInjections: make(map[string]error),
		delays:          make(map[string]time.Duration),
	}
}

// EnableProcessing enables sync point processing.
func (sp *SyncPointManager) EnableProcessing() { sp.enabled.Store(true) }

// DisableProcessing disables sync point processing.
func (sp *SyncPointManager) DisableProcessing() { sp.enabled.Store(false) }

// IsEnabled returns whether sync point processing is enabled.
func (sp *SyncPointManager) IsEnabled() bool { return sp.enabled.Load() }

// SetGlobal sets this manager as the global sync point manager.
func (sp *SyncPointManager) SetGlobal() { globalSyncPointManager.Store(sp) }

// ClearGlobal clears the global sync point manager.
func ClearGlobal() { globalSyncPointManager.Store(nil) }

// SetCallback registers a callback for a sync point.
func (sp *SyncPointManager) SetCallback(name string, callback SyncPointCallback) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.callbacks[name] = append(sp.callbacks[name], callback)
}

// ClearAllCallbacks removes all callbacks.
func (sp *SyncPointManager) ClearAllCallbacks() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.callbacks = make(map[string][]SyncPointCallback)
}

// SetErrorInjection sets an error to be returned when a sync point is reached.
func (sp *SyncPointManager) SetErrorInjection(name string, err error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.errorInjections[name] = err
}

// ClearErrorInjection removes error injection for a sync point.
func (sp *SyncPointManager) ClearErrorInjection(name string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	delete(sp.errorInjections, name)
}

// BlockSyncPoint causes execution to block at the named sync point until
// ClearSyncPoint is called.
func (sp *SyncPointManager) BlockSyncPoint(name string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if _, exists := sp.blockedPoints[name]; !exists {
		sp.blockedPoints[name] = make(chan struct{})
	}
	sp.clearedPoints[name] = false
}

// ClearSyncPoint signals blocked executions at the named sync point to continue.
func (sp *SyncPointManager) ClearSyncPoint(name string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.clearedPoints[name] = true
	if ch, exists := sp.blockedPoints[name]; exists {
		close(ch)
		sp.blockedPoints[name] = make(chan struct{})
	}
}

// GetHitCount returns the number of times a sync point was hit.
func (sp *SyncPointManager) GetHitCount(name string) int64 {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return sp.hitCounts[name]
}

// Process is called when a sync point is reached. Returns an error if error
// injection is configured for this point.
func (sp *SyncPointManager) Process(name string) error {
	if !sp.enabled.Load() {
		return nil
	}

	sp.mu.RLock()
	delay := sp.delays[name]
	sp.mu.RUnlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	sp.waitIfBlocked(name)

	sp.mu.Lock()
	sp.hitCounts[name]++
	sp.mu.Unlock()

	sp.mu.RLock()
	callbacks := sp.callbacks[name]
	sp.mu.RUnlock()
	for _, cb := range callbacks {
		if err := cb(name); err != nil {
			return err
		}
	}

	sp.mu.RLock()
	injectedErr := sp.errorInjections[name]
	sp.mu.RUnlock()
	return injectedErr
}

func (sp *SyncPointManager) waitIfBlocked(name string) {
	sp.mu.RLock()
	ch, isBlocked := sp.blockedPoints[name]
	cleared := sp.clearedPoints[name]
	sp.mu.RUnlock()
	if isBlocked && !cleared {
		<-ch
	}
}

// SyncPointProcess is called from production code to process a sync point
// using the global sync point manager.
func SyncPointProcess(name string) error {
	mgr := globalSyncPointManager.Load()
	if mgr == nil {
		return nil
	}
	return mgr.Process(name)
}

// WaitUntilHit blocks until the named sync point has been hit at least once,
// or timeout elapses. Returns whether it was hit.
func (sp *SyncPointManager) WaitUntilHit(name string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if sp.GetHitCount(name) > 0 {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

// SyncPointEnabled controls whether sync points are processed. Tests set
// this via EnableSyncPoints; production code never sets it.
var SyncPointEnabled = false

// SP is the hook the rewriter calls at each suspension point. It is a
// no-op unless a test has called EnableSyncPoints.
func SP(name string) error {
	if !SyncPointEnabled {
		return nil
	}
	return SyncPointProcess(name)
}

// EnableSyncPoints enables sync point processing globally and returns the
// manager so a test can configure callbacks, blocks, or error injection.
func EnableSyncPoints() *SyncPointManager {
	mgr := NewSyncPointManager()
	mgr.EnableProcessing()
	mgr.SetGlobal()
	SyncPointEnabled = true
	return mgr
}

// DisableSyncPoints disables sync point processing and restores normal
// operation.
func DisableSyncPoints() {
	SyncPointEnabled = false
	ClearGlobal()
}
