//go:build !synctest

// Package testutil provides no-op stubs for sync point functions outside
// test builds, so the rewriter's SP calls compile to nothing (no channel,
// no map lookup, no atomic load beyond the build tag itself).
//
// Build with -tags synctest to enable sync point processing for
// concurrency tests that need to force a specific batch interleaving.
package testutil

// SP is a no-op in production builds.
func SP(_ string) error { return nil }

// EnableSyncPoints is a no-op outside synctest builds; SyncPointManager is
// not available without -tags synctest.
func EnableSyncPoints() *SyncPointManager { return nil }

// DisableSyncPoints is a no-op outside synctest builds.
func DisableSyncPoints() {}

// SyncPointManager is a stub type outside synctest builds.
type SyncPointManager struct{}
