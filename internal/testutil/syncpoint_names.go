package testutil

// Sync point names for the rewriter's suspension points, following
// RocksDB's "Component::Function:Location" convention.
const (
	// SPRewriteBatchFetch fires before each source batch is fetched.
	SPRewriteBatchFetch = "Rewriter::Rewrite:BatchFetch"
	// SPRewriteRoll fires when a destination signals it must roll over.
	SPRewriteRoll = "Rewriter::Rewrite:Roll"
	// SPRewriteSeal fires when a destination is sealed (Complete called).
	SPRewriteSeal = "Rewriter::Rewrite:Seal"
)
