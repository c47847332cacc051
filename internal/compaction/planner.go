package compaction

import "math"

// tieEpsilon bounds the floating-point slack allowed when two offset
// passes are judged to have found the same run (see betterCandidate).
const tieEpsilon = 1e-9

// Plan selects the best contiguous run of length <= maxRunLength from
// candidates, which must already be in ascending low_sqn (manifest) order.
//
// Selection algorithm: a greedy forward scan extends the current window by
// one candidate at each step. Once the window would exceed maxRunLength, it
// is reset to a new singleton at the current candidate and the scan
// continues, tracking the highest-scoring window seen. Because a single
// scan starting at index 0 can miss a better-aligned window, the scan is
// repeated with starting offsets 1..maxRunLength-1. The passes are combined
// by betterCandidate: a longer run always wins, and among equally long runs
// a later pass only displaces an earlier one when it lands on the same
// score — it never swaps in a merely higher-scoring run of the same
// length. The asymmetry keeps the offset passes from chasing a
// sharper-looking but narrower window once a full-length run has already
// been found.
//
// Plan always returns the best window found, even if its score is <= 0;
// the caller (internal/clerk) is responsible for treating a non-positive
// score as "nothing to do."
func Plan(candidates Run, maxRunLength int) Run {
	if len(candidates) == 0 {
		return nil
	}
	if maxRunLength < 1 {
		maxRunLength = 1
	}

	best, bestScore := scanFrom(candidates, 0, maxRunLength)
	for offset := 1; offset < maxRunLength && offset < len(candidates); offset++ {
		run, score := scanFrom(candidates, offset, maxRunLength)
		if betterCandidate(run, score, best, bestScore) {
			best, bestScore = run, score
		}
	}
	return best
}

// betterCandidate reports whether run should replace best as the answer
// assembled across offset passes. Length is the primary key: a strictly
// longer run compacts more of the journal and always wins outright. Among
// runs of equal length, run only displaces best if its score matches
// best's score to within tieEpsilon — the later pass is treated as having
// rediscovered the same run via a different alignment, not as having found
// a better one.
func betterCandidate(run Run, score float64, best Run, bestScore float64) bool {
	if len(run) != len(best) {
		return len(run) > len(best)
	}
	return math.Abs(score-bestScore) < tieEpsilon
}

// scanFrom runs the greedy forward scan starting at candidates[start:],
// returning the best window it found and that window's score.
func scanFrom(candidates Run, start, maxRunLength int) (Run, float64) {
	var best Run
	bestScore := 0.0
	haveBest := false

	var window Run
	for i := start; i < len(candidates); i++ {
		window = append(window, candidates[i])
		if len(window) > maxRunLength {
			window = Run{candidates[i]}
		}
		score := ScoreRun(window, maxRunLength)
		if !haveBest || score > bestScore {
			best = append(Run(nil), window...)
			bestScore = score
			haveBest = true
		}
	}
	if !haveBest {
		return nil, 0.0
	}
	return best, bestScore
}
