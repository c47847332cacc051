package compaction

import "github.com/getong/leveled/internal/journalkey"

// Score estimates the fraction of h's payload that is still live, as a
// percentage in [0.0, 100.0]. It samples up to sampleSize positions from h
// (uniformly spread; the store decides the spread), fetches their
// (journal_key, size) in batches of batchSize, and classifies each as live
// — filter reports true, or its sqn exceeds maxSQN — or replaced.
//
// Let A be the summed payload (size - CRCSize) of live records and R the
// same for replaced records. Score returns 100*A/(A+R), or 100.0 if
// A+R == 0 (an empty sample scores as "everything live," the worst
// candidate — intentionally: there is nothing to reclaim by compacting it).
//
// A transient read error on any batch also returns (100.0, nil): the
// scorer never aborts the job over a single file's I/O failure, it just
// treats that file as the worst possible candidate.
func Score(store FileStore, h FileHandle, filter FilterFunc, maxSQN journalkey.SQN, sampleSize, batchSize int) (float64, error) {
	positions, err := store.GetPositions(h, sampleSize)
	if err != nil {
		return 100.0, nil
	}

	var live, replaced float64
	for start := 0; start < len(positions); start += batchSize {
		end := min(start+batchSize, len(positions))
		batch := positions[start:end]

		results, err := store.DirectFetch(h, batch, FetchKeySize)
		if err != nil {
			return 100.0, nil
		}

		for _, r := range results {
			payload := float64(r.Size - CRCSize)
			if payload < 0 {
				payload = 0
			}
			if filter(r.Key.LedgerKey, r.Key.SQN) || r.Key.SQN > maxSQN {
				live += payload
			} else {
				replaced += payload
			}
		}
	}

	total := live + replaced
	if total == 0 {
		return 100.0, nil
	}
	return 100 * live / total, nil
}
