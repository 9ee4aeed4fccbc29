package vocab

import "context"

// Catalog answers the two queries the core needs of the read-only word
// inventory: fetch by id, and sample the word whose
// difficulty rank is closest to a target, optionally scoped to a unit and
// excluding already-seen ids.
type Catalog interface {
	// GetByID returns the word with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (Word, error)

	// Nearest returns the word whose DifficultyRank is closest to target
	// among words matching unit (nil = any unit) and not in exclude. Ties
	// are broken by the lowest word id. Returns ErrNotFound if no word
	// matches the filters.
	Nearest(ctx context.Context, target int, unit *int, exclude map[int64]struct{}) (Word, error)

	// ByUnit returns every word belonging to unit, unordered.
	ByUnit(ctx context.Context, unit int) ([]Word, error)

	// ByDifficultyBand returns words within [low, high] (inclusive),
	// excluding excludeID, used by distractor generation's monotonic band
	// widening.
	ByDifficultyBand(ctx context.Context, low, high int, excludeID int64) ([]Word, error)
}

// NearestInSlice implements the Catalog.Nearest contract over an
// already-filtered slice, exported so storage-layer Catalog
// implementations outside this package (the Postgres-backed cache, the
// in-memory test store) share the exact "closest rank, tie by lowest id"
// rule instead of reimplementing it.
func NearestInSlice(words []Word, target int) (Word, bool) {
	best := -1
	bestDist := -1
	for i, w := range words {
		dist := w.DifficultyRank - target
		if dist < 0 {
			dist = -dist
		}
		if best == -1 || dist < bestDist || (dist == bestDist && w.ID < words[best].ID) {
			best = i
			bestDist = dist
		}
	}
	if best == -1 {
		return Word{}, false
	}
	return words[best], true
}
