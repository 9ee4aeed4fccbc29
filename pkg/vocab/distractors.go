package vocab

import (
	"context"
	"math/rand"
	"sort"

	"go.uber.org/zap"
)

// DistractorGenerator builds quiz distractor sets, grounded on
// aliskhannn-asma-ul-husna-bot's
// internal/service/options_generator.go (shuffle a candidate pool, widen
// the band monotonically, skip duplicate surface forms).
type DistractorGenerator struct {
	cfg     Config
	catalog Catalog
	log     *zap.Logger
}

// NewDistractorGenerator builds a DistractorGenerator.
func NewDistractorGenerator(cfg Config, catalog Catalog, log *zap.Logger) *DistractorGenerator {
	if log == nil {
		log = zap.NewNop()
	}
	return &DistractorGenerator{cfg: cfg, catalog: catalog, log: log}
}

// Generate returns up to n distractor words for correct, widening the
// preferred +/-band difficulty window monotonically until n are found or
// the catalog is exhausted. The returned set is shuffled.
func (g *DistractorGenerator) Generate(ctx context.Context, correct Word, n int) ([]Word, error) {
	if n <= 0 {
		n = g.cfg.DistractorCount
	}

	band := g.cfg.DistractorBand
	if band <= 0 {
		band = 10
	}

	var chosen []Word
	fullRangeTried := false

	for {
		low, high := correct.DifficultyRank-band, correct.DifficultyRank+band
		candidates, err := g.catalog.ByDifficultyBand(ctx, low, high, correct.ID)
		if err != nil {
			return nil, newErr("distractors", KindInternal, err)
		}

		chosen = chosen[:0]
		seenForms := map[string]struct{}{correct.TargetForm: {}}
		// deterministic candidate order before shuffling, so widening
		// picks up newly-included words without reordering existing ones.
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

		for _, c := range candidates {
			if c.ID == correct.ID {
				continue
			}
			if _, dup := seenForms[c.TargetForm]; dup {
				continue
			}
			seenForms[c.TargetForm] = struct{}{}
			chosen = append(chosen, c)
			if len(chosen) >= n {
				break
			}
		}

		if len(chosen) >= n {
			break
		}

		if fullRangeTried {
			// the widest possible band (covering the entire [1,100]
			// rank space) still did not yield n distractors: the
			// catalog itself is exhausted, stop widening.
			g.log.Info("distractors: catalog exhausted before reaching requested count",
				zap.Int64("word_id", correct.ID), zap.Int("found", len(chosen)), zap.Int("requested", n))
			break
		}

		g.log.Info("distractors: widening difficulty band",
			zap.Int64("word_id", correct.ID), zap.Int("band", band*2))
		band *= 2
		if low <= 1 && high >= 100 {
			fullRangeTried = true
		}
	}

	rand.Shuffle(len(chosen), func(i, j int) { chosen[i], chosen[j] = chosen[j], chosen[i] })
	return chosen, nil
}
