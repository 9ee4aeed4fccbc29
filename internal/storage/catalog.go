package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/example/vocabhat/pkg/vocab"
)

// wordRow is the sqlx scan target for the words table.
type wordRow struct {
	ID             int64  `db:"id"`
	Unit           int    `db:"unit"`
	DifficultyRank int    `db:"difficulty_rank"`
	SourceForm     string `db:"source_form"`
	TargetForm     string `db:"target_form"`
	AudioRef       string `db:"audio_ref"`
}

func (r wordRow) toWord() vocab.Word {
	return vocab.Word{
		ID:             r.ID,
		Unit:           r.Unit,
		DifficultyRank: r.DifficultyRank,
		SourceForm:     r.SourceForm,
		TargetForm:     r.TargetForm,
		AudioRef:       r.AudioRef,
	}
}

// CatalogStore is the Postgres/sqlite-backed vocab.Catalog. The catalog is
// small, read-mostly, and read on nearly every operation (placement
// question selection, distractor generation), so it is kept wrapped in an
// in-process cache refreshed by cmd/server's scheduled job rather than
// hitting the database per lookup.
type CatalogStore struct {
	db *DB

	mu    sync.RWMutex
	byID  map[int64]vocab.Word
	byUnt map[int][]vocab.Word
	all   []vocab.Word
}

// NewCatalogStore builds a CatalogStore and performs the first load.
func NewCatalogStore(ctx context.Context, db *DB) (*CatalogStore, error) {
	c := &CatalogStore{db: db}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh reloads the entire word catalog from storage. Called at startup
// and periodically by the gocron job wired in cmd/server.
func (c *CatalogStore) Refresh(ctx context.Context) error {
	var rows []wordRow
	if err := c.db.SelectContext(ctx, &rows, `SELECT id, unit, difficulty_rank, source_form, target_form, audio_ref FROM words`); err != nil {
		return vocabInternal("catalog.refresh", err)
	}

	byID := make(map[int64]vocab.Word, len(rows))
	byUnit := make(map[int][]vocab.Word)
	all := make([]vocab.Word, 0, len(rows))
	for _, r := range rows {
		w := r.toWord()
		byID[w.ID] = w
		byUnit[w.Unit] = append(byUnit[w.Unit], w)
		all = append(all, w)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].DifficultyRank != all[j].DifficultyRank {
			return all[i].DifficultyRank < all[j].DifficultyRank
		}
		return all[i].ID < all[j].ID
	})

	c.mu.Lock()
	c.byID, c.byUnt, c.all = byID, byUnit, all
	c.mu.Unlock()
	return nil
}

// GetByID implements vocab.Catalog.
func (c *CatalogStore) GetByID(ctx context.Context, id int64) (vocab.Word, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.byID[id]
	if !ok {
		return vocab.Word{}, vocabNotFound("catalog.get_by_id", nil)
	}
	return w, nil
}

// Nearest implements vocab.Catalog.
func (c *CatalogStore) Nearest(ctx context.Context, target int, unit *int, exclude map[int64]struct{}) (vocab.Word, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pool := c.all
	if unit != nil {
		pool = c.byUnt[*unit]
	}

	filtered := make([]vocab.Word, 0, len(pool))
	for _, w := range pool {
		if _, skip := exclude[w.ID]; skip {
			continue
		}
		filtered = append(filtered, w)
	}

	w, ok := vocab.NearestInSlice(filtered, target)
	if !ok {
		return vocab.Word{}, vocabExhausted("catalog.nearest", nil)
	}
	return w, nil
}

// ByUnit implements vocab.Catalog.
func (c *CatalogStore) ByUnit(ctx context.Context, unit int) ([]vocab.Word, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]vocab.Word, len(c.byUnt[unit]))
	copy(out, c.byUnt[unit])
	return out, nil
}

// ByDifficultyBand implements vocab.Catalog.
func (c *CatalogStore) ByDifficultyBand(ctx context.Context, low, high int, excludeID int64) ([]vocab.Word, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []vocab.Word
	for _, w := range c.all {
		if w.ID == excludeID {
			continue
		}
		if w.DifficultyRank >= low && w.DifficultyRank <= high {
			out = append(out, w)
		}
	}
	return out, nil
}
