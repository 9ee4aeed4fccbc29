package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/vocabhat/pkg/vocab"
)

// MemoryCatalog is an in-memory vocab.Catalog seeded directly from a word
// slice, a stand-in for the SQL-backed CatalogStore.
type MemoryCatalog struct {
	mu    sync.RWMutex
	byID  map[int64]vocab.Word
	byUnt map[int][]vocab.Word
	all   []vocab.Word
}

// NewMemoryCatalog builds a MemoryCatalog from words.
func NewMemoryCatalog(words []vocab.Word) *MemoryCatalog {
	c := &MemoryCatalog{
		byID:  make(map[int64]vocab.Word, len(words)),
		byUnt: make(map[int][]vocab.Word),
	}
	for _, w := range words {
		c.byID[w.ID] = w
		c.byUnt[w.Unit] = append(c.byUnt[w.Unit], w)
		c.all = append(c.all, w)
	}
	return c
}

func (c *MemoryCatalog) GetByID(ctx context.Context, id int64) (vocab.Word, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.byID[id]
	if !ok {
		return vocab.Word{}, vocabNotFound("catalog.get_by_id", nil)
	}
	return w, nil
}

func (c *MemoryCatalog) Nearest(ctx context.Context, target int, unit *int, exclude map[int64]struct{}) (vocab.Word, error) {
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

func (c *MemoryCatalog) ByUnit(ctx context.Context, unit int) ([]vocab.Word, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]vocab.Word, len(c.byUnt[unit]))
	copy(out, c.byUnt[unit])
	return out, nil
}

func (c *MemoryCatalog) ByDifficultyBand(ctx context.Context, low, high int, excludeID int64) ([]vocab.Word, error) {
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

// MemoryProgressStore is an in-memory vocab.ProgressStore.
type MemoryProgressStore struct {
	mu      sync.Mutex
	entries map[[2]int64]vocab.ProgressEntry
	units   map[int64]int // wordID -> unit, for the join-dependent queries
	efMax   float64
}

// NewMemoryProgressStore builds a MemoryProgressStore; wordUnits maps each
// word id to its unit so ByUnit* queries can be served without a join.
// efMax seeds the EasinessFactor synthesized for words the learner has
// never touched, mirroring ProgressStore's efMax.
func NewMemoryProgressStore(wordUnits map[int64]int, efMax float64) *MemoryProgressStore {
	return &MemoryProgressStore{
		entries: make(map[[2]int64]vocab.ProgressEntry),
		units:   wordUnits,
		efMax:   efMax,
	}
}

// Revise implements vocab.ProgressStore. The mutex is held across the
// whole read-fn-write sequence, so a concurrent Revise on the same pair
// waits for it rather than interleaving between the read and the write.
func (s *MemoryProgressStore) Revise(ctx context.Context, learnerID, wordID int64, orInsert *vocab.ProgressEntry, fn func(vocab.ProgressEntry) vocab.ProgressEntry) (vocab.ProgressEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{learnerID, wordID}
	prior, ok := s.entries[key]
	if !ok {
		if orInsert == nil {
			return vocab.ProgressEntry{}, vocabNotFound("progress.revise", nil)
		}
		prior = *orInsert
	}
	next := fn(prior)
	s.entries[key] = next
	return next, nil
}

func (s *MemoryProgressStore) Get(ctx context.Context, learnerID, wordID int64) (vocab.ProgressEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[[2]int64{learnerID, wordID}]
	if !ok {
		return vocab.ProgressEntry{}, vocabNotFound("progress.get", nil)
	}
	return e, nil
}

func (s *MemoryProgressStore) QueryDue(ctx context.Context, learnerID int64, at time.Time, limit int, filter vocab.ProgressFilter) ([]vocab.ProgressEntry, error) {
	s.mu.Lock()
	var matched []vocab.ProgressEntry
	for k, e := range s.entries {
		if k[0] != learnerID || !filter.Has(e.Status) {
			continue
		}
		if e.Status != vocab.StatusNew && (e.NextReviewAt == nil || e.NextReviewAt.After(at)) {
			continue
		}
		matched = append(matched, e)
	}
	s.mu.Unlock()

	sortDueExported(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// ByUnitExcludingMastered returns a row for every word in unit whose
// status is not Review or Mastered, including words the learner has never
// touched (synthesized as status 'new' with efMax), matching
// ProgressStore's LEFT-JOIN-from-words semantics.
func (s *MemoryProgressStore) ByUnitExcludingMastered(ctx context.Context, learnerID int64, unit int) ([]vocab.ProgressEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []vocab.ProgressEntry
	for wordID, wUnit := range s.units {
		if wUnit != unit {
			continue
		}
		e, ok := s.entries[[2]int64{learnerID, wordID}]
		if !ok {
			out = append(out, vocab.NewProgressEntry(learnerID, wordID, s.efMax))
			continue
		}
		if e.Status == vocab.StatusNew || e.Status == vocab.StatusLearning {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryProgressStore) ByUnitLearned(ctx context.Context, learnerID int64, unit int) ([]vocab.ProgressEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []vocab.ProgressEntry
	for k, e := range s.entries {
		if k[0] != learnerID || s.units[k[1]] != unit {
			continue
		}
		if e.Status == vocab.StatusReview || e.Status == vocab.StatusMastered {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryProgressStore) CountByUnit(ctx context.Context, learnerID int64) (map[int]vocab.UnitCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[int]int)
	for _, unit := range s.units {
		totals[unit]++
	}

	counts := make(map[int]vocab.UnitCounts, len(totals))
	for unit, total := range totals {
		counts[unit] = vocab.UnitCounts{Unit: unit, Total: total}
	}
	for k, e := range s.entries {
		if k[0] != learnerID {
			continue
		}
		unit := s.units[k[1]]
		uc := counts[unit]
		switch e.Status {
		case vocab.StatusReview:
			uc.Reviewed++
		case vocab.StatusMastered:
			uc.Mastered++
		}
		counts[unit] = uc
	}
	return counts, nil
}

// sortDueExported reimplements package vocab's ordering rule for the
// in-memory store, which cannot express an ORDER BY and must sort in Go.
func sortDueExported(entries []vocab.ProgressEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		pi, pj := duePriority(entries[i].Status), duePriority(entries[j].Status)
		if pi != pj {
			return pi < pj
		}
		ti, tj := dueKey(entries[i]), dueKey(entries[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return entries[i].WordID < entries[j].WordID
	})
}

func duePriority(s vocab.Status) int {
	switch s {
	case vocab.StatusLearning:
		return 0
	case vocab.StatusReview:
		return 1
	case vocab.StatusNew:
		return 2
	default:
		return 3
	}
}

func dueKey(e vocab.ProgressEntry) time.Time {
	if e.NextReviewAt == nil {
		return time.Time{}
	}
	return *e.NextReviewAt
}

// MemorySessionStore is an in-memory vocab.SessionStore.
type MemorySessionStore struct {
	mu       sync.Mutex
	byID     map[string]vocab.PlacementSession
	activeOf map[int64]string
}

// NewMemorySessionStore builds a MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		byID:     make(map[string]vocab.PlacementSession),
		activeOf: make(map[int64]string),
	}
}

func (s *MemorySessionStore) ActiveFor(ctx context.Context, learnerID int64) (*vocab.PlacementSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.activeOf[learnerID]
	if !ok {
		return nil, nil
	}
	sess := s.byID[id]
	return &sess, nil
}

func (s *MemorySessionStore) Create(ctx context.Context, sess vocab.PlacementSession) (vocab.PlacementSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.activeOf[sess.LearnerID]; exists {
		return vocab.PlacementSession{}, vocabConflict("placement.create", nil)
	}
	sess.Version = 0
	s.byID[sess.ID] = sess
	s.activeOf[sess.LearnerID] = sess.ID
	return sess, nil
}

func (s *MemorySessionStore) CompareAndSwap(ctx context.Context, sess vocab.PlacementSession) (vocab.PlacementSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[sess.ID]
	if !ok || cur.Version != sess.Version {
		return vocab.PlacementSession{}, vocabConflict("placement.compare_and_swap", nil)
	}
	sess.Version++
	s.byID[sess.ID] = sess
	if !sess.Active {
		delete(s.activeOf, sess.LearnerID)
	}
	return sess, nil
}

// MemoryActivityStore is an in-memory vocab.ActivityStore.
type MemoryActivityStore struct {
	mu   sync.Mutex
	byID map[int64]vocab.DailyActivity
}

// NewMemoryActivityStore builds a MemoryActivityStore.
func NewMemoryActivityStore() *MemoryActivityStore {
	return &MemoryActivityStore{byID: make(map[int64]vocab.DailyActivity)}
}

func (s *MemoryActivityStore) Get(ctx context.Context, learnerID int64) (vocab.DailyActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[learnerID], nil
}

func (s *MemoryActivityStore) Save(ctx context.Context, a vocab.DailyActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[a.LearnerID] = a
	return nil
}
