package vocab

import (
	"context"
	"sort"
	"time"
)

// ProgressStore is the persistence boundary for Progress Entries.
type ProgressStore interface {
	// Revise loads the entry for (learnerID, wordID) — or, if none exists
	// yet and orInsert is non-nil, starts from *orInsert — applies fn to the
	// loaded value, and persists fn's result, all as one locked/transacted
	// unit. Two concurrent Revise calls against the same pair serialize
	// rather than interleaving their read and write halves, so neither can
	// silently clobber the other's update. Returns ErrNotFound if the entry
	// is absent and orInsert is nil.
	Revise(ctx context.Context, learnerID, wordID int64, orInsert *ProgressEntry, fn func(ProgressEntry) ProgressEntry) (ProgressEntry, error)

	// Get returns the entry for (learnerID, wordID), or ErrNotFound.
	Get(ctx context.Context, learnerID, wordID int64) (ProgressEntry, error)

	// QueryDue returns up to limit entries for learnerID where status is
	// in filter and (status == New, or NextReviewAt <= at). Order: status
	// priority Learning > Review > New > Mastered, then ascending
	// NextReviewAt, then ascending word id.
	QueryDue(ctx context.Context, learnerID int64, at time.Time, limit int, filter ProgressFilter) ([]ProgressEntry, error)

	// ByUnitExcludingMastered returns entries (or the implicit absent
	// state) for every word in unit whose status is absent, New or
	// Learning; Review and Mastered words are excluded.
	ByUnitExcludingMastered(ctx context.Context, learnerID int64, unit int) ([]ProgressEntry, error)

	// ByUnitLearned returns entries for every word in unit with status in
	// {Review, Mastered}.
	ByUnitLearned(ctx context.Context, learnerID int64, unit int) ([]ProgressEntry, error)

	// CountByUnit returns, per unit, counts of {Review, Mastered} entries.
	CountByUnit(ctx context.Context, learnerID int64) (map[int]UnitCounts, error)
}

// UnitCounts aggregates review/mastered counts for one unit.
type UnitCounts struct {
	Unit     int
	Reviewed int // status == Review
	Mastered int
	Total    int // total words in the unit, from the Catalog
}

var statusPriority = map[Status]int{
	StatusLearning: 0,
	StatusReview:   1,
	StatusNew:      2,
	StatusMastered: 3,
}

// Assembler implements the three session shapes: due reviews, a unit
// filter, and a unit's already-learned words.
type Assembler struct {
	cfg     Config
	catalog Catalog
	store   ProgressStore
}

// NewAssembler builds an Assembler.
func NewAssembler(cfg Config, catalog Catalog, store ProgressStore) *Assembler {
	return &Assembler{cfg: cfg, catalog: catalog, store: store}
}

// ReviewSession returns the default review batch: entries in
// {Learning, Review} due now, Learning items preceding Review items, each
// group ordered by earliest NextReviewAt first.
func (a *Assembler) ReviewSession(ctx context.Context, learnerID int64, limit int, now time.Time) ([]ProgressWithWord, error) {
	if limit <= 0 {
		limit = a.cfg.DefaultSessionSize
	}
	filter := NewProgressFilter(StatusLearning, StatusReview)
	entries, err := a.store.QueryDue(ctx, learnerID, now, limit, filter)
	if err != nil {
		return nil, newErr("review.session", KindInternal, err)
	}
	return a.withWords(ctx, "review.session", entries)
}

// UnitFilter returns words of unit whose status is absent, New or Learning
// (Review and Mastered words are left out), ordered by ascending difficulty
// rank then word id, used by the triage UI.
func (a *Assembler) UnitFilter(ctx context.Context, learnerID int64, unit int) ([]ProgressWithWord, error) {
	entries, err := a.store.ByUnitExcludingMastered(ctx, learnerID, unit)
	if err != nil {
		return nil, newErr("review.unit_filter", KindInternal, err)
	}
	rows, err := a.withWords(ctx, "review.unit_filter", entries)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Word.DifficultyRank != rows[j].Word.DifficultyRank {
			return rows[i].Word.DifficultyRank < rows[j].Word.DifficultyRank
		}
		return rows[i].Word.ID < rows[j].Word.ID
	})
	return rows, nil
}

// UnitLearned returns words of unit with status in {Review, Mastered}, used
// to seed quiz questions.
func (a *Assembler) UnitLearned(ctx context.Context, learnerID int64, unit int) ([]ProgressWithWord, error) {
	entries, err := a.store.ByUnitLearned(ctx, learnerID, unit)
	if err != nil {
		return nil, newErr("review.unit_learned", KindInternal, err)
	}
	return a.withWords(ctx, "review.unit_learned", entries)
}

// withWords resolves each entry's Word from the Catalog, matching words to
// progress entries. An entry whose word has since vanished from the
// Catalog is dropped rather than failing the whole batch.
func (a *Assembler) withWords(ctx context.Context, op string, entries []ProgressEntry) ([]ProgressWithWord, error) {
	rows := make([]ProgressWithWord, 0, len(entries))
	for _, e := range entries {
		w, err := a.catalog.GetByID(ctx, e.WordID)
		if err != nil {
			continue
		}
		rows = append(rows, ProgressWithWord{Progress: e, Word: w})
	}
	return rows, nil
}

// sortDue orders entries by status priority, then next-review time, then
// word id. It is unexported, so only stores inside this package (the
// in-package test fake) use it; internal/storage's in-memory store carries
// its own copy of the same rule.
func sortDue(entries []ProgressEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		pi, pj := statusPriority[entries[i].Status], statusPriority[entries[j].Status]
		if pi != pj {
			return pi < pj
		}
		ti, tj := nextReviewSortKey(entries[i]), nextReviewSortKey(entries[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return entries[i].WordID < entries[j].WordID
	})
}

// nextReviewSortKey treats an absent NextReviewAt as the zero time so New
// entries (which have none) sort before any scheduled time; for
// review-session ordering New items are already excluded by the filter, so
// only Learning/Review rows reach this comparison and those always carry a
// NextReviewAt.
func nextReviewSortKey(e ProgressEntry) time.Time {
	if e.NextReviewAt == nil {
		return time.Time{}
	}
	return *e.NextReviewAt
}
