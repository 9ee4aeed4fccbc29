package vocab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/example/vocabhat/internal/clockwork"
)

// fakeCatalog is a minimal in-package Catalog used by placement/distractor
// tests; internal/storage's MemoryCatalog can't be imported here without an
// import cycle (it depends on this package).
type fakeCatalog struct {
	words []Word
}

func newFakeCatalog(n int) *fakeCatalog {
	words := make([]Word, n)
	for i := 0; i < n; i++ {
		words[i] = Word{ID: int64(i + 1), DifficultyRank: i + 1, TargetForm: "w"}
	}
	return &fakeCatalog{words: words}
}

func (c *fakeCatalog) GetByID(ctx context.Context, id int64) (Word, error) {
	for _, w := range c.words {
		if w.ID == id {
			return w, nil
		}
	}
	return Word{}, newErr("catalog.get_by_id", KindNotFound, nil)
}

func (c *fakeCatalog) Nearest(ctx context.Context, target int, unit *int, exclude map[int64]struct{}) (Word, error) {
	var pool []Word
	for _, w := range c.words {
		if _, skip := exclude[w.ID]; skip {
			continue
		}
		pool = append(pool, w)
	}
	w, ok := NearestInSlice(pool, target)
	if !ok {
		return Word{}, newErr("catalog.nearest", KindExhausted, nil)
	}
	return w, nil
}

func (c *fakeCatalog) ByUnit(ctx context.Context, unit int) ([]Word, error) { return nil, nil }

func (c *fakeCatalog) ByDifficultyBand(ctx context.Context, low, high int, excludeID int64) ([]Word, error) {
	var out []Word
	for _, w := range c.words {
		if w.ID == excludeID {
			continue
		}
		if w.DifficultyRank >= low && w.DifficultyRank <= high {
			out = append(out, w)
		}
	}
	return out, nil
}

// fakeSessionStore is a minimal in-package SessionStore.
type fakeSessionStore struct {
	byID     map[string]PlacementSession
	activeOf map[int64]string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{byID: map[string]PlacementSession{}, activeOf: map[int64]string{}}
}

func (s *fakeSessionStore) ActiveFor(ctx context.Context, learnerID int64) (*PlacementSession, error) {
	id, ok := s.activeOf[learnerID]
	if !ok {
		return nil, nil
	}
	sess := s.byID[id]
	return &sess, nil
}

func (s *fakeSessionStore) Create(ctx context.Context, sess PlacementSession) (PlacementSession, error) {
	if _, exists := s.activeOf[sess.LearnerID]; exists {
		return PlacementSession{}, newErr("placement.create", KindConflict, nil)
	}
	s.byID[sess.ID] = sess
	s.activeOf[sess.LearnerID] = sess.ID
	return sess, nil
}

func (s *fakeSessionStore) CompareAndSwap(ctx context.Context, sess PlacementSession) (PlacementSession, error) {
	cur, ok := s.byID[sess.ID]
	if !ok || cur.Version != sess.Version {
		return PlacementSession{}, newErr("placement.compare_and_swap", KindConflict, nil)
	}
	sess.Version++
	s.byID[sess.ID] = sess
	if !sess.Active {
		delete(s.activeOf, sess.LearnerID)
	}
	return sess, nil
}

func TestPlacement_StartIsIdempotent(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog(100)
	store := newFakeSessionStore()
	p := NewPlacement(DefaultConfig(), catalog, store, clockwork.Fixed{}, zaptest.NewLogger(t))

	s1, q1, err := p.Start(ctx, 1)
	require.NoError(t, err)
	s2, q2, err := p.Start(ctx, 1)
	require.NoError(t, err)

	require.Equal(t, s1.ID, s2.ID)
	require.Equal(t, q1.Word.ID, q2.Word.ID)
}

func TestPlacement_RegressionProbeAtFifthQuestion(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog(100)
	store := newFakeSessionStore()
	p := NewPlacement(DefaultConfig(), catalog, store, clockwork.Fixed{}, zaptest.NewLogger(t))

	_, _, err := p.Start(ctx, 1)
	require.NoError(t, err)

	var lastProbe bool
	for i := 0; i < 5; i++ {
		_, _, wasProbe, err := p.Answer(ctx, 1, true)
		require.NoError(t, err)
		lastProbe = wasProbe
	}
	require.True(t, lastProbe, "the 5th answered question must be a regression probe")
}

func TestPlacement_StopsWhenRangeNarrowsOrMaxQuestionsReached(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog(100)
	store := newFakeSessionStore()
	p := NewPlacement(DefaultConfig(), catalog, store, clockwork.Fixed{}, zaptest.NewLogger(t))

	_, _, err := p.Start(ctx, 1)
	require.NoError(t, err)

	var finalSession PlacementSession
	for i := 0; i < DefaultConfig().MaxQuestions; i++ {
		sess, _, _, err := p.Answer(ctx, 1, true)
		require.NoError(t, err)
		finalSession = sess
		if !sess.Active {
			break
		}
	}
	require.False(t, finalSession.Active)
	require.NotNil(t, finalSession.FinalLevel)
	require.LessOrEqual(t, finalSession.QuestionCount, DefaultConfig().MaxQuestions)
}

func TestPlacement_NeverRepeatsAWordWithinASession(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog(100)
	store := newFakeSessionStore()
	p := NewPlacement(DefaultConfig(), catalog, store, clockwork.Fixed{}, zaptest.NewLogger(t))

	_, _, err := p.Start(ctx, 1)
	require.NoError(t, err)

	// the session may complete inside the loop, after which ActiveFor
	// returns nil, so the log is read from the last returned session.
	var last PlacementSession
	for i := 0; i < 10; i++ {
		sess, _, _, err := p.Answer(ctx, 1, i%2 == 0)
		require.NoError(t, err)
		last = sess
		if !sess.Active {
			break
		}
	}

	seen := map[int64]int{}
	for _, e := range last.Log {
		seen[e.WordID]++
	}
	for id, count := range seen {
		require.Equal(t, 1, count, "word %d seen more than once", id)
	}
}
