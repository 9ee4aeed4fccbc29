package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocabhat/pkg/vocab"
)

// TestMemoryProgressStore_ReviseSerializesConcurrentRevisions drives many
// goroutines through Revise on the same (learner, word) pair at once. Each
// revision only increments RepetitionNumber by one relative to whatever it
// reads, so if the read-modify-write weren't serialized, concurrent
// goroutines could read the same prior value and two increments would
// collapse into one (a lost update). The final count must equal the number
// of revisions that ran.
func TestMemoryProgressStore_ReviseSerializesConcurrentRevisions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryProgressStore(map[int64]int{1: 1}, 2.5)
	seed := vocab.NewProgressEntry(1, 1, 2.5)

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := store.Revise(ctx, 1, 1, &seed, func(prior vocab.ProgressEntry) vocab.ProgressEntry {
				prior.RepetitionNumber++
				return prior
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	final, err := store.Revise(ctx, 1, 1, nil, func(prior vocab.ProgressEntry) vocab.ProgressEntry { return prior })
	require.NoError(t, err)
	assert.Equal(t, n, final.RepetitionNumber, "every concurrent revision must be reflected; none may be lost")
}

// TestMemorySessionStore_CompareAndSwapRejectsStaleVersions drives many
// goroutines at CompareAndSwap with the same stale base version. Exactly one
// may win; the rest must see a version conflict rather than silently
// overwriting each other's work, matching the retry contract Placement.Answer
// relies on.
func TestMemorySessionStore_CompareAndSwapRejectsStaleVersions(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	base, err := store.Create(ctx, vocab.PlacementSession{ID: "s1", LearnerID: 1, Min: 0, Max: 100, Active: true})
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	oks := make(chan bool, n)
	for i := 0; i < n; i++ {
		go func(questionCount int) {
			defer wg.Done()
			attempt := base
			attempt.QuestionCount = questionCount
			_, err := store.CompareAndSwap(ctx, attempt)
			oks <- err == nil
		}(i + 1)
	}
	wg.Wait()
	close(oks)

	wins := 0
	for ok := range oks {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "only one caller may win a CompareAndSwap against a shared stale version")

	stored, err := store.ActiveFor(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.EqualValues(t, 1, stored.Version, "the single winning swap must have advanced the version exactly once")
}
