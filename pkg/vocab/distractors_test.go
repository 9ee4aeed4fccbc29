package vocab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDistractorGenerator_ReturnsRequestedCountWithinBand(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog(100)
	g := NewDistractorGenerator(DefaultConfig(), catalog, zaptest.NewLogger(t))

	correct, err := catalog.GetByID(ctx, 50)
	require.NoError(t, err)

	got, err := g.Generate(ctx, correct, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, w := range got {
		assert.NotEqual(t, correct.ID, w.ID)
	}
}

func TestDistractorGenerator_WidensBandWhenPoolIsSparse(t *testing.T) {
	ctx := context.Background()
	// Only 4 words total, spread across the full rank range, forces the
	// generator to widen beyond the default +/-10 band to find 3 distractors.
	catalog := &fakeCatalog{words: []Word{
		{ID: 1, DifficultyRank: 1, TargetForm: "a"},
		{ID: 2, DifficultyRank: 50, TargetForm: "b"},
		{ID: 3, DifficultyRank: 99, TargetForm: "c"},
		{ID: 4, DifficultyRank: 100, TargetForm: "d"},
	}}
	g := NewDistractorGenerator(DefaultConfig(), catalog, zaptest.NewLogger(t))

	got, err := g.Generate(ctx, catalog.words[1], 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestDistractorGenerator_StopsWithoutLoopingForeverWhenCatalogExhausted(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{words: []Word{
		{ID: 1, DifficultyRank: 50, TargetForm: "only-other"},
		{ID: 2, DifficultyRank: 55, TargetForm: "correct"},
	}}
	g := NewDistractorGenerator(DefaultConfig(), catalog, zaptest.NewLogger(t))

	got, err := g.Generate(ctx, catalog.words[1], 5)
	require.NoError(t, err)
	assert.Len(t, got, 1, "only one other word exists in the entire catalog")
}

func TestDistractorGenerator_SkipsDuplicateSurfaceForms(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{words: []Word{
		{ID: 1, DifficultyRank: 48, TargetForm: "same"},
		{ID: 2, DifficultyRank: 49, TargetForm: "same"},
		{ID: 3, DifficultyRank: 51, TargetForm: "unique"},
		{ID: 4, DifficultyRank: 50, TargetForm: "correct"},
	}}
	g := NewDistractorGenerator(DefaultConfig(), catalog, zaptest.NewLogger(t))

	got, err := g.Generate(ctx, catalog.words[3], 2)
	require.NoError(t, err)

	forms := map[string]int{}
	for _, w := range got {
		forms[w.TargetForm]++
	}
	for form, count := range forms {
		assert.Equal(t, 1, count, "surface form %q duplicated in distractor set", form)
	}
}
