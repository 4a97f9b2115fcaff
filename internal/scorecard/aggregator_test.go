package scorecard

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/game"
)

func newAggregator() *Aggregator { return NewAggregator(NewMemoryStore()) }

func TestOpenThenCloseIsEmpty(t *testing.T) {
	ctx := context.Background()
	a := newAggregator()
	id, err := a.Open(ctx, OpenRequest{APIKey: "k", SourceURL: "https://example.com/run", Tags: []string{"agent"}})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.True(t, a.Exists(ctx, id))

	sum, err := a.Close(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, sum.CardID)
	assert.Equal(t, "k", sum.APIKey)
	assert.Equal(t, "https://example.com/run", sum.SourceURL)
	assert.Equal(t, []string{"agent"}, sum.Tags)
	assert.Zero(t, sum.Played)
	assert.Zero(t, sum.Won)
	assert.Zero(t, sum.Score)
	assert.Empty(t, sum.Cards)
}

func TestUnknownCard(t *testing.T) {
	ctx := context.Background()
	a := newAggregator()
	assert.False(t, a.Exists(ctx, "nope"))
	_, err := a.Get(ctx, "nope")
	assert.ErrorIs(t, err, game.ErrNotFound)
	assert.ErrorIs(t, a.OnReset(ctx, "nope", "ls20", 0, game.StateNotFinished), game.ErrNotFound)
}

func TestParallelListsTrackPlays(t *testing.T) {
	ctx := context.Background()
	a := newAggregator()
	id, err := a.Open(ctx, OpenRequest{})
	require.NoError(t, err)

	require.NoError(t, a.OnReset(ctx, id, "ls20", 0, game.StateNotFinished))
	require.NoError(t, a.OnAction(ctx, id, "ls20", 10, game.StateNotFinished, false))
	require.NoError(t, a.OnAction(ctx, id, "ls20", 1, game.StateWin, true))
	require.NoError(t, a.OnReset(ctx, id, "ls20", 0, game.StateNotFinished))
	require.NoError(t, a.OnAction(ctx, id, "ls20", 3, game.StateNotFinished, false))
	require.NoError(t, a.OnReset(ctx, id, "ft09", 0, game.StateNotFinished))

	sum, err := a.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Played)
	assert.Equal(t, 1, sum.Won)
	assert.Equal(t, 1, sum.Score)
	assert.Equal(t, 3, sum.TotalActions)

	ls := sum.Cards["ls20"]
	assert.Equal(t, 2, ls.TotalPlays)
	assert.Equal(t, 3, ls.TotalActions)
	assert.Equal(t, []int{1, 3}, ls.Scores)
	assert.Equal(t, []game.State{game.StateWin, game.StateNotFinished}, ls.States)
	assert.Equal(t, []int{2, 1}, ls.Actions)

	ft := sum.Cards["ft09"]
	assert.Equal(t, 1, ft.TotalPlays)
	assert.Equal(t, []int{0}, ft.Actions)
}

func TestOnActionWithoutPlayFails(t *testing.T) {
	ctx := context.Background()
	a := newAggregator()
	id, err := a.Open(ctx, OpenRequest{})
	require.NoError(t, err)

	err = a.OnAction(ctx, id, "ls20", 1, game.StateWin, true)
	assert.ErrorIs(t, err, game.ErrNotFound)

	sum, err := a.Get(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, sum.Won)
	assert.Zero(t, sum.TotalActions)
}

func TestGetFilteredRecomputesTotals(t *testing.T) {
	ctx := context.Background()
	a := newAggregator()
	id, err := a.Open(ctx, OpenRequest{Tags: []string{"x"}})
	require.NoError(t, err)

	require.NoError(t, a.OnReset(ctx, id, "ls20", 0, game.StateNotFinished))
	require.NoError(t, a.OnAction(ctx, id, "ls20", 1, game.StateWin, true))
	require.NoError(t, a.OnReset(ctx, id, "ft09", 0, game.StateNotFinished))
	require.NoError(t, a.OnAction(ctx, id, "ft09", 4, game.StateNotFinished, false))
	require.NoError(t, a.OnAction(ctx, id, "ft09", 5, game.StateNotFinished, false))

	ft, err := a.GetFiltered(ctx, id, "ft09")
	require.NoError(t, err)
	assert.Zero(t, ft.Won)
	assert.Zero(t, ft.Score)
	assert.Equal(t, 1, ft.Played)
	assert.Equal(t, 2, ft.TotalActions)
	assert.Len(t, ft.Cards, 1)
	assert.Equal(t, []string{"x"}, ft.Tags)

	ls, err := a.GetFiltered(ctx, id, "ls20")
	require.NoError(t, err)
	assert.Equal(t, 1, ls.Won)
	assert.Equal(t, 1, ls.Score)

	_, err = a.GetFiltered(ctx, id, "never-played")
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestSummaryIsASnapshot(t *testing.T) {
	ctx := context.Background()
	a := newAggregator()
	id, err := a.Open(ctx, OpenRequest{})
	require.NoError(t, err)
	require.NoError(t, a.OnReset(ctx, id, "ls20", 0, game.StateNotFinished))

	sum, err := a.Get(ctx, id)
	require.NoError(t, err)
	require.NoError(t, a.OnAction(ctx, id, "ls20", 9, game.StateNotFinished, false))

	assert.Equal(t, []int{0}, sum.Cards["ls20"].Actions)
	assert.Equal(t, []int{0}, sum.Cards["ls20"].Scores)
}

func TestConcurrentReadersSeeAlignedLists(t *testing.T) {
	ctx := context.Background()
	a := newAggregator()
	id, err := a.Open(ctx, OpenRequest{})
	require.NoError(t, err)
	require.NoError(t, a.OnReset(ctx, id, "ls20", 0, game.StateNotFinished))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, a.OnReset(ctx, id, "ls20", 0, game.StateNotFinished))
			assert.NoError(t, a.OnAction(ctx, id, "ls20", 1, game.StateNotFinished, false))
		}()
		go func() {
			defer wg.Done()
			sum, err := a.Get(ctx, id)
			if assert.NoError(t, err) {
				c := sum.Cards["ls20"]
				assert.Len(t, c.Scores, c.TotalPlays)
				assert.Len(t, c.States, c.TotalPlays)
				assert.Len(t, c.Actions, c.TotalPlays)
			}
		}()
	}
	wg.Wait()

	sum, err := a.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 51, sum.Played)
	assert.Equal(t, 50, sum.TotalActions)
}
