package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/game"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/levels"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/scorecard"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/store"
)

// fakeLevels is an in-memory levels.Provider.
type fakeLevels struct {
	games   []game.Info
	initial map[string]game.Grid
	final   map[string]game.Grid
	rules   map[string]*game.ToggleRule
	ruleErr map[string]error
}

func (f *fakeLevels) ListGames(context.Context) ([]game.Info, error) { return f.games, nil }

func (f *fakeLevels) InitialGrid(_ context.Context, gameID, _ string) (game.Grid, bool, error) {
	g, ok := f.initial[gameID]
	return g, ok, nil
}

func (f *fakeLevels) FinalGrid(_ context.Context, gameID, _ string) (game.Grid, bool, error) {
	g, ok := f.final[gameID]
	return g, ok, nil
}

func (f *fakeLevels) Rule(_ context.Context, gameID string) (*game.ToggleRule, bool, error) {
	if err := f.ruleErr[gameID]; err != nil {
		return nil, false, err
	}
	r, ok := f.rules[gameID]
	return r, ok, nil
}

func newFixture(t *testing.T) (*Engine, *fakeLevels) {
	t.Helper()
	toggle, err := levels.DefaultRule()
	require.NoError(t, err)
	lp := &fakeLevels{
		games: []game.Info{{GameID: "G", Title: "G"}, {GameID: "ls20", Title: "LS20"}, {GameID: "open", Title: "Open"}},
		initial: map[string]game.Grid{
			"G":    game.Fill(0),
			"ls20": game.Fill(9),
		},
		final: map[string]game.Grid{
			"G":    game.Fill(0),
			"ls20": game.Fill(8),
		},
		rules: map[string]*game.ToggleRule{"ls20": toggle},
	}
	e := New(store.NewMemoryStore(), scorecard.NewAggregator(scorecard.NewMemoryStore()), lp, DefaultConfig())
	return e, lp
}

func openCard(t *testing.T, e *Engine) string {
	t.Helper()
	id, err := e.OpenScorecard(context.Background(), scorecard.OpenRequest{APIKey: "k"})
	require.NoError(t, err)
	return id
}

func click(x, y int) game.Action {
	return game.Action{ID: game.ClickAction, Coords: &game.Point{X: x, Y: y}}
}

func TestExactMatchOnFirstActionWins(t *testing.T) {
	ctx := context.Background()
	e, _ := newFixture(t)
	card := openCard(t, e)

	f, err := e.Reset(ctx, ResetCommand{GameID: "G", CardID: card})
	require.NoError(t, err)
	assert.Equal(t, game.StateNotFinished, f.State)
	assert.Zero(t, f.Score)
	assert.NotEmpty(t, f.GUID)

	f, err = e.Action(ctx, ActionCommand{GameID: "G", GUID: f.GUID, Action: game.Action{ID: 1}})
	require.NoError(t, err)
	assert.Equal(t, game.StateWin, f.State)
	assert.Equal(t, 1, f.Score)

	sum, err := e.Scorecard(ctx, card)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Won)
	assert.Equal(t, 1, sum.Score)
	assert.Equal(t, 1, sum.TotalActions)
	assert.Equal(t, []game.State{game.StateWin}, sum.Cards["G"].States)
}

func TestResetValidation(t *testing.T) {
	ctx := context.Background()
	e, _ := newFixture(t)
	card := openCard(t, e)

	_, err := e.Reset(ctx, ResetCommand{GameID: "nope", CardID: card})
	assert.ErrorIs(t, err, game.ErrUnknownGame)

	_, err = e.Reset(ctx, ResetCommand{GameID: "G", CardID: "nope"})
	assert.ErrorIs(t, err, game.ErrUnknownCard)

	_, err = e.Reset(ctx, ResetCommand{GameID: "G", CardID: card, GUID: "nope"})
	assert.ErrorIs(t, err, game.ErrInvalidSession)

	sum, err := e.Scorecard(ctx, card)
	require.NoError(t, err)
	assert.Zero(t, sum.Played)
}

func TestResetWithGuidReplaysInPlace(t *testing.T) {
	ctx := context.Background()
	e, _ := newFixture(t)
	card := openCard(t, e)

	first, err := e.Reset(ctx, ResetCommand{GameID: "ls20", CardID: card})
	require.NoError(t, err)
	_, err = e.Action(ctx, ActionCommand{GameID: "ls20", GUID: first.GUID, Action: click(5, 11)})
	require.NoError(t, err)

	again, err := e.Reset(ctx, ResetCommand{GameID: "ls20", CardID: card, GUID: first.GUID})
	require.NoError(t, err)
	assert.Equal(t, first.GUID, again.GUID)
	assert.Equal(t, game.Fill(9), again.Grid)
	assert.Equal(t, game.StateNotFinished, again.State)
	assert.Zero(t, again.Score)

	fresh, err := e.Reset(ctx, ResetCommand{GameID: "ls20", CardID: card})
	require.NoError(t, err)
	assert.NotEqual(t, first.GUID, fresh.GUID)

	sum, err := e.Scorecard(ctx, card)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Played)
	assert.Equal(t, []int{1, 0, 0}, sum.Cards["ls20"].Actions)

	_, err = e.Reset(ctx, ResetCommand{GameID: "G", CardID: card, GUID: first.GUID})
	assert.ErrorIs(t, err, game.ErrSessionMismatch)
}

func TestActionValidationHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	e, _ := newFixture(t)
	card := openCard(t, e)
	f, err := e.Reset(ctx, ResetCommand{GameID: "ls20", CardID: card})
	require.NoError(t, err)

	_, err = e.Action(ctx, ActionCommand{GameID: "ls20", GUID: "nope", Action: game.Action{ID: 1}})
	assert.ErrorIs(t, err, game.ErrInvalidSession)

	_, err = e.Action(ctx, ActionCommand{GameID: "G", GUID: f.GUID, Action: click(5, 11)})
	assert.ErrorIs(t, err, game.ErrSessionMismatch)

	_, err = e.Action(ctx, ActionCommand{GameID: "ls20", GUID: f.GUID, Action: click(64, 11)})
	assert.ErrorIs(t, err, game.ErrInvalidAction)

	_, err = e.Action(ctx, ActionCommand{GameID: "ls20", GUID: f.GUID, Action: game.Action{ID: 9}})
	assert.ErrorIs(t, err, game.ErrInvalidAction)

	sum, err := e.Scorecard(ctx, card)
	require.NoError(t, err)
	assert.Zero(t, sum.TotalActions)
	assert.Equal(t, []int{0}, sum.Cards["ls20"].Actions)
}

func TestTogglePuzzleToWin(t *testing.T) {
	ctx := context.Background()
	e, _ := newFixture(t)
	card := openCard(t, e)
	f, err := e.Reset(ctx, ResetCommand{GameID: "ls20", CardID: card})
	require.NoError(t, err)

	// Outside every block: no-op frame, still counted.
	f, err = e.Action(ctx, ActionCommand{GameID: "ls20", GUID: f.GUID, Action: click(0, 0)})
	require.NoError(t, err)
	assert.True(t, f.Action.NoOp)
	assert.Equal(t, game.Fill(9), f.Grid)

	for _, p := range [][2]int{{20, 10}, {4, 26}, {36, 26}} {
		f, err = e.Action(ctx, ActionCommand{GameID: "ls20", GUID: f.GUID, Action: click(p[0], p[1])})
		require.NoError(t, err)
		assert.True(t, f.Action.Toggled)
		assert.Equal(t, game.StateNotFinished, f.State)
	}
	f, err = e.Action(ctx, ActionCommand{GameID: "ls20", GUID: f.GUID, Action: click(31, 53)})
	require.NoError(t, err)
	assert.Equal(t, game.StateWin, f.State)
	assert.True(t, f.Action.WinAchieved)
	assert.Equal(t, &game.Region{X1: 20, Y1: 42, X2: 31, Y2: 53}, f.Action.Block)

	// WIN is terminal for every later command.
	for _, a := range []game.Action{{ID: 1}, click(4, 10), {ID: 5}} {
		f, err = e.Action(ctx, ActionCommand{GameID: "ls20", GUID: f.GUID, Action: a})
		require.NoError(t, err)
		assert.Equal(t, game.StateWin, f.State)
	}

	sum, err := e.ScorecardForGame(ctx, card, "ls20")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Won)
	assert.Equal(t, 8, sum.TotalActions)
	assert.Equal(t, []int{8}, sum.Cards["ls20"].Actions)
}

func TestGenericScoringAndFallback(t *testing.T) {
	ctx := context.Background()
	e, _ := newFixture(t)
	card := openCard(t, e)

	// ls20 with a non-click action is scored by cell match: 0 of 4096 cells red.
	f, err := e.Reset(ctx, ResetCommand{GameID: "ls20", CardID: card})
	require.NoError(t, err)
	f, err = e.Action(ctx, ActionCommand{GameID: "ls20", GUID: f.GUID, Action: game.Action{ID: 2}})
	require.NoError(t, err)
	assert.Zero(t, f.Score)
	assert.Equal(t, game.StateNotFinished, f.State)

	// "open" has no level data: placeholder grid and +1 per action.
	f, err = e.Reset(ctx, ResetCommand{GameID: "open", CardID: card})
	require.NoError(t, err)
	assert.Equal(t, game.Placeholder(), f.Grid)
	for i := 1; i <= 3; i++ {
		f, err = e.Action(ctx, ActionCommand{GameID: "open", GUID: f.GUID, Action: game.Action{ID: 3}})
		require.NoError(t, err)
		assert.Equal(t, i, f.Score)
	}

	sum, err := e.ScorecardForGame(ctx, card, "open")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, sum.Cards["open"].Scores)
	assert.Zero(t, sum.Won)

	_, err = e.ScorecardForGame(ctx, card, "G")
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestConfiguredWinScore(t *testing.T) {
	ctx := context.Background()
	_, lp := newFixture(t)
	e := New(store.NewMemoryStore(), scorecard.NewAggregator(scorecard.NewMemoryStore()), lp, Config{WinScore: 100})
	card := openCard(t, e)

	f, err := e.Reset(ctx, ResetCommand{GameID: "G", CardID: card})
	require.NoError(t, err)
	f, err = e.Action(ctx, ActionCommand{GameID: "G", GUID: f.GUID, Action: game.Action{ID: 4}})
	require.NoError(t, err)
	assert.Equal(t, 100, f.Score)
	assert.Equal(t, 100, f.WinScore)

	sum, err := e.Scorecard(ctx, card)
	require.NoError(t, err)
	assert.Equal(t, []int{100}, sum.Cards["G"].Scores)
	assert.Equal(t, 1, sum.Score)
}

func TestConcurrentActionsOnOneGuid(t *testing.T) {
	ctx := context.Background()
	e, _ := newFixture(t)
	card := openCard(t, e)
	f, err := e.Reset(ctx, ResetCommand{GameID: "ls20", CardID: card})
	require.NoError(t, err)

	// An even number of clicks on one block leaves it as it started.
	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Action(ctx, ActionCommand{GameID: "ls20", GUID: f.GUID, Action: click(8, 14)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sum, err := e.Scorecard(ctx, card)
	require.NoError(t, err)
	assert.Equal(t, n, sum.TotalActions)
	assert.Equal(t, []int{n}, sum.Cards["ls20"].Actions)

	last, err := e.Action(ctx, ActionCommand{GameID: "ls20", GUID: f.GUID, Action: click(0, 0)})
	require.NoError(t, err)
	assert.Equal(t, game.Fill(9), last.Grid)
}

func TestListGames(t *testing.T) {
	e, _ := newFixture(t)
	games, err := e.ListGames(context.Background())
	require.NoError(t, err)
	assert.Len(t, games, 3)
}

func TestCloseEmptyScorecard(t *testing.T) {
	ctx := context.Background()
	e, _ := newFixture(t)
	card := openCard(t, e)
	sum, err := e.CloseScorecard(ctx, card)
	require.NoError(t, err)
	assert.Zero(t, sum.Played)
	assert.Zero(t, sum.Won)
	assert.Zero(t, sum.Score)
	assert.Empty(t, sum.Cards)

	_, err = e.CloseScorecard(ctx, "nope")
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestBrokenDescriptorFallsBackToCellMatch(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	lvl := filepath.Join(root, "g1", "level_1")
	require.NoError(t, os.MkdirAll(lvl, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "g1", levels.RuleFile), []byte("kind: nope\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(lvl, "initial.json"), []byte(`{"grid":[[1]]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(lvl, "final.json"), []byte(`{"grid":[[0]]}`), 0o644))

	e := New(store.NewMemoryStore(), scorecard.NewAggregator(scorecard.NewMemoryStore()), levels.NewDirProvider(root), DefaultConfig())
	card := openCard(t, e)
	f, err := e.Reset(ctx, ResetCommand{GameID: "g1", CardID: card})
	require.NoError(t, err)

	f, err = e.Action(ctx, ActionCommand{GameID: "g1", GUID: f.GUID, Action: game.Action{ID: 1}})
	require.NoError(t, err)
	assert.Equal(t, game.StateNotFinished, f.State)
	assert.Equal(t, 4095*100/game.CellCount, f.Score)

	f, err = e.Action(ctx, ActionCommand{GameID: "g1", GUID: f.GUID, Action: click(0, 0)})
	require.NoError(t, err)
	assert.False(t, f.Action.Toggled)
	assert.Equal(t, 4095*100/game.CellCount, f.Score)

	_, err = e.Action(ctx, ActionCommand{GameID: "g1", GUID: "missing", Action: game.Action{ID: 1}})
	assert.ErrorIs(t, err, game.ErrInvalidSession)
}

func TestSessionCheckedBeforeRuleLoad(t *testing.T) {
	ctx := context.Background()
	e, lp := newFixture(t)
	lp.ruleErr = map[string]error{"ls20": errors.New("disk gone")}
	card := openCard(t, e)
	g, err := e.Reset(ctx, ResetCommand{GameID: "G", CardID: card})
	require.NoError(t, err)

	_, err = e.Action(ctx, ActionCommand{GameID: "ls20", GUID: "missing", Action: game.Action{ID: 1}})
	assert.ErrorIs(t, err, game.ErrInvalidSession)

	_, err = e.Action(ctx, ActionCommand{GameID: "ls20", GUID: g.GUID, Action: game.Action{ID: 1}})
	assert.ErrorIs(t, err, game.ErrSessionMismatch)

	sum, err := e.Scorecard(ctx, card)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.TotalActions)
}

func TestStateAndScoreStayInRange(t *testing.T) {
	ctx := context.Background()
	e, _ := newFixture(t)
	card := openCard(t, e)

	for _, id := range []string{"G", "ls20", "open"} {
		f, err := e.Reset(ctx, ResetCommand{GameID: id, CardID: card})
		require.NoError(t, err)
		require.True(t, f.State.Valid())

		for i := 0; i < 300; i++ {
			a := game.Action{ID: i%game.ClickAction + 1}
			if a.ID == game.ClickAction {
				a.Coords = &game.Point{X: (i * 7) % game.GridSize, Y: (i * 13) % game.GridSize}
			}
			f, err = e.Action(ctx, ActionCommand{GameID: id, GUID: f.GUID, Action: a})
			require.NoError(t, err)
			require.True(t, f.State.Valid(), "%s action %d: state %q", id, i, f.State)
			require.GreaterOrEqual(t, f.Score, 0)
			require.LessOrEqual(t, f.Score, game.MaxScore)
		}
		if id == "open" {
			assert.Equal(t, game.MaxScore, f.Score)
		}
	}
	assert.False(t, game.State("PAUSED").Valid())
}
