// internal/levels/provider.go
//
// Level data for the engine.
//
// Responsibilities:
//   - Define the Provider interface the engine consumes (game list, initial
//     and final grids per level, optional rule descriptor per game).
//   - Offer a JSON directory provider (dir.go), a SQLite catalog (sqlite.go)
//     and a memoizing wrapper (cache.go).
//
// Absent level data is not an error: a missing initial grid makes the engine
// serve a placeholder, a missing final grid switches scoring to the
// action-count fallback, and a missing descriptor selects the cell-match rule.

package levels

import (
	"context"
	"strings"
	"unicode"

	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/game"
)

// Provider supplies per game+level grids.
type Provider interface {
	ListGames(ctx context.Context) ([]game.Info, error)
	InitialGrid(ctx context.Context, gameID, level string) (game.Grid, bool, error)
	FinalGrid(ctx context.Context, gameID, level string) (game.Grid, bool, error)
	Rule(ctx context.Context, gameID string) (*game.ToggleRule, bool, error)
}

// Source is a Provider that can also enumerate its raw contents, which is
// what Import needs to copy it into a catalog.
type Source interface {
	Provider
	Levels(ctx context.Context, gameID string) ([]string, error)
	RuleSource(ctx context.Context, gameID string) ([]byte, bool, error)
}

// HasGame reports whether p lists gameID.
func HasGame(ctx context.Context, p Provider, gameID string) (bool, error) {
	games, err := p.ListGames(ctx)
	if err != nil {
		return false, err
	}
	for _, g := range games {
		if g.GameID == gameID {
			return true, nil
		}
	}
	return false, nil
}

// defaultTitle derives a display title from a game id:
// "ls20-016295f7601e" → "Ls20 016295F7601E".
func defaultTitle(gameID string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range strings.ReplaceAll(gameID, "-", " ") {
		switch {
		case unicode.IsLetter(r) && !prevLetter:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}
