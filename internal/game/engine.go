// internal/game/engine.go
//
// Rule engine for a single grid puzzle session.
// Responsibilities:
//   - Reset a session to a level's initial grid.
//   - Validate and apply actions, choosing between the region toggle rule
//     (click action on a game with a descriptor) and the generic cell-match rule.
//   - Track state transitions: NOT_FINISHED → WIN. WIN is terminal until the
//     next reset; there is no losing transition.
//
// Notes:
//   - Session.Apply only mutates the receiver, callers hand it a copy and
//     commit on success (see the store package).

package game

import (
	"fmt"
	"time"
)

// Rule names reported in an Outcome.
const (
	RuleRegionToggle = "region_toggle"
	RuleCellMatch    = "cell_match"
	RuleFallback     = "fallback" // no final grid; score counts actions
)

// Rules bundles what a game+level contributes to scoring an action.
type Rules struct {
	Toggle   *ToggleRule // nil when the game has no descriptor
	Final    *Grid       // nil when the level has no final grid
	WinScore int         // score assigned on a win
}

// Outcome describes what an applied action did.
type Outcome struct {
	Input     ActionInput
	Rule      string
	BecameWin bool
}

// NewSession constructs a freshly reset session.
func NewSession(id, gameID, cardID string, initial Grid) *Session {
	s := &Session{ID: id, GameID: gameID, CreatedAt: time.Now().UTC()}
	s.Reset(cardID, DefaultLevel, initial)
	return s
}

// Reset reinitializes the session in place, keeping its id and game.
func (s *Session) Reset(cardID, level string, initial Grid) {
	s.CardID = cardID
	s.Level = level
	s.State = StateNotFinished
	s.Score = 0
	s.ActionsTaken = 0
	s.Grid = initial
}

// ValidateAction checks an action without touching any session.
func ValidateAction(a Action) error {
	if a.ID < 1 || a.ID > ClickAction {
		return fmt.Errorf("%w: id %d", ErrInvalidAction, a.ID)
	}
	if a.Coords != nil {
		if a.ID != ClickAction {
			return fmt.Errorf("%w: coordinates only apply to action %d", ErrInvalidAction, ClickAction)
		}
		if !a.Coords.InBounds() {
			return fmt.Errorf("%w: (%d,%d) outside 0..%d", ErrInvalidAction, a.Coords.X, a.Coords.Y, GridSize-1)
		}
	}
	return nil
}

// Apply validates a and applies it to the session.
//
// Every accepted action counts towards ActionsTaken, including clicks that
// land outside all regions. Once the session is won, grid changes are still
// applied but state and score stay frozen.
func (s *Session) Apply(a Action, r Rules) (Outcome, error) {
	if err := ValidateAction(a); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Input: ActionInput{ID: a.ID, Data: map[string]any{}, Reasoning: a.Reasoning}}
	if a.Coords != nil {
		out.Input.Data["x"] = a.Coords.X
		out.Input.Data["y"] = a.Coords.Y
	}
	won := s.State == StateWin

	if a.ID == ClickAction && a.Coords != nil && r.Toggle != nil {
		out.Rule = RuleRegionToggle
		region, hit := r.Toggle.Toggle(&s.Grid, *a.Coords)
		if !hit {
			out.Input.NoOp = true
		} else {
			out.Input.Toggled = true
			out.Input.Block = &region
			if !won && r.Toggle.Won(&s.Grid) {
				s.win(r.WinScore, &out)
			}
		}
	} else if r.Final != nil {
		out.Rule = RuleCellMatch
		matched := s.Grid.Matches(r.Final)
		if !won {
			s.Score = ClampScore(matched * 100 / CellCount)
			if matched == CellCount {
				s.win(r.WinScore, &out)
			} else {
				s.State = StateNotFinished
			}
		}
	} else {
		out.Rule = RuleFallback
		if !won {
			s.Score = ClampScore(s.Score + 1)
		}
	}

	s.ActionsTaken++
	return out, nil
}

func (s *Session) win(score int, out *Outcome) {
	s.State = StateWin
	s.Score = ClampScore(score)
	out.BecameWin = true
	out.Input.WinAchieved = true
}

// Toggle flips the region containing p and reports which one, if any.
// On becomes Off, Off becomes On, and any other color becomes Off.
func (t *ToggleRule) Toggle(g *Grid, p Point) (Region, bool) {
	for _, r := range t.Regions {
		if !r.Contains(p) {
			continue
		}
		for y := r.Y1; y <= r.Y2; y++ {
			for x := r.X1; x <= r.X2; x++ {
				if g[y][x] == t.Colors.Off {
					g[y][x] = t.Colors.On
				} else {
					g[y][x] = t.Colors.Off
				}
			}
		}
		return r, true
	}
	return Region{}, false
}

// Won reports whether every winning region is entirely the On color.
func (t *ToggleRule) Won(g *Grid) bool {
	for _, r := range t.Win {
		if !g.RegionIs(r, t.Colors.On) {
			return false
		}
	}
	return true
}
