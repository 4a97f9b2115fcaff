// internal/game/types.go
//
// Core type definitions for the ARC grid puzzle engine.
// Defines:
//   - State: lifecycle of a single game session.
//   - Grid: fixed 64x64 matrix of 4-bit palette colors.
//   - Session: state for one game instance addressed by its guid.
//   - Action / Frame: command input and the snapshot returned to callers.

package game

import (
	"encoding/json"
	"time"
)

const (
	GridSize     = 64                  // grid is always GridSize x GridSize
	CellCount    = GridSize * GridSize // 4096 cells
	MaxColor     = 15                  // 4-bit palette: 0..15
	MaxScore     = 254                 // score is clamped to 0..254
	DefaultLevel = "level_1"           // every reset starts at the first level
	ClickAction  = 6                   // the only action that carries coordinates
)

// State is the lifecycle state of a session.
type State string

const (
	StateNotStarted  State = "NOT_STARTED"
	StateNotFinished State = "NOT_FINISHED"
	StateWin         State = "WIN"
	StateGameOver    State = "GAME_OVER" // reserved; no rule produces it
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateNotStarted, StateNotFinished, StateWin, StateGameOver:
		return true
	}
	return false
}

// Info describes a playable game as listed by a level provider.
type Info struct {
	GameID string `json:"game_id"`
	Title  string `json:"title"`
}

// Session holds the state of a single game instance.
type Session struct {
	ID           string    // guid handed to callers
	GameID       string    // immutable after creation
	CardID       string    // scorecard the current play is recorded on
	Level        string    // level id, e.g. "level_1"
	State        State     // current lifecycle state
	Score        int       // 0..MaxScore
	ActionsTaken int       // actions since the last reset
	Grid         Grid      // current frame
	CreatedAt    time.Time // first reset under this guid
}

// Point is a clicked cell; X is the column and Y the row.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InBounds reports whether p addresses a cell of the grid.
func (p Point) InBounds() bool {
	return p.X >= 0 && p.X < GridSize && p.Y >= 0 && p.Y < GridSize
}

// Action is one discrete command applied to a session.
type Action struct {
	ID        int            // 1..6
	Coords    *Point         // set only for ClickAction
	Reasoning map[string]any // opaque caller payload, echoed back
}

// ActionInput echoes the applied action back to the caller together with
// what the region toggle rule did with it.
type ActionInput struct {
	ID          int            `json:"id"`
	Data        map[string]any `json:"data"`
	Reasoning   map[string]any `json:"reasoning,omitempty"`
	Toggled     bool           `json:"toggled,omitempty"`
	NoOp        bool           `json:"no_op,omitempty"`
	Block       *Region        `json:"block_coords,omitempty"`
	WinAchieved bool           `json:"win_achieved,omitempty"`
}

// Frame is one grid snapshot plus the state/score describing a session.
type Frame struct {
	GameID   string
	GUID     string
	Grid     Grid
	State    State
	Score    int
	WinScore int
	Action   ActionInput
}

// MarshalJSON renders the frame in the wire shape, where "frame" is a list
// holding exactly one grid.
func (f Frame) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		GameID   string      `json:"game_id"`
		GUID     string      `json:"guid"`
		Frame    []Grid      `json:"frame"`
		State    State       `json:"state"`
		Score    int         `json:"score"`
		WinScore int         `json:"win_score"`
		Action   ActionInput `json:"action_input"`
	}{f.GameID, f.GUID, []Grid{f.Grid}, f.State, f.Score, f.WinScore, f.Action})
}

// ClampScore bounds a score to 0..MaxScore.
func ClampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxScore {
		return MaxScore
	}
	return n
}
