// internal/scorecard/scorecard.go
//
// Scorecard aggregation for tracked runs.
// A scorecard is opened by a caller, collects one GameCard per game played
// under it, and is read back (get/close) as a Summary.
//
// GameCard keeps three parallel lists (scores, states, actions) with one
// entry per play; index i always describes play i.

package scorecard

import (
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/game"
)

// Scorecard is the stored aggregate for one card id.
type Scorecard struct {
	CardID       string
	APIKey       string
	SourceURL    string
	Tags         []string
	Opaque       map[string]any
	Won          int
	Played       int
	TotalActions int
	Score        int
	Cards        map[string]*GameCard
}

// GameCard is the per-game slice of a Scorecard.
type GameCard struct {
	GameID       string       `json:"game_id"`
	TotalPlays   int          `json:"total_plays"`
	TotalActions int          `json:"total_actions"`
	Scores       []int        `json:"scores"`
	States       []game.State `json:"states"`
	Actions      []int        `json:"actions"`
}

// clone deep-copies the card so readers never share slices with writers.
func (c *GameCard) clone() GameCard {
	out := *c
	out.Scores = append([]int(nil), c.Scores...)
	out.States = append([]game.State(nil), c.States...)
	out.Actions = append([]int(nil), c.Actions...)
	return out
}

// Summary is the read model returned by get/close.
type Summary struct {
	APIKey       string              `json:"api_key"`
	CardID       string              `json:"card_id"`
	Won          int                 `json:"won"`
	Played       int                 `json:"played"`
	TotalActions int                 `json:"total_actions"`
	Score        int                 `json:"score"`
	SourceURL    string              `json:"source_url,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	Opaque       map[string]any      `json:"opaque,omitempty"`
	Cards        map[string]GameCard `json:"cards"`
}

// OpenRequest carries the optional metadata of a new scorecard.
type OpenRequest struct {
	APIKey    string
	SourceURL string
	Tags      []string
	Opaque    map[string]any
}

// summarize builds a Summary; callers hold the card lock.
func (s *Scorecard) summarize() Summary {
	out := Summary{
		APIKey:       s.APIKey,
		CardID:       s.CardID,
		Won:          s.Won,
		Played:       s.Played,
		TotalActions: s.TotalActions,
		SourceURL:    s.SourceURL,
		Tags:         append([]string{}, s.Tags...),
		Opaque:       s.Opaque,
		Cards:        make(map[string]GameCard, len(s.Cards)),
	}
	if s.Won > 0 {
		out.Score = 1
	}
	for id, c := range s.Cards {
		out.Cards[id] = c.clone()
	}
	return out
}
