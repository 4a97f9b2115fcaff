package scorecard

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/game"
)

// Aggregator maintains run statistics on top of a Store.
type Aggregator struct {
	store Store
}

// NewAggregator wraps st.
func NewAggregator(st Store) *Aggregator {
	return &Aggregator{store: st}
}

// Open creates an empty scorecard and returns its id.
func (a *Aggregator) Open(ctx context.Context, req OpenRequest) (string, error) {
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	c := &Scorecard{
		CardID:    uuid.NewString(),
		APIKey:    req.APIKey,
		SourceURL: req.SourceURL,
		Tags:      append([]string(nil), tags...),
		Opaque:    req.Opaque,
		Cards:     make(map[string]*GameCard),
	}
	if err := a.store.Create(ctx, c); err != nil {
		return "", err
	}
	return c.CardID, nil
}

// Exists reports whether a scorecard with id is open.
func (a *Aggregator) Exists(ctx context.Context, id string) bool {
	return a.store.View(ctx, id, func(*Scorecard) error { return nil }) == nil
}

// OnReset records the start of a new play of gameID.
func (a *Aggregator) OnReset(ctx context.Context, cardID, gameID string, score int, state game.State) error {
	return a.update(ctx, cardID, func(c *Scorecard) error {
		gc, ok := c.Cards[gameID]
		if !ok {
			gc = &GameCard{GameID: gameID, Scores: []int{}, States: []game.State{}, Actions: []int{}}
			c.Cards[gameID] = gc
		}
		gc.TotalPlays++
		gc.Scores = append(gc.Scores, score)
		gc.States = append(gc.States, state)
		gc.Actions = append(gc.Actions, 0)
		c.Played++
		return nil
	})
}

// OnAction records one action against the most recent play of gameID.
func (a *Aggregator) OnAction(ctx context.Context, cardID, gameID string, score int, state game.State, becameWin bool) error {
	return a.update(ctx, cardID, func(c *Scorecard) error {
		gc, ok := c.Cards[gameID]
		if !ok || gc.TotalPlays == 0 {
			return fmt.Errorf("%w: game %s has no play on scorecard %s", game.ErrNotFound, gameID, cardID)
		}
		last := gc.TotalPlays - 1
		gc.TotalActions++
		gc.Actions[last]++
		gc.Scores[last] = score
		gc.States[last] = state
		c.TotalActions++
		if becameWin {
			gc.States[last] = game.StateWin
			c.Won++
			c.Score = 1
		}
		return nil
	})
}

// Get returns the full summary of a scorecard.
func (a *Aggregator) Get(ctx context.Context, cardID string) (Summary, error) {
	var out Summary
	err := a.store.View(ctx, cardID, func(c *Scorecard) error {
		out = c.summarize()
		return nil
	})
	return out, err
}

// Close returns the final summary. Closed cards stay readable.
func (a *Aggregator) Close(ctx context.Context, cardID string) (Summary, error) {
	return a.Get(ctx, cardID)
}

// GetFiltered returns a summary restricted to one game, with the totals
// recomputed from that game's card alone.
func (a *Aggregator) GetFiltered(ctx context.Context, cardID, gameID string) (Summary, error) {
	var out Summary
	err := a.store.View(ctx, cardID, func(c *Scorecard) error {
		gc, ok := c.Cards[gameID]
		if !ok {
			return fmt.Errorf("%w: game %s not in scorecard %s", game.ErrNotFound, gameID, cardID)
		}
		won := 0
		for _, st := range gc.States {
			if st == game.StateWin {
				won++
			}
		}
		out = c.summarize()
		out.Won = won
		out.Played = gc.TotalPlays
		out.TotalActions = gc.TotalActions
		out.Score = 0
		if won > 0 {
			out.Score = 1
		}
		out.Cards = map[string]GameCard{gameID: gc.clone()}
		return nil
	})
	return out, err
}

func (a *Aggregator) update(ctx context.Context, cardID string, fn func(c *Scorecard) error) error {
	err := a.store.Update(ctx, cardID, fn)
	if err != nil {
		return fmt.Errorf("scorecard %s: %w", cardID, err)
	}
	return nil
}
