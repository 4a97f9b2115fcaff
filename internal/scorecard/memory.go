package scorecard

import (
	"context"
	"fmt"
	"sync"

	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/game"
)

// Store persists scorecards. View and Update run their callback while
// holding the card's lock, so one lock per card id covers all its GameCards.
type Store interface {
	Create(ctx context.Context, c *Scorecard) error
	View(ctx context.Context, id string, fn func(c *Scorecard) error) error
	Update(ctx context.Context, id string, fn func(c *Scorecard) error) error
}

type cardEntry struct {
	mu   sync.Mutex
	card *Scorecard
}

type memory struct {
	mu    sync.RWMutex
	cards map[string]*cardEntry
}

// NewMemoryStore constructs an in-memory scorecard Store.
func NewMemoryStore() Store {
	return &memory{cards: make(map[string]*cardEntry)}
}

func (m *memory) Create(ctx context.Context, c *Scorecard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[c.CardID]; ok {
		return fmt.Errorf("scorecard %s already exists", c.CardID)
	}
	m.cards[c.CardID] = &cardEntry{card: c}
	return nil
}

func (m *memory) View(ctx context.Context, id string, fn func(c *Scorecard) error) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.card)
}

// Update callbacks must validate before mutating; a returned error does not
// roll anything back.
func (m *memory) Update(ctx context.Context, id string, fn func(c *Scorecard) error) error {
	return m.View(ctx, id, fn)
}

func (m *memory) lookup(id string) (*cardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.cards[id]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: scorecard %s", game.ErrNotFound, id)
}
