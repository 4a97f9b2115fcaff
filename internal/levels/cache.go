package levels

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/game"
)

// Cache memoizes a Provider for up to ttl per entry, absent results included.
// Concurrent misses for the same key share one load. Errors are not cached.
type Cache struct {
	src   Provider
	ttl   time.Duration // <= 0 keeps entries until Invalidate
	now   func() time.Time
	group singleflight.Group

	mu      sync.RWMutex
	games   []game.Info
	gamesAt time.Time
	grids   map[string]gridResult
	rules   map[string]ruleResult
}

type gridResult struct {
	grid game.Grid
	ok   bool
	at   time.Time
}

type ruleResult struct {
	rule *game.ToggleRule
	ok   bool
	at   time.Time
}

// NewCache wraps src. Entries older than ttl are reloaded on next use.
func NewCache(src Provider, ttl time.Duration) *Cache {
	return &Cache{
		src:   src,
		ttl:   ttl,
		now:   time.Now,
		grids: make(map[string]gridResult),
		rules: make(map[string]ruleResult),
	}
}

// Invalidate drops everything cached so far.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.games = nil
	c.grids = make(map[string]gridResult)
	c.rules = make(map[string]ruleResult)
}

func (c *Cache) fresh(at time.Time) bool {
	return c.ttl <= 0 || c.now().Sub(at) < c.ttl
}

func (c *Cache) ListGames(ctx context.Context) ([]game.Info, error) {
	c.mu.RLock()
	games, at := c.games, c.gamesAt
	c.mu.RUnlock()
	if games != nil && c.fresh(at) {
		return append([]game.Info(nil), games...), nil
	}

	// Shared by every waiter; detached from the first caller's cancellation.
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do("games", func() (any, error) {
		games, err := c.src.ListGames(shared)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.games, c.gamesAt = games, c.now()
		c.mu.Unlock()
		return games, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]game.Info(nil), v.([]game.Info)...), nil
}

func (c *Cache) InitialGrid(ctx context.Context, gameID, level string) (game.Grid, bool, error) {
	shared := context.WithoutCancel(ctx)
	return c.grid("initial|"+gameID+"|"+level, func() (game.Grid, bool, error) {
		return c.src.InitialGrid(shared, gameID, level)
	})
}

func (c *Cache) FinalGrid(ctx context.Context, gameID, level string) (game.Grid, bool, error) {
	shared := context.WithoutCancel(ctx)
	return c.grid("final|"+gameID+"|"+level, func() (game.Grid, bool, error) {
		return c.src.FinalGrid(shared, gameID, level)
	})
}

func (c *Cache) Rule(ctx context.Context, gameID string) (*game.ToggleRule, bool, error) {
	key := "rule|" + gameID
	c.mu.RLock()
	r, hit := c.rules[key]
	c.mu.RUnlock()
	if hit && c.fresh(r.at) {
		return r.rule, r.ok, nil
	}

	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (any, error) {
		rule, ok, err := c.src.Rule(shared, gameID)
		if err != nil {
			return nil, err
		}
		res := ruleResult{rule: rule, ok: ok, at: c.now()}
		c.mu.Lock()
		c.rules[key] = res
		c.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(ruleResult)
	return res.rule, res.ok, nil
}

func (c *Cache) grid(key string, load func() (game.Grid, bool, error)) (game.Grid, bool, error) {
	c.mu.RLock()
	r, hit := c.grids[key]
	c.mu.RUnlock()
	if hit && c.fresh(r.at) {
		return r.grid, r.ok, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		g, ok, err := load()
		if err != nil {
			return nil, err
		}
		res := gridResult{grid: g, ok: ok, at: c.now()}
		c.mu.Lock()
		c.grids[key] = res
		c.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return game.Grid{}, false, err
	}
	res := v.(gridResult)
	return res.grid, res.ok, nil
}
