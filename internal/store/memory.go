// internal/store/memory.go
//
// In-memory implementation of the session Store.
// Sessions live for the lifetime of the process; there is no deletion.
//
// Characteristics:
//   - Sessions keyed by guid in a map guarded by an RWMutex (map shape only).
//   - Each session carries its own mutex, so commands against one guid are
//     serialized while different guids proceed in parallel.
//   - Update hands the callback a copy and commits only on success, which
//     makes every command all-or-nothing.

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/game"
)

// ErrExists is returned by Create for a guid that is already stored.
var ErrExists = errors.New("session already exists")

// Store defines the persistence interface for game sessions.
// Implementations may be backed by memory (this package), Redis, SQL, etc.
type Store interface {
	// Create stores a new session under s.ID.
	Create(ctx context.Context, s game.Session) error

	// Get returns a snapshot of the session.
	// Returns game.ErrInvalidSession if the guid is unknown.
	Get(ctx context.Context, id string) (game.Session, error)

	// Update runs fn against a copy of the session while holding the
	// session's lock and stores the copy if fn returns nil.
	Update(ctx context.Context, id string, fn func(s *game.Session) error) (game.Session, error)

	// Len reports how many sessions are stored.
	Len() int
}

// entry pairs a session with the lock serializing its commands.
type entry struct {
	mu      sync.Mutex
	session game.Session
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex      // guards sessions map
	sessions map[string]*entry // keyed by Session.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*entry)}
}

// Create adds a session; an existing guid is never overwritten.
func (m *memory) Create(ctx context.Context, s game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("%w: %s", ErrExists, s.ID)
	}
	m.sessions[s.ID] = &entry{session: s}
	return nil
}

// Get looks up a session by guid and returns a copy.
func (m *memory) Get(ctx context.Context, id string) (game.Session, error) {
	e, err := m.lookup(id)
	if err != nil {
		return game.Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session, nil
}

// Update applies fn under the session lock.
func (m *memory) Update(ctx context.Context, id string, fn func(s *game.Session) error) (game.Session, error) {
	e, err := m.lookup(id)
	if err != nil {
		return game.Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.session
	if err := fn(&next); err != nil {
		return e.session, err
	}
	e.session = next
	return next, nil
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *memory) lookup(id string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.sessions[id]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", game.ErrInvalidSession, id)
}
