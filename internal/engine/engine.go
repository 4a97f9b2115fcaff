// internal/engine/engine.go
//
// Action execution engine.
// Responsibilities:
//   - Open/close/read scorecards.
//   - RESET: validate game/card/guid, load the level's initial grid, create or
//     reinitialize the session and record a new play on the scorecard.
//   - ACTION: validate the command, apply the game's rule to the session and
//     record the action on the scorecard.
//
// Notes:
//   - All validation happens before any store is touched. The session update
//     and its scorecard bookkeeping run under the session's lock, and the
//     session is only committed when the scorecard accepted the update.
//   - Lock order is always session → scorecard.

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/game"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/levels"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/scorecard"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/store"
)

// Config tunes the engine.
type Config struct {
	WinScore int // score assigned to a session on WIN
}

// DefaultConfig awards a score of 1 on WIN.
func DefaultConfig() Config { return Config{WinScore: 1} }

// Engine executes commands against sessions and scorecards.
type Engine struct {
	sessions store.Store
	cards    *scorecard.Aggregator
	levels   levels.Provider
	cfg      Config
}

// New wires an engine.
func New(sessions store.Store, cards *scorecard.Aggregator, lp levels.Provider, cfg Config) *Engine {
	cfg.WinScore = game.ClampScore(cfg.WinScore)
	return &Engine{sessions: sessions, cards: cards, levels: lp, cfg: cfg}
}

// ResetCommand starts or replays a game.
type ResetCommand struct {
	GameID string
	CardID string
	GUID   string // empty → new session
}

// ActionCommand applies one action to an existing session.
type ActionCommand struct {
	GameID string
	GUID   string
	Action game.Action
}

// ----------------------------- games ---------------------------------------

// ListGames returns the games known to the level provider.
func (e *Engine) ListGames(ctx context.Context) ([]game.Info, error) {
	return e.levels.ListGames(ctx)
}

// --------------------------- scorecards ------------------------------------

// OpenScorecard creates an empty scorecard.
func (e *Engine) OpenScorecard(ctx context.Context, req scorecard.OpenRequest) (string, error) {
	id, err := e.cards.Open(ctx, req)
	if err != nil {
		return "", err
	}
	scorecardsOpened.Inc()
	log.Info().Str("card_id", id).Strs("tags", req.Tags).Msg("scorecard opened")
	return id, nil
}

// CloseScorecard returns the final summary of a scorecard.
func (e *Engine) CloseScorecard(ctx context.Context, cardID string) (scorecard.Summary, error) {
	sum, err := e.cards.Close(ctx, cardID)
	if err != nil {
		return sum, err
	}
	log.Info().Str("card_id", cardID).Int("won", sum.Won).Int("played", sum.Played).Msg("scorecard closed")
	return sum, nil
}

// Scorecard returns the current summary of a scorecard.
func (e *Engine) Scorecard(ctx context.Context, cardID string) (scorecard.Summary, error) {
	return e.cards.Get(ctx, cardID)
}

// ScorecardForGame returns a summary restricted to gameID.
func (e *Engine) ScorecardForGame(ctx context.Context, cardID, gameID string) (scorecard.Summary, error) {
	return e.cards.GetFiltered(ctx, cardID, gameID)
}

// ------------------------------ reset --------------------------------------

// Reset starts a new play. Without a guid a fresh session is created; with a
// known guid that session is reinitialized in place.
func (e *Engine) Reset(ctx context.Context, cmd ResetCommand) (game.Frame, error) {
	if err := e.validateReset(ctx, cmd); err != nil {
		rejectedTotal.WithLabelValues("reset", reason(err)).Inc()
		log.Debug().Err(err).Str("game_id", cmd.GameID).Str("guid", cmd.GUID).Msg("reset rejected")
		return game.Frame{}, err
	}

	initial, ok, err := e.levels.InitialGrid(ctx, cmd.GameID, game.DefaultLevel)
	if err != nil {
		return game.Frame{}, fmt.Errorf("load initial grid: %w", err)
	}
	if !ok {
		initial = game.Placeholder()
	}

	var sess game.Session
	kind := "existing"
	if cmd.GUID == "" {
		kind = "new"
		sess = *game.NewSession(uuid.NewString(), cmd.GameID, cmd.CardID, initial)
		if err := e.cards.OnReset(ctx, cmd.CardID, cmd.GameID, sess.Score, sess.State); err != nil {
			return game.Frame{}, err
		}
		if err := e.sessions.Create(ctx, sess); err != nil {
			return game.Frame{}, err
		}
	} else {
		sess, err = e.sessions.Update(ctx, cmd.GUID, func(s *game.Session) error {
			if s.GameID != cmd.GameID {
				return fmt.Errorf("%w: session %s plays %s", game.ErrSessionMismatch, s.ID, s.GameID)
			}
			s.Reset(cmd.CardID, game.DefaultLevel, initial)
			return e.cards.OnReset(ctx, cmd.CardID, cmd.GameID, s.Score, s.State)
		})
		if err != nil {
			rejectedTotal.WithLabelValues("reset", reason(err)).Inc()
			return game.Frame{}, err
		}
	}

	resetsTotal.WithLabelValues(cmd.GameID, kind).Inc()
	log.Info().Str("game_id", cmd.GameID).Str("card_id", cmd.CardID).Str("guid", sess.ID).Str("session", kind).
		Int("sessions", e.sessions.Len()).Msg("reset")
	return e.frame(&sess, game.ActionInput{ID: 0, Data: map[string]any{}}), nil
}

func (e *Engine) validateReset(ctx context.Context, cmd ResetCommand) error {
	known, err := levels.HasGame(ctx, e.levels, cmd.GameID)
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}
	if !known {
		return fmt.Errorf("%w: %s", game.ErrUnknownGame, cmd.GameID)
	}
	if !e.cards.Exists(ctx, cmd.CardID) {
		return fmt.Errorf("%w: %s", game.ErrUnknownCard, cmd.CardID)
	}
	if cmd.GUID != "" {
		if _, err := e.sessions.Get(ctx, cmd.GUID); err != nil {
			return err
		}
	}
	return nil
}

// ------------------------------ action -------------------------------------

// Action applies one action to a session.
func (e *Engine) Action(ctx context.Context, cmd ActionCommand) (game.Frame, error) {
	if err := game.ValidateAction(cmd.Action); err != nil {
		rejectedTotal.WithLabelValues("action", reason(err)).Inc()
		return game.Frame{}, err
	}

	cur, err := e.sessions.Get(ctx, cmd.GUID)
	if err == nil && cur.GameID != cmd.GameID {
		err = fmt.Errorf("%w: session %s plays %s", game.ErrSessionMismatch, cur.ID, cur.GameID)
	}
	if err != nil {
		rejectedTotal.WithLabelValues("action", reason(err)).Inc()
		log.Debug().Err(err).Str("game_id", cmd.GameID).Str("guid", cmd.GUID).Int("action", cmd.Action.ID).Msg("action rejected")
		return game.Frame{}, err
	}

	rules, err := e.rules(ctx, cmd.GameID)
	if err != nil {
		return game.Frame{}, err
	}

	var out game.Outcome
	sess, err := e.sessions.Update(ctx, cmd.GUID, func(s *game.Session) error {
		if s.GameID != cmd.GameID {
			return fmt.Errorf("%w: session %s plays %s", game.ErrSessionMismatch, s.ID, s.GameID)
		}
		var err error
		if out, err = s.Apply(cmd.Action, rules); err != nil {
			return err
		}
		return e.cards.OnAction(ctx, s.CardID, s.GameID, s.Score, s.State, out.BecameWin)
	})
	if err != nil {
		rejectedTotal.WithLabelValues("action", reason(err)).Inc()
		log.Debug().Err(err).Str("game_id", cmd.GameID).Str("guid", cmd.GUID).Int("action", cmd.Action.ID).Msg("action rejected")
		return game.Frame{}, err
	}

	actionsTotal.WithLabelValues(cmd.GameID, out.Rule).Inc()
	if out.BecameWin {
		winsTotal.WithLabelValues(cmd.GameID).Inc()
		log.Info().Str("game_id", cmd.GameID).Str("guid", sess.ID).Int("actions", sess.ActionsTaken).
			Dur("since_created", time.Since(sess.CreatedAt)).Msg("game won")
	}
	return e.frame(&sess, out.Input), nil
}

// rules gathers the game's descriptor and the current level's final grid.
func (e *Engine) rules(ctx context.Context, gameID string) (game.Rules, error) {
	r := game.Rules{WinScore: e.cfg.WinScore}

	toggle, ok, err := e.levels.Rule(ctx, gameID)
	if err != nil {
		return r, fmt.Errorf("load rule: %w", err)
	}
	if ok {
		r.Toggle = toggle
	}

	final, ok, err := e.levels.FinalGrid(ctx, gameID, game.DefaultLevel)
	if err != nil {
		return r, fmt.Errorf("load final grid: %w", err)
	}
	if ok {
		r.Final = &final
	}
	return r, nil
}

func (e *Engine) frame(s *game.Session, in game.ActionInput) game.Frame {
	return game.Frame{
		GameID:   s.GameID,
		GUID:     s.ID,
		Grid:     s.Grid,
		State:    s.State,
		Score:    s.Score,
		WinScore: e.cfg.WinScore,
		Action:   in,
	}
}

// reason maps an error to a metrics label.
func reason(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidSession):
		return "invalid_session"
	case errors.Is(err, game.ErrSessionMismatch):
		return "session_mismatch"
	case errors.Is(err, game.ErrUnknownGame):
		return "unknown_game"
	case errors.Is(err, game.ErrUnknownCard):
		return "unknown_card"
	case errors.Is(err, game.ErrInvalidAction):
		return "invalid_action"
	case errors.Is(err, game.ErrNotFound):
		return "not_found"
	}
	return "internal"
}
