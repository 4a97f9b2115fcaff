// internal/httpserver/routes_cmd.go
//
// Command routes:
//   - POST /api/cmd/RESET          {game_id, card_id, guid?}        → Frame
//   - POST /api/cmd/ACTION1..5     {game_id, guid, reasoning?}      → Frame
//   - POST /api/cmd/ACTION6        {game_id, guid, x, y, reasoning?} → Frame
//
// x and y are required for ACTION6 and must lie in [0,63].

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/engine"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/game"
)

func (s *Server) mountCommands(r chi.Router) {
	r.Route("/cmd", func(r chi.Router) {
		r.Post("/RESET", s.handleReset)
		for id := 1; id < game.ClickAction; id++ {
			r.Post("/ACTION"+strconv.Itoa(id), s.handleSimpleAction(id))
		}
		r.Post("/ACTION"+strconv.Itoa(game.ClickAction), s.handleClick)
	})
}

type resetReq struct {
	GameID string `json:"game_id" validate:"required"`
	CardID string `json:"card_id" validate:"required"`
	GUID   string `json:"guid"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetReq
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := s.eng.Reset(r.Context(), engine.ResetCommand{GameID: req.GameID, CardID: req.CardID, GUID: req.GUID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

type simpleActionReq struct {
	GameID    string         `json:"game_id" validate:"required"`
	GUID      string         `json:"guid" validate:"required"`
	Reasoning map[string]any `json:"reasoning"`
}

type clickActionReq struct {
	GameID    string         `json:"game_id" validate:"required"`
	GUID      string         `json:"guid" validate:"required"`
	X         *int           `json:"x" validate:"required,min=0,max=63"`
	Y         *int           `json:"y" validate:"required,min=0,max=63"`
	Reasoning map[string]any `json:"reasoning"`
}

func (s *Server) handleSimpleAction(id int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req simpleActionReq
		if err := s.decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		s.runAction(w, r, engine.ActionCommand{
			GameID: req.GameID,
			GUID:   req.GUID,
			Action: game.Action{ID: id, Reasoning: req.Reasoning},
		})
	}
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickActionReq
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.runAction(w, r, engine.ActionCommand{
		GameID: req.GameID,
		GUID:   req.GUID,
		Action: game.Action{
			ID:        game.ClickAction,
			Coords:    &game.Point{X: *req.X, Y: *req.Y},
			Reasoning: req.Reasoning,
		},
	})
}

func (s *Server) runAction(w http.ResponseWriter, r *http.Request, cmd engine.ActionCommand) {
	f, err := s.eng.Action(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}
