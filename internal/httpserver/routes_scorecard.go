// internal/httpserver/routes_scorecard.go
//
// Game listing and scorecard routes:
//   - GET  /api/games                         → [{game_id, title}]
//   - POST /api/scorecard/open                → {card_id}
//   - POST /api/scorecard/close               → ScorecardSummary
//   - GET  /api/scorecard/{card_id}           → ScorecardSummary
//   - GET  /api/scorecard/{card_id}/{game_id} → ScorecardSummary for one game

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/scorecard"
)

func (s *Server) mountScorecard(r chi.Router) {
	r.Route("/scorecard", func(r chi.Router) {
		r.Post("/open", s.handleOpenScorecard)
		r.Post("/close", s.handleCloseScorecard)
		r.Get("/{card_id}", s.handleGetScorecard)
		r.Get("/{card_id}/{game_id}", s.handleGetScorecardForGame)
	})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.eng.ListGames(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

type openScorecardReq struct {
	SourceURL string         `json:"source_url" validate:"omitempty,url"`
	Tags      []string       `json:"tags"`
	Opaque    map[string]any `json:"opaque"`
}

type openScorecardRes struct {
	CardID string `json:"card_id"`
}

func (s *Server) handleOpenScorecard(w http.ResponseWriter, r *http.Request) {
	var req openScorecardReq
	// An empty body opens an untagged card.
	if r.ContentLength != 0 {
		if err := s.decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	id, err := s.eng.OpenScorecard(r.Context(), scorecard.OpenRequest{
		APIKey:    apiKeyFrom(r.Context()),
		SourceURL: req.SourceURL,
		Tags:      req.Tags,
		Opaque:    req.Opaque,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, openScorecardRes{CardID: id})
}

type closeScorecardReq struct {
	CardID string `json:"card_id" validate:"required"`
}

func (s *Server) handleCloseScorecard(w http.ResponseWriter, r *http.Request) {
	var req closeScorecardReq
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.eng.CloseScorecard(r.Context(), req.CardID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleGetScorecard(w http.ResponseWriter, r *http.Request) {
	sum, err := s.eng.Scorecard(r.Context(), chi.URLParam(r, "card_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleGetScorecardForGame(w http.ResponseWriter, r *http.Request) {
	sum, err := s.eng.ScorecardForGame(r.Context(), chi.URLParam(r, "card_id"), chi.URLParam(r, "game_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
