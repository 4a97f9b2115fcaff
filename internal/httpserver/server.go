// internal/httpserver/server.go
//
// HTTP server wiring for the ARC-AGI-3 engine.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/metrics".
//   - Token exchange: POST /api/auth/token (API key → bearer JWT).
//   - Game + scorecard endpoints (require auth): mounted under /api.
//   - Command endpoints (require auth): POST /api/cmd/RESET, /api/cmd/ACTION1..6.
//
// Notes:
//   - Every /api route accepts either X-API-Key or a bearer token issued by
//     /api/auth/token. The resolved key is recorded on opened scorecards.
//   - Engine errors are mapped to status codes in writeError.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/config"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/engine"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/game"
)

// Server bundles router, engine and auth settings.
type Server struct {
	r        *chi.Mux
	eng      *engine.Engine
	cfg      config.Config
	validate *validator.Validate
	keys     *keyChecker
}

// New constructs a Server, installs middleware, and registers routes.
func New(eng *engine.Engine, cfg config.Config) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	s := &Server{
		r:        chi.NewRouter(),
		eng:      eng,
		cfg:      cfg,
		validate: validator.New(),
		keys:     newKeyChecker(cfg.APIKey, cfg.APIKeyHash),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(cfg.RequestTimeout))
	s.r.Use(jsonContentType)
	s.r.Use(cors(cfg.ClientOrigin))

	// --- diagnostics ---
	s.r.Get("/", handleRoot)
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "arc-agi-3-engine"})
	})
	s.r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.r.Post("/api/auth/token", s.handleToken)

	s.r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/games", s.handleListGames)
		s.mountScorecard(r)
		s.mountCommands(r)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

func handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "ARC-AGI-3 REST API",
		"version":     "1.0.0",
		"description": "Programmatic interface for running agents against ARC-AGI-3 games",
		"endpoints": map[string]string{
			"/api/games":               "List available games",
			"/api/auth/token":          "Exchange an API key for a bearer token",
			"/api/scorecard/open":      "Open a scorecard",
			"/api/scorecard/close":     "Close a scorecard",
			"/api/scorecard/{card_id}": "Get scorecard details",
			"/api/cmd/RESET":           "Reset game session",
			"/api/cmd/ACTION1-6":       "Execute actions",
		},
		"note": "All /api requests require an X-API-Key header or a bearer token",
	})
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors allows a single configured origin, or any origin for "*".
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allow := origin
			if origin == "*" {
				if o := r.Header.Get("Origin"); o != "" {
					allow = o
				}
			}
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", allow)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------ helpers ------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// decode reads a JSON body into v and runs struct validation.
func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &requestError{msg: "invalid_json"}
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &requestError{msg: "invalid field " + fe.Field() + ": " + fe.Tag()}
		}
		return &requestError{msg: err.Error()}
	}
	return nil
}

type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

// statusFor maps an engine error to an HTTP status.
func statusFor(err error) int {
	var re *requestError
	switch {
	case errors.As(err, &re):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidAction),
		errors.Is(err, game.ErrUnknownGame),
		errors.Is(err, game.ErrUnknownCard),
		errors.Is(err, game.ErrInvalidSession),
		errors.Is(err, game.ErrSessionMismatch):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError logs and writes err as {"error": ...}. Internal errors are not
// echoed to the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Str("request_id", chimw.GetReqID(r.Context())).Msg("request failed")
		msg = "internal_error"
	} else {
		log.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
