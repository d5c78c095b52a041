// Package httpapi exposes scoring, roster, and live-feed endpoints over
// HTTP. Mutations are schema-validated and owner-scoped; the feed
// surfaces are public.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/thunderavi/scoreboard/internal/engine"
	"github.com/thunderavi/scoreboard/internal/hub"
	"github.com/thunderavi/scoreboard/internal/service"
)

// Authenticator resolves the acting user from a request. An empty
// identity with nil error means anonymous.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// HeaderAuthenticator trusts a proxy-injected identity header.
type HeaderAuthenticator struct {
	// Header names the identity header; X-User-ID by default.
	Header string
}

func (a HeaderAuthenticator) Authenticate(r *http.Request) (string, error) {
	header := a.Header
	if header == "" {
		header = "X-User-ID"
	}
	return r.Header.Get(header), nil
}

// Server is the HTTP surface.
type Server struct {
	svc     *service.Service
	hub     *hub.Hub
	auth    Authenticator
	logger  *slog.Logger
	schemas *schemaSet

	// AudioDir, when set, is served read-only under /audio/.
	audioDir string
}

// Option customizes a Server.
type Option func(*Server)

// WithAudioDir serves synthesized clips from the given directory.
func WithAudioDir(dir string) Option {
	return func(s *Server) { s.audioDir = dir }
}

// WithAuthenticator replaces the default header authenticator.
func WithAuthenticator(auth Authenticator) Option {
	return func(s *Server) { s.auth = auth }
}

// New builds the server and compiles its request schemas.
func New(svc *service.Service, h *hub.Hub, logger *slog.Logger, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service is required")
	}
	if h == nil {
		return nil, fmt.Errorf("hub is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	s := &Server{
		svc:     svc,
		hub:     h,
		auth:    HeaderAuthenticator{},
		logger:  logger,
		schemas: schemas,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/matches", s.handleCreateMatch)
	mux.HandleFunc("GET /api/matches", s.handleListMatches)
	mux.HandleFunc("GET /api/matches/{id}", s.handleGetMatch)
	mux.HandleFunc("POST /api/matches/{id}/batter", s.handleSelectBatter)
	mux.HandleFunc("POST /api/matches/{id}/runs", s.handleScoreRuns)
	mux.HandleFunc("POST /api/matches/{id}/extras", s.handleScoreExtra)
	mux.HandleFunc("POST /api/matches/{id}/wicket", s.handleWicket)
	mux.HandleFunc("POST /api/matches/{id}/end-innings", s.handleEndInnings)
	mux.HandleFunc("GET /api/matches/{id}/commentary", s.handleCommentary)
	mux.HandleFunc("GET /api/matches/{id}/stream", s.handleStream)
	mux.HandleFunc("GET /api/matches/{id}/ws", s.handleWebSocket)

	mux.HandleFunc("POST /api/teams", s.handleCreateTeam)
	mux.HandleFunc("GET /api/teams", s.handleListTeams)
	mux.HandleFunc("POST /api/teams/{id}/players", s.handleAddPlayer)
	mux.HandleFunc("GET /api/teams/{id}/players", s.handleListPlayers)

	if s.audioDir != "" {
		mux.Handle("GET /audio/", http.StripPrefix("/audio/", http.FileServer(http.Dir(s.audioDir))))
	}

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// actor resolves the acting user for a mutation; missing identity is a
// 401 handled by the caller.
func (s *Server) actor(r *http.Request) (string, error) {
	actorID, err := s.auth.Authenticate(r)
	if err != nil {
		return "", err
	}
	if actorID == "" {
		return "", errUnauthenticated
	}
	return actorID, nil
}

var errUnauthenticated = errors.New("authentication required")

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response failed", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError maps domain errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errUnauthenticated):
		s.writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error(), Code: "unauthenticated"})
	case errors.Is(err, service.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: "not found", Code: "not_found"})
	case errors.Is(err, engine.ErrMatchCompleted):
		s.writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Code: "match_completed"})
	case errors.Is(err, engine.ErrBatterCompleted):
		s.writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Code: "batter_completed"})
	case errors.Is(err, engine.ErrNoCurrentBatter),
		errors.Is(err, engine.ErrValidation):
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "validation"})
	default:
		s.logger.Error("request failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"})
	}
}

func (s *Server) writeBadRequest(w http.ResponseWriter, err error) {
	s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "validation"})
}

func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
