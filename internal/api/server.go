// Package api exposes the HTTP admin surface: health, session inspection,
// and operator-guarded maintenance.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/battledinghy/battledinghy/internal/authtoken"
	"github.com/battledinghy/battledinghy/internal/dedup"
	apperrors "github.com/battledinghy/battledinghy/internal/errors"
	"github.com/battledinghy/battledinghy/internal/game/domain"
	"github.com/battledinghy/battledinghy/internal/game/service"
	"github.com/battledinghy/battledinghy/internal/platform/timeouts"
)

// Pinger checks that backing storage is reachable.
type Pinger interface {
	Ping() error
}

// Server is the admin HTTP API.
type Server struct {
	engine   *service.Engine
	dedupe   *dedup.Deduper
	pinger   Pinger
	verifier authtoken.VerifierConfig
}

// NewServer wires the admin API over its collaborators.
func NewServer(engine *service.Engine, dedupe *dedup.Deduper, pinger Pinger, verifier authtoken.VerifierConfig) *Server {
	return &Server{
		engine:   engine,
		dedupe:   dedupe,
		pinger:   pinger,
		verifier: verifier,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/cancel", s.requireToken(s.handleCancelSession)).Methods(http.MethodPost)
	api.HandleFunc("/maintenance/prune", s.requireToken(s.handlePrune)).Methods(http.MethodPost)
	return r
}

// Serve runs the admin API until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		done := make(chan error, 1)
		go func() { done <- s.pinger.Ping() }()
		select {
		case err := <-done:
			if err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "storage unavailable"})
				return
			}
		case <-time.After(timeouts.StoreCheck):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "storage timeout"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.engine.ListActiveSessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	summaries := make([]sessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, summarize(session))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.engine.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	detail := sessionDetail{sessionSummary: summarize(session)}
	detail.Board1 = describeBoard(session.Board1)
	detail.Board2 = describeBoard(session.Board2)

	// Board layouts reveal ship positions of a live game, so they require
	// an operator token.
	if r.URL.Query().Get("reveal") == "true" {
		if err := s.authorize(r); err != nil {
			writeError(w, err)
			return
		}
		detail.Board1.Cells = session.Board1.Encode()
		detail.Board2.Cells = session.Board2.Encode()
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.CancelSession(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handlePrune(w http.ResponseWriter, r *http.Request) {
	pruned, err := s.dedupe.Prune(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"pruned": pruned})
}

func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.authorize(r); err != nil {
			writeError(w, err)
			return
		}
		next(w, r)
	}
}

func (s *Server) authorize(r *http.Request) error {
	if len(s.verifier.Key) == 0 {
		return apperrors.New(apperrors.CodeTokenInvalid, "operator tokens are not configured")
	}
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return apperrors.New(apperrors.CodeTokenInvalid, "bearer token is required")
	}
	_, err := authtoken.Verify(token, s.verifier)
	return err
}

// sessionSummary is the list-view DTO.
type sessionSummary struct {
	ID         string `json:"id"`
	ThreadID   string `json:"thread_id"`
	GameNumber int64  `json:"game_number"`
	Player1    string `json:"player1"`
	Player2    string `json:"player2"`
	Turn       string `json:"turn,omitempty"`
	State      string `json:"state"`
	Winner     string `json:"winner,omitempty"`
	PostCount  int64  `json:"post_count"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

// boardDetail describes one board without leaking layout unless revealed.
type boardDetail struct {
	Hits        int   `json:"hits"`
	Misses      int   `json:"misses"`
	ShipsAfloat int   `json:"ships_afloat"`
	Cells       []int `json:"cells,omitempty"`
}

type sessionDetail struct {
	sessionSummary
	Board1 boardDetail `json:"board1"`
	Board2 boardDetail `json:"board2"`
}

func summarize(session domain.Session) sessionSummary {
	return sessionSummary{
		ID:         session.ID,
		ThreadID:   session.ThreadID,
		GameNumber: session.GameNumber,
		Player1:    session.Player1,
		Player2:    session.Player2,
		Turn:       session.Turn,
		State:      session.State.String(),
		Winner:     session.Winner,
		PostCount:  session.PostCount,
		CreatedAt:  session.CreatedAt.UnixMilli(),
		UpdatedAt:  session.UpdatedAt.UnixMilli(),
	}
}

func describeBoard(board *domain.Board) boardDetail {
	hits, misses := board.HitsAndMisses()
	return boardDetail{
		Hits:        hits,
		Misses:      misses,
		ShipsAfloat: board.ShipsRemaining().TotalAfloat,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	var appErr *apperrors.Error
	message := "internal error"
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	writeJSON(w, status, map[string]string{"error": string(code), "message": message})
}
