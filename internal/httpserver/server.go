// internal/httpserver/server.go
//
// HTTP server wiring for the Mastermind backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/metrics", "/rules".
//   - Game endpoints (optional auth): POST /game/new, POST /game/guess, POST /game/solve.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints (auth.go).
//
// Notes:
//   - Live games are held in the in-memory store; their summaries go to the
//     games table so /games/mine survives restarts.
//   - The hidden code never leaves the server until the game is finished.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mastermind/internal/config"
	"github.com/robalobadob/mastermind/internal/game"
	"github.com/robalobadob/mastermind/internal/metrics"
	"github.com/robalobadob/mastermind/internal/solver"
	"github.com/robalobadob/mastermind/internal/store"
)

// Server bundles router, live game store, history and config.
type Server struct {
	r       *chi.Mux
	cfg     config.Config
	store   store.Store
	db      *sql.DB
	history *store.History

	mu      sync.Mutex // serialises guesses and guards rng
	rng     *rand.Rand
	started map[string]time.Time
}

// New constructs a Server, installs middleware, and registers routes.
// db must already be migrated.
func New(cfg config.Config, st store.Store, db *sql.DB) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     cfg,
		store:   st,
		db:      db,
		history: store.NewHistory(db),
		rng:     cfg.NewRand(),
		started: make(map[string]time.Time),
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(corsFromEnv)

	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"service":"mastermind","endpoints":["/health","/rules","/metrics","POST /game/new","POST /game/guess","POST /game/solve","/daily/*","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/rules", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(s.cfg.Rules)
	})
	s.r.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.r.Group(func(r chi.Router) {
		r.Use(s.withOptionalAuth())
		r.Post("/game/new", s.handleNewGame)
		r.Post("/game/guess", s.handleGuess)
		r.Post("/game/solve", s.handleSolve)
		s.mountDaily(r)
	})

	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ------------------------------ GAME ---------------------------------------

type newGameReq struct {
	Code string `json:"code"` // optional fixed code (testing)
}

type newGameRes struct {
	GameID     string       `json:"gameId"`
	Palette    []game.Color `json:"palette"`
	CodeLength int          `json:"codeLength"`
	MaxGuesses int          `json:"maxGuesses"`
}

// handleNewGame creates a live game and its history row.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	code, err := s.codeFor(req.Code)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed_code")
		return
	}
	g, err := game.New(s.cfg.Rules, code, game.WithRepeatedGuessColors(s.cfg.AllowRepeatedGuessColors))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed_code")
		return
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}

	now := time.Now()
	s.mu.Lock()
	s.started[g.ID] = now
	s.mu.Unlock()

	userID, anonID := s.owner(w, r)
	if err := s.history.Record(r.Context(), store.Summary{
		ID: g.ID, UserID: userID, AnonymousID: anonID, Mode: "human", Status: string(game.Playing), StartedAt: now,
	}); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("insert game row")
	}

	_ = json.NewEncoder(w).Encode(newGameRes{
		GameID:     g.ID,
		Palette:    s.cfg.Rules.Palette,
		CodeLength: s.cfg.Rules.CodeLength,
		MaxGuesses: s.cfg.Rules.MaxGuesses,
	})
}

// codeFor parses a fixed code or samples a fresh one.
func (s *Server) codeFor(raw string) (game.Code, error) {
	if raw != "" {
		code := game.ParseCode(raw)
		return code, s.cfg.Rules.Check(code)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return game.NewSpace(s.cfg.Rules, s.rng).Sample(), nil
}

type guessReq struct {
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
}

type guessRes struct {
	Index    int           `json:"index"`
	Feedback game.Feedback `json:"feedback"`
	Valid    bool          `json:"valid"`
	Reason   string        `json:"reason,omitempty"` // set when valid is false
	State    string        `json:"state"`            // "playing" | "won" | "lost"
	Outcome  game.Outcome  `json:"outcome"`
	Code     game.Code     `json:"code,omitempty"`
}

// handleGuess applies a guess to a live game; finished games update history and stats.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	g, err := s.store.Get(r.Context(), req.GameID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	guess := game.ParseCode(req.Guess)
	s.mu.Lock()
	rec, err := g.ApplyGuess(guess)
	snap := turn{
		id:       g.ID,
		state:    g.State(),
		outcome:  g.Outcome,
		finished: g.Finished,
		guesses:  len(g.Records),
		started:  s.started[g.ID],
	}
	if err == nil && !rec.Valid {
		snap.reason = g.CheckGuess(guess).Error()
	}
	if g.Finished {
		snap.code = g.Code.Clone()
		delete(s.started, g.ID)
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusConflict, "finished")
		return
	}
	metrics.Guess(rec.Valid)

	if err := s.store.Save(r.Context(), g); err != nil {
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}

	res := guessRes{
		Index:    rec.Index,
		Feedback: rec.Feedback,
		Valid:    rec.Valid,
		Reason:   snap.reason,
		State:    snap.state,
		Outcome:  snap.outcome,
		Code:     snap.code,
	}
	if res.Feedback == nil {
		res.Feedback = game.Feedback{}
	}
	if snap.finished {
		s.finish(r.Context(), w, r, snap)
	} else {
		s.progress(r.Context(), w, r, snap)
	}
	_ = json.NewEncoder(w).Encode(res)
}

// turn is a copy of a game taken under s.mu right after a guess, so the
// response and history rows never read the live game.
type turn struct {
	id       string
	state    string
	outcome  game.Outcome
	finished bool
	guesses  int
	code     game.Code
	reason   string
	started  time.Time
}

// progress updates the guess count of a running game (best effort).
func (s *Server) progress(ctx context.Context, w http.ResponseWriter, r *http.Request, t turn) {
	userID, anonID := s.owner(w, r)
	if err := s.history.Record(ctx, store.Summary{
		ID: t.id, UserID: userID, AnonymousID: anonID, Mode: "human",
		Status: string(game.Playing), Guesses: t.guesses, StartedAt: t.started,
	}); err != nil {
		log.Warn().Err(err).Str("gameId", t.id).Msg("update guesses")
	}
}

// finish closes the history row and bumps user stats (best effort).
func (s *Server) finish(ctx context.Context, w http.ResponseWriter, r *http.Request, t turn) {
	metrics.Session("human", string(t.outcome.Kind))
	userID, anonID := s.owner(w, r)
	if err := s.history.Record(ctx, store.Summary{
		ID: t.id, UserID: userID, AnonymousID: anonID, Mode: "human",
		Status: t.state, Guesses: t.guesses, StartedAt: t.started, FinishedAt: time.Now(),
	}); err != nil {
		log.Warn().Err(err).Str("gameId", t.id).Msg("finish game")
	}
	if userID == "" {
		return
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("begin stats tx")
		return
	}
	defer func() { _ = tx.Rollback() }()
	if err := bumpStats(tx, userID, t.outcome.Kind == game.Won); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("bump stats")
		return
	}
	_ = tx.Commit()
}

type solveReq struct {
	Code string `json:"code"`
	Seed int64  `json:"seed"`
}

type solveRes struct {
	Code        game.Code       `json:"code"`
	Guesses     []game.Code     `json:"guesses"`
	Feedback    []game.Feedback `json:"feedback"`
	State       string          `json:"state"`
	Generations int             `json:"generations"`
}

// handleSolve runs the autonomous search against a fixed or random code.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	code, err := s.codeFor(req.Code)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed_code")
		return
	}
	cfg := s.cfg
	cfg.Seed = req.Seed
	eng := solver.New(cfg.Rules, cfg.Search, solver.TargetOracle(code), cfg.NewRand())
	sr, err := eng.Run(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("solve")
		writeError(w, http.StatusServiceUnavailable, "search_aborted")
		return
	}
	metrics.Search(sr.State.String(), len(sr.Guesses))

	fb := make([]game.Feedback, len(sr.Guesses))
	for i, g := range sr.Guesses {
		fb[i] = game.Score(code, g)
	}
	_ = json.NewEncoder(w).Encode(solveRes{
		Code:        code,
		Guesses:     sr.Guesses,
		Feedback:    fb,
		State:       sr.State.String(),
		Generations: len(sr.Guesses),
	})
}
