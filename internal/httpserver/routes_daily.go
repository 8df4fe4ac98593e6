// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start a daily game (creates or reuses session)
//   - POST /daily/guess       → submit a guess for today's daily game
//   - GET  /daily/leaderboard → fetch top 20 results for today (or a given date)
//
// Each player can play once per day (enforced by DB + in-memory session).
// Sessions are held in memory for active play and persisted to DB on win.
// The code of the day is derived from date + salt (see package daily).

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mastermind/internal/daily"
	"github.com/robalobadob/mastermind/internal/game"
	"github.com/robalobadob/mastermind/internal/metrics"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	now      func() time.Time
	sessions map[string]*dailySession // keyed by userID|date
	mu       sync.Mutex               // guards sessions and their games
}

// dailySession holds transient state for an in-progress daily game.
type dailySession struct {
	Game     *game.Game
	UserID   string
	Date     string
	CodeSeed int64
	Start    time.Time
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     getEnv("DAILY_SALT", "local_dev_salt"),
		now:      time.Now,
		sessions: make(map[string]*dailySession),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/guess", dd.handleGuess)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// playerID returns the authenticated user ID, or the guest cookie ID.
func (d *dailyServer) playerID(w http.ResponseWriter, r *http.Request) string {
	if me := currentUser(r); me != nil {
		return me.ID
	}
	return d.srv.ensureAnonID(w, r)
}

// -----------------------------------------------------------------------------
// /daily/new

type dailyNewRes struct {
	GameID     string       `json:"gameId"`
	Date       string       `json:"date"`
	Played     bool         `json:"played"`
	Palette    []game.Color `json:"palette,omitempty"`
	CodeLength int          `json:"codeLength,omitempty"`
	MaxGuesses int          `json:"maxGuesses,omitempty"`
}

// handleNew creates or reuses a daily session for the current date.
//   - A stored result for today → Played=true.
//   - Otherwise create/reuse an in-memory session and return its GameID.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid := d.playerID(w, r)
	now := d.now()
	date := daily.DateKey(now)

	if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err == nil && played {
		_ = json.NewEncoder(w).Encode(dailyNewRes{Date: date, Played: true})
		return
	}

	rules := d.srv.cfg.Rules
	res := dailyNewRes{Date: date, Palette: rules.Palette, CodeLength: rules.CodeLength, MaxGuesses: rules.MaxGuesses}

	key := uid + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	if sess, ok := d.sessions[key]; ok {
		res.GameID = sess.Game.ID
		res.Played = sess.Game.Finished
		_ = json.NewEncoder(w).Encode(res)
		return
	}
	code, seed := daily.Code(now, d.salt, rules)
	g, err := game.New(rules, code)
	if err != nil {
		log.Error().Err(err).Msg("daily code")
		writeError(w, http.StatusInternalServerError, "daily_unavailable")
		return
	}
	d.sessions[key] = &dailySession{Game: g, UserID: uid, Date: date, CodeSeed: seed, Start: now}
	res.GameID = g.ID
	_ = json.NewEncoder(w).Encode(res)
}

// -----------------------------------------------------------------------------
// /daily/guess

type dailyGuessReq struct {
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
}

type dailyGuessRes struct {
	Feedback game.Feedback `json:"feedback"`
	Valid    bool          `json:"valid"`
	State    string        `json:"state"` // playing | won | lost | locked
	Guesses  int           `json:"guesses"`
}

// handleGuess applies a guess to today's session; a win is persisted.
func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	uid := d.playerID(w, r)

	var p dailyGuessReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.GameID == "" {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}
	date := daily.DateKey(d.now())

	d.mu.Lock()
	sess, ok := d.sessions[uid+"|"+date]
	if !ok || sess.Game.ID != p.GameID {
		d.mu.Unlock()
		writeError(w, http.StatusConflict, "no_session")
		return
	}
	g := sess.Game
	if g.Finished {
		n := len(g.Records)
		d.mu.Unlock()
		_ = json.NewEncoder(w).Encode(dailyGuessRes{Feedback: game.Feedback{}, State: "locked", Guesses: n})
		return
	}
	rec, err := g.ApplyGuess(game.ParseCode(p.Guess))
	state, n, outcome, finished := g.State(), len(g.Records), g.Outcome, g.Finished
	d.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusConflict, "finished")
		return
	}
	metrics.Guess(rec.Valid)

	if finished {
		metrics.Session("daily", string(outcome.Kind))
	}
	if outcome.Kind == game.Won {
		elapsed := int(d.now().Sub(sess.Start).Milliseconds())
		if err := d.store.InsertResult(r.Context(), daily.Result{
			UserID: uid, Date: date, CodeSeed: sess.CodeSeed, Guesses: n, ElapsedMs: elapsed,
		}); err != nil {
			log.Warn().Err(err).Str("user", uid).Msg("insert daily result")
		}
	}
	fb := rec.Feedback
	if fb == nil {
		fb = game.Feedback{}
	}
	_ = json.NewEncoder(w).Encode(dailyGuessRes{Feedback: fb, Valid: rec.Valid, State: state, Guesses: n})
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.now())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
