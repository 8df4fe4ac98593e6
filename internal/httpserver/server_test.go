package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/mastermind/assets"
	"github.com/robalobadob/mastermind/internal/config"
	"github.com/robalobadob/mastermind/internal/daily"
	"github.com/robalobadob/mastermind/internal/game"
	"github.com/robalobadob/mastermind/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mig, err := assets.Migrations()
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db, mig))

	cfg := config.Default()
	cfg.Seed = 1
	return New(cfg, store.NewMemoryStore(), db)
}

// client replays cookies between requests like a browser would.
type client struct {
	t       *testing.T
	srv     *Server
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, srv *Server) *client {
	return &client{t: t, srv: srv, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.srv.Router().ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	if out != nil && rec.Code < 300 {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestHealthAndRules(t *testing.T) {
	c := newClient(t, newTestServer(t))
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", nil, nil))

	var rules game.Rules
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/rules", nil, &rules))
	assert.Equal(t, game.DefaultCodeLength, rules.CodeLength)
	assert.Len(t, rules.Palette, 5)

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/metrics", nil, nil))
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/nope", nil, nil))
}

func TestGameFlow(t *testing.T) {
	c := newClient(t, newTestServer(t))

	var ng newGameRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/new", newGameReq{Code: "red blue yellow green"}, &ng))
	require.NotEmpty(t, ng.GameID)
	assert.Equal(t, 12, ng.MaxGuesses)

	var res guessRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "red red"}, &res))
	assert.False(t, res.Valid)
	assert.Equal(t, `"red red": malformed guess`, res.Reason)
	assert.Equal(t, 1, res.Index)
	assert.Equal(t, "playing", res.State)
	assert.Empty(t, res.Code)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "blue red yellow orange"}, &res))
	assert.True(t, res.Valid)
	assert.Empty(t, res.Reason)
	assert.Equal(t, game.Feedback{game.White, game.White, game.Black}, res.Feedback)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "red blue yellow green"}, &res))
	assert.Equal(t, "won", res.State)
	assert.Equal(t, game.Outcome{Kind: game.Won, At: 3}, res.Outcome)
	assert.Equal(t, game.ParseCode("red blue yellow green"), res.Code)

	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "red"}, nil))
}

func TestConcurrentGuessesOnOneGame(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, srv)
	var ng newGameRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/new", newGameReq{Code: "red blue yellow green"}, &ng))

	guesses := []string{"red blue yellow green", "blue red yellow orange", "green green", "orange yellow blue red"}
	const workers = 8
	codes := make([]int, workers)
	results := make([]guessRes, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(guessReq{GameID: ng.GameID, Guess: guesses[i%len(guesses)]})
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/game/guess", bytes.NewReader(body)))
			codes[i] = rec.Code
			if rec.Code == http.StatusOK {
				_ = json.Unmarshal(rec.Body.Bytes(), &results[i])
			}
		}(i)
	}
	wg.Wait()

	won, indexes := 0, map[int]bool{}
	for i, code := range codes {
		require.Contains(t, []int{http.StatusOK, http.StatusConflict}, code)
		if code != http.StatusOK {
			continue
		}
		res := results[i]
		assert.False(t, indexes[res.Index], "index %d reported twice", res.Index)
		indexes[res.Index] = true
		if res.State == "won" {
			won++
			assert.Equal(t, game.ParseCode("red blue yellow green"), res.Code)
			assert.Equal(t, res.Index, res.Outcome.At)
		} else {
			assert.Equal(t, "playing", res.State)
			assert.Empty(t, res.Code)
		}
	}
	assert.Equal(t, 1, won)
}

func TestGameErrors(t *testing.T) {
	c := newClient(t, newTestServer(t))
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/game/new", newGameReq{Code: "red red blue green"}, nil))
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPost, "/game/guess", guessReq{GameID: "missing", Guess: "red"}, nil))

	var ng newGameRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/new", nil, &ng))
	assert.NotEmpty(t, ng.GameID)
}

func TestSolve(t *testing.T) {
	c := newClient(t, newTestServer(t))
	var res solveRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/solve", solveReq{Code: "green orange red blue", Seed: 9}, &res))

	require.NotEmpty(t, res.Guesses)
	assert.LessOrEqual(t, len(res.Guesses), 12)
	assert.Len(t, res.Feedback, len(res.Guesses))
	assert.Equal(t, len(res.Guesses), res.Generations)
	if res.State == "found" {
		assert.True(t, game.Solves(res.Feedback[len(res.Feedback)-1], 4))
	} else {
		assert.Equal(t, "exhausted", res.State)
	}

	var again solveRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/solve", solveReq{Code: "green orange red blue", Seed: 9}, &again))
	assert.Equal(t, res.Guesses, again.Guesses)
}

func TestAuthStatsAndHistory(t *testing.T) {
	c := newClient(t, newTestServer(t))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/stats/me", nil, nil))

	creds := credentials{Username: "alice", Password: "hunter2hunter2"}
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/signup", creds, nil))
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/auth/signup", creds, nil))

	var me authUser
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/auth/me", nil, &me))
	assert.Equal(t, "alice", me.Username)

	var ng newGameRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/new", newGameReq{Code: "red blue yellow green"}, &ng))
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "red blue yellow green"}, nil))

	var stats map[string]any
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/stats/me", nil, &stats))
	assert.EqualValues(t, 1, stats["gamesPlayed"])
	assert.EqualValues(t, 1, stats["wins"])
	assert.EqualValues(t, 1, stats["streak"])
	assert.Equal(t, map[string]any{"1": float64(1)}, stats["winsByGuesses"])
	assert.EqualValues(t, 1, stats["bestGuesses"])

	var mine []store.Summary
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/games/mine", nil, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "won", mine[0].Status)
	assert.Equal(t, 1, mine[0].Guesses)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/auth/me", nil, nil))

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/auth/login", credentials{Username: "alice", Password: "wrong-password"}, nil))
	assert.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/login", creds, nil))
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/auth/me", nil, nil))
}

func TestGuestGamesAreClaimedOnSignup(t *testing.T) {
	c := newClient(t, newTestServer(t))
	var ng newGameRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/new", newGameReq{Code: "red blue yellow green"}, &ng))
	require.Contains(t, c.cookies, anonCookieName)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/signup", credentials{Username: "guest_1", Password: "longenough"}, nil))
	var mine []store.Summary
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/games/mine", nil, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, ng.GameID, mine[0].ID)
}

func TestDaily(t *testing.T) {
	t.Setenv("DAILY_SALT", "test_salt")
	srv := newTestServer(t)
	c := newClient(t, srv)

	var nr dailyNewRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/daily/new", nil, &nr))
	require.NotEmpty(t, nr.GameID)
	assert.False(t, nr.Played)

	var again dailyNewRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/daily/new", nil, &again))
	assert.Equal(t, nr.GameID, again.GameID)

	code, _ := daily.Code(time.Now(), "test_salt", srv.cfg.Rules)
	var gr dailyGuessRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/daily/guess", dailyGuessReq{GameID: nr.GameID, Guess: code.String()}, &gr))
	assert.Equal(t, "won", gr.State)
	assert.Equal(t, 1, gr.Guesses)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/daily/guess", dailyGuessReq{GameID: nr.GameID, Guess: code.String()}, &gr))
	assert.Equal(t, "locked", gr.State)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/daily/new", nil, &again))
	assert.True(t, again.Played)

	var lb lbRes
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/daily/leaderboard", nil, &lb))
	require.Len(t, lb.Top, 1)
	assert.Equal(t, 1, lb.Top[0].Guesses)

	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/daily/guess", dailyGuessReq{GameID: "other", Guess: "red"}, nil))
}
