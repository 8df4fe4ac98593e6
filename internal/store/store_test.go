package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/mastermind/assets"
	"github.com/robalobadob/mastermind/internal/game"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mig, err := assets.Migrations()
	require.NoError(t, err)
	require.NoError(t, Migrate(db, mig))
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	mig, err := assets.Migrations()
	require.NoError(t, err)
	require.NoError(t, Migrate(db, mig))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestHistoryRecordAndRecent(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES ('u1','alice','x','2024-01-01T00:00:00Z')`)
	require.NoError(t, err)

	h := NewHistory(db)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, h.Record(ctx, Summary{ID: "g1", UserID: "u1", Mode: "human", Status: "playing", StartedAt: start}))
	require.NoError(t, h.Record(ctx, Summary{ID: "g1", UserID: "u1", Mode: "human", Status: "won", Guesses: 3,
		StartedAt: start, FinishedAt: start.Add(time.Minute)}))
	require.NoError(t, h.Record(ctx, Summary{ID: "g2", UserID: "u1", Mode: "computer", Status: "lost", Guesses: 12,
		StartedAt: start.Add(time.Hour)}))

	got, err := h.Recent(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "g2", got[0].ID)
	assert.Equal(t, "won", got[1].Status)
	assert.Equal(t, 3, got[1].Guesses)
	assert.Equal(t, start.Add(time.Minute), got[1].FinishedAt)
	assert.True(t, got[0].FinishedAt.IsZero())
}

func TestHistoryClaimAnonymous(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES ('u2','bob','x','2024-01-01T00:00:00Z')`)
	require.NoError(t, err)

	h := NewHistory(db)
	ctx := context.Background()
	require.NoError(t, h.Record(ctx, Summary{ID: "g9", AnonymousID: "anon", Mode: "human", Status: "won", StartedAt: time.Now()}))
	require.NoError(t, h.ClaimAnonymous(ctx, "anon", "u2"))

	got, err := h.Recent(ctx, "u2", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "g9", got[0].ID)
}

func TestHistoryWinsByGuesses(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES ('u3','carol','x','2024-01-01T00:00:00Z')`)
	require.NoError(t, err)

	h := NewHistory(db)
	ctx := context.Background()
	now := time.Now()
	for i, row := range []struct {
		status  string
		guesses int
	}{{"won", 4}, {"won", 4}, {"won", 2}, {"lost", 12}, {"playing", 3}} {
		require.NoError(t, h.Record(ctx, Summary{
			ID: fmt.Sprintf("w%d", i), UserID: "u3", Mode: "human",
			Status: row.status, Guesses: row.guesses, StartedAt: now,
		}))
	}

	got, err := h.WinsByGuesses(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, map[int]int{2: 1, 4: 2}, got)

	none, err := h.WinsByGuesses(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	g, err := game.New(game.DefaultRules(), game.ParseCode("red blue yellow green"))
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, g))

	got, err := st.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Same(t, g, got)

	require.NoError(t, st.Delete(ctx, g.ID))
	_, err = st.Get(ctx, g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
