// internal/store/history.go
//
// SQLite-backed history of finished sessions (the games table).
// Shared by the CLI (--db) and the HTTP server (/games/mine).

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// Summary is one finished (or started) session row.
type Summary struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId,omitempty"`
	AnonymousID string    `json:"-"`
	Mode        string    `json:"mode"`
	Status      string    `json:"status"`
	Guesses     int       `json:"guesses"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt,omitempty"`
}

// History persists session summaries.
type History struct {
	db *sql.DB
}

// NewHistory wraps an open, migrated database.
func NewHistory(db *sql.DB) *History { return &History{db: db} }

// Record upserts a summary by ID.
func (h *History) Record(ctx context.Context, s Summary) error {
	var finished any
	if !s.FinishedAt.IsZero() {
		finished = s.FinishedAt.UTC().Format(time.RFC3339)
	}
	_, err := h.db.ExecContext(ctx, `
        INSERT INTO games (id, user_id, anonymous_id, mode, status, guesses, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            status=excluded.status,
            guesses=excluded.guesses,
            finished_at=excluded.finished_at`,
		s.ID, nullable(s.UserID), nullable(s.AnonymousID), s.Mode, s.Status, s.Guesses,
		s.StartedAt.UTC().Format(time.RFC3339), finished,
	)
	return errors.Wrap(err, "record session")
}

// Recent lists the newest sessions for a user, at most limit (default 50).
func (h *History) Recent(ctx context.Context, userID string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, `
        SELECT id, mode, status, guesses, started_at, COALESCE(finished_at, '')
        FROM games WHERE user_id=? ORDER BY started_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query sessions")
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var s Summary
		var started, finished string
		if err := rows.Scan(&s.ID, &s.Mode, &s.Status, &s.Guesses, &started, &finished); err != nil {
			return nil, errors.Wrap(err, "scan session")
		}
		s.UserID = userID
		s.StartedAt, _ = time.Parse(time.RFC3339, started)
		s.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, s)
	}
	return out, rows.Err()
}

// WinsByGuesses counts a user's won sessions keyed by how many guesses
// the win took.
func (h *History) WinsByGuesses(ctx context.Context, userID string) (map[int]int, error) {
	rows, err := h.db.QueryContext(ctx, `
        SELECT guesses, COUNT(1) FROM games
        WHERE user_id=? AND status='won' GROUP BY guesses`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query wins")
	}
	defer rows.Close()

	out := map[int]int{}
	for rows.Next() {
		var guesses, n int
		if err := rows.Scan(&guesses, &n); err != nil {
			return nil, errors.Wrap(err, "scan wins")
		}
		out[guesses] = n
	}
	return out, rows.Err()
}

// ClaimAnonymous transfers guest sessions to a user after signup or login.
func (h *History) ClaimAnonymous(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	_, err := h.db.ExecContext(ctx,
		`UPDATE games SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID)
	return errors.Wrap(err, "claim anonymous sessions")
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
