// internal/game/engine.go
//
// Core game engine for a single Mastermind session.
// Responsibilities:
//   - Create new games around a validated hidden code.
//   - Validate and apply guesses one at a time (length, palette, distinct colours).
//   - Score guesses with Score.
//   - Track state transitions: playing → won/lost.
//   - Replay a whole transcript of guess lines (Play) and decide the overall outcome.
//
// Notes:
//   - Invalid guesses are recorded and consume a slot; they never end a game on their own.
//   - A game that runs out of slots is "lost"; Play upgrades that to ExceededMaxGuesses
//     when the transcript still had unread lines.
package game

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Option tweaks a new game.
type Option func(*Game)

// WithRepeatedGuessColors lets guesses repeat a colour. Such guesses are
// scored (earning at most one white per colour) instead of being rejected.
func WithRepeatedGuessColors(allow bool) Option {
	return func(g *Game) { g.allowRepeats = allow }
}

// New constructs a game for the given hidden code.
// The code must satisfy rules; otherwise the error wraps ErrMalformedCode.
func New(rules Rules, code Code, opts ...Option) (*Game, error) {
	if err := rules.Check(code); err != nil {
		return nil, err
	}
	g := &Game{
		ID:      uuid.NewString(),
		Rules:   rules,
		Code:    code.Clone(),
		Records: []Record{},
		Outcome: Outcome{Kind: Playing},
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// ApplyGuess validates and scores a guess, mutating the game state.
// Returns the record for this guess, or ErrFinished once the game is over.
//
// State transitions:
//   - Guess equals the code → Finished, Won at this index.
//   - Else the slot budget is used up → Finished, Lost.
func (g *Game) ApplyGuess(guess Code) (Record, error) {
	if g.Finished {
		return Record{}, ErrFinished
	}
	rec := Record{Index: len(g.Records) + 1, Guess: guess.Clone()}
	if g.acceptable(guess) {
		rec.Valid = true
		rec.Feedback = Score(g.Code, guess)
	}
	g.Records = append(g.Records, rec)

	switch {
	case rec.Valid && guess.Equal(g.Code):
		g.Finished = true
		g.Outcome = Outcome{Kind: Won, At: rec.Index}
	case rec.Index >= g.Rules.MaxGuesses:
		g.Finished = true
		g.Outcome = Outcome{Kind: Lost}
	}
	return rec, nil
}

// Remaining reports how many guess slots are left.
func (g *Game) Remaining() int {
	if g.Finished {
		return 0
	}
	return g.Rules.MaxGuesses - len(g.Records)
}

// State reports a coarse string representation of the current game state.
func (g *Game) State() string {
	if g.Finished {
		if g.Outcome.Kind == Won {
			return "won"
		}
		return "lost"
	}
	return "playing"
}

// Play replays guess lines in order until a win or the guess budget stops it.
//
//   - A win with more than one unread line left sets TrailingIgnored.
//   - Running out of slots while lines remain is ExceededMaxGuesses.
//   - Consuming every line without a win is Lost.
func (g *Game) Play(guesses []Code) (Result, error) {
	if g.Finished {
		return Result{}, ErrFinished
	}
	for i, guess := range guesses {
		if _, err := g.ApplyGuess(guess); err != nil {
			return Result{}, errors.WithStack(err)
		}
		if !g.Finished {
			continue
		}
		unread := len(guesses) - (i + 1)
		res := Result{Outcome: g.Outcome, Records: g.Records}
		switch {
		case g.Outcome.Kind == Won:
			res.TrailingIgnored = unread > 1
		case unread > 0:
			res.Outcome = Outcome{Kind: ExceededMaxGuesses}
			g.Outcome = res.Outcome
		}
		return res, nil
	}
	g.Finished = true
	g.Outcome = Outcome{Kind: Lost}
	return Result{Outcome: g.Outcome, Records: g.Records}, nil
}

// acceptable applies the guess validity rule for this game.
func (g *Game) acceptable(guess Code) bool {
	if g.allowRepeats {
		return g.Rules.checkShape(guess) == nil
	}
	return g.Rules.Valid(guess)
}

// CheckGuess validates a guess the same way ApplyGuess would, returning an
// error wrapping ErrMalformedGuess when it is rejected.
func (g *Game) CheckGuess(guess Code) error {
	if g.acceptable(guess) {
		return nil
	}
	return errors.Wrapf(ErrMalformedGuess, "%q", guess.String())
}
