// internal/game/types.go
//
// Core type definitions for the Mastermind game engine.
// Defines:
//   - Color, Code: palette tokens and fixed-length sequences of them.
//   - Peg, Feedback: per-guess scoring result (black/white markers).
//   - Record, Outcome, Result: what a session remembers about each guess and how it ended.
//   - Game: state for a single in-progress or finished session.

package game

import (
	"strings"

	"github.com/pkg/errors"
)

// Color is an opaque palette token such as "red".
type Color string

// Code is an ordered sequence of colours. Hidden targets, guesses and search
// candidates all share this type.
type Code []Color

// ParseCode splits a whitespace separated line into a Code without validating it.
func ParseCode(line string) Code {
	fields := strings.Fields(line)
	c := make(Code, len(fields))
	for i, f := range fields {
		c[i] = Color(f)
	}
	return c
}

// Equal reports element-wise equality.
func (c Code) Equal(o Code) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// Key returns a value usable as a map key for uniqueness checks.
func (c Code) Key() string {
	return c.String()
}

// String renders the code as space separated tokens, the game file format.
func (c Code) String() string {
	parts := make([]string, len(c))
	for i, col := range c {
		parts[i] = string(col)
	}
	return strings.Join(parts, " ")
}

// Clone returns an independent copy.
func (c Code) Clone() Code {
	out := make(Code, len(c))
	copy(out, c)
	return out
}

// Distinct reports whether no colour repeats within the code.
func (c Code) Distinct() bool {
	seen := make(map[Color]struct{}, len(c))
	for _, col := range c {
		if _, ok := seen[col]; ok {
			return false
		}
		seen[col] = struct{}{}
	}
	return true
}

// Peg is a single feedback marker.
//   - "black": right colour, right position.
//   - "white": right colour, wrong position.
type Peg string

const (
	Black Peg = "black"
	White Peg = "white"
)

// Feedback lists the pegs awarded for a guess, in guess order.
// Positions that matched nothing are simply absent.
type Feedback []Peg

// Counts returns the number of black and white pegs.
func (f Feedback) Counts() (black, white int) {
	for _, p := range f {
		switch p {
		case Black:
			black++
		case White:
			white++
		}
	}
	return black, white
}

// String renders the pegs as space separated tokens.
func (f Feedback) String() string {
	parts := make([]string, len(f))
	for i, p := range f {
		parts[i] = string(p)
	}
	return strings.Join(parts, " ")
}

// OutcomeKind enumerates the terminal (and non-terminal) session states.
type OutcomeKind string

const (
	Playing            OutcomeKind = "playing"
	Won                OutcomeKind = "won"
	Lost               OutcomeKind = "lost"
	ExceededMaxGuesses OutcomeKind = "exceeded_max_guesses"
)

// Outcome is the overall result of a session. At holds the 1-based guess
// index of the win and is zero otherwise.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`
	At   int         `json:"at,omitempty"`
}

// Record is what the session keeps for one processed guess line.
// An invalid record carries no feedback but still consumed a slot.
type Record struct {
	Index    int      `json:"index"`
	Guess    Code     `json:"guess"`
	Valid    bool     `json:"valid"`
	Feedback Feedback `json:"feedback,omitempty"`
}

// Result is the full account of a replayed transcript.
type Result struct {
	Outcome         Outcome  `json:"outcome"`
	Records         []Record `json:"records"`
	TrailingIgnored bool     `json:"trailingIgnored,omitempty"`
}

// Game holds the state of a single Mastermind session.
type Game struct {
	ID       string   // Unique game identifier.
	Rules    Rules    // Palette, code length and guess budget.
	Code     Code     // The hidden code (immutable once created).
	Records  []Record // Guesses processed so far.
	Outcome  Outcome  // Current outcome; Playing until finished.
	Finished bool     // True once the game is over (won or out of guesses).

	allowRepeats bool
}

var (
	// ErrMalformedCode reports a code declaration that breaks the rules.
	ErrMalformedCode = errors.New("malformed code")
	// ErrMalformedGuess reports a guess with the wrong length or unknown colours.
	ErrMalformedGuess = errors.New("malformed guess")
	// ErrFinished is returned when guessing after the session ended.
	ErrFinished = errors.New("game finished")
)
