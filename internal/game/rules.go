package game

import (
	"github.com/pkg/errors"
)

// Package-level defaults mirror the classic five-colour, four-peg game.
const (
	DefaultCodeLength = 4
	DefaultMaxGuesses = 12
)

// DefaultPalette is used when no palette is configured.
var DefaultPalette = []Color{"red", "blue", "yellow", "green", "orange"}

// Rules fixes what a legal code is and how many guesses a session allows.
// It is passed by value and must not be modified once a session starts.
type Rules struct {
	Palette    []Color `json:"palette" yaml:"palette"`
	CodeLength int     `json:"codeLength" yaml:"code_length"`
	MaxGuesses int     `json:"maxGuesses" yaml:"max_guesses"`
}

// DefaultRules returns the classic configuration.
func DefaultRules() Rules {
	p := make([]Color, len(DefaultPalette))
	copy(p, DefaultPalette)
	return Rules{Palette: p, CodeLength: DefaultCodeLength, MaxGuesses: DefaultMaxGuesses}
}

// InPalette reports palette membership.
func (r Rules) InPalette(c Color) bool {
	for _, p := range r.Palette {
		if p == c {
			return true
		}
	}
	return false
}

// Valid reports whether seq is a legal code: right length, palette colours
// only, no colour repeated.
func (r Rules) Valid(seq Code) bool {
	return r.Check(seq) == nil
}

// Check is Valid with a reason. The returned error wraps ErrMalformedCode.
func (r Rules) Check(seq Code) error {
	if err := r.checkShape(seq); err != nil {
		return err
	}
	if !seq.Distinct() {
		return errors.Wrap(ErrMalformedCode, "repeated colour")
	}
	return nil
}

// checkShape tests length and palette membership only.
func (r Rules) checkShape(seq Code) error {
	if len(seq) != r.CodeLength {
		return errors.Wrapf(ErrMalformedCode, "want %d colours, got %d", r.CodeLength, len(seq))
	}
	for _, c := range seq {
		if !r.InPalette(c) {
			return errors.Wrapf(ErrMalformedCode, "colour %q not in palette", c)
		}
	}
	return nil
}

// SpaceSize returns the number of distinct legal codes (k-permutations of
// the palette), saturating at limit.
func (r Rules) SpaceSize(limit int) int {
	n, k := len(r.Palette), r.CodeLength
	if k > n || k < 0 {
		return 0
	}
	total := 1
	for i := 0; i < k; i++ {
		total *= n - i
		if total >= limit {
			return limit
		}
	}
	return total
}
