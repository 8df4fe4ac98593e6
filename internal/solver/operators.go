package solver

import (
	"math/rand"

	"github.com/robalobadob/mastermind/internal/game"
)

// Crossover performs single-point crossover of a and b. The cut is drawn
// from [0, len-1) and redrawn until neither child repeats a colour, at most
// attempts times. ok is false when no valid pair was found.
func Crossover(a, b game.Code, rng *rand.Rand, attempts int) (c1, c2 game.Code, ok bool) {
	n := len(a)
	for try := 0; try < attempts; try++ {
		cut := 0
		if n > 1 {
			cut = rng.Intn(n - 1)
		}
		c1 = splice(a, b, cut)
		c2 = splice(b, a, cut)
		if c1.Distinct() && c2.Distinct() {
			return c1, c2, true
		}
	}
	return nil, nil, false
}

func splice(head, tail game.Code, cut int) game.Code {
	out := make(game.Code, 0, len(head))
	out = append(out, head[:cut]...)
	return append(out, tail[cut:]...)
}

// Mutate replaces one random position of c with a random palette colour.
// Draws that repeat a colour or produce a code for which taken returns true
// are retried, at most attempts times. ok is false when every draw failed.
func Mutate(c game.Code, space *game.Space, rng *rand.Rand, taken func(game.Code) bool, attempts int) (game.Code, bool) {
	for try := 0; try < attempts; try++ {
		m := c.Clone()
		m[rng.Intn(len(m))] = space.Color()
		if m.Distinct() && !taken(m) {
			return m, true
		}
	}
	return c, false
}
