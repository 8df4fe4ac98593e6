package game

import "math/rand"

// Space samples legal codes from the palette using a caller-owned generator.
type Space struct {
	rules Rules
	rng   *rand.Rand
}

// NewSpace binds the rules to a random source. The generator is shared, not
// copied, so one seeded *rand.Rand drives a whole run.
func NewSpace(rules Rules, rng *rand.Rand) *Space {
	return &Space{rules: rules, rng: rng}
}

// Rules returns the rules the space samples from.
func (s *Space) Rules() Rules { return s.rules }

// Sample draws CodeLength distinct colours without replacement; the result
// keeps draw order.
func (s *Space) Sample() Code {
	perm := s.rng.Perm(len(s.rules.Palette))
	out := make(Code, s.rules.CodeLength)
	for i := range out {
		out[i] = s.rules.Palette[perm[i]]
	}
	return out
}

// Color returns one palette colour chosen uniformly.
func (s *Space) Color() Color {
	return s.rules.Palette[s.rng.Intn(len(s.rules.Palette))]
}

// Valid is Rules.Valid.
func (s *Space) Valid(seq Code) bool { return s.rules.Valid(seq) }
