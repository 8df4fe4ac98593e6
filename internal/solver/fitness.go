package solver

import "github.com/robalobadob/mastermind/internal/game"

// Oracle answers a guess with peg feedback. It is the only view of the
// hidden code the search gets.
type Oracle func(guess game.Code) game.Feedback

// TargetOracle scores guesses against a known code.
func TargetOracle(target game.Code) Oracle {
	t := target.Clone()
	return func(guess game.Code) game.Feedback { return game.Score(t, guess) }
}

// Evaluator turns feedback into a scalar fitness.
type Evaluator struct {
	oracle     Oracle
	black      int
	white      int
	codeLength int
}

// NewEvaluator builds an evaluator with the rewards from p.
func NewEvaluator(oracle Oracle, codeLength int, p Params) *Evaluator {
	return &Evaluator{oracle: oracle, black: p.BlackPegReward, white: p.WhitePegReward, codeLength: codeLength}
}

// Fitness sums the peg rewards earned by candidate.
func (e *Evaluator) Fitness(candidate game.Code) int {
	return reward(e.oracle(candidate), e.black, e.white)
}

// Solved reports whether candidate earns a perfect score.
func (e *Evaluator) Solved(candidate game.Code) bool {
	return game.Solves(e.oracle(candidate), e.codeLength)
}

// Fitness scores candidate against target directly.
func Fitness(candidate, target game.Code, p Params) int {
	return reward(game.Score(target, candidate), p.BlackPegReward, p.WhitePegReward)
}

func reward(fb game.Feedback, black, white int) int {
	b, w := fb.Counts()
	return b*black + w*white
}
