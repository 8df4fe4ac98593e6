package solver

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mastermind/internal/game"
)

// State is the lifecycle of one search run.
type State int

const (
	Uninitialized State = iota
	Active
	Found
	Exhausted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case Found:
		return "found"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// ErrDone is returned by Step once the run reached Found or Exhausted.
var ErrDone = errors.New("search finished")

// Result summarises a finished run.
type Result struct {
	Guesses []game.Code
	State   State
}

// Engine emits one guess per generation until it finds the code or spends
// the guess budget. It is not safe for concurrent use.
type Engine struct {
	rules  game.Rules
	params Params
	space  *game.Space
	eval   *Evaluator
	rng    *rand.Rand

	state   State
	carried []game.Code
	guesses []game.Code
}

// New wires an engine. rng is shared with the candidate space so a single
// seed reproduces the whole run.
func New(rules game.Rules, params Params, oracle Oracle, rng *rand.Rand) *Engine {
	return &Engine{
		rules:  rules,
		params: params,
		space:  game.NewSpace(rules, rng),
		eval:   NewEvaluator(oracle, rules.CodeLength, params),
		rng:    rng,
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// Guesses returns the guesses emitted so far.
func (e *Engine) Guesses() []game.Code { return e.guesses }

// Run steps until a terminal state or ctx is done.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	for e.state != Found && e.state != Exhausted {
		if err := ctx.Err(); err != nil {
			return Result{Guesses: e.guesses, State: e.state}, errors.WithStack(err)
		}
		if _, err := e.Step(); err != nil {
			return Result{Guesses: e.guesses, State: e.state}, err
		}
	}
	return Result{Guesses: e.guesses, State: e.state}, nil
}

// Step runs one generation and returns the guess it emits.
func (e *Engine) Step() (game.Code, error) {
	if e.state == Found || e.state == Exhausted {
		return nil, ErrDone
	}

	pop := e.refill()
	next := e.assemble(e.tournament(pop))

	guess, found := e.pick(next)
	e.carried = next.Codes()
	e.guesses = append(e.guesses, guess)

	switch {
	case found:
		e.state = Found
	case len(e.guesses) >= e.rules.MaxGuesses:
		e.state = Exhausted
	}

	best, _ := next.Best()
	log.Debug().
		Int("generation", len(e.guesses)).
		Int("population", next.Len()).
		Int("bestFitness", best.Fitness).
		Str("guess", guess.String()).
		Str("state", e.state.String()).
		Msg("search generation")
	return guess, nil
}

// refill seeds the first population, or re-scores the carried codes and
// tops them up with fresh samples.
func (e *Engine) refill() *Population {
	target := e.rules.SpaceSize(e.params.PopulationSize)
	pop := NewPopulation(max(target, len(e.carried)))
	if e.state == Uninitialized {
		e.state = Active
	} else {
		for _, c := range e.carried {
			pop.Add(c, e.eval.Fitness(c))
		}
	}
	for pop.Len() < target {
		c := e.space.Sample()
		if !pop.Contains(c) {
			pop.Add(c, e.eval.Fitness(c))
		}
	}
	return pop
}

// tournament runs PopulationSize/TournamentSize tournaments. Each draws
// distinct members and keeps the strictly fittest; ties go to the first drawn.
func (e *Engine) tournament(pop *Population) []Individual {
	rounds := max(e.params.PopulationSize/max(e.params.TournamentSize, 1), 1)
	k := min(max(e.params.TournamentSize, 1), pop.Len())

	pool := make([]Individual, 0, rounds)
	for r := 0; r < rounds; r++ {
		idx := e.rng.Perm(pop.Len())[:k]
		best := pop.At(idx[0])
		for _, i := range idx[1:] {
			if m := pop.At(i); m.Fitness > best.Fitness {
				best = m
			}
		}
		pool = append(pool, best)
	}
	return pool
}

// assemble builds the next population from a tournament pool: bred and
// mutated children plus the first Elites pool members, unique by code.
func (e *Engine) assemble(pool []Individual) *Population {
	elites := pool[:min(e.params.Elites, len(pool))]

	next := e.breed(pool)
	e.mutate(next, elites)
	for _, el := range elites {
		next.Add(el.Code, el.Fitness)
	}
	if next.Len() == 0 {
		next.Add(pool[0].Code, pool[0].Fitness)
	}
	return next
}

// breed crosses every unordered pair of distinct parents once.
func (e *Engine) breed(pool []Individual) *Population {
	children := NewPopulation(len(pool) * len(pool))
	seen := make(map[[2]string]struct{})
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			a, b := pool[i].Code, pool[j].Code
			if a.Equal(b) {
				continue
			}
			pk := pairKey(a, b)
			if _, dup := seen[pk]; dup {
				continue
			}
			seen[pk] = struct{}{}

			c1, c2, ok := Crossover(a, b, e.rng, e.params.RepairAttempts)
			if !ok {
				log.Debug().Str("a", a.String()).Str("b", b.String()).Msg("crossover repair exhausted, resampling")
				c1, c2 = e.space.Sample(), e.space.Sample()
			}
			children.Add(c1, e.eval.Fitness(c1))
			children.Add(c2, e.eval.Fitness(c2))
		}
	}
	return children
}

// mutate perturbs each child with probability MutationRate. A mutant may not
// recreate another child or one of the elites joining the population.
func (e *Engine) mutate(children *Population, elites []Individual) {
	taken := func(c game.Code) bool {
		if children.Contains(c) {
			return true
		}
		for _, el := range elites {
			if el.Code.Equal(c) {
				return true
			}
		}
		return false
	}
	for i := 0; i < children.Len(); i++ {
		if e.rng.Float64() >= e.params.MutationRate {
			continue
		}
		m, ok := Mutate(children.At(i).Code, e.space, e.rng, taken, e.params.RepairAttempts)
		if !ok {
			continue
		}
		children.Replace(i, m, e.eval.Fitness(m))
	}
}

// pick returns the solving member if there is one, else a uniform choice.
func (e *Engine) pick(next *Population) (game.Code, bool) {
	for i := 0; i < next.Len(); i++ {
		if c := next.At(i).Code; e.eval.Solved(c) {
			return c, true
		}
	}
	return next.At(e.rng.Intn(next.Len())).Code, false
}

func pairKey(a, b game.Code) [2]string {
	ka, kb := a.Key(), b.Key()
	if kb < ka {
		ka, kb = kb, ka
	}
	return [2]string{ka, kb}
}
