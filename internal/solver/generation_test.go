package solver

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/mastermind/internal/game"
)

func TestTournamentKeepsStrictlyFittestFirstDrawnOnTie(t *testing.T) {
	rules := game.DefaultRules()
	p := DefaultParams()
	p.PopulationSize, p.TournamentSize = 12, 4
	const seed = 11

	pop := NewPopulation(6)
	fitness := []int{5, 9, 9, 1, 9, 3}
	sp := game.NewSpace(rules, rand.New(rand.NewSource(99)))
	for _, f := range fitness {
		for !pop.Add(sp.Sample(), f) {
		}
	}

	e := New(rules, p, TargetOracle(game.ParseCode("red blue yellow green")), rand.New(rand.NewSource(seed)))
	pool := e.tournament(pop)
	require.Len(t, pool, 3)

	replay := rand.New(rand.NewSource(seed))
	for r, got := range pool {
		idx := replay.Perm(pop.Len())[:p.TournamentSize]
		want := idx[0]
		for _, i := range idx[1:] {
			if fitness[i] > fitness[want] {
				want = i
			}
		}
		assert.Equal(t, pop.At(want).Code, got.Code, "round %d drew %v", r, idx)
	}
}

func TestAssembleKeepsElitesAndDeduplicates(t *testing.T) {
	rules := game.DefaultRules()
	p := DefaultParams()
	p.MutationRate = 1
	a := game.ParseCode("red blue yellow green")
	b := game.ParseCode("blue red yellow orange")
	c := game.ParseCode("orange yellow green red")
	pool := []Individual{{a, 40}, {b, 20}, {a, 40}, {c, 5}, {b, 20}}

	for seed := int64(1); seed <= 25; seed++ {
		e := New(rules, p, TargetOracle(a), rand.New(rand.NewSource(seed)))
		next := e.assemble(pool)

		assert.True(t, next.Contains(a), "seed %d", seed)
		assert.True(t, next.Contains(b), "seed %d", seed)

		keys := make(map[string]struct{}, next.Len())
		for _, code := range next.Codes() {
			require.True(t, rules.Valid(code))
			keys[code.Key()] = struct{}{}
		}
		assert.Len(t, keys, next.Len(), "seed %d", seed)
	}
}

func TestMutateNeverRecreatesAnElite(t *testing.T) {
	rules := game.Rules{Palette: []game.Color{"red", "blue", "green"}, CodeLength: 2, MaxGuesses: 12}
	p := DefaultParams()
	p.MutationRate = 1
	elites := []Individual{
		{Code: game.ParseCode("red green")},
		{Code: game.ParseCode("green red")},
	}

	for seed := int64(1); seed <= 50; seed++ {
		e := New(rules, p, TargetOracle(game.ParseCode("blue green")), rand.New(rand.NewSource(seed)))
		children := NewPopulation(2)
		children.Add(game.ParseCode("red blue"), 0)
		children.Add(game.ParseCode("blue red"), 0)

		e.mutate(children, elites)
		require.Equal(t, 2, children.Len())
		for _, el := range elites {
			assert.False(t, children.Contains(el.Code), "seed %d: mutant recreated %v", seed, el.Code)
		}
	}
}
