package solver

import "github.com/robalobadob/mastermind/internal/game"

// Individual pairs a candidate with its cached fitness.
type Individual struct {
	Code    game.Code
	Fitness int
}

// Population is an insertion-ordered set of individuals, unique by code value.
type Population struct {
	members []Individual
	index   map[string]int
}

// NewPopulation returns an empty population.
func NewPopulation(capacity int) *Population {
	return &Population{
		members: make([]Individual, 0, capacity),
		index:   make(map[string]int, capacity),
	}
}

// Add inserts c unless an equal code is already present.
func (p *Population) Add(c game.Code, fitness int) bool {
	k := c.Key()
	if _, ok := p.index[k]; ok {
		return false
	}
	p.index[k] = len(p.members)
	p.members = append(p.members, Individual{Code: c, Fitness: fitness})
	return true
}

// Replace swaps the member at i for c. It fails if c is already present.
func (p *Population) Replace(i int, c game.Code, fitness int) bool {
	k := c.Key()
	if _, ok := p.index[k]; ok {
		return false
	}
	delete(p.index, p.members[i].Code.Key())
	p.index[k] = i
	p.members[i] = Individual{Code: c, Fitness: fitness}
	return true
}

// Contains reports membership by value.
func (p *Population) Contains(c game.Code) bool {
	_, ok := p.index[c.Key()]
	return ok
}

// Len returns the number of members.
func (p *Population) Len() int { return len(p.members) }

// At returns the i-th member in insertion order.
func (p *Population) At(i int) Individual { return p.members[i] }

// Codes returns the member codes in insertion order.
func (p *Population) Codes() []game.Code {
	out := make([]game.Code, len(p.members))
	for i, m := range p.members {
		out[i] = m.Code
	}
	return out
}

// Best returns the fittest member; ties go to the earliest.
func (p *Population) Best() (Individual, bool) {
	if len(p.members) == 0 {
		return Individual{}, false
	}
	best := p.members[0]
	for _, m := range p.members[1:] {
		if m.Fitness > best.Fitness {
			best = m
		}
	}
	return best, true
}
