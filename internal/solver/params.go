// Package solver plays Mastermind on its own with a small genetic search.
//
// One generation is: refill the population, tournament selection, elitism,
// single-point crossover of every parent pair, rare point mutation, then one
// guess is emitted. Fitness only ever sees peg feedback.
package solver

// Params holds the genetic search hyperparameters.
type Params struct {
	PopulationSize int     `json:"populationSize" yaml:"population_size"`
	TournamentSize int     `json:"tournamentSize" yaml:"tournament_size"`
	MutationRate   float64 `json:"mutationRate" yaml:"mutation_rate"`
	BlackPegReward int     `json:"blackPegReward" yaml:"black_peg_reward"`
	WhitePegReward int     `json:"whitePegReward" yaml:"white_peg_reward"`
	Elites         int     `json:"elites" yaml:"elites"`
	RepairAttempts int     `json:"repairAttempts" yaml:"repair_attempts"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		PopulationSize: 10,
		TournamentSize: 2,
		MutationRate:   0.01,
		BlackPegReward: 10,
		WhitePegReward: 5,
		Elites:         2,
		RepairAttempts: 100,
	}
}
