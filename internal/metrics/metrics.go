// Package metrics exposes prometheus counters for sessions and searches.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mastermind",
		Name:      "sessions_total",
		Help:      "Completed game sessions by player mode and outcome.",
	}, []string{"mode", "outcome"})

	guessesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mastermind",
		Name:      "guesses_total",
		Help:      "Processed guesses by validity.",
	}, []string{"result"})

	searchRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mastermind",
		Name:      "search_runs_total",
		Help:      "Autonomous search runs by terminal state.",
	}, []string{"state"})

	searchGenerationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mastermind",
		Name:      "search_generations_total",
		Help:      "Generations evolved by the autonomous search.",
	})
)

// Session counts one finished session.
func Session(mode, outcome string) {
	sessionsTotal.WithLabelValues(mode, outcome).Inc()
}

// Guess counts one processed guess.
func Guess(valid bool) {
	r := "invalid"
	if valid {
		r = "valid"
	}
	guessesTotal.WithLabelValues(r).Inc()
}

// Search counts one finished search run and its generations.
func Search(state string, generations int) {
	searchRunsTotal.WithLabelValues(state).Inc()
	searchGenerationsTotal.Add(float64(generations))
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
