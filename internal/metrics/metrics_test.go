package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCounters(t *testing.T) {
	Session("human", "won")
	Guess(false)
	Search("found", 4)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `mastermind_sessions_total{mode="human",outcome="won"}`)
	assert.Contains(t, body, `mastermind_guesses_total{result="invalid"}`)
	assert.Contains(t, body, `mastermind_search_runs_total{state="found"}`)
	assert.Contains(t, body, "mastermind_search_generations_total")
}
