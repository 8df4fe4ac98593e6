package gamefile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/mastermind/internal/game"
)

func parse(t *testing.T, src string) (*Definition, error) {
	t.Helper()
	return Parse(strings.NewReader(src), game.DefaultRules())
}

func TestParseHuman(t *testing.T) {
	def, err := parse(t, "code red blue yellow green\nplayer human\nblue red yellow orange\nred blue yellow\n\n\n")
	require.NoError(t, err)
	assert.Equal(t, Human, def.Mode)
	assert.Equal(t, game.ParseCode("red blue yellow green"), def.Code)
	require.Len(t, def.Guesses, 2)
	assert.Equal(t, game.ParseCode("red blue yellow"), def.Guesses[1])
}

func TestParseComputerIgnoresGuesses(t *testing.T) {
	def, err := parse(t, "code red blue yellow green\nplayer computer\nred blue yellow green\n")
	require.NoError(t, err)
	assert.Equal(t, Computer, def.Mode)
	assert.Empty(t, def.Guesses)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{"empty", "", ErrMalformedInput},
		{"one line", "code red blue yellow green\n", ErrMalformedInput},
		{"no label", "red blue yellow green\nplayer human\nred\n", game.ErrMalformedCode},
		{"duplicate", "code red red yellow green\nplayer human\nred\n", game.ErrMalformedCode},
		{"off palette", "code red blue yellow pink\nplayer human\nred\n", game.ErrMalformedCode},
		{"short", "code red blue yellow\nplayer human\nred\n", game.ErrMalformedCode},
		{"player label", "code red blue yellow green\nhuman\nred\n", ErrMalformedPlayer},
		{"player mode", "code red blue yellow green\nplayer robot\nred\n", ErrMalformedPlayer},
		{"no guesses", "code red blue yellow green\nplayer human\n\n", ErrMalformedInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parse(t, tc.src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"), game.DefaultRules())
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestTranscript(t *testing.T) {
	res := game.Result{
		Outcome: game.Outcome{Kind: game.Won, At: 3},
		Records: []game.Record{
			{Index: 1, Valid: true, Feedback: game.Feedback{game.White, game.White, game.Black}},
			{Index: 2},
			{Index: 3, Valid: true, Feedback: game.Feedback{game.Black, game.Black, game.Black, game.Black}},
		},
		TrailingIgnored: true,
	}
	assert.Equal(t, []string{
		"Guess 1: white white black",
		"Guess 2: ill-formed guess provided",
		"Guess 3: black black black black",
		"You won in 3 guesses. Congratulations!",
		IgnoredLine,
	}, Transcript(res, 12))

	assert.Equal(t, []string{"You can only have 12 guesses"},
		Transcript(game.Result{Outcome: game.Outcome{Kind: game.ExceededMaxGuesses}}, 12))
	assert.Equal(t, []string{"Guess 1: ", LostLine},
		Transcript(game.Result{Outcome: game.Outcome{Kind: game.Lost}, Records: []game.Record{{Index: 1, Valid: true}}}, 12))
}

func TestArtifactRoundTripsThroughParse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "computerGame.txt")
	code := game.ParseCode("red blue yellow green")
	guesses := []game.Code{game.ParseCode("blue red yellow orange"), code}

	require.NoError(t, WriteArtifact(path, code, guesses))
	def, err := Load(path, game.DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, Human, def.Mode)
	assert.Equal(t, code, def.Code)
	assert.Equal(t, guesses, def.Guesses)
}

func TestAppendLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, AppendLines(path, []string{"a"}))
	require.NoError(t, AppendLines(path, []string{"b", "c"}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", string(raw))

	err = AppendLines(filepath.Join(t.TempDir(), "missing", "out.txt"), []string{"x"})
	assert.ErrorIs(t, err, ErrUnwritable)
}
