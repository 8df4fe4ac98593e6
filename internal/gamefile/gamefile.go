// internal/gamefile/gamefile.go
//
// Line-based game definition format.
//
//   code red blue yellow green
//   player human|computer
//   <guess line>          (human mode only, one per line)
//   ...
//
// Parse validates the two header lines against the rules; guess lines are
// tokenised but not validated, since a bad guess is a per-guess record and
// not a setup failure.

package gamefile

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/robalobadob/mastermind/internal/game"
)

// Mode selects who supplies the guesses.
type Mode string

const (
	Human    Mode = "human"
	Computer Mode = "computer"
)

const (
	codeLabel   = "code"
	playerLabel = "player"
)

var (
	// ErrMalformedPlayer reports a missing label or unknown player mode.
	ErrMalformedPlayer = errors.New("malformed player declaration")
	// ErrMalformedInput reports an input too short to hold a game.
	ErrMalformedInput = errors.New("malformed input")
	// ErrUnreadable reports an input that could not be opened or read.
	ErrUnreadable = errors.New("input unreadable")
	// ErrUnwritable reports an output that could not be created or written.
	ErrUnwritable = errors.New("output unwritable")
)

// Definition is a parsed game file.
type Definition struct {
	Code    game.Code
	Mode    Mode
	Guesses []game.Code
}

// Load opens and parses the file at path.
func Load(path string, rules game.Rules) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrUnreadable, "%v", err)
	}
	defer f.Close()
	return Parse(f, rules)
}

// Parse reads a definition from r.
func Parse(r io.Reader, rules game.Rules) (*Definition, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(ErrUnreadable, "%v", err)
	}
	if len(lines) < 2 {
		return nil, errors.Wrapf(ErrMalformedInput, "need at least 2 lines, got %d", len(lines))
	}

	code, err := parseCode(lines[0], rules)
	if err != nil {
		return nil, err
	}
	mode, err := parsePlayer(lines[1])
	if err != nil {
		return nil, err
	}

	def := &Definition{Code: code, Mode: mode}
	if mode == Computer {
		return def, nil
	}

	rest := trimTrailingBlank(lines[2:])
	if len(rest) == 0 {
		return nil, errors.Wrap(ErrMalformedInput, "human game has no guesses")
	}
	def.Guesses = make([]game.Code, len(rest))
	for i, l := range rest {
		def.Guesses[i] = game.ParseCode(l)
	}
	return def, nil
}

// parseCode checks the label, then the code itself against the rules.
func parseCode(line string, rules game.Rules) (game.Code, error) {
	f := strings.Fields(line)
	if len(f) == 0 || f[0] != codeLabel {
		return nil, errors.Wrap(game.ErrMalformedCode, "missing code label")
	}
	c := game.ParseCode(strings.Join(f[1:], " "))
	if err := rules.Check(c); err != nil {
		return nil, err
	}
	return c, nil
}

func parsePlayer(line string) (Mode, error) {
	f := strings.Fields(line)
	if len(f) < 2 || f[0] != playerLabel {
		return "", errors.Wrap(ErrMalformedPlayer, "missing player label")
	}
	switch m := Mode(f[1]); m {
	case Human, Computer:
		return m, nil
	default:
		return "", errors.Wrapf(ErrMalformedPlayer, "unknown mode %q", f[1])
	}
}

func trimTrailingBlank(lines []string) []string {
	n := len(lines)
	for n > 0 && strings.TrimSpace(lines[n-1]) == "" {
		n--
	}
	return lines[:n]
}
