package gamefile

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/robalobadob/mastermind/internal/game"
)

// Fixed sentences of the output format.
const (
	IllFormedGuess  = "ill-formed guess provided"
	LostLine        = "You lost. Please try again."
	IgnoredLine     = "The game was completed. Further lines were ignored."
	InputIssueLine  = "Issue with input file."
	BadCodeLine     = "No or ill-formed code provided."
	BadPlayerLine   = "No or ill-formed player provided."
	artifactPlayer  = "player human"
	wonLineFormat   = "You won in %d guesses. Congratulations!"
	limitLineFormat = "You can only have %d guesses"
)

// Transcript renders a session result as output lines.
func Transcript(res game.Result, maxGuesses int) []string {
	out := make([]string, 0, len(res.Records)+2)
	for _, rec := range res.Records {
		if !rec.Valid {
			out = append(out, fmt.Sprintf("Guess %d: %s", rec.Index, IllFormedGuess))
			continue
		}
		out = append(out, fmt.Sprintf("Guess %d: %s", rec.Index, rec.Feedback.String()))
	}
	switch res.Outcome.Kind {
	case game.Won:
		out = append(out, fmt.Sprintf(wonLineFormat, res.Outcome.At))
		if res.TrailingIgnored {
			out = append(out, IgnoredLine)
		}
	case game.ExceededMaxGuesses:
		out = append(out, fmt.Sprintf(limitLineFormat, maxGuesses))
	case game.Lost:
		out = append(out, LostLine)
	}
	return out
}

// AppendLines appends lines to path, creating it if needed.
func AppendLines(path string, lines []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(ErrUnwritable, "%v", err)
	}
	return writeAndClose(f, lines)
}

// WriteArtifact rewrites path as a replayable human-mode game holding code
// and the emitted guesses.
func WriteArtifact(path string, code game.Code, guesses []game.Code) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(ErrUnwritable, "%v", err)
	}
	lines := make([]string, 0, len(guesses)+2)
	lines = append(lines, codeLabel+" "+code.String(), artifactPlayer)
	for _, g := range guesses {
		lines = append(lines, g.String())
	}
	return writeAndClose(f, lines)
}

func writeAndClose(f *os.File, lines []string) error {
	w := bufio.NewWriter(f)
	for _, l := range lines {
		if _, err := w.WriteString(l + "\n"); err != nil {
			_ = f.Close()
			return errors.Wrapf(ErrUnwritable, "%v", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return errors.Wrapf(ErrUnwritable, "%v", err)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(ErrUnwritable, "%v", err)
	}
	return nil
}
