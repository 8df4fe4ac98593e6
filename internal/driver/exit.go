package driver

import (
	"github.com/pkg/errors"

	"github.com/robalobadob/mastermind/internal/game"
	"github.com/robalobadob/mastermind/internal/gamefile"
)

// ExitCode is the process status surfaced to the CLI.
type ExitCode int

const (
	ExitOK ExitCode = iota
	ExitUsage
	ExitInput
	ExitOutput
	ExitMalformedCode
	ExitMalformedPlayer
	ExitInternal
)

// Classify maps a session error to its exit code.
func Classify(err error) ExitCode {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, game.ErrMalformedCode):
		return ExitMalformedCode
	case errors.Is(err, gamefile.ErrMalformedPlayer):
		return ExitMalformedPlayer
	case errors.Is(err, gamefile.ErrMalformedInput), errors.Is(err, gamefile.ErrUnreadable):
		return ExitInput
	case errors.Is(err, gamefile.ErrUnwritable):
		return ExitOutput
	}
	return ExitInternal
}

// failureLine is what the output file receives for a setup failure, if anything.
func failureLine(code ExitCode) (string, bool) {
	switch code {
	case ExitInput:
		return gamefile.InputIssueLine, true
	case ExitMalformedCode:
		return gamefile.BadCodeLine, true
	case ExitMalformedPlayer:
		return gamefile.BadPlayerLine, true
	}
	return "", false
}
