package main

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/mastermind/assets"
	"github.com/robalobadob/mastermind/internal/config"
	"github.com/robalobadob/mastermind/internal/driver"
	"github.com/robalobadob/mastermind/internal/game"
	"github.com/robalobadob/mastermind/internal/store"
)

// playArgs are the positional arguments of the play command.
type playArgs struct {
	Input      string
	Output     string
	CodeLength int
	MaxGuesses int
	Palette    []game.Color
}

// parsePlayArgs validates INPUT OUTPUT [CODE_LENGTH] [MAX_GUESSES] [COLOURS...].
// An empty string leaves an optional slot at its configured value. Colours are
// given either as separate arguments or as one "[red,blue,...]" list.
func parsePlayArgs(args []string) (playArgs, error) {
	var pa playArgs
	if len(args) < 2 {
		return pa, errors.New("need INPUT and OUTPUT")
	}
	pa.Input, pa.Output = args[0], args[1]
	if pa.Input == "" || pa.Output == "" {
		return pa, errors.New("INPUT and OUTPUT must not be empty")
	}

	positive := func(name, v string) (int, error) {
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, errors.Errorf("%s must be an integer >= 1, got %q", name, v)
		}
		return n, nil
	}
	var err error
	if len(args) > 2 {
		if pa.CodeLength, err = positive("CODE_LENGTH", args[2]); err != nil {
			return pa, err
		}
	}
	if len(args) > 3 {
		if pa.MaxGuesses, err = positive("MAX_GUESSES", args[3]); err != nil {
			return pa, err
		}
	}
	for _, a := range args[min(len(args), 4):] {
		a = strings.Trim(a, "[]")
		for _, tok := range strings.FieldsFunc(a, func(r rune) bool { return r == ',' || r == ' ' }) {
			if !config.IsAlpha(tok) {
				return pa, errors.Errorf("colour %q is not alphabetic", tok)
			}
			pa.Palette = append(pa.Palette, game.Color(tok))
		}
	}
	return pa, nil
}

// apply overlays the positional overrides on cfg.
func (pa playArgs) apply(cfg config.Config) config.Config {
	if pa.CodeLength > 0 {
		cfg.Rules.CodeLength = pa.CodeLength
	}
	if pa.MaxGuesses > 0 {
		cfg.Rules.MaxGuesses = pa.MaxGuesses
	}
	if len(pa.Palette) > 0 {
		cfg.Rules.Palette = pa.Palette
	}
	return cfg
}

func newPlayCmd(opts *rootOptions) *cobra.Command {
	var dbPath, artifact string
	cmd := &cobra.Command{
		Use:   "play INPUT OUTPUT [CODE_LENGTH] [MAX_GUESSES] [COLOURS...]",
		Short: "Play a game file and append the transcript to OUTPUT",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pa, err := parsePlayArgs(args)
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg = pa.apply(cfg)
			if artifact != "" {
				cfg.ArtifactName = artifact
			}
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(err, "config")
			}

			var dopts []driver.Option
			if dbPath != "" {
				db, err := store.Open(dbPath)
				if err != nil {
					opts.code = driver.ExitOutput
					return err
				}
				defer db.Close()
				mig, err := assets.Migrations()
				if err == nil {
					err = store.Migrate(db, mig)
				}
				if err != nil {
					opts.code = driver.ExitOutput
					return err
				}
				dopts = append(dopts, driver.WithRecorder(store.NewHistory(db)))
			}

			opts.code = driver.New(cfg, dopts...).Execute(cmd.Context(), pa.Input, pa.Output)
			log.Debug().Int("exitCode", int(opts.code)).Msg("play done")
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "record sessions in this SQLite database")
	cmd.Flags().StringVar(&artifact, "artifact", "", "computer-mode artifact file name (next to OUTPUT)")
	return cmd
}
