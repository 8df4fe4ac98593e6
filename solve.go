package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robalobadob/mastermind/internal/driver"
	"github.com/robalobadob/mastermind/internal/game"
	"github.com/robalobadob/mastermind/internal/metrics"
	"github.com/robalobadob/mastermind/internal/solver"
)

func newSolveCmd(opts *rootOptions) *cobra.Command {
	var codeFlag string
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Run the autonomous solver against a code and print its guesses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			rng := cfg.NewRand()

			var code game.Code
			if codeFlag == "" {
				code = game.NewSpace(cfg.Rules, rng).Sample()
			} else {
				code = game.ParseCode(codeFlag)
				if err := cfg.Rules.Check(code); err != nil {
					opts.code = driver.Classify(err)
					return err
				}
			}

			res, err := solver.New(cfg.Rules, cfg.Search, solver.TargetOracle(code), rng).Run(cmd.Context())
			if err != nil {
				opts.code = driver.ExitInternal
				return err
			}
			metrics.Search(res.State.String(), len(res.Guesses))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "code %s\n", code)
			for i, g := range res.Guesses {
				fmt.Fprintf(out, "Guess %d: %s -> %s\n", i+1, g, game.Score(code, g))
			}
			fmt.Fprintf(out, "%s after %d guesses\n", res.State, len(res.Guesses))
			opts.code = driver.ExitOK
			return nil
		},
	}
	cmd.Flags().StringVar(&codeFlag, "code", "", "hidden code (random if empty)")
	return cmd
}
