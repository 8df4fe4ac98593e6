// Command mastermind plays Mastermind game files, runs the autonomous
// solver and serves the HTTP API.
//
//	mastermind play INPUT OUTPUT [CODE_LENGTH] [MAX_GUESSES] [COLOURS...]
//	mastermind solve --code "red blue yellow green"
//	mastermind serve
//
// The process exit status is the session's driver.ExitCode.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/mastermind/internal/config"
	"github.com/robalobadob/mastermind/internal/driver"
)

func main() {
	os.Exit(int(run(os.Args[1:])))
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath   string
	logLevel     string
	seed         int64
	allowRepeats bool
	code         driver.ExitCode
}

func run(args []string) driver.ExitCode {
	_ = godotenv.Load()

	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "mastermind",
		Short:         "Mastermind game runner, solver and API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			format := "console"
			if cmd.Name() == "serve" {
				format = "json"
			}
			setupLogging(opts.logLevel, getEnv("LOG_FORMAT", format))
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", getEnv("MASTERMIND_CONFIG", ""), "YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", getEnv("LOG_LEVEL", "info"), "zerolog level")
	root.PersistentFlags().Int64Var(&opts.seed, "seed", 0, "random seed (0 = time seeded)")
	root.PersistentFlags().BoolVar(&opts.allowRepeats, "allow-repeats", false, "accept guesses that repeat a colour")

	root.AddCommand(newPlayCmd(opts), newSolveCmd(opts), newServeCmd(opts))
	root.SetArgs(args)

	// cobra's own flag and argument errors leave code at ExitOK
	if err := root.ExecuteContext(context.Background()); err != nil {
		if opts.code == driver.ExitOK {
			log.Error().Err(err).Msg("usage")
			return driver.ExitUsage
		}
		log.Error().Err(err).Int("exitCode", int(opts.code)).Msg("command failed")
	}
	return opts.code
}

// loadConfig layers file and env config, then applies the shared flags.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, errors.Wrap(err, "config")
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = o.seed
	}
	if cmd.Flags().Changed("allow-repeats") {
		cfg.AllowRepeatedGuessColors = o.allowRepeats
	}
	return cfg, nil
}

func setupLogging(level, format string) {
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
