// internal/config/config.go
//
// Immutable run configuration for the game, the search and the CLI.
//
// Layering (later wins):
//   1. Default(): classic rules, tuned search params, embedded palette.
//   2. YAML file (optional, --config).
//   3. Environment (MASTERMIND_*; a .env file is loaded by main).
//   4. CLI positional overrides, applied by the caller.
//
// Environment variables:
//   MASTERMIND_CODE_LENGTH, MASTERMIND_MAX_GUESSES
//   MASTERMIND_PALETTE="red blue ..." or MASTERMIND_PALETTE_FILE=/path/to/palette.txt
//   MASTERMIND_SEED, MASTERMIND_POPULATION_SIZE, MASTERMIND_TOURNAMENT_SIZE,
//   MASTERMIND_MUTATION_RATE, MASTERMIND_ALLOW_REPEATS

package config

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/mastermind/assets"
	"github.com/robalobadob/mastermind/internal/game"
	"github.com/robalobadob/mastermind/internal/solver"
)

// DefaultArtifactName is the sibling file written in computer mode.
const DefaultArtifactName = "computerGame.txt"

// Config is passed by value; nothing mutates it after Validate.
type Config struct {
	Rules                    game.Rules    `yaml:"rules"`
	Search                   solver.Params `yaml:"search"`
	Seed                     int64         `yaml:"seed"`
	ArtifactName             string        `yaml:"artifact_name"`
	AllowRepeatedGuessColors bool          `yaml:"allow_repeated_guess_colors"`
}

// Default returns the baseline configuration.
func Default() Config {
	rules := game.DefaultRules()
	if p, err := assets.PaletteList(); err == nil && len(p) > 0 {
		rules.Palette = toColors(p)
	}
	return Config{
		Rules:        rules,
		Search:       solver.DefaultParams(),
		ArtifactName: DefaultArtifactName,
	}
}

// Load builds a validated config from defaults, an optional YAML file and
// the process environment.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		var err error
		if c, err = LoadFile(path, c); err != nil {
			return Config{}, err
		}
	}
	c, err := c.WithEnv(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// LoadFile overlays the YAML document at path onto base.
func LoadFile(path string, base Config) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(raw, &base); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	return base, nil
}

// WithEnv applies MASTERMIND_* overrides read through lookup.
func (c Config) WithEnv(lookup func(string) (string, bool)) (Config, error) {
	var errs error
	intVar := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	intVar("MASTERMIND_CODE_LENGTH", &c.Rules.CodeLength)
	intVar("MASTERMIND_MAX_GUESSES", &c.Rules.MaxGuesses)
	intVar("MASTERMIND_POPULATION_SIZE", &c.Search.PopulationSize)
	intVar("MASTERMIND_TOURNAMENT_SIZE", &c.Search.TournamentSize)

	if v, ok := lookup("MASTERMIND_SEED"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("MASTERMIND_SEED: %w", err))
		} else {
			c.Seed = n
		}
	}
	if v, ok := lookup("MASTERMIND_MUTATION_RATE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("MASTERMIND_MUTATION_RATE: %w", err))
		} else {
			c.Search.MutationRate = f
		}
	}
	if v, ok := lookup("MASTERMIND_ALLOW_REPEATS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("MASTERMIND_ALLOW_REPEATS: %w", err))
		} else {
			c.AllowRepeatedGuessColors = b
		}
	}
	if v, ok := lookup("MASTERMIND_PALETTE_FILE"); ok && v != "" {
		p, err := readPaletteFile(v)
		if err != nil {
			errs = multierror.Append(errs, err)
		} else {
			c.Rules.Palette = p
		}
	}
	if v, ok := lookup("MASTERMIND_PALETTE"); ok && v != "" {
		c.Rules.Palette = toColors(strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }))
	}
	return c, errs
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs error
	bad := func(format string, args ...any) {
		errs = multierror.Append(errs, fmt.Errorf(format, args...))
	}

	r := c.Rules
	if r.CodeLength < 1 {
		bad("code length must be at least 1, got %d", r.CodeLength)
	}
	if r.MaxGuesses < 1 {
		bad("max guesses must be at least 1, got %d", r.MaxGuesses)
	}
	if len(r.Palette) == 0 {
		bad("palette is empty")
	}
	seen := make(map[game.Color]struct{}, len(r.Palette))
	for _, col := range r.Palette {
		if !IsAlpha(string(col)) {
			bad("palette colour %q must be alphabetic", col)
		}
		if _, dup := seen[col]; dup {
			bad("palette colour %q repeated", col)
		}
		seen[col] = struct{}{}
	}
	if len(seen) < r.CodeLength {
		bad("palette has %d colours, code length %d needs at least as many", len(seen), r.CodeLength)
	}

	s := c.Search
	if s.PopulationSize < 2 {
		bad("population size must be at least 2, got %d", s.PopulationSize)
	}
	if s.TournamentSize < 1 {
		bad("tournament size must be at least 1, got %d", s.TournamentSize)
	}
	if s.MutationRate < 0 || s.MutationRate > 1 {
		bad("mutation rate must be within [0,1], got %g", s.MutationRate)
	}
	if s.BlackPegReward < 0 || s.WhitePegReward < 0 {
		bad("peg rewards must not be negative")
	}
	if s.Elites < 0 {
		bad("elites must not be negative, got %d", s.Elites)
	}
	if s.RepairAttempts < 1 {
		bad("repair attempts must be at least 1, got %d", s.RepairAttempts)
	}
	if c.ArtifactName == "" {
		bad("artifact name is empty")
	}
	return errs
}

// NewRand returns the run's single random source. Seed 0 means time-seeded.
func (c Config) NewRand() *rand.Rand {
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// IsAlpha reports whether s is a non-empty run of letters.
func IsAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

// readPaletteFile loads one colour per line, skipping blanks and # comments.
func readPaletteFile(path string) ([]game.Color, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open palette file")
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return toColors(out), errors.Wrap(sc.Err(), "read palette file")
}

func toColors(ss []string) []game.Color {
	out := make([]game.Color, len(ss))
	for i, s := range ss {
		out[i] = game.Color(s)
	}
	return out
}
