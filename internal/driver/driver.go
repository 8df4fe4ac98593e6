// internal/driver/driver.go
//
// Session driver: picks the guess source for a parsed game file and feeds it
// to a game session.
//
//   - Human mode replays the guess lines from the file.
//   - Computer mode runs the search against the hidden code, writes the
//     replayable artifact next to the output, then replays that artifact
//     through the human path.
//
// Execute is the CLI boundary: it never panics and always returns an ExitCode.

package driver

import (
	"context"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mastermind/internal/config"
	"github.com/robalobadob/mastermind/internal/game"
	"github.com/robalobadob/mastermind/internal/gamefile"
	"github.com/robalobadob/mastermind/internal/metrics"
	"github.com/robalobadob/mastermind/internal/solver"
	"github.com/robalobadob/mastermind/internal/store"
)

// Recorder persists finished sessions. *store.History satisfies it.
type Recorder interface {
	Record(ctx context.Context, s store.Summary) error
}

// Session is the result of one driven game.
type Session struct {
	GameID string
	Mode   gamefile.Mode
	Result game.Result
	// Search is set in computer mode.
	Search *solver.Result
	Lines  []string
}

// Driver runs sessions under one configuration.
type Driver struct {
	cfg   config.Config
	rec   Recorder
	owner string
}

// Option configures a Driver.
type Option func(*Driver)

// WithRecorder records every completed session.
func WithRecorder(r Recorder) Option { return func(d *Driver) { d.rec = r } }

// WithOwner sets the anonymous owner id stored with recorded sessions.
func WithOwner(id string) Option { return func(d *Driver) { d.owner = id } }

// New returns a driver for cfg.
func New(cfg config.Config, opts ...Option) *Driver {
	d := &Driver{cfg: cfg, owner: "cli"}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Execute plays the game file at in and appends the transcript to out.
func (d *Driver) Execute(ctx context.Context, in, out string) (code ExitCode) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("input", in).Msg("session aborted")
			code = ExitInternal
		}
	}()

	def, err := gamefile.Load(in, d.cfg.Rules)
	if err != nil {
		return d.fail(out, err)
	}

	artifact := filepath.Join(filepath.Dir(out), d.cfg.ArtifactName)
	sess, err := d.Run(ctx, def, artifact)
	if err != nil {
		return d.fail(out, err)
	}
	if err := gamefile.AppendLines(out, sess.Lines); err != nil {
		return d.fail(out, err)
	}
	return ExitOK
}

func (d *Driver) fail(out string, err error) ExitCode {
	code := Classify(err)
	log.Error().Err(err).Int("exitCode", int(code)).Msg("session failed")
	if line, ok := failureLine(code); ok {
		if werr := gamefile.AppendLines(out, []string{line}); werr != nil {
			log.Warn().Err(werr).Str("output", out).Msg("write failure line")
		}
	}
	return code
}

// Run drives one parsed definition. artifact is only used in computer mode.
func (d *Driver) Run(ctx context.Context, def *gamefile.Definition, artifact string) (Session, error) {
	started := time.Now()
	log.Info().Str("mode", string(def.Mode)).Int("codeLength", d.cfg.Rules.CodeLength).Msg("session start")

	var (
		sess Session
		err  error
	)
	switch def.Mode {
	case gamefile.Human:
		sess, err = d.human(def.Code, def.Guesses)
	case gamefile.Computer:
		sess, err = d.computer(ctx, def.Code, artifact)
	default:
		return Session{}, errors.Wrapf(gamefile.ErrMalformedPlayer, "mode %q", def.Mode)
	}
	if err != nil {
		return Session{}, err
	}
	sess.Mode = def.Mode

	metrics.Session(string(def.Mode), string(sess.Result.Outcome.Kind))
	log.Info().
		Str("gameId", sess.GameID).
		Str("outcome", string(sess.Result.Outcome.Kind)).
		Int("guesses", len(sess.Result.Records)).
		Dur("elapsed", time.Since(started)).
		Msg("session end")

	d.record(ctx, sess, started)
	return sess, nil
}

func (d *Driver) human(code game.Code, guesses []game.Code) (Session, error) {
	g, err := game.New(d.cfg.Rules, code, game.WithRepeatedGuessColors(d.cfg.AllowRepeatedGuessColors))
	if err != nil {
		return Session{}, err
	}
	res, err := g.Play(guesses)
	if err != nil {
		return Session{}, err
	}
	for _, r := range res.Records {
		metrics.Guess(r.Valid)
	}
	return Session{
		GameID: g.ID,
		Result: res,
		Lines:  gamefile.Transcript(res, d.cfg.Rules.MaxGuesses),
	}, nil
}

func (d *Driver) computer(ctx context.Context, code game.Code, artifact string) (Session, error) {
	if err := d.cfg.Rules.Check(code); err != nil {
		return Session{}, err
	}
	eng := solver.New(d.cfg.Rules, d.cfg.Search, solver.TargetOracle(code), d.cfg.NewRand())
	sr, err := eng.Run(ctx)
	if err != nil {
		return Session{}, errors.Wrap(err, "search")
	}
	metrics.Search(sr.State.String(), len(sr.Guesses))
	log.Debug().Str("state", sr.State.String()).Int("generations", len(sr.Guesses)).Msg("search done")

	if err := gamefile.WriteArtifact(artifact, code, sr.Guesses); err != nil {
		return Session{}, err
	}
	replay, err := gamefile.Load(artifact, d.cfg.Rules)
	if err != nil {
		return Session{}, errors.Wrapf(err, "replay %s", artifact)
	}
	sess, err := d.human(replay.Code, replay.Guesses)
	if err != nil {
		return Session{}, err
	}
	sess.Search = &sr
	return sess, nil
}

func (d *Driver) record(ctx context.Context, sess Session, started time.Time) {
	if d.rec == nil {
		return
	}
	err := d.rec.Record(ctx, store.Summary{
		ID:          sess.GameID,
		AnonymousID: d.owner,
		Mode:        string(sess.Mode),
		Status:      string(sess.Result.Outcome.Kind),
		Guesses:     len(sess.Result.Records),
		StartedAt:   started,
		FinishedAt:  time.Now(),
	})
	if err != nil {
		log.Warn().Err(err).Str("gameId", sess.GameID).Msg("record session")
	}
}
