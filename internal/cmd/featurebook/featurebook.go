// Package featurebook parses featurebook flags and runs its subcommands.
package featurebook

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/louisbranch/featurebook/internal/platform/cmd"
	apperrors "github.com/louisbranch/featurebook/internal/platform/errors"
	errori18n "github.com/louisbranch/featurebook/internal/platform/errors/i18n"
	"github.com/louisbranch/featurebook/internal/platform/random"
)

// ErrUsage indicates a missing or unknown subcommand or argument.
var ErrUsage = errors.New("usage: featurebook [-db path] [-locale tag] [-collapse-descriptions] " +
	"<types|create|list|show|set-type|roll|regenerate-fuid> [flags] [args]")

// Config holds featurebook command configuration.
type Config struct {
	DBPath               string `env:"DB_PATH" envDefault:"featurebook.db"`
	Locale               string `env:"LOCALE" envDefault:"en-US"`
	CollapseDescriptions bool   `env:"COLLAPSE_DESCRIPTIONS"`

	// Args holds the subcommand and its own flags and arguments.
	Args []string
	// Seed overrides the dice seed source.
	Seed random.SeedFunc
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := cmd.LoadConfig(&cfg, fs, args, bindFlags); err != nil {
		return Config{}, err
	}
	cfg.Args = fs.Args()
	return cfg, nil
}

func bindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path of the SQLite item database")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale of dialogs and messages")
	fs.BoolVar(&cfg.CollapseDescriptions, "collapse-descriptions", cfg.CollapseDescriptions, "Collapse descriptions in chat cards")
}

// Run executes the configured subcommand with telemetry.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	return cmd.RunWithTelemetry(ctx, cmd.ServiceFeaturebook, func(ctx context.Context) error {
		return Execute(ctx, cfg, in, out)
	})
}

// Execute runs one subcommand, reading answers from in and writing to out.
func Execute(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	if len(cfg.Args) == 0 {
		return ErrUsage
	}
	name, args := cfg.Args[0], cfg.Args[1:]
	command, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q: %w", name, ErrUsage)
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return command(ctx, &session{cfg: cfg, in: in, out: out}, fs, args)
}

// ExitCode maps a command error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	default:
		return apperrors.CodeOf(err).ExitCode()
	}
}

// Message returns the user-facing text of err in locale. Errors without a
// domain code are reported verbatim.
func Message(locale string, err error) string {
	return errori18n.Localize(locale, err)
}
