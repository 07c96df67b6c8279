// Package commands implements the cargo-vitasdk subcommands.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/cargo-vitasdk/internal/config"
	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
)

// cargoSubcommand is the name cargo passes as the first argument when the
// binary is invoked as `cargo vitasdk`.
const cargoSubcommand = "vitasdk"

// Global carries process-wide dependencies into the subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"vitasdk.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" passthrough:"" help:"Run cargo build for the Vita target and package every executable"`
	History HistoryCmd `cmd:"" help:"Show the recorded events of a previous build"`
	Tools   ToolsCmd   `cmd:"" help:"Show where the packaging tools are expected"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// NewParser builds the kong parser for cli.
func NewParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("cargo-vitasdk"),
		kong.Description("Build Rust executables for the PlayStation Vita and package them as .vpk files."),
		kong.UsageOnError(),
	}, options...)
	return kong.New(cli, options...)
}

// StripCargoSubcommand drops the subcommand name cargo inserts when it runs
// cargo-vitasdk as `cargo vitasdk ...`.
func StripCargoSubcommand(args []string) []string {
	if len(args) > 0 && args[0] == cargoSubcommand {
		return args[1:]
	}
	return args
}

// loadConfig loads the configuration named by --config and replaces the
// default logger with one honoring the logging section.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		if _, ok := vserrors.As(err); ok {
			return nil, err
		}
		return nil, vserrors.Wrap(err, vserrors.CategoryConfig, vserrors.SeverityFatal, "loading configuration").
			WithContext("path", root.Config)
	}
	g.Logger = cfg.Logging.NewLogger(os.Stderr, root.Verbose)
	slog.SetDefault(g.Logger)
	return cfg, nil
}
