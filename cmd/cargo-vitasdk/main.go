package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/cargo-vitasdk/cmd/cargo-vitasdk/commands"
	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cli := &commands.CLI{}
	parser, err := commands.NewParser(cli, kong.Vars{"version": version.String()})
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(commands.StripCargoSubcommand(args))
	parser.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	kctx.BindTo(ctx, (*context.Context)(nil))

	err = kctx.Run(&commands.Global{Logger: slog.Default(), Out: os.Stdout}, cli)
	return vserrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
