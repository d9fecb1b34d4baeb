package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/doxidize/cmd/doxidize/commands"
	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cli := &commands.CLI{}
	kctx := kong.Parse(cli,
		kong.Name("doxidize"),
		kong.Description("Generate and serve documentation for a Rust crate."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	err := kctx.Run(&commands.Global{Context: ctx, Out: os.Stdout}, cli)
	cancel()
	ferrors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
}
