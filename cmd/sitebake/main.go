package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebake/cmd/sitebake/commands"
	ferrors "git.home.luguber.info/inful/sitebake/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebake/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("sitebake"),
		kong.Description("Render a directory of Markdown documents into HTML pages."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	// AfterApply has configured the default logger by now.
	global := &commands.Global{Logger: slog.Default()}
	if err := parser.Run(global, cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
