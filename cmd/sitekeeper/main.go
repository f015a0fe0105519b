package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitekeeper/cmd/sitekeeper/commands"
	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
	"git.home.luguber.info/inful/sitekeeper/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("sitekeeper"),
		kong.Description("Maintain a static HTML site: rewrite links and layout, audit SEO, generate and submit sitemaps."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := commands.NewGlobal(os.Stdout, cli.MetricsFile != "")
	err := parser.Run(global, cli)
	if flushErr := global.FlushMetrics(cli.MetricsFile); flushErr != nil {
		slog.Warn("Failed to write metrics", logfields.Path(cli.MetricsFile), logfields.Error(flushErr))
	}
	if err != nil {
		foundationerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
