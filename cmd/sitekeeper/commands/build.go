package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/metrics"
	"git.home.luguber.info/inful/sitekeeper/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	DryRun bool `name:"dry-run" help:"Report pages that would change without writing them"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(root)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	report, err := RunBuild(ctx, cfg, b.DryRun, g.Recorder)
	if report != nil {
		printBuildReport(g.Out, report)
	}
	if err != nil {
		return err
	}
	if report.Outcome == pipeline.OutcomeFailed {
		return foundationerrors.NewError(foundationerrors.CategoryBuild, "build finished with failed pages").
			WithContext("failed", report.Failed).Build()
	}
	return nil
}

// RunBuild indexes the site and runs the page pipeline once.
func RunBuild(ctx context.Context, cfg *config.Config, dryRun bool, rec metrics.Recorder) (*pipeline.Report, error) {
	b, err := pipeline.NewBuilder(cfg, pipeline.WithRecorder(rec), pipeline.WithDryRun(dryRun))
	if err != nil {
		return nil, err
	}
	return b.Run(ctx)
}

func printBuildReport(w io.Writer, r *pipeline.Report) {
	verb := "Rewrote"
	if r.DryRun {
		verb = "Would rewrite"
	}
	_, _ = fmt.Fprintf(w, "%s %d of %d pages (%d links rewritten, %d external links secured)\n",
		verb, len(r.Changed), r.Pages, r.Rewritten, r.Secured)
	if r.DryRun {
		for _, f := range r.Changed {
			_, _ = fmt.Fprintf(w, "  %s\n", f)
		}
	}
	for _, issue := range r.Errors {
		_, _ = fmt.Fprintf(w, "  failed %s [%s]: %v\n", issue.File, issue.Stage, issue.Err)
	}
	_, _ = fmt.Fprintf(w, "Outcome: %s (%d warnings) in %s\n", r.Outcome, len(r.Warnings), r.Duration().Round(time.Millisecond))
}
