package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
	"git.home.luguber.info/inful/sitekeeper/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Audit bool `help:"Audit the site after every rebuild"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(root)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	configPath, err := filepath.Abs(root.Config)
	if err != nil {
		configPath = root.Config
	}

	var session *auditSession
	if w.Audit {
		session = openAuditSession(ctx, cfg, g.Recorder)
		defer session.Close()
	}

	rebuild := func(ctx context.Context) error {
		report, err := RunBuild(ctx, cfg, false, g.Recorder)
		if report != nil {
			printBuildReport(g.Out, report)
		}
		if err != nil || session == nil {
			return err
		}
		rep, err := session.Run(ctx, cfg)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.Out, "Audit score: %d/100 (%d findings)\n", rep.Score, len(rep.Findings))
		return nil
	}

	if err := rebuild(ctx); err != nil {
		return err
	}

	watcher, err := watch.New(watch.Targets(cfg, configPath), cfg.Watch.DebounceDuration(),
		func(ctx context.Context, changed []string) error {
			if slices.Contains(changed, configPath) {
				next, err := config.Load(configPath)
				if err != nil {
					slog.Error("Keeping previous configuration", logfields.Error(err))
				} else {
					cfg = next
					slog.Info("Configuration reloaded", logfields.Path(configPath))
				}
			}
			return rebuild(ctx)
		})
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}
