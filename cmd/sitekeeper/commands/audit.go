package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitekeeper/internal/audit"
	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/eventstore"
	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/linkverify"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
	"git.home.luguber.info/inful/sitekeeper/internal/metrics"
)

// AuditCmd implements the 'audit' command.
type AuditCmd struct {
	SkipExternal bool   `name:"skip-external" help:"Do not check external links"`
	Format       string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	MinScore     int    `name:"min-score" default:"0" help:"Fail when the final score is below this value"`
}

func (a *AuditCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(root)
	if err != nil {
		return err
	}
	if a.SkipExternal {
		cfg.Audit.SkipExternal = true
	}
	ctx, stop := signalContext()
	defer stop()

	session := openAuditSession(ctx, cfg, g.Recorder)
	defer session.Close()

	rep, err := session.Run(ctx, cfg)
	if err != nil {
		return err
	}
	if err := audit.NewFormatter(a.Format).Format(g.Out, rep); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to write report").Build()
	}
	if rep.Score < a.MinScore {
		return foundationerrors.ValidationError("audit score below threshold").
			WithContext("score", rep.Score).
			WithContext("min_score", a.MinScore).Build()
	}
	return nil
}

// auditSession holds the collaborators that outlive one audit run: the
// link checker and its result cache, the event publisher and the history
// journal.
type auditSession struct {
	rec       metrics.Recorder
	checker   *linkverify.Checker
	publisher linkverify.Publisher
	journal   *eventstore.Journal
}

// openAuditSession wires optional outputs. NATS and history failures are
// logged and the audit runs without them.
func openAuditSession(ctx context.Context, cfg *config.Config, rec metrics.Recorder) *auditSession {
	s := &auditSession{
		rec:       rec,
		checker:   linkverify.NewChecker(cfg.Audit, rec),
		publisher: linkverify.Discard{},
	}
	if pub, err := linkverify.NewPublisher(cfg.Audit.NATS); err != nil {
		slog.Warn("Broken link events disabled", logfields.Error(err))
	} else {
		s.publisher = pub
	}
	if cfg.Audit.HistoryDB != "" {
		j, err := eventstore.OpenJournal(ctx, cfg.Audit.HistoryDB)
		if err != nil {
			slog.Warn("Audit history disabled", logfields.Path(cfg.Audit.HistoryDB), logfields.Error(err))
		} else {
			s.journal = j
		}
	}
	return s
}

func (s *auditSession) Run(ctx context.Context, cfg *config.Config) (*audit.Report, error) {
	opts := []audit.Option{
		audit.WithRecorder(s.rec),
		audit.WithChecker(s.checker),
		audit.WithPublisher(s.publisher),
	}
	if s.journal != nil {
		opts = append(opts, audit.WithJournal(s.journal))
	}
	a, err := audit.NewAuditor(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return a.Run(ctx)
}

func (s *auditSession) Close() {
	if err := s.publisher.Close(); err != nil {
		slog.Warn("Failed to close event publisher", logfields.Error(err))
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			slog.Warn("Failed to close audit history", logfields.Error(err))
		}
	}
}
