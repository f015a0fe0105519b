// Package pipeline runs the page editing stages over every HTML file of a site.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitekeeper/internal/cleanurl"
	"git.home.luguber.info/inful/sitekeeper/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/head"
	"git.home.luguber.info/inful/sitekeeper/internal/htmldoc"
	"git.home.luguber.info/inful/sitekeeper/internal/inject"
	"git.home.luguber.info/inful/sitekeeper/internal/layout"
	"git.home.luguber.info/inful/sitekeeper/internal/links"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
	"git.home.luguber.info/inful/sitekeeper/internal/metrics"
)

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) { b.recorder = metrics.OrNoop(r) }
}

// WithDryRun makes Run report changes without writing files.
func WithDryRun(dry bool) Option {
	return func(b *Builder) { b.dryRun = dry }
}

// WithIndex reuses an index built by the caller.
func WithIndex(ix *cleanurl.Index) Option {
	return func(b *Builder) { b.index = ix }
}

// Builder rewrites a site tree in place.
type Builder struct {
	cfg      *config.Config
	index    *cleanurl.Index
	canon    *cleanurl.Canonicalizer
	rewriter *links.Rewriter
	scope    inject.Scope
	masters  map[string]*layout.Master // by language prefix
	head     *head.Reorganizer
	crumbs   *inject.Breadcrumbs
	recs     *inject.Recommender
	bar      *inject.MobileBar
	recorder metrics.Recorder
	dryRun   bool
}

// NewBuilder indexes the site and loads the master layout. It refuses to
// build when clean URLs collide, unless build.allow_collisions is set.
func NewBuilder(cfg *config.Config, opts ...Option) (*Builder, error) {
	if err := cfg.RequireDomain(); err != nil {
		return nil, err
	}
	b := &Builder{cfg: cfg, recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(b)
	}

	ignore := cleanurl.NewIgnoreList(cfg.Ignore)
	if b.index == nil {
		ix, err := cleanurl.BuildIndex(cfg.Site.Root, ignore)
		if err != nil {
			return nil, err
		}
		b.index = ix
	}
	if err := b.index.CollisionError(); err != nil {
		if !cfg.Build.AllowCollisions {
			return nil, err
		}
		for _, c := range b.index.Collisions() {
			slog.Warn("Clean URL collision, keeping first file",
				logfields.URL(c.URL), slog.Any("files", c.Files))
		}
	}

	b.canon = cleanurl.NewCanonicalizer(cfg.Site.Domain, ignore)
	b.rewriter = links.NewRewriter(b.canon)
	b.scope = inject.NewScope("", cfg.Site.Languages)
	b.head = head.NewReorganizer(cfg.Site.Domain, cfg.Build.Robots, head.NewLanguages(cfg.Site, b.index))
	bc := cfg.Build
	b.crumbs = inject.NewBreadcrumbs(bc.Breadcrumbs, inject.NewScope(bc.Breadcrumbs.Section, cfg.Site.Languages), cfg.Site.Domain)
	b.recs = inject.NewRecommender(bc.Recommendations, inject.NewScope(bc.Recommendations.Section, cfg.Site.Languages))
	b.bar = inject.NewMobileBar(bc.MobileBar, inject.NewScope(bc.MobileBar.Section, cfg.Site.Languages))

	if err := b.loadMasters(); err != nil {
		return nil, err
	}
	return b, nil
}

// loadMasters loads the master layout and, for every language prefix, the
// variant of the master under that prefix when one exists.
func (b *Builder) loadMasters() error {
	file := b.cfg.Site.MasterLayout
	masterURL, ok := b.index.URLFor(file)
	if !ok {
		return foundationerrors.ConfigError("master layout not found in site").
			WithContext("file", file).
			WithContext("root", b.cfg.Site.Root).Build()
	}

	b.masters = make(map[string]*layout.Master)
	for _, lang := range b.cfg.Site.Languages {
		u := masterURL
		if lang.Prefix != "" {
			u = "/" + lang.Prefix + masterURL
		}
		variant, err := b.index.Lookup(u)
		if err != nil {
			continue
		}
		m, err := b.loadMaster(variant)
		if err != nil {
			return err
		}
		b.masters[lang.Prefix] = m
	}
	if _, ok := b.masters[""]; !ok {
		m, err := b.loadMaster(file)
		if err != nil {
			return err
		}
		b.masters[""] = m
	}
	return nil
}

func (b *Builder) loadMaster(file string) (*layout.Master, error) {
	u, _ := b.index.URLFor(file)
	page, err := htmldoc.Load(b.cfg.Site.Root, file, u)
	if err != nil {
		return nil, err
	}
	m := layout.NewMaster(page, b.rewriter)
	if !m.HasHeader() || !m.HasFooter() {
		slog.Warn("Master layout lacks header or footer", logfields.File(file),
			slog.Bool("header", m.HasHeader()), slog.Bool("footer", m.HasFooter()))
	}
	if !m.HasCSS() {
		slog.Warn("No MASTER_CSS block in master layout, skipping CSS sync", logfields.File(file))
	}
	return m, nil
}

func (b *Builder) masterFor(pageURL string) *layout.Master {
	prefix, _ := b.scope.Split(pageURL)
	if m, ok := b.masters[prefix]; ok {
		return m
	}
	return b.masters[""]
}

// Index returns the site index the builder works from.
func (b *Builder) Index() *cleanurl.Index { return b.index }

// Stages returns the enabled stages in execution order.
func (b *Builder) Stages() []StageDef {
	enabled := func(n StageName) bool { return b.cfg.Build.StageEnabled(string(n)) }
	return NewStages().
		AddIf(enabled(StageRewriteLinks), StageRewriteLinks, b.stageRewriteLinks).
		AddIf(enabled(StageSyncLayout), StageSyncLayout, b.stageSyncLayout).
		AddIf(enabled(StageReorganizeHead), StageReorganizeHead, b.stageReorganizeHead).
		AddIf(enabled(StageBreadcrumbs), StageBreadcrumbs, b.stageBreadcrumbs).
		AddIf(enabled(StageRecommendations), StageRecommendations, b.stageRecommendations).
		AddIf(enabled(StageMobileBar), StageMobileBar, b.stageMobileBar).
		Build()
}

func (b *Builder) stageRewriteLinks(_ context.Context, ps *PageState) error {
	ps.Links = b.rewriter.Rewrite(ps.Page.Doc, ps.Page.File)
	return nil
}

func (b *Builder) stageSyncLayout(_ context.Context, ps *PageState) error {
	res := b.masterFor(ps.Page.URL).Sync(ps.Page.Doc, ps.Page.URL)
	if len(res.Missing) > 0 {
		return NewWarnStageError(StageSyncLayout, fmt.Errorf("page has no %s to sync", strings.Join(res.Missing, ", ")))
	}
	return nil
}

func (b *Builder) stageReorganizeHead(_ context.Context, ps *PageState) error {
	if err := b.head.Reorganize(ps.Page.Doc, ps.Page.URL); err != nil {
		return NewWarnStageError(StageReorganizeHead, err)
	}
	return nil
}

func (b *Builder) stageBreadcrumbs(_ context.Context, ps *PageState) error {
	ok, err := b.crumbs.Apply(ps.Page.Doc, ps.Page.URL)
	if err != nil {
		return NewWarnStageError(StageBreadcrumbs, err)
	}
	ps.Applied[StageBreadcrumbs] = ok
	return nil
}

func (b *Builder) stageRecommendations(_ context.Context, ps *PageState) error {
	ok, err := b.recs.Apply(ps.Page.Doc, ps.Page.URL)
	if err != nil {
		return NewWarnStageError(StageRecommendations, err)
	}
	ps.Applied[StageRecommendations] = ok
	return nil
}

func (b *Builder) stageMobileBar(_ context.Context, ps *PageState) error {
	ok, err := b.bar.Apply(ps.Page.Doc, ps.Page.URL)
	if err != nil {
		return NewWarnStageError(StageMobileBar, err)
	}
	ps.Applied[StageMobileBar] = ok
	return nil
}

// Run processes every indexed page sequentially. A fatal stage error
// abandons that page only. Cancellation stops the run between pages and is
// returned as an error.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	report := newReport(b.dryRun)
	stages := b.Stages()
	slog.Info("Build started", logfields.Count(b.index.Len()), slog.Bool("dry_run", b.dryRun),
		slog.Int("stages", len(stages)))

	for _, file := range b.index.Files() {
		if err := ctx.Err(); err != nil {
			report.finish(true)
			return report, err
		}
		report.Pages++
		changed, err := b.processPage(ctx, file, stages, report)
		switch {
		case err != nil:
			var se *StageError
			if errors.As(err, &se) && se.Kind == StageErrorCanceled {
				report.finish(true)
				return report, err
			}
			report.Failed++
			b.recorder.IncPage(metrics.PageFailed)
			slog.Error("Page failed", logfields.File(file), logfields.Error(err))
		case changed:
			report.Changed = append(report.Changed, file)
			b.recorder.IncPage(metrics.PageChanged)
		default:
			report.Unchanged++
			b.recorder.IncPage(metrics.PageUnchanged)
		}
	}

	report.finish(false)
	b.recorder.ObserveRunDuration("build", report.Duration())
	slog.Info("Build finished",
		slog.String("outcome", string(report.Outcome)),
		logfields.Count(len(report.Changed)),
		slog.Int("failed", report.Failed),
		slog.Int("warnings", len(report.Warnings)),
		logfields.DurationMS(float64(report.Duration())/float64(time.Millisecond)))
	return report, nil
}

func (b *Builder) processPage(ctx context.Context, file string, stages []StageDef, report *Report) (bool, error) {
	u, _ := b.index.URLFor(file)
	page, err := htmldoc.Load(b.cfg.Site.Root, file, u)
	if err != nil {
		report.addIssue(file, NewFatalStageError("load", err))
		return false, err
	}
	if page.Fallback {
		slog.Warn("Malformed HTML recovered as fragment", logfields.File(file))
	}

	ps := newPageState(page)
	runErr := RunStages(ctx, ps, stages, b.recorder)
	for _, w := range ps.Warnings {
		report.addIssue(file, w)
		slog.Warn("Stage warning", logfields.File(file), logfields.Stage(string(w.Stage)), logfields.Error(w.Err))
	}
	report.Rewritten += ps.Links.Rewritten
	report.Secured += ps.Links.Secured
	if runErr != nil {
		var se *StageError
		if errors.As(runErr, &se) && se.Kind != StageErrorCanceled {
			report.addIssue(file, se)
		}
		return false, runErr
	}

	if b.dryRun {
		out, err := page.Render()
		if err != nil {
			return false, err
		}
		changed := !bytes.Equal(out, page.Original())
		if changed {
			slog.Info("Would rewrite page", logfields.File(file))
		}
		return changed, nil
	}
	changed, err := page.Save(b.cfg.Site.Root)
	if err != nil {
		return false, err
	}
	if changed {
		slog.Debug("Rewrote page", logfields.File(file), logfields.URL(u))
	}
	return changed, nil
}
