// Package audit performs a read-only SEO audit of a site tree: page
// semantics, internal link hygiene, dead and broken links, orphans, and a
// score out of 100.
package audit

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitekeeper/internal/cleanurl"
	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/eventstore"
	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/htmldoc"
	"git.home.luguber.info/inful/sitekeeper/internal/linkverify"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
	"git.home.luguber.info/inful/sitekeeper/internal/metrics"
)

// Option configures an Auditor.
type Option func(*Auditor)

func WithRecorder(r metrics.Recorder) Option {
	return func(a *Auditor) { a.rec = metrics.OrNoop(r) }
}

// WithChecker sets the external link checker. Without one external links
// are collected but not checked.
func WithChecker(c *linkverify.Checker) Option {
	return func(a *Auditor) { a.checker = c }
}

// WithPublisher sets where broken-link events go.
func WithPublisher(p linkverify.Publisher) Option {
	return func(a *Auditor) { a.publisher = p }
}

// WithJournal records every run in the audit history.
func WithJournal(j *eventstore.Journal) Option {
	return func(a *Auditor) { a.journal = j }
}

// WithSkipExternal disables external link checks.
func WithSkipExternal(skip bool) Option {
	return func(a *Auditor) { a.skipExternal = skip }
}

// WithIndex reuses an index built by the caller.
func WithIndex(ix *cleanurl.Index) Option {
	return func(a *Auditor) { a.index = ix }
}

// Auditor checks a site without modifying it.
type Auditor struct {
	cfg          *config.Config
	index        *cleanurl.Index
	ignore       cleanurl.IgnoreList
	checker      *linkverify.Checker
	publisher    linkverify.Publisher
	journal      *eventstore.Journal
	rec          metrics.Recorder
	skipExternal bool
}

// NewAuditor indexes the site. Clean URL collisions are logged, not fatal:
// the audit reports on whatever the first file of each URL contains.
func NewAuditor(cfg *config.Config, opts ...Option) (*Auditor, error) {
	a := &Auditor{
		cfg:          cfg,
		ignore:       cleanurl.NewIgnoreList(cfg.Ignore),
		publisher:    linkverify.Discard{},
		rec:          metrics.NoopRecorder{},
		skipExternal: cfg.Audit.SkipExternal,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.index == nil {
		ix, err := cleanurl.BuildIndex(cfg.Site.Root, a.ignore)
		if err != nil {
			return nil, err
		}
		a.index = ix
	}
	for _, c := range a.index.Collisions() {
		slog.Warn("Clean URL collision", logfields.URL(c.URL), slog.Any("files", c.Files))
	}
	return a, nil
}

// run holds the state of one audit pass.
type run struct {
	rep       *Report
	canon     *cleanurl.Canonicalizer
	inbound   map[string]int
	external  map[string]externalRef
	externals []string // first-seen order
	events    []*linkverify.BrokenLinkEvent
}

type externalRef struct {
	file, url string
}

// Run audits every indexed page and returns the report. Only cancellation
// is an error; problems with individual pages become findings.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	rep := &Report{RunID: uuid.NewString(), Start: time.Now()}
	r := &run{
		rep:      rep,
		inbound:  make(map[string]int, a.index.Len()),
		external: make(map[string]externalRef),
	}
	rep.Domain, rep.Keywords = a.configure()
	r.canon = cleanurl.NewCanonicalizer(rep.Domain, a.ignore)
	rep.Pages = a.index.Len()
	for _, u := range a.index.URLs() {
		r.inbound[u] = 0
	}

	slog.Info("Starting audit", logfields.RunID(rep.RunID), logfields.Count(rep.Pages),
		slog.String("domain", rep.Domain), slog.Int("keywords", len(rep.Keywords)))

	for _, file := range a.index.Files() {
		if err := ctx.Err(); err != nil {
			return nil, canceled(err, rep.RunID)
		}
		u, _ := a.index.URLFor(file)
		a.auditPage(r, file, u)
	}

	if err := a.checkExternal(ctx, r); err != nil {
		return nil, err
	}
	a.findOrphans(r)
	rep.Top = topInbound(r.inbound, a.cfg.Audit.TopInbound)
	rep.score()
	rep.End = time.Now()

	a.publish(ctx, r)
	a.record(ctx, rep)
	for _, f := range rep.Findings {
		a.rec.IncFinding(string(f.Kind))
	}
	a.rec.SetAuditScore(rep.Score)

	slog.Info("Audit complete", logfields.RunID(rep.RunID), logfields.Score(rep.Score),
		slog.Int("findings", len(rep.Findings)), logfields.DurationMS(float64(rep.Duration().Milliseconds())))
	return rep, nil
}

// configure settles the domain and keywords. The configured domain wins; the
// root page's canonical or og:url fills in when none is configured.
func (a *Auditor) configure() (string, []string) {
	domain := strings.TrimRight(a.cfg.Site.Domain, "/")
	info, err := Detect(a.cfg.Site.Root)
	if err != nil {
		slog.Warn("Root index.html not found, auto-configuration limited", logfields.Error(err))
		return domain, nil
	}
	switch {
	case domain == "":
		if info.Domain == "" {
			slog.Warn("Could not detect the site domain (canonical and og:url missing)")
		}
		domain = info.Domain
	case info.Domain != "" && info.Domain != domain:
		slog.Warn("Root page canonical differs from the configured domain",
			slog.String("configured", domain), slog.String("detected", info.Domain))
	}
	return domain, info.Keywords
}

func (a *Auditor) auditPage(r *run, file, u string) {
	page, err := htmldoc.Load(a.cfg.Site.Root, file, u)
	if err != nil {
		slog.Error("Failed to read page", logfields.File(file), logfields.Error(err))
		r.finding(Finding{Kind: KindUnreadable, File: file, URL: u, Message: err.Error()})
		return
	}
	doc := page.Doc

	if n := doc.Find("h1").Length(); n != 1 {
		r.finding(Finding{Kind: KindH1, File: file, URL: u, Message: fmt.Sprintf("found %d H1 tags, want exactly 1", n)})
	}
	if doc.Find(`script[type="application/ld+json"]`).Length() == 0 {
		r.finding(Finding{Kind: KindSchema, File: file, URL: u, Message: "missing JSON-LD schema"})
	}
	if u != "/" && !hasBreadcrumb(doc) {
		r.finding(Finding{Kind: KindBreadcrumb, File: file, URL: u, Message: "missing breadcrumb navigation"})
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href != "" {
			a.auditLink(r, file, u, href)
		}
	})
}

func (a *Auditor) auditLink(r *run, file, u, href string) {
	link := r.canon.Classify(href, file)
	switch link.Kind {
	case cleanurl.LinkIgnored:
		return
	case cleanurl.LinkExternal:
		target := href
		if strings.HasPrefix(target, "//") {
			target = "https:" + target
		}
		lower := strings.ToLower(target)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			return
		}
		if _, seen := r.external[target]; !seen {
			r.external[target] = externalRef{file: file, url: u}
			r.externals = append(r.externals, target)
		}
		return
	}

	if link.AbsoluteInternal {
		r.finding(Finding{Kind: KindAbsoluteInternal, File: file, URL: u, Target: href,
			Message: "absolute internal link, use a root-relative URL"})
	}
	if link.Relative {
		r.finding(Finding{Kind: KindRelativeLink, File: file, URL: u, Target: href,
			Message: "relative link, use a root-relative URL"})
	}
	if strings.HasSuffix(hrefPath(href), ".html") {
		r.finding(Finding{Kind: KindHTMLExtension, File: file, URL: u, Target: href,
			Message: "link exposes the .html extension, use the clean URL"})
	}

	target, err := a.index.Lookup(link.Target)
	if err != nil {
		r.finding(Finding{Kind: KindDeadLink, File: file, URL: u, Target: href,
			Message: "target not found locally"})
		r.events = append(r.events, linkverify.NewBrokenLinkEvent(r.rep.RunID, file, u, link.Target, 0, "target not found locally", true))
		return
	}
	if tu, ok := a.index.URLFor(target); ok {
		r.inbound[tu]++
	}
}

func (a *Auditor) checkExternal(ctx context.Context, r *run) error {
	r.rep.External = len(r.externals)
	if a.skipExternal || a.checker == nil || len(r.externals) == 0 {
		return nil
	}
	slog.Info("Checking external links", logfields.Count(len(r.externals)))
	r.rep.Checked = true
	for _, res := range a.checker.Check(ctx, r.externals) {
		if err := ctx.Err(); err != nil {
			return canceled(err, r.rep.RunID)
		}
		if !res.Broken() {
			continue
		}
		ref := r.external[res.URL]
		r.finding(Finding{Kind: KindExternalBroken, File: ref.file, URL: ref.url, Target: res.URL,
			Message: "broken external link: " + res.Reason()})
		r.events = append(r.events, linkverify.NewBrokenLinkEvent(r.rep.RunID, ref.file, ref.url, res.URL, res.Status, res.Reason(), false))
	}
	return nil
}

// findOrphans flags every page except the root with no internal inbound link.
func (a *Auditor) findOrphans(r *run) {
	urls := make([]string, 0, len(r.inbound))
	for u := range r.inbound {
		urls = append(urls, u)
	}
	slices.Sort(urls)
	for _, u := range urls {
		if r.inbound[u] > 0 || u == "/" {
			continue
		}
		r.rep.Orphans = append(r.rep.Orphans, u)
		file, _ := a.index.Lookup(u)
		r.finding(Finding{Kind: KindOrphan, File: file, URL: u, Message: "no internal page links here"})
	}
}

func topInbound(inbound map[string]int, n int) []Inbound {
	all := make([]Inbound, 0, len(inbound))
	for u, c := range inbound {
		all = append(all, Inbound{URL: u, Count: c})
	}
	slices.SortFunc(all, func(x, y Inbound) int {
		if c := cmp.Compare(y.Count, x.Count); c != 0 {
			return c
		}
		return cmp.Compare(x.URL, y.URL)
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

func (a *Auditor) publish(ctx context.Context, r *run) {
	for _, e := range r.events {
		if err := a.publisher.PublishBrokenLink(ctx, e); err != nil {
			slog.Warn("Failed to publish broken link event", logfields.URL(e.URL), logfields.Error(err))
			return
		}
	}
}

// record stores the run in the history. Failures are logged; the report
// stands on its own.
func (a *Auditor) record(ctx context.Context, rep *Report) {
	if a.journal == nil {
		return
	}
	if last := a.journal.History().Last(); last != nil {
		prev := last.Score
		rep.PreviousScore = &prev
	}

	started, err := eventstore.NewAuditStarted(rep.RunID, a.cfg.Site.Root, rep.Domain, rep.Pages)
	if err != nil {
		slog.Warn("Failed to record audit", logfields.Error(err))
		return
	}
	started.At = rep.Start.UTC()
	events := []eventstore.Event{started}
	for _, f := range rep.Findings {
		e, err := eventstore.NewFindingRecorded(rep.RunID, f.data())
		if err != nil {
			slog.Warn("Failed to record audit", logfields.Error(err))
			return
		}
		events = append(events, e)
	}
	done, err := eventstore.NewAuditCompleted(rep.RunID, rep.Score, len(rep.Findings),
		rep.Count(KindExternalBroken), len(rep.Orphans), rep.Duration())
	if err != nil {
		slog.Warn("Failed to record audit", logfields.Error(err))
		return
	}
	done.At = rep.End.UTC()
	events = append(events, done)

	if err := a.journal.Record(ctx, events...); err != nil {
		slog.Warn("Failed to record audit", logfields.RunID(rep.RunID), logfields.Error(err))
	}
}

func (r *run) finding(f Finding) {
	r.rep.add(f)
	level := slog.LevelWarn
	if Penalty(f.Kind) == 0 {
		level = slog.LevelInfo
	}
	slog.Log(context.Background(), level, f.Message,
		slog.String("kind", string(f.Kind)), logfields.URL(f.URL), logfields.Href(f.Target))
}

// hasBreadcrumb looks for an aria-label of "breadcrumb" in any case, or a
// class containing "breadcrumb".
func hasBreadcrumb(doc *goquery.Document) bool {
	found := false
	doc.Find("[aria-label]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = strings.EqualFold(strings.TrimSpace(s.AttrOr("aria-label", "")), "breadcrumb")
		return !found
	})
	return found || doc.Find(`[class*="breadcrumb"]`).Length() > 0
}

// hrefPath strips the query and fragment.
func hrefPath(href string) string {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		return href[:i]
	}
	return href
}

func canceled(err error, runID string) error {
	return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "audit canceled").
		WithContext("run_id", runID).Build()
}
