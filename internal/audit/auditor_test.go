package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/eventstore"
	"git.home.luguber.info/inful/sitekeeper/internal/linkverify"
	"git.home.luguber.info/inful/sitekeeper/internal/metrics"
	"git.home.luguber.info/inful/sitekeeper/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*linkverify.BrokenLinkEvent
}

func (p *recordingPublisher) PublishBrokenLink(_ context.Context, e *linkverify.BrokenLinkEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type scoreRecorder struct {
	metrics.NoopRecorder
	score    int
	findings map[string]int
}

func (r *scoreRecorder) SetAuditScore(s int) { r.score = s }
func (r *scoreRecorder) IncFinding(kind string) {
	if r.findings == nil {
		r.findings = make(map[string]int)
	}
	r.findings[kind]++
}

func externalServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const schema = `<script type="application/ld+json">{"@type":"WebPage"}</script>`

func auditSite(t *testing.T, ext string) string {
	t.Helper()
	return testutil.WriteTree(t, map[string]string{
		"index.html": `<html><head><link rel="canonical" href="https://example.com/">
<meta name="keywords" content="cards, travel ,">` + schema + `</head><body><h1>Home</h1>
<a href="/about">About</a><a href="/articles/">Articles</a>
<a href="` + ext + `/ok">ok</a><a href="` + ext + `/gone">gone</a><a href="` + ext + `/gone">again</a>
<a href="/go/partner">aff</a><a href="mailto:me@example.com">mail</a><a href="#top">top</a></body></html>`,
		"about.html": `<html><head></head><body><h1>About</h1><h1>Again</h1>
<a href="https://example.com/articles/guide">Guide</a><a href="index.html">Home</a><a href="/missing">Missing</a></body></html>`,
		"articles/index.html": `<html><head>` + schema + `</head><body><nav aria-label="Breadcrumb"></nav><h1>Articles</h1>
<a href="/articles/guide">Guide</a></body></html>`,
		"articles/guide.html": `<html><head>` + schema + `</head><body><div class="breadcrumbs"></div><h1>Guide</h1><a href="/">Home</a></body></html>`,
		"articles/lonely.html": `<html><head>` + schema + `</head><body><nav aria-label="breadcrumb"></nav><h1>Lonely</h1></body></html>`,
		"_draft.html":          `<a href="/nowhere">x</a>`,
	})
}

func auditConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.Site.Root = root
	cfg.Site.Domain = "https://example.com"
	cfg.Audit.RequestTimeout = "2s"
	return cfg
}

func TestAuditor_Run(t *testing.T) {
	srv := externalServer(t)
	root := auditSite(t, srv.URL)
	cfg := auditConfig(root)

	pub := &recordingPublisher{}
	rec := &scoreRecorder{}
	a, err := NewAuditor(cfg,
		WithChecker(linkverify.NewChecker(cfg.Audit, nil)),
		WithPublisher(pub),
		WithRecorder(rec),
	)
	require.NoError(t, err)

	rep, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, rep.RunID, 36)
	assert.Equal(t, 5, rep.Pages)
	assert.Equal(t, "https://example.com", rep.Domain)
	assert.Equal(t, []string{"cards", "travel"}, rep.Keywords)
	assert.Equal(t, 2, rep.External)
	assert.True(t, rep.Checked)

	assert.Equal(t, 1, rep.Count(KindH1))
	assert.Equal(t, 1, rep.Count(KindSchema))
	assert.Equal(t, 1, rep.Count(KindBreadcrumb))
	assert.Equal(t, 1, rep.Count(KindAbsoluteInternal))
	assert.Equal(t, 1, rep.Count(KindRelativeLink))
	assert.Equal(t, 1, rep.Count(KindHTMLExtension))
	assert.Equal(t, 1, rep.Count(KindDeadLink))
	assert.Equal(t, 1, rep.Count(KindExternalBroken))
	assert.Equal(t, 1, rep.Count(KindOrphan))

	dead := rep.Of(KindDeadLink)[0]
	assert.Equal(t, "about.html", dead.File)
	assert.Equal(t, "/missing", dead.Target)
	assert.Equal(t, srv.URL+"/gone", rep.Of(KindExternalBroken)[0].Target)
	assert.Equal(t, "index.html", rep.Of(KindExternalBroken)[0].File)

	assert.Equal(t, []string{"/articles/lonely"}, rep.Orphans)
	require.Len(t, rep.Top, 5)
	assert.Equal(t, Inbound{URL: "/", Count: 2}, rep.Top[0])
	assert.Equal(t, Inbound{URL: "/articles/guide", Count: 2}, rep.Top[1])
	assert.Equal(t, Inbound{URL: "/articles/lonely", Count: 0}, rep.Top[4])

	// 100 - (5 h1 + 2 schema + 2 abs + 2 rel + 2 html + 10 dead + 5 external + 5 orphan)
	assert.Equal(t, 67, rep.Score)
	assert.Equal(t, 67, rec.score)
	assert.Equal(t, 1, rec.findings[string(KindDeadLink)])

	require.Len(t, pub.events, 2)
	assert.True(t, pub.events[0].IsInternal)
	assert.Equal(t, "/missing", pub.events[0].URL)
	assert.False(t, pub.events[1].IsInternal)
	assert.Equal(t, http.StatusNotFound, pub.events[1].Status)
	assert.Equal(t, rep.RunID, pub.events[1].RunID)
}

func TestAuditor_SkipExternal(t *testing.T) {
	srv := externalServer(t)
	cfg := auditConfig(auditSite(t, srv.URL))
	cfg.Audit.SkipExternal = true

	a, err := NewAuditor(cfg, WithChecker(linkverify.NewChecker(cfg.Audit, nil)))
	require.NoError(t, err)
	rep, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.Checked)
	assert.Equal(t, 0, rep.Count(KindExternalBroken))
	assert.Equal(t, 72, rep.Score)
}

func TestAuditor_ScoreFloor(t *testing.T) {
	files := map[string]string{"index.html": `<html><body></body></html>`}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"} {
		files[name+".html"] = `<html><body><a href="/gone-` + name + `">x</a></body></html>`
	}
	a, err := NewAuditor(auditConfig(testutil.WriteTree(t, files)))
	require.NoError(t, err)
	rep, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Score)
	assert.Equal(t, 11, rep.Count(KindDeadLink))
}

func TestAuditor_DetectsDomainWhenUnset(t *testing.T) {
	srv := externalServer(t)
	cfg := auditConfig(auditSite(t, srv.URL))
	cfg.Site.Domain = ""

	a, err := NewAuditor(cfg, WithSkipExternal(true))
	require.NoError(t, err)
	rep, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", rep.Domain)
	assert.Equal(t, 1, rep.Count(KindAbsoluteInternal))
}

func TestAuditor_History(t *testing.T) {
	srv := externalServer(t)
	cfg := auditConfig(auditSite(t, srv.URL))
	ctx := context.Background()

	journal, err := eventstore.OpenJournal(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	a, err := NewAuditor(cfg, WithSkipExternal(true), WithJournal(journal))
	require.NoError(t, err)

	first, err := a.Run(ctx)
	require.NoError(t, err)
	assert.Nil(t, first.PreviousScore)

	second, err := a.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, second.PreviousScore)
	assert.Equal(t, first.Score, *second.PreviousScore)

	last := journal.History().Last()
	require.NotNil(t, last)
	assert.Equal(t, second.RunID, last.RunID)
	assert.Equal(t, 1, last.Findings[string(KindDeadLink)])
	assert.Equal(t, 1, last.Orphans)
}

func TestAuditor_Canceled(t *testing.T) {
	cfg := auditConfig(auditSite(t, "https://ext.example"))
	a, err := NewAuditor(cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetect(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"index.html": `<html><head><meta property="og:url" content="https://og.example.com/"></head><body></body></html>`,
	})
	info, err := Detect(root)
	require.NoError(t, err)
	assert.Equal(t, "https://og.example.com", info.Domain)
	assert.Empty(t, info.Keywords)

	_, err = Detect(t.TempDir())
	assert.Error(t, err)
}

func TestFormatters(t *testing.T) {
	srv := externalServer(t)
	cfg := auditConfig(auditSite(t, srv.URL))
	a, err := NewAuditor(cfg, WithChecker(linkverify.NewChecker(cfg.Audit, nil)))
	require.NoError(t, err)
	rep, err := a.Run(context.Background())
	require.NoError(t, err)
	prev := 70
	rep.PreviousScore = &prev

	var text bytes.Buffer
	require.NoError(t, NewFormatter("text").Format(&text, rep))
	out := text.String()
	assert.Contains(t, out, "SEO audit of https://example.com (5 pages)")
	assert.Contains(t, out, "✗ dead_link (1)")
	assert.Contains(t, out, "⚠ missing_breadcrumb (1)")
	assert.Contains(t, out, "/about -> /missing: target not found locally")
	assert.Contains(t, out, "2 external links checked, 1 broken")
	assert.Contains(t, out, "Final score: 67/100 (previous 70, -3)")
	assert.True(t, strings.Index(out, "absolute_internal_link") < strings.Index(out, "dead_link"))

	var js bytes.Buffer
	require.NoError(t, NewFormatter("json").Format(&js, rep))
	var decoded JSONOutput
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, 67, decoded.Score)
	assert.Equal(t, 70, *decoded.PreviousScore)
	assert.Len(t, decoded.Findings, len(rep.Findings))
	assert.Equal(t, []string{"/articles/lonely"}, decoded.Orphans)
}
