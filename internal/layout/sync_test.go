package layout

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekeeper/internal/cleanurl"
	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/htmldoc"
	"git.home.luguber.info/inful/sitekeeper/internal/links"
)

const masterHTML = `<!DOCTYPE html>
<html><head>
<script>tailwind.config = { theme: { extend: { colors: { brand: '#059669' } } } }</script>
<style>
  /* MASTER_CSS_START */
  .glass-nav { backdrop-filter: blur(8px); }
  /* MASTER_CSS_END */
  .hero { color: red; }
</style>
</head><body>
<nav class="master"><a href="index.html#faq">FAQ</a><a href="#tutorial">Tutorial</a><a href="articles/a.html">A</a></nav>
<main></main>
<footer class="master"><a href="privacy-policy.html">Privacy</a></footer>
</body></html>`

func page(t *testing.T, file, src string) *htmldoc.Page {
	t.Helper()
	p, err := htmldoc.FromBytes(file, cleanurl.FromPath(file), []byte(src))
	require.NoError(t, err)
	return p
}

func newMaster(t *testing.T) *Master {
	t.Helper()
	canon := cleanurl.NewCanonicalizer("https://example.com", cleanurl.NewIgnoreList(config.Default().Ignore))
	return NewMaster(page(t, "index.html", masterHTML), links.NewRewriter(canon))
}

func TestNewMaster(t *testing.T) {
	m := newMaster(t)
	assert.True(t, m.HasHeader())
	assert.True(t, m.HasFooter())
	assert.True(t, m.HasTailwind())
	assert.True(t, m.HasCSS())
	assert.Equal(t, ".glass-nav { backdrop-filter: blur(8px); }", m.css)

	href, _ := m.header.Find("a").Eq(0).Attr("href")
	assert.Equal(t, "/#faq", href)
	href, _ = m.header.Find("a").Eq(2).Attr("href")
	assert.Equal(t, "/articles/a", href)
}

func TestSync_ReplacesBlocks(t *testing.T) {
	m := newMaster(t)
	p := page(t, "articles/a.html", `<html><head><style>.x{}</style></head><body>
<nav class="old"><a href="/old">Old</a></nav>
<nav aria-label="Breadcrumb"><a href="/">Home</a></nav>
<article></article>
<footer class="old"></footer></body></html>`)

	res := m.Sync(p.Doc, p.URL)
	assert.True(t, res.Header)
	assert.True(t, res.Footer)
	assert.True(t, res.Tailwind)
	assert.True(t, res.CSS)
	assert.Empty(t, res.Missing)

	assert.Equal(t, 1, p.Doc.Find("nav.master").Length())
	assert.Equal(t, 0, p.Doc.Find("nav.old").Length())
	assert.Equal(t, 1, p.Doc.Find(`nav[aria-label="Breadcrumb"]`).Length())
	assert.Equal(t, 1, p.Doc.Find("footer.master").Length())

	tutorial, _ := p.Doc.Find("nav.master a").Eq(1).Attr("href")
	assert.Equal(t, "/#tutorial", tutorial)

	style := p.Doc.Find("style").Text()
	assert.Contains(t, style, cssStart)
	assert.Contains(t, style, ".x{}")
	assert.Contains(t, p.Doc.Find("head script").Text(), "tailwind.config")
}

func TestSync_Idempotent(t *testing.T) {
	m := newMaster(t)
	src := `<html><head><style>/* MASTER_CSS_START */ old /* MASTER_CSS_END */</style>
<script>tailwind.config = {}</script></head><body><nav></nav><footer></footer></body></html>`

	p := page(t, "about.html", src)
	m.Sync(p.Doc, p.URL)
	first, err := p.Render()
	require.NoError(t, err)

	again := page(t, "about.html", string(first))
	m.Sync(again.Doc, again.URL)
	second, err := again.Render()
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, 1, strings.Count(string(second), cssStart))
	assert.NotContains(t, string(second), " old ")
}

func TestSync_MasterPageKeepsFragments(t *testing.T) {
	m := newMaster(t)
	p := page(t, "index.html", masterHTML)
	m.Sync(p.Doc, p.URL)

	href, _ := p.Doc.Find("nav a").Eq(1).Attr("href")
	assert.Equal(t, "#tutorial", href)
}

func TestSync_ReportsMissing(t *testing.T) {
	m := newMaster(t)
	p := page(t, "bare.html", `<html><head></head><body><p>hi</p></body></html>`)

	res := m.Sync(p.Doc, p.URL)
	assert.Equal(t, []string{"nav", "footer"}, res.Missing)
	assert.True(t, res.CSS, "style block is created in head")
	assert.Equal(t, 1, p.Doc.Find("head style").Length())
}

func TestFindTailwind_IgnoresExternalScripts(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><head><script src="https://cdn.tailwindcss.com"></script></head></html>`))
	require.NoError(t, err)
	assert.Equal(t, 0, findTailwind(doc).Length())
}
