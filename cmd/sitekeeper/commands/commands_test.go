package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekeeper/internal/audit"
	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/submit"
	"git.home.luguber.info/inful/sitekeeper/internal/testutil"
)

const testMaster = `<!DOCTYPE html>
<html><head><title>Home</title></head><body>
<nav><a href="about.html">About</a></nav>
<main><h1>Home</h1></main>
<footer><a href="/about.html">About us</a></footer>
</body></html>`

const testAbout = `<html><head><title>About</title></head><body>
<nav></nav><h1>About</h1><a href="index.html">Home</a><footer></footer>
</body></html>`

// newProject writes a site and a config file referencing it and returns
// the config path.
func newProject(t *testing.T, extra string) string {
	t.Helper()
	dir := testutil.WriteTree(t, map[string]string{
		"site/index.html": testMaster,
		"site/about.html": testAbout,
		"sitekeeper.yaml": `version: "1.0"
site:
  root: site
  domain: https://example.com
  master_layout: index.html
  default_language: en
audit:
  skip_external: true
  history_db: history.db
` + extra,
	})
	return filepath.Join(dir, "sitekeeper.yaml")
}

func testGlobal() (*Global, *bytes.Buffer) {
	var out bytes.Buffer
	return NewGlobal(&out, true), &out
}

func TestInitCmd(t *testing.T) {
	g, out := testGlobal()
	dir := t.TempDir()
	cmd := &InitCmd{Output: dir}
	require.NoError(t, cmd.Run(g, &CLI{}))
	assert.FileExists(t, filepath.Join(dir, "sitekeeper.yaml"))
	assert.Contains(t, out.String(), "Writing configuration to")

	err := cmd.Run(g, &CLI{})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))

	cmd.Force = true
	assert.NoError(t, cmd.Run(g, &CLI{}))
}

func TestBuildCmd(t *testing.T) {
	cfgPath := newProject(t, "")
	site := filepath.Join(filepath.Dir(cfgPath), "site")
	before := testutil.ReadFile(t, site, "about.html")

	g, out := testGlobal()
	require.NoError(t, (&BuildCmd{DryRun: true}).Run(g, &CLI{Config: cfgPath}))
	assert.Contains(t, out.String(), "Would rewrite")
	assert.Equal(t, before, testutil.ReadFile(t, site, "about.html"))

	out.Reset()
	require.NoError(t, (&BuildCmd{}).Run(g, &CLI{Config: cfgPath}))
	assert.Contains(t, out.String(), "Rewrote")
	after := testutil.ReadFile(t, site, "about.html")
	assert.Contains(t, after, `href="/about"`)
	assert.NotContains(t, after, `href="index.html"`)

	metricsFile := filepath.Join(t.TempDir(), "sitekeeper.prom")
	require.NoError(t, g.FlushMetrics(metricsFile))
	assert.Contains(t, testutil.ReadFile(t, filepath.Dir(metricsFile), filepath.Base(metricsFile)), "sitekeeper_pages_total")
}

func TestBuildCmd_MissingConfig(t *testing.T) {
	g, _ := testGlobal()
	err := (&BuildCmd{}).Run(g, &CLI{Config: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}

func TestAuditCmd(t *testing.T) {
	cfgPath := newProject(t, "")
	g, out := testGlobal()

	require.NoError(t, (&AuditCmd{Format: "json"}).Run(g, &CLI{Config: cfgPath}))
	var first audit.JSONOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &first))
	assert.Equal(t, 2, first.Pages)
	assert.Equal(t, "https://example.com", first.Domain)
	assert.Nil(t, first.PreviousScore)
	assert.FileExists(t, filepath.Join(filepath.Dir(cfgPath), "history.db"))

	out.Reset()
	require.NoError(t, (&AuditCmd{Format: "json"}).Run(g, &CLI{Config: cfgPath}))
	var second audit.JSONOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &second))
	require.NotNil(t, second.PreviousScore)
	assert.Equal(t, first.Score, *second.PreviousScore)

	out.Reset()
	err := (&AuditCmd{Format: "text", MinScore: 101}).Run(g, &CLI{Config: cfgPath})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
	assert.Contains(t, out.String(), "Final score:")
}

func TestSitemapAndSubmit(t *testing.T) {
	var got submit.IndexNowPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfgPath := newProject(t, `submit:
  indexnow:
    endpoint: `+srv.URL+`
    key: k1
`)
	g, out := testGlobal()
	root := &CLI{Config: cfgPath}

	require.NoError(t, (&SitemapCmd{}).Run(g, root))
	assert.Contains(t, out.String(), "sitemap.xml")
	assert.Contains(t, out.String(), "sitemap_index.xml")

	out.Reset()
	parent := &SubmitCmd{}
	require.NoError(t, parent.IndexNow.Run(parent, g, root))
	assert.Contains(t, out.String(), "Submitted 2 URLs")
	assert.Equal(t, "example.com", got.Host)
	assert.Equal(t, "k1", got.Key)
	assert.ElementsMatch(t, []string{"https://example.com/", "https://example.com/about"}, got.URLList)
}

func TestSubmitCmd_MissingSitemap(t *testing.T) {
	cfgPath := newProject(t, "")
	g, _ := testGlobal()
	parent := &SubmitCmd{}
	err := parent.Baidu.Run(parent, g, &CLI{Config: cfgPath})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryNotFound))
}

func TestResolveCmd(t *testing.T) {
	cfgPath := newProject(t, "")
	g, out := testGlobal()
	root := &CLI{Config: cfgPath}

	require.NoError(t, (&ResolveCmd{Args: []string{"about.html", "missing.html"}}).Run(g, root))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "about.html\t/about\tindexed", lines[0])
	assert.Equal(t, "missing.html\t/missing\tnot indexed", lines[1])

	out.Reset()
	require.NoError(t, (&ResolveCmd{From: "about.html", Args: []string{"index.html", "/nowhere", "https://other.org/", "mailto:a@b.c"}}).Run(g, root))
	lines = strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "index.html\tinternal\t/\tindex.html", lines[0])
	assert.Equal(t, "/nowhere\tinternal\t/nowhere\tmissing", lines[1])
	assert.Equal(t, "https://other.org/\texternal", lines[2])
	assert.Equal(t, "mailto:a@b.c\tignored", lines[3])
}

// newProjectWithoutDomain writes a site whose root page declares its origin
// only through the canonical link.
func newProjectWithoutDomain(t *testing.T) string {
	t.Helper()
	dir := testutil.WriteTree(t, map[string]string{
		"site/index.html": `<html><head><title>Home</title>
<link rel="canonical" href="https://detected.example/">
<meta name="keywords" content="alpha, beta">
</head><body><h1>Home</h1><a href="https://detected.example/about">About</a></body></html>`,
		"site/about.html": testAbout,
		"sitekeeper.yaml": `version: "1.0"
site:
  root: site
audit:
  skip_external: true
`,
	})
	return filepath.Join(dir, "sitekeeper.yaml")
}

func TestAuditCmd_DetectsDomain(t *testing.T) {
	cfgPath := newProjectWithoutDomain(t)
	g, out := testGlobal()

	require.NoError(t, (&AuditCmd{Format: "json"}).Run(g, &CLI{Config: cfgPath}))
	var rep audit.JSONOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, "https://detected.example", rep.Domain)
	assert.Equal(t, []string{"alpha", "beta"}, rep.Keywords)
}

func TestCommands_RequireDomain(t *testing.T) {
	cfgPath := newProjectWithoutDomain(t)
	root := &CLI{Config: cfgPath}
	g, _ := testGlobal()

	for name, run := range map[string]func() error{
		"build":   func() error { return (&BuildCmd{DryRun: true}).Run(g, root) },
		"sitemap": func() error { return (&SitemapCmd{}).Run(g, root) },
		"submit": func() error {
			parent := &SubmitCmd{}
			return parent.IndexNow.Run(parent, g, root)
		},
	} {
		t.Run(name, func(t *testing.T) {
			err := run()
			require.Error(t, err)
			assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
		})
	}
}
