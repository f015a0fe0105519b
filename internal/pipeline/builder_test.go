package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/testutil"
)

const masterPage = `<!DOCTYPE html>
<html><head><title>Home - Site</title>
<style>/* MASTER_CSS_START */ .brand{color:green} /* MASTER_CSS_END */</style>
</head><body>
<nav class="site"><a href="index.html#faq">FAQ</a><a href="articles/index.html">Articles</a></nav>
<main><h1>Home</h1><a href="about.html">About</a><a href="https://partner.example.org">Partner</a></main>
<footer class="site"><a href="/privacy-policy.html">Privacy</a></footer>
</body></html>`

const articlePage = `<html><head><title>Guide - Site</title><meta name="description" content="d"></head><body>
<nav class="old"></nav>
<article><h1>Card Guide</h1><a href="../about.html#team">Team</a><a href="other.html">Other</a></article>
<footer></footer>
</body></html>`

func siteConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.Site.Root = root
	cfg.Site.Domain = "https://example.com"
	cfg.Build.Recommendations.Pool = []config.Recommendation{
		{URL: "/articles/guide", Title: "Guide"},
		{URL: "/articles/other", Title: "Other"},
	}
	return cfg
}

func TestNewBuilder_RequiresDomain(t *testing.T) {
	cfg := siteConfig(testutil.WriteTree(t, map[string]string{"index.html": masterPage}))
	cfg.Site.Domain = ""

	_, err := NewBuilder(cfg)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
}

func TestBuilder_Run(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"index.html":          masterPage,
		"about.html":          `<html><head></head><body><nav></nav><p>about</p><footer></footer></body></html>`,
		"articles/index.html": `<html><head></head><body><nav></nav><footer></footer></body></html>`,
		"articles/guide.html": articlePage,
		"articles/other.html": articlePage,
		"_draft.html":         `<a href="x.html">x</a>`,
	})

	b, err := NewBuilder(siteConfig(root))
	require.NoError(t, err)
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, report.Pages)
	assert.Equal(t, 0, report.Failed)
	assert.NotEmpty(t, report.Changed)
	assert.Equal(t, OutcomeSuccess, report.Outcome)

	guide := testutil.ReadFile(t, root, "articles/guide.html")
	assert.Contains(t, guide, `href="/about#team"`)
	assert.Contains(t, guide, `href="/articles/other"`)
	assert.Contains(t, guide, `<nav class="site">`)
	assert.Contains(t, guide, `href="/#faq"`)
	assert.Contains(t, guide, `<link rel="canonical" href="https://example.com/articles/guide"/>`)
	assert.Contains(t, guide, `aria-label="Breadcrumb"`)
	assert.Contains(t, guide, `id="recommended-reading"`)
	assert.Contains(t, guide, "MASTER_CSS_START")
	assert.NotContains(t, guide, `class="old"`)

	home := testutil.ReadFile(t, root, "index.html")
	assert.Contains(t, home, `rel="nofollow noopener noreferrer"`)
	assert.Contains(t, home, `href="/about"`)

	assert.Equal(t, `<a href="x.html">x</a>`, testutil.ReadFile(t, root, "_draft.html"), "ignored files are untouched")
}

func TestBuilder_SecondRunChangesNothing(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"index.html":          masterPage,
		"articles/guide.html": articlePage,
	})
	cfg := siteConfig(root)

	b, err := NewBuilder(cfg)
	require.NoError(t, err)
	_, err = b.Run(context.Background())
	require.NoError(t, err)
	first := testutil.ReadFile(t, root, "articles/guide.html")

	b, err = NewBuilder(cfg)
	require.NoError(t, err)
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Changed)
	assert.Equal(t, first, testutil.ReadFile(t, root, "articles/guide.html"))
}

func TestBuilder_DryRunWritesNothing(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"index.html":          masterPage,
		"articles/guide.html": articlePage,
	})
	b, err := NewBuilder(siteConfig(root), WithDryRun(true))
	require.NoError(t, err)
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Contains(t, report.Changed, "articles/guide.html")
	assert.Equal(t, articlePage, testutil.ReadFile(t, root, "articles/guide.html"))
}

func TestBuilder_DisabledStages(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"index.html":          masterPage,
		"articles/guide.html": articlePage,
	})
	cfg := siteConfig(root)
	cfg.Build.DisabledStages = []string{"breadcrumbs", "recommendations", "mobile_bar"}

	b, err := NewBuilder(cfg)
	require.NoError(t, err)
	assert.Len(t, b.Stages(), 3)

	_, err = b.Run(context.Background())
	require.NoError(t, err)
	guide := testutil.ReadFile(t, root, "articles/guide.html")
	assert.NotContains(t, guide, "Breadcrumb")
	assert.NotContains(t, guide, "recommended-reading")
}

func TestBuilder_WarnsOnMissingLayoutElements(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"index.html": masterPage,
		"bare.html":  `<html><head></head><body><p>bare</p></body></html>`,
	})
	b, err := NewBuilder(siteConfig(root))
	require.NoError(t, err)
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeWarning, report.Outcome)
	require.NotEmpty(t, report.Warnings)
	assert.Equal(t, "bare.html", report.Warnings[0].File)
	assert.Equal(t, StageSyncLayout, report.Warnings[0].Stage)
}

func TestNewBuilder_Collisions(t *testing.T) {
	files := map[string]string{
		"index.html":       masterPage,
		"guide.html":       "<p>a</p>",
		"guide/index.html": "<p>b</p>",
	}
	_, err := NewBuilder(siteConfig(testutil.WriteTree(t, files)))
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryCollision))

	cfg := siteConfig(testutil.WriteTree(t, files))
	cfg.Build.AllowCollisions = true
	_, err = NewBuilder(cfg)
	assert.NoError(t, err)
}

func TestNewBuilder_MissingMaster(t *testing.T) {
	cfg := siteConfig(testutil.WriteTree(t, map[string]string{"about.html": "<p></p>"}))
	_, err := NewBuilder(cfg)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}

func TestBuilder_Canceled(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"index.html": masterPage})
	b, err := NewBuilder(siteConfig(root))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := b.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, OutcomeCanceled, report.Outcome)
	assert.False(t, strings.Contains(testutil.ReadFile(t, root, "index.html"), "canonical"))
}
