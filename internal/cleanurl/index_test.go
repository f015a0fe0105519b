package cleanurl

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/testutil"
)

func defaultIgnore() IgnoreList {
	return NewIgnoreList(config.Default().Ignore)
}

func TestBuildIndex(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"index.html":                 "",
		"about.html":                 "",
		"articles/index.html":        "",
		"articles/a.html":            "",
		"articles/_draft.html":       "",
		"404.html":                   "",
		"google1234.html":            "",
		"node_modules/pkg/x.html":    "",
		".git/hooks/y.html":          "",
		"css/site.css":               "",
		"zh-hant/articles/b.html":    "",
		"articles/notes/index.html":  "",
		"articles/notes/second.html": "",
	})

	ix, err := BuildIndex(root, defaultIgnore())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"about.html",
		"articles/a.html",
		"articles/index.html",
		"articles/notes/index.html",
		"articles/notes/second.html",
		"index.html",
		"zh-hant/articles/b.html",
	}, ix.Files())
	assert.Equal(t, 7, ix.Len())
	assert.Empty(t, ix.Collisions())
	assert.NoError(t, ix.CollisionError())

	u, ok := ix.URLFor("articles/index.html")
	require.True(t, ok)
	assert.Equal(t, "/articles/", u)
	assert.Contains(t, ix.URLs(), "/zh-hant/articles/b")
}

func TestIndex_RoundTrip(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"index.html":          "",
		"articles/index.html": "",
		"articles/a.html":     "",
		"deep/er/page.html":   "",
	})
	ix, err := BuildIndex(root, defaultIgnore())
	require.NoError(t, err)

	for _, f := range ix.Files() {
		u, ok := ix.URLFor(f)
		require.True(t, ok)
		got, err := ix.Lookup(u)
		require.NoError(t, err, u)
		assert.Equal(t, f, got)
	}
}

func TestIndex_Lookup(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"index.html":          "",
		"articles/index.html": "",
		"articles/a.html":     "",
		"404.html":            "",
		"sitemap.xml":         "",
		"img/logo.png":        "",
		"docs/guide.html":     "",
	})
	ix, err := BuildIndex(root, defaultIgnore())
	require.NoError(t, err)

	tests := []struct {
		url  string
		want string
	}{
		{"/", "index.html"},
		{"/articles/", "articles/index.html"},
		{"/articles", "articles/index.html"},
		{"/articles/a", "articles/a.html"},
		{"/articles/a/", "articles/a.html"},
		{"/articles/a?x=1#top", "articles/a.html"},
		{"/404", "404.html"},
		{"/sitemap.xml", "sitemap.xml"},
		{"/img/logo.png", "img/logo.png"},
		{"/docs/guide", "docs/guide.html"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := ix.Lookup(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, missing := range []string{"/nope", "/articles/b", "/img", "/../etc/passwd"} {
		_, err := ix.Lookup(missing)
		assert.ErrorIs(t, err, ErrNotFound, missing)
		assert.False(t, ix.Exists(missing))
	}
}

func TestIndex_Collisions(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"guide.html":       "",
		"guide/index.html": "",
		"other.html":       "",
	})
	ix, err := BuildIndex(root, defaultIgnore())
	require.NoError(t, err)

	require.Len(t, ix.Collisions(), 1)
	c := ix.Collisions()[0]
	assert.Equal(t, "/guide", c.URL)
	assert.Equal(t, []string{"guide/index.html", "guide.html"}, c.Files)

	got, err := ix.Lookup("/guide")
	require.NoError(t, err)
	assert.Equal(t, "guide/index.html", got)
	_, ok := ix.URLFor("guide.html")
	assert.False(t, ok)

	err = ix.CollisionError()
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryCollision))
}

func TestBuildIndex_MissingRoot(t *testing.T) {
	_, err := BuildIndex(filepath.Join(t.TempDir(), "missing"), defaultIgnore())
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryFileSystem))
}
