package cleanurl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
)

func TestIgnoreList(t *testing.T) {
	l := NewIgnoreList(config.IgnoreConfig{
		Dirs:        []string{".git", "node_modules"},
		Files:       []string{"404.html", "_*", "*google*"},
		URLPrefixes: []string{"/go/", "cdn-cgi", "#"},
	})

	assert.True(t, l.SkipDir(".git"))
	assert.False(t, l.SkipDir("articles"))

	assert.True(t, l.SkipFile("404.html"))
	assert.True(t, l.SkipFile("articles/_master_template.html"))
	assert.True(t, l.SkipFile("google8f1c.html"))
	assert.False(t, l.SkipFile("index.html"))

	for _, href := range []string{"", "#top", "mailto:x@y.z", "tel:123", "javascript:void(0)", "/go/offer", "cdn-cgi/l/email", "/cdn-cgi/l/email"} {
		assert.True(t, l.SkipHref(href), href)
	}
	for _, href := range []string{"/articles/a", "a.html", "https://x.com", "/gopher"} {
		assert.False(t, l.SkipHref(href), href)
	}

	assert.Equal(t, []string{"#", "mailto:", "tel:", "javascript:", "/go/", "cdn-cgi"}, l.HrefPrefixes())
}

func TestCanonicalizer_Classify(t *testing.T) {
	c := NewCanonicalizer("https://example.com/", NewIgnoreList(config.Default().Ignore))
	assert.Equal(t, "https://example.com", c.Domain())
	assert.Equal(t, "https://example.com/articles/a", c.Absolute("/articles/a"))

	tests := []struct {
		name     string
		href     string
		kind     LinkKind
		target   string
		absolute bool
		relative bool
	}{
		{"ignored fragment", "#x", LinkIgnored, "#x", false, false},
		{"ignored redirect", "/go/deal", LinkIgnored, "/go/deal", false, false},
		{"external", "https://other.org/a.html", LinkExternal, "https://other.org/a.html", false, false},
		{"lookalike domain is external", "https://example.com.evil.io/", LinkExternal, "https://example.com.evil.io/", false, false},
		{"protocol relative external", "//cdn.net/x.js", LinkExternal, "//cdn.net/x.js", false, false},
		{"absolute internal", "https://example.com/articles/b.html", LinkInternal, "/articles/b", true, false},
		{"bare domain", "https://example.com", LinkInternal, "/", true, false},
		{"protocol relative self", "//example.com/about.html", LinkInternal, "/about", true, false},
		{"uppercase scheme and host", "HTTPS://Example.COM/articles/b.html", LinkInternal, "/articles/b", true, false},
		{"other scheme is external", "http://example.com/a", LinkExternal, "http://example.com/a", false, false},
		{"protocol relative lookalike", "//example.com.evil.io/a", LinkExternal, "//example.com.evil.io/a", false, false},
		{"relative", "b.html", LinkInternal, "/articles/b", false, true},
		{"root relative", "/about.html#team", LinkInternal, "/about#team", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := c.Classify(tt.href, "articles/a.html")
			assert.Equal(t, tt.kind, l.Kind, l.Kind.String())
			assert.Equal(t, tt.target, l.Target)
			assert.Equal(t, tt.absolute, l.AbsoluteInternal)
			assert.Equal(t, tt.relative, l.Relative)
			assert.Equal(t, tt.href, l.Raw)
		})
	}
}

func TestCanonicalizer_NoDomainMeansEverythingAbsoluteIsExternal(t *testing.T) {
	c := NewCanonicalizer("", NewIgnoreList(config.IgnoreConfig{}))
	assert.Equal(t, LinkExternal, c.Classify("https://example.com/a", "index.html").Kind)
	assert.Equal(t, LinkInternal, c.Classify("/a", "index.html").Kind)
}
