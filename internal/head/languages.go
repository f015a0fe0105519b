package head

import (
	"sort"
	"strings"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitekeeper/internal/cleanurl"
	"git.home.luguber.info/inful/sitekeeper/internal/config"
)

// XDefault is the hreflang value pointing search engines at the fallback variant.
const XDefault = "x-default"

// Alternate is one <link rel="alternate" hreflang=...> entry.
type Alternate struct {
	Hreflang string
	Href     string
}

type variant struct {
	tag    string
	prefix string
}

// Languages maps clean URLs to their language variants. A variant lives
// under its language prefix at the site root: the zh-hant variant of
// /articles/a is /zh-hant/articles/a.
type Languages struct {
	variants   []variant // longest prefix first
	defaultTag string
	index      *cleanurl.Index
	domain     string
}

// NewLanguages canonicalizes the configured tags. Tags are validated by
// config.Validate; an unparsable tag is used verbatim.
func NewLanguages(site config.SiteConfig, index *cleanurl.Index) *Languages {
	l := &Languages{
		defaultTag: canonicalTag(site.DefaultLanguage),
		index:      index,
		domain:     strings.TrimRight(site.Domain, "/"),
	}
	for _, lc := range site.Languages {
		l.variants = append(l.variants, variant{tag: canonicalTag(lc.Tag), prefix: strings.Trim(lc.Prefix, "/")})
	}
	sort.SliceStable(l.variants, func(i, j int) bool {
		return len(l.variants[i].prefix) > len(l.variants[j].prefix)
	})
	return l
}

func canonicalTag(tag string) string {
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	return t.String()
}

// Tag returns the language of the page at pageURL: the variant whose prefix
// matches, otherwise the default language.
func (l *Languages) Tag(pageURL string) string {
	if v, _, ok := l.match(pageURL); ok {
		return v.tag
	}
	return l.defaultTag
}

func (l *Languages) match(pageURL string) (variant, string, bool) {
	for _, v := range l.variants {
		if base, ok := stripPrefix(pageURL, v.prefix); ok {
			return v, base, true
		}
	}
	return variant{}, "", false
}

// Alternates lists the variants of pageURL that exist in the index, in
// configuration order of prefixes, followed by x-default. Pages with no
// other variant get no alternates.
func (l *Languages) Alternates(pageURL string) []Alternate {
	if l == nil || l.index == nil || len(l.variants) < 2 {
		return nil
	}
	_, base, ok := l.match(pageURL)
	if !ok {
		return nil
	}

	var out []Alternate
	defaultHref := ""
	for _, v := range l.ordered() {
		u, ok := l.resolve(joinPrefix(v.prefix, base))
		if !ok {
			continue
		}
		href := l.domain + u
		out = append(out, Alternate{Hreflang: v.tag, Href: href})
		if v.tag == l.defaultTag {
			defaultHref = href
		}
	}
	if len(out) < 2 {
		return nil
	}
	if defaultHref == "" {
		defaultHref = out[0].Href
	}
	return append(out, Alternate{Hreflang: XDefault, Href: defaultHref})
}

// ordered returns the variants sorted by prefix so output is stable.
func (l *Languages) ordered() []variant {
	out := append([]variant(nil), l.variants...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].prefix < out[j].prefix })
	return out
}

// resolve returns the canonical clean URL of the file serving u.
func (l *Languages) resolve(u string) (string, bool) {
	file, err := l.index.Lookup(u)
	if err != nil {
		return "", false
	}
	if canonical, ok := l.index.URLFor(file); ok {
		return canonical, true
	}
	return cleanurl.FromPath(file), true
}

func stripPrefix(u, prefix string) (string, bool) {
	if prefix == "" {
		return u, true
	}
	p := "/" + prefix
	switch {
	case u == p || u == p+"/":
		return "/", true
	case strings.HasPrefix(u, p+"/"):
		return u[len(p):], true
	}
	return "", false
}

func joinPrefix(prefix, base string) string {
	if prefix == "" {
		return base
	}
	return "/" + prefix + base
}
