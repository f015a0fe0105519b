// Package inject adds generated content blocks to pages: breadcrumbs,
// recommended reading and the mobile call-to-action bar.
package inject

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
)

// Scope selects the pages of one site section, in every language variant.
// /articles/x and /zh-hant/articles/x are both in section "articles";
// /articles/ itself is the section index and is not.
type Scope struct {
	Section  string
	prefixes []string // longest first
}

// NewScope builds a scope for section using the configured language prefixes.
func NewScope(section string, languages []config.LanguageConfig) Scope {
	s := Scope{Section: strings.Trim(section, "/")}
	for _, l := range languages {
		if p := strings.Trim(l.Prefix, "/"); p != "" {
			s.prefixes = append(s.prefixes, p)
		}
	}
	sort.Slice(s.prefixes, func(i, j int) bool { return len(s.prefixes[i]) > len(s.prefixes[j]) })
	return s
}

// Split separates a language prefix from pageURL. The returned base URL
// always starts with '/'.
func (s Scope) Split(pageURL string) (prefix, base string) {
	for _, p := range s.prefixes {
		root := "/" + p
		if pageURL == root || pageURL == root+"/" {
			return p, "/"
		}
		if strings.HasPrefix(pageURL, root+"/") {
			return p, pageURL[len(root):]
		}
	}
	return "", pageURL
}

// Contains reports whether pageURL is a page of the section. An empty
// section contains every page except the language roots.
func (s Scope) Contains(pageURL string) bool {
	_, base := s.Split(pageURL)
	if s.Section == "" {
		return base != "/"
	}
	dir := "/" + s.Section + "/"
	return strings.HasPrefix(base, dir) && base != dir
}

// Localize prefixes a root-relative URL with the language prefix of pageURL.
func (s Scope) Localize(pageURL, u string) string {
	prefix, _ := s.Split(pageURL)
	if prefix == "" || !strings.HasPrefix(u, "/") {
		return u
	}
	if u == "/" {
		return "/" + prefix + "/"
	}
	return "/" + prefix + u
}

// fragment parses markup as children of <body>.
func fragment(markup string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(markup), ctx)
}

func sameURL(a, b string) bool {
	trim := func(u string) string {
		if len(u) > 1 {
			return strings.TrimSuffix(u, "/")
		}
		return u
	}
	return trim(a) == trim(b)
}
