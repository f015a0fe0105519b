package cleanurl

import (
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
)

// builtinHrefPrefixes are never rewritten or checked regardless of configuration.
var builtinHrefPrefixes = []string{"#", "mailto:", "tel:", "javascript:"}

// IgnoreList is the single allowlist consulted by the walker, the link
// rewriter and the auditor.
type IgnoreList struct {
	dirs         []string
	filePatterns []string
	hrefPrefixes []string
}

// NewIgnoreList builds the allowlist from configuration.
func NewIgnoreList(cfg config.IgnoreConfig) IgnoreList {
	l := IgnoreList{
		dirs:         slices.Clone(cfg.Dirs),
		filePatterns: slices.Clone(cfg.Files),
		hrefPrefixes: slices.Clone(builtinHrefPrefixes),
	}
	for _, p := range cfg.URLPrefixes {
		p = strings.TrimSpace(p)
		if p != "" && !slices.Contains(l.hrefPrefixes, p) {
			l.hrefPrefixes = append(l.hrefPrefixes, p)
		}
	}
	return l
}

// SkipDir reports whether a directory with this base name is pruned from walks.
func (l IgnoreList) SkipDir(name string) bool {
	return slices.Contains(l.dirs, name)
}

// SkipFile reports whether a file base name matches an ignore pattern.
func (l IgnoreList) SkipFile(name string) bool {
	name = path.Base(name)
	for _, pattern := range l.filePatterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// SkipHref reports whether href must be left untouched. A configured prefix
// without a leading slash or scheme, such as "cdn-cgi", also matches as the
// first path segment ("/cdn-cgi/...").
func (l IgnoreList) SkipHref(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" {
		return true
	}
	for _, p := range l.hrefPrefixes {
		if strings.HasPrefix(href, p) {
			return true
		}
		if !strings.HasPrefix(p, "/") && !strings.Contains(p, ":") && p != "#" &&
			strings.HasPrefix(href, "/"+p) {
			return true
		}
	}
	return false
}

// HrefPrefixes returns the effective prefix list.
func (l IgnoreList) HrefPrefixes() []string { return slices.Clone(l.hrefPrefixes) }
