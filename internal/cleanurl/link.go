package cleanurl

import "strings"

// LinkKind classifies an href relative to the site.
type LinkKind int

const (
	// LinkIgnored hrefs match the allowlist and are left alone.
	LinkIgnored LinkKind = iota
	// LinkExternal hrefs point off-domain.
	LinkExternal
	// LinkInternal hrefs point into the site.
	LinkInternal
)

func (k LinkKind) String() string {
	switch k {
	case LinkIgnored:
		return "ignored"
	case LinkExternal:
		return "external"
	default:
		return "internal"
	}
}

// Link is a classified href.
type Link struct {
	Raw  string
	Kind LinkKind
	// Target is the clean absolute URL for internal links, the raw href otherwise.
	Target string
	// AbsoluteInternal marks internal links written with the site domain.
	AbsoluteInternal bool
	// Relative marks internal links not starting with '/'.
	Relative bool
}

// Canonicalizer classifies and resolves hrefs for one site.
type Canonicalizer struct {
	domain string
	ignore IgnoreList
}

// NewCanonicalizer returns a canonicalizer for domain (scheme and host, no
// trailing slash).
func NewCanonicalizer(domain string, ignore IgnoreList) *Canonicalizer {
	return &Canonicalizer{domain: strings.TrimRight(domain, "/"), ignore: ignore}
}

func (c *Canonicalizer) Domain() string { return c.domain }

func (c *Canonicalizer) Ignore() IgnoreList { return c.ignore }

// Absolute prefixes a clean URL with the site domain.
func (c *Canonicalizer) Absolute(cleanURL string) string {
	return c.domain + cleanURL
}

// IsOnDomain reports whether an absolute href belongs to the site.
// Scheme and host compare case-insensitively and "//host" counts as the site.
func (c *Canonicalizer) IsOnDomain(href string) bool {
	_, ok := c.sitePath(href)
	return ok
}

// sitePath returns what follows the site origin in href.
func (c *Canonicalizer) sitePath(href string) (string, bool) {
	if c.domain == "" {
		return "", false
	}
	prefixes := []string{c.domain}
	if i := strings.Index(c.domain, "://"); i >= 0 {
		prefixes = append(prefixes, c.domain[i+1:])
	}
	for _, prefix := range prefixes {
		if len(href) < len(prefix) || !strings.EqualFold(href[:len(prefix)], prefix) {
			continue
		}
		rest := href[len(prefix):]
		if rest == "" || strings.ContainsAny(rest[:1], "/?#") {
			return rest, true
		}
	}
	return "", false
}

// Classify inspects href as found in currentFile.
func (c *Canonicalizer) Classify(href, currentFile string) Link {
	href = strings.TrimSpace(href)
	l := Link{Raw: href, Target: href}
	if c.ignore.SkipHref(href) {
		l.Kind = LinkIgnored
		return l
	}
	if HasScheme(href) {
		rest, ok := c.sitePath(href)
		if !ok {
			l.Kind = LinkExternal
			return l
		}
		l.AbsoluteInternal = true
		href = "/" + strings.TrimLeft(rest, "/")
	}
	l.Kind = LinkInternal
	l.Relative = !strings.HasPrefix(href, "/")
	l.Target = Resolve(href, currentFile)
	return l
}
