package cleanurl

import (
	"path"
	"regexp"
	"strings"
)

const indexFile = "index.html"

// FromPath returns the clean URL of a root-relative file path.
func FromPath(rel string) string {
	rel = strings.TrimLeft(path.Clean("/"+strings.ReplaceAll(rel, `\`, "/")), "/")
	switch {
	case rel == indexFile:
		return "/"
	case path.Base(rel) == indexFile:
		return "/" + path.Dir(rel) + "/"
	case strings.HasSuffix(rel, ".html"):
		return "/" + strings.TrimSuffix(rel, ".html")
	default:
		return "/" + rel
	}
}

var schemeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*:`)

// HasScheme reports whether href is absolute (scheme or protocol relative).
func HasScheme(href string) bool {
	return strings.HasPrefix(href, "//") || schemeRe.MatchString(href)
}

// splitSuffix cuts href at the first '#', then at the first '?', and
// returns the path with the query and fragment to reattach.
func splitSuffix(href string) (p, query, fragment string) {
	p = href
	if i := strings.IndexByte(p, '#'); i >= 0 {
		p, fragment = p[:i], p[i:]
	}
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p, query = p[:i], p[i:]
	}
	return p, query, fragment
}

// Resolve converts href, found in the root-relative file currentFile, to a
// clean absolute URL. Query and fragment are preserved. Hrefs with a scheme
// and fragment-only hrefs are returned unchanged. A relative href that
// climbs above the root is treated as already rooted.
func Resolve(href, currentFile string) string {
	if href == "" || strings.HasPrefix(href, "#") || HasScheme(href) {
		return href
	}
	p, query, fragment := splitSuffix(href)
	if p == "" {
		return href
	}

	var abs string
	if strings.HasPrefix(p, "/") {
		abs = path.Clean(p)
	} else {
		joined := path.Clean(path.Join(path.Dir(strings.TrimLeft(currentFile, "/")), p))
		if joined == ".." || strings.HasPrefix(joined, "../") {
			abs = "/" + strings.TrimLeft(p, "/")
		} else if joined == "." {
			abs = "/"
		} else {
			abs = "/" + joined
		}
	}

	return cleanSuffix(abs) + query + fragment
}

// cleanSuffix strips .html, then a trailing /index, then any trailing slash except on "/".
func cleanSuffix(abs string) string {
	abs = strings.TrimSuffix(abs, ".html")
	if abs == "/index" {
		return "/"
	}
	abs = strings.TrimSuffix(abs, "/index")
	if abs == "" {
		return "/"
	}
	if len(abs) > 1 {
		abs = strings.TrimRight(abs, "/")
		if abs == "" {
			abs = "/"
		}
	}
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	return abs
}
