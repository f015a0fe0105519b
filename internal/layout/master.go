// Package layout copies shared blocks from the master layout into every page.
package layout

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/sitekeeper/internal/htmldoc"
	"git.home.luguber.info/inful/sitekeeper/internal/links"
)

const (
	cssStart = "/* MASTER_CSS_START */"
	cssEnd   = "/* MASTER_CSS_END */"
)

var (
	cssBlockRe = regexp.MustCompile(`(?s)/\* MASTER_CSS_START \*/(.*?)/\* MASTER_CSS_END \*/`)
	tailwindRe = regexp.MustCompile(`^\s*tailwind\.config\s*=`)
)

// Master holds the blocks extracted from the master layout. Links inside
// the blocks are already rewritten relative to the master file.
type Master struct {
	File string
	URL  string

	header    *goquery.Selection
	headerTag string
	footer    *goquery.Selection
	tailwind  string
	css       string
}

// NewMaster extracts the shared blocks from page. The page's own links are
// rewritten first so relative hrefs resolve against the master's location.
// page is left modified; callers that also process the master as a regular
// page should load it separately.
func NewMaster(page *htmldoc.Page, rw *links.Rewriter) *Master {
	if rw != nil {
		rw.Rewrite(page.Doc, page.File)
	}
	m := &Master{File: page.File, URL: page.URL}

	if h := page.Doc.Find("header").First(); h.Length() > 0 {
		m.header, m.headerTag = h.Clone(), "header"
	} else if n := page.Doc.Find(navSelector).First(); n.Length() > 0 {
		m.header, m.headerTag = n.Clone(), "nav"
	}
	if f := page.Doc.Find("footer").First(); f.Length() > 0 {
		m.footer = f.Clone()
	}
	if s := findTailwind(page.Doc); s.Length() > 0 {
		m.tailwind = s.Text()
	}
	page.Doc.Find("style").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if match := cssBlockRe.FindStringSubmatch(s.Text()); match != nil {
			m.css = strings.TrimSpace(match[1])
			return false
		}
		return true
	})
	return m
}

// navSelector skips breadcrumb navigation, which is page specific.
const navSelector = `nav:not([aria-label="Breadcrumb"])`

func findTailwind(doc *goquery.Document) *goquery.Selection {
	return doc.Find("script:not([src])").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return tailwindRe.MatchString(s.Text())
	}).First()
}

// HasHeader reports whether a header (or top-level nav) was found.
func (m *Master) HasHeader() bool { return m.header != nil }

// HasFooter reports whether a footer was found.
func (m *Master) HasFooter() bool { return m.footer != nil }

// HasTailwind reports whether the master carries an inline tailwind.config script.
func (m *Master) HasTailwind() bool { return m.tailwind != "" }

// HasCSS reports whether the master carries a MASTER_CSS block.
func (m *Master) HasCSS() bool { return m.css != "" }

// cssBlock is the marked block as written into pages.
func (m *Master) cssBlock() string {
	return cssStart + "\n    " + m.css + "\n    " + cssEnd
}
