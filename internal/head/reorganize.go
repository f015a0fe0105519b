// Package head rebuilds the <head> of a page in a fixed, SEO friendly order.
package head

import (
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/sitekeeper/internal/htmldoc"
)

// ErrNoHead is returned for documents without a <head> element.
var ErrNoHead = errors.New("head: document has no <head>")

const (
	defaultViewport = "width=device-width, initial-scale=1"
	ldJSONType      = "application/ld+json"
)

// Reorganizer rewrites heads for one site.
type Reorganizer struct {
	domain    string
	robots    string
	languages *Languages
}

// NewReorganizer returns a Reorganizer. languages may be nil, in which case
// no hreflang alternates are written and content-language is kept as found.
func NewReorganizer(domain, robots string, languages *Languages) *Reorganizer {
	return &Reorganizer{domain: strings.TrimRight(domain, "/"), robots: robots, languages: languages}
}

// Canonical returns the absolute canonical URL for a clean URL.
func (r *Reorganizer) Canonical(pageURL string) string {
	return r.domain + pageURL
}

// collected holds the head children sorted into output groups.
type collected struct {
	title       *html.Node
	description string
	keywords    string
	viewport    string
	robots      string
	contentLang string
	meta        []*html.Node
	schemas     []*html.Node
	icons       []*html.Node
	resources   []*html.Node
}

// Reorganize empties the head of doc and writes it back in this order:
// charset and viewport; title, description, keywords and canonical; robots
// and content-language; hreflang alternates; remaining meta tags; JSON-LD;
// icons; stylesheets, scripts and everything else. Running it twice yields
// the same head.
func (r *Reorganizer) Reorganize(doc *goquery.Document, pageURL string) error {
	sel := doc.Find("head").First()
	if sel.Length() == 0 {
		return ErrNoHead
	}
	headNode := sel.Get(0)
	canonical := r.Canonical(pageURL)

	c := collect(headNode, canonical)
	for headNode.FirstChild != nil {
		headNode.RemoveChild(headNode.FirstChild)
	}

	w := &writer{head: headNode}
	w.add(element("meta", "charset", "utf-8"))
	viewport := c.viewport
	if viewport == "" {
		viewport = defaultViewport
	}
	w.add(element("meta", "name", "viewport", "content", viewport))

	w.group()
	if c.title != nil {
		w.add(c.title)
	}
	if c.description != "" {
		w.add(element("meta", "name", "description", "content", c.description))
	}
	if c.keywords != "" {
		w.add(element("meta", "name", "keywords", "content", c.keywords))
	}
	w.add(element("link", "rel", "canonical", "href", canonical))

	w.group()
	robots := c.robots
	if robots == "" {
		robots = r.robots
	}
	if robots != "" {
		w.add(element("meta", "name", "robots", "content", robots))
	}
	lang := c.contentLang
	if r.languages != nil {
		if tag := r.languages.Tag(pageURL); tag != "" {
			lang = tag
		}
	}
	if lang != "" {
		w.add(element("meta", "http-equiv", "content-language", "content", lang))
	}
	if r.languages != nil {
		for _, alt := range r.languages.Alternates(pageURL) {
			w.add(element("link", "rel", "alternate", "hreflang", alt.Hreflang, "href", alt.Href))
		}
	}

	w.group()
	w.add(c.meta...)
	w.add(c.schemas...)

	w.group()
	w.add(c.icons...)
	w.add(c.resources...)
	w.finish()
	return nil
}

func collect(headNode *html.Node, canonical string) collected {
	var c collected
	for n := headNode.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != html.ElementNode {
			continue
		}
		switch n.DataAtom {
		case atom.Title:
			if c.title == nil {
				c.title = n
			}
		case atom.Meta:
			collectMeta(&c, n, canonical)
		case atom.Link:
			rel := strings.ToLower(attr(n, "rel"))
			switch {
			case htmldoc.HasToken(rel, "canonical"):
			case htmldoc.HasToken(rel, "alternate") && hasAttr(n, "hreflang"):
			case strings.Contains(rel, "icon"):
				c.icons = append(c.icons, n)
			default:
				c.resources = append(c.resources, n)
			}
		case atom.Script:
			if strings.EqualFold(strings.TrimSpace(attr(n, "type")), ldJSONType) {
				cleanSchema(n)
				c.schemas = append(c.schemas, n)
			} else {
				c.resources = append(c.resources, n)
			}
		default:
			c.resources = append(c.resources, n)
		}
	}
	return c
}

func collectMeta(c *collected, n *html.Node, canonical string) {
	name := strings.ToLower(attr(n, "name"))
	property := strings.ToLower(attr(n, "property"))
	switch {
	case hasAttr(n, "charset"):
	case strings.EqualFold(attr(n, "http-equiv"), "content-type"):
	case strings.EqualFold(attr(n, "http-equiv"), "content-language"):
		c.contentLang = attr(n, "content")
	case name == "viewport":
		c.viewport = attr(n, "content")
	case name == "description":
		if c.description == "" {
			c.description = attr(n, "content")
		}
	case name == "keywords":
		if c.keywords == "" {
			c.keywords = attr(n, "content")
		}
	case name == "robots":
		c.robots = attr(n, "content")
	case property == "og:url" || name == "og:url" || name == "twitter:url" || property == "twitter:url":
		setAttr(n, "content", canonical)
		c.meta = append(c.meta, n)
	default:
		c.meta = append(c.meta, n)
	}
}

var htmlValueRe = regexp.MustCompile(`"([^"]*?)\.html"`)

// CleanSchemaText strips .html from JSON string values and maps index
// URLs to their directory form.
func CleanSchemaText(s string) string {
	s = htmlValueRe.ReplaceAllString(s, `"$1"`)
	s = strings.ReplaceAll(s, `"/index"`, `"/"`)
	return strings.ReplaceAll(s, `/index"`, `/"`)
}

func cleanSchema(n *html.Node) {
	if t := n.FirstChild; t != nil && t.Type == html.TextNode {
		t.Data = CleanSchemaText(t.Data)
	}
}

// writer appends children with stable indentation; groups are separated by
// a blank line.
type writer struct {
	head    *html.Node
	pending string
}

func (w *writer) add(nodes ...*html.Node) {
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		sep := w.pending
		if sep == "" {
			sep = "\n  "
		}
		w.head.AppendChild(&html.Node{Type: html.TextNode, Data: sep})
		w.head.AppendChild(n)
		w.pending = ""
	}
}

func (w *writer) group() {
	if w.head.FirstChild != nil {
		w.pending = "\n\n  "
	}
}

func (w *writer) finish() {
	w.head.AppendChild(&html.Node{Type: html.TextNode, Data: "\n"})
}

func element(tag string, kv ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return n
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
