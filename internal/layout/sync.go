package layout

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Result reports what Sync did to one page.
type Result struct {
	Header   bool
	Footer   bool
	Tailwind bool
	CSS      bool
	// Missing names page elements that had no counterpart to replace.
	Missing []string
}

// Sync replaces the page's header (or first nav) and footer with copies of
// the master's, syncs the tailwind.config script and the MASTER_CSS block.
// Fragment-only links in copied blocks are pointed at the master page when
// pageURL is not the master itself. Missing page elements are reported, not
// created.
func (m *Master) Sync(doc *goquery.Document, pageURL string) Result {
	var res Result

	if m.header != nil {
		sel := navSelector
		if m.headerTag == "header" {
			sel = "header"
		}
		target := doc.Find(sel).First()
		if target.Length() == 0 && m.headerTag == "header" {
			target = doc.Find(navSelector).First()
		}
		if target.Length() > 0 {
			target.ReplaceWithSelection(m.blockFor(m.header, pageURL))
			res.Header = true
		} else {
			res.missing(m.headerTag)
		}
	}

	if m.footer != nil {
		if target := doc.Find("footer").First(); target.Length() > 0 {
			target.ReplaceWithSelection(m.blockFor(m.footer, pageURL))
			res.Footer = true
		} else {
			res.missing("footer")
		}
	}

	headSel := doc.Find("head").First()
	if m.tailwind != "" {
		if s := findTailwind(doc); s.Length() > 0 {
			setText(s.Get(0), m.tailwind)
			res.Tailwind = true
		} else if headSel.Length() > 0 {
			script := &html.Node{Type: html.ElementNode, Data: "script", DataAtom: atom.Script}
			setText(script, m.tailwind)
			headSel.Get(0).AppendChild(script)
			res.Tailwind = true
		} else {
			res.missing("head")
		}
	}

	if m.css != "" {
		if res.CSS = m.syncCSS(doc, headSel); !res.CSS {
			res.missing("head")
		}
	}
	return res
}

func (r *Result) missing(name string) {
	for _, n := range r.Missing {
		if n == name {
			return
		}
	}
	r.Missing = append(r.Missing, name)
}

func (m *Master) syncCSS(doc *goquery.Document, headSel *goquery.Selection) bool {
	block := m.cssBlock()
	styles := doc.Find("style")

	done := false
	styles.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, cssStart) {
			return true
		}
		setText(s.Get(0), cssBlockRe.ReplaceAllLiteralString(text, block))
		done = true
		return false
	})
	if done {
		return true
	}

	if styles.Length() > 0 {
		first := styles.Get(0)
		setText(first, "\n    "+block+"\n"+styles.First().Text())
		return true
	}
	if headSel.Length() == 0 {
		return false
	}
	style := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
	setText(style, "\n    "+block+"\n  ")
	headSel.Get(0).AppendChild(style)
	return true
}

// blockFor clones a master block for one page.
func (m *Master) blockFor(block *goquery.Selection, pageURL string) *goquery.Selection {
	clone := block.Clone()
	if pageURL == m.URL {
		return clone
	}
	clone.Find(`a[href^="#"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "#" {
			return
		}
		s.SetAttr("href", m.URL+href)
	})
	return clone
}

// setText replaces the children of a raw text element with one text node.
func setText(n *html.Node, text string) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}
