package inject

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
)

// ErrNoTitle is returned when a page has neither an <h1> nor a <title>.
var ErrNoTitle = errors.New("inject: page has no title")

const breadcrumbSelector = `nav[aria-label="Breadcrumb"]`

var breadcrumbTmpl = template.Must(template.New("breadcrumb").Parse(
	`<nav aria-label="Breadcrumb" class="flex text-sm font-medium text-slate-500 my-4">
      <ol class="flex items-center space-x-2">
        <li><a href="{{.Home}}" class="hover:text-emerald-600 hover:underline transition-colors">{{.HomeLabel}}</a></li>
        <li><span class="mx-1 text-slate-300">/</span></li>
        <li><a href="{{.Archive}}" class="hover:text-emerald-600 hover:underline transition-colors">{{.ArchiveLabel}}</a></li>
        <li><span class="mx-1 text-slate-300">/</span></li>
        <li aria-current="page" class="text-slate-800 font-semibold truncate" title="{{.Title}}">{{.Title}}</li>
      </ol>
    </nav>`))

// Breadcrumbs writes the Home / Archive / page trail and its BreadcrumbList
// structured data into section pages.
type Breadcrumbs struct {
	cfg    config.BreadcrumbConfig
	scope  Scope
	domain string
}

func NewBreadcrumbs(cfg config.BreadcrumbConfig, scope Scope, domain string) *Breadcrumbs {
	return &Breadcrumbs{cfg: cfg, scope: scope, domain: strings.TrimRight(domain, "/")}
}

type crumbView struct {
	Home, HomeLabel       string
	Archive, ArchiveLabel string
	Title                 string
}

// Apply injects or replaces the breadcrumb trail. It reports whether pageURL
// is in scope; out of scope pages are untouched.
func (b *Breadcrumbs) Apply(doc *goquery.Document, pageURL string) (bool, error) {
	if !b.scope.Contains(pageURL) {
		return false, nil
	}
	title := PageTitle(doc)
	if title == "" {
		return false, ErrNoTitle
	}

	view := crumbView{
		Home:         b.scope.Localize(pageURL, "/"),
		HomeLabel:    b.cfg.HomeLabel,
		Archive:      b.scope.Localize(pageURL, b.cfg.ArchiveURL),
		ArchiveLabel: b.cfg.ArchiveLabel,
		Title:        title,
	}
	var buf bytes.Buffer
	if err := breadcrumbTmpl.Execute(&buf, view); err != nil {
		return false, err
	}
	nav, err := fragment(buf.String())
	if err != nil {
		return false, err
	}
	placeTrail(doc, nav)

	ld, err := b.jsonLD(view, pageURL)
	if err != nil {
		return false, err
	}
	placeJSONLD(doc, ld)
	return true, nil
}

// PageTitle returns the first <h1> text, falling back to the <title> text
// before " - ".
func PageTitle(doc *goquery.Document) string {
	if h1 := strings.Join(strings.Fields(doc.Find("h1").First().Text()), " "); h1 != "" {
		return h1
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if i := strings.Index(title, " - "); i >= 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}

func placeTrail(doc *goquery.Document, nav []*html.Node) {
	if existing := doc.Find(breadcrumbSelector).First(); existing.Length() > 0 {
		existing.ReplaceWithNodes(nav...)
		return
	}
	if legacy := doc.Find(`nav[class*="breadcrumb"]`).First(); legacy.Length() > 0 {
		legacy.ReplaceWithNodes(nav...)
		return
	}
	if header := doc.Find("header").First(); header.Length() > 0 {
		header.AfterNodes(nav...)
		return
	}
	if site := doc.Find("nav").First(); site.Length() > 0 {
		site.AfterNodes(nav...)
		return
	}
	doc.Find("body").First().PrependNodes(nav...)
}

type listItem struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Item     string `json:"item"`
}

type breadcrumbList struct {
	Context string     `json:"@context"`
	Type    string     `json:"@type"`
	Items   []listItem `json:"itemListElement"`
}

func (b *Breadcrumbs) jsonLD(v crumbView, pageURL string) (string, error) {
	data := breadcrumbList{
		Context: "https://schema.org",
		Type:    "BreadcrumbList",
		Items: []listItem{
			{Type: "ListItem", Position: 1, Name: v.HomeLabel, Item: b.domain + v.Home},
			{Type: "ListItem", Position: 2, Name: v.ArchiveLabel, Item: b.domain + v.Archive},
			{Type: "ListItem", Position: 3, Name: v.Title, Item: b.domain + pageURL},
		},
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("encode breadcrumb list: %w", err)
	}
	return "\n" + buf.String(), nil
}

// placeJSONLD replaces the first BreadcrumbList script in place, or appends
// a new one to <body>.
func placeJSONLD(doc *goquery.Document, text string) {
	var target *html.Node
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var probe struct {
			Type string `json:"@type"`
		}
		if json.Unmarshal([]byte(s.Text()), &probe) == nil && probe.Type == "BreadcrumbList" {
			target = s.Get(0)
			return false
		}
		return true
	})
	if target == nil {
		target = &html.Node{Type: html.ElementNode, Data: "script", DataAtom: atom.Script,
			Attr: []html.Attribute{{Key: "type", Val: "application/ld+json"}}}
		body := doc.Find("body").First()
		if body.Length() == 0 {
			return
		}
		body.Get(0).AppendChild(target)
	}
	for target.FirstChild != nil {
		target.RemoveChild(target.FirstChild)
	}
	target.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}
