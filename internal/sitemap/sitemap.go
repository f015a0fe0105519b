// Package sitemap writes sitemaps.org 0.9 urlset and sitemapindex files for
// the indexed pages of a site, and reads them back for submission.
package sitemap

import (
	"encoding/xml"
	"path"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/sitekeeper/internal/cleanurl"
	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/gitdates"
)

// Namespace is the sitemaps.org schema namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

const dateLayout = "2006-01-02"

// URL is one <url> entry.
type URL struct {
	XMLName    xml.Name `xml:"url"`
	Loc        string   `xml:"loc"`
	LastMod    string   `xml:"lastmod,omitempty"`
	ChangeFreq string   `xml:"changefreq,omitempty"`
	Priority   string   `xml:"priority,omitempty"`
}

// URLSet is a sitemap file.
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// Entry is one <sitemap> entry of a sitemap index.
type Entry struct {
	XMLName xml.Name `xml:"sitemap"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod,omitempty"`
}

// Index is a sitemap index file.
type Index struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	XMLNS    string   `xml:"xmlns,attr"`
	Sitemaps []Entry  `xml:"sitemap"`
}

// Generator turns a site index into sitemap documents.
type Generator struct {
	cfg    config.SitemapConfig
	domain string
	dates  gitdates.Source
	now    func() time.Time
}

// NewGenerator returns a generator. dates may be nil, in which case every
// lastmod is today.
func NewGenerator(cfg config.SitemapConfig, domain string, dates gitdates.Source) *Generator {
	g := &Generator{cfg: cfg, domain: strings.TrimRight(domain, "/"), now: time.Now}
	if dates == nil {
		dates = gitdates.Fixed(g.now())
	}
	g.dates = dates
	return g
}

// Rank returns the priority and changefreq for a clean URL: the first
// matching rule, else the configured defaults.
func (g *Generator) Rank(u string) (priority string, changefreq config.Changefreq) {
	for _, r := range g.cfg.Rules {
		if ok, err := doublestar.Match(r.Match, u); err == nil && ok {
			return r.Priority, r.Changefreq
		}
	}
	return g.cfg.DefaultPriority, g.cfg.DefaultChangefreq
}

// inGroup reports whether file belongs to a group. Group dirs are matched
// non-recursively; no dirs means every file.
func inGroup(group config.SitemapGroup, file string) bool {
	if len(group.Dirs) == 0 {
		return true
	}
	dir := path.Dir(file)
	if dir == "." {
		dir = ""
	}
	for _, d := range group.Dirs {
		if strings.Trim(d, "/") == dir {
			return true
		}
	}
	return false
}

// URLSet builds the sitemap of one group from the site index.
func (g *Generator) URLSet(ix *cleanurl.Index, group config.SitemapGroup) URLSet {
	set := URLSet{XMLNS: Namespace}
	for _, file := range ix.Files() {
		if !inGroup(group, file) {
			continue
		}
		u, _ := ix.URLFor(file)
		priority, freq := g.Rank(u)
		entry := URL{
			Loc:        g.domain + u,
			ChangeFreq: string(freq),
			Priority:   priority,
		}
		if g.cfg.GitLastmod {
			entry.LastMod = g.dates.LastMod(file).Format(dateLayout)
		} else {
			entry.LastMod = g.now().Format(dateLayout)
		}
		set.URLs = append(set.URLs, entry)
	}
	return set
}

// SitemapIndex lists every group file.
func (g *Generator) SitemapIndex() Index {
	idx := Index{XMLNS: Namespace}
	today := g.now().Format(dateLayout)
	for _, group := range g.cfg.Groups {
		idx.Sitemaps = append(idx.Sitemaps, Entry{
			Loc:     g.domain + "/" + strings.TrimLeft(group.File, "/"),
			LastMod: today,
		})
	}
	return idx
}
