// Package links rewrites hrefs in a page to clean absolute URLs.
package links

import (
	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/sitekeeper/internal/cleanurl"
	"git.home.luguber.info/inful/sitekeeper/internal/htmldoc"
)

// ExternalRel are the rel tokens every off-domain anchor carries.
var ExternalRel = []string{"nofollow", "noopener", "noreferrer"}

// Stats counts what one Rewrite call changed.
type Stats struct {
	Rewritten int // hrefs replaced by their clean form
	Secured   int // external anchors whose rel attribute changed
}

// Rewriter applies clean URL rewriting to <a> and <link> elements.
type Rewriter struct {
	canon *cleanurl.Canonicalizer
}

func NewRewriter(canon *cleanurl.Canonicalizer) *Rewriter {
	return &Rewriter{canon: canon}
}

// Rewrite edits doc in place. currentFile is the root-relative path the
// document was read from; relative hrefs resolve against its directory.
// Running it twice yields the same document.
func (r *Rewriter) Rewrite(doc *goquery.Document, currentFile string) Stats {
	var st Stats
	doc.Find("a[href], link[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		l := r.canon.Classify(href, currentFile)
		switch l.Kind {
		case cleanurl.LinkIgnored:
			return
		case cleanurl.LinkExternal:
			if goquery.NodeName(s) != "a" {
				return
			}
			rel, _ := s.Attr("rel")
			merged := htmldoc.MergeTokens(rel, ExternalRel...)
			if merged != rel {
				s.SetAttr("rel", merged)
				st.Secured++
			}
		case cleanurl.LinkInternal:
			if l.AbsoluteInternal || l.Target == href {
				return
			}
			s.SetAttr("href", l.Target)
			st.Rewritten++
		}
	})
	return st
}
