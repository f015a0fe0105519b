package audit

import (
	"strings"

	"git.home.luguber.info/inful/sitekeeper/internal/htmldoc"
)

// SiteInfo is what the root page says about the site.
type SiteInfo struct {
	Domain   string
	Keywords []string
}

// Detect reads the root index.html: the domain from its canonical link, or
// og:url when there is none, and the keywords meta. A missing root page
// yields an empty SiteInfo.
func Detect(root string) (SiteInfo, error) {
	page, err := htmldoc.Load(root, "index.html", "/")
	if err != nil {
		return SiteInfo{}, err
	}
	var info SiteInfo
	doc := page.Doc
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		info.Domain = strings.TrimRight(strings.TrimSpace(href), "/")
	} else if content, ok := doc.Find(`meta[property="og:url"]`).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
		info.Domain = strings.TrimRight(strings.TrimSpace(content), "/")
	}
	if content, ok := doc.Find(`meta[name="keywords"]`).First().Attr("content"); ok && content != "" {
		for _, k := range strings.Split(content, ",") {
			if k = strings.TrimSpace(k); k != "" {
				info.Keywords = append(info.Keywords, k)
			}
		}
	}
	return info, nil
}
