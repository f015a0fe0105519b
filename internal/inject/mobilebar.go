package inject

import (
	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
)

// MobileBar appends the configured fixed bottom bar to pages that lack one.
type MobileBar struct {
	markup string
	scope  Scope
}

func NewMobileBar(cfg config.MobileBarConfig, scope Scope) *MobileBar {
	return &MobileBar{markup: cfg.HTML, scope: scope}
}

// Apply appends the bar to <body>. Any element with both "fixed" and
// "bottom-0" classes counts as an existing bar.
func (m *MobileBar) Apply(doc *goquery.Document, pageURL string) (bool, error) {
	if m.markup == "" || !m.scope.Contains(pageURL) || doc.Find(".fixed.bottom-0").Length() > 0 {
		return false, nil
	}
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return false, nil
	}
	nodes, err := fragment(m.markup)
	if err != nil {
		return false, err
	}
	body.AppendNodes(nodes...)
	return true, nil
}
