package inject

import (
	"bytes"
	"hash/fnv"
	"html/template"
	"math/rand/v2"

	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
)

// RecommendedID is the id of the injected block; pages that already carry
// it are skipped.
const RecommendedID = "recommended-reading"

var recommendTmpl = template.Must(template.New("recommend").Parse(
	`<div id="recommended-reading" class="mt-12 pt-8 border-t border-slate-200">
        <h3 class="text-xl font-bold text-slate-900 mb-6">{{.Heading}}</h3>
        <div class="grid md:grid-cols-2 gap-6">{{range .Items}}
            <a href="{{.URL}}" class="block group bg-slate-50 p-4 rounded-xl border border-slate-100 hover:border-emerald-500 transition">
                <div class="font-bold text-slate-900 group-hover:text-emerald-600 mb-2">{{.Title}}</div>{{if .Description}}
                <p class="text-xs text-slate-500">{{.Description}}</p>{{end}}
            </a>{{end}}
        </div>
    </div>`))

// Recommender appends a recommended reading block to section articles.
type Recommender struct {
	cfg   config.RecommendationConfig
	scope Scope
}

func NewRecommender(cfg config.RecommendationConfig, scope Scope) *Recommender {
	return &Recommender{cfg: cfg, scope: scope}
}

// Pick returns up to Count pool entries for pageURL, never the page itself.
// The order is a shuffle seeded by pageURL, so the same page always gets
// the same picks.
func (r *Recommender) Pick(pageURL string) []config.Recommendation {
	var candidates []config.Recommendation
	for _, rec := range r.cfg.Pool {
		if !sameURL(rec.URL, pageURL) {
			candidates = append(candidates, rec)
		}
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(pageURL))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

	if len(candidates) > r.cfg.Count {
		candidates = candidates[:r.cfg.Count]
	}
	return candidates
}

// Apply appends the block to the page's <article>. Pages out of scope,
// without an <article>, or already carrying the block are left alone.
func (r *Recommender) Apply(doc *goquery.Document, pageURL string) (bool, error) {
	if !r.scope.Contains(pageURL) || doc.Find("#"+RecommendedID).Length() > 0 {
		return false, nil
	}
	article := doc.Find("article").First()
	if article.Length() == 0 {
		return false, nil
	}
	picks := r.Pick(pageURL)
	if len(picks) == 0 {
		return false, nil
	}

	var buf bytes.Buffer
	if err := recommendTmpl.Execute(&buf, struct {
		Heading string
		Items   []config.Recommendation
	}{r.cfg.Heading, picks}); err != nil {
		return false, err
	}
	nodes, err := fragment(buf.String())
	if err != nil {
		return false, err
	}
	article.AppendNodes(nodes...)
	return true, nil
}
