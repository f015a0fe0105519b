package audit

import (
	"slices"
	"time"

	"git.home.luguber.info/inful/sitekeeper/internal/eventstore"
)

// Kind names a class of audit finding.
type Kind string

const (
	KindH1               Kind = "h1_count"
	KindSchema           Kind = "missing_schema"
	KindBreadcrumb       Kind = "missing_breadcrumb"
	KindAbsoluteInternal Kind = "absolute_internal_link"
	KindRelativeLink     Kind = "relative_link"
	KindHTMLExtension    Kind = "html_extension"
	KindDeadLink         Kind = "dead_link"
	KindExternalBroken   Kind = "external_broken"
	KindOrphan           Kind = "orphan"
	KindUnreadable       Kind = "unreadable_page"
)

// Penalties subtracted from the starting score of 100, per finding.
var penalties = map[Kind]int{
	KindH1:               5,
	KindSchema:           2,
	KindBreadcrumb:       0,
	KindAbsoluteInternal: 2,
	KindRelativeLink:     2,
	KindHTMLExtension:    2,
	KindDeadLink:         10,
	KindExternalBroken:   5,
	KindOrphan:           5,
	KindUnreadable:       0,
}

// Penalty returns the score deduction for one finding of kind k.
func Penalty(k Kind) int { return penalties[k] }

// MaxScore is the score of a site with no findings.
const MaxScore = 100

// Finding is one problem found by the audit.
type Finding struct {
	Kind    Kind
	File    string // root-relative source file, empty for site-wide findings
	URL     string // clean URL of the source page
	Target  string // offending href or URL
	Penalty int
	Message string
}

// Warning reports whether the finding costs nothing.
func (f Finding) Warning() bool { return f.Penalty == 0 }

func (f Finding) data() eventstore.FindingData {
	return eventstore.FindingData{
		Kind:    string(f.Kind),
		File:    f.File,
		URL:     f.URL,
		Target:  f.Target,
		Penalty: f.Penalty,
		Message: f.Message,
	}
}

// Inbound is the internal inbound link count of one page.
type Inbound struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// Report is the result of one audit run.
type Report struct {
	RunID    string
	Start    time.Time
	End      time.Time
	Domain   string
	Keywords []string
	Pages    int
	External int // unique external URLs considered
	Checked  bool

	Findings []Finding
	Top      []Inbound
	Orphans  []string
	Score    int

	// PreviousScore is the score of the last recorded run, when history is kept.
	PreviousScore *int
}

func (r *Report) add(f Finding) {
	f.Penalty = Penalty(f.Kind)
	r.Findings = append(r.Findings, f)
}

// Count returns the number of findings of kind k.
func (r *Report) Count(k Kind) int {
	n := 0
	for _, f := range r.Findings {
		if f.Kind == k {
			n++
		}
	}
	return n
}

// Of returns the findings of kind k in discovery order.
func (r *Report) Of(k Kind) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Kind == k {
			out = append(out, f)
		}
	}
	return out
}

// Kinds lists the kinds present, sorted.
func (r *Report) Kinds() []Kind {
	var kinds []Kind
	for _, f := range r.Findings {
		if !slices.Contains(kinds, f.Kind) {
			kinds = append(kinds, f.Kind)
		}
	}
	slices.Sort(kinds)
	return kinds
}

// score sums the penalties and floors the result at zero.
func (r *Report) score() {
	total := 0
	for _, f := range r.Findings {
		total += f.Penalty
	}
	r.Score = max(0, MaxScore-total)
}

func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }
