package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Formatter renders an audit report.
type Formatter interface {
	Format(w io.Writer, rep *Report) error
}

// NewFormatter returns the formatter for "text" or "json".
func NewFormatter(format string) Formatter {
	switch format {
	case "json":
		return JSONFormatter{}
	default:
		return TextFormatter{}
	}
}

// TextFormatter prints a human-readable report.
type TextFormatter struct{}

// stickyWriter keeps the first write error so the report code reads linearly.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (s *stickyWriter) printf(format string, args ...any) {
	if s.err == nil {
		_, s.err = fmt.Fprintf(s.w, format, args...)
	}
}

func (TextFormatter) Format(w io.Writer, rep *Report) error {
	out := &stickyWriter{w: w}
	rule := strings.Repeat("━", 60)

	out.printf("SEO audit of %s (%d pages)\n", orUnknown(rep.Domain), rep.Pages)
	out.printf("Run %s, %d keywords\n%s\n\n", rep.RunID, len(rep.Keywords), rule)

	for _, kind := range rep.Kinds() {
		findings := rep.Of(kind)
		icon := "✗"
		if findings[0].Warning() {
			icon = "⚠"
		}
		out.printf("%s %s (%d)\n", icon, kind, len(findings))
		for _, f := range findings {
			switch {
			case f.Target != "":
				out.printf("  %s -> %s: %s\n", orUnknown(f.URL), f.Target, f.Message)
			default:
				out.printf("  %s: %s\n", orUnknown(f.URL), f.Message)
			}
		}
		out.printf("\n")
	}

	out.printf("Top %d pages by internal inbound links:\n", len(rep.Top))
	for _, in := range rep.Top {
		out.printf("  %-50s %d\n", in.URL, in.Count)
	}
	out.printf("\nOrphan pages (0 inbound):\n")
	if len(rep.Orphans) == 0 {
		out.printf("  none\n")
	}
	for _, u := range rep.Orphans {
		out.printf("  %s\n", u)
	}

	out.printf("%s\n", rule)
	switch {
	case !rep.Checked && rep.External > 0:
		out.printf("%d external links not checked\n", rep.External)
	case rep.Checked:
		out.printf("%d external links checked, %d broken\n", rep.External, rep.Count(KindExternalBroken))
	}
	out.printf("Final score: %d/%d", rep.Score, MaxScore)
	if rep.PreviousScore != nil {
		out.printf(" (previous %d, %+d)", *rep.PreviousScore, rep.Score-*rep.PreviousScore)
	}
	out.printf("\n")
	if rep.Score < MaxScore {
		out.printf("Action required: run `sitekeeper build` or fix the findings above.\n")
	}
	return out.err
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// JSONFormatter prints the report as indented JSON.
type JSONFormatter struct{}

// JSONOutput is the JSON shape of a report.
type JSONOutput struct {
	RunID         string        `json:"run_id"`
	Domain        string        `json:"domain"`
	Keywords      []string      `json:"keywords,omitempty"`
	Pages         int           `json:"pages"`
	External      int           `json:"external_links"`
	Checked       bool          `json:"external_checked"`
	Score         int           `json:"score"`
	PreviousScore *int          `json:"previous_score,omitempty"`
	DurationMS    int64         `json:"duration_ms"`
	Findings      []JSONFinding `json:"findings"`
	Top           []Inbound     `json:"top_inbound"`
	Orphans       []string      `json:"orphans"`
	Finished      time.Time     `json:"finished"`
}

// JSONFinding is one finding in JSON output.
type JSONFinding struct {
	Kind    Kind   `json:"kind"`
	File    string `json:"file,omitempty"`
	URL     string `json:"url,omitempty"`
	Target  string `json:"target,omitempty"`
	Penalty int    `json:"penalty"`
	Message string `json:"message"`
}

func (JSONFormatter) Format(w io.Writer, rep *Report) error {
	output := JSONOutput{
		RunID:         rep.RunID,
		Domain:        rep.Domain,
		Keywords:      rep.Keywords,
		Pages:         rep.Pages,
		External:      rep.External,
		Checked:       rep.Checked,
		Score:         rep.Score,
		PreviousScore: rep.PreviousScore,
		DurationMS:    rep.Duration().Milliseconds(),
		Findings:      make([]JSONFinding, 0, len(rep.Findings)),
		Top:           rep.Top,
		Orphans:       rep.Orphans,
		Finished:      rep.End,
	}
	for _, f := range rep.Findings {
		output.Findings = append(output.Findings, JSONFinding(f))
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
