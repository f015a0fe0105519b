package config

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/language"

	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// Validate checks a defaulted configuration and returns the first problem
// found as a validation error carrying the offending field.
func Validate(cfg *Config) error {
	v := &validator{cfg: cfg}
	for _, check := range []func() error{
		v.site,
		v.languages,
		v.ignore,
		v.sitemap,
		v.audit,
		v.submit,
		v.watch,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

type validator struct {
	cfg *Config
}

func invalid(field, msg string, value any) error {
	return foundationerrors.ValidationError(msg).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}

// RequireDomain fails unless site.domain is set. The audit can detect the
// domain from the root page; commands that emit absolute URLs cannot.
func (c *Config) RequireDomain() error {
	if c.Site.Domain == "" {
		return foundationerrors.ValidationError("site.domain is required").WithContext("field", "site.domain").Build()
	}
	return nil
}

func (v *validator) site() error {
	s := v.cfg.Site
	if s.Domain != "" {
		u, err := url.Parse(s.Domain)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid("site.domain", "site.domain must be an absolute http(s) origin", s.Domain)
		}
		if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
			return invalid("site.domain", "site.domain must not contain a path, query or fragment", s.Domain)
		}
	}
	if !strings.HasSuffix(s.MasterLayout, ".html") {
		return invalid("site.master_layout", "site.master_layout must name an .html file", s.MasterLayout)
	}
	return nil
}

func (v *validator) languages() error {
	s := v.cfg.Site
	if _, err := language.Parse(s.DefaultLanguage); err != nil {
		return invalid("site.default_language", "invalid language tag", s.DefaultLanguage)
	}
	seen := make(map[string]bool, len(s.Languages))
	for _, l := range s.Languages {
		if _, err := language.Parse(l.Tag); err != nil {
			return invalid("site.languages.tag", "invalid language tag", l.Tag)
		}
		if seen[l.Prefix] {
			return invalid("site.languages.prefix", "duplicate language prefix", l.Prefix)
		}
		seen[l.Prefix] = true
	}
	return nil
}

func (v *validator) ignore() error {
	for _, p := range v.cfg.Ignore.Files {
		if !doublestar.ValidatePattern(p) {
			return invalid("ignore.files", "invalid glob pattern", p)
		}
	}
	return nil
}

func (v *validator) sitemap() error {
	s := v.cfg.Sitemap
	if err := validPriority("sitemap.default_priority", s.DefaultPriority); err != nil {
		return err
	}
	if s.DefaultChangefreq == "" {
		return invalid("sitemap.default_changefreq", "unknown changefreq", s.DefaultChangefreq)
	}
	files := make(map[string]bool, len(s.Groups))
	for _, g := range s.Groups {
		if !strings.HasSuffix(g.File, ".xml") {
			return invalid("sitemap.groups.file", "sitemap file must end in .xml", g.File)
		}
		if files[g.File] || g.File == s.IndexOutput {
			return invalid("sitemap.groups.file", "duplicate sitemap file", g.File)
		}
		files[g.File] = true
	}
	for _, r := range s.Rules {
		if !doublestar.ValidatePattern(r.Match) {
			return invalid("sitemap.rules.match", "invalid glob pattern", r.Match)
		}
		if err := validPriority("sitemap.rules.priority", r.Priority); err != nil {
			return err
		}
		if r.Changefreq == "" {
			return invalid("sitemap.rules.changefreq", "unknown changefreq", r.Match)
		}
	}
	return nil
}

func validPriority(field, raw string) error {
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil || p < 0 || p > 1 {
		return invalid(field, "priority must be a number between 0.0 and 1.0", raw)
	}
	return nil
}

func (v *validator) audit() error {
	a := v.cfg.Audit
	d, err := time.ParseDuration(a.RequestTimeout)
	if err != nil || d <= 0 {
		return invalid("audit.request_timeout", "invalid duration", a.RequestTimeout)
	}
	if a.NATS.URL != "" {
		if _, err := url.Parse(a.NATS.URL); err != nil {
			return invalid("audit.nats.url", "invalid NATS URL", a.NATS.URL)
		}
	}
	return nil
}

func (v *validator) submit() error {
	s := v.cfg.Submit
	if _, err := time.ParseDuration(s.Timeout); err != nil {
		return invalid("submit.timeout", "invalid duration", s.Timeout)
	}
	r := s.Retry
	if r.MaxRetries < 0 {
		return invalid("submit.retry.max_retries", "max_retries cannot be negative", r.MaxRetries)
	}
	if r.Backoff == "" {
		return invalid("submit.retry.backoff", "invalid backoff (allowed: fixed|linear|exponential)", r.Backoff)
	}
	initial, err := time.ParseDuration(r.InitialDelay)
	if err != nil {
		return invalid("submit.retry.initial_delay", "invalid duration", r.InitialDelay)
	}
	maxDelay, err := time.ParseDuration(r.MaxDelay)
	if err != nil {
		return invalid("submit.retry.max_delay", "invalid duration", r.MaxDelay)
	}
	if maxDelay < initial {
		return invalid("submit.retry.max_delay", "max_delay must be >= initial_delay", r.MaxDelay)
	}
	return nil
}

func (v *validator) watch() error {
	if _, err := time.ParseDuration(v.cfg.Watch.Debounce); err != nil {
		return invalid("watch.debounce", "invalid duration", v.cfg.Watch.Debounce)
	}
	return nil
}
