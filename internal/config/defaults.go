package config

import (
	"net/url"
	"time"
)

const (
	DefaultMaxConcurrent  = 10
	DefaultRequestTimeout = 5 * time.Second
	DefaultUserAgent      = "Mozilla/5.0 (compatible; SEOAuditBot/1.0)"
	DefaultTopInbound     = 10
	DefaultBaiduMaxURLs   = 10
	DefaultRobots         = "index, follow"
	DefaultIndexNowURL    = "https://api.indexnow.org/indexnow"
	DefaultBaiduURL       = "http://data.zz.baidu.com/urls"
	DefaultNATSSubject    = "sitekeeper.links.broken"
)

// applyDefaults fills every field left empty by the user.
func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	applySiteDefaults(&cfg.Site)
	applyIgnoreDefaults(&cfg.Ignore)
	applyBuildDefaults(&cfg.Build)
	applySitemapDefaults(cfg)
	applyAuditDefaults(&cfg.Audit)
	applySubmitDefaults(cfg)
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "500ms"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}

func applySiteDefaults(s *SiteConfig) {
	if s.Root == "" {
		s.Root = "."
	}
	if s.MasterLayout == "" {
		s.MasterLayout = "index.html"
	}
	if s.DefaultLanguage == "" {
		s.DefaultLanguage = "zh-CN"
	}
	if len(s.Languages) == 0 {
		s.Languages = []LanguageConfig{{Tag: s.DefaultLanguage, Prefix: ""}}
	}
}

func applyIgnoreDefaults(i *IgnoreConfig) {
	if i.Dirs == nil {
		i.Dirs = []string{".git", "node_modules", "__pycache__"}
	}
	if i.Files == nil {
		i.Files = []string{"404.html", "_*", "*google*"}
	}
	if i.URLPrefixes == nil {
		i.URLPrefixes = []string{"/go/", "cdn-cgi"}
	}
}

func applyBuildDefaults(b *BuildConfig) {
	if b.Robots == "" {
		b.Robots = DefaultRobots
	}
	if b.Breadcrumbs.Section == "" {
		b.Breadcrumbs.Section = "articles"
	}
	if b.Breadcrumbs.HomeLabel == "" {
		b.Breadcrumbs.HomeLabel = "Home"
	}
	if b.Breadcrumbs.ArchiveLabel == "" {
		b.Breadcrumbs.ArchiveLabel = "Archive"
	}
	if b.Breadcrumbs.ArchiveURL == "" {
		b.Breadcrumbs.ArchiveURL = "/archive"
	}
	if b.Recommendations.Section == "" {
		b.Recommendations.Section = "articles"
	}
	if b.Recommendations.Count == 0 {
		b.Recommendations.Count = 2
	}
	if b.Recommendations.Heading == "" {
		b.Recommendations.Heading = "Recommended reading"
	}
	if b.MobileBar.Section == "" {
		b.MobileBar.Section = "articles"
	}
}

func applySitemapDefaults(cfg *Config) {
	s := &cfg.Sitemap
	if s.IndexOutput == "" {
		s.IndexOutput = "sitemap_index.xml"
	}
	if s.DefaultPriority == "" {
		s.DefaultPriority = "0.8"
	}
	if s.DefaultChangefreq == "" {
		s.DefaultChangefreq = ChangefreqWeekly
	}
	if len(s.Groups) == 0 {
		s.Groups = []SitemapGroup{{File: "sitemap.xml"}}
	}
	if len(s.Rules) == 0 {
		s.Rules = defaultPriorityRules(cfg)
	}
}

// defaultPriorityRules ranks the home page and every language root first,
// section indexes next, and legal pages last.
func defaultPriorityRules(cfg *Config) []PriorityRule {
	rules := []PriorityRule{{Match: "/", Priority: "1.0", Changefreq: ChangefreqDaily}}
	for _, lang := range cfg.Site.Languages {
		if lang.Prefix == "" {
			continue
		}
		rules = append(rules, PriorityRule{Match: "/" + lang.Prefix + "/", Priority: "1.0", Changefreq: ChangefreqDaily})
	}
	if section := cfg.Build.Breadcrumbs.Section; section != "" {
		rules = append(rules, PriorityRule{Match: "/" + section + "/", Priority: "0.9", Changefreq: ChangefreqDaily})
	}
	rules = append(rules,
		PriorityRule{Match: "/privacy-policy", Priority: "0.3", Changefreq: ChangefreqMonthly},
		PriorityRule{Match: "/terms-of-service", Priority: "0.3", Changefreq: ChangefreqMonthly},
	)
	return rules
}

func applyAuditDefaults(a *AuditConfig) {
	if a.MaxConcurrent <= 0 {
		a.MaxConcurrent = DefaultMaxConcurrent
	}
	if a.RequestTimeout == "" {
		a.RequestTimeout = DefaultRequestTimeout.String()
	}
	if a.UserAgent == "" {
		a.UserAgent = DefaultUserAgent
	}
	if a.TopInbound <= 0 {
		a.TopInbound = DefaultTopInbound
	}
	if a.NATS.Subject == "" {
		a.NATS.Subject = DefaultNATSSubject
	}
}

func applySubmitDefaults(cfg *Config) {
	s := &cfg.Submit
	if s.IndexNow.Endpoint == "" {
		s.IndexNow.Endpoint = DefaultIndexNowURL
	}
	if s.IndexNow.Host == "" && cfg.Site.Domain != "" {
		if u, err := url.Parse(cfg.Site.Domain); err == nil {
			s.IndexNow.Host = u.Host
		}
	}
	if s.IndexNow.KeyLocation == "" && s.IndexNow.Key != "" && cfg.Site.Domain != "" {
		s.IndexNow.KeyLocation = cfg.Site.Domain + "/" + s.IndexNow.Key + ".txt"
	}
	if s.Baidu.Endpoint == "" {
		s.Baidu.Endpoint = DefaultBaiduURL
	}
	if s.Baidu.Site == "" {
		s.Baidu.Site = cfg.Site.Domain
	}
	if s.Baidu.MaxURLs <= 0 {
		s.Baidu.MaxURLs = DefaultBaiduMaxURLs
	}
	if s.Timeout == "" {
		s.Timeout = "10s"
	}
	if s.Retry.Backoff == "" {
		s.Retry.Backoff = RetryBackoffLinear
	}
	if s.Retry.InitialDelay == "" {
		s.Retry.InitialDelay = "1s"
	}
	if s.Retry.MaxDelay == "" {
		s.Retry.MaxDelay = "30s"
	}
}
