package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// CurrentVersion is the only configuration version this build understands.
const CurrentVersion = "1.0"

// Config is the complete sitekeeper configuration. Every component receives
// the parts it needs from here; nothing reads globals.
type Config struct {
	Version string        `yaml:"version"`
	Site    SiteConfig    `yaml:"site"`
	Ignore  IgnoreConfig  `yaml:"ignore"`
	Build   BuildConfig   `yaml:"build"`
	Sitemap SitemapConfig `yaml:"sitemap"`
	Audit   AuditConfig   `yaml:"audit"`
	Submit  SubmitConfig  `yaml:"submit"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig describes the site tree and its public origin.
type SiteConfig struct {
	Root            string           `yaml:"root"`
	Domain          string           `yaml:"domain"`        // e.g. https://example.com, no trailing slash
	MasterLayout    string           `yaml:"master_layout"` // relative to Root
	DefaultLanguage string           `yaml:"default_language"`
	Languages       []LanguageConfig `yaml:"languages,omitempty"`
}

// LanguageConfig maps a BCP 47 tag to the directory prefix holding that variant.
// The default language usually has an empty prefix.
type LanguageConfig struct {
	Tag    string `yaml:"tag"`
	Prefix string `yaml:"prefix"`
}

// IgnoreConfig feeds the link and file allowlist.
type IgnoreConfig struct {
	Dirs        []string `yaml:"dirs"`
	Files       []string `yaml:"files"`        // doublestar patterns on the base name
	URLPrefixes []string `yaml:"url_prefixes"` // hrefs left untouched
}

type BuildConfig struct {
	AllowCollisions bool                 `yaml:"allow_collisions"`
	DisabledStages  []string             `yaml:"disabled_stages,omitempty"`
	Robots          string               `yaml:"robots"`
	Breadcrumbs     BreadcrumbConfig     `yaml:"breadcrumbs"`
	Recommendations RecommendationConfig `yaml:"recommendations"`
	MobileBar       MobileBarConfig      `yaml:"mobile_bar"`
}

// StageEnabled reports whether the named pipeline stage is not disabled.
func (b BuildConfig) StageEnabled(name string) bool {
	for _, s := range b.DisabledStages {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return false
		}
	}
	return true
}

type BreadcrumbConfig struct {
	Section      string `yaml:"section"`
	HomeLabel    string `yaml:"home_label"`
	ArchiveLabel string `yaml:"archive_label"`
	ArchiveURL   string `yaml:"archive_url"`
}

type RecommendationConfig struct {
	Section string           `yaml:"section"`
	Count   int              `yaml:"count"`
	Heading string           `yaml:"heading"`
	Pool    []Recommendation `yaml:"pool,omitempty"`
}

// Recommendation is one entry of the curated reading pool.
type Recommendation struct {
	URL         string `yaml:"url"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
}

// MobileBarConfig holds the fixed bottom bar markup. Empty HTML skips injection.
type MobileBarConfig struct {
	HTML    string `yaml:"html,omitempty"`
	Section string `yaml:"section"`
}

type SitemapConfig struct {
	IndexOutput       string         `yaml:"index_output"`
	GitLastmod        bool           `yaml:"git_lastmod"`
	DefaultPriority   string         `yaml:"default_priority"`
	DefaultChangefreq Changefreq     `yaml:"default_changefreq"`
	Groups            []SitemapGroup `yaml:"groups,omitempty"`
	Rules             []PriorityRule `yaml:"rules,omitempty"`
}

// SitemapGroup is one sitemap file. Dirs are scanned non-recursively;
// an empty list means the whole site.
type SitemapGroup struct {
	File string   `yaml:"file"`
	Dirs []string `yaml:"dirs,omitempty"`
}

// PriorityRule assigns priority and changefreq to clean URLs matching Match
// (a doublestar pattern). First match wins.
type PriorityRule struct {
	Match      string     `yaml:"match"`
	Priority   string     `yaml:"priority"`
	Changefreq Changefreq `yaml:"changefreq"`
}

type AuditConfig struct {
	MaxConcurrent  int        `yaml:"max_concurrent"`
	RequestTimeout string     `yaml:"request_timeout"`
	UserAgent      string     `yaml:"user_agent"`
	SkipExternal   bool       `yaml:"skip_external"`
	TopInbound     int        `yaml:"top_inbound"`
	HistoryDB      string     `yaml:"history_db,omitempty"`
	NATS           NATSConfig `yaml:"nats"`
}

// Timeout returns the parsed request timeout. Validate has already rejected bad values.
func (a AuditConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(a.RequestTimeout)
	if err != nil {
		return DefaultRequestTimeout
	}
	return d
}

type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject"`
}

type SubmitConfig struct {
	IndexNow IndexNowConfig `yaml:"indexnow"`
	Baidu    BaiduConfig    `yaml:"baidu"`
	Retry    RetryConfig    `yaml:"retry"`
	Timeout  string         `yaml:"timeout"`
}

type IndexNowConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Host        string `yaml:"host"`
	Key         string `yaml:"key"`
	KeyLocation string `yaml:"key_location"`
}

type BaiduConfig struct {
	Endpoint string `yaml:"endpoint"`
	Site     string `yaml:"site"`
	Token    string `yaml:"token"`
	MaxURLs  int    `yaml:"max_urls"`
}

// SubmitURL is the push endpoint with site and token query parameters.
func (b BaiduConfig) SubmitURL() string {
	return fmt.Sprintf("%s?site=%s&token=%s", b.Endpoint, b.Site, b.Token)
}

type RetryConfig struct {
	MaxRetries   int              `yaml:"max_retries"`
	Backoff      RetryBackoffMode `yaml:"backoff"`
	InitialDelay string           `yaml:"initial_delay"`
	MaxDelay     string           `yaml:"max_delay"`
}

type WatchConfig struct {
	Debounce string   `yaml:"debounce"`
	Paths    []string `yaml:"paths,omitempty"` // extra files to watch, relative to Site.Root
}

type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// RootPath joins a root-relative slash path onto the site root.
func (c *Config) RootPath(rel string) string {
	return filepath.Join(c.Site.Root, filepath.FromSlash(rel))
}

// Load reads, expands, normalizes, defaults and validates a configuration file.
// Relative site.root and audit.history_db paths are resolved against the
// config file's directory.
func Load(configPath string) (*Config, error) {
	if loaded, err := loadEnvFiles(filepath.Dir(configPath)); err == nil && len(loaded) > 0 {
		slog.Debug("Loaded environment files", slog.Any("files", loaded))
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, foundationerrors.ConfigError("configuration file not found").
				WithContext("file", configPath).Build()
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to read config file").
			WithContext("file", configPath).Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.Site.Root) {
		cfg.Site.Root = filepath.Join(filepath.Dir(configPath), cfg.Site.Root)
	}
	if db := cfg.Audit.HistoryDB; db != "" && db != ":memory:" && !filepath.IsAbs(db) {
		cfg.Audit.HistoryDB = filepath.Join(filepath.Dir(configPath), db)
	}
	return cfg, nil
}

// Parse decodes YAML bytes after ${VAR} expansion and runs the normal
// defaults and validation passes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to unmarshal config").
			Fatal().Build()
	}
	if cfg.Version != "" && cfg.Version != CurrentVersion {
		return nil, foundationerrors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("expected", CurrentVersion).Build()
	}

	normalize(&cfg)
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied and no site
// specific values. Tests and the init command start from here.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	applyDefaults(cfg)
	return cfg
}

func normalize(cfg *Config) {
	cfg.Site.Domain = strings.TrimRight(strings.TrimSpace(cfg.Site.Domain), "/")
	cfg.Site.MasterLayout = filepath.ToSlash(strings.TrimLeft(cfg.Site.MasterLayout, "/"))
	for i := range cfg.Site.Languages {
		cfg.Site.Languages[i].Prefix = strings.Trim(cfg.Site.Languages[i].Prefix, "/")
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	if cfg.Submit.Retry.Backoff != "" {
		cfg.Submit.Retry.Backoff = NormalizeRetryBackoff(string(cfg.Submit.Retry.Backoff))
	}
	if cfg.Sitemap.DefaultChangefreq != "" {
		cfg.Sitemap.DefaultChangefreq = NormalizeChangefreq(string(cfg.Sitemap.DefaultChangefreq))
	}
	for i := range cfg.Sitemap.Rules {
		if cfg.Sitemap.Rules[i].Changefreq != "" {
			cfg.Sitemap.Rules[i].Changefreq = NormalizeChangefreq(string(cfg.Sitemap.Rules[i].Changefreq))
		}
	}
	cfg.Build.Breadcrumbs.Section = strings.Trim(cfg.Build.Breadcrumbs.Section, "/")
	cfg.Build.Recommendations.Section = strings.Trim(cfg.Build.Recommendations.Section, "/")
	cfg.Build.MobileBar.Section = strings.Trim(cfg.Build.MobileBar.Section, "/")
}
