package config

import (
	"os"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// Init writes an example configuration file. An existing file is kept unless force is set.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return foundationerrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("file", configPath).Build()
	}

	example := Example()
	data, err := yaml.Marshal(example)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write config file").
			WithContext("file", configPath).Build()
	}
	return nil
}

// Example returns a fully populated configuration that passes Validate.
func Example() *Config {
	cfg := &Config{
		Version: CurrentVersion,
		Site: SiteConfig{
			Root:            ".",
			Domain:          "https://example.com",
			MasterLayout:    "index.html",
			DefaultLanguage: "zh-CN",
			Languages: []LanguageConfig{
				{Tag: "zh-CN", Prefix: ""},
				{Tag: "zh-Hant", Prefix: "zh-hant"},
			},
		},
		Build: BuildConfig{
			Recommendations: RecommendationConfig{
				Pool: []Recommendation{
					{URL: "/articles/getting-started", Title: "Getting started", Description: "First steps."},
					{URL: "/articles/faq", Title: "FAQ", Description: "Common questions."},
					{URL: "/articles/changelog", Title: "Changelog"},
				},
			},
		},
		Sitemap: SitemapConfig{
			GitLastmod: true,
			Groups: []SitemapGroup{
				{File: "sitemap.xml", Dirs: []string{"", "articles"}},
				{File: "sitemap-hant.xml", Dirs: []string{"zh-hant", "zh-hant/articles"}},
			},
		},
		Submit: SubmitConfig{
			IndexNow: IndexNowConfig{Key: "${INDEXNOW_KEY}"},
			Baidu:    BaiduConfig{Token: "${BAIDU_TOKEN}"},
		},
	}
	applyDefaults(cfg)
	return cfg
}
