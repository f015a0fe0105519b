package commands

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitekeeper/internal/cleanurl"
	"git.home.luguber.info/inful/sitekeeper/internal/gitdates"
	"git.home.luguber.info/inful/sitekeeper/internal/sitemap"
)

// SitemapCmd implements the 'sitemap' command.
type SitemapCmd struct{}

func (s *SitemapCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(root)
	if err != nil {
		return err
	}
	if err := cfg.RequireDomain(); err != nil {
		return err
	}
	start := time.Now()
	ix, err := cleanurl.BuildIndex(cfg.Site.Root, cleanurl.NewIgnoreList(cfg.Ignore))
	if err != nil {
		return err
	}

	var dates gitdates.Source = gitdates.Fixed(time.Now())
	if cfg.Sitemap.GitLastmod {
		dates = gitdates.OpenOrNow(cfg.Site.Root)
	}
	written, err := sitemap.NewGenerator(cfg.Sitemap, cfg.Site.Domain, dates).Write(cfg.Site.Root, ix)
	for _, w := range written {
		_, _ = fmt.Fprintf(g.Out, "%-30s %d entries\n", w.File, w.URLs)
	}
	g.Recorder.ObserveRunDuration("sitemap", time.Since(start))
	return err
}
