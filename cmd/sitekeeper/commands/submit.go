package commands

import (
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/sitemap"
	"git.home.luguber.info/inful/sitekeeper/internal/submit"
)

// SubmitCmd groups the search engine submitters.
type SubmitCmd struct {
	Sitemap string `help:"Sitemap to read, relative to the site root (defaults to sitemap.index_output)"`

	IndexNow SubmitIndexNowCmd `cmd:"" name:"indexnow" help:"Submit every sitemap URL of the configured host via IndexNow"`
	Baidu    SubmitBaiduCmd    `cmd:"" help:"Push the highest-priority sitemap URLs to Baidu"`
}

func (s *SubmitCmd) urls(cfg *config.Config) ([]sitemap.URL, error) {
	if err := cfg.RequireDomain(); err != nil {
		return nil, err
	}
	rel := s.Sitemap
	if rel == "" {
		rel = cfg.Sitemap.IndexOutput
	}
	return sitemap.ReadURLs(cfg.Site.Root, rel)
}

// SubmitIndexNowCmd implements 'submit indexnow'.
type SubmitIndexNowCmd struct{}

func (c *SubmitIndexNowCmd) Run(parent *SubmitCmd, g *Global, root *CLI) error {
	cfg, err := LoadConfig(root)
	if err != nil {
		return err
	}
	entries, err := parent.urls(cfg)
	if err != nil {
		return err
	}
	locs := make([]string, 0, len(entries))
	for _, e := range entries {
		locs = append(locs, e.Loc)
	}

	ctx, stop := signalContext()
	defer stop()
	start := time.Now()
	res, err := submit.NewClient(cfg.Submit, g.Recorder).IndexNow(ctx, cfg.Submit.IndexNow, locs)
	g.Recorder.ObserveRunDuration("submit_indexnow", time.Since(start))
	if err != nil {
		return err
	}
	printSubmission(g.Out, res)
	return nil
}

// SubmitBaiduCmd implements 'submit baidu'.
type SubmitBaiduCmd struct {
	Limit int `help:"Override submit.baidu.max_urls"`
}

func (c *SubmitBaiduCmd) Run(parent *SubmitCmd, g *Global, root *CLI) error {
	cfg, err := LoadConfig(root)
	if err != nil {
		return err
	}
	if c.Limit > 0 {
		cfg.Submit.Baidu.MaxURLs = c.Limit
	}
	entries, err := parent.urls(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	start := time.Now()
	res, err := submit.NewClient(cfg.Submit, g.Recorder).Baidu(ctx, cfg.Submit.Baidu, entries)
	g.Recorder.ObserveRunDuration("submit_baidu", time.Since(start))
	if err != nil {
		return err
	}
	printSubmission(g.Out, res)
	return nil
}

func printSubmission(w io.Writer, res *submit.Result) {
	if len(res.Submitted) == 0 {
		_, _ = fmt.Fprintln(w, "Nothing to submit")
		return
	}
	_, _ = fmt.Fprintf(w, "Submitted %d URLs to %s (HTTP %d, %d attempts)\n",
		len(res.Submitted), res.Endpoint, res.Status, res.Attempts)
	if res.QuotaExhausted {
		_, _ = fmt.Fprintln(w, "Daily quota exhausted; remaining URLs must wait until tomorrow")
	}
}
