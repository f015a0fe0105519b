// Package linkverify checks external links with bounded concurrency and
// publishes broken-link events.
package linkverify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
	"git.home.luguber.info/inful/sitekeeper/internal/metrics"
)

const (
	maxRedirects = 10
	okTTL        = time.Hour
	brokenTTL    = 5 * time.Minute
)

// Result is the outcome of one HEAD check.
type Result struct {
	URL    string
	Status int // 0 when the request itself failed
	Err    error
}

// Broken reports whether the link failed: a transport error or a status of 400 or more.
func (r Result) Broken() bool {
	return r.Err != nil || r.Status >= 400
}

// Reason is a short human-readable description of a broken result.
func (r Result) Reason() string {
	switch {
	case r.Err != nil:
		return r.Err.Error()
	case r.Status >= 400:
		return fmt.Sprintf("HTTP %d", r.Status)
	default:
		return ""
	}
}

// Checker issues HEAD requests, at most MaxConcurrent at a time. Results
// are cached per URL, so a long-lived checker (watch mode) does not hit the
// same host again on every run.
type Checker struct {
	client    *http.Client
	userAgent string
	sem       chan struct{}
	rec       metrics.Recorder
	results   *cache.Cache
}

// NewChecker builds a checker from the audit settings.
func NewChecker(cfg config.AuditConfig, rec metrics.Recorder) *Checker {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	client := &http.Client{
		Timeout:   cfg.Timeout(),
		Transport: transport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	return newChecker(client, cfg.UserAgent, cfg.MaxConcurrent, rec)
}

func newChecker(client *http.Client, userAgent string, limit int, rec metrics.Recorder) *Checker {
	if limit <= 0 {
		limit = config.DefaultMaxConcurrent
	}
	return &Checker{
		client:    client,
		userAgent: userAgent,
		sem:       make(chan struct{}, limit),
		rec:       metrics.OrNoop(rec),
		results:   cache.New(okTTL, 10*time.Minute),
	}
}

// Check verifies every URL and returns the results in input order. URLs not
// reached because ctx ended carry ctx's error.
func (c *Checker) Check(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		// Acquire before spawning to avoid goroutine backlogs.
		select {
		case <-ctx.Done():
			for j := i; j < len(urls); j++ {
				results[j] = Result{URL: urls[j], Err: ctx.Err()}
			}
			wg.Wait()
			return results
		case c.sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			defer func() { <-c.sem }()
			results[i] = c.checkOne(ctx, u)
		}(i, u)
	}
	wg.Wait()
	return results
}

func (c *Checker) checkOne(ctx context.Context, u string) Result {
	if cached, ok := c.results.Get(u); ok {
		return cached.(Result)
	}
	res := Result{URL: u}
	res.Status, res.Err = c.head(ctx, u)
	broken := res.Broken()
	c.rec.IncLinkCheck(broken)
	switch {
	case ctx.Err() != nil:
		// not cached: the failure says nothing about the link
	case broken:
		slog.Debug("External link broken", logfields.URL(u), logfields.Status(res.Status), logfields.Error(res.Err))
		c.results.Set(u, res, brokenTTL)
	default:
		c.results.Set(u, res, cache.DefaultExpiration)
	}
	return res
}

// Forget drops every cached result.
func (c *Checker) Forget() { c.results.Flush() }

func (c *Checker) head(ctx context.Context, u string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
