package submit

import (
	"cmp"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
	"git.home.luguber.info/inful/sitekeeper/internal/sitemap"
)

// BaiduResponse is the push API reply.
type BaiduResponse struct {
	Remain      *int     `json:"remain"`
	Success     int      `json:"success"`
	NotSameSite []string `json:"not_same_site"`
	NotValid    []string `json:"not_valid"`
	Error       int      `json:"error"`
	Message     string   `json:"message"`
}

// Prioritize orders entries by priority, highest first, keeping sitemap
// order among equals, and returns at most limit locations.
func Prioritize(urls []sitemap.URL, limit int) []string {
	sorted := slices.Clone(urls)
	slices.SortStableFunc(sorted, func(a, b sitemap.URL) int {
		return cmp.Compare(b.PriorityValue(), a.PriorityValue())
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]string, 0, len(sorted))
	for _, u := range sorted {
		out = append(out, u.Loc)
	}
	return out
}

// Baidu pushes the highest-priority entries, newline separated, to the
// push API. A reply with no remaining quota is a warning, not an error.
func (c *Client) Baidu(ctx context.Context, cfg config.BaiduConfig, urls []sitemap.URL) (*Result, error) {
	if cfg.Token == "" || cfg.Site == "" {
		return nil, foundationerrors.ConfigError("baidu requires submit.baidu.token and site").Build()
	}
	selected := Prioritize(urls, cfg.MaxURLs)
	if len(selected) == 0 {
		slog.Info("No URLs to submit", logfields.Endpoint(cfg.Endpoint))
		return &Result{Endpoint: cfg.Endpoint}, nil
	}

	body := []byte(strings.Join(selected, "\n"))
	res, err := c.post(ctx, "baidu", cfg.SubmitURL(), "text/plain", body, func(status int) bool {
		return status == http.StatusOK
	})
	if err != nil {
		return res, err
	}
	res.Submitted = selected

	var reply BaiduResponse
	if jsonErr := json.Unmarshal([]byte(res.Body), &reply); jsonErr == nil {
		res.QuotaExhausted = reply.Remain != nil && *reply.Remain == 0
		if len(reply.NotSameSite) > 0 || len(reply.NotValid) > 0 {
			slog.Warn("Baidu rejected some URLs",
				slog.Int("not_same_site", len(reply.NotSameSite)),
				slog.Int("not_valid", len(reply.NotValid)))
		}
	} else {
		res.QuotaExhausted = strings.Contains(strings.ReplaceAll(res.Body, " ", ""), `"remain":0`)
	}

	if res.QuotaExhausted {
		slog.Warn("Baidu daily quota exhausted", logfields.Endpoint(res.Endpoint), logfields.Count(len(selected)))
	} else {
		slog.Info("Baidu submission accepted", logfields.Endpoint(res.Endpoint),
			logfields.Status(res.Status), logfields.Count(len(selected)))
	}
	return res, nil
}
