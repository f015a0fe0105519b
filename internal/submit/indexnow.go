package submit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
)

// IndexNowPayload is the JSON body of an IndexNow submission.
type IndexNowPayload struct {
	Host        string   `json:"host"`
	Key         string   `json:"key"`
	KeyLocation string   `json:"keyLocation"`
	URLList     []string `json:"urlList"`
}

// FilterHost keeps the URLs whose host is host.
func FilterHost(urls []string, host string) []string {
	var out []string
	for _, raw := range urls {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || !strings.EqualFold(u.Hostname(), host) {
			continue
		}
		out = append(out, u.String())
	}
	return out
}

// IndexNow submits the URLs of cfg.Host. URLs of other hosts are dropped.
// 200 and 202 are success. No URLs left after filtering is not an error;
// the returned result has nothing submitted.
func (c *Client) IndexNow(ctx context.Context, cfg config.IndexNowConfig, urls []string) (*Result, error) {
	if cfg.Key == "" || cfg.Host == "" {
		return nil, foundationerrors.ConfigError("indexnow requires submit.indexnow.key and host").Build()
	}
	valid := FilterHost(urls, cfg.Host)
	if dropped := len(urls) - len(valid); dropped > 0 {
		slog.Info("Skipping URLs of other hosts", slog.String("host", cfg.Host), logfields.Count(dropped))
	}
	if len(valid) == 0 {
		slog.Info("No URLs to submit", logfields.Endpoint(cfg.Endpoint))
		return &Result{Endpoint: cfg.Endpoint}, nil
	}

	body, err := json.Marshal(IndexNowPayload{
		Host:        cfg.Host,
		Key:         cfg.Key,
		KeyLocation: cfg.KeyLocation,
		URLList:     valid,
	})
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to encode payload").Build()
	}

	res, err := c.post(ctx, "indexnow", cfg.Endpoint, "application/json; charset=utf-8", body, func(status int) bool {
		return status == http.StatusOK || status == http.StatusAccepted
	})
	if err != nil {
		return res, err
	}
	res.Submitted = valid
	slog.Info("IndexNow submission accepted", logfields.Endpoint(res.Endpoint),
		logfields.Status(res.Status), logfields.Count(len(valid)))
	return res, nil
}
