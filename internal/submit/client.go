// Package submit pushes sitemap URLs to search engine endpoints (IndexNow
// and Baidu's push API).
package submit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
	"git.home.luguber.info/inful/sitekeeper/internal/metrics"
	"git.home.luguber.info/inful/sitekeeper/internal/retry"
)

const (
	userAgent    = "sitekeeper/1.0"
	maxBodyBytes = 4096
)

// Result describes one submission.
type Result struct {
	Endpoint  string
	Submitted []string
	Status    int
	Body      string
	Attempts  int
	// QuotaExhausted is set when the endpoint reports no remaining daily quota.
	QuotaExhausted bool
}

// Client posts submissions with the configured retry policy.
type Client struct {
	httpClient *http.Client
	policy     retry.Policy
	rec        metrics.Recorder
}

// NewClient builds a client from the submit section.
func NewClient(cfg config.SubmitConfig, rec metrics.Recorder) *Client {
	return newClient(&http.Client{Timeout: cfg.TimeoutDuration()}, retry.FromConfig(cfg.Retry), rec)
}

func newClient(hc *http.Client, policy retry.Policy, rec metrics.Recorder) *Client {
	return &Client{httpClient: hc, policy: policy, rec: metrics.OrNoop(rec)}
}

// post sends body to endpoint until it succeeds or the policy gives up.
// accept decides which status codes count as success. name labels metrics.
func (c *Client) post(ctx context.Context, name, endpoint, contentType string, body []byte, accept func(int) bool) (*Result, error) {
	res := &Result{Endpoint: redact(endpoint)}
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		res.Attempts++
		status, respBody, err := c.do(ctx, endpoint, contentType, body)
		res.Status, res.Body = status, respBody
		if err != nil {
			return err
		}
		if !accept(status) {
			return statusError(res.Endpoint, status, respBody)
		}
		return nil
	}, func(attempt int, err error) {
		slog.Warn("Submission failed, retrying", logfields.Endpoint(res.Endpoint),
			slog.Int("attempt", attempt), logfields.Error(err))
	})
	c.rec.IncSubmission(name, err == nil)
	if err != nil {
		return res, err
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, endpoint, contentType string, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, "", foundationerrors.WrapError(err, foundationerrors.CategorySubmit, "failed to create request").
			WithContext("endpoint", redact(endpoint)).Build()
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", foundationerrors.WrapError(err, foundationerrors.CategoryNetwork, "failed to execute submission").
			Retryable().
			WithContext("endpoint", redact(endpoint)).Build()
	}
	defer func() { _ = resp.Body.Close() }()

	limited, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	return resp.StatusCode, strings.TrimSpace(string(limited)), nil
}

// statusError classifies a rejected response: 429 is rate limited, 5xx
// retryable, anything else final.
func statusError(endpoint string, status int, body string) error {
	b := foundationerrors.NewError(foundationerrors.CategorySubmit, fmt.Sprintf("submission rejected: HTTP %d", status))
	switch {
	case status == http.StatusTooManyRequests:
		b = b.RateLimit()
	case status >= 500:
		b = b.Retryable()
	}
	return b.WithContext("endpoint", endpoint).
		WithContext("code", status).
		WithContext("response", strings.ReplaceAll(body, "\n", " ")).
		Build()
}

// redact hides the token query parameter of an endpoint for logs.
func redact(endpoint string) string {
	i := strings.Index(endpoint, "token=")
	if i < 0 {
		return endpoint
	}
	end := strings.IndexByte(endpoint[i:], '&')
	if end < 0 {
		return endpoint[:i] + "token=REDACTED"
	}
	return endpoint[:i] + "token=REDACTED" + endpoint[i+end:]
}
