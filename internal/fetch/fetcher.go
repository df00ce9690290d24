// Package fetch performs authenticated, range-limited HTTP GETs against
// candidate media URLs, returning the leading bytes of each resource.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/iconidentify/mediasweep/internal/config"
	"github.com/iconidentify/mediasweep/internal/domain"
	"github.com/iconidentify/mediasweep/internal/session"
)

// maxCauseLen bounds how much of an underlying transport error is kept
// for logs and the result store.
const maxCauseLen = 200

// Client fetches bounded byte ranges over an authenticated session.
type Client struct {
	httpClient *http.Client
	session    *session.Session
	cfg        config.FetchConfig
	logger     *slog.Logger
}

// NewClient creates a range-fetch client. Timeouts are applied per
// request, scaled to the requested ceiling, so the underlying client
// carries none of its own.
func NewClient(cfg config.FetchConfig, sess *session.Session, logger *slog.Logger) *Client {
	transport := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		MaxIdleConnsPerHost:   32,
	}

	return &Client{
		httpClient: &http.Client{Transport: transport},
		session:    sess,
		cfg:        cfg,
		logger:     logger,
	}
}

// FetchRange issues a GET for bytes 0..limit of url and returns the
// response body. The request timeout scales with the ceiling: partial
// fetches get the short timeout, anything larger the long one.
//
// Failures are typed: *domain.HTTPError for non-success status,
// connection failure, or timeout; domain.ErrEmptyBody when a success
// status arrives with a zero-length payload.
func (c *Client) FetchRange(ctx context.Context, url string, limit int64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeoutFor(limit))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.HTTPError{Cause: truncate(err.Error(), maxCauseLen)}
	}

	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", limit))
	req.Header.Set("Accept", "*/*")
	c.session.Apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("range fetch failed", "url", url, "error", err)
		return nil, &domain.HTTPError{Cause: truncate(err.Error(), maxCauseLen)}
	}
	defer resp.Body.Close()

	// Redirects are followed by the client, so anything below 400 here
	// is a success carrying a body (200 or 206 depending on whether the
	// host honors Range).
	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &domain.HTTPError{Status: resp.StatusCode}
	}

	// Hosts that ignore Range would otherwise stream the whole file.
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &domain.HTTPError{Cause: truncate(err.Error(), maxCauseLen)}
	}

	if len(body) == 0 {
		return nil, domain.ErrEmptyBody
	}

	return body, nil
}

func (c *Client) timeoutFor(limit int64) time.Duration {
	if limit <= c.cfg.PartialBytes() {
		return c.cfg.PartialTimeout
	}
	return c.cfg.DeepTimeout
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
