// Package httpclient wraps http.Client with the guard rails outbound
// calls from the resolve service need: bounded timeouts, a redirect cap,
// and scheme validation.
package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/odyomed/resolve/errors"
)

// Client is an http.Client restricted to http/https with a redirect cap.
type Client struct {
	*http.Client
	allowedSchemes []string
	maxRedirects   int
}

// New creates a Client with the given request timeout.
func New(timeout time.Duration) *Client {
	c := &Client{
		Client: &http.Client{
			Timeout: timeout,
		},
		allowedSchemes: []string{"http", "https"},
		maxRedirects:   10,
	}

	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= c.maxRedirects {
			return errors.Newf("stopped after %d redirects", c.maxRedirects)
		}
		if err := c.validateURL(req.URL); err != nil {
			return errors.Wrap(err, "redirect blocked")
		}
		return nil
	}

	return c
}

// validateURL rejects URLs outside the allowed schemes.
func (c *Client) validateURL(u *url.URL) error {
	scheme := strings.ToLower(u.Scheme)
	for _, allowed := range c.allowedSchemes {
		if scheme == allowed {
			return nil
		}
	}
	return errors.Newf("scheme %q not allowed (allowed: %v)", scheme, c.allowedSchemes)
}

// GetJSON performs a GET request and decodes the JSON response body into
// v. Non-2xx statuses are returned as errors carrying the status code.
func (c *Client) GetJSON(ctx context.Context, urlStr string, v interface{}) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return errors.Wrap(err, "invalid URL")
	}
	if err := c.validateURL(u); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Newf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}
