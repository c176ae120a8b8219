// Package httpclient wraps net/http with redirect limits, optional cookie
// persistence and default request headers.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Config defines the setup for the HTTP Client.
type Config struct {
	Timeout time.Duration
	// MaxRedirects limits followed redirects. Zero means the net/http
	// default of 10; a negative value disables following.
	MaxRedirects int
	UseCookieJar bool
	// Transport overrides the round tripper, e.g. for proxies or uTLS.
	Transport http.RoundTripper
	// Header values are added to every request that does not set them.
	Header http.Header
}

// Client is an http.Client with request defaults.
type Client struct {
	*http.Client
	header http.Header
}

// New creates a client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &http.Client{Timeout: cfg.Timeout}

	switch {
	case cfg.MaxRedirects < 0:
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	case cfg.MaxRedirects > 0:
		limit := cfg.MaxRedirects
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= limit {
				return fmt.Errorf("stopped after %d redirects", limit)
			}
			return nil
		}
	}

	if cfg.UseCookieJar {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.Jar = jar
	}

	if cfg.Transport != nil {
		c.Transport = cfg.Transport
	}

	return &Client{Client: c, header: cfg.Header.Clone()}, nil
}

// Do sends req bound to ctx, filling in default headers the request lacks.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if ctx == nil {
		return nil, errors.New("nil context")
	}

	r := req.Clone(ctx)
	for k, vals := range c.header {
		if r.Header.Get(k) == "" {
			for _, v := range vals {
				r.Header.Add(k, v)
			}
		}
	}

	resp, err := c.Client.Do(r)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}
