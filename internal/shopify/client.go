// Package shopify is the Admin API client and the Shopify-side auth primitives
// (OAuth, session tokens, webhook signatures).
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const maxBody = 1 << 20

// Client calls the Admin API of one shop with that shop's offline access token.
type Client struct {
	shop        string
	apiVersion  string
	accessToken string
	baseURL     string
	http        *http.Client
	limiter     *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithBaseURL replaces https://<shop>; used against test servers.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }

func WithLimiter(l *rate.Limiter) Option { return func(c *Client) { c.limiter = l } }

// DefaultTimeout bounds a single Admin API call.
const DefaultTimeout = 15 * time.Second

func NewClient(shop, apiVersion, accessToken string, opts ...Option) *Client {
	c := &Client{
		shop:        shop,
		apiVersion:  apiVersion,
		accessToken: accessToken,
		baseURL:     "https://" + shop,
		http:        &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Shop() string { return c.shop }

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/admin/api/%s/%s", c.baseURL, c.apiVersion, path)
}

func (c *Client) wait(ctx context.Context, op string) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return &RemoteServiceError{Op: op, Message: "request cancelled", Err: err}
	}
	return nil
}

// do performs one REST call. in and out may be nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	if err := c.wait(ctx, op); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return &RemoteServiceError{Op: op, Message: "invalid request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return &RemoteServiceError{Op: op, Message: "shopify request failed", Err: err}
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &RemoteServiceError{Op: op, Status: res.StatusCode, Message: upstreamMessage(raw, res.StatusCode)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &RemoteServiceError{Op: op, Status: res.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}

// LimiterPool hands out one token bucket per shop, mirroring Shopify's per-app,
// per-store call limit. Safe for concurrent use; lives for the whole container.
type LimiterPool struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	m     map[string]*rate.Limiter
}

func NewLimiterPool(rps float64, burst int) *LimiterPool {
	return &LimiterPool{rps: rate.Limit(rps), burst: burst, m: map[string]*rate.Limiter{}}
}

func (p *LimiterPool) For(shop string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.m[shop]
	if !ok {
		l = rate.NewLimiter(p.rps, p.burst)
		p.m[shop] = l
	}
	return l
}
