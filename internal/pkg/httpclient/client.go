package httpclient

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps resty for HTTP requests to the mobile-money provider APIs.
type Client struct {
	r *resty.Client
}

// New creates a new HTTP client with sensible defaults. Provider calls are
// never retried here: retrying an initiation could double-charge, and the
// gateway's fallback policy handles transport failures instead.
func New() *Client {
	r := resty.New().
		SetTimeout(30 * time.Second)

	return &Client{r: r}
}

// WithTimeout sets a custom timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.r.SetTimeout(d)
	return c
}

// WithHeader sets a header applied to every request.
func (c *Client) WithHeader(key, value string) *Client {
	c.r.SetHeader(key, value)
	return c
}

// WithBaseURL sets a base URL prepended to request paths.
func (c *Client) WithBaseURL(url string) *Client {
	c.r.SetBaseURL(url)
	return c
}

// Request returns a new resty Request for chaining. Provider clients use
// this directly because they need the HTTP status code, not just the body.
func (c *Client) Request() *resty.Request {
	return c.r.R()
}

// Raw returns the underlying resty client for advanced usage.
func (c *Client) Raw() *resty.Client {
	return c.r
}
