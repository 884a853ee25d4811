package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"crowdsale/crypto"
)

const defaultTimeout = 5 * time.Second

// Client is a Certifier that queries a remote verification service at
// GET {base}/v1/certified/{address}.
type Client struct {
	base    string
	timeout time.Duration
	http    *http.Client
}

// NewClient returns a client for the service rooted at baseURL. Requests are
// traced through the otelhttp transport.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		timeout: timeout,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type certifiedResponse struct {
	Certified bool `json:"certified"`
}

// Certified implements Certifier.
func (c *Client) Certified(addr [20]byte) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.CertifiedContext(ctx, addr)
}

// CertifiedContext queries the service for addr using ctx.
func (c *Client) CertifiedContext(ctx context.Context, addr [20]byte) (bool, error) {
	url := fmt.Sprintf("%s/v1/certified/%s", c.base, crypto.FormatAddress(addr))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}
	var body certifiedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		return false, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return body.Certified, nil
}
