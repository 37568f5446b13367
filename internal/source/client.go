package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"statusboard/internal/domain"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const (
	// CacheBustParam carries the request time in epoch milliseconds.
	CacheBustParam = "_"
	userAgent      = "statusboard/1.0"
	maxBodyBytes   = 10 << 20
)

// Client fetches status records from the spreadsheet web app.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the proxy-aware default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(rawURL string, proxies *ProxyRotator, logger *zap.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("source url must be an absolute http(s) url, got %q", rawURL)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxies != nil {
		transport.Proxy = proxies.Proxy
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Transport: transport},
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RequestURL returns the base url with a fresh cache-busting parameter.
// Existing query parameters are kept.
func (c *Client) RequestURL() string {
	u := *c.baseURL
	q := u.Query()
	q.Set(CacheBustParam, strconv.FormatInt(c.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String()
}

// Fetch performs one GET and decodes the records it returns.
func (c *Client) Fetch(ctx context.Context) ([]domain.StatusRecord, error) {
	target := c.RequestURL()
	c.logger.Debug("fetching status records", zap.String("url", target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("read body: %w", err)}
	}
	return Decode(body)
}

// Decode turns a web app response body into records.
func Decode(body []byte) ([]domain.StatusRecord, error) {
	var p domain.Payload
	if err := sonic.ConfigStd.Unmarshal(body, &p); err != nil {
		return nil, &FormatError{Reason: "undecodable response", Err: err}
	}

	if p.Error.Set {
		msg := "web app error: " + p.Error.Message
		if p.Details != "" {
			msg += " - " + string(p.Details)
		}
		return nil, &FetchError{Message: msg}
	}

	data := bytes.TrimSpace(p.Data)
	if len(data) == 0 || data[0] != '[' {
		return nil, &FormatError{Reason: "expected an array in 'data' property"}
	}

	var records []domain.StatusRecord
	if err := sonic.ConfigStd.Unmarshal(data, &records); err != nil {
		return nil, &FormatError{Reason: "undecodable records", Err: err}
	}
	return records, nil
}
