package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultProductionBaseURL = "https://gateway.vkyc.example.com"
	DefaultUATBaseURL        = "https://uat-gateway.vkyc.example.com"
	DefaultTimeout           = 30 * time.Second

	EnvProduction = "production"
	EnvUAT        = "uat"

	RequestIDHeader = "X-Request-ID"
)

// DefaultHeaders returns the headers sent when Options.Headers is empty.
func DefaultHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	return h
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	Environment string        // "production" or "uat"; picks the default BaseURL
	BaseURL     string        // Overrides the environment default
	Timeout     time.Duration // Defaults to 30s
	Headers     http.Header   // Replaces DefaultHeaders entirely when non-empty
	Credential  string        // Static bearer token, captured at construction
	TokenSource TokenSource   // Per-request credential provider; takes precedence over Credential
	HTTPClient  *http.Client  // Base client whose Transport is reused; mainly for tests
	Logger      *slog.Logger
}

// Client is an HTTP client bound to one gateway. Its configuration is fixed
// at construction; rotating a static credential means building a new Client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	logger     *slog.Logger
}

// New builds a Client. It does not fail: an unusable BaseURL is logged and
// replaced with the environment default.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "gateway_transport")

	base := resolveBaseURL(opts, logger)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	headers := DefaultHeaders()
	if len(opts.Headers) > 0 {
		headers = opts.Headers.Clone()
	}

	tokens := opts.TokenSource
	if tokens == nil && opts.Credential != "" {
		tokens = StaticToken(opts.Credential)
	}

	var next http.RoundTripper = http.DefaultTransport
	if opts.HTTPClient != nil && opts.HTTPClient.Transport != nil {
		next = opts.HTTPClient.Transport
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &decoratingRoundTripper{
				next:    next,
				headers: headers,
				tokens:  tokens,
				logger:  logger,
			},
		},
		baseURL: base,
		logger:  logger,
	}
}

func resolveBaseURL(opts Options, logger *slog.Logger) *url.URL {
	fallback := DefaultUATBaseURL
	if strings.EqualFold(strings.TrimSpace(opts.Environment), EnvProduction) {
		fallback = DefaultProductionBaseURL
	}
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		raw = fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		logger.Warn("Invalid gateway base URL, using environment default", "base_url", raw, "fallback", fallback, "error", err)
		u, _ = url.Parse(fallback)
	}
	return u
}

// BaseURL returns a copy of the gateway base address.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Timeout reports the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// NewRequest builds a request for path (already templated) relative to the
// base address. query is encoded into the URL; path substitution never
// touches it.
func (c *Client) NewRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.BaseURL()
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	} else {
		u.RawQuery = ""
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	return req, nil
}

// Do sends req through the configured transport.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// decoratingRoundTripper stamps default headers, the correlation id and the
// bearer credential onto every outgoing request.
type decoratingRoundTripper struct {
	next    http.RoundTripper
	headers http.Header
	tokens  TokenSource
	logger  *slog.Logger
}

func (rt *decoratingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	for k, vs := range rt.headers {
		if out.Header.Get(k) != "" {
			continue
		}
		for _, v := range vs {
			out.Header.Add(k, v)
		}
	}
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if rt.tokens != nil {
		token, err := rt.tokens.Token(req.Context())
		if err != nil {
			rt.logger.WarnContext(req.Context(), "Credential source failed", "error", err)
			if req.Body != nil {
				req.Body.Close()
			}
			return nil, fmt.Errorf("failed to obtain gateway credential: %w", err)
		}
		if token != "" {
			out.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return rt.next.RoundTrip(out)
}
