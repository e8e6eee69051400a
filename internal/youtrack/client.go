package youtrack

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ytissues/internal/debug"
	appErrors "ytissues/internal/errors"

	"github.com/goccy/go-json"
)

// DefaultTimeout bounds a single request when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

// FallbackErrorMessage is shown when a failure carries no backend detail.
const FallbackErrorMessage = "Selected YouTrack service is not available"

// Request describes one JSON call relative to a service home URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Transport executes requests against one service and decodes the JSON
// response into out (which may be nil).
type Transport interface {
	Fetch(ctx context.Context, req Request, out any) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request, out any) error

// Fetch implements Transport.
func (f TransportFunc) Fetch(ctx context.Context, req Request, out any) error {
	return f(ctx, req, out)
}

// HTTPError is a non-2xx response from the service.
type HTTPError struct {
	Method      string `json:"-"`
	Path        string `json:"-"`
	Status      int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
	if e.Description != "" {
		return msg + ": " + e.Description
	}
	if e.Code != "" {
		return msg + ": " + e.Code
	}
	return msg
}

// ErrorMessage derives a user-facing message from a request failure.
func ErrorMessage(err error, fallback string) string {
	if fallback == "" {
		fallback = FallbackErrorMessage
	}
	var httpErr *HTTPError
	if stderrors.As(err, &httpErr) {
		if httpErr.Description != "" {
			return httpErr.Description
		}
		if httpErr.Code != "" {
			return httpErr.Code
		}
	}
	return fallback
}

// Client is an HTTP Transport bound to one service home URL.
type Client struct {
	homeURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client. Any auth transport already
// installed by WithToken is lost, so apply WithToken afterwards.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithToken authenticates every request with a bearer token.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		token = strings.TrimSpace(token)
		if token == "" {
			return
		}
		clone := *c.httpClient
		clone.Transport = &authTransport{Token: "Bearer " + token, Base: c.httpClient.Transport}
		c.httpClient = &clone
	}
}

// NewClient creates a client for the service at homeURL.
func NewClient(homeURL string, opts ...ClientOption) *Client {
	c := &Client{
		homeURL:    strings.TrimRight(homeURL, "/") + "/",
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HomeURL returns the service base URL with a trailing slash.
func (c *Client) HomeURL() string {
	return c.homeURL
}

// Fetch implements Transport.
func (c *Client) Fetch(ctx context.Context, r Request, out any) error {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.homeURL + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", r.Path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	debug.Logf("youtrack: %s %s", method, r.Path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		debug.Logf("youtrack: %s %s failed: %v", method, r.Path, err)
		return appErrors.New(appErrors.CodeTransport, fmt.Sprintf("%s %s failed", method, r.Path), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := &HTTPError{Method: method, Path: r.Path, Status: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(httpErr)
		debug.Logf("youtrack: %v", httpErr)
		return appErrors.New(appErrors.CodeTransport, httpErr.Error(), httpErr)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		return appErrors.New(appErrors.CodeDecodeFailed, fmt.Sprintf("decode %s response", r.Path), err)
	}
	return nil
}

// authTransport adds the Authorization header to requests.
type authTransport struct {
	Token string
	Base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", t.Token)
	if t.Base == nil {
		return http.DefaultTransport.RoundTrip(clone)
	}
	return t.Base.RoundTrip(clone)
}
