package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is the per-call ceiling applied when neither the client nor
// the call overrides it.
const DefaultTimeout = 30 * time.Second

// HeaderRequestID is attached to every outgoing request.
const HeaderRequestID = "X-Request-ID"

const maxBodyBytes = 4 << 20

var (
	// ErrInvalidBaseURL is returned by [NewClient] when the base URL cannot be used.
	ErrInvalidBaseURL = errors.New("invalid api base url")
)

// Config configures a [Client].
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger

	// Observe, when set, receives the latency and outcome of every call.
	Observe func(endpoint string, d time.Duration, ok bool)
}

// Client issues JSON requests against a fixed base URL.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
	observe func(string, time.Duration, bool)
}

// Options are the per-call knobs accepted by [Call].
type Options struct {
	Method  string
	Params  map[string]string
	Body    any
	Headers map[string]string
	Timeout time.Duration
}

// Response is the uniform result shape of every call.
type Response[T any] struct {
	Data       T
	Success    bool
	Error      string
	StatusCode int
}

// NewClient validates cfg and returns a ready [Client].
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidBaseURL)
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidBaseURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL: base,
		timeout: timeout,
		http:    hc,
		logger:  logger,
		observe: cfg.Observe,
	}, nil
}

// BaseURL returns the normalized base URL (no trailing slash).
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL
}

// Timeout returns the default per-call timeout.
func (c *Client) Timeout() time.Duration {
	if c == nil {
		return DefaultTimeout
	}
	return c.timeout
}

// Call performs one request and decodes a JSON body into T.
func Call[T any](ctx context.Context, c *Client, endpoint string, opts Options) Response[T] {
	if c == nil {
		return Response[T]{Error: "api client not initialized"}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = http.MethodGet
	}

	start := time.Now()
	out, requestID := c.do(ctx, method, endpoint, opts)
	var res Response[T]
	res.StatusCode = out.status
	if out.err == "" {
		if len(bytes.TrimSpace(out.body)) > 0 {
			if err := json.Unmarshal(out.body, &res.Data); err != nil {
				out.err = "decode response: " + err.Error()
			}
		}
	}
	if out.err == "" {
		res.Success = true
	} else {
		res.Error = out.err
		c.logger.Warn("api call failed",
			"method", method,
			"endpoint", endpoint,
			"status", out.status,
			"request_id", requestID,
			"error", out.err,
		)
	}

	if c.observe != nil {
		c.observe(endpoint, time.Since(start), res.Success)
	}
	return res
}

// buildURL merges params into any query already present on raw. Params win
// over existing keys of the same name.
func buildURL(raw string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type rawResult struct {
	status int
	body   []byte
	err    string
}

func (c *Client) do(ctx context.Context, method, endpoint string, opts Options) (rawResult, string) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target, err := buildURL(c.baseURL+endpoint, opts.Params)
	if err != nil {
		return rawResult{err: "build request: " + err.Error()}, ""
	}

	var body io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return rawResult{err: "encode request: " + err.Error()}, ""
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return rawResult{err: "build request: " + err.Error()}, ""
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	requestID := req.Header.Get(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
		req.Header.Set(HeaderRequestID, requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return rawResult{err: fmt.Sprintf("[%s] %s: request timed out after %s", method, endpoint, timeout)}, requestID
		}
		return rawResult{err: fmt.Sprintf("[%s] %s: %s", method, endpoint, transportMessage(err))}, requestID
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return rawResult{status: resp.StatusCode, err: fmt.Sprintf("[%s] %s: read response: %v", method, endpoint, err)}, requestID
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return rawResult{
			status: resp.StatusCode,
			body:   data,
			err:    fmt.Sprintf("[%s] %s: %d %s", method, endpoint, resp.StatusCode, statusMessage(resp.StatusCode, data)),
		}, requestID
	}

	return rawResult{status: resp.StatusCode, body: data}, requestID
}

// transportMessage drops the request URL that *url.Error prepends.
func transportMessage(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err.Error()
	}
	return err.Error()
}

// statusMessage prefers FastAPI's {"detail": ...} payload over the bare status text.
func statusMessage(status int, body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil && s != "" {
			return s
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, payload.Detail); err == nil {
			return compact.String()
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "unexpected status"
}

// Get issues a GET with query params.
func Get[T any](ctx context.Context, c *Client, endpoint string, params map[string]string) Response[T] {
	return Call[T](ctx, c, endpoint, Options{Method: http.MethodGet, Params: params})
}

// Post issues a POST with a JSON body and optional extra headers.
func Post[T any](ctx context.Context, c *Client, endpoint string, body any, headers map[string]string) Response[T] {
	return Call[T](ctx, c, endpoint, Options{Method: http.MethodPost, Body: body, Headers: headers})
}

// Put issues a PUT with a JSON body.
func Put[T any](ctx context.Context, c *Client, endpoint string, body any) Response[T] {
	return Call[T](ctx, c, endpoint, Options{Method: http.MethodPut, Body: body})
}

// Delete issues a DELETE.
func Delete[T any](ctx context.Context, c *Client, endpoint string) Response[T] {
	return Call[T](ctx, c, endpoint, Options{Method: http.MethodDelete})
}
