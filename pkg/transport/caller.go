package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

// ErrInvalidBaseURL is returned when the configured base URL cannot be used
var ErrInvalidBaseURL = errors.New("invalid base URL")

// Stats tracks HTTP caller activity
type Stats struct {
	Requests     int64 `json:"requests"`
	Failures     int64 `json:"failures"`
	HTTPErrors   int64 `json:"http_errors"`
	TotalLatency int64 `json:"total_latency_ns"`
}

// HTTPCaller calls edge functions over HTTP. It implements types.Caller and
// is safe for concurrent use.
type HTTPCaller struct {
	client  *http.Client
	config  Config
	baseURL string
	limiter *rate.Limiter

	requests     atomic.Int64
	failures     atomic.Int64
	httpErrors   atomic.Int64
	totalLatency atomic.Int64
}

var _ types.Caller = (*HTTPCaller)(nil)

// NewHTTPCaller creates a caller for the functions served under cfg.BaseURL
func NewHTTPCaller(cfg Config) (*HTTPCaller, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	cfg = cfg.withDefaults()
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: createTransport(cfg),
		}
	}

	c := &HTTPCaller{
		client:  client,
		config:  cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.Burst)
	}
	return c, nil
}

// URL returns the address of an endpoint
func (c *HTTPCaller) URL(endpoint string) string {
	return c.baseURL + FunctionsPath + url.PathEscape(endpoint)
}

// Call implements types.Caller
func (c *HTTPCaller) Call(ctx context.Context, endpoint string, req types.Envelope) (*types.Response, error) {
	start := time.Now()
	c.requests.Add(1)
	defer func() {
		c.totalLatency.Add(int64(time.Since(start)))
	}()

	resp, err := c.do(ctx, endpoint, req)
	if err != nil {
		c.failures.Add(1)
		return nil, err
	}
	if resp.Error != nil {
		c.httpErrors.Add(1)
	}
	return resp, nil
}

func (c *HTTPCaller) do(ctx context.Context, endpoint string, env types.Envelope) (*types.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait for %s: %w", endpoint, err)
		}
	}

	httpReq, err := c.newRequest(ctx, endpoint, env)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", endpoint, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.config.MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return &types.Response{Error: &types.ResponseError{
			Code:    fmt.Sprintf("http_%d", httpResp.StatusCode),
			Message: errorMessage(httpResp.StatusCode, body),
		}}, nil
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return &types.Response{}, nil
	}
	var data any
	if err := sonic.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return &types.Response{Data: data}, nil
}

func (c *HTTPCaller) newRequest(ctx context.Context, endpoint string, env types.Envelope) (*http.Request, error) {
	method := strings.ToUpper(env.Method)
	if method == "" {
		method = http.MethodPost
	}

	var bodyReader io.Reader
	if env.Body != nil && method != http.MethodGet && method != http.MethodHead {
		payload, err := sonic.Marshal(env.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(endpoint), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if c.config.APIKey != "" {
		req.Header.Set(APIKeyHeader, c.config.APIKey)
	}
	if c.config.TokenSource != nil {
		token, err := c.config.TokenSource.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to get token: %w", err)
		}
		token.SetAuthHeader(req)
	}

	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}
	for key, value := range env.Headers {
		req.Header.Set(key, value)
	}
	return req, nil
}

// Stats returns a snapshot of caller activity
func (c *HTTPCaller) Stats() Stats {
	return Stats{
		Requests:     c.requests.Load(),
		Failures:     c.failures.Load(),
		HTTPErrors:   c.httpErrors.Load(),
		TotalLatency: c.totalLatency.Load(),
	}
}

type errorBody struct {
	Error   any    `json:"error"`
	Message string `json:"message"`
}

// errorMessage extracts a readable message from an error response body
func errorMessage(status int, body []byte) string {
	var parsed errorBody
	if err := sonic.Unmarshal(body, &parsed); err == nil {
		switch e := parsed.Error.(type) {
		case string:
			if e != "" {
				return e
			}
		case map[string]any:
			if msg, ok := e["message"].(string); ok && msg != "" {
				return msg
			}
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(status)
	}
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
