package transport

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	// FunctionsPath is the URL prefix under which edge functions are served
	FunctionsPath = "/functions/v1/"

	// RequestIDHeader carries a unique id for each outgoing call
	RequestIDHeader = "x-request-id"

	// APIKeyHeader carries the project's anonymous key
	APIKeyHeader = "apikey"

	defaultTimeout         = 30 * time.Second
	defaultUserAgent       = "edge-function-kit/1.0"
	defaultMaxResponseSize = 10 << 20
)

// Config configures an HTTPCaller
type Config struct {
	BaseURL   string            `json:"base_url" yaml:"base_url"`
	APIKey    string            `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Timeout   time.Duration     `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	UserAgent string            `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Client-side rate limiting; disabled when RequestsPerMinute is 0
	RequestsPerMinute int `json:"requests_per_minute,omitempty" yaml:"requests_per_minute,omitempty"`
	Burst             int `json:"burst,omitempty" yaml:"burst,omitempty"`

	// MaxResponseSize bounds how much of a response body is read
	MaxResponseSize int64 `json:"max_response_size,omitempty" yaml:"max_response_size,omitempty"`

	// Transport configuration
	MaxIdleConns        int           `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty"`
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host,omitempty" yaml:"max_idle_conns_per_host,omitempty"`
	IdleConnTimeout     time.Duration `json:"idle_conn_timeout,omitempty" yaml:"idle_conn_timeout,omitempty"`
	TLSHandshakeTimeout time.Duration `json:"tls_handshake_timeout,omitempty" yaml:"tls_handshake_timeout,omitempty"`

	// TokenSource supplies the bearer token. When nil and APIKey is set the
	// key doubles as a static bearer token.
	TokenSource oauth2.TokenSource `json:"-" yaml:"-"`

	// HTTPClient overrides the client built from the transport settings
	HTTPClient *http.Client `json:"-" yaml:"-"`
}

func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.MaxResponseSize <= 0 {
		c.MaxResponseSize = defaultMaxResponseSize
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 100
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = 10
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = 90 * time.Second
	}
	if c.TLSHandshakeTimeout == 0 {
		c.TLSHandshakeTimeout = 10 * time.Second
	}
	if c.RequestsPerMinute > 0 && c.Burst <= 0 {
		c.Burst = c.RequestsPerMinute
	}
	if c.TokenSource == nil && c.APIKey != "" {
		c.TokenSource = oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: c.APIKey,
			TokenType:   "Bearer",
		})
	}
	return c
}

// createTransport creates an http.Transport with the specified configuration
func createTransport(c Config) *http.Transport {
	return &http.Transport{
		MaxIdleConns:        c.MaxIdleConns,
		MaxIdleConnsPerHost: c.MaxIdleConnsPerHost,
		IdleConnTimeout:     c.IdleConnTimeout,
		TLSHandshakeTimeout: c.TLSHandshakeTimeout,
		ForceAttemptHTTP2:   true,
		Proxy:               http.ProxyFromEnvironment,
	}
}
