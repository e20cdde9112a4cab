package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/syncmeet/realtime/internal/auth"
)

// Client provides access to the meeting backend REST API.
type Client struct {
	baseURL    string
	session    *auth.Session
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// Defaults used when no option overrides them.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = time.Second
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: &auth.Session{},
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:       slog.Default(),
		maxRetries:   DefaultMaxRetries,
		retryBackoff: DefaultRetryBackoff,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration. The n-th retry waits n*backoff.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSession shares a session with other components, typically the
// connection registry's header source.
func WithSession(s *auth.Session) ClientOption {
	return func(c *Client) {
		if s != nil {
			c.session = s
		}
	}
}

// Session returns the session that authenticates requests.
func (c *Client) Session() *auth.Session {
	return c.session
}

// BaseURL returns the backend address requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}
