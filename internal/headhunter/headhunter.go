package headhunter

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAPIURL    = "https://api.hh.ru"
	defaultUserAgent = "JobPilot/1.0 (educational project)"
	defaultTimeout   = 10 * time.Second
	// Max value for search per page.
	perPage = "100"
)

// Client talks to the public hh.ru API. The token is optional: vacancy search
// and details are available anonymously.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// Option customizes a Client.
type Option func(*Client)

// WithUserAgent replaces the default agent string. Blank values are ignored.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent = strings.TrimSpace(agent); agent != "" {
			c.UserAgent = agent
		}
	}
}

// WithAPIURL points the client at another API host.
func WithAPIURL(u string) Option {
	return func(c *Client) {
		c.APIURL = strings.TrimRight(u, "/")
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

func New(logger *zap.Logger, token string, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		token:      strings.TrimSpace(token),
		logger:     logger,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		UserAgent:  defaultUserAgent,
		APIURL:     defaultAPIURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
