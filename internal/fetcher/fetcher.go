// Package fetcher implements the page contract over a single HTTP GET.
//
// It serves sources whose occupancy is already present in the
// server-rendered HTML, where launching Chrome would be waste. The
// fetched document is parsed once with x/net/html and traversed in
// memory; waits degrade to an immediate presence check because a static
// document never changes after parse.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hazyhaar/crowdwatch/internal/page"
)

// Config configures the static fetcher.
type Config struct {
	// Timeout is the HTTP timeout. Default: 30s.
	Timeout time.Duration

	// MaxBytes caps the response body size. Default: 10MB.
	MaxBytes int64

	// UserAgent sent with requests.
	UserAgent string
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024 // 10MB
	}
	if c.UserAgent == "" {
		c.UserAgent = "crowdwatch/1.0"
	}
}

// Provider opens static sessions.
type Provider struct {
	client *http.Client
	config Config
}

// New creates a static session provider.
func New(cfg Config) *Provider {
	cfg.defaults()
	return &Provider{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		},
		config: cfg,
	}
}

// Open returns an empty session. The document is loaded by Navigate.
func (p *Provider) Open(_ context.Context) (page.Session, error) {
	return &Session{client: p.client, config: p.config}, nil
}
