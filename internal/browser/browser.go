// Package browser implements the page contract on a live Chrome,
// driven through Rod. Every session launches (or connects to) its own
// Chrome instance and owns exactly one page; Close tears the whole
// stack down.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/crowdwatch/internal/page"
)

// Config configures Chrome sessions.
type Config struct {
	// Remote is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome per session.
	Remote string

	// Headful disables headless mode.
	Headful bool

	// Sandbox re-enables the Chrome sandbox. Default: disabled, the
	// flag set these portals were recorded against.
	Sandbox bool

	// WindowWidth and WindowHeight fix the window size. Layout-dependent
	// selectors only hold at the recorded size. Default: 1920×1080.
	WindowWidth  int
	WindowHeight int

	// Stealth applies anti-bot-detection page setup.
	Stealth bool

	// NavTimeout bounds Navigate including the load wait. Default: 30s.
	NavTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.WindowWidth <= 0 {
		c.WindowWidth = 1920
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = 1080
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Provider opens Chrome-backed sessions.
type Provider struct {
	cfg Config
}

// NewProvider creates a Chrome session provider.
func NewProvider(cfg Config) *Provider {
	cfg.defaults()
	return &Provider{cfg: cfg}
}

// Open launches Chrome (or connects to a remote instance), creates one
// page, and returns the session wrapping both.
func (p *Provider) Open(_ context.Context) (page.Session, error) {
	log := p.cfg.Logger

	var (
		wsURL string
		lnch  *launcher.Launcher
	)

	if p.cfg.Remote != "" {
		wsURL = p.cfg.Remote
		log.Debug("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().
			Headless(!p.cfg.Headful).
			NoSandbox(!p.cfg.Sandbox).
			Set("disable-dev-shm-usage").
			Set("disable-blink-features", "AutomationControlled").
			Set("window-size", fmt.Sprintf("%d,%d", p.cfg.WindowWidth, p.cfg.WindowHeight))

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		lnch = l
		log.Debug("browser: launched local chrome", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	// Ignore certificate errors for dev/testing.
	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warn("browser: ignore cert errors failed", "error", err)
	}

	var (
		pg  *rod.Page
		err error
	)
	if p.cfg.Stealth {
		pg, err = stealth.Page(b)
	} else {
		pg, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		b.Close()
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	return &Session{
		browser: b,
		lnch:    lnch,
		page:    pg,
		config:  p.cfg,
		logger:  log,
	}, nil
}
