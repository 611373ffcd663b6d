package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/hazyhaar/crowdwatch/internal/page"
)

// Contains lookups run in page JS so that only elements carrying the
// fragment in one of their own text nodes match, not every ancestor.
const (
	jsFindOne = `(sel, frag) => {
		for (const n of document.querySelectorAll(sel)) {
			for (const c of n.childNodes) {
				if (c.nodeType === Node.TEXT_NODE && c.textContent.includes(frag)) return n;
			}
		}
		return null;
	}`

	jsFindAll = `(sel, frag) => {
		const out = [];
		for (const n of document.querySelectorAll(sel)) {
			for (const c of n.childNodes) {
				if (c.nodeType === Node.TEXT_NODE && c.textContent.includes(frag)) { out.push(n); break; }
			}
		}
		return out;
	}`

	jsChildFindOne = `(sel, frag) => {
		for (const n of this.querySelectorAll(sel)) {
			for (const c of n.childNodes) {
				if (c.nodeType === Node.TEXT_NODE && c.textContent.includes(frag)) return n;
			}
		}
		return null;
	}`
)

// Session is one Chrome page plus the browser and launcher behind it.
type Session struct {
	browser *rod.Browser
	lnch    *launcher.Launcher // nil when connected to a remote Chrome
	page    *rod.Page
	config  Config
	logger  *slog.Logger
}

// Navigate loads the URL and waits for the load event. A load-wait
// timeout is logged but not fatal; slow third-party assets must not
// fail a run whose target element is already present.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.config.NavTimeout)
	defer cancel()

	if err := s.page.Context(navCtx).Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := s.page.Context(navCtx).WaitLoad(); err != nil {
		s.logger.Warn("browser: wait load timeout", "url", url, "error", err)
	}
	return nil
}

// WaitFor retries the lookup until the element appears or the timeout
// elapses.
func (s *Session) WaitFor(ctx context.Context, m page.Matcher, timeout time.Duration) error {
	pg := s.page.Context(ctx).Timeout(timeout)

	var err error
	if m.Contains == "" {
		_, err = pg.Element(selector(m))
	} else {
		_, err = pg.ElementByJS(rod.Eval(jsFindOne, selector(m), m.Contains))
	}
	if err != nil {
		if isNotFound(err) || errors.Is(err, context.DeadlineExceeded) {
			return page.ErrWaitTimeout
		}
		return fmt.Errorf("browser: wait for %q: %w", m.Selector, err)
	}
	return nil
}

// Find returns the first match without waiting.
func (s *Session) Find(ctx context.Context, m page.Matcher) (page.Element, error) {
	pg := s.page.Context(ctx).Sleeper(rod.NotFoundSleeper)

	var (
		el  *rod.Element
		err error
	)
	if m.Contains == "" {
		el, err = pg.Element(selector(m))
	} else {
		el, err = pg.ElementByJS(rod.Eval(jsFindOne, selector(m), m.Contains))
	}
	if err != nil {
		if isNotFound(err) {
			return nil, page.ErrNotFound
		}
		return nil, fmt.Errorf("browser: find %q: %w", m.Selector, err)
	}
	return &element{el: el}, nil
}

// FindAll returns every match without waiting.
func (s *Session) FindAll(ctx context.Context, m page.Matcher) ([]page.Element, error) {
	pg := s.page.Context(ctx).Sleeper(rod.NotFoundSleeper)

	var (
		els rod.Elements
		err error
	)
	if m.Contains == "" {
		els, err = pg.Elements(selector(m))
	} else {
		els, err = pg.ElementsByJS(rod.Eval(jsFindAll, selector(m), m.Contains))
	}
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("browser: find all %q: %w", m.Selector, err)
	}

	out := make([]page.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{el: el})
	}
	return out, nil
}

// Close tears down the page, the browser, and the local launcher.
func (s *Session) Close() error {
	var firstErr error
	if s.page != nil {
		if err := s.page.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.page = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
	if firstErr != nil {
		return fmt.Errorf("browser: close: %w", firstErr)
	}
	return nil
}

// element wraps a live DOM node handle.
type element struct {
	el *rod.Element
}

func (e *element) Text(ctx context.Context) (string, error) {
	text, err := e.el.Context(ctx).Text()
	if err != nil {
		return "", fmt.Errorf("browser: element text: %w", err)
	}
	return text, nil
}

func (e *element) Find(ctx context.Context, m page.Matcher) (page.Element, error) {
	el := e.el.Context(ctx).Sleeper(rod.NotFoundSleeper)

	var (
		child *rod.Element
		err   error
	)
	if m.Contains == "" {
		child, err = el.Element(selector(m))
	} else {
		child, err = el.ElementByJS(rod.Eval(jsChildFindOne, selector(m), m.Contains))
	}
	if err != nil {
		if isNotFound(err) {
			return nil, page.ErrNotFound
		}
		return nil, fmt.Errorf("browser: element find %q: %w", m.Selector, err)
	}
	return &element{el: child}, nil
}

func (e *element) Parent(ctx context.Context) (page.Element, error) {
	parent, err := e.el.Context(ctx).Sleeper(rod.NotFoundSleeper).
		ElementByJS(rod.Eval(`() => this.parentElement`))
	if err != nil {
		if isNotFound(err) {
			return nil, page.ErrNotFound
		}
		return nil, fmt.Errorf("browser: element parent: %w", err)
	}
	return &element{el: parent}, nil
}

func (e *element) Next(ctx context.Context) (page.Element, error) {
	sib, err := e.el.Context(ctx).Sleeper(rod.NotFoundSleeper).
		ElementByJS(rod.Eval(`() => this.nextElementSibling`))
	if err != nil {
		if isNotFound(err) {
			return nil, page.ErrNotFound
		}
		return nil, fmt.Errorf("browser: element next: %w", err)
	}
	return &element{el: sib}, nil
}

// selector normalizes an empty selector to the universal one so a
// Matcher can select by Contains alone.
func selector(m page.Matcher) string {
	if m.Selector == "" {
		return "*"
	}
	return m.Selector
}

func isNotFound(err error) bool {
	var enf *rod.ElementNotFoundError
	return errors.As(err, &enf)
}
