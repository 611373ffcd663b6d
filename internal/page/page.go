// Package page defines the session contract extraction strategies run
// against.
//
// A Session is one rendered page, owned by exactly one run. Two
// implementations exist: a live Chrome tab (internal/browser) and a
// statically fetched document (internal/fetcher). Strategies never know
// which one they were handed.
package page

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports that no element matched a lookup. It is the
// expected miss signal: strategies route around it instead of failing.
var ErrNotFound = errors.New("page: element not found")

// ErrWaitTimeout reports that an awaited element never appeared before
// the deadline. Unlike ErrNotFound it is a hard per-source failure.
var ErrWaitTimeout = errors.New("page: wait timed out")

// Matcher selects elements. Selector is a CSS selector. Contains, when
// non-empty, additionally requires the fragment to appear in one of the
// element's own text nodes (not descendant text), pinning the innermost
// element that carries the phrase.
type Matcher struct {
	Selector string
	Contains string
}

// Session is one open page.
type Session interface {
	// Navigate loads the URL and waits for the document to settle.
	Navigate(ctx context.Context, url string) error

	// WaitFor blocks until an element matches m or the timeout elapses.
	// Expiry returns ErrWaitTimeout.
	WaitFor(ctx context.Context, m Matcher, timeout time.Duration) error

	// Find returns the first match without waiting, ErrNotFound when absent.
	Find(ctx context.Context, m Matcher) (Element, error)

	// FindAll returns every match without waiting. No match is an empty
	// slice, not an error.
	FindAll(ctx context.Context, m Matcher) ([]Element, error)

	// Close releases the page and everything behind it. Called exactly
	// once per session, by the run that opened it.
	Close() error
}

// Element is a handle to a single DOM node.
type Element interface {
	// Text returns the element's visible text content.
	Text(ctx context.Context) (string, error)

	// Find returns the first matching descendant, ErrNotFound when absent.
	Find(ctx context.Context, m Matcher) (Element, error)

	// Parent returns the parent element, ErrNotFound at the document root.
	Parent(ctx context.Context) (Element, error)

	// Next returns the next sibling element, ErrNotFound when none exists.
	Next(ctx context.Context) (Element, error)
}

// Provider opens sessions. Every Open returns a fresh session the
// caller owns exclusively.
type Provider interface {
	Open(ctx context.Context) (Session, error)
}
