package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/crowdwatch/internal/page"
)

// Session is a statically fetched document implementing page.Session.
type Session struct {
	client *http.Client
	config Config
	doc    *html.Node
}

// NewSessionFromHTML builds a session directly from raw HTML, bypassing
// HTTP. Strategy tests run against fixture documents this way.
func NewSessionFromHTML(data []byte) (*Session, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("fetcher: parse html: %w", err)
	}
	return &Session{doc: doc}, nil
}

// Navigate fetches the URL and parses the response body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if s.client == nil {
		return fmt.Errorf("fetcher: session has no HTTP client")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("fetcher: new request: %w", err)
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetcher: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return fmt.Errorf("fetcher: get %s: http %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.config.MaxBytes))
	if err != nil {
		return fmt.Errorf("fetcher: read body: %w", err)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("fetcher: parse html: %w", err)
	}
	s.doc = doc
	return nil
}

// WaitFor checks for the element once. Static content cannot appear
// later, so an absent match reports ErrWaitTimeout without sleeping
// through the deadline.
func (s *Session) WaitFor(ctx context.Context, m page.Matcher, _ time.Duration) error {
	_, err := s.Find(ctx, m)
	if errors.Is(err, page.ErrNotFound) {
		return page.ErrWaitTimeout
	}
	return err
}

// Find returns the first match in document order.
func (s *Session) Find(_ context.Context, m page.Matcher) (page.Element, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("fetcher: no document loaded")
	}
	nodes := match(s.doc, m)
	if len(nodes) == 0 {
		return nil, page.ErrNotFound
	}
	return &element{n: nodes[0]}, nil
}

// FindAll returns every match in document order.
func (s *Session) FindAll(_ context.Context, m page.Matcher) ([]page.Element, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("fetcher: no document loaded")
	}
	nodes := match(s.doc, m)
	els := make([]page.Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &element{n: n})
	}
	return els, nil
}

// Close releases nothing; the document is plain memory.
func (s *Session) Close() error { return nil }

// element wraps one parsed node.
type element struct {
	n *html.Node
}

func (e *element) Text(_ context.Context) (string, error) {
	return collectText(e.n), nil
}

func (e *element) Find(_ context.Context, m page.Matcher) (page.Element, error) {
	nodes := match(e.n, m)
	if len(nodes) == 0 {
		return nil, page.ErrNotFound
	}
	return &element{n: nodes[0]}, nil
}

func (e *element) Parent(_ context.Context) (page.Element, error) {
	p := e.n.Parent
	for p != nil && p.Type != html.ElementNode {
		p = p.Parent
	}
	if p == nil {
		return nil, page.ErrNotFound
	}
	return &element{n: p}, nil
}

func (e *element) Next(_ context.Context) (page.Element, error) {
	for sib := e.n.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.ElementNode {
			return &element{n: sib}, nil
		}
	}
	return nil, page.ErrNotFound
}

// collectText returns the node's visible text: every text node trimmed
// and joined with single spaces, script/style subtrees skipped.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return sb.String()
}
