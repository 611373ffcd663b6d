package fetcher

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/crowdwatch/internal/page"
)

// match returns the nodes under root matching m, in document order.
// root itself is never a candidate. An empty selector matches every
// element, which lets a Matcher select by Contains alone.
//
// The selector subset:
//   - tag: "span", "div"
//   - .class, stacked: ".col.area.person"
//   - #id: "#main"
//   - [attr], [attr=val]
//   - any combination of the above on one part: "div#main.wide[role=main]"
//   - parts separated by spaces (descendant combinator)
func match(root *html.Node, m page.Matcher) []*html.Node {
	nodes := querySelectorAll(root, m.Selector)
	if m.Contains == "" {
		return nodes
	}
	var out []*html.Node
	for _, n := range nodes {
		if hasDirectText(n, m.Contains) {
			out = append(out, n)
		}
	}
	return out
}

func querySelectorAll(root *html.Node, selector string) []*html.Node {
	parts := strings.Fields(selector)
	if len(parts) == 0 {
		parts = []string{"*"}
	}

	scopes := []*html.Node{root}
	for _, part := range parts {
		sel := parseSimple(part)
		var next []*html.Node
		seen := make(map[*html.Node]bool)
		for _, scope := range scopes {
			for _, n := range descendantMatches(scope, sel) {
				if !seen[n] {
					seen[n] = true
					next = append(next, n)
				}
			}
		}
		scopes = next
	}
	return scopes
}

// descendantMatches walks the descendants of scope, excluding scope.
func descendantMatches(scope *html.Node, sel simpleSelector) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if sel.matches(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := scope.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

type simpleSelector struct {
	tag     string
	id      string
	classes []string
	attrKey string
	attrVal string
}

// parseSimple parses one selector part: "tag#id.class1.class2[attr=val]".
func parseSimple(sel string) simpleSelector {
	var s simpleSelector

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		attr := strings.TrimRight(sel[idx+1:], "]")
		sel = sel[:idx]
		if eq := strings.IndexByte(attr, '='); eq >= 0 {
			s.attrKey = attr[:eq]
			s.attrVal = strings.Trim(attr[eq+1:], `"'`)
		} else {
			s.attrKey = attr
		}
	}

	for sel != "" {
		n := 1 + strings.IndexAny(sel[1:], "#.")
		if n == 0 {
			n = len(sel)
		}
		seg := sel[:n]
		sel = sel[n:]
		switch seg[0] {
		case '#':
			s.id = seg[1:]
		case '.':
			s.classes = append(s.classes, seg[1:])
		default:
			if seg != "*" {
				s.tag = seg
			}
		}
	}
	return s
}

func (s simpleSelector) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && n.Data != s.tag {
		return false
	}
	if s.id != "" && getAttr(n, "id") != s.id {
		return false
	}
	if len(s.classes) > 0 {
		have := strings.Fields(getAttr(n, "class"))
		for _, want := range s.classes {
			found := false
			for _, c := range have {
				if c == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	if s.attrKey != "" {
		if s.attrVal != "" {
			if getAttr(n, s.attrKey) != s.attrVal {
				return false
			}
		} else if !hasAttr(n, s.attrKey) {
			return false
		}
	}
	return true
}

// hasDirectText reports whether one of n's own text nodes contains the
// fragment. Descendant text does not count, so the innermost carrier of
// a phrase is the one that matches.
func hasDirectText(n *html.Node, fragment string) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.Contains(c.Data, fragment) {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}
