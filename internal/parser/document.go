package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed HTML page.
type Document struct {
	Node
}

// Node is a read-only view over a set of matched elements.
type Node struct {
	sel *goquery.Selection
}

// Load parses raw HTML. Malformed or empty markup never fails: the result is a
// document on which every selector simply matches nothing.
func Load(html string) *Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}
	return &Document{Node{sel: doc.Selection}}
}

func (n Node) Find(selector string) Node {
	return Node{sel: n.sel.Find(selector)}
}

func (n Node) Len() int {
	return n.sel.Length()
}

// Text returns the trimmed text of all elements matched by the first selector
// in the chain that yields non-empty text.
func (n Node) Text(selectors ...string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(n.sel.Find(selector).Text()); text != "" {
			return text
		}
	}
	return ""
}

// FirstText is like Text but only reads the first match of each selector.
func (n Node) FirstText(selectors ...string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(n.sel.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// Attr returns the first non-empty value of attribute name found along the
// selector chain.
func (n Node) Attr(name string, selectors ...string) string {
	for _, selector := range selectors {
		if value, ok := n.sel.Find(selector).First().Attr(name); ok {
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		}
	}
	return ""
}

// OwnText returns the trimmed text of the node itself.
func (n Node) OwnText() string {
	return strings.TrimSpace(n.sel.Text())
}

// OwnAttr returns an attribute of the node itself.
func (n Node) OwnAttr(name string) string {
	value, _ := n.sel.Attr(name)
	return strings.TrimSpace(value)
}

func (n Node) HasClass(class string) bool {
	return n.sel.HasClass(class)
}

// Each calls fn for every element matching selector, in document order.
func (n Node) Each(selector string, fn func(Node)) {
	n.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		fn(Node{sel: s})
	})
}

// EachFirst iterates the matches of the first selector in the chain that
// matches anything.
func (n Node) EachFirst(selectors []string, fn func(Node)) {
	for _, selector := range selectors {
		if matches := n.sel.Find(selector); matches.Length() > 0 {
			matches.Each(func(_ int, s *goquery.Selection) {
				fn(Node{sel: s})
			})
			return
		}
	}
}

// LastText returns the trimmed text of the last element matched by selector.
func (n Node) LastText(selector string) string {
	return strings.TrimSpace(n.sel.Find(selector).Last().Text())
}
