// Package markdown converts document bodies to HTML.
package markdown

import (
	"bytes"
	"html"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultCacheSize bounds the number of converted bodies kept in memory.
const DefaultCacheSize = 1024

// Converter renders CommonMark to HTML and remembers recent results by key.
type Converter struct {
	md    goldmark.Markdown
	cache *lru.Cache[string, string]
}

// NewConverter returns a converter with an LRU of the given size.
func NewConverter(cacheSize int) (*Converter, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Converter{md: goldmark.New(), cache: cache}, nil
}

// ToHTML converts body. It never fails: a conversion error degrades to the
// escaped source in a <pre> block.
func (c *Converter) ToHTML(body []byte) string {
	var buf bytes.Buffer
	if err := c.md.Convert(body, &buf); err != nil {
		return "<pre>" + html.EscapeString(string(body)) + "</pre>\n"
	}
	return buf.String()
}

// ToHTMLCached converts body, reusing the result stored under key. Callers
// pass a content fingerprint so a changed body never hits a stale entry.
func (c *Converter) ToHTMLCached(key string, body []byte) string {
	if key != "" {
		if out, ok := c.cache.Get(key); ok {
			return out
		}
	}
	out := c.ToHTML(body)
	if key != "" {
		c.cache.Add(key, out)
	}
	return out
}

// CacheLen reports how many conversions are cached.
func (c *Converter) CacheLen() int { return c.cache.Len() }

// FirstHeading returns the text of the first level-one heading in body, or "".
func (c *Converter) FirstHeading(body []byte) string {
	root := c.md.Parser().Parse(text.NewReader(body))

	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok || h.Level != 1 {
			return gmast.WalkContinue, nil
		}
		title = plainText(h, body)
		return gmast.WalkStop, nil
	})
	return title
}

func plainText(n gmast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *gmast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *gmast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(plainText(c, source))
		}
	}
	return buf.String()
}
