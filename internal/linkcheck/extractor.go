// Package linkcheck finds links in the rendered site that point at files
// the build did not produce.
package linkcheck

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
)

// Link is a URL found in an HTML attribute.
type Link struct {
	URL       string
	Tag       string
	Attribute string
	Text      string
}

// linkAttrs lists the attribute carrying a URL per element.
var linkAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"video":  "src",
	"audio":  "src",
	"source": "src",
	"iframe": "src",
}

// ExtractLinks returns the links of the HTML file at path in document order.
func ExtractLinks(path string) ([]Link, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to open HTML file").
			WithContext("file", path).
			Build()
	}
	defer func() { _ = f.Close() }()
	return ExtractLinksFromReader(f)
}

// ExtractLinksFromReader returns the links of the HTML document read from r.
func ExtractLinksFromReader(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "failed to parse HTML").Build()
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				if v := getAttr(n, attr); v != "" {
					links = append(links, Link{URL: v, Tag: n.Data, Attribute: attr, Text: extractText(n)})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

// isLocal reports whether link points into the site. Anchors, external URLs
// and special schemes are not checked.
func isLocal(link string) bool {
	if link == "" || strings.HasPrefix(link, "#") {
		return false
	}
	for _, scheme := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(link, scheme) {
			return false
		}
	}
	u, err := url.Parse(link)
	if err != nil {
		return true
	}
	return u.Scheme == "" && u.Host == ""
}
