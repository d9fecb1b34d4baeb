// Package frontmatter splits optional YAML frontmatter off source documents.
package frontmatter

import (
	"bytes"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"
)

// Meta holds the frontmatter fields the page template uses.
type Meta struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Document is a source document with its frontmatter separated.
type Document struct {
	Meta        Meta
	Frontmatter []byte
	Body        []byte
	Had         bool
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// had is false and body is the full input when the document does not open
// with `---`, the opener is followed by a blank line, or the opener is never
// closed. Such a `---` is a thematic break.
// A closing `---` may be the last line without a trailing newline.
func Split(content []byte) (frontmatter []byte, body []byte, had bool) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, []byte(nl)) {
		return nil, content, false
	}
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true
	}
	if bytes.Equal(rest, []byte("---")) {
		return []byte{}, []byte{}, true
	}

	closeSeq := []byte(nl + "---" + nl)
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true
	}
	if tail := []byte(nl + "---"); bytes.HasSuffix(rest, tail) {
		return rest[:len(rest)-len(tail)+len(nl)], []byte{}, true
	}
	return nil, content, false
}

// Parse splits content and decodes the known frontmatter fields.
func Parse(content []byte) (*Document, error) {
	fm, body, had := Split(content)
	doc := &Document{Frontmatter: fm, Body: body, Had: had}
	if len(fm) > 0 {
		if err := yaml.Unmarshal(fm, &doc.Meta); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Fingerprint returns the content fingerprint of the document, covering
// both frontmatter and body.
func (d *Document) Fingerprint() string {
	return mdfp.CalculateFingerprintFromParts(string(bytes.TrimSuffix(d.Frontmatter, []byte("\n"))), string(d.Body))
}

func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
