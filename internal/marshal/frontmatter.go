// Package marshal renders BCF topics as markdown documents with YAML
// frontmatter, the format the CLI prints and editors understand.
package marshal

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ErrUnclosedFrontmatter reports a document that opens a frontmatter block
// and never closes it.
var ErrUnclosedFrontmatter = errors.New("frontmatter block is never closed")

type Document struct {
	Frontmatter map[string]any
	Body        string
}

// Parse splits a markdown document into its YAML frontmatter and body. A
// document that does not open with a delimiter line is all body.
func Parse(content []byte) (*Document, error) {
	doc := &Document{Frontmatter: map[string]any{}}

	head, opened := strings.CutPrefix(string(content), delimiter)
	if !opened {
		doc.Body = string(content)
		return doc, nil
	}
	meta, body, closed := strings.Cut(head, "\n"+delimiter)
	if !closed {
		return nil, ErrUnclosedFrontmatter
	}
	if err := yaml.Unmarshal([]byte(meta), &doc.Frontmatter); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	if doc.Frontmatter == nil {
		doc.Frontmatter = map[string]any{}
	}
	doc.Body = strings.TrimPrefix(body, "\n")
	return doc, nil
}

// Render writes the document back out, frontmatter block first when there
// is one.
func Render(doc *Document) ([]byte, error) {
	if len(doc.Frontmatter) == 0 {
		return []byte(doc.Body), nil
	}
	meta, err := yaml.Marshal(doc.Frontmatter)
	if err != nil {
		return nil, fmt.Errorf("marshalling frontmatter: %w", err)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n%s%s\n", delimiter, meta, delimiter)
	buf.WriteString(doc.Body)
	return buf.Bytes(), nil
}
