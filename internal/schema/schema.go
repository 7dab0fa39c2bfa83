// Package schema validates the XML documents of a BCF 2.1 archive against
// the buildingSMART schemas, compiled into Go tables. The same tables give
// the writer the schema-declared child order it needs for insertions.
package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// Diag is one validation finding, anchored by an element path like
// Markup/Topic/Title.
type Diag struct {
	Path string
	Msg  string
}

func (d Diag) String() string { return d.Path + ": " + d.Msg }

// ValidationError reports that a document failed schema validation.
type ValidationError struct {
	File  string
	Diags []Diag
}

func (e *ValidationError) Error() string {
	if len(e.Diags) == 0 {
		return fmt.Sprintf("%s: invalid document", e.File)
	}
	parts := make([]string, len(e.Diags))
	for i, d := range e.Diags {
		parts[i] = d.String()
	}
	return fmt.Sprintf("%s: %s", e.File, strings.Join(parts, "; "))
}

// Validate checks root against the compiled schema for its tag and returns
// every finding. An unknown root tag is itself a finding.
func Validate(root *etree.Element) []Diag {
	def := ForRoot(root.Tag)
	if def == nil {
		return []Diag{{Path: root.Tag, Msg: "unknown document root"}}
	}
	return validateElement(root, def, root.Tag)
}

// ValidateFile parses and validates the document at path. A parse failure
// or any finding yields a *ValidationError.
func ValidateFile(path string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, &ValidationError{File: path, Diags: []Diag{{Path: "/", Msg: err.Error()}}}
	}
	root := doc.Root()
	if root == nil {
		return nil, &ValidationError{File: path, Diags: []Diag{{Path: "/", Msg: "document has no root element"}}}
	}
	if diags := Validate(root); len(diags) > 0 {
		return nil, &ValidationError{File: path, Diags: diags}
	}
	return doc, nil
}

func validateElement(el *etree.Element, def *Element, path string) []Diag {
	var diags []Diag

	seen := map[string]bool{}
	for _, a := range el.Attr {
		if a.Space == "xmlns" || a.Key == "xmlns" || a.Space == "xsi" {
			continue
		}
		ad := findAttr(def, a.Key)
		if ad == nil {
			diags = append(diags, Diag{Path: path, Msg: "unexpected attribute " + a.Key})
			continue
		}
		seen[a.Key] = true
		if msg := checkScalar(a.Value, ad.Kind); msg != "" {
			diags = append(diags, Diag{Path: path + "/@" + a.Key, Msg: msg})
		}
	}
	for _, ad := range def.Attrs {
		if ad.Required && !seen[ad.Name] {
			diags = append(diags, Diag{Path: path, Msg: "missing required attribute " + ad.Name})
		}
	}

	if len(def.Children) == 0 {
		if msg := checkScalar(el.Text(), def.Text); msg != "" {
			diags = append(diags, Diag{Path: path, Msg: msg})
		}
		for _, child := range el.ChildElements() {
			diags = append(diags, Diag{Path: path, Msg: "unexpected element " + child.Tag})
		}
		return diags
	}

	counts := make(map[string]int)
	lastIdx := -1
	for _, child := range el.ChildElements() {
		idx := childIndex(def, child.Tag)
		if idx < 0 {
			diags = append(diags, Diag{Path: path, Msg: "unexpected element " + child.Tag})
			continue
		}
		if idx < lastIdx {
			diags = append(diags, Diag{
				Path: path + "/" + child.Tag,
				Msg:  "element out of sequence (must precede " + def.Children[lastIdx].Name + ")",
			})
		} else {
			lastIdx = idx
		}
		counts[child.Tag]++
		cd := def.Children[idx]
		childPath := path + "/" + child.Tag
		if cd.Max == 1 && counts[child.Tag] > 1 {
			diags = append(diags, Diag{Path: childPath, Msg: "element occurs more than once"})
		}
		diags = append(diags, validateElement(child, cd.Def, childPath)...)
	}
	for _, cd := range def.Children {
		if counts[cd.Name] < cd.Min {
			diags = append(diags, Diag{Path: path, Msg: "missing required element " + cd.Name})
		}
	}
	return diags
}

func findAttr(def *Element, name string) *Attr {
	for i := range def.Attrs {
		if def.Attrs[i].Name == name {
			return &def.Attrs[i]
		}
	}
	return nil
}

func childIndex(def *Element, name string) int {
	for i, c := range def.Children {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func checkScalar(s string, kind Scalar) string {
	s = strings.TrimSpace(s)
	switch kind {
	case TextGuid:
		if _, err := uuid.Parse(s); err != nil {
			return "not a valid guid: " + strconv.Quote(s)
		}
	case TextDateTime, TextDate:
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return "not a valid ISO-8601 datetime: " + strconv.Quote(s)
		}
	case TextInteger:
		if _, err := strconv.Atoi(s); err != nil {
			return "not an integer: " + strconv.Quote(s)
		}
	case TextBoolean:
		if s != "true" && s != "false" {
			return "not a boolean: " + strconv.Quote(s)
		}
	case TextFloat:
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return "not a number: " + strconv.Quote(s)
		}
	}
	return ""
}
