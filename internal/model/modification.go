package model

import (
	"time"

	"github.com/beevik/etree"
)

// ModKind says whether a Modification records the creation of its owner or
// a later edit. The kind picks the XML element names.
type ModKind int

const (
	ModCreation ModKind = iota
	ModModification
)

// Modification is the (author, date) pair attached to topics and comments.
// It has no element of its own: its two cells serialise as flat children of
// the owning entity, under names that depend on the owner and the kind
// (Date/Author on comments, CreationDate/CreationAuthor on topics,
// ModifiedDate/ModifiedAuthor for later edits on both).
type Modification struct {
	node
	Kind   ModKind
	Author *SimpleElement[string]
	Date   *SimpleElement[time.Time]
}

func newModification(author string, date time.Time, authorTag, dateTag string, kind ModKind, parent Entity, state State) *Modification {
	m := &Modification{node: newNode("", parent, state), Kind: kind}
	m.Author = NewSimpleElement(author, authorTag, "", m, state)
	m.Date = NewSimpleElement(date, dateTag, time.Time{}, m, state)
	return m
}

// NewTopicCreation builds the required creation record of a Topic.
func NewTopicCreation(author string, date time.Time, parent Entity, state State) *Modification {
	return newModification(author, date, "CreationAuthor", "CreationDate", ModCreation, parent, state)
}

// NewCommentCreation builds the required creation record of a Comment.
func NewCommentCreation(author string, date time.Time, parent Entity, state State) *Modification {
	return newModification(author, date, "Author", "Date", ModCreation, parent, state)
}

// NewLastModification builds the optional modified-by record of a Topic or
// Comment.
func NewLastModification(author string, date time.Time, parent Entity, state State) *Modification {
	return newModification(author, date, "ModifiedAuthor", "ModifiedDate", ModModification, parent, state)
}

func (m *Modification) Cells() []Cell { return []Cell{m.Author, m.Date} }
func (m *Modification) Children() []Entity { return nil }

// WriteElements appends the date and author elements to parent. Date comes
// first in every place the markup schema uses the pair.
func (m *Modification) WriteElements(parent *etree.Element) {
	d := parent.CreateElement(m.Date.XMLName())
	d.SetText(m.Date.StringValue())
	a := parent.CreateElement(m.Author.XMLName())
	a.SetText(m.Author.Value())
}

func (m *Modification) Equal(o *Modification) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Author.Value() == o.Author.Value() && m.Date.Value().Equal(o.Date.Value())
}
