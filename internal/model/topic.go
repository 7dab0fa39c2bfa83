package model

import (
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// IndexNone is the default for the optional Index elements. Real indices
// start at 0, so absence needs a distinct sentinel.
const IndexNone = -1

// DocumentReference points a topic at an external or archived document.
type DocumentReference struct {
	node
	Guid        *Attribute[uuid.UUID]
	External    *Attribute[bool]
	Reference   *SimpleElement[string]
	Description *SimpleElement[string]
}

func NewDocumentReference(guid uuid.UUID, external bool, reference, description string, parent Entity, state State) *DocumentReference {
	d := &DocumentReference{node: newNode("DocumentReference", parent, state)}
	d.Guid = NewAttribute(guid, "Guid", uuid.Nil, d, state)
	d.External = NewAttribute(external, "isExternal", false, d, state)
	d.Reference = NewSimpleElement(reference, "ReferencedDocument", "", d, state)
	d.Description = NewSimpleElement(description, "Description", "", d, state)
	return d
}

func (d *DocumentReference) Cells() []Cell {
	return []Cell{d.Guid, d.External, d.Reference, d.Description}
}

func (d *DocumentReference) Children() []Entity { return nil }

func (d *DocumentReference) WriteElement(el *etree.Element) {
	el.Tag = d.XMLTag()
	writeAttr(el, d.Guid)
	writeAttr(el, d.External)
	writeSimple(el, d.Reference)
	writeSimple(el, d.Description)
}

func (d *DocumentReference) Equal(o *DocumentReference) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Guid.Value() == o.Guid.Value() &&
		d.External.Value() == o.External.Value() &&
		d.Reference.Value() == o.Reference.Value() &&
		d.Description.Value() == o.Description.Value()
}

// BimSnippet attaches a machine-readable excerpt of the building model to a
// topic.
type BimSnippet struct {
	node
	Type      *Attribute[string]
	External  *Attribute[bool]
	Reference *SimpleElement[string]
	Schema    *SimpleElement[string]
}

func NewBimSnippet(snippetType string, external bool, reference, schema string, parent Entity, state State) *BimSnippet {
	b := &BimSnippet{node: newNode("BimSnippet", parent, state)}
	b.Type = NewAttribute(snippetType, "SnippetType", "", b, state)
	b.External = NewAttribute(external, "isExternal", false, b, state)
	b.Reference = NewSimpleElement(reference, "Reference", "", b, state)
	b.Schema = NewSimpleElement(schema, "ReferenceSchema", "", b, state)
	return b
}

func (b *BimSnippet) Cells() []Cell {
	return []Cell{b.Type, b.External, b.Reference, b.Schema}
}

func (b *BimSnippet) Children() []Entity { return nil }

func (b *BimSnippet) WriteElement(el *etree.Element) {
	el.Tag = b.XMLTag()
	writeAttr(el, b.Type)
	writeAttr(el, b.External)
	writeSimple(el, b.Reference)
	writeSimple(el, b.Schema)
}

func (b *BimSnippet) Equal(o *BimSnippet) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.Type.Value() == o.Type.Value() &&
		b.External.Value() == o.External.Value() &&
		b.Reference.Value() == o.Reference.Value() &&
		b.Schema.Value() == o.Schema.Value()
}

// TopicArgs carries the constructor inputs for Topic. Guid, Title and the
// creation record are required by the markup schema; everything else is
// optional and may be left zero.
type TopicArgs struct {
	Guid           uuid.UUID
	Title          string
	CreationAuthor string
	CreationDate   time.Time

	Type           string
	Status         string
	Priority       string
	Index          int // IndexNone when absent
	Labels         []string
	ReferenceLinks []string
	DueDate        time.Time
	Assignee       string
	Description    string
	Stage          string
	RelatedTopics  []uuid.UUID

	ModifiedAuthor string
	ModifiedDate   time.Time
}

// Topic is the issue itself: one per markup directory.
type Topic struct {
	node
	Guid   *Attribute[uuid.UUID]
	Type   *Attribute[string]
	Status *Attribute[string]

	ReferenceLinks *ListElement[string]
	Title          *SimpleElement[string]
	Priority       *SimpleElement[string]
	Index          *SimpleElement[int]
	Labels         *ListElement[string]

	Creation         *Modification
	LastModification *Modification // nil when never modified

	DueDate     *SimpleElement[time.Time]
	Assignee    *SimpleElement[string]
	Stage       *SimpleElement[string]
	Description *SimpleElement[string]

	Snippet       *BimSnippet // nil when absent
	DocRefs       []*DocumentReference
	RelatedTopics *ListElement[uuid.UUID]
}

func NewTopic(args TopicArgs, parent Entity, state State) *Topic {
	t := &Topic{node: newNode("Topic", parent, state)}
	t.Guid = NewAttribute(args.Guid, "Guid", uuid.Nil, t, state)
	t.Type = NewAttribute(args.Type, "TopicType", "", t, state)
	t.Status = NewAttribute(args.Status, "TopicStatus", "", t, state)
	t.ReferenceLinks = NewListElement(args.ReferenceLinks, "ReferenceLink", t, state)
	t.Title = NewSimpleElement(args.Title, "Title", "", t, state)
	t.Priority = NewSimpleElement(args.Priority, "Priority", "", t, state)
	t.Index = NewSimpleElement(args.Index, "Index", IndexNone, t, state)
	t.Labels = NewListElement(args.Labels, "Labels", t, state)
	t.Creation = NewTopicCreation(args.CreationAuthor, args.CreationDate, t, state)
	if args.ModifiedAuthor != "" || !args.ModifiedDate.IsZero() {
		t.LastModification = NewLastModification(args.ModifiedAuthor, args.ModifiedDate, t, state)
	}
	t.DueDate = NewSimpleElement(args.DueDate, "DueDate", time.Time{}, t, state)
	t.Assignee = NewSimpleElement(args.Assignee, "AssignedTo", "", t, state)
	t.Stage = NewSimpleElement(args.Stage, "Stage", "", t, state)
	t.Description = NewSimpleElement(args.Description, "Description", "", t, state)
	t.RelatedTopics = NewAttrListElement(args.RelatedTopics, "RelatedTopic", "Guid", t, state)
	return t
}

func (t *Topic) Cells() []Cell {
	return []Cell{
		t.Guid, t.Type, t.Status, t.ReferenceLinks, t.Title, t.Priority,
		t.Index, t.Labels, t.DueDate, t.Assignee, t.Stage, t.Description,
		t.RelatedTopics,
	}
}

func (t *Topic) Children() []Entity {
	children := []Entity{t.Creation}
	if t.LastModification != nil {
		children = append(children, t.LastModification)
	}
	if t.Snippet != nil {
		children = append(children, t.Snippet)
	}
	for _, d := range t.DocRefs {
		children = append(children, d)
	}
	return children
}

// HasIndex reports whether the topic carries an explicit ordering index.
func (t *Topic) HasIndex() bool { return t.Index.Value() != IndexNone }

// SetSnippet attaches a BimSnippet built elsewhere, re-homing its parent.
func (t *Topic) SetSnippet(b *BimSnippet) {
	if b != nil {
		b.SetParent(t)
	}
	t.Snippet = b
}

// AddDocRef appends a document reference and re-homes its parent link.
func (t *Topic) AddDocRef(d *DocumentReference) {
	d.SetParent(t)
	t.DocRefs = append(t.DocRefs, d)
}

// WriteElement fills el with the topic in markup-schema order.
func (t *Topic) WriteElement(el *etree.Element) {
	el.Tag = t.XMLTag()
	writeAttr(el, t.Guid)
	writeAttr(el, t.Type)
	writeAttr(el, t.Status)

	writeList(el, t.ReferenceLinks)
	// Title is required; write it even when empty.
	title := el.CreateElement(t.Title.XMLName())
	title.SetText(t.Title.Value())
	writeSimple(el, t.Priority)
	writeSimple(el, t.Index)
	writeList(el, t.Labels)
	t.Creation.WriteElements(el)
	if t.LastModification != nil && t.LastModification.State() != Deleted {
		t.LastModification.WriteElements(el)
	}
	writeSimple(el, t.DueDate)
	writeSimple(el, t.Assignee)
	writeSimple(el, t.Stage)
	writeSimple(el, t.Description)
	if t.Snippet != nil && t.Snippet.State() != Deleted {
		t.Snippet.WriteElement(el.CreateElement("BimSnippet"))
	}
	for _, d := range t.DocRefs {
		if d.State() == Deleted {
			continue
		}
		d.WriteElement(el.CreateElement("DocumentReference"))
	}
	for _, it := range t.RelatedTopics.Items() {
		if it.State == Deleted {
			continue
		}
		rel := el.CreateElement("RelatedTopic")
		rel.CreateAttr("Guid", it.Value.String())
	}
}

func (t *Topic) Equal(o *Topic) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.DocRefs) != len(o.DocRefs) {
		return false
	}
	for i := range t.DocRefs {
		if !t.DocRefs[i].Equal(o.DocRefs[i]) {
			return false
		}
	}
	return t.Guid.Value() == o.Guid.Value() &&
		t.Type.Value() == o.Type.Value() &&
		t.Status.Value() == o.Status.Value() &&
		equalValues(t.ReferenceLinks.Values(), o.ReferenceLinks.Values()) &&
		t.Title.Value() == o.Title.Value() &&
		t.Priority.Value() == o.Priority.Value() &&
		t.Index.Value() == o.Index.Value() &&
		equalValues(t.Labels.Values(), o.Labels.Values()) &&
		t.Creation.Equal(o.Creation) &&
		t.LastModification.Equal(o.LastModification) &&
		t.DueDate.Value().Equal(o.DueDate.Value()) &&
		t.Assignee.Value() == o.Assignee.Value() &&
		t.Stage.Value() == o.Stage.Value() &&
		t.Description.Value() == o.Description.Value() &&
		t.Snippet.Equal(o.Snippet) &&
		equalValues(t.RelatedTopics.Values(), o.RelatedTopics.Values())
}

func equalValues[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
