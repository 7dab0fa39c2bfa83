package model

import (
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// HeaderFile references one IFC model file a topic applies to. isExternal
// defaults to true: a file without the flag lives outside the archive.
type HeaderFile struct {
	node
	IfcProject *Attribute[string]
	IfcSpatial *Attribute[string]
	External   *Attribute[bool]
	Filename   *SimpleElement[string]
	Date       *SimpleElement[time.Time]
	Reference  *SimpleElement[string]
}

// HeaderFileArgs carries the constructor inputs for HeaderFile.
type HeaderFileArgs struct {
	IfcProject string
	IfcSpatial string
	External   bool
	Filename   string
	Date       time.Time
	Reference  string
}

func NewHeaderFile(args HeaderFileArgs, parent Entity, state State) *HeaderFile {
	f := &HeaderFile{node: newNode("File", parent, state)}
	f.IfcProject = NewAttribute(args.IfcProject, "IfcProject", "", f, state)
	f.IfcSpatial = NewAttribute(args.IfcSpatial, "IfcSpatialStructureElement", "", f, state)
	f.External = NewAttribute(args.External, "isExternal", true, f, state)
	f.Filename = NewSimpleElement(args.Filename, "Filename", "", f, state)
	f.Date = NewSimpleElement(args.Date, "Date", time.Time{}, f, state)
	f.Reference = NewSimpleElement(args.Reference, "Reference", "", f, state)
	return f
}

func (f *HeaderFile) Cells() []Cell {
	return []Cell{f.IfcProject, f.IfcSpatial, f.External, f.Filename, f.Date, f.Reference}
}

func (f *HeaderFile) Children() []Entity { return nil }

func (f *HeaderFile) WriteElement(el *etree.Element) {
	el.Tag = f.XMLTag()
	writeAttr(el, f.IfcProject)
	writeAttr(el, f.IfcSpatial)
	writeAttr(el, f.External)
	writeSimple(el, f.Filename)
	writeSimple(el, f.Date)
	writeSimple(el, f.Reference)
}

func (f *HeaderFile) Equal(o *HeaderFile) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.IfcProject.Value() == o.IfcProject.Value() &&
		f.IfcSpatial.Value() == o.IfcSpatial.Value() &&
		f.External.Value() == o.External.Value() &&
		f.Filename.Value() == o.Filename.Value() &&
		f.Date.Value().Equal(o.Date.Value()) &&
		f.Reference.Value() == o.Reference.Value()
}

// Header groups the model-file references of one markup.
type Header struct {
	node
	Files []*HeaderFile
}

func NewHeader(parent Entity, state State) *Header {
	return &Header{node: newNode("Header", parent, state)}
}

func (h *Header) Cells() []Cell { return nil }

func (h *Header) Children() []Entity {
	out := make([]Entity, len(h.Files))
	for i, f := range h.Files {
		out[i] = f
	}
	return out
}

// AddFile appends a file entry and re-homes its parent link.
func (h *Header) AddFile(f *HeaderFile) {
	f.SetParent(h)
	h.Files = append(h.Files, f)
}

func (h *Header) WriteElement(el *etree.Element) {
	el.Tag = h.XMLTag()
	for _, f := range h.Files {
		if f.State() == Deleted {
			continue
		}
		f.WriteElement(el.CreateElement("File"))
	}
}

func (h *Header) Equal(o *Header) bool {
	if h == nil || o == nil {
		return h == o
	}
	if len(h.Files) != len(o.Files) {
		return false
	}
	for i := range h.Files {
		if !h.Files[i].Equal(o.Files[i]) {
			return false
		}
	}
	return true
}

// ViewpointLink is the weak reference from a comment to a viewpoint
// reference in the same markup, serialised as <Viewpoint Guid="..."/>.
// Ref is resolved lazily by the reader and is nil when the guid names
// nothing in the markup.
type ViewpointLink struct {
	node
	Guid *Attribute[uuid.UUID]
	Ref  *ViewpointReference
}

func NewViewpointLink(guid uuid.UUID, parent Entity, state State) *ViewpointLink {
	l := &ViewpointLink{node: newNode("Viewpoint", parent, state)}
	l.Guid = NewAttribute(guid, "Guid", uuid.Nil, l, state)
	return l
}

func (l *ViewpointLink) Cells() []Cell { return []Cell{l.Guid} }
func (l *ViewpointLink) Children() []Entity { return nil }

func (l *ViewpointLink) WriteElement(el *etree.Element) {
	el.Tag = l.XMLTag()
	el.CreateAttr("Guid", l.Guid.StringValue())
}

// Comment is one reply on a topic.
type Comment struct {
	node
	Guid             *Attribute[uuid.UUID]
	Creation         *Modification
	Text             *SimpleElement[string]
	Viewpoint        *ViewpointLink // nil when the comment has no viewpoint
	LastModification *Modification  // nil when never modified
}

// CommentArgs carries the constructor inputs for Comment.
type CommentArgs struct {
	Guid   uuid.UUID
	Author string
	Date   time.Time
	Text   string

	ViewpointGuid  uuid.UUID // uuid.Nil when the comment has no viewpoint
	ModifiedAuthor string
	ModifiedDate   time.Time
}

func NewComment(args CommentArgs, parent Entity, state State) *Comment {
	c := &Comment{node: newNode("Comment", parent, state)}
	c.Guid = NewAttribute(args.Guid, "Guid", uuid.Nil, c, state)
	c.Creation = NewCommentCreation(args.Author, args.Date, c, state)
	c.Text = NewSimpleElement(args.Text, "Comment", "", c, state)
	if args.ViewpointGuid != uuid.Nil {
		c.Viewpoint = NewViewpointLink(args.ViewpointGuid, c, state)
	}
	if args.ModifiedAuthor != "" || !args.ModifiedDate.IsZero() {
		c.LastModification = NewLastModification(args.ModifiedAuthor, args.ModifiedDate, c, state)
	}
	return c
}

func (c *Comment) Cells() []Cell { return []Cell{c.Guid, c.Text} }

func (c *Comment) Children() []Entity {
	children := []Entity{c.Creation}
	if c.Viewpoint != nil {
		children = append(children, c.Viewpoint)
	}
	if c.LastModification != nil {
		children = append(children, c.LastModification)
	}
	return children
}

func (c *Comment) WriteElement(el *etree.Element) {
	el.Tag = c.XMLTag()
	writeAttr(el, c.Guid)
	c.Creation.WriteElements(el)
	// Comment text is required; write it even when empty.
	text := el.CreateElement(c.Text.XMLName())
	text.SetText(c.Text.Value())
	if c.Viewpoint != nil && c.Viewpoint.State() != Deleted {
		c.Viewpoint.WriteElement(el.CreateElement("Viewpoint"))
	}
	if c.LastModification != nil && c.LastModification.State() != Deleted {
		c.LastModification.WriteElements(el)
	}
}

func (c *Comment) Equal(o *Comment) bool {
	if c == nil || o == nil {
		return c == o
	}
	var g1, g2 uuid.UUID
	if c.Viewpoint != nil {
		g1 = c.Viewpoint.Guid.Value()
	}
	if o.Viewpoint != nil {
		g2 = o.Viewpoint.Guid.Value()
	}
	return c.Guid.Value() == o.Guid.Value() &&
		c.Creation.Equal(o.Creation) &&
		c.Text.Value() == o.Text.Value() &&
		g1 == g2 &&
		c.LastModification.Equal(o.LastModification)
}

// ViewpointReference is one <Viewpoints> entry of a markup: the pair of
// viewpoint and snapshot file names plus the loaded visualization info.
type ViewpointReference struct {
	node
	Guid     *Attribute[uuid.UUID]
	File     *SimpleElement[string]
	Snapshot *SimpleElement[string]
	Index    *SimpleElement[int]

	// Viewpoint is the parsed .bcfv document, nil when the file was
	// missing or failed validation.
	Viewpoint *VisualizationInfo
}

func NewViewpointReference(guid uuid.UUID, file, snapshot string, index int, parent Entity, state State) *ViewpointReference {
	v := &ViewpointReference{node: newNode("Viewpoints", parent, state)}
	v.Guid = NewAttribute(guid, "Guid", uuid.Nil, v, state)
	v.File = NewSimpleElement(file, "Viewpoint", "", v, state)
	v.Snapshot = NewSimpleElement(snapshot, "Snapshot", "", v, state)
	v.Index = NewSimpleElement(index, "Index", IndexNone, v, state)
	return v
}

func (v *ViewpointReference) Cells() []Cell {
	return []Cell{v.Guid, v.File, v.Snapshot, v.Index}
}

func (v *ViewpointReference) Children() []Entity {
	if v.Viewpoint != nil {
		return []Entity{v.Viewpoint}
	}
	return nil
}

func (v *ViewpointReference) WriteElement(el *etree.Element) {
	el.Tag = v.XMLTag()
	writeAttr(el, v.Guid)
	writeSimple(el, v.File)
	writeSimple(el, v.Snapshot)
	writeSimple(el, v.Index)
}

func (v *ViewpointReference) Equal(o *ViewpointReference) bool {
	if v == nil || o == nil {
		return v == o
	}
	return v.Guid.Value() == o.Guid.Value() &&
		v.File.Value() == o.File.Value() &&
		v.Snapshot.Value() == o.Snapshot.Value() &&
		v.Index.Value() == o.Index.Value()
}

// Markup is one topic directory of the archive: header, topic, comments and
// viewpoint references.
type Markup struct {
	node

	// TopicDir is the archive directory name, the string form of the
	// topic guid.
	TopicDir string

	Header     *Header // nil when the markup has no header
	Topic      *Topic
	Comments   []*Comment
	Viewpoints []*ViewpointReference

	// Snapshots lists the .png files found in the topic directory. They
	// are referenced by name only and never parsed.
	Snapshots []string
}

func NewMarkup(topicDir string, parent Entity, state State) *Markup {
	return &Markup{node: newNode("Markup", parent, state), TopicDir: topicDir}
}

func (m *Markup) Cells() []Cell { return nil }

func (m *Markup) Children() []Entity {
	var out []Entity
	if m.Header != nil {
		out = append(out, m.Header)
	}
	if m.Topic != nil {
		out = append(out, m.Topic)
	}
	for _, c := range m.Comments {
		out = append(out, c)
	}
	for _, v := range m.Viewpoints {
		out = append(out, v)
	}
	return out
}

// SetHeader attaches a header and re-homes its parent link.
func (m *Markup) SetHeader(h *Header) {
	if h != nil {
		h.SetParent(m)
	}
	m.Header = h
}

// SetTopic attaches the topic and re-homes its parent link.
func (m *Markup) SetTopic(t *Topic) {
	t.SetParent(m)
	m.Topic = t
}

// AddComment appends a comment and re-homes its parent link.
func (m *Markup) AddComment(c *Comment) {
	c.SetParent(m)
	m.Comments = append(m.Comments, c)
}

// AddViewpoint appends a viewpoint reference and re-homes its parent link.
func (m *Markup) AddViewpoint(v *ViewpointReference) {
	v.SetParent(m)
	m.Viewpoints = append(m.Viewpoints, v)
}

// ViewpointByGuid finds the live viewpoint reference with the given guid.
func (m *Markup) ViewpointByGuid(guid uuid.UUID) *ViewpointReference {
	for _, v := range m.Viewpoints {
		if v.State() != Deleted && v.Guid.Value() == guid {
			return v
		}
	}
	return nil
}

// WriteElement fills el with the whole markup document body in schema
// order. Used when a markup is created from scratch; existing documents are
// edited surgically instead.
func (m *Markup) WriteElement(el *etree.Element) {
	el.Tag = m.XMLTag()
	if m.Header != nil && m.Header.State() != Deleted {
		m.Header.WriteElement(el.CreateElement("Header"))
	}
	m.Topic.WriteElement(el.CreateElement("Topic"))
	for _, c := range m.Comments {
		if c.State() == Deleted {
			continue
		}
		c.WriteElement(el.CreateElement("Comment"))
	}
	for _, v := range m.Viewpoints {
		if v.State() == Deleted {
			continue
		}
		v.WriteElement(el.CreateElement("Viewpoints"))
	}
}

func (m *Markup) Equal(o *Markup) bool {
	if m == nil || o == nil {
		return m == o
	}
	if len(m.Comments) != len(o.Comments) || len(m.Viewpoints) != len(o.Viewpoints) {
		return false
	}
	for i := range m.Comments {
		if !m.Comments[i].Equal(o.Comments[i]) {
			return false
		}
	}
	for i := range m.Viewpoints {
		if !m.Viewpoints[i].Equal(o.Viewpoints[i]) {
			return false
		}
	}
	return m.Header.Equal(o.Header) && m.Topic.Equal(o.Topic)
}
