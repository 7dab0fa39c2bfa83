package schema

// The BCF 2.1 XSDs compiled into element tables. Child slices preserve the
// schema-declared sequence; the writer derives insertion order from them.

// Scalar is the lexical kind of an attribute or element text.
type Scalar int

const (
	TextNone Scalar = iota // container element, no text content
	TextString
	TextGuid
	TextIfcGuid
	TextDateTime
	TextDate
	TextInteger
	TextBoolean
	TextFloat
)

// Attr describes one attribute of an element.
type Attr struct {
	Name     string
	Required bool
	Kind     Scalar
}

// Child describes one entry of an element's content sequence. Max of
// Unbounded means no upper limit.
type Child struct {
	Name string
	Min  int
	Max  int
	Def  *Element
}

// Unbounded marks a child with no occurrence limit.
const Unbounded = -1

// Element is one compiled complex or simple type.
type Element struct {
	Attrs    []Attr
	Children []Child
	Text     Scalar
}

// Child returns the definition of the named child, or nil.
func (e *Element) Child(name string) *Element {
	if c := e.ChildDef(name); c != nil {
		return c.Def
	}
	return nil
}

// ChildDef returns the sequence entry for the named child, or nil.
func (e *Element) ChildDef(name string) *Child {
	for i := range e.Children {
		if e.Children[i].Name == name {
			return &e.Children[i]
		}
	}
	return nil
}

// Sequence returns the child names in schema order.
func (e *Element) Sequence() []string {
	out := make([]string, len(e.Children))
	for i, c := range e.Children {
		out[i] = c.Name
	}
	return out
}

func text(kind Scalar) *Element { return &Element{Text: kind} }

func point() *Element {
	return &Element{Children: []Child{
		{Name: "X", Min: 1, Max: 1, Def: text(TextFloat)},
		{Name: "Y", Min: 1, Max: 1, Def: text(TextFloat)},
		{Name: "Z", Min: 1, Max: 1, Def: text(TextFloat)},
	}}
}

func component() *Element {
	return &Element{
		Attrs: []Attr{{Name: "IfcGuid", Kind: TextIfcGuid}},
		Children: []Child{
			{Name: "OriginatingSystem", Max: 1, Def: text(TextString)},
			{Name: "AuthoringToolId", Max: 1, Def: text(TextString)},
		},
	}
}

// Version is the root of bcf.version (version.xsd).
var Version = &Element{
	Attrs: []Attr{{Name: "VersionId", Required: true, Kind: TextString}},
	Children: []Child{
		{Name: "DetailedVersion", Max: 1, Def: text(TextString)},
	},
}

// ProjectExtension is the root of project.bcfp (project.xsd).
var ProjectExtension = &Element{
	Children: []Child{
		{Name: "Project", Max: 1, Def: &Element{
			Attrs: []Attr{{Name: "ProjectId", Required: true, Kind: TextGuid}},
			Children: []Child{
				{Name: "Name", Max: 1, Def: text(TextString)},
			},
		}},
		{Name: "ExtensionSchema", Max: 1, Def: text(TextString)},
	},
}

// Markup is the root of markup.bcf (markup.xsd).
var Markup = &Element{
	Children: []Child{
		{Name: "Header", Max: 1, Def: &Element{
			Children: []Child{
				{Name: "File", Max: Unbounded, Def: &Element{
					Attrs: []Attr{
						{Name: "IfcProject", Kind: TextIfcGuid},
						{Name: "IfcSpatialStructureElement", Kind: TextIfcGuid},
						{Name: "isExternal", Kind: TextBoolean},
					},
					Children: []Child{
						{Name: "Filename", Max: 1, Def: text(TextString)},
						{Name: "Date", Max: 1, Def: text(TextDateTime)},
						{Name: "Reference", Max: 1, Def: text(TextString)},
					},
				}},
			},
		}},
		{Name: "Topic", Min: 1, Max: 1, Def: &Element{
			Attrs: []Attr{
				{Name: "Guid", Required: true, Kind: TextGuid},
				{Name: "TopicType", Kind: TextString},
				{Name: "TopicStatus", Kind: TextString},
			},
			Children: []Child{
				{Name: "ReferenceLink", Max: Unbounded, Def: text(TextString)},
				{Name: "Title", Min: 1, Max: 1, Def: text(TextString)},
				{Name: "Priority", Max: 1, Def: text(TextString)},
				{Name: "Index", Max: 1, Def: text(TextInteger)},
				{Name: "Labels", Max: Unbounded, Def: text(TextString)},
				{Name: "CreationDate", Min: 1, Max: 1, Def: text(TextDateTime)},
				{Name: "CreationAuthor", Min: 1, Max: 1, Def: text(TextString)},
				{Name: "ModifiedDate", Max: 1, Def: text(TextDateTime)},
				{Name: "ModifiedAuthor", Max: 1, Def: text(TextString)},
				{Name: "DueDate", Max: 1, Def: text(TextDateTime)},
				{Name: "AssignedTo", Max: 1, Def: text(TextString)},
				{Name: "Stage", Max: 1, Def: text(TextString)},
				{Name: "Description", Max: 1, Def: text(TextString)},
				{Name: "BimSnippet", Max: 1, Def: &Element{
					Attrs: []Attr{
						{Name: "SnippetType", Required: true, Kind: TextString},
						{Name: "isExternal", Kind: TextBoolean},
					},
					Children: []Child{
						{Name: "Reference", Min: 1, Max: 1, Def: text(TextString)},
						{Name: "ReferenceSchema", Min: 1, Max: 1, Def: text(TextString)},
					},
				}},
				{Name: "DocumentReference", Max: Unbounded, Def: &Element{
					Attrs: []Attr{
						{Name: "Guid", Kind: TextGuid},
						{Name: "isExternal", Kind: TextBoolean},
					},
					Children: []Child{
						{Name: "ReferencedDocument", Max: 1, Def: text(TextString)},
						{Name: "Description", Max: 1, Def: text(TextString)},
					},
				}},
				{Name: "RelatedTopic", Max: Unbounded, Def: &Element{
					Attrs: []Attr{{Name: "Guid", Required: true, Kind: TextGuid}},
				}},
			},
		}},
		{Name: "Comment", Max: Unbounded, Def: &Element{
			Attrs: []Attr{{Name: "Guid", Required: true, Kind: TextGuid}},
			Children: []Child{
				{Name: "Date", Min: 1, Max: 1, Def: text(TextDateTime)},
				{Name: "Author", Min: 1, Max: 1, Def: text(TextString)},
				{Name: "Comment", Min: 1, Max: 1, Def: text(TextString)},
				{Name: "Viewpoint", Max: 1, Def: &Element{
					Attrs: []Attr{{Name: "Guid", Required: true, Kind: TextGuid}},
				}},
				{Name: "ModifiedDate", Max: 1, Def: text(TextDateTime)},
				{Name: "ModifiedAuthor", Max: 1, Def: text(TextString)},
			},
		}},
		{Name: "Viewpoints", Max: Unbounded, Def: &Element{
			Attrs: []Attr{{Name: "Guid", Required: true, Kind: TextGuid}},
			Children: []Child{
				{Name: "Viewpoint", Max: 1, Def: text(TextString)},
				{Name: "Snapshot", Max: 1, Def: text(TextString)},
				{Name: "Index", Max: 1, Def: text(TextInteger)},
			},
		}},
	},
}

// VisualizationInfo is the root of a .bcfv document (visinfo.xsd).
var VisualizationInfo = &Element{
	Attrs: []Attr{{Name: "Guid", Kind: TextGuid}},
	Children: []Child{
		{Name: "Components", Max: 1, Def: &Element{
			Children: []Child{
				{Name: "ViewSetupHints", Max: 1, Def: &Element{
					Attrs: []Attr{
						{Name: "SpacesVisible", Kind: TextBoolean},
						{Name: "SpaceBoundariesVisible", Kind: TextBoolean},
						{Name: "OpeningsVisible", Kind: TextBoolean},
					},
				}},
				{Name: "Selection", Max: 1, Def: &Element{
					Children: []Child{{Name: "Component", Max: Unbounded, Def: component()}},
				}},
				{Name: "Visibility", Max: 1, Def: &Element{
					Attrs: []Attr{{Name: "DefaultVisibility", Kind: TextBoolean}},
					Children: []Child{
						{Name: "Exceptions", Max: 1, Def: &Element{
							Children: []Child{{Name: "Component", Max: Unbounded, Def: component()}},
						}},
					},
				}},
				{Name: "Coloring", Max: 1, Def: &Element{
					Children: []Child{
						{Name: "Color", Max: Unbounded, Def: &Element{
							Attrs: []Attr{{Name: "Color", Required: true, Kind: TextString}},
							Children: []Child{
								{Name: "Component", Max: Unbounded, Def: component()},
							},
						}},
					},
				}},
			},
		}},
		{Name: "OrthogonalCamera", Max: 1, Def: &Element{
			Children: []Child{
				{Name: "CameraViewPoint", Min: 1, Max: 1, Def: point()},
				{Name: "CameraDirection", Min: 1, Max: 1, Def: point()},
				{Name: "CameraUpVector", Min: 1, Max: 1, Def: point()},
				{Name: "ViewToWorldScale", Min: 1, Max: 1, Def: text(TextFloat)},
			},
		}},
		{Name: "PerspectiveCamera", Max: 1, Def: &Element{
			Children: []Child{
				{Name: "CameraViewPoint", Min: 1, Max: 1, Def: point()},
				{Name: "CameraDirection", Min: 1, Max: 1, Def: point()},
				{Name: "CameraUpVector", Min: 1, Max: 1, Def: point()},
				{Name: "FieldOfView", Min: 1, Max: 1, Def: text(TextFloat)},
			},
		}},
		{Name: "Lines", Max: 1, Def: &Element{
			Children: []Child{
				{Name: "Line", Max: Unbounded, Def: &Element{
					Children: []Child{
						{Name: "StartPoint", Min: 1, Max: 1, Def: point()},
						{Name: "EndPoint", Min: 1, Max: 1, Def: point()},
					},
				}},
			},
		}},
		{Name: "ClippingPlanes", Max: 1, Def: &Element{
			Children: []Child{
				{Name: "ClippingPlane", Max: Unbounded, Def: &Element{
					Children: []Child{
						{Name: "Location", Min: 1, Max: 1, Def: point()},
						{Name: "Direction", Min: 1, Max: 1, Def: point()},
					},
				}},
			},
		}},
		{Name: "Bitmap", Max: Unbounded, Def: &Element{
			Children: []Child{
				{Name: "Bitmap", Min: 1, Max: 1, Def: text(TextString)},
				{Name: "Reference", Min: 1, Max: 1, Def: text(TextString)},
				{Name: "Location", Min: 1, Max: 1, Def: point()},
				{Name: "Normal", Min: 1, Max: 1, Def: point()},
				{Name: "Up", Min: 1, Max: 1, Def: point()},
				{Name: "Height", Min: 1, Max: 1, Def: text(TextFloat)},
			},
		}},
	},
}

// ForRoot maps a document root tag to its compiled schema, covering the
// four document kinds of a BCF 2.1 archive.
func ForRoot(tag string) *Element {
	switch tag {
	case "Version":
		return Version
	case "ProjectExtension":
		return ProjectExtension
	case "Markup":
		return Markup
	case "VisualizationInfo":
		return VisualizationInfo
	}
	return nil
}
