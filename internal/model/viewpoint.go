package model

import (
	"strconv"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// The visualization info tree is carried for round-trip fidelity only; the
// library attaches no geometric meaning to it. Fields mirror visinfo.xsd.

// Point is a 3D location.
type Point struct {
	X, Y, Z float64
}

// Direction is a 3D vector.
type Direction struct {
	X, Y, Z float64
}

// OrthogonalCamera per visinfo.xsd.
type OrthogonalCamera struct {
	ViewPoint        Point
	Direction        Direction
	UpVector         Direction
	ViewToWorldScale float64
}

// PerspectiveCamera per visinfo.xsd.
type PerspectiveCamera struct {
	ViewPoint   Point
	Direction   Direction
	UpVector    Direction
	FieldOfView float64
}

// Line is a polyline segment overlaid on the model.
type Line struct {
	Start Point
	End   Point
}

// ClippingPlane cuts the model along a plane.
type ClippingPlane struct {
	Location  Point
	Direction Direction
}

// Component names one building element by its IFC guid.
type Component struct {
	IfcGuid           string
	OriginatingSystem string
	AuthoringToolID   string
}

// ComponentColoring assigns a color to a set of components.
type ComponentColoring struct {
	Color      string
	Components []Component
}

// ViewSetupHints per visinfo.xsd.
type ViewSetupHints struct {
	SpacesVisible          bool
	SpaceBoundariesVisible bool
	OpeningsVisible        bool
}

// ComponentVisibility is the default-visibility override set.
type ComponentVisibility struct {
	DefaultVisibility bool
	Exceptions        []Component
}

// Components groups selection, visibility and coloring overrides.
type Components struct {
	Hints      *ViewSetupHints
	Selection  []Component
	Visibility *ComponentVisibility
	Coloring   []ComponentColoring
}

// Bitmap embeds an image into the 3D scene.
type Bitmap struct {
	Format    string // PNG or JPG
	Reference string
	Location  Point
	Normal    Direction
	Up        Direction
	Height    float64
}

// VisualizationInfo is one parsed .bcfv document. It participates in the
// entity graph (guid, state, parent) but its body is opaque to the writer:
// existing files are never rewritten, only Added viewpoints are serialised.
type VisualizationInfo struct {
	node
	Guid *Attribute[uuid.UUID]

	Components     *Components
	Orthogonal     *OrthogonalCamera
	Perspective    *PerspectiveCamera
	Lines          []Line
	ClippingPlanes []ClippingPlane
	Bitmaps        []Bitmap
}

func NewVisualizationInfo(guid uuid.UUID, parent Entity, state State) *VisualizationInfo {
	v := &VisualizationInfo{node: newNode("VisualizationInfo", parent, state)}
	v.Guid = NewAttribute(guid, "Guid", uuid.Nil, v, state)
	return v
}

func (v *VisualizationInfo) Cells() []Cell { return []Cell{v.Guid} }
func (v *VisualizationInfo) Children() []Entity { return nil }

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parsePoint(el *etree.Element) Point {
	var p Point
	if el == nil {
		return p
	}
	if x := el.SelectElement("X"); x != nil {
		p.X = parseFloat(x.Text())
	}
	if y := el.SelectElement("Y"); y != nil {
		p.Y = parseFloat(y.Text())
	}
	if z := el.SelectElement("Z"); z != nil {
		p.Z = parseFloat(z.Text())
	}
	return p
}

func parseDirection(el *etree.Element) Direction {
	p := parsePoint(el)
	return Direction{X: p.X, Y: p.Y, Z: p.Z}
}

func parseComponent(el *etree.Element) Component {
	c := Component{IfcGuid: el.SelectAttrValue("IfcGuid", "")}
	if o := el.SelectElement("OriginatingSystem"); o != nil {
		c.OriginatingSystem = o.Text()
	}
	if a := el.SelectElement("AuthoringToolId"); a != nil {
		c.AuthoringToolID = a.Text()
	}
	return c
}

func parseComponents(el *etree.Element) *Components {
	comps := &Components{}
	if h := el.SelectElement("ViewSetupHints"); h != nil {
		comps.Hints = &ViewSetupHints{
			SpacesVisible:          h.SelectAttrValue("SpacesVisible", "false") == "true",
			SpaceBoundariesVisible: h.SelectAttrValue("SpaceBoundariesVisible", "false") == "true",
			OpeningsVisible:        h.SelectAttrValue("OpeningsVisible", "false") == "true",
		}
	}
	if sel := el.SelectElement("Selection"); sel != nil {
		for _, c := range sel.SelectElements("Component") {
			comps.Selection = append(comps.Selection, parseComponent(c))
		}
	}
	if vis := el.SelectElement("Visibility"); vis != nil {
		cv := &ComponentVisibility{
			DefaultVisibility: vis.SelectAttrValue("DefaultVisibility", "false") == "true",
		}
		if exc := vis.SelectElement("Exceptions"); exc != nil {
			for _, c := range exc.SelectElements("Component") {
				cv.Exceptions = append(cv.Exceptions, parseComponent(c))
			}
		}
		comps.Visibility = cv
	}
	if col := el.SelectElement("Coloring"); col != nil {
		for _, colorEl := range col.SelectElements("Color") {
			cc := ComponentColoring{Color: colorEl.SelectAttrValue("Color", "")}
			for _, c := range colorEl.SelectElements("Component") {
				cc.Components = append(cc.Components, parseComponent(c))
			}
			comps.Coloring = append(comps.Coloring, cc)
		}
	}
	return comps
}

// ParseVisualizationInfo lifts a validated .bcfv document into the model.
func ParseVisualizationInfo(root *etree.Element, parent Entity, state State) (*VisualizationInfo, error) {
	guid, err := uuid.Parse(root.SelectAttrValue("Guid", uuid.Nil.String()))
	if err != nil {
		return nil, err
	}
	v := NewVisualizationInfo(guid, parent, state)

	if c := root.SelectElement("Components"); c != nil {
		v.Components = parseComponents(c)
	}
	if o := root.SelectElement("OrthogonalCamera"); o != nil {
		v.Orthogonal = &OrthogonalCamera{
			ViewPoint:        parsePoint(o.SelectElement("CameraViewPoint")),
			Direction:        parseDirection(o.SelectElement("CameraDirection")),
			UpVector:         parseDirection(o.SelectElement("CameraUpVector")),
			ViewToWorldScale: selectFloat(o, "ViewToWorldScale"),
		}
	}
	if p := root.SelectElement("PerspectiveCamera"); p != nil {
		v.Perspective = &PerspectiveCamera{
			ViewPoint:   parsePoint(p.SelectElement("CameraViewPoint")),
			Direction:   parseDirection(p.SelectElement("CameraDirection")),
			UpVector:    parseDirection(p.SelectElement("CameraUpVector")),
			FieldOfView: selectFloat(p, "FieldOfView"),
		}
	}
	if lines := root.SelectElement("Lines"); lines != nil {
		for _, l := range lines.SelectElements("Line") {
			v.Lines = append(v.Lines, Line{
				Start: parsePoint(l.SelectElement("StartPoint")),
				End:   parsePoint(l.SelectElement("EndPoint")),
			})
		}
	}
	if planes := root.SelectElement("ClippingPlanes"); planes != nil {
		for _, pl := range planes.SelectElements("ClippingPlane") {
			v.ClippingPlanes = append(v.ClippingPlanes, ClippingPlane{
				Location:  parsePoint(pl.SelectElement("Location")),
				Direction: parseDirection(pl.SelectElement("Direction")),
			})
		}
	}
	for _, b := range root.SelectElements("Bitmap") {
		bm := Bitmap{Height: selectFloat(b, "Height")}
		if f := b.SelectElement("Bitmap"); f != nil {
			bm.Format = f.Text()
		}
		if r := b.SelectElement("Reference"); r != nil {
			bm.Reference = r.Text()
		}
		bm.Location = parsePoint(b.SelectElement("Location"))
		bm.Normal = parseDirection(b.SelectElement("Normal"))
		bm.Up = parseDirection(b.SelectElement("Up"))
		v.Bitmaps = append(v.Bitmaps, bm)
	}
	return v, nil
}

func selectFloat(el *etree.Element, name string) float64 {
	if c := el.SelectElement(name); c != nil {
		return parseFloat(c.Text())
	}
	return 0
}

func writePoint(parent *etree.Element, name string, p Point) {
	el := parent.CreateElement(name)
	el.CreateElement("X").SetText(formatScalar(p.X))
	el.CreateElement("Y").SetText(formatScalar(p.Y))
	el.CreateElement("Z").SetText(formatScalar(p.Z))
}

func writeDirection(parent *etree.Element, name string, d Direction) {
	writePoint(parent, name, Point{X: d.X, Y: d.Y, Z: d.Z})
}

func writeComponent(parent *etree.Element, c Component) {
	el := parent.CreateElement("Component")
	if c.IfcGuid != "" {
		el.CreateAttr("IfcGuid", c.IfcGuid)
	}
	if c.OriginatingSystem != "" {
		el.CreateElement("OriginatingSystem").SetText(c.OriginatingSystem)
	}
	if c.AuthoringToolID != "" {
		el.CreateElement("AuthoringToolId").SetText(c.AuthoringToolID)
	}
}

// WriteElement serialises the full visualization tree in schema order.
func (v *VisualizationInfo) WriteElement(el *etree.Element) {
	el.Tag = v.XMLTag()
	if v.Guid.Value() != uuid.Nil {
		el.CreateAttr("Guid", v.Guid.StringValue())
	}
	if c := v.Components; c != nil {
		compEl := el.CreateElement("Components")
		if c.Hints != nil {
			h := compEl.CreateElement("ViewSetupHints")
			h.CreateAttr("SpacesVisible", formatScalar(c.Hints.SpacesVisible))
			h.CreateAttr("SpaceBoundariesVisible", formatScalar(c.Hints.SpaceBoundariesVisible))
			h.CreateAttr("OpeningsVisible", formatScalar(c.Hints.OpeningsVisible))
		}
		if len(c.Selection) > 0 {
			sel := compEl.CreateElement("Selection")
			for _, comp := range c.Selection {
				writeComponent(sel, comp)
			}
		}
		if c.Visibility != nil {
			vis := compEl.CreateElement("Visibility")
			vis.CreateAttr("DefaultVisibility", formatScalar(c.Visibility.DefaultVisibility))
			if len(c.Visibility.Exceptions) > 0 {
				exc := vis.CreateElement("Exceptions")
				for _, comp := range c.Visibility.Exceptions {
					writeComponent(exc, comp)
				}
			}
		}
		if len(c.Coloring) > 0 {
			col := compEl.CreateElement("Coloring")
			for _, cc := range c.Coloring {
				colorEl := col.CreateElement("Color")
				colorEl.CreateAttr("Color", cc.Color)
				for _, comp := range cc.Components {
					writeComponent(colorEl, comp)
				}
			}
		}
	}
	if o := v.Orthogonal; o != nil {
		cam := el.CreateElement("OrthogonalCamera")
		writePoint(cam, "CameraViewPoint", o.ViewPoint)
		writeDirection(cam, "CameraDirection", o.Direction)
		writeDirection(cam, "CameraUpVector", o.UpVector)
		cam.CreateElement("ViewToWorldScale").SetText(formatScalar(o.ViewToWorldScale))
	}
	if p := v.Perspective; p != nil {
		cam := el.CreateElement("PerspectiveCamera")
		writePoint(cam, "CameraViewPoint", p.ViewPoint)
		writeDirection(cam, "CameraDirection", p.Direction)
		writeDirection(cam, "CameraUpVector", p.UpVector)
		cam.CreateElement("FieldOfView").SetText(formatScalar(p.FieldOfView))
	}
	if len(v.Lines) > 0 {
		lines := el.CreateElement("Lines")
		for _, l := range v.Lines {
			lineEl := lines.CreateElement("Line")
			writePoint(lineEl, "StartPoint", l.Start)
			writePoint(lineEl, "EndPoint", l.End)
		}
	}
	if len(v.ClippingPlanes) > 0 {
		planes := el.CreateElement("ClippingPlanes")
		for _, pl := range v.ClippingPlanes {
			plEl := planes.CreateElement("ClippingPlane")
			writePoint(plEl, "Location", pl.Location)
			writeDirection(plEl, "Direction", pl.Direction)
		}
	}
	for _, b := range v.Bitmaps {
		bEl := el.CreateElement("Bitmap")
		bEl.CreateElement("Bitmap").SetText(b.Format)
		bEl.CreateElement("Reference").SetText(b.Reference)
		writePoint(bEl, "Location", b.Location)
		writeDirection(bEl, "Normal", b.Normal)
		writeDirection(bEl, "Up", b.Up)
		bEl.CreateElement("Height").SetText(formatScalar(b.Height))
	}
}
