package model

import (
	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// Project is the root of the entity graph. An archive without a
// project.bcfp still gets a Project, identified by the nil uuid.
type Project struct {
	node
	ID              *Attribute[uuid.UUID]
	Name            *SimpleElement[string]
	ExtensionSchema *SimpleElement[string]

	Markups []*Markup
}

func NewProject(id uuid.UUID, name, extensionSchema string, state State) *Project {
	p := &Project{node: newNode("Project", nil, state)}
	p.ID = NewAttribute(id, "ProjectId", uuid.Nil, p, state)
	p.Name = NewSimpleElement(name, "Name", "", p, state)
	p.ExtensionSchema = NewSimpleElement(extensionSchema, "ExtensionSchema", "", p, state)
	return p
}

func (p *Project) Cells() []Cell {
	return []Cell{p.ID, p.Name, p.ExtensionSchema}
}

func (p *Project) Children() []Entity {
	out := make([]Entity, len(p.Markups))
	for i, m := range p.Markups {
		out[i] = m
	}
	return out
}

// AddMarkup appends a markup and re-homes its parent link.
func (p *Project) AddMarkup(m *Markup) {
	m.SetParent(p)
	p.Markups = append(p.Markups, m)
}

// MarkupFor returns the markup whose topic carries the given guid.
func (p *Project) MarkupFor(topicGuid uuid.UUID) *Markup {
	for _, m := range p.Markups {
		if m.State() != Deleted && m.Topic != nil && m.Topic.Guid.Value() == topicGuid {
			return m
		}
	}
	return nil
}

// WriteElement fills el as the <ProjectExtension> document body.
func (p *Project) WriteElement(el *etree.Element) {
	el.Tag = "ProjectExtension"
	if p.ID.Value() != uuid.Nil || p.Name.Value() != "" {
		proj := el.CreateElement("Project")
		proj.CreateAttr("ProjectId", p.ID.StringValue())
		writeSimple(proj, p.Name)
	}
	writeSimple(el, p.ExtensionSchema)
}

func (p *Project) Equal(o *Project) bool {
	if p == nil || o == nil {
		return p == o
	}
	if len(p.Markups) != len(o.Markups) {
		return false
	}
	for i := range p.Markups {
		if !p.Markups[i].Equal(o.Markups[i]) {
			return false
		}
	}
	return p.ID.Value() == o.ID.Value() &&
		p.Name.Value() == o.Name.Value() &&
		p.ExtensionSchema.Value() == o.ExtensionSchema.Value()
}
