package writer

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/jra3/bcf-go/internal/model"
	"github.com/jra3/bcf-go/internal/schema"
)

// elementWriter is implemented by every entity that serialises to an
// element of its own.
type elementWriter interface {
	model.Entity
	WriteElement(*etree.Element)
}

// seqIndex returns the position of tag in the parent definition's declared
// sequence, or a large index for unknown tags so they sort last.
func seqIndex(def *schema.Element, tag string) int {
	if def == nil {
		return int(^uint(0) >> 1)
	}
	for i, c := range def.Children {
		if c.Name == tag {
			return i
		}
	}
	return int(^uint(0) >> 1)
}

// insertOrdered places newEl among parent's children so that the declared
// schema sequence is kept: right before the first sibling that the schema
// orders later, after everything else.
func insertOrdered(parent *etree.Element, def *schema.Element, newEl *etree.Element) {
	idx := seqIndex(def, newEl.Tag)
	pos := -1
	childPos := 0
	for _, tok := range parent.Child {
		el, ok := tok.(*etree.Element)
		if ok && seqIndex(def, el.Tag) > idx {
			pos = childPos
			break
		}
		childPos++
	}
	if pos < 0 {
		parent.AddChild(newEl)
		return
	}
	parent.InsertChildAt(pos, newEl)
}

// parentOf returns the nearest ancestor entity that owns an element.
func parentOf(e model.Entity) model.Entity {
	p := e.Parent()
	for p != nil && p.XMLTag() == "" {
		p = p.Parent()
	}
	return p
}

// defForEntity resolves the schema definition of the entity's element
// within its document.
func defForEntity(rootTag string, e model.Entity) *schema.Element {
	chain := chainTo(e, rootTag)
	if len(chain) == 0 || chain[0].XMLTag() != rootTag {
		return nil
	}
	return defFor(rootTag, chainTags(chain)[1:])
}

// AddEntity serialises target and inserts it under its parent's element in
// schema order. A Modification has no element of its own; its two cells
// are inserted as flat children of the owner instead.
func AddEntity(root *etree.Element, target model.Entity) error {
	if mod, ok := target.(*model.Modification); ok {
		ownerEl, err := Locate(root, parentOf(target))
		if err != nil {
			return err
		}
		def := defForEntity(root.Tag, parentOf(target))
		for _, name := range []string{mod.Date.XMLName(), mod.Author.XMLName()} {
			el := etree.NewElement(name)
			if name == mod.Date.XMLName() {
				el.SetText(mod.Date.StringValue())
			} else {
				el.SetText(mod.Author.Value())
			}
			insertOrdered(ownerEl, def, el)
		}
		return nil
	}

	w, ok := target.(elementWriter)
	if !ok {
		return fmt.Errorf("cannot serialise %T", target)
	}
	parent := parentOf(target)
	if parent == nil {
		return &LocateError{Chain: chainTags(chainTo(target, root.Tag)), Err: ErrNotFound}
	}
	parentEl, err := Locate(root, parent)
	if err != nil {
		return err
	}
	newEl := etree.NewElement(target.XMLTag())
	w.WriteElement(newEl)
	insertOrdered(parentEl, defForEntity(root.Tag, parent), newEl)
	return nil
}

// DeleteEntity removes target's element, then collapses ancestor elements
// that became empty and are optional per the schema. A Modification is
// deleted by removing its two flat child elements from the owner.
func DeleteEntity(root *etree.Element, target model.Entity) error {
	if mod, ok := target.(*model.Modification); ok {
		ownerEl, err := Locate(root, parentOf(target))
		if err != nil {
			return err
		}
		for _, name := range []string{mod.Date.XMLName(), mod.Author.XMLName()} {
			if child := ownerEl.SelectElement(name); child != nil {
				ownerEl.RemoveChild(child)
			}
		}
		return nil
	}

	el, err := Locate(root, target)
	if err != nil {
		return err
	}
	removeAndCollapse(root, el)
	return nil
}

func removeAndCollapse(root, el *etree.Element) {
	parent := el.Parent()
	parent.RemoveChild(el)
	for parent != nil && parent != root && len(parent.ChildElements()) == 0 {
		gp := parent.Parent()
		if gp == nil || !optionalIn(root, gp, parent.Tag) {
			return
		}
		gp.RemoveChild(parent)
		parent = gp
	}
}

// optionalIn reports whether the named child may be absent from parentEl
// per the schema.
func optionalIn(root, parentEl *etree.Element, tag string) bool {
	var tags []string
	for e := parentEl; e != nil && e != root; e = e.Parent() {
		tags = append([]string{e.Tag}, tags...)
	}
	def := defFor(root.Tag, tags)
	if def == nil {
		return false
	}
	cd := def.ChildDef(tag)
	return cd != nil && cd.Min == 0
}

// UpsertCell writes a cell's current value into the document: attributes
// are set in place, simple elements have their text replaced or, when the
// element was previously absent (the cell sat at its default), inserted in
// schema order. List cells flush their per-item states.
func UpsertCell(root *etree.Element, cell model.Cell) error {
	ownerEl, err := LocateOwner(root, cell)
	if err != nil {
		return err
	}
	owner := cell.Owner()
	for owner != nil && owner.XMLTag() == "" {
		owner = owner.Parent()
	}
	def := defForEntity(root.Tag, owner)

	switch cell.Kind() {
	case model.KindAttribute:
		ownerEl.CreateAttr(cell.XMLName(), cell.StringValue())
	case model.KindElement:
		if child := ownerEl.SelectElement(cell.XMLName()); child != nil {
			child.SetText(cell.StringValue())
		} else {
			el := etree.NewElement(cell.XMLName())
			el.SetText(cell.StringValue())
			insertOrdered(ownerEl, def, el)
		}
	case model.KindList:
		flushList(ownerEl, def, cell)
	}
	return nil
}

// DeleteCell removes a cell's attribute or element from the document.
func DeleteCell(root *etree.Element, cell model.Cell) error {
	ownerEl, err := LocateOwner(root, cell)
	if err != nil {
		return err
	}
	switch cell.Kind() {
	case model.KindAttribute:
		ownerEl.RemoveAttr(cell.XMLName())
	case model.KindElement:
		if child := ownerEl.SelectElement(cell.XMLName()); child != nil {
			removeAndCollapse(root, child)
		}
	case model.KindList:
		flushList(ownerEl, nil, cell)
	}
	return nil
}

// listFlusher is the writer-facing view of list cells: per-item values and
// states without the element type parameter.
type listFlusher interface {
	FlushItems() []model.FlatItem
	ItemAttrName() string
}

// flushList applies per-item list states: Deleted items remove the first
// sibling with matching content, Added items are inserted in schema order.
func flushList(ownerEl *etree.Element, def *schema.Element, cell model.Cell) {
	lf, ok := cell.(listFlusher)
	if !ok {
		return
	}
	name := cell.XMLName()
	attr := lf.ItemAttrName()
	itemText := func(el *etree.Element) string {
		if attr != "" {
			return el.SelectAttrValue(attr, "")
		}
		return el.Text()
	}
	for _, it := range lf.FlushItems() {
		switch it.State {
		case model.Deleted:
			for _, child := range ownerEl.SelectElements(name) {
				if textMatches(it.Value, itemText(child)) {
					ownerEl.RemoveChild(child)
					break
				}
			}
		case model.Added:
			el := etree.NewElement(name)
			if attr != "" {
				el.CreateAttr(attr, it.Value)
			} else {
				el.SetText(it.Value)
			}
			insertOrdered(ownerEl, def, el)
		}
	}
}
