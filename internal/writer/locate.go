// Package writer applies model changes to the extracted archive as
// surgical XML edits: each mutation touches exactly the affected element,
// leaving the rest of the document bit-identical.
package writer

import (
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/jra3/bcf-go/internal/model"
	"github.com/jra3/bcf-go/internal/schema"
)

// chainTo builds the entity chain from the entity serving as the document
// root down to target. Entities without an element of their own
// (Modification) are skipped; ancestors above the document root (the
// Project over a Markup) are not part of the chain.
func chainTo(target model.Entity, rootTag string) []model.Entity {
	var chain []model.Entity
	for e := target; e != nil; e = e.Parent() {
		if e.XMLTag() == "" {
			continue
		}
		chain = append([]model.Entity{e}, chain...)
		if e.XMLTag() == rootTag {
			break
		}
	}
	return chain
}

func chainTags(chain []model.Entity) []string {
	tags := make([]string, len(chain))
	for i, e := range chain {
		tags[i] = e.XMLTag()
	}
	return tags
}

// Locate finds the one element of doc that corresponds to target.
// Candidates at each level are narrowed by element name, then by guid,
// then by the text of non-default child cells, then by non-default
// attribute cells. Zero survivors fail with ErrNotFound, more than one
// with ErrAmbiguous.
func Locate(root *etree.Element, target model.Entity) (*etree.Element, error) {
	chain := chainTo(target, root.Tag)
	if len(chain) == 0 || chain[0].XMLTag() != root.Tag {
		return nil, &LocateError{Chain: chainTags(chain), Err: ErrNotFound}
	}
	cur := root
	for _, e := range chain[1:] {
		next, err := locateChild(cur, e)
		if err != nil {
			return nil, &LocateError{Chain: chainTags(chain), Err: err}
		}
		cur = next
	}
	return cur, nil
}

func locateChild(parent *etree.Element, e model.Entity) (*etree.Element, error) {
	candidates := parent.SelectElements(e.XMLTag())
	if len(candidates) > 1 {
		candidates = filterByGuid(candidates, e)
	}
	if len(candidates) > 1 {
		candidates = filterByCells(candidates, e, model.KindElement)
	}
	if len(candidates) > 1 {
		candidates = filterByCells(candidates, e, model.KindAttribute)
	}
	switch len(candidates) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return candidates[0], nil
	}
	return nil, ErrAmbiguous
}

func guidOf(e model.Entity) (uuid.UUID, bool) {
	for _, c := range e.Cells() {
		if c.XMLName() != "Guid" || c.Kind() != model.KindAttribute {
			continue
		}
		if c.State() == model.Added || c.IsDefault() {
			return uuid.Nil, false
		}
		id, err := uuid.Parse(c.StringValue())
		if err != nil {
			return uuid.Nil, false
		}
		return id, true
	}
	return uuid.Nil, false
}

func filterByGuid(candidates []*etree.Element, e model.Entity) []*etree.Element {
	id, ok := guidOf(e)
	if !ok {
		return candidates
	}
	var out []*etree.Element
	for _, c := range candidates {
		if strings.EqualFold(c.SelectAttrValue("Guid", ""), id.String()) {
			out = append(out, c)
		}
	}
	return out
}

// matchCells collects the cells usable for matching an entity against the
// document: its own cells plus the cells of element-less children
// (Modification pairs serialise flat into the owner's element).
func matchCells(e model.Entity) []model.Cell {
	cells := append([]model.Cell(nil), e.Cells()...)
	for _, child := range e.Children() {
		if child.XMLTag() == "" {
			cells = append(cells, child.Cells()...)
		}
	}
	return cells
}

// filterByCells keeps candidates whose document content agrees with every
// matchable cell of the given kind. Added cells do not exist on disk yet
// and Modified cells no longer hold the on-disk value, so both are
// ignored, as are default-valued cells (they may be absent on disk).
func filterByCells(candidates []*etree.Element, e model.Entity, kind model.CellKind) []*etree.Element {
	var out []*etree.Element
	for _, cand := range candidates {
		ok := true
		for _, c := range matchCells(e) {
			if c.Kind() != kind {
				continue
			}
			if c.State() == model.Added || c.State() == model.Modified || c.IsDefault() {
				continue
			}
			var disk string
			var present bool
			if kind == model.KindAttribute {
				if attr := cand.SelectAttr(c.XMLName()); attr != nil {
					disk, present = attr.Value, true
				}
			} else {
				if child := cand.SelectElement(c.XMLName()); child != nil {
					disk, present = child.Text(), true
				}
			}
			if !present || !textMatches(c.StringValue(), disk) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, cand)
		}
	}
	return out
}

// textMatches compares the cell's canonical text with document text,
// tolerating equivalent datetime spellings (+00:00 vs Z) and surrounding
// whitespace.
func textMatches(cellText, docText string) bool {
	docText = strings.TrimSpace(docText)
	if cellText == docText {
		return true
	}
	ct, err1 := time.Parse(time.RFC3339, cellText)
	dt, err2 := time.Parse(time.RFC3339, docText)
	return err1 == nil && err2 == nil && ct.Equal(dt)
}

// LocateOwner finds the element owning cell: the element of the nearest
// ancestor entity that has an element of its own.
func LocateOwner(root *etree.Element, cell model.Cell) (*etree.Element, error) {
	owner := cell.Owner()
	for owner != nil && owner.XMLTag() == "" {
		owner = owner.Parent()
	}
	if owner == nil {
		return nil, &LocateError{Chain: []string{cell.XMLName()}, Err: ErrNotFound}
	}
	return Locate(root, owner)
}

// defFor resolves the compiled schema definition for an element chain
// starting at the document root.
func defFor(rootTag string, chain []string) *schema.Element {
	def := schema.ForRoot(rootTag)
	for _, tag := range chain {
		if def == nil {
			return nil
		}
		def = def.Child(tag)
	}
	return def
}
