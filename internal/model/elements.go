package model

import "github.com/beevik/etree"

// writeAttr sets the attribute for cell on el, honouring the omission
// rule: default-valued cells are not serialised. Explicitly added cells
// take the writer's single-cell path instead, which writes the value
// unconditionally.
func writeAttr[T comparable](el *etree.Element, c *Attribute[T]) {
	if c.State() == Deleted || c.IsDefault() {
		return
	}
	el.CreateAttr(c.XMLName(), c.StringValue())
}

// writeSimple appends a text child element for cell, same omission rule.
func writeSimple[T comparable](el *etree.Element, c *SimpleElement[T]) {
	if c.State() == Deleted || c.IsDefault() {
		return
	}
	child := el.CreateElement(c.XMLName())
	child.SetText(c.StringValue())
}

// writeList appends one child element per live list item.
func writeList[T comparable](el *etree.Element, l *ListElement[T]) {
	for _, it := range l.Items() {
		if it.State == Deleted {
			continue
		}
		child := el.CreateElement(l.XMLName())
		child.SetText(formatScalar(it.Value))
	}
}
