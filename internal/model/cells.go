package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// CellKind distinguishes how a cell serialises into XML.
type CellKind int

const (
	// KindAttribute serialises as an XML attribute on the owner's element.
	KindAttribute CellKind = iota
	// KindElement serialises as the text of a dedicated child element.
	KindElement
	// KindList serialises as repeated sibling elements sharing one name.
	KindList
)

// Cell is the type-erased view of a value cell. Every mutable field of every
// entity is one of these; the writer consumes cells through this interface.
type Cell interface {
	XMLName() string
	Owner() Entity
	Kind() CellKind
	State() State
	SetState(State)
	// IsDefault reports whether the current value equals the recorded
	// default. Default-valued cells are omitted on write unless Added.
	IsDefault() bool
	// StringValue is the canonical XML text for the current value.
	StringValue() string
	// ResetState returns the cell to Original after a commit; list cells
	// additionally drop items that were flushed as deletions.
	ResetState()
}

// formatScalar renders the scalar types used by the data model in their
// canonical XML form. Booleans must be lowercase per the BCF schemas.
func formatScalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case uuid.UUID:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	}
	return ""
}

// Attribute is a scalar cell serialised as an XML attribute.
type Attribute[T comparable] struct {
	name  string
	value T
	def   T
	state State
	owner Entity
}

// NewAttribute builds an attribute cell. Reader-built cells pass Original,
// caller-built cells pass Added.
func NewAttribute[T comparable](value T, name string, def T, owner Entity, state State) *Attribute[T] {
	return &Attribute[T]{name: name, value: value, def: def, state: state, owner: owner}
}

func (a *Attribute[T]) Value() T { return a.value }
func (a *Attribute[T]) Default() T { return a.def }
func (a *Attribute[T]) XMLName() string { return a.name }
func (a *Attribute[T]) Owner() Entity { return a.owner }
func (a *Attribute[T]) Kind() CellKind { return KindAttribute }
func (a *Attribute[T]) State() State { return a.state }
func (a *Attribute[T]) SetState(s State) { a.state = s }
func (a *Attribute[T]) IsDefault() bool { return a.value == a.def }
func (a *Attribute[T]) ResetState() { a.state = Original }

func (a *Attribute[T]) StringValue() string { return formatScalar(a.value) }

// Set writes a new value through the state machine: an Original cell whose
// value actually changes becomes Modified, an Added cell stays Added.
func (a *Attribute[T]) Set(v T) {
	if a.state == Original && v != a.value {
		a.state = Modified
	}
	a.value = v
}

// SimpleElement is a scalar cell serialised as the text of a child element.
type SimpleElement[T comparable] struct {
	Attribute[T]
}

// NewSimpleElement builds a simple-element cell.
func NewSimpleElement[T comparable](value T, name string, def T, owner Entity, state State) *SimpleElement[T] {
	return &SimpleElement[T]{Attribute[T]{name: name, value: value, def: def, state: state, owner: owner}}
}

func (e *SimpleElement[T]) Kind() CellKind { return KindElement }

// ListItem is one entry of a ListElement together with its own state, so
// that appending one item never rewrites its siblings.
type ListItem[T comparable] struct {
	Value T
	State State
}

// FlatItem is the type-erased view of a list item used by the writer.
type FlatItem struct {
	Value string
	State State
}

// ListElement holds an ordered sequence of scalar values that all serialise
// under the same element name (each label is its own <Labels> element).
// When attrName is set the items serialise as that attribute of an empty
// element (<RelatedTopic Guid="..."/>) instead of element text.
type ListElement[T comparable] struct {
	name     string
	attrName string
	items    []ListItem[T]
	owner    Entity
}

// NewListElement builds a list cell over the given initial values.
func NewListElement[T comparable](values []T, name string, owner Entity, state State) *ListElement[T] {
	l := &ListElement[T]{name: name, owner: owner}
	for _, v := range values {
		l.items = append(l.items, ListItem[T]{Value: v, State: state})
	}
	return l
}

// NewAttrListElement builds a list cell whose items serialise as the given
// attribute of an otherwise empty element.
func NewAttrListElement[T comparable](values []T, name, attrName string, owner Entity, state State) *ListElement[T] {
	l := NewListElement(values, name, owner, state)
	l.attrName = attrName
	return l
}

// ItemAttrName is the attribute items serialise to, empty for text items.
func (l *ListElement[T]) ItemAttrName() string { return l.attrName }

// FlushItems exposes the items type-erased for the writer.
func (l *ListElement[T]) FlushItems() []FlatItem {
	out := make([]FlatItem, len(l.items))
	for i, it := range l.items {
		out[i] = FlatItem{Value: formatScalar(it.Value), State: it.State}
	}
	return out
}

func (l *ListElement[T]) XMLName() string { return l.name }
func (l *ListElement[T]) Owner() Entity { return l.owner }
func (l *ListElement[T]) Kind() CellKind { return KindList }
func (l *ListElement[T]) IsDefault() bool { return len(l.items) == 0 }

// State reports the most urgent item state: Deleted wins over Added wins
// over Modified; a list with only untouched items is Original.
func (l *ListElement[T]) State() State {
	st := Original
	for _, it := range l.items {
		switch it.State {
		case Deleted:
			return Deleted
		case Added:
			st = Added
		case Modified:
			if st == Original {
				st = Modified
			}
		}
	}
	return st
}

// SetState applies s to every item. Used by entity-level cascades.
func (l *ListElement[T]) SetState(s State) {
	for i := range l.items {
		l.items[i].State = s
	}
}

func (l *ListElement[T]) ResetState() {
	kept := l.items[:0]
	for _, it := range l.items {
		if it.State == Deleted {
			continue
		}
		it.State = Original
		kept = append(kept, it)
	}
	l.items = kept
}

// StringValue joins the live item values; only used for diagnostics.
func (l *ListElement[T]) StringValue() string {
	s := ""
	for _, it := range l.items {
		if it.State == Deleted {
			continue
		}
		if s != "" {
			s += ","
		}
		s += formatScalar(it.Value)
	}
	return s
}

// Values returns the live (non-deleted) item values in order.
func (l *ListElement[T]) Values() []T {
	out := make([]T, 0, len(l.items))
	for _, it := range l.items {
		if it.State != Deleted {
			out = append(out, it.Value)
		}
	}
	return out
}

// Items exposes the raw items including per-item state.
func (l *ListElement[T]) Items() []ListItem[T] { return l.items }

// Add appends a value in state Added.
func (l *ListElement[T]) Add(v T) {
	l.items = append(l.items, ListItem[T]{Value: v, State: Added})
}

// Remove marks the first live item equal to v as Deleted and reports
// whether such an item existed.
func (l *ListElement[T]) Remove(v T) bool {
	for i := range l.items {
		if l.items[i].Value == v && l.items[i].State != Deleted {
			l.items[i].State = Deleted
			return true
		}
	}
	return false
}
